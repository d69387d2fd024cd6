package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/models"
)

// NotificationRepository описывает хранилище уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
}

// Pusher доставляет уведомление в открытые websocket-сессии пользователя.
type Pusher interface {
	Push(userID uuid.UUID, n *models.Notification)
}

// NotificationService сохраняет уведомления и рассылает их по websocket.
// Уведомления — побочный эффект переходов заказа: ошибки здесь логируются,
// но никогда не откатывают сам переход.
type NotificationService struct {
	repo   NotificationRepository
	pusher Pusher
}

// NewNotificationService создаёт сервис уведомлений. pusher может быть nil.
func NewNotificationService(repo NotificationRepository, pusher Pusher) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher}
}

// Notify сохраняет уведомление и отправляет его в websocket.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, title, message string, severity models.Severity, link *string) {
	n := &models.Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Severity: severity,
		Link:     link,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		logger.Log.Errorf("notification service: не удалось сохранить уведомление для %s: %v", userID, err)
		return
	}

	if s.pusher != nil {
		s.pusher.Push(userID, n)
	}
}

// List возвращает уведомления пользователя.
func (s *NotificationService) List(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, actor.ID, limit, offset)
}

// CountUnread возвращает число непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, actor models.Actor) (int, error) {
	return s.repo.CountUnread(ctx, actor.ID)
}

// MarkAsRead помечает уведомление прочитанным.
func (s *NotificationService) MarkAsRead(ctx context.Context, actor models.Actor, notificationID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, actor.ID, notificationID)
}

// MarkAllAsRead помечает все уведомления пользователя прочитанными.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, actor models.Actor) error {
	return s.repo.MarkAllAsRead(ctx, actor.ID)
}
