package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Role определяет роль пользователя на платформе.
type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"

	// RoleGateway — служебная роль для подтверждений платежей, пришедших
	// от платёжного шлюза с проверенной подписью. Пользователям не выдаётся.
	RoleGateway Role = "gateway"
)

// ValidRoles список ролей, доступных при регистрации.
var ValidRoles = map[Role]struct{}{
	RoleClient:     {},
	RoleFreelancer: {},
	RoleAdmin:      {},
}

// Actor описывает аутентифицированного инициатора операции.
// Передаётся явно в каждый метод сервисного слоя, а не читается из глобального контекста.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

// IsAdmin сообщает, является ли инициатор администратором.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// GatewayActor — инициатор для операций, подтверждённых подписью шлюза.
var GatewayActor = Actor{Role: RoleGateway}

// User описывает пользователя платформы.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// ClientMetrics — производные метрики доверия заказчика.
// Всегда пересчитываются заново по полной истории заказов (см. ReputationService).
type ClientMetrics struct {
	TrustScore        float64 `db:"trust_score" json:"trust_score"`
	TotalSpent        float64 `db:"total_spent" json:"total_spent"`
	CancelledByClient int     `db:"cancelled_by_client" json:"cancelled_by_client"`
	DisputeCount      int     `db:"dispute_count" json:"dispute_count"`
}

// Visibility управляет видимостью фрилансера в подборе и поиске.
type Visibility string

const (
	VisibilityNormal  Visibility = "normal"
	VisibilityLimited Visibility = "limited"
	VisibilityHidden  Visibility = "hidden"
)

// FreelancerMetrics — производные метрики фрилансера.
type FreelancerMetrics struct {
	TotalOrders            int     `db:"total_orders" json:"total_orders"`
	CompletionRate         float64 `db:"completion_rate" json:"completion_rate"`
	SuccessScore           float64 `db:"success_score" json:"success_score"`
	DisputeCount           int     `db:"dispute_count" json:"dispute_count"`
	ProposalAcceptanceRate float64 `db:"proposal_acceptance_rate" json:"proposal_acceptance_rate"`
	ProposalsSentCount     int     `db:"proposals_sent_count" json:"proposals_sent_count"`
}

// FreelancerProfile описывает публичный профиль фрилансера.
type FreelancerProfile struct {
	UserID       uuid.UUID      `db:"user_id" json:"user_id"`
	DisplayName  string         `db:"display_name" json:"display_name"`
	Title        string         `db:"title" json:"title"`
	Bio          *string        `db:"bio" json:"bio,omitempty"`
	Skills       pq.StringArray `db:"skills" json:"skills"`
	HourlyRate   *float64       `db:"hourly_rate" json:"hourly_rate,omitempty"`
	Verified     bool           `db:"verified" json:"verified"`
	Visibility   Visibility     `db:"visibility" json:"visibility"`
	Available    bool           `db:"available" json:"available"`
	Rating       float64        `db:"rating" json:"rating"`
	ReviewCount  int            `db:"review_count" json:"review_count"`
	LastActiveAt *time.Time     `db:"last_active_at" json:"last_active_at,omitempty"`

	FreelancerMetrics

	LastOrderCompletedAt *time.Time `db:"last_order_completed_at" json:"last_order_completed_at,omitempty"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}
