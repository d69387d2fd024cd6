package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/http/middleware"
	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

// currentActor извлекает инициатора, положенного в контекст AuthMiddleware.
func currentActor(c *gin.Context) (models.Actor, error) {
	raw, exists := c.Get(middleware.ContextActorKey)
	if !exists {
		return models.Actor{}, apperror.ErrUnauthorized
	}

	actor, ok := raw.(models.Actor)
	if !ok {
		return models.Actor{}, apperror.ErrUnauthorized
	}
	return actor, nil
}

// parseUUIDParam читает UUID из параметра пути.
func parseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		return uuid.Nil, apperror.Newf(apperror.ErrCodeBadRequest, "параметр %s должен быть валидным UUID", paramName)
	}
	return parsed, nil
}

// fail передаёт ошибку центральному обработчику.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// badRequest оборачивает ошибку привязки запроса.
func badRequest(err error) error {
	return apperror.New(apperror.ErrCodeBadRequest, fmt.Sprintf("ошибка валидации запроса: %v", err))
}
