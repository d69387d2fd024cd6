package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/marketplace-backend/internal/models"
)

func newTestTokenManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := newTestTokenManager()
	user := &models.User{ID: uuidMust(), Role: models.RoleFreelancer}

	pair, err := m.GeneratePair(user)

	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, 15*time.Minute, pair.ExpiresIn)

	actor, err := m.ParseAccess(pair.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, actor.ID)
	assert.Equal(t, models.RoleFreelancer, actor.Role)

	actor, err = m.ParseRefresh(pair.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, actor.ID)
}

// Access и refresh подписываются разными секретами и не взаимозаменяемы.
func TestTokenManager_TokensNotInterchangeable(t *testing.T) {
	m := newTestTokenManager()
	user := &models.User{ID: uuidMust(), Role: models.RoleClient}

	pair, err := m.GeneratePair(user)
	assert.NoError(t, err)

	_, err = m.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)

	_, err = m.ParseRefresh(pair.AccessToken)
	assert.Error(t, err)
}

func TestTokenManager_RejectsForeignToken(t *testing.T) {
	m := newTestTokenManager()
	other := NewTokenManager("other-access", "other-refresh", 15*time.Minute, 24*time.Hour)
	user := &models.User{ID: uuidMust(), Role: models.RoleClient}

	pair, err := other.GeneratePair(user)
	assert.NoError(t, err)

	_, err = m.ParseAccess(pair.AccessToken)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	m := NewTokenManager("access-secret", "refresh-secret", -time.Minute, -time.Minute)
	user := &models.User{ID: uuidMust(), Role: models.RoleClient}

	pair, err := m.GeneratePair(user)
	assert.NoError(t, err)

	_, err = m.ParseAccess(pair.AccessToken)
	assert.Error(t, err)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	m := newTestTokenManager()

	_, err := m.ParseAccess("not-a-jwt")

	assert.Error(t, err)
}
