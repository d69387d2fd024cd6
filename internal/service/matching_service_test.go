package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/marketplace-backend/internal/models"
)

func eligibleProfile(name string) models.FreelancerProfile {
	active := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	return models.FreelancerProfile{
		UserID:       uuidMust(),
		DisplayName:  name,
		Skills:       []string{"go", "postgresql"},
		Verified:     true,
		Visibility:   models.VisibilityNormal,
		Available:    true,
		Rating:       5,
		LastActiveAt: &active,
		FreelancerMetrics: models.FreelancerMetrics{
			CompletionRate: 100,
			SuccessScore:   50,
		},
	}
}

func matchNow() time.Time {
	return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
}

func TestRankFreelancers_FiltersIneligible(t *testing.T) {
	unverified := eligibleProfile("не верифицирован")
	unverified.Verified = false

	hidden := eligibleProfile("скрыт")
	hidden.Visibility = models.VisibilityHidden

	busy := eligibleProfile("занят")
	busy.Available = false

	lowRate := eligibleProfile("низкий completion rate")
	lowRate.CompletionRate = 79.9

	disputed := eligibleProfile("три спора")
	disputed.DisputeCount = 3

	ok := eligibleProfile("подходит")

	got := RankFreelancers([]string{"go"}, []models.FreelancerProfile{unverified, hidden, busy, lowRate, disputed, ok}, matchNow())

	assert.Len(t, got, 1)
	assert.Equal(t, ok.UserID, got[0].Profile.UserID)
}

func TestRankFreelancers_ScoreWeights(t *testing.T) {
	p := eligibleProfile("полное совпадение")

	got := RankFreelancers([]string{"go", "postgresql"}, []models.FreelancerProfile{p}, matchNow())

	assert.Len(t, got, 1)
	// 100*0.7 + (5*10+50)*0.2 + 100*0.1
	assert.InDelta(t, 100.0, got[0].Score, 0.001)
}

func TestRankFreelancers_SkillMatchIsCaseInsensitive(t *testing.T) {
	p := eligibleProfile("регистр навыков")
	p.Skills = []string{"Go", "PostgreSQL"}

	got := RankFreelancers([]string{"go", "postgresql"}, []models.FreelancerProfile{p}, matchNow())

	assert.Len(t, got, 1)
	assert.InDelta(t, 100.0, got[0].Score, 0.001)
}

func TestRankFreelancers_StaleActivityLowersScore(t *testing.T) {
	stale := eligibleProfile("давно не заходил")
	old := matchNow().Add(-60 * 24 * time.Hour)
	stale.LastActiveAt = &old

	got := RankFreelancers([]string{"go", "postgresql"}, []models.FreelancerProfile{stale}, matchNow())

	assert.Len(t, got, 1)
	// Свежесть 50 вместо 100: итог ниже на 5 баллов.
	assert.InDelta(t, 95.0, got[0].Score, 0.001)
}

func TestRankFreelancers_LimitedVisibilityHalvesScore(t *testing.T) {
	limited := eligibleProfile("ограниченная видимость")
	limited.Visibility = models.VisibilityLimited

	normal := eligibleProfile("обычная видимость")

	got := RankFreelancers([]string{"go", "postgresql"}, []models.FreelancerProfile{limited, normal}, matchNow())

	assert.Len(t, got, 2)
	assert.Equal(t, normal.UserID, got[0].Profile.UserID)
	assert.InDelta(t, 100.0, got[0].Score, 0.001)
	assert.InDelta(t, 50.0, got[1].Score, 0.001)
}

func TestRankFreelancers_CapsAtSuggestionLimit(t *testing.T) {
	var profiles []models.FreelancerProfile
	for i := 0; i < SuggestionLimit+3; i++ {
		profiles = append(profiles, eligibleProfile(fmt.Sprintf("кандидат %d", i)))
	}

	got := RankFreelancers([]string{"go"}, profiles, matchNow())

	assert.Len(t, got, SuggestionLimit)
}

// При равном балле сохраняется исходный порядок кандидатов.
func TestRankFreelancers_StableOrderOnTies(t *testing.T) {
	first := eligibleProfile("первый")
	second := eligibleProfile("второй")

	got := RankFreelancers([]string{"go"}, []models.FreelancerProfile{first, second}, matchNow())

	assert.Len(t, got, 2)
	assert.Equal(t, first.UserID, got[0].Profile.UserID)
	assert.Equal(t, second.UserID, got[1].Profile.UserID)
}

func TestRankFreelancers_NoSkillsRequested(t *testing.T) {
	p := eligibleProfile("без навыков в задании")

	got := RankFreelancers(nil, []models.FreelancerProfile{p}, matchNow())

	assert.Len(t, got, 1)
	// 0*0.7 + 100*0.2 + 100*0.1
	assert.InDelta(t, 30.0, got[0].Score, 0.001)
}
