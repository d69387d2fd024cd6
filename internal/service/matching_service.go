package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

// SuggestionLimit — сколько кандидатов возвращает подбор.
const SuggestionLimit = 5

// Пороги допуска к подбору.
const (
	minCompletionRate = 80.0
	maxDisputeCount   = 3
	recencyWindow     = 30 * 24 * time.Hour
)

// MatchingRepository описывает зависимости подбора фрилансеров.
type MatchingRepository interface {
	ListVisibleFreelancers(ctx context.Context) ([]models.FreelancerProfile, error)
}

// JobReader даёт доступ к заданию для проверки владения.
type JobReader interface {
	GetJobByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
}

// MatchingService подбирает фрилансеров под задание по навыкам и репутации.
type MatchingService struct {
	profiles MatchingRepository
	jobs     JobReader
	now      func() time.Time
}

func NewMatchingService(profiles MatchingRepository, jobs JobReader) *MatchingService {
	return &MatchingService{profiles: profiles, jobs: jobs, now: time.Now}
}

// ScoredProfile — профиль с итоговым баллом подбора.
type ScoredProfile struct {
	Profile models.FreelancerProfile `json:"profile"`
	Score   float64                  `json:"score"`
}

// Suggest возвращает до пяти лучших кандидатов под задание.
// Доступно владельцу задания и администратору.
func (s *MatchingService) Suggest(ctx context.Context, actor models.Actor, jobID uuid.UUID) ([]ScoredProfile, error) {
	job, err := s.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrForbidden
	}

	profiles, err := s.profiles.ListVisibleFreelancers(ctx)
	if err != nil {
		return nil, err
	}

	return RankFreelancers(job.Skills, profiles, s.now()), nil
}

// RankFreelancers отбирает допущенных кандидатов и сортирует их по баллу.
// Допуск: верифицирован, видим, доступен, completionRate >= 80 и менее
// трёх споров. Балл: 70% совпадение навыков, 20% репутация, 10% свежесть
// активности; ограниченная видимость режет итог вдвое.
func RankFreelancers(jobSkills []string, profiles []models.FreelancerProfile, now time.Time) []ScoredProfile {
	var scored []ScoredProfile

	for _, profile := range profiles {
		if !eligible(profile) {
			continue
		}
		scored = append(scored, ScoredProfile{
			Profile: profile,
			Score:   matchScore(jobSkills, profile, now),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > SuggestionLimit {
		scored = scored[:SuggestionLimit]
	}
	return scored
}

func eligible(profile models.FreelancerProfile) bool {
	if !profile.Verified || !profile.Available {
		return false
	}
	if profile.Visibility != models.VisibilityNormal && profile.Visibility != models.VisibilityLimited {
		return false
	}
	return profile.CompletionRate >= minCompletionRate && profile.DisputeCount < maxDisputeCount
}

func matchScore(jobSkills []string, profile models.FreelancerProfile, now time.Time) float64 {
	skillScore := 0.0
	if len(jobSkills) > 0 {
		common := 0
		for _, skill := range profile.Skills {
			for _, jobSkill := range jobSkills {
				if strings.EqualFold(skill, jobSkill) {
					common++
					break
				}
			}
		}
		skillScore = float64(common) / float64(len(jobSkills)) * 100
	}

	reputationScore := profile.Rating*10 + profile.SuccessScore

	recencyScore := 50.0
	if profile.LastActiveAt != nil && now.Sub(*profile.LastActiveAt) <= recencyWindow {
		recencyScore = 100
	}

	score := skillScore*0.7 + reputationScore*0.2 + recencyScore*0.1
	if profile.Visibility == models.VisibilityLimited {
		score *= 0.5
	}
	return score
}
