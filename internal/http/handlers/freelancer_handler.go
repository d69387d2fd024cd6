package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/marketplace-backend/internal/service"
)

type FreelancerHandler struct {
	profiles *service.ProfileService
	matching *service.MatchingService
}

func NewFreelancerHandler(profiles *service.ProfileService, matching *service.MatchingService) *FreelancerHandler {
	return &FreelancerHandler{profiles: profiles, matching: matching}
}

// GetProfile GET /freelancers/:id
func (h *FreelancerHandler) GetProfile(c *gin.Context) {
	userID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile PUT /freelancers/me
func (h *FreelancerHandler) UpdateProfile(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}

	var req struct {
		DisplayName string   `json:"display_name" binding:"required"`
		Title       string   `json:"title"`
		Bio         *string  `json:"bio"`
		Skills      []string `json:"skills"`
		HourlyRate  *float64 `json:"hourly_rate"`
		Available   bool     `json:"available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest(err))
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), actor, service.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Title:       req.Title,
		Bio:         req.Bio,
		Skills:      req.Skills,
		HourlyRate:  req.HourlyRate,
		Available:   req.Available,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Suggest GET /jobs/:id/suggestions — подбор исполнителей под задание.
func (h *FreelancerHandler) Suggest(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}
	jobID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	suggestions, err := h.matching.Suggest(c.Request.Context(), actor, jobID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
