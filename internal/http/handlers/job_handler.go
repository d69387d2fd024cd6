package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/marketplace-backend/internal/service"
)

type JobHandler struct {
	jobs *service.JobService
}

func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Create POST /jobs
func (h *JobHandler) Create(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}

	var req struct {
		Title       string   `json:"title" binding:"required"`
		Description string   `json:"description" binding:"required"`
		Category    string   `json:"category"`
		Budget      float64  `json:"budget" binding:"required,gt=0"`
		Skills      []string `json:"skills"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest(err))
		return
	}

	job, err := h.jobs.CreateJob(c.Request.Context(), actor, service.CreateJobInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Budget:      req.Budget,
		Skills:      req.Skills,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// List GET /jobs
func (h *JobHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	jobs, err := h.jobs.ListOpenJobs(c.Request.Context(), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// Get GET /jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// Mine GET /jobs/mine
func (h *JobHandler) Mine(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}

	jobs, err := h.jobs.ListMyJobs(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// SubmitProposal POST /jobs/:id/proposals
func (h *JobHandler) SubmitProposal(c *gin.Context) {
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

	var req struct {
		CoverLetter   string  `json:"cover_letter" binding:"required"`
		Quote         float64 `json:"quote" binding:"required,gt=0"`
		EstimatedDays int     `json:"estimated_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest(err))
		return
	}

	proposal, err := h.jobs.SubmitProposal(c.Request.Context(), actor, service.SubmitProposalInput{
		JobID:         jobID,
		CoverLetter:   req.CoverLetter,
		Quote:         req.Quote,
		EstimatedDays: req.EstimatedDays,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, proposal)
}

// ListProposals GET /jobs/:id/proposals
func (h *JobHandler) ListProposals(c *gin.Context) {
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

	proposals, err := h.jobs.ListProposals(c.Request.Context(), actor, jobID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// MyProposals GET /proposals/mine
func (h *JobHandler) MyProposals(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}

	proposals, err := h.jobs.ListMyProposals(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}
