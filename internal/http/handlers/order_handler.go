package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/service"
	"github.com/ignatzorin/marketplace-backend/internal/storage"
)

type OrderHandler struct {
	orders *service.OrderService
	proofs *storage.ProofStorage
}

func NewOrderHandler(orders *service.OrderService, proofs *storage.ProofStorage) *OrderHandler {
	return &OrderHandler{orders: orders, proofs: proofs}
}

// List GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}

	orders, err := h.orders.ListMine(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Get GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	order, err := h.orders.Get(c.Request.Context(), actor, orderID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// AcceptProposal POST /proposals/:id/accept
func (h *OrderHandler) AcceptProposal(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}
	proposalID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	order, err := h.orders.AcceptProposal(c.Request.Context(), actor, proposalID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// DirectHire POST /orders/direct
func (h *OrderHandler) DirectHire(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}

	var req struct {
		JobID        uuid.UUID `json:"job_id" binding:"required"`
		FreelancerID uuid.UUID `json:"freelancer_id" binding:"required"`
		Price        float64   `json:"price" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest(err))
		return
	}

	order, err := h.orders.DirectHire(c.Request.Context(), actor, req.JobID, req.FreelancerID, req.Price)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// Deliver POST /orders/:id/deliver
func (h *OrderHandler) Deliver(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	var req struct {
		URL     string  `json:"url" binding:"required"`
		Comment *string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest(err))
		return
	}

	order, err := h.orders.Deliver(c.Request.Context(), actor, orderID, req.URL, req.Comment)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// Approve POST /orders/:id/approve
func (h *OrderHandler) Approve(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	order, err := h.orders.ApproveDelivery(c.Request.Context(), actor, orderID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// RequestRevision POST /orders/:id/revision
func (h *OrderHandler) RequestRevision(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	var req struct {
		Comment string `json:"comment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest(err))
		return
	}

	order, err := h.orders.RequestRevision(c.Request.Context(), actor, orderID, req.Comment)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// Dispute POST /orders/:id/dispute
func (h *OrderHandler) Dispute(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest(err))
		return
	}

	order, err := h.orders.RaiseDispute(c.Request.Context(), actor, orderID, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// Cancel POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), actor, orderID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// UploadProof POST /orders/:id/proof — подтверждение банковского перевода.
func (h *OrderHandler) UploadProof(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		fail(c, badRequest(err))
		return
	}
	defer file.Close()

	relativePath, _, err := h.proofs.Save(c.Request.Context(), orderID, header.Filename, file)
	if err != nil {
		fail(c, err)
		return
	}

	order, err := h.orders.AttachPaymentProof(c.Request.Context(), actor, orderID, "/storage/proofs/"+relativePath)
	if err != nil {
		_ = h.proofs.Delete(c.Request.Context(), relativePath)
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListDisputed GET /admin/disputes
func (h *OrderHandler) ListDisputed(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}

	orders, err := h.orders.ListDisputed(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Mediate POST /admin/disputes/:id/mediate
func (h *OrderHandler) Mediate(c *gin.Context) {
	actor, err := currentActor(c)
	if err != nil {
		fail(c, err)
		return
	}
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	var req struct {
		Outcome string `json:"outcome" binding:"required"`
		Result  string `json:"result" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest(err))
		return
	}

	order, err := h.orders.Mediate(c.Request.Context(), actor, orderID,
		service.MediationOutcome(req.Outcome), req.Result)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}
