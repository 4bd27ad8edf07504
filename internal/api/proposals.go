package api

import (
	"net/http"
	"strings"

	"institute-admin/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProposalHandler struct {
	db *gorm.DB
}

func NewProposalHandler(db *gorm.DB) *ProposalHandler {
	return &ProposalHandler{db: db}
}

func newProposalReference() string {
	return "PRO-" + strings.ToUpper(uuid.NewString()[:8])
}

func (h *ProposalHandler) GetProposals(c *gin.Context) {
	var proposals []models.Proposal
	q := h.db.Preload("Lead").Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if leadID := c.Query("lead_id"); leadID != "" {
		q = q.Where("lead_id = ?", leadID)
	}
	if err := q.Find(&proposals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if proposals == nil {
		proposals = []models.Proposal{}
	}
	c.JSON(http.StatusOK, proposals)
}

func (h *ProposalHandler) GetProposal(c *gin.Context) {
	id := c.Param("id")

	var proposal models.Proposal
	if err := h.db.Preload("Lead").First(&proposal, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
		return
	}

	c.JSON(http.StatusOK, proposal)
}

type CreateProposalRequest struct {
	LeadID uint    `json:"lead_id" binding:"required"`
	Title  string  `json:"title" binding:"required"`
	Body   string  `json:"body"`
	Amount float64 `json:"amount"`
}

func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	var req CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proposal := models.Proposal{
		Reference: newProposalReference(),
		LeadID:    req.LeadID,
		Title:     req.Title,
		Body:      req.Body,
		Amount:    req.Amount,
		Status:    models.ProposalStatusDraft,
	}
	if err := h.db.Create(&proposal).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create proposal"})
		return
	}

	c.JSON(http.StatusCreated, proposal)
}

type UpdateProposalRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Amount *float64 `json:"amount"`
	Status string   `json:"status"`
}

func (h *ProposalHandler) UpdateProposal(c *gin.Context) {
	id := c.Param("id")

	var proposal models.Proposal
	if err := h.db.First(&proposal, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Proposal not found"})
		return
	}

	var req UpdateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Title != "" {
		proposal.Title = req.Title
	}
	if req.Body != "" {
		proposal.Body = req.Body
	}
	if req.Amount != nil {
		proposal.Amount = *req.Amount
	}
	if req.Status != "" {
		switch req.Status {
		case models.ProposalStatusDraft, models.ProposalStatusSent,
			models.ProposalStatusAccepted, models.ProposalStatusRejected:
			proposal.Status = req.Status
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid proposal status"})
			return
		}
	}

	if err := h.db.Save(&proposal).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update proposal"})
		return
	}

	c.JSON(http.StatusOK, proposal)
}
