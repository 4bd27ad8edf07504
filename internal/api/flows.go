package api

import (
	"net/http"

	"institute-admin/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type FlowHandler struct {
	db *gorm.DB
}

func NewFlowHandler(db *gorm.DB) *FlowHandler {
	return &FlowHandler{db: db}
}

func (h *FlowHandler) GetFlows(c *gin.Context) {
	var flows []models.ChatbotFlow
	if err := h.db.Order("id").Find(&flows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if flows == nil {
		flows = []models.ChatbotFlow{}
	}
	c.JSON(http.StatusOK, flows)
}

func (h *FlowHandler) GetFlow(c *gin.Context) {
	id := c.Param("id")

	var flow models.ChatbotFlow
	err := h.db.Preload("Nodes.Conditions").Preload("Nodes.Actions").First(&flow, id).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Flow not found"})
		return
	}

	c.JSON(http.StatusOK, flow)
}

type FlowConditionRequest struct {
	Type       string `json:"type" binding:"required"`
	Value      string `json:"value"`
	NextNodeID uint   `json:"next_node_id"`
}

type FlowActionRequest struct {
	Data string `json:"data"`
}

type FlowNodeRequest struct {
	Type       string                 `json:"type" binding:"required"`
	Message    string                 `json:"message"`
	Position   int                    `json:"position"`
	Conditions []FlowConditionRequest `json:"conditions"`
	Actions    []FlowActionRequest    `json:"actions"`
}

type SaveFlowRequest struct {
	Name            string            `json:"name" binding:"required"`
	Description     string            `json:"description"`
	TriggerKeywords string            `json:"trigger_keywords"`
	IsActive        *bool             `json:"is_active"`
	Nodes           []FlowNodeRequest `json:"nodes"`
}

func (h *FlowHandler) CreateFlow(c *gin.Context) {
	var req SaveFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flow := models.ChatbotFlow{
		Name:            req.Name,
		Description:     req.Description,
		TriggerKeywords: req.TriggerKeywords,
		IsActive:        true,
	}
	if req.IsActive != nil {
		flow.IsActive = *req.IsActive
	}
	for _, n := range req.Nodes {
		node := models.FlowNode{
			Type:     n.Type,
			Message:  n.Message,
			Position: n.Position,
		}
		for _, cond := range n.Conditions {
			node.Conditions = append(node.Conditions, models.NodeCondition{
				Type:       cond.Type,
				Value:      cond.Value,
				NextNodeID: cond.NextNodeID,
			})
		}
		for _, act := range n.Actions {
			node.Actions = append(node.Actions, models.NodeAction{Data: act.Data})
		}
		flow.Nodes = append(flow.Nodes, node)
	}

	if err := h.db.Create(&flow).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create flow"})
		return
	}

	c.JSON(http.StatusCreated, flow)
}

// UpdateFlow replaces the flow's metadata and entire node graph. In-flight
// sessions pointing at replaced node ids end with the generic error reply on
// their next message.
func (h *FlowHandler) UpdateFlow(c *gin.Context) {
	id := c.Param("id")

	var flow models.ChatbotFlow
	if err := h.db.First(&flow, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Flow not found"})
		return
	}

	var req SaveFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var nodeIDs []uint
		if err := tx.Model(&models.FlowNode{}).Where("flow_id = ?", flow.ID).Pluck("id", &nodeIDs).Error; err != nil {
			return err
		}
		if len(nodeIDs) > 0 {
			if err := tx.Where("node_id IN ?", nodeIDs).Delete(&models.NodeCondition{}).Error; err != nil {
				return err
			}
			if err := tx.Where("node_id IN ?", nodeIDs).Delete(&models.NodeAction{}).Error; err != nil {
				return err
			}
			if err := tx.Where("flow_id = ?", flow.ID).Delete(&models.FlowNode{}).Error; err != nil {
				return err
			}
		}

		flow.Name = req.Name
		flow.Description = req.Description
		flow.TriggerKeywords = req.TriggerKeywords
		if req.IsActive != nil {
			flow.IsActive = *req.IsActive
		}
		flow.Nodes = nil
		for _, n := range req.Nodes {
			node := models.FlowNode{
				Type:     n.Type,
				Message:  n.Message,
				Position: n.Position,
			}
			for _, cond := range n.Conditions {
				node.Conditions = append(node.Conditions, models.NodeCondition{
					Type:       cond.Type,
					Value:      cond.Value,
					NextNodeID: cond.NextNodeID,
				})
			}
			for _, act := range n.Actions {
				node.Actions = append(node.Actions, models.NodeAction{Data: act.Data})
			}
			flow.Nodes = append(flow.Nodes, node)
		}

		return tx.Save(&flow).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update flow"})
		return
	}

	c.JSON(http.StatusOK, flow)
}

func (h *FlowHandler) DeleteFlow(c *gin.Context) {
	id := c.Param("id")

	result := h.db.Delete(&models.ChatbotFlow{}, id)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete flow"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Flow not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Flow deleted"})
}

func (h *FlowHandler) ToggleFlow(c *gin.Context) {
	id := c.Param("id")

	var flow models.ChatbotFlow
	if err := h.db.First(&flow, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Flow not found"})
		return
	}

	if err := h.db.Model(&flow).Update("is_active", !flow.IsActive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle flow"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": flow.ID, "is_active": flow.IsActive})
}

// SetDefaultFlow marks one flow as the keyword-match fallback, clearing the
// flag everywhere else.
func (h *FlowHandler) SetDefaultFlow(c *gin.Context) {
	id := c.Param("id")

	var flow models.ChatbotFlow
	if err := h.db.First(&flow, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Flow not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ChatbotFlow{}).Where("is_default = ?", true).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&flow).Update("is_default", true).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set default flow"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": flow.ID, "is_default": true})
}
