package api

import (
	"log"
	"net/http"

	"institute-admin/internal/models"
	"institute-admin/internal/whatsapp"
	"institute-admin/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ChatHandler struct {
	db     *gorm.DB
	client *whatsapp.Client
	hub    *ws.Hub
}

func NewChatHandler(db *gorm.DB, client *whatsapp.Client, hub *ws.Hub) *ChatHandler {
	return &ChatHandler{db: db, client: client, hub: hub}
}

func (h *ChatHandler) GetChats(c *gin.Context) {
	var chats []models.Chat
	if err := h.db.Preload("Lead").Order("updated_at DESC").Find(&chats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if chats == nil {
		chats = []models.Chat{}
	}
	c.JSON(http.StatusOK, chats)
}

func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	id := c.Param("id")

	var chat models.Chat
	if err := h.db.First(&chat, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	}

	var messages []models.ChatMessage
	if err := h.db.Where("chat_id = ?", chat.ID).Order("created_at").Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if messages == nil {
		messages = []models.ChatMessage{}
	}
	c.JSON(http.StatusOK, messages)
}

type ReplyRequest struct {
	Content    string `json:"content" binding:"required"`
	Consultant string `json:"consultant"`
}

// ReplyToChat sends a consultant reply over WhatsApp, persists it and resets
// the chat's unread count.
func (h *ChatHandler) ReplyToChat(c *gin.Context) {
	id := c.Param("id")

	var chat models.Chat
	if err := h.db.First(&chat, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	}

	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.client.SendMessage(chat.Phone, req.Content); err != nil {
		log.Printf("Error sending consultant reply to %s: %v", chat.Phone, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send message"})
		return
	}

	msg := models.ChatMessage{
		ChatID:  chat.ID,
		Sender:  models.SenderConsultant,
		Content: req.Content,
	}
	if err := h.db.Create(&msg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record message"})
		return
	}

	updates := map[string]interface{}{"unread_count": 0}
	if req.Consultant != "" {
		updates["consultant"] = req.Consultant
	}
	if err := h.db.Model(&chat).Updates(updates).Error; err != nil {
		log.Printf("Error updating chat %d after reply: %v", chat.ID, err)
	}

	if h.hub != nil {
		h.hub.NotifyChatMessage(msg)
	}

	c.JSON(http.StatusCreated, msg)
}

func (h *ChatHandler) MarkChatRead(c *gin.Context) {
	id := c.Param("id")

	result := h.db.Model(&models.Chat{}).Where("id = ?", id).Update("unread_count", 0)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark chat read"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Chat marked read"})
}
