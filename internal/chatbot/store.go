package chatbot

import (
	"log"

	"institute-admin/internal/models"
)

// Store is the persistence boundary for the conversation engine. Lookups
// return (nil, nil) when no record exists; a non-nil error always means the
// storage layer itself failed.
type Store interface {
	ChatByPhone(phone string) (*models.Chat, error)
	CreateChat(chat *models.Chat) error
	UpdateChat(chat *models.Chat) error

	LeadByPhone(phone string) (*models.Lead, error)
	CreateLead(lead *models.Lead) error

	CreateMessage(msg *models.ChatMessage) error

	ActiveSession(chatID uint) (*models.ChatSession, error)
	CreateSession(session *models.ChatSession) error
	UpdateSession(session *models.ChatSession) error

	ActiveFlows() ([]models.ChatbotFlow, error)
	DefaultFlow() (*models.ChatbotFlow, error)
	StartNode(flowID uint) (*models.FlowNode, error)
	NodeByID(id uint) (*models.FlowNode, error)
	NodeConditions(nodeID uint) ([]models.NodeCondition, error)
	NodeActions(nodeID uint) ([]models.NodeAction, error)
}

// Notifier receives inbox events as the engine records them. The dashboard
// WebSocket hub implements this to live-update connected clients.
type Notifier interface {
	NotifyChatMessage(msg models.ChatMessage)
	NotifyLead(lead models.Lead)
}

// ActionDispatcher receives the opaque action payloads attached to a node
// whenever the engine enters that node. Implementations own the side effects;
// the engine never interprets the payload.
type ActionDispatcher interface {
	Dispatch(chatID uint, node models.FlowNode, actions []models.NodeAction)
}

// LogDispatcher logs action payloads and drops them. Used when no external
// action handler is wired in.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(chatID uint, node models.FlowNode, actions []models.NodeAction) {
	for _, a := range actions {
		log.Printf("[Dispatch] chat=%d node=%d action=%d payload=%s", chatID, node.ID, a.ID, a.Data)
	}
}
