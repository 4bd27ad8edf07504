// Package store provides the gorm-backed implementation of the conversation
// engine's persistence boundary.
package store

import (
	"errors"

	"institute-admin/internal/models"

	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// notFound maps gorm's record-not-found to a nil-result miss.
func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func (s *GormStore) ChatByPhone(phone string) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.Where("phone = ?", phone).First(&chat).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (s *GormStore) CreateChat(chat *models.Chat) error {
	return s.db.Create(chat).Error
}

func (s *GormStore) UpdateChat(chat *models.Chat) error {
	return s.db.Save(chat).Error
}

func (s *GormStore) LeadByPhone(phone string) (*models.Lead, error) {
	var lead models.Lead
	err := s.db.Where("phone = ? OR whatsapp_number = ?", phone, phone).First(&lead).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (s *GormStore) CreateLead(lead *models.Lead) error {
	return s.db.Create(lead).Error
}

func (s *GormStore) CreateMessage(msg *models.ChatMessage) error {
	return s.db.Create(msg).Error
}

func (s *GormStore) ActiveSession(chatID uint) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.Where("chat_id = ? AND is_active = ?", chatID, true).First(&session).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *GormStore) CreateSession(session *models.ChatSession) error {
	return s.db.Create(session).Error
}

func (s *GormStore) UpdateSession(session *models.ChatSession) error {
	return s.db.Save(session).Error
}

func (s *GormStore) ActiveFlows() ([]models.ChatbotFlow, error) {
	var flows []models.ChatbotFlow
	err := s.db.Where("is_active = ?", true).Order("id").Find(&flows).Error
	return flows, err
}

func (s *GormStore) DefaultFlow() (*models.ChatbotFlow, error) {
	var flow models.ChatbotFlow
	err := s.db.Where("is_active = ? AND is_default = ?", true, true).Order("id").First(&flow).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &flow, nil
}

// StartNode resolves the entry node of a flow: an explicit start-typed node
// wins, otherwise the node at position 1.
func (s *GormStore) StartNode(flowID uint) (*models.FlowNode, error) {
	var node models.FlowNode
	err := s.db.Where("flow_id = ? AND type = ?", flowID, models.NodeTypeStart).Order("position").First(&node).Error
	if err == nil {
		return &node, nil
	}
	if !notFound(err) {
		return nil, err
	}

	err = s.db.Where("flow_id = ? AND position = ?", flowID, 1).First(&node).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (s *GormStore) NodeByID(id uint) (*models.FlowNode, error) {
	if id == 0 {
		return nil, nil
	}
	var node models.FlowNode
	err := s.db.First(&node, id).Error
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (s *GormStore) NodeConditions(nodeID uint) ([]models.NodeCondition, error) {
	var conditions []models.NodeCondition
	err := s.db.Where("node_id = ?", nodeID).Order("id").Find(&conditions).Error
	return conditions, err
}

func (s *GormStore) NodeActions(nodeID uint) ([]models.NodeAction, error) {
	var actions []models.NodeAction
	err := s.db.Where("node_id = ?", nodeID).Order("id").Find(&actions).Error
	return actions, err
}
