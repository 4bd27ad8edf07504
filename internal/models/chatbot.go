package models

import (
	"strings"
	"time"
)

// Node types understood by the conversation engine.
const (
	NodeTypeStart     = "start"
	NodeTypeMessage   = "message"
	NodeTypeQuestion  = "question"
	NodeTypeCondition = "condition"
	NodeTypeAction    = "action"
	NodeTypeEnd       = "end"
)

// Condition types evaluated against the inbound message.
const (
	ConditionContains = "contains"
	ConditionEquals   = "equals"
	ConditionRegex    = "regex"
	ConditionDefault  = "default"
)

// ChatbotFlow is a keyword-triggered conversation template.
type ChatbotFlow struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"type:varchar(255);not null" json:"name"`
	Description     string     `gorm:"type:text" json:"description"`
	TriggerKeywords string     `gorm:"type:text" json:"trigger_keywords"` // comma separated
	IsActive        bool       `gorm:"default:true" json:"is_active"`
	IsDefault       bool       `gorm:"default:false" json:"is_default"`
	Nodes           []FlowNode `gorm:"foreignKey:FlowID;constraint:OnDelete:CASCADE;" json:"nodes,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ChatbotFlow) TableName() string {
	return "chatbot_flows"
}

// Keywords splits TriggerKeywords into trimmed, non-empty entries.
func (f *ChatbotFlow) Keywords() []string {
	var out []string
	for _, kw := range strings.Split(f.TriggerKeywords, ",") {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// FlowNode is one step within a flow. Position locates the start node when no
// node carries the start type.
type FlowNode struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	FlowID     uint            `gorm:"index;not null" json:"flow_id"`
	Type       string          `gorm:"type:varchar(50);not null" json:"type"`
	Message    string          `gorm:"type:text" json:"message"`
	Position   int             `gorm:"default:0" json:"position"`
	Conditions []NodeCondition `gorm:"foreignKey:NodeID;constraint:OnDelete:CASCADE;" json:"conditions,omitempty"`
	Actions    []NodeAction    `gorm:"foreignKey:NodeID;constraint:OnDelete:CASCADE;" json:"actions,omitempty"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FlowNode) TableName() string {
	return "flow_nodes"
}

// NodeCondition routes from a node to its NextNodeID when the rule matches the
// inbound message. Rows are evaluated in primary-key order, first match wins.
type NodeCondition struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	NodeID     uint   `gorm:"index;not null" json:"node_id"`
	Type       string `gorm:"type:varchar(50);not null" json:"type"`
	Value      string `gorm:"type:text" json:"value"`
	NextNodeID uint   `json:"next_node_id"`
}

func (NodeCondition) TableName() string {
	return "node_conditions"
}

// NodeAction is an opaque side-effect payload attached to a node. The engine
// forwards it to a dispatcher and never interprets it.
type NodeAction struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	NodeID uint   `gorm:"index;not null" json:"node_id"`
	Data   string `gorm:"type:text" json:"data"` // JSON payload
}

func (NodeAction) TableName() string {
	return "node_actions"
}

// ChatSession is the live instantiation of a flow for one chat. At most one
// active session exists per chat.
type ChatSession struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ChatID        uint      `gorm:"index;not null" json:"chat_id"`
	FlowID        uint      `gorm:"not null" json:"flow_id"`
	StartNodeID   uint      `json:"start_node_id"`
	CurrentNodeID uint      `json:"current_node_id"`
	Variables     string    `gorm:"type:text" json:"variables"` // JSON map
	IsActive      bool      `gorm:"default:true;index" json:"is_active"`
	StartedAt     time.Time `gorm:"autoCreateTime" json:"started_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// Chat is the persistent conversation thread for one phone number.
type Chat struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Phone       string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"phone"`
	LeadID      uint      `gorm:"index" json:"lead_id"`
	Lead        *Lead     `gorm:"foreignKey:LeadID" json:"lead,omitempty"`
	Consultant  string    `gorm:"type:varchar(255)" json:"consultant"`
	UnreadCount int       `gorm:"default:0" json:"unread_count"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Chat) TableName() string {
	return "chats"
}

// Chat message senders.
const (
	SenderUser       = "user"
	SenderBot        = "bot"
	SenderConsultant = "consultant"
)

// ChatMessage is one message within a chat, inbound or outbound.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChatID    uint      `gorm:"index;not null" json:"chat_id"`
	Sender    string    `gorm:"type:varchar(20);not null" json:"sender"`
	Content   string    `gorm:"type:text" json:"content"`
	Type      string    `gorm:"type:varchar(50);default:'text'" json:"type"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Lead is a prospective customer, auto-created from an unknown phone number.
type Lead struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(255)" json:"name"`
	Email          string    `gorm:"type:varchar(255)" json:"email"`
	Phone          string    `gorm:"type:varchar(50);index" json:"phone"`
	WhatsappNumber string    `gorm:"type:varchar(50);index" json:"whatsapp_number"`
	Consultant     string    `gorm:"type:varchar(255)" json:"consultant"`
	Status         string    `gorm:"type:varchar(50);default:'new'" json:"status"`
	Priority       string    `gorm:"type:varchar(20);default:'medium'" json:"priority"`
	Source         string    `gorm:"type:varchar(50)" json:"source"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Lead) TableName() string {
	return "leads"
}
