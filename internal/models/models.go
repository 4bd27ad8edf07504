package models

import (
	"time"
)

// Student represents an enrolled or prospective student.
type Student struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Email          string    `gorm:"type:varchar(255)" json:"email"`
	Phone          string    `gorm:"type:varchar(50);index" json:"phone"`
	WhatsappNumber string    `gorm:"type:varchar(50)" json:"whatsapp_number"`
	CourseID       uint      `gorm:"index" json:"course_id"`
	Course         *Course   `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Status         string    `gorm:"type:varchar(50);default:'active'" json:"status"`
	EnrolledAt     time.Time `json:"enrolled_at"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Student) TableName() string {
	return "students"
}

// Course represents a training course offered by the institute.
type Course struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Code          string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	DurationWeeks int       `gorm:"default:0" json:"duration_weeks"`
	Fee           float64   `gorm:"default:0" json:"fee"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

// Trainer represents a member of the teaching staff.
type Trainer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Email          string    `gorm:"type:varchar(255)" json:"email"`
	Phone          string    `gorm:"type:varchar(50)" json:"phone"`
	Specialization string    `gorm:"type:varchar(255)" json:"specialization"`
	IsActive       bool      `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Trainer) TableName() string {
	return "trainers"
}

// Schedule statuses.
const (
	ScheduleStatusScheduled = "scheduled"
	ScheduleStatusCompleted = "completed"
	ScheduleStatusCancelled = "cancelled"
)

// Schedule represents one class slot for a trainer. Date is YYYY-MM-DD,
// times are HH:MM; the slot covers [StartTime, EndTime).
type Schedule struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"index" json:"course_id"`
	Course    *Course   `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	TrainerID uint      `gorm:"index;not null" json:"trainer_id"`
	Trainer   *Trainer  `gorm:"foreignKey:TrainerID" json:"trainer,omitempty"`
	Date      string    `gorm:"type:varchar(10);index;not null" json:"date"`
	StartTime string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime   string    `gorm:"type:varchar(5);not null" json:"end_time"`
	Room      string    `gorm:"type:varchar(100)" json:"room"`
	Status    string    `gorm:"type:varchar(20);default:'scheduled'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Schedule) TableName() string {
	return "schedules"
}

// Invoice statuses.
const (
	InvoiceStatusDraft = "draft"
	InvoiceStatusSent  = "sent"
	InvoiceStatusPaid  = "paid"
	InvoiceStatusVoid  = "void"
)

// Invoice represents a bill issued to a student.
type Invoice struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Number    string        `gorm:"type:varchar(50);uniqueIndex;not null" json:"number"`
	StudentID uint          `gorm:"index;not null" json:"student_id"`
	Student   *Student      `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Amount    float64       `gorm:"default:0" json:"amount"`
	Status    string        `gorm:"type:varchar(20);default:'draft'" json:"status"`
	DueDate   string        `gorm:"type:varchar(10)" json:"due_date"`
	Items     []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE;" json:"items,omitempty"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceItem is one billed line on an invoice.
type InvoiceItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	InvoiceID   uint    `gorm:"index;not null" json:"invoice_id"`
	Description string  `gorm:"type:varchar(255)" json:"description"`
	Quantity    int     `gorm:"default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"default:0" json:"unit_price"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// Proposal statuses.
const (
	ProposalStatusDraft    = "draft"
	ProposalStatusSent     = "sent"
	ProposalStatusAccepted = "accepted"
	ProposalStatusRejected = "rejected"
)

// Proposal represents a commercial proposal sent to a lead.
type Proposal struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Reference string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"reference"`
	LeadID    uint      `gorm:"index;not null" json:"lead_id"`
	Lead      *Lead     `gorm:"foreignKey:LeadID" json:"lead,omitempty"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	Amount    float64   `gorm:"default:0" json:"amount"`
	Status    string    `gorm:"type:varchar(20);default:'draft'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Proposal) TableName() string {
	return "proposals"
}
