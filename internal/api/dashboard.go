package api

import (
	"net/http"
	"time"

	"institute-admin/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	db *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

func (h *DashboardHandler) GetStats(c *gin.Context) {
	var students, leads, activeSessions, unpaidInvoices, upcomingSchedules int64

	h.db.Model(&models.Student{}).Where("status = ?", "active").Count(&students)
	h.db.Model(&models.Lead{}).Where("status = ?", "new").Count(&leads)
	h.db.Model(&models.ChatSession{}).Where("is_active = ?", true).Count(&activeSessions)
	h.db.Model(&models.Invoice{}).Where("status = ?", models.InvoiceStatusSent).Count(&unpaidInvoices)

	today := time.Now().Format("2006-01-02")
	h.db.Model(&models.Schedule{}).
		Where("date >= ? AND status = ?", today, models.ScheduleStatusScheduled).
		Count(&upcomingSchedules)

	c.JSON(http.StatusOK, gin.H{
		"active_students":    students,
		"new_leads":          leads,
		"active_sessions":    activeSessions,
		"unpaid_invoices":    unpaidInvoices,
		"upcoming_schedules": upcomingSchedules,
	})
}
