package main

import (
	"log"

	"institute-admin/internal/api"
	"institute-admin/internal/chatbot"
	"institute-admin/internal/config"
	"institute-admin/internal/database"
	"institute-admin/internal/store"
	"institute-admin/internal/webhook"
	"institute-admin/internal/whatsapp"
	"institute-admin/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()
	database.InitGorm(cfg)
	db := database.GormDB

	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	hub := ws.NewHub()
	go hub.Run()

	whatsappClient := whatsapp.NewClient(cfg)
	engine := chatbot.NewEngine(store.NewGormStore(db), nil)
	engine.SetNotifier(hub)
	webhookHandler := webhook.NewHandler(cfg, engine, whatsappClient, hub)

	studentHandler := api.NewStudentHandler(db)
	courseHandler := api.NewCourseHandler(db)
	trainerHandler := api.NewTrainerHandler(db)
	scheduleHandler := api.NewScheduleHandler(db)
	invoiceHandler := api.NewInvoiceHandler(db)
	leadHandler := api.NewLeadHandler(db)
	proposalHandler := api.NewProposalHandler(db)
	chatHandler := api.NewChatHandler(db, whatsappClient, hub)
	flowHandler := api.NewFlowHandler(db)
	dashboardHandler := api.NewDashboardHandler(db)

	// Webhook Routes
	r.GET("/webhook", webhookHandler.VerifyWebhook)
	r.POST("/webhook", webhookHandler.HandleMessage)

	// Dashboard WebSocket
	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/dashboard/stats", dashboardHandler.GetStats)

		apiGroup.GET("/students", studentHandler.GetStudents)
		apiGroup.POST("/students", studentHandler.CreateStudent)
		apiGroup.PUT("/students/:id", studentHandler.UpdateStudent)
		apiGroup.DELETE("/students/:id", studentHandler.DeleteStudent)

		apiGroup.GET("/courses", courseHandler.GetCourses)
		apiGroup.POST("/courses", courseHandler.CreateCourse)
		apiGroup.PUT("/courses/:id", courseHandler.UpdateCourse)
		apiGroup.DELETE("/courses/:id", courseHandler.DeleteCourse)

		apiGroup.GET("/trainers", trainerHandler.GetTrainers)
		apiGroup.POST("/trainers", trainerHandler.CreateTrainer)
		apiGroup.PUT("/trainers/:id", trainerHandler.UpdateTrainer)
		apiGroup.DELETE("/trainers/:id", trainerHandler.DeleteTrainer)

		apiGroup.GET("/schedules", scheduleHandler.GetSchedules)
		apiGroup.POST("/schedules", scheduleHandler.CreateSchedule)
		apiGroup.PUT("/schedules/:id", scheduleHandler.UpdateSchedule)
		apiGroup.POST("/schedules/:id/cancel", scheduleHandler.CancelSchedule)

		apiGroup.GET("/invoices", invoiceHandler.GetInvoices)
		apiGroup.GET("/invoices/:id", invoiceHandler.GetInvoice)
		apiGroup.POST("/invoices", invoiceHandler.CreateInvoice)
		apiGroup.POST("/invoices/:id/status", invoiceHandler.UpdateInvoiceStatus)

		apiGroup.GET("/leads", leadHandler.GetLeads)
		apiGroup.POST("/leads", leadHandler.CreateLead)
		apiGroup.PUT("/leads/:id", leadHandler.UpdateLead)
		apiGroup.DELETE("/leads/:id", leadHandler.DeleteLead)

		apiGroup.GET("/proposals", proposalHandler.GetProposals)
		apiGroup.GET("/proposals/:id", proposalHandler.GetProposal)
		apiGroup.POST("/proposals", proposalHandler.CreateProposal)
		apiGroup.PUT("/proposals/:id", proposalHandler.UpdateProposal)

		apiGroup.GET("/chats", chatHandler.GetChats)
		apiGroup.GET("/chats/:id/messages", chatHandler.GetChatMessages)
		apiGroup.POST("/chats/:id/reply", chatHandler.ReplyToChat)
		apiGroup.POST("/chats/:id/read", chatHandler.MarkChatRead)

		apiGroup.GET("/flows", flowHandler.GetFlows)
		apiGroup.GET("/flows/:id", flowHandler.GetFlow)
		apiGroup.POST("/flows", flowHandler.CreateFlow)
		apiGroup.PUT("/flows/:id", flowHandler.UpdateFlow)
		apiGroup.DELETE("/flows/:id", flowHandler.DeleteFlow)
		apiGroup.POST("/flows/:id/toggle", flowHandler.ToggleFlow)
		apiGroup.POST("/flows/:id/default", flowHandler.SetDefaultFlow)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
