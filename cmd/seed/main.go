// Seeds a demo course catalog and a welcome chatbot flow for local development.
package main

import (
	"log"

	"institute-admin/internal/config"
	"institute-admin/internal/database"
	"institute-admin/internal/models"
)

func main() {
	cfg := config.LoadConfig()
	database.InitGorm(cfg)
	db := database.GormDB

	var count int64
	db.Model(&models.ChatbotFlow{}).Count(&count)
	if count > 0 {
		log.Println("Database already seeded, nothing to do")
		return
	}

	courses := []models.Course{
		{Code: "GO-101", Name: "Backend Development with Go", DurationWeeks: 12, Fee: 1200, IsActive: true},
		{Code: "JS-201", Name: "Full-Stack JavaScript", DurationWeeks: 16, Fee: 1500, IsActive: true},
		{Code: "DA-110", Name: "Data Analytics Fundamentals", DurationWeeks: 10, Fee: 900, IsActive: true},
	}
	if err := db.Create(&courses).Error; err != nil {
		log.Fatalf("Failed to seed courses: %v", err)
	}

	trainers := []models.Trainer{
		{Name: "Priya Sharma", Specialization: "Go, distributed systems", IsActive: true},
		{Name: "Daniel Okafor", Specialization: "JavaScript, React", IsActive: true},
	}
	if err := db.Create(&trainers).Error; err != nil {
		log.Fatalf("Failed to seed trainers: %v", err)
	}

	// Welcome flow: greeting -> course question -> closing.
	flow := models.ChatbotFlow{
		Name:            "Welcome",
		TriggerKeywords: "hi,hello,info",
		IsActive:        true,
		IsDefault:       true,
	}
	if err := db.Create(&flow).Error; err != nil {
		log.Fatalf("Failed to seed flow: %v", err)
	}

	start := models.FlowNode{FlowID: flow.ID, Type: models.NodeTypeStart, Position: 1,
		Message: "Hello! Welcome to our institute. Are you interested in a course, or would you like to talk to a consultant?"}
	if err := db.Create(&start).Error; err != nil {
		log.Fatalf("Failed to seed start node: %v", err)
	}

	courseNode := models.FlowNode{FlowID: flow.ID, Type: models.NodeTypeQuestion, Position: 2,
		Message: "Great! We currently offer Go backend, full-stack JavaScript and data analytics courses. Which one interests you?"}
	if err := db.Create(&courseNode).Error; err != nil {
		log.Fatalf("Failed to seed course node: %v", err)
	}

	endNode := models.FlowNode{FlowID: flow.ID, Type: models.NodeTypeEnd, Position: 3,
		Message: "Thanks! A consultant will contact you with the full syllabus and enrollment details."}
	if err := db.Create(&endNode).Error; err != nil {
		log.Fatalf("Failed to seed end node: %v", err)
	}

	conditions := []models.NodeCondition{
		{NodeID: start.ID, Type: models.ConditionContains, Value: "course", NextNodeID: courseNode.ID},
		{NodeID: start.ID, Type: models.ConditionDefault, NextNodeID: endNode.ID},
		{NodeID: courseNode.ID, Type: models.ConditionDefault, NextNodeID: endNode.ID},
	}
	if err := db.Create(&conditions).Error; err != nil {
		log.Fatalf("Failed to seed conditions: %v", err)
	}

	log.Println("Seed completed: 3 courses, 2 trainers, 1 welcome flow")
}
