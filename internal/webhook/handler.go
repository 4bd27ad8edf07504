package webhook

import (
	"log"
	"net/http"

	"institute-admin/internal/chatbot"
	"institute-admin/internal/config"
	"institute-admin/internal/whatsapp"
	"institute-admin/internal/ws"
	"institute-admin/pkg/models"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Config *config.Config
	Engine *chatbot.Engine
	Client *whatsapp.Client
	Hub    *ws.Hub
}

func NewHandler(cfg *config.Config, engine *chatbot.Engine, client *whatsapp.Client, hub *ws.Hub) *Handler {
	return &Handler{
		Config: cfg,
		Engine: engine,
		Client: client,
		Hub:    hub,
	}
}

func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "" && token != "" {
		if mode == "subscribe" && token == h.Config.VerifyToken {
			log.Println("Webhook verified successfully!")
			c.String(http.StatusOK, challenge)
		} else {
			c.Status(http.StatusForbidden)
		}
	} else {
		c.Status(http.StatusBadRequest)
	}
}

func (h *Handler) HandleMessage(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("Error binding JSON: %v", err)
		c.Status(http.StatusBadRequest)
		return
	}

	if len(payload.Entry) > 0 && len(payload.Entry[0].Changes) > 0 {
		value := payload.Entry[0].Changes[0].Value
		if len(value.Messages) > 0 {
			message := value.Messages[0]
			if text, ok := messageText(message); ok {
				log.Printf("Received message from %s: %s", message.From, text)
				go h.process(message.From, text)
			} else if content, ok := mediaContent(message); ok {
				log.Printf("Received %s from %s", message.Type, message.From)
				go h.Engine.RecordInboundMessage(message.From, content)
			} else {
				log.Printf("Received %s from %s, skipping", message.Type, message.From)
			}
		}
	}

	c.Status(http.StatusOK)
}

// messageText flattens text and interactive replies into plain text for the
// engine. Media messages carry no routable text.
func messageText(msg models.IncomingMessage) (string, bool) {
	switch msg.Type {
	case "text":
		return msg.Text.Body, true
	case "interactive":
		if msg.Interactive != nil {
			if msg.Interactive.ButtonReply != nil {
				return msg.Interactive.ButtonReply.Title, true
			}
			if msg.Interactive.ListReply != nil {
				return msg.Interactive.ListReply.Title, true
			}
		}
	}
	return "", false
}

// mediaContent renders a media attachment as "[type]:id" for the chat
// transcript. These messages are stored but never routed through a flow.
func mediaContent(msg models.IncomingMessage) (string, bool) {
	var media *models.MediaMessage
	switch msg.Type {
	case "image":
		media = msg.Image
	case "video":
		media = msg.Video
	case "audio":
		media = msg.Audio
	case "document":
		media = msg.Document
	}
	if media == nil {
		return "", false
	}
	return "[" + msg.Type + "]:" + media.ID, true
}

func (h *Handler) process(from, text string) {
	reply, ok := h.Engine.ProcessIncomingMessage(from, text)
	if !ok || reply == "" {
		return
	}

	if err := h.Client.SendMessage(from, reply); err != nil {
		log.Printf("Error sending reply to %s: %v", from, err)
	}

	if h.Hub != nil {
		h.Hub.BroadcastEvent("bot_reply", gin.H{"phone": from, "content": reply})
	}
}
