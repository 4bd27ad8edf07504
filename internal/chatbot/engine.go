// Package chatbot implements the WhatsApp conversation engine: keyword-triggered
// flows stored as node/condition graphs, walked one inbound message at a time
// against a per-chat session.
package chatbot

import (
	"log"
	"sync"

	"institute-admin/internal/models"
)

// User-facing fallback replies. ReplyClosing is part of the bot's contract
// with existing flows; do not reword casually.
const (
	ReplyNoFlow            = "A consultant will respond shortly."
	ReplyFlowNotConfigured = "This conversation is not set up yet. A consultant will respond shortly."
	ReplyClosing           = "Thank you for chatting with us. A consultant will follow up with you shortly."
	ReplyError             = "Sorry, something went wrong. A consultant will follow up with you."
)

// Engine routes inbound messages into conversation flows.
type Engine struct {
	store      Store
	dispatcher ActionDispatcher
	notifier   Notifier

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(store Store, dispatcher ActionDispatcher) *Engine {
	if dispatcher == nil {
		dispatcher = LogDispatcher{}
	}
	return &Engine{
		store:      store,
		dispatcher: dispatcher,
		locks:      make(map[string]*sync.Mutex),
	}
}

// SetNotifier wires an event sink for new leads and inbound messages. Nil
// disables notifications.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// lockFor returns the mutex serializing all turns for one phone number. The
// session read-compute-write below is a critical section; without this two
// concurrent webhook deliveries for the same chat could lose an update.
func (e *Engine) lockFor(phone string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[phone]
	if !ok {
		l = &sync.Mutex{}
		e.locks[phone] = l
	}
	return l
}

// ProcessIncomingMessage handles one inbound message and returns the reply
// text. ok=false means suppress the reply entirely; it is returned instead of
// an error so a storage failure degrades to silence, never to a 500 at the
// webhook.
func (e *Engine) ProcessIncomingMessage(phoneNumber, message string) (string, bool) {
	if phoneNumber == "" {
		return "", false
	}

	lock := e.lockFor(phoneNumber)
	lock.Lock()
	defer lock.Unlock()

	chat, err := e.resolveChat(phoneNumber)
	if err != nil {
		return "", false
	}
	if !e.recordInbound(chat, message) {
		return "", false
	}

	session, err := e.store.ActiveSession(chat.ID)
	if err != nil {
		log.Printf("[Engine] Error looking up session for chat %d: %v", chat.ID, err)
		return "", false
	}

	var reply string
	if session != nil {
		reply, err = e.continueConversationFlow(session, message)
	} else {
		reply, err = e.startConversationFlow(chat, message)
	}
	if err != nil {
		// The user still gets an apology rather than silence once the chat
		// itself is known.
		log.Printf("[Engine] Flow error for chat %d: %v", chat.ID, err)
		reply = ReplyError
	}

	if reply != "" {
		if err := e.store.CreateMessage(&models.ChatMessage{
			ChatID:  chat.ID,
			Sender:  models.SenderBot,
			Content: reply,
		}); err != nil {
			log.Printf("[Engine] Error recording bot reply for chat %d: %v", chat.ID, err)
		}
	}

	return reply, true
}

// RecordInboundMessage persists an inbound message that carries no routable
// text, such as a media attachment. The chat is resolved or created exactly as
// for a text message, but no flow runs and no reply is produced.
func (e *Engine) RecordInboundMessage(phoneNumber, content string) bool {
	if phoneNumber == "" {
		return false
	}

	lock := e.lockFor(phoneNumber)
	lock.Lock()
	defer lock.Unlock()

	chat, err := e.resolveChat(phoneNumber)
	if err != nil {
		return false
	}
	return e.recordInbound(chat, content)
}

// resolveChat looks up the chat for a phone number, creating it together with
// its lead on first contact.
func (e *Engine) resolveChat(phoneNumber string) (*models.Chat, error) {
	chat, err := e.store.ChatByPhone(phoneNumber)
	if err != nil {
		log.Printf("[Engine] Error looking up chat for %s: %v", phoneNumber, err)
		return nil, err
	}
	if chat == nil {
		chat, err = e.createChatWithLead(phoneNumber)
		if err != nil {
			log.Printf("[Engine] Error creating chat for %s: %v", phoneNumber, err)
			return nil, err
		}
	}
	return chat, nil
}

// recordInbound persists one user message and bumps the unread counter.
func (e *Engine) recordInbound(chat *models.Chat, content string) bool {
	msg := &models.ChatMessage{
		ChatID:  chat.ID,
		Sender:  models.SenderUser,
		Content: content,
	}
	if err := e.store.CreateMessage(msg); err != nil {
		log.Printf("[Engine] Error recording inbound message for chat %d: %v", chat.ID, err)
		return false
	}
	if e.notifier != nil {
		e.notifier.NotifyChatMessage(*msg)
	}

	chat.UnreadCount++
	if err := e.store.UpdateChat(chat); err != nil {
		log.Printf("[Engine] Error updating unread count for chat %d: %v", chat.ID, err)
	}
	return true
}

// createChatWithLead resolves or creates the Lead for an unknown phone number
// and binds a new Chat to it.
func (e *Engine) createChatWithLead(phoneNumber string) (*models.Chat, error) {
	lead, err := e.store.LeadByPhone(phoneNumber)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		lead = &models.Lead{
			Name:           "WhatsApp Lead " + phoneNumber,
			Phone:          phoneNumber,
			WhatsappNumber: phoneNumber,
			Status:         "new",
			Priority:       "medium",
			Source:         "WhatsApp",
		}
		if err := e.store.CreateLead(lead); err != nil {
			return nil, err
		}
		log.Printf("[Engine] Created lead %d for %s", lead.ID, phoneNumber)
		if e.notifier != nil {
			e.notifier.NotifyLead(*lead)
		}
	}

	chat := &models.Chat{
		Phone:  phoneNumber,
		LeadID: lead.ID,
	}
	if err := e.store.CreateChat(chat); err != nil {
		return nil, err
	}
	log.Printf("[Engine] Created chat %d for %s", chat.ID, phoneNumber)
	return chat, nil
}

// dispatchActions forwards a node's action payloads, if any, to the dispatcher.
func (e *Engine) dispatchActions(chatID uint, node *models.FlowNode) {
	actions, err := e.store.NodeActions(node.ID)
	if err != nil {
		log.Printf("[Engine] Error loading actions for node %d: %v", node.ID, err)
		return
	}
	if len(actions) > 0 {
		e.dispatcher.Dispatch(chatID, *node, actions)
	}
}
