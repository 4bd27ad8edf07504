package chatbot

import (
	"encoding/json"
	"log"
	"regexp"
	"strings"

	"institute-admin/internal/models"
)

// startConversationFlow selects a flow for the first message of a
// conversation and opens a session at its start node.
func (e *Engine) startConversationFlow(chat *models.Chat, message string) (string, error) {
	flow, err := e.selectFlow(message)
	if err != nil {
		return "", err
	}
	if flow == nil {
		log.Printf("[Engine] No flow matched for chat %d", chat.ID)
		return ReplyNoFlow, nil
	}

	startNode, err := e.store.StartNode(flow.ID)
	if err != nil {
		return "", err
	}
	if startNode == nil {
		log.Printf("[Engine] Flow %d (%s) has no start node", flow.ID, flow.Name)
		return ReplyFlowNotConfigured, nil
	}

	session := &models.ChatSession{
		ChatID:        chat.ID,
		FlowID:        flow.ID,
		StartNodeID:   startNode.ID,
		CurrentNodeID: startNode.ID,
		Variables:     "{}",
		IsActive:      true,
	}
	if err := e.store.CreateSession(session); err != nil {
		return "", err
	}
	log.Printf("[Engine] Started flow %d (%s) for chat %d at node %d", flow.ID, flow.Name, chat.ID, startNode.ID)

	e.dispatchActions(chat.ID, startNode)

	return startNode.Message, nil
}

// selectFlow picks the first active flow whose trigger keyword appears in the
// message (case-insensitive), falling back to the designated default flow.
func (e *Engine) selectFlow(message string) (*models.ChatbotFlow, error) {
	flows, err := e.store.ActiveFlows()
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(message)
	for i := range flows {
		for _, kw := range flows[i].Keywords() {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return &flows[i], nil
			}
		}
	}

	return e.store.DefaultFlow()
}

// continueConversationFlow advances an active session by one node based on the
// inbound message.
func (e *Engine) continueConversationFlow(session *models.ChatSession, message string) (string, error) {
	current, err := e.store.NodeByID(session.CurrentNodeID)
	if err != nil {
		return "", err
	}
	if current == nil {
		// Stale session pointing at a deleted node. End it rather than leave
		// the chat stuck.
		log.Printf("[Engine] Session %d references missing node %d, ending", session.ID, session.CurrentNodeID)
		if err := e.endSession(session); err != nil {
			return "", err
		}
		return ReplyError, nil
	}

	conditions, err := e.store.NodeConditions(current.ID)
	if err != nil {
		return "", err
	}

	nextNodeID := matchConditions(conditions, message)

	if nextNodeID == 0 {
		log.Printf("[Engine] No transition from node %d for session %d, ending", current.ID, session.ID)
		if err := e.endSession(session); err != nil {
			return "", err
		}
		return ReplyClosing, nil
	}

	next, err := e.store.NodeByID(nextNodeID)
	if err != nil {
		return "", err
	}
	if next == nil {
		log.Printf("[Engine] Node %d targets missing node %d, ending session %d", current.ID, nextNodeID, session.ID)
		if err := e.endSession(session); err != nil {
			return "", err
		}
		return ReplyError, nil
	}

	session.CurrentNodeID = next.ID
	session.Variables = mergeVariable(session.Variables, "lastMessage", message)
	if err := e.store.UpdateSession(session); err != nil {
		return "", err
	}

	e.dispatchActions(session.ChatID, next)

	if next.Type == models.NodeTypeEnd {
		// The closing node's message is still delivered; only the session dies.
		if err := e.endSession(session); err != nil {
			return "", err
		}
	}

	return next.Message, nil
}

// matchConditions evaluates conditions in stored order, first match wins. If
// nothing matched, a default-typed condition anywhere in the set catches.
// Returns 0 when no transition applies.
func matchConditions(conditions []models.NodeCondition, message string) uint {
	for _, cond := range conditions {
		if matchCondition(cond, message) {
			return cond.NextNodeID
		}
	}
	for _, cond := range conditions {
		if cond.Type == models.ConditionDefault {
			return cond.NextNodeID
		}
	}
	return 0
}

// matchCondition tests a single condition against the inbound message.
func matchCondition(cond models.NodeCondition, message string) bool {
	switch cond.Type {
	case models.ConditionContains:
		return strings.Contains(strings.ToLower(message), strings.ToLower(cond.Value))
	case models.ConditionEquals:
		return strings.EqualFold(message, cond.Value)
	case models.ConditionRegex:
		re, err := regexp.Compile("(?i)" + cond.Value)
		if err != nil {
			log.Printf("[Engine] Invalid regex in condition %d: %v", cond.ID, err)
			return false
		}
		return re.MatchString(message)
	case models.ConditionDefault:
		return true
	default:
		log.Printf("[Engine] Unknown condition type %q on condition %d", cond.Type, cond.ID)
		return false
	}
}

func (e *Engine) endSession(session *models.ChatSession) error {
	session.IsActive = false
	return e.store.UpdateSession(session)
}

// mergeVariable sets one key in the session's JSON variable map, preserving
// existing keys of any JSON type. Unparseable stored JSON is replaced rather
// than propagated.
func mergeVariable(variables, key, value string) string {
	vars := make(map[string]interface{})
	if variables != "" {
		if err := json.Unmarshal([]byte(variables), &vars); err != nil {
			log.Printf("[Engine] Resetting corrupt session variables: %v", err)
			vars = map[string]interface{}{}
		}
	}
	vars[key] = value

	out, err := json.Marshal(vars)
	if err != nil {
		return variables
	}
	return string(out)
}
