package chatbot

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"testing"

	"institute-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store used to exercise the engine without a
// database. failOn lets a single method be forced to error.
type fakeStore struct {
	nextID     uint
	chats      map[uint]*models.Chat
	leads      map[uint]*models.Lead
	messages   []models.ChatMessage
	sessions   map[uint]*models.ChatSession
	flows      map[uint]*models.ChatbotFlow
	nodes      map[uint]*models.FlowNode
	conditions map[uint][]models.NodeCondition
	actions    map[uint][]models.NodeAction
	failOn     map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chats:      make(map[uint]*models.Chat),
		leads:      make(map[uint]*models.Lead),
		sessions:   make(map[uint]*models.ChatSession),
		flows:      make(map[uint]*models.ChatbotFlow),
		nodes:      make(map[uint]*models.FlowNode),
		conditions: make(map[uint][]models.NodeCondition),
		actions:    make(map[uint][]models.NodeAction),
		failOn:     make(map[string]error),
	}
}

func (s *fakeStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) fail(method string) error {
	return s.failOn[method]
}

func (s *fakeStore) ChatByPhone(phone string) (*models.Chat, error) {
	if err := s.fail("ChatByPhone"); err != nil {
		return nil, err
	}
	for _, chat := range s.chats {
		if chat.Phone == phone {
			return chat, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateChat(chat *models.Chat) error {
	if err := s.fail("CreateChat"); err != nil {
		return err
	}
	chat.ID = s.id()
	s.chats[chat.ID] = chat
	return nil
}

func (s *fakeStore) UpdateChat(chat *models.Chat) error {
	s.chats[chat.ID] = chat
	return nil
}

func (s *fakeStore) LeadByPhone(phone string) (*models.Lead, error) {
	if err := s.fail("LeadByPhone"); err != nil {
		return nil, err
	}
	for _, lead := range s.leads {
		if lead.Phone == phone || lead.WhatsappNumber == phone {
			return lead, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateLead(lead *models.Lead) error {
	lead.ID = s.id()
	s.leads[lead.ID] = lead
	return nil
}

func (s *fakeStore) CreateMessage(msg *models.ChatMessage) error {
	if err := s.fail("CreateMessage"); err != nil {
		return err
	}
	msg.ID = s.id()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *fakeStore) ActiveSession(chatID uint) (*models.ChatSession, error) {
	if err := s.fail("ActiveSession"); err != nil {
		return nil, err
	}
	for _, session := range s.sessions {
		if session.ChatID == chatID && session.IsActive {
			return session, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateSession(session *models.ChatSession) error {
	if err := s.fail("CreateSession"); err != nil {
		return err
	}
	session.ID = s.id()
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeStore) UpdateSession(session *models.ChatSession) error {
	if err := s.fail("UpdateSession"); err != nil {
		return err
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeStore) ActiveFlows() ([]models.ChatbotFlow, error) {
	if err := s.fail("ActiveFlows"); err != nil {
		return nil, err
	}
	var flows []models.ChatbotFlow
	for _, flow := range s.flows {
		if flow.IsActive {
			flows = append(flows, *flow)
		}
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].ID < flows[j].ID })
	return flows, nil
}

func (s *fakeStore) DefaultFlow() (*models.ChatbotFlow, error) {
	for _, flow := range s.flows {
		if flow.IsActive && flow.IsDefault {
			return flow, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) StartNode(flowID uint) (*models.FlowNode, error) {
	for _, node := range s.nodes {
		if node.FlowID == flowID && node.Type == models.NodeTypeStart {
			return node, nil
		}
	}
	for _, node := range s.nodes {
		if node.FlowID == flowID && node.Position == 1 {
			return node, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) NodeByID(id uint) (*models.FlowNode, error) {
	if err := s.fail("NodeByID"); err != nil {
		return nil, err
	}
	return s.nodes[id], nil
}

func (s *fakeStore) NodeConditions(nodeID uint) ([]models.NodeCondition, error) {
	conds := s.conditions[nodeID]
	sort.Slice(conds, func(i, j int) bool { return conds[i].ID < conds[j].ID })
	return conds, nil
}

func (s *fakeStore) NodeActions(nodeID uint) ([]models.NodeAction, error) {
	return s.actions[nodeID], nil
}

// --- builders ---

func (s *fakeStore) addFlow(name, keywords string, isDefault bool) uint {
	flow := &models.ChatbotFlow{ID: s.id(), Name: name, TriggerKeywords: keywords, IsActive: true, IsDefault: isDefault}
	s.flows[flow.ID] = flow
	return flow.ID
}

func (s *fakeStore) addNode(flowID uint, nodeType, message string, position int) uint {
	node := &models.FlowNode{ID: s.id(), FlowID: flowID, Type: nodeType, Message: message, Position: position}
	s.nodes[node.ID] = node
	return node.ID
}

func (s *fakeStore) addCondition(nodeID uint, condType, value string, nextNodeID uint) {
	cond := models.NodeCondition{ID: s.id(), NodeID: nodeID, Type: condType, Value: value, NextNodeID: nextNodeID}
	s.conditions[nodeID] = append(s.conditions[nodeID], cond)
}

func (s *fakeStore) activeSessionCount() int {
	n := 0
	for _, session := range s.sessions {
		if session.IsActive {
			n++
		}
	}
	return n
}

// recordingNotifier captures inbox events the engine emits.
type recordingNotifier struct {
	messages []models.ChatMessage
	leads    []models.Lead
}

func (n *recordingNotifier) NotifyChatMessage(msg models.ChatMessage) {
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) NotifyLead(lead models.Lead) {
	n.leads = append(n.leads, lead)
}

// recordingDispatcher captures forwarded action payloads.
type recordingDispatcher struct {
	nodes []uint
}

func (d *recordingDispatcher) Dispatch(chatID uint, node models.FlowNode, actions []models.NodeAction) {
	d.nodes = append(d.nodes, node.ID)
}

// welcomeStore builds the canonical Welcome flow: start "Hello!" with a
// contains(course) transition to an end node "Thanks!".
func welcomeStore(withDefault bool) (*fakeStore, uint, uint) {
	store := newFakeStore()
	flowID := store.addFlow("Welcome", "hi", false)
	startID := store.addNode(flowID, models.NodeTypeStart, "Hello!", 1)
	endID := store.addNode(flowID, models.NodeTypeEnd, "Thanks!", 2)
	store.addCondition(startID, models.ConditionContains, "course", endID)
	if withDefault {
		store.addCondition(startID, models.ConditionDefault, "", endID)
	}
	return store, startID, endID
}

func TestNoFlowNoDefaultReturnsFallback(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "hello there")

	require.True(t, ok)
	assert.Equal(t, ReplyNoFlow, reply)
	assert.Equal(t, 0, store.activeSessionCount(), "no session may be created without a flow")
}

func TestKeywordMatchStartsSession(t *testing.T) {
	store, startID, _ := welcomeStore(false)
	engine := NewEngine(store, nil)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "hi")

	require.True(t, ok)
	assert.Equal(t, "Hello!", reply)

	chat, err := store.ChatByPhone("15551230001")
	require.NoError(t, err)
	require.NotNil(t, chat)

	session, err := store.ActiveSession(chat.ID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, startID, session.CurrentNodeID)
	assert.Equal(t, startID, session.StartNodeID)
}

func TestKeywordMatchIsCaseInsensitiveSubstring(t *testing.T) {
	store, _, _ := welcomeStore(false)
	engine := NewEngine(store, nil)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "oh HI, anyone there?")

	require.True(t, ok)
	assert.Equal(t, "Hello!", reply)
}

func TestDefaultFlowUsedWhenNoKeywordMatches(t *testing.T) {
	store := newFakeStore()
	flowID := store.addFlow("Fallback", "", true)
	store.addNode(flowID, models.NodeTypeStart, "How can we help?", 1)
	engine := NewEngine(store, nil)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "xyzzy")

	require.True(t, ok)
	assert.Equal(t, "How can we help?", reply)
	assert.Equal(t, 1, store.activeSessionCount())
}

func TestFirstFlowInOrderWinsWhenSeveralMatch(t *testing.T) {
	store := newFakeStore()
	firstID := store.addFlow("First", "info", false)
	store.addNode(firstID, models.NodeTypeStart, "first flow", 1)
	secondID := store.addFlow("Second", "info", false)
	store.addNode(secondID, models.NodeTypeStart, "second flow", 1)
	engine := NewEngine(store, nil)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "info please")

	require.True(t, ok)
	assert.Equal(t, "first flow", reply)
}

func TestFlowWithoutStartNodeCreatesNoSession(t *testing.T) {
	store := newFakeStore()
	store.addFlow("Broken", "hi", false)
	engine := NewEngine(store, nil)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "hi")

	require.True(t, ok)
	assert.Equal(t, ReplyFlowNotConfigured, reply)
	assert.Equal(t, 0, store.activeSessionCount())
}

func TestWelcomeScenario(t *testing.T) {
	store, _, endID := welcomeStore(false)
	engine := NewEngine(store, nil)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "hi")
	require.True(t, ok)
	assert.Equal(t, "Hello!", reply)

	reply, ok = engine.ProcessIncomingMessage("15551230001", "tell me about a course")
	require.True(t, ok)
	assert.Equal(t, "Thanks!", reply)

	// End node reached: message delivered but session closed.
	assert.Equal(t, 0, store.activeSessionCount())
	for _, session := range store.sessions {
		assert.Equal(t, endID, session.CurrentNodeID)
	}
}

func TestNoConditionMatchWithoutDefaultEndsSession(t *testing.T) {
	store, _, _ := welcomeStore(false)
	engine := NewEngine(store, nil)

	_, ok := engine.ProcessIncomingMessage("15551230001", "hi")
	require.True(t, ok)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "xyz")
	require.True(t, ok)
	assert.Equal(t, "Thank you for chatting with us. A consultant will follow up with you shortly.", reply)
	assert.Equal(t, 0, store.activeSessionCount())
}

func TestDefaultConditionCatchesUnmatchedMessage(t *testing.T) {
	store, _, _ := welcomeStore(true)
	engine := NewEngine(store, nil)

	_, ok := engine.ProcessIncomingMessage("15551230001", "hi")
	require.True(t, ok)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "xyz")
	require.True(t, ok)
	assert.Equal(t, "Thanks!", reply, "default condition must route to the end node")
}

func TestNodeWithoutConditionsAlwaysEnds(t *testing.T) {
	for _, message := range []string{"yes", "no", "", "anything at all"} {
		store := newFakeStore()
		flowID := store.addFlow("OneShot", "hi", false)
		store.addNode(flowID, models.NodeTypeStart, "Hello!", 1)
		engine := NewEngine(store, nil)

		_, ok := engine.ProcessIncomingMessage("15551230001", "hi")
		require.True(t, ok)

		reply, ok := engine.ProcessIncomingMessage("15551230001", message)
		require.True(t, ok)
		assert.Equal(t, ReplyClosing, reply, "message %q", message)
		assert.Equal(t, 0, store.activeSessionCount())
	}
}

func TestFirstMatchWinsOverLaterConditions(t *testing.T) {
	store := newFakeStore()
	flowID := store.addFlow("Branch", "hi", false)
	startID := store.addNode(flowID, models.NodeTypeStart, "pick", 1)
	aID := store.addNode(flowID, models.NodeTypeMessage, "branch A", 2)
	bID := store.addNode(flowID, models.NodeTypeMessage, "branch B", 3)
	// Both conditions match "yes please"; the earlier row must win.
	store.addCondition(startID, models.ConditionContains, "yes", aID)
	store.addCondition(startID, models.ConditionContains, "please", bID)
	engine := NewEngine(store, nil)

	_, ok := engine.ProcessIncomingMessage("15551230001", "hi")
	require.True(t, ok)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "yes please")
	require.True(t, ok)
	assert.Equal(t, "branch A", reply)
}

func TestInvalidRegexBehavesAsNonMatch(t *testing.T) {
	store := newFakeStore()
	flowID := store.addFlow("Regex", "hi", false)
	startID := store.addNode(flowID, models.NodeTypeStart, "pick", 1)
	aID := store.addNode(flowID, models.NodeTypeMessage, "regex branch", 2)
	bID := store.addNode(flowID, models.NodeTypeMessage, "fallback branch", 3)
	store.addCondition(startID, models.ConditionRegex, "[invalid(", aID)
	store.addCondition(startID, models.ConditionDefault, "", bID)
	engine := NewEngine(store, nil)

	_, ok := engine.ProcessIncomingMessage("15551230001", "hi")
	require.True(t, ok)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "[invalid(")
	require.True(t, ok)
	assert.Equal(t, "fallback branch", reply, "malformed pattern must not match, even literally")
}

func TestMissingCurrentNodeEndsSession(t *testing.T) {
	store, _, _ := welcomeStore(false)
	engine := NewEngine(store, nil)

	_, ok := engine.ProcessIncomingMessage("15551230001", "hi")
	require.True(t, ok)

	for _, session := range store.sessions {
		session.CurrentNodeID = 9999
	}

	reply, ok := engine.ProcessIncomingMessage("15551230001", "next")
	require.True(t, ok)
	assert.Equal(t, ReplyError, reply)
	assert.Equal(t, 0, store.activeSessionCount(), "session must not be left stuck on a missing node")
}

func TestMissingTargetNodeEndsSession(t *testing.T) {
	store := newFakeStore()
	flowID := store.addFlow("Dangling", "hi", false)
	startID := store.addNode(flowID, models.NodeTypeStart, "Hello!", 1)
	store.addCondition(startID, models.ConditionDefault, "", 4242)
	engine := NewEngine(store, nil)

	_, ok := engine.ProcessIncomingMessage("15551230001", "hi")
	require.True(t, ok)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "anything")
	require.True(t, ok)
	assert.Equal(t, ReplyError, reply)
	assert.Equal(t, 0, store.activeSessionCount())
}

func TestVariablesAccumulateAcrossTurns(t *testing.T) {
	store := newFakeStore()
	flowID := store.addFlow("Vars", "hi", false)
	startID := store.addNode(flowID, models.NodeTypeStart, "q1", 1)
	midID := store.addNode(flowID, models.NodeTypeQuestion, "q2", 2)
	lastID := store.addNode(flowID, models.NodeTypeMessage, "q3", 3)
	store.addCondition(startID, models.ConditionDefault, "", midID)
	store.addCondition(midID, models.ConditionDefault, "", lastID)
	engine := NewEngine(store, nil)

	_, ok := engine.ProcessIncomingMessage("15551230001", "hi")
	require.True(t, ok)
	_, ok = engine.ProcessIncomingMessage("15551230001", "first answer")
	require.True(t, ok)
	_, ok = engine.ProcessIncomingMessage("15551230001", "second answer")
	require.True(t, ok)

	var session *models.ChatSession
	for _, s := range store.sessions {
		session = s
	}
	require.NotNil(t, session)

	vars := map[string]string{}
	require.NoError(t, json.Unmarshal([]byte(session.Variables), &vars))
	assert.Equal(t, "second answer", vars["lastMessage"])
}

func TestTwoMessagesCreateOneLeadAndOneChat(t *testing.T) {
	store, _, _ := welcomeStore(true)
	engine := NewEngine(store, nil)

	_, ok := engine.ProcessIncomingMessage("15551230001", "hi")
	require.True(t, ok)
	_, ok = engine.ProcessIncomingMessage("15551230001", "tell me more")
	require.True(t, ok)

	chats := 0
	for _, chat := range store.chats {
		if chat.Phone == "15551230001" {
			chats++
		}
	}
	assert.Equal(t, 1, chats)
	assert.Equal(t, 1, len(store.leads))

	lead, err := store.LeadByPhone("15551230001")
	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, "WhatsApp", lead.Source)
	assert.Equal(t, "new", lead.Status)
}

func TestExistingLeadIsReused(t *testing.T) {
	store, _, _ := welcomeStore(false)
	lead := &models.Lead{Name: "Known Lead", Phone: "15551230001", WhatsappNumber: "15551230001"}
	require.NoError(t, store.CreateLead(lead))
	engine := NewEngine(store, nil)

	_, ok := engine.ProcessIncomingMessage("15551230001", "hi")
	require.True(t, ok)

	assert.Equal(t, 1, len(store.leads))
	chat, err := store.ChatByPhone("15551230001")
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, lead.ID, chat.LeadID)
}

func TestStoreFailureSuppressesReply(t *testing.T) {
	store, _, _ := welcomeStore(false)
	store.failOn["ChatByPhone"] = errors.New("db down")
	engine := NewEngine(store, nil)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "hi")

	assert.False(t, ok)
	assert.Equal(t, "", reply)
}

func TestFlowFailureReturnsApology(t *testing.T) {
	store, _, _ := welcomeStore(false)
	store.failOn["ActiveFlows"] = errors.New("db down")
	engine := NewEngine(store, nil)

	reply, ok := engine.ProcessIncomingMessage("15551230001", "hi")

	// The chat is known at this point, so the user gets an apology rather
	// than silence.
	require.True(t, ok)
	assert.Equal(t, ReplyError, reply)
}

func TestEmptyPhoneSuppressed(t *testing.T) {
	engine := NewEngine(newFakeStore(), nil)

	reply, ok := engine.ProcessIncomingMessage("", "hi")

	assert.False(t, ok)
	assert.Equal(t, "", reply)
}

func TestInboundAndReplyMessagesRecorded(t *testing.T) {
	store, _, _ := welcomeStore(false)
	engine := NewEngine(store, nil)

	_, ok := engine.ProcessIncomingMessage("15551230001", "hi")
	require.True(t, ok)

	require.Len(t, store.messages, 2)
	assert.Equal(t, models.SenderUser, store.messages[0].Sender)
	assert.Equal(t, "hi", store.messages[0].Content)
	assert.Equal(t, models.SenderBot, store.messages[1].Sender)
	assert.Equal(t, "Hello!", store.messages[1].Content)
}

func TestUnreadCountIncrements(t *testing.T) {
	store, _, _ := welcomeStore(true)
	engine := NewEngine(store, nil)

	_, _ = engine.ProcessIncomingMessage("15551230001", "hi")
	_, _ = engine.ProcessIncomingMessage("15551230001", "more")

	chat, err := store.ChatByPhone("15551230001")
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, 2, chat.UnreadCount)
}

func TestMediaMessageRecordedWithoutFlow(t *testing.T) {
	store, _, _ := welcomeStore(false)
	engine := NewEngine(store, nil)

	ok := engine.RecordInboundMessage("15551230001", "[image]:wamid.123")
	require.True(t, ok)

	chat, err := store.ChatByPhone("15551230001")
	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, 1, chat.UnreadCount)

	require.Len(t, store.messages, 1)
	assert.Equal(t, models.SenderUser, store.messages[0].Sender)
	assert.Equal(t, "[image]:wamid.123", store.messages[0].Content)
	assert.Equal(t, 0, store.activeSessionCount(), "media must not start a flow")
	assert.Equal(t, 1, len(store.leads), "first contact still creates the lead")
}

func TestRecordInboundMessageEmptyPhone(t *testing.T) {
	engine := NewEngine(newFakeStore(), nil)

	assert.False(t, engine.RecordInboundMessage("", "[image]:wamid.123"))
}

func TestInboxEventsEmitted(t *testing.T) {
	store, _, _ := welcomeStore(false)
	engine := NewEngine(store, nil)
	notifier := &recordingNotifier{}
	engine.SetNotifier(notifier)

	_, ok := engine.ProcessIncomingMessage("15551230001", "hi")
	require.True(t, ok)

	require.Len(t, notifier.leads, 1)
	assert.Equal(t, "15551230001", notifier.leads[0].Phone)

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, models.SenderUser, notifier.messages[0].Sender)
	assert.Equal(t, "hi", notifier.messages[0].Content)

	ok = engine.RecordInboundMessage("15551230001", "[audio]:wamid.456")
	require.True(t, ok)

	require.Len(t, notifier.messages, 2)
	assert.Equal(t, "[audio]:wamid.456", notifier.messages[1].Content)
	assert.Len(t, notifier.leads, 1, "existing lead must not be re-announced")
}

func TestActionsForwardedToDispatcher(t *testing.T) {
	store, startID, endID := welcomeStore(false)
	store.actions[startID] = []models.NodeAction{{ID: 901, NodeID: startID, Data: `{"type":"tag","value":"welcome"}`}}
	store.actions[endID] = []models.NodeAction{{ID: 902, NodeID: endID, Data: `{"type":"notify"}`}}
	dispatcher := &recordingDispatcher{}
	engine := NewEngine(store, dispatcher)

	_, ok := engine.ProcessIncomingMessage("15551230001", "hi")
	require.True(t, ok)
	_, ok = engine.ProcessIncomingMessage("15551230001", "which course?")
	require.True(t, ok)

	assert.Equal(t, []uint{startID, endID}, dispatcher.nodes)
}

func TestConcurrentMessagesSameChatDoNotDuplicate(t *testing.T) {
	store, _, _ := welcomeStore(true)
	engine := NewEngine(store, nil)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			engine.ProcessIncomingMessage("15551230001", fmt.Sprintf("hi %d", i))
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	chats := 0
	for _, chat := range store.chats {
		if chat.Phone == "15551230001" {
			chats++
		}
	}
	assert.Equal(t, 1, chats)
	assert.LessOrEqual(t, store.activeSessionCount(), 1)
}
