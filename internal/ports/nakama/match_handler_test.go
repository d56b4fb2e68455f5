package nakama

import (
	"context"
	"encoding/json"
	"testing"

	"shipit/internal/app"
	"shipit/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type broadcast struct {
	opCode     int64
	data       []byte
	recipients int
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages     []broadcast
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.messages = append(md.messages, broadcast{
		opCode:     opCode,
		data:       append([]byte(nil), data...),
		recipients: len(presences),
	})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) find(opCode int64) (broadcast, bool) {
	for _, msg := range md.messages {
		if msg.opCode == opCode {
			return msg, true
		}
	}
	return broadcast{}, false
}

func (md *mockDispatcher) count(opCode int64) int {
	n := 0
	for _, msg := range md.messages {
		if msg.opCode == opCode {
			n++
		}
	}
	return n
}

// mockPresence is a minimal runtime.Presence for join/leave/loop tests.
type mockPresence struct {
	userID   string
	username string
}

func (p *mockPresence) GetUserId() string                 { return p.userID }
func (p *mockPresence) GetSessionId() string              { return "session-" + p.userID }
func (p *mockPresence) GetNodeId() string                 { return "node" }
func (p *mockPresence) GetHidden() bool                   { return false }
func (p *mockPresence) GetPersistence() bool              { return true }
func (p *mockPresence) GetUsername() string               { return p.username }
func (p *mockPresence) GetStatus() string                 { return "" }
func (p *mockPresence) GetReason() runtime.PresenceReason { return runtime.PresenceReasonJoin }

type mockMatchData struct {
	mockPresence
	opCode int64
	data   []byte
}

func (m *mockMatchData) GetOpCode() int64      { return m.opCode }
func (m *mockMatchData) GetData() []byte       { return m.data }
func (m *mockMatchData) GetReliable() bool     { return true }
func (m *mockMatchData) GetReceiveTime() int64 { return 0 }

func newTestMatch(t *testing.T) (*matchHandler, *MatchState) {
	t.Helper()
	mh := &matchHandler{}
	state, tickRate, label := mh.MatchInit(context.Background(), noopLogger{}, nil, nil, nil)
	if tickRate != 1 {
		t.Fatalf("expected tick rate 1, got %d", tickRate)
	}

	var lp domain.LabelPayload
	if err := json.Unmarshal([]byte(label), &lp); err != nil {
		t.Fatalf("label is not valid JSON: %v", err)
	}
	if !lp.Open || lp.Game != MatchNameShipIt {
		t.Fatalf("unexpected initial label %+v", lp)
	}

	ms, ok := state.(*MatchState)
	if !ok {
		t.Fatalf("expected *MatchState, got %T", state)
	}
	return mh, ms
}

func joinUsers(mh *matchHandler, state *MatchState, dispatcher *mockDispatcher, users ...*mockPresence) {
	presences := make([]runtime.Presence, len(users))
	for i, u := range users {
		presences[i] = u
	}
	mh.MatchJoin(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, presences)
}

func startGame(t *testing.T, mh *matchHandler, state *MatchState, dispatcher *mockDispatcher, owner *mockPresence) {
	t.Helper()
	msg := &mockMatchData{mockPresence: *owner, opCode: OpCodeStartGame}
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.MatchData{msg})
	if state.GameID == "" {
		t.Fatal("expected game started")
	}
}

func TestMatchJoinAssignsSeatsAndOwner(t *testing.T) {
	mh, state := newTestMatch(t)
	dispatcher := &mockDispatcher{}

	u1 := &mockPresence{userID: "u1", username: "Alice"}
	u2 := &mockPresence{userID: "u2", username: "Bob"}
	joinUsers(mh, state, dispatcher, u1, u2)

	if state.Seats[0] != "u1" || state.Seats[1] != "u2" {
		t.Errorf("unexpected seating: %v", state.Seats)
	}
	if state.OwnerSeat != 0 {
		t.Errorf("expected owner seat 0, got %d", state.OwnerSeat)
	}
	if _, ok := dispatcher.find(OpCodeLobbyState); !ok {
		t.Error("expected a lobby state broadcast after join")
	}
	if dispatcher.labelUpdates == 0 {
		t.Error("expected a label update after join")
	}
}

func TestMatchJoinAttempt(t *testing.T) {
	mh, state := newTestMatch(t)
	dispatcher := &mockDispatcher{}

	users := []*mockPresence{
		{userID: "u1", username: "Alice"},
		{userID: "u2", username: "Bob"},
		{userID: "u3", username: "Cara"},
		{userID: "u4", username: "Dan"},
	}
	joinUsers(mh, state, dispatcher, users...)

	if _, allowed, _ := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, &mockPresence{userID: "u5"}, nil); allowed {
		t.Error("expected full match to reject a fifth join")
	}
	// A seated user reconnecting is always allowed.
	if _, allowed, _ := mh.MatchJoinAttempt(context.Background(), noopLogger{}, nil, nil, dispatcher, 1, state, users[0], nil); !allowed {
		t.Error("expected reconnect to be allowed")
	}
}

func TestMatchLeave(t *testing.T) {
	mh, state := newTestMatch(t)
	dispatcher := &mockDispatcher{}

	u1 := &mockPresence{userID: "u1", username: "Alice"}
	u2 := &mockPresence{userID: "u2", username: "Bob"}
	joinUsers(mh, state, dispatcher, u1, u2)

	// The owner leaving hands ownership to the next occupied seat.
	result := mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.Presence{u1})
	if result == nil {
		t.Fatal("match must not terminate while a player remains")
	}
	if state.Seats[0] != "" {
		t.Error("expected lobby leave to free the seat")
	}
	if state.OwnerSeat != 1 {
		t.Errorf("expected ownership transfer to seat 1, got %d", state.OwnerSeat)
	}

	// The last player leaving terminates the match.
	result = mh.MatchLeave(context.Background(), noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.Presence{u2})
	if result != nil {
		t.Error("expected empty match to terminate")
	}
}

func TestStartGameFlow(t *testing.T) {
	mh, state := newTestMatch(t)
	dispatcher := &mockDispatcher{}

	u1 := &mockPresence{userID: "u1", username: "Alice"}
	u2 := &mockPresence{userID: "u2", username: "Bob"}
	joinUsers(mh, state, dispatcher, u1, u2)

	// A non-owner cannot start the game.
	msg := &mockMatchData{mockPresence: *u2, opCode: OpCodeStartGame}
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 2, state, []runtime.MatchData{msg})
	if state.GameID != "" {
		t.Fatal("non-owner start must be ignored")
	}

	startGame(t, mh, state, dispatcher, u1)

	if len(state.UserToPlayer) != 2 || len(state.PlayerToUser) != 2 {
		t.Errorf("seat-to-player maps not populated: %v", state.UserToPlayer)
	}

	started, ok := dispatcher.find(OpCodeGameStarted)
	if !ok {
		t.Fatal("expected a game_started broadcast")
	}
	var view GameStartedView
	if err := json.Unmarshal(started.data, &view); err != nil {
		t.Fatalf("game started payload not valid JSON: %v", err)
	}
	if view.GameID != state.GameID || len(view.Features) == 0 {
		t.Errorf("unexpected game started view: %+v", view)
	}
	if view.FirstPlayerID != state.UserToPlayer["u1"] {
		t.Errorf("expected seat 0 to move first, got %s", view.FirstPlayerID)
	}

	if got := dispatcher.count(OpCodeHandDealt); got != 2 {
		t.Errorf("expected 2 hand_dealt messages, got %d", got)
	}
	for _, msg := range dispatcher.messages {
		if msg.opCode == OpCodeHandDealt && msg.recipients != 1 {
			t.Error("hand_dealt must be targeted to a single presence")
		}
	}

	// Starting twice reports an error to the owner.
	dispatcher.messages = nil
	msg = &mockMatchData{mockPresence: *u1, opCode: OpCodeStartGame}
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.MatchData{msg})
	errMsg, ok := dispatcher.find(OpCodeGameError)
	if !ok {
		t.Fatal("expected a game error for double start")
	}
	var ev ErrorView
	if err := json.Unmarshal(errMsg.data, &ev); err != nil {
		t.Fatalf("error payload not valid JSON: %v", err)
	}
	if ev.Code != string(domain.CodeWrongPhase) {
		t.Errorf("expected code %s, got %s", domain.CodeWrongPhase, ev.Code)
	}
}

func TestEndTurnOutOfTurnSendsError(t *testing.T) {
	mh, state := newTestMatch(t)
	dispatcher := &mockDispatcher{}

	u1 := &mockPresence{userID: "u1", username: "Alice"}
	u2 := &mockPresence{userID: "u2", username: "Bob"}
	joinUsers(mh, state, dispatcher, u1, u2)
	startGame(t, mh, state, dispatcher, u1)

	dispatcher.messages = nil
	msg := &mockMatchData{mockPresence: *u2, opCode: OpCodeEndTurn}
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.MatchData{msg})

	errMsg, ok := dispatcher.find(OpCodeGameError)
	if !ok {
		t.Fatal("expected a game error for out-of-turn end")
	}
	var ev ErrorView
	if err := json.Unmarshal(errMsg.data, &ev); err != nil {
		t.Fatalf("error payload not valid JSON: %v", err)
	}
	if ev.Code != string(domain.CodeNotYourTurn) {
		t.Errorf("expected code %s, got %s", domain.CodeNotYourTurn, ev.Code)
	}
	if errMsg.recipients != 1 {
		t.Error("errors must be targeted to the sender")
	}

	// The rightful player ends the turn successfully.
	dispatcher.messages = nil
	msg = &mockMatchData{mockPresence: *u1, opCode: OpCodeEndTurn}
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 4, state, []runtime.MatchData{msg})
	if _, ok := dispatcher.find(OpCodeTurnEnded); !ok {
		t.Error("expected a turn_ended broadcast")
	}
}

func TestGetStatsTargetedToRequester(t *testing.T) {
	mh, state := newTestMatch(t)
	dispatcher := &mockDispatcher{}

	u1 := &mockPresence{userID: "u1", username: "Alice"}
	u2 := &mockPresence{userID: "u2", username: "Bob"}
	joinUsers(mh, state, dispatcher, u1, u2)
	startGame(t, mh, state, dispatcher, u1)

	dispatcher.messages = nil
	msg := &mockMatchData{mockPresence: *u2, opCode: OpCodeGetStats}
	mh.MatchLoop(context.Background(), noopLogger{}, nil, nil, dispatcher, 3, state, []runtime.MatchData{msg})

	stats, ok := dispatcher.find(OpCodeGameStats)
	if !ok {
		t.Fatal("expected a game stats message")
	}
	if stats.recipients != 1 {
		t.Error("stats must be targeted to the requester")
	}
	var gs app.GameStats
	if err := json.Unmarshal(stats.data, &gs); err != nil {
		t.Fatalf("stats payload not valid JSON: %v", err)
	}
	if gs.GameID != state.GameID {
		t.Errorf("expected game id %s, got %s", state.GameID, gs.GameID)
	}
}

func TestEventOpCodeMapping(t *testing.T) {
	mapped := []app.EventKind{
		app.EventGameStarted,
		app.EventHandDealt,
		app.EventCardDrawn,
		app.EventResourceAssigned,
		app.EventFeatureCompleted,
		app.EventFeatureIntroduced,
		app.EventTurnEnded,
		app.EventRoundAdvanced,
		app.EventEffectResolved,
		app.EventGameEnded,
	}
	seen := map[int64]bool{}
	for _, kind := range mapped {
		op, ok := eventOpCode(kind)
		if !ok {
			t.Errorf("expected opcode for %s", kind)
			continue
		}
		if seen[op] {
			t.Errorf("opcode %d mapped twice", op)
		}
		seen[op] = true
	}

	// game_created stays server-side; the lobby state carries that information.
	if _, ok := eventOpCode(app.EventGameCreated); ok {
		t.Error("game_created must not be broadcast")
	}
}
