package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"shipit/internal/app"
	"shipit/internal/config"
	"shipit/internal/domain"
	"shipit/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the match handler.
// The engine itself lives behind the app.Service; this layer only maps
// seats, presences and opcodes.
type MatchState struct {
	Seats     [4]string                   `json:"seats"`
	OwnerSeat int                         `json:"owner_seat"`
	Tick      int64                       `json:"tick"`
	GameID    string                      `json:"game_id"`
	Presences map[string]runtime.Presence `json:"-"`
	Svc       *app.Service                `json:"-"`
	Stats     ports.StatsPort             `json:"-"`

	// UserToPlayer / PlayerToUser map Nakama user ids onto engine player ids.
	UserToPlayer map[string]string `json:"-"`
	PlayerToUser map[string]string `json:"-"`
}

// GetOpenSeatsCount returns the number of empty seats.
func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

// GetOccupiedSeatCount returns the number of filled seats.
func (ms *MatchState) GetOccupiedSeatCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" {
			count++
		}
	}
	return count
}

func findSeat(seats []string, userID string) int {
	for i, seatUserID := range seats {
		if seatUserID == userID {
			return i
		}
	}
	return -1
}

func firstOccupiedSeat(seats []string) int {
	for i, userID := range seats {
		if userID != "" {
			return i
		}
	}
	return -1
}

func newMatchHandler() runtime.Match {
	return &matchHandler{}
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	svc := app.NewService(app.NewStore(), nil, logger)
	if set, err := domain.LoadCardSet("data/cards.json"); err != nil {
		logger.Warn("MatchInit: Could not load card set, using defaults: %v", err)
	} else {
		svc.UseCardSet(set)
	}

	state := &MatchState{
		OwnerSeat:    -1,
		Presences:    make(map[string]runtime.Presence),
		Svc:          svc,
		Stats:        NewNakamaStatsAdapter(nk),
		UserToPlayer: make(map[string]string),
		PlayerToUser: make(map[string]string),
	}

	label := domain.LabelPayload{Open: true, Game: MatchNameShipIt, Phase: string(domain.PhaseLobby)}
	labelBytes, err := json.Marshal(label)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1
	return state, tickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Reconnects are always allowed; fresh joins need an open seat in the lobby.
	if findSeat(matchState.Seats[:], presence.GetUserId()) >= 0 {
		return state, true, ""
	}
	if matchState.GameID != "" {
		return state, false, "Game already started"
	}
	if matchState.GetOpenSeatsCount() <= 0 {
		return state, false, "Match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		if findSeat(matchState.Seats[:], p.GetUserId()) >= 0 {
			continue // reconnect keeps the original seat
		}
		for i, seatUserID := range matchState.Seats {
			if seatUserID == "" {
				matchState.Seats[i] = p.GetUserId()
				break
			}
		}
	}

	if matchState.OwnerSeat < 0 || matchState.Seats[matchState.OwnerSeat] == "" {
		matchState.OwnerSeat = firstOccupiedSeat(matchState.Seats[:])
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastLobbyState(matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		// Seats are only freed before the game starts; mid-game leavers
		// keep their seat so a reconnect resumes the same player.
		if matchState.GameID == "" {
			if i := findSeat(matchState.Seats[:], p.GetUserId()); i >= 0 {
				matchState.Seats[i] = ""
			}
		}
	}

	if matchState.OwnerSeat >= 0 && matchState.Seats[matchState.OwnerSeat] == "" {
		matchState.OwnerSeat = firstOccupiedSeat(matchState.Seats[:])
	}

	if len(matchState.Presences) == 0 {
		logger.Info("MatchLeave: Terminating empty match.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastLobbyState(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpCodeStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpCodeDrawCard:
			mh.handleDrawCard(ctx, matchState, dispatcher, logger, msg)
		case OpCodeAssignResource:
			mh.handleAssignResource(ctx, matchState, dispatcher, logger, msg)
		case OpCodeEndTurn:
			mh.handleEndTurn(ctx, matchState, dispatcher, logger, msg)
		case OpCodeGetStats:
			mh.handleGetStats(matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	return matchState
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := findSeat(state.Seats[:], senderID)

	if senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		return
	}
	if state.GameID != "" {
		mh.sendError(state, dispatcher, logger, senderID, domain.NewError(domain.CodeWrongPhase, "game already started"))
		return
	}
	if state.GetOccupiedSeatCount() < domain.MinPlayers {
		mh.sendError(state, dispatcher, logger, senderID, domain.NewError(domain.CodeInvalidPlayerCount,
			"need at least %d seated players", domain.MinPlayers))
		return
	}

	// Seat order becomes roster order.
	var names []string
	var seatUsers []string
	for _, userID := range state.Seats {
		if userID == "" {
			continue
		}
		name := userID
		if p, ok := state.Presences[userID]; ok {
			name = p.GetUsername()
		}
		names = append(names, name)
		seatUsers = append(seatUsers, userID)
	}

	game, createEvents, err := state.Svc.CreateGame(names)
	if err != nil {
		logger.Error("StartGame: Failed to create game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	state.GameID = game.ID
	for i, p := range game.Players {
		state.UserToPlayer[seatUsers[i]] = p.ID
		state.PlayerToUser[p.ID] = seatUsers[i]
	}

	startEvents, err := state.Svc.StartGame(game.ID)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return
	}

	mh.updateLabel(state, dispatcher, logger)
	for _, ev := range append(createEvents, startEvents...) {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}

	logger.Info("StartGame: Game %s started with %d players.", game.ID, len(names))
}

func (mh *matchHandler) handleDrawCard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	playerID, ok := mh.actingPlayer(state, dispatcher, logger, msg)
	if !ok {
		return
	}

	_, events, err := state.Svc.DrawCard(state.GameID, playerID)
	if err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), err)
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleAssignResource(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	playerID, ok := mh.actingPlayer(state, dispatcher, logger, msg)
	if !ok {
		return
	}

	var request AssignResourceRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Warn("handleAssignResource: Invalid request from %s: %v", msg.GetUserId(), err)
		return
	}

	_, events, err := state.Svc.AssignResource(state.GameID, playerID, request.ResourceID, request.FeatureID)
	if err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), err)
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleEndTurn(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	playerID, ok := mh.actingPlayer(state, dispatcher, logger, msg)
	if !ok {
		return
	}

	events, err := state.Svc.EndTurn(state.GameID, playerID)
	if err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), err)
		return
	}
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

func (mh *matchHandler) handleGetStats(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	if state.GameID == "" {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.NewError(domain.CodeGameNotFound, "no game in progress"))
		return
	}

	stats, err := state.Svc.GetStats(state.GameID)
	if err != nil {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), err)
		return
	}

	bytes, err := json.Marshal(stats)
	if err != nil {
		logger.Error("handleGetStats: Failed to marshal stats: %v", err)
		return
	}
	if p, ok := state.Presences[msg.GetUserId()]; ok {
		dispatcher.BroadcastMessage(OpCodeGameStats, bytes, []runtime.Presence{p}, nil, true)
	}
}

// actingPlayer resolves the sender to an engine player id.
func (mh *matchHandler) actingPlayer(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) (string, bool) {
	if state.GameID == "" {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.NewError(domain.CodeGameNotFound, "no game in progress"))
		return "", false
	}
	playerID, ok := state.UserToPlayer[msg.GetUserId()]
	if !ok {
		mh.sendError(state, dispatcher, logger, msg.GetUserId(), domain.NewError(domain.CodePlayerNotFound, "sender is not seated in this game"))
		return "", false
	}
	return playerID, true
}

// broadcastEvent serializes an app event and dispatches it to its
// recipients, defaulting to a broadcast.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := eventOpCode(ev.Kind)
	if !ok {
		return
	}

	payload := ev.Payload
	if ev.Kind == app.EventGameStarted {
		if game, ok := state.Svc.Store().Get(state.GameID); ok {
			payload = toGameStartedView(game, config.TurnDurationSeconds())
		}
	}

	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, playerID := range ev.Recipients {
			userID, ok := state.PlayerToUser[playerID]
			if !ok {
				continue
			}
			if p, ok := state.Presences[userID]; ok {
				recipients = append(recipients, p)
			}
		}

		// Targeted events with no connected recipient must not leak to everyone.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)

	if ev.Kind == app.EventGameEnded {
		mh.persistResult(ctx, state, logger)
		mh.updateLabel(state, dispatcher, logger)
	}
}

// persistResult writes the final snapshot through the stats port.
func (mh *matchHandler) persistResult(ctx context.Context, state *MatchState, logger runtime.Logger) {
	game, ok := state.Svc.Store().Get(state.GameID)
	if !ok {
		logger.Error("persistResult: Game %s missing from store", state.GameID)
		return
	}

	snapshot, err := json.Marshal(game.Snapshot())
	if err != nil {
		logger.Error("persistResult: Failed to marshal snapshot: %v", err)
		return
	}

	result := ports.GameResult{
		GameID:       game.ID,
		Reason:       game.EndReason,
		WinCondition: game.WinCondition,
		TeamScore:    domain.CalculateTeamScore(game).Total,
		Snapshot:     snapshot,
	}
	for _, ps := range game.FinalScores {
		result.Players = append(result.Players, ports.PlayerResult{
			PlayerID: ps.PlayerID,
			Name:     ps.Name,
			Score:    ps.Final,
		})
	}

	if err := state.Stats.RecordResult(ctx, result); err != nil {
		logger.Error("persistResult: %v", err)
	}
}

func (mh *matchHandler) broadcastLobbyState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	view := LobbyStateView{
		Seats:           state.Seats[:],
		OwnerSeat:       state.OwnerSeat,
		Phase:           domain.PhaseLobby,
		TurnDurationSec: config.TurnDurationSeconds(),
	}
	if state.GameID != "" {
		if game, ok := state.Svc.Store().Get(state.GameID); ok {
			view.Phase = game.Phase
		}
	}

	for i, userID := range state.Seats {
		if userID == "" {
			continue
		}
		pv := PlayerView{
			UserID:  userID,
			Name:    userID,
			Seat:    i,
			IsOwner: i == state.OwnerSeat,
		}
		if p, ok := state.Presences[userID]; ok {
			pv.Name = p.GetUsername()
			pv.Connected = true
		}
		if playerID, ok := state.UserToPlayer[userID]; ok {
			pv.PlayerID = playerID
			if game, ok := state.Svc.Store().Get(state.GameID); ok {
				if player, ok := game.Player(playerID); ok {
					pv.HandSize = len(player.Hand)
					pv.Score = player.Score
					pv.OnLeave = len(player.Unavailable)
				}
			}
		}
		view.Players = append(view.Players, pv)
	}

	bytes, err := json.Marshal(view)
	if err != nil {
		logger.Error("broadcastLobbyState: Failed to marshal: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpCodeLobbyState, bytes, nil, nil, true)
}

// sendError sends an ErrorView to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, cause error) {
	bytes, err := json.Marshal(toErrorView(cause))
	if err != nil {
		logger.Error("Failed to marshal error view: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpCodeGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label := domain.LabelPayload{
		Open:  state.GetOpenSeatsCount() > 0,
		Game:  MatchNameShipIt,
		Phase: string(domain.PhaseLobby),
	}
	if state.GameID != "" {
		label.Open = false
		label.Phase = string(domain.PhasePlaying)
		if game, ok := state.Svc.Store().Get(state.GameID); ok {
			label = domain.ComputeLabel(game)
		}
	}

	labelBytes, err := json.Marshal(label)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
