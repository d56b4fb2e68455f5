package nakama

import (
	"shipit/internal/app"
	"shipit/internal/domain"
)

// Request payloads (client -> server, JSON).

type AssignResourceRequest struct {
	ResourceID string `json:"resource_id"`
	FeatureID  string `json:"feature_id"`
}

// Wire views (server -> client, JSON). Hands are redacted to counts for
// everyone but their owner; full hands travel only in targeted events.

type PlayerView struct {
	PlayerID  string `json:"player_id"`
	UserID    string `json:"user_id,omitempty"`
	Name      string `json:"name"`
	Seat      int    `json:"seat"`
	IsOwner   bool   `json:"is_owner"`
	HandSize  int    `json:"hand_size"`
	Score     int    `json:"score"`
	OnLeave   int    `json:"on_leave"`
	Connected bool   `json:"connected"`
}

type FeatureView struct {
	FeatureID     string              `json:"feature_id"`
	Name          string              `json:"name"`
	Requirements  map[domain.Role]int `json:"requirements"`
	Points        int                 `json:"points"`
	Tier          domain.Tier         `json:"tier"`
	AssignedValue map[domain.Role]int `json:"assigned_value"`
	Completed     bool                `json:"completed"`
	DeadlineRound int                 `json:"deadline_round,omitempty"`
}

type LobbyStateView struct {
	Seats           []string     `json:"seats"`
	OwnerSeat       int          `json:"owner_seat"`
	Players         []PlayerView `json:"players"`
	Phase           domain.Phase `json:"phase"`
	TurnDurationSec int          `json:"turn_duration_sec"`
}

type GameStartedView struct {
	GameID          string        `json:"game_id"`
	CurrentRound    int           `json:"current_round"`
	MaxRounds       int           `json:"max_rounds"`
	FirstPlayerID   string        `json:"first_player_id"`
	TurnDurationSec int           `json:"turn_duration_sec"`
	Features        []FeatureView `json:"features"`
}

type ErrorView struct {
	Code    string `json:"code"`
	Kind    int    `json:"kind"`
	Message string `json:"message"`
}

func toFeatureView(f *domain.FeatureCard) FeatureView {
	return FeatureView{
		FeatureID:     f.ID,
		Name:          f.Name,
		Requirements:  f.Requirements,
		Points:        f.Points,
		Tier:          f.Tier(),
		AssignedValue: f.AssignedTotals(),
		Completed:     f.Completed,
		DeadlineRound: f.DeadlineRound,
	}
}

func toFeatureViews(features []*domain.FeatureCard) []FeatureView {
	out := make([]FeatureView, len(features))
	for i, f := range features {
		out[i] = toFeatureView(f)
	}
	return out
}

// toGameStartedView enriches the start notification with the full
// feature board so clients render it without a second fetch.
func toGameStartedView(game *domain.Game, turnDurationSec int) GameStartedView {
	view := GameStartedView{
		GameID:          game.ID,
		CurrentRound:    game.CurrentRound,
		MaxRounds:       game.MaxRounds,
		TurnDurationSec: turnDurationSec,
		Features:        toFeatureViews(game.FeaturesInPlay),
	}
	if current := game.CurrentPlayer(); current != nil {
		view.FirstPlayerID = current.ID
	}
	return view
}

func toErrorView(err error) ErrorView {
	return ErrorView{
		Code:    string(domain.CodeOf(err)),
		Kind:    int(domain.KindOf(err)),
		Message: err.Error(),
	}
}

// eventOpCode maps an app event kind to its broadcast opcode. Unknown
// kinds return false and are not broadcast.
func eventOpCode(kind app.EventKind) (int64, bool) {
	switch kind {
	case app.EventGameStarted:
		return OpCodeGameStarted, true
	case app.EventHandDealt:
		return OpCodeHandDealt, true
	case app.EventCardDrawn:
		return OpCodeCardDrawn, true
	case app.EventResourceAssigned:
		return OpCodeResourceAssigned, true
	case app.EventFeatureCompleted:
		return OpCodeFeatureCompleted, true
	case app.EventFeatureIntroduced:
		return OpCodeFeatureIntroduced, true
	case app.EventTurnEnded:
		return OpCodeTurnEnded, true
	case app.EventRoundAdvanced:
		return OpCodeRoundAdvanced, true
	case app.EventEffectResolved:
		return OpCodeEffectResolved, true
	case app.EventGameEnded:
		return OpCodeGameEnded, true
	default:
		return 0, false
	}
}
