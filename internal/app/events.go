package app

import "shipit/internal/domain"

// EventKind identifies emitted app events for transport dispatch.
type EventKind string

const (
	EventGameCreated       EventKind = "game_created"
	EventGameStarted       EventKind = "game_started"
	EventHandDealt         EventKind = "hand_dealt"
	EventCardDrawn         EventKind = "card_drawn"
	EventResourceAssigned  EventKind = "resource_assigned"
	EventFeatureCompleted  EventKind = "feature_completed"
	EventFeatureIntroduced EventKind = "feature_introduced"
	EventTurnEnded         EventKind = "turn_ended"
	EventRoundAdvanced     EventKind = "round_advanced"
	EventEffectResolved    EventKind = "event_effect_resolved"
	EventGameEnded         EventKind = "game_ended"
)

// Event is an app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // player IDs; empty means broadcast
}

type GameCreatedPayload struct {
	GameID    string
	PlayerIDs []string
	DeckStats domain.DeckStats
}

type GameStartedPayload struct {
	Phase         domain.Phase
	CurrentRound  int
	FirstPlayerID string
}

type HandDealtPayload struct {
	PlayerID string
	Hand     []domain.CardEnvelope
}

type CardDrawnPayload struct {
	PlayerID string
	Card     domain.CardEnvelope
	DeckSize int
}

type ResourceAssignedPayload struct {
	PlayerID   string
	ResourceID string
	FeatureID  string
	Completed  bool
}

type FeatureCompletedPayload struct {
	FeatureID      string
	FeatureName    string
	Breakdown      domain.ScoreBreakdown
	ContributorIDs []string
}

type FeatureIntroducedPayload struct {
	FeatureID   string
	FeatureName string
}

type TurnEndedPayload struct {
	PlayerID     string
	NextPlayerID string
	CurrentRound int
}

type RoundAdvancedPayload struct {
	Round             int
	RestoredResources []string
	ExpiredResources  []string
}

type EffectResolvedPayload struct {
	PlayerID string
	EventID  string
	Type     domain.EventType
	Detail   EffectDetail
}

type GameEndedPayload struct {
	Reason       string
	WinCondition bool
	FinalScores  []domain.PlayerScore
	TeamScore    domain.TeamScore
	Leaderboard  []domain.LeaderboardEntry
}

// EffectDetail reports what an event effect actually touched, for clients
// and for deterministic replay assertions.
type EffectDetail struct {
	DiscardedResources []string `json:"discarded_resources,omitempty"`
	LockedResources    []string `json:"locked_resources,omitempty"`
	UnavailableUntil   int      `json:"unavailable_until,omitempty"`
	StampedFeatures    []string `json:"stamped_features,omitempty"`
	EscalatedRole      string   `json:"escalated_role,omitempty"`
	DrawnResources     []string `json:"drawn_resources,omitempty"`
	ReassignedHands    bool     `json:"reassigned_hands,omitempty"`
	ContractorID       string   `json:"contractor_id,omitempty"`
}
