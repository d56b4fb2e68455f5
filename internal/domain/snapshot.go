package domain

import (
	"encoding/json"
	"time"
)

// SnapshotSchemaVersion tags the serialized game shape for the external
// persistence layer.
const SnapshotSchemaVersion = "1"

// Snapshot is the JSON-serializable projection of a Game. Round-tripping a
// game through its snapshot loses no invariant-relevant field.
type Snapshot struct {
	SchemaVersion string `json:"schema_version"`
	ID            string `json:"id"`

	Players        []PlayerSnapshot  `json:"players"`
	Deck           []CardEnvelope    `json:"deck"`
	DiscardPile    []CardEnvelope    `json:"discard_pile"`
	FeaturesInPlay []FeatureSnapshot `json:"features_in_play"`
	FeatureBacklog []FeatureSnapshot `json:"feature_backlog,omitempty"`

	CurrentRound       int `json:"current_round"`
	MaxRounds          int `json:"max_rounds"`
	CurrentPlayerIndex int `json:"current_player_index"`
	MaxFeaturesInPlay  int `json:"max_features_in_play"`

	Phase        Phase         `json:"game_phase"`
	WinCondition bool          `json:"win_condition"`
	EndReason    string        `json:"end_reason,omitempty"`
	LastAction   *LastAction   `json:"last_action,omitempty"`
	FinalScores  []PlayerScore `json:"final_scores,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlayerSnapshot serializes one participant. Unavailable resources are
// stored as ids; the cards themselves live in the hand.
type PlayerSnapshot struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Hand                []CardEnvelope `json:"hand"`
	Score               int            `json:"score"`
	FeaturesContributed int            `json:"features_contributed"`
	Unavailable         []string       `json:"unavailable,omitempty"`
}

// CardEnvelope is the tagged union wire shape for a card.
type CardEnvelope struct {
	Kind     CardKind          `json:"kind"`
	Feature  *FeatureSnapshot  `json:"feature,omitempty"`
	Resource *ResourceSnapshot `json:"resource,omitempty"`
	Event    *EventSnapshot    `json:"event,omitempty"`
}

// FeatureSnapshot serializes a feature card; assigned resources by id.
type FeatureSnapshot struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description,omitempty"`
	Requirements    map[Role]int `json:"requirements"`
	Points          int          `json:"points"`
	Assigned        []string     `json:"assigned,omitempty"`
	Completed       bool         `json:"completed"`
	DeadlineRound   int          `json:"deadline_round,omitempty"`
	DeadlineBonus   int          `json:"deadline_bonus,omitempty"`
	DeadlinePenalty int          `json:"deadline_penalty,omitempty"`
}

// ResourceSnapshot serializes a resource card.
type ResourceSnapshot struct {
	ID               string `json:"id"`
	Role             Role   `json:"role"`
	Level            Level  `json:"level"`
	AssignedTo       string `json:"assigned_to,omitempty"`
	UnavailableUntil int    `json:"unavailable_until,omitempty"`
	ExpiresAtRound   int    `json:"expires_at_round,omitempty"`
	Contractor       bool   `json:"contractor,omitempty"`
}

// EventSnapshot serializes an event card with its raw effect payload.
type EventSnapshot struct {
	ID        string           `json:"id"`
	Type      EventType        `json:"type"`
	Effect    EffectDefinition `json:"effect"`
	Triggered bool             `json:"triggered"`
	Resolved  bool             `json:"resolved"`
}

// Snapshot projects the game into its serializable shape.
func (g *Game) Snapshot() *Snapshot {
	s := &Snapshot{
		SchemaVersion:      SnapshotSchemaVersion,
		ID:                 g.ID,
		CurrentRound:       g.CurrentRound,
		MaxRounds:          g.MaxRounds,
		CurrentPlayerIndex: g.CurrentPlayerIndex,
		MaxFeaturesInPlay:  g.MaxFeaturesInPlay,
		Phase:              g.Phase,
		WinCondition:       g.WinCondition,
		EndReason:          g.EndReason,
		LastAction:         g.LastAction,
		FinalScores:        g.FinalScores,
		CreatedAt:          g.CreatedAt,
		UpdatedAt:          g.UpdatedAt,
	}

	for _, p := range g.Players {
		ps := PlayerSnapshot{
			ID:                  p.ID,
			Name:                p.Name,
			Score:               p.Score,
			FeaturesContributed: p.FeaturesContributed,
		}
		for _, card := range p.Hand {
			ps.Hand = append(ps.Hand, wrapCard(card))
		}
		for _, r := range p.Unavailable {
			ps.Unavailable = append(ps.Unavailable, r.ID)
		}
		s.Players = append(s.Players, ps)
	}

	for _, card := range g.Deck {
		s.Deck = append(s.Deck, wrapCard(card))
	}
	for _, card := range g.DiscardPile {
		s.DiscardPile = append(s.DiscardPile, wrapCard(card))
	}
	for _, f := range g.FeaturesInPlay {
		s.FeaturesInPlay = append(s.FeaturesInPlay, snapshotFeature(f))
	}
	for _, f := range g.FeatureBacklog {
		s.FeatureBacklog = append(s.FeatureBacklog, snapshotFeature(f))
	}

	return s
}

// MarshalJSON serializes the game through its snapshot projection.
func (g *Game) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Snapshot())
}

// RestoreGame rebuilds a Game from its snapshot, resolving assigned and
// unavailable resource references back to shared card pointers.
func RestoreGame(s *Snapshot) (*Game, error) {
	if s.SchemaVersion != SnapshotSchemaVersion {
		return nil, NewError(CodeInvalidSnapshot, "unsupported snapshot schema version %q", s.SchemaVersion)
	}

	g := &Game{
		ID:                 s.ID,
		CurrentRound:       s.CurrentRound,
		MaxRounds:          s.MaxRounds,
		CurrentPlayerIndex: s.CurrentPlayerIndex,
		MaxFeaturesInPlay:  s.MaxFeaturesInPlay,
		Phase:              s.Phase,
		WinCondition:       s.WinCondition,
		EndReason:          s.EndReason,
		LastAction:         s.LastAction,
		FinalScores:        s.FinalScores,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}

	resources := make(map[string]*ResourceCard)
	features := make(map[string]*FeatureCard)
	pendingAssigned := make(map[string][]string)

	restoreCard := func(env CardEnvelope) (Card, error) {
		card, err := unwrapCard(env)
		if err != nil {
			return nil, err
		}
		switch c := card.(type) {
		case *ResourceCard:
			resources[c.ID] = c
		case *FeatureCard:
			features[c.ID] = c
			if env.Feature != nil {
				pendingAssigned[c.ID] = env.Feature.Assigned
			}
		}
		return card, nil
	}

	for _, ps := range s.Players {
		p := &Player{
			ID:                  ps.ID,
			Name:                ps.Name,
			Score:               ps.Score,
			FeaturesContributed: ps.FeaturesContributed,
		}
		for _, env := range ps.Hand {
			card, err := restoreCard(env)
			if err != nil {
				return nil, err
			}
			p.Hand = append(p.Hand, card)
		}
		g.Players = append(g.Players, p)
	}

	for _, env := range s.Deck {
		card, err := restoreCard(env)
		if err != nil {
			return nil, err
		}
		g.Deck = append(g.Deck, card)
	}
	for _, env := range s.DiscardPile {
		card, err := restoreCard(env)
		if err != nil {
			return nil, err
		}
		g.DiscardPile = append(g.DiscardPile, card)
	}
	for _, fs := range s.FeaturesInPlay {
		f := restoreFeature(fs)
		features[f.ID] = f
		pendingAssigned[f.ID] = fs.Assigned
		g.FeaturesInPlay = append(g.FeaturesInPlay, f)
	}
	for _, fs := range s.FeatureBacklog {
		f := restoreFeature(fs)
		features[f.ID] = f
		pendingAssigned[f.ID] = fs.Assigned
		g.FeatureBacklog = append(g.FeatureBacklog, f)
	}

	// Second pass: resolve shared resource pointers.
	for featureID, ids := range pendingAssigned {
		f := features[featureID]
		for _, id := range ids {
			r, ok := resources[id]
			if !ok {
				return nil, NewError(CodeInvalidSnapshot, "feature %s references unknown resource %s", featureID, id)
			}
			f.Assigned = append(f.Assigned, r)
		}
	}
	for i, ps := range s.Players {
		for _, id := range ps.Unavailable {
			r, ok := resources[id]
			if !ok {
				return nil, NewError(CodeInvalidSnapshot, "player %s references unknown resource %s", ps.ID, id)
			}
			g.Players[i].Unavailable = append(g.Players[i].Unavailable, r)
		}
	}

	return g, nil
}

// WrapCard projects a single card into its tagged wire envelope.
func WrapCard(card Card) CardEnvelope {
	return wrapCard(card)
}

func wrapCard(card Card) CardEnvelope {
	switch c := card.(type) {
	case *FeatureCard:
		fs := snapshotFeature(c)
		return CardEnvelope{Kind: KindFeature, Feature: &fs}
	case *ResourceCard:
		return CardEnvelope{Kind: KindResource, Resource: &ResourceSnapshot{
			ID:               c.ID,
			Role:             c.Role,
			Level:            c.Level,
			AssignedTo:       c.AssignedTo,
			UnavailableUntil: c.UnavailableUntil,
			ExpiresAtRound:   c.ExpiresAtRound,
			Contractor:       c.Contractor,
		}}
	case *EventCard:
		return CardEnvelope{Kind: KindEvent, Event: &EventSnapshot{
			ID:        c.ID,
			Type:      c.Type,
			Effect:    flattenEffect(c.Effect),
			Triggered: c.Triggered,
			Resolved:  c.Resolved,
		}}
	default:
		return CardEnvelope{}
	}
}

func unwrapCard(env CardEnvelope) (Card, error) {
	switch env.Kind {
	case KindFeature:
		if env.Feature == nil {
			return nil, NewError(CodeInvalidSnapshot, "feature envelope missing payload")
		}
		return restoreFeature(*env.Feature), nil
	case KindResource:
		if env.Resource == nil {
			return nil, NewError(CodeInvalidSnapshot, "resource envelope missing payload")
		}
		r := env.Resource
		return &ResourceCard{
			ID:               r.ID,
			Role:             r.Role,
			Level:            r.Level,
			AssignedTo:       r.AssignedTo,
			UnavailableUntil: r.UnavailableUntil,
			ExpiresAtRound:   r.ExpiresAtRound,
			Contractor:       r.Contractor,
		}, nil
	case KindEvent:
		if env.Event == nil {
			return nil, NewError(CodeInvalidSnapshot, "event envelope missing payload")
		}
		e := env.Event
		effect, err := narrowEffect(e.Type, e.Effect)
		if err != nil {
			return nil, err
		}
		return &EventCard{
			ID:        e.ID,
			Type:      e.Type,
			Effect:    effect,
			Triggered: e.Triggered,
			Resolved:  e.Resolved,
		}, nil
	default:
		return nil, NewError(CodeInvalidSnapshot, "unknown card kind %q", env.Kind)
	}
}

func snapshotFeature(f *FeatureCard) FeatureSnapshot {
	fs := FeatureSnapshot{
		ID:              f.ID,
		Name:            f.Name,
		Description:     f.Description,
		Requirements:    f.Requirements,
		Points:          f.Points,
		Completed:       f.Completed,
		DeadlineRound:   f.DeadlineRound,
		DeadlineBonus:   f.DeadlineBonus,
		DeadlinePenalty: f.DeadlinePenalty,
	}
	for _, r := range f.Assigned {
		fs.Assigned = append(fs.Assigned, r.ID)
	}
	return fs
}

func restoreFeature(fs FeatureSnapshot) *FeatureCard {
	return &FeatureCard{
		ID:              fs.ID,
		Name:            fs.Name,
		Description:     fs.Description,
		Requirements:    fs.Requirements,
		Points:          fs.Points,
		Completed:       fs.Completed,
		DeadlineRound:   fs.DeadlineRound,
		DeadlineBonus:   fs.DeadlineBonus,
		DeadlinePenalty: fs.DeadlinePenalty,
	}
}

func flattenEffect(effect EventEffect) EffectDefinition {
	switch e := effect.(type) {
	case LayoffEffect:
		return EffectDefinition{Count: e.Count}
	case LeaveEffect:
		return EffectDefinition{Count: e.Count, Duration: e.Duration}
	case CompetitionEffect:
		return EffectDefinition{
			Action:         e.Action,
			Rounds:         e.Rounds,
			BonusPoints:    e.BonusPoints,
			FailurePenalty: e.FailurePenalty,
			Role:           string(e.Role),
			Additional:     e.Additional,
		}
	case BonusEffect:
		return EffectDefinition{Count: e.Count}
	case ContractorEffect:
		return EffectDefinition{Role: string(e.Role), Level: string(e.Level), Duration: e.Duration}
	default:
		return EffectDefinition{}
	}
}
