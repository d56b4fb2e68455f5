package domain

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// FeatureDefinition is the static description of one feature card.
type FeatureDefinition struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Requirements map[string]int `json:"requirements"`
	Points       int            `json:"points"`
}

// ResourceDefinition describes a batch of identical resource cards.
type ResourceDefinition struct {
	Role  string `json:"role"`
	Level string `json:"level"`
	Count int    `json:"count"`
}

// EventDefinition describes a batch of identical event cards.
type EventDefinition struct {
	Type   string           `json:"type"`
	Count  int              `json:"count"`
	Effect EffectDefinition `json:"effect"`
}

// EffectDefinition is the raw, untyped effect payload as it appears in the
// card set file. It is narrowed into a typed EventEffect during deck build.
type EffectDefinition struct {
	Count          int    `json:"count,omitempty"`
	Duration       int    `json:"duration,omitempty"`
	Action         string `json:"action,omitempty"`
	Rounds         int    `json:"rounds,omitempty"`
	BonusPoints    int    `json:"bonusPoints,omitempty"`
	FailurePenalty int    `json:"failurePenalty,omitempty"`
	Role           string `json:"role,omitempty"`
	Additional     int    `json:"additional,omitempty"`
	Level          string `json:"level,omitempty"`
}

// CardSet is the full static pool the deck is built from.
type CardSet struct {
	Features  []FeatureDefinition  `json:"features"`
	Resources []ResourceDefinition `json:"resources"`
	Events    []EventDefinition    `json:"events"`
}

// LoadCardSet reads a card set from the given JSON file.
func LoadCardSet(path string) (CardSet, error) {
	var set CardSet

	data, err := os.ReadFile(path)
	if err != nil {
		return set, fmt.Errorf("failed to read card set: %w", err)
	}
	if err := json.Unmarshal(data, &set); err != nil {
		return set, fmt.Errorf("failed to unmarshal card set: %w", err)
	}
	return set, nil
}

// DefaultCardSet returns the compiled-in card pool used when no card set
// file is provided.
func DefaultCardSet() CardSet {
	return CardSet{
		Features: []FeatureDefinition{
			{Name: "Dark Mode", Description: "Add a dark theme toggle.", Requirements: map[string]int{"dev": 2, "ux": 1}, Points: 3},
			{Name: "Onboarding Tour", Description: "Guide new users through the product.", Requirements: map[string]int{"pm": 1, "ux": 2}, Points: 3},
			{Name: "CSV Export", Description: "Export reports to CSV.", Requirements: map[string]int{"dev": 3}, Points: 3},
			{Name: "Search Filters", Description: "Filter search results by facet.", Requirements: map[string]int{"dev": 2, "pm": 1}, Points: 3},
			{Name: "Payments Integration", Description: "Accept card payments at checkout.", Requirements: map[string]int{"dev": 4, "pm": 2}, Points: 5},
			{Name: "Mobile App", Description: "Ship the companion mobile client.", Requirements: map[string]int{"dev": 4, "ux": 3}, Points: 5},
			{Name: "Notifications", Description: "Real-time notification center.", Requirements: map[string]int{"dev": 3, "pm": 2, "ux": 2}, Points: 5},
			{Name: "Analytics Dashboard", Description: "Self-serve usage analytics.", Requirements: map[string]int{"dev": 3, "pm": 3, "ux": 1}, Points: 5},
			{Name: "Platform Migration", Description: "Move the stack to the new platform.", Requirements: map[string]int{"dev": 6, "pm": 3, "ux": 2}, Points: 8},
			{Name: "AI Assistant", Description: "Conversational assistant across the product.", Requirements: map[string]int{"dev": 5, "pm": 3, "ux": 4}, Points: 8},
			{Name: "Enterprise SSO", Description: "SAML and SCIM for enterprise accounts.", Requirements: map[string]int{"dev": 6, "pm": 4}, Points: 8},
		},
		Resources: []ResourceDefinition{
			{Role: "dev", Level: "entry", Count: 4},
			{Role: "dev", Level: "junior", Count: 4},
			{Role: "dev", Level: "senior", Count: 3},
			{Role: "pm", Level: "entry", Count: 3},
			{Role: "pm", Level: "junior", Count: 3},
			{Role: "pm", Level: "senior", Count: 2},
			{Role: "ux", Level: "entry", Count: 3},
			{Role: "ux", Level: "junior", Count: 3},
			{Role: "ux", Level: "senior", Count: 2},
		},
		Events: []EventDefinition{
			{Type: "layoff", Count: 2, Effect: EffectDefinition{Count: 1}},
			{Type: "layoff", Count: 1, Effect: EffectDefinition{Count: 2}},
			{Type: "pto", Count: 2, Effect: EffectDefinition{Count: 1, Duration: 1}},
			{Type: "plm", Count: 1, Effect: EffectDefinition{Count: 1, Duration: 2}},
			{Type: "competition", Count: 1, Effect: EffectDefinition{Action: ActionDeadlinePressure, Rounds: 2, BonusPoints: 2, FailurePenalty: 2}},
			{Type: "competition", Count: 1, Effect: EffectDefinition{Role: "dev", Additional: 1}},
			{Type: "bonus", Count: 2, Effect: EffectDefinition{Count: 2}},
			{Type: "reorg", Count: 1},
			{Type: "contractor", Count: 2, Effect: EffectDefinition{Role: "dev", Level: "senior", Duration: 1}},
		},
	}
}

// BuildFeatureCard validates a feature definition and instantiates a card.
func BuildFeatureCard(def FeatureDefinition) (*FeatureCard, error) {
	if def.Name == "" {
		return nil, NewError(CodeInvalidCardData, "feature definition has no name")
	}
	if !ValidFeaturePoints(def.Points) {
		return nil, NewError(CodeInvalidFeaturePoints, "feature %q has invalid points %d", def.Name, def.Points)
	}

	reqs := make(map[Role]int, len(def.Requirements))
	positive := false
	for rawRole, n := range def.Requirements {
		role := Role(rawRole)
		if !role.Valid() {
			return nil, NewError(CodeInvalidCardData, "feature %q requires unknown role %q", def.Name, rawRole)
		}
		if n < 0 {
			return nil, NewError(CodeInvalidCardData, "feature %q has negative requirement for %s", def.Name, role)
		}
		if n > 0 {
			positive = true
		}
		reqs[role] = n
	}
	if !positive {
		return nil, NewError(CodeInvalidCardData, "feature %q has no positive role requirement", def.Name)
	}

	return &FeatureCard{
		ID:           newCardID(KindFeature),
		Name:         def.Name,
		Description:  def.Description,
		Requirements: reqs,
		Points:       def.Points,
	}, nil
}

// BuildResourceCard validates a resource definition and instantiates one card.
func BuildResourceCard(def ResourceDefinition) (*ResourceCard, error) {
	role := Role(def.Role)
	if !role.Valid() {
		return nil, NewError(CodeInvalidCardData, "resource definition has unknown role %q", def.Role)
	}
	level := Level(def.Level)
	if level.Value() == 0 {
		return nil, NewError(CodeInvalidCardData, "resource definition has unknown level %q", def.Level)
	}

	return &ResourceCard{
		ID:    newCardID(KindResource),
		Role:  role,
		Level: level,
	}, nil
}

// BuildEventCard validates an event definition and instantiates one card.
func BuildEventCard(def EventDefinition) (*EventCard, error) {
	effect, err := narrowEffect(EventType(def.Type), def.Effect)
	if err != nil {
		return nil, err
	}
	if err := effect.Validate(); err != nil {
		return nil, err
	}

	return &EventCard{
		ID:     newCardID(KindEvent),
		Type:   EventType(def.Type),
		Effect: effect,
	}, nil
}

// narrowEffect converts the raw effect payload into its per-type record.
func narrowEffect(typ EventType, raw EffectDefinition) (EventEffect, error) {
	switch typ {
	case EventLayoff:
		return LayoffEffect{Count: raw.Count}, nil
	case EventPTO, EventPLM:
		count := raw.Count
		if count == 0 {
			count = 1
		}
		return LeaveEffect{Event: typ, Count: count, Duration: raw.Duration}, nil
	case EventCompetition:
		additional := raw.Additional
		if raw.Action != ActionDeadlinePressure && additional == 0 {
			additional = 1
		}
		return CompetitionEffect{
			Action:         raw.Action,
			Rounds:         raw.Rounds,
			BonusPoints:    raw.BonusPoints,
			FailurePenalty: raw.FailurePenalty,
			Role:           Role(raw.Role),
			Additional:     additional,
		}, nil
	case EventBonus:
		return BonusEffect{Count: raw.Count}, nil
	case EventReorg:
		return ReorgEffect{}, nil
	case EventContractor:
		return ContractorEffect{Role: Role(raw.Role), Level: Level(raw.Level), Duration: raw.Duration}, nil
	default:
		return nil, NewError(CodeInvalidEventEffect, "unknown event type %q", typ)
	}
}

func newCardID(kind CardKind) string {
	return fmt.Sprintf("%s-%s", kind, uuid.NewString())
}
