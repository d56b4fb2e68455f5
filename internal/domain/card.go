package domain

// CardKind discriminates the three card variants in the deck.
type CardKind string

const (
	// KindFeature is a project card players complete for points.
	KindFeature CardKind = "feature"
	// KindResource is a team-member card assigned to features.
	KindResource CardKind = "resource"
	// KindEvent is a disruption card resolved when drawn.
	KindEvent CardKind = "event"
)

// Card is the closed sum of the three card variants. Every consumption
// site switches exhaustively on the concrete type.
type Card interface {
	CardID() string
	Kind() CardKind
}

// Role is a resource discipline.
type Role string

const (
	RoleDev Role = "dev"
	RolePM  Role = "pm"
	RoleUX  Role = "ux"
)

// Valid reports whether the role is one of the three known disciplines.
func (r Role) Valid() bool {
	switch r {
	case RoleDev, RolePM, RoleUX:
		return true
	}
	return false
}

// Level is a resource skill level with a fixed 1:1 value mapping.
type Level string

const (
	LevelEntry  Level = "entry"
	LevelJunior Level = "junior"
	LevelSenior Level = "senior"
)

// Value returns the assignment value for the level (entry 1, junior 2,
// senior 3). Unknown levels are worth 0 and fail definition validation.
func (l Level) Value() int {
	switch l {
	case LevelEntry:
		return 1
	case LevelJunior:
		return 2
	case LevelSenior:
		return 3
	}
	return 0
}

// Tier is the complexity class derived from a feature's point value.
type Tier string

const (
	TierBasic   Tier = "basic"
	TierComplex Tier = "complex"
	TierEpic    Tier = "epic"
)

// FeaturePointValues lists the only legal point values for feature cards.
var FeaturePointValues = []int{3, 5, 8}

// ValidFeaturePoints reports whether p is a legal feature point value.
func ValidFeaturePoints(p int) bool {
	for _, v := range FeaturePointValues {
		if p == v {
			return true
		}
	}
	return false
}

// FeatureCard is a project requiring per-role resource totals.
type FeatureCard struct {
	ID           string
	Name         string
	Description  string
	Requirements map[Role]int
	Points       int
	Assigned     []*ResourceCard
	Completed    bool

	// Deadline fields are stamped by a competition event; zero means no deadline.
	DeadlineRound   int
	DeadlineBonus   int
	DeadlinePenalty int
}

func (f *FeatureCard) CardID() string { return f.ID }
func (f *FeatureCard) Kind() CardKind { return KindFeature }

// Tier derives the complexity class from the point value.
func (f *FeatureCard) Tier() Tier {
	switch f.Points {
	case 3:
		return TierBasic
	case 5:
		return TierComplex
	default:
		return TierEpic
	}
}

// AssignedTotals sums assigned resource values per role.
func (f *FeatureCard) AssignedTotals() map[Role]int {
	totals := make(map[Role]int, len(f.Requirements))
	for _, r := range f.Assigned {
		totals[r.Role] += r.Value()
	}
	return totals
}

// RequirementsMet reports whether every required role's assigned total
// meets or exceeds the requirement. Over-assignment is permitted.
func (f *FeatureCard) RequirementsMet() bool {
	totals := f.AssignedTotals()
	for role, need := range f.Requirements {
		if totals[role] < need {
			return false
		}
	}
	return true
}

// ResourceCard is a team member assignable to one feature at a time.
type ResourceCard struct {
	ID    string
	Role  Role
	Level Level

	// AssignedTo holds the owning feature's id, empty when free.
	AssignedTo string
	// UnavailableUntil locks the card while it exceeds the current round; zero means available.
	UnavailableUntil int
	// ExpiresAtRound retires contractor cards after the given round; zero means no expiry.
	ExpiresAtRound int
	// Contractor marks cards synthesized by a contractor event.
	Contractor bool
}

func (r *ResourceCard) CardID() string { return r.ID }
func (r *ResourceCard) Kind() CardKind { return KindResource }

// Value returns the card's assignment value via the fixed level mapping.
func (r *ResourceCard) Value() int { return r.Level.Value() }

// AvailableIn reports whether the card can be assigned during the given round.
func (r *ResourceCard) AvailableIn(round int) bool {
	return r.UnavailableUntil <= round
}

// EventType identifies a disruption variant.
type EventType string

const (
	EventLayoff      EventType = "layoff"
	EventPTO         EventType = "pto"
	EventPLM         EventType = "plm"
	EventCompetition EventType = "competition"
	EventBonus       EventType = "bonus"
	EventReorg       EventType = "reorg"
	EventContractor  EventType = "contractor"
)

// ActionDeadlinePressure selects the deadline branch of a competition event.
// Any other action value falls into the role-escalation branch.
const ActionDeadlinePressure = "deadline_pressure"

// EventEffect is the closed sum of per-type effect parameter records.
type EventEffect interface {
	EventType() EventType
	Validate() error
}

// LayoffEffect discards random unassigned resources from the drawer's hand.
type LayoffEffect struct {
	Count int
}

func (e LayoffEffect) EventType() EventType { return EventLayoff }

func (e LayoffEffect) Validate() error {
	if e.Count <= 0 {
		return NewError(CodeInvalidEventEffect, "layoff effect requires a positive count, got %d", e.Count)
	}
	return nil
}

// LeaveEffect temporarily locks resources; shared by the pto and plm events.
type LeaveEffect struct {
	Event    EventType
	Count    int
	Duration int
}

func (e LeaveEffect) EventType() EventType { return e.Event }

func (e LeaveEffect) Validate() error {
	if e.Event != EventPTO && e.Event != EventPLM {
		return NewError(CodeInvalidEventEffect, "leave effect on unexpected event type %q", e.Event)
	}
	if e.Duration <= 0 {
		return NewError(CodeInvalidEventEffect, "%s effect requires a positive duration, got %d", e.Event, e.Duration)
	}
	if e.Count < 0 {
		return NewError(CodeInvalidEventEffect, "%s effect count must not be negative, got %d", e.Event, e.Count)
	}
	return nil
}

// CompetitionEffect either stamps deadlines on incomplete features or
// escalates one role's requirement, selected by Action.
type CompetitionEffect struct {
	Action         string
	Rounds         int
	BonusPoints    int
	FailurePenalty int
	Role           Role
	Additional     int
}

func (e CompetitionEffect) EventType() EventType { return EventCompetition }

func (e CompetitionEffect) Validate() error {
	if e.Action == ActionDeadlinePressure {
		if e.Rounds <= 0 {
			return NewError(CodeInvalidEventEffect, "competition deadline requires positive rounds, got %d", e.Rounds)
		}
		if e.FailurePenalty <= 0 {
			return NewError(CodeInvalidEventEffect, "competition deadline requires a positive failure penalty, got %d", e.FailurePenalty)
		}
		return nil
	}
	if !e.Role.Valid() {
		return NewError(CodeInvalidEventEffect, "competition escalation requires a valid role, got %q", e.Role)
	}
	if e.Additional < 0 {
		return NewError(CodeInvalidEventEffect, "competition escalation additional must not be negative, got %d", e.Additional)
	}
	return nil
}

// BonusEffect draws extra resource cards from the deck into the drawer's hand.
type BonusEffect struct {
	Count int
}

func (e BonusEffect) EventType() EventType { return EventBonus }

func (e BonusEffect) Validate() error {
	if e.Count <= 0 {
		return NewError(CodeInvalidEventEffect, "bonus effect requires a positive count, got %d", e.Count)
	}
	return nil
}

// ReorgEffect reshuffles all hands preserving per-player hand sizes.
type ReorgEffect struct{}

func (e ReorgEffect) EventType() EventType { return EventReorg }
func (e ReorgEffect) Validate() error      { return nil }

// ContractorEffect synthesizes a temporary wildcard resource card.
type ContractorEffect struct {
	Role     Role
	Level    Level
	Duration int
}

func (e ContractorEffect) EventType() EventType { return EventContractor }

func (e ContractorEffect) Validate() error {
	if e.Role != "" && !e.Role.Valid() {
		return NewError(CodeInvalidEventEffect, "contractor effect role %q is not valid", e.Role)
	}
	if e.Level != "" && e.Level.Value() == 0 {
		return NewError(CodeInvalidEventEffect, "contractor effect level %q is not valid", e.Level)
	}
	if e.Duration < 0 {
		return NewError(CodeInvalidEventEffect, "contractor effect duration must not be negative, got %d", e.Duration)
	}
	return nil
}

// EventCard is a disruption with a trigger/resolve lifecycle. Both flags
// transition at most once, and resolve requires a prior trigger.
type EventCard struct {
	ID        string
	Type      EventType
	Effect    EventEffect
	Triggered bool
	Resolved  bool
}

func (e *EventCard) CardID() string { return e.ID }
func (e *EventCard) Kind() CardKind { return KindEvent }

// Trigger marks the card as drawn and activating. Triggering twice is an error.
func (e *EventCard) Trigger() error {
	if e.Triggered {
		return NewError(CodeEventTriggered, "event %s already triggered", e.ID)
	}
	e.Triggered = true
	return nil
}

// Resolve marks the effect as applied. It requires a prior Trigger and
// may itself happen only once.
func (e *EventCard) Resolve() error {
	if !e.Triggered {
		return NewError(CodeEventNotTriggered, "event %s resolved before trigger", e.ID)
	}
	if e.Resolved {
		return NewError(CodeEventResolved, "event %s already resolved", e.ID)
	}
	e.Resolved = true
	return nil
}
