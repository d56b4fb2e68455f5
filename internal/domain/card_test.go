package domain

import (
	"testing"
)

func TestLevelValue(t *testing.T) {
	tests := []struct {
		level    Level
		expected int
	}{
		{LevelEntry, 1},
		{LevelJunior, 2},
		{LevelSenior, 3},
		{Level("principal"), 0},
	}

	for _, tt := range tests {
		if got := tt.level.Value(); got != tt.expected {
			t.Errorf("Level(%q).Value() = %d, expected %d", tt.level, got, tt.expected)
		}
	}
}

func TestFeatureTier(t *testing.T) {
	tests := []struct {
		points   int
		expected Tier
	}{
		{3, TierBasic},
		{5, TierComplex},
		{8, TierEpic},
	}

	for _, tt := range tests {
		f := &FeatureCard{Points: tt.points}
		if got := f.Tier(); got != tt.expected {
			t.Errorf("points %d: Tier() = %q, expected %q", tt.points, got, tt.expected)
		}
	}
}

func TestRequirementsMet(t *testing.T) {
	tests := []struct {
		name     string
		reqs     map[Role]int
		assigned []*ResourceCard
		expected bool
	}{
		{
			name:     "exact match",
			reqs:     map[Role]int{RoleDev: 2},
			assigned: []*ResourceCard{{Role: RoleDev, Level: LevelJunior}},
			expected: true,
		},
		{
			name:     "over-assignment satisfies",
			reqs:     map[Role]int{RoleDev: 2},
			assigned: []*ResourceCard{{Role: RoleDev, Level: LevelSenior}},
			expected: true,
		},
		{
			name:     "short one role",
			reqs:     map[Role]int{RoleDev: 2, RoleUX: 1},
			assigned: []*ResourceCard{{Role: RoleDev, Level: LevelJunior}},
			expected: false,
		},
		{
			name:     "wrong role does not count",
			reqs:     map[Role]int{RoleUX: 1},
			assigned: []*ResourceCard{{Role: RoleDev, Level: LevelSenior}},
			expected: false,
		},
		{
			name:     "nothing assigned",
			reqs:     map[Role]int{RolePM: 1},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &FeatureCard{Requirements: tt.reqs, Assigned: tt.assigned}
			if got := f.RequirementsMet(); got != tt.expected {
				t.Errorf("RequirementsMet() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestResourceAvailableIn(t *testing.T) {
	r := &ResourceCard{UnavailableUntil: 3}
	if r.AvailableIn(2) {
		t.Error("expected resource locked in round 2")
	}
	if !r.AvailableIn(3) {
		t.Error("expected resource available in round 3")
	}

	free := &ResourceCard{}
	if !free.AvailableIn(1) {
		t.Error("expected unlocked resource available")
	}
}

func TestEventCardLifecycle(t *testing.T) {
	card := &EventCard{ID: "event-1", Type: EventLayoff, Effect: LayoffEffect{Count: 1}}

	if err := card.Resolve(); CodeOf(err) != CodeEventNotTriggered {
		t.Errorf("resolve before trigger: expected %s, got %v", CodeEventNotTriggered, err)
	}

	if err := card.Trigger(); err != nil {
		t.Fatalf("first trigger failed: %v", err)
	}
	if err := card.Trigger(); CodeOf(err) != CodeEventTriggered {
		t.Errorf("second trigger: expected %s, got %v", CodeEventTriggered, err)
	}

	if err := card.Resolve(); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	if err := card.Resolve(); CodeOf(err) != CodeEventResolved {
		t.Errorf("second resolve: expected %s, got %v", CodeEventResolved, err)
	}
}

func TestEffectValidate(t *testing.T) {
	tests := []struct {
		name    string
		effect  EventEffect
		wantErr bool
	}{
		{"layoff valid", LayoffEffect{Count: 1}, false},
		{"layoff zero count", LayoffEffect{}, true},
		{"pto valid", LeaveEffect{Event: EventPTO, Count: 1, Duration: 1}, false},
		{"plm valid", LeaveEffect{Event: EventPLM, Count: 1, Duration: 2}, false},
		{"leave wrong event", LeaveEffect{Event: EventLayoff, Count: 1, Duration: 1}, true},
		{"leave zero duration", LeaveEffect{Event: EventPTO, Count: 1}, true},
		{"competition deadline valid", CompetitionEffect{Action: ActionDeadlinePressure, Rounds: 2, BonusPoints: 2, FailurePenalty: 2}, false},
		{"competition deadline zero rounds", CompetitionEffect{Action: ActionDeadlinePressure, FailurePenalty: 2}, true},
		{"competition deadline zero penalty", CompetitionEffect{Action: ActionDeadlinePressure, Rounds: 2}, true},
		{"competition escalation valid", CompetitionEffect{Role: RoleDev, Additional: 1}, false},
		{"competition escalation bad role", CompetitionEffect{Role: Role("qa")}, true},
		{"bonus valid", BonusEffect{Count: 2}, false},
		{"bonus zero count", BonusEffect{}, true},
		{"reorg valid", ReorgEffect{}, false},
		{"contractor valid", ContractorEffect{Role: RoleDev, Level: LevelSenior, Duration: 1}, false},
		{"contractor defaults valid", ContractorEffect{}, false},
		{"contractor bad level", ContractorEffect{Level: Level("principal")}, true},
		{"contractor negative duration", ContractorEffect{Duration: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.effect.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildFeatureCard(t *testing.T) {
	tests := []struct {
		name     string
		def      FeatureDefinition
		wantCode Code
	}{
		{
			name: "valid",
			def:  FeatureDefinition{Name: "Search", Requirements: map[string]int{"dev": 2}, Points: 5},
		},
		{
			name:     "invalid points",
			def:      FeatureDefinition{Name: "Search", Requirements: map[string]int{"dev": 2}, Points: 4},
			wantCode: CodeInvalidFeaturePoints,
		},
		{
			name:     "unknown role",
			def:      FeatureDefinition{Name: "Search", Requirements: map[string]int{"qa": 2}, Points: 5},
			wantCode: CodeInvalidCardData,
		},
		{
			name:     "no positive requirement",
			def:      FeatureDefinition{Name: "Search", Requirements: map[string]int{"dev": 0}, Points: 5},
			wantCode: CodeInvalidCardData,
		},
		{
			name:     "missing name",
			def:      FeatureDefinition{Requirements: map[string]int{"dev": 2}, Points: 5},
			wantCode: CodeInvalidCardData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := BuildFeatureCard(tt.def)
			if tt.wantCode != "" {
				if CodeOf(err) != tt.wantCode {
					t.Errorf("expected code %s, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if card.ID == "" {
				t.Error("expected generated card id")
			}
			if card.Requirements[RoleDev] != 2 {
				t.Errorf("expected dev requirement 2, got %d", card.Requirements[RoleDev])
			}
		})
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		code     Code
		expected Kind
	}{
		{CodeGameOver, KindState},
		{CodeWrongPhase, KindState},
		{CodeNotYourTurn, KindState},
		{CodeInvalidFeaturePoints, KindValidation},
		{CodeResourceAssigned, KindConflict},
		{CodeResourceUnavailable, KindConflict},
		{CodeHandFull, KindCapacity},
		{CodeDeckEmpty, KindCapacity},
	}

	for _, tt := range tests {
		if got := tt.code.Kind(); got != tt.expected {
			t.Errorf("%s: Kind() = %v, expected %v", tt.code, got, tt.expected)
		}
	}

	err := NewError(CodeHandFull, "hand is full")
	if KindOf(err) != KindCapacity {
		t.Errorf("KindOf = %v, expected %v", KindOf(err), KindCapacity)
	}
}
