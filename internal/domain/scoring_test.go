package domain

import (
	"testing"
)

func TestCalculateFeaturePoints(t *testing.T) {
	devJunior := func() *ResourceCard { return &ResourceCard{Role: RoleDev, Level: LevelJunior} }

	tests := []struct {
		name     string
		feature  *FeatureCard
		game     *Game
		ctx      ScoreContext
		expected ScoreBreakdown
	}{
		{
			name: "base only",
			feature: &FeatureCard{
				Requirements: map[Role]int{RoleDev: 2},
				Points:       5,
				Assigned:     []*ResourceCard{{Role: RoleDev, Level: LevelSenior}},
			},
			game:     &Game{MaxRounds: 10},
			ctx:      ScoreContext{Round: 6},
			expected: ScoreBreakdown{Base: 5, Total: 5},
		},
		{
			name: "early and perfect and teamwork",
			feature: &FeatureCard{
				Requirements: map[Role]int{RoleDev: 2},
				Points:       3,
				Assigned:     []*ResourceCard{devJunior()},
			},
			game: &Game{MaxRounds: 10},
			ctx:  ScoreContext{Round: 5, Teamwork: true},
			expected: ScoreBreakdown{
				Base:          3,
				EarlyBonus:    EarlyCompletionBonus,
				PerfectBonus:  PerfectMatchBonus,
				TeamworkBonus: TeamworkBonus,
				Total:         3 + EarlyCompletionBonus + PerfectMatchBonus + TeamworkBonus,
			},
		},
		{
			name: "over-assignment forfeits perfect match",
			feature: &FeatureCard{
				Requirements: map[Role]int{RoleDev: 2},
				Points:       3,
				Assigned:     []*ResourceCard{{Role: RoleDev, Level: LevelSenior}},
			},
			game:     &Game{MaxRounds: 10},
			ctx:      ScoreContext{Round: 6},
			expected: ScoreBreakdown{Base: 3, Total: 3},
		},
		{
			name: "extra role forfeits perfect match",
			feature: &FeatureCard{
				Requirements: map[Role]int{RoleDev: 2},
				Points:       3,
				Assigned:     []*ResourceCard{devJunior(), {Role: RoleUX, Level: LevelEntry}},
			},
			game:     &Game{MaxRounds: 10},
			ctx:      ScoreContext{Round: 6},
			expected: ScoreBreakdown{Base: 3, Total: 3},
		},
		{
			name: "deadline met",
			feature: &FeatureCard{
				Requirements:    map[Role]int{RoleDev: 2},
				Points:          5,
				Assigned:        []*ResourceCard{{Role: RoleDev, Level: LevelSenior}},
				DeadlineRound:   7,
				DeadlineBonus:   2,
				DeadlinePenalty: 2,
			},
			game:     &Game{MaxRounds: 10},
			ctx:      ScoreContext{Round: 7},
			expected: ScoreBreakdown{Base: 5, DeadlineBonus: 2, Total: 7},
		},
		{
			name: "deadline missed",
			feature: &FeatureCard{
				Requirements:    map[Role]int{RoleDev: 2},
				Points:          5,
				Assigned:        []*ResourceCard{{Role: RoleDev, Level: LevelSenior}},
				DeadlineRound:   6,
				DeadlineBonus:   2,
				DeadlinePenalty: 2,
			},
			game:     &Game{MaxRounds: 10},
			ctx:      ScoreContext{Round: 7},
			expected: ScoreBreakdown{Base: 5, DeadlinePenalty: 2, Total: 3},
		},
		{
			name: "late epic completion",
			feature: &FeatureCard{
				Requirements: map[Role]int{RoleDev: 2},
				Points:       8,
				Assigned:     []*ResourceCard{{Role: RoleDev, Level: LevelSenior}},
			},
			game:     &Game{MaxRounds: 10},
			ctx:      ScoreContext{Round: 9},
			expected: ScoreBreakdown{Base: 8, LateComplexityBonus: 2, Total: 10},
		},
		{
			name: "late basic gets no complexity bonus",
			feature: &FeatureCard{
				Requirements: map[Role]int{RoleDev: 2},
				Points:       3,
				Assigned:     []*ResourceCard{{Role: RoleDev, Level: LevelSenior}},
			},
			game:     &Game{MaxRounds: 10},
			ctx:      ScoreContext{Round: 9},
			expected: ScoreBreakdown{Base: 3, Total: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateFeaturePoints(tt.feature, tt.game, tt.ctx)
			if err != nil {
				t.Fatalf("CalculateFeaturePoints failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("breakdown = %+v, expected %+v", got, tt.expected)
			}
		})
	}
}

func TestCalculateFeaturePointsInvalidPoints(t *testing.T) {
	f := &FeatureCard{Requirements: map[Role]int{RoleDev: 1}, Points: 4}
	_, err := CalculateFeaturePoints(f, &Game{MaxRounds: 10}, ScoreContext{Round: 1})
	if CodeOf(err) != CodeInvalidFeaturePoints {
		t.Errorf("expected %s, got %v", CodeInvalidFeaturePoints, err)
	}
}

func TestUnassignedPenaltyOnlyAfterEnd(t *testing.T) {
	p := &Player{
		ID:    "p1",
		Score: 5,
		Hand: []Card{
			&ResourceCard{ID: "r1"},
			&ResourceCard{ID: "r2", AssignedTo: "f1"},
		},
	}

	playing := &Game{Phase: PhasePlaying, Players: []*Player{p}}
	if got := CalculatePlayerScore(playing, p); got.UnassignedPenalty != 0 || got.Final != 5 {
		t.Errorf("mid-game score = %+v, expected no penalty", got)
	}

	ended := &Game{Phase: PhaseEnded, Players: []*Player{p}}
	got := CalculatePlayerScore(ended, p)
	if got.UnassignedPenalty != UnassignedResourcePenalty {
		t.Errorf("expected penalty %d, got %d", UnassignedResourcePenalty, got.UnassignedPenalty)
	}
	if got.Final != 5-UnassignedResourcePenalty {
		t.Errorf("expected final %d, got %d", 5-UnassignedResourcePenalty, got.Final)
	}

	broke := &Player{ID: "p2", Hand: []Card{&ResourceCard{ID: "r3"}, &ResourceCard{ID: "r4"}}}
	if got := CalculatePlayerScore(ended, broke); got.Final != 0 {
		t.Errorf("expected final clamped at 0, got %d", got.Final)
	}
}

func TestCalculateTeamBonuses(t *testing.T) {
	completedFeatures := func(n int) []Card {
		var out []Card
		for i := 0; i < n; i++ {
			out = append(out, &FeatureCard{ID: string(rune('a' + i)), Completed: true})
		}
		return out
	}

	tests := []struct {
		name     string
		game     *Game
		expected TeamBonuses
	}{
		{
			name: "early win earns speed and efficiency",
			game: &Game{
				Phase:        PhaseEnded,
				WinCondition: true,
				CurrentRound: 6,
				MaxRounds:    10,
				DiscardPile:  completedFeatures(3),
				Players:      []*Player{{ID: "p1", Score: 10}, {ID: "p2", Score: 12}},
			},
			expected: TeamBonuses{Speed: 8, Efficiency: EfficiencyBonus, Total: 8 + EfficiencyBonus},
		},
		{
			name: "cooperation needs more than three features",
			game: &Game{
				Phase:        PhaseEnded,
				CurrentRound: 11,
				MaxRounds:    10,
				DiscardPile:  completedFeatures(5),
				Players:      []*Player{{ID: "p1", Score: 10}, {ID: "p2", Score: 12}},
			},
			expected: TeamBonuses{Efficiency: EfficiencyBonus, Cooperation: CooperationBonus, Total: EfficiencyBonus + CooperationBonus},
		},
		{
			name: "wide spread forfeits cooperation",
			game: &Game{
				Phase:        PhaseEnded,
				CurrentRound: 11,
				MaxRounds:    10,
				DiscardPile:  completedFeatures(5),
				Players:      []*Player{{ID: "p1", Score: 2}, {ID: "p2", Score: 12}},
			},
			expected: TeamBonuses{Efficiency: EfficiencyBonus, Total: EfficiencyBonus},
		},
		{
			name: "nothing completed",
			game: &Game{
				Phase:        PhaseEnded,
				CurrentRound: 11,
				MaxRounds:    10,
				Players:      []*Player{{ID: "p1"}, {ID: "p2"}},
			},
			expected: TeamBonuses{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateTeamBonuses(tt.game); got != tt.expected {
				t.Errorf("bonuses = %+v, expected %+v", got, tt.expected)
			}
		})
	}
}

func TestLeaderboardStableTies(t *testing.T) {
	g := &Game{
		Phase: PhasePlaying,
		Players: []*Player{
			{ID: "p1", Name: "Alice", Score: 5},
			{ID: "p2", Name: "Bob", Score: 9},
			{ID: "p3", Name: "Cara", Score: 5},
		},
	}

	board := Leaderboard(g)
	if len(board) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(board))
	}
	if board[0].PlayerID != "p2" || board[0].Rank != 1 {
		t.Errorf("expected p2 ranked first, got %+v", board[0])
	}
	// Tied players keep roster order.
	if board[1].PlayerID != "p1" || board[2].PlayerID != "p3" {
		t.Errorf("expected stable tie order p1 then p3, got %s then %s", board[1].PlayerID, board[2].PlayerID)
	}
	if board[1].Rank != 2 || board[2].Rank != 3 {
		t.Errorf("expected positional ranks 2 and 3, got %d and %d", board[1].Rank, board[2].Rank)
	}
}

func TestProjectedTeamScore(t *testing.T) {
	g := &Game{
		Phase:          PhasePlaying,
		Players:        []*Player{{ID: "p1", Score: 4}},
		FeaturesInPlay: []*FeatureCard{{ID: "f1", Points: 5}, {ID: "f2", Points: 3, Completed: true}},
		FeatureBacklog: []*FeatureCard{{ID: "f3", Points: 8}},
	}

	base := CalculateTeamScore(g).Total
	if got := ProjectedTeamScore(g); got != base+5+8 {
		t.Errorf("ProjectedTeamScore = %d, expected %d", got, base+5+8)
	}
}
