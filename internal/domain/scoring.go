package domain

import "sort"

// Scoring tuning values. Feature bonuses reward playing ahead of the round
// clock and exact staffing; team bonuses reward finishing early, a high
// features-per-round ratio, and an even score spread.
const (
	EarlyCompletionBonus = 2
	PerfectMatchBonus    = 2
	TeamworkBonus        = 1

	SpeedBonusPerRound     = 2
	EfficiencyBonus        = 5
	EfficiencyThreshold    = 0.5
	CooperationBonus       = 10
	CooperationMaxSpread   = 5
	CooperationMinFeatures = 3

	UnassignedResourcePenalty = 1
)

// ScoreContext carries completion circumstances the feature card itself
// does not know about.
type ScoreContext struct {
	// Round is the round the feature completed in.
	Round int
	// Teamwork is set when more than one player contributed resources.
	Teamwork bool
}

// ScoreBreakdown itemizes a completed feature's points for observability.
type ScoreBreakdown struct {
	Base                int `json:"base"`
	EarlyBonus          int `json:"early_bonus"`
	PerfectBonus        int `json:"perfect_bonus"`
	TeamworkBonus       int `json:"teamwork_bonus"`
	DeadlineBonus       int `json:"deadline_bonus"`
	LateComplexityBonus int `json:"late_complexity_bonus"`
	DeadlinePenalty     int `json:"deadline_penalty"`
	Total               int `json:"total"`
}

// CalculateFeaturePoints computes base + bonuses - penalties for a completed
// feature. The total never goes below zero.
func CalculateFeaturePoints(f *FeatureCard, g *Game, ctx ScoreContext) (ScoreBreakdown, error) {
	if !ValidFeaturePoints(f.Points) {
		return ScoreBreakdown{}, NewError(CodeInvalidFeaturePoints, "feature %s has invalid points %d", f.ID, f.Points)
	}

	b := ScoreBreakdown{Base: f.Points}
	round := ctx.Round
	if round == 0 {
		round = g.CurrentRound
	}

	if round*2 <= g.MaxRounds {
		b.EarlyBonus = EarlyCompletionBonus
	}
	if perfectMatch(f) {
		b.PerfectBonus = PerfectMatchBonus
	}
	if ctx.Teamwork {
		b.TeamworkBonus = TeamworkBonus
	}

	if f.DeadlineRound > 0 {
		if round <= f.DeadlineRound {
			b.DeadlineBonus = f.DeadlineBonus
		} else {
			b.DeadlinePenalty = f.DeadlinePenalty
		}
	}

	// Finishing heavyweight work in the last quarter of the game earns a
	// complexity bonus of 0/1/2 for basic/complex/epic.
	if round*4 > g.MaxRounds*3 {
		switch f.Tier() {
		case TierComplex:
			b.LateComplexityBonus = 1
		case TierEpic:
			b.LateComplexityBonus = 2
		}
	}

	b.Total = b.Base + b.EarlyBonus + b.PerfectBonus + b.TeamworkBonus + b.DeadlineBonus + b.LateComplexityBonus - b.DeadlinePenalty
	if b.Total < 0 {
		b.Total = 0
	}
	return b, nil
}

// perfectMatch reports whether assigned totals exactly equal the
// requirements for every role, with nothing over-assigned.
func perfectMatch(f *FeatureCard) bool {
	totals := f.AssignedTotals()
	for role, need := range f.Requirements {
		if totals[role] != need {
			return false
		}
	}
	for role := range totals {
		if _, required := f.Requirements[role]; !required {
			return false
		}
	}
	return true
}

// PlayerScore is a per-player scoring summary.
type PlayerScore struct {
	PlayerID            string `json:"player_id"`
	Name                string `json:"name"`
	Score               int    `json:"score"`
	FeaturesContributed int    `json:"features_contributed"`
	UnassignedPenalty   int    `json:"unassigned_penalty"`
	Final               int    `json:"final"`
}

// CalculatePlayerScore summarizes one player's standing. The unassigned
// resource penalty only applies once the game has ended.
func CalculatePlayerScore(g *Game, p *Player) PlayerScore {
	ps := PlayerScore{
		PlayerID:            p.ID,
		Name:                p.Name,
		Score:               p.Score,
		FeaturesContributed: p.FeaturesContributed,
	}

	if g.Phase == PhaseEnded {
		for _, r := range p.HandResources() {
			if r.AssignedTo == "" {
				ps.UnassignedPenalty += UnassignedResourcePenalty
			}
		}
	}

	ps.Final = ps.Score - ps.UnassignedPenalty
	if ps.Final < 0 {
		ps.Final = 0
	}
	return ps
}

// TeamBonuses itemizes end-of-game team-wide bonuses.
type TeamBonuses struct {
	Speed       int `json:"speed"`
	Efficiency  int `json:"efficiency"`
	Cooperation int `json:"cooperation"`
	Total       int `json:"total"`
}

// CalculateTeamBonuses computes the speed, efficiency and cooperation
// bonuses from the game's final shape.
func CalculateTeamBonuses(g *Game) TeamBonuses {
	var tb TeamBonuses
	completed := g.CompletedFeatures()

	roundsPlayed := g.CurrentRound
	if roundsPlayed > g.MaxRounds {
		roundsPlayed = g.MaxRounds
	}
	if roundsPlayed < 1 {
		roundsPlayed = 1
	}

	if g.WinCondition && roundsPlayed < g.MaxRounds {
		tb.Speed = (g.MaxRounds - roundsPlayed) * SpeedBonusPerRound
	}

	if float64(completed)/float64(roundsPlayed) >= EfficiencyThreshold {
		tb.Efficiency = EfficiencyBonus
	}

	if completed > CooperationMinFeatures {
		lo, hi := scoreSpread(g)
		if hi-lo <= CooperationMaxSpread {
			tb.Cooperation = CooperationBonus
		}
	}

	tb.Total = tb.Speed + tb.Efficiency + tb.Cooperation
	return tb
}

func scoreSpread(g *Game) (lo, hi int) {
	for i, p := range g.Players {
		final := CalculatePlayerScore(g, p).Final
		if i == 0 {
			lo, hi = final, final
			continue
		}
		if final < lo {
			lo = final
		}
		if final > hi {
			hi = final
		}
	}
	return lo, hi
}

// TeamScore aggregates the whole team's standing.
type TeamScore struct {
	Total             int         `json:"total"`
	FeaturesCompleted int         `json:"features_completed"`
	Bonuses           TeamBonuses `json:"bonuses"`
}

// CalculateTeamScore sums player finals plus team bonuses.
func CalculateTeamScore(g *Game) TeamScore {
	ts := TeamScore{
		FeaturesCompleted: g.CompletedFeatures(),
		Bonuses:           CalculateTeamBonuses(g),
	}
	for _, p := range g.Players {
		ts.Total += CalculatePlayerScore(g, p).Final
	}
	ts.Total += ts.Bonuses.Total
	return ts
}

// ProjectedTeamScore estimates the team total if every feature currently
// in play or backlogged were completed for its base value.
func ProjectedTeamScore(g *Game) int {
	projected := CalculateTeamScore(g).Total
	for _, f := range g.FeaturesInPlay {
		if !f.Completed {
			projected += f.Points
		}
	}
	for _, f := range g.FeatureBacklog {
		projected += f.Points
	}
	return projected
}

// LeaderboardEntry is one ranked row of the per-player leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// Leaderboard ranks players by final score, descending. Ties keep roster
// order and ranks are assigned by position.
func Leaderboard(g *Game) []LeaderboardEntry {
	scores := make([]PlayerScore, len(g.Players))
	for i, p := range g.Players {
		scores[i] = CalculatePlayerScore(g, p)
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Final > scores[j].Final
	})

	entries := make([]LeaderboardEntry, len(scores))
	for i, s := range scores {
		entries[i] = LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: s.PlayerID,
			Name:     s.Name,
			Score:    s.Final,
		}
	}
	return entries
}

// CalculateFinalScores snapshots every player's score summary at game end.
func CalculateFinalScores(g *Game) []PlayerScore {
	out := make([]PlayerScore, len(g.Players))
	for i, p := range g.Players {
		out[i] = CalculatePlayerScore(g, p)
	}
	return out
}
