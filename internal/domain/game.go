package domain

import (
	"sort"
	"time"
)

// Phase represents the lifecycle stage of a game.
type Phase string

const (
	// PhaseLobby is the pre-game state where the roster is assembled.
	PhaseLobby Phase = "lobby"
	// PhasePlaying is the active game state.
	PhasePlaying Phase = "playing"
	// PhaseEnded is the terminal state; every further mutation is rejected.
	PhaseEnded Phase = "ended"
)

const (
	// MinPlayers and MaxPlayers bound the roster size.
	MinPlayers = 2
	MaxPlayers = 4

	// HandLimit caps a player's hand for append-type draws.
	HandLimit = 7

	// DefaultMaxRounds is the round limit when no tuning config overrides it.
	DefaultMaxRounds = 10

	// DefaultMaxFeaturesInPlay bounds concurrently active feature cards.
	DefaultMaxFeaturesInPlay = 5
)

// End reasons recorded when a game reaches PhaseEnded.
const (
	EndReasonAllFeaturesCompleted = "all_features_completed"
	EndReasonMaxRoundsReached     = "max_rounds_reached"
)

// Player holds per-participant state.
type Player struct {
	ID    string
	Name  string
	Hand  []Card
	Score int

	// FeaturesContributed counts completed features this player staffed.
	FeaturesContributed int

	// Unavailable indexes resource cards in this player's hand that are
	// currently locked by a leave event. The cards themselves stay in Hand.
	Unavailable []*ResourceCard
}

// HandResources returns the resource cards currently in the player's hand.
func (p *Player) HandResources() []*ResourceCard {
	out := make([]*ResourceCard, 0, len(p.Hand))
	for _, card := range p.Hand {
		if r, ok := card.(*ResourceCard); ok {
			out = append(out, r)
		}
	}
	return out
}

// LastAction is the audit record of the most recent mutating operation.
type LastAction struct {
	PlayerID string    `json:"player_id"`
	Action   string    `json:"action"`
	Detail   string    `json:"detail,omitempty"`
	Round    int       `json:"round"`
	At       time.Time `json:"at"`
}

// Game holds the authoritative state for a single game instance. It is
// mutated only through app.Service operations, never by external callers.
type Game struct {
	ID      string
	Players []*Player

	Deck           []Card
	DiscardPile    []Card
	FeaturesInPlay []*FeatureCard
	// FeatureBacklog holds replacement features when FeaturesInPlay is full.
	FeatureBacklog []*FeatureCard

	CurrentRound       int
	MaxRounds          int
	CurrentPlayerIndex int
	MaxFeaturesInPlay  int

	Phase        Phase
	WinCondition bool
	EndReason    string
	LastAction   *LastAction
	FinalScores  []PlayerScore

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Player returns the participant with the given id.
func (g *Game) Player(id string) (*Player, bool) {
	for _, p := range g.Players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// CurrentPlayer returns the player whose turn it is.
func (g *Game) CurrentPlayer() *Player {
	if len(g.Players) == 0 {
		return nil
	}
	return g.Players[g.CurrentPlayerIndex]
}

// Over reports whether the game can no longer accept mutations.
func (g *Game) Over() bool {
	return g.Phase == PhaseEnded
}

// FindFeature locates an incomplete-or-not feature by id. Lookup precedence
// is fixed: FeaturesInPlay first, then every player's hand in roster order.
func (g *Game) FindFeature(id string) (*FeatureCard, bool) {
	for _, f := range g.FeaturesInPlay {
		if f.ID == id {
			return f, true
		}
	}
	for _, p := range g.Players {
		for _, card := range p.Hand {
			if f, ok := card.(*FeatureCard); ok && f.ID == id {
				return f, true
			}
		}
	}
	return nil, false
}

// FindResource locates a resource card in the given player's hand.
func (g *Game) FindResource(playerID, resourceID string) (*ResourceCard, bool) {
	p, ok := g.Player(playerID)
	if !ok {
		return nil, false
	}
	for _, card := range p.Hand {
		if r, ok := card.(*ResourceCard); ok && r.ID == resourceID {
			return r, true
		}
	}
	return nil, false
}

// HolderOf returns the player whose hand contains the card id.
func (g *Game) HolderOf(cardID string) (*Player, bool) {
	for _, p := range g.Players {
		for _, card := range p.Hand {
			if card.CardID() == cardID {
				return p, true
			}
		}
	}
	return nil, false
}

// Contributors returns the players whose hands hold the resources assigned
// to the feature, deduplicated by player id in roster order.
func (g *Game) Contributors(f *FeatureCard) []*Player {
	seen := make(map[string]bool, len(g.Players))
	var out []*Player
	for _, r := range f.Assigned {
		holder, ok := g.HolderOf(r.ID)
		if !ok || seen[holder.ID] {
			continue
		}
		seen[holder.ID] = true
		out = append(out, holder)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return g.rosterIndex(out[i].ID) < g.rosterIndex(out[j].ID)
	})
	return out
}

func (g *Game) rosterIndex(playerID string) int {
	for i, p := range g.Players {
		if p.ID == playerID {
			return i
		}
	}
	return len(g.Players)
}

// TotalFeatures derives the count of features introduced into play: in
// play, backlogged, or discarded. It is recomputed on every call rather
// than tracked by a stored counter. Features still in the deck or in hands
// only count once they enter play or the discard pile.
func (g *Game) TotalFeatures() int {
	n := len(g.FeaturesInPlay) + len(g.FeatureBacklog)
	for _, card := range g.DiscardPile {
		if _, ok := card.(*FeatureCard); ok {
			n++
		}
	}
	return n
}

// CompletedFeatures counts completed feature cards in the discard pile.
func (g *Game) CompletedFeatures() int {
	n := 0
	for _, card := range g.DiscardPile {
		if f, ok := card.(*FeatureCard); ok && f.Completed {
			n++
		}
	}
	return n
}

// RecordAction updates the audit trail and the modification timestamp.
func (g *Game) RecordAction(playerID, action, detail string) {
	now := time.Now().UTC()
	g.LastAction = &LastAction{
		PlayerID: playerID,
		Action:   action,
		Detail:   detail,
		Round:    g.CurrentRound,
		At:       now,
	}
	g.UpdatedAt = now
}

// RemoveCardFromHand removes the card with the given id from the hand and
// returns the updated hand along with the removed card.
func RemoveCardFromHand(hand []Card, cardID string) ([]Card, Card) {
	for i, card := range hand {
		if card.CardID() == cardID {
			removed := card
			return append(hand[:i], hand[i+1:]...), removed
		}
	}
	return hand, nil
}

// RemoveUnavailable drops the resource from the player's unavailable index.
func (p *Player) RemoveUnavailable(resourceID string) {
	for i, r := range p.Unavailable {
		if r.ID == resourceID {
			p.Unavailable = append(p.Unavailable[:i], p.Unavailable[i+1:]...)
			return
		}
	}
}

// CardIDCensus returns every card id reachable from the game state, one
// entry per physical location: deck, hands, discard pile, features in play
// and backlog. Duplicate ids indicate a conservation violation.
func (g *Game) CardIDCensus() []string {
	var ids []string
	for _, card := range g.Deck {
		ids = append(ids, card.CardID())
	}
	for _, p := range g.Players {
		for _, card := range p.Hand {
			ids = append(ids, card.CardID())
		}
	}
	for _, card := range g.DiscardPile {
		ids = append(ids, card.CardID())
	}
	for _, f := range g.FeaturesInPlay {
		ids = append(ids, f.ID)
	}
	for _, f := range g.FeatureBacklog {
		ids = append(ids, f.ID)
	}
	return ids
}

// LabelPayload is the advertised lobby label for match listings.
type LabelPayload struct {
	Open  bool   `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
}

// ComputeLabel derives the advertised label from game state.
func ComputeLabel(g *Game) LabelPayload {
	open := g.Phase == PhaseLobby && len(g.Players) < MaxPlayers
	return LabelPayload{Open: open, Game: "shipit", Phase: string(g.Phase)}
}
