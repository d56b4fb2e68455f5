package domain

import (
	"math/rand"

	"github.com/heroiclabs/nakama-common/runtime"
)

// TargetHandSize is the total number of cards dealt to each player at
// game creation: one feature plus resource fill.
const TargetHandSize = 4

// DeckStats reports deck composition diagnostics after dealing.
type DeckStats struct {
	TotalCards     int `json:"total_cards"`
	DealtCards     int `json:"dealt_cards"`
	RemainingCards int `json:"remaining_cards"`
}

// BuildDeck instantiates one card per definition in the set. A malformed
// definition is skipped with a warning rather than aborting the build.
func BuildDeck(set CardSet, logger runtime.Logger) []Card {
	deck := make([]Card, 0, len(set.Features)+len(set.Resources)+len(set.Events))

	for _, def := range set.Features {
		card, err := BuildFeatureCard(def)
		if err != nil {
			logger.Warn("BuildDeck: skipping feature definition: %v", err)
			continue
		}
		deck = append(deck, card)
	}

	for _, def := range set.Resources {
		count := def.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			card, err := BuildResourceCard(def)
			if err != nil {
				logger.Warn("BuildDeck: skipping resource definition: %v", err)
				break
			}
			deck = append(deck, card)
		}
	}

	for _, def := range set.Events {
		count := def.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			card, err := BuildEventCard(def)
			if err != nil {
				logger.Warn("BuildDeck: skipping event definition: %v", err)
				break
			}
			deck = append(deck, card)
		}
	}

	return deck
}

// ShuffleDeck returns a Fisher-Yates shuffled copy of the given deck.
// The input is never mutated, and the order is reproducible for a fixed
// rng seed and call sequence.
func ShuffleDeck(rng *rand.Rand, deck []Card) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// DealInitialCards shuffles the deck and deals starting hands: exactly one
// feature card per player, then round-robin resource cards until every hand
// holds TargetHandSize cards. It returns the remaining deck.
func DealInitialCards(rng *rand.Rand, deck []Card, players []*Player) ([]Card, error) {
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return nil, NewError(CodeInvalidPlayerCount, "game requires %d-%d players, got %d", MinPlayers, MaxPlayers, len(players))
	}

	working := ShuffleDeck(rng, deck)

	// One feature card each.
	for _, p := range players {
		idx := -1
		for i, card := range working {
			if _, ok := card.(*FeatureCard); ok {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, NewError(CodeInsufficientFeatures, "deck has fewer feature cards than players (%d)", len(players))
		}
		p.Hand = append(p.Hand, working[idx])
		working = append(working[:idx], working[idx+1:]...)
	}

	// Round-robin resource fill up to the target hand size.
	for dealt := true; dealt; {
		dealt = false
		for _, p := range players {
			if len(p.Hand) >= TargetHandSize {
				continue
			}
			idx := -1
			for i, card := range working {
				if _, ok := card.(*ResourceCard); ok {
					idx = i
					break
				}
			}
			if idx < 0 {
				return nil, NewError(CodeInsufficientResources, "deck ran out of resource cards while dealing to %s", p.Name)
			}
			p.Hand = append(p.Hand, working[idx])
			working = append(working[:idx], working[idx+1:]...)
			dealt = true
		}
	}

	return working, nil
}

// NewGameDeck composes the full setup: build the pool, deal initial hands,
// and reshuffle the remainder. It returns the remaining deck and diagnostics.
func NewGameDeck(rng *rand.Rand, set CardSet, players []*Player, logger runtime.Logger) ([]Card, DeckStats, error) {
	full := BuildDeck(set, logger)

	remaining, err := DealInitialCards(rng, full, players)
	if err != nil {
		return nil, DeckStats{}, err
	}
	remaining = ShuffleDeck(rng, remaining)

	stats := DeckStats{
		TotalCards:     len(full),
		DealtCards:     len(full) - len(remaining),
		RemainingCards: len(remaining),
	}
	return remaining, stats, nil
}
