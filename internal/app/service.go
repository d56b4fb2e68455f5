package app

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"

	"shipit/internal/config"
	"shipit/internal/domain"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// Service contains the game's use-cases operating on domain state. All
// randomness flows through the single injected rng so that a fixed seed
// makes shuffles, effect target picks and final scores reproducible.
type Service struct {
	store  *Store
	rng    *rand.Rand
	logger runtime.Logger
	cards  domain.CardSet
}

// NewService constructs a Service with the provided rng or a crypto-seeded
// default. A nil logger is replaced with a no-op logger.
func NewService(store *Store, rng *rand.Rand, logger runtime.Logger) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(newSeed()))
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Service{
		store:  store,
		rng:    rng,
		logger: logger,
		cards:  domain.DefaultCardSet(),
	}
}

// UseCardSet replaces the card pool used for subsequent game creation.
func (s *Service) UseCardSet(set domain.CardSet) {
	s.cards = set
}

// Store exposes the game registry to the transport layer.
func (s *Service) Store() *Store {
	return s.store
}

// newSeed generates a high-entropy seed from crypto/rand.
func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// CreateGame builds a new game for the named players: deck construction,
// initial deal, and seeding of the feature board. The game starts in the
// lobby phase; StartGame begins play.
func (s *Service) CreateGame(names []string) (*domain.Game, []Event, error) {
	if len(names) < domain.MinPlayers || len(names) > domain.MaxPlayers {
		return nil, nil, domain.NewError(domain.CodeInvalidPlayerCount,
			"game requires %d-%d players, got %d", domain.MinPlayers, domain.MaxPlayers, len(names))
	}

	players := make([]*domain.Player, 0, len(names))
	for _, name := range names {
		if name == "" {
			return nil, nil, domain.NewError(domain.CodeInvalidPlayerCount, "player name must not be empty")
		}
		players = append(players, &domain.Player{ID: uuid.NewString(), Name: name})
	}

	deck, stats, err := domain.NewGameDeck(s.rng, s.cards, players, s.logger)
	if err != nil {
		return nil, nil, err
	}

	game := &domain.Game{
		ID:                uuid.NewString(),
		Players:           players,
		Deck:              deck,
		CurrentRound:      1,
		MaxRounds:         config.MaxRounds(),
		MaxFeaturesInPlay: config.MaxFeaturesInPlay(),
		Phase:             domain.PhaseLobby,
	}
	game.RecordAction("", "create_game", "")
	game.CreatedAt = game.UpdatedAt

	events := []Event{{
		Kind: EventGameCreated,
		Payload: GameCreatedPayload{
			GameID:    game.ID,
			PlayerIDs: playerIDs(players),
			DeckStats: stats,
		},
	}}
	events = append(events, s.fillFeatureBoard(game)...)

	s.store.Put(game)
	return game, events, nil
}

// LoadGame restores a persisted snapshot into the store.
func (s *Service) LoadGame(snapshot *domain.Snapshot) (*domain.Game, error) {
	game, err := domain.RestoreGame(snapshot)
	if err != nil {
		return nil, err
	}
	s.store.Put(game)
	return game, nil
}

// StartGame transitions a lobby game into play. It is only valid from the
// lobby phase.
func (s *Service) StartGame(gameID string) ([]Event, error) {
	var events []Event
	err := s.store.WithGame(gameID, func(g *domain.Game) error {
		if g.Over() {
			return errGameOver(g)
		}
		if g.Phase != domain.PhaseLobby {
			return domain.NewError(domain.CodeWrongPhase, "game %s already started", g.ID)
		}

		g.Phase = domain.PhasePlaying
		g.CurrentRound = 1
		g.CurrentPlayerIndex = 0
		g.RecordAction("", "start_game", "")

		for _, p := range g.Players {
			hand := make([]domain.CardEnvelope, 0, len(p.Hand))
			for _, card := range p.Hand {
				hand = append(hand, domain.WrapCard(card))
			}
			events = append(events, Event{
				Kind:       EventHandDealt,
				Payload:    HandDealtPayload{PlayerID: p.ID, Hand: hand},
				Recipients: []string{p.ID},
			})
		}
		events = append(events, Event{
			Kind: EventGameStarted,
			Payload: GameStartedPayload{
				Phase:         g.Phase,
				CurrentRound:  g.CurrentRound,
				FirstPlayerID: g.CurrentPlayer().ID,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// DrawCard pops the top of the deck into the acting player's hand. Event
// cards are handed to the effect dispatcher immediately after the draw.
func (s *Service) DrawCard(gameID, playerID string) (domain.Card, []Event, error) {
	var (
		drawn  domain.Card
		events []Event
	)
	err := s.store.WithGame(gameID, func(g *domain.Game) error {
		if err := s.ensureTurn(g, playerID); err != nil {
			return err
		}
		player, _ := g.Player(playerID)

		if len(g.Deck) == 0 {
			return domain.NewError(domain.CodeDeckEmpty, "deck is empty")
		}
		if len(player.Hand) >= domain.HandLimit {
			return domain.NewError(domain.CodeHandFull, "hand holds %d cards, limit is %d", len(player.Hand), domain.HandLimit)
		}

		drawn = g.Deck[len(g.Deck)-1]
		g.Deck = g.Deck[:len(g.Deck)-1]
		player.Hand = append(player.Hand, drawn)
		g.RecordAction(playerID, "draw_card", drawn.CardID())

		events = append(events, Event{
			Kind:       EventCardDrawn,
			Payload:    CardDrawnPayload{PlayerID: playerID, Card: domain.WrapCard(drawn), DeckSize: len(g.Deck)},
			Recipients: []string{playerID},
		})

		if event, ok := drawn.(*domain.EventCard); ok {
			effectEvents, err := s.applyEventEffect(g, player, event)
			if err != nil {
				return err
			}
			events = append(events, effectEvents...)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return drawn, events, nil
}

// AssignResource attaches a resource card from the player's hand to a
// feature and evaluates completion. It reports whether the assignment
// completed the feature.
func (s *Service) AssignResource(gameID, playerID, resourceID, featureID string) (bool, []Event, error) {
	var (
		completed bool
		events    []Event
	)
	err := s.store.WithGame(gameID, func(g *domain.Game) error {
		if err := s.ensurePlaying(g); err != nil {
			return err
		}
		if _, ok := g.Player(playerID); !ok {
			return domain.NewError(domain.CodePlayerNotFound, "player %s not in game", playerID)
		}

		resource, ok := g.FindResource(playerID, resourceID)
		if !ok {
			return domain.NewError(domain.CodeCardNotFound, "resource %s not in player %s's hand", resourceID, playerID)
		}
		if resource.AssignedTo != "" {
			return domain.NewError(domain.CodeResourceAssigned, "resource %s already assigned to %s", resourceID, resource.AssignedTo)
		}
		if !resource.AvailableIn(g.CurrentRound) {
			return domain.NewError(domain.CodeResourceUnavailable, "resource %s unavailable until round %d", resourceID, resource.UnavailableUntil)
		}

		feature, ok := g.FindFeature(featureID)
		if !ok {
			return domain.NewError(domain.CodeFeatureNotFound, "feature %s not found", featureID)
		}
		if feature.Completed {
			return domain.NewError(domain.CodeFeatureCompleted, "feature %s already completed", featureID)
		}

		feature.Assigned = append(feature.Assigned, resource)
		resource.AssignedTo = feature.ID
		g.RecordAction(playerID, "assign_resource", resourceID)

		completed = feature.RequirementsMet()
		events = append(events, Event{
			Kind:    EventResourceAssigned,
			Payload: ResourceAssignedPayload{PlayerID: playerID, ResourceID: resourceID, FeatureID: featureID, Completed: completed},
		})

		if completed {
			completionEvents, err := s.completeFeature(g, feature)
			if err != nil {
				return err
			}
			events = append(events, completionEvents...)
		}
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return completed, events, nil
}

// completeFeature transitions a feature to completed exactly once: scores
// it, pays every contributing player, retires it to the discard pile,
// refills the feature board and evaluates the win condition.
func (s *Service) completeFeature(g *domain.Game, feature *domain.FeatureCard) ([]Event, error) {
	contributors := g.Contributors(feature)
	breakdown, err := domain.CalculateFeaturePoints(feature, g, domain.ScoreContext{
		Round:    g.CurrentRound,
		Teamwork: len(contributors) > 1,
	})
	if err != nil {
		return nil, err
	}

	feature.Completed = true
	for _, p := range contributors {
		p.Score += breakdown.Total
		p.FeaturesContributed++
	}

	s.retireFeature(g, feature)

	events := []Event{{
		Kind: EventFeatureCompleted,
		Payload: FeatureCompletedPayload{
			FeatureID:      feature.ID,
			FeatureName:    feature.Name,
			Breakdown:      breakdown,
			ContributorIDs: playerIDs(contributors),
		},
	}}
	events = append(events, s.fillFeatureBoard(g)...)

	if g.TotalFeatures() > 0 && g.CompletedFeatures() == g.TotalFeatures() {
		events = append(events, s.endGame(g, domain.EndReasonAllFeaturesCompleted))
	}
	return events, nil
}

// retireFeature moves a completed feature to the discard pile from
// wherever it lives: the board or a player's hand.
func (s *Service) retireFeature(g *domain.Game, feature *domain.FeatureCard) {
	for i, f := range g.FeaturesInPlay {
		if f.ID == feature.ID {
			g.FeaturesInPlay = append(g.FeaturesInPlay[:i], g.FeaturesInPlay[i+1:]...)
			g.DiscardPile = append(g.DiscardPile, feature)
			return
		}
	}
	if holder, ok := g.HolderOf(feature.ID); ok {
		holder.Hand, _ = domain.RemoveCardFromHand(holder.Hand, feature.ID)
		g.DiscardPile = append(g.DiscardPile, feature)
	}
}

// fillFeatureBoard tops up FeaturesInPlay to its cap, preferring the
// backlog over the deck.
func (s *Service) fillFeatureBoard(g *domain.Game) []Event {
	var events []Event
	for len(g.FeaturesInPlay) < g.MaxFeaturesInPlay {
		var next *domain.FeatureCard

		if len(g.FeatureBacklog) > 0 {
			next = g.FeatureBacklog[0]
			g.FeatureBacklog = g.FeatureBacklog[1:]
		} else {
			for i, card := range g.Deck {
				if f, ok := card.(*domain.FeatureCard); ok {
					next = f
					g.Deck = append(g.Deck[:i], g.Deck[i+1:]...)
					break
				}
			}
		}
		if next == nil {
			break
		}

		g.FeaturesInPlay = append(g.FeaturesInPlay, next)
		events = append(events, Event{
			Kind:    EventFeatureIntroduced,
			Payload: FeatureIntroducedPayload{FeatureID: next.ID, FeatureName: next.Name},
		})
	}
	return events
}

// EndTurn passes the turn to the next player. Wrapping back to the first
// player advances the round and runs round-boundary effects.
func (s *Service) EndTurn(gameID, playerID string) ([]Event, error) {
	var events []Event
	err := s.store.WithGame(gameID, func(g *domain.Game) error {
		if err := s.ensureTurn(g, playerID); err != nil {
			return err
		}

		g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
		g.RecordAction(playerID, "end_turn", "")

		events = append(events, Event{
			Kind: EventTurnEnded,
			Payload: TurnEndedPayload{
				PlayerID:     playerID,
				NextPlayerID: g.CurrentPlayer().ID,
				CurrentRound: g.CurrentRound,
			},
		})

		if g.CurrentPlayerIndex == 0 {
			events = append(events, s.advanceRound(g)...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// advanceRound increments the round counter, restores resources whose lock
// elapsed, retires expired contractor cards, and checks the round limit.
func (s *Service) advanceRound(g *domain.Game) []Event {
	g.CurrentRound++

	payload := RoundAdvancedPayload{Round: g.CurrentRound}
	for _, p := range g.Players {
		for _, r := range append([]*domain.ResourceCard(nil), p.Unavailable...) {
			if r.UnavailableUntil <= g.CurrentRound {
				r.UnavailableUntil = 0
				p.RemoveUnavailable(r.ID)
				payload.RestoredResources = append(payload.RestoredResources, r.ID)
			}
		}

		for _, r := range p.HandResources() {
			if r.Contractor && r.ExpiresAtRound > 0 && g.CurrentRound > r.ExpiresAtRound && r.AssignedTo == "" {
				p.Hand, _ = domain.RemoveCardFromHand(p.Hand, r.ID)
				p.RemoveUnavailable(r.ID)
				g.DiscardPile = append(g.DiscardPile, r)
				payload.ExpiredResources = append(payload.ExpiredResources, r.ID)
			}
		}
	}

	events := []Event{{Kind: EventRoundAdvanced, Payload: payload}}
	if g.CurrentRound > g.MaxRounds {
		events = append(events, s.endGame(g, domain.EndReasonMaxRoundsReached))
	}
	return events
}

// endGame freezes the game and records final scores with the triggering reason.
func (s *Service) endGame(g *domain.Game, reason string) Event {
	g.Phase = domain.PhaseEnded
	g.EndReason = reason
	g.WinCondition = reason == domain.EndReasonAllFeaturesCompleted
	g.FinalScores = domain.CalculateFinalScores(g)
	g.RecordAction("", "end_game", reason)

	s.logger.Info("Game %s ended: %s", g.ID, reason)

	return Event{
		Kind: EventGameEnded,
		Payload: GameEndedPayload{
			Reason:       reason,
			WinCondition: g.WinCondition,
			FinalScores:  g.FinalScores,
			TeamScore:    domain.CalculateTeamScore(g),
			Leaderboard:  domain.Leaderboard(g),
		},
	}
}

// GameStats is the aggregate view returned to clients.
type GameStats struct {
	GameID            string                    `json:"game_id"`
	Phase             domain.Phase              `json:"phase"`
	CurrentRound      int                       `json:"current_round"`
	MaxRounds         int                       `json:"max_rounds"`
	CurrentPlayerID   string                    `json:"current_player_id"`
	DeckSize          int                       `json:"deck_size"`
	DiscardSize       int                       `json:"discard_size"`
	TotalFeatures     int                       `json:"total_features"`
	CompletedFeatures int                       `json:"completed_features"`
	TeamScore         domain.TeamScore          `json:"team_score"`
	ProjectedScore    int                       `json:"projected_score"`
	PlayerScores      []domain.PlayerScore      `json:"player_scores"`
	Leaderboard       []domain.LeaderboardEntry `json:"leaderboard"`
	LastAction        *domain.LastAction        `json:"last_action,omitempty"`
}

// GetStats aggregates the current game standing.
func (s *Service) GetStats(gameID string) (GameStats, error) {
	var stats GameStats
	err := s.store.WithGame(gameID, func(g *domain.Game) error {
		stats = GameStats{
			GameID:            g.ID,
			Phase:             g.Phase,
			CurrentRound:      g.CurrentRound,
			MaxRounds:         g.MaxRounds,
			DeckSize:          len(g.Deck),
			DiscardSize:       len(g.DiscardPile),
			TotalFeatures:     g.TotalFeatures(),
			CompletedFeatures: g.CompletedFeatures(),
			TeamScore:         domain.CalculateTeamScore(g),
			ProjectedScore:    domain.ProjectedTeamScore(g),
			Leaderboard:       domain.Leaderboard(g),
			LastAction:        g.LastAction,
		}
		if cur := g.CurrentPlayer(); cur != nil {
			stats.CurrentPlayerID = cur.ID
		}
		for _, p := range g.Players {
			stats.PlayerScores = append(stats.PlayerScores, domain.CalculatePlayerScore(g, p))
		}
		return nil
	})
	if err != nil {
		return GameStats{}, err
	}
	return stats, nil
}

// ensurePlaying rejects mutations outside the playing phase. Ended games
// fail uniformly with a game-over error.
func (s *Service) ensurePlaying(g *domain.Game) error {
	if g.Over() {
		return errGameOver(g)
	}
	if g.Phase != domain.PhasePlaying {
		return domain.NewError(domain.CodeWrongPhase, "game %s is not in the playing phase", g.ID)
	}
	return nil
}

// ensureTurn additionally requires that the actor is the current player.
func (s *Service) ensureTurn(g *domain.Game, playerID string) error {
	if err := s.ensurePlaying(g); err != nil {
		return err
	}
	if _, ok := g.Player(playerID); !ok {
		return domain.NewError(domain.CodePlayerNotFound, "player %s not in game", playerID)
	}
	if g.CurrentPlayer().ID != playerID {
		return domain.NewError(domain.CodeNotYourTurn, "it is not %s's turn", playerID)
	}
	return nil
}

func errGameOver(g *domain.Game) error {
	return domain.NewError(domain.CodeGameOver, "game %s is over", g.ID)
}

func playerIDs(players []*domain.Player) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}
