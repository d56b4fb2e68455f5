package app

import (
	"fmt"

	"shipit/internal/domain"

	"github.com/google/uuid"
)

// contractorTenureRounds is how many rounds a contractor stays on the team
// after the onboarding lock elapses.
const contractorTenureRounds = 3

// applyEventEffect runs the lifecycle for a freshly drawn event card:
// trigger, remove from the drawer's hand, dispatch by type, resolve, and
// retire the card to the discard pile.
func (s *Service) applyEventEffect(g *domain.Game, player *domain.Player, card *domain.EventCard) ([]Event, error) {
	if err := card.Trigger(); err != nil {
		return nil, err
	}
	player.Hand, _ = domain.RemoveCardFromHand(player.Hand, card.ID)

	var (
		detail EffectDetail
		err    error
	)
	switch effect := card.Effect.(type) {
	case domain.LayoffEffect:
		detail = s.applyLayoff(g, player, effect)
	case domain.LeaveEffect:
		detail = s.applyLeave(g, player, effect)
	case domain.CompetitionEffect:
		detail = s.applyCompetition(g, effect)
	case domain.BonusEffect:
		detail = s.applyBonus(g, player, effect)
	case domain.ReorgEffect:
		detail = s.applyReorg(g)
	case domain.ContractorEffect:
		detail = s.applyContractor(g, player, effect)
	default:
		err = domain.NewError(domain.CodeInvalidEventEffect, "event %s has unknown effect type %q", card.ID, card.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := card.Resolve(); err != nil {
		return nil, err
	}
	g.DiscardPile = append(g.DiscardPile, card)
	s.logger.Debug("Event %s (%s) resolved for player %s", card.ID, card.Type, player.ID)

	return []Event{{
		Kind: EventEffectResolved,
		Payload: EffectResolvedPayload{
			PlayerID: player.ID,
			EventID:  card.ID,
			Type:     card.Type,
			Detail:   detail,
		},
	}}, nil
}

// applyLayoff discards up to Count random unassigned resources from the
// drawing player's hand.
func (s *Service) applyLayoff(g *domain.Game, player *domain.Player, effect domain.LayoffEffect) EffectDetail {
	var candidates []*domain.ResourceCard
	for _, r := range player.HandResources() {
		if r.AssignedTo == "" {
			candidates = append(candidates, r)
		}
	}

	var detail EffectDetail
	for _, r := range s.pickResources(candidates, effect.Count) {
		player.Hand, _ = domain.RemoveCardFromHand(player.Hand, r.ID)
		player.RemoveUnavailable(r.ID)
		g.DiscardPile = append(g.DiscardPile, r)
		detail.DiscardedResources = append(detail.DiscardedResources, r.ID)
	}
	return detail
}

// applyLeave locks up to Count unassigned, available resources until the
// duration elapses. The drawing player's hand is preferred; when it has no
// eligible card, the pick falls back to every player's hand.
func (s *Service) applyLeave(g *domain.Game, player *domain.Player, effect domain.LeaveEffect) EffectDetail {
	count := effect.Count
	if count <= 0 {
		count = 1
	}

	eligible := func(r *domain.ResourceCard) bool {
		return r.AssignedTo == "" && r.AvailableIn(g.CurrentRound)
	}

	var candidates []*domain.ResourceCard
	for _, r := range player.HandResources() {
		if eligible(r) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		for _, p := range g.Players {
			for _, r := range p.HandResources() {
				if eligible(r) {
					candidates = append(candidates, r)
				}
			}
		}
	}

	until := g.CurrentRound + effect.Duration
	detail := EffectDetail{UnavailableUntil: until}
	for _, r := range s.pickResources(candidates, count) {
		r.UnavailableUntil = until
		if holder, ok := g.HolderOf(r.ID); ok {
			holder.Unavailable = append(holder.Unavailable, r)
		}
		detail.LockedResources = append(detail.LockedResources, r.ID)
	}
	return detail
}

// applyCompetition either stamps a deadline on every incomplete feature in
// play or permanently escalates one role's requirement on them. The two
// branches are mutually exclusive, selected by the effect's action.
func (s *Service) applyCompetition(g *domain.Game, effect domain.CompetitionEffect) EffectDetail {
	var detail EffectDetail

	if effect.Action == domain.ActionDeadlinePressure {
		deadline := g.CurrentRound + effect.Rounds
		for _, f := range g.FeaturesInPlay {
			if f.Completed {
				continue
			}
			f.DeadlineRound = deadline
			f.DeadlineBonus = effect.BonusPoints
			f.DeadlinePenalty = effect.FailurePenalty
			detail.StampedFeatures = append(detail.StampedFeatures, f.ID)
		}
		return detail
	}

	additional := effect.Additional
	if additional <= 0 {
		additional = 1
	}
	for _, f := range g.FeaturesInPlay {
		if f.Completed {
			continue
		}
		f.Requirements[effect.Role] += additional
		detail.StampedFeatures = append(detail.StampedFeatures, f.ID)
	}
	detail.EscalatedRole = string(effect.Role)
	return detail
}

// applyBonus draws up to Count random resource cards from the deck into
// the drawing player's hand, bounded by the hand cap and deck contents.
func (s *Service) applyBonus(g *domain.Game, player *domain.Player, effect domain.BonusEffect) EffectDetail {
	var detail EffectDetail
	for drawn := 0; drawn < effect.Count && len(player.Hand) < domain.HandLimit; drawn++ {
		var indices []int
		for i, card := range g.Deck {
			if _, ok := card.(*domain.ResourceCard); ok {
				indices = append(indices, i)
			}
		}
		if len(indices) == 0 {
			break
		}

		idx := indices[s.rng.Intn(len(indices))]
		resource := g.Deck[idx].(*domain.ResourceCard)
		g.Deck = append(g.Deck[:idx], g.Deck[idx+1:]...)
		player.Hand = append(player.Hand, resource)
		detail.DrawnResources = append(detail.DrawnResources, resource.ID)
	}
	return detail
}

// applyReorg flattens every hand into one pool, shuffles it, and deals the
// cards back preserving each player's original hand size. Unavailability
// indexes are rebuilt because locked cards may change hands.
func (s *Service) applyReorg(g *domain.Game) EffectDetail {
	var pool []domain.Card
	sizes := make([]int, len(g.Players))
	for i, p := range g.Players {
		sizes[i] = len(p.Hand)
		pool = append(pool, p.Hand...)
	}

	shuffled := domain.ShuffleDeck(s.rng, pool)

	cursor := 0
	for i, p := range g.Players {
		p.Hand = append([]domain.Card(nil), shuffled[cursor:cursor+sizes[i]]...)
		cursor += sizes[i]

		p.Unavailable = nil
		for _, r := range p.HandResources() {
			if !r.AvailableIn(g.CurrentRound) {
				p.Unavailable = append(p.Unavailable, r)
			}
		}
	}

	return EffectDetail{ReassignedHands: true}
}

// applyContractor synthesizes a temporary wildcard resource in the drawing
// player's hand, locked until the onboarding duration elapses. A full hand
// skips the hire.
func (s *Service) applyContractor(g *domain.Game, player *domain.Player, effect domain.ContractorEffect) EffectDetail {
	if len(player.Hand) >= domain.HandLimit {
		return EffectDetail{}
	}

	role := effect.Role
	if role == "" {
		role = domain.RoleDev
	}
	level := effect.Level
	if level == "" {
		level = domain.LevelSenior
	}
	duration := effect.Duration
	if duration <= 0 {
		duration = 1
	}

	contractor := &domain.ResourceCard{
		ID:               fmt.Sprintf("contractor-%s", uuid.NewString()),
		Role:             role,
		Level:            level,
		UnavailableUntil: g.CurrentRound + duration,
		ExpiresAtRound:   g.CurrentRound + duration + contractorTenureRounds,
		Contractor:       true,
	}
	player.Hand = append(player.Hand, contractor)
	player.Unavailable = append(player.Unavailable, contractor)

	return EffectDetail{ContractorID: contractor.ID}
}

// pickResources selects up to n distinct candidates uniformly at random
// through the service rng.
func (s *Service) pickResources(candidates []*domain.ResourceCard, n int) []*domain.ResourceCard {
	if n >= len(candidates) {
		n = len(candidates)
	}
	if n <= 0 {
		return nil
	}

	picked := make([]*domain.ResourceCard, 0, n)
	for _, idx := range s.rng.Perm(len(candidates))[:n] {
		picked = append(picked, candidates[idx])
	}
	return picked
}
