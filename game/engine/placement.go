package engine

import "sort"

// bestPile returns the index of the pile the card must extend: among piles
// whose top is strictly below the card, the one minimizing card-top, lowest
// index on ties. ok is false when the card fits no pile (a blocking card).
func bestPile(piles [PileCount]Pile, c Card) (int, bool) {
	best := -1
	bestDiff := Card(DeckSize + 1)

	for i := 0; i < PileCount; i++ {
		top := piles[i].Top()
		if c > top {
			if diff := c - top; diff < bestDiff {
				bestDiff = diff
				best = i
			}
		}
	}

	if best < 0 {
		return 0, false
	}
	return best, true
}

// resolvePlacements is the pure placement resolver. It walks the round's
// selections in ascending card order, skipping cards already processed, and
// simulates placement on a copy of the piles so the caller's state is never
// touched. Processing stops at the first blocking card, which is reported
// but not consumed; cards above it stay unresolved.
func resolvePlacements(piles [PileCount]Pile, selections map[string]Card, processed map[Card]bool) []PlacementOutcome {
	owner := make(map[Card]string, len(selections))
	cards := make([]Card, 0, len(selections))
	for playerID, c := range selections {
		owner[c] = playerID
		cards = append(cards, c)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i] < cards[j] })

	// Work on copies: placements earlier in the batch change the tops and
	// lengths the later cards see.
	var work [PileCount]Pile
	for i := range piles {
		work[i] = append(Pile(nil), piles[i]...)
	}

	var outcomes []PlacementOutcome
	for _, c := range cards {
		if processed[c] {
			continue
		}
		playerID := owner[c]

		target, ok := bestPile(work, c)
		if !ok {
			outcomes = append(outcomes, PlacementOutcome{
				PlayerID: playerID,
				Card:     c,
				Action:   ActionPenaltyRequired,
			})
			break
		}

		if len(work[target]) == PileMaxLen {
			// 6th card: the player takes the 5 cards beneath it and the
			// placed card starts the pile over.
			taken := append([]Card(nil), work[target]...)
			work[target] = Pile{c}
			outcomes = append(outcomes, PlacementOutcome{
				PlayerID:      playerID,
				Card:          c,
				Action:        ActionTookPile,
				Pile:          target,
				PenaltyPoints: Pile(taken).Points(),
				TakenCards:    taken,
			})
			continue
		}

		work[target] = append(work[target], c)
		outcomes = append(outcomes, PlacementOutcome{
			PlayerID: playerID,
			Card:     c,
			Action:   ActionPlaced,
			Pile:     target,
		})
	}

	return outcomes
}
