// Package grouper buckets parsed picks into opposing consensus camps.
package grouper

import (
	"sort"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/sideparse"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
)

// Result carries the emitted groups plus counts of picks the grouper had to
// drop. Dropped picks are invisible to consensus - they neither agree nor
// disagree with anyone.
type Result struct {
	Groups        []models.ConsensusGroup
	UnknownSides  int // Selections that failed to parse
	InvalidMarket int // Market keys that resolve to no market type
}

// bucket is a provisional group before pairing
type bucket struct {
	key      string
	gameID   string
	sportKey string
	side     models.CanonicalSide
	picks    []models.Pick
}

// DedupLatest keeps only the most recent pending pick per (capper, game,
// market type). The feed does not guard against a capper submitting twice, so
// the engine takes the newest opinion and drops the rest. Sub-variant keys
// like "total" and "total_under" resolve to the same market and collapse
// together; unresolvable keys dedup on the raw key so distinct invalid
// submissions each still count as a parse error.
func DedupLatest(picks []models.Pick) []models.Pick {
	type dedupKey struct {
		capperID string
		gameID   string
		market   string
	}

	latest := make(map[dedupKey]models.Pick, len(picks))
	for _, p := range picks {
		market := "raw:" + p.MarketKey
		if resolved, err := sideparse.ResolveMarketKey(p.MarketKey); err == nil {
			market = string(resolved)
		}

		k := dedupKey{p.CapperID, p.GameID, market}
		existing, ok := latest[k]
		if !ok || p.CreatedAt.After(existing.CreatedAt) {
			latest[k] = p
		}
	}

	deduped := make([]models.Pick, 0, len(latest))
	for _, p := range latest {
		deduped = append(deduped, p)
	}

	// Stable order regardless of map iteration
	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].CapperID != deduped[j].CapperID {
			return deduped[i].CapperID < deduped[j].CapperID
		}
		if deduped[i].GameID != deduped[j].GameID {
			return deduped[i].GameID < deduped[j].GameID
		}
		return deduped[i].MarketKey < deduped[j].MarketKey
	})

	return deduped
}

// GroupAndPair filters picks to one market type, parses each selection into a
// canonical side, buckets by (game, side), and pairs each bucket against its
// opposing camp. Pairing is symmetric: both camps are emitted, each holding
// its own picks as agreeing and the opposing camp's picks as disagreeing, and
// the pair is consumed together so one (game, market) pairing is never
// processed twice. A bucket with no opposition is emitted with an empty
// disagreeing list - a clean, unopposed consensus.
func GroupAndPair(picks []models.Pick, market models.MarketType) Result {
	var res Result

	buckets := make(map[string]*bucket)
	var order []string

	for _, p := range picks {
		resolved, err := sideparse.ResolveMarketKey(p.MarketKey)
		if err != nil {
			res.InvalidMarket++
			continue
		}
		if resolved != market {
			continue
		}

		side := sideparse.ParseSide(p.Selection, market)
		if side.IsUnknown() {
			res.UnknownSides++
			continue
		}

		key := p.GameID + "|" + string(market) + "|" + side.Key()
		b, ok := buckets[key]
		if !ok {
			b = &bucket{
				key:      key,
				gameID:   p.GameID,
				sportKey: p.SportKey,
				side:     side,
			}
			buckets[key] = b
			order = append(order, key)
		}
		b.picks = append(b.picks, p)
	}

	// Deterministic pairing order
	sort.Strings(order)

	consumed := make(map[string]bool, len(buckets))
	for _, key := range order {
		if consumed[key] {
			continue
		}

		b := buckets[key]
		group := models.ConsensusGroup{
			GameID:   b.gameID,
			SportKey: b.sportKey,
			Market:   market,
			Side:     b.side,
			Agreeing: b.picks,
		}
		consumed[key] = true

		opp := findOpposing(buckets, b, market, consumed)
		if opp != nil {
			group.Disagreeing = opp.picks
			consumed[opp.key] = true
		}

		res.Groups = append(res.Groups, group)

		if opp != nil {
			res.Groups = append(res.Groups, models.ConsensusGroup{
				GameID:      opp.gameID,
				SportKey:    opp.sportKey,
				Market:      market,
				Side:        opp.side,
				Agreeing:    opp.picks,
				Disagreeing: b.picks,
			})
		}
	}

	return res
}

// findOpposing locates the opposing bucket for a group.
// Totals oppose on the complementary OVER/UNDER tag for the same game;
// spreads and moneylines oppose any other side for the same (game, market).
func findOpposing(buckets map[string]*bucket, b *bucket, market models.MarketType, consumed map[string]bool) *bucket {
	if market == models.MarketTotal {
		opposite := models.TotalUnder
		if b.side.OverUnder == models.TotalUnder {
			opposite = models.TotalOver
		}
		key := b.gameID + "|" + string(market) + "|" + opposite
		if opp, ok := buckets[key]; ok && !consumed[key] {
			return opp
		}
		return nil
	}

	// Sorted scan keeps the choice deterministic when more than two sides exist
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		opp := buckets[key]
		if opp.key == b.key || consumed[opp.key] {
			continue
		}
		if opp.gameID == b.gameID && opp.side.Key() != b.side.Key() {
			return opp
		}
	}

	return nil
}
