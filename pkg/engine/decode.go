package engine

import (
	"fmt"
	"sort"
	"strings"

	"elucidate/pkg/chess"
	"elucidate/pkg/errs"
)

// CandidateMove is one ranked line of an analysis.
type CandidateMove struct {
	Rank     int
	Move     string
	SAN      string
	Score    Score
	Bound    Bound
	Depth    int
	SelDepth int
	Nodes    int64
	NPS      int64
	PV       []string
	// PVSAN holds the principal variation in SAN up to the first move that does not replay.
	PVSAN []string
}

// DecodeError reports a line that was dropped while decoding.
type DecodeError struct {
	Rank int
	Err  error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Rank, e.Err)
}

func (e DecodeError) Unwrap() error { return e.Err }

// Decode turns raw "info" output of one search into ranked candidate moves. For every
// multipv slot only the deepest (latest on ties) scored update is kept; a slot whose kept
// update has no principal variation is discarded, as are slots above requested. Missing
// ranks are never synthesized. A slot whose first move cannot be played in pos is dropped
// and reported in the returned DecodeErrors. An info line that does not parse fails the
// whole decode with an EngineProtocolError.
func Decode(lines []string, pos chess.Position, requested int) ([]CandidateMove, []DecodeError, error) {
	slots := make(map[int]Info)
	for _, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "info") {
			continue
		}
		info, err := ParseInfo(line)
		if err != nil {
			return nil, nil, errs.Wrap(errs.EngineProtocolError, "unparseable engine output", err)
		}
		if info.Score == nil {
			continue
		}
		rank := info.MultiPV
		if rank == 0 {
			rank = 1
		}
		if requested > 0 && rank > requested {
			continue
		}
		if prev, ok := slots[rank]; ok && info.Depth < prev.Depth {
			continue
		}
		slots[rank] = info
	}

	ranks := make([]int, 0, len(slots))
	for rank := range slots {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)

	var out []CandidateMove
	var dropped []DecodeError
	for _, rank := range ranks {
		info := slots[rank]
		if len(info.PV) == 0 {
			continue
		}
		first, err := chess.ParseUCI(info.PV[0])
		if err != nil {
			dropped = append(dropped, DecodeError{Rank: rank, Err: err})
			continue
		}
		san, err := pos.SAN(first)
		if err != nil {
			dropped = append(dropped, DecodeError{Rank: rank, Err: err})
			continue
		}
		out = append(out, CandidateMove{
			Rank:     rank,
			Move:     info.PV[0],
			SAN:      san,
			Score:    info.Score,
			Bound:    info.Bound,
			Depth:    info.Depth,
			SelDepth: info.SelDepth,
			Nodes:    info.Nodes,
			NPS:      info.NPS,
			PV:       info.PV,
			PVSAN:    pvToSAN(pos, info.PV),
		})
	}
	return out, dropped, nil
}

func pvToSAN(pos chess.Position, pv []string) []string {
	out := make([]string, 0, len(pv))
	for _, text := range pv {
		m, err := chess.ParseUCI(text)
		if err != nil {
			break
		}
		san, err := pos.SAN(m)
		if err != nil {
			break
		}
		next, err := pos.Apply(m)
		if err != nil {
			break
		}
		out = append(out, san)
		pos = next
	}
	return out
}
