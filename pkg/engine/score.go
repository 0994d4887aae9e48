package engine

import "fmt"

// Score is an engine evaluation from the point of view of the side to move. It is either
// Centipawns or MateIn.
type Score interface {
	isScore()
	String() string
}

// Centipawns is a material-scale evaluation in hundredths of a pawn.
type Centipawns int

// MateIn is a forced mate distance in moves. Negative values mean the side to move is being
// mated.
type MateIn int

func (Centipawns) isScore() {}
func (MateIn) isScore()     {}

func (c Centipawns) String() string { return fmt.Sprintf("cp %d", int(c)) }
func (m MateIn) String() string     { return fmt.Sprintf("mate %d", int(m)) }

// ScoreParts splits a score into a kind ("cp" or "mate") and its value, for flat storage.
func ScoreParts(s Score) (string, int) {
	switch v := s.(type) {
	case Centipawns:
		return "cp", int(v)
	case MateIn:
		return "mate", int(v)
	default:
		return "", 0
	}
}

// ScoreFromParts is the inverse of ScoreParts.
func ScoreFromParts(kind string, value int) (Score, error) {
	switch kind {
	case "cp":
		return Centipawns(value), nil
	case "mate":
		return MateIn(value), nil
	default:
		return nil, fmt.Errorf("unknown score kind %q", kind)
	}
}

// Bound qualifies a score reported before the search window settled.
type Bound int8

const (
	Exact Bound = iota
	LowerBound
	UpperBound
)

func (b Bound) String() string {
	switch b {
	case LowerBound:
		return "lowerbound"
	case UpperBound:
		return "upperbound"
	default:
		return "exact"
	}
}
