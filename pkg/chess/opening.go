package chess

// DefaultOpeningMoves is the number of plies OpeningLine looks at by default.
const DefaultOpeningMoves = 15

// Opening is the start of a game replayed from the standard position.
type Opening struct {
	MovesSAN  []string
	FEN       string
	MoveCount int
}

// OpeningLine replays up to maxMoves UCI moves from the standard position and stops at the
// first move that does not parse or is not legal.
func OpeningLine(movesUCI []string, maxMoves int) Opening {
	if maxMoves <= 0 {
		maxMoves = DefaultOpeningMoves
	}
	if len(movesUCI) > maxMoves {
		movesUCI = movesUCI[:maxMoves]
	}
	pos := StartPosition()
	san := make([]string, 0, len(movesUCI))
	for _, text := range movesUCI {
		next, m, err := pos.ApplyUCI(text)
		if err != nil {
			break
		}
		san = append(san, pos.san(m))
		pos = next
	}
	return Opening{MovesSAN: san, FEN: pos.FEN(), MoveCount: len(san)}
}
