package chess

import "strings"

// MoveKind classifies a move.
type MoveKind int8

const (
	Normal MoveKind = iota
	Capture
	Castle
	EnPassant
	Promotion
	PromotionCapture
)

func (k MoveKind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Capture:
		return "capture"
	case Castle:
		return "castle"
	case EnPassant:
		return "en-passant"
	case Promotion:
		return "promotion"
	case PromotionCapture:
		return "promotion-capture"
	default:
		return "unknown"
	}
}

// IsCapture reports whether the kind removes an enemy piece.
func (k MoveKind) IsCapture() bool {
	return k == Capture || k == EnPassant || k == PromotionCapture
}

// Move is a move relative to the position it was generated from. Moves returned by
// ParseUCI carry Kind Normal until resolved against a position with Position.Resolve.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType
	Kind      MoveKind
}

const (
	sqA1 Square = 0
	sqC1 Square = 2
	sqD1 Square = 3
	sqE1 Square = 4
	sqF1 Square = 5
	sqG1 Square = 6
	sqH1 Square = 7
	sqA8 Square = 56
	sqC8 Square = 58
	sqD8 Square = 59
	sqE8 Square = 60
	sqF8 Square = 61
	sqG8 Square = 62
	sqH8 Square = 63
)

// UCI returns the coordinate form of the move, for example "e2e4" or "e7e8q".
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	switch m.Promotion {
	case Knight:
		s += "n"
	case Bishop:
		s += "b"
	case Rook:
		s += "r"
	case Queen:
		s += "q"
	}
	return s
}

func (m Move) String() string {
	return m.UCI()
}

// ParseUCI parses a four or five character coordinate move. The returned move is not
// checked against any position.
func ParseUCI(text string) (Move, error) {
	if len(text) != 4 && len(text) != 5 {
		return Move{}, malformed("uci move %q: expected 4 or 5 characters", text)
	}
	from, err := ParseSquare(text[0:2])
	if err != nil {
		return Move{}, malformed("uci move %q: bad from-square", text)
	}
	to, err := ParseSquare(text[2:4])
	if err != nil {
		return Move{}, malformed("uci move %q: bad to-square", text)
	}
	if from == to {
		return Move{}, malformed("uci move %q: null move", text)
	}
	m := Move{From: from, To: to}
	if len(text) == 5 {
		switch text[4] {
		case 'q':
			m.Promotion = Queen
		case 'r':
			m.Promotion = Rook
		case 'b':
			m.Promotion = Bishop
		case 'n':
			m.Promotion = Knight
		default:
			return Move{}, malformed("uci move %q: bad promotion piece", text)
		}
	}
	return m, nil
}

// Resolve finds the legal move in p matching m's squares and promotion piece and returns it
// with its kind filled in. A pawn reaching the last rank without a promotion piece is an
// illegal move, not an implicit queen.
func (p Position) Resolve(m Move) (Move, error) {
	for _, lm := range p.LegalMoves() {
		if lm.From == m.From && lm.To == m.To && lm.Promotion == m.Promotion {
			return lm, nil
		}
	}
	pc := p.board[m.From]
	if pc.Type == Pawn && m.Promotion == NoPieceType && (m.To.Rank() == 0 || m.To.Rank() == 7) {
		return Move{}, errsIllegal("%s: promotion piece required", m.UCI())
	}
	return Move{}, errsIllegal("%s is not legal in %s", m.UCI(), p.FEN())
}

// ApplyUCI parses a coordinate move and applies it.
func (p Position) ApplyUCI(text string) (Position, Move, error) {
	m, err := ParseUCI(strings.TrimSpace(text))
	if err != nil {
		return Position{}, Move{}, err
	}
	m, err = p.Resolve(m)
	if err != nil {
		return Position{}, Move{}, err
	}
	return p.play(m), m, nil
}
