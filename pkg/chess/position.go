// Package chess implements the rules of chess, FEN/SAN/UCI codecs and the PGN game-record
// parser and exporter.
//
// Positions are plain values. Applying a move returns a new Position and never mutates the
// receiver, so positions can be shared freely between goroutines.
package chess

import "fmt"

// Color is the side a piece belongs to.
type Color int8

const (
	White Color = iota
	Black
)

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// PieceType is the kind of a piece regardless of color.
type PieceType int8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// Letter returns the upper-case SAN letter of the piece type. Pawns have no letter.
func (t PieceType) Letter() string {
	switch t {
	case Knight:
		return "N"
	case Bishop:
		return "B"
	case Rook:
		return "R"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return ""
	}
}

// Piece is a colored piece. The zero value is an empty square.
type Piece struct {
	Type  PieceType
	Color Color
}

// NoPiece is the empty square.
var NoPiece = Piece{}

// IsEmpty reports whether the square holds no piece.
func (p Piece) IsEmpty() bool {
	return p.Type == NoPieceType
}

// Square is a board index 0..63, a1 = 0, h1 = 7, a8 = 56.
type Square int8

// NoSquare marks an absent square (for example no en-passant target).
const NoSquare Square = -1

// NewSquare returns the square for zero-based file and rank.
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// File returns the zero-based file (a = 0).
func (s Square) File() int {
	return int(s) % 8
}

// Rank returns the zero-based rank (1st rank = 0).
func (s Square) Rank() int {
	return int(s) / 8
}

func (s Square) String() string {
	if s < 0 || s > 63 {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+s.File(), '1'+s.Rank())
}

// ParseSquare parses algebraic coordinates such as "e4".
func ParseSquare(text string) (Square, error) {
	if len(text) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %q", text)
	}
	file := int(text[0]) - 'a'
	rank := int(text[1]) - '1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("invalid square: %q", text)
	}
	return NewSquare(file, rank), nil
}

// CastlingRights is a bit set of the four castling options.
type CastlingRights uint8

const (
	WhiteKingside CastlingRights = 1 << iota
	WhiteQueenside
	BlackKingside
	BlackQueenside
)

// Has reports whether all rights in r are present.
func (c CastlingRights) Has(r CastlingRights) bool {
	return c&r == r
}

// Position is a complete chess position.
type Position struct {
	board    [64]Piece
	turn     Color
	castling CastlingRights
	ep       Square
	halfmove int
	fullmove int
}

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var startPosition = mustParseFEN(StartFEN)

// StartPosition returns the standard initial position.
func StartPosition() Position {
	return startPosition
}

func mustParseFEN(fen string) Position {
	pos, err := ParseFEN(fen)
	if err != nil {
		panic(err)
	}
	return pos
}

// PieceAt returns the piece on s.
func (p Position) PieceAt(s Square) Piece {
	if s < 0 || s > 63 {
		return NoPiece
	}
	return p.board[s]
}

// Turn returns the side to move.
func (p Position) Turn() Color { return p.turn }

// Castling returns the remaining castling rights.
func (p Position) Castling() CastlingRights { return p.castling }

// EnPassant returns the en-passant target square or NoSquare.
func (p Position) EnPassant() Square { return p.ep }

// HalfmoveClock returns the number of plies since the last capture or pawn move.
func (p Position) HalfmoveClock() int { return p.halfmove }

// FullmoveNumber returns the move number, incremented after each Black move.
func (p Position) FullmoveNumber() int { return p.fullmove }

func (p Position) kingSquare(c Color) Square {
	for sq := Square(0); sq < 64; sq++ {
		if pc := p.board[sq]; pc.Type == King && pc.Color == c {
			return sq
		}
	}
	return NoSquare
}
