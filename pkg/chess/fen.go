package chess

import (
	"strconv"
	"strings"

	"elucidate/pkg/errs"
)

var fenPieces = map[byte]Piece{
	'P': {Pawn, White}, 'N': {Knight, White}, 'B': {Bishop, White},
	'R': {Rook, White}, 'Q': {Queen, White}, 'K': {King, White},
	'p': {Pawn, Black}, 'n': {Knight, Black}, 'b': {Bishop, Black},
	'r': {Rook, Black}, 'q': {Queen, Black}, 'k': {King, Black},
}

func malformed(format string, args ...any) error {
	return errs.Newf(errs.MalformedRecord, format, args...)
}

// ParseFEN parses a FEN string. The halfmove clock and fullmove number may be omitted, in
// which case they default to 0 and 1.
//
// Castling rights whose king or rook is not on its home square are dropped, so the returned
// position may serialize to a slightly different (canonical) FEN.
func ParseFEN(fen string) (Position, error) {
	fields := strings.Fields(fen)
	if len(fields) != 4 && len(fields) != 6 {
		return Position{}, malformed("fen: expected 6 fields, got %d", len(fields))
	}
	var pos Position

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return Position{}, malformed("fen: expected 8 ranks, got %d", len(ranks))
	}
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for j := 0; j < len(row); j++ {
			c := row[j]
			switch {
			case c >= '1' && c <= '8':
				file += int(c - '0')
			default:
				pc, ok := fenPieces[c]
				if !ok {
					return Position{}, malformed("fen: invalid piece %q in rank %d", c, rank+1)
				}
				if file > 7 {
					return Position{}, malformed("fen: rank %d has more than 8 files", rank+1)
				}
				pos.board[NewSquare(file, rank)] = pc
				file++
			}
			if file > 8 {
				return Position{}, malformed("fen: rank %d has more than 8 files", rank+1)
			}
		}
		if file != 8 {
			return Position{}, malformed("fen: rank %d has %d files", rank+1, file)
		}
	}

	switch fields[1] {
	case "w":
		pos.turn = White
	case "b":
		pos.turn = Black
	default:
		return Position{}, malformed("fen: invalid side to move %q", fields[1])
	}

	if fields[2] != "-" {
		for i := 0; i < len(fields[2]); i++ {
			var r CastlingRights
			switch fields[2][i] {
			case 'K':
				r = WhiteKingside
			case 'Q':
				r = WhiteQueenside
			case 'k':
				r = BlackKingside
			case 'q':
				r = BlackQueenside
			default:
				return Position{}, malformed("fen: invalid castling field %q", fields[2])
			}
			if pos.castling.Has(r) {
				return Position{}, malformed("fen: repeated castling right in %q", fields[2])
			}
			pos.castling |= r
		}
	}

	pos.ep = NoSquare
	if fields[3] != "-" {
		sq, err := ParseSquare(fields[3])
		if err != nil {
			return Position{}, malformed("fen: invalid en-passant square %q", fields[3])
		}
		want := 5
		if pos.turn == Black {
			want = 2
		}
		if sq.Rank() != want {
			return Position{}, malformed("fen: en-passant square %s not on the expected rank", sq)
		}
		pos.ep = sq
	}

	pos.fullmove = 1
	if len(fields) == 6 {
		half, err := strconv.Atoi(fields[4])
		if err != nil || half < 0 {
			return Position{}, malformed("fen: invalid halfmove clock %q", fields[4])
		}
		full, err := strconv.Atoi(fields[5])
		if err != nil || full < 1 {
			return Position{}, malformed("fen: invalid fullmove number %q", fields[5])
		}
		pos.halfmove = half
		pos.fullmove = full
	}

	if err := pos.checkMaterial(); err != nil {
		return Position{}, err
	}
	if king := pos.kingSquare(pos.turn.Other()); pos.IsAttacked(king, pos.turn) {
		return Position{}, malformed("fen: %s king on %s is in check with %s to move", pos.turn.Other(), king, pos.turn)
	}
	pos.castling &= pos.castlingAvailable()
	if !pos.epCapturable() {
		pos.ep = NoSquare
	}
	return pos, nil
}

// epCapturable reports whether the en-passant square can stand: the square and the one the
// pawn left are empty and the pawn that just advanced two squares is behind it.
func (p Position) epCapturable() bool {
	if p.ep == NoSquare {
		return true
	}
	pushed, origin := p.ep.Rank()-1, p.ep.Rank()+1
	if p.turn == Black {
		pushed, origin = p.ep.Rank()+1, p.ep.Rank()-1
	}
	f := p.ep.File()
	return p.board[p.ep].IsEmpty() &&
		p.board[NewSquare(f, origin)].IsEmpty() &&
		p.board[NewSquare(f, pushed)] == (Piece{Pawn, p.turn.Other()})
}

func (p Position) checkMaterial() error {
	var kings [2]int
	for sq := Square(0); sq < 64; sq++ {
		pc := p.board[sq]
		switch pc.Type {
		case King:
			kings[pc.Color]++
		case Pawn:
			if r := sq.Rank(); r == 0 || r == 7 {
				return malformed("fen: pawn on back rank %s", sq)
			}
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return malformed("fen: need exactly one king per side, got %d white and %d black", kings[White], kings[Black])
	}
	return nil
}

// castlingAvailable returns the rights whose king and rook still stand on their home squares.
func (p Position) castlingAvailable() CastlingRights {
	var r CastlingRights
	wk := p.board[sqE1] == (Piece{King, White})
	bk := p.board[sqE8] == (Piece{King, Black})
	if wk && p.board[sqH1] == (Piece{Rook, White}) {
		r |= WhiteKingside
	}
	if wk && p.board[sqA1] == (Piece{Rook, White}) {
		r |= WhiteQueenside
	}
	if bk && p.board[sqH8] == (Piece{Rook, Black}) {
		r |= BlackKingside
	}
	if bk && p.board[sqA8] == (Piece{Rook, Black}) {
		r |= BlackQueenside
	}
	return r
}

// FEN serializes the position.
func (p Position) FEN() string {
	var b strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.board[NewSquare(file, rank)]
			if pc.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteByte(byte('0' + empty))
				empty = 0
			}
			b.WriteByte(pieceChar(pc))
		}
		if empty > 0 {
			b.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			b.WriteByte('/')
		}
	}
	if p.turn == White {
		b.WriteString(" w ")
	} else {
		b.WriteString(" b ")
	}
	if p.castling == 0 {
		b.WriteByte('-')
	} else {
		for _, c := range []struct {
			r  CastlingRights
			ch byte
		}{{WhiteKingside, 'K'}, {WhiteQueenside, 'Q'}, {BlackKingside, 'k'}, {BlackQueenside, 'q'}} {
			if p.castling.Has(c.r) {
				b.WriteByte(c.ch)
			}
		}
	}
	b.WriteByte(' ')
	b.WriteString(p.ep.String())
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(p.halfmove))
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(p.fullmove))
	return b.String()
}

func (p Position) String() string {
	return p.FEN()
}

func pieceChar(pc Piece) byte {
	var c byte
	switch pc.Type {
	case Pawn:
		c = 'p'
	case Knight:
		c = 'n'
	case Bishop:
		c = 'b'
	case Rook:
		c = 'r'
	case Queen:
		c = 'q'
	case King:
		c = 'k'
	default:
		return '.'
	}
	if pc.Color == White {
		c -= 'a' - 'A'
	}
	return c
}
