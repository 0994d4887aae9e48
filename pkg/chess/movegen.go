package chess

import "elucidate/pkg/errs"

var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookDirs    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs  = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

var promotionPieces = [4]PieceType{Queen, Rook, Bishop, Knight}

// castleMask[sq] holds the rights that survive a move touching sq.
var castleMask [64]CastlingRights

func init() {
	for i := range castleMask {
		castleMask[i] = WhiteKingside | WhiteQueenside | BlackKingside | BlackQueenside
	}
	castleMask[sqE1] &^= WhiteKingside | WhiteQueenside
	castleMask[sqH1] &^= WhiteKingside
	castleMask[sqA1] &^= WhiteQueenside
	castleMask[sqE8] &^= BlackKingside | BlackQueenside
	castleMask[sqH8] &^= BlackKingside
	castleMask[sqA8] &^= BlackQueenside
}

func errsIllegal(format string, args ...any) error {
	return errs.Newf(errs.IllegalMove, format, args...)
}

func offset(sq Square, df, dr int) (Square, bool) {
	f, r := sq.File()+df, sq.Rank()+dr
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return NoSquare, false
	}
	return NewSquare(f, r), true
}

// IsAttacked reports whether any piece of color by attacks sq.
func (p Position) IsAttacked(sq Square, by Color) bool {
	// pawns attack diagonally forward, so look backwards from sq
	dr := -1
	if by == Black {
		dr = 1
	}
	for _, df := range [2]int{-1, 1} {
		if s, ok := offset(sq, df, dr); ok && p.board[s] == (Piece{Pawn, by}) {
			return true
		}
	}
	for _, st := range knightSteps {
		if s, ok := offset(sq, st[0], st[1]); ok && p.board[s] == (Piece{Knight, by}) {
			return true
		}
	}
	for _, st := range kingSteps {
		if s, ok := offset(sq, st[0], st[1]); ok && p.board[s] == (Piece{King, by}) {
			return true
		}
	}
	if p.slidingAttack(sq, by, rookDirs[:], Rook) || p.slidingAttack(sq, by, bishopDirs[:], Bishop) {
		return true
	}
	return false
}

func (p Position) slidingAttack(sq Square, by Color, dirs [][2]int, slider PieceType) bool {
	for _, d := range dirs {
		s := sq
		for {
			var ok bool
			s, ok = offset(s, d[0], d[1])
			if !ok {
				break
			}
			pc := p.board[s]
			if pc.IsEmpty() {
				continue
			}
			if pc.Color == by && (pc.Type == slider || pc.Type == Queen) {
				return true
			}
			break
		}
	}
	return false
}

// InCheck reports whether the side to move is in check.
func (p Position) InCheck() bool {
	k := p.kingSquare(p.turn)
	return k != NoSquare && p.IsAttacked(k, p.turn.Other())
}

// LegalMoves returns every legal move in the position, in generation order.
func (p Position) LegalMoves() []Move {
	pseudo := p.pseudoMoves()
	legal := pseudo[:0]
	for _, m := range pseudo {
		next := p.play(m)
		k := next.kingSquare(p.turn)
		if k != NoSquare && next.IsAttacked(k, p.turn.Other()) {
			continue
		}
		legal = append(legal, m)
	}
	return legal
}

func (p Position) hasLegalMove() bool {
	for _, m := range p.pseudoMoves() {
		next := p.play(m)
		if !next.IsAttacked(next.kingSquare(p.turn), p.turn.Other()) {
			return true
		}
	}
	return false
}

func (p Position) pseudoMoves() []Move {
	moves := make([]Move, 0, 48)
	us := p.turn
	for from := Square(0); from < 64; from++ {
		pc := p.board[from]
		if pc.IsEmpty() || pc.Color != us {
			continue
		}
		switch pc.Type {
		case Pawn:
			moves = p.pawnMoves(moves, from)
		case Knight:
			moves = p.stepMoves(moves, from, knightSteps[:])
		case King:
			moves = p.stepMoves(moves, from, kingSteps[:])
			moves = p.castleMoves(moves, from)
		case Bishop:
			moves = p.slideMoves(moves, from, bishopDirs[:])
		case Rook:
			moves = p.slideMoves(moves, from, rookDirs[:])
		case Queen:
			moves = p.slideMoves(moves, from, bishopDirs[:])
			moves = p.slideMoves(moves, from, rookDirs[:])
		}
	}
	return moves
}

func (p Position) pawnMoves(moves []Move, from Square) []Move {
	us := p.turn
	dir, startRank, lastRank := 1, 1, 7
	if us == Black {
		dir, startRank, lastRank = -1, 6, 0
	}
	addPawn := func(to Square, capture bool) {
		if to.Rank() == lastRank {
			kind := Promotion
			if capture {
				kind = PromotionCapture
			}
			for _, promo := range promotionPieces {
				moves = append(moves, Move{From: from, To: to, Promotion: promo, Kind: kind})
			}
			return
		}
		kind := Normal
		if capture {
			kind = Capture
		}
		moves = append(moves, Move{From: from, To: to, Kind: kind})
	}

	if one, ok := offset(from, 0, dir); ok && p.board[one].IsEmpty() {
		addPawn(one, false)
		if from.Rank() == startRank {
			if two, ok := offset(from, 0, 2*dir); ok && p.board[two].IsEmpty() {
				moves = append(moves, Move{From: from, To: two, Kind: Normal})
			}
		}
	}
	for _, df := range [2]int{-1, 1} {
		to, ok := offset(from, df, dir)
		if !ok {
			continue
		}
		target := p.board[to]
		if !target.IsEmpty() && target.Color != us {
			addPawn(to, true)
		} else if to == p.ep && target.IsEmpty() && p.board[NewSquare(to.File(), from.Rank())] == (Piece{Pawn, us.Other()}) {
			moves = append(moves, Move{From: from, To: to, Kind: EnPassant})
		}
	}
	return moves
}

func (p Position) stepMoves(moves []Move, from Square, steps [][2]int) []Move {
	for _, st := range steps {
		to, ok := offset(from, st[0], st[1])
		if !ok {
			continue
		}
		target := p.board[to]
		switch {
		case target.IsEmpty():
			moves = append(moves, Move{From: from, To: to, Kind: Normal})
		case target.Color != p.turn:
			moves = append(moves, Move{From: from, To: to, Kind: Capture})
		}
	}
	return moves
}

func (p Position) slideMoves(moves []Move, from Square, dirs [][2]int) []Move {
	for _, d := range dirs {
		to := from
		for {
			var ok bool
			to, ok = offset(to, d[0], d[1])
			if !ok {
				break
			}
			target := p.board[to]
			if target.IsEmpty() {
				moves = append(moves, Move{From: from, To: to, Kind: Normal})
				continue
			}
			if target.Color != p.turn {
				moves = append(moves, Move{From: from, To: to, Kind: Capture})
			}
			break
		}
	}
	return moves
}

func (p Position) castleMoves(moves []Move, from Square) []Move {
	type wing struct {
		right      CastlingRights
		king, to   Square
		empty      []Square
		kingPasses []Square
	}
	var wings [2]wing
	if p.turn == White {
		wings = [2]wing{
			{WhiteKingside, sqE1, sqG1, []Square{sqF1, sqG1}, []Square{sqF1, sqG1}},
			{WhiteQueenside, sqE1, sqC1, []Square{sqD1, sqC1, sqA1 + 1}, []Square{sqD1, sqC1}},
		}
	} else {
		wings = [2]wing{
			{BlackKingside, sqE8, sqG8, []Square{sqF8, sqG8}, []Square{sqF8, sqG8}},
			{BlackQueenside, sqE8, sqC8, []Square{sqD8, sqC8, sqA8 + 1}, []Square{sqD8, sqC8}},
		}
	}
	them := p.turn.Other()
	for _, w := range wings {
		if from != w.king || !p.castling.Has(w.right) {
			continue
		}
		vacant := true
		for _, s := range w.empty {
			if !p.board[s].IsEmpty() {
				vacant = false
				break
			}
		}
		if !vacant || p.IsAttacked(from, them) {
			continue
		}
		safe := true
		for _, s := range w.kingPasses {
			if p.IsAttacked(s, them) {
				safe = false
				break
			}
		}
		if safe {
			moves = append(moves, Move{From: from, To: w.to, Kind: Castle})
		}
	}
	return moves
}

// Apply plays m and returns the resulting position. m must be one of LegalMoves(); only its
// squares and promotion piece are compared, so a Move built by hand or by ParseUCI is accepted.
func (p Position) Apply(m Move) (Position, error) {
	lm, err := p.Resolve(m)
	if err != nil {
		return Position{}, err
	}
	return p.play(lm), nil
}

// play applies a pseudo-legal move without checking legality.
func (p Position) play(m Move) Position {
	next := p
	pc := next.board[m.From]
	captured := next.board[m.To]

	next.board[m.From] = NoPiece
	next.board[m.To] = pc
	switch m.Kind {
	case EnPassant:
		next.board[NewSquare(m.To.File(), m.From.Rank())] = NoPiece
		captured = Piece{Pawn, p.turn.Other()}
	case Castle:
		var rookFrom, rookTo Square
		switch m.To {
		case sqG1:
			rookFrom, rookTo = sqH1, sqF1
		case sqC1:
			rookFrom, rookTo = sqA1, sqD1
		case sqG8:
			rookFrom, rookTo = sqH8, sqF8
		case sqC8:
			rookFrom, rookTo = sqA8, sqD8
		}
		next.board[rookTo] = next.board[rookFrom]
		next.board[rookFrom] = NoPiece
	}
	if m.Promotion != NoPieceType {
		next.board[m.To] = Piece{m.Promotion, p.turn}
	}

	next.castling &= castleMask[m.From] & castleMask[m.To]

	next.ep = NoSquare
	if pc.Type == Pawn && abs(m.To.Rank()-m.From.Rank()) == 2 {
		next.ep = NewSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
	}

	if pc.Type == Pawn || !captured.IsEmpty() {
		next.halfmove = 0
	} else {
		next.halfmove++
	}
	if p.turn == Black {
		next.fullmove++
	}
	next.turn = p.turn.Other()
	return next
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Status is the game state of a position as seen by the side to move.
type Status int8

const (
	InPlay Status = iota
	Checkmate
	Stalemate
)

func (s Status) String() string {
	switch s {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	default:
		return "in play"
	}
}

// Status reports whether the side to move is mated, stalemated or still has moves.
func (p Position) Status() Status {
	if p.hasLegalMove() {
		return InPlay
	}
	if p.InCheck() {
		return Checkmate
	}
	return Stalemate
}

// IsCheckmate reports whether the side to move is checkmated.
func (p Position) IsCheckmate() bool { return p.Status() == Checkmate }

// IsStalemate reports whether the side to move has no legal move and is not in check.
func (p Position) IsStalemate() bool { return p.Status() == Stalemate }

// Perft counts leaf nodes of the legal move tree to the given depth.
func Perft(p Position, depth int) int {
	if depth == 0 {
		return 1
	}
	moves := p.LegalMoves()
	if depth == 1 {
		return len(moves)
	}
	n := 0
	for _, m := range moves {
		n += Perft(p.play(m), depth-1)
	}
	return n
}
