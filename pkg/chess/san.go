package chess

import (
	"regexp"
	"strings"
)

// SAN returns the standard algebraic notation of m in p, with disambiguation and check or
// mate suffix. m must be legal in p.
func (p Position) SAN(m Move) (string, error) {
	lm, err := p.Resolve(m)
	if err != nil {
		return "", err
	}
	return p.san(lm), nil
}

func (p Position) san(m Move) string {
	var b strings.Builder
	pc := p.board[m.From]
	switch {
	case m.Kind == Castle:
		if m.To.File() == 6 {
			b.WriteString("O-O")
		} else {
			b.WriteString("O-O-O")
		}
	case pc.Type == Pawn:
		if m.Kind.IsCapture() {
			b.WriteByte(byte('a' + m.From.File()))
			b.WriteByte('x')
		}
		b.WriteString(m.To.String())
		if m.Promotion != NoPieceType {
			b.WriteByte('=')
			b.WriteString(m.Promotion.Letter())
		}
	default:
		b.WriteString(pc.Type.Letter())
		b.WriteString(p.disambiguation(m, pc.Type))
		if m.Kind.IsCapture() {
			b.WriteByte('x')
		}
		b.WriteString(m.To.String())
	}

	next := p.play(m)
	if next.InCheck() {
		if next.hasLegalMove() {
			b.WriteByte('+')
		} else {
			b.WriteByte('#')
		}
	}
	return b.String()
}

// disambiguation returns the origin file, rank or both, whichever is the first that tells m
// apart from the other same-type moves landing on the same square.
func (p Position) disambiguation(m Move, t PieceType) string {
	var rivals []Square
	for _, o := range p.LegalMoves() {
		if o.To == m.To && o.From != m.From && p.board[o.From].Type == t {
			rivals = append(rivals, o.From)
		}
	}
	if len(rivals) == 0 {
		return ""
	}
	sameFile, sameRank := false, false
	for _, r := range rivals {
		if r.File() == m.From.File() {
			sameFile = true
		}
		if r.Rank() == m.From.Rank() {
			sameRank = true
		}
	}
	switch {
	case !sameFile:
		return string(rune('a' + m.From.File()))
	case !sameRank:
		return string(rune('1' + m.From.Rank()))
	default:
		return m.From.String()
	}
}

var sanPattern = regexp.MustCompile(`^([NBRQK])?([a-h])?([1-8])?(x)?([a-h][1-8])(?:=?([NBRQ]))?$`)

// ParseSAN resolves a SAN token against p. Check and mate markers, annotation glyphs such as
// "!?" and a trailing "e.p." are ignored. A capture marker on a non-capture is rejected;
// a missing capture marker on a capture is tolerated.
func (p Position) ParseSAN(text string) (Move, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimSuffix(s, "e.p.")
	s = strings.TrimRight(s, "+#!?")
	if s == "" {
		return Move{}, malformed("san: empty move")
	}

	switch s {
	case "O-O", "0-0", "O-O-O", "0-0-0":
		to := sqG1
		if len(s) == 5 {
			to = sqC1
		}
		if p.turn == Black {
			to += 56
		}
		for _, m := range p.LegalMoves() {
			if m.Kind == Castle && m.To == to {
				return m, nil
			}
		}
		return Move{}, errsIllegal("%s is not legal in %s", text, p.FEN())
	}

	g := sanPattern.FindStringSubmatch(s)
	if g == nil {
		return Move{}, malformed("san: cannot parse %q", text)
	}
	t := Pawn
	switch g[1] {
	case "N":
		t = Knight
	case "B":
		t = Bishop
	case "R":
		t = Rook
	case "Q":
		t = Queen
	case "K":
		t = King
	}
	fromFile, fromRank := -1, -1
	if g[2] != "" {
		fromFile = int(g[2][0] - 'a')
	}
	if g[3] != "" {
		fromRank = int(g[3][0] - '1')
	}
	capture := g[4] == "x"
	to, _ := ParseSquare(g[5])
	promo := NoPieceType
	switch g[6] {
	case "N":
		promo = Knight
	case "B":
		promo = Bishop
	case "R":
		promo = Rook
	case "Q":
		promo = Queen
	}
	if promo != NoPieceType && t != Pawn {
		return Move{}, malformed("san: only pawns promote in %q", text)
	}

	var found []Move
	for _, m := range p.LegalMoves() {
		if m.To != to || p.board[m.From].Type != t || m.Promotion != promo {
			continue
		}
		if fromFile >= 0 && m.From.File() != fromFile {
			continue
		}
		if fromRank >= 0 && m.From.Rank() != fromRank {
			continue
		}
		if capture && !m.Kind.IsCapture() {
			continue
		}
		found = append(found, m)
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		if t == Pawn && promo == NoPieceType && (to.Rank() == 0 || to.Rank() == 7) {
			return Move{}, errsIllegal("%s: promotion piece required", text)
		}
		return Move{}, errsIllegal("%s is not legal in %s", text, p.FEN())
	default:
		return Move{}, errsIllegal("%s is ambiguous in %s", text, p.FEN())
	}
}

// ApplySAN parses a SAN token and applies it.
func (p Position) ApplySAN(text string) (Position, Move, error) {
	m, err := p.ParseSAN(text)
	if err != nil {
		return Position{}, Move{}, err
	}
	return p.play(m), m, nil
}
