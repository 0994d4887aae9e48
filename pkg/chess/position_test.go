package chess_test

import (
	"errors"
	"testing"

	"elucidate/pkg/chess"
	"elucidate/pkg/errs"
)

func mustFEN(t *testing.T, fen string) chess.Position {
	t.Helper()
	pos, err := chess.ParseFEN(fen)
	if err != nil {
		t.Fatalf("parse fen %q: %v", fen, err)
	}
	return pos
}

func play(t *testing.T, pos chess.Position, uci ...string) chess.Position {
	t.Helper()
	for _, text := range uci {
		next, _, err := pos.ApplyUCI(text)
		if err != nil {
			t.Fatalf("apply %s to %s: %v", text, pos.FEN(), err)
		}
		pos = next
	}
	return pos
}

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		chess.StartFEN,
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2",
	}
	for _, fen := range fens {
		pos := mustFEN(t, fen)
		if got := pos.FEN(); got != fen {
			t.Fatalf("round trip: got %s want %s", got, fen)
		}
		again := mustFEN(t, pos.FEN())
		if again != pos {
			t.Fatalf("reparsed position differs for %s", fen)
		}
	}
}

func TestFENNormalization(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -", chess.StartFEN},
		{"4k3/8/8/8/8/8/8/4K3 w KQkq - 0 1", "4k3/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"r3k3/8/8/8/8/8/8/4K2R w qKkQ - 3 9", "r3k3/8/8/8/8/8/8/4K2R w Kq - 3 9"},
		{"  4k3/8/8/8/8/8/8/4K3   b  -  -  0  40 ", "4k3/8/8/8/8/8/8/4K3 b - - 0 40"},
		{"4k3/8/8/3PN3/8/8/8/4K3 w - e6 0 1", "4k3/8/8/3PN3/8/8/8/4K3 w - - 0 1"},
		{"4k3/8/4p3/3Pp3/8/8/8/4K3 w - e6 0 1", "4k3/8/4p3/3Pp3/8/8/8/4K3 w - - 0 1"},
		{"4k3/8/8/8/3pB3/8/8/4K3 b - e3 0 1", "4k3/8/8/8/3pB3/8/8/4K3 b - - 0 1"},
	}
	for _, c := range cases {
		if got := mustFEN(t, c.in).FEN(); got != c.want {
			t.Fatalf("normalize %q: got %s want %s", c.in, got, c.want)
		}
	}
}

func TestParseFENRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR/8 w KQkq - 0 1",
		"rnbqkbnr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/ppppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq - 0 1",
		chess.StartFEN[:len(chess.StartFEN)-len(" w KQkq - 0 1")] + " x KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkx - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KKQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e4 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq z9 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - -1 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 0",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0",
		"rnbq1bnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQ - 0 1",
		"P3k3/8/8/8/8/8/8/4K3 w - - 0 1",
		"4k3/8/8/8/8/8/4R3/4K3 w - - 0 1",
		"4k3/8/8/8/8/8/4r3/4K3 b - - 0 1",
	}
	for _, fen := range bad {
		_, err := chess.ParseFEN(fen)
		if err == nil {
			t.Fatalf("expected error for %q", fen)
		}
		if !errors.Is(err, errs.ErrMalformedRecord) {
			t.Fatalf("expected malformed record for %q, got %v", fen, err)
		}
	}
}

func TestPerft(t *testing.T) {
	cases := []struct {
		fen   string
		depth int
		nodes int
	}{
		{chess.StartFEN, 1, 20},
		{chess.StartFEN, 2, 400},
		{chess.StartFEN, 3, 8902},
		{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 1, 48},
		{"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 2, 2039},
		{"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 3, 2812},
		{"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", 2, 264},
		{"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", 2, 1486},
	}
	for _, c := range cases {
		if got := chess.Perft(mustFEN(t, c.fen), c.depth); got != c.nodes {
			t.Fatalf("perft(%s, %d): got %d want %d", c.fen, c.depth, got, c.nodes)
		}
	}
}

func TestApplyUpdatesClocksAndEnPassant(t *testing.T) {
	pos := chess.StartPosition()

	pos = play(t, pos, "e2e4")
	if got, want := pos.FEN(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"; got != want {
		t.Fatalf("after e4: got %s want %s", got, want)
	}
	pos = play(t, pos, "g8f6")
	if got, want := pos.FEN(), "rnbqkb1r/pppppppp/5n2/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 1 2"; got != want {
		t.Fatalf("after Nf6: got %s want %s", got, want)
	}
	pos = play(t, pos, "g1f3", "f6e4")
	if got, want := pos.FEN(), "rnbqkb1r/pppppppp/8/8/4n3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 0 3"; got != want {
		t.Fatalf("after Nxe4: got %s want %s", got, want)
	}
}

func TestApplyRevokesCastlingOnRookCapture(t *testing.T) {
	pos := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	next, m, err := pos.ApplyUCI("a1a8")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if m.Kind != chess.Capture {
		t.Fatalf("kind: got %v want capture", m.Kind)
	}
	if got, want := next.FEN(), "R3k2r/8/8/8/8/8/8/4K2R b Kk - 0 1"; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
	if !next.InCheck() {
		t.Fatal("black should be in check")
	}
}

func TestApplyIsPure(t *testing.T) {
	pos := chess.StartPosition()
	before := pos.FEN()
	if _, _, err := pos.ApplyUCI("e2e4"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if pos.FEN() != before {
		t.Fatalf("receiver was mutated: %s", pos.FEN())
	}
}

func TestEnPassant(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2")
	next, m, err := pos.ApplyUCI("e5d6")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if m.Kind != chess.EnPassant {
		t.Fatalf("kind: got %v want en-passant", m.Kind)
	}
	if got, want := next.FEN(), "4k3/8/3P4/8/8/8/8/4K3 b - - 0 2"; got != want {
		t.Fatalf("got %s want %s", got, want)
	}

	// capturing en passant would expose the king along the fifth rank
	pinned := mustFEN(t, "8/8/8/K2pP2r/8/8/8/4k3 w - d6 0 1")
	if _, _, err := pinned.ApplyUCI("e5d6"); !errors.Is(err, errs.ErrIllegalMove) {
		t.Fatalf("expected illegal move, got %v", err)
	}
}

func TestEnPassantNeedsPawnBehindTarget(t *testing.T) {
	for _, fen := range []string{
		"4k3/8/8/3PN3/8/8/8/4K3 w - e6 0 1",
		"4k3/8/8/3Pn3/8/8/8/4K3 w - e6 0 1",
	} {
		pos := mustFEN(t, fen)
		for _, m := range pos.LegalMoves() {
			if m.Kind == chess.EnPassant {
				t.Fatalf("%s: unexpected en-passant move %s", fen, m.UCI())
			}
		}
		if _, _, err := pos.ApplyUCI("d5e6"); !errors.Is(err, errs.ErrIllegalMove) {
			t.Fatalf("%s: expected illegal move, got %v", fen, err)
		}
	}
}

func TestCastling(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/8/8/5r2/R3K2R w KQ - 0 1")
	if _, _, err := pos.ApplyUCI("e1g1"); !errors.Is(err, errs.ErrIllegalMove) {
		t.Fatalf("castling through an attacked square: got %v", err)
	}
	next, m, err := pos.ApplyUCI("e1c1")
	if err != nil {
		t.Fatalf("queenside castle: %v", err)
	}
	if m.Kind != chess.Castle {
		t.Fatalf("kind: got %v want castle", m.Kind)
	}
	if got, want := next.FEN(), "4k3/8/8/8/8/8/5r2/2KR3R b - - 1 1"; got != want {
		t.Fatalf("got %s want %s", got, want)
	}

	checked := mustFEN(t, "4k3/8/8/8/8/8/4r3/R3K2R w KQ - 0 1")
	for _, uci := range []string{"e1g1", "e1c1"} {
		if _, _, err := checked.ApplyUCI(uci); err == nil {
			t.Fatalf("castling out of check %s should fail", uci)
		}
	}
}

func TestPromotionRequiresPiece(t *testing.T) {
	pos := mustFEN(t, "8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	if _, _, err := pos.ApplyUCI("e7e8"); !errors.Is(err, errs.ErrIllegalMove) {
		t.Fatalf("promotion without piece: got %v", err)
	}
	for _, c := range []struct {
		uci  string
		want string
	}{
		{"e7e8q", "4Q3/8/8/8/8/8/k7/4K3 b - - 0 1"},
		{"e7e8n", "4N3/8/8/8/8/8/k7/4K3 b - - 0 1"},
	} {
		next, m, err := pos.ApplyUCI(c.uci)
		if err != nil {
			t.Fatalf("apply %s: %v", c.uci, err)
		}
		if m.Kind != chess.Promotion {
			t.Fatalf("kind: got %v want promotion", m.Kind)
		}
		if next.FEN() != c.want {
			t.Fatalf("apply %s: got %s want %s", c.uci, next.FEN(), c.want)
		}
	}
}

func TestParseUCI(t *testing.T) {
	m, err := chess.ParseUCI("e7e8q")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m.From.String() != "e7" || m.To.String() != "e8" || m.Promotion != chess.Queen {
		t.Fatalf("unexpected move %+v", m)
	}
	if m.UCI() != "e7e8q" {
		t.Fatalf("uci: got %s", m.UCI())
	}
	for _, bad := range []string{"", "e2", "e2e", "e2e4e5", "i2e4", "e9e4", "e7e8k", "e7e8Q", "0000", "e2e2"} {
		if _, err := chess.ParseUCI(bad); !errors.Is(err, errs.ErrMalformedRecord) {
			t.Fatalf("expected malformed record for %q, got %v", bad, err)
		}
	}
}

func TestStatus(t *testing.T) {
	mate := play(t, chess.StartPosition(), "f2f3", "e7e5", "g2g4", "d8h4")
	if !mate.IsCheckmate() || mate.Status() != chess.Checkmate {
		t.Fatalf("expected checkmate in %s", mate.FEN())
	}
	stale := mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if !stale.IsStalemate() || stale.InCheck() {
		t.Fatalf("expected stalemate in %s", stale.FEN())
	}
	if chess.StartPosition().Status() != chess.InPlay {
		t.Fatal("start position should be in play")
	}
}

func TestLegalMovesNeverLeaveKingInCheck(t *testing.T) {
	fens := []string{
		chess.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	}
	for _, fen := range fens {
		pos := mustFEN(t, fen)
		mover := pos.Turn()
		for _, m := range pos.LegalMoves() {
			next, err := pos.Apply(m)
			if err != nil {
				t.Fatalf("apply %s in %s: %v", m, fen, err)
			}
			var king chess.Square = chess.NoSquare
			for sq := chess.Square(0); sq < 64; sq++ {
				if pc := next.PieceAt(sq); pc.Type == chess.King && pc.Color == mover {
					king = sq
				}
			}
			if next.IsAttacked(king, mover.Other()) {
				t.Fatalf("%s in %s leaves the king in check", m, fen)
			}
		}
	}
}
