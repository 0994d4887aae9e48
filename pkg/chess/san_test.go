package chess_test

import (
	"errors"
	"sort"
	"testing"

	notnil "github.com/notnil/chess"

	"elucidate/pkg/chess"
	"elucidate/pkg/errs"
)

func TestSANDisambiguation(t *testing.T) {
	cases := []struct {
		fen  string
		uci  string
		want string
	}{
		{"4k3/8/8/8/8/5N2/8/1N2K3 w - - 0 1", "b1d2", "Nbd2"},
		{"4k3/8/8/8/8/5N2/8/1N2K3 w - - 0 1", "f3d2", "Nfd2"},
		{"4k3/8/8/R7/8/8/8/R3K3 w - - 0 1", "a1a3", "R1a3"},
		{"4k3/8/8/R7/8/8/8/R3K3 w - - 0 1", "a5a3", "R5a3"},
		{"4k3/8/8/8/8/Q7/8/Q1Q1K3 w - - 0 1", "a1b2", "Qa1b2"},
		{"4k3/8/8/8/8/Q7/8/Q1Q1K3 w - - 0 1", "c1b2", "Qcb2"},
		{"4k3/8/8/8/8/Q7/8/Q1Q1K3 w - - 0 1", "a3b2", "Q3b2"},
		{chess.StartFEN, "g1f3", "Nf3"},
		{"4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2", "e5d6", "exd6"},
		{"8/4P3/8/8/8/8/k7/4K3 w - - 0 1", "e7e8q", "e8=Q"},
		{"8/4P3/8/8/8/8/k7/4K3 w - - 0 1", "e7e8n", "e8=N"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "a1a8", "Rxa8+"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "e8c8", "O-O-O"},
		{"rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 2", "d8h4", "Qh4#"},
	}
	for _, c := range cases {
		pos := mustFEN(t, c.fen)
		m, err := chess.ParseUCI(c.uci)
		if err != nil {
			t.Fatalf("parse %s: %v", c.uci, err)
		}
		got, err := pos.SAN(m)
		if err != nil {
			t.Fatalf("san %s in %s: %v", c.uci, c.fen, err)
		}
		if got != c.want {
			t.Fatalf("san %s in %s: got %s want %s", c.uci, c.fen, got, c.want)
		}
		back, err := pos.ParseSAN(got)
		if err != nil {
			t.Fatalf("parse san %s: %v", got, err)
		}
		if back.UCI() != c.uci {
			t.Fatalf("parse san %s: got %s want %s", got, back.UCI(), c.uci)
		}
	}
}

func TestParseSANVariants(t *testing.T) {
	pos := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	for _, text := range []string{"O-O", "0-0", "O-O+", "O-O!?"} {
		m, err := pos.ParseSAN(text)
		if err != nil {
			t.Fatalf("parse %s: %v", text, err)
		}
		if m.UCI() != "e1g1" {
			t.Fatalf("parse %s: got %s", text, m.UCI())
		}
	}
	// a missing capture marker is tolerated
	m, err := pos.ParseSAN("Ra8+")
	if err != nil || m.UCI() != "a1a8" {
		t.Fatalf("parse Ra8+: got %v %v", m, err)
	}

	start := chess.StartPosition()
	if _, err := start.ParseSAN("Nxf3"); !errors.Is(err, errs.ErrIllegalMove) {
		t.Fatalf("capture marker on a quiet move: got %v", err)
	}
	if _, err := start.ParseSAN("Ke2"); !errors.Is(err, errs.ErrIllegalMove) {
		t.Fatalf("blocked king move: got %v", err)
	}
	if _, err := start.ParseSAN("Zz9"); !errors.Is(err, errs.ErrMalformedRecord) {
		t.Fatalf("garbage: got %v", err)
	}
	ambiguous := mustFEN(t, "4k3/8/8/8/8/5N2/8/1N2K3 w - - 0 1")
	if _, err := ambiguous.ParseSAN("Nd2"); !errors.Is(err, errs.ErrIllegalMove) {
		t.Fatalf("ambiguous move: got %v", err)
	}
	promo := mustFEN(t, "8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	if _, err := promo.ParseSAN("e8"); !errors.Is(err, errs.ErrIllegalMove) {
		t.Fatalf("promotion without piece: got %v", err)
	}
	if m, err := promo.ParseSAN("e8R"); err != nil || m.Promotion != chess.Rook {
		t.Fatalf("promotion without '=': got %v %v", m, err)
	}
}

// TestLegalMovesAgainstOracle compares move generation and SAN with an independent
// implementation.
func TestLegalMovesAgainstOracle(t *testing.T) {
	fens := []string{
		chess.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"4k3/8/8/8/8/Q7/8/Q1Q1K3 w - - 0 1",
		"4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2",
	}
	for _, fen := range fens {
		pos := mustFEN(t, fen)
		var got []string
		for _, m := range pos.LegalMoves() {
			san, err := pos.SAN(m)
			if err != nil {
				t.Fatalf("san %s: %v", m, err)
			}
			got = append(got, m.UCI()+" "+san)
		}

		opt, err := notnil.FEN(fen)
		if err != nil {
			t.Fatalf("oracle fen %s: %v", fen, err)
		}
		game := notnil.NewGame(opt)
		var want []string
		for _, m := range game.ValidMoves() {
			uci := notnil.UCINotation{}.Encode(game.Position(), m)
			san := notnil.AlgebraicNotation{}.Encode(game.Position(), m)
			want = append(want, uci+" "+san)
		}

		sort.Strings(got)
		sort.Strings(want)
		if len(got) != len(want) {
			t.Fatalf("%s: got %d moves want %d", fen, len(got), len(want))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("%s: move %d got %q want %q", fen, i, got[i], want[i])
			}
		}
	}
}
