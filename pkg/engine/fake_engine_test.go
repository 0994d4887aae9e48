package engine_test

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"elucidate/pkg/chess"
	"elucidate/pkg/engine"
)

// The test binary doubles as a scripted UCI engine: when fakeModeEnv is set, TestMain runs
// the fake engine instead of the tests, so sessions talk to a real child process.
const (
	fakeModeEnv = "ELUCIDATE_FAKE_ENGINE"
	fakeLogEnv  = "ELUCIDATE_FAKE_ENGINE_LOG"
)

func TestMain(m *testing.M) {
	if mode := os.Getenv(fakeModeEnv); mode != "" {
		os.Exit(runFakeEngine(mode, os.Getenv(fakeLogEnv)))
	}
	os.Exit(m.Run())
}

// fakeConfig returns a config that runs this test binary as an engine in the given mode.
// The command log path is returned when logging is requested.
func fakeConfig(t *testing.T, mode string, withLog bool) (engine.Config, string) {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("executable: %v", err)
	}
	t.Setenv(fakeModeEnv, mode)
	logPath := ""
	if withLog {
		logPath = t.TempDir() + "/commands.log"
		t.Setenv(fakeLogEnv, logPath)
	} else {
		t.Setenv(fakeLogEnv, "")
	}
	return engine.Config{Engine: exe, HandshakeTimeoutMs: 5000, QuitTimeoutMs: 2000}, logPath
}

func runFakeEngine(mode, logPath string) int {
	var logFile *os.File
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 2
		}
		defer f.Close()
		logFile = f
	}
	out := bufio.NewWriter(os.Stdout)
	emit := func(format string, args ...any) {
		fmt.Fprintf(out, format+"\n", args...)
		out.Flush()
	}

	multipv := 1
	fen := chess.StartFEN
	pendingBest := ""
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if logFile != nil {
			fmt.Fprintln(logFile, line)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "uci":
			if mode == "nohandshake" {
				continue
			}
			emit("id name FakeFish 1.0")
			emit("id author elucidate")
			emit("option name MultiPV type spin default 1 min 1 max 10")
			emit("uciok")
		case "isready":
			emit("readyok")
		case "setoption":
			if len(fields) == 5 && fields[2] == "MultiPV" {
				multipv, _ = strconv.Atoi(fields[4])
			}
		case "position":
			if len(fields) > 2 && fields[1] == "fen" {
				fen = strings.Join(fields[2:], " ")
			}
		case "go":
			depth := 1
			if len(fields) == 3 && fields[1] == "depth" {
				depth, _ = strconv.Atoi(fields[2])
			}
			switch {
			case mode == "crash":
				return 3
			case mode == "garbage":
				emit("info depth x score cp 10 pv e2e4")
				emit("bestmove e2e4")
			case mode == "slow" && depth >= 30:
				emit("info depth 1 multipv 1 score cp 1 nodes 1 pv %s", firstMove(fen))
				pendingBest = firstMove(fen)
			case mode == "stubborn" && depth >= 30:
				time.Sleep(300 * time.Millisecond)
				searchLines(fen, 1, multipv, "", emit)
			default:
				searchLines(fen, depth, multipv, mode, emit)
			}
		case "stop":
			if pendingBest != "" {
				emit("bestmove %s", pendingBest)
				pendingBest = ""
			}
		case "quit":
			return 0
		}
	}
	return 0
}

func firstMove(fen string) string {
	pos, err := chess.ParseFEN(fen)
	if err != nil {
		return "0000"
	}
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		return "(none)"
	}
	return moves[0].UCI()
}

// searchLines prints a deterministic search: for every depth one line per multipv slot,
// slot k recommending the k-th legal move followed by one reply.
func searchLines(fen string, depth, multipv int, mode string, emit func(string, ...any)) {
	pos, err := chess.ParseFEN(fen)
	if err != nil {
		emit("bestmove 0000")
		return
	}
	moves := pos.LegalMoves()
	if len(moves) == 0 {
		emit("info depth 0 score mate 0")
		emit("bestmove (none)")
		return
	}
	lines := multipv
	if lines > len(moves) {
		lines = len(moves)
	}
	for d := 1; d <= depth; d++ {
		for k := 1; k <= lines; k++ {
			if mode == "nopv2" && k == 2 {
				emit("info depth %d seldepth %d multipv 2 score cp 5 nodes %d nps 50000", d, d+2, 900*d)
				continue
			}
			m := moves[k-1]
			pv := m.UCI()
			if next, err := pos.Apply(m); err == nil {
				if replies := next.LegalMoves(); len(replies) > 0 {
					pv += " " + replies[0].UCI()
				}
			}
			emit("info depth %d seldepth %d multipv %d score cp %d nodes %d nps 50000 time %d pv %s",
				d, d+2, k, 60-10*k, 1000*d, d, pv)
		}
	}
	emit("bestmove %s", moves[0].UCI())
}
