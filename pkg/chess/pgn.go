package chess

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"elucidate/pkg/errs"
)

// DefaultMaxGames bounds Parse when the caller passes a non-positive limit.
const DefaultMaxGames = 100

// Tag is one PGN header pair.
type Tag struct {
	Name  string
	Value string
}

// GameMetadata holds the header fields of a game. A nil field means the tag was absent or
// unusable; nothing is ever filled in with a guess.
type GameMetadata struct {
	Event       *string
	Site        *string
	Date        *string
	Round       *string
	White       *string
	Black       *string
	Result      *string
	WhiteElo    *int
	BlackElo    *int
	ECO         *string
	Opening     *string
	TimeControl *string
	Termination *string

	// Extra keeps any other tag in input order, except SetUp and FEN which describe the
	// start position.
	Extra []Tag
}

// String returns a pointer to s, for building GameMetadata literals.
func String(s string) *string { return &s }

// Int returns a pointer to n.
func Int(n int) *int { return &n }

func (m *GameMetadata) set(name, value string) {
	switch name {
	case "Event":
		m.Event = String(value)
	case "Site":
		m.Site = String(value)
	case "Date":
		m.Date = String(value)
	case "Round":
		m.Round = String(value)
	case "White":
		m.White = String(value)
	case "Black":
		m.Black = String(value)
	case "Result":
		m.Result = String(value)
	case "WhiteElo":
		m.WhiteElo = parseElo(value)
	case "BlackElo":
		m.BlackElo = parseElo(value)
	case "ECO":
		m.ECO = String(value)
	case "Opening":
		m.Opening = String(value)
	case "TimeControl":
		m.TimeControl = String(value)
	case "Termination":
		m.Termination = String(value)
	case "SetUp", "FEN":
	default:
		m.Extra = append(m.Extra, Tag{Name: name, Value: value})
	}
}

// parseElo maps "", "?", "-" and anything non-numeric to unknown.
func parseElo(value string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// ParseDate normalizes a PGN "YYYY.MM.DD" date. Unknown month or day become 01; an unknown
// year or an impossible date yields nil.
func ParseDate(value string) *time.Time {
	parts := strings.Split(strings.TrimSpace(value), ".")
	if len(parts) != 3 || len(parts[0]) != 4 || len(parts[1]) != 2 || len(parts[2]) != 2 {
		return nil
	}
	if strings.Contains(parts[0], "?") {
		return nil
	}
	for i := 1; i < 3; i++ {
		if parts[i] == "??" {
			parts[i] = "01"
		}
	}
	t, err := time.Parse("2006.01.02", strings.Join(parts, "."))
	if err != nil {
		return nil
	}
	return &t
}

// ParsedGame is one fully replayed game.
type ParsedGame struct {
	// Ordinal is the 1-based position of the game in the input, failed games included.
	Ordinal    int
	Metadata   GameMetadata
	DatePlayed *time.Time
	MovesUCI   []string
	MovesSAN   []string
	StartFEN   string
	FinalFEN   string
	MoveCount  int
	// PGN is the canonical re-export of the game, not the input text.
	PGN string
}

// GameError is the failure of one game block. Game is its 1-based ordinal in the input,
// counting failed games too.
type GameError struct {
	Game int
	Err  error
}

func (e GameError) Error() string {
	return fmt.Sprintf("Game %d: %v", e.Game, e.Err)
}

func (e GameError) Unwrap() error { return e.Err }

// ParseOutcome is the result of parsing a multi-game text.
type ParseOutcome struct {
	Success     bool
	GamesParsed int
	Games       []ParsedGame
	Errors      []GameError
}

// Messages returns the error messages in input order.
func (o ParseOutcome) Messages() []string {
	out := make([]string, len(o.Errors))
	for i, e := range o.Errors {
		out[i] = e.Error()
	}
	return out
}

// Parse reads up to maxGames game blocks from text. Games that fail are reported in Errors
// and never stop the following games.
func Parse(text string, maxGames int) ParseOutcome {
	if maxGames <= 0 {
		maxGames = DefaultMaxGames
	}
	var out ParseOutcome
	sc := newBlockScanner(text)
	for n := 1; n <= maxGames; n++ {
		b, ok := sc.next()
		if !ok {
			break
		}
		g, err := replayBlock(b)
		if err != nil {
			out.Errors = append(out.Errors, GameError{Game: n, Err: err})
			continue
		}
		g.Ordinal = n
		out.Games = append(out.Games, g)
	}
	out.GamesParsed = len(out.Games)
	out.Success = out.GamesParsed > 0
	return out
}

// Validate reports whether the first game in text parses and replays.
func Validate(text string) (bool, error) {
	b, ok := newBlockScanner(text).next()
	if !ok {
		return false, errs.New(errs.MalformedRecord, "no valid game found")
	}
	if _, err := replayBlock(b); err != nil {
		return false, err
	}
	return true, nil
}

func replayBlock(b block) (ParsedGame, error) {
	if b.err != "" {
		return ParsedGame{}, errs.New(errs.MalformedRecord, b.err)
	}
	var g ParsedGame
	start := StartPosition()
	for _, t := range b.tags {
		g.Metadata.set(t.Name, t.Value)
		if t.Name == "FEN" {
			pos, err := ParseFEN(t.Value)
			if err != nil {
				return ParsedGame{}, fmt.Errorf("FEN tag: %w", err)
			}
			start = pos
		}
	}
	if g.Metadata.Result == nil && b.result != "" && b.result != "*" {
		g.Metadata.Result = String(b.result)
	}
	if g.Metadata.Date != nil {
		g.DatePlayed = ParseDate(*g.Metadata.Date)
	}

	pos := start
	g.MovesUCI = make([]string, 0, len(b.moves))
	g.MovesSAN = make([]string, 0, len(b.moves))
	for _, tok := range b.moves {
		m, err := pos.ParseSAN(tok)
		if err != nil {
			return ParsedGame{}, fmt.Errorf("move %d %s: %w", pos.FullmoveNumber(), tok, err)
		}
		g.MovesSAN = append(g.MovesSAN, pos.san(m))
		g.MovesUCI = append(g.MovesUCI, m.UCI())
		pos = pos.play(m)
	}
	g.StartFEN = start.FEN()
	g.FinalFEN = pos.FEN()
	g.MoveCount = len(g.MovesUCI)

	text, _, err := Export(g.MovesUCI, g.Metadata, g.StartFEN)
	if err != nil {
		return ParsedGame{}, err
	}
	g.PGN = text
	return g, nil
}
