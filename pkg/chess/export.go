package chess

import (
	"fmt"
	"strconv"
	"strings"
)

const exportLineWidth = 80

// Export renders a mainline as PGN text. Moves are UCI strings replayed from startFEN (the
// standard position when empty). A move that does not parse or is not legal where it appears
// is skipped and described in the returned warnings; the export goes on with the next move.
// Only set metadata fields are written as tags. The error is reserved for a bad startFEN.
func Export(movesUCI []string, meta GameMetadata, startFEN string) (string, []string, error) {
	start := StartPosition()
	if startFEN != "" {
		pos, err := ParseFEN(startFEN)
		if err != nil {
			return "", nil, fmt.Errorf("start position: %w", err)
		}
		start = pos
	}

	var warnings []string
	var tokens []string
	pos := start
	first := true
	for i, text := range movesUCI {
		next, m, err := pos.ApplyUCI(text)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping move %d %q: %v", i+1, text, err))
			continue
		}
		switch {
		case pos.turn == White:
			tokens = append(tokens, strconv.Itoa(pos.fullmove)+".")
		case first:
			tokens = append(tokens, strconv.Itoa(pos.fullmove)+"...")
		}
		tokens = append(tokens, pos.san(m))
		pos = next
		first = false
	}
	result := "*"
	if meta.Result != nil && *meta.Result != "" {
		result = *meta.Result
	}
	tokens = append(tokens, result)

	var b strings.Builder
	writeTags(&b, meta, start)
	line := 0
	for _, tok := range tokens {
		if line > 0 && line+1+len(tok) > exportLineWidth {
			b.WriteByte('\n')
			line = 0
		}
		if line > 0 {
			b.WriteByte(' ')
			line++
		}
		b.WriteString(tok)
		line += len(tok)
	}
	return b.String(), warnings, nil
}

func writeTags(b *strings.Builder, meta GameMetadata, start Position) {
	n := 0
	tag := func(name string, value *string) {
		if value == nil {
			return
		}
		fmt.Fprintf(b, "[%s \"%s\"]\n", name, escapeTag(*value))
		n++
	}
	elo := func(name string, value *int) {
		if value == nil {
			return
		}
		tag(name, String(strconv.Itoa(*value)))
	}
	tag("Event", meta.Event)
	tag("Site", meta.Site)
	tag("Date", meta.Date)
	tag("Round", meta.Round)
	tag("White", meta.White)
	tag("Black", meta.Black)
	tag("Result", meta.Result)
	elo("WhiteElo", meta.WhiteElo)
	elo("BlackElo", meta.BlackElo)
	tag("ECO", meta.ECO)
	tag("Opening", meta.Opening)
	tag("TimeControl", meta.TimeControl)
	tag("Termination", meta.Termination)
	for _, t := range meta.Extra {
		if t.Name == "SetUp" || t.Name == "FEN" {
			continue
		}
		tag(t.Name, String(t.Value))
	}
	if fen := start.FEN(); fen != StartFEN {
		tag("SetUp", String("1"))
		tag("FEN", String(fen))
	}
	if n > 0 {
		b.WriteByte('\n')
	}
}

func escapeTag(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
