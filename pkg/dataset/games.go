package dataset

import (
	"fmt"
	"path/filepath"
	"time"

	"elucidate/pkg/chess"
)

// GameRow is one parsed game as stored in the games parquet file.
type GameRow struct {
	GameID      string   `parquet:"name=game_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Source      string   `parquet:"name=source, type=BYTE_ARRAY, convertedtype=UTF8"`
	Event       *string  `parquet:"name=event, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Site        *string  `parquet:"name=site, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Date        *string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	DatePlayed  *int32   `parquet:"name=date_played, type=INT32, convertedtype=DATE, repetitiontype=OPTIONAL"`
	Round       *string  `parquet:"name=round, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	White       *string  `parquet:"name=white, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Black       *string  `parquet:"name=black, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Result      *string  `parquet:"name=result, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	WhiteElo    *int32   `parquet:"name=white_elo, type=INT32, repetitiontype=OPTIONAL"`
	BlackElo    *int32   `parquet:"name=black_elo, type=INT32, repetitiontype=OPTIONAL"`
	ECO         *string  `parquet:"name=eco, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Opening     *string  `parquet:"name=opening, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	TimeControl *string  `parquet:"name=time_control, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Termination *string  `parquet:"name=termination, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	StartFEN    string   `parquet:"name=start_fen, type=BYTE_ARRAY, convertedtype=UTF8"`
	FinalFEN    string   `parquet:"name=final_fen, type=BYTE_ARRAY, convertedtype=UTF8"`
	MoveCount   int32    `parquet:"name=move_count, type=INT32"`
	MovesUCI    []string `parquet:"name=moves_uci, type=LIST, valuetype=BYTE_ARRAY, valueconvertedtype=UTF8"`
	MovesSAN    []string `parquet:"name=moves_san, type=LIST, valuetype=BYTE_ARRAY, valueconvertedtype=UTF8"`
	PGN         string   `parquet:"name=pgn, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// GameID names the index-th game (1-based) of a source file. It is stable across runs, which
// is what resume relies on.
func GameID(source string, index int) string {
	return fmt.Sprintf("%s#%d", filepath.Base(source), index)
}

// NewGameRow flattens a parsed game.
func NewGameRow(id, source string, g chess.ParsedGame) GameRow {
	m := g.Metadata
	row := GameRow{
		GameID:      id,
		Source:      source,
		Event:       m.Event,
		Site:        m.Site,
		Date:        m.Date,
		Round:       m.Round,
		White:       m.White,
		Black:       m.Black,
		Result:      m.Result,
		WhiteElo:    int32Ptr(m.WhiteElo),
		BlackElo:    int32Ptr(m.BlackElo),
		ECO:         m.ECO,
		Opening:     m.Opening,
		TimeControl: m.TimeControl,
		Termination: m.Termination,
		StartFEN:    g.StartFEN,
		FinalFEN:    g.FinalFEN,
		MoveCount:   int32(g.MoveCount),
		MovesUCI:    g.MovesUCI,
		MovesSAN:    g.MovesSAN,
		PGN:         g.PGN,
	}
	if g.DatePlayed != nil {
		days := int32(g.DatePlayed.Unix() / 86400)
		row.DatePlayed = &days
	}
	return row
}

// Metadata rebuilds the tag set of the row. Unknown tags are not stored and come back empty.
func (r GameRow) Metadata() chess.GameMetadata {
	return chess.GameMetadata{
		Event:       r.Event,
		Site:        r.Site,
		Date:        r.Date,
		Round:       r.Round,
		White:       r.White,
		Black:       r.Black,
		Result:      r.Result,
		WhiteElo:    intPtr(r.WhiteElo),
		BlackElo:    intPtr(r.BlackElo),
		ECO:         r.ECO,
		Opening:     r.Opening,
		TimeControl: r.TimeControl,
		Termination: r.Termination,
	}
}

// Played returns the normalized play date, if one was known.
func (r GameRow) Played() *time.Time {
	if r.DatePlayed == nil {
		return nil
	}
	t := time.Unix(int64(*r.DatePlayed)*86400, 0).UTC()
	return &t
}

// WriteGames writes every row received on rows to a parquet file at path.
func WriteGames(path string, rows <-chan GameRow, parallel int64) error {
	return writeParquet(path, "games", rows, parallel)
}

// ReadGames loads all rows of a games parquet file.
func ReadGames(path string, parallel int64) ([]GameRow, error) {
	return readAll[GameRow](path, parallel)
}

// EachGame streams the rows of a games parquet file to fn and stops at the first error.
func EachGame(path string, parallel int64, fn func(GameRow) error) error {
	return readParquet(path, parallel, fn)
}

func int32Ptr(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
