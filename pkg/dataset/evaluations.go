package dataset

// MoveEval is the engine verdict on the position before one ply. Scores are from White's
// point of view so rows of one game can be compared without tracking the side to move.
type MoveEval struct {
	Ply        int32  `parquet:"name=ply, type=INT32"`
	MoveUCI    string `parquet:"name=move_uci, type=BYTE_ARRAY, convertedtype=UTF8"`
	BestMove   string `parquet:"name=best_move, type=BYTE_ARRAY, convertedtype=UTF8"`
	BestSAN    string `parquet:"name=best_san, type=BYTE_ARRAY, convertedtype=UTF8"`
	ScoreType  string `parquet:"name=score_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	ScoreValue int32  `parquet:"name=score_value, type=INT32"`
	Depth      int32  `parquet:"name=depth, type=INT32"`
}

// EvalRow is one analysed game as stored in the evaluations parquet file.
type EvalRow struct {
	GameID    string     `parquet:"name=game_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	White     *string    `parquet:"name=white, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Black     *string    `parquet:"name=black, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	WhiteElo  *int32     `parquet:"name=white_elo, type=INT32, repetitiontype=OPTIONAL"`
	BlackElo  *int32     `parquet:"name=black_elo, type=INT32, repetitiontype=OPTIONAL"`
	Result    *string    `parquet:"name=result, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Depth     int32      `parquet:"name=depth, type=INT32"`
	MoveCount int32      `parquet:"name=move_count, type=INT32"`
	MoveEvals []MoveEval `parquet:"name=move_evals, type=LIST"`
}

// NewEvalRow copies the identifying columns of a game into an empty evaluation row.
func NewEvalRow(game GameRow, depth int) EvalRow {
	return EvalRow{
		GameID:    game.GameID,
		White:     game.White,
		Black:     game.Black,
		WhiteElo:  game.WhiteElo,
		BlackElo:  game.BlackElo,
		Result:    game.Result,
		Depth:     int32(depth),
		MoveCount: game.MoveCount,
	}
}

// WriteEvaluations writes every row received on rows to a parquet file at path.
func WriteEvaluations(path string, rows <-chan EvalRow, parallel int64) error {
	return writeParquet(path, "evaluations", rows, parallel)
}

// ReadEvaluations loads all rows of an evaluations parquet file.
func ReadEvaluations(path string, parallel int64) ([]EvalRow, error) {
	return readAll[EvalRow](path, parallel)
}

// EachEvaluation streams the rows of an evaluations parquet file to fn.
func EachEvaluation(path string, parallel int64, fn func(EvalRow) error) error {
	return readParquet(path, parallel, fn)
}
