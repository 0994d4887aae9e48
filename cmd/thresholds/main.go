// Command thresholds reports, per rating bucket, how often the side that first reaches an
// evaluation threshold goes on to win the game.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"elucidate/pkg/dataset"
)

type scenario struct {
	threshold  int
	bucketFrom int
	bucketTo   int
}

type stats struct {
	totalGames    int
	crossings     int
	wins          int
	excludedGames int
}

type side int

const (
	none side = iota
	white
	black
)

// main parses CLI flags and prints CSV stats for eval threshold crossings.
func main() {
	inputPath := flag.String("input", "evaluations.parquet", "input evaluations parquet file")
	thresholdsArg := flag.String("thresholds", "300", "comma-separated eval thresholds in centipawns")
	ratingDiffMax := flag.Int("rating-diff-max", 100, "max rating difference between players")
	binSize := flag.Int("player-bin-size", 100, "player rating bucket size")
	playerMin := flag.Int("player-min", 0, "minimum player rating (0 to auto-detect)")
	playerMax := flag.Int("player-max", 0, "maximum player rating (0 to auto-detect)")
	parallel := flag.Int64("parallel", 4, "parquet read parallelism")
	flag.Parse()

	thresholds, err := parseIntList(*thresholdsArg)
	if err != nil {
		fatal(err)
	}
	if len(thresholds) == 0 {
		fatal(fmt.Errorf("thresholds must be non-empty"))
	}
	if *binSize <= 0 {
		fatal(fmt.Errorf("player-bin-size must be > 0"))
	}
	if *ratingDiffMax < 0 {
		fatal(fmt.Errorf("rating-diff-max must be >= 0"))
	}

	rows, err := dataset.ReadEvaluations(*inputPath, *parallel)
	if err != nil {
		fatal(err)
	}
	rated := rows[:0]
	for _, row := range rows {
		if row.WhiteElo != nil && row.BlackElo != nil {
			rated = append(rated, row)
		}
	}
	fmt.Fprintf(os.Stderr, "games: %d, rated: %d\n", len(rows), len(rated))

	minRating, maxRating := ratingMinMax(rated)
	if *playerMin > 0 {
		minRating = *playerMin
	}
	if *playerMax > 0 {
		maxRating = *playerMax
	}
	scenarios := buildScenarios(thresholds, minRating, maxRating, *binSize)
	results := make(map[scenario]*stats, len(scenarios))
	for _, sc := range scenarios {
		results[sc] = &stats{}
	}

	for _, row := range rated {
		whiteElo, blackElo := int(*row.WhiteElo), int(*row.BlackElo)
		if abs(whiteElo-blackElo) > *ratingDiffMax {
			continue
		}
		resultSide := winnerSide(row.Result)
		for _, sc := range scenarios {
			crossingSide := firstCrossingSide(row.MoveEvals, sc.threshold)
			for _, player := range []struct {
				rating int
				color  side
			}{{whiteElo, white}, {blackElo, black}} {
				if !inBucket(player.rating, sc) {
					continue
				}
				st := results[sc]
				st.totalGames++
				switch {
				case crossingSide == none || resultSide == none:
					st.excludedGames++
				case crossingSide == player.color:
					st.crossings++
					if resultSide == player.color {
						st.wins++
					}
				}
			}
		}
	}

	printCSV(scenarios, results)
}

// buildScenarios creates per-bucket scenarios for each eval threshold.
func buildScenarios(thresholds []int, minRating, maxRating, binSize int) []scenario {
	var scenarios []scenario
	for bucketStart := (minRating / binSize) * binSize; bucketStart <= maxRating; bucketStart += binSize {
		for _, threshold := range thresholds {
			scenarios = append(scenarios, scenario{
				threshold:  threshold,
				bucketFrom: bucketStart,
				bucketTo:   bucketStart + binSize,
			})
		}
	}
	sort.Slice(scenarios, func(i, j int) bool {
		if scenarios[i].bucketFrom == scenarios[j].bucketFrom {
			return scenarios[i].threshold < scenarios[j].threshold
		}
		return scenarios[i].bucketFrom < scenarios[j].bucketFrom
	})
	return scenarios
}

// ratingMinMax returns the minimum and maximum player rating observed in rows.
func ratingMinMax(rows []dataset.EvalRow) (int, int) {
	min, max := 0, 0
	initialized := false
	for _, row := range rows {
		for _, value := range []int{int(*row.WhiteElo), int(*row.BlackElo)} {
			if !initialized {
				min, max = value, value
				initialized = true
				continue
			}
			if value < min {
				min = value
			}
			if value > max {
				max = value
			}
		}
	}
	return min, max
}

func inBucket(rating int, sc scenario) bool {
	return rating >= sc.bucketFrom && rating < sc.bucketTo
}

// firstCrossingSide returns which side first reaches threshold. Scores are stored from
// White's point of view, and any forced mate counts as a crossing.
func firstCrossingSide(evals []dataset.MoveEval, threshold int) side {
	for _, eval := range evals {
		if eval.ScoreType == "mate" {
			if eval.ScoreValue > 0 {
				return white
			}
			return black
		}
		if eval.ScoreValue >= int32(threshold) {
			return white
		}
		if eval.ScoreValue <= -int32(threshold) {
			return black
		}
	}
	return none
}

func winnerSide(result *string) side {
	if result == nil {
		return none
	}
	switch *result {
	case "1-0":
		return white
	case "0-1":
		return black
	default:
		return none
	}
}

// parseIntList parses comma-separated integers with optional whitespace.
func parseIntList(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// printCSV writes CSV to stdout for all scenarios.
func printCSV(scenarios []scenario, results map[scenario]*stats) {
	fmt.Println("player_bucket_from,player_bucket_to,threshold,total_games,crossings,wins,win_rate,excluded")
	for _, sc := range scenarios {
		st := results[sc]
		winRate := 0.0
		if st.crossings > 0 {
			winRate = float64(st.wins) / float64(st.crossings)
		}
		fmt.Printf("%d,%d,%d,%d,%d,%d,%.6f,%d\n",
			sc.bucketFrom, sc.bucketTo, sc.threshold,
			st.totalGames, st.crossings, st.wins, winRate, st.excludedGames)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
