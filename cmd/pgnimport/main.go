// Command pgnimport parses every PGN file under a directory, replays each game against the
// rules and writes the validated games to a parquet file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"elucidate/pkg/chess"
	"elucidate/pkg/dataset"
)

type fileResult struct {
	path     string
	rows     []dataset.GameRow
	failed   []chess.GameError
	filtered int
	err      error
}

func main() {
	startTime := time.Now()
	inputPath := flag.String("input", "pgn", "PGN file or directory of .pgn files")
	outputPath := flag.String("output", "games.parquet", "output parquet file")
	maxGames := flag.Int("max-games", 1_000_000, "maximum games read per file")
	filterExpr := flag.String("filter", "", `game filter, e.g. 'WhiteElo >= 2000 && Result == "1-0"'`)
	workers := flag.Int("workers", 4, "number of parallel parsers")
	verbose := flag.Bool("v", false, "print every rejected game")
	flag.Parse()

	filter, err := dataset.CompileFilter(*filterExpr)
	if err != nil {
		fatal(err)
	}
	files, err := chess.CollectPGN(*inputPath)
	if err != nil {
		fatal(err)
	}
	if len(files) == 0 {
		fatal(fmt.Errorf("no .pgn files found in %s", *inputPath))
	}
	if *workers <= 0 {
		*workers = 1
	}
	if *workers > len(files) {
		*workers = len(files)
	}
	if dir := filepath.Dir(*outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal(err)
		}
	}

	jobs := make(chan string)
	results := make(chan fileResult, *workers)
	rows := make(chan dataset.GameRow, 256)
	writeErr := make(chan error, 1)
	go func() {
		writeErr <- dataset.WriteGames(*outputPath, rows, int64(*workers))
	}()

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- importFile(path, *maxGames, filter)
			}
		}()
	}
	go func() {
		for _, path := range files {
			jobs <- path
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var processed, written, rejected, skipped int64
	done := make(chan struct{})
	go progress(done, len(files), &processed)

	for res := range results {
		atomic.AddInt64(&processed, 1)
		if res.err != nil {
			fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", res.path, res.err)
			continue
		}
		rejected += int64(len(res.failed))
		if *verbose {
			for _, gameErr := range res.failed {
				fmt.Fprintf(os.Stderr, "%s: %v\n", res.path, gameErr)
			}
		}
		skipped += int64(res.filtered)
		n, err := forward(rows, res.rows, writeErr)
		written += int64(n)
		if err != nil {
			fatal(err)
		}
	}
	close(done)
	close(rows)
	if err := <-writeErr; err != nil {
		fatal(err)
	}
	elapsed := time.Since(startTime).Round(time.Millisecond)
	fmt.Fprintf(os.Stderr, "elapsed: %s, files: %d, games: %d, rejected: %d, filtered: %d\n",
		elapsed, len(files), written, rejected, skipped)
}

// forward sends batch to the parquet writer. It gives up as soon as the writer reports an
// error instead of blocking on a channel nobody drains.
func forward(rows chan<- dataset.GameRow, batch []dataset.GameRow, writeErr <-chan error) (int, error) {
	for i, row := range batch {
		select {
		case rows <- row:
		case err := <-writeErr:
			if err == nil {
				err = errors.New("parquet writer stopped early")
			}
			return i, err
		}
	}
	return len(batch), nil
}

// importFile parses one file and applies the filter to the games that replayed.
func importFile(path string, maxGames int, filter *dataset.Filter) fileResult {
	text, err := chess.ReadPGNFile(path)
	if err != nil {
		return fileResult{path: path, err: err}
	}
	out := chess.Parse(text, maxGames)
	res := fileResult{path: path, failed: out.Errors, rows: make([]dataset.GameRow, 0, len(out.Games))}
	for _, g := range out.Games {
		row := dataset.NewGameRow(dataset.GameID(path, g.Ordinal), path, g)
		ok, err := filter.Match(row)
		if err != nil {
			return fileResult{path: path, err: err}
		}
		if !ok {
			res.filtered++
			continue
		}
		res.rows = append(res.rows, row)
	}
	return res
}

func progress(done <-chan struct{}, total int, processed *int64) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			fmt.Fprintf(os.Stderr, "\rprogress: %d/%d (100%%)\n", total, total)
			return
		case <-ticker.C:
			count := int(atomic.LoadInt64(processed))
			percent := 0
			if total > 0 {
				percent = int(float64(count) / float64(total) * 100)
			}
			fmt.Fprintf(os.Stderr, "\rprogress: %d/%d (%d%%)", count, total, percent)
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
