// Command evaluate runs the analysis engine over every position of the games in a parquet
// file and writes the per-ply evaluations to another parquet file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"elucidate/pkg/chess"
	"elucidate/pkg/dataset"
	"elucidate/pkg/engine"
	"elucidate/pkg/errs"
)

type options struct {
	depth   int
	maxPly  int
	timeout time.Duration
}

func main() {
	startTime := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	configPath := flag.String("config", "", "path to config.json (default: search upwards, then environment)")
	inputPath := flag.String("input", "games.parquet", "games parquet file written by pgnimport")
	outputPath := flag.String("output", "evaluations.parquet", "output parquet file")
	processNum := flag.Int("process-num", 4, "number of parallel engine sessions")
	resume := flag.Bool("resume", false, "resume from existing output parquet")
	depth := flag.Int("depth", 0, "search depth (0: config depth, else quick eval depth)")
	maxPly := flag.Int("max-ply", 0, "maximum plies analysed per game (0: all)")
	cachePath := flag.String("cache", "", "sqlite analysis cache shared across runs")
	filterExpr := flag.String("filter", "", "game filter expression")
	perEvalTimeout := flag.Duration("timeout", 30*time.Second, "timeout per evaluation")
	verbose := flag.Bool("v", false, "log engine lifecycle")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if filepath.IsAbs(cfg.Engine) {
		if _, err := os.Stat(cfg.Engine); err != nil {
			fatal(fmt.Errorf("engine binary not found at %s: %w", cfg.Engine, err))
		}
	}
	opts := options{depth: *depth, maxPly: *maxPly, timeout: *perEvalTimeout}
	if opts.depth <= 0 {
		opts.depth = cfg.Depth
	}
	if opts.depth <= 0 {
		opts.depth = engine.QuickEvalDepth
	}
	filter, err := dataset.CompileFilter(*filterExpr)
	if err != nil {
		fatal(err)
	}

	games, err := dataset.ReadGames(*inputPath, 4)
	if err != nil {
		fatal(err)
	}
	selected := games[:0]
	for _, game := range games {
		ok, err := filter.Match(game)
		if err != nil {
			fatal(err)
		}
		if ok {
			selected = append(selected, game)
		}
	}
	games = selected
	if len(games) == 0 {
		fatal(fmt.Errorf("no games to evaluate in %s", *inputPath))
	}

	var cache *dataset.Cache
	if *cachePath != "" {
		cache, err = dataset.OpenCache(*cachePath)
		if err != nil {
			fatal(err)
		}
		defer cache.Close()
	}

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(os.Stderr, "engine: ", log.LstdFlags)
	}

	workers := *processNum
	if workers <= 0 {
		workers = 1
	}
	if workers > len(games) {
		workers = len(games)
	}
	if dir := filepath.Dir(*outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fatal(err)
		}
	}

	outputTarget := *outputPath
	processedIDs := make(map[string]struct{})
	resumeFromExisting := false
	if *resume {
		if _, err := os.Stat(*outputPath); err == nil {
			resumeFromExisting = true
			outputTarget = *outputPath + ".tmp"
		}
	}

	jobs := make(chan dataset.GameRow)
	errCh := make(chan error, workers)
	results := make(chan dataset.EvalRow, workers)
	writeErr := make(chan error, 1)
	done := make(chan struct{})
	var processed int64
	var writeWg sync.WaitGroup
	writeWg.Add(1)
	go func() {
		defer writeWg.Done()
		writeErr <- dataset.WriteEvaluations(outputTarget, results, int64(workers))
	}()
	if resumeFromExisting {
		err := dataset.EachEvaluation(*outputPath, int64(workers), func(row dataset.EvalRow) error {
			processedIDs[row.GameID] = struct{}{}
			results <- row
			return nil
		})
		if err != nil {
			fatal(err)
		}
	}
	go func(total int) {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				fmt.Fprintf(os.Stderr, "\rprogress: %d/%d (100%%)\n", total, total)
				return
			case <-ticker.C:
				count := int(atomic.LoadInt64(&processed))
				percent := 0
				if total > 0 {
					percent = int(float64(count) / float64(total) * 100)
				}
				fmt.Fprintf(os.Stderr, "\rprogress: %d/%d (%d%%)", count, total, percent)
			}
		}
	}(len(games))

	var wg sync.WaitGroup
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	stopRequested := make(chan struct{})
	go func() {
		<-stopCh
		cancel()
		close(stopRequested)
	}()
	defer signal.Stop(stopCh)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if isStopRequested(stopRequested) {
				return
			}
			session := engine.NewSession(cfg, engine.WithLogger(logger))
			if err := session.Start(ctx); err != nil {
				errCh <- err
				return
			}
			defer session.Stop()
			ev := &evaluator{session: session, cache: cache, memo: make(map[string]dataset.CachedLine), opts: opts}
			for game := range jobs {
				if isStopRequested(stopRequested) {
					return
				}
				gameStart := time.Now()
				row, err := ev.evaluateGame(ctx, game)
				if err != nil && errors.Is(err, errs.ErrEngineProtocolError) {
					if isStopRequested(stopRequested) {
						return
					}
					_ = session.Stop()
					if err := session.Start(ctx); err != nil {
						errCh <- err
						return
					}
					row, err = ev.evaluateGame(ctx, game)
				}
				if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) && isStopRequested(stopRequested) {
					return
				}
				elapsed := time.Since(gameStart).Round(time.Millisecond)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to evaluate %s (%s): %v\n", game.GameID, elapsed, err)
					atomic.AddInt64(&processed, 1)
					continue
				}
				results <- row
				atomic.AddInt64(&processed, 1)
			}
		}()
	}

	workersDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(workersDone)
	}()

	dispatch(games, processedIDs, jobs, stopRequested, workersDone, &processed)
	close(jobs)
	<-workersDone
	close(done)
	close(results)
	writeWg.Wait()
	if err := <-writeErr; err != nil {
		fatal(err)
	}
	if resumeFromExisting {
		if err := os.Rename(outputTarget, *outputPath); err != nil {
			fatal(err)
		}
	}
	close(errCh)
	for err := range errCh {
		if err != nil {
			fatal(err)
		}
	}
	elapsed := time.Since(startTime).Round(time.Second)
	fmt.Fprintf(os.Stderr, "elapsed: %s, processed: %d\n", elapsed, atomic.LoadInt64(&processed))
}

// dispatch hands games to the workers until all are queued, a stop is requested or every
// worker has exited. Games in skip were evaluated by an earlier run and only count as processed.
func dispatch(games []dataset.GameRow, skip map[string]struct{}, jobs chan<- dataset.GameRow, stop, workersDone <-chan struct{}, processed *int64) int {
	queued := 0
	for _, game := range games {
		if _, ok := skip[game.GameID]; ok {
			atomic.AddInt64(processed, 1)
			continue
		}
		select {
		case <-stop:
			return queued
		case <-workersDone:
			return queued
		case jobs <- game:
			queued++
		}
	}
	return queued
}

// evaluator analyses the positions of one game after another on a single session. memo is
// the per-worker front of the shared sqlite cache.
type evaluator struct {
	session *engine.Session
	cache   *dataset.Cache
	memo    map[string]dataset.CachedLine
	opts    options
}

func (e *evaluator) evaluateGame(ctx context.Context, game dataset.GameRow) (dataset.EvalRow, error) {
	row := dataset.NewEvalRow(game, e.opts.depth)
	pos, err := chess.ParseFEN(game.StartFEN)
	if err != nil {
		return dataset.EvalRow{}, err
	}
	for ply, text := range game.MovesUCI {
		if e.opts.maxPly > 0 && ply >= e.opts.maxPly {
			break
		}
		line, err := e.lookup(ctx, pos)
		if err != nil {
			return dataset.EvalRow{}, fmt.Errorf("ply %d: %w", ply, err)
		}
		value := line.ScoreValue
		if pos.Turn() == chess.Black {
			value = -value
		}
		row.MoveEvals = append(row.MoveEvals, dataset.MoveEval{
			Ply:        int32(ply),
			MoveUCI:    text,
			BestMove:   line.BestMove,
			BestSAN:    line.BestSAN,
			ScoreType:  line.ScoreType,
			ScoreValue: int32(value),
			Depth:      int32(line.ReachedDepth),
		})
		next, _, err := pos.ApplyUCI(text)
		if err != nil {
			return dataset.EvalRow{}, fmt.Errorf("ply %d: %w", ply, err)
		}
		pos = next
	}
	return row, nil
}

// lookup returns the primary line for pos, searching only when neither cache has it.
func (e *evaluator) lookup(ctx context.Context, pos chess.Position) (dataset.CachedLine, error) {
	fen := pos.FEN()
	if line, ok := e.memo[fen]; ok {
		return line, nil
	}
	key := dataset.CacheKey{FEN: fen, Depth: e.opts.depth, MultiPV: 1}
	line, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		return dataset.CachedLine{}, err
	}
	if !ok {
		line, err = e.search(ctx, fen)
		if err != nil {
			return dataset.CachedLine{}, err
		}
		if err := e.cache.Put(ctx, key, line); err != nil {
			return dataset.CachedLine{}, err
		}
	}
	e.memo[fen] = line
	return line, nil
}

func (e *evaluator) search(ctx context.Context, fen string) (dataset.CachedLine, error) {
	evalCtx, cancel := context.WithTimeout(ctx, e.opts.timeout)
	defer cancel()
	result, err := e.session.Analyze(evalCtx, engine.Request{FEN: fen, Depth: e.opts.depth, MultiPV: 1})
	if err != nil {
		return dataset.CachedLine{}, err
	}
	best, ok := result.Best()
	if !ok {
		return dataset.CachedLine{}, fmt.Errorf("no principal variation for %s", fen)
	}
	kind, value := engine.ScoreParts(best.Score)
	return dataset.CachedLine{
		BestMove:     best.Move,
		BestSAN:      best.SAN,
		ScoreType:    kind,
		ScoreValue:   value,
		ReachedDepth: best.Depth,
		PV:           best.PV,
	}, nil
}

func loadConfig(path string) (engine.Config, error) {
	if path == "" {
		return engine.Discover()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return engine.Config{}, err
	}
	return engine.LoadConfig(abs)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func isStopRequested(stopRequested <-chan struct{}) bool {
	select {
	case <-stopRequested:
		return true
	default:
		return false
	}
}
