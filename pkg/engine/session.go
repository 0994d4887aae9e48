package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"elucidate/pkg/chess"
	"elucidate/pkg/errs"
)

// State is the lifecycle state of a Session.
type State int

const (
	Stopped State = iota
	Starting
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "stopped"
	}
}

// Request is one analysis request.
type Request struct {
	FEN     string
	Depth   int
	MultiPV int
}

func (r Request) validate() error {
	if r.Depth < MinDepth || r.Depth > MaxDepth {
		return errs.Newf(errs.InvalidRequest, "depth %d outside %d..%d", r.Depth, MinDepth, MaxDepth)
	}
	if r.MultiPV < MinMultiPV || r.MultiPV > MaxMultiPV {
		return errs.Newf(errs.InvalidRequest, "multipv %d outside %d..%d", r.MultiPV, MinMultiPV, MaxMultiPV)
	}
	return nil
}

// AnalysisResult is the decoded outcome of one search.
type AnalysisResult struct {
	FEN        string
	Depth      int
	MultiPV    int
	Candidates []CandidateMove
	BestMove   string
	Ponder     string
	// DecodeErrors lists lines dropped because their moves did not fit the position.
	DecodeErrors []DecodeError
}

// Best returns the rank 1 candidate, if any.
func (r AnalysisResult) Best() (CandidateMove, bool) {
	if len(r.Candidates) == 0 || r.Candidates[0].Rank != 1 {
		return CandidateMove{}, false
	}
	return r.Candidates[0], true
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger for lifecycle messages.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// Session owns one engine process. Analyses are serialized: concurrent callers queue in
// arrival order and each sees the process only after the previous search has finished.
type Session struct {
	cfg   Config
	log   *log.Logger
	guard *semaphore.Weighted

	lifecycle sync.Mutex // serializes Start and Stop

	mu    sync.Mutex
	state State
	conn  *conn
	name  string
}

// NewSession creates a stopped session for the configured engine.
func NewSession(cfg Config, opts ...Option) *Session {
	s := &Session{
		cfg:   cfg,
		log:   log.New(io.Discard, "", 0),
		guard: semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EngineName returns the name the engine reported during the handshake.
func (s *Session) EngineName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Start spawns the engine and performs the handshake. It is a no-op when the session is
// already Ready. A Failed session must be stopped first.
func (s *Session) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	switch s.state {
	case Ready:
		s.mu.Unlock()
		return nil
	case Failed:
		s.mu.Unlock()
		return errs.New(errs.EngineNotReady, "engine session failed; call Stop before Start")
	}
	s.state = Starting
	s.mu.Unlock()

	c, name, err := s.open(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Stopped
		s.log.Printf("engine start failed: %v", err)
		return err
	}
	s.state, s.conn, s.name = Ready, c, name
	s.log.Printf("engine ready: %s (pid %d)", name, c.proc.Pid())
	return nil
}

func (s *Session) open(ctx context.Context) (*conn, string, error) {
	proc, err := Spawn(s.cfg.Engine, s.cfg.Args...)
	if err != nil {
		return nil, "", errs.Wrap(errs.EngineUnavailable, "spawn engine", err)
	}
	c := newConn(proc)
	hctx, cancel := context.WithTimeout(ctx, s.cfg.HandshakeTimeout())
	defer cancel()
	name, err := s.handshake(hctx, c)
	if err != nil {
		_ = c.close(s.cfg.QuitTimeout())
		return nil, "", errs.Wrap(errs.EngineUnavailable, "engine handshake", err)
	}
	return c, name, nil
}

func (s *Session) handshake(ctx context.Context, c *conn) (string, error) {
	if err := c.proc.Send("uci"); err != nil {
		return "", err
	}
	name := ""
	for {
		event, err := c.nextEvent(ctx)
		if err != nil {
			return "", err
		}
		if event.Type == EventID && event.Key == "name" {
			name = event.Value
		}
		if event.Type == EventUCIOK {
			break
		}
	}
	if s.cfg.Threads > 0 {
		if err := c.proc.Send(fmt.Sprintf("setoption name Threads value %d", s.cfg.Threads)); err != nil {
			return "", err
		}
	}
	if s.cfg.HashMB > 0 {
		if err := c.proc.Send(fmt.Sprintf("setoption name Hash value %d", s.cfg.HashMB)); err != nil {
			return "", err
		}
	}
	if err := c.proc.Send("isready"); err != nil {
		return "", err
	}
	if _, err := c.waitForEvent(ctx, EventReadyOK); err != nil {
		return "", err
	}
	return name, nil
}

// Stop quits the engine process and returns the session to Stopped. It is idempotent.
func (s *Session) Stop() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	c := s.conn
	s.conn = nil
	s.state = Stopped
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	if err := c.close(s.cfg.QuitTimeout()); err != nil {
		s.log.Printf("engine stop: %v", err)
	}
	s.log.Printf("engine stopped")
	return nil
}

// Analyze searches req.FEN to req.Depth with req.MultiPV lines.
//
// If ctx ends first, Analyze returns ctx.Err() at once and the engine is told to stop; the
// session keeps the process busy until the engine answers, so the next queued request starts
// on a clean stream.
func (s *Session) Analyze(ctx context.Context, req Request) (AnalysisResult, error) {
	if st := s.State(); st != Ready {
		return AnalysisResult{}, errs.Newf(errs.EngineNotReady, "engine session is %s", st)
	}
	if err := req.validate(); err != nil {
		return AnalysisResult{}, err
	}
	pos, err := chess.ParseFEN(req.FEN)
	if err != nil {
		return AnalysisResult{}, err
	}
	if err := s.guard.Acquire(ctx, 1); err != nil {
		return AnalysisResult{}, err
	}

	s.mu.Lock()
	c, st := s.conn, s.state
	s.mu.Unlock()
	if st != Ready || c == nil {
		s.guard.Release(1)
		return AnalysisResult{}, errs.Newf(errs.EngineNotReady, "engine session is %s", st)
	}

	type outcome struct {
		result AnalysisResult
		err    error
	}
	done := make(chan outcome, 1)
	cancel := make(chan struct{})
	go func() {
		defer s.guard.Release(1)
		result, err := s.search(c, pos, req, cancel)
		if errors.Is(err, errs.ErrEngineProtocolError) {
			s.fail(c, err)
		}
		done <- outcome{result, err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		close(cancel)
		s.log.Printf("analysis of %s abandoned: %v", req.FEN, ctx.Err())
		return AnalysisResult{}, ctx.Err()
	}
}

// QuickEval is a shallow single-line analysis.
func (s *Session) QuickEval(ctx context.Context, fen string) (AnalysisResult, error) {
	return s.Analyze(ctx, Request{FEN: fen, Depth: QuickEvalDepth, MultiPV: 1})
}

// DeepAnalysis is a deep multi-line analysis. lines <= 0 means DeepAnalysisLines.
func (s *Session) DeepAnalysis(ctx context.Context, fen string, lines int) (AnalysisResult, error) {
	if lines <= 0 {
		lines = DeepAnalysisLines
	}
	return s.Analyze(ctx, Request{FEN: fen, Depth: DeepAnalysisDepth, MultiPV: lines})
}

// search runs one request to completion on c. Closing cancel before the search command is
// sent skips the search; closing it afterwards sends "stop" and still waits for bestmove.
func (s *Session) search(c *conn, pos chess.Position, req Request, cancel <-chan struct{}) (AnalysisResult, error) {
	send := func(line string) error {
		if err := c.proc.Send(line); err != nil {
			return errs.Wrap(errs.EngineProtocolError, "send "+line, err)
		}
		return nil
	}
	if err := send(fmt.Sprintf("setoption name MultiPV value %d", req.MultiPV)); err != nil {
		return AnalysisResult{}, err
	}
	if err := send("isready"); err != nil {
		return AnalysisResult{}, err
	}
	if _, err := c.waitForEvent(context.Background(), EventReadyOK); err != nil {
		return AnalysisResult{}, errs.Wrap(errs.EngineProtocolError, "waiting for readyok", err)
	}
	select {
	case <-cancel:
		return AnalysisResult{}, context.Canceled
	default:
	}

	fen := pos.FEN()
	if err := send("position fen " + fen); err != nil {
		return AnalysisResult{}, err
	}
	if err := send(fmt.Sprintf("go depth %d", req.Depth)); err != nil {
		return AnalysisResult{}, err
	}

	var lines []string
	stop := cancel
	for {
		select {
		case <-stop:
			stop = nil
			_ = c.proc.Send("stop")
		case event, ok := <-c.events:
			if !ok {
				return AnalysisResult{}, errs.Wrap(errs.EngineProtocolError, "engine output ended mid-analysis", c.readErr())
			}
			switch event.Type {
			case EventInfo:
				lines = append(lines, event.Raw)
			case EventBestMove:
				candidates, dropped, err := Decode(lines, pos, req.MultiPV)
				if err != nil {
					return AnalysisResult{}, err
				}
				return AnalysisResult{
					FEN:          fen,
					Depth:        req.Depth,
					MultiPV:      req.MultiPV,
					Candidates:   candidates,
					BestMove:     event.Move,
					Ponder:       event.Ponder,
					DecodeErrors: dropped,
				}, nil
			}
		}
	}
}

func (s *Session) fail(c *conn, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != c || s.state != Ready {
		return
	}
	s.state = Failed
	s.log.Printf("engine session failed: %v", err)
}

// conn is a running process plus the reader goroutine feeding its events.
type conn struct {
	proc   *Process
	events chan Event
	errCh  chan error
	done   chan struct{}
	once   sync.Once
}

func newConn(proc *Process) *conn {
	c := &conn{
		proc:   proc,
		events: make(chan Event, 64),
		errCh:  make(chan error, 1),
		done:   make(chan struct{}),
	}
	reader := proc.Reader()
	go func() {
		defer close(c.events)
		for {
			event, err := reader.Next()
			if err != nil {
				c.errCh <- err
				return
			}
			select {
			case c.events <- event:
			case <-c.done:
				return
			}
		}
	}()
	return c
}

func (c *conn) close(timeout time.Duration) error {
	c.once.Do(func() { close(c.done) })
	return c.proc.Close(timeout)
}

func (c *conn) waitForEvent(ctx context.Context, want EventType) (Event, error) {
	for {
		event, err := c.nextEvent(ctx)
		if err != nil {
			return Event{}, err
		}
		if event.Type == want {
			return event, nil
		}
	}
}

func (c *conn) nextEvent(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case event, ok := <-c.events:
		if !ok {
			return Event{}, c.readErr()
		}
		return event, nil
	}
}

// readErr returns why the event stream ended. Only valid once events is closed.
func (c *conn) readErr() error {
	select {
	case err := <-c.errCh:
		if err != nil && err != io.EOF {
			c.errCh <- err
			return err
		}
	default:
	}
	return errors.New("engine stdout closed")
}
