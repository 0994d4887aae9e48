// Package engine drives an external UCI analysis engine: it owns the child process, frames
// requests on the line protocol and decodes search output into ranked candidate moves.
package engine

import (
	"errors"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Process manages a UCI engine child process with piped stdio.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	mu     sync.Mutex
	closed bool
}

// Spawn launches an external UCI engine process. The working directory is the directory of
// the executable so engines find their network and book files.
func Spawn(path string, args ...string) (*Process, error) {
	if path == "" {
		return nil, errors.New("engine path is required")
	}
	if strings.ContainsRune(path, filepath.Separator) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		path = abs
	}
	cmd := exec.Command(path, args...)
	if filepath.IsAbs(path) {
		cmd.Dir = filepath.Dir(path)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = io.Discard
	cmd.WaitDelay = time.Second
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &Process{cmd: cmd, stdin: stdin, stdout: stdout}, nil
}

// Reader returns a protocol reader for engine stdout.
func (p *Process) Reader() *Reader {
	return NewReader(p.stdout)
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Send sends a single command line to the engine.
func (p *Process) Send(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("engine is closed")
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	_, err := io.WriteString(p.stdin, line)
	return err
}

// Close asks the engine to quit and waits up to timeout for it to exit before killing it.
func (p *Process) Close(timeout time.Duration) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	_ = p.Send("quit")
	p.mu.Lock()
	p.closed = true
	_ = p.stdin.Close()
	p.mu.Unlock()
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		_ = p.cmd.Process.Kill()
		<-done
		return errors.New("engine did not exit in time")
	}
}
