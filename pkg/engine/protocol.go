package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Reader reads and parses UCI protocol lines from the engine.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader creates a Reader for engine stdout.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Reader{scanner: sc}
}

// ParseLine converts a raw line into a protocol event.
func ParseLine(line string) (Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, errors.New("empty line")
	}
	fields := strings.Fields(line)
	switch fields[0] {
	case "id":
		if len(fields) < 3 {
			return Event{}, fmt.Errorf("invalid id: %q", line)
		}
		return Event{Type: EventID, Key: fields[1], Value: strings.Join(fields[2:], " "), Raw: line}, nil
	case "uciok":
		return Event{Type: EventUCIOK, Raw: line}, nil
	case "readyok":
		return Event{Type: EventReadyOK, Raw: line}, nil
	case "bestmove":
		if len(fields) < 2 {
			return Event{}, fmt.Errorf("invalid bestmove: %q", line)
		}
		e := Event{Type: EventBestMove, Move: fields[1], Raw: line}
		if len(fields) >= 4 && fields[2] == "ponder" {
			e.Ponder = fields[3]
		}
		return e, nil
	case "info":
		return Event{Type: EventInfo, Raw: line}, nil
	case "option":
		e := Event{Type: EventOption, Raw: line}
		if len(fields) >= 3 && fields[1] == "name" {
			end := len(fields)
			for i := 2; i < len(fields); i++ {
				if fields[i] == "type" {
					end = i
					break
				}
			}
			e.Key = strings.Join(fields[2:end], " ")
		}
		return e, nil
	default:
		return Event{Type: EventUnknown, Raw: line}, nil
	}
}

// Next blocks until a non-empty line is available or EOF occurs.
func (r *Reader) Next() (Event, error) {
	for {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return Event{}, err
			}
			return Event{}, io.EOF
		}
		if strings.TrimSpace(r.scanner.Text()) == "" {
			continue
		}
		return ParseLine(r.scanner.Text())
	}
}

// EventType represents a UCI protocol event type.
type EventType int

const (
	EventUnknown EventType = iota
	EventID
	EventUCIOK
	EventReadyOK
	EventInfo
	EventBestMove
	EventOption
)

// Event is a parsed UCI protocol line.
type Event struct {
	Type   EventType
	Key    string
	Value  string
	Move   string
	Ponder string
	Raw    string
}
