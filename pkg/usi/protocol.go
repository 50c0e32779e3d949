package usi

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type EventType int

const (
	EventUnknown EventType = iota
	EventID
	EventUSIOK
	EventReadyOK
	EventInfo
	EventBestMove
	EventCheckmate
)

// Event is a parsed line of engine output.
type Event struct {
	Type   EventType
	Key    string
	Value  string
	Move   string
	Ponder string
	// Mate is the answer to "go mate": the mating line, or nil with
	// MateStatus set.
	Mate       []string
	MateStatus MateStatus
	Raw        string
}

// MateStatus is the outcome reported on a checkmate line.
type MateStatus int

const (
	MateFound MateStatus = iota
	MateNone
	MateTimeout
	MateNotImplemented
)

func (s MateStatus) String() string {
	switch s {
	case MateFound:
		return "found"
	case MateNone:
		return "nomate"
	case MateTimeout:
		return "timeout"
	default:
		return "notimplemented"
	}
}

// ParseLine converts a raw line into an Event.
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
		return Event{Type: EventID, Key: fields[1], Value: strings.Join(fields[2:], " ")}, nil
	case "usiok":
		return Event{Type: EventUSIOK}, nil
	case "readyok":
		return Event{Type: EventReadyOK}, nil
	case "bestmove":
		if len(fields) < 2 {
			return Event{}, fmt.Errorf("invalid bestmove: %q", line)
		}
		e := Event{Type: EventBestMove, Move: fields[1]}
		if len(fields) >= 4 && fields[2] == "ponder" {
			e.Ponder = fields[3]
		}
		return e, nil
	case "checkmate":
		if len(fields) < 2 {
			return Event{}, fmt.Errorf("invalid checkmate: %q", line)
		}
		e := Event{Type: EventCheckmate, Raw: line}
		switch fields[1] {
		case "nomate":
			e.MateStatus = MateNone
		case "timeout":
			e.MateStatus = MateTimeout
		case "notimplemented":
			e.MateStatus = MateNotImplemented
		default:
			e.MateStatus = MateFound
			e.Mate = fields[1:]
		}
		return e, nil
	case "info":
		return Event{Type: EventInfo, Raw: line}, nil
	default:
		return Event{Type: EventUnknown, Raw: line}, nil
	}
}

// Reader reads events from engine stdout.
type Reader struct {
	scanner *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next blocks until a line is available or EOF occurs.
func (r *Reader) Next() (Event, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return Event{}, err
		}
		return Event{}, io.EOF
	}
	return ParseLine(r.scanner.Text())
}

// Score is an engine evaluation from the side to move, or from Black when
// returned by Session.Evaluate.
type Score struct {
	Kind  string
	Value int
}

func (s Score) String() string {
	switch s.Kind {
	case "cp":
		return fmt.Sprintf("cp %d", s.Value)
	case "mate":
		return fmt.Sprintf("mate %d", s.Value)
	}
	return "unknown"
}

func parseInfoScore(line string) (Score, bool) {
	fields := strings.Fields(line)
	for i := 0; i+2 < len(fields); i++ {
		if fields[i] != "score" {
			continue
		}
		kind := fields[i+1]
		if kind != "cp" && kind != "mate" {
			return Score{}, false
		}
		value, err := strconv.Atoi(fields[i+2])
		if err != nil {
			return Score{}, false
		}
		return Score{Kind: kind, Value: value}, true
	}
	return Score{}, false
}
