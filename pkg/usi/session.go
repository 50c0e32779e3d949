package usi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var ErrStdoutClosed = errors.New("engine stdout closed")

// Session is an Engine with a background reader feeding an event channel.
type Session struct {
	engine *Engine
	reader *Reader
	events chan Event
	errCh  chan error
}

// Option is a setoption name/value pair sent during the handshake.
type Option struct {
	Name  string
	Value string
}

// DefaultOptions keep an engine single-threaded with a modest hash.
var DefaultOptions = []Option{
	{Name: "Threads", Value: "1"},
	{Name: "USI_Hash", Value: "256"},
}

// StartSession launches a USI engine and starts a reader goroutine.
func StartSession(ctx context.Context, log zerolog.Logger, path string, args ...string) (*Session, error) {
	engine, err := Start(ctx, log, path, args...)
	if err != nil {
		return nil, err
	}
	reader := engine.Reader()
	events := make(chan Event, 64)
	errCh := make(chan error, 1)
	go func() {
		defer close(events)
		for {
			event, err := reader.Next()
			if err != nil {
				select {
				case errCh <- err:
				default:
				}
				return
			}
			events <- event
		}
	}()
	return &Session{engine: engine, reader: reader, events: events, errCh: errCh}, nil
}

func (s *Session) Close() error {
	if s == nil || s.engine == nil {
		return nil
	}
	return s.engine.Close()
}

// Handshake runs usi/isready and sends options in between.
func (s *Session) Handshake(ctx context.Context, options ...Option) error {
	if err := s.engine.Send("usi"); err != nil {
		return err
	}
	if _, err := s.waitForEvent(ctx, EventUSIOK); err != nil {
		return err
	}
	for _, opt := range options {
		if err := s.engine.Send(fmt.Sprintf("setoption name %s value %s", opt.Name, opt.Value)); err != nil {
			return err
		}
	}
	if err := s.engine.Send("isready"); err != nil {
		return err
	}
	if _, err := s.waitForEvent(ctx, EventReadyOK); err != nil {
		return err
	}
	return s.engine.Send("usinewgame")
}

// Mate asks the engine for a checkmate search of sfen with "go mate".
func (s *Session) Mate(ctx context.Context, sfen string, millis int) (Event, error) {
	if err := s.engine.Send("position sfen " + sfen); err != nil {
		return Event{}, err
	}
	if millis <= 0 {
		millis = 1
	}
	if err := s.engine.Send(fmt.Sprintf("go mate %d", millis)); err != nil {
		return Event{}, err
	}
	return s.waitForEvent(ctx, EventCheckmate)
}

// Evaluate runs "go movetime" on sfen and returns the last score, from
// Black's point of view, with the engine's best move.
func (s *Session) Evaluate(ctx context.Context, sfen string, millis int) (Score, string, error) {
	if err := s.engine.Send("position sfen " + sfen); err != nil {
		return Score{}, "", err
	}
	if millis <= 0 {
		millis = 1
	}
	if err := s.engine.Send(fmt.Sprintf("go movetime %d", millis)); err != nil {
		return Score{}, "", err
	}
	turn := "b"
	if fields := strings.Fields(sfen); len(fields) >= 2 {
		turn = fields[1]
	}

	var score Score
	haveScore := false
	for {
		event, err := s.nextEvent(ctx)
		if err != nil {
			return Score{}, "", err
		}
		switch event.Type {
		case EventInfo:
			if parsed, ok := parseInfoScore(event.Raw); ok {
				score = parsed
				haveScore = true
			}
		case EventBestMove:
			if !haveScore {
				return Score{}, event.Move, errors.New("no score in engine output")
			}
			if turn == "w" {
				score.Value = -score.Value
			}
			return score, event.Move, nil
		}
	}
}

func (s *Session) waitForEvent(ctx context.Context, want EventType) (Event, error) {
	for {
		event, err := s.nextEvent(ctx)
		if err != nil {
			return Event{}, err
		}
		if event.Type == want {
			return event, nil
		}
	}
}

func (s *Session) nextEvent(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case err := <-s.errCh:
		if err == nil {
			return Event{}, ErrStdoutClosed
		}
		return Event{}, err
	case event, ok := <-s.events:
		if !ok {
			return Event{}, ErrStdoutClosed
		}
		return event, nil
	}
}
