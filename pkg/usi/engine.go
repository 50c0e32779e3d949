// Package usi drives an external USI engine process. The solve tools use it
// to cross-check proofs with the engine's own mate search.
package usi

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrEngineClosed = errors.New("engine is closed")

// quitGrace is how long Close waits for the engine to exit after quit.
const quitGrace = 3 * time.Second

// Engine is a running USI engine process. Its stderr is forwarded to the
// logger line by line so a chatty engine never blocks on a full pipe.
type Engine struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	log    zerolog.Logger

	mu     sync.Mutex
	closed bool
	exited chan error
}

// Start launches path with its own directory as working directory, which is
// where most engines look for their evaluation files.
func Start(ctx context.Context, log zerolog.Logger, path string, args ...string) (*Engine, error) {
	if path == "" {
		return nil, errors.New("engine path is required")
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = filepath.Dir(path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	e := &Engine{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		log:    log.With().Str("engine", filepath.Base(path)).Int("pid", cmd.Process.Pid).Logger(),
		exited: make(chan error, 1),
	}
	// Wait closes the pipes, so stderr must be drained before it is called.
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			e.log.Debug().Str("stderr", scanner.Text()).Msg("engine output")
		}
		e.exited <- cmd.Wait()
	}()
	return e, nil
}

func (e *Engine) Reader() *Reader {
	return NewReader(e.stdout)
}

// Send writes one command line.
func (e *Engine) Send(line string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	e.log.Trace().Str("send", line).Msg("usi")
	_, err := io.WriteString(e.stdin, line+"\n")
	return err
}

// Close sends quit, closes stdin and kills the process if it has not exited
// within quitGrace.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	_, _ = io.WriteString(e.stdin, "quit\n")
	_ = e.stdin.Close()
	e.closed = true
	e.mu.Unlock()

	select {
	case err := <-e.exited:
		return err
	case <-time.After(quitGrace):
		_ = e.cmd.Process.Kill()
		<-e.exited
		return errors.New("engine did not exit in time")
	}
}
