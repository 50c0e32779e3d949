package usi_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tsume/pkg/config"
	"tsume/pkg/shogi"
	"tsume/pkg/usi"
)

// TestParseLine verifies protocol lines map to events.
func TestParseLine(t *testing.T) {
	cases := []struct {
		line   string
		typ    usi.EventType
		check  func(usi.Event) bool
		hasErr bool
	}{
		{"id name Test Engine", usi.EventID, func(e usi.Event) bool { return e.Key == "name" && e.Value == "Test Engine" }, false},
		{"usiok", usi.EventUSIOK, nil, false},
		{"readyok", usi.EventReadyOK, nil, false},
		{"bestmove 7g7f ponder 3c3d", usi.EventBestMove, func(e usi.Event) bool { return e.Move == "7g7f" && e.Ponder == "3c3d" }, false},
		{"checkmate G*5b", usi.EventCheckmate, func(e usi.Event) bool {
			return e.MateStatus == usi.MateFound && len(e.Mate) == 1 && e.Mate[0] == "G*5b"
		}, false},
		{"checkmate nomate", usi.EventCheckmate, func(e usi.Event) bool { return e.MateStatus == usi.MateNone && e.Mate == nil }, false},
		{"checkmate timeout", usi.EventCheckmate, func(e usi.Event) bool { return e.MateStatus == usi.MateTimeout }, false},
		{"info depth 3 score cp 120", usi.EventInfo, nil, false},
		{"option name Threads type spin", usi.EventUnknown, nil, false},
		{"", 0, nil, true},
		{"bestmove", 0, nil, true},
		{"checkmate", 0, nil, true},
	}
	for _, tc := range cases {
		e, err := usi.ParseLine(tc.line)
		if tc.hasErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.line)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.line, err)
		}
		if e.Type != tc.typ {
			t.Fatalf("%q: type %d want %d", tc.line, e.Type, tc.typ)
		}
		if tc.check != nil && !tc.check(e) {
			t.Fatalf("%q: unexpected event %+v", tc.line, e)
		}
	}
}

const fakeEngine = `#!/bin/sh
while read -r line; do
	case "$line" in
	usi)
		i=0
		while [ $i -lt 2000 ]; do echo "loading evaluation block $i of 2000" >&2; i=$((i+1)); done
		echo "id name fake"; echo "usiok" ;;
	isready) echo "readyok" ;;
	"go mate"*) echo "info string mate search"; echo "checkmate G*5b" ;;
	"go movetime"*) echo "info depth 1 score cp 250 pv G*5b"; echo "bestmove G*5b" ;;
	quit) exit 0 ;;
	esac
done
`

// TestSessionWithScriptEngine runs a session against a scripted engine that
// writes more to stderr than a pipe buffer holds.
func TestSessionWithScriptEngine(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "engine.sh")
	if err := os.WriteFile(path, []byte(fakeEngine), 0o755); err != nil {
		t.Fatalf("write engine: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	session, err := usi.StartSession(ctx, zerolog.Nop(), path)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer session.Close()
	if err := session.Handshake(ctx, usi.DefaultOptions...); err != nil {
		t.Fatalf("handshake: %v", err)
	}
	sfen := "4k4/9/4P4/9/9/9/9/9/K8 w G2r2b3g4s4n4l17p 1"
	mate, err := session.Mate(ctx, sfen, 100)
	if err != nil {
		t.Fatalf("mate: %v", err)
	}
	if mate.MateStatus != usi.MateFound || strings.Join(mate.Mate, " ") != "G*5b" {
		t.Fatalf("mate: got %+v", mate)
	}
	score, move, err := session.Evaluate(ctx, sfen, 10)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if move != "G*5b" || score.Kind != "cp" || score.Value != -250 {
		t.Fatalf("evaluate: got %s %s", score, move)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := session.Handshake(ctx); !errors.Is(err, usi.ErrEngineClosed) {
		t.Fatalf("handshake after close: got %v", err)
	}
}

// TestEngineMateAgreesWithSolver cross-checks a mate against the configured
// engine when one is installed.
func TestEngineMateAgreesWithSolver(t *testing.T) {
	cfgPath, root, err := config.FindConfigPath()
	if err != nil {
		t.Skipf("no config.json: %v", err)
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	enginePath := cfg.Engine
	if enginePath == "" {
		t.Skip("config.json has no engine")
	}
	if !filepath.IsAbs(enginePath) {
		enginePath = filepath.Join(root, enginePath)
	}
	if _, err := os.Stat(enginePath); err != nil {
		t.Skipf("engine binary not found at %s: %v", enginePath, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	session, err := usi.StartSession(ctx, zerolog.Nop(), enginePath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer session.Close()
	if err := session.Handshake(ctx, usi.DefaultOptions...); err != nil {
		t.Skipf("engine handshake failed: %v", err)
	}
	sfen := "4k4/9/4P4/9/9/9/9/9/K8 b G2r2b3g4s4n4l17p 1"
	mate, err := session.Mate(ctx, sfen, 1000)
	if err != nil {
		t.Fatalf("mate: %v", err)
	}
	if mate.MateStatus == usi.MateNotImplemented {
		t.Skip("engine has no mate search")
	}
	if mate.MateStatus != usi.MateFound || len(mate.Mate) != 1 {
		t.Fatalf("engine answer: %+v", mate)
	}
	pos, err := shogi.ParseSFEN(sfen)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !shogi.IsValidMoveUSI(&pos, mate.Mate[0]) {
		t.Fatalf("engine move %s is illegal", mate.Mate[0])
	}
}
