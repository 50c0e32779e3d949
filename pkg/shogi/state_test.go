package shogi_test

import (
	"errors"
	"testing"

	"tsume/pkg/shogi"
)

func mustState(t *testing.T, sfen string) *shogi.State {
	t.Helper()
	st, err := shogi.NewStateFromSFEN(sfen, shogi.DefaultStateConfig())
	if err != nil {
		t.Fatalf("state from %q: %v", sfen, err)
	}
	return st
}

func doMoves(t *testing.T, st *shogi.State, moves ...string) {
	t.Helper()
	for _, usi := range moves {
		m, err := shogi.ParseMoveUSI(st.Position(), usi)
		if err != nil {
			t.Fatalf("move %s: %v", usi, err)
		}
		st.DoMove(m)
	}
}

// TestDoUndoRestoresPositionAndHash walks a tree two plies deep and checks
// that every undo restores the exact position and hash.
func TestDoUndoRestoresPositionAndHash(t *testing.T) {
	for _, sfen := range []string{
		shogi.StartSFEN,
		"l6nl/5+P1gk/2np1S3/p1p4Pp/3P2Sp1/1PPb2P1P/P5GS1/R8/LN4bKL w RGgsn5p 1",
	} {
		st := mustState(t, sfen)
		rootPos := *st.Position()
		rootHash := st.Hash()
		for _, m := range st.LegalMoves(false) {
			st.DoMove(m)
			if st.Hash() != st.Position().ComputeHash() {
				t.Fatalf("%s: incremental hash differs after %s", sfen, m)
			}
			midPos := *st.Position()
			midHash := st.Hash()
			for _, reply := range st.LegalMoves(false) {
				st.DoMove(reply)
				if st.Hash() != st.Position().ComputeHash() {
					t.Fatalf("%s: incremental hash differs after %s %s", sfen, m, reply)
				}
				if st.BoardHash() != st.Position().ComputeBoardHash() {
					t.Fatalf("%s: board hash differs after %s %s", sfen, m, reply)
				}
				st.UndoMove()
				if *st.Position() != midPos || st.Hash() != midHash {
					t.Fatalf("%s: undo of %s did not restore", sfen, reply)
				}
			}
			if got := st.UndoMove(); got != m {
				t.Fatalf("undo returned %s want %s", got, m)
			}
			if *st.Position() != rootPos || st.Hash() != rootHash {
				t.Fatalf("%s: undo of %s did not restore", sfen, m)
			}
		}
	}
}

// TestHashDistinguishesSideToMove verifies the side key.
func TestHashDistinguishesSideToMove(t *testing.T) {
	black := mustPosition(t, "4k4/9/9/9/9/9/9/9/4K4 b - 1")
	white := mustPosition(t, "4k4/9/9/9/9/9/9/9/4K4 w - 1")
	if black.ComputeHash() == white.ComputeHash() {
		t.Fatal("side to move must change the hash")
	}
	withHand := mustPosition(t, "4k4/9/9/9/9/9/9/9/4K4 b P 1")
	if black.ComputeBoardHash() != withHand.ComputeBoardHash() {
		t.Fatal("board hash must ignore stands")
	}
	if black.ComputeHash() == withHand.ComputeHash() {
		t.Fatal("full hash must cover stands")
	}
}

// TestHistoryQueries verifies the recoverable history errors.
func TestHistoryQueries(t *testing.T) {
	st := mustState(t, "startpos")
	if _, err := st.LastMove(); !errors.Is(err, shogi.ErrNoHistory) {
		t.Fatalf("last move on empty history: got %v", err)
	}
	doMoves(t, st, "7g7f", "3c3d")
	m, err := st.HistoryMove(0)
	if err != nil || m.USI() != "7g7f" {
		t.Fatalf("history move 0: got %v, %v", m, err)
	}
	last, err := st.LastMove()
	if err != nil || last.USI() != "3c3d" {
		t.Fatalf("last move: got %v, %v", last, err)
	}
	if _, err := st.HistoryMove(2); !errors.Is(err, shogi.ErrPlyOutOfRange) {
		t.Fatalf("history move 2: got %v", err)
	}
	if _, err := st.HistoryMove(-1); !errors.Is(err, shogi.ErrPlyOutOfRange) {
		t.Fatalf("history move -1: got %v", err)
	}
	if st.Ply() != 2 {
		t.Fatalf("ply: got %d want 2", st.Ply())
	}
}

// TestUndoOnEmptyHistoryPanics verifies misuse is not silently ignored.
func TestUndoOnEmptyHistoryPanics(t *testing.T) {
	st := mustState(t, "startpos")
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	st.UndoMove()
}

// TestCloneIsIndependent verifies that a clone shares no mutable state.
func TestCloneIsIndependent(t *testing.T) {
	st := mustState(t, "startpos moves 7g7f 3c3d")
	clone := st.Clone()
	doMoves(t, clone, "8h2b+")
	if st.Ply() != 2 || clone.Ply() != 3 {
		t.Fatalf("ply after clone move: original %d clone %d", st.Ply(), clone.Ply())
	}
	if st.Hash() == clone.Hash() {
		t.Fatal("clone move leaked into original hash")
	}
	doMoves(t, st, "2g2f")
	if last, _ := clone.LastMove(); last.USI() != "8h2b+" {
		t.Fatalf("original move leaked into clone history: %s", last)
	}
	clone.UndoMove()
	clone.UndoMove()
	st.UndoMove()
	st.UndoMove()
	if st.Hash() != clone.Hash() {
		t.Fatal("clone diverged after undo")
	}
}

// TestMove32FromMove16 verifies the compact form restores every legal move.
func TestMove32FromMove16(t *testing.T) {
	st := mustState(t, "l6nl/5+P1gk/2np1S3/p1p4Pp/3P2Sp1/1PPb2P1P/P5GS1/R8/LN4bKL w RGgsn5p 1")
	for _, m := range st.LegalMoves(false) {
		if got := st.Move32FromMove16(m.Move16()); got != m {
			t.Fatalf("move16 round trip: got %s want %s", got, m)
		}
	}
	if st.Move32FromMove16(shogi.MoveWin.Move16()) != shogi.MoveWin {
		t.Fatal("win move did not round trip")
	}
	if st.Move32FromMove16(shogi.MoveNone.Move16()) != shogi.MoveNone {
		t.Fatal("none move did not round trip")
	}
}

// TestIsMaxPly verifies the ply cutoff counts the SFEN move number.
func TestIsMaxPly(t *testing.T) {
	cfg := shogi.DefaultStateConfig()
	cfg.MaxPly = 4
	st, err := shogi.NewStateFromSFEN("lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 3 moves 7g7f", cfg)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.IsMaxPly() {
		t.Fatal("ply 3 should be below the cutoff")
	}
	doMoves(t, st, "3c3d")
	if !st.IsMaxPly() {
		t.Fatal("ply 4 should reach the cutoff")
	}
}

// TestContinuousChecks verifies the per-color consecutive check counters.
func TestContinuousChecks(t *testing.T) {
	st := mustState(t, "2k6/9/KR7/9/9/9/9/9/9 b - 1")
	doMoves(t, st, "8c7c", "7a8a", "7c8c")
	if got := st.ContinuousChecks(shogi.Black); got != 2 {
		t.Fatalf("black checks: got %d want 2", got)
	}
	if got := st.ContinuousChecks(shogi.White); got != 0 {
		t.Fatalf("white checks: got %d want 0", got)
	}
	if !st.InCheck() {
		t.Fatal("white should be in check")
	}
	st.UndoMove()
	if got := st.ContinuousChecks(shogi.Black); got != 1 {
		t.Fatalf("black checks after undo: got %d want 1", got)
	}
}
