package shogi_test

import (
	"testing"

	"tsume/pkg/shogi"
)

// TestBitboardSetClear verifies single-square membership on both words.
func TestBitboardSetClear(t *testing.T) {
	for _, sq := range []shogi.Square{0, 40, 62, 63, 80} {
		bb := shogi.SquareBB(sq)
		if !bb.Test(sq) {
			t.Fatalf("square %s should be set", sq)
		}
		if bb.PopCount() != 1 {
			t.Fatalf("square %s: popcount %d", sq, bb.PopCount())
		}
		if !bb.Clear(sq).IsZero() {
			t.Fatalf("square %s: clear left bits", sq)
		}
	}
	if shogi.EmptyBB.Test(shogi.SquareInvalid) {
		t.Fatal("invalid square must never test set")
	}
}

// TestBitboardNotStaysOnBoard verifies that Not only covers the 81 squares.
func TestBitboardNotStaysOnBoard(t *testing.T) {
	if got := shogi.EmptyBB.Not().PopCount(); got != shogi.NumSquares {
		t.Fatalf("not(empty) popcount: got %d want %d", got, shogi.NumSquares)
	}
	if !shogi.FullBB.Not().IsZero() {
		t.Fatal("not(full) should be empty")
	}
	if shogi.FullBB.Xor(shogi.FullBB) != shogi.EmptyBB {
		t.Fatal("full xor full should be empty")
	}
}

// TestBitboardPopFirstOrder verifies ascending iteration across both words.
func TestBitboardPopFirstOrder(t *testing.T) {
	squares := []shogi.Square{3, 17, 62, 63, 64, 80}
	var bb shogi.Bitboard
	for i := len(squares) - 1; i >= 0; i-- {
		bb = bb.Set(squares[i])
	}
	if bb.First() != squares[0] {
		t.Fatalf("first: got %s want %s", bb.First(), squares[0])
	}
	var got []shogi.Square
	bb.ForEach(func(sq shogi.Square) { got = append(got, sq) })
	if len(got) != len(squares) {
		t.Fatalf("foreach visited %d squares, want %d", len(got), len(squares))
	}
	for i := range squares {
		if got[i] != squares[i] {
			t.Fatalf("order mismatch at %d: got %s want %s", i, got[i], squares[i])
		}
	}
	for _, want := range squares {
		if sq := bb.PopFirst(); sq != want {
			t.Fatalf("popfirst: got %s want %s", sq, want)
		}
	}
	if bb.PopFirst() != shogi.SquareInvalid {
		t.Fatal("popfirst on empty board should return SquareInvalid")
	}
}

// TestSquareNotation verifies the file/rank mapping used by USI.
func TestSquareNotation(t *testing.T) {
	cases := []struct {
		file, rank int
		want       string
	}{
		{0, 0, "1a"},
		{4, 4, "5e"},
		{8, 8, "9i"},
		{6, 6, "7g"},
	}
	for _, tc := range cases {
		sq := shogi.MakeSquare(tc.file, tc.rank)
		if sq.String() != tc.want {
			t.Fatalf("square(%d,%d): got %s want %s", tc.file, tc.rank, sq, tc.want)
		}
		if sq.File() != tc.file || sq.Rank() != tc.rank {
			t.Fatalf("square %s: file/rank round trip failed", sq)
		}
	}
}
