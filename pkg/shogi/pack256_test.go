package shogi_test

import (
	"strconv"
	"strings"
	"testing"

	"tsume/pkg/shogi"
)

func assertPackRoundTrip(t *testing.T, sfen string) {
	t.Helper()

	pos, err := shogi.ParseSFEN(sfen)
	if err != nil {
		t.Fatalf("failed to parse sfen: %v", err)
	}
	packed, err := shogi.PackPosition256(&pos)
	if err != nil {
		t.Fatalf("failed to pack sfen: %v", err)
	}
	unpacked, err := shogi.UnpackPosition256(packed)
	if err != nil {
		t.Fatalf("failed to unpack sfen: %v", err)
	}
	got := unpacked.ToSFEN(parseMoveNumber(sfen))
	if got != sfen {
		t.Fatalf("pack/unpack mismatch: got %s want %s", got, sfen)
	}
}

func parseMoveNumber(sfen string) int {
	fields := strings.Fields(sfen)
	if len(fields) >= 4 {
		if move, err := strconv.Atoi(fields[3]); err == nil {
			return move
		}
	}
	return 1
}

// TestPackRoundTrip verifies full-set positions with promotions and hands.
func TestPackRoundTrip(t *testing.T) {
	for _, sfen := range []string{
		shogi.StartSFEN,
		"l6nl/5+P1gk/2np1S3/p1p4Pp/3P2Sp1/1PPb2P1P/P5GS1/R8/LN4bKL w RGgsn5p 1",
		"lnsg3nl/1r2k1gs1/p1ppppp1p/9/1p7/9/PPPPPPP1P/1BG6/LNS1KGSNL b BPrp 13",
	} {
		assertPackRoundTrip(t, sfen)
	}
}

// TestPackDistinguishesPositions verifies that packing keeps positions apart.
func TestPackDistinguishesPositions(t *testing.T) {
	st := mustState(t, "startpos")
	seen := map[shogi.Packed256]string{}
	for _, m := range st.LegalMoves(false) {
		st.DoMove(m)
		packed, err := shogi.PackPosition256(st.Position())
		if err != nil {
			t.Fatalf("pack after %s: %v", m, err)
		}
		if prev, ok := seen[packed]; ok {
			t.Fatalf("%s and %s packed identically", prev, m)
		}
		seen[packed] = m.USI()
		st.UndoMove()
	}
}

// TestPackRejectsPartialSets verifies tsume positions do not pack.
func TestPackRejectsPartialSets(t *testing.T) {
	for _, sfen := range []string{
		"4k4/9/4G4/9/9/9/9/9/4K4 b G 1",
		"4k4/9/9/9/9/9/9/9/9 b 2r2b4g4s4n4l18p 1",
	} {
		pos := mustPosition(t, sfen)
		if _, err := shogi.PackPosition256(&pos); err == nil {
			t.Fatalf("%s: expected pack error", sfen)
		}
	}
}

// TestPackedHex verifies the ID form is fixed width and distinct.
func TestPackedHex(t *testing.T) {
	a, err := shogi.PackPosition256(mustState(t, "startpos").Position())
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	st := mustState(t, "startpos moves 7g7f")
	b, err := shogi.PackPosition256(st.Position())
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if len(a.Hex()) != 64 || a.Hex() == b.Hex() {
		t.Fatalf("hex ids: %s %s", a.Hex(), b.Hex())
	}
}
