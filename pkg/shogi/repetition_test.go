package shogi_test

import (
	"testing"

	"tsume/pkg/shogi"
)

const perpetualSFEN = "2k6/9/KR7/9/9/9/9/9/9 b - 1"

var perpetualCycle = []string{"8c7c", "7a8a", "7c8c", "8a7a"}

func cycleMoves(n int) []string {
	moves := make([]string, n)
	for i := range moves {
		moves[i] = perpetualCycle[i%len(perpetualCycle)]
	}
	return moves
}

// TestRepetitionStatus covers plain, perpetual-check and hand-comparison
// repetitions in both modes.
func TestRepetitionStatus(t *testing.T) {
	shuffle := []string{"2h3h", "8b7b", "3h2h", "7b8b"}
	cases := []struct {
		name   string
		sfen   string
		moves  []string
		strict bool
		want   shogi.RepetitionStatus
	}{
		{"no repetition", shogi.StartSFEN, []string{"2h3h", "8b7b", "3h2h"}, false, shogi.NoRepetition},
		{"plain", shogi.StartSFEN, shuffle, false, shogi.Repetition},
		{"plain strict once", shogi.StartSFEN, shuffle, true, shogi.NoRepetition},
		{"plain strict fourfold", shogi.StartSFEN, append(append(append([]string{}, shuffle...), shuffle...), shuffle...), true, shogi.Repetition},
		{"perpetual check win", perpetualSFEN, cycleMoves(5), false, shogi.WinRepetition},
		{"perpetual check win strict too short", perpetualSFEN, cycleMoves(5), true, shogi.NoRepetition},
		{"perpetual check loss", perpetualSFEN, cycleMoves(4), false, shogi.LossRepetition},
		{"perpetual check loss strict too short", perpetualSFEN, cycleMoves(4), true, shogi.NoRepetition},
		{"perpetual check win strict", perpetualSFEN, cycleMoves(13), true, shogi.WinRepetition},
		{"perpetual check loss strict", perpetualSFEN, cycleMoves(12), true, shogi.LossRepetition},
		{"perpetual strict two cycles", perpetualSFEN, cycleMoves(8), true, shogi.NoRepetition},
		{"white checks", "9/9/9/9/9/9/1rk6/9/K8 w - 1", []string{"8g9g", "9i8i", "9g8g", "8i9i"}, false, shogi.LossRepetition},
		{
			"inferior",
			"l3k2Bl/1r1sg4/1l1pps2p/2P1np3/1P4p2/2G1RP1N1/+p1KPP3P/3S5/1+n2G2+bL b GPsn5p 1",
			[]string{"G*4a", "5a6a", "4a5a", "6a5a"},
			false,
			shogi.InferiorRepetition,
		},
		{
			"superior",
			"+Bn1g1g2l/2s1ks3/p1Ppppn1p/2+BP3r1/2pN5/1p4ppP/P2gPP3/8K/L5GNL w RL2s3p 1",
			[]string{"S*2g", "1h1g", "2g1h+", "1g1h", "S*2g"},
			false,
			shogi.SuperiorRepetition,
		},
	}
	for _, tc := range cases {
		st := mustState(t, tc.sfen)
		doMoves(t, st, tc.moves...)
		if got := st.RepetitionStatus(tc.strict); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

// TestRepetitionStatusIsPure verifies the query leaves the state untouched.
func TestRepetitionStatusIsPure(t *testing.T) {
	st := mustState(t, perpetualSFEN)
	doMoves(t, st, cycleMoves(5)...)
	hash := st.Hash()
	first := st.RepetitionStatus(false)
	second := st.RepetitionStatus(false)
	if first != second || st.Hash() != hash || st.Ply() != 5 {
		t.Fatal("repetition query mutated the state")
	}
}
