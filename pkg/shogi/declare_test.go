package shogi_test

import (
	"testing"

	"tsume/pkg/shogi"
)

// TestCanDeclare verifies the entering-king thresholds for both colors.
func TestCanDeclare(t *testing.T) {
	cases := []struct {
		name  string
		sfen  string
		score int
		want  bool
	}{
		{"black 28 points", "LNSGKGSNL/1R5B1/9/9/9/9/9/9/4k4 b 10P 1", 28, true},
		{"black 27 points", "LNSGKGSNL/1R5B1/9/9/9/9/9/9/4k4 b 9P 1", 27, false},
		{"white 27 points", "4K4/9/9/9/9/9/9/1b5r1/lnsgkgsnl w 9p 1", 27, true},
		{"white 26 points", "4K4/9/9/9/9/9/9/1b5r1/lnsgkgsnl w 8p 1", 26, false},
		{"too few pieces", "LNSGK4/1R5B1/9/9/9/9/9/9/4k4 b 18P 1", 32, false},
		{"king outside zone", "LNSG1GSNL/1R5B1/9/4K4/9/9/9/9/4k4 b 10P 1", 28, false},
		{"in check", "LNSGKGSNL/1R5B1/9/9/9/9/9/4r4/4k4 b 10P 1", 28, false},
		{"startpos", shogi.StartSFEN, 0, false},
	}
	for _, tc := range cases {
		st := mustState(t, tc.sfen)
		us := st.SideToMove()
		if tc.name != "startpos" {
			if got := st.DeclarationScore(us); got != tc.score {
				t.Fatalf("%s: score got %d want %d", tc.name, got, tc.score)
			}
		}
		if got := st.CanDeclare(); got != tc.want {
			t.Fatalf("%s: can declare got %v want %v", tc.name, got, tc.want)
		}
	}
}
