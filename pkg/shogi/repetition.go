package shogi

// RepetitionStatus classifies the current position against earlier
// positions of the same game with the same side to move. Win and Loss are
// from the point of view of the side to move.
type RepetitionStatus int

const (
	NoRepetition RepetitionStatus = iota
	Repetition
	WinRepetition
	LossRepetition
	SuperiorRepetition
	InferiorRepetition
)

var repetitionNames = [...]string{
	NoRepetition:       "none",
	Repetition:         "repetition",
	WinRepetition:      "win",
	LossRepetition:     "loss",
	SuperiorRepetition: "superior",
	InferiorRepetition: "inferior",
}

func (r RepetitionStatus) String() string {
	if r < 0 || int(r) >= len(repetitionNames) {
		return "unknown"
	}
	return repetitionNames[r]
}

// minStrictChecks is the number of consecutive checks that makes a
// repetition a perpetual check in strict mode.
const minStrictChecks = 6

// RepetitionStatus scans back over positions with the same side to move.
// A board match with equal stands is a repetition, decided for the side
// that has been checking continuously through the cycle. A board match with
// different stands is superior or inferior for the side to move. In strict
// mode a perpetual check needs at least six consecutive checks and a plain
// repetition is only reported on the fourth occurrence.
func (s *State) RepetitionStatus(strict bool) RepetitionStatus {
	ply := len(s.history)
	cur := s.top()
	us := s.pos.turn
	them := us.Opposite()
	seen := 0

	for p := ply - 4; p >= 0; p -= 2 {
		old := &s.frames[p]
		if old.boardHash != cur.boardHash {
			continue
		}
		if old.stands == cur.stands {
			span := uint16(ply - p)
			if cur.checks[them]*2 >= span && (!strict || cur.checks[them] >= minStrictChecks) {
				return WinRepetition
			}
			if cur.checks[us]*2 >= span && (!strict || cur.checks[us] >= minStrictChecks) {
				return LossRepetition
			}
			if !strict {
				return Repetition
			}
			if seen >= 2 {
				return Repetition
			}
			seen++
			p -= 2
			continue
		}
		if cur.stands[us].IsSuperiorOrEqual(old.stands[us]) {
			return SuperiorRepetition
		}
		if old.stands[us].IsSuperiorOrEqual(cur.stands[us]) {
			return InferiorRepetition
		}
	}
	return NoRepetition
}
