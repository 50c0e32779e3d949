package shogi

const (
	declareMinPieces  = 10
	declareBlackScore = 28
	declareWhiteScore = 27
	sliderPoints      = 5
	stepPoints        = 1
)

func piecePoints(pt PieceType) int {
	if pt.IsSlider() {
		return sliderPoints
	}
	return stepPoints
}

// DeclarationScore counts c's pieces in its promotion zone, king excluded,
// plus everything in c's hand. Bishops and rooks (promoted or not) are worth
// five points, every other piece one.
func (p *Position) DeclarationScore(c Color) int {
	score := 0
	zone := p.colors[c].AndNot(p.pieces[c][King]).And(tables.zone[c])
	for !zone.IsZero() {
		score += piecePoints(p.board[zone.PopFirst()].Type())
	}
	for _, pt := range StandTypes {
		score += piecePoints(pt) * int(p.stands[c][pt])
	}
	return score
}

// CanDeclare reports whether the side to move may claim a win by entering
// king: its king is in the promotion zone with at least ten other pieces,
// it is not in check, and its declaration score reaches 28 (Black) or 27
// (White).
func (s *State) CanDeclare() bool {
	us := s.pos.turn
	ksq := s.pos.kings[us]
	if ksq == SquareInvalid || !tables.zone[us].Test(ksq) {
		return false
	}
	entered := s.pos.colors[us].AndNot(s.pos.pieces[us][King]).And(tables.zone[us])
	if entered.PopCount() < declareMinPieces {
		return false
	}
	if s.InCheck() {
		return false
	}
	need := declareBlackScore
	if us == White {
		need = declareWhiteScore
	}
	return s.pos.DeclarationScore(us) >= need
}

// DeclarationScore is the declaration score of c in the current position.
func (s *State) DeclarationScore(c Color) int {
	return s.pos.DeclarationScore(c)
}
