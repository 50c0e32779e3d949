package shogi

// isLegal reports whether m, pseudo-legal in p, leaves the mover's king safe.
func (p *Position) isLegal(m Move) bool {
	us := p.turn
	to := m.To()
	occ := p.Occupied().Set(to)
	ksq := p.kings[us]
	if !m.IsDrop() {
		occ = occ.Clear(m.From())
		if m.PieceType() == King {
			ksq = to
		}
	}
	if ksq == SquareInvalid {
		return true
	}
	// A piece captured on to no longer attacks.
	return p.AttackersTo(ksq, us.Opposite(), occ).AndNot(SquareBB(to)).IsZero()
}

// GivesCheck reports whether playing m puts the opponent in check.
func (p *Position) GivesCheck(m Move) bool {
	q := *p
	q.Apply(m)
	return q.InCheck()
}

// promotionForms reports which of the plain and promoting forms of a board
// move are generated. Forced promotion always applies. With wily set, pawn,
// bishop and rook moves that can promote only come in the promoting form,
// and so do lance moves onto the last two ranks.
func promotionForms(us Color, from, to Square, pt PieceType, wily bool) (plain, promo bool) {
	if !pt.CanPromote() {
		return true, false
	}
	zone := tables.zone[us]
	if !zone.Test(from) && !zone.Test(to) {
		return true, false
	}
	switch pt {
	case Pawn, Lance:
		plain = !tables.lastOne[us].Test(to)
	case Knight:
		plain = !tables.lastTwo[us].Test(to)
	default:
		plain = true
	}
	if wily {
		switch pt {
		case Pawn, Bishop, Rook:
			plain = false
		case Lance:
			if tables.lastTwo[us].Test(to) {
				plain = false
			}
		}
	}
	return plain, true
}

// dropTargets returns the squares a piece of type pt may be dropped on,
// before the pawn-drop mate check and the king-safety filter.
func (p *Position) dropTargets(pt PieceType) Bitboard {
	us := p.turn
	targets := p.Occupied().Not()
	switch pt {
	case Pawn:
		targets = targets.AndNot(tables.lastOne[us])
		pawns := p.pieces[us][Pawn]
		for !pawns.IsZero() {
			targets = targets.AndNot(tables.files[pawns.PopFirst().File()])
		}
	case Lance:
		targets = targets.AndNot(tables.lastOne[us])
	case Knight:
		targets = targets.AndNot(tables.lastTwo[us])
	}
	return targets
}

// isPawnDropMate reports whether dropping a pawn on to checkmates.
func (p *Position) isPawnDropMate(to Square) bool {
	us := p.turn
	if !tables.step[us][Pawn][to].Test(p.kings[us.Opposite()]) {
		return false
	}
	q := *p
	q.Apply(NewDropMove(to, Pawn))
	return q.forEachLegalMove(false, false, func(Move) bool { return false })
}

// forEachLegalMove calls fn for every legal move in generation order: board
// moves by ascending source then target square, then drops by stand type
// and ascending square. It stops as soon as fn returns false and reports
// whether it ran to completion.
func (p *Position) forEachLegalMove(wily, dropMateCheck bool, fn func(Move) bool) bool {
	us := p.turn
	occ := p.Occupied()
	own := p.colors[us]

	froms := own
	for !froms.IsZero() {
		from := froms.PopFirst()
		pt := p.board[from].Type()
		targets := Attacks(pt, us, from, occ).AndNot(own)
		for !targets.IsZero() {
			to := targets.PopFirst()
			capture := p.board[to].Type()
			plain, promo := promotionForms(us, from, to, pt, wily)
			if plain {
				m := NewBoardMove(from, to, pt, false, capture)
				if p.isLegal(m) && !fn(m) {
					return false
				}
			}
			if promo {
				m := NewBoardMove(from, to, pt, true, capture)
				if p.isLegal(m) && !fn(m) {
					return false
				}
			}
		}
	}

	for _, pt := range StandTypes {
		if p.stands[us][pt] == 0 {
			continue
		}
		targets := p.dropTargets(pt)
		for !targets.IsZero() {
			to := targets.PopFirst()
			m := NewDropMove(to, pt)
			if !p.isLegal(m) {
				continue
			}
			if pt == Pawn && dropMateCheck && p.isPawnDropMate(to) {
				continue
			}
			if !fn(m) {
				return false
			}
		}
	}
	return true
}

// GenerateLegalMoves returns every legal move of the side to move.
func GenerateLegalMoves(p *Position, wily bool) []Move {
	moves := make([]Move, 0, 128)
	p.forEachLegalMove(wily, true, func(m Move) bool {
		moves = append(moves, m)
		return true
	})
	return moves
}

// GenerateCheckMoves returns the legal moves that give check, in the same
// order as GenerateLegalMoves.
func GenerateCheckMoves(p *Position, wily bool) []Move {
	var moves []Move
	q := *p
	p.forEachLegalMove(wily, true, func(m Move) bool {
		q.Apply(m)
		if q.InCheck() {
			moves = append(moves, m)
		}
		q.Unapply(m)
		return true
	})
	return moves
}

// IsLegalMove reports whether m is one of the legal moves of p, promotion
// choices included.
func (p *Position) IsLegalMove(m Move) bool {
	found := false
	p.forEachLegalMove(false, true, func(lm Move) bool {
		found = lm == m
		return !found
	})
	return found
}

// HasLegalMove reports whether the side to move has any legal move.
func HasLegalMove(p *Position) bool {
	return !p.forEachLegalMove(true, true, func(Move) bool { return false })
}

// Perft counts the leaf nodes of the full legal move tree to depth, with
// every promotion choice expanded.
func Perft(p *Position, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	q := *p
	return perft(&q, depth)
}

func perft(p *Position, depth int) uint64 {
	moves := GenerateLegalMoves(p, false)
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		p.Apply(m)
		nodes += perft(p, depth-1)
		p.Unapply(m)
	}
	return nodes
}
