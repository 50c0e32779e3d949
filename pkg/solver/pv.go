package solver

import "tsume/pkg/shogi"

// verify replays the stored proof tree below the current node on the real
// history, checking repetitions that the table could not see. On failure
// path holds the keys from the root to the rejected node.
func (d *DFPN) verify(ply int, path *[]uint64) bool {
	if d.limit > 0 && d.nodes >= d.limit {
		d.aborted = true
		return false
	}
	d.nodes++
	*path = append(*path, d.st.Hash())
	if !d.verifyNode(ply, path) {
		return false
	}
	*path = (*path)[:len(*path)-1]
	return true
}

func (d *DFPN) verifyNode(ply int, path *[]uint64) bool {
	if d.st.SideToMove() == d.attacker {
		e := d.lookup(d.st.Hash(), ply)
		if e == nil || e.pn != 0 || !d.st.Position().IsLegalMove(e.best) {
			return false
		}
		return d.verifyChild(e.best, ply, path)
	}
	moves := d.st.LegalMoves(true)
	if len(moves) == 0 {
		return !isPawnDrop(d.st)
	}
	if d.atDepthLimit(ply) {
		return false
	}
	for _, m := range moves {
		if !d.verifyChild(m, ply, path) {
			return false
		}
	}
	return true
}

func (d *DFPN) verifyChild(m shogi.Move, ply int, path *[]uint64) bool {
	d.st.DoMove(m)
	defer d.st.UndoMove()
	return !d.repeats() && d.verify(ply+1, path)
}

// principalVariation follows the proof from the root: the attacker's stored
// best move and the defender's reply with the longest proof. Missing
// entries are proved again.
func (d *DFPN) principalVariation() []shogi.Move {
	var pv []shogi.Move
	for ply := 0; len(pv) < maxPVLength; ply++ {
		var m shogi.Move
		if d.st.SideToMove() == d.attacker {
			m = d.provenMove(ply)
		} else {
			m = d.longestDefence(ply)
		}
		if m.IsNone() {
			break
		}
		pv = append(pv, m)
		d.st.DoMove(m)
	}
	for range pv {
		d.st.UndoMove()
	}
	return pv
}

func (d *DFPN) provenMove(ply int) shogi.Move {
	if e := d.lookup(d.st.Hash(), ply); e != nil && e.pn == 0 {
		return e.best
	}
	if r := d.mid(inf, inf, ply); r.pn == 0 {
		return r.best
	}
	return shogi.MoveNone
}

func (d *DFPN) longestDefence(ply int) shogi.Move {
	best := shogi.MoveNone
	var bestDist uint16
	for _, m := range d.st.LegalMoves(true) {
		d.st.DoMove(m)
		dist, ok := d.proofDistance(ply + 1)
		d.st.UndoMove()
		if !ok {
			return shogi.MoveNone
		}
		if best.IsNone() || dist > bestDist {
			best, bestDist = m, dist
		}
	}
	return best
}

func (d *DFPN) proofDistance(ply int) (uint16, bool) {
	if e := d.lookup(d.st.Hash(), ply); e != nil && e.pn == 0 {
		return e.dist, true
	}
	r := d.mid(inf, inf, ply)
	return r.dist, r.pn == 0
}
