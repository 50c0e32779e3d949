// Package solver proves checkmates (tsume) on a shogi.State: a one-ply
// mate probe, a fixed-depth DFS and a df-pn search with a bounded
// transposition table.
package solver

import "tsume/pkg/shogi"

// Mate1Ply returns a checking move after which the defender has no legal
// reply, or MoveNone. Pawn-drop mates are never generated, so they are never
// returned. The state is left as it was found.
func Mate1Ply(st *shogi.State) shogi.Move {
	for _, m := range st.CheckMoves(true) {
		st.DoMove(m)
		mated := !st.HasLegalMove()
		st.UndoMove()
		if mated {
			return m
		}
	}
	return shogi.MoveNone
}

// isPawnDrop reports whether the move that led to st dropped a pawn.
func isPawnDrop(st *shogi.State) bool {
	last, err := st.LastMove()
	return err == nil && last.IsDrop() && last.DropType() == shogi.Pawn
}

// attackerWily reports whether the attacker may skip non-promoting checks.
// With a pawn in hand a non-promotion can matter for a later pawn drop.
func attackerWily(st *shogi.State) bool {
	return st.Position().StandCount(st.SideToMove(), shogi.Pawn) == 0
}
