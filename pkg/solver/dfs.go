package solver

import "tsume/pkg/shogi"

// DFS searches every checking sequence of at most limit plies and returns
// the first attacking move that forces mate, or MoveNone. The defender plays
// every legal reply. The state is restored before returning.
func DFS(st *shogi.State, limit int) shogi.Move {
	return attack(st, limit)
}

func attack(st *shogi.State, limit int) shogi.Move {
	if limit < 1 {
		return shogi.MoveNone
	}
	if m := Mate1Ply(st); !m.IsNone() {
		return m
	}
	if limit < 3 {
		return shogi.MoveNone
	}
	wily := limit <= 3 || attackerWily(st)
	for _, m := range st.CheckMoves(wily) {
		st.DoMove(m)
		mated := defend(st, limit-1)
		st.UndoMove()
		if mated {
			return m
		}
	}
	return shogi.MoveNone
}

// defend reports whether every reply of the side to move loses within limit.
func defend(st *shogi.State, limit int) bool {
	moves := st.LegalMoves(true)
	if len(moves) == 0 {
		// A mate delivered by a pawn drop loses for the attacker.
		return !isPawnDrop(st)
	}
	if limit < 2 {
		return false
	}
	for _, m := range moves {
		st.DoMove(m)
		reply := attack(st, limit-1)
		st.UndoMove()
		if reply.IsNone() {
			return false
		}
	}
	return true
}
