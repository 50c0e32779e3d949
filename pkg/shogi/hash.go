package shogi

// maxStandCount bounds the per-type stand count (18 pawns).
const maxStandCount = 18

// sideKey flips with the side to move; all other keys keep bit 0 clear.
const sideKey uint64 = 1

type zobristKeys struct {
	board [2][NumPieceTypes][NumSquares]uint64
	stand [2][NumStandTypes][maxStandCount + 1]uint64
}

var zobrist = newZobristKeys()

func newZobristKeys() *zobristKeys {
	seed := uint64(0x9E3779B97F4A7C15)
	next := func() uint64 {
		seed += 0x9E3779B97F4A7C15
		z := seed
		z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
		z = (z ^ (z >> 27)) * 0x94D049BB133111EB
		return (z ^ (z >> 31)) << 1
	}
	k := &zobristKeys{}
	for c := 0; c < 2; c++ {
		for pt := Pawn; pt < NumPieceTypes; pt++ {
			for sq := 0; sq < NumSquares; sq++ {
				k.board[c][pt][sq] = next()
			}
		}
		for _, pt := range StandTypes {
			// Count zero keeps a zero key so empty stands hash to zero.
			for n := 1; n <= maxStandCount; n++ {
				k.stand[c][pt][n] = next()
			}
		}
	}
	return k
}

func boardKey(p Piece, sq Square) uint64 {
	return zobrist.board[p.Color()][p.Type()][sq]
}

func standKey(c Color, pt PieceType, count int) uint64 {
	return zobrist.stand[c][pt][count]
}

func standHash(stands [2]Stand) uint64 {
	var h uint64
	for c := Black; c <= White; c++ {
		for _, pt := range StandTypes {
			h ^= standKey(c, pt, int(stands[c][pt]))
		}
	}
	return h
}

// ComputeBoardHash hashes the board and side to move from scratch.
func (p *Position) ComputeBoardHash() uint64 {
	var h uint64
	for sq := Square(0); sq < NumSquares; sq++ {
		if pc := p.board[sq]; pc != PieceNone {
			h ^= boardKey(pc, sq)
		}
	}
	if p.turn == White {
		h ^= sideKey
	}
	return h
}

// ComputeHash hashes the whole position from scratch. It equals the
// incrementally maintained State.Hash for the same position.
func (p *Position) ComputeHash() uint64 {
	return p.ComputeBoardHash() ^ standHash(p.stands)
}
