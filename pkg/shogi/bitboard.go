package shogi

import (
	"math/bits"
	"strings"
)

const (
	loSquares = 63
	loMask    = uint64(1)<<loSquares - 1
	hiMask    = uint64(1)<<(NumSquares-loSquares) - 1
)

// Bitboard is a set of squares. Squares 0..62 live in lo, 63..80 in hi.
type Bitboard struct {
	lo uint64
	hi uint64
}

var (
	EmptyBB = Bitboard{}
	FullBB  = Bitboard{lo: loMask, hi: hiMask}
)

func SquareBB(sq Square) Bitboard {
	return Bitboard{}.Set(sq)
}

func (b Bitboard) Set(sq Square) Bitboard {
	if sq < loSquares {
		b.lo |= 1 << uint(sq)
	} else {
		b.hi |= 1 << uint(sq-loSquares)
	}
	return b
}

func (b Bitboard) Clear(sq Square) Bitboard {
	if sq < loSquares {
		b.lo &^= 1 << uint(sq)
	} else {
		b.hi &^= 1 << uint(sq-loSquares)
	}
	return b
}

func (b Bitboard) Test(sq Square) bool {
	if !sq.IsValid() {
		return false
	}
	if sq < loSquares {
		return b.lo&(1<<uint(sq)) != 0
	}
	return b.hi&(1<<uint(sq-loSquares)) != 0
}

func (b Bitboard) Or(o Bitboard) Bitboard {
	return Bitboard{lo: b.lo | o.lo, hi: b.hi | o.hi}
}

func (b Bitboard) And(o Bitboard) Bitboard {
	return Bitboard{lo: b.lo & o.lo, hi: b.hi & o.hi}
}

func (b Bitboard) AndNot(o Bitboard) Bitboard {
	return Bitboard{lo: b.lo &^ o.lo, hi: b.hi &^ o.hi}
}

func (b Bitboard) Xor(o Bitboard) Bitboard {
	return Bitboard{lo: b.lo ^ o.lo, hi: b.hi ^ o.hi}
}

// Not complements within the 81 board squares.
func (b Bitboard) Not() Bitboard {
	return Bitboard{lo: ^b.lo & loMask, hi: ^b.hi & hiMask}
}

func (b Bitboard) IsZero() bool {
	return b.lo == 0 && b.hi == 0
}

func (b Bitboard) PopCount() int {
	return bits.OnesCount64(b.lo) + bits.OnesCount64(b.hi)
}

// First returns the lowest set square, or SquareInvalid when empty.
func (b Bitboard) First() Square {
	if b.lo != 0 {
		return Square(bits.TrailingZeros64(b.lo))
	}
	if b.hi != 0 {
		return Square(loSquares + bits.TrailingZeros64(b.hi))
	}
	return SquareInvalid
}

// PopFirst removes and returns the lowest set square.
func (b *Bitboard) PopFirst() Square {
	if b.lo != 0 {
		sq := Square(bits.TrailingZeros64(b.lo))
		b.lo &= b.lo - 1
		return sq
	}
	if b.hi != 0 {
		sq := Square(loSquares + bits.TrailingZeros64(b.hi))
		b.hi &= b.hi - 1
		return sq
	}
	return SquareInvalid
}

// ForEach calls fn for every set square in ascending order.
func (b Bitboard) ForEach(fn func(Square)) {
	for !b.IsZero() {
		fn(b.PopFirst())
	}
}

// String renders the board from rank a to rank i, file 9 on the left.
func (b Bitboard) String() string {
	var sb strings.Builder
	for rank := 0; rank < 9; rank++ {
		for file := 8; file >= 0; file-- {
			if b.Test(MakeSquare(file, rank)) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
