package shogi

import "fmt"

// Move is a packed ply: to (bits 0-6), from (bits 7-13, drops use
// 80+type), promote (bit 14), moved type (bits 15-18) and captured type
// (bits 19-22). The layout is internal; use the accessors.
type Move uint32

const (
	moveSquareMask   = 0x7f
	moveFromShift    = 7
	movePromoteBit   = 1 << 14
	moveTypeShift    = 15
	moveCaptureShift = 19
	moveTypeMask     = 0x0f
	dropFromBase     = NumSquares - 1
)

const (
	MoveNone Move = 0
	// MoveWin is the declaration-win pseudo-move.
	MoveWin Move = 1<<moveFromShift | 1
)

func NewBoardMove(from, to Square, pt PieceType, promote bool, capture PieceType) Move {
	m := Move(to) | Move(from)<<moveFromShift | Move(pt)<<moveTypeShift | Move(capture)<<moveCaptureShift
	if promote {
		m |= movePromoteBit
	}
	return m
}

func NewDropMove(to Square, pt PieceType) Move {
	return Move(to) | Move(dropFromBase+int(pt))<<moveFromShift | Move(pt)<<moveTypeShift
}

func (m Move) To() Square {
	return Square(m & moveSquareMask)
}

func (m Move) rawFrom() int {
	return int(m>>moveFromShift) & moveSquareMask
}

// From returns the source square, or SquareInvalid for drops.
func (m Move) From() Square {
	if m.IsDrop() {
		return SquareInvalid
	}
	return Square(m.rawFrom())
}

func (m Move) IsDrop() bool {
	return m.rawFrom() > dropFromBase
}

func (m Move) DropType() PieceType {
	if !m.IsDrop() {
		return Empty
	}
	return PieceType(m.rawFrom() - dropFromBase)
}

// PieceType is the type of the moving piece before promotion.
func (m Move) PieceType() PieceType {
	return PieceType(m>>moveTypeShift) & moveTypeMask
}

func (m Move) Promote() bool {
	return m&movePromoteBit != 0
}

func (m Move) Capture() PieceType {
	return PieceType(m>>moveCaptureShift) & moveTypeMask
}

func (m Move) IsNone() bool {
	return m == MoveNone
}

func (m Move) IsWin() bool {
	return m == MoveWin
}

// USI formats the move as a USI token.
func (m Move) USI() string {
	switch {
	case m.IsNone():
		return "none"
	case m.IsWin():
		return "win"
	case m.IsDrop():
		return fmt.Sprintf("%s*%s", m.DropType(), m.To())
	}
	s := m.From().String() + m.To().String()
	if m.Promote() {
		s += "+"
	}
	return s
}

func (m Move) String() string {
	return m.USI()
}

// Move16 is the compact storage form of a Move: to, from and promote only.
type Move16 uint16

func (m Move) Move16() Move16 {
	return Move16(m & (movePromoteBit | moveSquareMask<<moveFromShift | moveSquareMask))
}

func (m Move16) To() Square {
	return Square(m & moveSquareMask)
}

func (m Move16) rawFrom() int {
	return int(m>>moveFromShift) & moveSquareMask
}

func (m Move16) Promote() bool {
	return m&movePromoteBit != 0
}
