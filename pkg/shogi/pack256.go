package shogi

import "fmt"

// Packed256 is a position in exactly 256 bits: side to move, both king
// squares, a Huffman code per remaining square and the pieces in hand. It
// needs the full 40-piece set, so tsume positions with pieces in the box do
// not pack.
type Packed256 struct {
	Words [4]uint64
}

const packedBits = 256

// Hex formats the packed words as 64 hex digits, usable as a position ID.
func (p Packed256) Hex() string {
	return fmt.Sprintf("%016x%016x%016x%016x", p.Words[0], p.Words[1], p.Words[2], p.Words[3])
}

type bitWriter256 struct {
	words [4]uint64
	pos   int
}

type bitReader256 struct {
	words [4]uint64
	pos   int
}

type huffCode struct {
	pt     PieceType
	bits   uint64
	bitLen int
}

// Empty squares use the board code of Empty.
var boardCodes = []huffCode{
	{pt: Empty, bits: 0b0, bitLen: 1},
	{pt: Pawn, bits: 0b01, bitLen: 2},
	{pt: Lance, bits: 0b0011, bitLen: 4},
	{pt: Knight, bits: 0b1011, bitLen: 4},
	{pt: Silver, bits: 0b0111, bitLen: 4},
	{pt: Gold, bits: 0b01111, bitLen: 5},
	{pt: Bishop, bits: 0b011111, bitLen: 6},
	{pt: Rook, bits: 0b111111, bitLen: 6},
}

var handCodes = []huffCode{
	{pt: Pawn, bits: 0b0, bitLen: 1},
	{pt: Lance, bits: 0b001, bitLen: 3},
	{pt: Knight, bits: 0b101, bitLen: 3},
	{pt: Silver, bits: 0b011, bitLen: 3},
	{pt: Gold, bits: 0b0111, bitLen: 4},
	{pt: Bishop, bits: 0b01111, bitLen: 5},
	{pt: Rook, bits: 0b11111, bitLen: 5},
}

type codeBook struct {
	byType [NumStandTypes]huffCode
	byLen  map[int]map[uint64]PieceType
	maxLen int
}

var (
	boardCodeBook = buildCodeBook(boardCodes)
	handCodeBook  = buildCodeBook(handCodes)
)

func buildCodeBook(codes []huffCode) *codeBook {
	book := &codeBook{byLen: map[int]map[uint64]PieceType{}}
	for _, code := range codes {
		book.byType[code.pt] = code
		if book.byLen[code.bitLen] == nil {
			book.byLen[code.bitLen] = map[uint64]PieceType{}
		}
		book.byLen[code.bitLen][code.bits] = code.pt
		if code.bitLen > book.maxLen {
			book.maxLen = code.bitLen
		}
	}
	return book
}

// PackPosition256 encodes pos. Both kings must be on the board.
func PackPosition256(pos *Position) (Packed256, error) {
	w := &bitWriter256{}
	if pos.kings[Black] == SquareInvalid || pos.kings[White] == SquareInvalid {
		return Packed256{}, fmt.Errorf("missing king")
	}
	turn := uint64(0)
	if pos.turn == White {
		turn = 1
	}
	if err := w.writeBits(turn, 1); err != nil {
		return Packed256{}, err
	}
	if err := w.writeBits(uint64(pos.kings[Black]), 7); err != nil {
		return Packed256{}, err
	}
	if err := w.writeBits(uint64(pos.kings[White]), 7); err != nil {
		return Packed256{}, err
	}

	for sq := Square(0); sq < NumSquares; sq++ {
		if sq == pos.kings[Black] || sq == pos.kings[White] {
			continue
		}
		pc := pos.board[sq]
		if pc == PieceNone {
			if err := w.writeCode(boardCodeBook, Empty); err != nil {
				return Packed256{}, err
			}
			continue
		}
		if err := w.writePiece(boardCodeBook, pc.Type(), pc.Color()); err != nil {
			return Packed256{}, fmt.Errorf("square %s: %w", sq, err)
		}
	}

	for _, c := range []Color{Black, White} {
		for _, pt := range StandTypes {
			for i := 0; i < int(pos.stands[c][pt]); i++ {
				if err := w.writePiece(handCodeBook, pt, c); err != nil {
					return Packed256{}, fmt.Errorf("hand: %w", err)
				}
			}
		}
	}

	if w.pos != packedBits {
		return Packed256{}, fmt.Errorf("packed length is %d bits, expected %d", w.pos, packedBits)
	}
	return Packed256{Words: w.words}, nil
}

// UnpackPosition256 decodes p. The move number of the result is 1.
func UnpackPosition256(p Packed256) (Position, error) {
	r := &bitReader256{words: p.Words}
	pos := NewPosition()

	turn, err := r.readBits(1)
	if err != nil {
		return Position{}, err
	}
	if turn == 1 {
		pos.turn = White
	}
	var kings [2]Square
	for _, c := range []Color{Black, White} {
		sq, err := r.readBits(7)
		if err != nil {
			return Position{}, err
		}
		kings[c] = Square(sq)
		if !kings[c].IsValid() {
			return Position{}, fmt.Errorf("invalid king square %d", sq)
		}
	}
	if kings[Black] == kings[White] {
		return Position{}, fmt.Errorf("kings share square %s", kings[Black])
	}
	pos.put(kings[Black], MakePiece(King, Black))
	pos.put(kings[White], MakePiece(King, White))

	for sq := Square(0); sq < NumSquares; sq++ {
		if sq == kings[Black] || sq == kings[White] {
			continue
		}
		pt, c, err := r.readPiece(boardCodeBook)
		if err != nil {
			return Position{}, fmt.Errorf("square %s: %w", sq, err)
		}
		if pt != Empty {
			pos.put(sq, MakePiece(pt, c))
		}
	}

	for r.pos < packedBits {
		pt, c, err := r.readPiece(handCodeBook)
		if err != nil {
			return Position{}, fmt.Errorf("hand: %w", err)
		}
		if pt.IsPromoted() {
			return Position{}, fmt.Errorf("promoted piece in hand: %s", pt)
		}
		pos.stands[c][pt]++
	}
	return pos, nil
}

// writePiece writes the code, the color bit and, for promotable types, the
// promotion bit.
func (w *bitWriter256) writePiece(book *codeBook, pt PieceType, c Color) error {
	base := pt.Demote()
	if err := w.writeCode(book, base); err != nil {
		return err
	}
	if err := w.writeBits(uint64(c), 1); err != nil {
		return err
	}
	if base.CanPromote() {
		promo := uint64(0)
		if pt.IsPromoted() {
			promo = 1
		}
		return w.writeBits(promo, 1)
	}
	return nil
}

func (w *bitWriter256) writeCode(book *codeBook, pt PieceType) error {
	if int(pt) >= len(book.byType) || book.byType[pt].bitLen == 0 {
		return fmt.Errorf("unknown piece code: %s", pt)
	}
	code := book.byType[pt]
	return w.writeBits(code.bits, code.bitLen)
}

func (w *bitWriter256) writeBits(value uint64, bitLen int) error {
	for i := 0; i < bitLen; i++ {
		if w.pos >= packedBits {
			return fmt.Errorf("bitstream overflow")
		}
		if (value>>i)&1 != 0 {
			w.words[w.pos/64] |= 1 << uint(w.pos%64)
		}
		w.pos++
	}
	return nil
}

func (r *bitReader256) readBits(bitLen int) (uint64, error) {
	var value uint64
	for i := 0; i < bitLen; i++ {
		if r.pos >= packedBits {
			return 0, fmt.Errorf("bitstream underflow")
		}
		value |= (r.words[r.pos/64] >> uint(r.pos%64) & 1) << i
		r.pos++
	}
	return value, nil
}

func (r *bitReader256) readPiece(book *codeBook) (PieceType, Color, error) {
	var value uint64
	pt := PieceType(0)
	found := false
	for length := 1; length <= book.maxLen && !found; length++ {
		bit, err := r.readBits(1)
		if err != nil {
			return Empty, ColorNone, err
		}
		value |= bit << (length - 1)
		pt, found = book.byLen[length][value]
	}
	if !found {
		return Empty, ColorNone, fmt.Errorf("invalid code")
	}
	if book == boardCodeBook && pt == Empty {
		return Empty, ColorNone, nil
	}
	cbit, err := r.readBits(1)
	if err != nil {
		return Empty, ColorNone, err
	}
	c := Color(cbit)
	if pt.CanPromote() {
		promo, err := r.readBits(1)
		if err != nil {
			return Empty, ColorNone, err
		}
		if promo == 1 {
			pt = pt.Promote()
		}
	}
	return pt, c, nil
}
