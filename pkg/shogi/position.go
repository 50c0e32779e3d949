package shogi

// Position is a board, both stands and the side to move. It holds no
// pointers, so a plain assignment is a deep copy.
type Position struct {
	board     [NumSquares]Piece
	pieces    [2][NumPieceTypes]Bitboard
	colors    [2]Bitboard
	stands    [2]Stand
	kings     [2]Square
	turn      Color
	plyOffset int
}

// NewPosition returns an empty board with Black to move.
func NewPosition() Position {
	return Position{kings: [2]Square{SquareInvalid, SquareInvalid}}
}

// InitialPosition returns the standard starting position.
func InitialPosition() Position {
	pos, err := ParseSFEN(StartSFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

func (p *Position) PieceAt(sq Square) Piece {
	return p.board[sq]
}

// Put places pc on sq, replacing whatever was there.
func (p *Position) Put(sq Square, pc Piece) {
	if p.board[sq] != PieceNone {
		p.remove(sq)
	}
	if pc != PieceNone {
		p.put(sq, pc)
	}
}

func (p *Position) put(sq Square, pc Piece) {
	c, pt := pc.Color(), pc.Type()
	p.board[sq] = pc
	p.pieces[c][pt] = p.pieces[c][pt].Set(sq)
	p.colors[c] = p.colors[c].Set(sq)
	if pt == King {
		p.kings[c] = sq
	}
}

func (p *Position) remove(sq Square) Piece {
	pc := p.board[sq]
	c, pt := pc.Color(), pc.Type()
	p.board[sq] = PieceNone
	p.pieces[c][pt] = p.pieces[c][pt].Clear(sq)
	p.colors[c] = p.colors[c].Clear(sq)
	if pt == King {
		p.kings[c] = SquareInvalid
	}
	return pc
}

func (p *Position) SideToMove() Color {
	return p.turn
}

func (p *Position) SetSideToMove(c Color) {
	p.turn = c
}

func (p *Position) Stand(c Color) Stand {
	return p.stands[c]
}

func (p *Position) StandCount(c Color, pt PieceType) int {
	return int(p.stands[c][pt])
}

func (p *Position) SetStandCount(c Color, pt PieceType, n int) {
	p.stands[c][pt] = uint8(n)
}

// KingSquare returns SquareInvalid when c has no king (tsume positions).
func (p *Position) KingSquare(c Color) Square {
	return p.kings[c]
}

func (p *Position) Occupied() Bitboard {
	return p.colors[Black].Or(p.colors[White])
}

func (p *Position) ColorBB(c Color) Bitboard {
	return p.colors[c]
}

func (p *Position) PieceBB(c Color, pt PieceType) Bitboard {
	return p.pieces[c][pt]
}

// PlyOffset is the number of plies played before this position: the SFEN
// move number minus one, advanced by every applied move.
func (p *Position) PlyOffset() int {
	return p.plyOffset
}

func (p *Position) golds(c Color) Bitboard {
	pc := &p.pieces[c]
	return pc[Gold].Or(pc[ProPawn]).Or(pc[ProLance]).Or(pc[ProKnight]).Or(pc[ProSilver])
}

// AttackersTo returns the pieces of color by attacking sq when the board is
// occupied by occ.
func (p *Position) AttackersTo(sq Square, by Color, occ Bitboard) Bitboard {
	them := by.Opposite()
	pc := &p.pieces[by]
	bb := tables.step[them][Pawn][sq].And(pc[Pawn])
	bb = bb.Or(tables.step[them][Knight][sq].And(pc[Knight]))
	bb = bb.Or(tables.step[them][Silver][sq].And(pc[Silver]))
	bb = bb.Or(tables.step[them][Gold][sq].And(p.golds(by)))
	bb = bb.Or(tables.step[them][King][sq].And(pc[King].Or(pc[ProBishop]).Or(pc[ProRook])))
	bb = bb.Or(LanceAttacks(them, sq, occ).And(pc[Lance]))
	bb = bb.Or(BishopAttacks(sq, occ).And(pc[Bishop].Or(pc[ProBishop])))
	bb = bb.Or(RookAttacks(sq, occ).And(pc[Rook].Or(pc[ProRook])))
	return bb
}

// IsAttacked reports whether color by attacks sq.
func (p *Position) IsAttacked(sq Square, by Color) bool {
	return !p.AttackersTo(sq, by, p.Occupied()).IsZero()
}

// Checkers returns the opponent pieces giving check to the side to move.
func (p *Position) Checkers() Bitboard {
	ksq := p.kings[p.turn]
	if ksq == SquareInvalid {
		return EmptyBB
	}
	return p.AttackersTo(ksq, p.turn.Opposite(), p.Occupied())
}

func (p *Position) InCheck() bool {
	return !p.Checkers().IsZero()
}

// IsInCheck reports whether c's king is attacked, regardless of the side to
// move.
func (p *Position) IsInCheck(c Color) bool {
	ksq := p.kings[c]
	if ksq == SquareInvalid {
		return false
	}
	return p.IsAttacked(ksq, c.Opposite())
}

// Apply plays m without validation. m must be legal in p.
func (p *Position) Apply(m Move) {
	us := p.turn
	to := m.To()
	if m.IsDrop() {
		pt := m.DropType()
		p.stands[us][pt]--
		p.put(to, MakePiece(pt, us))
	} else {
		from := m.From()
		if captured := m.Capture(); captured != Empty {
			p.remove(to)
			p.stands[us][captured.Demote()]++
		}
		p.remove(from)
		pt := m.PieceType()
		if m.Promote() {
			pt = pt.Promote()
		}
		p.put(to, MakePiece(pt, us))
	}
	p.turn = us.Opposite()
	p.plyOffset++
}

// Unapply reverts m, which must be the last move applied to p.
func (p *Position) Unapply(m Move) {
	us := p.turn.Opposite()
	p.turn = us
	p.plyOffset--
	to := m.To()
	p.remove(to)
	if m.IsDrop() {
		p.stands[us][m.DropType()]++
		return
	}
	p.put(m.From(), MakePiece(m.PieceType(), us))
	if captured := m.Capture(); captured != Empty {
		p.put(to, MakePiece(captured, us.Opposite()))
		p.stands[us][captured.Demote()]--
	}
}

// IsLegalPosition checks the static sanity of a position: at most one king
// per side, no unpromoted pawn/lance/knight on a dead rank, no two unpromoted
// pawns of one color on a file, and the side not to move is not in check.
func (p *Position) IsLegalPosition() bool {
	for _, c := range []Color{Black, White} {
		if p.pieces[c][King].PopCount() > 1 {
			return false
		}
		if !p.pieces[c][Pawn].Or(p.pieces[c][Lance]).And(tables.lastOne[c]).IsZero() {
			return false
		}
		if !p.pieces[c][Knight].And(tables.lastTwo[c]).IsZero() {
			return false
		}
		for file := 0; file < 9; file++ {
			if p.pieces[c][Pawn].And(tables.files[file]).PopCount() > 1 {
				return false
			}
		}
	}
	return !p.IsInCheck(p.turn.Opposite())
}

// Equal compares board, stands and side to move.
func (p *Position) Equal(o *Position) bool {
	return p.board == o.board && p.stands == o.stands && p.turn == o.turn
}
