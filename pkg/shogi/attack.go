package shogi

const (
	lineFile = iota
	lineRank
	lineDiag
	lineAnti
	numLines
)

type offset struct {
	df, dr int
}

// Offsets are from Black's point of view; Black moves toward rank 0.
var stepOffsets = map[PieceType][]offset{
	Pawn:   {{0, -1}},
	Knight: {{-1, -2}, {1, -2}},
	Silver: {{-1, -1}, {0, -1}, {1, -1}, {-1, 1}, {1, 1}},
	Gold:   {{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {0, 1}},
	King:   {{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}},
}

var lineOffsets = [numLines][2]offset{
	lineFile: {{0, -1}, {0, 1}},
	lineRank: {{-1, 0}, {1, 0}},
	lineDiag: {{1, 1}, {-1, -1}},
	lineAnti: {{1, -1}, {-1, 1}},
}

// lineTable maps the occupancy of the inner squares of one line through a
// square to the attacked squares along that line.
type lineTable struct {
	inner   []Square
	attacks []Bitboard
}

type attackTables struct {
	step    [2][NumPieceTypes][NumSquares]Bitboard
	lines   [NumSquares][numLines]lineTable
	forward [2][NumSquares]Bitboard
	files   [9]Bitboard
	ranks   [9]Bitboard
	zone    [2]Bitboard
	lastOne [2]Bitboard
	lastTwo [2]Bitboard
}

var tables = buildAttackTables()

func onBoard(file, rank int) bool {
	return file >= 0 && file < 9 && rank >= 0 && rank < 9
}

func buildAttackTables() *attackTables {
	t := &attackTables{}
	for sq := Square(0); sq < NumSquares; sq++ {
		t.files[sq.File()] = t.files[sq.File()].Set(sq)
		t.ranks[sq.Rank()] = t.ranks[sq.Rank()].Set(sq)
	}
	for rank := 0; rank < 3; rank++ {
		t.zone[Black] = t.zone[Black].Or(t.ranks[rank])
		t.zone[White] = t.zone[White].Or(t.ranks[8-rank])
	}
	t.lastOne[Black] = t.ranks[0]
	t.lastOne[White] = t.ranks[8]
	t.lastTwo[Black] = t.ranks[0].Or(t.ranks[1])
	t.lastTwo[White] = t.ranks[8].Or(t.ranks[7])

	for _, c := range []Color{Black, White} {
		sign := 1
		if c == White {
			sign = -1
		}
		for pt, offs := range stepOffsets {
			for sq := Square(0); sq < NumSquares; sq++ {
				var bb Bitboard
				for _, o := range offs {
					f, r := sq.File()+o.df, sq.Rank()+o.dr*sign
					if onBoard(f, r) {
						bb = bb.Set(MakeSquare(f, r))
					}
				}
				t.step[c][pt][sq] = bb
			}
		}
		for _, pt := range []PieceType{ProPawn, ProLance, ProKnight, ProSilver} {
			t.step[c][pt] = t.step[c][Gold]
		}
		for sq := Square(0); sq < NumSquares; sq++ {
			var bb Bitboard
			for r := sq.Rank() - sign; r >= 0 && r < 9; r -= sign {
				bb = bb.Set(MakeSquare(sq.File(), r))
			}
			t.forward[c][sq] = bb
		}
	}

	for sq := Square(0); sq < NumSquares; sq++ {
		for line := 0; line < numLines; line++ {
			t.lines[sq][line] = buildLineTable(sq, lineOffsets[line])
		}
	}
	return t
}

func buildLineTable(sq Square, dirs [2]offset) lineTable {
	var inner []Square
	for _, d := range dirs {
		f, r := sq.File()+d.df, sq.Rank()+d.dr
		for onBoard(f, r) && onBoard(f+d.df, r+d.dr) {
			inner = append(inner, MakeSquare(f, r))
			f, r = f+d.df, r+d.dr
		}
	}
	lt := lineTable{inner: inner, attacks: make([]Bitboard, 1<<len(inner))}
	for idx := range lt.attacks {
		var occ Bitboard
		for i, s := range inner {
			if idx&(1<<i) != 0 {
				occ = occ.Set(s)
			}
		}
		var bb Bitboard
		for _, d := range dirs {
			f, r := sq.File()+d.df, sq.Rank()+d.dr
			for onBoard(f, r) {
				to := MakeSquare(f, r)
				bb = bb.Set(to)
				if occ.Test(to) {
					break
				}
				f, r = f+d.df, r+d.dr
			}
		}
		lt.attacks[idx] = bb
	}
	return lt
}

func lineAttacks(sq Square, line int, occ Bitboard) Bitboard {
	lt := &tables.lines[sq][line]
	idx := 0
	for i, s := range lt.inner {
		if occ.Test(s) {
			idx |= 1 << i
		}
	}
	return lt.attacks[idx]
}

// StepAttacks returns the squares a non-sliding piece attacks. Sliders
// return their step component only (empty for unpromoted sliders).
func StepAttacks(pt PieceType, c Color, sq Square) Bitboard {
	switch pt {
	case ProBishop, ProRook:
		return tables.step[c][King][sq]
	default:
		return tables.step[c][pt][sq]
	}
}

func LanceAttacks(c Color, sq Square, occ Bitboard) Bitboard {
	return lineAttacks(sq, lineFile, occ).And(tables.forward[c][sq])
}

func BishopAttacks(sq Square, occ Bitboard) Bitboard {
	return lineAttacks(sq, lineDiag, occ).Or(lineAttacks(sq, lineAnti, occ))
}

func RookAttacks(sq Square, occ Bitboard) Bitboard {
	return lineAttacks(sq, lineFile, occ).Or(lineAttacks(sq, lineRank, occ))
}

// Attacks returns the squares attacked by a piece of type pt and color c on
// sq, given the occupied squares occ.
func Attacks(pt PieceType, c Color, sq Square, occ Bitboard) Bitboard {
	switch pt {
	case Lance:
		return LanceAttacks(c, sq, occ)
	case Bishop:
		return BishopAttacks(sq, occ)
	case Rook:
		return RookAttacks(sq, occ)
	case ProBishop:
		return BishopAttacks(sq, occ).Or(tables.step[c][King][sq])
	case ProRook:
		return RookAttacks(sq, occ).Or(tables.step[c][King][sq])
	default:
		return tables.step[c][pt][sq]
	}
}

// PromotionZone returns the three ranks farthest from c's own side.
func PromotionZone(c Color) Bitboard {
	return tables.zone[c]
}

func FileMask(file int) Bitboard {
	return tables.files[file]
}

func RankMask(rank int) Bitboard {
	return tables.ranks[rank]
}
