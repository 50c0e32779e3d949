package shogi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const StartSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

var (
	ErrInvalidSFEN = errors.New("invalid sfen")
	ErrInvalidMove = errors.New("invalid move")
)

// handOrder is the SFEN order of pieces in hand.
var handOrder = [...]PieceType{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}

var sfenLetters = map[byte]PieceType{
	'P': Pawn, 'L': Lance, 'N': Knight, 'S': Silver,
	'G': Gold, 'B': Bishop, 'R': Rook, 'K': King,
}

func sfenPiece(r byte) (PieceType, Color, bool) {
	c := Black
	if r >= 'a' && r <= 'z' {
		c = White
		r -= 'a' - 'A'
	}
	pt, ok := sfenLetters[r]
	return pt, c, ok
}

// ParseSFEN parses "board turn hand [move]". The move number defaults to 1.
func ParseSFEN(sfen string) (Position, error) {
	fields := strings.Fields(sfen)
	if len(fields) < 3 || len(fields) > 4 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidSFEN, sfen)
	}
	pos := NewPosition()
	switch fields[1] {
	case "b":
		pos.turn = Black
	case "w":
		pos.turn = White
	default:
		return Position{}, fmt.Errorf("%w: bad side to move %q", ErrInvalidSFEN, fields[1])
	}
	if err := parseBoardSFEN(fields[0], &pos); err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidSFEN, err)
	}
	if err := parseHandsSFEN(fields[2], &pos); err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidSFEN, err)
	}
	if err := checkSupply(&pos); err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidSFEN, err)
	}
	if len(fields) == 4 {
		n, err := strconv.Atoi(fields[3])
		if err != nil || n < 1 {
			return Position{}, fmt.Errorf("%w: bad move number %q", ErrInvalidSFEN, fields[3])
		}
		pos.plyOffset = n - 1
	}
	return pos, nil
}

func parseBoardSFEN(board string, pos *Position) error {
	ranks := strings.Split(board, "/")
	if len(ranks) != 9 {
		return fmt.Errorf("invalid board ranks: %d", len(ranks))
	}
	for rank, text := range ranks {
		file := 8
		for i := 0; i < len(text); i++ {
			r := text[i]
			if r >= '1' && r <= '9' {
				file -= int(r - '0')
				continue
			}
			promoted := false
			if r == '+' {
				promoted = true
				i++
				if i >= len(text) {
					return errors.New("dangling promotion marker")
				}
				r = text[i]
			}
			pt, c, ok := sfenPiece(r)
			if !ok {
				return fmt.Errorf("unknown sfen piece %c", r)
			}
			if promoted {
				if !pt.CanPromote() {
					return fmt.Errorf("piece %c cannot promote", r)
				}
				pt = pt.Promote()
			}
			if file < 0 {
				return fmt.Errorf("rank %d has too many files", rank+1)
			}
			if pt == King && pos.kings[c] != SquareInvalid {
				return errors.New("more than one king per side")
			}
			pos.put(MakeSquare(file, rank), MakePiece(pt, c))
			file--
		}
		if file != -1 {
			return fmt.Errorf("rank %d does not have 9 files", rank+1)
		}
	}
	return nil
}

func parseHandsSFEN(hand string, pos *Position) error {
	if hand == "-" {
		return nil
	}
	count := 0
	for i := 0; i < len(hand); i++ {
		r := hand[i]
		if r >= '0' && r <= '9' {
			count = count*10 + int(r-'0')
			continue
		}
		if count == 0 {
			count = 1
		}
		pt, c, ok := sfenPiece(r)
		if !ok || pt == King {
			return fmt.Errorf("unknown hand piece %c", r)
		}
		n := int(pos.stands[c][pt]) + count
		if n > maxStandCount {
			return fmt.Errorf("too many %s in hand", pt)
		}
		pos.stands[c][pt] = uint8(n)
		count = 0
	}
	if count != 0 {
		return errors.New("trailing hand count")
	}
	return nil
}

// pieceSupply is the number of pieces of each unpromoted type in a set.
var pieceSupply = [King + 1]int{
	Pawn: 18, Lance: 4, Knight: 4, Silver: 4,
	Gold: 4, Bishop: 2, Rook: 2, King: 2,
}

// checkSupply rejects positions using more pieces of a type than one set
// holds, counting the board and both stands.
func checkSupply(pos *Position) error {
	var used [King + 1]int
	for _, pc := range pos.board {
		if pc != PieceNone {
			used[pc.Type().Demote()]++
		}
	}
	for c := Black; c <= White; c++ {
		for _, pt := range StandTypes {
			used[pt] += int(pos.stands[c][pt])
		}
	}
	for pt := Pawn; pt <= King; pt++ {
		if used[pt] > pieceSupply[pt] {
			return fmt.Errorf("%d %s exceed the set of %d", used[pt], pt, pieceSupply[pt])
		}
	}
	return nil
}

// IsValidSFEN reports whether sfen parses to a sane position.
func IsValidSFEN(sfen string) bool {
	pos, err := ParseSFEN(sfen)
	if err != nil {
		return false
	}
	return pos.IsLegalPosition()
}

// SFEN formats p with its own move number.
func (p *Position) SFEN() string {
	return p.ToSFEN(p.plyOffset + 1)
}

func (p *Position) ToSFEN(moveNumber int) string {
	var b strings.Builder
	for rank := 0; rank < 9; rank++ {
		if rank > 0 {
			b.WriteByte('/')
		}
		empty := 0
		for file := 8; file >= 0; file-- {
			pc := p.board[MakeSquare(file, rank)]
			if pc == PieceNone {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			text := pc.Type().String()
			if pc.Color() == White {
				text = strings.ToLower(text)
			}
			b.WriteString(text)
		}
		if empty > 0 {
			b.WriteString(strconv.Itoa(empty))
		}
	}
	if p.turn == White {
		b.WriteString(" w ")
	} else {
		b.WriteString(" b ")
	}
	b.WriteString(p.handSFEN())
	fmt.Fprintf(&b, " %d", moveNumber)
	return b.String()
}

func (p *Position) handSFEN() string {
	var b strings.Builder
	for _, c := range []Color{Black, White} {
		for _, pt := range handOrder {
			n := p.stands[c][pt]
			if n == 0 {
				continue
			}
			if n > 1 {
				b.WriteString(strconv.Itoa(int(n)))
			}
			text := pt.String()
			if c == White {
				text = strings.ToLower(text)
			}
			b.WriteString(text)
		}
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func parseUSISquare(text string) (Square, error) {
	if len(text) != 2 {
		return SquareInvalid, fmt.Errorf("invalid square: %s", text)
	}
	file := int(text[0] - '1')
	rank := int(text[1] - 'a')
	if !onBoard(file, rank) {
		return SquareInvalid, fmt.Errorf("invalid square: %s", text)
	}
	return MakeSquare(file, rank), nil
}

// ParseMoveUSI resolves a USI move string against pos. The result must be
// one of pos's legal moves; "win" is accepted as MoveWin.
func ParseMoveUSI(pos *Position, text string) (Move, error) {
	if text == "win" {
		return MoveWin, nil
	}
	var m Move
	if strings.Contains(text, "*") {
		if len(text) != 4 || text[1] != '*' {
			return MoveNone, fmt.Errorf("%w: %q", ErrInvalidMove, text)
		}
		pt, c, ok := sfenPiece(text[0])
		if !ok || c != Black || pt == King {
			return MoveNone, fmt.Errorf("%w: unknown drop piece in %q", ErrInvalidMove, text)
		}
		to, err := parseUSISquare(text[2:4])
		if err != nil {
			return MoveNone, fmt.Errorf("%w: %v", ErrInvalidMove, err)
		}
		m = NewDropMove(to, pt)
	} else {
		if len(text) != 4 && !(len(text) == 5 && text[4] == '+') {
			return MoveNone, fmt.Errorf("%w: %q", ErrInvalidMove, text)
		}
		from, err := parseUSISquare(text[0:2])
		if err != nil {
			return MoveNone, fmt.Errorf("%w: %v", ErrInvalidMove, err)
		}
		to, err := parseUSISquare(text[2:4])
		if err != nil {
			return MoveNone, fmt.Errorf("%w: %v", ErrInvalidMove, err)
		}
		pc := pos.board[from]
		if pc == PieceNone || pc.Color() != pos.turn {
			return MoveNone, fmt.Errorf("%w: no piece to move at %s", ErrInvalidMove, from)
		}
		m = NewBoardMove(from, to, pc.Type(), len(text) == 5, pos.board[to].Type())
	}
	if !pos.IsLegalMove(m) {
		return MoveNone, fmt.Errorf("%w: illegal move %s", ErrInvalidMove, text)
	}
	return m, nil
}

// IsValidMoveUSI reports whether text is a legal move in pos.
func IsValidMoveUSI(pos *Position, text string) bool {
	m, err := ParseMoveUSI(pos, text)
	return err == nil && !m.IsWin()
}

// NewStateFromSFEN builds a State from "startpos", "sfen <sfen>" or a bare
// SFEN, optionally followed by "moves m1 m2 ...". A trailing "win" token is
// ignored.
func NewStateFromSFEN(text string, cfg StateConfig) (*State, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "position ")
	var base string
	var moves []string
	if i := strings.Index(text, " moves"); i >= 0 {
		base = strings.TrimSpace(text[:i])
		moves = strings.Fields(text[i+len(" moves"):])
	} else {
		base = text
	}
	base = strings.TrimSpace(strings.TrimPrefix(base, "sfen "))
	if base == "startpos" {
		base = StartSFEN
	}
	pos, err := ParseSFEN(base)
	if err != nil {
		return nil, err
	}
	st := NewState(pos, cfg)
	for i, token := range moves {
		if token == "win" && i == len(moves)-1 {
			break
		}
		m, err := ParseMoveUSI(st.Position(), token)
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		if m.IsWin() {
			return nil, fmt.Errorf("move %d: %w: win before the last move", i+1, ErrInvalidMove)
		}
		st.DoMove(m)
	}
	return st, nil
}

// SFEN returns the initial position followed by the played moves.
func (s *State) SFEN() string {
	var b strings.Builder
	b.WriteString(s.initial.SFEN())
	if len(s.history) > 0 {
		b.WriteString(" moves")
		for _, m := range s.history {
			b.WriteByte(' ')
			b.WriteString(m.USI())
		}
	}
	return b.String()
}
