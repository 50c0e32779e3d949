package shogi

import (
	"errors"
	"fmt"
)

var (
	ErrNoHistory     = errors.New("no move history")
	ErrPlyOutOfRange = errors.New("ply out of range")
)

// frame is what a State remembers about each ply for hashing, repetition
// and check tracking. frames[i] describes the position after i moves.
type frame struct {
	boardHash uint64
	standHash uint64
	stands    [2]Stand
	checkers  Bitboard
	// checks[c] counts the consecutive checks given by c up to this ply.
	checks [2]uint16
}

func (f *frame) hash() uint64 {
	return f.boardHash ^ f.standHash
}

// State is a Position with its move history. A State is not safe for
// concurrent use; use Clone to hand a copy to another goroutine.
type State struct {
	pos     Position
	initial Position
	history []Move
	frames  []frame
	config  StateConfig
}

// NewState starts a game record at pos.
func NewState(pos Position, cfg StateConfig) *State {
	st := &State{
		pos:     pos,
		initial: pos,
		history: make([]Move, 0, 64),
		frames:  make([]frame, 1, 65),
		config:  cfg,
	}
	f := &st.frames[0]
	f.boardHash = pos.ComputeBoardHash()
	f.standHash = standHash(pos.stands)
	f.stands = pos.stands
	f.checkers = pos.Checkers()
	if !f.checkers.IsZero() {
		f.checks[pos.turn.Opposite()] = 1
	}
	return st
}

func (s *State) top() *frame {
	return &s.frames[len(s.frames)-1]
}

// DoMove plays m, which must be legal in the current position.
func (s *State) DoMove(m Move) {
	prev := s.top()
	next := frame{
		boardHash: prev.boardHash ^ sideKey,
		standHash: prev.standHash,
		checks:    prev.checks,
	}
	us := s.pos.turn
	to := m.To()
	if m.IsDrop() {
		pt := m.DropType()
		n := int(s.pos.stands[us][pt])
		next.standHash ^= standKey(us, pt, n) ^ standKey(us, pt, n-1)
		next.boardHash ^= boardKey(MakePiece(pt, us), to)
	} else {
		pt := m.PieceType()
		next.boardHash ^= boardKey(MakePiece(pt, us), m.From())
		if captured := m.Capture(); captured != Empty {
			next.boardHash ^= boardKey(MakePiece(captured, us.Opposite()), to)
			hand := captured.Demote()
			n := int(s.pos.stands[us][hand])
			next.standHash ^= standKey(us, hand, n) ^ standKey(us, hand, n+1)
		}
		if m.Promote() {
			pt = pt.Promote()
		}
		next.boardHash ^= boardKey(MakePiece(pt, us), to)
	}

	s.pos.Apply(m)
	next.stands = s.pos.stands
	next.checkers = s.pos.Checkers()
	if next.checkers.IsZero() {
		next.checks[us] = 0
	} else {
		next.checks[us]++
	}
	s.history = append(s.history, m)
	s.frames = append(s.frames, next)
}

// UndoMove takes back the last move. It panics on an empty history.
func (s *State) UndoMove() Move {
	n := len(s.history)
	if n == 0 {
		panic("shogi: UndoMove with empty history")
	}
	m := s.history[n-1]
	s.pos.Unapply(m)
	s.history = s.history[:n-1]
	s.frames = s.frames[:len(s.frames)-1]
	return m
}

// Ply is the number of moves played since the initial position.
func (s *State) Ply() int {
	return len(s.history)
}

// HistoryMove returns the move played at ply (0-based).
func (s *State) HistoryMove(ply int) (Move, error) {
	if ply < 0 || ply >= len(s.history) {
		return MoveNone, fmt.Errorf("history move %d of %d: %w", ply, len(s.history), ErrPlyOutOfRange)
	}
	return s.history[ply], nil
}

func (s *State) LastMove() (Move, error) {
	if len(s.history) == 0 {
		return MoveNone, ErrNoHistory
	}
	return s.history[len(s.history)-1], nil
}

// History returns a copy of the played moves.
func (s *State) History() []Move {
	return append([]Move(nil), s.history...)
}

func (s *State) Position() *Position {
	return &s.pos
}

func (s *State) InitialPosition() Position {
	return s.initial
}

func (s *State) Config() StateConfig {
	return s.config
}

func (s *State) SideToMove() Color {
	return s.pos.turn
}

// Hash identifies the current position including the side to move.
func (s *State) Hash() uint64 {
	return s.top().hash()
}

// BoardHash covers the board and side to move but not the stands.
func (s *State) BoardHash() uint64 {
	return s.top().boardHash
}

func (s *State) Checkers() Bitboard {
	return s.top().checkers
}

func (s *State) InCheck() bool {
	return !s.top().checkers.IsZero()
}

// ContinuousChecks returns how many consecutive checks c has given.
func (s *State) ContinuousChecks(c Color) int {
	return int(s.top().checks[c])
}

func (s *State) LegalMoves(wily bool) []Move {
	return GenerateLegalMoves(&s.pos, wily)
}

func (s *State) CheckMoves(wily bool) []Move {
	return GenerateCheckMoves(&s.pos, wily)
}

func (s *State) HasLegalMove() bool {
	return HasLegalMove(&s.pos)
}

// IsMaxPly reports whether the game has reached the configured ply cutoff,
// counting the plies before the initial position.
func (s *State) IsMaxPly() bool {
	return s.config.MaxPly > 0 && s.pos.plyOffset >= s.config.MaxPly
}

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	c := *s
	c.history = append(make([]Move, 0, cap(s.history)), s.history...)
	c.frames = append(make([]frame, 0, cap(s.frames)), s.frames...)
	return &c
}

// Move32FromMove16 restores the piece and capture fields of a compact move
// from the current position. It returns MoveNone when the source square is
// empty.
func (s *State) Move32FromMove16(m Move16) Move {
	switch Move(m) {
	case MoveNone:
		return MoveNone
	case MoveWin:
		return MoveWin
	}
	to := m.To()
	raw := m.rawFrom()
	if raw > dropFromBase {
		return NewDropMove(to, PieceType(raw-dropFromBase))
	}
	from := Square(raw)
	if !from.IsValid() || !to.IsValid() || s.pos.board[from] == PieceNone {
		return MoveNone
	}
	return NewBoardMove(from, to, s.pos.board[from].Type(), m.Promote(), s.pos.board[to].Type())
}
