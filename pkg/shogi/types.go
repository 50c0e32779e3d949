package shogi

import "fmt"

type Color int8

const (
	Black Color = iota
	White
	ColorNone
)

func (c Color) Opposite() Color {
	return c ^ 1
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "none"
	}
}

type PieceType uint8

const (
	Empty PieceType = iota
	Pawn
	Lance
	Knight
	Silver
	Bishop
	Rook
	Gold
	King
	ProPawn
	ProLance
	ProKnight
	ProSilver
	ProBishop
	ProRook
)

const (
	NumPieceTypes = 15
	// Stand counts are indexed by the unpromoted type, Pawn..Gold.
	NumStandTypes = 8
)

// StandTypes lists the droppable piece types in generation order.
var StandTypes = [...]PieceType{Pawn, Lance, Knight, Silver, Bishop, Rook, Gold}

// CanPromote reports whether pieces of this type may promote.
func (pt PieceType) CanPromote() bool {
	return pt >= Pawn && pt <= Rook
}

func (pt PieceType) IsPromoted() bool {
	return pt > King
}

func (pt PieceType) Promote() PieceType {
	return pt | 8
}

// Demote returns the unpromoted form; kings and unpromoted types are unchanged.
func (pt PieceType) Demote() PieceType {
	if pt > King {
		return pt &^ 8
	}
	return pt
}

// IsSlider reports whether the type scores as a major piece in declarations.
func (pt PieceType) IsSlider() bool {
	switch pt {
	case Bishop, Rook, ProBishop, ProRook:
		return true
	default:
		return false
	}
}

var pieceTypeLetters = [NumPieceTypes]string{
	"", "P", "L", "N", "S", "B", "R", "G", "K", "+P", "+L", "+N", "+S", "+B", "+R",
}

func (pt PieceType) String() string {
	if int(pt) >= len(pieceTypeLetters) {
		return fmt.Sprintf("PieceType(%d)", pt)
	}
	return pieceTypeLetters[pt]
}

// Piece packs a piece type with its owner. The zero value is an empty square.
type Piece uint8

const PieceNone Piece = 0

func MakePiece(pt PieceType, c Color) Piece {
	return Piece(uint8(pt) | uint8(c)<<4)
}

func (p Piece) Type() PieceType {
	return PieceType(p & 0x0f)
}

func (p Piece) Color() Color {
	if p == PieceNone {
		return ColorNone
	}
	return Color(p >> 4)
}

func (p Piece) IsEmpty() bool {
	return p == PieceNone
}

// Square indexes the board as rank + 9*file, where file 0 is USI file "1"
// and rank 0 is USI rank "a".
type Square int8

const (
	NumSquares    = 81
	SquareInvalid = Square(NumSquares)
)

func MakeSquare(file, rank int) Square {
	return Square(rank + 9*file)
}

func (sq Square) File() int {
	return int(sq) / 9
}

func (sq Square) Rank() int {
	return int(sq) % 9
}

func (sq Square) IsValid() bool {
	return sq >= 0 && sq < NumSquares
}

func (sq Square) String() string {
	if !sq.IsValid() {
		return "--"
	}
	return fmt.Sprintf("%d%c", sq.File()+1, 'a'+sq.Rank())
}

// Stand holds the counts of pieces in hand, indexed by unpromoted type.
type Stand [NumStandTypes]uint8

func (s Stand) Count(pt PieceType) int {
	return int(s[pt])
}

func (s Stand) IsEmpty() bool {
	return s == Stand{}
}

// IsSuperiorOrEqual reports whether s holds at least as many pieces of every
// type as other.
func (s Stand) IsSuperiorOrEqual(other Stand) bool {
	for _, pt := range StandTypes {
		if s[pt] < other[pt] {
			return false
		}
	}
	return true
}

// EndingRule selects how a game may end besides checkmate.
type EndingRule int

const (
	NoRule EndingRule = iota
	Declare27
	Draw24
	Trying
)

var endingRuleNames = map[string]EndingRule{
	"none":      NoRule,
	"declare27": Declare27,
	"draw24":    Draw24,
	"trying":    Trying,
}

// ParseEndingRule maps a config name to its rule. Empty selects NoRule.
func ParseEndingRule(name string) (EndingRule, error) {
	if name == "" {
		return NoRule, nil
	}
	rule, ok := endingRuleNames[name]
	if !ok {
		return NoRule, fmt.Errorf("unknown ending rule: %s", name)
	}
	return rule, nil
}

// StateConfig controls the ply cutoff and draw scoring of a State.
type StateConfig struct {
	Rule           EndingRule
	MaxPly         int
	BlackDrawValue float64
	WhiteDrawValue float64
}

func DefaultStateConfig() StateConfig {
	return StateConfig{
		Rule:           NoRule,
		MaxPly:         256,
		BlackDrawValue: 0.5,
		WhiteDrawValue: 0.5,
	}
}

// DrawValue returns the draw score from c's point of view.
func (cfg StateConfig) DrawValue(c Color) float64 {
	if c == White {
		return cfg.WhiteDrawValue
	}
	return cfg.BlackDrawValue
}
