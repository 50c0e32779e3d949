package shogi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Game is a game record imported from KIF: a start position and the moves
// in USI notation.
type Game struct {
	initial Position
	moves   []string
	foulEnd bool
	Players KIFPlayers
	Result  string
	Reason  string
}

type KIFPlayers struct {
	SenteName string
	GoteName  string
}

var (
	moveLineRe     = regexp.MustCompile(`^\s*(\d+)\s+(.+?)\s+\(`)
	terminalLineRe = regexp.MustCompile(`^\s*(\d+)\s+(\S+)\s*$`)
	fromSquareRe   = regexp.MustCompile(`\((\d)(\d)\)`)
)

func readKIFLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := decodeKIF(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines, nil
}

// decodeKIF accepts UTF-8 (with or without BOM) and Shift-JIS input.
func decodeKIF(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data), nil
	}
	reader := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", errors.New("failed to decode Shift-JIS KIF")
	}
	return string(decoded), nil
}

// CollectKIF lists the .kif files under root in lexical order.
func CollectKIF(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".kif") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func LoadGameFromKIF(path string) (*Game, error) {
	lines, err := readKIFLines(path)
	if err != nil {
		return nil, err
	}
	return GameFromKIF(lines)
}

// GameFromKIF parses decoded KIF lines. Moves are checked for syntax here;
// legality is checked on replay.
func GameFromKIF(lines []string) (*Game, error) {
	pos, err := initialPositionFromKIF(lines)
	if err != nil {
		return nil, err
	}
	moves, err := parseKIFMoves(lines)
	if err != nil {
		return nil, err
	}
	g := &Game{
		initial: pos,
		moves:   moves,
		Players: KIFPlayers{
			SenteName: headerValue(lines, "先手"),
			GoteName:  headerValue(lines, "後手"),
		},
	}
	terminal, ply := findTerminalMove(lines)
	g.foulEnd = terminal == "反則勝ち" || terminal == "反則負け"
	g.Result, g.Reason = resultFromTerminal(terminal, ply)
	return g, nil
}

func (g *Game) MoveCount() int {
	return len(g.moves)
}

func (g *Game) Moves() []string {
	return append([]string(nil), g.moves...)
}

func (g *Game) InitialPosition() Position {
	return g.initial
}

// IsFoulEnd reports whether the game ended with 反則. The last recorded
// move is then usually illegal and StateAt fails on it.
func (g *Game) IsFoulEnd() bool {
	return g.foulEnd
}

// StateAt replays the first ply moves.
func (g *Game) StateAt(ply int, cfg StateConfig) (*State, error) {
	if ply < 0 || ply > len(g.moves) {
		return nil, fmt.Errorf("ply %d of %d: %w", ply, len(g.moves), ErrPlyOutOfRange)
	}
	st := NewState(g.initial, cfg)
	for i := 0; i < ply; i++ {
		m, err := ParseMoveUSI(st.Position(), g.moves[i])
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
		st.DoMove(m)
	}
	return st, nil
}

// SFENAt returns the position after ply moves as a plain SFEN.
func (g *Game) SFENAt(ply int) (string, error) {
	st, err := g.StateAt(ply, DefaultStateConfig())
	if err != nil {
		return "", err
	}
	return st.Position().SFEN(), nil
}

type kifSquare struct {
	file int
	rank int
}

func (s kifSquare) usi() string {
	return fmt.Sprintf("%d%c", s.file, 'a'+s.rank-1)
}

func parseKIFMoves(lines []string) ([]string, error) {
	var moves []string
	var prevDest *kifSquare
	for i, line := range lines {
		match := moveLineRe.FindStringSubmatch(line)
		if len(match) == 0 {
			match = terminalLineRe.FindStringSubmatch(line)
			if len(match) == 0 {
				continue
			}
		}
		moveText := strings.TrimSpace(match[2])
		if moveText == "" {
			continue
		}
		if isTerminalMove(moveText) {
			break
		}
		move, dest, err := parseKIFMoveToken(moveText, prevDest)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		moves = append(moves, move)
		prevDest = dest
	}
	return moves, nil
}

func parseKIFMoveToken(token string, prevDest *kifSquare) (string, *kifSquare, error) {
	work := strings.TrimSpace(token)
	var dest kifSquare
	if strings.HasPrefix(work, "同") {
		if prevDest == nil {
			return "", nil, errors.New("same-square move without previous destination")
		}
		dest = *prevDest
		work = strings.TrimLeft(strings.TrimPrefix(work, "同"), " 　")
	} else {
		runes := []rune(work)
		if len(runes) < 2 {
			return "", nil, fmt.Errorf("invalid move token: %s", token)
		}
		file, ok := parseFileRune(runes[0])
		if !ok {
			return "", nil, fmt.Errorf("invalid destination file in %s", token)
		}
		rank, ok := japaneseNumber(runes[1])
		if !ok || rank > 9 {
			return "", nil, fmt.Errorf("invalid destination rank in %s", token)
		}
		dest = kifSquare{file: file, rank: rank}
		work = string(runes[2:])
	}

	from, hasFrom := parseFromSquare(work)
	work = fromSquareRe.ReplaceAllString(work, "")

	noPromote := strings.Contains(work, "不成")
	work = strings.Replace(work, "不成", "", 1)
	promote := false
	if !noPromote && strings.Contains(work, "成") && !isPromotedName(work) {
		promote = true
	}
	drop := strings.Contains(work, "打")
	work = strings.Replace(work, "打", "", 1)

	letter, err := parseKIFPiece(work)
	if err != nil {
		return "", nil, err
	}
	if drop {
		return fmt.Sprintf("%s*%s", letter, dest.usi()), &dest, nil
	}
	if !hasFrom {
		return "", nil, fmt.Errorf("missing source square in %s", token)
	}
	usi := from.usi() + dest.usi()
	if promote {
		usi += "+"
	}
	return usi, &dest, nil
}

// isPromotedName reports whether text names an already promoted piece such
// as 成銀, whose 成 is not a promotion.
func isPromotedName(text string) bool {
	text = strings.TrimSpace(text)
	for _, name := range []string{"成銀", "成桂", "成香"} {
		if strings.HasPrefix(text, name) {
			return true
		}
	}
	return false
}

func isTerminalMove(token string) bool {
	switch token {
	case "投了", "中断", "持将棋", "千日手", "詰み", "切れ負け", "反則勝ち", "反則負け", "入玉勝ち", "勝ち宣言", "不詰":
		return true
	default:
		return false
	}
}

func parseFromSquare(text string) (kifSquare, bool) {
	match := fromSquareRe.FindStringSubmatch(text)
	if len(match) != 3 {
		return kifSquare{}, false
	}
	file := int(match[1][0] - '0')
	rank := int(match[2][0] - '0')
	if file < 1 || file > 9 || rank < 1 || rank > 9 {
		return kifSquare{}, false
	}
	return kifSquare{file: file, rank: rank}, true
}

func parseFileRune(r rune) (int, bool) {
	if r >= '1' && r <= '9' {
		return int(r - '0'), true
	}
	if r >= '１' && r <= '９' {
		return int(r-'１') + 1, true
	}
	return 0, false
}

var kifPieceNames = []struct {
	name   string
	letter string
}{
	{"成銀", "S"}, {"成桂", "N"}, {"成香", "L"},
	{"と", "P"}, {"馬", "B"}, {"龍", "R"}, {"竜", "R"},
	{"王", "K"}, {"玉", "K"}, {"飛", "R"}, {"角", "B"}, {"金", "G"},
	{"銀", "S"}, {"桂", "N"}, {"香", "L"}, {"歩", "P"},
}

func parseKIFPiece(text string) (string, error) {
	clean := strings.TrimSpace(text)
	for _, def := range kifPieceNames {
		if strings.HasPrefix(clean, def.name) {
			return def.letter, nil
		}
	}
	return "", fmt.Errorf("unknown piece in %s", text)
}

func headerValue(lines []string, key string) string {
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		for _, sep := range []string{"：", ":"} {
			if strings.HasPrefix(trim, key+sep) {
				return strings.TrimSpace(strings.TrimPrefix(trim, key+sep))
			}
		}
	}
	return ""
}

func findTerminalMove(lines []string) (string, int) {
	ply := 0
	for _, line := range lines {
		match := moveLineRe.FindStringSubmatch(line)
		if len(match) == 0 {
			match = terminalLineRe.FindStringSubmatch(line)
		}
		if len(match) == 0 {
			continue
		}
		ply++
		if text := strings.TrimSpace(match[2]); isTerminalMove(text) {
			return text, ply
		}
	}
	return "", 0
}

func resultFromTerminal(token string, ply int) (string, string) {
	switch token {
	case "":
		return "unknown", ""
	case "中断", "不詰":
		return "abort", token
	case "持将棋", "千日手":
		return "draw", token
	case "反則勝ち", "入玉勝ち", "勝ち宣言":
		return winnerFromPly(ply), token
	case "投了", "詰み", "切れ負け", "反則負け":
		return winnerFromPly(ply + 1), token
	default:
		return "unknown", token
	}
}

func winnerFromPly(ply int) string {
	if ply%2 == 1 {
		return "sente_win"
	}
	return "gote_win"
}

func initialPositionFromKIF(lines []string) (Position, error) {
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if strings.HasPrefix(trim, "手合割") && strings.Contains(trim, "平手") {
			return ParseSFEN(StartSFEN)
		}
	}
	var boardLines []string
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		// Rows look like "| ・v玉 ・ ... |一"; the rank label is optional.
		if strings.HasPrefix(trim, "|") && strings.Count(trim, "|") == 2 {
			boardLines = append(boardLines, trim[1:strings.LastIndex(trim, "|")])
		}
	}
	if len(boardLines) == 0 {
		return ParseSFEN(StartSFEN)
	}
	if len(boardLines) != 9 {
		return Position{}, fmt.Errorf("board lines must be 9 rows, got %d", len(boardLines))
	}
	pos := NewPosition()
	for rank, line := range boardLines {
		if err := parseBoardRow(line, rank, &pos); err != nil {
			return Position{}, fmt.Errorf("row %d: %w", rank+1, err)
		}
	}
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trim, "手番") && strings.Contains(trim, "後手"):
			pos.turn = White
		case strings.HasPrefix(trim, "後手番"):
			pos.turn = White
		case strings.HasPrefix(trim, "先手の持駒"), strings.HasPrefix(trim, "下手の持駒"):
			if err := parseHandLine(trim, Black, &pos); err != nil {
				return Position{}, err
			}
		case strings.HasPrefix(trim, "後手の持駒"), strings.HasPrefix(trim, "上手の持駒"):
			if err := parseHandLine(trim, White, &pos); err != nil {
				return Position{}, err
			}
		}
	}
	return pos, nil
}

func parseBoardRow(line string, rank int, pos *Position) error {
	runes := []rune(line)
	file := 8
	for i := 0; i < len(runes); {
		r := runes[i]
		switch r {
		case ' ', '\t', '　':
			i++
			continue
		case '・':
			file--
			i++
			continue
		}
		c := Black
		if r == 'v' {
			c = White
			i++
			if i >= len(runes) {
				return errors.New("dangling gote marker")
			}
		}
		pt, consumed, err := parseBoardPiece(runes[i:])
		if err != nil {
			return err
		}
		if file < 0 {
			return errors.New("too many cells")
		}
		pos.put(MakeSquare(file, rank), MakePiece(pt, c))
		file--
		i += consumed
	}
	if file != -1 {
		return fmt.Errorf("expected 9 cells, got %d", 8-file)
	}
	return nil
}

var kifBoardPieces = map[rune]PieceType{
	'歩': Pawn, '香': Lance, '桂': Knight, '銀': Silver, '金': Gold,
	'角': Bishop, '飛': Rook, '玉': King, '王': King,
	'と': ProPawn, '杏': ProLance, '圭': ProKnight, '全': ProSilver,
	'馬': ProBishop, '龍': ProRook, '竜': ProRook,
}

func parseBoardPiece(runes []rune) (PieceType, int, error) {
	if runes[0] == '成' {
		if len(runes) < 2 {
			return Empty, 0, errors.New("missing promoted piece")
		}
		pt, ok := kifBoardPieces[runes[1]]
		if !ok || !pt.CanPromote() {
			return Empty, 0, fmt.Errorf("unknown promoted piece %c", runes[1])
		}
		return pt.Promote(), 2, nil
	}
	pt, ok := kifBoardPieces[runes[0]]
	if !ok {
		return Empty, 0, fmt.Errorf("unknown piece %c", runes[0])
	}
	return pt, 1, nil
}

func parseHandLine(line string, c Color, pos *Position) error {
	parts := strings.SplitN(line, "：", 2)
	if len(parts) != 2 {
		parts = strings.SplitN(line, ":", 2)
	}
	if len(parts) != 2 {
		return fmt.Errorf("invalid hand line: %s", line)
	}
	text := strings.TrimSpace(parts[1])
	if text == "なし" || text == "" {
		return nil
	}
	for _, token := range strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == '　' }) {
		runes := []rune(token)
		pt, ok := kifBoardPieces[runes[0]]
		if !ok || pt.IsPromoted() || pt == King {
			return fmt.Errorf("unknown hand piece %c", runes[0])
		}
		count := 1
		if len(runes) > 1 {
			n, ok := parseKanjiCount(runes[1:])
			if !ok {
				return fmt.Errorf("invalid hand count in %s", token)
			}
			count = n
		}
		pos.stands[c][pt] += uint8(count)
	}
	return nil
}

func japaneseNumber(r rune) (int, bool) {
	const digits = "一二三四五六七八九"
	for i, d := range []rune(digits) {
		if r == d {
			return i + 1, true
		}
	}
	return 0, false
}

// parseKanjiCount parses counts up to 18 written as 二, 十, 十八 or digits.
func parseKanjiCount(runes []rune) (int, bool) {
	if runes[0] >= '0' && runes[0] <= '9' {
		n := 0
		for _, r := range runes {
			if r < '0' || r > '9' {
				return 0, false
			}
			n = n*10 + int(r-'0')
		}
		return n, true
	}
	n := 0
	for i, r := range runes {
		if r == '十' {
			if i != 0 {
				return 0, false
			}
			n = 10
			continue
		}
		d, ok := japaneseNumber(r)
		if !ok || i > 1 || (i == 1 && n != 10) {
			return 0, false
		}
		n += d
	}
	return n, n > 0
}
