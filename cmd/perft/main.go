package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"tsume/pkg/shogi"
)

func main() {
	sfen := flag.String("sfen", "startpos", "position, as SFEN or startpos, optionally with moves")
	depth := flag.Int("depth", 4, "perft depth")
	wily := flag.Bool("wily", false, "count with the wily generator instead of every promotion choice")
	divide := flag.Bool("divide", true, "print the count below every root move")
	flag.Parse()

	if *depth < 1 {
		fatal(fmt.Errorf("depth must be positive: %d", *depth))
	}
	st, err := shogi.NewStateFromSFEN(*sfen, shogi.DefaultStateConfig())
	if err != nil {
		fatal(err)
	}

	start := time.Now()
	type split struct {
		move  string
		nodes uint64
	}
	var splits []split
	var total uint64
	for _, m := range st.LegalMoves(*wily) {
		st.DoMove(m)
		n := count(st, *depth-1, *wily)
		st.UndoMove()
		splits = append(splits, split{m.USI(), n})
		total += n
	}
	if *divide {
		sort.Slice(splits, func(i, j int) bool { return splits[i].move < splits[j].move })
		for _, s := range splits {
			fmt.Printf("%s: %d\n", s.move, s.nodes)
		}
		fmt.Println()
	}
	elapsed := time.Since(start)
	fmt.Printf("nodes %d\n", total)
	fmt.Fprintf(os.Stderr, "depth %d in %v (%.0f nps)\n", *depth, elapsed.Round(time.Millisecond), float64(total)/elapsed.Seconds())
}

// count is perft on the State; the non-wily case uses the position-level
// counter, which skips hashing.
func count(st *shogi.State, depth int, wily bool) uint64 {
	if depth == 0 {
		return 1
	}
	if !wily {
		return shogi.Perft(st.Position(), depth)
	}
	var n uint64
	for _, m := range st.LegalMoves(true) {
		st.DoMove(m)
		n += count(st, depth-1, true)
		st.UndoMove()
	}
	return n
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
