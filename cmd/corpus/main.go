package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"tsume/pkg/record"
	"tsume/pkg/shogi"
	"tsume/pkg/solver"
)

// candidate is a position kept for the corpus.
type candidate struct {
	sfen  string
	count uint32
}

func main() {
	inputDir := flag.String("input", "kif", "input directory for KIF files")
	outputPath := flag.String("output", "corpus.sfen.zst", "output corpus (.zst compresses)")
	tail := flag.Int("tail", 16, "number of final plies of each game to scan")
	threshold := flag.Int("threshold", 1, "minimum occurrence count to include")
	checksOnly := flag.Bool("checks-only", true, "keep only positions where the side to move has a check")
	mateDepth := flag.Int("mate-depth", 0, "also require a DFS mate within this many plies (0 = off)")
	maxFiles := flag.Int("max-files", 0, "maximum number of files to process (0=all)")
	workers := flag.Int("workers", 0, "number of parallel workers (0=NumCPU)")
	flag.Parse()

	if *workers <= 0 {
		*workers = runtime.NumCPU()
	}
	start := time.Now()

	files, err := shogi.CollectKIF(*inputDir)
	if err != nil {
		fatal(err)
	}
	if *maxFiles > 0 && len(files) > *maxFiles {
		files = files[:*maxFiles]
	}
	if len(files) == 0 {
		fatal(fmt.Errorf("no .kif files found in %s", *inputDir))
	}
	fmt.Fprintf(os.Stderr, "files: %d, workers: %d, tail: %d, threshold: %d\n",
		len(files), *workers, *tail, *threshold)

	filter := func(st *shogi.State) bool {
		if *checksOnly && len(st.CheckMoves(true)) == 0 {
			return false
		}
		return *mateDepth <= 0 || !solver.DFS(st, *mateDepth).IsNone()
	}
	data, errFiles := collect(files, *tail, *workers, filter)

	entries := make([]string, 0, len(data))
	for _, c := range data {
		if c.count >= uint32(*threshold) {
			entries = append(entries, c.sfen)
		}
	}
	sort.Strings(entries)
	if err := record.WriteCorpus(*outputPath, entries); err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d positions, %d unique, %d file errors) in %v\n",
		*outputPath, len(entries), len(data), errFiles, time.Since(start).Round(time.Millisecond))
}

// iteratePositions replays a KIF record and calls fn for each of the last
// tail positions. st is reused between calls and must not be stored.
func iteratePositions(path string, tail int, fn func(st *shogi.State)) error {
	game, err := shogi.LoadGameFromKIF(path)
	if err != nil {
		return err
	}
	last := game.MoveCount()
	if game.IsFoulEnd() && last > 0 {
		last--
	}
	from := max(last-tail+1, 0)
	st, err := game.StateAt(from, shogi.DefaultStateConfig())
	if err != nil {
		return err
	}
	moves := game.Moves()
	for ply := from; ; ply++ {
		fn(st)
		if ply >= last {
			return nil
		}
		m, err := shogi.ParseMoveUSI(st.Position(), moves[ply])
		if err != nil {
			return fmt.Errorf("%s: move %d: %w", path, ply+1, err)
		}
		st.DoMove(m)
	}
}

// collect counts the positions accepted by keep, keyed by their packed form.
func collect(files []string, tail, workers int, keep func(*shogi.State) bool) (map[shogi.Packed256]*candidate, int) {
	data := make(map[shogi.Packed256]*candidate)
	var mu sync.Mutex
	var processed, errCount atomic.Int64

	type localEntry struct {
		packed shogi.Packed256
		sfen   string
	}

	ch := make(chan string, workers*4)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch := make([]localEntry, 0, 16)
			for path := range ch {
				batch = batch[:0]
				err := iteratePositions(path, tail, func(st *shogi.State) {
					packed, err := shogi.PackPosition256(st.Position())
					if err != nil || !keep(st) {
						return
					}
					batch = append(batch, localEntry{packed, st.Position().SFEN()})
				})
				if err != nil {
					errCount.Add(1)
				}
				if len(batch) > 0 {
					mu.Lock()
					for _, e := range batch {
						c := data[e.packed]
						if c == nil {
							c = &candidate{sfen: e.sfen}
							data[e.packed] = c
						}
						c.count++
					}
					mu.Unlock()
				}
				if n := processed.Add(1); n%1000 == 0 {
					fmt.Fprintf(os.Stderr, "\r  %d/%d", n, len(files))
				}
			}
		}()
	}
	for _, path := range files {
		ch <- path
	}
	close(ch)
	wg.Wait()
	fmt.Fprintf(os.Stderr, "\r  %d/%d\n", processed.Load(), len(files))
	return data, int(errCount.Load())
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
