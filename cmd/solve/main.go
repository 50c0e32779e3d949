package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tsume/pkg/config"
	"tsume/pkg/logx"
	"tsume/pkg/record"
	"tsume/pkg/shogi"
	"tsume/pkg/solver"
)

// job is one position to solve.
type job struct {
	id     string
	source string
	st     *shogi.State
}

type options struct {
	maxNodes uint64
	maxDepth uint64
	strict   bool
	memoryMB int
}

func main() {
	configPath := flag.String("config", "", "config.json path (default: search upward from cwd)")
	input := flag.String("input", "", "SFEN corpus, one position per line (.zst allowed)")
	kifDir := flag.String("kif-dir", "", "directory of KIF records to solve")
	kifPly := flag.Int("kif-ply", 0, "ply of each KIF record to solve (-1 = last)")
	outputPath := flag.String("output", "solve.parquet", "output parquet file")
	workers := flag.Int("workers", 0, "number of parallel solvers (0=NumCPU)")
	maxNodes := flag.Uint64("max-nodes", 0, "node budget per position (0 = config)")
	maxDepth := flag.Uint64("max-depth", 0, "ply limit per position (0 = config)")
	memoryMB := flag.Int("memory-mb", 0, "transposition table size per worker (0 = config)")
	strict := flag.Bool("strict", false, "verify proofs against repetitions (also enabled by config)")
	logLevel := flag.String("log-level", "", "log level (default: config or info)")
	flag.Parse()

	if (*input == "") == (*kifDir == "") {
		fatal(errors.New("exactly one of -input or -kif-dir is required"))
	}
	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		fatal(err)
	}
	if *logLevel == "" {
		*logLevel = cfg.Log
	}
	level, err := logx.ParseLevel(*logLevel)
	if err != nil {
		fatal(err)
	}
	log := logx.NewLogger().Level(level)

	opts := options{
		maxNodes: cfg.Solver.MaxNodes,
		maxDepth: cfg.Solver.MaxDepth,
		strict:   cfg.Solver.Strict || *strict,
		memoryMB: cfg.Solver.MemoryMB,
	}
	if *maxNodes > 0 {
		opts.maxNodes = *maxNodes
	}
	if *maxDepth > 0 {
		opts.maxDepth = *maxDepth
	}
	if *memoryMB > 0 {
		opts.memoryMB = *memoryMB
	}
	if *workers <= 0 {
		*workers = runtime.NumCPU()
	}
	stateCfg, err := cfg.StateConfig()
	if err != nil {
		fatal(err)
	}

	start := time.Now()
	var jobs []job
	if *input != "" {
		jobs, err = loadCorpus(*input, stateCfg)
	} else {
		jobs, err = loadKIFDir(*kifDir, *kifPly, stateCfg, log)
	}
	if err != nil {
		fatal(err)
	}
	jobs = dedup(jobs)
	log.Info().
		Int("positions", len(jobs)).
		Int("workers", *workers).
		Uint64("max_nodes", opts.maxNodes).
		Uint64("max_depth", opts.maxDepth).
		Bool("strict", opts.strict).
		Msg("solving")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan record.SolveRecord, *workers*4)
	writeDone := record.StartParquetWriter(*outputPath, results, int64(*workers), cancel)

	proved, err := solveAll(ctx, jobs, *workers, opts, results, log)
	close(results)
	if werr := <-writeDone; werr != nil {
		fatal(werr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fatal(err)
	}

	log.Info().
		Int("positions", len(jobs)).
		Int64("proved", proved).
		Str("output", *outputPath).
		Dur("elapsed", time.Since(start).Round(time.Millisecond)).
		Msg("done")
}

// solveAll runs one DFPN per worker over jobs. Workers check ctx between
// positions, so an interrupt keeps the results written so far.
func solveAll(ctx context.Context, jobs []job, workers int, opts options, results chan<- record.SolveRecord, log zerolog.Logger) (int64, error) {
	var next, done, proved atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			dfpn := solver.NewDFPN(solver.DFPNConfig{
				MemoryMB: opts.memoryMB,
				Logger:   log.With().Int("worker", w).Logger(),
			})
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				i := int(next.Add(1)) - 1
				if i >= len(jobs) {
					return nil
				}
				rec := solveOne(dfpn, jobs[i], opts)
				if rec.Proved() {
					proved.Add(1)
				}
				select {
				case results <- rec:
				case <-ctx.Done():
					return ctx.Err()
				}
				if n := done.Add(1); n%100 == 0 {
					fmt.Fprintf(os.Stderr, "\r  %d/%d", n, len(jobs))
				}
			}
		})
	}
	err := g.Wait()
	fmt.Fprintf(os.Stderr, "\r  %d/%d\n", done.Load(), len(jobs))
	return proved.Load(), err
}

func solveOne(dfpn *solver.DFPN, j job, opts options) record.SolveRecord {
	res := dfpn.Search(j.st, opts.maxNodes, opts.maxDepth, opts.strict, true)
	pv := make([]string, len(res.PV))
	for i, m := range res.PV {
		pv[i] = m.USI()
	}
	return record.SolveRecord{
		ID:       j.id,
		SFEN:     j.st.SFEN(),
		Source:   j.source,
		Outcome:  res.Outcome.String(),
		Move:     res.Move.USI(),
		PV:       strings.Join(pv, " "),
		Length:   int32(len(pv)),
		Nodes:    int64(res.Nodes),
		Millis:   res.Elapsed.Milliseconds(),
		MaxNodes: int64(opts.maxNodes),
		Strict:   opts.strict,
	}
}

func loadCorpus(path string, cfg shogi.StateConfig) ([]job, error) {
	corpus, err := record.OpenCorpus(path)
	if err != nil {
		return nil, err
	}
	defer corpus.Close()
	var jobs []job
	for {
		text, line, err := corpus.Next()
		if errors.Is(err, io.EOF) {
			return jobs, nil
		}
		if err != nil {
			return nil, err
		}
		st, err := shogi.NewStateFromSFEN(text, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		jobs = append(jobs, job{id: positionID(st), source: fmt.Sprintf("%s:%d", path, line), st: st})
	}
}

func loadKIFDir(dir string, ply int, cfg shogi.StateConfig, log zerolog.Logger) ([]job, error) {
	files, err := shogi.CollectKIF(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .kif files found in %s", dir)
	}
	var jobs []job
	for _, path := range files {
		game, err := shogi.LoadGameFromKIF(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipping record")
			continue
		}
		at := ply
		if at < 0 || at > game.MoveCount() {
			at = game.MoveCount()
		}
		st, err := game.StateAt(at, cfg)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Int("ply", at).Msg("skipping record")
			continue
		}
		jobs = append(jobs, job{id: positionID(st), source: fmt.Sprintf("%s:%d", path, at), st: st})
	}
	return jobs, nil
}

// positionID names a position by its packed form, or by its hash when the
// piece set is incomplete.
func positionID(st *shogi.State) string {
	if packed, err := shogi.PackPosition256(st.Position()); err == nil {
		return packed.Hex()
	}
	return fmt.Sprintf("%016x", st.Hash())
}

// dedup keeps the first job of every position. Positions reached with a
// history are kept apart since repetitions depend on it.
func dedup(jobs []job) []job {
	seen := make(map[string]struct{}, len(jobs))
	out := jobs[:0]
	for _, j := range jobs {
		key := j.id
		if j.st.Ply() > 0 {
			key = j.st.SFEN()
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, j)
	}
	return out
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
