package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"tsume/pkg/config"
	"tsume/pkg/logx"
	"tsume/pkg/record"
	"tsume/pkg/usi"
)

func main() {
	startTime := time.Now()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	configPath := flag.String("config", "", "path to config.json (default: search upward from cwd)")
	inputPath := flag.String("input", "solve.parquet", "solve results to verify")
	outputPath := flag.String("output", "verify.parquet", "output parquet file")
	processNum := flag.Int("process-num", 4, "number of parallel engines")
	resume := flag.Bool("resume", false, "resume from existing output parquet")
	eval := flag.Bool("eval", false, "also score unproved positions with go movetime")
	flag.Parse()

	log := logx.NewLogger()
	cfgPath, repoRoot, err := resolveConfigPath(*configPath)
	if err != nil {
		fatal(err)
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fatal(err)
	}
	enginePath, err := resolveEnginePath(cfg.Engine, repoRoot)
	if err != nil {
		fatal(err)
	}
	if _, err := os.Stat(enginePath); err != nil {
		fatal(fmt.Errorf("engine binary not found at %s: %w", enginePath, err))
	}
	solved, err := record.ReadParquet[record.SolveRecord](*inputPath, int64(*processNum))
	if err != nil {
		fatal(err)
	}
	millis := cfg.Millis
	if millis <= 0 {
		millis = 1000
	}

	workers := min(max(*processNum, 1), len(solved))
	if workers == 0 {
		log.Info().Str("input", *inputPath).Msg("nothing to verify")
		return
	}

	outputTarget := *outputPath
	processedIDs := make(map[string]struct{})
	resumeFromExisting := false
	if *resume {
		if _, err := os.Stat(*outputPath); err == nil {
			resumeFromExisting = true
			outputTarget = *outputPath + ".tmp"
		}
	}

	jobs := make(chan record.SolveRecord)
	errCh := make(chan error, workers)
	results := make(chan record.VerifyRecord, workers)
	var processed, disagreements atomic.Int64
	writeErr := record.StartParquetWriter(outputTarget, results, int64(workers), cancel)
	if resumeFromExisting {
		existing, err := record.ReadParquet[record.VerifyRecord](*outputPath, int64(workers))
		if err != nil {
			fatal(err)
		}
		for _, r := range existing {
			processedIDs[r.ID] = struct{}{}
			results <- r
		}
		log.Info().Int("records", len(existing)).Msg("resuming")
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stopCh)
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := startSession(ctx, log, enginePath)
			if err != nil {
				errCh <- err
				cancel()
				return
			}
			defer func() { session.Close() }()
			for rec := range jobs {
				out, err := verifyOne(ctx, session, rec, millis, *eval)
				if err != nil && isEngineFailure(err) && ctx.Err() == nil {
					_ = session.Close()
					if session, err = startSession(ctx, log, enginePath); err != nil {
						errCh <- err
						cancel()
						return
					}
					out, err = verifyOne(ctx, session, rec, millis, *eval)
				}
				if ctx.Err() != nil {
					return
				}
				processed.Add(1)
				if err != nil {
					log.Warn().Err(err).Str("id", rec.ID).Msg("verify failed")
					continue
				}
				if !out.Agree {
					disagreements.Add(1)
					logDisagreement(log, rec, out)
				}
				results <- out
			}
		}()
	}

enqueue:
	for _, rec := range solved {
		if _, ok := processedIDs[rec.ID]; ok {
			continue
		}
		if !rec.Proved() && !*eval {
			continue
		}
		select {
		case <-ctx.Done():
			break enqueue
		case jobs <- rec:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	if err := <-writeErr; err != nil {
		fatal(err)
	}
	if resumeFromExisting {
		if err := os.Rename(outputTarget, *outputPath); err != nil {
			fatal(err)
		}
	}
	close(errCh)
	for err := range errCh {
		if err != nil {
			fatal(err)
		}
	}
	log.Info().
		Int64("processed", processed.Load()).
		Int64("disagreements", disagreements.Load()).
		Dur("elapsed", time.Since(startTime).Round(time.Second)).
		Msg("done")
}

// verifyOne asks the engine for a mate on rec. A proved record agrees when
// the engine finds a mate too; an unproved one agrees unless it does.
func verifyOne(ctx context.Context, session *usi.Session, rec record.SolveRecord, millis int, eval bool) (record.VerifyRecord, error) {
	out := record.VerifyRecord{
		ID:            rec.ID,
		SFEN:          rec.SFEN,
		SolverOutcome: rec.Outcome,
		SolverMove:    rec.Move,
		SolverLength:  rec.Length,
	}
	sfen := strings.TrimPrefix(rec.SFEN, "sfen ")
	mate, err := session.Mate(ctx, sfen, millis)
	if err != nil {
		return out, err
	}
	out.EngineStatus = mate.MateStatus.String()
	out.EnginePV = strings.Join(mate.Mate, " ")
	out.EngineLength = int32(len(mate.Mate))
	found := mate.MateStatus == usi.MateFound
	switch {
	case rec.Proved():
		out.Agree = found
	case mate.MateStatus == usi.MateTimeout:
		out.Agree = true
	default:
		out.Agree = !found
	}
	if eval && !rec.Proved() {
		score, _, err := session.Evaluate(ctx, sfen, millis)
		if err != nil {
			return out, err
		}
		out.EngineScore = score.String()
	}
	return out, nil
}

func logDisagreement(log zerolog.Logger, rec record.SolveRecord, out record.VerifyRecord) {
	log.Warn().
		Str("id", rec.ID).
		Str("sfen", rec.SFEN).
		Str("solver", rec.Outcome).
		Str("solver_pv", rec.PV).
		Str("engine", out.EngineStatus).
		Str("engine_pv", out.EnginePV).
		Msg("solver and engine disagree")
}

func startSession(ctx context.Context, log zerolog.Logger, enginePath string) (*usi.Session, error) {
	session, err := usi.StartSession(ctx, log, enginePath)
	if err != nil {
		return nil, err
	}
	if err := session.Handshake(ctx, usi.DefaultOptions...); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}

func isEngineFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, usi.ErrStdoutClosed) || errors.Is(err, usi.ErrEngineClosed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "EOF")
}

func resolveConfigPath(arg string) (string, string, error) {
	if arg != "" {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return "", "", err
		}
		return abs, filepath.Dir(abs), nil
	}
	return config.FindConfigPath()
}

func resolveEnginePath(cfgEngine, repoRoot string) (string, error) {
	if cfgEngine == "" {
		return "", errors.New("engine path is required")
	}
	if filepath.IsAbs(cfgEngine) {
		return cfgEngine, nil
	}
	return filepath.Join(repoRoot, cfgEngine), nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
