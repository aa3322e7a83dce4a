// Package batch fans a mixed list of files and directories out across a
// bounded worker pool, funnels per-item results through a single collector,
// and streams progress to the caller.
package batch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/AnferLagbu/Chameleon/internal/policy"
	"github.com/AnferLagbu/Chameleon/pkg/imgutil"
)

// ErrDirectoryRead marks a source directory that could not be enumerated.
var ErrDirectoryRead = errors.New("read source directory")

// Options tunes a batch run.
type Options struct {
	// Workers bounds the top-level pool; 0 means DefaultWorkers().
	Workers int
	// Logger receives engine diagnostics; nil means no logging.
	Logger *zap.Logger
}

// DefaultWorkers is the top-level pool bound: at most 4, at least 1, leaving
// one CPU for the consumer.
func DefaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n > 4 {
		n = 4
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Batch is the handle returned by Submit.
type Batch struct {
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
}

// Events returns the batch's event stream. It closes after the terminal
// Complete or Cancelled event.
func (b *Batch) Events() <-chan Event {
	return b.events
}

// Cancel requests cooperative cancellation. It is monotone: once requested,
// the batch ends with a single Cancelled event and no tally.
func (b *Batch) Cancel() {
	b.cancel()
}

// Wait blocks until the batch has fully stopped.
func (b *Batch) Wait() {
	<-b.done
}

type job struct {
	index int
	path  string
}

// update flows from workers to the collector: an optional event to forward
// plus this step's tally delta. The collector is the only goroutine that
// touches the shared tally.
type update struct {
	event Event
	delta Tally
}

// Submit starts a batch over items and returns its handle immediately. cfg
// is read-only for the batch's lifetime.
func Submit(ctx context.Context, items []string, cfg policy.Config, opts Options) *Batch {
	ctx, cancel := context.WithCancel(ctx)
	b := &Batch{
		events: make(chan Event, 64),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	go run(ctx, b, items, cfg, workers, logger)
	return b
}

func run(ctx context.Context, b *Batch, items []string, cfg policy.Config, workers int, logger *zap.Logger) {
	defer close(b.done)
	defer close(b.events)

	total := len(items)
	logger.Info("batch started",
		zap.Int("items", total),
		zap.Int("workers", workers),
		zap.String("target", cfg.Target.Format.String()),
	)

	jobs := make(chan job)
	updates := make(chan update)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					continue // drain; dispatched-but-not-started work is abandoned
				}
				processItem(ctx, j, total, cfg, updates, logger)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, path := range items {
			select {
			case jobs <- job{index: i, path: path}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(updates)
	}()

	var tally Tally
	for u := range updates {
		tally.add(u.delta)
		// After cancellation only the terminal event goes out.
		if u.event != nil && ctx.Err() == nil {
			b.events <- u.event
		}
	}

	if ctx.Err() != nil {
		logger.Info("batch cancelled")
		b.events <- Cancelled{}
		return
	}

	logger.Info("batch complete",
		zap.Int("success", tally.Success),
		zap.Int("failure", tally.Failure),
		zap.Int("animated", tally.Animated),
		zap.Int("skipped", tally.SkippedAnimated),
	)
	b.events <- Complete{Tally: tally}
}

func processItem(ctx context.Context, j job, total int, cfg policy.Config, updates chan<- update, logger *zap.Logger) {
	info, err := os.Stat(j.path)
	if err != nil {
		updates <- update{
			event: FileError{Path: j.path, Message: err.Error()},
			delta: Tally{Failure: 1},
		}
		return
	}

	if info.IsDir() {
		runDirectory(ctx, j, total, cfg, updates, logger)
		return
	}
	runFile(ctx, j.path, itemPercent(j.index, total), "", cfg, updates, logger)
}

// itemPercent is the coarse batch percent after the item at index finishes.
func itemPercent(index, total int) int {
	return clampPercent(int(math.Round(float64(index+1) / float64(total) * 100)))
}

func clampPercent(p int) int {
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// runFile converts one file and streams its updates. percent is the batch
// percent to report for this item; overrideDir, when set, is the shared
// output root of the directory sub-batch this file belongs to.
func runFile(ctx context.Context, path string, percent int, overrideDir string, cfg policy.Config, updates chan<- update, logger *zap.Logger) {
	name := filepath.Base(path)
	updates <- update{event: Progress{Percent: percent, Message: "converting: " + name}}

	res := policy.ConvertFile(ctx, path, cfg, overrideDir)

	var delta Tally
	if res.Animated {
		delta.Animated = 1
		updates <- update{event: Progress{Percent: percent, Message: "animated image detected: " + name}}
	}

	switch res.Outcome {
	case policy.Success:
		delta.Success = 1
		msg := "converted: " + filepath.Base(res.OutputPath)
		if res.Note != "" {
			msg += " (" + res.Note + ")"
		}
		updates <- update{event: Progress{Percent: percent, Message: msg}, delta: delta}
		logger.Debug("file converted", zap.String("source", path), zap.String("output", res.OutputPath))

	case policy.Skipped:
		delta.SkippedAnimated = 1
		updates <- update{event: Progress{Percent: percent, Message: "skipped: " + name}, delta: delta}

	case policy.Failure:
		delta.Failure = 1
		updates <- update{event: FileError{Path: path, Message: res.Note}, delta: delta}
		logger.Warn("file failed", zap.String("source", path), zap.String("reason", res.Note))

	case policy.Canceled:
		// Cancellation mid-file: nothing is counted or reported.
	}
}

// runDirectory expands a directory item into its contained image files and
// converts them sequentially into {dirname}_converted. Failures inside the
// directory never abort the batch; a failure to read the directory aborts
// only this sub-batch.
func runDirectory(ctx context.Context, j job, total int, cfg policy.Config, updates chan<- update, logger *zap.Logger) {
	entries, err := os.ReadDir(j.path)
	if err != nil {
		updates <- update{event: FileError{
			Path:    j.path,
			Message: fmt.Errorf("%w: %v", ErrDirectoryRead, err).Error(),
		}}
		return
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && imgutil.HasImageExtension(entry.Name()) {
			files = append(files, filepath.Join(j.path, entry.Name()))
		}
	}

	dirName := filepath.Base(j.path)
	percent := itemPercent(j.index, total)

	if len(files) == 0 {
		updates <- update{event: Progress{Percent: percent, Message: "no images in folder: " + dirName}}
		return
	}

	outRoot := cfg.OutputDir
	if outRoot == "" {
		outRoot = j.path
	}
	subOut := filepath.Join(outRoot, dirName+"_converted")
	if err := os.MkdirAll(subOut, 0o755); err != nil {
		updates <- update{event: FileError{
			Path:    j.path,
			Message: fmt.Errorf("%w: %v", policy.ErrOutputDir, err).Error(),
		}}
		return
	}

	updates <- update{event: Progress{
		Percent: percent,
		Message: fmt.Sprintf("processing folder: %s (%d files)", dirName, len(files)),
	}}
	logger.Debug("directory sub-batch", zap.String("dir", j.path), zap.Int("files", len(files)))

	for i, file := range files {
		if ctx.Err() != nil {
			return
		}
		runFile(ctx, file, directoryPercent(j.index, total, i, len(files)), subOut, cfg, updates, logger)
	}
}

// directoryPercent refines the batch percent with the fractional position
// inside an in-progress directory.
func directoryPercent(index, total, sub, subTotal int) int {
	p := (float64(index+1) + float64(sub+1)/float64(subTotal)) / float64(total) * 100
	return clampPercent(int(p))
}
