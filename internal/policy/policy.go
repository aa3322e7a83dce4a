// Package policy decides, per source file, which conversion path to take and
// where the output lands.
package policy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AnferLagbu/Chameleon/internal/codec"
	"github.com/AnferLagbu/Chameleon/internal/format"
	"github.com/AnferLagbu/Chameleon/internal/frame"
	"github.com/AnferLagbu/Chameleon/internal/meta"
)

// Mode selects how animated sources are handled.
type Mode int

const (
	// ToStatic keeps only the first frame.
	ToStatic Mode = iota
	// SplitFrames writes every frame as its own file.
	SplitFrames
	// Skip leaves animated sources untouched.
	Skip
	// Preserve keeps the animation when the target can hold it.
	Preserve
)

func (m Mode) String() string {
	switch m {
	case ToStatic:
		return "static"
	case SplitFrames:
		return "split"
	case Skip:
		return "skip"
	case Preserve:
		return "preserve"
	default:
		return "unknown"
	}
}

// ParseMode resolves a user-supplied animation mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static":
		return ToStatic, nil
	case "split":
		return SplitFrames, nil
	case "skip":
		return Skip, nil
	case "preserve":
		return Preserve, nil
	default:
		return ToStatic, fmt.Errorf("unknown animation mode %q", s)
	}
}

// Config is the read-only per-batch configuration.
type Config struct {
	Target       format.Target
	OutputDir    string
	Animation    Mode
	Overwrite    bool
	PreserveEXIF bool
	Quality      int
}

// Outcome classifies a per-file result.
type Outcome int

const (
	Success Outcome = iota
	Failure
	Skipped
	Canceled
)

// Result is the per-file outcome record.
type Result struct {
	Source     string
	Outcome    Outcome
	OutputPath string
	Note       string
	Animated   bool
}

// ErrOutputDir marks a destination directory that could not be created.
var ErrOutputDir = errors.New("create output directory")

const (
	noteStaticReduction = "reduced to static first frame"
	noteSkipped         = "animation skipped"
)

// ConvertFile runs one source file through detection, normalization and
// encoding. overrideDir, when non-empty, wins over both the configured
// output directory and the source's own directory; directory sub-batches use
// it to land files in their shared output root.
func ConvertFile(ctx context.Context, path string, cfg Config, overrideDir string) Result {
	res := Result{Source: path}

	if err := ctx.Err(); err != nil {
		res.Outcome = Canceled
		return res
	}

	outDir := overrideDir
	if outDir == "" {
		outDir = cfg.OutputDir
	}
	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fail(res, fmt.Errorf("%w: %v", ErrOutputDir, err))
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var rawExif []byte
	if cfg.PreserveEXIF {
		rawExif = meta.ExtractRaw(path)
	}

	res.Animated = frame.IsMultiFrame(path)
	if !res.Animated {
		return convertStill(ctx, res, path, cfg, outDir, base, rawExif)
	}

	switch cfg.Animation {
	case ToStatic:
		return convertFirstFrame(ctx, res, path, cfg, outDir, base, rawExif)

	case SplitFrames:
		return splitFrames(ctx, res, path, cfg, outDir, base, rawExif)

	case Skip:
		res.Outcome = Skipped
		res.Note = noteSkipped
		return res

	case Preserve:
		if !cfg.Target.Format.SupportsMultiFrame() {
			// Preserve is meaningless for a non-animatable target.
			return convertFirstFrame(ctx, res, path, cfg, outDir, base, rawExif)
		}
		return preserveAnimation(ctx, res, path, cfg, outDir, base, rawExif)

	default:
		return fail(res, fmt.Errorf("unknown animation mode %d", cfg.Animation))
	}
}

func convertStill(ctx context.Context, res Result, path string, cfg Config, outDir, base string, rawExif []byte) Result {
	frames, err := frame.Extract(ctx, path)
	if err != nil {
		return failOrCancel(ctx, res, err)
	}

	normalized := frame.NormalizeForTarget(frames[0].Image, cfg.Target)
	outPath := resolveOutputPath(outDir, base, cfg.Target.Ext, cfg.Overwrite)
	if err := codec.EncodeSingle(normalized, cfg.Target, cfg.Quality, rawExif, outPath); err != nil {
		return failOrCancel(ctx, res, err)
	}

	res.Outcome = Success
	res.OutputPath = outPath
	return res
}

// convertFirstFrame is the static-reduction path for animated sources: same
// work as a still conversion, but the result carries the reduction note.
func convertFirstFrame(ctx context.Context, res Result, path string, cfg Config, outDir, base string, rawExif []byte) Result {
	res = convertStill(ctx, res, path, cfg, outDir, base, rawExif)
	if res.Outcome == Success {
		res.Note = noteStaticReduction
	}
	return res
}

func splitFrames(ctx context.Context, res Result, path string, cfg Config, outDir, base string, rawExif []byte) Result {
	frames, err := frame.Extract(ctx, path)
	if err != nil {
		return failOrCancel(ctx, res, err)
	}

	frameDir := filepath.Join(outDir, base+"_frames")
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		return fail(res, fmt.Errorf("%w: %v", ErrOutputDir, err))
	}

	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			res.Outcome = Canceled
			return res
		}

		normalized := frame.NormalizeForTarget(f.Image, cfg.Target)
		framePath := filepath.Join(frameDir, fmt.Sprintf("%s_frame%d%s", base, i, cfg.Target.Ext))
		if err := codec.EncodeSingle(normalized, cfg.Target, cfg.Quality, rawExif, framePath); err != nil {
			return failOrCancel(ctx, res, err)
		}
	}

	res.Outcome = Success
	res.OutputPath = frameDir
	res.Note = fmt.Sprintf("split into %d frames", len(frames))
	return res
}

func preserveAnimation(ctx context.Context, res Result, path string, cfg Config, outDir, base string, rawExif []byte) Result {
	frames, err := frame.Extract(ctx, path)
	if err != nil {
		return failOrCancel(ctx, res, err)
	}

	outPath := resolveOutputPath(outDir, base, cfg.Target.Ext, cfg.Overwrite)
	if err := codec.EncodeMultiFrame(ctx, frames, cfg.Target, cfg.Quality, rawExif, outPath); err != nil {
		return failOrCancel(ctx, res, err)
	}

	res.Outcome = Success
	res.OutputPath = outPath
	return res
}

func fail(res Result, err error) Result {
	res.Outcome = Failure
	res.Note = err.Error()
	return res
}

func failOrCancel(ctx context.Context, res Result, err error) Result {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		res.Outcome = Canceled
		return res
	}
	return fail(res, err)
}

// resolveMu serializes existence probes so two files in the same batch do not
// both claim an unsuffixed name. A race with writers outside the process
// remains possible.
var resolveMu sync.Mutex

// resolveOutputPath joins dir, base and ext, appending _1, _2, ... until the
// name is free when overwriting is off.
func resolveOutputPath(dir, base, ext string, overwrite bool) string {
	candidate := filepath.Join(dir, base+ext)
	if overwrite {
		return candidate
	}

	resolveMu.Lock()
	defer resolveMu.Unlock()

	for counter := 1; ; counter++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, counter, ext))
	}
}
