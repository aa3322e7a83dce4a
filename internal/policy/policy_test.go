package policy

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnferLagbu/Chameleon/internal/format"
)

func writeAnimatedGIF(t *testing.T, path string, frames int) {
	t.Helper()

	g := &gif.GIF{Config: image.Config{Width: 8, Height: 8}}
	for i := 0; i < frames; i++ {
		pal := color.Palette{color.RGBA{R: byte(i * 60), A: 255}, color.RGBA{A: 255}}
		g.Image = append(g.Image, image.NewPaletted(image.Rect(0, 0, 8, 8), pal))
		g.Delay = append(g.Delay, 10)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, g); err != nil {
		t.Fatal(err)
	}
}

func writeStillPNG(t *testing.T, path string) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "static", want: ToStatic},
		{in: "SPLIT", want: SplitFrames},
		{in: "skip", want: Skip},
		{in: " preserve ", want: Preserve},
		{in: "loop", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestConvertStill(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writeStillPNG(t, src)

	cfg := Config{Target: format.NewTarget(format.JPEG), Quality: 85}
	res := ConvertFile(context.Background(), src, cfg, "")

	if res.Outcome != Success {
		t.Fatalf("outcome %v (%s), want Success", res.Outcome, res.Note)
	}
	if res.Animated {
		t.Error("still image marked animated")
	}
	want := filepath.Join(dir, "photo.jpg")
	if res.OutputPath != want {
		t.Errorf("output %q, want %q", res.OutputPath, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestConvertAnimatedStatic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "anim.gif")
	writeAnimatedGIF(t, src, 3)

	cfg := Config{Target: format.NewTarget(format.PNG), Animation: ToStatic, Quality: 85}
	res := ConvertFile(context.Background(), src, cfg, "")

	if res.Outcome != Success {
		t.Fatalf("outcome %v (%s), want Success", res.Outcome, res.Note)
	}
	if !res.Animated {
		t.Error("animated source not flagged")
	}
	if res.Note != "reduced to static first frame" {
		t.Errorf("note %q", res.Note)
	}
	if _, err := os.Stat(filepath.Join(dir, "anim.png")); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestConvertAnimatedSkip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "anim.gif")
	writeAnimatedGIF(t, src, 3)

	cfg := Config{Target: format.NewTarget(format.PNG), Animation: Skip, Quality: 85}
	res := ConvertFile(context.Background(), src, cfg, "")

	if res.Outcome != Skipped {
		t.Fatalf("outcome %v, want Skipped", res.Outcome)
	}
	if _, err := os.Stat(filepath.Join(dir, "anim.png")); !os.IsNotExist(err) {
		t.Error("skip mode still produced an output file")
	}
}

func TestConvertAnimatedSplit(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "anim.gif")
	writeAnimatedGIF(t, src, 3)

	cfg := Config{Target: format.NewTarget(format.PNG), Animation: SplitFrames, Quality: 85}
	res := ConvertFile(context.Background(), src, cfg, "")

	if res.Outcome != Success {
		t.Fatalf("outcome %v (%s), want Success", res.Outcome, res.Note)
	}

	frameDir := filepath.Join(dir, "anim_frames")
	if res.OutputPath != frameDir {
		t.Errorf("output %q, want frame dir %q", res.OutputPath, frameDir)
	}
	for i := 0; i < 3; i++ {
		p := filepath.Join(frameDir, fmt.Sprintf("anim_frame%d.png", i))
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing frame file %s: %v", p, err)
		}
	}
}

func TestConvertAnimatedPreserve(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "anim.gif")
	writeAnimatedGIF(t, src, 3)

	out := filepath.Join(dir, "out")
	cfg := Config{Target: format.NewTarget(format.GIF), OutputDir: out, Animation: Preserve, Quality: 85}
	res := ConvertFile(context.Background(), src, cfg, "")

	if res.Outcome != Success {
		t.Fatalf("outcome %v (%s), want Success", res.Outcome, res.Note)
	}
	if res.OutputPath != filepath.Join(out, "anim.gif") {
		t.Errorf("output %q", res.OutputPath)
	}
}

// Preserve against a target that cannot hold frames reduces to static.
func TestConvertPreserveStaticTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "anim.gif")
	writeAnimatedGIF(t, src, 3)

	cfg := Config{Target: format.NewTarget(format.JPEG), Animation: Preserve, Quality: 85}
	res := ConvertFile(context.Background(), src, cfg, "")

	if res.Outcome != Success {
		t.Fatalf("outcome %v (%s), want Success", res.Outcome, res.Note)
	}
	if res.Note != "reduced to static first frame" {
		t.Errorf("note %q", res.Note)
	}
}

func TestCollisionSuffixes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writeStillPNG(t, src)

	cfg := Config{Target: format.NewTarget(format.BMP), Quality: 85}

	first := ConvertFile(context.Background(), src, cfg, "")
	second := ConvertFile(context.Background(), src, cfg, "")
	third := ConvertFile(context.Background(), src, cfg, "")

	if first.OutputPath != filepath.Join(dir, "photo.bmp") {
		t.Errorf("first output %q", first.OutputPath)
	}
	if second.OutputPath != filepath.Join(dir, "photo_1.bmp") {
		t.Errorf("second output %q", second.OutputPath)
	}
	if third.OutputPath != filepath.Join(dir, "photo_2.bmp") {
		t.Errorf("third output %q", third.OutputPath)
	}
}

func TestOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writeStillPNG(t, src)

	cfg := Config{Target: format.NewTarget(format.BMP), Overwrite: true, Quality: 85}

	want := filepath.Join(dir, "photo.bmp")
	for i := 0; i < 2; i++ {
		res := ConvertFile(context.Background(), src, cfg, "")
		if res.OutputPath != want {
			t.Errorf("run %d: output %q, want %q", i, res.OutputPath, want)
		}
	}
}

func TestOverrideDirWins(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writeStillPNG(t, src)

	configured := filepath.Join(dir, "configured")
	override := filepath.Join(dir, "override")
	cfg := Config{Target: format.NewTarget(format.PNG), OutputDir: configured, Quality: 85}

	res := ConvertFile(context.Background(), src, cfg, override)
	if res.Outcome != Success {
		t.Fatalf("outcome %v (%s)", res.Outcome, res.Note)
	}
	if filepath.Dir(res.OutputPath) != override {
		t.Errorf("output landed in %q, want %q", filepath.Dir(res.OutputPath), override)
	}
}

func TestConvertMissingFile(t *testing.T) {
	cfg := Config{Target: format.NewTarget(format.PNG), Quality: 85}
	res := ConvertFile(context.Background(), filepath.Join(t.TempDir(), "missing.png"), cfg, "")
	if res.Outcome != Failure {
		t.Errorf("outcome %v, want Failure", res.Outcome)
	}
	if res.Note == "" {
		t.Error("failure carries no note")
	}
}

func TestConvertCancelled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.png")
	writeStillPNG(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{Target: format.NewTarget(format.PNG), Quality: 85}
	res := ConvertFile(ctx, src, cfg, "")
	if res.Outcome != Canceled {
		t.Errorf("outcome %v, want Canceled", res.Outcome)
	}
}
