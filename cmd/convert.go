package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/AnferLagbu/Chameleon/internal/batch"
	"github.com/AnferLagbu/Chameleon/internal/format"
	"github.com/AnferLagbu/Chameleon/internal/policy"
	"github.com/AnferLagbu/Chameleon/internal/tui"
)

var (
	convertOutputDir    string
	convertOverwrite    bool
	convertPreserveExif bool
	convertWorkers      int
	convertNoTUI        bool
	convertLogFile      string
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <path>...",
	Short: "Convert image files and folders to a target format",
	Long: "Convert takes any mix of image files and folders. Folders are expanded\n" +
		"to the image files directly inside them and converted into a\n" +
		"{name}_converted subfolder.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := format.Parse(viper.GetString("format"))
		if err != nil {
			return err
		}

		mode, err := policy.ParseMode(viper.GetString("animation"))
		if err != nil {
			return err
		}

		quality := viper.GetInt("quality")
		if quality < 0 || quality > 100 {
			return fmt.Errorf("quality must be between 0 and 100, got %d", quality)
		}

		cfg := policy.Config{
			Target:       target,
			OutputDir:    convertOutputDir,
			Animation:    mode,
			Overwrite:    convertOverwrite,
			PreserveEXIF: convertPreserveExif,
			Quality:      quality,
		}

		logger := zap.NewNop()
		if convertLogFile != "" {
			zcfg := zap.NewProductionConfig()
			zcfg.OutputPaths = []string{convertLogFile}
			logger, err = zcfg.Build()
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer logger.Sync()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		b := batch.Submit(ctx, args, cfg, batch.Options{
			Workers: convertWorkers,
			Logger:  logger,
		})

		if convertNoTUI {
			return runPlain(b)
		}
		return runTUI(b)
	},
}

// runTUI hands the event stream to the bubbletea model and prints the
// summary once the program returns.
func runTUI(b *batch.Batch) error {
	program := tea.NewProgram(tui.NewModel(b.Events(), b.Cancel))
	finalModel, err := program.Run()
	if err != nil {
		// Unblock the engine before bailing out.
		b.Cancel()
		for range b.Events() {
		}
		b.Wait()
		return err
	}
	b.Wait()

	model, ok := finalModel.(tui.Model)
	if !ok {
		return nil
	}
	if model.WasCancelled() {
		fmt.Fprintln(os.Stdout, "Conversion cancelled; partial results were discarded.")
		return nil
	}
	if tally, done := model.FinalTally(); done {
		fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.TallyRows(tally)))
	}
	return nil
}

// runPlain prints events line by line for non-interactive use.
func runPlain(b *batch.Batch) error {
	for ev := range b.Events() {
		switch ev := ev.(type) {
		case batch.Progress:
			fmt.Fprintf(os.Stdout, "[%3d%%] %s\n", ev.Percent, ev.Message)
		case batch.FileError:
			fmt.Fprintf(os.Stderr, "error: %s: %s\n", ev.Path, ev.Message)
		case batch.Complete:
			fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.TallyRows(ev.Tally)))
		case batch.Cancelled:
			fmt.Fprintln(os.Stdout, "Conversion cancelled; partial results were discarded.")
		}
	}
	b.Wait()
	return nil
}

func init() {
	convertCmd.Flags().StringP("format", "f", "png", "target format (jpeg, png, gif, bmp, tiff, webp, ico, heif)")
	convertCmd.Flags().IntP("quality", "q", 85, "quality 0-100 (JPEG/WEBP/HEIF directly, PNG via compression level)")
	convertCmd.Flags().StringP("animation", "a", "static", "animated source handling: static, split, skip or preserve")
	convertCmd.Flags().StringVarP(&convertOutputDir, "output", "o", "", "output directory (default: next to each source)")
	convertCmd.Flags().BoolVar(&convertOverwrite, "overwrite", false, "overwrite existing files instead of numbering")
	convertCmd.Flags().BoolVar(&convertPreserveExif, "preserve-exif", false, "carry EXIF metadata into outputs that support it")
	convertCmd.Flags().IntVar(&convertWorkers, "workers", 0, "worker pool size (default: min(4, CPUs-1))")
	convertCmd.Flags().BoolVar(&convertNoTUI, "no-tui", false, "line-printed progress instead of the interactive display")
	convertCmd.Flags().StringVar(&convertLogFile, "log-file", "", "write JSON engine diagnostics to this file")

	viper.BindPFlag("format", convertCmd.Flags().Lookup("format"))
	viper.BindPFlag("quality", convertCmd.Flags().Lookup("quality"))
	viper.BindPFlag("animation", convertCmd.Flags().Lookup("animation"))

	rootCmd.AddCommand(convertCmd)
}
