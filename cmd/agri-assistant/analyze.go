package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	agriassistant "github.com/menta2k/agri-assistant"
	"github.com/menta2k/agri-assistant/internal/formatter"
	"github.com/menta2k/agri-assistant/internal/utils"
	"github.com/menta2k/agri-assistant/pkg/analysis"
	"github.com/menta2k/agri-assistant/pkg/encoder"
	"github.com/menta2k/agri-assistant/pkg/processing"
	"github.com/menta2k/agri-assistant/pkg/types"
)

// parallel analyses when several files are given
const maxParallel = 4

var soilCmd = &cobra.Command{
	Use:   "soil FILE...",
	Short: "Analyze photos of soil samples",
	Long: `Identifies the soil type, estimates the pH level and suggests crops suited
to Namibian conditions for every photo given.

Example:
  agri-assistant soil field.jpg
  agri-assistant soil -o json north.jpg south.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd.Context(), types.KindSoil, args)
	},
}

var pestCmd = &cobra.Command{
	Use:   "pest FILE...",
	Short: "Identify insects and pests in photos",
	Long: `Names the insect or pest in every photo given, states whether it harms
crops and lists organic and chemical control methods.

Example:
  agri-assistant pest leaf.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd.Context(), types.KindPest, args)
	},
}

func init() {
	for _, c := range []*cobra.Command{soilCmd, pestCmd} {
		c.Flags().StringVarP(&output, "output", "o", formatter.FormatHuman, "output format: human, json or yaml")
	}
}

var loadingText = map[types.AnalysisKind]string{
	types.KindSoil: " Analyzing soil sample...",
	types.KindPest: " Identifying pest...",
}

type outcome struct {
	result any
	err    error
}

func runAnalysis(ctx context.Context, kind types.AnalysisKind, paths []string) error {
	processor := processing.NewProcessor()
	files := make([]*encoder.File, len(paths))
	for i, path := range paths {
		if !utils.IsImageFile(path) {
			logger.Warn("file extension is not a known image type", zap.String("path", path))
		}
		f, err := encoder.ReadFile(path)
		if err != nil {
			return err
		}
		if info, err := processor.Inspect(f.Data); err == nil {
			logger.Debug("loaded image",
				zap.String("path", path),
				zap.String("format", info.Format),
				zap.Int("width", info.Width),
				zap.Int("height", info.Height),
			)
		}
		files[i] = f
	}

	assistant, err := agriassistant.New(ctx, agriassistant.Options{
		APIKey:         cfg.Gemini.APIKey,
		Model:          cfg.Gemini.Model,
		BaseURL:        cfg.Gemini.BaseURL,
		PreviewSize:    cfg.Preview.MaxSize,
		PreviewQuality: cfg.Preview.Quality,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = loadingText[kind]
	if output == formatter.FormatHuman {
		s.Start()
	}

	outcomes := make([]outcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, f := range files {
		g.Go(func() error {
			result, err := assistant.Analyze(gctx, kind, f)
			outcomes[i] = outcome{result: result, err: err}
			return nil
		})
	}
	_ = g.Wait()
	s.Stop()

	failed := 0
	for i, o := range outcomes {
		if len(files) > 1 && output == formatter.FormatHuman {
			fmt.Fprintf(os.Stdout, "\n%s %s\n", color.New(color.Bold).Sprint(files[i].Name),
				color.HiBlackString("(%s)", utils.FormatFileSize(files[i].Size())))
		}
		if o.err != nil {
			failed++
			color.New(color.FgRed).Fprintf(os.Stderr, "%s: %s\n", files[i].Name, analysis.FailureMessage)
			continue
		}
		if err := formatter.Display(os.Stdout, o.result, output); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d analyses failed", failed, len(files))
	}
	return nil
}
