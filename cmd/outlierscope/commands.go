package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/outlierscope/internal/analysis"
	"github.com/rewired-gh/outlierscope/internal/config"
	"github.com/rewired-gh/outlierscope/internal/download"
	"github.com/rewired-gh/outlierscope/internal/gemini"
	"github.com/rewired-gh/outlierscope/internal/logger"
	"github.com/rewired-gh/outlierscope/internal/metrics"
	"github.com/rewired-gh/outlierscope/internal/models"
	"github.com/rewired-gh/outlierscope/internal/pipeline"
	"github.com/rewired-gh/outlierscope/internal/platform"
	"github.com/rewired-gh/outlierscope/internal/storage"
	"github.com/rewired-gh/outlierscope/internal/telegram"
	"github.com/rewired-gh/outlierscope/internal/topics"
)

// flags holds the persistent command-line overrides.
type flags struct {
	configPath string
	platform   string
	outputDir  string
	threshold  float64
	maxVideos  int
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "outlierscope",
		Short:         "Find outlier social content and analyze what makes it work",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&f.configPath, "config", "", "path to a YAML configuration file")
	root.PersistentFlags().StringVarP(&f.platform, "platform", "p", "", "platform profile (instagram, tiktok, x, youtube)")
	root.PersistentFlags().StringVarP(&f.outputDir, "output-dir", "o", "", "directory for output files")
	root.PersistentFlags().Float64VarP(&f.threshold, "threshold", "t", 0, "outlier threshold multiplier k (mean + k·σ)")

	root.AddCommand(newDetectCmd(f))
	root.AddCommand(newAnalyzeCmd(f))
	root.AddCommand(newRunCmd(f))
	root.AddCommand(newPlatformsCmd(f))

	return root
}

func newDetectCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "detect INPUT.json...",
		Short: "Detect outliers in scraped records and write a report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f, false)
			if err != nil {
				return err
			}
			p, m, err := buildPipeline(cfg, false)
			if err != nil {
				return err
			}

			det, err := p.Detect(args...)
			if err != nil {
				return err
			}
			printDetection(cmd, det)
			return writeMetrics(cfg, m)
		},
	}
}

func newAnalyzeCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze OUTLIERS.json...",
		Short: "Analyze the top outlier videos of a report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f, true)
			if err != nil {
				return err
			}
			p, m, err := buildPipeline(cfg, true)
			if err != nil {
				return err
			}

			file, path, err := p.AnalyzeFiles(cmd.Context(), args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Analyzed %d/%d videos -> %s\n", file.Analyzed, len(file.Results), path)
			return writeMetrics(cfg, m)
		},
	}
	cmd.Flags().IntVarP(&f.maxVideos, "max-videos", "n", 0, "maximum number of videos to analyze")
	return cmd
}

func newRunCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run INPUT.json...",
		Short: "Detect outliers, then analyze the top outlier videos when analysis is enabled",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f, false)
			if err != nil {
				return err
			}
			p, m, err := buildPipeline(cfg, cfg.Analysis.Enabled)
			if err != nil {
				return err
			}

			det, file, err := p.Run(cmd.Context(), args...)
			if det != nil {
				printDetection(cmd, det)
			}
			if err != nil {
				return err
			}
			if file != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Analyzed %d/%d videos\n", file.Analyzed, len(file.Results))
			}
			return writeMetrics(cfg, m)
		},
	}
	cmd.Flags().IntVarP(&f.maxVideos, "max-videos", "n", 0, "maximum number of videos to analyze")
	return cmd
}

func newPlatformsCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List platform profiles and their engagement weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f, false)
			if err != nil {
				return err
			}
			reg, err := registry(cfg)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PLATFORM\tCOUNTS\tWEIGHTS\tEXTRAS")
			for _, name := range reg.Names() {
				p, err := reg.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.CountLabel, formatWeights(p), formatExtras(p.Extras))
			}
			return w.Flush()
		},
	}
}

// loadConfig loads the configuration, applies flag overrides and initializes logging.
func loadConfig(cmd *cobra.Command, f *flags, forceAnalysis bool) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("platform") {
		cfg.Platform = f.platform
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.Output.Dir = f.outputDir
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Detector.ThresholdMultiplier = f.threshold
	}
	if cmd.Flags().Changed("max-videos") {
		cfg.Analysis.MaxVideos = f.maxVideos
	}
	if forceAnalysis {
		cfg.Analysis.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if f.configPath != "" {
		logger.Debug("Configuration loaded from %s", f.configPath)
	}
	return cfg, nil
}

func registry(cfg *config.Config) (*platform.Registry, error) {
	reg := platform.NewRegistry()
	if cfg.ProfilesFile != "" {
		if err := reg.LoadFile(cfg.ProfilesFile); err != nil {
			return nil, fmt.Errorf("failed to load profiles: %w", err)
		}
		logger.Info("Loaded platform profiles from %s", cfg.ProfilesFile)
	}
	return reg, nil
}

// buildPipeline wires the pipeline and its collaborators from cfg.
func buildPipeline(cfg *config.Config, withAnalysis bool) (*pipeline.Pipeline, *metrics.Metrics, error) {
	reg, err := registry(cfg)
	if err != nil {
		return nil, nil, err
	}
	profile, err := reg.Get(cfg.Platform)
	if err != nil {
		return nil, nil, err
	}

	mode, err := cfg.Output.FileMode()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid output.file_permissions: %w", err)
	}
	store := storage.New(cfg.Output.Dir, mode, 0)

	m := metrics.New()
	opts := []pipeline.Option{pipeline.WithMetrics(m)}

	// Initialize Telegram client
	if cfg.Telegram.Enabled {
		tg, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase, cfg.Telegram.TopN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		opts = append(opts, pipeline.WithNotifier(tg))
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	// Initialize the analysis service
	if withAnalysis {
		client, err := gemini.NewClient(cfg.Analysis.APIKey,
			gemini.WithBaseURL(cfg.Analysis.BaseURL),
			gemini.WithModel(cfg.Analysis.Model))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize analysis client: %w", err)
		}
		fetcher := download.NewClient(cfg.Analysis.RequestTimeout, cfg.Analysis.MaxDownloadBytes())
		orch := analysis.New(client, fetcher, analysis.Config{
			MaxVideos:      cfg.Analysis.MaxVideos,
			PaceDelay:      cfg.Analysis.PaceDelay,
			PollInterval:   cfg.Analysis.PollInterval,
			PollTimeout:    cfg.Analysis.PollTimeout,
			RequestTimeout: cfg.Analysis.RequestTimeout,
		})
		opts = append(opts, pipeline.WithAnalyzer(orch, client.Model()))
	}

	p := pipeline.New(profile, pipeline.Config{
		ThresholdMultiplier: cfg.Detector.ThresholdMultiplier,
		TopicsScope:         cfg.Topics.Scope,
		Topics: topics.Options{
			TopHashtags: cfg.Topics.TopHashtags,
			TopKeywords: cfg.Topics.TopKeywords,
			TopSounds:   cfg.Topics.TopSounds,
			TopMentions: cfg.Topics.TopMentions,
		},
		Slim: cfg.Output.Slim,
	}, store, opts...)
	return p, m, nil
}

func writeMetrics(cfg *config.Config, m *metrics.Metrics) error {
	if cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		return err
	}
	logger.Debug("Metrics written to %s", cfg.Metrics.Textfile)
	return nil
}

func printDetection(cmd *cobra.Command, det *pipeline.Detection) {
	r := det.Report
	out := cmd.OutOrStdout()
	total, label := r.Total()
	fmt.Fprintf(out, "Found %d outlier(s) in %d %s (threshold %.4f) -> %s\n",
		r.OutlierCount, total, label, r.Stats.ThresholdValue, det.Path)
	if len(r.Topics.Hashtags) > 0 {
		fmt.Fprintf(out, "- Top hashtag: #%s\n", r.Topics.Hashtags[0].Term)
	}
	if len(r.Topics.Keywords) > 0 {
		fmt.Fprintf(out, "- Top keyword: %s\n", r.Topics.Keywords[0].Term)
	}
}

func formatWeights(p platform.Profile) string {
	var parts []string
	for _, kind := range models.Interactions {
		if w, ok := p.Weights[kind]; ok {
			parts = append(parts, fmt.Sprintf("%s=%g", kind, w))
		}
	}
	return strings.Join(parts, " ")
}

func formatExtras(e platform.Extras) string {
	var parts []string
	if e.Sounds {
		parts = append(parts, "sounds")
	}
	if e.Mentions {
		parts = append(parts, "mentions")
	}
	if e.ContentPatterns {
		parts = append(parts, "patterns")
	}
	if e.Slim {
		parts = append(parts, "slim")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}
