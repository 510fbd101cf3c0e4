// Command posecheck analyzes an exercise video: it samples frames, runs
// pose estimation on each, scores detection quality against the target
// exercise, and emits a JSON report.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/liftlab/posecheck/internal/config"
	"github.com/liftlab/posecheck/internal/estimator"
	"github.com/liftlab/posecheck/internal/logging"
	"github.com/liftlab/posecheck/internal/pose"
	"github.com/liftlab/posecheck/internal/quality"
	"github.com/liftlab/posecheck/internal/sampler"
	"github.com/liftlab/posecheck/internal/sequence"
	"github.com/liftlab/posecheck/internal/store"
)

// CLI flags
var (
	videoFlag    string
	exerciseFlag string
	intervalFlag float64
	modelFlag    string
	configFlag   string
	outputFlag   string
	storeFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "posecheck",
	Short: "Exercise video pose-quality analysis",
	Long: `posecheck ingests an exercise video and produces, per sampled frame, a
structured body-joint estimate plus a quantitative assessment of how
trustworthy and complete that estimate is for the target exercise.

Frames are sampled on an even stride (capped at 300 frames), estimated
one at a time against the Gemini API, and scored for completeness,
confidence, and stability. Frames where estimation fails are skipped;
the analysis only fails outright when the video has no visual track or
no frame yields a usable pose.`,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a video and emit a pose-quality report",
	Example: `  posecheck analyze --video squat-set-1.mp4 --exercise squat
  posecheck analyze -v deadlift.mov -e deadlift --interval 0.2 --output report.json
  posecheck analyze -v bench.mp4 -e bench-press --store sessions.db`,
	Run: runAnalyze,
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Print a video's sampling-relevant metadata",
	Run:   runProbe,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored analysis sessions",
	Run:   runSessions,
}

func init() {
	analyzeCmd.Flags().StringVarP(&videoFlag, "video", "v", "", "Path to the exercise video (required)")
	analyzeCmd.Flags().StringVarP(&exerciseFlag, "exercise", "e", "unknown", "Exercise type: squat, deadlift, benchPress, shoulderPress, pullUp, unknown")
	analyzeCmd.Flags().Float64Var(&intervalFlag, "interval", 0, "Frame sampling interval in seconds (default from config, 0.1)")
	analyzeCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use (default from config)")
	analyzeCmd.Flags().StringVar(&outputFlag, "output", "", "Write the JSON report to a file instead of stdout")
	analyzeCmd.Flags().StringVar(&storeFlag, "store", "", "SQLite file to persist the session to (default from config)")
	_ = analyzeCmd.MarkFlagRequired("video")

	probeCmd.Flags().StringVarP(&videoFlag, "video", "v", "", "Path to the video (required)")
	_ = probeCmd.MarkFlagRequired("video")

	sessionsCmd.Flags().StringVar(&storeFlag, "store", "", "SQLite sessions file (default from config)")

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "posecheck.yaml", "Path to the YAML config file")

	rootCmd.AddCommand(analyzeCmd, probeCmd, sessionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges the config file with command-line overrides.
func loadConfig() config.Config {
	cfg, err := config.Load(configFlag)
	if err != nil {
		logging.Init()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if intervalFlag > 0 {
		cfg.FrameIntervalSeconds = intervalFlag
	}
	if storeFlag != "" {
		cfg.StorePath = storeFlag
	}
	logging.InitWithLevel(cfg.LogLevel)
	return cfg
}

func runAnalyze(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	exercise, err := pose.ParseExerciseType(exerciseFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid exercise type")
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Fatal().Msg("GEMINI_API_KEY is required")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := estimator.NewGeminiClient(ctx, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	log.Info().
		Str("video", videoFlag).
		Str("exercise", string(exercise)).
		Str("model", cfg.Model).
		Float64("interval_s", cfg.FrameIntervalSeconds).
		Msg("Starting analysis")

	sampled, err := sampler.Sample(ctx, videoFlag, cfg.FrameInterval())
	if err != nil {
		if errors.Is(err, sampler.ErrNoVideoTrack) {
			log.Fatal().Err(err).Msg("The file has no video track — re-record or re-import the video")
		}
		log.Fatal().Err(err).Msg("Frame sampling failed")
	}

	adapter := estimator.NewAdapter(estimator.NewGeminiEstimator(client, cfg.Model))
	seq, err := sequence.Build(ctx, sampled.Frames, adapter, sequence.Options{
		Interval:  sampled.Interval,
		StartTime: time.Now(),
	})
	if err != nil {
		var insufficient *sequence.InsufficientPosesError
		if errors.As(err, &insufficient) {
			log.Fatal().Err(err).Msg("No usable poses detected — re-record a clearer or longer video")
		}
		log.Fatal().Err(err).Msg("Sequence building failed")
	}

	report := quality.BuildReport(seq, exercise, len(sampled.Frames))

	log.Info().
		Int("poses", report.PoseCount).
		Float64("mean_overall", report.MeanOverall).
		Float64("acceptable_fraction", report.AcceptableFraction).
		Str("verdict", string(report.Verdict)).
		Msg("Analysis complete")

	if cfg.StorePath != "" {
		saveSession(ctx, cfg.StorePath, exercise, seq, report)
	}

	writeReport(report)
}

// saveSession persists the analysis; persistence failures are reported but
// never discard an already-computed report.
func saveSession(ctx context.Context, path string, exercise pose.ExerciseType, seq []*pose.PoseEstimate, report *quality.Report) {
	s, err := store.Open(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to open session store")
		return
	}
	defer s.Close()

	id, err := s.SaveSession(ctx, &store.Session{
		VideoPath: videoFlag,
		Exercise:  exercise,
		CreatedAt: time.Now(),
		Poses:     seq,
		Report:    report,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to save session")
		return
	}
	log.Info().Int64("session", id).Str("store", path).Msg("Session stored")
}

func writeReport(report *quality.Report) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode report")
	}
	data = append(data, '\n')

	if outputFlag == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(outputFlag, data, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", outputFlag).Msg("Failed to write report")
	}
	log.Info().Str("path", outputFlag).Msg("Report written")
}

func runProbe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	meta, err := sampler.Probe(ctx, videoFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Probe failed")
	}

	fmt.Printf("video track:  %v\n", meta.HasVideo)
	if meta.HasVideo {
		fmt.Printf("codec:        %s\n", meta.Codec)
		fmt.Printf("resolution:   %dx%d\n", meta.Width, meta.Height)
		fmt.Printf("frame rate:   %.2f fps\n", meta.FrameRate)
		fmt.Printf("duration:     %s\n", meta.Duration)
		fmt.Printf("interval:     %.2fs\n", cfg.FrameIntervalSeconds)
	}
}

func runSessions(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if cfg.StorePath == "" {
		log.Fatal().Msg("No session store configured — pass --store or set store_path")
	}

	s, err := store.Open(cfg.StorePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open session store")
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	summaries, err := s.Sessions(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list sessions")
	}
	if len(summaries) == 0 {
		fmt.Println("no stored sessions")
		return
	}

	for _, sum := range summaries {
		fmt.Printf("#%d  %s  %s  poses=%d  mean=%.2f  verdict=%s  %s\n",
			sum.ID,
			sum.CreatedAt.Local().Format("2006-01-02 15:04"),
			sum.Exercise,
			sum.PoseCount,
			sum.MeanOverall,
			sum.Verdict,
			sum.VideoPath,
		)
	}
}
