package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/plus3/blocks/config"
	"github.com/plus3/blocks/game"
	"github.com/plus3/blocks/rsg"
	"github.com/plus3/blocks/shape"
)

// Simulated frame length; the simulation never sleeps.
const frameTime = 1.0 / 60.0

var rootCmd = &cobra.Command{
	Use:   "blocks-sim",
	Short: "Play headless games with an autoplay bot and report engine timings",
	RunE:  run,
}

func init() {
	flags := rootCmd.Flags()
	config.RegisterFlags(flags)
	flags.Duration("duration", 10*time.Second, "wall clock limit for the whole run")
	flags.Int("games", 8, "number of games to play")
	flags.Int("parallel", runtime.GOMAXPROCS(0), "games played at the same time")
	flags.Int("max-pieces", 2000, "stop a game after this many locked pieces")
	flags.Float64("noise", 0.05, "randomness added to the bot's placement scores")
	flags.Bool("gc-pause-metrics", false, "enable detailed GC pause metrics in the report")
}

func run(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	cfg, err := config.Load(v, cmd.Flags())
	if err != nil {
		return err
	}
	logger := config.NewLogger(os.Stderr, "blocks-sim", cfg.LogLevel)

	games := v.GetInt("games")
	parallel := v.GetInt("parallel")
	if games <= 0 || parallel <= 0 {
		return fmt.Errorf("%w: games and parallel must be positive", config.ErrInvalidConfig)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rsg.TimeSeed()
	}

	report := &Report{
		Duration:       v.GetDuration("duration"),
		Games:          games,
		Parallel:       parallel,
		System:         cfg.System,
		Seed:           seed,
		Rows:           cfg.Rows,
		Cols:           cfg.Cols,
		MaxPieces:      v.GetInt("max-pieces"),
		GCPauseMetrics: v.GetBool("gc-pause-metrics"),
		Totals:         game.NewStats(),
	}

	shapes, err := shape.Catalog(cfg.System)
	if err != nil {
		return err
	}
	report.Shapes = shapes

	runtime.ReadMemStats(&report.MemStatsStart)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, report.Duration)
	defer cancel()

	logger.Info("starting simulation", "games", games, "parallel", parallel, "system", cfg.System, "seed", seed)

	results := make([]GameResult, games)
	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := 0; i < games; i++ {
		g.Go(func() error {
			opts := append(cfg.SessionOptions(),
				game.WithSeed(seed+uint64(i)),
				game.WithLogger(logger.With("game", i)),
			)
			result, err := playGame(ctx, opts, cfg.Timing, report.MaxPieces, v.GetFloat64("noise"), seed+uint64(i))
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	report.TotalTime = time.Since(startTime)
	report.Collect(results)
	runtime.ReadMemStats(&report.MemStatsEnd)

	logger.Info("simulation finished", "frames", report.TotalFrames, "locked", report.Totals.Locked, "lines", report.Totals.Lines)

	fmt.Println("\n--- Simulation Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		return fmt.Errorf("generating report: %w", err)
	}
	fmt.Println("--- End of Report ---")
	return nil
}

// playGame runs one session to game over, to maxPieces locks or until ctx ends.
// The session never leaves this goroutine.
func playGame(ctx context.Context, opts []game.Option, timing game.Timing, maxPieces int, noise float64, seed uint64) (GameResult, error) {
	session, err := game.NewSession(opts...)
	if err != nil {
		return GameResult{}, err
	}

	controls := &game.Controls{}
	scheduler := game.NewScheduler(session, controls, timing)
	player := newBot(session, controls, rsg.NewRand(seed), noise)

	result := GameResult{
		FrameTime: Stats{Samples: make([]time.Duration, 0, 1024)},
	}

Loop:
	for !session.GameOver() && session.Stats().Locked < maxPieces {
		select {
		case <-ctx.Done():
			result.Interrupted = true
			break Loop
		default:
		}

		player.Update()

		frameStart := time.Now()
		scheduler.Once(frameTime)
		result.FrameTime.Samples = append(result.FrameTime.Samples, time.Since(frameStart))
		result.Frames++
	}

	result.GameOver = session.GameOver()
	result.Stats = session.Stats()
	result.Scheduler = scheduler.GetStats()
	return result, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("blocks-sim failed", "err", err)
		os.Exit(1)
	}
}
