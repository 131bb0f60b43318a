package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plus3/blocks/config"
	"github.com/plus3/blocks/game"
)

var rootCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Play the falling block puzzle in a window",
	RunE:  run,
}

func init() {
	flags := rootCmd.Flags()
	config.RegisterFlags(flags)
	flags.Int("width", 480, "initial window width")
	flags.Int("height", 720, "initial window height")
}

func run(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	cfg, err := config.Load(v, cmd.Flags())
	if err != nil {
		return err
	}
	logger := config.NewLogger(os.Stderr, "blocks", cfg.LogLevel)

	session, err := game.NewSession(append(cfg.SessionOptions(), game.WithLogger(logger))...)
	if err != nil {
		return err
	}

	app := newApp(session, cfg.Timing, logger)

	ebiten.SetWindowSize(v.GetInt("width"), v.GetInt("height"))
	ebiten.SetWindowTitle("Blocks")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(app); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("running game: %w", err)
	}

	stats := session.Stats()
	logger.Info("bye", "locked", stats.Locked, "lines", stats.Lines)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("blocks failed", "err", err)
		os.Exit(1)
	}
}
