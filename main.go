package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dannystewart/starfieldsaver/config"
	"github.com/dannystewart/starfieldsaver/gameproc"
	"github.com/dannystewart/starfieldsaver/global"
	"github.com/dannystewart/starfieldsaver/keysend"
	"github.com/dannystewart/starfieldsaver/saver"
	"github.com/dannystewart/starfieldsaver/sound"
	"github.com/dannystewart/starfieldsaver/updater"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	debug := pflag.Bool("debug", false, "enable debug logging")
	showVersion := pflag.Bool("version", false, "print version and exit")
	doUpdate := pflag.Bool("update", false, "install the latest release and exit")
	configPath := pflag.String("config", global.ConfigFileName, "path to the configuration file")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", global.AppName, global.Version)
		return
	}

	logger := initLogging(true)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	store := config.NewStore(*configPath, nil, logger)
	cfg, err := store.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration.")
	}

	if *debug || cfg.DebugLog {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger.Debug().Msg("Debug logging enabled.")
	}
	if !cfg.ColorLog {
		logger = initLogging(false)
	}

	upd := updater.New(logger)
	if *doUpdate {
		if err := upd.Update(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("Update failed.")
		}
		return
	}
	upd.CheckForUpdates(context.Background())

	sounds := sound.NewPlayer(cfg.EnableSounds, cfg.InfoVolume, cfg.ErrorVolume, logger)
	keys := keysend.New(nil, logger)
	procs := gameproc.New()

	coordinator := saver.New(store, cfg, keys, sounds, procs, nil, logger)
	if err := coordinator.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start save synchronizer.")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs

	coordinator.Shutdown()
}

// initLogging writes to stderr for the user and to a small rotating file for
// later diagnosis.
func initLogging(color bool) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
		NoColor:    !color,
	}
	file := &lumberjack.Logger{
		Filename:   global.LogFileName,
		MaxSize:    1,
		MaxBackups: 2,
	}
	return zerolog.New(io.MultiWriter(console, file)).With().Timestamp().Logger()
}
