package main

import (
	"context"
	"ctchen222/tictactoe-engine/internal/bot"
	"ctchen222/tictactoe-engine/internal/config"
	"ctchen222/tictactoe-engine/internal/db"
	"ctchen222/tictactoe-engine/internal/events"
	"ctchen222/tictactoe-engine/internal/hub"
	"ctchen222/tictactoe-engine/internal/logger"
	"ctchen222/tictactoe-engine/internal/repository"
	"ctchen222/tictactoe-engine/internal/session"
	"ctchen222/tictactoe-engine/internal/telemetry"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	gameType := flag.String("type", "", "game type: pvp, pvc or cvc (overrides config)")
	difficulty := flag.String("difficulty", "", "computer difficulty: easy, medium or hard (overrides config)")
	flag.Parse()

	// A missing .env file is fine
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *gameType != "" {
		cfg.Game.Type = *gameType
	}
	if *difficulty != "" {
		cfg.Game.Difficulty = *difficulty
	}

	opts, err := sessionOptions(cfg.Game)
	if err != nil {
		log.Fatalf("invalid game settings: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry, os.Stderr)
	if err != nil {
		log.Fatalf("failed to initialize telemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	logger.Init(cfg)

	var observers []session.Observer
	if cfg.Redis.Addr != "" {
		rdb, err := db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			slog.Error("failed to initialize redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		observers = append(observers,
			events.NewRedisPublisher(rdb),
			repository.NewSessionStateRepository(rdb, cfg.Redis.StateTTL),
		)
		slog.Info("Publishing session events to redis", "redis.addr", cfg.Redis.Addr)
	}

	h := hub.NewHub(bot.NewMoveCalculator(), observers...)
	defer h.CloseAll()

	c := newConsole(h, opts, cfg.Game.PromptDelay, os.Stdin, os.Stdout)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("game aborted", "error", err)
	}
}

func sessionOptions(g config.Game) (session.Options, error) {
	gameType, err := g.GameType()
	if err != nil {
		return session.Options{}, err
	}
	level, err := g.Level()
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		GameType:      gameType,
		Difficulty:    level,
		ComputerDelay: g.ComputerDelay,
	}, nil
}

var (
	_ session.MoveCalculator = (*bot.MoveCalculator)(nil)
	_ session.Observer       = (*events.RedisPublisher)(nil)
	_ session.Observer       = (*repository.SessionStateRepository)(nil)
)
