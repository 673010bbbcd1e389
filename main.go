// main.go
//
// Entry point for the Wordle terminal client.
// Responsibilities:
//   - Load configuration (.env, WORDLE_* environment, optional wordle.yaml).
//   - Open local storage and the persisted player identity.
//   - Build the HTTP client, the push channel and the lobby controller.
//   - Run the terminal until quit or SIGINT/SIGTERM.

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/go-client/internal/cli"
	"github.com/robalobadob/wordle/apps/go-client/internal/common/uuid"
	"github.com/robalobadob/wordle/apps/go-client/internal/config"
	"github.com/robalobadob/wordle/apps/go-client/internal/identity"
	"github.com/robalobadob/wordle/apps/go-client/internal/lobby"
	"github.com/robalobadob/wordle/apps/go-client/internal/logging"
	"github.com/robalobadob/wordle/apps/go-client/internal/push"
	"github.com/robalobadob/wordle/apps/go-client/internal/remote"
	"github.com/robalobadob/wordle/apps/go-client/internal/solo"
)

func main() {
	configFile := flag.String("config", "", "path to a config file (default ./wordle.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.Setup("info", true)
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StoragePath).Msg("failed to open local storage")
	}
	defer store.Close()

	me, err := identity.LoadOrCreate(ctx, store, uuid.New(), cfg.Username)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load player identity")
	}

	rateLimit := cfg.RateLimit
	if rateLimit == 0 {
		rateLimit = -1
	}
	client := remote.NewHTTPClient(remote.Options{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.RequestTimeout,
		RateLimit: rateLimit,
	})

	sub, closePush := openPush(cfg)
	defer closePush()

	ctl, err := lobby.New(&lobby.Config{
		Client:        client,
		Identity:      me,
		Push:          sub,
		Recorder:      store,
		LobbyInterval: cfg.LobbyPollInterval,
		RoomInterval:  cfg.RoomPollInterval,
		Timeout:       cfg.RequestTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create lobby controller")
	}
	ctl.Open()
	defer ctl.Close()

	sess, err := solo.New(&solo.Config{Client: client, Recorder: store})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create solo session")
	}

	app, err := cli.New(&cli.Config{
		Lobby:   ctl,
		Solo:    sess,
		Store:   store,
		In:      os.Stdin,
		Out:     os.Stdout,
		Timeout: cfg.RequestTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create terminal")
	}

	log.Info().Str("server", cfg.BaseURL).Str("push", string(cfg.Push)).Str("player", me.Username).Msg("starting wordle client")
	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("terminal exited")
	}
}

func openStore(path string) (identity.Store, error) {
	if path == "" {
		return identity.NewMemoryStore(), nil
	}
	return identity.OpenSQLite(path)
}

// openPush builds the configured push channel. Failing to reach it is not
// fatal: the client falls back to polling alone.
func openPush(cfg *config.Config) (push.Subscriber, func()) {
	nop := func() {}
	switch cfg.Push {
	case config.PushWebSocket:
		ws, err := push.NewWebSocket(cfg.BaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("websocket push disabled")
			return push.Nop{}, nop
		}
		return ws, nop
	case config.PushRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		r, err := push.NewRedis(&push.RedisConfig{RedisClient: rdb})
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis push disabled")
			_ = rdb.Close()
			return push.Nop{}, nop
		}
		return r, func() { _ = rdb.Close() }
	}
	return push.Nop{}, nop
}
