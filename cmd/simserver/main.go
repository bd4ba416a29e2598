package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mud-platform-backend/internal/cache"
	"mud-platform-backend/internal/command"
	"mud-platform-backend/internal/config"
	"mud-platform-backend/internal/eventstore"
	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/health"
	"mud-platform-backend/internal/logging"
	"mud-platform-backend/internal/metrics"
	"mud-platform-backend/internal/obstacle"
	"mud-platform-backend/internal/rng"
	"mud-platform-backend/internal/session"
	"mud-platform-backend/internal/simloop"
	"mud-platform-backend/internal/terrain"
	"mud-platform-backend/internal/transport"
	"mud-platform-backend/internal/unit"
)

// redisPinger adapts *redis.Client to health.Pinger, whose Ping returns a
// *redis.StatusCmd rather than a plain error.
type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func main() {
	logging.InitLogger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := log.With().Str("service", "simserver").Logger()
	logger.Info().Msg("starting spherical-world simulation server")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.JWTSecret == "" {
		logger.Warn().Msg("JWT_SECRET not set, sessions will use a built-in development secret")
		cfg.JWTSecret = "dev-only-ephemeral-secret"
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: 0})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, slot assignments will not survive a restart")
		redisClient = nil
	} else {
		unit.SetPathCache(cache.NewPathBuildCache(redisClient), cfg.TerrainSeed)
	}

	var dbPool *pgxpool.Pool
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse database URL")
	}
	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Warn().Err(err).Msg("database unavailable, command log will not be durable")
		dbPool = nil
	} else {
		defer dbPool.Close()
	}

	natsConn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("NATS unavailable, running single-instance only")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	terrainOracle := terrain.NewPerlinSphere(cfg.TerrainSeed, 1.0, -0.02, 0.05)
	obstacleOracle := obstacle.NewGridField(cfg.ObstacleSeed, 1.0, cfg.RockCount, cfg.RockMinRadius, cfg.RockMaxRadius)
	deps := unit.Dependencies{Terrain: terrainOracle, Obstacle: obstacleOracle}

	queue := command.NewQueue()
	loop := simloop.New(deps, queue, logger)

	rngRoot := rng.NewRoot(cfg.TerrainSeed ^ cfg.ObstacleSeed)
	spawnUnits(loop, rngRoot, cfg.GroundOffset, terrainOracle)

	factory := command.NewFactory(loop.CurrentTick)
	hub := transport.NewHub(factory, queue, loop, logger)

	tokenIssuer := session.NewTokenIssuer([]byte(cfg.JWTSecret), 24*time.Hour)
	var sessionRegistry *session.Registry
	if redisClient != nil {
		sessionRegistry = session.NewRegistry(redisClient, cfg.SessionID, 8)
	} else {
		sessionRegistry = session.NewRegistry(nil, cfg.SessionID, 8)
	}

	if natsConn != nil {
		natsBridge := transport.NewNATSBridge(natsConn, cfg.SessionID, queue, hub, logger)
		if err := natsBridge.Subscribe(); err != nil {
			logger.Warn().Err(err).Msg("failed to subscribe to NATS session subjects")
		}
	}

	if dbPool != nil {
		store := eventstore.NewPostgresEventStore(dbPool)
		commandLog := eventstore.NewCommandLog(store, cfg.SessionID)

		projections := eventstore.NewProjectionManager()
		projections.RegisterProjection(eventstore.NewUnitPoseProjection())
		commandLog.SetProjections(projections)

		var logSeq int64
		loop.OnCommand(func(cmd command.Command) {
			logSeq++
			if err := commandLog.Append(ctx, logSeq, cmd); err != nil {
				logger.Error().Err(err).Msg("failed to append command to durable log")
			}
		})
	}

	loop.OnTicked(func(tick uint64) {
		hub.BroadcastSnapshot(transport.Snapshot(tick, loop.Units()))
	})

	go hub.Run(ctx.Done())
	go loop.Run(ctx)

	handler := transport.NewHandler(hub, tokenIssuer, sessionRegistry, logger)

	var dbPinger health.Pinger
	if dbPool != nil {
		dbPinger = dbPool
	}
	var redisPing health.Pinger
	if redisClient != nil {
		redisPing = redisPinger{client: redisClient}
	}
	var natsStatus health.NATSConn
	if natsConn != nil {
		natsStatus = natsConn
	}
	healthChecker := health.NewHealthChecker(dbPinger, redisPing, natsStatus)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/sim/ws" {
				next.ServeHTTP(w, r)
				return
			}
			metrics.Middleware(next).ServeHTTP(w, r)
		})
	})
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", metrics.Handler())
	r.Get("/sim/ws", handler.ServeHTTP)
	r.Get("/health", healthChecker.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		logger.Info().Msg("shutting down simulation server")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
	}()

	logger.Info().Str("port", cfg.Port).Msg("simulation server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("simulation server stopped")
}

// spawnUnits seeds the session with its initial unit roster. A standalone
// single-instance session always carries at least one unit so slot 0's
// operator has something to seat into immediately on connect.
func spawnUnits(loop *simloop.Loop, root *rng.Root, groundOffset float64, oracle terrain.Oracle) {
	spawnDir := geomath.Vec3{X: 0, Y: 0, Z: 1}
	spawn := unit.New(1, spawnDir, 0, unit.Capabilities{CanSwim: false}, groundOffset, 0.35,
		root.Split("unit-1"), root.SplitVisual("unit-1"))
	spawn.SnapToTerrain(oracle)
	loop.AddUnit(spawn)
}
