package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"

	"realtime-gateway/handlers/api/rooms"
	"realtime-gateway/handlers/websocket"
	authMiddleware "realtime-gateway/middleware"
	"realtime-gateway/realtime"
	"realtime-gateway/stores"
)

func setupRouter(hub *realtime.Hub, instanceID string, startedAt time.Time) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Origin", "Host", "X-Site-Name"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.AuthJWT)
		r.Get("/rooms", rooms.HandleList(hub))
		r.Get("/stats", rooms.HandleStats(hub, instanceID, startedAt))
	})

	return r
}

func newRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	db := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &db); err != nil {
			logrus.WithField("REDIS_DB", raw).Fatal("invalid redis database number")
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).WithField("addr", addr).Fatal("failed to ping redis")
	}
	logrus.WithField("addr", addr).Info("redis connection established")
	return client
}

func waitForShutdown(srv *socketio.Server, rdb *redis.Client, cancelRelay context.CancelFunc) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("shutting down")
	cancelRelay()
	srv.Close(nil)
	if err := rdb.Close(); err != nil {
		logrus.WithError(err).Warn("closing redis connection")
	}
	os.Exit(0)
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":9000", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	instanceID := ulid.Make().String()
	startedAt := time.Now()
	logrus.WithField("instance", instanceID).Info("starting realtime gateway")

	rdb := newRedisClient()
	hub := realtime.NewHub()
	taskLogs := stores.GetTaskLogStore(rdb)

	srv := websocket.NewServer()
	emit := websocket.NewEmitter(srv)
	presence := realtime.NewPresence(hub, emit)
	relay := realtime.NewRelay(rdb, emit)

	gateway := websocket.NewGateway(hub, presence, relay, realtime.NewAPIClient(), taskLogs, emit, os.Getenv("DEFAULT_SITE"))
	gateway.Attach(srv)

	relayCtx, cancelRelay := context.WithCancel(context.Background())
	go func() {
		if err := relay.Run(relayCtx); err != nil && relayCtx.Err() == nil {
			logrus.WithError(err).Fatal("relay subscriber stopped")
		}
	}()

	r := setupRouter(hub, instanceID, startedAt)
	r.Mount("/socket.io/", srv.ServeHandler(nil))

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(srv, rdb, cancelRelay)
}
