package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"benchtrack.org/internal/cache"
	"benchtrack.org/internal/directory"
	"benchtrack.org/internal/httpapi"
	"benchtrack.org/internal/obs"
	"benchtrack.org/internal/qrauth"
	"benchtrack.org/internal/queue"
	"benchtrack.org/internal/requests"
	"benchtrack.org/internal/scan"
	"benchtrack.org/internal/store/memory"
	"benchtrack.org/internal/store/pg"
	"benchtrack.org/internal/timeline"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	var (
		dir      directory.Store
		tokens   qrauth.TokenStore
		reqs     requests.Service
		tl       timeline.Store
		store    *pg.Store
		probeDB  = httpapi.ReadyProbe{}
		tokenTTL = qrauth.DefaultTTL
	)

	if dsn := os.Getenv("BENCHTRACK_PG_DSN"); dsn != "" {
		var err error
		store, err = pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		dir = store.Directory()
		tokens = store.Tokens()
		reqs = store.Requests()
		tl = store.Timeline()
		probeDB = httpapi.ReadyProbe{DB: store.DB()}
	} else {
		// In-memory mode keeps local development and demos database-free.
		log.Println("BENCHTRACK_PG_DSN not set, using in-memory stores")
		memDir := memory.NewDirectory()
		dir = memDir
		tokens = qrauth.NewInMemoryStore()
		reqs = requests.NewInMemory(memDir)
		tl = memory.NewTimeline()
	}

	if raw := os.Getenv("BENCHTRACK_QR_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("parse BENCHTRACK_QR_TTL: %v", err)
		}
		tokenTTL = ttl
	}

	pub := queue.NewPublisher(os.Getenv("BENCHTRACK_AMQP_URL"))
	listCache := cache.New(os.Getenv("BENCHTRACK_REDIS_ADDR"), 0)

	var publisher timeline.Publisher
	if pub != nil {
		publisher = pub
	}
	recorder := timeline.NewRecorder(tl, publisher)

	deps := httpapi.Deps{
		Tokens:   qrauth.NewService(tokens, dir.Users(), qrauth.WithTTL(tokenTTL)),
		Requests: reqs,
		Dir:      dir,
		Timeline: tl,
		Recorder: recorder,
		Resolver: scan.NewResolver(dir),
		Cache:    listCache,
	}
	api := httpapi.New(probeDB, version, deps)

	httpAddr := envOr("BENCHTRACK_HTTP_ADDR", ":8080")
	srv := &http.Server{
		Addr:              httpAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting benchtrack-api %s on %s", version, httpAddr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// gRPC health endpoint for orchestrator probes.
	grpcHealth := httpapi.NewGRPCHealth(probeDB)
	grpcAddr := envOr("BENCHTRACK_GRPC_ADDR", ":9090")
	go func() {
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		log.Printf("gRPC health on %s", grpcAddr)
		if err := grpcHealth.Serve(lis); err != nil {
			log.Printf("grpc serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	grpcHealth.Stop()
	_ = listCache.Close()
	if store != nil {
		_ = store.Close()
	}
	log.Println("Stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
