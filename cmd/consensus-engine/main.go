package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/cache"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/config"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/engine"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/hub"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/store"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/writer"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	fmt.Println("=== Fortuna Consensus Engine v0 ===")

	// Load configuration
	cfg := config.Load()

	policy, err := cfg.LoadSizingPolicy()
	if err != nil {
		fmt.Printf("❌ Failed to load sizing policy: %v\n", err)
		os.Exit(1)
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("❌ Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Redis")

	// Connect to Alexandria DB (cappers and picks)
	alexandriaDB, err := sql.Open("postgres", cfg.AlexandriaDSN)
	if err != nil {
		fmt.Printf("❌ Failed to connect to Alexandria: %v\n", err)
		os.Exit(1)
	}
	defer alexandriaDB.Close()

	if err := alexandriaDB.PingContext(ctx); err != nil {
		fmt.Printf("❌ Failed to ping Alexandria: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Alexandria DB")

	// Connect to Holocron DB (meta-pick decisions)
	holocronDB, err := sql.Open("postgres", cfg.HolocronDSN)
	if err != nil {
		fmt.Printf("❌ Failed to connect to Holocron: %v\n", err)
		os.Exit(1)
	}
	defer holocronDB.Close()

	if err := holocronDB.PingContext(ctx); err != nil {
		fmt.Printf("❌ Failed to ping Holocron: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Holocron DB")

	// Initialize components
	alexandria := store.NewAlexandriaStore(alexandriaDB)
	holocronWriter := writer.NewHolocronWriter(holocronDB)
	streamPublisher := publisher.NewStreamPublisher(redisClient)
	redisWriter := cache.NewRedisWriter(redisClient)
	engineMetrics := metrics.NewEngineMetrics()

	consensusEngine := engine.NewEngine(alexandria, alexandria, cfg, policy)

	// Setup graceful shutdown
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start websocket hub
	broadcastHub := hub.NewHub()
	go broadcastHub.Run(runCtx)

	// Periodic hub metrics report
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				m := broadcastHub.GetMetrics()
				fmt.Printf("📊 Hub: active=%v connections=%v messages=%v\n",
					m["active_clients"], m["total_connections"], m["total_messages"])
			}
		}
	}()

	// Start HTTP server
	handler := handlers.NewHandler(broadcastHub, holocronWriter, redisWriter, policy, runCtx)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handler.HealthCheck)
	r.Post("/api/v1/evaluate", handler.Evaluate)
	r.Get("/api/v1/eligibility", handler.Eligibility)
	r.Get("/api/v1/decisions", handler.RecentDecisions)
	r.Get("/ws", handler.HandleWebSocket)
	r.Handle("/metrics", engineMetrics.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		fmt.Printf("✓ HTTP server started on port %d\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("❌ Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// Start the batch loop
	loop := &batchLoop{
		engine:    consensusEngine,
		writer:    holocronWriter,
		publisher: streamPublisher,
		cache:     redisWriter,
		hub:       broadcastHub,
		metrics:   engineMetrics,
		interval:  cfg.PollInterval,
	}
	go loop.run(runCtx)

	fmt.Println("✓ Consensus Engine started")
	fmt.Printf("  Poll Interval: %s\n", cfg.PollInterval)
	fmt.Printf("  Lookahead Window: %s\n", cfg.LookaheadWindow)
	fmt.Printf("  Markets: %v\n", cfg.Markets)
	fmt.Printf("  Workers: %d\n", cfg.WorkerCount)
	fmt.Printf("  Sizing: min=%.2f max=%.2f penalty=%.2f\n",
		policy.MinUnits, policy.MaxUnits, policy.ConflictPenalty)

	// Wait for shutdown signal
	sig := <-sigChan
	fmt.Printf("\n⚠️  Received signal: %v\n", sig)
	cancel()

	fmt.Println("🛑 Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("⚠️  Error shutting down server: %v\n", err)
	}

	if err := redisClient.Close(); err != nil {
		fmt.Printf("⚠️  Error closing Redis: %v\n", err)
	}

	fmt.Println("✓ Shutdown complete")
}

// batchLoop runs the engine on a ticker and routes the output
type batchLoop struct {
	engine    *engine.Engine
	writer    *writer.HolocronWriter
	publisher *publisher.StreamPublisher
	cache     *cache.RedisWriter
	hub       *hub.Hub
	metrics   *metrics.EngineMetrics
	interval  time.Duration
}

// run polls until the context is cancelled. The first batch fires immediately.
func (l *batchLoop) run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.runOnce(ctx)
		}
	}
}

// runOnce executes one batch invocation and fans out its output
func (l *batchLoop) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[ConsensusEngine] PANIC: %v\n", r)
		}
	}()

	start := time.Now()
	result := l.engine.Run(ctx, start)

	l.metrics.BatchRuns.Inc()
	l.metrics.BatchDuration.Observe(time.Since(start).Seconds())
	l.metrics.GamesEvaluated.Add(float64(result.GamesEvaluated))
	l.metrics.ParseErrors.Add(float64(result.ParseErrors))
	l.metrics.EligibleCappers.Set(float64(len(result.Eligible)))

	for _, evalErr := range result.Errors {
		l.metrics.EvalErrors.WithLabelValues(evalErr.Stage).Inc()
		fmt.Printf("[ConsensusEngine] eval error game=%s stage=%s: %s\n",
			evalErr.GameID, evalErr.Stage, evalErr.Message)
	}

	if err := l.cache.WriteEligibility(ctx, result.Eligible); err != nil {
		fmt.Printf("[ConsensusEngine] failed to cache eligibility: %v\n", err)
	}

	generated := 0
	for _, decision := range result.Decisions {
		if err := l.routeDecision(ctx, decision); err != nil {
			fmt.Printf("[ConsensusEngine] error routing decision: %v\n", err)
			continue
		}
		if decision.ShouldGenerate {
			generated++
		}
	}

	fmt.Printf("✓ Batch complete: games=%d decisions=%d generated=%d parse_errors=%d errors=%d (%.1fms)\n",
		result.GamesEvaluated, len(result.Decisions), generated,
		result.ParseErrors, len(result.Errors), float64(time.Since(start).Milliseconds()))
}

// routeDecision persists a decision, then publishes and broadcasts it when a
// meta-pick was generated. Blocked decisions are persisted for audit only.
func (l *batchLoop) routeDecision(ctx context.Context, decision models.Decision) error {
	if _, err := l.writer.WriteDecision(ctx, decision); err != nil {
		return fmt.Errorf("failed to write to Holocron: %w", err)
	}

	if !decision.ShouldGenerate {
		l.metrics.DecisionsBlocked.WithLabelValues(string(decision.ReasonCode)).Inc()
		return nil
	}

	l.metrics.DecisionsGenerated.WithLabelValues(decision.SportKey, string(decision.Market)).Inc()

	if err := l.publisher.PublishDecision(ctx, decision); err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}

	l.hub.Broadcast(decision)

	fmt.Printf("✓ Generated meta-pick: game=%s market=%s side=%s units=%.2f (%s)\n",
		decision.GameID, decision.Market, decision.Side, decision.Units, decision.Reason)

	return nil
}
