package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mimir/api/httpserver"
	"mimir/domain/book"
	"mimir/infra/config"
	"mimir/infra/journal"
	"mimir/infra/kafka"
	"mimir/infra/sequence"
	"mimir/jobs/broadcaster"
	"mimir/jobs/ingest"
	"mimir/pkg/fixedpoint"
	"mimir/service"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config (empty = defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	conv, err := fixedpoint.New(cfg.Book.TickSize)
	if err != nil {
		log.Fatalf("tick size %q: %v", cfg.Book.TickSize, err)
	}

	// ---------------- Journal ----------------

	var jnl *journal.Journal
	if cfg.Journal.Enabled {
		jnl, err = journal.Open(cfg.Journal.Dir)
		if err != nil {
			log.Fatalf("journal open failed: %v", err)
		}
		defer jnl.Close()
	}

	// ---------------- Domain & service ----------------

	b := book.New(book.Config{
		BlockSize: cfg.Book.ArenaBlock,
		MaxBlocks: cfg.Book.ArenaMaxBlocks,
	})
	svc := service.New(b, sequence.New(0), jnl)
	svc.AutoCompact(cfg.Journal.CompactEvery)

	// Replay MUST finish before any transport accepts traffic.
	if err := svc.Replay(); err != nil {
		log.Fatalf("journal replay failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- Background jobs ----------------

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.DepthTopic,
			BatchTimeout: time.Duration(cfg.Kafka.BatchTimeoutMS) * time.Millisecond,
			Async:        cfg.Kafka.Async,
		})
		defer producer.Close()

		bc := broadcaster.New(svc, producer, cfg.Depth.Levels,
			time.Duration(cfg.Depth.IntervalMS)*time.Millisecond)
		go bc.Run(ctx)

		consumer, err := ingest.New(cfg.Kafka.Brokers, cfg.Kafka.Group, cfg.Kafka.OrdersTopic, svc, conv)
		if err != nil {
			log.Fatalf("kafka intake init failed: %v", err)
		}
		defer consumer.Close()
		go consumer.Run(ctx)
	}

	// ---------------- HTTP ----------------

	api := httpserver.New(svc, conv, cfg.Depth.Levels,
		time.Duration(cfg.Depth.IntervalMS)*time.Millisecond)
	httpSrv := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: api.Handler(),
	}

	go func() {
		log.Printf("mimir engine listening on %s (tick %s)", cfg.Server.Listen, conv.Tick())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server exited: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}
