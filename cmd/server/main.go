package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/saloonq/queue-service/config"
	"github.com/saloonq/queue-service/internal/auth"
	httpDelivery "github.com/saloonq/queue-service/internal/delivery/http"
	"github.com/saloonq/queue-service/internal/delivery/kafka/consumer"
	infraRedis "github.com/saloonq/queue-service/internal/infra/redis"
	"github.com/saloonq/queue-service/internal/kafka"
	"github.com/saloonq/queue-service/internal/notification"
	"github.com/saloonq/queue-service/internal/service"
	"github.com/saloonq/queue-service/internal/store"
	pkgKafka "github.com/saloonq/queue-service/pkg/kafka"
	"github.com/saloonq/queue-service/pkg/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l := logger.InitializeZapLogger(logger.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Fatalf(ctx, "Server exited with error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, l logger.Logger) error {
	redisCli, err := infraRedis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer infraRedis.Disconnect(redisCli)

	st := store.NewRedisStore(redisCli, l)

	var prod kafka.Producer
	if cfg.Kafka.Enabled {
		syncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		})
		if err != nil {
			return err
		}

		prod = kafka.NewProducer(syncProd, l)
		defer prod.Close()
	}

	svc := service.NewQueueService(st, prod, l)
	authMgr := auth.New(cfg.JWT)
	h := httpDelivery.NewHandler(svc, authMgr, l)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      h.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof(gCtx, "HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		l.Info(shutdownCtx, "Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Kafka.Enabled {
		consGr, err := pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.ConsumerGroupID,
		})
		if err != nil {
			return err
		}

		cons := consumer.NewConsumer(consGr, notification.NewLogNotifier(l), l)
		if err := cons.Start(gCtx); err != nil {
			return err
		}

		g.Go(func() error {
			<-gCtx.Done()
			return cons.Close()
		})
	}

	return g.Wait()
}
