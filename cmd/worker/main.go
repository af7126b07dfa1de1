package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quickbasket/internal/config"
	"quickbasket/internal/events"
	"quickbasket/internal/worker"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatalf("kafka.brokers is required for the worker")
	}
	if cfg.Worker.NotifierURL == "" {
		log.Fatalf("worker.notifier_url is required")
	}

	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	defer consumer.Close()

	w := &worker.Worker{
		Consumer: consumer,
		Notifier: &worker.Notifier{
			URL:    cfg.Worker.NotifierURL,
			Client: &http.Client{Timeout: 10 * time.Second},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		cancel()
	}()

	log.Printf("worker started (topic=%s)", cfg.Kafka.Topic)
	w.Run(ctx)
}
