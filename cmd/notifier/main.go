package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"handmade-kart/internal/config"
	"handmade-kart/internal/events"
	"handmade-kart/internal/notify"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("notifier requires KAFKA_ENABLED=true")
	}

	var mailer notify.Mailer
	if cfg.SMTP.Enabled {
		mailer, err = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			SSL:      cfg.SMTP.SSL,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize mailer: %w", err)
		}
	} else {
		logger.Warn().Msg("smtp disabled, order emails are written to the log")
		mailer = notify.NewLogMailer(logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic,
		notify.OrderEventHandler(mailer, logger), logger)
	defer consumer.Close()

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Str("group_id", cfg.Kafka.GroupID).
		Msg("starting order notifier")

	return consumer.Run(ctx)
}
