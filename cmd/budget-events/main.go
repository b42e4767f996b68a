package main

import (
	"context"
	"errors"
	"os"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to tail ledger events")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	logger.Info("Starting budget-events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	err = client.ConsumeLedgerChanged(ctx, logEvent(logger.WithComponent(log.ComponentEvents)))
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		client.Close()
		os.Exit(1)
	}
	logger.Info("budget-events stopped")
}

// logEvent returns a handler that writes one log line per ledger event.
func logEvent(logger *log.Logger) func(context.Context, *amqp.LedgerChangedMessage) error {
	return func(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
		logger.InfoContext(ctx, "Ledger changed",
			log.FieldChange, msg.Change,
			log.FieldBudget, msg.Budget,
			"total", msg.Total,
			log.FieldBalance, msg.Balance,
			"sign", msg.Sign,
			log.FieldRecords, msg.Records,
			"at", msg.Timestamp)
		return nil
	}
}
