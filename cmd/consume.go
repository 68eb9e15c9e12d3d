package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/innowise-solutions/ms-go-payments/app/consumer"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume create-order events and open payments for them",
	Run:   runConsume,
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}

func runConsume(_ *cobra.Command, _ []string) {
	cfg, paymentService, cleanup := mustCreatePaymentService()
	defer cleanup()

	orderConsumer := consumer.NewOrderEventConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.CreateOrderTopic,
		cfg.Kafka.ConsumerGroupID,
		paymentService,
	)
	defer func() {
		if err := orderConsumer.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close order event consumer")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logrus.Info("Consumer shutdown requested")
		cancel()
	}()

	logrus.WithFields(logrus.Fields{
		"topic": cfg.Kafka.CreateOrderTopic,
		"group": cfg.Kafka.ConsumerGroupID,
	}).Info("Starting order event consumer")

	if err := orderConsumer.Run(ctx); err != nil {
		logrus.WithError(err).Fatal("Order event consumer error")
	}

	logrus.Info("Consumer stopped")
}
