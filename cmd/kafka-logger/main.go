package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kalpovskii/checklist-ai/internal/kafka"
	"github.com/kalpovskii/checklist-ai/internal/logging"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/spf13/viper"
)

func initConfig() {
	viper.SetDefault("KAFKA_GROUP_ID", "kafka-logger-group")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.AutomaticEnv()
}

func main() {
	initConfig()

	logger := logging.NewLogger(logging.Options{Level: viper.GetString("LOG_LEVEL"), Component: "kafka-logger"})

	broker := viper.GetString("KAFKA_BROKER")
	topic := viper.GetString("KAFKA_TOPIC")
	logFile := viper.GetString("KAFKA_LOG_FILE")

	if broker == "" || topic == "" || logFile == "" {
		logger.Error("KAFKA_BROKER, KAFKA_TOPIC or KAFKA_LOG_FILE is not configured")
		os.Exit(1)
	}

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		logger.Error("failed to open log file", "path", logFile, "error", err)
		os.Exit(1)
	}
	defer file.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: viper.GetString("KAFKA_GROUP_ID"),
	})
	defer r.Close()

	logger.Info("kafka logger started", "broker", broker, "topic", topic, "file", logFile)
	consume(ctx, r, file, logger)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
}

func consume(ctx context.Context, r messageReader, out io.Writer, logger *slog.Logger) {
	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			logger.Warn("error reading message", "error", err)
			continue
		}
		if _, err := io.WriteString(out, formatLine(m)); err != nil {
			logger.Error("write log line", "error", err)
		}
	}
}

// formatLine renders one event per line. Values that are not task events are
// written verbatim.
func formatLine(m kafkago.Message) string {
	event, err := kafka.DecodeEvent(m.Value)
	if err != nil || event.Action == "" {
		return fmt.Sprintf("[%s] %s\n", m.Time.UTC().Format(time.RFC3339), string(m.Value))
	}
	return fmt.Sprintf("[%s] %s task=%d\n", event.At.UTC().Format(time.RFC3339), event.Action, event.TaskID)
}
