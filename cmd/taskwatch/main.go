// Command taskwatch connects to the realtime endpoint as one user and prints
// every live event it receives, one JSON envelope per line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Neeraj110/task-manager-app/internal/client"
	"github.com/Neeraj110/task-manager-app/internal/events"
	"github.com/Neeraj110/task-manager-app/internal/utils"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	url := flag.String("url", envOr("TASKWATCH_URL", "ws://localhost:5000/ws"), "websocket endpoint")
	token := flag.String("token", os.Getenv("TASKWATCH_TOKEN"), "bearer token, sent as ?token=")
	user := flag.String("user", os.Getenv("TASKWATCH_USER"), "user id to register as")
	name := flag.String("name", os.Getenv("TASKWATCH_NAME"), "display name")
	board := flag.String("board", "", "board id to join")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger, err := utils.NewLogger(true, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(client.Options{
		URL:            *url,
		Token:          *token,
		UserID:         *user,
		UserName:       *name,
		ReconnectDelay: 2 * time.Second,
		Logger:         logger,
	}, client.Handlers{
		OnEvent: func(ev events.ServerEvent) {
			b, err := events.Encode(ev)
			if err != nil {
				logger.Warnw("encode event", "event", ev.Name(), "error", err)
				return
			}
			fmt.Printf("%s %s\n", time.Now().Format(time.TimeOnly), b)
		},
		Invalidate: func(keys ...string) {
			logger.Debugw("refetch", "keys", strings.Join(keys, ","))
		},
	})
	if *board != "" {
		_ = c.JoinBoard(*board)
	}

	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Errorw("taskwatch stopped", "error", err)
		os.Exit(1)
	}
}
