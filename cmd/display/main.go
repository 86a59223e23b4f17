package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focuslink/internal/core/clock"
	"focuslink/internal/display"
	"focuslink/internal/logger"
)

func main() {
	addr := flag.String("addr", ":80", "listen address")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if err := logger.Init("", "focuslink-display", *debug); err != nil {
		logger.Warn("logger init: %v", err)
	}
	defer logger.Close()

	hub := display.NewHub()
	go hub.Run()

	panel := display.New(clock.System(), func(snapshot display.Snapshot) {
		logger.Debug("display %s %s", snapshot.State, snapshot.Text)
		hub.Broadcast(snapshot)
	})
	defer panel.Close()

	server := display.NewServer(panel, hub, *addr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
	case <-quit:
		logger.Info("shutting down display")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("%v", err)
	}
}
