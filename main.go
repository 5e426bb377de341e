package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/michaelpento.lv/dexarb/cmd"
	"github.com/michaelpento.lv/dexarb/utils"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		utils.GetLogger().Info("Shutting down gracefully...", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := cmd.ExecuteContext(ctx); err != nil {
		utils.GetLogger().Error("dexarb stopped", zap.Error(err))
		utils.CleanupLogger()
		os.Exit(1)
	}
	utils.CleanupLogger()
}
