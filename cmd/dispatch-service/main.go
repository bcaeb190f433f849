package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/appgruard/Grua-RD-sub000/internal/servicio/bootstrap"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/config"
	"github.com/appgruard/Grua-RD-sub000/internal/shared/logger"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger("dispatch-service")
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootstrap.Run(ctx, cfg, log)
}
