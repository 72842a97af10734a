package main

import (
	"context"
	"os"

	"github.com/locvowork/bom_derating/internal/bootstrap"
	"github.com/locvowork/bom_derating/internal/logger"
)

func main() {
	ctx := context.Background()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		panic(err)
	}

	if err := app.Run(); err != nil {
		logger.ErrorLog(ctx, "Server stopped", err)
		os.Exit(1)
	}
}
