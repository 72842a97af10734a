package bootstrap

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/locvowork/bom_derating/internal/config"
	"github.com/locvowork/bom_derating/internal/handler"
	"github.com/locvowork/bom_derating/internal/logger"
)

type App struct {
	Echo *echo.Echo
}

func NewApp() *App {
	return &App{
		Echo: echo.New(),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	// Load environment configuration
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}

	// Initialize logging
	logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	derateHandler := handler.NewDerateHandler(config.DefaultEnvConfig.WORK_DIR)

	a.RegisterMiddlewares()
	a.RegisterRoutes(derateHandler)

	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func (a *App) RegisterRoutes(derateHandler *handler.DerateHandler) {
	a.Echo.POST("/derate", derateHandler.DerateHandler)
	a.Echo.GET("/healthz", derateHandler.HealthHandler)
}

func (a *App) Run() error {
	return a.Echo.Start(fmt.Sprintf(":%d", config.DefaultEnvConfig.APP_PORT))
}
