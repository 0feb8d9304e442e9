package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "cardpay_billing/docs"
	"cardpay_billing/internal/adapter/http/routes"
	"cardpay_billing/internal/infrastructure/config"
	"cardpay_billing/internal/infrastructure/container"
	"cardpay_billing/internal/infrastructure/logging"

	_ "github.com/joho/godotenv/autoload"
)

// @title           Card Payment Billing API
// @version         1.0
// @description     Payment links and card charges for commerce orders.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080

// @BasePath  /v1

func main() {
	cfg, err := config.Load("")
	if err != nil {
		logging.NewLogger(false).Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(cfg.Debug)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to startup the application: %v", err)
	}
	defer c.Close()

	if err := routes.Run(ctx, c); err != nil {
		logger.Errorf("Server stopped: %v", err)
	}
}
