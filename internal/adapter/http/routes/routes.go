package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	_ "cardpay_billing/docs" // swagger spec
	"cardpay_billing/internal/adapter/http/handlers"
	"cardpay_billing/internal/infrastructure/container"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Run serves the API until ctx is cancelled.
func Run(ctx context.Context, c *container.Container) error {
	if !c.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    ":" + c.Config.Port,
		Handler: NewRouter(c),
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Infof("[http] listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("[http] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(c *container.Container) *gin.Engine {
	router := gin.New()
	setMiddlewares(router, c.Logger)

	// Swagger documentation endpoint
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	paymentHandler := handlers.NewPaymentHandler(c.PaymentUseCase, c.Logger)

	v1 := router.Group("/v1")
	addPingRoutes(v1)
	addPaymentRoutes(v1, paymentHandler)
	return router
}

func addPingRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", handlers.Ping)
}

func setMiddlewares(router *gin.Engine, logger *zap.SugaredLogger) {
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Errorf("Recovered from panic: %v", recovered)
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
}
