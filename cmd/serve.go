package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/innowise-solutions/ms-go-payments/app/client"
	"github.com/innowise-solutions/ms-go-payments/app/controller"
	"github.com/innowise-solutions/ms-go-payments/app/producer"
	"github.com/innowise-solutions/ms-go-payments/app/repository"
	"github.com/innowise-solutions/ms-go-payments/app/service"
	"github.com/innowise-solutions/ms-go-payments/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for the payment service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, paymentService, cleanup := mustCreatePaymentService()
	defer cleanup()

	userClient := client.NewUserServiceClient(cfg.UserService.BaseURL, cfg.UserService.Timeout)
	paymentController := controller.NewPaymentController(paymentService, userClient)

	e := setupHTTPServer(paymentController)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(paymentController *controller.PaymentController) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.GET("/health", paymentController.Health)

	payments := e.Group("/api/v1/payments")
	payments.POST("", paymentController.CreatePayment)
	payments.GET("", paymentController.GetAllPayments)
	payments.GET("/all", paymentController.GetAllPayments)
	payments.GET("/statuses", paymentController.GetPaymentsByStatuses)
	payments.GET("/total", paymentController.GetTotalSum)
	payments.GET("/my-payments", paymentController.GetMyTotalSum)
	payments.GET("/order/:orderId", paymentController.GetPaymentsByOrderID)
	payments.GET("/user/:userId", paymentController.GetPaymentsByUserID)

	return e
}

func mustCreatePaymentService() (*config.Config, *service.PaymentService, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	paymentRepo := repository.NewPaymentRepository(db)
	outcomeClient := client.NewRandomNumberClient(cfg.ExternalAPI.RandomNumberURL, cfg.ExternalAPI.Timeout)
	orderClient := client.NewOrderServiceClient(cfg.OrderService.BaseURL, cfg.OrderService.Timeout)
	eventProducer := producer.NewPaymentEventProducer(cfg.Kafka.Brokers, cfg.Kafka.CreatePaymentTopic, cfg.Kafka.WriteTimeout)

	paymentService := service.NewPaymentService(paymentRepo, outcomeClient, orderClient, eventProducer)

	cleanup := func() {
		if err := eventProducer.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close event producer")
		}
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, paymentService, cleanup
}
