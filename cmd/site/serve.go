package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sentrycore/site/internal/config"
	"github.com/sentrycore/site/internal/feed"
	"github.com/sentrycore/site/internal/infra/database"
	"github.com/sentrycore/site/internal/infra/repository"
	"github.com/sentrycore/site/internal/present/rest"
	"github.com/sentrycore/site/internal/present/rest/middleware"
	"github.com/sentrycore/site/internal/service"
	"github.com/sentrycore/site/internal/usecase"
)

const serviceName = "sentrycore-site"

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and realtime server",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			conf, err := config.Load(path)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), conf)
		},
	}
}

func setupLogger(level string) {
	var l slog.Level
	err := l.UnmarshalText([]byte(level))
	if err != nil {
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l})))
}

func setupTraceProvider(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trace exporter")
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", serviceName),
		)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return provider.Shutdown, nil
}

func serve(ctx context.Context, conf config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	setupLogger(conf.Server.LogLevel)
	domainConf := conf.Domain()

	if conf.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		return errors.Wrap(err, "failed to connect database")
	}

	var mc repository.RecordCache
	if conf.Server.MemcachedAddr != "" {
		mc = database.NewMemcached(conf.Server.MemcachedAddr)
	}

	// Without redis, changes only reach sessions served by this process.
	var changeFeed feed.Feed
	var publisher feed.Publisher
	if conf.Server.RedisAddr != "" {
		rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		defer rdb.Close()
		signalService := service.NewSignalService(rdb)
		changeFeed = signalService
		publisher = signalService
	} else {
		broker := feed.NewBroker()
		changeFeed = broker
		publisher = broker
	}

	recordRepo := repository.NewRecordRepository(db, mc)
	contactRepo := repository.NewContactRepository(db)
	solutionRepo := repository.NewSolutionRepository(db)

	recordUsecase := usecase.NewRecordUsecase(recordRepo, publisher, domainConf)
	contactUsecase := usecase.NewContactUsecase(contactRepo, solutionRepo)
	subscriber := feed.NewSubscriber(changeFeed, recordUsecase, subscriberOptions(conf.Site)...)

	authService := service.NewAuthService(&domainConf)

	handler := rest.NewHandler(
		domainConf,
		recordUsecase,
		contactUsecase,
		subscriber,
		middleware.NewAuthMiddleware(authService),
		middleware.NewRateLimiter(conf.Server.ContactRate, conf.Server.ContactBurst),
	)

	e := echo.New()
	e.HideBanner = true
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(serviceName))
	}
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(corsMiddleware(conf.Site))

	handler.RegisterRoutes(e)

	go func() {
		err := e.Start(conf.Server.Listen)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error(
				"Server stopped",
				slog.String("error", err.Error()),
				slog.String("module", "main"),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func subscriberOptions(site config.Site) []feed.Option {
	var opts []feed.Option
	if site.SequencedRefresh {
		opts = append(opts, feed.WithSequencedRefresh())
	}
	return opts
}

func corsMiddleware(site config.Site) echo.MiddlewareFunc {
	if site.URL == "" {
		return echomw.CORS()
	}
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{site.URL},
	})
}
