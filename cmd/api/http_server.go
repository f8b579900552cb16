package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/giovaniif/fundraising/domain/center"
	"github.com/giovaniif/fundraising/infra/config"
	"github.com/giovaniif/fundraising/infra/gateways"
	"github.com/giovaniif/fundraising/infra/metrics"
	"github.com/giovaniif/fundraising/infra/repositories"
	"github.com/giovaniif/fundraising/infra/tracing"
	protocols "github.com/giovaniif/fundraising/protocols"
)

const (
	serviceName     = "fundraising"
	shutdownTimeout = 10 * time.Second
)

// StartServer serves until ctx is cancelled, then drains the HTTP server and
// closes every client it opened.
func StartServer(ctx context.Context, cfg *config.Config) error {
	gin.SetMode(gin.ReleaseMode)
	clock := gateways.NewSystemClock()

	catalog, err := cfg.LoadCatalog()
	if err != nil {
		return err
	}
	catalog.Options.CreatedAt = clock.Now()
	centers, err := center.Build(catalog.Entries, catalog.Options)
	if err != nil {
		return err
	}
	store, err := repositories.NewStore(centers, clock)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "initialized centers", slog.Int("count", len(centers)), slog.String("currency", catalog.Options.Currency))

	var closers []func(context.Context) error

	shutdownTracing, err := tracing.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if shutdownTracing != nil {
		closers = append(closers, shutdownTracing)
	}

	gateway, err := newGateway(cfg)
	if err != nil {
		return err
	}

	publisher := gateways.NewFanOutPublisher(metrics.NewDonationMetrics(prometheus.DefaultRegisterer))
	deps := Dependencies{
		Repository:     store,
		Gateway:        gateway,
		Publisher:      publisher,
		Clock:          clock,
		GatewayTimeout: cfg.GatewayTimeout,
		AllowedOrigins: cfg.CorsAllowedOrigins,
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.WarnContext(ctx, "redis ping failed, events will still be attempted", slog.String("addr", cfg.RedisAddr), slog.Any("err", err))
		}
		publisher.Add(gateways.NewEventPublisherRedis(rdb, cfg.RedisChannel))
		deps.RedisPing = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		closers = append(closers, closeWith(rdb))
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := gateways.NewEventPublisherKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher.Add(kafkaPublisher)
		closers = append(closers, closeWith(kafkaPublisher))
	}
	if cfg.MongoUri != "" {
		client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoUri))
		if err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
		publisher.Add(gateways.NewEventPublisherMongo(client.Database(cfg.MongoDatabase)))
		closers = append(closers, client.Disconnect)
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.InfoContext(ctx, "fundraising api listening", slog.String("addr", server.Addr), slog.String("gateway", cfg.GatewayProvider))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		slog.Info("fundraising api stopped")
		return errors.Join(errs...)
	})
	return g.Wait()
}

func newGateway(cfg *config.Config) (protocols.PaymentGateway, error) {
	switch cfg.GatewayProvider {
	case config.ProviderPaypal:
		return gateways.NewPaymentGatewayPaypal(cfg.PaypalBaseUrl(gateways.PaypalBaseUrl), cfg.PaypalClientId, cfg.PaypalClientSecret, &http.Client{}), nil
	case config.ProviderStripe:
		return gateways.NewPaymentGatewayStripe(cfg.StripeSecretKey), nil
	default:
		return nil, fmt.Errorf("unknown gateway provider %q", cfg.GatewayProvider)
	}
}

func closeWith(c io.Closer) func(context.Context) error {
	return func(context.Context) error { return c.Close() }
}
