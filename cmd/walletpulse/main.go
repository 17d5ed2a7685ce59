package main

import (
	"context"
	"time"

	"github.com/gabapcia/walletpulse/internal/addrwatch"
	"github.com/gabapcia/walletpulse/internal/alert"
	"github.com/gabapcia/walletpulse/internal/alertfeed"
	"github.com/gabapcia/walletpulse/internal/dispatch"
	"github.com/gabapcia/walletpulse/internal/handlers/cli"
	"github.com/gabapcia/walletpulse/internal/infra/ledger/solana"
	"github.com/gabapcia/walletpulse/internal/infra/storage/redis"
	"github.com/gabapcia/walletpulse/internal/monitorproc"
	"github.com/gabapcia/walletpulse/internal/pkg/logger"
	"github.com/gabapcia/walletpulse/internal/pkg/resilience/retry"
	"github.com/gabapcia/walletpulse/internal/pkg/telemetry"
	httptransport "github.com/gabapcia/walletpulse/internal/pkg/transport/http"
	"github.com/gabapcia/walletpulse/internal/pkg/transport/jsonrpc"
	"github.com/gabapcia/walletpulse/internal/registry"
	"github.com/gabapcia/walletpulse/internal/webhook"

	"github.com/kelseyhightower/envconfig"
)

const serviceName = "walletpulse"

// appConfig is the process configuration, read from WALLETPULSE_* env vars.
type appConfig struct {
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" default:"false"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	RPCEndpoint string `envconfig:"SOLANA_RPC_ENDPOINT" required:"true"`

	PollInterval              time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`
	FetchDepth                int           `envconfig:"FETCH_DEPTH" default:"5"`
	LargeTransactionThreshold float64       `envconfig:"LARGE_TX_THRESHOLD" default:"10"`

	WebhookEndpoint    string        `envconfig:"WEBHOOK_ENDPOINT"`
	WebhookKinds       []string      `envconfig:"WEBHOOK_KINDS"`
	WebhookAddresses   []string      `envconfig:"WEBHOOK_ADDRESSES"`
	WebhookMinAmount   float64       `envconfig:"WEBHOOK_MIN_AMOUNT"`
	WebhookAuthScheme  string        `envconfig:"WEBHOOK_AUTH_SCHEME" default:"Authorization"`
	WebhookAuthSecret  string        `envconfig:"WEBHOOK_AUTH_SECRET"`
	WebhookHTTPTimeout time.Duration `envconfig:"WEBHOOK_HTTP_TIMEOUT" default:"5s"`
}

// webhookSubscriptions builds the configured webhook subscription list. A
// deployment without an endpoint simply runs with local feed delivery only.
func webhookSubscriptions(cfg appConfig) ([]webhook.Subscription, error) {
	if cfg.WebhookEndpoint == "" {
		return nil, nil
	}

	kinds := alert.Kinds()
	if len(cfg.WebhookKinds) > 0 {
		kinds = make([]alert.Kind, len(cfg.WebhookKinds))
		for i, k := range cfg.WebhookKinds {
			kinds[i] = alert.Kind(k)
		}
	}

	var opts []webhook.SubscriptionOption
	if len(cfg.WebhookAddresses) > 0 {
		opts = append(opts, webhook.WithAddresses(cfg.WebhookAddresses...))
	}
	if cfg.WebhookMinAmount > 0 {
		opts = append(opts, webhook.WithMinAmount(cfg.WebhookMinAmount))
	}
	if cfg.WebhookAuthSecret != "" {
		opts = append(opts, webhook.WithHeader(cfg.WebhookAuthScheme, cfg.WebhookAuthSecret))
	}

	sub, err := webhook.NewSubscription(cfg.WebhookEndpoint, kinds, opts...)
	if err != nil {
		return nil, err
	}

	return []webhook.Subscription{sub}, nil
}

func main() {
	ctx := context.Background()

	var cfg appConfig
	if err := envconfig.Process(serviceName, &cfg); err != nil {
		panic(err)
	}

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Init(ctx, serviceName)
		if err != nil {
			panic(err)
		}
		defer shutdown(ctx)
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		panic(err)
	}
	defer logger.Sync()

	storage, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal(ctx, "redis connection failed", "error", err)
	}
	defer storage.Close()

	subscriptions, err := webhookSubscriptions(cfg)
	if err != nil {
		logger.Fatal(ctx, "invalid webhook configuration", "error", err)
	}

	var (
		feed   = alertfeed.New()
		sender = webhook.NewSender(httptransport.NewClient(httptransport.WithTimeout(cfg.WebhookHTTPTimeout)))
	)
	defer feed.Close()

	dispatcher := dispatch.New(feed, sender, subscriptions)

	ledger := solana.NewClient(
		jsonrpc.NewClient(httptransport.NewClient().StandardClient(), cfg.RPCEndpoint),
		solana.WithRetry(retry.New()),
	)

	reg := registry.New(storage)

	mp := monitorproc.New(reg, ledger, dispatcher, feed,
		addrwatch.WithPollInterval(cfg.PollInterval),
		addrwatch.WithFetchDepth(cfg.FetchDepth),
		addrwatch.WithLargeTransactionThreshold(cfg.LargeTransactionThreshold),
	)

	if err := cli.Run(ctx, reg, mp); err != nil {
		logger.Fatal(ctx, "command failed", "error", err)
	}
}
