package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/angelmondragon/livespace-sdk/pkg/config"
	pkgerrors "github.com/angelmondragon/livespace-sdk/pkg/errors"
	"github.com/angelmondragon/livespace-sdk/pkg/livespace"
	"github.com/angelmondragon/livespace-sdk/pkg/livespace/modules"
	"github.com/angelmondragon/livespace-sdk/pkg/logger"
	"github.com/angelmondragon/livespace-sdk/pkg/metrics"
	"github.com/angelmondragon/livespace-sdk/pkg/redis"
)

const serviceName = "livespace-cli"

func main() {
	os.Exit(run())
}

func run() int {
	module := flag.String("module", "Default", "API module name")
	method := flag.String("method", "ping", "API method name")
	rawParams := flag.String("params", "{}", "method parameters as a JSON object")
	path := flag.String("path", "", "gjson path selecting part of the response data")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		return 1
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	params, err := parseParams(*rawParams)
	if err != nil {
		logg.Error(ctx, "invalid -params", err)
		return 1
	}

	opts := []livespace.Option{livespace.WithLogger(logg)}

	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		opts = append(opts, livespace.WithMetrics(metrics.NewCallMetrics(registry)))
	}

	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			return 1
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()

		store, err := livespace.NewRedisStore(redisClient, cfg.Livespace.APIURL, cfg.Livespace.APIKey, cfg.Livespace.SessionTTL)
		if err != nil {
			logg.Error(ctx, "failed to create session store", err)
			return 1
		}
		opts = append(opts, livespace.WithCredentialStore(store))
	}

	client, err := livespace.NewClientFromConfig(cfg.Livespace, opts...)
	if err != nil {
		logg.Error(ctx, "failed to create livespace client", err)
		return 1
	}

	resp, err := dispatch(ctx, client, *module, *method, params)
	if registry != nil {
		if err := writeMetrics(os.Stderr, registry); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "failed to write metrics")
		}
	}
	if err != nil {
		printJSON(os.Stderr, pkgerrors.Dump(err))
		return 1
	}

	if *path != "" {
		fmt.Fprintln(os.Stdout, resp.Get(*path).Raw)
		return 0
	}
	printJSON(os.Stdout, resp.Data)
	return 0
}

// dispatch routes Default.ping through its facade and everything else
// through the raw caller.
func dispatch(ctx context.Context, client *livespace.Client, module, method string, params livespace.Params) (*livespace.Response, error) {
	if strings.EqualFold(module, "Default") && strings.EqualFold(method, "ping") {
		return modules.New(client).Default.Ping(ctx, params)
	}
	return client.Call(ctx, module, method, params)
}

func parseParams(raw string) (livespace.Params, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return livespace.Params{}, nil
	}
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var values map[string]any
	if err := decoder.Decode(&values); err != nil {
		return livespace.Params{}, fmt.Errorf("decode params: %w", err)
	}
	return livespace.ParamsFrom(values)
}

func printJSON(w io.Writer, v any) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(w, "%v\n", v)
	}
}

func writeMetrics(w io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return err
		}
	}
	return nil
}
