package main

import (
	"context"
	"fmt"
	"os"

	"github.com/leon-do/web3hook-emit/internal/blockproc"
	"github.com/leon-do/web3hook-emit/internal/chainstream"
	"github.com/leon-do/web3hook-emit/internal/config"
	"github.com/leon-do/web3hook-emit/internal/handlers/cli"
	"github.com/leon-do/web3hook-emit/internal/infra/blockchain/ethereum"
	"github.com/leon-do/web3hook-emit/internal/infra/storage/memory"
	"github.com/leon-do/web3hook-emit/internal/infra/storage/redis"
	"github.com/leon-do/web3hook-emit/internal/infra/webhook"
	"github.com/leon-do/web3hook-emit/internal/pkg/logger"
	"github.com/leon-do/web3hook-emit/internal/pkg/resilience/retry"
	"github.com/leon-do/web3hook-emit/internal/pkg/telemetry"
	transporthttp "github.com/leon-do/web3hook-emit/internal/pkg/transport/http"
	"github.com/leon-do/web3hook-emit/internal/pkg/transport/jsonrpc"
	"github.com/leon-do/web3hook-emit/internal/triggerregistry"
	"github.com/leon-do/web3hook-emit/internal/triggerwatch"
)

// storages bundles the persistence interfaces the pipeline depends on. With a
// Redis address configured they are all backed by Redis; otherwise the
// service falls back to in-process storage with no durable checkpoint.
type storages struct {
	registryTriggers triggerregistry.TriggerStorage
	registryAccounts triggerregistry.AccountStorage
	watchTriggers    triggerwatch.TriggerStorage
	watchAccounts    triggerwatch.AccountStorage

	checkpoints chainstream.CheckpointStorage
	guard       triggerwatch.IdempotencyGuard

	close func() error
}

func buildStorages(ctx context.Context, cfg config.Config) (storages, error) {
	if cfg.RedisAddress == "" {
		mem := memory.New()
		return storages{
			registryTriggers: mem,
			registryAccounts: mem,
			watchTriggers:    mem,
			watchAccounts:    mem,
			close:            func() error { return nil },
		}, nil
	}

	client, err := redis.NewClient(ctx, cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return storages{}, err
	}

	return storages{
		registryTriggers: client,
		registryAccounts: client,
		watchTriggers:    client,
		watchAccounts:    client,
		checkpoints:      client,
		guard:            client,
		close:            client.Close,
	}, nil
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	telemetryShutdown, err := telemetry.Init(ctx, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer telemetryShutdown(ctx)

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		return err
	}
	defer logger.Sync()

	store, err := buildStorages(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	ethClient := ethereum.NewClient(
		jsonrpc.NewClient(transporthttp.NewClient().StandardClient(), cfg.EthereumRPCEndpoint),
		ethereum.WithPollInterval(cfg.EthereumPollInterval),
	)

	streamOpts := []chainstream.Option{chainstream.WithRetry(retry.New())}
	if store.checkpoints != nil {
		streamOpts = append(streamOpts, chainstream.WithCheckpointStorage(store.checkpoints))
	}
	stream := chainstream.New(
		map[string]chainstream.Blockchain{"ethereum": ethClient},
		streamOpts...,
	)

	notifier := webhook.NewNotifier(transporthttp.NewClient(
		transporthttp.WithTimeout(cfg.WebhookTimeout),
		transporthttp.WithRetryMax(cfg.WebhookRetryMax),
	))

	watchOpts := []triggerwatch.Option{
		triggerwatch.WithFreeCreditQuota(cfg.FreeCreditQuota),
		triggerwatch.WithFetchConcurrency(cfg.FetchConcurrency),
		triggerwatch.WithMaxProcessingTime(cfg.MaxProcessingTime),
	}
	if store.guard != nil {
		watchOpts = append(watchOpts, triggerwatch.WithIdempotencyGuard(store.guard))
	}
	watch := triggerwatch.New(
		map[string]triggerwatch.TransactionFetcher{"ethereum": ethClient},
		store.watchTriggers,
		store.watchAccounts,
		notifier,
		watchOpts...,
	)

	procOpts := []blockproc.Option{blockproc.WithRetry(retry.New())}
	if store.checkpoints != nil {
		procOpts = append(procOpts, blockproc.WithCheckpointStorage(store.checkpoints))
	}
	proc := blockproc.New(stream, watch, procOpts...)

	registry := triggerregistry.New(store.registryTriggers, store.registryAccounts)

	return cli.Run(ctx, registry, proc)
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
