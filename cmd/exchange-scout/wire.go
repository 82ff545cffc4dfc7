// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/exchange-scout/internal/agents"
	"github.com/pdiddy/exchange-scout/internal/container"
	"github.com/pdiddy/exchange-scout/internal/convert"
	"github.com/pdiddy/exchange-scout/internal/fetch"
	"github.com/pdiddy/exchange-scout/internal/llm"
	"github.com/pdiddy/exchange-scout/internal/logging"
	"github.com/pdiddy/exchange-scout/internal/pagecache"
	"github.com/pdiddy/exchange-scout/internal/retry"
	"github.com/pdiddy/exchange-scout/internal/search"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

// env is the configuration and logger shared by every subcommand. Closers
// run in reverse order on Close.
type env struct {
	cfg     types.Config
	logger  *zap.Logger
	closers []func() error
}

func newEnv() (*env, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger}, nil
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Warn("closing resource", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}

func (e *env) policy() retry.Policy {
	return retry.FromConfig(e.cfg.Retry)
}

func (e *env) gateway() (*search.Gateway, error) {
	backend, err := search.NewBackend(e.cfg.Search, &http.Client{})
	if err != nil {
		return nil, err
	}
	return search.NewGateway(backend, e.cfg.Search.Timeout, e.policy(), e.logger.Named("search")), nil
}

// fetcher builds the content fetcher with the optional page cache and PDF
// converter. A missing container runtime disables PDF conversion with a
// warning rather than failing the command.
func (e *env) fetcher(ctx context.Context) (*fetch.Fetcher, error) {
	opts := []fetch.Option{fetch.WithLogger(e.logger.Named("fetch"))}

	if e.cfg.Fetch.CachePath != "" {
		store, err := pagecache.Open(e.cfg.Fetch.CachePath, e.cfg.Fetch.CacheTTL)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, store.Close)
		opts = append(opts, fetch.WithCache(store))
	}

	if e.cfg.Fetch.PDF {
		pdf, err := pdfConverter(ctx)
		if err != nil {
			e.logger.Warn("PDF conversion disabled", zap.Error(err))
		} else {
			opts = append(opts, fetch.WithPDF(pdf))
		}
	}

	return fetch.New(e.cfg.Fetch.UserAgent, e.policy(), opts...), nil
}

func pdfConverter(ctx context.Context) (*convert.PDFConverter, error) {
	rt, err := container.DetectRuntime(ctx)
	if err != nil {
		return nil, err
	}
	return convert.NewPDFConverter(ctx, rt)
}

// deps wires everything a pipeline needs.
func (e *env) deps(ctx context.Context) (agents.Deps, error) {
	gw, err := e.gateway()
	if err != nil {
		return agents.Deps{}, err
	}
	f, err := e.fetcher(ctx)
	if err != nil {
		return agents.Deps{}, err
	}
	model, err := llm.New(ctx, e.cfg.AI, e.policy(), e.logger.Named("llm"))
	if err != nil {
		return agents.Deps{}, fmt.Errorf("configuring %s: %w", e.cfg.AI.Provider, err)
	}
	return agents.Deps{
		Searcher: gw,
		Fetcher:  f,
		Model:    model,
		Config:   e.cfg,
		Logger:   e.logger,
	}, nil
}
