// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	slogmulti "github.com/samber/slog-multi"

	"github.com/cardinalhq/contentpush/cmd/dbopen"
	"github.com/cardinalhq/contentpush/config"
	"github.com/cardinalhq/contentpush/cpdb"
	"github.com/cardinalhq/contentpush/internal/content"
	"github.com/cardinalhq/contentpush/internal/exporter"
	"github.com/cardinalhq/contentpush/internal/idgen"
	"github.com/cardinalhq/contentpush/internal/perzapi"
	"github.com/cardinalhq/contentpush/internal/snapshot"
)

var myInstanceID int64

// signalContext returns a context cancelled on SIGINT or SIGTERM, so a
// drain in progress can finish its current item before the process exits.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// setupApp configures logging and signal handling for a service command.
// The returned cleanup function closes any log sinks.
func setupApp(servicename string) (context.Context, func(), error) {
	myInstanceID = idgen.WorkerID()

	doneCtx, doneCancel := signalContext(context.Background())

	var opts *slog.HandlerOptions
	if os.Getenv("DEBUG") != "" {
		opts = &slog.HandlerOptions{Level: slog.LevelDebug}
	}

	cleanup := func() { doneCancel() }

	if logFile := os.Getenv("CONTENTPUSH_LOG_FILE"); logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			doneCancel()
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
		}
		slog.SetDefault(slog.New(slogmulti.Fanout(
			slog.NewTextHandler(os.Stdout, opts),
			slog.NewJSONHandler(f, opts),
		)).With(
			slog.String("service", servicename),
			slog.Int64("instanceID", myInstanceID),
		))
		cleanup = func() {
			doneCancel()
			_ = f.Close()
		}
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)).With(
			slog.String("service", servicename),
			slog.Int64("instanceID", myInstanceID),
		))
	}

	return doneCtx, cleanup, nil
}

// pipeline bundles everything a queue-facing command needs.
type pipeline struct {
	cfg      *config.Config
	store    *cpdb.Store
	source   *content.CachingSource
	exporter *exporter.Exporter
}

func (p *pipeline) close() {
	p.source.Stop()
	p.store.Close()
}

// newPipeline loads configuration, opens the database, and wires the
// content source, snapshot builder, push client, and exporter together.
func newPipeline(ctx context.Context) (*pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := dbopen.CPDBStore(ctx)
	if err != nil {
		return nil, err
	}

	source := content.NewCachingSource(
		content.NewHTTPSource(cfg.Source.Endpoint, cfg.Source.APIKey, cfg.Source.Timeout))
	builder := snapshot.NewBuilder(slog.Default(), source, cfg.Entities, cfg.Site, nil)
	client := perzapi.NewClient(cfg.API)
	exp := exporter.New(slog.Default(), store, builder, client, cfg.Site, myInstanceID)

	return &pipeline{
		cfg:      cfg,
		store:    store,
		source:   source,
		exporter: exp,
	}, nil
}
