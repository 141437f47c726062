package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/mediaoffload/internal/common"
	"github.com/dmitrijs2005/mediaoffload/internal/config"
	"github.com/dmitrijs2005/mediaoffload/internal/cryptox"
	"github.com/dmitrijs2005/mediaoffload/internal/filex"
	"github.com/dmitrijs2005/mediaoffload/internal/logging"
	"github.com/dmitrijs2005/mediaoffload/internal/objectstore"
	"github.com/dmitrijs2005/mediaoffload/internal/offload"
	"github.com/dmitrijs2005/mediaoffload/internal/paths"
	"github.com/dmitrijs2005/mediaoffload/internal/rewrite"
	"github.com/dmitrijs2005/mediaoffload/internal/settings"
	"github.com/dmitrijs2005/mediaoffload/internal/storage"
	"github.com/dmitrijs2005/mediaoffload/internal/syncer"
)

// newObjectStore is a test seam around the S3 constructor.
var newObjectStore = func(ctx context.Context, o objectstore.S3Options) (objectstore.Store, error) {
	st, err := objectstore.NewS3Store(ctx, o)
	if err != nil {
		return nil, err
	}
	return st, nil
}

type App struct {
	cfg      *config.Config
	offload  config.Offload
	logger   logging.Logger
	keys     *cryptox.Store
	repos    *storage.Repositories
	settings *settings.Service
	syncer   *syncer.Syncer
	metrics  *syncer.Metrics
	registry *prometheus.Registry
	service  *offload.Service
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp performs startup in order: logger, credential bootstrap, database,
// settings resolution, object store and finally the offload service. Any
// failure aborts startup.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out, logOut io.Writer) (*App, error) {
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, logOut)
	if err != nil {
		return nil, err
	}

	keys := cryptox.NewStore(cfg.KeyFile)
	if err := keys.Bootstrap(); err != nil {
		return nil, fmt.Errorf("bootstrap credentials: %w", err)
	}

	repos, err := storage.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	app := &App{
		cfg:      cfg,
		logger:   logger,
		keys:     keys,
		repos:    repos,
		settings: settings.NewService(repos.DB, repos.Settings, keys, logger),
		registry: prometheus.NewRegistry(),
		reader:   bufio.NewReader(in),
		out:      out,
	}

	if err := app.wire(ctx); err != nil {
		_ = repos.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	env, err := config.ReadEnv(a.cfg.EnvFile, common.SettingKeys)
	if err != nil {
		return fmt.Errorf("read env file: %w", err)
	}

	off, err := a.settings.Resolve(ctx, a.cfg, env)
	if err != nil {
		return err
	}
	a.offload = off

	translator := paths.NewTranslator(off.LocalBaseDir, off.RemoteBaseURL)
	a.metrics = syncer.NewMetrics(a.registry)

	opts := []syncer.Option{
		syncer.WithLogger(a.logger),
		syncer.WithMetrics(a.metrics),
		syncer.WithConcurrency(a.cfg.Concurrency),
	}

	if off.Configured() {
		store, err := newObjectStore(ctx, objectstore.S3Options{
			Region:       off.Region,
			AccessKey:    off.AccessKey,
			SecretKey:    off.SecretKey,
			Bucket:       off.Bucket,
			BaseEndpoint: a.cfg.S3BaseEndpoint,
			Timeout:      a.cfg.RequestTimeout,
		})
		if err != nil {
			return fmt.Errorf("object store: %w", err)
		}
		opts = append(opts, syncer.WithStore(store))
		a.logger.Info(ctx, "object store ready", "bucket", off.Bucket, "region", off.Region, "remote_base_url", off.RemoteBaseURL)
	} else {
		a.logger.Warn(ctx, "object store not configured, running local-only")
	}

	a.syncer = syncer.New(translator, filex.NewReclaimer(off.LocalBaseDir), opts...)
	a.service = offload.NewService(
		off,
		a.repos.Media,
		a.syncer,
		translator,
		rewrite.NewSubstringRewriter(off.LocalBaseURL, off.RemoteBaseURL),
		a.logger,
	)
	return nil
}

// Run starts the console and blocks until exit or end of input.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Media offloader console (type 'help' for commands)")
	runREPL(ctx, a, a.reader, a.out)
}

func (a *App) Close() error {
	return a.repos.Close()
}
