package main

import (
	"log/slog"

	"enrichd/internal/aristote"
	"enrichd/internal/config"
	"enrichd/internal/ledger"
	"enrichd/internal/logging"
	"enrichd/internal/mediaserver"
	"enrichd/internal/reconcile"
)

// commandContext lazily shares configuration and wiring between commands.
type commandContext struct {
	configFlag *string

	cfg       *config.Config
	cfgPath   string
	cfgExists bool
	logger    *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPathFlag() string {
	if c.configFlag == nil {
		return ""
	}
	return *c.configFlag
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, exists, err := config.Load(c.configPathFlag())
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.cfgPath = path
	c.cfgExists = exists
	return cfg, nil
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	c.logger = logger
	return logger, nil
}

// runtime bundles the wired application services for one command invocation.
type runtime struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *ledger.Store
	aristote   *aristote.Client
	media      *mediaserver.Client
	resolver   *mediaserver.Resolver
	reconciler *reconcile.Reconciler
}

// buildRuntime wires the full service graph. The returned cleanup closes the
// ledger.
func (c *commandContext) buildRuntime() (*runtime, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = store.Close() }

	aristoteClient, err := aristote.New(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	mediaClient, err := mediaserver.New(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	resolver, err := mediaserver.NewResolver(mediaClient, cfg.Workflow.ResourceOrder)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	reconciler := reconcile.New(store, aristoteClient, mediaClient, cfg.StuckAfter(), logger)

	return &runtime{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		aristote:   aristoteClient,
		media:      mediaClient,
		resolver:   resolver,
		reconciler: reconciler,
	}, cleanup, nil
}
