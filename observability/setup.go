package observability

import (
	"context"
	"errors"

	"github.com/kbukum/pipehttp/logger"
)

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(context.Context) error

// Setup applies defaults, validates cfg and installs both providers.
// A disabled config returns a no-op shutdown.
func Setup(ctx context.Context, cfg Config, log *logger.Logger) (ShutdownFunc, error) {
	if log == nil {
		log = logger.Nop()
	}
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = log.WithComponent("observability")

	tp, err := InitTracer(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	mp, err := InitMeter(ctx, cfg, log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
