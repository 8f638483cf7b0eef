package audioio

import (
	"errors"
	"fmt"
	"log/slog"
)

// NewSource creates an audio source for cfg.
// BackendAuto falls back to the mock backend when no device context can be created.
func NewSource(cfg Config, logger *slog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "audioio.source")

	switch cfg.Backend {
	case BackendMock:
		return NewMockSource(cfg, logger), nil
	case BackendMalgo:
		return newMalgoSource(cfg, logger)
	case BackendAuto, "":
		src, err := newMalgoSource(cfg, logger)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, ErrDeviceUnavailable) {
			return nil, err
		}
		logger.Warn("no audio device context, using mock source", "error", err)
		return NewMockSource(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

// NewSink creates an audio sink for cfg.
// BackendAuto falls back to the mock backend when no device context can be created.
func NewSink(cfg Config, logger *slog.Logger) (Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "audioio.sink")

	switch cfg.Backend {
	case BackendMock:
		return NewMockSink(cfg, logger), nil
	case BackendMalgo:
		return newMalgoSink(cfg, logger)
	case BackendAuto, "":
		sink, err := newMalgoSink(cfg, logger)
		if err == nil {
			return sink, nil
		}
		if !errors.Is(err, ErrDeviceUnavailable) {
			return nil, err
		}
		logger.Warn("no audio device context, using mock sink", "error", err)
		return NewMockSink(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

// AvailableBackends lists the selectable backends.
func AvailableBackends() []Backend {
	return []Backend{BackendAuto, BackendMalgo, BackendMock}
}
