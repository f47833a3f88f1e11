package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/CzPhantom10/Chromion-Hackathon/internal/config"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/generator"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/httpapi"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/knowledge"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/observability"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/responder"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/session"
	"github.com/CzPhantom10/Chromion-Hackathon/internal/transcript"
)

type BuildResult struct {
	Config    config.Config
	API       *httpapi.Server
	Sessions  *session.Manager
	Responder *responder.Responder
	Metrics   *observability.Metrics

	// Cleanup should be called on shutdown to release external resources (DB pool, etc).
	Cleanup func() error
}

// Build wires every service component from configuration. The caller owns
// the HTTP server lifecycle and the session janitor.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	kb, err := knowledge.Load()
	if err != nil {
		return nil, fmt.Errorf("knowledge base load failed: %w", err)
	}

	transcripts, err := transcript.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("transcript store init failed: %w", err)
	}

	gen, err := buildGenerator(cfg)
	if err != nil {
		_ = transcripts.Close()
		return nil, fmt.Errorf("generator init failed: %w", err)
	}

	sessions := session.NewManager(cfg.SessionInactivityTimeout)
	sessions.SetExpireHook(func(_ *session.Session) {
		metrics.SessionEvents.WithLabelValues("expired").Inc()
		metrics.ActiveSessions.Set(float64(sessions.ActiveCount()))
	})

	resp := responder.New(kb, gen, cfg.GeneratorTimeout, log)
	api := httpapi.New(cfg, sessions, resp, transcripts, kb, metrics, log)

	cleanup := func() error {
		var errs []string
		if err := transcripts.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:    cfg,
		API:       api,
		Sessions:  sessions,
		Responder: resp,
		Metrics:   metrics,
		Cleanup:   cleanup,
	}, nil
}

// buildGenerator resolves the configured text-generation backend. When an
// OpenAI key and a generic HTTP backend are both configured, the HTTP
// backend serves as a fallback behind the OpenAI one.
func buildGenerator(cfg config.Config) (generator.Generator, error) {
	gcfg := generator.Config{
		Mode:          cfg.GeneratorMode,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIModel:   cfg.OpenAIModel,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		HTTPURL:       cfg.GeneratorHTTPURL,
		Timeout:       cfg.GeneratorTimeout,
	}

	gen, err := generator.New(gcfg)
	if err != nil {
		return nil, err
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.GeneratorMode))
	if mode == "" {
		mode = "auto"
	}
	if (mode == "auto" || mode == "openai") &&
		strings.TrimSpace(cfg.OpenAIAPIKey) != "" &&
		strings.TrimSpace(cfg.GeneratorHTTPURL) != "" {
		gen = generator.NewFallbackGenerator(gen, generator.NewHTTPGenerator(cfg.GeneratorHTTPURL, cfg.GeneratorTimeout))
	}
	return gen, nil
}

// GeneratorLabel names the active backend for startup logging.
func GeneratorLabel(cfg config.Config) string {
	mode := strings.ToLower(strings.TrimSpace(cfg.GeneratorMode))
	if mode == "" {
		mode = "auto"
	}
	if mode != "auto" {
		return mode
	}
	switch {
	case strings.TrimSpace(cfg.OpenAIAPIKey) != "":
		if strings.TrimSpace(cfg.GeneratorHTTPURL) != "" {
			return "openai+http-fallback"
		}
		return "openai"
	case strings.TrimSpace(cfg.GeneratorHTTPURL) != "":
		return "http"
	default:
		return "mock"
	}
}
