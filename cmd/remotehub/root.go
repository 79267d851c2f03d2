package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amishk599/remotehub/internal/adapter"
	"github.com/amishk599/remotehub/internal/config"
	"github.com/amishk599/remotehub/internal/model"
	"github.com/amishk599/remotehub/internal/notifier"
	"github.com/amishk599/remotehub/internal/ratelimit"
	"github.com/amishk599/remotehub/internal/registry"
	"github.com/amishk599/remotehub/internal/resume"
	"github.com/amishk599/remotehub/internal/retry"
)

const configEnvVar = "REMOTEHUB_CONFIG"

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "remotehub",
	Short: "Remote job aggregator",
	Long:  "remotehub pulls postings from remote job boards into one searchable store and serves them over HTTP.",
	// Default to `serve` so that `remotehub` with no args runs the server.
	RunE:         runServe,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: "+configEnvVar+" env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > REMOTEHUB_CONFIG env var > "./config.yaml".
// A missing ./config.yaml yields the defaults; a missing explicit file is an error.
func loadConfig(path string) (*config.Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	explicit := true
	if path == "" {
		if env := os.Getenv(configEnvVar); env != "" {
			path = env
		} else {
			path = "config.yaml"
			explicit = false
		}
	}

	cfg, err := config.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func setupCustomizer(cfg *config.Config, logger *slog.Logger) resume.Customizer {
	llm := cfg.Resume.LLM
	if !llm.Enabled {
		return resume.NewTemplateCustomizer()
	}
	logger.Info("résumé customization via llm", "model", llm.Model, "base_url", llm.BaseURL)
	provider := resume.NewOpenAIProvider(llm.BaseURL, llm.APIKey, llm.Model, &http.Client{Timeout: llm.Timeout})
	return resume.NewLLMCustomizer(provider, resume.RewriteTemplate, logger)
}

type sourceFactory struct {
	name  string
	build func(*http.Client, *slog.Logger) model.JobFetcher
}

// sourceFactories lists every supported board in registration order.
var sourceFactories = []sourceFactory{
	{adapter.WeWorkRemotelyName, func(c *http.Client, l *slog.Logger) model.JobFetcher {
		return adapter.NewWeWorkRemotelyAdapter(c, l)
	}},
	{adapter.RemoteOKName, func(c *http.Client, l *slog.Logger) model.JobFetcher {
		return adapter.NewRemoteOKAdapter(c, l)
	}},
	{adapter.RemotiveName, func(c *http.Client, l *slog.Logger) model.JobFetcher {
		return adapter.NewRemotiveAdapter(c, l)
	}},
	{adapter.JobspressoName, func(c *http.Client, l *slog.Logger) model.JobFetcher {
		return adapter.NewJobspressoAdapter(c, l)
	}},
	{adapter.WorkingNomadsName, func(c *http.Client, l *slog.Logger) model.JobFetcher {
		return adapter.NewWorkingNomadsAdapter(c, l)
	}},
}

func knownSources() []string {
	names := make([]string, len(sourceFactories))
	for i, f := range sourceFactories {
		names[i] = f.name
	}
	return names
}

// buildRegistry registers every enabled board, each wrapped as
// retry(rate-limit(adapter)) so every retry attempt waits for its slot.
func buildRegistry(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (*registry.Registry, error) {
	if err := cfg.CheckSources(knownSources()); err != nil {
		return nil, err
	}

	limiter := ratelimit.NewSourceLimiter(cfg.RateLimit.MinDelayFor)
	policy := retry.Policy{MaxRetries: cfg.Retry.MaxRetries, BaseDelay: cfg.Retry.BaseDelay}

	var sources []*registry.Source
	for _, f := range sourceFactories {
		if !cfg.SourceEnabled(f.name) {
			logger.Info("source disabled", "source", f.name)
			continue
		}

		fetcher := f.build(httpClient, logger)
		fetcher = ratelimit.NewRateLimitedFetcher(fetcher, limiter, f.name)
		fetcher = retry.NewRetryFetcher(fetcher, f.name, policy, logger)

		sources = append(sources, registry.NewSource(f.name, fetcher, logger))
		logger.Debug("registered source", "source", f.name, "min_delay", cfg.RateLimit.MinDelayFor(f.name).String())
	}
	return registry.New(sources...), nil
}
