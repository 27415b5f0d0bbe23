package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"seo-assistant/cmd/internal/auth"
	"seo-assistant/cmd/internal/httpclient"
	"seo-assistant/cmd/internal/logger"
	"seo-assistant/cmd/seochat/clients/seoclient"
	"seo-assistant/cmd/seochat/controller"
	"seo-assistant/cmd/seochat/ui"
	"seo-assistant/config"
)

var (
	configPath string
	apiURL     string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "seochat",
	Short: "Chat with the SEO assistant",
	Long: `seochat is a terminal client for the SEO content assistant.

Run without arguments to open the interactive chat. Sessions, prompts and
suggestions live on the backend configured by api.base_url.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer app.Close()
		return ui.Run(cmd.Context(), app.ctrl, app.notifier)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: searched upward from the working directory)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "override api.base_url")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")

	rootCmd.AddCommand(sessionsCmd, askCmd, renameCmd, deleteCmd)
}

// app wires config, logging, tokens, the API client and the controller.
type app struct {
	cfg      config.AppConfig
	client   *seoclient.Client
	ctrl     *controller.Controller
	notifier *ui.Notifier
	logFile  *os.File
}

func newApp(ctx context.Context, interactive bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, notifier: &ui.Notifier{}}
	logPath := cfg.Logging.File
	if logPath == "" && interactive {
		logPath = config.Default().Logging.File
	}
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		logger.Init(cfg.Logging.Level, f)
	} else {
		logger.Init(cfg.Logging.Level, os.Stderr)
	}

	tokens, err := auth.NewTokenSource(ctx, cfg.Auth)
	if err != nil {
		a.Close()
		return nil, err
	}
	httpClient := httpclient.New(httpclient.Config{Timeout: cfg.API.Timeout})
	a.client = seoclient.NewWithHTTPClient(httpClient, cfg.API.BaseURL, tokens)

	opts := controller.Options{
		PollInterval:  cfg.Polling.Interval,
		MaxPollErrors: cfg.Polling.MaxErrors,
	}
	if interactive {
		opts.Notify = a.notifier.Notify
	}
	a.ctrl = controller.New(a.client, opts)

	logger.InfoWithFields("seochat started", logger.Fields{
		"api_url":   cfg.API.BaseURL,
		"auth_mode": cfg.Auth.Mode,
	})
	return a, nil
}

func (a *app) Close() {
	if a.ctrl != nil {
		a.ctrl.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func loadConfig() (config.AppConfig, error) {
	var cfg config.AppConfig
	if configPath != "" {
		c, err := config.Load(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *c
	} else {
		cfg = config.GetConfig()
	}

	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	config.Set(cfg)
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
