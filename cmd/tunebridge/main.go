// Package main provides the TuneBridge service entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"tunebridge/internal/cookies"
	"tunebridge/internal/core"
	"tunebridge/internal/httpapi"
	"tunebridge/internal/keepalive"
	"tunebridge/internal/search"
	"tunebridge/internal/spotify"
	"tunebridge/internal/store"
	"tunebridge/internal/ytdlp"
	"tunebridge/pkg/resolve"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tunebridge",
	Short: "TuneBridge - music search and direct audio stream resolution API",
	Long: `TuneBridge is a backend service that searches for music, resolves direct
playable audio stream URLs through a chain of upstream providers, and serves
popular/recommendation listings.`,
	RunE: runTuneBridge,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().Int("rate-limit-per-min", 60, "per-IP request limit per minute (0 disables)")
	rootCmd.PersistentFlags().StringSlice("piped-endpoints", nil, "Piped mirror base URLs, in priority order")
	rootCmd.PersistentFlags().String("invidious-endpoint", "", "Invidious instance base URL (fast fallback)")
	rootCmd.PersistentFlags().Duration("provider-timeout", 0, "per-provider request timeout")
	rootCmd.PersistentFlags().Duration("resolve-deadline", 0, "end-to-end resolution deadline (0 = derived)")
	rootCmd.PersistentFlags().String("policy-mode", "itag", "stream policy mode (itag, bitrate)")
	rootCmd.PersistentFlags().IntSlice("primary-itags", nil, "primary-tier itag allow-list")
	rootCmd.PersistentFlags().IntSlice("fallback-itags", nil, "fallback-tier itag allow-list")
	rootCmd.PersistentFlags().Int("bitrate-ceiling", 0, "bitrate ceiling in bits per second")
	rootCmd.PersistentFlags().Bool("keyword-filter", false, "keep only music-looking search results")
	rootCmd.PersistentFlags().Bool("latin-title-filter", false, "require at least one Latin letter in titles")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("keepalive-url", "", "URL pinged periodically to keep the host warm")
	rootCmd.PersistentFlags().Duration("keepalive-interval", 0, "keep-alive ping interval")
	rootCmd.PersistentFlags().String("cookies-source", "", "read-only cookie file to stage at startup")
	rootCmd.PersistentFlags().String("cookies-path", "", "writable cookie file location")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("TUNEBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	if v := viper.GetString("server-host"); v != "" {
		cfg.Server.Host = v
	}
	if v := viper.GetInt("server-port"); v != 0 {
		cfg.Server.Port = v
	}
	cfg.Server.RateLimitPerMin = viper.GetInt("rate-limit-per-min")

	if v := viper.GetStringSlice("piped-endpoints"); len(v) > 0 {
		cfg.Providers.PipedEndpoints = v
	}
	if v := viper.GetString("invidious-endpoint"); v != "" {
		cfg.Providers.InvidiousEndpoint = v
	}
	if v := viper.GetDuration("provider-timeout"); v > 0 {
		cfg.Providers.RequestTimeout = v
	}
	cfg.Providers.ResolveDeadline = viper.GetDuration("resolve-deadline")

	if v := viper.GetString("policy-mode"); v != "" {
		cfg.Policy.Mode = v
	}
	if v := viper.GetIntSlice("primary-itags"); len(v) > 0 {
		cfg.Policy.PrimaryItags = v
	}
	if v := viper.GetIntSlice("fallback-itags"); len(v) > 0 {
		cfg.Policy.FallbackItags = v
	}
	if v := viper.GetInt("bitrate-ceiling"); v > 0 {
		cfg.Policy.BitrateCeiling = v
	}

	cfg.Search.KeywordFilter = viper.GetBool("keyword-filter")
	cfg.Search.LatinTitleFilter = viper.GetBool("latin-title-filter")

	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")

	cfg.KeepAlive.TargetURL = viper.GetString("keepalive-url")
	if v := viper.GetDuration("keepalive-interval"); v > 0 {
		cfg.KeepAlive.Interval = v
	}

	cfg.Cookies.SourcePath = viper.GetString("cookies-source")
	if v := viper.GetString("cookies-path"); v != "" {
		cfg.Cookies.Path = v
	}

	cfg.Log.Level = viper.GetString("log-level")

	return cfg
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runTuneBridge(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting TuneBridge",
		zap.Strings("piped_endpoints", config.Providers.PipedEndpoints),
		zap.String("invidious_endpoint", config.Providers.InvidiousEndpoint),
		zap.String("policy_mode", config.Policy.Mode))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cookiePath, err := cookies.Bootstrap(config.Cookies.SourcePath, config.Cookies.Path, logger.Named("cookies"))
	if err != nil {
		return err
	}

	extractor := ytdlp.NewClient(cookiePath, logger.Named("ytdlp"))

	metrics := httpapi.NewMetrics()

	providers := make([]resolve.Provider, 0, len(config.Providers.PipedEndpoints)+1)
	for _, base := range config.Providers.PipedEndpoints {
		providers = append(providers, resolve.NewPipedProvider(base, config.Providers.RequestTimeout))
	}
	if config.Providers.InvidiousEndpoint != "" {
		providers = append(providers, resolve.NewInvidiousProvider(config.Providers.InvidiousEndpoint, config.Providers.RequestTimeout))
	}

	policy := resolve.Policy{
		Mode:           resolve.Mode(config.Policy.Mode),
		PrimaryItags:   config.Policy.PrimaryItags,
		FallbackItags:  config.Policy.FallbackItags,
		BitrateCeiling: config.Policy.BitrateCeiling,
	}

	chain := resolve.NewChain(providers, extractor, policy, config.Providers.ResolveDeadline, logger.Named("resolve")).
		WithRecorder(metrics)

	var metadata core.MetadataProvider
	if config.Spotify.ClientID != "" && config.Spotify.ClientSecret != "" {
		spotifyClient := spotify.NewClient(&config.Spotify, logger.Named("spotify"))
		if err := spotifyClient.Connect(ctx); err != nil {
			logger.Warn("Spotify metadata disabled", zap.Error(err))
		} else {
			metadata = spotifyClient
		}
	}

	searchService := search.NewService(&config.Search, extractor, metadata, logger.Named("search"))

	cache := store.NewResolvedCache(config.Cache.Size, config.Cache.TTL)

	server := httpapi.NewServer(&config.Server, httpapi.Deps{
		Search:   searchService,
		Resolver: chain,
		Cache:    cache,
	}, metrics, logger.Named("http"))

	pinger := keepalive.NewPinger(config.KeepAlive.TargetURL, config.KeepAlive.Interval, logger.Named("keepalive"))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start(gCtx)
	})

	g.Go(func() error {
		return pinger.Run(gCtx)
	})

	logger.Info("TuneBridge started",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("TuneBridge stopped with error", zap.Error(err))
		return err
	}

	logger.Info("TuneBridge stopped gracefully")
	return nil
}

func validateConfig() error {
	if len(config.Providers.PipedEndpoints) == 0 && config.Providers.InvidiousEndpoint == "" {
		return fmt.Errorf("at least one provider endpoint is required")
	}

	switch config.Policy.Mode {
	case string(resolve.ModeItag), string(resolve.ModeBitrate):
	default:
		return fmt.Errorf("unknown policy mode %q", config.Policy.Mode)
	}

	if config.Policy.Mode == string(resolve.ModeBitrate) && config.Policy.BitrateCeiling <= 0 {
		return fmt.Errorf("bitrate policy requires a positive ceiling")
	}

	return nil
}
