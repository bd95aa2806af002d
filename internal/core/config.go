package core

import (
	"time"
)

type Config struct {
	Server    ServerConfig
	Providers ProvidersConfig
	Policy    PolicyConfig
	Search    SearchConfig
	Spotify   SpotifyConfig
	Cache     CacheConfig
	KeepAlive KeepAliveConfig
	Cookies   CookiesConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RateLimitPerMin int
}

type ProvidersConfig struct {
	// PipedEndpoints are mirror base URLs tried first, in order.
	PipedEndpoints []string
	// InvidiousEndpoint is the fast-fallback API base URL, tried after the mirrors.
	InvidiousEndpoint string
	RequestTimeout    time.Duration
	// ResolveDeadline bounds one whole resolution across all providers.
	// Zero means (len(providers)+1) * RequestTimeout.
	ResolveDeadline time.Duration
}

type PolicyConfig struct {
	// Mode selects the acceptability policy: "itag" (allow-list tiers) or
	// "bitrate" (legacy numeric ceiling).
	Mode          string
	PrimaryItags  []int
	FallbackItags []int
	// BitrateCeiling is in bits per second.
	BitrateCeiling int
}

type SearchConfig struct {
	Limit            int
	PopularLimit     int
	RecommendLimit   int
	MusicKeywords    []string
	KeywordFilter    bool
	LatinTitleFilter bool
	TrendingQueries  []string
	SeedQueries      []string
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
}

type CacheConfig struct {
	Size int
	TTL  time.Duration
}

type KeepAliveConfig struct {
	TargetURL string
	Interval  time.Duration
}

type CookiesConfig struct {
	// SourcePath is the read-only mount the cookie file is copied from.
	SourcePath string
	// Path is the writable copy handed to the extractor.
	Path string
}

type LogConfig struct {
	Level string
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			RateLimitPerMin: 60,
		},
		Providers: ProvidersConfig{
			PipedEndpoints: []string{
				"https://pipedapi.kavin.rocks",
				"https://pipedapi.adminforge.de",
			},
			InvidiousEndpoint: "https://inv.nadeko.net",
			RequestTimeout:    4 * time.Second,
		},
		Policy: PolicyConfig{
			Mode:           "itag",
			PrimaryItags:   []int{249, 250},
			FallbackItags:  []int{251},
			BitrateCeiling: 128_000,
		},
		Search: SearchConfig{
			Limit:          10,
			PopularLimit:   15,
			RecommendLimit: 12,
			MusicKeywords: []string{
				"song", "music", "audio", "lyric", "lyrics", "official",
				"album", "cover", "remix", "live", "mv",
			},
			TrendingQueries: []string{
				"Top hits 2025", "Trending songs", "Billboard Hot 100",
			},
			SeedQueries: []string{
				"Relaxing music", "Workout songs", "Romantic songs",
				"Lo-fi beats", "Acoustic covers", "Hip hop hits",
			},
		},
		Cache: CacheConfig{
			Size: 2048,
			TTL:  30 * time.Minute,
		},
		KeepAlive: KeepAliveConfig{
			Interval: 14 * time.Minute,
		},
		Cookies: CookiesConfig{
			Path: "./cookies.txt",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
