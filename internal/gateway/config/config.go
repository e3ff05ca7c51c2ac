package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string
	// StylesPath points at a YAML preset file; empty uses the built-in set.
	StylesPath string
	// AppsImportPath is an app catalog dump loaded into the store at startup.
	AppsImportPath string
	// CORSOrigins restricts browser origins; empty allows any.
	CORSOrigins  []string
	Artifact     ArtifactConfig
	LLM          LLMConfig
	Render       RenderConfig
	SessionCache SessionCacheConfig
	OTel         OTelConfig
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

// CanUseS3 reports whether the S3 settings are complete.
func (a ArtifactConfig) CanUseS3() bool {
	return a.Enabled && a.Endpoint != "" && a.AccessKey != "" && a.SecretKey != "" && a.Bucket != ""
}

// LLMConfig selects the model backend. Provider is gemini, compat or fake.
// Rate limits are read by the llm package from LLM_RPS / LLM_BURST.
type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Retries  int
}

type RenderConfig struct {
	CacheTTL     time.Duration
	CacheEntries int
	MaxDepth     int
	MaxNodes     int
}

type SessionCacheConfig struct {
	SessionEntries int
	MessageEntries int
	MessageTTL     time.Duration
}

type OTelConfig struct {
	Endpoint string
	Service  string
}

// Load reads .env, the environment and the process flags.
func Load() (*Config, error) {
	return LoadArgs(flag.CommandLine, os.Args[1:])
}

// LoadArgs is Load with an explicit flag set, for tests.
func LoadArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	_ = godotenv.Load()

	port := fs.String("port", ":8081", "server port")
	dbURL := fs.String("db", "", "database url (postgres://... or sqlite:path)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:           *port,
		Env:            env,
		DatabaseURL:    firstNonEmpty(strings.TrimSpace(*dbURL), strings.TrimSpace(os.Getenv("DATABASE_URL"))),
		StylesPath:     strings.TrimSpace(os.Getenv("UI_STYLES_PATH")),
		AppsImportPath: strings.TrimSpace(os.Getenv("APPS_IMPORT_PATH")),
		CORSOrigins:    splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		Artifact:       loadArtifactConfig(env),
		LLM:            loadLLMConfig(),
		Render: RenderConfig{
			CacheTTL:     envDuration("RENDER_CACHE_TTL", 5*time.Minute),
			CacheEntries: envInt("RENDER_CACHE_ENTRIES", 256),
			MaxDepth:     envInt("RENDER_MAX_DEPTH", 64),
			MaxNodes:     envInt("RENDER_MAX_NODES", 5000),
		},
		SessionCache: SessionCacheConfig{
			SessionEntries: envInt("SESSION_CACHE_ENTRIES", 1024),
			MessageEntries: envInt("MESSAGE_CACHE_ENTRIES", 512),
			MessageTTL:     envDuration("MESSAGE_CACHE_TTL", 2*time.Minute),
		},
		OTel: OTelConfig{
			Endpoint: strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
			Service:  firstNonEmpty(strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME")), "widgetgen"),
		},
	}, nil
}

func loadLLMConfig() LLMConfig {
	apiKey := firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_API_KEY")), strings.TrimSpace(os.Getenv("GEMINI_API_KEY")))
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	if provider == "" {
		provider = "gemini"
		if apiKey == "" {
			provider = "fake"
		}
	}
	return LLMConfig{
		Provider: provider,
		APIKey:   apiKey,
		Model:    strings.TrimSpace(os.Getenv("LLM_MODEL")),
		BaseURL:  strings.TrimSpace(os.Getenv("LLM_BASE_URL")),
		Retries:  envInt("LLM_MAX_RETRIES", 3),
	}
}

func loadArtifactConfig(env string) ArtifactConfig {
	if isLocal(env) {
		return localArtifactConfig()
	}
	endpoint := strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "widgetgen-snapshots"),
		UseSSL:    envBool("ARTIFACT_S3_USE_SSL", true),
		Prefix:    strings.TrimSpace(os.Getenv("ARTIFACT_S3_PREFIX")),
	}
}

func isLocal(env string) bool {
	return strings.EqualFold(strings.TrimSpace(env), "local")
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
