package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/boardkeep/tabletop-league/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                      string
	ServiceName                 string
	ServiceVersion              string
	HTTPAddr                    string
	DBURL                       string
	DBDisablePreparedBinary     bool
	DBBootstrapSeed             bool
	CacheEnabled                bool
	CacheTTL                    time.Duration
	CORSAllowedOrigins          []string
	ReadTimeout                 time.Duration
	WriteTimeout                time.Duration
	RankingWorkers              int
	PprofEnabled                bool
	PprofAddr                   string
	RosterBaseURL               string
	RosterIntrospectPath        string
	RosterTimeout               time.Duration
	RosterCacheTTL              time.Duration
	RosterCacheMaxEntries       int
	RosterCircuitEnabled        bool
	RosterCircuitFailureCount   int
	RosterCircuitOpenTimeout    time.Duration
	RosterCircuitHalfOpenMaxReq int
	UptraceEnabled              bool
	UptraceDSN                  string
	UptraceLogsEnabled          bool
	PyroscopeEnabled            bool
	PyroscopeServerAddress      string
	PyroscopeAppName            string
	PyroscopeAuthToken          string
	PyroscopeBasicAuthUser      string
	PyroscopeBasicAuthPassword  string
	PyroscopeUploadRate         time.Duration
	LogLevel                    logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}

	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	rankingWorkers, err := getEnvAsInt("RANKING_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse RANKING_WORKERS: %w", err)
	}
	if rankingWorkers < 1 {
		return Config{}, fmt.Errorf("RANKING_WORKERS must be >= 1")
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "tabletop-league-api"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                      getEnv("DB_URL", ""),
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RankingWorkers:             rankingWorkers,
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		RosterBaseURL:              getEnv("ROSTER_BASE_URL", "http://localhost:8081"),
		RosterIntrospectPath:       getEnv("ROSTER_INTROSPECT_PATH", "/v1/auth/introspect"),
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	cfg.DBDisablePreparedBinary = dbDisablePreparedBinary

	dbBootstrapSeed, err := strconv.ParseBool(getEnv("DB_BOOTSTRAP_SEED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_BOOTSTRAP_SEED: %w", err)
	}
	cfg.DBBootstrapSeed = dbBootstrapSeed

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}
	cfg.CacheEnabled = cacheEnabled
	cfg.CacheTTL = cacheTTL

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	rosterTimeout, err := time.ParseDuration(getEnv("ROSTER_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ROSTER_TIMEOUT: %w", err)
	}

	rosterCacheTTL, err := time.ParseDuration(getEnv("ROSTER_CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ROSTER_CACHE_TTL: %w", err)
	}
	if rosterCacheTTL <= 0 {
		return Config{}, fmt.Errorf("ROSTER_CACHE_TTL must be > 0")
	}

	rosterCacheMaxEntries, err := getEnvAsInt("ROSTER_CACHE_MAX_ENTRIES", 10_000)
	if err != nil {
		return Config{}, fmt.Errorf("parse ROSTER_CACHE_MAX_ENTRIES: %w", err)
	}
	if rosterCacheMaxEntries < 1 {
		return Config{}, fmt.Errorf("ROSTER_CACHE_MAX_ENTRIES must be >= 1")
	}

	rosterCircuitEnabled, err := strconv.ParseBool(getEnv("ROSTER_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ROSTER_CIRCUIT_ENABLED: %w", err)
	}

	rosterCircuitFailureCount, err := getEnvAsInt("ROSTER_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse ROSTER_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if rosterCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("ROSTER_CIRCUIT_FAILURE_COUNT must be >= 1")
	}

	rosterCircuitOpenTimeout, err := time.ParseDuration(getEnv("ROSTER_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ROSTER_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if rosterCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("ROSTER_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}

	rosterCircuitHalfOpenMaxReq, err := getEnvAsInt("ROSTER_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse ROSTER_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if rosterCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("ROSTER_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	logLevel := parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.RosterTimeout = rosterTimeout
	cfg.RosterCacheTTL = rosterCacheTTL
	cfg.RosterCacheMaxEntries = rosterCacheMaxEntries
	cfg.RosterCircuitEnabled = rosterCircuitEnabled
	cfg.RosterCircuitFailureCount = rosterCircuitFailureCount
	cfg.RosterCircuitOpenTimeout = rosterCircuitOpenTimeout
	cfg.RosterCircuitHalfOpenMaxReq = rosterCircuitHalfOpenMaxReq
	cfg.LogLevel = logLevel

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
