package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env             string
	Port            int
	APIPrefix       string
	ShutdownTimeout time.Duration

	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Upload   UploadConfig
	Columns  ColumnsConfig
	Report   ReportConfig
	Metrics  MetricsConfig
	Analysis AnalysisConfig
	Reports  ReportsConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UploadConfig bounds accepted grade files.
type UploadConfig struct {
	MaxFileSizeBytes int64
}

// ColumnsConfig lists the header keywords recognised for each column role.
type ColumnsConfig struct {
	NameKeywords        []string
	QuizKeywords        []string
	HomeworkKeywords    []string
	CoefficientKeywords []string
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	Title      string
	Filename   string
	ChartTitle string
	ChartColor string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// AnalysisConfig governs caching of computed analyses.
type AnalysisConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	DecimalComma bool
}

// ReportsConfig configures on-disk report storage with signed download links.
type ReportsConfig struct {
	Enabled         bool
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.ShutdownTimeout = parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second)

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_SIZE")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Upload = UploadConfig{MaxFileSizeBytes: maxUpload}

	cfg.Columns = ColumnsConfig{
		NameKeywords:        splitAndTrim(v.GetString("COLUMN_NAME_KEYWORDS")),
		QuizKeywords:        splitAndTrim(v.GetString("COLUMN_QUIZ_KEYWORDS")),
		HomeworkKeywords:    splitAndTrim(v.GetString("COLUMN_HOMEWORK_KEYWORDS")),
		CoefficientKeywords: splitAndTrim(v.GetString("COLUMN_COEFFICIENT_KEYWORDS")),
	}

	cfg.Report = ReportConfig{
		Title:      v.GetString("REPORT_TITLE"),
		Filename:   v.GetString("REPORT_FILENAME"),
		ChartTitle: v.GetString("CHART_TITLE"),
		ChartColor: v.GetString("CHART_COLOR"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	cfg.Analysis = AnalysisConfig{
		CacheEnabled: v.GetBool("ENABLE_ANALYSIS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("ANALYSIS_CACHE_TTL"), 10*time.Minute),
		DecimalComma: v.GetBool("SCORES_DECIMAL_COMMA"),
	}

	cfg.Reports = ReportsConfig{
		Enabled:         v.GetBool("ENABLE_REPORT_STORAGE"),
		StorageDir:      v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 30*time.Minute),
		CleanupInterval: parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), 10*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOAD_MAX_SIZE", 5*1024*1024)

	v.SetDefault("COLUMN_NAME_KEYWORDS", "name,nom")
	v.SetDefault("COLUMN_QUIZ_KEYWORDS", "quiz,interro")
	v.SetDefault("COLUMN_HOMEWORK_KEYWORDS", "homework,devoir")
	v.SetDefault("COLUMN_COEFFICIENT_KEYWORDS", "coefficient,coef")

	v.SetDefault("REPORT_TITLE", "Grade report - Notabilis")
	v.SetDefault("REPORT_FILENAME", "report.pdf")
	v.SetDefault("CHART_TITLE", "Averages chart")
	v.SetDefault("CHART_COLOR", "#87CEEB")

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("ENABLE_ANALYSIS_CACHE", false)
	v.SetDefault("ANALYSIS_CACHE_TTL", "10m")
	v.SetDefault("SCORES_DECIMAL_COMMA", false)

	v.SetDefault("ENABLE_REPORT_STORAGE", false)
	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "30m")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "10m")
}

// Defaults returns the configuration produced by the default values alone.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
