// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides Redis connection settings shared by the search
// cache and the background job queue.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// CacheConfig provides settings for the contractor search cache.
type CacheConfig interface {
	RedisConfig
	GetSearchCacheTTL() time.Duration
	IsCacheEnabled() bool
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketJobPhotos() string
	IsMinIOEnabled() bool
}

// PlacesConfig provides settings for the places text-search client that
// discovers contractor candidates.
type PlacesConfig interface {
	GetPlacesBaseURL() string
	GetPlacesAPIKey() string
	GetPlacesRegionCode() string
	GetPlacesMaxQPS() float64
	IsPlacesEnabled() bool
}

// VisionConfig provides settings for the Gemini photo analysis client.
type VisionConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	IsVisionEnabled() bool
}

// AnalysisConfig provides settings for the photo analysis pipeline.
type AnalysisConfig interface {
	GetAnalysisMaxPhotos() int
	GetConfidenceDisplayFloor() int
	GetConfidenceDisplayCeil() int
	IsConfidenceDisplayBandEnabled() bool
}

// RankingConfig provides the contractor ranking thresholds.
type RankingConfig interface {
	GetRankStrictMinRating() float64
	GetRankStrictMinReviews() int
	GetRankRelaxedMinRating() float64
	GetRankRelaxedMinReviews() int
	GetRankMinAcceptable() int
	GetRankTopN() int
}

// EstimatesConfig provides settings for estimate creation and sharing.
type EstimatesConfig interface {
	GetAppBaseURL() string
	GetEstimateShareSecret() string
	GetEstimateShareTTL() time.Duration
	GetEstimateRetention() time.Duration
}

// AnonymizeConfig provides the salt used for contact digests.
type AnonymizeConfig interface {
	GetAnonymizeSalt() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	AppBaseURL             string
	RedisURL               string
	RedisTLSInsecure       bool
	SearchCacheTTL         time.Duration
	AsynqQueueName         string
	AsynqConcurrency       int
	MinIOEndpoint          string
	MinIOAccessKey         string
	MinIOSecretKey         string
	MinIOUseSSL            bool
	MinIOMaxFileSize       int64
	MinioBucketJobPhotos   string
	PlacesBaseURL          string
	PlacesAPIKey           string
	PlacesRegionCode       string
	PlacesMaxQPS           float64
	GeminiAPIKey           string
	GeminiModel            string
	AnalysisMaxPhotos      int
	ConfidenceDisplayFloor int
	ConfidenceDisplayCeil  int
	ConfidenceDisplayBand  bool
	RankStrictMinRating    float64
	RankStrictMinReviews   int
	RankRelaxedMinRating   float64
	RankRelaxedMinReviews  int
	RankMinAcceptable      int
	RankTopN               int
	EstimateShareSecret    string
	EstimateShareTTL       time.Duration
	EstimateRetention      time.Duration
	AnonymizeSalt          string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// CacheConfig implementation
func (c *Config) GetSearchCacheTTL() time.Duration { return c.SearchCacheTTL }
func (c *Config) IsCacheEnabled() bool             { return c.RedisURL != "" }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string        { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string       { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string       { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool            { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64      { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketJobPhotos() string { return c.MinioBucketJobPhotos }
func (c *Config) IsMinIOEnabled() bool            { return c.MinIOEndpoint != "" }

// PlacesConfig implementation
func (c *Config) GetPlacesBaseURL() string    { return c.PlacesBaseURL }
func (c *Config) GetPlacesAPIKey() string     { return c.PlacesAPIKey }
func (c *Config) GetPlacesRegionCode() string { return c.PlacesRegionCode }
func (c *Config) GetPlacesMaxQPS() float64    { return c.PlacesMaxQPS }
func (c *Config) IsPlacesEnabled() bool       { return c.PlacesAPIKey != "" }

// VisionConfig implementation
func (c *Config) GetGeminiAPIKey() string { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string  { return c.GeminiModel }
func (c *Config) IsVisionEnabled() bool   { return c.GeminiAPIKey != "" }

// AnalysisConfig implementation
func (c *Config) GetAnalysisMaxPhotos() int            { return c.AnalysisMaxPhotos }
func (c *Config) GetConfidenceDisplayFloor() int       { return c.ConfidenceDisplayFloor }
func (c *Config) GetConfidenceDisplayCeil() int        { return c.ConfidenceDisplayCeil }
func (c *Config) IsConfidenceDisplayBandEnabled() bool { return c.ConfidenceDisplayBand }

// RankingConfig implementation
func (c *Config) GetRankStrictMinRating() float64  { return c.RankStrictMinRating }
func (c *Config) GetRankStrictMinReviews() int     { return c.RankStrictMinReviews }
func (c *Config) GetRankRelaxedMinRating() float64 { return c.RankRelaxedMinRating }
func (c *Config) GetRankRelaxedMinReviews() int    { return c.RankRelaxedMinReviews }
func (c *Config) GetRankMinAcceptable() int        { return c.RankMinAcceptable }
func (c *Config) GetRankTopN() int                 { return c.RankTopN }

// EstimatesConfig implementation
func (c *Config) GetAppBaseURL() string               { return c.AppBaseURL }
func (c *Config) GetEstimateShareSecret() string      { return c.EstimateShareSecret }
func (c *Config) GetEstimateShareTTL() time.Duration  { return c.EstimateShareTTL }
func (c *Config) GetEstimateRetention() time.Duration { return c.EstimateRetention }

// AnonymizeConfig implementation
func (c *Config) GetAnonymizeSalt() string { return c.AnonymizeSalt }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:             getEnv("APP_BASE_URL", "http://localhost:4200"),
		RedisURL:               getEnv("REDIS_URL", ""),
		RedisTLSInsecure:       strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		SearchCacheTTL:         mustDuration(getEnv("SEARCH_CACHE_TTL", "15m")),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE_NAME", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "5")),
		MinIOEndpoint:          getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:         getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:         getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:            strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:       mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "10485760")),
		MinioBucketJobPhotos:   getEnv("MINIO_BUCKET_JOB_PHOTOS", "job-photos"),
		PlacesBaseURL:          getEnv("PLACES_BASE_URL", "https://places.googleapis.com"),
		PlacesAPIKey:           getEnv("PLACES_API_KEY", ""),
		PlacesRegionCode:       getEnv("PLACES_REGION_CODE", "NL"),
		PlacesMaxQPS:           mustFloat64(getEnv("PLACES_MAX_QPS", "5")),
		GeminiAPIKey:           getEnv("GEMINI_API_KEY", ""),
		GeminiModel:            getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AnalysisMaxPhotos:      mustInt(getEnv("ANALYSIS_MAX_PHOTOS", "6")),
		ConfidenceDisplayFloor: mustInt(getEnv("CONFIDENCE_DISPLAY_FLOOR", "60")),
		ConfidenceDisplayCeil:  mustInt(getEnv("CONFIDENCE_DISPLAY_CEIL", "95")),
		ConfidenceDisplayBand:  strings.EqualFold(getEnv("CONFIDENCE_DISPLAY_BAND_ENABLED", "false"), "true"),
		RankStrictMinRating:    mustFloat64(getEnv("RANK_STRICT_MIN_RATING", "4.0")),
		RankStrictMinReviews:   mustInt(getEnv("RANK_STRICT_MIN_REVIEWS", "5")),
		RankRelaxedMinRating:   mustFloat64(getEnv("RANK_RELAXED_MIN_RATING", "3.5")),
		RankRelaxedMinReviews:  mustInt(getEnv("RANK_RELAXED_MIN_REVIEWS", "3")),
		RankMinAcceptable:      mustInt(getEnv("RANK_MIN_ACCEPTABLE", "3")),
		RankTopN:               mustInt(getEnv("RANK_TOP_N", "5")),
		EstimateShareSecret:    getEnv("ESTIMATE_SHARE_SECRET", ""),
		EstimateShareTTL:       mustDuration(getEnv("ESTIMATE_SHARE_TTL", "720h")),
		EstimateRetention:      mustDuration(getEnv("ESTIMATE_RETENTION", "2160h")),
		AnonymizeSalt:          getEnv("ANONYMIZE_SALT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.EstimateShareSecret == "" {
		return nil, fmt.Errorf("ESTIMATE_SHARE_SECRET is required")
	}
	if cfg.AnonymizeSalt == "" {
		return nil, fmt.Errorf("ANONYMIZE_SALT is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.RankRelaxedMinRating > cfg.RankStrictMinRating {
		return nil, fmt.Errorf("RANK_RELAXED_MIN_RATING must not exceed RANK_STRICT_MIN_RATING")
	}
	if cfg.RankRelaxedMinReviews > cfg.RankStrictMinReviews {
		return nil, fmt.Errorf("RANK_RELAXED_MIN_REVIEWS must not exceed RANK_STRICT_MIN_REVIEWS")
	}
	if cfg.RankTopN <= 0 {
		return nil, fmt.Errorf("RANK_TOP_N must be positive")
	}
	if cfg.RankMinAcceptable < 0 {
		return nil, fmt.Errorf("RANK_MIN_ACCEPTABLE must not be negative")
	}
	if cfg.ConfidenceDisplayBand && cfg.ConfidenceDisplayFloor > cfg.ConfidenceDisplayCeil {
		return nil, fmt.Errorf("CONFIDENCE_DISPLAY_FLOOR must not exceed CONFIDENCE_DISPLAY_CEIL")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat64(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
