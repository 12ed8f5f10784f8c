package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Media     MediaConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	ParsePerMin    int
	ProcessPerHour int
	ProxyPerMin    int
}

type MediaConfig struct {
	TempDir             string
	FFmpegPath          string
	FFprobePath         string
	TargetWidth         int
	TargetHeight        int
	FetchTimeoutSeconds int
	MaxRedirects        int
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("ratelimit.parse_per_min", "RATELIMIT_PARSE_PER_MIN")
	_ = viper.BindEnv("ratelimit.process_per_hour", "RATELIMIT_PROCESS_PER_HOUR")
	_ = viper.BindEnv("ratelimit.proxy_per_min", "RATELIMIT_PROXY_PER_MIN")
	_ = viper.BindEnv("media.temp_dir", "MEDIA_TEMP_DIR")
	_ = viper.BindEnv("media.ffmpeg_path", "FFMPEG_PATH")
	_ = viper.BindEnv("media.ffprobe_path", "FFPROBE_PATH")
	_ = viper.BindEnv("media.target_width", "MEDIA_TARGET_WIDTH")
	_ = viper.BindEnv("media.target_height", "MEDIA_TARGET_HEIGHT")
	_ = viper.BindEnv("media.fetch_timeout_seconds", "MEDIA_FETCH_TIMEOUT")
	_ = viper.BindEnv("media.max_redirects", "MEDIA_MAX_REDIRECTS")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ratelimit.parse_per_min", 30)
	viper.SetDefault("ratelimit.process_per_hour", 20)
	viper.SetDefault("ratelimit.proxy_per_min", 120)
	viper.SetDefault("media.temp_dir", "")
	viper.SetDefault("media.ffmpeg_path", "ffmpeg")
	viper.SetDefault("media.ffprobe_path", "ffprobe")
	viper.SetDefault("media.target_width", 692)
	viper.SetDefault("media.target_height", 390)
	viper.SetDefault("media.fetch_timeout_seconds", 30)
	viper.SetDefault("media.max_redirects", 10)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			ParsePerMin:    viper.GetInt("ratelimit.parse_per_min"),
			ProcessPerHour: viper.GetInt("ratelimit.process_per_hour"),
			ProxyPerMin:    viper.GetInt("ratelimit.proxy_per_min"),
		},
		Media: MediaConfig{
			TempDir:             viper.GetString("media.temp_dir"),
			FFmpegPath:          viper.GetString("media.ffmpeg_path"),
			FFprobePath:         viper.GetString("media.ffprobe_path"),
			TargetWidth:         viper.GetInt("media.target_width"),
			TargetHeight:        viper.GetInt("media.target_height"),
			FetchTimeoutSeconds: viper.GetInt("media.fetch_timeout_seconds"),
			MaxRedirects:        viper.GetInt("media.max_redirects"),
		},
	}

	if cfg.Media.TempDir == "" {
		cfg.Media.TempDir = defaultTempDir()
	}

	return cfg, nil
}

// defaultTempDir picks the working-media directory. Serverless platforms
// only allow writes under /tmp; everywhere else a project-local tmp dir
// keeps the cache easy to inspect.
func defaultTempDir() string {
	if os.Getenv("VERCEL") != "" {
		return "/tmp"
	}
	wd, err := os.Getwd()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(wd, "tmp")
}
