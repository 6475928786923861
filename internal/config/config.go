package config

import (
	"time"

	"github.com/spf13/viper"
)

type AppConf struct {
	Env            string `mapstructure:"env"`
	Port           int    `mapstructure:"port"`
	ShutdownSecond int    `mapstructure:"shutdown_seconds"`
}

type MongoConf struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type S3Conf struct {
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket"`
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
	PresignTTL     int    `mapstructure:"presign_ttl_seconds"`
	ConnectTimeout int    `mapstructure:"connect_timeout_seconds"`
	RequestTimeout int    `mapstructure:"request_timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
}

type UploadConf struct {
	StagingRoot string `mapstructure:"staging_root"`
	Prefix      string `mapstructure:"prefix"`
	CoverPrefix string `mapstructure:"cover_prefix"`
	PartSizeMB  int    `mapstructure:"part_size_mb"`
}

type GCConf struct {
	IntervalMinutes  int `mapstructure:"interval_minutes"`
	MaxAgeMinutes    int `mapstructure:"max_age_minutes"`
	StartDelaySecond int `mapstructure:"start_delay_seconds"`
}

type RedisConf struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConf struct {
	PublicKeyPath string `mapstructure:"public_key_path"`
}

type FFmpegConf struct {
	Path string `mapstructure:"path"`
}

type Config struct {
	App    AppConf    `mapstructure:"app"`
	Mongo  MongoConf  `mapstructure:"mongodb"`
	S3     S3Conf     `mapstructure:"s3"`
	Upload UploadConf `mapstructure:"upload"`
	GC     GCConf     `mapstructure:"gc"`
	Redis  RedisConf  `mapstructure:"redis"`
	JWT    JWTConf    `mapstructure:"jwt"`
	FFmpeg FFmpegConf `mapstructure:"ffmpeg"`
	Log    struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	// derived
	ShutdownTimeout time.Duration
	PresignTTL      time.Duration
	GCInterval      time.Duration
	GCMaxAge        time.Duration
	GCStartDelay    time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.App.ShutdownSecond == 0 {
		cfg.App.ShutdownSecond = 15
	}
	if cfg.S3.PresignTTL == 0 {
		cfg.S3.PresignTTL = 600
	}
	if cfg.Upload.StagingRoot == "" {
		cfg.Upload.StagingRoot = "chunks"
	}
	if cfg.Upload.Prefix == "" {
		cfg.Upload.Prefix = "videos/"
	}
	if cfg.Upload.CoverPrefix == "" {
		cfg.Upload.CoverPrefix = "videos/covers/"
	}
	if cfg.Upload.PartSizeMB == 0 {
		cfg.Upload.PartSizeMB = 8
	}
	if cfg.GC.IntervalMinutes == 0 {
		cfg.GC.IntervalMinutes = 120
	}
	if cfg.GC.MaxAgeMinutes == 0 {
		cfg.GC.MaxAgeMinutes = 120
	}
	if cfg.GC.StartDelaySecond == 0 {
		cfg.GC.StartDelaySecond = 5
	}
	cfg.ShutdownTimeout = time.Duration(cfg.App.ShutdownSecond) * time.Second
	cfg.PresignTTL = time.Duration(cfg.S3.PresignTTL) * time.Second
	cfg.GCInterval = time.Duration(cfg.GC.IntervalMinutes) * time.Minute
	cfg.GCMaxAge = time.Duration(cfg.GC.MaxAgeMinutes) * time.Minute
	cfg.GCStartDelay = time.Duration(cfg.GC.StartDelaySecond) * time.Second
	return &cfg, nil
}
