package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务全部可调参数，yaml 文件加载后再被环境变量覆盖
type Config struct {
	Port         int           `yaml:"port"`
	MaxFileSize  int64         `yaml:"max_file_size"`
	MaxDimension int           `yaml:"max_dimension"`
	TracerBinary string        `yaml:"tracer_binary"`
	OracleBinary string        `yaml:"oracle_binary"`
	TraceTimeout time.Duration `yaml:"trace_timeout"`
	TraceWorkers int           `yaml:"trace_workers"`
	LogFile      string        `yaml:"log_file"`
	DevMode      bool          `yaml:"dev_mode"`
}

func defaultConfig() Config {
	return Config{
		Port:         8000,
		MaxFileSize:  10 * 1024 * 1024,
		MaxDimension: 1500,
		TracerBinary: "potrace",
		OracleBinary: "rembg",
		TraceTimeout: 30 * time.Second,
		TraceWorkers: 4,
		LogFile:      "drawvec.log",
	}
}

// loadConfig 配置文件可缺省；PORT / MAX_FILE_SIZE / DEV_MODE 环境变量优先
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = p
	}
	if v := os.Getenv("MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid MAX_FILE_SIZE %q: %w", v, err)
		}
		cfg.MaxFileSize = n
	}
	if os.Getenv("DEV_MODE") == "true" {
		cfg.DevMode = true
	}

	return cfg, nil
}
