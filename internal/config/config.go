package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DB struct {
		DSN      string `yaml:"dsn"`
		MaxConns int32  `yaml:"max_conns"`
	} `yaml:"db"`
	State struct {
		Path string `yaml:"path"`
	} `yaml:"state"`
	Orders struct {
		DeliveryFee int64 `yaml:"delivery_fee"`
	} `yaml:"orders"`
	Serviceability struct {
		// FailOpen accepts a pincode when the lookup errors instead of
		// blocking entry on an infrastructure failure.
		FailOpen bool `yaml:"fail_open"`
	} `yaml:"serviceability"`
	Auth struct {
		ProviderURL   string `yaml:"provider_url"`
		APIKey        string `yaml:"api_key"`
		DevMode       bool   `yaml:"dev_mode"`
		DailyOTPLimit int    `yaml:"daily_otp_limit"`
	} `yaml:"auth"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
		GroupID string   `yaml:"group_id"`
	} `yaml:"kafka"`
	Worker struct {
		NotifierURL string `yaml:"notifier_url"`
	} `yaml:"worker"`
	Uploads struct {
		Primary    string `yaml:"primary"` // "cloudinary" or "blobstore"
		Cloudinary struct {
			BaseURL      string `yaml:"base_url"`
			UploadPreset string `yaml:"upload_preset"`
			Folder       string `yaml:"folder"`
		} `yaml:"cloudinary"`
		Blob struct {
			BaseURL string `yaml:"base_url"`
			Token   string `yaml:"token"`
		} `yaml:"blob"`
	} `yaml:"uploads"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.Server.Addr == "" {
		return nil, errors.New("server.addr is required")
	}
	if cfg.DB.DSN == "" {
		return nil, errors.New("db.dsn is required")
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Orders.DeliveryFee == 0 {
		cfg.Orders.DeliveryFee = 40
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "order.events"
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "quickbasket-worker"
	}
	if cfg.Uploads.Primary == "" {
		cfg.Uploads.Primary = "blobstore"
	}
	if cfg.State.Path == "" {
		cfg.State.Path = "data/state.json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		cfg.DB.MaxConns = int32(atoiOr(int(cfg.DB.MaxConns), v))
	}
	if v := os.Getenv("STATE_PATH"); v != "" {
		cfg.State.Path = v
	}
	if v := os.Getenv("DELIVERY_FEE"); v != "" {
		cfg.Orders.DeliveryFee = atoi64Or(cfg.Orders.DeliveryFee, v)
	}
	if v := os.Getenv("SERVICEABILITY_FAIL_OPEN"); v != "" {
		cfg.Serviceability.FailOpen = boolOr(cfg.Serviceability.FailOpen, v)
	}
	if v := os.Getenv("AUTH_PROVIDER_URL"); v != "" {
		cfg.Auth.ProviderURL = v
	}
	if v := os.Getenv("AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("AUTH_DEV_MODE"); v != "" {
		cfg.Auth.DevMode = boolOr(cfg.Auth.DevMode, v)
	}
	if v := os.Getenv("DAILY_OTP_LIMIT"); v != "" {
		cfg.Auth.DailyOTPLimit = atoiOr(cfg.Auth.DailyOTPLimit, v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitCommaList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	if v := os.Getenv("NOTIFIER_URL"); v != "" {
		cfg.Worker.NotifierURL = v
	}
	if v := os.Getenv("UPLOADS_PRIMARY"); v != "" {
		cfg.Uploads.Primary = v
	}
	if v := os.Getenv("CLOUDINARY_BASE_URL"); v != "" {
		cfg.Uploads.Cloudinary.BaseURL = v
	}
	if v := os.Getenv("CLOUDINARY_UPLOAD_PRESET"); v != "" {
		cfg.Uploads.Cloudinary.UploadPreset = v
	}
	if v := os.Getenv("BLOB_BASE_URL"); v != "" {
		cfg.Uploads.Blob.BaseURL = v
	}
	if v := os.Getenv("BLOB_TOKEN"); v != "" {
		cfg.Uploads.Blob.Token = v
	}
}

func splitCommaList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func atoiOr(fallback int, v string) int {
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func atoi64Or(fallback int64, v string) int64 {
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func boolOr(fallback bool, v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
