package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config medical-app（HTTP API + 采集管道）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  DatabaseConfig
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Ingest    IngestConfig    `yaml:"ingest"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Model     ModelConfig     `yaml:"model"`
	Advisor   AdvisorConfig   `yaml:"advisor"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// DatabaseConfig PostgreSQL 配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// IngestConfig 采集管道配置（Redis Streams）
type IngestConfig struct {
	Stream        string `yaml:"stream"`         // 输入 Stream 名
	ConsumerGroup string `yaml:"consumer_group"` // 消费者组
	ConsumerName  string `yaml:"consumer_name"`  // 消费者名
	BatchSize     int64  `yaml:"batch_size"`     // 每次读取条数
}

// SimulatorConfig 数据模拟器配置
type SimulatorConfig struct {
	Seed        int64         `yaml:"seed"`
	AnomalyRate float64       `yaml:"anomaly_rate"`
	Interval    time.Duration `yaml:"interval"`
}

// ModelConfig 检测模型配置
type ModelConfig struct {
	Path           string  `yaml:"path"`            // 模型文件路径
	ZThreshold     float64 `yaml:"z_threshold"`     // 判异阈值
	TrainUsers     int     `yaml:"train_users"`     // 引导训练用户数
	TrainPerUser   int     `yaml:"train_per_user"`  // 每用户训练记录数
}

// AdvisorConfig 生成式 AI 建议服务配置
// APIKey 为空时禁用，全部走规则引擎
type AdvisorConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// MQTTConfig MQTT 配置（用于接入实时可穿戴设备，默认禁用）
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`    // 如 "tcp://localhost:1883"
	ClientID string `yaml:"client_id"` // 客户端 ID
	Username string `yaml:"username"`  // 用户名（可选）
	Password string `yaml:"password"`  // 密码（可选）
	Topic    string `yaml:"topic"`     // 订阅主题
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// 本地开发默认禁用 DB：不可用时回退内存 repo，保证 `go run` 即可联调
	cfg.DBEnabled = getEnv("DB_ENABLED", "false") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "medicalapp")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Ingest.Stream = getEnv("INGEST_STREAM", "vitals:ingest")
	cfg.Ingest.ConsumerGroup = getEnv("INGEST_CONSUMER_GROUP", "medical-app")
	cfg.Ingest.ConsumerName = getEnv("INGEST_CONSUMER_NAME", "medical-app-1")
	cfg.Ingest.BatchSize = int64(parseInt(getEnv("INGEST_BATCH_SIZE", "32"), 32))

	cfg.Simulator.Seed = int64(parseInt(getEnv("SIMULATOR_SEED", "42"), 42))
	cfg.Simulator.AnomalyRate = parseFloat(getEnv("SIMULATOR_ANOMALY_RATE", "0.05"), 0.05)
	cfg.Simulator.Interval = parseDuration(getEnv("SIMULATOR_INTERVAL", "5m"), 5*time.Minute)

	cfg.Model.Path = getEnv("MODEL_PATH", "models/anomaly_detector.json")
	cfg.Model.ZThreshold = parseFloat(getEnv("MODEL_Z_THRESHOLD", "3.0"), 3.0)
	cfg.Model.TrainUsers = parseInt(getEnv("MODEL_TRAIN_USERS", "10"), 10)
	cfg.Model.TrainPerUser = parseInt(getEnv("MODEL_TRAIN_PER_USER", "200"), 200)

	// Advisor 配置（API key 为空时禁用）
	cfg.Advisor.BaseURL = getEnv("ADVISOR_BASE_URL", "https://generativelanguage.googleapis.com")
	cfg.Advisor.APIKey = getEnv("ADVISOR_API_KEY", "")
	cfg.Advisor.Model = getEnv("ADVISOR_MODEL", "gemini-pro")
	cfg.Advisor.Timeout = parseDuration(getEnv("ADVISOR_TIMEOUT", "30s"), 30*time.Second)

	// MQTT 配置（实时设备接入，默认禁用）
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "medical-app-ingest")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "wearables/vitals")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
