package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultValues(t *testing.T) {
	// 清除环境变量
	os.Clearenv()

	cfg := Load()
	assert.NotNil(t, cfg)

	// 验证默认值
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "medicalapp", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, "vitals:ingest", cfg.Ingest.Stream)
	assert.Equal(t, "medical-app", cfg.Ingest.ConsumerGroup)
	assert.Equal(t, int64(32), cfg.Ingest.BatchSize)

	assert.Equal(t, int64(42), cfg.Simulator.Seed)
	assert.Equal(t, 0.05, cfg.Simulator.AnomalyRate)
	assert.Equal(t, 5*time.Minute, cfg.Simulator.Interval)

	assert.Equal(t, "models/anomaly_detector.json", cfg.Model.Path)
	assert.Equal(t, 3.0, cfg.Model.ZThreshold)
	assert.Equal(t, 10, cfg.Model.TrainUsers)
	assert.Equal(t, 200, cfg.Model.TrainPerUser)

	// Advisor 默认禁用（无 API key）
	assert.Equal(t, "", cfg.Advisor.APIKey)
	assert.Equal(t, "gemini-pro", cfg.Advisor.Model)
	assert.Equal(t, 30*time.Second, cfg.Advisor.Timeout)

	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "wearables/vitals", cfg.MQTT.Topic)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("DB_ENABLED", "true")
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("REDIS_ADDR", "test-redis:6380")
	os.Setenv("SIMULATOR_SEED", "7")
	os.Setenv("SIMULATOR_ANOMALY_RATE", "0.1")
	os.Setenv("MODEL_Z_THRESHOLD", "2.5")
	os.Setenv("ADVISOR_API_KEY", "test-key")
	os.Setenv("MQTT_ENABLED", "true")
	os.Setenv("LOG_LEVEL", "debug")
	defer os.Clearenv()

	cfg := Load()

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, int64(7), cfg.Simulator.Seed)
	assert.Equal(t, 0.1, cfg.Simulator.AnomalyRate)
	assert.Equal(t, 2.5, cfg.Model.ZThreshold)
	assert.Equal(t, "test-key", cfg.Advisor.APIKey)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidNumbersFallBackToDefaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PORT", "not-a-number")
	os.Setenv("SIMULATOR_ANOMALY_RATE", "lots")
	os.Setenv("SIMULATOR_INTERVAL", "sometimes")
	defer os.Clearenv()

	cfg := Load()

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 0.05, cfg.Simulator.AnomalyRate)
	assert.Equal(t, 5*time.Minute, cfg.Simulator.Interval)
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5433, User: "u", Password: "p",
		Database: "medicalapp", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=medicalapp sslmode=disable", c.GetDSN())
}
