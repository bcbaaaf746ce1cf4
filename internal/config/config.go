package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config 中继服务配置
type Config struct {
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Addr string // WebSocket + REST 监听地址
	}

	Auth struct {
		GracePeriod time.Duration // 未认证连接的宽限时间
		Endpoint    string        // 身份服务地址（Supabase 风格）
		AnonKey     string        // 身份服务 API Key
	}

	Alert struct {
		ThrottleWindow time.Duration // 同一 issue key 的最小报警间隔
		PushEndpoint   string        // 推送网关地址
	}

	Cache struct {
		RealtimeKeyPrefix string        // 实时数据缓存键前缀，如 "plant-monitor:plant:"
		RealtimeTTL       time.Duration // 实时数据缓存 TTL
	}

	MQTT struct {
		Enabled  bool
		Broker   string
		ClientID string
		Username string
		Password string
		Topic    string // 设备上报主题
		QoS      byte
	}

	Log struct {
		Level  string
		Format string
	}
}

// GetDSN 获取数据库连接字符串
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// Load 从环境变量加载配置（带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "plantdb")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Auth.GracePeriod = getEnvDuration("AUTH_GRACE_PERIOD", 5*time.Second)
	cfg.Auth.Endpoint = getEnv("AUTH_ENDPOINT", "")
	cfg.Auth.AnonKey = getEnv("AUTH_ANON_KEY", "")

	cfg.Alert.ThrottleWindow = getEnvDuration("ALERT_THROTTLE_WINDOW", 30*time.Second)
	cfg.Alert.PushEndpoint = getEnv("PUSH_ENDPOINT", "https://exp.host/--/api/v2/push/send")

	cfg.Cache.RealtimeKeyPrefix = getEnv("CACHE_REALTIME_PREFIX", "plant-monitor:plant:")
	cfg.Cache.RealtimeTTL = getEnvDuration("CACHE_REALTIME_TTL", 60*time.Second)

	cfg.MQTT.Enabled = getEnvBool("MQTT_ENABLED", false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "plant-relay")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "plantrelay/ingest")
	cfg.MQTT.QoS = 1

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
