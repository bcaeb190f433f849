package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config — полная конфигурация проекта
type Config struct {
	Database DBConfig
	RabbitMQ MQConfig
	Service  ServiceConfig
	JWT      JWTConfig
	Payments PaymentsConfig
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type MQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
}

type ServiceConfig struct {
	Port     int
	LogLevel string
}

type JWTConfig struct {
	Secret        string
	ExpiryMinutes int
}

// PaymentsConfig — параметры расчета комиссий и интеграции с платежным шлюзом
type PaymentsConfig struct {
	OperatorPercent float64 // доля оператора в процентах, остальное — компании
	SuccessCode     string  // код успешного ответа шлюза
	PayoutURL       string  // endpoint шлюза выплат операторам
	PayoutAPIKey    string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

func (c MQConfig) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d%s", c.User, c.Password, c.Host, c.Port, c.VHost)
}

// Load — загрузка из CONFIG_DIR (по умолчанию ./config) + ENV перекрывает
func Load() Config {
	configDir := getEnv("CONFIG_DIR", "./config")
	cfg := Config{}

	dbKV, _ := parseYAML(filepath.Join(configDir, "db.yaml"))
	cfg.Database.Host = getStrWithEnv("DB_HOST", dbKV, "host", "localhost")
	cfg.Database.Port = getIntWithEnv("DB_PORT", dbKV, "port", 5432)
	cfg.Database.User = getStrWithEnv("DB_USER", dbKV, "user", "gruard_user")
	cfg.Database.Password = getStrWithEnv("DB_PASSWORD", dbKV, "password", "gruard_pass")
	cfg.Database.Database = getStrWithEnv("DB_NAME", dbKV, "database", "gruard_db")
	cfg.Database.SSLMode = getStrWithEnv("DB_SSLMODE", dbKV, "sslmode", "disable")

	mqKV, _ := parseYAML(filepath.Join(configDir, "mq.yaml"))
	cfg.RabbitMQ.Host = getStrWithEnv("RABBITMQ_HOST", mqKV, "host", "localhost")
	cfg.RabbitMQ.Port = getIntWithEnv("RABBITMQ_PORT", mqKV, "port", 5672)
	cfg.RabbitMQ.User = getStrWithEnv("RABBITMQ_USER", mqKV, "user", "guest")
	cfg.RabbitMQ.Password = getStrWithEnv("RABBITMQ_PASSWORD", mqKV, "password", "guest")
	cfg.RabbitMQ.VHost = getStrWithEnv("RABBITMQ_VHOST", mqKV, "vhost", "/")

	svcKV, _ := parseYAML(filepath.Join(configDir, "service.yaml"))
	cfg.Service.Port = getIntWithEnv("DISPATCH_SERVICE_PORT", svcKV, "dispatch_service", 3000)
	cfg.Service.LogLevel = getStrWithEnv("LOG_LEVEL", svcKV, "log_level", "INFO")

	jwtKV, _ := parseYAML(filepath.Join(configDir, "jwt.yaml"))
	cfg.JWT.Secret = getStrWithEnv("JWT_SECRET", jwtKV, "secret", "dev_secret")
	cfg.JWT.ExpiryMinutes = getIntWithEnv("JWT_EXPIRY_MINUTES", jwtKV, "expiry_minutes", 60)

	payKV, _ := parseYAML(filepath.Join(configDir, "payments.yaml"))
	cfg.Payments.OperatorPercent = getFloatWithEnv("OPERATOR_PERCENT", payKV, "operator_percent", 70)
	cfg.Payments.SuccessCode = getStrWithEnv("GATEWAY_SUCCESS_CODE", payKV, "success_code", "00")
	cfg.Payments.PayoutURL = getStrWithEnv("PAYOUT_URL", payKV, "payout_url", "")
	cfg.Payments.PayoutAPIKey = getStrWithEnv("PAYOUT_API_KEY", payKV, "payout_api_key", "")

	return cfg
}

// parseYAML — парсит простые YAML файлы без глубокой вложенности
// Формат: key: value (плоский) либо section: \n  key: value
func parseYAML(path string) (map[string]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			// section header, keys are flat enough to ignore nesting
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		if strings.HasPrefix(val, "${") {
			val = expandEnv(val)
		}
		result[key] = val
	}
	return result, sc.Err()
}

// expandEnv — поддержка ${VAR:-default}
func expandEnv(s string) string {
	s = strings.TrimPrefix(s, "${")
	s = strings.TrimSuffix(s, "}")
	parts := strings.SplitN(s, ":-", 2)
	if v := os.Getenv(parts[0]); v != "" {
		return v
	}
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getStrWithEnv(envKey string, kv map[string]string, key, def string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if kv != nil {
		if v, ok := kv[key]; ok && v != "" {
			return v
		}
	}
	return def
}

func getIntWithEnv(envKey string, kv map[string]string, key string, def int) int {
	if v := os.Getenv(envKey); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	if kv != nil {
		if v, ok := kv[key]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
	}
	return def
}

func getFloatWithEnv(envKey string, kv map[string]string, key string, def float64) float64 {
	if v := os.Getenv(envKey); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	if kv != nil {
		if v, ok := kv[key]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return def
}
