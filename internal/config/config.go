package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DeviceName    string
	Transport     string // ble | tcp | sim
	TCPPort       string
	TCPMTU        int
	MetricsPort   string
	GRPCPort      string
	RedisAddr     string // vacío = store en memoria
	RedisDB       int
	NATSURL       string // vacío = sin espejo
	FrameStrategy string // best_effort | strict
	LogLevel      string
	JournalDir    string // vacío = sin journal

	CycleInterval  time.Duration
	SensorInterval time.Duration
	GPSInterval    time.Duration
	StatusInterval time.Duration
	TiltThreshold  float64
	WifiConnected  bool
}

func Load() Config {
	return Config{
		DeviceName:    getEnv("DEVICE_NAME", "Sentry"),
		Transport:     strings.ToLower(getEnv("TRANSPORT", "sim")),
		TCPPort:       getEnv("TCP_PORT", "8001"),
		TCPMTU:        getEnvAsInt("TCP_MTU", 512),
		MetricsPort:   getEnv("METRICS_PORT", "9000"),
		GRPCPort:      getEnv("GRPC_PORT", "50051"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		NATSURL:       getEnv("NATS_URL", ""),
		FrameStrategy: getEnv("FRAME_STRATEGY", "best_effort"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		JournalDir:    getEnv("JOURNAL_DIR", ""),

		CycleInterval:  getEnvAsDuration("CYCLE_INTERVAL", 50*time.Millisecond),
		SensorInterval: getEnvAsDuration("SENSOR_INTERVAL", 100*time.Millisecond),
		GPSInterval:    getEnvAsDuration("GPS_INTERVAL", time.Second),
		StatusInterval: getEnvAsDuration("STATUS_INTERVAL", 5*time.Second),
		TiltThreshold:  getEnvAsFloat("TILT_THRESHOLD", 180),
		WifiConnected:  getEnvAsBool("WIFI_CONNECTED", false),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
