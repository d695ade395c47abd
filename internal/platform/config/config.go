package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JudgeAPIURL          string
	JudgeTimeout         time.Duration
	JudgeMaxAttempts     int
	JudgeWorkerCount     int
	JudgeQueueName       string
	DefaultTimeLimitMs   int
	DefaultMemoryLimitKb int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:       getEnv("API_PORT", "8080"),
		JWTKey:        []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:        time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "user"),
		DBPassword:    getEnv("DB_PASSWORD", "password"),
		DBName:        getEnv("DB_NAME", "praktikum_db"),
		DBSslMode:     getEnv("DB_SSLMODE", "disable"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// The judge base URL has no default on purpose: a missing value must
		// fail startup, never turn into an empty-string URL at request time.
		JudgeAPIURL:      os.Getenv("JUDGE_API_URL"),
		JudgeTimeout:     time.Duration(getEnvAsInt("JUDGE_TIMEOUT_SECONDS", 30)) * time.Second,
		JudgeMaxAttempts: getEnvAsInt("JUDGE_MAX_ATTEMPTS", 3),
		JudgeWorkerCount: getEnvAsInt("JUDGE_WORKER_COUNT", 2),
		JudgeQueueName:   getEnv("JUDGE_QUEUE_NAME", "judge_jobs_queue"),

		DefaultTimeLimitMs:   getEnvAsInt("DEFAULT_TIME_LIMIT_MS", 10000),
		DefaultMemoryLimitKb: getEnvAsInt("DEFAULT_MEMORY_LIMIT_KB", 655360),
	}

	if AppConfig.JudgeAPIURL == "" {
		log.Fatal("JUDGE_API_URL is not set; refusing to start without a judge endpoint")
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
