package config

import (
	"os"
	"strings"
)

type Config struct {
	DBDriver   string // postgres, sqlite or memory
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string // sqlite file

	Port        string
	LogLevel    string
	CORSOrigins []string

	UploadBucket string

	GeminiProject  string
	GeminiLocation string
	GeminiModel    string
}

func LoadConfig() Config {
	return Config{
		DBDriver:   strings.ToLower(envOr("DB_DRIVER", "postgres")),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPath:     envOr("DB_PATH", "tmi_forms.db"),

		Port:        envOr("PORT", "8080"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		CORSOrigins: splitList(envOr("CORS_ORIGINS", "http://localhost:3000")),

		UploadBucket: envOr("UPLOAD_BUCKET", "tmi-form-uploads"),

		GeminiProject:  os.Getenv("GEMINI_PROJECT"),
		GeminiLocation: envOr("GEMINI_LOCATION", "global"),
		GeminiModel:    envOr("GEMINI_MODEL", "gemini-2.5-flash"),
	}
}

func (c Config) PostgresDSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
