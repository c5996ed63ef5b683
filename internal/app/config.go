package app

import (
	"strings"

	"github.com/eitanrom/plada-backend/internal/pkg/envutil"
)

type Config struct {
	Addr           string
	LogMode        string
	StandardsPath  string
	AliasesPath    string
	AllowOrigins   []string
	TracingEnabled bool
}

func LoadConfig() Config {
	cfg := Config{
		Addr:           envutil.String("HTTP_ADDR", ":8080"),
		LogMode:        envutil.String("LOG_MODE", "development"),
		StandardsPath:  envutil.String("STANDARDS_PATH", "configs/standards.yaml"),
		AliasesPath:    envutil.String("ALIASES_PATH", "configs/aliases.yaml"),
		TracingEnabled: envutil.Bool("OTEL_ENABLED", false),
	}
	if origins := envutil.String("CORS_ALLOW_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, o)
			}
		}
	}
	return cfg
}
