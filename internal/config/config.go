package config

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
)

type Config struct {
	DatabaseURL string `name:"database-url" env:"DATABASE_URL" required:"" help:"Postgres URL, or a SQLite file path."`
	JWTSecret   string `name:"jwt-secret" env:"JWT_SECRET" required:"" help:"HMAC secret for access tokens."`
	Port        string `name:"port" env:"PORT" default:"8080" help:"HTTP listen port."`
	CORSOrigin  string `name:"cors-origin" env:"CORS_ORIGIN" help:"Comma separated allowed origins."`
	NATSURL     string `name:"nats-url" env:"NATS_URL" help:"Publish domain events to this NATS server."`
	LogLevel    string `name:"log-level" env:"LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level."`
	LogFile     string `name:"log-file" env:"LOG_FILE" type:"path" help:"Also write logs to this rotated file."`
	Migrations  bool   `name:"migrations" env:"MIGRATIONS" default:"true" negatable:"" help:"Apply database migrations at startup."`
}

// Load parses command line flags, falling back to the environment.
func Load(args []string) (Config, error) {
	var cfg Config
	parser, err := kong.New(&cfg,
		kong.Name("habit-tracker-api"),
		kong.Description("Habit tracking REST API."),
	)
	if err != nil {
		return Config{}, err
	}
	if _, err := parser.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// AllowedOrigins splits CORSOrigin, dropping blanks.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
