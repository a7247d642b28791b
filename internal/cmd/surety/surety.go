// Package surety parses surety service flags and launches the service.
package surety

import (
	"context"
	"flag"

	entrypoint "github.com/skysurety/skysurety/internal/platform/cmd"
	server "github.com/skysurety/skysurety/internal/services/surety/app"
)

// Config holds surety command configuration.
type Config struct {
	Port int `env:"SKYSURETY_SURETY_PORT" envDefault:"8080"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The surety HTTP server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the surety ledger HTTP service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSurety, func(context.Context) error {
		return server.Run(ctx, cfg.Port)
	})
}
