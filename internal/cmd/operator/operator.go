// Package operator parses oracle operator flags and launches the fleet.
package operator

import (
	"context"
	"flag"

	entrypoint "github.com/skysurety/skysurety/internal/platform/cmd"
	oracleoperator "github.com/skysurety/skysurety/internal/services/operator"
)

// Config holds operator command configuration.
type Config struct {
	SuretyURL   string `env:"SKYSURETY_OPERATOR_SURETY_URL" envDefault:"http://localhost:8080"`
	Secret      string `env:"SKYSURETY_SURETY_JWT_SECRET"   envDefault:"dev-secret"`
	OracleCount int    `env:"SKYSURETY_OPERATOR_ORACLES"    envDefault:"20"`
	IDPrefix    string `env:"SKYSURETY_OPERATOR_ID_PREFIX"  envDefault:"oracle"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.SuretyURL, "surety-url", cfg.SuretyURL, "The surety server base URL")
	fs.IntVar(&cfg.OracleCount, "oracles", cfg.OracleCount, "How many oracle identities to run")
	fs.StringVar(&cfg.IDPrefix, "id-prefix", cfg.IDPrefix, "Prefix for oracle identities")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the oracle operator fleet.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceOperator, func(context.Context) error {
		op, err := oracleoperator.New(oracleoperator.Config{
			BaseURL:     cfg.SuretyURL,
			Secret:      cfg.Secret,
			OracleCount: cfg.OracleCount,
			IDPrefix:    cfg.IDPrefix,
		})
		if err != nil {
			return err
		}
		return op.Run(ctx)
	})
}
