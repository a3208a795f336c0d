package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/neodex/internal/ingest"
	logpkg "github.com/kailas-cloud/neodex/internal/logger"
	"github.com/kailas-cloud/neodex/internal/repository/catalog"
	"github.com/kailas-cloud/neodex/internal/version"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	data     string
	format   string
	logLevel string
	s3       ingest.S3Config
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "neoctl",
		Short:         "Query near-Earth object close approaches",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if g.format != formatText && g.format != formatJSON {
				return fmt.Errorf("--format must be %q or %q, got %q", formatText, formatJSON, g.format)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.data, "data", os.Getenv("NEODEX_DATA"), "dataset path or s3://bucket/key (env NEODEX_DATA)")
	pf.StringVar(&g.format, "format", formatText, "output format: text or json")
	pf.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&g.s3.Endpoint, "s3-endpoint", os.Getenv("NEODEX_S3_ENDPOINT"), "S3-compatible endpoint for s3:// data")
	pf.StringVar(&g.s3.AccessKey, "s3-access-key", os.Getenv("NEODEX_S3_ACCESS_KEY"), "S3 access key")
	pf.StringVar(&g.s3.SecretKey, "s3-secret-key", os.Getenv("NEODEX_S3_SECRET_KEY"), "S3 secret key")
	pf.StringVar(&g.s3.Region, "s3-region", os.Getenv("NEODEX_S3_REGION"), "S3 region")
	pf.BoolVar(&g.s3.UseSSL, "s3-ssl", true, "use TLS for the S3 endpoint")

	root.AddCommand(newQueryCmd(g), newShowCmd(g))
	return root
}

// loadCatalog builds a catalog from the --data source.
func (g *globalFlags) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if g.data == "" {
		return nil, fmt.Errorf("--data is required (or set NEODEX_DATA)")
	}

	logger, err := logpkg.NewLogger("cli", g.logLevel)
	if err != nil {
		return nil, err
	}
	defer func() { _ = logger.Sync() }()

	cat := catalog.New()
	stats, err := ingest.NewLoader(g.s3).Load(logpkg.ContextWithLogger(ctx, logger), g.data, cat)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", g.data, err)
	}
	logger.Debug("Catalog ready", zap.Int("objects", stats.Objects), zap.Int("rows", stats.Rows))
	return cat, nil
}
