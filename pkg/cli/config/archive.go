package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/service/archive"
	"github.com/urfave/cli/v3"
)

// Archive holds CLI flags for the Cloud Storage report archive
type Archive struct {
	bucket string
	prefix string
}

func (x *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket receiving a copy of every finance snapshot",
			Category:    "Archive",
			Destination: &x.bucket,
			Sources:     cli.EnvVars("RETAINER_ARCHIVE_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "archive-prefix",
			Usage:       "Object name prefix in the archive bucket",
			Category:    "Archive",
			Value:       "snapshots/",
			Destination: &x.prefix,
			Sources:     cli.EnvVars("RETAINER_ARCHIVE_PREFIX"),
		},
	}
}

func (x Archive) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

// IsConfigured checks if an archive bucket is set
func (x *Archive) IsConfigured() bool {
	return x.bucket != ""
}

// Configure creates the archive, or returns nil when no bucket is set.
// The caller is responsible for calling Close() on the returned archive.
func (x *Archive) Configure(ctx context.Context) (*archive.GCS, error) {
	if !x.IsConfigured() {
		return nil, nil
	}

	gcs, err := archive.New(ctx, x.bucket, archive.WithPrefix(x.prefix))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize report archive")
	}
	return gcs, nil
}
