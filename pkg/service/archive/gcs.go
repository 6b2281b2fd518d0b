package archive

import (
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
)

// GCS stores generated documents in a Cloud Storage bucket
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.ReportArchive = (*GCS)(nil)

// Option is a functional option for GCS
type Option func(*GCS)

// WithPrefix puts every object under prefix, e.g. "reports/"
func WithPrefix(prefix string) Option {
	return func(g *GCS) {
		g.prefix = prefix
	}
}

// New creates a Cloud Storage archive using application default credentials
func New(ctx context.Context, bucket string, opts ...Option) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("archive bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client", goerr.V("bucket", bucket))
	}

	g := &GCS{client: client, bucket: bucket}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// ObjectName returns the object path of name in the bucket
func (g *GCS) ObjectName(name string) string {
	if g.prefix == "" {
		return name
	}
	return path.Join(g.prefix, name)
}

// Put uploads data and returns its gs:// URI. An existing object of the same
// name is overwritten.
func (g *GCS) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	objectName := g.ObjectName(name)
	w := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write archive object",
			goerr.V("bucket", g.bucket), goerr.V("object", objectName))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize archive object",
			goerr.V("bucket", g.bucket), goerr.V("object", objectName))
	}

	return fmt.Sprintf("gs://%s/%s", g.bucket, objectName), nil
}

// Close releases the Cloud Storage client
func (g *GCS) Close() error {
	return g.client.Close()
}
