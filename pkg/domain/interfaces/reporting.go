package interfaces

import (
	"context"

	"github.com/secmon-lab/retainer/pkg/domain/model"
)

// ReportingProvider serves aggregate ads reports
type ReportingProvider interface {
	GetAggregateReport(ctx context.Context, req *model.ReportRequest) (*model.AggregateReport, error)
}

// DocumentRenderer renders a finance snapshot into an opaque document
type DocumentRenderer interface {
	Render(ctx context.Context, doc *model.FinanceDocument) ([]byte, error)
}

// ReportArchive keeps a copy of generated documents. Put returns a URI of the stored object.
type ReportArchive interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}
