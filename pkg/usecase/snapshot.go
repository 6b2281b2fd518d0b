package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/domain/types"
	"github.com/secmon-lab/retainer/pkg/utils/errutil"
	"github.com/secmon-lab/retainer/pkg/utils/keylock"
	"github.com/secmon-lab/retainer/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const (
	snapshotEntityType  = types.EntityTypeAdSet
	snapshotEntityLimit = 50
	documentContentType = "application/pdf"
)

// SnapshotUseCase builds finance snapshots of ad accounts and delivers them
// into case threads
type SnapshotUseCase struct {
	repo     interfaces.Repository
	gateway  interfaces.MessagingGateway
	provider interfaces.ReportingProvider
	renderer interfaces.DocumentRenderer
	archive  interfaces.ReportArchive
	locker   *keylock.Locker
	workflow Workflow
	now      func() time.Time
}

func NewSnapshotUseCase(
	repo interfaces.Repository,
	gateway interfaces.MessagingGateway,
	provider interfaces.ReportingProvider,
	renderer interfaces.DocumentRenderer,
	archive interfaces.ReportArchive,
	locker *keylock.Locker,
	workflow Workflow,
	now func() time.Time,
) *SnapshotUseCase {
	return &SnapshotUseCase{
		repo:     repo,
		gateway:  gateway,
		provider: provider,
		renderer: renderer,
		archive:  archive,
		locker:   locker,
		workflow: workflow,
		now:      now,
	}
}

// SnapshotSubject identifies what a finance snapshot is about
type SnapshotSubject struct {
	CaseID      model.CaseID
	AccountID   string
	AccountName string
}

// Snapshot is a rendered finance snapshot
type Snapshot struct {
	Document *model.FinanceDocument
	Data     []byte
}

// Build fetches the report of the subject's account for the last lookbackDays
// days and renders it. A non-positive lookbackDays uses the configured default.
func (uc *SnapshotUseCase) Build(ctx context.Context, subject SnapshotSubject, lookbackDays int) (*Snapshot, error) {
	if uc.provider == nil || uc.renderer == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "reporting provider and document renderer are required")
	}
	if lookbackDays <= 0 {
		lookbackDays = uc.workflow.LookbackDays
	}

	now := uc.now()
	start, end := model.ReportWindow(now, lookbackDays)

	report, err := uc.provider.GetAggregateReport(ctx, &model.ReportRequest{
		AccountID:   subject.AccountID,
		EntityType:  snapshotEntityType,
		Fields:      types.FinanceSnapshotFields(),
		Start:       start,
		End:         end,
		Granularity: types.GranularityDay,
		Limit:       snapshotEntityLimit,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get aggregate report",
			goerr.V(CaseIDKey, subject.CaseID), goerr.V("account_id", subject.AccountID))
	}

	kpi := model.AggregateKPIs(report.Rows, model.DateRangeLabel(start, end), report.Currency)
	doc := &model.FinanceDocument{
		Title:             uc.workflow.ReportTitle,
		CaseID:            subject.CaseID,
		AccountID:         subject.AccountID,
		AccountName:       subject.AccountName,
		EntityType:        snapshotEntityType,
		Start:             start,
		End:               end,
		GeneratedAt:       now.UTC(),
		KPI:               *kpi,
		TopBySpend:        model.TopEntities(report.Rows, types.FieldSpend, uc.workflow.TopN),
		TopByImpressions:  model.TopEntities(report.Rows, types.FieldImpressions, uc.workflow.TopN),
		SeriesImpressions: model.DailySeries(report.Rows, types.FieldImpressions),
		SeriesSpend:       model.DailySeries(report.Rows, types.FieldSpend),
	}

	data, err := uc.renderer.Render(ctx, doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to render finance document", goerr.V(CaseIDKey, subject.CaseID))
	}

	return &Snapshot{Document: doc, Data: data}, nil
}

// Generate builds the finance snapshot of the case, uploads it into the case
// thread and records its KPIs on the case. On any failure the case keeps its
// previous KPIs.
func (uc *SnapshotUseCase) Generate(ctx context.Context, caseID model.CaseID, lookbackDays int) (*model.KPISnapshot, error) {
	if uc.gateway == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "messaging gateway is not set")
	}

	c, err := uc.repo.Case().Get(ctx, caseID)
	if err != nil {
		return nil, caseLookupError(err, caseID)
	}

	snapshot, err := uc.Build(ctx, SnapshotSubject{
		CaseID:      c.ID,
		AccountID:   c.AdAccountID,
		AccountName: c.AccountName,
	}, lookbackDays)
	if err != nil {
		return nil, err
	}

	if err := uc.deliver(ctx, c, snapshot); err != nil {
		return nil, err
	}

	kpi := snapshot.Document.KPI
	unlock := uc.locker.Lock(caseID.String())
	defer unlock()

	if _, err := uc.repo.Case().Update(ctx, caseID, func(cur *model.Case) error {
		v := kpi
		cur.KPI = &v
		return nil
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to save KPI snapshot", goerr.V(CaseIDKey, caseID))
	}

	logging.From(ctx).Info("finance snapshot generated",
		"case_id", caseID,
		"range", kpi.DateRangeLabel,
		"spend", kpi.Spend,
	)
	return &kpi, nil
}

// deliver uploads the document into the case thread and, when an archive is
// configured, stores a copy there. Archive failures are only logged.
func (uc *SnapshotUseCase) deliver(ctx context.Context, c *model.Case, snapshot *Snapshot) error {
	doc := snapshot.Document
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := uc.gateway.UploadFile(egCtx, c.ChannelID, c.ThreadTS, snapshot.Data,
			doc.Filename(), doc.FileTitle(), doc.Caption(c.ApproverID)); err != nil {
			return gatewayError(err, "failed to upload finance snapshot", c.ID)
		}
		return nil
	})

	if uc.archive != nil {
		eg.Go(func() error {
			uri, err := uc.archive.Put(egCtx, doc.Filename(), documentContentType, snapshot.Data)
			if err != nil {
				_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to archive finance snapshot",
					goerr.V(CaseIDKey, c.ID)), "archive finance snapshot")
				return nil
			}
			logging.From(ctx).Info("finance snapshot archived", "case_id", c.ID, "uri", uri)
			return nil
		})
	}

	return eg.Wait()
}
