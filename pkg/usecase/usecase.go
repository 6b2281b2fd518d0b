package usecase

import (
	"time"

	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
	"github.com/secmon-lab/retainer/pkg/domain/types"
	"github.com/secmon-lab/retainer/pkg/utils/keylock"
)

// Workflow holds the tunables of the case workflow
type Workflow struct {
	// LookbackDays is the number of days covered by a finance snapshot
	LookbackDays int
	// ReportTitle is the title of the rendered finance document
	ReportTitle string
	// TopN is the number of entities in each ranking table
	TopN int
	// ReopenPolicy decides what a reopened case keeps
	ReopenPolicy types.ReopenPolicy
	// OfferExpiryDays is the default offer expiry offset of the offer form
	OfferExpiryDays int
}

// DefaultWorkflow returns the workflow used when nothing is configured
func DefaultWorkflow() Workflow {
	return Workflow{
		LookbackDays:    30,
		ReportTitle:     "Advertising Finance Snapshot",
		TopN:            5,
		ReopenPolicy:    types.ReopenRetain,
		OfferExpiryDays: 14,
	}
}

type UseCases struct {
	repo     interfaces.Repository
	gateway  interfaces.MessagingGateway
	provider interfaces.ReportingProvider
	renderer interfaces.DocumentRenderer
	archive  interfaces.ReportArchive
	workflow Workflow
	now      func() time.Time

	Case       *CaseUseCase
	Snapshot   *SnapshotUseCase
	Panel      *PanelSync
	Dispatcher *Dispatcher
}

type Option func(*UseCases)

func WithMessagingGateway(gateway interfaces.MessagingGateway) Option {
	return func(uc *UseCases) {
		uc.gateway = gateway
	}
}

func WithReportingProvider(provider interfaces.ReportingProvider) Option {
	return func(uc *UseCases) {
		uc.provider = provider
	}
}

func WithDocumentRenderer(renderer interfaces.DocumentRenderer) Option {
	return func(uc *UseCases) {
		uc.renderer = renderer
	}
}

// WithReportArchive enables archiving of generated finance documents
func WithReportArchive(archive interfaces.ReportArchive) Option {
	return func(uc *UseCases) {
		uc.archive = archive
	}
}

func WithWorkflow(workflow Workflow) Option {
	return func(uc *UseCases) {
		uc.workflow = workflow
	}
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:     repo,
		workflow: DefaultWorkflow(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	defaults := DefaultWorkflow()
	if uc.workflow.LookbackDays <= 0 {
		uc.workflow.LookbackDays = defaults.LookbackDays
	}
	if uc.workflow.TopN <= 0 {
		uc.workflow.TopN = defaults.TopN
	}
	if uc.workflow.OfferExpiryDays <= 0 {
		uc.workflow.OfferExpiryDays = defaults.OfferExpiryDays
	}
	if uc.workflow.ReportTitle == "" {
		uc.workflow.ReportTitle = defaults.ReportTitle
	}

	locker := keylock.New()
	uc.Panel = NewPanelSync(repo, uc.gateway)
	uc.Snapshot = NewSnapshotUseCase(repo, uc.gateway, uc.provider, uc.renderer, uc.archive, locker, uc.workflow, uc.now)
	uc.Case = NewCaseUseCase(repo, uc.gateway, uc.Panel, uc.Snapshot, locker, uc.workflow, uc.now)
	uc.Dispatcher = NewDispatcher(uc.Case, uc.gateway)

	return uc
}
