package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/domain/types"
	"github.com/secmon-lab/retainer/pkg/repository/memory"
	"github.com/secmon-lab/retainer/pkg/usecase"
)

var testNow = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type postedMessage struct {
	ChannelID string
	ThreadTS  string
	Text      string
	Panel     *model.Panel
}

type editedMessage struct {
	ChannelID string
	TS        string
	Text      string
	Panel     *model.Panel
}

type ephemeralMessage struct {
	ChannelID string
	ThreadTS  string
	UserID    string
	Text      string
	Panel     *model.Panel
}

type uploadedFile struct {
	ChannelID string
	ThreadTS  string
	Data      []byte
	Filename  string
	Title     string
	Caption   string
}

// mockGateway is a mock implementation of interfaces.MessagingGateway
type mockGateway struct {
	postMessageFn   func(ctx context.Context, channelID, threadTS, text string, panel *model.Panel) (string, error)
	updateMessageFn func(ctx context.Context, channelID, ts, text string, panel *model.Panel) error
	postEphemeralFn func(ctx context.Context, channelID, userID, text string) error
	postPanelFn     func(ctx context.Context, channelID, threadTS, userID, text string, panel *model.Panel) error
	uploadFileFn    func(ctx context.Context, channelID, threadTS string, data []byte, filename, title, caption string) error
	openFormFn      func(ctx context.Context, triggerID string, form *model.Form) error

	mu         sync.Mutex
	seq        int
	posts      []postedMessage
	edits      []editedMessage
	ephemerals []ephemeralMessage
	panels     []ephemeralMessage
	uploads    []uploadedFile
	forms      []*model.Form
}

func (m *mockGateway) PostMessage(ctx context.Context, channelID, threadTS, text string, panel *model.Panel) (string, error) {
	if m.postMessageFn != nil {
		if _, err := m.postMessageFn(ctx, channelID, threadTS, text, panel); err != nil {
			return "", err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.posts = append(m.posts, postedMessage{ChannelID: channelID, ThreadTS: threadTS, Text: text, Panel: panel})
	return fmt.Sprintf("1773570600.%06d", m.seq), nil
}

func (m *mockGateway) UpdateMessage(ctx context.Context, channelID, ts, text string, panel *model.Panel) error {
	if m.updateMessageFn != nil {
		if err := m.updateMessageFn(ctx, channelID, ts, text, panel); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, editedMessage{ChannelID: channelID, TS: ts, Text: text, Panel: panel})
	return nil
}

func (m *mockGateway) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	if m.postEphemeralFn != nil {
		if err := m.postEphemeralFn(ctx, channelID, userID, text); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ephemerals = append(m.ephemerals, ephemeralMessage{ChannelID: channelID, UserID: userID, Text: text})
	return nil
}

func (m *mockGateway) PostEphemeralPanel(ctx context.Context, channelID, threadTS, userID, text string, panel *model.Panel) error {
	if m.postPanelFn != nil {
		if err := m.postPanelFn(ctx, channelID, threadTS, userID, text, panel); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.panels = append(m.panels, ephemeralMessage{
		ChannelID: channelID,
		ThreadTS:  threadTS,
		UserID:    userID,
		Text:      text,
		Panel:     panel,
	})
	return nil
}

// privatePanels returns the ephemeral panels shown to userID
func (m *mockGateway) privatePanels(userID string) []*model.Panel {
	m.mu.Lock()
	defer m.mu.Unlock()
	var panels []*model.Panel
	for _, e := range m.panels {
		if e.UserID == userID {
			panels = append(panels, e.Panel)
		}
	}
	return panels
}

func (m *mockGateway) UploadFile(ctx context.Context, channelID, threadTS string, data []byte, filename, title, caption string) error {
	if m.uploadFileFn != nil {
		if err := m.uploadFileFn(ctx, channelID, threadTS, data, filename, title, caption); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, uploadedFile{
		ChannelID: channelID,
		ThreadTS:  threadTS,
		Data:      data,
		Filename:  filename,
		Title:     title,
		Caption:   caption,
	})
	return nil
}

func (m *mockGateway) OpenForm(ctx context.Context, triggerID string, form *model.Form) error {
	if m.openFormFn != nil {
		if err := m.openFormFn(ctx, triggerID, form); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms = append(m.forms, form)
	return nil
}

// threadTexts returns the texts posted into threadTS
func (m *mockGateway) threadTexts(threadTS string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var texts []string
	for _, p := range m.posts {
		if p.ThreadTS == threadTS && p.Panel == nil {
			texts = append(texts, p.Text)
		}
	}
	return texts
}

// mockProvider is a mock implementation of interfaces.ReportingProvider
type mockProvider struct {
	getAggregateReportFn func(ctx context.Context, req *model.ReportRequest) (*model.AggregateReport, error)

	mu       sync.Mutex
	requests []*model.ReportRequest
}

func (m *mockProvider) GetAggregateReport(ctx context.Context, req *model.ReportRequest) (*model.AggregateReport, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.getAggregateReportFn != nil {
		return m.getAggregateReportFn(ctx, req)
	}
	return &model.AggregateReport{
		AccountID:   req.AccountID,
		EntityType:  req.EntityType,
		Granularity: req.Granularity,
		Start:       req.Start,
		End:         req.End,
		Currency:    "EUR",
		Rows:        testRows(req.Start),
	}, nil
}

func testRow(id, name string, day time.Time, impressions, clicks, spend float64) model.ReportRow {
	return model.ReportRow{
		EntityID:     id,
		EntityName:   name,
		EntityStatus: "ACTIVE",
		PeriodStart:  day,
		PeriodEnd:    day.AddDate(0, 0, 1),
		Stats: map[types.ReportField]float64{
			types.FieldImpressions:         impressions,
			types.FieldStreamedImpressions: impressions / 2,
			types.FieldClicks:              clicks,
			types.FieldSpend:               spend,
		},
	}
}

// testRows returns two ad sets over two days: 3,000 impressions, 30 clicks
// and 60.00 spend in total
func testRows(start time.Time) []model.ReportRow {
	day2 := start.AddDate(0, 0, 1)
	return []model.ReportRow{
		testRow("as-1", "Ad set 1", start, 1000, 10, 25),
		testRow("as-2", "Ad set 2", start, 500, 5, 5),
		testRow("as-1", "Ad set 1", day2, 1000, 10, 25),
		testRow("as-2", "Ad set 2", day2, 500, 5, 5),
	}
}

// mockRenderer is a mock implementation of interfaces.DocumentRenderer
type mockRenderer struct {
	renderFn func(ctx context.Context, doc *model.FinanceDocument) ([]byte, error)

	mu   sync.Mutex
	docs []*model.FinanceDocument
}

func (m *mockRenderer) Render(ctx context.Context, doc *model.FinanceDocument) ([]byte, error) {
	m.mu.Lock()
	m.docs = append(m.docs, doc)
	m.mu.Unlock()

	if m.renderFn != nil {
		return m.renderFn(ctx, doc)
	}
	return []byte("%PDF-test"), nil
}

// mockArchive is a mock implementation of interfaces.ReportArchive
type mockArchive struct {
	putFn func(ctx context.Context, name, contentType string, data []byte) (string, error)

	mu    sync.Mutex
	names []string
}

func (m *mockArchive) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if m.putFn != nil {
		if _, err := m.putFn(ctx, name, contentType, data); err != nil {
			return "", err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append(m.names, name)
	return "gs://test-bucket/" + name, nil
}

// failingCreateRepo is a repository whose case creation always fails with err
type failingCreateRepo struct {
	interfaces.Repository
	err error
}

func (r *failingCreateRepo) Case() interfaces.CaseRepository {
	return &failingCreateCases{CaseRepository: r.Repository.Case(), err: r.err}
}

type failingCreateCases struct {
	interfaces.CaseRepository
	err error
}

func (r *failingCreateCases) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	return nil, r.err
}

type testEnv struct {
	repo     *memory.Memory
	gateway  *mockGateway
	provider *mockProvider
	renderer *mockRenderer
	uc       *usecase.UseCases
}

func newTestEnv(t *testing.T, opts ...usecase.Option) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:     memory.New(),
		gateway:  &mockGateway{},
		provider: &mockProvider{},
		renderer: &mockRenderer{},
	}
	base := []usecase.Option{
		usecase.WithMessagingGateway(env.gateway),
		usecase.WithReportingProvider(env.provider),
		usecase.WithDocumentRenderer(env.renderer),
		usecase.WithClock(fixedClock),
	}
	env.uc = usecase.New(env.repo, append(base, opts...)...)
	return env
}

func testStartInput() model.StartInput {
	return model.StartInput{
		ChannelID:     "C100",
		InitiatorID:   "U1",
		AdAccountID:   "acc-1",
		AccountName:   "Acme",
		StakeholderID: "U3",
		ApproverID:    "U2",
	}
}

func testOfferInput() model.OfferInput {
	return model.OfferInput{
		Type:    "DISCOUNT",
		Details: "10% off",
		Expiry:  "2099-01-01",
	}
}

// startCase creates a case through the use case and returns it
func (env *testEnv) startCase(t *testing.T) *model.Case {
	t.Helper()
	c, err := env.uc.Case.StartCase(context.Background(), testStartInput())
	gt.NoError(t, err).Required()
	return c
}

// storedCase reads the case back from the repository
func (env *testEnv) storedCase(t *testing.T, id model.CaseID) *model.Case {
	t.Helper()
	c, err := env.repo.Case().Get(context.Background(), id)
	gt.NoError(t, err).Required()
	return c
}

func TestNew(t *testing.T) {
	t.Run("fills defaults for unset workflow values", func(t *testing.T) {
		uc := usecase.New(memory.New(), usecase.WithWorkflow(usecase.Workflow{}))
		gt.Value(t, uc.Case).NotNil()
		gt.Value(t, uc.Snapshot).NotNil()
		gt.Value(t, uc.Panel).NotNil()
		gt.Value(t, uc.Dispatcher).NotNil()
	})

	t.Run("default workflow", func(t *testing.T) {
		w := usecase.DefaultWorkflow()
		gt.Number(t, w.LookbackDays).Equal(30)
		gt.Number(t, w.TopN).Equal(5)
		gt.Number(t, w.OfferExpiryDays).Equal(14)
		gt.Value(t, w.ReopenPolicy).Equal(types.ReopenRetain)
	})
}
