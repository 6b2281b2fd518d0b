package adsapi

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/domain/types"
)

// entityNamespace derives stable entity IDs from account and entity index
var entityNamespace = uuid.MustParse("6f1c2f4e-8d9b-4c55-9e0e-5b7f3a1d2c90")

// Mock generates plausible but fake ads reports. The same account and
// window always produce the same report.
type Mock struct {
	currency string
}

var _ interfaces.ReportingProvider = (*Mock)(nil)

// MockOption is a functional option for Mock
type MockOption func(*Mock)

// WithCurrency sets the currency code of generated reports
func WithCurrency(currency string) MockOption {
	return func(m *Mock) {
		m.currency = currency
	}
}

// NewMock creates a mock reporting provider
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{currency: model.DefaultCurrency}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func entityCount(t types.EntityType) int {
	switch t {
	case types.EntityTypeAdAccount:
		return 1
	case types.EntityTypeCampaign:
		return 6
	case types.EntityTypeAdSet:
		return 10
	case types.EntityTypeAd:
		return 20
	default:
		return 6
	}
}

func seedOf(req *model.ReportRequest) (uint64, uint64) {
	h := fnv.New128a()
	_, _ = fmt.Fprintf(h, "%s|%s|%s|%s", req.AccountID, req.EntityType,
		req.Start.Format(model.DateLayout), req.End.Format(model.DateLayout))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:])
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

type entity struct {
	id     string
	name   string
	status string
}

// GetAggregateReport returns one row per entity and day of the inclusive window
func (m *Mock) GetAggregateReport(ctx context.Context, req *model.ReportRequest) (*model.AggregateReport, error) {
	if req.AccountID == "" {
		return nil, goerr.New("ad account ID is required")
	}
	if req.End.Before(req.Start) {
		return nil, goerr.New("report end is before start",
			goerr.V("start", req.Start), goerr.V("end", req.End))
	}
	if req.Granularity != "" && req.Granularity != types.GranularityDay {
		return nil, goerr.New("unsupported granularity", goerr.V("granularity", req.Granularity))
	}

	r := rand.New(rand.NewPCG(seedOf(req)))

	n := entityCount(req.EntityType)
	if req.Limit > 0 && req.Limit < n {
		n = req.Limit
	}

	entities := make([]entity, n)
	weights := make([]float64, n)
	var wsum float64
	for i := range entities {
		status := "ACTIVE"
		if i%7 == 0 {
			status = "PAUSED"
		}
		entities[i] = entity{
			id:     uuid.NewSHA1(entityNamespace, fmt.Appendf(nil, "%s/%s/%d", req.AccountID, req.EntityType, i)).String(),
			name:   fmt.Sprintf("%s %d", req.EntityType.Label(), i+1),
			status: status,
		}
		weights[i] = 1.0 / math.Pow(float64(i+1), 1.15)
		wsum += weights[i]
	}
	for i := range weights {
		weights[i] /= wsum
	}

	baseImpressions := float64(250_000 + r.IntN(650_001))
	baseCTR := uniform(r, 0.002, 0.012)
	baseCPM := uniform(r, 6.0, 18.0)
	streamedShare := uniform(r, 0.65, 0.95)

	start := truncateDay(req.Start)
	end := truncateDay(req.End)

	var rows []model.ReportRow
	for dayIdx, day := 0, start; !day.After(end); dayIdx, day = dayIdx+1, day.AddDate(0, 0, 1) {
		trend := 1.0 + 0.15*math.Sin(float64(dayIdx)/6.0)
		dayImpressions := math.Floor(baseImpressions * trend * uniform(r, 0.85, 1.15))

		for i, ent := range entities {
			impressions := math.Max(0, math.Floor(dayImpressions*weights[i]*uniform(r, 0.7, 1.3)))
			streamed := math.Floor(impressions * streamedShare)
			clicks := math.Floor(impressions * clamp(baseCTR*uniform(r, 0.7, 1.4), 0.0005, 0.03))
			spend := impressions / 1000.0 * clamp(baseCPM*uniform(r, 0.75, 1.35), 2.0, 40.0)
			completes := math.Floor(streamed * uniform(r, 0.12, 0.45))

			values := map[types.ReportField]float64{
				types.FieldImpressions:         impressions,
				types.FieldStreamedImpressions: streamed,
				types.FieldClicks:              clicks,
				types.FieldSpend:               spend,
				types.FieldCTR:                 ratio(clicks, impressions),
				types.FieldECPCL:               ratio(spend, clicks),
				types.FieldCompletes:           completes,
				types.FieldCompletionRate:      ratio(completes, streamed),
			}

			stats := make(map[types.ReportField]float64, len(req.Fields))
			for _, f := range req.Fields {
				stats[f] = values[f]
			}

			rows = append(rows, model.ReportRow{
				EntityID:     ent.id,
				EntityName:   ent.name,
				EntityStatus: ent.status,
				PeriodStart:  day,
				PeriodEnd:    day.AddDate(0, 0, 1),
				Stats:        stats,
			})
		}
	}

	return &model.AggregateReport{
		AccountID:   req.AccountID,
		EntityType:  req.EntityType,
		Granularity: types.GranularityDay,
		Start:       start,
		End:         end,
		Currency:    m.currency,
		Rows:        rows,
	}, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
