package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/domain/types"
	"github.com/secmon-lab/retainer/pkg/service/pdf"
)

func newDocument(days int) *model.FinanceDocument {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	var impressions, spend []model.DailyPoint
	for i := range days {
		d := start.AddDate(0, 0, i)
		impressions = append(impressions, model.DailyPoint{Date: d, Value: float64(100000 + i*1000)})
		spend = append(spend, model.DailyPoint{Date: d, Value: 1200.5 + float64(i)})
	}

	return &model.FinanceDocument{
		Title:       "Finance Snapshot",
		CaseID:      "A1B2C3",
		AccountID:   "acc-1",
		AccountName: "Acme Radio — EU",
		EntityType:  types.EntityTypeAdSet,
		Start:       start,
		End:         start.AddDate(0, 0, 27),
		GeneratedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		KPI: model.KPISnapshot{
			Impressions:         2800000,
			StreamedImpressions: 2300000,
			Clicks:              14000,
			Spend:               33614.0,
			CTR:                 0.005,
			ECPCL:               2.401,
			DateRangeLabel:      "2026-02-01 → 2026-02-28",
			Currency:            "EUR",
		},
		TopBySpend: []model.EntityTotal{
			{EntityID: "e1", EntityName: "Ad Set 1", Value: 12000},
			{EntityID: "e2", EntityName: "Ad Set 2", Value: 8000},
		},
		TopByImpressions: []model.EntityTotal{
			{EntityID: "e1", EntityName: "Ad Set 1", Value: 900000},
		},
		SeriesImpressions: impressions,
		SeriesSpend:       spend,
	}
}

func TestRenderer_Render(t *testing.T) {
	r := pdf.New(pdf.WithAuthor("Churn Prevention Bot"))

	data, err := r.Render(context.Background(), newDocument(28))
	gt.NoError(t, err).Required()
	gt.Bool(t, bytes.HasPrefix(data, []byte("%PDF-"))).True()
	gt.Number(t, len(data)).Greater(1000)
}

func TestRenderer_Deterministic(t *testing.T) {
	r := pdf.New()
	doc := newDocument(28)

	a, err := r.Render(context.Background(), doc)
	gt.NoError(t, err).Required()
	b, err := r.Render(context.Background(), doc)
	gt.NoError(t, err).Required()
	gt.Value(t, a).Equal(b)
}

func TestRenderer_EmptySeries(t *testing.T) {
	doc := newDocument(0)
	doc.TopBySpend = nil
	doc.TopByImpressions = nil

	data, err := pdf.New().Render(context.Background(), doc)
	gt.NoError(t, err).Required()
	gt.Bool(t, bytes.HasPrefix(data, []byte("%PDF-"))).True()
}

func TestRenderer_SinglePoint(t *testing.T) {
	data, err := pdf.New().Render(context.Background(), newDocument(1))
	gt.NoError(t, err).Required()
	gt.Bool(t, bytes.HasPrefix(data, []byte("%PDF-"))).True()
}
