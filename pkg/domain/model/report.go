package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/secmon-lab/retainer/pkg/domain/types"
)

// ReportRequest asks a reporting provider for an aggregate report
type ReportRequest struct {
	AccountID   string
	EntityType  types.EntityType
	Fields      []types.ReportField
	Start       time.Time
	End         time.Time
	Granularity types.Granularity
	Limit       int
}

// ReportRow is the stats of one entity in one period
type ReportRow struct {
	EntityID     string
	EntityName   string
	EntityStatus string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Stats        map[types.ReportField]float64
}

// AggregateReport is the response of a reporting provider
type AggregateReport struct {
	AccountID   string
	EntityType  types.EntityType
	Granularity types.Granularity
	Start       time.Time
	End         time.Time
	Currency    string
	Rows        []ReportRow
}

// EntityTotal is the sum of one metric for one entity
type EntityTotal struct {
	EntityID   string
	EntityName string
	Value      float64
}

// DailyPoint is the sum of one metric on one day
type DailyPoint struct {
	Date  time.Time
	Value float64
}

// ReportWindow returns the inclusive date window [today-lookback, today-1] in UTC
func ReportWindow(now time.Time, lookbackDays int) (start, end time.Time) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -lookbackDays), today.AddDate(0, 0, -1)
}

// DateRangeLabel renders a window as "YYYY-MM-DD → YYYY-MM-DD"
func DateRangeLabel(start, end time.Time) string {
	return fmt.Sprintf("%s → %s", start.Format(DateLayout), end.Format(DateLayout))
}

// AggregateKPIs sums report rows into a snapshot. Ratios are zero when their
// denominator is zero.
func AggregateKPIs(rows []ReportRow, label, currency string) *KPISnapshot {
	var impressions, streamed, clicks int64
	var spend float64
	for _, r := range rows {
		impressions += int64(r.Stats[types.FieldImpressions])
		streamed += int64(r.Stats[types.FieldStreamedImpressions])
		clicks += int64(r.Stats[types.FieldClicks])
		spend += r.Stats[types.FieldSpend]
	}

	if currency == "" {
		currency = DefaultCurrency
	}

	return &KPISnapshot{
		Impressions:         impressions,
		StreamedImpressions: streamed,
		Clicks:              clicks,
		Spend:               spend,
		CTR:                 safeDiv(float64(clicks), float64(impressions)),
		ECPCL:               safeDiv(spend, float64(clicks)),
		DateRangeLabel:      label,
		Currency:            currency,
	}
}

// TopEntities sums field per entity and returns the n largest in descending
// order. Ties keep the order in which entities first appear in rows.
func TopEntities(rows []ReportRow, field types.ReportField, n int) []EntityTotal {
	index := map[string]int{}
	var totals []EntityTotal
	for _, r := range rows {
		i, ok := index[r.EntityID]
		if !ok {
			i = len(totals)
			index[r.EntityID] = i
			totals = append(totals, EntityTotal{EntityID: r.EntityID, EntityName: r.EntityName})
		}
		totals[i].Value += r.Stats[field]
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Value > totals[j].Value
	})

	if n >= 0 && len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

// DailySeries sums field per day of PeriodStart, in chronological order
func DailySeries(rows []ReportRow, field types.ReportField) []DailyPoint {
	byDay := map[time.Time]float64{}
	for _, r := range rows {
		t := r.PeriodStart.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		byDay[day] += r.Stats[field]
	}

	series := make([]DailyPoint, 0, len(byDay))
	for day, v := range byDay {
		series = append(series, DailyPoint{Date: day, Value: v})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series
}

// FinanceDocument is everything a document renderer needs for a finance snapshot
type FinanceDocument struct {
	Title       string
	CaseID      CaseID
	AccountID   string
	AccountName string
	EntityType  types.EntityType
	Start       time.Time
	End         time.Time
	GeneratedAt time.Time

	KPI               KPISnapshot
	TopBySpend        []EntityTotal
	TopByImpressions  []EntityTotal
	SeriesImpressions []DailyPoint
	SeriesSpend       []DailyPoint
}

// Filename returns the attachment name of the rendered document
func (d *FinanceDocument) Filename() string {
	return fmt.Sprintf("finance_snapshot_%s_%s_%s.pdf",
		d.CaseID, d.Start.Format(DateLayout), d.End.Format(DateLayout))
}

// FileTitle returns the attachment title shown in Slack
func (d *FinanceDocument) FileTitle() string {
	return fmt.Sprintf("Finance Snapshot — Case %s", d.CaseID)
}

// Caption summarizes the KPIs for the message carrying the document
func (d *FinanceDocument) Caption(approverID string) string {
	return fmt.Sprintf(":bar_chart: *Finance snapshot* for <@%s>.\n"+
		"Range: %s\n"+
		"Spend: *%s* • Impressions: *%s* • CTR: *%s* • E-CPCL: *%s*",
		approverID,
		DateRangeLabel(d.Start, d.End),
		FormatMoney(d.KPI.Currency, d.KPI.Spend),
		FormatInt(d.KPI.Impressions),
		FormatPercent(d.KPI.CTR),
		FormatMoney(d.KPI.Currency, d.KPI.ECPCL),
	)
}
