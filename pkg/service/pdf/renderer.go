package pdf

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/domain/interfaces"
	"github.com/secmon-lab/retainer/pkg/domain/model"
)

const (
	marginLeft   = 20.0
	marginTop    = 16.0
	marginRight  = 20.0
	marginBottom = 20.0

	contentWidth = 210.0 - marginLeft - marginRight

	appendixNote = "This report was generated from aggregated metrics of the configured reporting provider. " +
		"When the mock provider is configured, all figures are synthetic and only meant for demonstration."
)

// Renderer renders finance snapshots as A4 PDF documents
type Renderer struct {
	author string
}

var _ interfaces.DocumentRenderer = (*Renderer)(nil)

// Option is a functional option for Renderer
type Option func(*Renderer)

// WithAuthor sets the author recorded in the document metadata
func WithAuthor(author string) Option {
	return func(r *Renderer) {
		r.author = author
	}
}

// New creates a PDF renderer
func New(opts ...Option) *Renderer {
	r := &Renderer{author: "retainer"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render builds the PDF document of doc
func (r *Renderer) Render(ctx context.Context, doc *model.FinanceDocument) ([]byte, error) {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetMargins(marginLeft, marginTop, marginRight)
	p.SetAutoPageBreak(true, marginBottom)
	p.SetCatalogSort(true)
	if !doc.GeneratedAt.IsZero() {
		p.SetCreationDate(doc.GeneratedAt)
		p.SetModificationDate(doc.GeneratedAt)
	}

	cp1252 := p.UnicodeTranslatorFromDescriptor("")
	tr := func(s string) string {
		// the core fonts have no arrow glyph
		return cp1252(strings.ReplaceAll(s, "→", "->"))
	}

	p.SetTitle(tr(doc.Title), false)
	p.SetAuthor(tr(r.author), false)
	p.AddPage()

	w := &writer{pdf: p, tr: tr, currency: doc.KPI.Currency}
	w.header(doc)
	w.summary(doc.KPI)
	w.kpiTable(doc.KPI)
	w.rankingTable("Top Entities (Spend)", "Spend", doc.TopBySpend, func(v float64) string {
		return model.FormatMoney(doc.KPI.Currency, v)
	})
	w.rankingTable("Top Entities (Impressions)", "Impressions", doc.TopByImpressions, func(v float64) string {
		return model.FormatInt(int64(v))
	})

	w.heading("Trends")
	w.lineChart("Daily Impressions", doc.SeriesImpressions, func(v float64) string {
		return model.FormatInt(int64(v))
	})
	w.lineChart(fmt.Sprintf("Daily Spend (%s)", currencyOf(doc.KPI.Currency)), doc.SeriesSpend, func(v float64) string {
		return model.FormatMoney(doc.KPI.Currency, v)
	})

	w.heading("Appendix: Notes")
	w.paragraph(appendixNote)

	if err := p.Error(); err != nil {
		return nil, goerr.Wrap(err, "failed to build PDF", goerr.V("case_id", doc.CaseID))
	}

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, goerr.Wrap(err, "failed to write PDF", goerr.V("case_id", doc.CaseID))
	}
	return buf.Bytes(), nil
}

func currencyOf(code string) string {
	if code == "" {
		return model.DefaultCurrency
	}
	return code
}

type writer struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	currency string
}

func (w *writer) header(doc *model.FinanceDocument) {
	w.pdf.SetFont("Helvetica", "B", 18)
	w.pdf.MultiCell(contentWidth, 9, w.tr(doc.Title), "", "C", false)
	w.pdf.Ln(2)

	w.pdf.SetFont("Helvetica", "", 10)
	meta := fmt.Sprintf("%s • Breakdown: %s", model.DateRangeLabel(doc.Start, doc.End), doc.EntityType)
	w.pdf.MultiCell(contentWidth, 5, w.tr(meta), "", "L", false)

	account := "Ad Account: " + doc.AccountID
	if doc.AccountName != "" {
		account += fmt.Sprintf(" (%s)", doc.AccountName)
	}
	if doc.CaseID != "" {
		account += fmt.Sprintf(" • Case: %s", doc.CaseID)
	}
	w.pdf.MultiCell(contentWidth, 5, w.tr(account), "", "L", false)
	w.pdf.Ln(4)
}

func (w *writer) heading(text string) {
	w.pdf.Ln(2)
	w.pdf.SetFont("Helvetica", "B", 13)
	w.pdf.CellFormat(contentWidth, 8, w.tr(text), "", 1, "L", false, 0, "")
	w.pdf.SetFont("Helvetica", "", 10)
}

func (w *writer) paragraph(text string) {
	w.pdf.SetFont("Helvetica", "", 10)
	w.pdf.MultiCell(contentWidth, 5, w.tr(text), "", "L", false)
	w.pdf.Ln(2)
}

func (w *writer) summary(kpi model.KPISnapshot) {
	w.heading("Executive Summary")
	bullets := []string{
		fmt.Sprintf("Delivered %s impressions and %s streamed impressions in the selected period.",
			model.FormatInt(kpi.Impressions), model.FormatInt(kpi.StreamedImpressions)),
		fmt.Sprintf("Generated %s clicks at %s CTR with total spend of %s.",
			model.FormatInt(kpi.Clicks), model.FormatPercent(kpi.CTR), model.FormatMoney(kpi.Currency, kpi.Spend)),
		fmt.Sprintf("Effective cost-per-click (E-CPCL): %s, the efficiency benchmark for the renewal discussion.",
			model.FormatMoney(kpi.Currency, kpi.ECPCL)),
		"Delivery is concentrated on the top entities. Reallocating budget can keep outcomes while improving efficiency.",
	}
	for _, b := range bullets {
		w.pdf.MultiCell(contentWidth, 5, w.tr("• "+b), "", "L", false)
	}
	w.pdf.Ln(2)
}

func (w *writer) tableHeader(cols []string, widths []float64) {
	w.pdf.SetFont("Helvetica", "B", 9)
	w.pdf.SetFillColor(232, 232, 232)
	w.pdf.SetDrawColor(128, 128, 128)
	for i, col := range cols {
		w.pdf.CellFormat(widths[i], 7, w.tr(col), "1", 0, "L", true, 0, "")
	}
	w.pdf.Ln(-1)
	w.pdf.SetFont("Helvetica", "", 9)
}

func (w *writer) tableRow(cells []string, widths []float64) {
	for i, cell := range cells {
		w.pdf.CellFormat(widths[i], 7, w.tr(cell), "1", 0, "L", false, 0, "")
	}
	w.pdf.Ln(-1)
}

func (w *writer) kpiTable(kpi model.KPISnapshot) {
	w.heading("Key Metrics")
	cols := []string{"Impressions", "Streamed Impr.", "Clicks", "CTR", "Spend", "E-CPCL"}
	widths := make([]float64, len(cols))
	for i := range widths {
		widths[i] = contentWidth / float64(len(cols))
	}
	w.tableHeader(cols, widths)
	w.tableRow([]string{
		model.FormatInt(kpi.Impressions),
		model.FormatInt(kpi.StreamedImpressions),
		model.FormatInt(kpi.Clicks),
		model.FormatPercent(kpi.CTR),
		model.FormatMoney(kpi.Currency, kpi.Spend),
		model.FormatMoney(kpi.Currency, kpi.ECPCL),
	}, widths)
}

func (w *writer) rankingTable(title, metric string, entities []model.EntityTotal, format func(float64) string) {
	w.heading(title)
	widths := []float64{110, 40}
	w.tableHeader([]string{"Entity", metric}, widths)
	if len(entities) == 0 {
		w.tableRow([]string{"No data", "-"}, widths)
		return
	}
	for _, e := range entities {
		w.tableRow([]string{e.EntityName, format(e.Value)}, widths)
	}
}

const (
	chartHeight  = 55.0
	chartPadLeft = 28.0
	chartPadBot  = 10.0
	chartTicks   = 4
)

func (w *writer) lineChart(title string, series []model.DailyPoint, format func(float64) string) {
	p := w.pdf
	_, pageHeight := p.GetPageSize()
	if p.GetY()+chartHeight+10 > pageHeight-marginBottom {
		p.AddPage()
	}

	p.SetFont("Helvetica", "B", 10)
	p.CellFormat(contentWidth, 6, w.tr(title), "", 1, "L", false, 0, "")

	x0 := marginLeft + chartPadLeft
	y0 := p.GetY()
	width := contentWidth - chartPadLeft
	height := chartHeight - chartPadBot

	p.SetDrawColor(160, 160, 160)
	p.SetLineWidth(0.2)
	p.Line(x0, y0, x0, y0+height)
	p.Line(x0, y0+height, x0+width, y0+height)

	if len(series) == 0 {
		p.SetFont("Helvetica", "I", 9)
		p.Text(x0+4, y0+height/2, "No data")
		p.SetY(y0 + chartHeight)
		return
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, pt := range series {
		lo = math.Min(lo, pt.Value)
		hi = math.Max(hi, pt.Value)
	}
	lo = math.Min(lo, 0)
	if hi == lo {
		hi = lo + 1
	}

	p.SetFont("Helvetica", "", 7)
	for i := 0; i <= chartTicks; i++ {
		v := lo + (hi-lo)*float64(i)/chartTicks
		y := y0 + height - height*float64(i)/chartTicks
		label := w.tr(format(v))
		p.Text(x0-p.GetStringWidth(label)-1.5, y+1, label)
		p.SetDrawColor(230, 230, 230)
		p.Line(x0, y, x0+width, y)
	}

	px := func(i int) float64 {
		if len(series) == 1 {
			return x0 + width/2
		}
		return x0 + width*float64(i)/float64(len(series)-1)
	}
	py := func(v float64) float64 {
		return y0 + height - height*(v-lo)/(hi-lo)
	}

	p.SetDrawColor(30, 110, 200)
	p.SetLineWidth(0.5)
	for i := 1; i < len(series); i++ {
		p.Line(px(i-1), py(series[i-1].Value), px(i), py(series[i].Value))
	}
	if len(series) == 1 {
		p.Circle(px(0), py(series[0].Value), 0.8, "F")
	}

	p.SetFont("Helvetica", "", 7)
	step := max(1, len(series)/6)
	for i := 0; i < len(series); i += step {
		label := series[i].Date.Format("01-02")
		p.Text(px(i)-p.GetStringWidth(label)/2, y0+height+4, label)
	}

	p.SetLineWidth(0.2)
	p.SetY(y0 + chartHeight)
}
