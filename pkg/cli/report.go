package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/cli/config"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/repository/memory"
	"github.com/secmon-lab/retainer/pkg/service/adsapi"
	"github.com/secmon-lab/retainer/pkg/service/pdf"
	"github.com/secmon-lab/retainer/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// adhocCaseID labels snapshots that are not attached to a case
const adhocCaseID model.CaseID = "ADHOC"

func cmdReport() *cli.Command {
	var accountID string
	var accountName string
	var lookbackDays int
	var outDir string
	var appCfg config.AppConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "account-id",
			Usage:       "Ad account ID",
			Required:    true,
			Destination: &accountID,
		},
		&cli.StringFlag{
			Name:        "account-name",
			Usage:       "Ad account name shown in the document",
			Destination: &accountName,
		},
		&cli.IntFlag{
			Name:        "days",
			Usage:       "Lookback window in days (workflow default when 0)",
			Destination: &lookbackDays,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "Output directory",
			Value:       ".",
			Destination: &outDir,
		},
	}
	flags = append(flags, appCfg.Flags()...)

	return &cli.Command{
		Name:    "report",
		Aliases: []string{"r"},
		Usage:   "Generate a finance snapshot PDF for an ad account into a local file",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			workflow, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load workflow configuration")
			}

			uc := usecase.New(memory.New(),
				usecase.WithReportingProvider(adsapi.NewMock(adsapi.WithCurrency(workflow.Currency()))),
				usecase.WithDocumentRenderer(pdf.New()),
				usecase.WithWorkflow(workflow.Workflow()),
			)

			snapshot, err := uc.Snapshot.Build(ctx, usecase.SnapshotSubject{
				CaseID:      adhocCaseID,
				AccountID:   accountID,
				AccountName: accountName,
			}, lookbackDays)
			if err != nil {
				return goerr.Wrap(err, "failed to build finance snapshot", goerr.V("account_id", accountID))
			}

			path := filepath.Join(outDir, snapshot.Document.Filename())
			if err := os.WriteFile(path, snapshot.Data, 0o600); err != nil {
				return goerr.Wrap(err, "failed to write document", goerr.V("path", path))
			}

			printSummary(os.Stdout, path, snapshot.Document)
			return nil
		},
	}
}

func printSummary(w io.Writer, path string, doc *model.FinanceDocument) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgHiBlack)
	value := color.New(color.FgWhite, color.Bold)

	_, _ = title.Fprintf(w, "%s\n", doc.Title)
	rows := [][2]string{
		{"Account", fmt.Sprintf("%s (%s)", doc.AccountName, doc.AccountID)},
		{"Range", model.DateRangeLabel(doc.Start, doc.End)},
		{"Spend", model.FormatMoney(doc.KPI.Currency, doc.KPI.Spend)},
		{"Impressions", model.FormatInt(doc.KPI.Impressions)},
		{"Clicks", model.FormatInt(doc.KPI.Clicks)},
		{"CTR", model.FormatPercent(doc.KPI.CTR)},
		{"E-CPCL", model.FormatMoney(doc.KPI.Currency, doc.KPI.ECPCL)},
	}
	for _, row := range rows {
		_, _ = label.Fprintf(w, "  %-12s ", row[0])
		_, _ = value.Fprintln(w, row[1])
	}
	_, _ = color.New(color.FgGreen).Fprintf(w, "Written to %s\n", path)
}
