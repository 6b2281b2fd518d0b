package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/retainer/pkg/domain/model"
	"github.com/secmon-lab/retainer/pkg/domain/types"
	"github.com/secmon-lab/retainer/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// maxLookbackDays is the longest accepted report window
const maxLookbackDays = 366

// WorkflowFile is the TOML workflow configuration
//
//	[report]
//	lookback_days = 30
//	currency = "EUR"
//	title = "Advertising Finance Snapshot"
//	top_n = 5
//
//	[case]
//	reopen_policy = "retain"
//	offer_expiry_days = 14
type WorkflowFile struct {
	Report ReportSection `toml:"report"`
	Case   CaseSection   `toml:"case"`
}

// ReportSection configures the finance snapshot
type ReportSection struct {
	LookbackDays int    `toml:"lookback_days"`
	Currency     string `toml:"currency"`
	Title        string `toml:"title"`
	TopN         int    `toml:"top_n"`
}

// CaseSection configures case transitions
type CaseSection struct {
	ReopenPolicy    string `toml:"reopen_policy"`
	OfferExpiryDays int    `toml:"offer_expiry_days"`
}

// Validate checks if the WorkflowFile is valid. Zero values mean defaults.
func (w *WorkflowFile) Validate() error {
	if w.Report.LookbackDays < 0 || w.Report.LookbackDays > maxLookbackDays {
		return goerr.Wrap(ErrInvalidConfig, "lookback_days out of range",
			goerr.V(FieldKey, "report.lookback_days"), goerr.V(ValueKey, w.Report.LookbackDays))
	}
	if w.Report.TopN < 0 {
		return goerr.Wrap(ErrInvalidConfig, "top_n must not be negative",
			goerr.V(FieldKey, "report.top_n"), goerr.V(ValueKey, w.Report.TopN))
	}
	if c := w.Report.Currency; c != "" && len(c) != 3 {
		return goerr.Wrap(ErrInvalidConfig, "currency must be an ISO 4217 code",
			goerr.V(FieldKey, "report.currency"), goerr.V(ValueKey, c))
	}
	if _, err := types.ParseReopenPolicy(w.Case.ReopenPolicy); err != nil {
		return goerr.Wrap(ErrInvalidConfig, err.Error(),
			goerr.V(FieldKey, "case.reopen_policy"), goerr.V(ValueKey, w.Case.ReopenPolicy))
	}
	if w.Case.OfferExpiryDays < 0 {
		return goerr.Wrap(ErrInvalidConfig, "offer_expiry_days must not be negative",
			goerr.V(FieldKey, "case.offer_expiry_days"), goerr.V(ValueKey, w.Case.OfferExpiryDays))
	}
	return nil
}

// Workflow converts the file into use case settings. Unset values are left
// zero and filled with defaults by usecase.New.
func (w *WorkflowFile) Workflow() usecase.Workflow {
	policy, _ := types.ParseReopenPolicy(w.Case.ReopenPolicy)
	return usecase.Workflow{
		LookbackDays:    w.Report.LookbackDays,
		ReportTitle:     w.Report.Title,
		TopN:            w.Report.TopN,
		ReopenPolicy:    policy,
		OfferExpiryDays: w.Case.OfferExpiryDays,
	}
}

// LoadWorkflowFile loads the workflow configuration from a TOML file
func LoadWorkflowFile(path string) (*WorkflowFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, err.Error(), goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var file WorkflowFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML config", goerr.V(ConfigPathKey, path))
	}

	if err := file.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &file, nil
}

// AppConfig holds the CLI flag of the workflow configuration file
type AppConfig struct {
	path string
}

// Flags returns CLI flags for the workflow configuration
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the workflow configuration file (TOML)",
			Sources:     cli.EnvVars("RETAINER_CONFIG"),
			Destination: &a.path,
		},
	}
}

// Configure loads the workflow file. Without --config the defaults apply.
func (a *AppConfig) Configure() (*WorkflowFile, error) {
	if a.path == "" {
		return &WorkflowFile{}, nil
	}
	return LoadWorkflowFile(a.path)
}

// Currency returns the configured report currency or the default one
func (w *WorkflowFile) Currency() string {
	if w.Report.Currency == "" {
		return model.DefaultCurrency
	}
	return w.Report.Currency
}
