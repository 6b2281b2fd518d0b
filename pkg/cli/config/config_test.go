package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/retainer/pkg/cli/config"
	"github.com/secmon-lab/retainer/pkg/domain/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workflow.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o600)).Required()
	return path
}

func TestLoadWorkflowFile(t *testing.T) {
	t.Run("full configuration", func(t *testing.T) {
		path := writeConfig(t, `
[report]
lookback_days = 14
currency = "USD"
title = "Retention Finance Review"
top_n = 3

[case]
reopen_policy = "clear-offer"
offer_expiry_days = 7
`)
		file, err := config.LoadWorkflowFile(path)
		gt.NoError(t, err).Required()

		w := file.Workflow()
		gt.Number(t, w.LookbackDays).Equal(14)
		gt.Value(t, w.ReportTitle).Equal("Retention Finance Review")
		gt.Number(t, w.TopN).Equal(3)
		gt.Value(t, w.ReopenPolicy).Equal(types.ReopenClearOffer)
		gt.Number(t, w.OfferExpiryDays).Equal(7)
		gt.Value(t, file.Currency()).Equal("USD")
	})

	t.Run("empty file keeps defaults unset", func(t *testing.T) {
		file, err := config.LoadWorkflowFile(writeConfig(t, ""))
		gt.NoError(t, err).Required()

		w := file.Workflow()
		gt.Number(t, w.LookbackDays).Equal(0)
		gt.Value(t, w.ReopenPolicy).Equal(types.ReopenRetain)
		gt.Value(t, file.Currency()).Equal("EUR")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadWorkflowFile(filepath.Join(t.TempDir(), "nope.toml"))
		gt.Error(t, err).Is(config.ErrConfigNotFound)
	})

	t.Run("broken TOML", func(t *testing.T) {
		_, err := config.LoadWorkflowFile(writeConfig(t, "[report\nlookback_days = "))
		gt.Value(t, err).NotNil()
	})

	invalid := []struct {
		name    string
		content string
	}{
		{"unknown reopen policy", "[case]\nreopen_policy = \"forget\"\n"},
		{"negative lookback", "[report]\nlookback_days = -1\n"},
		{"lookback over a year", "[report]\nlookback_days = 400\n"},
		{"negative top_n", "[report]\ntop_n = -2\n"},
		{"currency name instead of code", "[report]\ncurrency = \"euro\"\n"},
		{"negative offer expiry", "[case]\noffer_expiry_days = -1\n"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.LoadWorkflowFile(writeConfig(t, tc.content))
			gt.Error(t, err).Is(config.ErrInvalidConfig)
		})
	}
}

func TestAppConfig_Configure(t *testing.T) {
	t.Run("no path gives defaults", func(t *testing.T) {
		file, err := config.NewAppConfigForTest("").Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, file.Currency()).Equal("EUR")
	})

	t.Run("loads the given file", func(t *testing.T) {
		path := writeConfig(t, "[report]\ntop_n = 10\n")
		file, err := config.NewAppConfigForTest(path).Configure()
		gt.NoError(t, err).Required()
		gt.Number(t, file.Workflow().TopN).Equal(10)
	})
}
