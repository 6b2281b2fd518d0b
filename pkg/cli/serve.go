package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/retainer/pkg/cli/config"
	httpctrl "github.com/secmon-lab/retainer/pkg/controller/http"
	"github.com/secmon-lab/retainer/pkg/service/adsapi"
	"github.com/secmon-lab/retainer/pkg/service/pdf"
	"github.com/secmon-lab/retainer/pkg/usecase"
	"github.com/secmon-lab/retainer/pkg/utils/async"
	"github.com/secmon-lab/retainer/pkg/utils/logging"
	"github.com/secmon-lab/retainer/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func cmdServe(version string) *cli.Command {
	var addr string
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var slackCfg config.Slack
	var sentryCfg config.Sentry
	var archiveCfg config.Archive

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("RETAINER_ADDR"),
			Destination: &addr,
		},
	}

	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, archiveCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server receiving Slack commands and interactions",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return err
			}
			defer flush()

			workflow, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load workflow configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			gateway, err := slackCfg.Configure()
			if err != nil {
				return err
			}

			ucOpts := []usecase.Option{
				usecase.WithMessagingGateway(gateway),
				usecase.WithReportingProvider(adsapi.NewMock(adsapi.WithCurrency(workflow.Currency()))),
				usecase.WithDocumentRenderer(pdf.New()),
				usecase.WithWorkflow(workflow.Workflow()),
			}

			archive, err := archiveCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if archive != nil {
				defer safe.Close(ctx, archive)
				ucOpts = append(ucOpts, usecase.WithReportArchive(archive))
			}

			uc := usecase.New(repo, ucOpts...)

			logger.Info("Configuration",
				"slack", slackCfg,
				"sentry", sentryCfg,
				"archive", archiveCfg,
				"backend", repoCfg.Backend(),
				"workflow", workflow,
			)

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(httpctrl.WithSlack(uc.Dispatcher, slackCfg.SigningSecret())),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// Acknowledged Slack requests may still be running
				if err := async.Wait(shutdownCtx); err != nil {
					logger.Warn("background handlers were interrupted", "error", err)
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
