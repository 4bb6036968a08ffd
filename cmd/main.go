package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"creative-mango/internal/adapter/gapi"
	httpadapter "creative-mango/internal/adapter/http"
	"creative-mango/internal/adapter/usecase"
	"creative-mango/internal/config"
	"creative-mango/internal/core/port"
)

// main is the entry point of the creative-mango tool. It loads
// configuration, wires the Google API adapters and the sync pipeline,
// then dispatches to the requested command: a batch run (full or a
// single step) or the trigger HTTP server.
func main() {
	var setupFile string

	root := &cobra.Command{
		Use:           "creative-mango",
		Short:         "Sync App Campaign creatives between spreadsheets and the ad platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&setupFile, "setup", "setup.yaml", "path to the setup file")

	root.AddCommand(
		runCommand(&setupFile),
		stepCommand(&setupFile, port.StepFetch, "Pull new creative files into the Upload tab"),
		stepCommand(&setupFile, port.StepRemove, "Remove expired and underperforming creatives"),
		stepCommand(&setupFile, port.StepUpload, "Upload and attach the declared creatives"),
		stepCommand(&setupFile, port.StepMapping, "Rewrite the Mapping tab from live campaign state"),
		serveCommand(&setupFile),
	)

	if err := root.Execute(); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// bootstrap loads the configuration and wires the pipeline with its
// collaborators.
func bootstrap(ctx context.Context, setupFile string) (config.Config, *slog.Logger, port.Pipeline, error) {
	cfg, err := config.Load(setupFile)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("load config: %w", err)
	}

	var handler slog.Handler
	level := cfg.Log.SlogLevel()
	switch cfg.Log.SlogFormat() {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler)

	client, err := gapi.NewHTTPClient(ctx, cfg.Assets.CredentialsFile)
	if err != nil {
		return cfg, logger, nil, fmt.Errorf("authenticate: %w", err)
	}

	sheets := gapi.NewSheetStore(client)
	ads := gapi.NewAdPlatform(client, cfg.Ads.DeveloperToken, cfg.Ads.LoginCustomerID)
	assets := gapi.NewAssetStore(client)
	var videos port.VideoHost
	if cfg.Assets.YouTubeEnabled {
		videos = gapi.NewVideoHost(client)
	}

	svc := usecase.NewSyncService(sheets, ads, assets, videos, usecase.Options{
		SpreadsheetIDs:    cfg.Sheets.SpreadsheetIDs,
		DriveFolderIDs:    cfg.Assets.DriveFolderIDs,
		FetchLookback:     cfg.Assets.FetchLookback,
		YouTubeEnabled:    cfg.Assets.YouTubeEnabled,
		YouTubeWindow:     cfg.Assets.YouTubeWindow,
		YouTubeWait:       cfg.Assets.YouTubeWait,
		RefreshMapping:    cfg.Sheets.RefreshMapping,
		LoginCustomerID:   cfg.Ads.LoginCustomerID,
		AliasFromAppID:    cfg.Sheets.AliasFromAppID,
		AliasFromCampaign: cfg.Sheets.AliasFromCampaign,
	}, logger)

	return cfg, logger, svc, nil
}

func runCommand(setupFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute all sync steps in order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			_, _, pipeline, err := bootstrap(ctx, *setupFile)
			if err != nil {
				return err
			}
			report := pipeline.Run(ctx)
			if report.Failed() {
				return fmt.Errorf("run %s finished with failures", report.ID)
			}
			return nil
		},
	}
}

func stepCommand(setupFile *string, step port.Step, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(step),
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			_, _, pipeline, err := bootstrap(ctx, *setupFile)
			if err != nil {
				return err
			}
			res := pipeline.RunStep(ctx, step)
			if res.Err != "" || res.Failed > 0 {
				return fmt.Errorf("step %s finished with failures", step)
			}
			return nil
		},
	}
}

func serveCommand(setupFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the trigger HTTP endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, logger, pipeline, err := bootstrap(ctx, *setupFile)
			if err != nil {
				return err
			}

			handler := httpadapter.NewHandler(pipeline, logger)
			srv := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
				Handler: handler.Router(),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown error", slog.Any("error", err))
				return err
			}
			logger.Info("server gracefully stopped")
			return nil
		},
	}
}
