package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"
	"github.com/franckalain/nutrilens/internal/analysis"
	"github.com/franckalain/nutrilens/internal/config"
	"github.com/franckalain/nutrilens/internal/database"
	"github.com/franckalain/nutrilens/internal/ml"
	"github.com/franckalain/nutrilens/internal/server"
	"github.com/spf13/cobra"
)

func main() {
	log.SetHandler(text.New(os.Stderr))

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.WithError(err).Error("nutrilens failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "nutrilens",
		Short:         "Nutrition reports for food photos and text queries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.GetConfigPath(), "path to configuration file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI, websocket sessions and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}

	var imagePath string
	analyzeCmd := &cobra.Command{
		Use:   "analyze [food description]",
		Short: "Analyze a photo or a description once and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return analyzeOnce(cmd.Context(), configPath, imagePath, strings.Join(args, " "))
		},
	}
	analyzeCmd.Flags().StringVar(&imagePath, "image", "", "path to a food photo")

	root.RunE = serveCmd.RunE
	root.AddCommand(serveCmd, analyzeCmd)
	return root
}

// setup loads configuration and the model shared by both commands.
func setup(ctx context.Context, configPath string) (*config.Config, ml.Model, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Server.Debug {
		log.SetLevel(log.DebugLevel)
		log.Debug("Debug logging enabled")
	}

	model, err := ml.NewModel(cfg.ML.Type, cfg.ML.ConfigPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create ML model: %w", err)
	}
	if err := model.Load(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to load ML model: %w", err)
	}
	return cfg, model, nil
}

func serve(ctx context.Context, configPath string) error {
	cfg, model, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer model.Close()

	var opts []analysis.Option
	var journal server.Journal
	if cfg.Database.Path != "" {
		db, err := database.NewSQLiteDB(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		opts = append(opts, analysis.WithJournal(db))
		journal = db
	} else {
		log.Info("Analysis journal disabled")
	}

	client := analysis.NewClient(model, opts...)
	srv := server.New(client, journal, server.Options{
		StaticDir:         cfg.Server.StaticDir,
		RequestsPerMinute: cfg.Limits.RequestsPerMinute,
	})
	return srv.Start(ctx, cfg.Server.Port)
}

func analyzeOnce(ctx context.Context, configPath, imagePath, query string) error {
	in := analysis.Input{Text: query}
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		in.Image = base64.StdEncoding.EncodeToString(data)
	}

	_, model, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer model.Close()

	result, err := analysis.NewClient(model).Analyze(ctx, in)
	if err != nil {
		return fmt.Errorf("%s: %w", analysis.UserMessage(err), err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
