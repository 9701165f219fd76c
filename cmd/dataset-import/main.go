package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SankarSivan/Healthcare/pkg/admissions"
	"github.com/SankarSivan/Healthcare/pkg/common/config"
	"github.com/SankarSivan/Healthcare/pkg/common/database"
	"github.com/SankarSivan/Healthcare/pkg/common/kafka"
	"github.com/SankarSivan/Healthcare/pkg/common/logger"
	"github.com/SankarSivan/Healthcare/pkg/imports"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	logger.Init()

	rootCmd := &cobra.Command{
		Use:   "dataset-import",
		Short: "Load admissions datasets into the SQL store",
	}
	rootCmd.PersistentFlags().String("target", "", "Database to write to (mysql or postgres); defaults to DATASET_SOURCE")

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(jobsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func importCmd() *cobra.Command {
	cfg := config.Load()
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a CSV dataset into the admissions table",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			schemaPath, _ := cmd.Flags().GetString("schema")
			table, _ := cmd.Flags().GetString("table")
			batchSize, _ := cmd.Flags().GetInt("batch-size")
			replace, _ := cmd.Flags().GetBool("replace")
			publish, _ := cmd.Flags().GetBool("publish")

			db, err := openTarget(cmd, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			schema, err := admissions.LoadSchema(schemaPath)
			if err != nil {
				return fmt.Errorf("load schema: %w", err)
			}

			opts := []imports.Option{
				imports.WithBatchSize(batchSize),
				imports.WithTable(table),
				imports.WithReplace(replace),
			}
			if publish {
				producer := kafka.NewProducer(cfg.DatasetEventsTopic)
				defer producer.Close()
				opts = append(opts, imports.WithPublisher(producer))
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			importer := imports.NewImporter(db, opts...)
			if err := importer.Repository().AutoMigrate(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			job, err := importer.Run(ctx, admissions.NewCSVSource(file, schema))
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}

			fmt.Printf("Imported %d record(s) into %s (%d discarded), job %s\n", job.Written, job.Target, job.Discarded, job.ID)
			return nil
		},
	}
	cmd.Flags().String("file", cfg.DatasetPath, "CSV file to import (local path or s3://bucket/key)")
	cmd.Flags().String("schema", cfg.SchemaPath, "YAML column mapping")
	cmd.Flags().String("table", cfg.DatasetTable, "Target table")
	cmd.Flags().Int("batch-size", cfg.ImportBatchSize, "Rows per INSERT batch")
	cmd.Flags().Bool("replace", false, "Delete existing admissions before importing")
	cmd.Flags().Bool("publish", cfg.EventsEnabled, "Publish a dataset.imported event when done")
	return cmd
}

func migrateCmd() *cobra.Command {
	cfg := config.Load()
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the admissions and import job tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openTarget(cmd, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := imports.NewRepository(db).AutoMigrate(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("Migrations applied successfully.")
			return nil
		},
	}
}

func jobsCmd() *cobra.Command {
	cfg := config.Load()
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent import jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			db, err := openTarget(cmd, cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			jobs, err := imports.NewRepository(db).List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(jobs)
		},
	}
	cmd.Flags().Int("limit", 20, "Number of jobs to list")
	return cmd
}

func openTarget(cmd *cobra.Command, cfg *config.Config) (*gorm.DB, error) {
	target, _ := cmd.Flags().GetString("target")
	if target == "" {
		target = cfg.DatasetSource
	}
	if target == config.SourceCSV {
		target = config.SourcePostgres
	}
	return database.Open(target)
}
