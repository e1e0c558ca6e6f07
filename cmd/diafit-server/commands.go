package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diafit/diafit/internal/config"
	"github.com/diafit/diafit/internal/domain/food"
	"github.com/diafit/diafit/internal/domain/note"
	"github.com/diafit/diafit/internal/platform/db"
	"github.com/diafit/diafit/internal/platform/vault"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			ctx := context.Background()

			migrator, closeFn, err := openMigrator(ctx, dir)
			if err != nil {
				return err
			}
			defer closeFn()

			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			ctx := context.Background()

			migrator, closeFn, err := openMigrator(ctx, dir)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			writeMigrationStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func openMigrator(ctx context.Context, dir string) (*db.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return nil, nil, err
	}
	if dir == "" {
		dir = cfg.MigrationsDir
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return db.NewMigrator(pool, dir), pool.Close, nil
}

func writeMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func notesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Maintain encrypted medical notes",
	}

	rekeyCmd := &cobra.Command{
		Use:   "rekey",
		Short: "Re-encrypt every medical note from --old-secret to ENCRYPTION_KEY",
		Long: "Re-encrypt every medical note in one transaction. Stop the API server first:\n" +
			"notes written under the old secret while this runs would be left behind.",
		RunE: func(cmd *cobra.Command, args []string) error {
			oldSecret, _ := cmd.Flags().GetString("old-secret")
			if oldSecret == "" {
				return fmt.Errorf("--old-secret is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			if oldSecret == cfg.EncryptionKey {
				return fmt.Errorf("--old-secret matches ENCRYPTION_KEY; nothing to do")
			}

			from, err := vault.New(oldSecret)
			if err != nil {
				return err
			}
			to, err := vault.New(cfg.EncryptionKey)
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := note.NewService(note.NewRepoPG(pool), to, nil, txFunc(pool))
			count, err := svc.Rekey(ctx, from, to)
			if err != nil {
				return fmt.Errorf("rekey failed, no notes changed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Re-encrypted %d medical note(s).\n", count)
			return nil
		},
	}
	rekeyCmd.Flags().String("old-secret", "", "Passphrase the notes are currently encrypted with")
	cmd.AddCommand(rekeyCmd)

	return cmd
}

func foodCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "food",
		Short: "Food suitability tools",
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze NAME",
		Short: "Classify a food without starting the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			s := food.Sample{Name: strings.Join(args, " ")}
			s.Calories, _ = flags.GetFloat64("calories")
			s.CarbohydrateGrams, _ = flags.GetFloat64("carbs")
			s.ProteinGrams, _ = flags.GetFloat64("protein")
			s.FatGrams, _ = flags.GetFloat64("fat")
			asJSON, _ := flags.GetBool("json")
			return runFoodAnalyze(cmd.OutOrStdout(), s, asJSON)
		},
	}
	analyzeCmd.Flags().Float64("calories", 0, "Calories (kcal)")
	analyzeCmd.Flags().Float64("carbs", 0, "Carbohydrates (g)")
	analyzeCmd.Flags().Float64("protein", 0, "Protein (g)")
	analyzeCmd.Flags().Float64("fat", 0, "Fat (g)")
	analyzeCmd.Flags().Bool("json", false, "Print the verdict as JSON")
	cmd.AddCommand(analyzeCmd)

	return cmd
}

func runFoodAnalyze(w io.Writer, s food.Sample, asJSON bool) error {
	if err := s.Validate(); err != nil {
		return err
	}
	v := food.Analyze(s.Normalize())

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	fmt.Fprintf(w, "%s: %s (glycemic score %.1f)\n", v.FoodName, v.Suitability, v.GlycemicScore)
	fmt.Fprintf(w, "  %s\n", v.Reason)
	fmt.Fprintf(w, "  Tip: %s\n", v.Tip)
	for _, warning := range v.Warnings {
		fmt.Fprintf(w, "  ! %s\n", warning)
	}
	return nil
}
