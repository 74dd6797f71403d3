package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hogarlabs/domoctl/internal/draft"
	"github.com/hogarlabs/domoctl/internal/executor"
	"github.com/hogarlabs/domoctl/internal/notify"
	"github.com/hogarlabs/domoctl/internal/storage"
	"github.com/hogarlabs/domoctl/internal/tasks"
	"github.com/hogarlabs/domoctl/internal/update"
)

var rootCmd = &cobra.Command{
	Use:   "domoctl",
	Short: "domoctl - home schedule and task control",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive TUI with the schedule executor",
	RunE:  runTUI,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the task list to a CSV file",
	RunE:  runExport,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down]",
	Short: "Apply or roll back the database schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runMigrate,
}

var exportPathFlag string

func init() {
	exportCmd.Flags().StringVarP(&exportPathFlag, "output", "o", "tareas.csv", "Destination file")
	rootCmd.AddCommand(runCmd, exportCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg := update.RuntimeConfigFromEnv(update.DefaultRuntimeConfig())

	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	if err := storage.MigrateUp(repo.DB()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx := context.Background()
	devices, err := repo.ListDevices(ctx)
	if err != nil {
		return fmt.Errorf("load devices: %w", err)
	}
	schedules, err := repo.ListSchedules(ctx, cfg.Owner)
	if err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}

	hub := update.NewHub(64)

	engine, err := executor.NewEngine(executor.Config{
		Store:       repo,
		Notifier:    hub,
		Warnings:    notify.NewDebouncer(time.Duration(cfg.WarnCooldownMinutes)*time.Minute, time.Now),
		Interval:    time.Duration(cfg.TickSeconds) * time.Second,
		Suppression: time.Duration(cfg.SuppressionSeconds) * time.Second,
		OnApplied:   hub.ScheduleApplied,
	})
	if err != nil {
		return fmt.Errorf("create executor: %w", err)
	}
	defer engine.Stop()

	svc, err := tasks.NewService(tasks.Config{
		Owner:    cfg.Owner,
		Store:    repo,
		Notifier: hub,
		Due:      notify.NewDebouncer(time.Duration(cfg.DueCooldownHours)*time.Hour, time.Now),
	})
	if err != nil {
		return fmt.Errorf("create task service: %w", err)
	}
	if err := svc.Load(ctx); err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	m := update.NewModel(update.Deps{
		Config: cfg,
		Repo:   repo,
		Engine: engine,
		Tasks:  svc,
		Drafts: draft.NewFileStore(cfg.DraftPath),
		Hub:    hub,
	})
	m.Bootstrap(schedules, devices)

	program := tea.NewProgram(m)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("domoctl failed: %w", err)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := update.RuntimeConfigFromEnv(update.DefaultRuntimeConfig())

	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	if err := storage.MigrateUp(repo.DB()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	list, err := repo.ListTasks(context.Background(), cfg.Owner)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	payload := tasks.ToCSV(list)
	if err := os.WriteFile(exportPathFlag, []byte(payload+"\n"), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Printf("Exportadas %d tareas a %s\n", len(list), exportPathFlag)
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := update.RuntimeConfigFromEnv(update.DefaultRuntimeConfig())

	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	switch args[0] {
	case "up":
		if err := storage.MigrateUp(repo.DB()); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		if err := storage.MigrateDown(repo.DB()); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	default:
		return fmt.Errorf("unknown direction %q (use up or down)", args[0])
	}
	fmt.Println("Migración aplicada")
	return nil
}
