package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/noamgal/duty-roster/internal/config"
	"github.com/noamgal/duty-roster/pkg/core/model"
	"github.com/noamgal/duty-roster/pkg/core/scheduler"
	"github.com/noamgal/duty-roster/pkg/core/services"
	"github.com/noamgal/duty-roster/pkg/postgres"
	"github.com/noamgal/duty-roster/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg      *config.Config
	database *postgres.DB
	logger   *zap.Logger
	ctx      context.Context
}

var (
	env string
	app *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Duty Roster CLI - Generate and reconcile duty schedules",
		Long:  `A CLI tool for generating secondary duty schedules, checking them against the primary roster, and tracking closing cadence.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.logger != nil {
					app.logger.Sync()
				}
				if app.database != nil {
					app.database.Close()
				}
			}
		},
	}

	// Add persistent environment flag
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	// Add all commands
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(conflictsCmd())
	rootCmd.AddCommand(closingAnalysisCmd())
	rootCmd.AddCommand(listWorkersCmd())
	rootCmd.AddCommand(interactiveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, and database
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	// Initialize logger
	app.logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	// Load configuration
	app.logger.Info("Loading configuration")
	app.cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.logger.Debug("Configuration loaded successfully")

	// Connect to the database and apply migrations
	app.logger.Info("Connecting to database")
	app.database, err = postgres.NewDB(app.ctx, app.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := app.database.RunMigrations(app.ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.logger.Info("Database initialized successfully")

	return nil
}

// Command definitions

func generateCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "generate <start> <end>",
		Short: "Generate a duty schedule for the date range (dates as YYYY-MM-DD)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse("2006-01-02", args[0])
			if err != nil {
				return fmt.Errorf("start must be YYYY-MM-DD: %w", err)
			}
			end, err := time.Parse("2006-01-02", args[1])
			if err != nil {
				return fmt.Errorf("end must be YYYY-MM-DD: %w", err)
			}

			result, err := services.GenerateSchedule(app.ctx, app.database, app.cfg, app.logger, start, end, dryRun)
			if err != nil {
				return err
			}

			printGrid(result.Grid)
			printReport(result.Report)

			if result.Persisted {
				fmt.Printf("\n✓ Schedule saved (window %s)\n", result.Window.ID)
			} else {
				fmt.Printf("\nDry run - nothing saved\n")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Generate without saving")
	return cmd
}

func conflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "Cross-check saved schedules against the primary duty roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := services.FindConflicts(app.ctx, app.database, app.logger)
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("\n✓ No conflicts found")
				return nil
			}

			fmt.Printf("\n%d conflict(s) found:\n\n", len(records))
			for _, r := range records {
				fmt.Printf("  %s  %-12s primary: %-16s secondary: %s\n",
					model.DateKey(r.Date), r.WorkerID, r.PrimaryTask, r.SecondaryTask)
			}
			return nil
		},
	}
}

func closingAnalysisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "closing-analysis",
		Short: "Report each worker's actual closing cadence against their target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.AnalyzeClosing(app.ctx, app.database, app.logger)
			if err != nil {
				return err
			}

			fmt.Printf("\nClosing cadence (target accuracy %.0f%%):\n\n", result.AccuracyRate*100)
			for _, s := range result.Workers {
				if s.TargetIntervalWeeks == 0 {
					continue
				}
				marker := " "
				if s.Closings >= 2 && !s.WithinTarget {
					marker = "!"
				}
				fmt.Printf("  %s %-12s target %dw  closings %d  avg %.1fw\n",
					marker, s.Name, s.TargetIntervalWeeks, s.Closings, s.AvgIntervalWeeks)
			}
			return nil
		},
	}
}

func listWorkersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workers",
		Short: "List the worker roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			workers, err := services.ListWorkers(app.ctx, app.database, app.logger)
			if err != nil {
				return err
			}

			fmt.Printf("\n%d worker(s):\n\n", len(workers))
			for _, w := range workers {
				closing := "never closes"
				if w.CanClose() {
					closing = fmt.Sprintf("closes every %dw", w.ClosingIntervalWeeks)
				}
				fmt.Printf("  %-12s %-20s score %6.1f  %s  %v\n",
					w.ID, w.Name, w.Score, closing, w.Qualifications)
			}
			return nil
		},
	}
}

func interactiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (connect once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands over a single
database connection. The session keeps running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("\nStarting interactive session...")
			fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave")

			// Get all sibling commands (excluding interactive itself)
			rootCmd := cmd.Parent()
			commands := make(map[string]*cobra.Command)
			for _, subCmd := range rootCmd.Commands() {
				if subCmd.Name() != "interactive" && subCmd.Name() != "completion" && subCmd.Name() != "help" {
					commands[subCmd.Name()] = subCmd
				}
			}

			scanner := bufio.NewScanner(os.Stdin)

			for {
				fmt.Print("> ")

				if !scanner.Scan() {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}

				parts := strings.Fields(line)
				cmdName := parts[0]
				cmdArgs := parts[1:]

				if cmdName == "exit" || cmdName == "quit" {
					fmt.Println("Goodbye!")
					return nil
				}

				if cmdName == "help" {
					printInteractiveHelp(commands)
					continue
				}

				targetCmd, exists := commands[cmdName]
				if !exists {
					fmt.Printf("Unknown command: %s (type 'help' for available commands)\n\n", cmdName)
					continue
				}

				// Reset command flags so a previous invocation's values
				// don't leak into this one
				targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
					flag.Changed = false
					flag.Value.Set(flag.DefValue)
				})

				// Execute the command's RunE directly, bypassing the full
				// Execute() flow. This avoids re-running PersistentPreRunE
				// which would call initApp() again.
				if err := targetCmd.ParseFlags(cmdArgs); err != nil {
					fmt.Printf("Error parsing flags: %v\n\n", err)
					continue
				}

				cmdArgs = targetCmd.Flags().Args()

				if err := targetCmd.Args(targetCmd, cmdArgs); err != nil {
					fmt.Printf("Error: %v\n\n", err)
					continue
				}

				if targetCmd.RunE != nil {
					if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
						fmt.Printf("Error: %v\n\n", err)
					}
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}

			return nil
		},
	}
}

func printInteractiveHelp(commands map[string]*cobra.Command) {
	fmt.Println("\nAvailable commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Printf("  %-30s %s\n", cmd.Use, cmd.Short)
	}

	fmt.Println("\n  help                           Show this help message")
	fmt.Println("  exit, quit                     Exit the interactive session")
}

// printGrid renders the schedule day by day.
func printGrid(grid *model.AssignmentGrid) {
	fmt.Printf("\nSchedule:\n")
	for dateIdx, date := range grid.Dates {
		line := fmt.Sprintf("  %s (%s)", model.DateKey(date), date.Weekday().String()[:3])
		filled := false
		for taskIdx, task := range grid.Tasks {
			if id, ok := grid.Get(taskIdx, dateIdx); ok {
				line += fmt.Sprintf("  %s=%s", task.Type, id)
				filled = true
			}
		}
		if !filled {
			line += "  (empty)"
		}
		fmt.Println(line)
	}
}

// printReport renders issue-report entries as warnings.
func printReport(report *scheduler.IssueReport) {
	if !report.HasIssues() {
		return
	}

	if len(report.Relaxations) > 0 {
		fmt.Printf("\nRelaxed fills:\n")
		for _, note := range report.Relaxations {
			fmt.Printf("  %s %-12s -> %s (waived:", model.DateKey(note.Date), note.Task, note.WorkerID)
			for _, c := range note.Waived {
				fmt.Printf(" %s", c)
			}
			fmt.Println(")")
		}
	}

	if len(report.Unfilled) > 0 {
		fmt.Printf("\nUnfilled slots:\n")
		for _, issue := range report.Unfilled {
			fmt.Printf("  %s %-12s %s", model.DateKey(issue.Date), issue.Task, issue.Cause)
			if len(issue.Rejections) > 0 {
				fmt.Printf("  (")
				for i, rej := range issue.Rejections {
					if i > 0 {
						fmt.Printf(", ")
					}
					fmt.Printf("%s: %s", rej.WorkerID, rej.Reason)
				}
				fmt.Printf(")")
			}
			fmt.Println()
		}
	}
}
