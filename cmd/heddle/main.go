package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joshharrison/heddle/internal/config"
	"github.com/joshharrison/heddle/internal/engine"
	"github.com/joshharrison/heddle/internal/insight"
	"github.com/joshharrison/heddle/internal/report"
	"github.com/joshharrison/heddle/internal/store"
	"github.com/joshharrison/heddle/internal/task"
	"github.com/joshharrison/heddle/internal/ui"
)

var (
	flagTasks       string
	flagConfig      string
	flagJSON        bool
	flagAI          bool
	flagModel       string
	flagAgentID     string
	flagAgentSkills string
)

func main() {
	// Best effort: an absent .env is fine, the API key may come from
	// the environment proper.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "heddle",
		Short: "Decide which task an agent may safely receive next",
		Long: `Heddle reads a task snapshot, infers a dependency graph from task text,
computes the critical path, and fuses mandatory safety rules with optional
AI scoring to recommend the best next task for an agent.`,
	}

	rootCmd.PersistentFlags().StringVar(&flagTasks, "tasks", "tasks.json", "Task snapshot JSON file")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&flagAI, "ai", false, "Enable AI insight scoring (needs ANTHROPIC_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "Anthropic model override")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if !flagJSON {
			ui.PrintLogo()
		}
	}

	rootCmd.AddCommand(inferCmd())
	rootCmd.AddCommand(pathCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(evalCmd())
	rootCmd.AddCommand(pickCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildEngine is shared wiring for all commands.
func buildEngine() (*engine.Engine, *task.Snapshot, error) {
	cfg := config.Default()
	if flagConfig != "" {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return nil, nil, err
		}
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}

	var provider insight.Provider
	if flagAI {
		p, err := insight.NewAnthropic("", cfg.Model)
		if err != nil {
			return nil, nil, fmt.Errorf("enable AI scoring: %w", err)
		}
		provider = p
	}

	eng, err := engine.New(cfg, provider)
	if err != nil {
		return nil, nil, err
	}

	snap, err := store.LoadSnapshot(flagTasks)
	if err != nil {
		return nil, nil, err
	}
	if snap.Len() == 0 {
		return nil, nil, fmt.Errorf("no tasks in snapshot")
	}
	return eng, snap, nil
}

func agentFromFlags() *task.Agent {
	if flagAgentID == "" && flagAgentSkills == "" {
		return nil
	}
	a := &task.Agent{ID: flagAgentID}
	if flagAgentSkills != "" {
		for _, s := range strings.Split(flagAgentSkills, ",") {
			if s = strings.TrimSpace(s); s != "" {
				a.Skills = append(a.Skills, s)
			}
		}
	}
	return a
}

func inferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "infer",
		Short: "Infer the dependency graph from the task snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, snap, err := buildEngine()
			if err != nil {
				return err
			}
			g, err := eng.InferDependencies(snap)
			if err != nil {
				return err
			}
			a := report.Build(g, nil, eng.Validate(g), nil, nil)
			if flagJSON {
				return a.WriteJSON(os.Stdout)
			}
			a.PrintEdges(os.Stdout, g)
			return nil
		},
	}
}

func pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Compute the critical path and parallel waves",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, snap, err := buildEngine()
			if err != nil {
				return err
			}
			g, err := eng.InferDependencies(snap)
			if err != nil {
				return err
			}
			path, err := eng.CriticalPath(g)
			if err != nil {
				return err
			}
			a := report.Build(g, path, eng.Validate(g), nil, nil)
			if flagJSON {
				return a.WriteJSON(os.Stdout)
			}
			a.PrintCriticalPath(os.Stdout, g, path)
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run graph diagnostics: cycles, isolated tasks, missing test gates",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, snap, err := buildEngine()
			if err != nil {
				return err
			}
			// Diagnose the unresolved graph so cycles are visible.
			g := eng.BuildGraph(snap)
			a := report.Build(g, nil, eng.Validate(g), nil, nil)
			if flagJSON {
				return a.WriteJSON(os.Stdout)
			}
			a.PrintValidation(os.Stdout)
			return nil
		},
	}
}

func evalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <task-id>",
		Short: "Evaluate whether one task may be assigned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, snap, err := buildEngine()
			if err != nil {
				return err
			}
			t := snap.Get(args[0])
			if t == nil {
				return fmt.Errorf("task %s not in snapshot", args[0])
			}
			d, err := eng.EvaluateAssignment(cmd.Context(), t, snap, agentFromFlags())
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(d)
			}
			icon := ui.VerdictIcon(d.Allow, d.SafetyCritical)
			fmt.Printf("%s %s %s %s\n", ui.BoldCyan("🧵 Heddle"), icon, ui.TaskPrefix(t.ID), d.Reason)
			fmt.Printf("  confidence %.2f", d.Confidence)
			if d.Degraded {
				fmt.Printf(" %s", ui.Yellow("(ai degraded)"))
			}
			fmt.Println()
			return nil
		},
	}
	addAgentFlags(cmd)
	return cmd
}

func pickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Select the best next task for an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, snap, err := buildEngine()
			if err != nil {
				return err
			}
			agent := agentFromFlags()
			best, candidates, err := eng.SelectBestTask(cmd.Context(), agent, snap)
			if err != nil {
				return err
			}
			g, err := eng.InferDependencies(snap)
			if err != nil {
				return err
			}
			path, err := eng.CriticalPath(g)
			if err != nil {
				return err
			}
			a := report.Build(g, path, eng.Validate(g), candidates, best)
			if flagJSON {
				return a.WriteJSON(os.Stdout)
			}
			a.PrintSelection(os.Stdout, agent)
			return nil
		},
	}
	addAgentFlags(cmd)
	return cmd
}

func addAgentFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagAgentID, "agent", "", "Agent id")
	cmd.Flags().StringVar(&flagAgentSkills, "skills", "", "Comma-separated agent skills")
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
