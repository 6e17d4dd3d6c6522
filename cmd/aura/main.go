package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"os/user"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"aura/internal/config"
	"aura/internal/engine"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	sender     string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aura",
	Short: "aura - natural language command engine",
	Long: `aura resolves natural language commands (Spanish and English) into
skill executions: opening applications, searching files, scheduling
reminders. Low-confidence interpretations are tried in parallel and the
best outcome wins; every decision is journaled so you can grade it with
!correct / !wrong.

Run without arguments to start the interactive prompt.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

// runCmd executes a single utterance and exits
var runCmd = &cobra.Command{
	Use:   "run [utterance]",
	Short: "Resolve and execute a single command",
	Long: `Processes one utterance through the full pipeline:
  1. Normalize: lowercase, strip diacritics and filler words
  2. Extract: pull app/file/time/date/duration/number entities
  3. Parse: resolve the intent with a confidence score
  4. Dispatch: run the matching skill (trying alternatives when unsure)`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOnce,
}

// skillsCmd lists registered skills
var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List registered skills",
	RunE:  listSkills,
}

// configCmd groups configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and initialize configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  configShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to .aura/config.yaml",
	RunE:  configInit,
}

// reflectCmd groups reflection journal commands
var reflectCmd = &cobra.Command{
	Use:   "reflect",
	Short: "Inspect the reflection journal",
}

var reflectStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Per-intent accuracy statistics",
	RunE:  reflectStats,
}

var reflectRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recent journaled commands",
	RunE:  reflectRecent,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: <workspace>/.aura/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&sender, "sender", "", "sender name attached to commands (default: OS user)")

	configCmd.AddCommand(configShowCmd, configInitCmd)
	reflectCmd.AddCommand(reflectStatsCmd, reflectRecentCmd)
	rootCmd.AddCommand(runCmd, skillsCmd, configCmd, reflectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves flags into an effective configuration.
func loadConfig() (*config.Config, error) {
	ws := workspace
	if ws == "" {
		ws = "."
	}
	path := configPath
	if path == "" {
		path = config.DefaultPath(ws)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if workspace != "" {
		cfg.Workspace = workspace
	}
	if verbose {
		cfg.Logging.DebugMode = true
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func senderName() string {
	if sender != "" {
		return sender
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "user"
}

// buildEngine constructs a fully wired engine with real side effects:
// process launching and terminal notifications.
func buildEngine() (*engine.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	e, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}

	e.SetLauncher(func(executable string) error {
		logger.Debug("launching", zap.String("executable", executable))
		return exec.Command(executable).Start()
	})
	e.SetNotifier(func(message string) {
		fmt.Printf("\n[aura] %s\n> ", message)
	})
	return e, nil
}

func runOnce(cmd *cobra.Command, args []string) error {
	e, err := buildEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	utterance := strings.Join(args, " ")
	logger.Info("processing", zap.String("input", utterance))

	resp := e.Process(cmd.Context(), utterance, senderName())
	fmt.Println(resp.Text)

	if resp.Result != nil && !resp.Result.Success {
		// Exit nonzero so scripts can branch on failure.
		os.Exit(1)
	}
	return nil
}

func runInteractive() error {
	e, err := buildEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		fmt.Println("\nbye")
		e.Close()
		os.Exit(0)
	}()

	who := senderName()
	fmt.Printf("aura %s - %d skills loaded. Type a command, or 'exit'.\n",
		e.Config().Version, e.Registry().Count())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		if line == "" {
			continue
		}

		resp := e.Process(ctx, line, who)
		if resp.Text != "" {
			fmt.Println(resp.Text)
		}
	}
	return scanner.Err()
}

func listSkills(cmd *cobra.Command, args []string) error {
	e, err := buildEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Printf("%d registered skills:\n", e.Registry().Count())
	for _, ip := range e.Registry().IntentPatterns() {
		fmt.Printf("  - %s\n", ip.Intent)
		for _, p := range ip.Patterns {
			fmt.Printf("      pattern: %s\n", p.String())
		}
	}
	return nil
}

func configShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("workspace:            %s\n", cfg.Workspace)
	fmt.Printf("lexicon:              %s (watch=%v)\n", orDefault(cfg.NLU.LexiconPath, "<built-in>"), cfg.NLU.WatchLexicon)
	fmt.Printf("confidence threshold: %.2f\n", cfg.Executor.ConfidenceThreshold)
	fmt.Printf("max alternatives:     %d\n", cfg.Executor.MaxAlternatives)
	fmt.Printf("executor timeout:     %s\n", cfg.Executor.Timeout)
	fmt.Printf("reflection:           enabled=%v db=%s\n", cfg.Reflection.Enabled, orDefault(cfg.Reflection.DatabasePath, "<in-memory>"))
	fmt.Printf("debug logging:        %v\n", cfg.Logging.DebugMode)
	return nil
}

func configInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := config.DefaultPath(cfg.Workspace)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func reflectStats(cmd *cobra.Command, args []string) error {
	e, err := buildEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	if e.Observer() == nil {
		return fmt.Errorf("reflection is disabled")
	}
	stats, err := e.Observer().Stats()
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		fmt.Println("journal is empty")
		return nil
	}

	fmt.Printf("%-15s %8s %8s %8s %8s\n", "INTENT", "TOTAL", "OK", "CORRECT", "WRONG")
	for _, st := range stats {
		fmt.Printf("%-15s %8d %8d %8d %8d\n", st.Intent, st.Total, st.Succeeded, st.Correct, st.Wrong)
	}
	return nil
}

func reflectRecent(cmd *cobra.Command, args []string) error {
	e, err := buildEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	if e.Observer() == nil {
		return fmt.Errorf("reflection is disabled")
	}
	recent, err := e.Observer().Recent(20)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Println("journal is empty")
		return nil
	}

	for _, r := range recent {
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		grade := ""
		if r.Feedback != "" {
			grade = " [" + r.Feedback
			if r.CorrectedIntent != "" {
				grade += " -> " + r.CorrectedIntent
			}
			grade += "]"
		}
		fmt.Printf("%s  %-12s %-6s %q%s\n",
			r.Timestamp.Format("2006-01-02 15:04:05"), r.Intent, status, r.RawText, grade)
	}
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
