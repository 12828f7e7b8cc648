// Package main provides the luabreak CLI application entry point.
// luabreak is a Lua scripting shell with on-demand conditional breakpoints:
// any call site can break into an interactive debugger when a condition
// written in the caller's own scope holds.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "luabreak/internal/commands/debug" // Import for side effects (init functions)
	"luabreak/internal/debugger"
	"luabreak/internal/engine"
	"luabreak/internal/logger"
	"luabreak/internal/services"
	"luabreak/internal/version"
)

var (
	logLevel string
	logFile  string
	testMode bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "luabreak",
	Short: "luabreak - Lua shell with conditional breakpoints",
	Long: `luabreak is a Lua scripting shell whose breakpoint() call turns any
call site into a conditional breakpoint, evaluated in the caller's own
variable scope.`,
	Run: runShell,
}

// shellCmd represents the shell command (explicit version of default
// behavior).
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start interactive shell mode",
	Long:  `Start the interactive luabreak shell with the breakpoint trigger enabled.`,
	Run:   runShell,
}

// runCmd executes a script file non-interactively.
var runCmd = &cobra.Command{
	Use:   "run <script.lua>",
	Short: "Execute a .lua script file",
	Long: `Execute a .lua script file directly without entering interactive mode.
The breakpoint trigger defaults to disabled unless stdin is a terminal, so
left-in breakpoint() calls cost nothing in automation.`,
	Args: cobra.ExactArgs(1),
	Run:  runScript,
}

// versionCmd represents the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		detailed, _ := cmd.Flags().GetBool("detailed")
		if detailed {
			fmt.Println(version.GetDetailedVersion())
			return
		}
		fmt.Println(version.GetFormattedVersion())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&testMode, "test-mode", false, "Run in deterministic test mode")

	if err := viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("log-file", rootCmd.PersistentFlags().Lookup("log-file")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-file flag: %v\n", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("test-mode", rootCmd.PersistentFlags().Lookup("test-mode")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding test-mode flag: %v\n", err)
		os.Exit(1)
	}

	versionCmd.Flags().Bool("detailed", false, "Show detailed build information")

	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := logger.Configure(logLevel, logFile, testMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

func runShell(_ *cobra.Command, _ []string) {
	logger.Info("Starting luabreak", "version", version.GetVersion())

	if err := engine.InitializeServices(); err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}

	prompter, err := debugger.NewReadlinePrompter()
	if err != nil {
		logger.Fatal("Failed to create inspection prompt", "error", err)
	}

	sess, err := engine.NewSession(
		engine.WithInteractive(true),
		engine.WithTestMode(testMode),
		engine.WithPrompter(prompter),
	)
	if err != nil {
		logger.Fatal("Failed to start session", "error", err)
	}
	defer closeSession(sess)

	fmt.Printf("%s - Lua shell with conditional breakpoints\n", version.GetFormattedVersion())
	fmt.Println("Type breakpoint(\"<condition>\") to set a break, 'exit' to quit.")

	if err := sess.RunShell(shellPrompt()); err != nil {
		if debugger.IsQuit(err) {
			logger.Info("Debugging session terminated")
			return
		}
		logger.Fatal("Shell failed", "error", err)
	}
}

func runScript(_ *cobra.Command, args []string) {
	scriptPath := args[0]

	logger.Info("Starting luabreak run mode", "version", version.GetVersion(), "script", scriptPath)

	if err := validateScriptFile(scriptPath); err != nil {
		logger.Fatal("Script validation failed", "error", err)
	}

	if err := engine.InitializeServices(); err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}

	interactive := isatty.IsTerminal(os.Stdin.Fd())
	opts := []engine.Option{
		engine.WithInteractive(interactive),
		engine.WithTestMode(testMode),
	}
	if interactive {
		prompter, err := debugger.NewReadlinePrompter()
		if err != nil {
			logger.Fatal("Failed to create inspection prompt", "error", err)
		}
		opts = append(opts, engine.WithPrompter(prompter))
	}

	sess, err := engine.NewSession(opts...)
	if err != nil {
		logger.Fatal("Failed to start session", "error", err)
	}
	defer closeSession(sess)

	if err := sess.RunFile(scriptPath); err != nil {
		if debugger.IsQuit(err) {
			logger.Info("Debugging session terminated", "script", scriptPath)
			return
		}
		logger.Fatal("Script execution failed", "error", err)
	}

	logger.Info("Script executed successfully", "script", scriptPath)
}

func shellPrompt() string {
	svc, err := services.GetGlobalRegistry().GetService("config")
	if err != nil {
		return "lua> "
	}
	cfgSvc, ok := svc.(*services.ConfigService)
	if !ok {
		return "lua> "
	}
	return cfgSvc.ShellPrompt()
}

func closeSession(sess *engine.Session) {
	if err := sess.Close(); err != nil {
		logger.Error("Failed to close session", "error", err)
	}
}

func validateScriptFile(scriptPath string) error {
	if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
		return fmt.Errorf("script file does not exist: %s", scriptPath)
	}

	if ext := filepath.Ext(scriptPath); ext != ".lua" {
		return fmt.Errorf("script file must have .lua extension, got: %s", ext)
	}

	return nil
}
