package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	workshop "github.com/Kryostatic94/lsx-signal-workshop"
	"github.com/Kryostatic94/lsx-signal-workshop/internal/config"
	"github.com/Kryostatic94/lsx-signal-workshop/internal/errors"
)

// Version information set at build time.
var (
	commit = "none"
	date   = "unknown"
)

const banner = `
  ┌─┐┬┌─┐┌┐┌┌─┐┬  ┌─┐
  └─┐││ ┬│││├─┤│  └─┐
  └─┘┴└─┘┘└┘┴ ┴┴─┘└─┘
`

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath  string
	debug       bool
	noColor     bool
	errorFormat string
}

func init() {
	errors.Register("X002", errors.ErrorTemplate{
		Category: errors.CategoryCLI,
		Message:  "Command failed",
		Detail:   "The command stopped with an error that has no more specific code.",
		Hint:     "Run with --debug for details, or see signals --help",
	})
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and prints a failure in the --error-format style.
// It returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		format, _ := cmd.PersistentFlags().GetString("error-format")
		printError(stderr, err, format)
		return 1
	}
	return 0
}

// printError writes err as text (default), compact or json.
func printError(w io.Writer, err error, format string) {
	ce := errors.FromError(err, "X002")
	switch format {
	case "json":
		fmt.Fprintln(w, ce.FormatJSON())
	case "compact":
		fmt.Fprintln(w, ce.FormatCompact())
	default:
		errors.PrintError(w, ce)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "signals",
		Short: "A hands-on tour of signals, computed values and effects",
		Long: `signals drives the reactive workshop services from the terminal.

Each command builds a fresh reactive runtime from workshop.json
(or workshop.yaml) and shows one part of it in action:

  • counter    signals and computed values
  • todo       derived list statistics
  • analytics  effects with timers and cleanup
  • inspect    a live HTTP/WebSocket view of all services`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				errors.DisableColors()
			} else {
				errors.EnableColors()
			}
			switch opts.errorFormat {
			case "text", "compact", "json":
				return nil
			default:
				return invalidFlag("--error-format must be text, compact or json, got %q", opts.errorFormat)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to workshop.json or workshop.yaml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored error output")
	rootCmd.PersistentFlags().StringVar(&opts.errorFormat, "error-format", "text", "Error output: text, compact or json")

	rootCmd.AddCommand(
		counterCmd(opts),
		todoCmd(opts),
		analyticsCmd(opts),
		inspectCmd(opts),
		errorsCmd(),
		versionCmd(),
	)

	return rootCmd
}

// loadConfig reads the configuration named by --config, or the nearest
// project config, and applies --debug.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}
	if o.debug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// newApp builds the workshop App with logs going to logOut.
func (o *globalOptions) newApp(logOut io.Writer, opts ...workshop.Option) (*workshop.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	base := []workshop.Option{workshop.WithLogger(cfg.NewLogger(logOut))}
	app, err := workshop.New(cfg, append(base, opts...)...)
	if err != nil {
		return nil, errors.FromReactive(err)
	}
	return app, nil
}

// invalidFlag reports a bad flag value.
func invalidFlag(format string, args ...any) error {
	return errors.New("X001").WithDetail(fmt.Sprintf(format, args...))
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
