package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kryostatic94/lsx-signal-workshop/internal/errors"
)

func errorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "errors [code]",
		Short: "List error codes or explain one",
		Long: `List every error code the CLI can report, or print the full
explanation and hint for one code.

Examples:
  signals errors
  signals errors R003`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, code := range errors.GetAllCodes() {
					t, _ := errors.GetTemplate(code)
					fmt.Fprintf(out, "%s  %-8s %s\n", code, t.Category, t.Message)
				}
				return nil
			}

			code := strings.ToUpper(args[0])
			t, ok := errors.GetTemplate(code)
			if !ok {
				return invalidFlag("unknown error code %q; run signals errors for the list", args[0])
			}
			fmt.Fprintf(out, "%s: %s\n", code, t.Message)
			fmt.Fprintf(out, "Category: %s\n", t.Category)
			if t.Detail != "" {
				fmt.Fprintf(out, "\n%s\n", t.Detail)
			}
			if t.Hint != "" {
				fmt.Fprintf(out, "\nHint: %s\n", t.Hint)
			}
			return nil
		},
	}
	return cmd
}
