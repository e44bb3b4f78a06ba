package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kryostatic94/lsx-signal-workshop/internal/errors"
	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
)

func counterCmd(opts *globalOptions) *cobra.Command {
	var (
		steps int
		set   int
	)

	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Drive the counter and watch its derived values",
		Long: `Drive the counter service and print its state from an effect.

The effect reads count, doubleCount and isEven, so it prints one
line per change: after each increment, the optional --set, one
decrement and the final reset.

Examples:
  signals counter
  signals counter --steps=5 --set=42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 0 {
				return invalidFlag("--steps must not be negative, got %d", steps)
			}
			var custom *int
			if cmd.Flags().Changed("set") {
				custom = &set
			}
			return runCounter(cmd, opts, steps, custom)
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 3, "Number of increments")
	cmd.Flags().IntVar(&set, "set", 0, "Value to set after the increments")

	return cmd
}

func runCounter(cmd *cobra.Command, opts *globalOptions, steps int, custom *int) error {
	app, err := opts.newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	c := app.Counter()

	display, err := reactive.NewEffect(app.Runtime(), func(func(reactive.Cleanup)) error {
		s := c.State()
		fmt.Fprintf(out, "count=%d double=%d even=%t\n", s.Count, s.DoubleCount, s.IsEven)
		return nil
	}, reactive.EffectName("cli.counter"))
	if err != nil {
		return errors.FromReactive(err)
	}
	defer display.Dispose()

	for i := 0; i < steps; i++ {
		if err := c.Increment(); err != nil {
			return errors.FromReactive(err)
		}
	}
	if custom != nil {
		if err := c.SetCustomValue(*custom); err != nil {
			return errors.FromReactive(err)
		}
	}
	if err := c.Decrement(); err != nil {
		return errors.FromReactive(err)
	}
	if err := c.Reset(); err != nil {
		return errors.FromReactive(err)
	}
	return nil
}
