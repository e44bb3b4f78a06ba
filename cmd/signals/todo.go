package main

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Kryostatic94/lsx-signal-workshop/internal/errors"
	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
	"github.com/Kryostatic94/lsx-signal-workshop/pkg/services/todo"
)

func todoCmd(opts *globalOptions) *cobra.Command {
	var (
		add        []string
		toggle     []int
		clearDone  bool
		skipSample bool
	)

	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Work through a todo list and watch its statistics",
		Long: `Load the sample todo list, apply the requested changes and print the
statistics from an effect after each change, then the final list.

Examples:
  signals todo
  signals todo --add="Write tests" --toggle=2
  signals todo --no-sample --add=one --add=two --clear-completed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTodo(cmd, opts, todoActions{
				sample: !skipSample,
				add:    add,
				toggle: toggle,
				clear:  clearDone,
			})
		},
	}

	cmd.Flags().StringArrayVarP(&add, "add", "a", nil, "Add a todo (repeatable)")
	cmd.Flags().IntSliceVarP(&toggle, "toggle", "t", nil, "Toggle todos by id")
	cmd.Flags().BoolVar(&clearDone, "clear-completed", false, "Remove completed todos at the end")
	cmd.Flags().BoolVar(&skipSample, "no-sample", false, "Start from an empty list")

	return cmd
}

type todoActions struct {
	sample bool
	add    []string
	toggle []int
	clear  bool
}

func runTodo(cmd *cobra.Command, opts *globalOptions, actions todoActions) error {
	app, err := opts.newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	svc := app.Todos()

	stats, err := reactive.NewEffect(app.Runtime(), func(func(reactive.Cleanup)) error {
		fmt.Fprintf(out, "total=%d completed=%d active=%d done=%d%%\n",
			svc.TotalTodos().Get(),
			svc.CompletedTodos().Get(),
			svc.ActiveTodos().Get(),
			svc.CompletionPercentage().Get(),
		)
		return nil
	}, reactive.EffectName("cli.todo"))
	if err != nil {
		return errors.FromReactive(err)
	}
	defer stats.Dispose()

	if actions.sample {
		if err := svc.LoadSampleData(); err != nil {
			return errors.FromReactive(err)
		}
	}
	for _, title := range actions.add {
		if _, err := svc.AddTodo(title); err != nil {
			return serviceError(err)
		}
	}
	for _, id := range actions.toggle {
		if err := svc.ToggleTodo(id); err != nil {
			return serviceError(err)
		}
	}
	if actions.clear {
		if err := svc.ClearCompleted(); err != nil {
			return errors.FromReactive(err)
		}
	}

	printTodos(out, svc.SortedTodos().Peek())
	return nil
}

func printTodos(w io.Writer, todos []todo.Todo) {
	fmt.Fprintln(w)
	for _, t := range todos {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %d. %s\n", mark, t.ID, t.Title)
	}
}

// serviceError maps service validation errors to S001 and everything else
// through the reactive mapping.
func serviceError(err error) error {
	if stderrors.Is(err, todo.ErrEmptyTitle) || stderrors.Is(err, todo.ErrNotFound) {
		return errors.FromError(err, "S001")
	}
	return errors.FromReactive(err)
}
