// Package todo implements the workshop's computed-values example: a todo
// list with statistics derived from it.
package todo

import (
	"errors"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
)

var (
	// ErrEmptyTitle is returned by AddTodo for blank titles.
	ErrEmptyTitle = errors.New("todo: title must not be empty")

	// ErrNotFound is returned when no todo has the given id.
	ErrNotFound = errors.New("todo: not found")
)

// Todo is a single item.
type Todo struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// State is a snapshot of the list and its statistics.
type State struct {
	Todos                []Todo `json:"todos"`
	Total                int    `json:"total"`
	Completed            int    `json:"completed"`
	Active               int    `json:"active"`
	CompletionPercentage int    `json:"completionPercentage"`
}

// Option configures a Service.
type Option func(*Service)

// WithNow sets the time source used for CreatedAt.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service holds the todo list.
type Service struct {
	rt     *reactive.Runtime
	logger *slog.Logger
	now    func() time.Time

	todos  *reactive.SliceSignal[Todo]
	nextID atomic.Int64

	total                *reactive.Computed[int]
	completed            *reactive.Computed[int]
	active               *reactive.Computed[int]
	completionPercentage *reactive.Computed[int]
	sorted               *reactive.Computed[[]Todo]
}

// New creates an empty list. IDs start at 1.
func New(rt *reactive.Runtime, opts ...Option) *Service {
	s := &Service{
		rt:     rt,
		logger: rt.Logger().With("service", "todo"),
		now:    time.Now,
		todos:  reactive.NewSliceSignal[Todo](rt, nil),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.total = reactive.NewComputed(rt, func() int { return s.todos.Len() })
	s.completed = reactive.NewComputed(rt, func() int {
		return count(s.todos.Get(), func(t Todo) bool { return t.Completed })
	})
	s.active = reactive.NewComputed(rt, func() int {
		return count(s.todos.Get(), func(t Todo) bool { return !t.Completed })
	})
	s.completionPercentage = reactive.NewComputed(rt, func() int {
		total := s.total.Get()
		if total == 0 {
			return 0
		}
		return int(math.Round(float64(s.completed.Get()) / float64(total) * 100))
	})
	s.sorted = reactive.NewComputed(rt, func() []Todo {
		sorted := slices.Clone(s.todos.Get())
		slices.SortStableFunc(sorted, func(a, b Todo) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		return sorted
	})
	return s
}

// Todos is the list in insertion order.
func (s *Service) Todos() reactive.Readable[[]Todo] { return s.todos.ReadOnly() }

// TotalTodos is the number of todos.
func (s *Service) TotalTodos() reactive.Readable[int] { return s.total }

// CompletedTodos is the number of completed todos.
func (s *Service) CompletedTodos() reactive.Readable[int] { return s.completed }

// ActiveTodos is the number of todos not yet completed.
func (s *Service) ActiveTodos() reactive.Readable[int] { return s.active }

// CompletionPercentage is the rounded share of completed todos, 0 for an
// empty list.
func (s *Service) CompletionPercentage() reactive.Readable[int] { return s.completionPercentage }

// SortedTodos is the list, newest first.
func (s *Service) SortedTodos() reactive.Readable[[]Todo] { return s.sorted }

// AddTodo appends a todo with the trimmed title and returns it.
func (s *Service) AddTodo(title string) (Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Todo{}, ErrEmptyTitle
	}

	t := Todo{
		ID:        int(s.nextID.Add(1)),
		Title:     title,
		CreatedAt: s.now(),
	}
	s.logger.Debug("todo added", "id", t.ID)
	return t, s.todos.Append(t)
}

// ToggleTodo flips the completed flag of the todo with the given id.
func (s *Service) ToggleTodo(id int) error {
	return s.withTodo(id, func() {
		s.todos.UpdateWhere(
			func(t Todo) bool { return t.ID == id },
			func(t Todo) Todo {
				t.Completed = !t.Completed
				return t
			},
		)
	})
}

// DeleteTodo removes the todo with the given id.
func (s *Service) DeleteTodo(id int) error {
	return s.withTodo(id, func() {
		s.todos.RemoveWhere(func(t Todo) bool { return t.ID == id })
	})
}

// withTodo runs write in one batch with the existence check, so a concurrent
// delete cannot slip in between. Effect failures surface from the batch.
func (s *Service) withTodo(id int, write func()) error {
	found := false
	err := s.rt.Batch(func() {
		if found = s.has(id); found {
			write()
		}
	})
	if !found {
		return ErrNotFound
	}
	return err
}

// ClearCompleted removes every completed todo.
func (s *Service) ClearCompleted() error {
	return s.todos.RemoveWhere(func(t Todo) bool { return t.Completed })
}

// LoadSampleData replaces the list with three sample todos created an hour
// ago, half an hour ago and now; the oldest one is completed.
func (s *Service) LoadSampleData() error {
	now := s.now()
	samples := []Todo{
		{Title: "Learn Signals in Go", Completed: true, CreatedAt: now.Add(-time.Hour)},
		{Title: "Understand Computed and Effect", CreatedAt: now.Add(-30 * time.Minute)},
		{Title: "Use Untracked in effects", CreatedAt: now},
	}
	for i := range samples {
		samples[i].ID = int(s.nextID.Add(1))
	}
	s.logger.Debug("sample data loaded", "count", len(samples))
	return s.todos.Set(samples)
}

// State returns a snapshot with the list newest first. Reads are tracked.
func (s *Service) State() State {
	return State{
		Todos:                s.sorted.Get(),
		Total:                s.total.Get(),
		Completed:            s.completed.Get(),
		Active:               s.active.Get(),
		CompletionPercentage: s.completionPercentage.Get(),
	}
}

func (s *Service) has(id int) bool {
	return slices.ContainsFunc(s.todos.Peek(), func(t Todo) bool { return t.ID == id })
}

func count(todos []Todo, pred func(Todo) bool) int {
	n := 0
	for _, t := range todos {
		if pred(t) {
			n++
		}
	}
	return n
}
