package todo

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Kryostatic94/lsx-signal-workshop/pkg/reactive"
)

// steppingClock returns a time one minute later on every call.
type steppingClock struct {
	t time.Time
}

func (c *steppingClock) now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestService() (*reactive.Runtime, *Service, *steppingClock) {
	rt := reactive.NewRuntime(reactive.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	clock := &steppingClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return rt, New(rt, WithNow(clock.now)), clock
}

func ids(todos []Todo) []int {
	out := make([]int, len(todos))
	for i, t := range todos {
		out[i] = t.ID
	}
	return out
}

func TestAddTodo(t *testing.T) {
	_, s, _ := newTestService()

	first, err := s.AddTodo("  write tests  ")
	if err != nil {
		t.Fatalf("AddTodo: %v", err)
	}
	if first.ID != 1 || first.Title != "write tests" || first.Completed {
		t.Errorf("unexpected todo %+v", first)
	}

	second, _ := s.AddTodo("ship it")
	if second.ID != 2 {
		t.Errorf("expected id 2, got %d", second.ID)
	}

	if _, err := s.AddTodo("   "); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
	if got := s.TotalTodos().Get(); got != 2 {
		t.Errorf("TotalTodos = %d, want 2", got)
	}
}

func TestStatistics(t *testing.T) {
	_, s, _ := newTestService()

	if got := s.CompletionPercentage().Get(); got != 0 {
		t.Errorf("empty CompletionPercentage = %d, want 0", got)
	}

	for _, title := range []string{"a", "b", "c"} {
		s.AddTodo(title)
	}
	s.ToggleTodo(1)

	st := s.State()
	if st.Total != 3 || st.Completed != 1 || st.Active != 2 {
		t.Errorf("unexpected counts %+v", st)
	}
	if st.CompletionPercentage != 33 {
		t.Errorf("CompletionPercentage = %d, want 33", st.CompletionPercentage)
	}

	s.ToggleTodo(2)
	if got := s.CompletionPercentage().Get(); got != 67 {
		t.Errorf("CompletionPercentage = %d, want 67", got)
	}

	s.ToggleTodo(2)
	if got := s.CompletedTodos().Get(); got != 1 {
		t.Errorf("CompletedTodos = %d, want 1 after toggling back", got)
	}
}

func TestSortedTodosNewestFirst(t *testing.T) {
	_, s, _ := newTestService()

	s.AddTodo("old")
	s.AddTodo("middle")
	s.AddTodo("new")

	got := ids(s.SortedTodos().Get())
	if len(got) != 3 || got[0] != 3 || got[1] != 2 || got[2] != 1 {
		t.Errorf("SortedTodos ids = %v, want [3 2 1]", got)
	}

	// The insertion-ordered list is untouched.
	if got := ids(s.Todos().Get()); got[0] != 1 {
		t.Errorf("Todos ids = %v, want insertion order", got)
	}
}

func TestDeleteAndClearCompleted(t *testing.T) {
	_, s, _ := newTestService()

	for _, title := range []string{"a", "b", "c", "d"} {
		s.AddTodo(title)
	}
	s.ToggleTodo(1)
	s.ToggleTodo(3)

	if err := s.DeleteTodo(2); err != nil {
		t.Fatalf("DeleteTodo: %v", err)
	}
	if err := s.DeleteTodo(2); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.ToggleTodo(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	s.ClearCompleted()
	got := ids(s.Todos().Get())
	if len(got) != 1 || got[0] != 4 {
		t.Errorf("remaining ids = %v, want [4]", got)
	}

	// Ids are never reused.
	next, _ := s.AddTodo("e")
	if next.ID != 5 {
		t.Errorf("expected id 5, got %d", next.ID)
	}
}

func TestLoadSampleData(t *testing.T) {
	_, s, clock := newTestService()

	s.AddTodo("replaced")
	if err := s.LoadSampleData(); err != nil {
		t.Fatalf("LoadSampleData: %v", err)
	}

	todos := s.Todos().Get()
	if len(todos) != 3 {
		t.Fatalf("expected 3 sample todos, got %d", len(todos))
	}
	if !todos[0].Completed || todos[1].Completed || todos[2].Completed {
		t.Errorf("only the first sample should be completed: %+v", todos)
	}
	if got := ids(todos); got[0] != 2 || got[2] != 4 {
		t.Errorf("sample ids = %v, want [2 3 4]", got)
	}
	if age := clock.t.Sub(todos[0].CreatedAt); age != time.Hour {
		t.Errorf("first sample age = %v, want 1h", age)
	}
	if age := clock.t.Sub(todos[1].CreatedAt); age != 30*time.Minute {
		t.Errorf("second sample age = %v, want 30m", age)
	}

	if got := ids(s.SortedTodos().Get()); got[0] != 4 {
		t.Errorf("newest sample should sort first, got %v", got)
	}
	if got := s.CompletionPercentage().Get(); got != 33 {
		t.Errorf("CompletionPercentage = %d, want 33", got)
	}
}

func TestStatsEffectRunsOncePerChange(t *testing.T) {
	rt, s, _ := newTestService()

	var percentages []int
	reactive.NewEffect(rt, func(func(reactive.Cleanup)) error {
		percentages = append(percentages, s.CompletionPercentage().Get())
		return nil
	})

	s.AddTodo("a")     // 0% -> 0%, no run
	s.ToggleTodo(1)    // 100%
	s.AddTodo("b")     // 50%
	s.DeleteTodo(2)    // 100%
	s.ClearCompleted() // 0%

	want := []int{0, 100, 50, 100, 0}
	if len(percentages) != len(want) {
		t.Fatalf("percentages = %v, want %v", percentages, want)
	}
	for i := range want {
		if percentages[i] != want[i] {
			t.Errorf("percentages = %v, want %v", percentages, want)
			break
		}
	}
}

func TestConcurrentToggleAndDeleteNotifyOnlyOnChange(t *testing.T) {
	rt, s, _ := newTestService()
	for range 50 {
		s.AddTodo("item")
	}

	runs := 0
	reactive.NewEffect(rt, func(func(reactive.Cleanup)) error {
		_ = s.Todos().Get()
		runs++
		return nil
	})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changes int
	)
	record := func(err error) {
		if err == nil {
			mu.Lock()
			changes++
			mu.Unlock()
		} else if !errors.Is(err, ErrNotFound) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	for id := 1; id <= 50; id++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			record(s.DeleteTodo(id))
		}()
		go func() {
			defer wg.Done()
			record(s.ToggleTodo(id))
		}()
	}
	wg.Wait()

	if len(s.Todos().Peek()) != 0 {
		t.Errorf("expected every todo deleted, %d left", len(s.Todos().Peek()))
	}
	if runs-1 != changes {
		t.Errorf("effect ran %d times for %d successful changes", runs-1, changes)
	}
}
