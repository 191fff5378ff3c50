package batchsched_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	bs "github.com/Andrej220/go-utils/batchsched"
)

func noop(context.Context) (int, error) { return 0, nil }

func named(name string) bs.Job[int, int] {
	j := bs.Func[int, int](noop)
	j.Name = name
	return j
}

func TestSubmitHookVeto(t *testing.T) {
	var seen atomic.Int32
	s := newTestScheduler(t, bs.Options[int, int]{
		NoAutoStart: true,
		SubmitHook: func(_ context.Context, _ bs.QueueView[int, int], job bs.Job[int, int], _ bool) bool {
			seen.Add(1)
			return job.Name != "blocked"
		},
	})

	if _, err := s.Submit(named("ok"), false); err != nil {
		t.Fatalf("admitted job declined: %v", err)
	}
	id, err := s.Submit(named("blocked"), false)
	if id != "" || !errors.Is(err, bs.ErrSubmitVetoed) {
		t.Fatalf("vetoed Submit = %q, %v; want ErrSubmitVetoed", id, err)
	}
	if s.Size() != 1 {
		t.Fatalf("size = %d; want 1", s.Size())
	}
	if seen.Load() != 2 {
		t.Fatalf("hook calls = %d; want 2", seen.Load())
	}
}

func TestSubmitHookNotCalledWithoutExecutor(t *testing.T) {
	var called atomic.Bool
	s := newTestScheduler(t, bs.Options[int, int]{
		SubmitHook: func(context.Context, bs.QueueView[int, int], bs.Job[int, int], bool) bool {
			called.Store(true)
			return true
		},
	})
	if _, err := s.SubmitArg(1, false); !errors.Is(err, bs.ErrNoExecutor) {
		t.Fatalf("err = %v; want ErrNoExecutor", err)
	}
	if called.Load() {
		t.Fatal("hook consulted for a job without executor")
	}
}

func TestSubmitHookPanicVetoes(t *testing.T) {
	var internal atomic.Int32
	s := newTestScheduler(t, bs.Options[int, int]{
		SubmitHook: func(context.Context, bs.QueueView[int, int], bs.Job[int, int], bool) bool {
			panic("hook")
		},
		OnInternalError: func(error) { internal.Add(1) },
	})

	if _, err := s.Submit(named("x"), false); !errors.Is(err, bs.ErrSubmitVetoed) {
		t.Fatalf("err = %v; want ErrSubmitVetoed", err)
	}
	if internal.Load() != 1 {
		t.Fatalf("internal errors = %d; want 1", internal.Load())
	}
}

func TestSubmitHookSeesQueue(t *testing.T) {
	var lastName atomic.Value
	s := newTestScheduler(t, bs.Options[int, int]{
		NoAutoStart: true,
		SubmitHook: func(_ context.Context, q bs.QueueView[int, int], _ bs.Job[int, int], _ bool) bool {
			if _, job, ok := q.Last(); ok {
				lastName.Store(job.Name)
			}
			return true
		},
	})

	first := mustSubmit(t, s, named("first"), false)
	mustSubmit(t, s, named("second"), false)
	if got, _ := lastName.Load().(string); got != "first" {
		t.Fatalf("hook saw tail %q; want first", got)
	}

	var view bs.QueueView[int, int]
	s2 := newTestScheduler(t, bs.Options[int, int]{
		NoAutoStart: true,
		SubmitHook: func(_ context.Context, q bs.QueueView[int, int], _ bs.Job[int, int], _ bool) bool {
			view = q
			return true
		},
	})
	id := mustSubmit(t, s2, named("a"), false)
	if view.Len() != 1 || !view.Has(id) || view.Has(first) {
		t.Fatal("queue view does not reflect the scheduler queue")
	}
	if !view.Cancel(id) || s2.Status(id) != bs.StatusRemoved {
		t.Fatal("queue view Cancel did not remove the job")
	}
}

func TestDepthGate(t *testing.T) {
	s := newTestScheduler(t, bs.Options[int, int]{
		NoAutoStart: true,
		SubmitHook:  bs.DepthGate[int, int](2),
	})

	mustSubmit(t, s, named("a"), false)
	mustSubmit(t, s, named("b"), false)
	if _, err := s.Submit(named("c"), false); !errors.Is(err, bs.ErrSubmitVetoed) {
		t.Fatalf("third submit err = %v; want ErrSubmitVetoed", err)
	}
	if _, err := s.Submit(named("urgent"), true); err != nil {
		t.Fatalf("urgent submit declined: %v", err)
	}
	if s.Size() != 3 {
		t.Fatalf("size = %d; want 3", s.Size())
	}
}

func TestRateGate(t *testing.T) {
	s := newTestScheduler(t, bs.Options[int, int]{
		NoAutoStart: true,
		SubmitHook:  bs.RateGate[int, int](rate.NewLimiter(rate.Every(time.Hour), 1)),
	})

	mustSubmit(t, s, named("a"), false)
	if _, err := s.Submit(named("b"), false); !errors.Is(err, bs.ErrSubmitVetoed) {
		t.Fatalf("over-rate submit err = %v; want ErrSubmitVetoed", err)
	}
}

func TestPacedGate(t *testing.T) {
	s := newTestScheduler(t, bs.Options[int, int]{
		NoAutoStart: true,
		SubmitHook:  bs.PacedGate[int, int](rate.NewLimiter(rate.Every(20*time.Millisecond), 1)),
	})

	begin := time.Now()
	for range 3 {
		mustSubmit(t, s, named("paced"), false)
	}
	if elapsed := time.Since(begin); elapsed < 30*time.Millisecond {
		t.Fatalf("3 paced submissions took %v; want >= 30ms", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job := named("late")
	job.Ctx = ctx
	if _, err := s.Submit(job, false); !errors.Is(err, bs.ErrSubmitVetoed) {
		t.Fatalf("submit with canceled ctx err = %v; want ErrSubmitVetoed", err)
	}
}

func TestUniqueNameGate(t *testing.T) {
	t.Run("reject", func(t *testing.T) {
		s := newTestScheduler(t, bs.Options[int, int]{
			NoAutoStart: true,
			SubmitHook:  bs.UniqueNameGate[int, int](false),
		})
		mustSubmit(t, s, named("report"), false)
		if _, err := s.Submit(named("report"), false); !errors.Is(err, bs.ErrSubmitVetoed) {
			t.Fatalf("duplicate name err = %v; want ErrSubmitVetoed", err)
		}
		mustSubmit(t, s, named(""), false)
		mustSubmit(t, s, named(""), false)
		if s.Size() != 3 {
			t.Fatalf("size = %d; want 3", s.Size())
		}
	})

	t.Run("replace", func(t *testing.T) {
		s := newTestScheduler(t, bs.Options[int, int]{
			NoAutoStart: true,
			SubmitHook:  bs.UniqueNameGate[int, int](true),
		})
		old := mustSubmit(t, s, named("report"), false)
		f := s.Await(old, false)
		fresh := mustSubmit(t, s, named("report"), false)

		out, err := f.Wait(testCtx(t))
		if err != nil || !out.Removed {
			t.Fatalf("replaced job = %+v, %v; want removed", out, err)
		}
		if s.Size() != 1 || s.Status(fresh) != bs.StatusWaiting {
			t.Fatalf("size = %d, fresh status = %s", s.Size(), s.Status(fresh))
		}
	})
}

func TestAllGates(t *testing.T) {
	var second atomic.Int32
	count := func(context.Context, bs.QueueView[int, int], bs.Job[int, int], bool) bool {
		second.Add(1)
		return true
	}
	s := newTestScheduler(t, bs.Options[int, int]{
		NoAutoStart: true,
		SubmitHook:  bs.AllGates(bs.DepthGate[int, int](1), nil, count),
	})

	mustSubmit(t, s, named("a"), false)
	if _, err := s.Submit(named("b"), false); !errors.Is(err, bs.ErrSubmitVetoed) {
		t.Fatalf("err = %v; want ErrSubmitVetoed", err)
	}
	if second.Load() != 1 {
		t.Fatalf("later gate ran %d times; want 1", second.Load())
	}
}
