package batchsched

import (
	"context"
	"errors"
	"testing"
)

func TestResultStore_OneShotRead(t *testing.T) {
	s := newResultStore[string](false)
	s.setFinished("a", "value")

	v, found, err := s.get("a", false)
	if !found || err != nil || v != "value" {
		t.Fatalf("first get = %q, %v, %v; want value", v, found, err)
	}
	if _, found, _ := s.get("a", false); found {
		t.Fatal("second get found a consumed result")
	}
	if !s.isFinished("a") {
		t.Fatal("key dropped by one-shot read")
	}
}

func TestResultStore_KeepAndRetain(t *testing.T) {
	s := newResultStore[int](false)
	s.setFinished("a", 1)
	for range 2 {
		if v, found, _ := s.get("a", true); !found || v != 1 {
			t.Fatalf("get with keep = %d, %v; want 1, true", v, found)
		}
	}

	r := newResultStore[int](true)
	r.setFailed("b", errors.New("boom"))
	for range 2 {
		if _, found, err := r.get("b", false); !found || err == nil {
			t.Fatalf("retaining store get = %v, %v; want stored error", found, err)
		}
	}
}

func TestResultStore_BlankAndReset(t *testing.T) {
	s := newResultStore[int](false)
	s.setFinished("a", 1)
	s.setFailed("b", errors.New("boom"))

	s.blank()
	if _, found, _ := s.get("a", true); found {
		t.Fatal("blanked finished slot still readable")
	}
	if _, found, _ := s.get("b", true); found {
		t.Fatal("blanked failed slot still readable")
	}
	if !s.isFinished("a") || !s.isFailed("b") {
		t.Fatal("blank dropped keys")
	}

	s.reset()
	if s.isFinished("a") || s.isFailed("b") {
		t.Fatal("reset kept keys")
	}
}

func TestResultStore_Forget(t *testing.T) {
	s := newResultStore[int](false)
	s.setFailed("a", errors.New("boom"))
	s.forget("a")
	if s.isFailed("a") {
		t.Fatal("forget kept failed key")
	}
}

func TestWaitRegistry_SettleRemovedAndExcept(t *testing.T) {
	w := newWaitRegistry[int]()
	f1 := w.register("a", false)
	f2 := w.register("a", true)
	f3 := w.register("b", false)

	if !w.keep("a") {
		t.Fatal("keep(a) = false with a keeping waiter")
	}
	if w.keep("b") {
		t.Fatal("keep(b) = true")
	}

	w.settleAllExcept(map[JobID]struct{}{"b": {}})
	for _, f := range []*Future[int]{f1, f2} {
		out, err := f.Wait(context.Background())
		if err != nil || !out.Removed || out.ID != "a" {
			t.Fatalf("waiter on a = %+v, %v; want removed", out, err)
		}
	}
	select {
	case <-f3.Done():
		t.Fatal("excepted waiter was settled")
	default:
	}
	if w.len() != 1 {
		t.Fatalf("pending ids = %d; want 1", w.len())
	}

	if n := w.settleRemoved("b"); n != 1 {
		t.Fatalf("settleRemoved(b) = %d; want 1", n)
	}
	if w.has("b") {
		t.Fatal("b still registered after settlement")
	}
}

func TestFuture_SettlesOnce(t *testing.T) {
	f := newFuture[int]("a", false)
	f.resolve(1)
	f.reject(errors.New("late"))
	f.removed()

	out, err := f.Wait(context.Background())
	if err != nil || out.Value != 1 || out.Removed {
		t.Fatalf("Wait = %+v, %v; want first settlement", out, err)
	}
}

func TestFuture_WaitContext(t *testing.T) {
	f := newFuture[int]("a", false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait err = %v; want context.Canceled", err)
	}
}
