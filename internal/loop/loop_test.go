package loop

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManualAfterFuncOrder(t *testing.T) {
	m := NewManual()
	var got []string
	m.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, "b") })

	m.Advance(50 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("nothing should run before due, got %v", got)
	}
	m.Advance(time.Second)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("order = %v, want [a b c]", got)
	}
}

func TestManualCancel(t *testing.T) {
	m := NewManual()
	ran := false
	cancel := m.AfterFunc(time.Second, func() { ran = true })
	cancel()
	m.Advance(2 * time.Second)
	if ran {
		t.Error("cancelled callback ran")
	}
	if m.Pending() != 0 {
		t.Errorf("Pending = %d, want 0", m.Pending())
	}
}

func TestManualEvery(t *testing.T) {
	m := NewManual()
	n := 0
	var cancel Cancel
	cancel = m.Every(time.Second, func() {
		n++
		if n == 3 {
			cancel()
		}
	})
	m.Advance(10 * time.Second)
	if n != 3 {
		t.Errorf("ticks = %d, want 3", n)
	}
}

func TestManualNowAdvancesToTaskTime(t *testing.T) {
	m := NewManual()
	start := m.Now()
	var at time.Time
	m.AfterFunc(700*time.Millisecond, func() { at = m.Now() })
	m.Advance(time.Second)
	if at.Sub(start) != 700*time.Millisecond {
		t.Errorf("callback saw %v, want 700ms", at.Sub(start))
	}
	if m.Now().Sub(start) != time.Second {
		t.Errorf("clock at %v, want 1s", m.Now().Sub(start))
	}
}

func TestManualGoQueuesContinuation(t *testing.T) {
	m := NewManual()
	var steps []string
	m.Go(func() func() {
		steps = append(steps, "work")
		return func() { steps = append(steps, "cont") }
	})
	if len(steps) != 1 {
		t.Fatalf("continuation ran early: %v", steps)
	}
	m.Flush()
	if len(steps) != 2 || steps[1] != "cont" {
		t.Fatalf("steps = %v", steps)
	}
}

func TestLoopCallAndStop(t *testing.T) {
	l := New()
	l.Start()
	defer l.Stop()

	var n int
	for i := 0; i < 10; i++ {
		if !l.Call(func() { n++ }) {
			t.Fatal("Call returned false on running loop")
		}
	}
	if n != 10 {
		t.Errorf("n = %d, want 10", n)
	}

	l.Stop()
	if l.Call(func() {}) {
		t.Error("Call should fail after Stop")
	}
}

func TestLoopAfterFuncAndGo(t *testing.T) {
	l := New()
	l.Start()
	defer l.Stop()

	fired := make(chan struct{})
	l.AfterFunc(10*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("AfterFunc did not fire")
	}

	done := make(chan int)
	l.Go(func() func() {
		v := 42
		return func() { done <- v }
	})
	select {
	case v := <-done:
		if v != 42 {
			t.Errorf("continuation got %d", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Go continuation did not run")
	}
}

func TestLoopEveryCancel(t *testing.T) {
	l := New()
	l.Start()
	defer l.Stop()

	var ticks atomic.Int32
	cancel := l.Every(5*time.Millisecond, func() { ticks.Add(1) })
	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	l.Call(func() {})
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	l.Call(func() {})
	if ticks.Load() != after {
		t.Errorf("ticks continued after cancel: %d -> %d", after, ticks.Load())
	}
}
