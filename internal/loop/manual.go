package loop

import "time"

// Manual is a Scheduler driven by a virtual clock. Nothing runs until the
// test calls Advance or Flush. Go runs its work synchronously.
type Manual struct {
	now   time.Time
	seq   uint64
	tasks []*task
}

type task struct {
	at        time.Time
	seq       uint64
	period    time.Duration
	f         func()
	cancelled bool
}

// NewManual returns a Manual clock starting at a fixed instant.
func NewManual() *Manual {
	return &Manual{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (m *Manual) Now() time.Time { return m.now }

func (m *Manual) schedule(at time.Time, period time.Duration, f func()) *task {
	m.seq++
	t := &task{at: at, seq: m.seq, period: period, f: f}
	m.tasks = append(m.tasks, t)
	return t
}

func (m *Manual) Post(f func()) { m.schedule(m.now, 0, f) }

func (m *Manual) AfterFunc(d time.Duration, f func()) Cancel {
	t := m.schedule(m.now.Add(d), 0, f)
	return func() { t.cancelled = true }
}

func (m *Manual) Every(d time.Duration, f func()) Cancel {
	t := m.schedule(m.now.Add(d), d, f)
	return func() { t.cancelled = true }
}

func (m *Manual) Go(work func() func()) {
	if cont := work(); cont != nil {
		m.Post(cont)
	}
}

// Flush runs everything already due without moving the clock.
func (m *Manual) Flush() { m.Advance(0) }

// Advance moves the clock forward by d, running every callback that falls
// due on the way in time order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		t := m.next(target)
		if t == nil {
			break
		}
		if t.at.After(m.now) {
			m.now = t.at
		}
		if t.period > 0 {
			m.seq++
			t.at = t.at.Add(t.period)
			t.seq = m.seq
		} else {
			m.remove(t)
		}
		t.f()
	}
	m.now = target
}

// Pending reports how many live callbacks are scheduled.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

func (m *Manual) next(limit time.Time) *task {
	var best *task
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if t.cancelled {
			continue
		}
		live = append(live, t)
		if t.at.After(limit) {
			continue
		}
		if best == nil || t.at.Before(best.at) || (t.at.Equal(best.at) && t.seq < best.seq) {
			best = t
		}
	}
	m.tasks = live
	return best
}

func (m *Manual) remove(t *task) {
	for i, x := range m.tasks {
		if x == t {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return
		}
	}
}
