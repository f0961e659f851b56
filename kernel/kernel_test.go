package kernel

import (
	"sync/atomic"
	"testing"
	"time"
)

const testTimeout = 5 * time.Second

// testConfig is a small geometry that keeps tests honest about page math.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PageBytes = 32
	cfg.DynamicBytes = 8 * 1024
	cfg.NumPoolThreads = 2
	cfg.PoolThreadStackBytes = 256
	cfg.QuantumTicks = 4
	cfg.Idle = func() { time.Sleep(20 * time.Microsecond) }
	return cfg
}

// testSystem runs a kernel with a hand-fed tick source.
type testSystem struct {
	k     *Kernel
	ticks chan uint64
	seq   uint64
}

func newTestSystem(t *testing.T, cfg Config) *testSystem {
	t.Helper()
	k, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s := &testSystem{k: k, ticks: make(chan uint64)}
	return s
}

// start enters the post-main phase on a pump goroutine.
func (s *testSystem) start() {
	go s.k.Start(s.ticks)
}

// tick advances kernel time by n milliseconds, pacing each tick so that
// woken threads get real CPU in between.
func (s *testSystem) tick(n int, pace time.Duration) {
	for i := 0; i < n; i++ {
		s.seq++
		s.ticks <- s.seq
		if pace > 0 {
			time.Sleep(pace)
		}
	}
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(200 * time.Microsecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"quantum too small", func(c *Config) { c.QuantumTicks = 1 }, ErrQuantum},
		{"zero pages", func(c *Config) { c.PageBytes = 0 }, ErrGeometry},
		{"unaligned arena", func(c *Config) { c.DynamicBytes = 1000; c.PageBytes = 64 }, ErrGeometry},
		{"pool eats heap", func(c *Config) { c.NumPoolThreads = 8; c.PoolThreadStackBytes = 1024; c.DynamicBytes = 8 * 1024 }, ErrPoolBudget},
		{"too few reserved sigs", func(c *Config) { c.NumReservedSigs = 2 }, ErrReservedSig},
		{"too many reserved sigs", func(c *Config) { c.NumReservedSigs = 16 }, ErrReservedSig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); err != tt.want {
				t.Fatalf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBootCreatesIdleAndPool(t *testing.T) {
	s := newTestSystem(t, testConfig())

	infos := s.k.Threads()
	if len(infos) != 3 {
		t.Fatalf("Threads() len = %d, want 3 (idle + 2 pool)", len(infos))
	}
	if infos[0].Name != "idle" {
		t.Fatalf("Threads()[0].Name = %q, want idle", infos[0].Name)
	}
	pool := 0
	for _, info := range infos[1:] {
		if info.State == StatePool {
			pool++
		}
	}
	if pool != 2 {
		t.Fatalf("pool residents = %d, want 2", pool)
	}
	if got := s.k.PoolCount(); got != 2 {
		t.Fatalf("PoolCount() = %d, want 2", got)
	}
}

func TestFirstYieldRunsReadyThread(t *testing.T) {
	s := newTestSystem(t, testConfig())

	var ran atomic.Bool
	th := s.k.NewThread("first", 256, func() int {
		ran.Store(true)
		return 7
	}, FlagReady, nil, nil)
	if th == nil {
		t.Fatal("NewThread() = nil")
	}

	s.start()
	eventually(t, "first thread to run", ran.Load)
}

func TestExitHookAndExitCode(t *testing.T) {
	cfg := testConfig()

	type exit struct {
		name string
		code int
	}
	exits := make(chan exit, 1)
	cfg.OnThreadExit = func(t *Thread, code int) {
		exits <- exit{t.name, code}
	}

	s := newTestSystem(t, cfg)

	var code int
	s.k.NewThread("worker", 256, func() int { return 42 }, FlagReady, nil, &code)
	s.start()

	select {
	case e := <-exits:
		if e.name != "worker" || e.code != 42 {
			t.Fatalf("exit hook got (%q, %d), want (worker, 42)", e.name, e.code)
		}
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for exit hook")
	}

	eventually(t, "exit code", func() bool { return code == 42 })
}

func TestThreadStackReleasedOnExit(t *testing.T) {
	s := newTestSystem(t, testConfig())
	_, used0, _ := s.k.PageStats()

	done := make(chan struct{})
	s.k.NewThread("transient", 512, func() int {
		defer close(done)
		return 0
	}, FlagReady, nil, nil)

	_, usedLive, _ := s.k.PageStats()
	if usedLive <= used0 {
		t.Fatalf("PageStats() used = %d while thread live, want > %d", usedLive, used0)
	}

	s.start()
	<-done
	eventually(t, "stack pages released", func() bool {
		_, used, _ := s.k.PageStats()
		return used == used0
	})
}

func TestNewThreadOutOfMemory(t *testing.T) {
	s := newTestSystem(t, testConfig())

	if th := s.k.NewThread("huge", 1<<20, func() int { return 0 }, FlagReady, nil, nil); th != nil {
		t.Fatalf("NewThread(1MiB) = %v, want nil", th)
	}
}

func TestForbidPermitIdempotence(t *testing.T) {
	s := newTestSystem(t, testConfig())
	k := s.k

	if !k.SwitchingEnabled() {
		t.Fatal("SwitchingEnabled() = false at boot, want true")
	}
	k.Forbid()
	k.Forbid()
	if k.SwitchingEnabled() {
		t.Fatal("SwitchingEnabled() = true after Forbid, want false")
	}
	k.Permit()
	k.Permit()
	if !k.SwitchingEnabled() {
		t.Fatal("SwitchingEnabled() = false after Permit, want true")
	}
}

func TestAtomicNests(t *testing.T) {
	s := newTestSystem(t, testConfig())

	ran := false
	s.k.Atomic(func() {
		s.k.Atomic(func() {
			ran = true
		})
	})
	if !ran {
		t.Fatal("nested Atomic body did not run")
	}
}

func TestNowAdvancesWithTicks(t *testing.T) {
	s := newTestSystem(t, testConfig())
	s.start()

	if now := s.k.Now(); now != 0 {
		t.Fatalf("Now() = %d at boot, want 0", now)
	}
	s.tick(25, 0)
	eventually(t, "clock to advance", func() bool { return s.k.Now() == 25 })
}
