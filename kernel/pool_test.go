package kernel

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestFromPoolEmpty(t *testing.T) {
	cfg := testConfig()
	cfg.NumPoolThreads = 0
	s := newTestSystem(t, cfg)

	if th := s.k.FromPool("job", func() int { return 0 }, nil, nil); th != nil {
		t.Fatalf("FromPool() = %v with empty pool, want nil", th)
	}
}

func TestFromPoolReanimates(t *testing.T) {
	s := newTestSystem(t, testConfig())

	th := s.k.FromPool("job-1", func() int { return 0 }, nil, nil)
	if th == nil {
		t.Fatal("FromPool() = nil, want a reanimated thread")
	}
	if got := th.Name(); got != "job-1" {
		t.Fatalf("Name() = %q, want job-1", got)
	}
	if got := s.k.PoolCount(); got != 1 {
		t.Fatalf("PoolCount() = %d after one claim, want 1", got)
	}
	if st := th.Status(); st != StateReady {
		t.Fatalf("Status() = %v, want ready", st)
	}
}

func TestPoolRecycle(t *testing.T) {
	// With a pool of 2, 100 fire-and-forget jobs of ~1 ms each must all
	// complete, the pool must end full, and no pages may leak.
	s := newTestSystem(t, testConfig())
	_, used0, _ := s.k.PageStats()

	var completed atomic.Uint64
	job := func() int {
		s.k.Delay(1)
		completed.Add(1)
		return 0
	}

	s.k.NewThread("submitter", 512, func() int {
		for i := 0; i < 100; i++ {
			for s.k.FromPool("job", job, nil, nil) == nil {
				s.k.Delay(1)
			}
		}
		return 0
	}, FlagReady, nil, nil)

	s.start()

	done := make(chan struct{})
	go func() {
		for completed.Load() < 100 {
			s.tick(1, 300*time.Microsecond)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatalf("only %d/100 jobs completed", completed.Load())
	}

	eventually(t, "pool to refill", func() bool { return s.k.PoolCount() == 2 })
	_, used, _ := s.k.PageStats()
	if used != used0 {
		t.Fatalf("PageStats() used = %d after recycling, want %d (no leaked pages)", used, used0)
	}
}

func TestPoolExitSignalsTerminationSynapse(t *testing.T) {
	s := newTestSystem(t, testConfig())

	notified := make(chan Sigs, 1)
	s.k.NewThread("parent", 512, func() int {
		syn := s.k.NewSynapse()
		if syn == nil {
			t.Error("NewSynapse() = nil")
			return 1
		}
		defer syn.Free()

		if s.k.FromPool("child", func() int { return 0 }, syn, nil) == nil {
			t.Error("FromPool() = nil")
			return 1
		}
		notified <- syn.Wait(0)
		return 0
	}, FlagReady, nil, nil)

	s.start()
	s.tick(10, 300*time.Microsecond)

	select {
	case rc := <-notified:
		if rc == 0 {
			t.Fatal("Wait() on termination synapse = 0")
		}
	case <-time.After(testTimeout):
		t.Fatal("termination synapse never fired")
	}
}

func TestPoolExitCodeDelivered(t *testing.T) {
	s := newTestSystem(t, testConfig())

	var code int
	got := make(chan struct{})
	s.k.NewThread("parent", 512, func() int {
		syn := s.k.NewSynapse()
		defer syn.Free()
		s.k.FromPool("child", func() int { return 99 }, syn, &code)
		syn.Wait(0)
		close(got)
		return 0
	}, FlagReady, nil, nil)

	s.start()
	s.tick(10, 300*time.Microsecond)

	select {
	case <-got:
		if code != 99 {
			t.Fatalf("exit code = %d, want 99", code)
		}
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for child exit")
	}
}
