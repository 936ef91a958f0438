package scheduler

import (
	"sync"
	"testing"

	"adgen/internal/orchestrator/domain"
)

func TestTryAdmitRespectsCap(t *testing.T) {
	s := New(2)

	ok, err := s.TryAdmit()
	if !ok || err != nil {
		t.Fatalf("first admit: ok=%v err=%v, want true/nil", ok, err)
	}
	ok, err = s.TryAdmit()
	if !ok || err != nil {
		t.Fatalf("second admit: ok=%v err=%v, want true/nil", ok, err)
	}

	ok, err = s.TryAdmit()
	if ok {
		t.Fatal("third admit should have been refused at cap 2")
	}
	if err == nil || err.Kind != domain.KindCapacityExhausted {
		t.Fatalf("err = %v, want CapacityExhausted", err)
	}
	if err.Current != 2 || err.Max != 2 {
		t.Errorf("Current/Max = %d/%d, want 2/2", err.Current, err.Max)
	}
}

func TestReleaseFreesASlot(t *testing.T) {
	s := New(1)
	ok, _ := s.TryAdmit()
	if !ok {
		t.Fatal("expected first admit to succeed")
	}
	if ok, _ := s.TryAdmit(); ok {
		t.Fatal("expected second admit to be refused")
	}

	s.Release()
	if ok, _ := s.TryAdmit(); !ok {
		t.Fatal("expected admit to succeed after Release")
	}
}

func TestReleaseBelowZeroIsNoop(t *testing.T) {
	s := New(3)
	s.Release()
	active, _ := s.Snapshot()
	if active != 0 {
		t.Fatalf("active = %d, want 0", active)
	}
}

func TestNewClampsNonPositiveMax(t *testing.T) {
	s := New(0)
	_, max := s.Snapshot()
	if max != 1 {
		t.Errorf("max = %d, want 1", max)
	}
}

func TestTryAdmitIsLinearizableUnderConcurrency(t *testing.T) {
	s := New(10)
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.TryAdmit(); ok {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 10 {
		t.Fatalf("admitted = %d, want exactly 10", admitted)
	}
}
