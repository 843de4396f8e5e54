package link

import (
	"sync"
	"testing"

	"sentry-link/internal/codec"
)

func TestSessionMTU(t *testing.T) {
	s := NewSession()
	if got := s.MTU(); got != codec.DefaultMTU {
		t.Fatalf("initial MTU = %d, want %d", got, codec.DefaultMTU)
	}
	s.Connect(0)
	if got := s.MTU(); got != codec.RequestedMTU {
		t.Errorf("MTU after Connect(0) = %d, want %d", got, codec.RequestedMTU)
	}
	s.Connect(185)
	if got := s.MTU(); got != 185 {
		t.Errorf("MTU = %d, want 185", got)
	}
	s.Disconnect()
	if got := s.MTU(); got != codec.DefaultMTU {
		t.Errorf("MTU after Disconnect = %d, want %d", got, codec.DefaultMTU)
	}
}

func TestSessionConnectResetsSequence(t *testing.T) {
	s := NewSession()
	s.Connect(0)
	s.Sequencer().Next()
	s.Sequencer().Next()
	s.Disconnect()
	s.Connect(0)
	if got := s.Sequencer().Next(); got != 1 {
		t.Errorf("first sequence of new epoch = %d, want 1", got)
	}
	if info := s.Info(); info.Epoch != 2 || info.State != StateConnected {
		t.Errorf("Info() = %+v", info)
	}
}

func TestSessionPendingSlot(t *testing.T) {
	s := NewSession()

	if s.SetPending([]byte("a")) {
		t.Error("first SetPending reported overwrite")
	}
	if !s.SetPending([]byte("b")) {
		t.Error("second SetPending did not report overwrite")
	}
	if !s.Info().Pending {
		t.Error("Info().Pending = false")
	}
	if !s.Disconnect() {
		t.Error("Disconnect() did not report dropped command")
	}
	if _, ok := s.TakePending(); ok {
		t.Error("pending command survived disconnect")
	}
}

// Cada escritura se toma exactamente una vez aunque escritor y lector
// corran en goroutines distintas.
func TestSessionTakePendingConcurrent(t *testing.T) {
	s := NewSession()
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			s.SetPending([]byte{byte(i)})
		}
	}()

	taken := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		if _, ok := s.TakePending(); ok {
			taken++
		}
		select {
		case <-done:
			if _, ok := s.TakePending(); ok {
				taken++
			}
			if taken < 1 || taken > n {
				t.Errorf("taken = %d, want between 1 and %d", taken, n)
			}
			return
		default:
		}
	}
}
