package event

import (
	"sync"
	"testing"
)

func TestBusDeliversNextFrameInOrder(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(e HighlightRequested) { got = append(got, "highlight:"+e.BodyID) })
	Subscribe(b, func(e SettingsChanged) { got = append(got, "settings:"+e.PhysicsEngine) })

	Emit(b, SettingsChanged{PhysicsEngine: "verlet"})
	Emit(b, HighlightRequested{BodyID: "mars"})
	Emit(b, SettingsChanged{PhysicsEngine: "keplerian"})

	if n := b.DispatchAll(); n != 0 || len(got) != 0 {
		t.Fatalf("events delivered before swap: %v", got)
	}

	b.SwapBuffers()
	if n := b.DispatchAll(); n != 3 {
		t.Errorf("dispatched %d events, want 3", n)
	}
	want := []string{"settings:verlet", "highlight:mars", "settings:keplerian"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got[i], want[i])
		}
	}

	// Nothing is redelivered.
	b.SwapBuffers()
	if n := b.DispatchAll(); n != 0 {
		t.Errorf("redelivered %d events", n)
	}
}

func TestBusUnsubscribedTypesAreDropped(t *testing.T) {
	b := NewBus()
	Emit(b, QuitRequested{})
	b.SwapBuffers()
	if n := b.DispatchAll(); n != 1 {
		t.Errorf("dispatched %d, want 1", n)
	}
}

func TestBusConcurrentEmit(t *testing.T) {
	b := NewBus()
	count := 0
	Subscribe(b, func(VisibilityToggled) { count++ })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Emit(b, VisibilityToggled{})
			}
		}()
	}
	wg.Wait()
	if n := b.pending(); n != 800 {
		t.Fatalf("pending %d, want 800", n)
	}
	b.SwapBuffers()
	b.DispatchAll()
	if count != 800 {
		t.Errorf("handled %d, want 800", count)
	}
}

// pending reports how many events wait for the next swap.
func (b *Bus) pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.back)
}
