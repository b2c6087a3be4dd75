package jobs

import "testing"

func TestPluginSessionLifecycle(t *testing.T) {
	sessions := NewPluginSessions()
	id := sessions.Start()
	if !sessions.Alive(id) {
		t.Fatal("expected session to be alive after Start")
	}
	if sessions.Count() != 1 {
		t.Fatalf("expected 1 live session, got %d", sessions.Count())
	}

	channels := [][]float32{{1, 2, 3}}
	out := sessions.Process(id, channels)
	if len(out) != 1 || out[0][0] != 1 {
		t.Fatal("expected passthrough Process to return input unchanged")
	}

	sessions.Stop(id)
	if sessions.Alive(id) {
		t.Fatal("expected session to be dead after Stop")
	}
	if sessions.Count() != 0 {
		t.Fatalf("expected 0 live sessions after stop, got %d", sessions.Count())
	}
}

func TestPluginProcessOnDeadSessionIsPassthrough(t *testing.T) {
	sessions := NewPluginSessions()
	id := sessions.Start()
	sessions.Stop(id)

	channels := [][]float32{{5, 6}}
	out := sessions.Process(id, channels)
	if out[0][0] != 5 || out[0][1] != 6 {
		t.Fatal("expected dead-session Process to still pass audio through unchanged")
	}
}
