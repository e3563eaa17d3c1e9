package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/battleship/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent []network.Envelope
}

func (m *MockConnection) Send(env network.Envelope) error { m.sent = append(m.sent, env); return nil }
func (m *MockConnection) Close() error                    { return nil }
func (m *MockConnection) RemoteAddr() net.Addr            { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(time.Duration)      {}
func (m *MockConnection) Ping() error                     { return nil }
func (m *MockConnection) ReadFrame() ([]byte, error)      { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil || manager.players == nil {
		t.Fatal("NewManager should initialize its maps")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}
	if _, exists = manager.Get(sessionID); exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_BindAndByPlayer(t *testing.T) {
	manager := NewManager()
	sess := NewSession("s1", &MockConnection{})
	manager.Add(sess)

	if sess.PlayerID() != "" {
		t.Fatal("a new session has no player")
	}

	manager.Bind(sess, "alice")
	if sess.PlayerID() != "alice" {
		t.Errorf("Expected player alice, got %q", sess.PlayerID())
	}
	got, ok := manager.ByPlayer("alice")
	if !ok || got != sess {
		t.Fatal("ByPlayer should return the bound session")
	}

	manager.Remove("s1")
	if _, ok := manager.ByPlayer("alice"); ok {
		t.Error("removing a session should drop its player mapping")
	}
}

func TestManager_RebindKeepsNewestConnection(t *testing.T) {
	manager := NewManager()
	first := NewSession("s1", &MockConnection{})
	second := NewSession("s2", &MockConnection{})
	manager.Add(first)
	manager.Add(second)

	manager.Bind(first, "alice")
	manager.Bind(second, "alice")

	got, _ := manager.ByPlayer("alice")
	if got != second {
		t.Fatal("the newest binding should own the player")
	}

	// the stale connection closing must not drop the live mapping
	manager.Remove("s1")
	if got, ok := manager.ByPlayer("alice"); !ok || got != second {
		t.Error("mapping should survive removal of a stale session")
	}
}

func TestManager_All(t *testing.T) {
	manager := NewManager()
	for _, id := range []string{"a", "b", "c"} {
		manager.Add(NewSession(id, &MockConnection{}))
	}
	if n := len(manager.All()); n != 3 {
		t.Errorf("Expected 3 sessions, got %d", n)
	}
}

func TestSession_Touch(t *testing.T) {
	sess := NewSession("s", &MockConnection{})
	before := sess.LastActive()
	time.Sleep(time.Millisecond)
	sess.Touch()
	if !sess.LastActive().After(before) {
		t.Error("Touch should advance LastActive")
	}
}

func TestManager_MaxIdle(t *testing.T) {
	manager := NewManager()
	if idle := manager.MaxIdle(time.Now()); idle != 0 {
		t.Errorf("Expected no idle time without sessions, got %s", idle)
	}

	quiet := NewSession("quiet", &MockConnection{})
	busy := NewSession("busy", &MockConnection{})
	manager.Add(quiet)
	manager.Add(busy)

	time.Sleep(5 * time.Millisecond)
	busy.Touch()

	now := time.Now()
	if got, want := manager.MaxIdle(now), now.Sub(quiet.LastActive()); got != want {
		t.Errorf("Expected max idle %s, got %s", want, got)
	}
	if manager.MaxIdle(now) < 5*time.Millisecond {
		t.Error("quiet session should have been idle for the whole sleep")
	}
}
