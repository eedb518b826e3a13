// session/session_test.go
package session

import (
	"net"
	"sync"
	"testing"

	"github.com/denred/multi-player-guess-number/network"
)

type fakeConn struct {
	mutex  sync.Mutex
	sent   []string
	closed bool
}

func (c *fakeConn) Send(event string, payload interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.sent = append(c.sent, event)
	return nil
}

func (c *fakeConn) ReadEvent() (*network.Event, error) { return nil, nil }

func (c *fakeConn) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 12345}
}

func TestSessionBinding(t *testing.T) {
	s := NewSession("s1", &fakeConn{})

	playerID, roomID := s.Binding()
	if playerID != "" || roomID != "" {
		t.Errorf("expected empty binding, got %q/%q", playerID, roomID)
	}

	s.Bind("p1", "r1")
	playerID, roomID = s.Binding()
	if playerID != "p1" || roomID != "r1" {
		t.Errorf("expected p1/r1, got %q/%q", playerID, roomID)
	}

	s.BindRoom("")
	playerID, roomID = s.Binding()
	if playerID != "p1" || roomID != "" {
		t.Errorf("expected player to survive room unbind, got %q/%q", playerID, roomID)
	}
}

func TestSessionSend(t *testing.T) {
	conn := &fakeConn{}
	s := NewSession("s1", conn)

	if err := s.Send("hello", nil); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(conn.sent) != 1 || conn.sent[0] != "hello" {
		t.Errorf("expected [hello], got %v", conn.sent)
	}
}

func TestManagerAddRemove(t *testing.T) {
	m := NewManager()
	s := NewSession("s1", &fakeConn{})

	m.Add(s)
	if m.Count() != 1 {
		t.Fatalf("expected 1 session, got %d", m.Count())
	}

	got, exists := m.Get("s1")
	if !exists || got != s {
		t.Error("expected to get the added session back")
	}

	m.Remove("s1")
	if m.Count() != 0 {
		t.Errorf("expected 0 sessions after remove, got %d", m.Count())
	}
	if _, exists := m.Get("s1"); exists {
		t.Error("expected session to be gone")
	}
}

func TestManagerLookupByBinding(t *testing.T) {
	m := NewManager()

	s1 := NewSession("s1", &fakeConn{})
	s1.Bind("p1", "r1")
	s2 := NewSession("s2", &fakeConn{})
	s2.Bind("p2", "r1")
	s3 := NewSession("s3", &fakeConn{})
	s3.Bind("p3", "r2")

	m.Add(s1)
	m.Add(s2)
	m.Add(s3)

	inRoom := m.GetByRoomID("r1")
	if len(inRoom) != 2 {
		t.Errorf("expected 2 sessions in r1, got %d", len(inRoom))
	}

	got, exists := m.GetByPlayerID("p3")
	if !exists || got != s3 {
		t.Error("expected to find p3's session")
	}
	if _, exists := m.GetByPlayerID("nobody"); exists {
		t.Error("expected no session for unknown player")
	}
}
