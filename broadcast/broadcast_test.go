// broadcast/broadcast_test.go
package broadcast

import (
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/denred/multi-player-guess-number/network"
	"github.com/denred/multi-player-guess-number/session"
)

type fakeConn struct {
	mutex    sync.Mutex
	sent     []string
	sendFail bool
}

func (c *fakeConn) Send(event string, payload interface{}) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.sendFail {
		return errors.New("broken pipe")
	}
	c.sent = append(c.sent, event)
	return nil
}

func (c *fakeConn) ReadEvent() (*network.Event, error) { return nil, nil }
func (c *fakeConn) Close() error                       { return nil }
func (c *fakeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 12345}
}

func (c *fakeConn) events() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]string(nil), c.sent...)
}

func setup() (*session.Manager, *SessionBroadcaster) {
	m := session.NewManager()
	return m, NewSessionBroadcaster(m)
}

func addSession(m *session.Manager, id, playerID, roomID string) *fakeConn {
	conn := &fakeConn{}
	s := session.NewSession(id, conn)
	s.Bind(playerID, roomID)
	m.Add(s)
	return conn
}

func TestToRoomOnlyReachesRoomMembers(t *testing.T) {
	m, b := setup()
	in1 := addSession(m, "s1", "p1", "r1")
	in2 := addSession(m, "s2", "p2", "r1")
	out := addSession(m, "s3", "p3", "r2")

	if err := b.ToRoom("r1", "update", nil); err != nil {
		t.Fatalf("ToRoom failed: %v", err)
	}

	if len(in1.events()) != 1 || len(in2.events()) != 1 {
		t.Error("expected both room members to receive the event")
	}
	if len(out.events()) != 0 {
		t.Error("expected non-member to receive nothing")
	}
}

func TestToAll(t *testing.T) {
	m, b := setup()
	c1 := addSession(m, "s1", "p1", "r1")
	c2 := addSession(m, "s2", "", "")

	if err := b.ToAll("lobby", nil); err != nil {
		t.Fatalf("ToAll failed: %v", err)
	}
	if len(c1.events()) != 1 || len(c2.events()) != 1 {
		t.Error("expected every session to receive the event")
	}
}

func TestToAllSkipsFailingSessions(t *testing.T) {
	m, b := setup()
	broken := addSession(m, "s1", "p1", "")
	broken.sendFail = true
	healthy := addSession(m, "s2", "p2", "")

	if err := b.ToAll("lobby", nil); err != nil {
		t.Fatalf("ToAll should not fail on a broken session: %v", err)
	}
	if len(healthy.events()) != 1 {
		t.Error("expected healthy session to still receive the event")
	}
}

func TestToSession(t *testing.T) {
	m, b := setup()
	conn := addSession(m, "s1", "p1", "")

	if err := b.ToSession("s1", "direct", nil); err != nil {
		t.Fatalf("ToSession failed: %v", err)
	}
	if len(conn.events()) != 1 {
		t.Error("expected the session to receive the event")
	}

	if err := b.ToSession("missing", "direct", nil); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
