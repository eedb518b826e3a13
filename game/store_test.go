// game/store_test.go
package game

import (
	"context"
	"errors"
	"testing"

	"github.com/denred/multi-player-guess-number/models"
	"github.com/denred/multi-player-guess-number/persistence"
	"github.com/denred/multi-player-guess-number/players"
)

func newTestStore(t *testing.T) (*RoomStore, *players.Directory, *persistence.Memory) {
	t.Helper()
	mem := persistence.NewMemory()
	directory := players.NewDirectory(mem)
	return NewRoomStore(mem, directory), directory, mem
}

func mustCreatePlayer(t *testing.T, d *players.Directory, name string) models.Player {
	t.Helper()
	player, err := d.Create(context.Background(), name)
	if err != nil {
		t.Fatalf("failed to create player %s: %v", name, err)
	}
	return player
}

func TestCreateRoom(t *testing.T) {
	ctx := context.Background()
	rooms, directory, _ := newTestStore(t)
	alice := mustCreatePlayer(t, directory, "alice")

	room, err := rooms.CreateRoom(ctx, alice.ID)
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.Status != models.StatusWaiting {
		t.Errorf("expected waiting status, got %s", room.Status)
	}
	if len(room.PlayerIDs) != 1 || room.PlayerIDs[0] != alice.ID {
		t.Errorf("expected creator as sole member, got %v", room.PlayerIDs)
	}

	state, err := rooms.RoomState(ctx, room.ID)
	if err != nil {
		t.Fatalf("RoomState failed: %v", err)
	}
	if len(state.Players) != 1 || state.Players[0].ID != alice.ID {
		t.Errorf("expected alice in room state, got %+v", state.Players)
	}
}

func TestJoinRoom(t *testing.T) {
	ctx := context.Background()
	rooms, directory, _ := newTestStore(t)
	alice := mustCreatePlayer(t, directory, "alice")
	bob := mustCreatePlayer(t, directory, "bob")

	room, _ := rooms.CreateRoom(ctx, alice.ID)

	if err := rooms.JoinRoom(ctx, room.ID, bob.ID); err != nil {
		t.Fatalf("JoinRoom failed: %v", err)
	}

	// Re-joining is a no-op, not an error.
	if err := rooms.JoinRoom(ctx, room.ID, bob.ID); err != nil {
		t.Fatalf("repeated JoinRoom failed: %v", err)
	}

	state, _ := rooms.RoomState(ctx, room.ID)
	if len(state.Players) != 2 {
		t.Fatalf("expected 2 members, got %d", len(state.Players))
	}
	if state.Room.PlayerIDs[0] != alice.ID || state.Room.PlayerIDs[1] != bob.ID {
		t.Errorf("expected join order [alice bob], got %v", state.Room.PlayerIDs)
	}
}

func TestJoinRoomMissing(t *testing.T) {
	rooms, directory, _ := newTestStore(t)
	bob := mustCreatePlayer(t, directory, "bob")

	err := rooms.JoinRoom(context.Background(), "nosuch", bob.ID)
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestJoinRoomAfterStart(t *testing.T) {
	ctx := context.Background()
	rooms, directory, mem := newTestStore(t)
	alice := mustCreatePlayer(t, directory, "alice")
	late := mustCreatePlayer(t, directory, "late")

	room, _ := rooms.CreateRoom(ctx, alice.ID)
	mem.Set(ctx, roomStatusKey(room.ID), string(models.StatusActive))

	if err := rooms.JoinRoom(ctx, room.ID, late.ID); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	mem.Set(ctx, roomStatusKey(room.ID), string(models.StatusFinished))
	if err := rooms.JoinRoom(ctx, room.ID, late.ID); !errors.Is(err, ErrAlreadyFinished) {
		t.Errorf("expected ErrAlreadyFinished, got %v", err)
	}
}

func TestSetReady(t *testing.T) {
	ctx := context.Background()
	rooms, directory, _ := newTestStore(t)
	alice := mustCreatePlayer(t, directory, "alice")
	bob := mustCreatePlayer(t, directory, "bob")
	outsider := mustCreatePlayer(t, directory, "carol")

	room, _ := rooms.CreateRoom(ctx, alice.ID)
	rooms.JoinRoom(ctx, room.ID, bob.ID)

	if err := rooms.SetReady(ctx, room.ID, outsider.ID, true); !errors.Is(err, ErrNotInRoom) {
		t.Errorf("expected ErrNotInRoom for outsider, got %v", err)
	}

	if err := rooms.SetReady(ctx, room.ID, alice.ID, true); err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}
	ready, _ := rooms.AllReady(ctx, room.ID)
	if ready {
		t.Error("expected not all ready with one of two ready")
	}

	rooms.SetReady(ctx, room.ID, bob.ID, true)
	ready, _ = rooms.AllReady(ctx, room.ID)
	if !ready {
		t.Error("expected all ready with both ready")
	}

	// Readiness can be withdrawn before the game starts.
	rooms.SetReady(ctx, room.ID, bob.ID, false)
	ready, _ = rooms.AllReady(ctx, room.ID)
	if ready {
		t.Error("expected not all ready after bob withdrew")
	}
}

func TestAllReadyRequiresTwoPlayers(t *testing.T) {
	ctx := context.Background()
	rooms, directory, _ := newTestStore(t)
	alice := mustCreatePlayer(t, directory, "alice")

	room, _ := rooms.CreateRoom(ctx, alice.ID)
	rooms.SetReady(ctx, room.ID, alice.ID, true)

	ready, err := rooms.AllReady(ctx, room.ID)
	if err != nil {
		t.Fatalf("AllReady failed: %v", err)
	}
	if ready {
		t.Error("a single ready player must not satisfy AllReady")
	}
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	rooms, directory, _ := newTestStore(t)
	alice := mustCreatePlayer(t, directory, "alice")
	bob := mustCreatePlayer(t, directory, "bob")

	room, _ := rooms.CreateRoom(ctx, alice.ID)
	rooms.JoinRoom(ctx, room.ID, bob.ID)
	rooms.SetReady(ctx, room.ID, bob.ID, true)

	if err := rooms.RemoveMember(ctx, room.ID, bob.ID); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}

	state, _ := rooms.RoomState(ctx, room.ID)
	if len(state.Players) != 1 || state.Players[0].ID != alice.ID {
		t.Errorf("expected only alice to remain, got %+v", state.Players)
	}
	if len(state.ReadyPlayers) != 0 {
		t.Errorf("expected bob out of the ready set, got %v", state.ReadyPlayers)
	}

	// Removing from a deleted room is a no-op.
	if err := rooms.RemoveMember(ctx, "nosuch", bob.ID); err != nil {
		t.Errorf("expected nil for missing room, got %v", err)
	}
}

func TestDeleteRoomIfEmpty(t *testing.T) {
	ctx := context.Background()
	rooms, directory, _ := newTestStore(t)
	alice := mustCreatePlayer(t, directory, "alice")

	room, _ := rooms.CreateRoom(ctx, alice.ID)

	deleted, err := rooms.DeleteRoomIfEmpty(ctx, room.ID)
	if err != nil {
		t.Fatalf("DeleteRoomIfEmpty failed: %v", err)
	}
	if deleted {
		t.Fatal("room with a member must not be deleted")
	}

	rooms.RemoveMember(ctx, room.ID, alice.ID)
	deleted, err = rooms.DeleteRoomIfEmpty(ctx, room.ID)
	if err != nil || !deleted {
		t.Fatalf("expected deletion of empty room, got deleted=%v err=%v", deleted, err)
	}

	if _, err := rooms.RoomState(ctx, room.ID); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound after deletion, got %v", err)
	}

	list, _ := rooms.ListRooms(ctx)
	if len(list) != 0 {
		t.Errorf("expected empty lobby, got %d rooms", len(list))
	}
}

func TestListRooms(t *testing.T) {
	ctx := context.Background()
	rooms, directory, _ := newTestStore(t)
	alice := mustCreatePlayer(t, directory, "alice")
	bob := mustCreatePlayer(t, directory, "bob")

	r1, _ := rooms.CreateRoom(ctx, alice.ID)
	rooms.CreateRoom(ctx, bob.ID)

	list, err := rooms.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(list))
	}

	for _, room := range list {
		if room.ID == r1.ID && (len(room.PlayerIDs) != 1 || room.PlayerIDs[0] != alice.ID) {
			t.Errorf("expected alice in room %s, got %v", room.ID, room.PlayerIDs)
		}
	}
}

func TestResolvePlayersUnknownID(t *testing.T) {
	ctx := context.Background()
	rooms, directory, _ := newTestStore(t)
	alice := mustCreatePlayer(t, directory, "alice")

	resolved, err := rooms.ResolvePlayers(ctx, []string{alice.ID, "ghost"})
	if err != nil {
		t.Fatalf("ResolvePlayers failed: %v", err)
	}
	if len(resolved) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(resolved))
	}
	if resolved[1].Name != "Unknown" {
		t.Errorf("expected placeholder name for unknown id, got %q", resolved[1].Name)
	}
}
