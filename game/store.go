// game/store.go
package game

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/denred/multi-player-guess-number/models"
	"github.com/denred/multi-player-guess-number/persistence"
	"github.com/denred/multi-player-guess-number/players"
)

// RoomStore owns room metadata and membership. All durable fields live in
// the backing store; the only in-process state is the per-room lock table
// shared with the engine.
type RoomStore struct {
	store     persistence.Store
	directory *players.Directory
	locks     *roomLocks
}

func NewRoomStore(store persistence.Store, directory *players.Directory) *RoomStore {
	return &RoomStore{
		store:     store,
		directory: directory,
		locks:     newRoomLocks(),
	}
}

// CreateRoom creates a waiting room with the creator as its first member.
func (s *RoomStore) CreateRoom(ctx context.Context, creatorID string) (models.Room, error) {
	room := models.Room{
		ID:        uuid.New().String(),
		Status:    models.StatusWaiting,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		PlayerIDs: []string{creatorID},
	}

	if err := s.writeMeta(ctx, room); err != nil {
		return models.Room{}, err
	}
	if err := s.store.SAdd(ctx, roomPlayersKey(room.ID), creatorID); err != nil {
		return models.Room{}, err
	}
	if err := s.store.Set(ctx, roomStatusKey(room.ID), string(models.StatusWaiting)); err != nil {
		return models.Room{}, err
	}

	return room, nil
}

// JoinRoom adds the player to a waiting room. Joining a room the player is
// already in is a no-op.
func (s *RoomStore) JoinRoom(ctx context.Context, roomID, playerID string) error {
	lock := s.locks.forRoom(roomID)
	lock.Lock()
	defer lock.Unlock()

	meta, err := s.readMeta(ctx, roomID)
	if err != nil {
		return err
	}

	status, err := s.roomStatus(ctx, roomID, meta)
	if err != nil {
		return err
	}
	switch status {
	case models.StatusActive:
		return ErrAlreadyStarted
	case models.StatusFinished:
		return ErrAlreadyFinished
	}

	if err := s.store.SAdd(ctx, roomPlayersKey(roomID), playerID); err != nil {
		return err
	}

	for _, id := range meta.PlayerIDs {
		if id == playerID {
			return nil
		}
	}
	meta.PlayerIDs = append(meta.PlayerIDs, playerID)
	return s.writeMeta(ctx, meta)
}

// SetReady adds or removes the player from the room's ready set.
func (s *RoomStore) SetReady(ctx context.Context, roomID, playerID string, ready bool) error {
	if _, err := s.readMeta(ctx, roomID); err != nil {
		return err
	}

	isMember, err := s.store.SIsMember(ctx, roomPlayersKey(roomID), playerID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotInRoom
	}

	if ready {
		return s.store.SAdd(ctx, roomReadyKey(roomID), playerID)
	}
	return s.store.SRem(ctx, roomReadyKey(roomID), playerID)
}

// AllReady reports whether the game can start: at least two members and
// every member ready. The ready set is maintained as a subset of the
// member set, so comparing sizes is comparing the sets.
func (s *RoomStore) AllReady(ctx context.Context, roomID string) (bool, error) {
	members, err := s.store.SMembers(ctx, roomPlayersKey(roomID))
	if err != nil {
		return false, err
	}
	ready, err := s.store.SMembers(ctx, roomReadyKey(roomID))
	if err != nil {
		return false, err
	}
	return len(members) >= 2 && len(members) == len(ready), nil
}

// RemoveMember removes the player from the member and ready sets. The turn
// order of an in-progress game is left untouched.
func (s *RoomStore) RemoveMember(ctx context.Context, roomID, playerID string) error {
	lock := s.locks.forRoom(roomID)
	lock.Lock()
	defer lock.Unlock()

	meta, err := s.readMeta(ctx, roomID)
	if errors.Is(err, ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.store.SRem(ctx, roomPlayersKey(roomID), playerID); err != nil {
		return err
	}
	if err := s.store.SRem(ctx, roomReadyKey(roomID), playerID); err != nil {
		return err
	}

	filtered := meta.PlayerIDs[:0]
	for _, id := range meta.PlayerIDs {
		if id != playerID {
			filtered = append(filtered, id)
		}
	}
	meta.PlayerIDs = filtered
	return s.writeMeta(ctx, meta)
}

// DeleteRoomIfEmpty deletes all room state and returns true iff the member
// set was empty.
func (s *RoomStore) DeleteRoomIfEmpty(ctx context.Context, roomID string) (bool, error) {
	members, err := s.store.SMembers(ctx, roomPlayersKey(roomID))
	if err != nil {
		return false, err
	}
	if len(members) > 0 {
		return false, nil
	}

	if err := s.store.Del(ctx, roomKeys(roomID)...); err != nil {
		return false, err
	}
	if err := s.store.DelPattern(ctx, roomAttemptsPattern(roomID)); err != nil {
		return false, err
	}
	if _, err := s.store.HDel(ctx, keyRooms, roomID); err != nil {
		return false, err
	}

	s.locks.release(roomID)
	return true, nil
}

// RoomState resolves the room's member and ready sets into a display
// snapshot. Member ids are reported in join order.
func (s *RoomStore) RoomState(ctx context.Context, roomID string) (models.RoomState, error) {
	meta, err := s.readMeta(ctx, roomID)
	if err != nil {
		return models.RoomState{}, err
	}

	members, err := s.store.SMembers(ctx, roomPlayersKey(roomID))
	if err != nil {
		return models.RoomState{}, err
	}
	ready, err := s.store.SMembers(ctx, roomReadyKey(roomID))
	if err != nil {
		return models.RoomState{}, err
	}

	status, err := s.roomStatus(ctx, roomID, meta)
	if err != nil {
		return models.RoomState{}, err
	}
	meta.Status = status
	meta.PlayerIDs = orderedMembers(meta.PlayerIDs, members)

	turn, err := s.store.Get(ctx, roomTurnKey(roomID))
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return models.RoomState{}, err
	}

	totalGuesses, err := s.store.LLen(ctx, roomHistoryKey(roomID))
	if err != nil {
		return models.RoomState{}, err
	}

	resolved, err := s.ResolvePlayers(ctx, meta.PlayerIDs)
	if err != nil {
		return models.RoomState{}, err
	}

	return models.RoomState{
		Room:                meta,
		Players:             resolved,
		ReadyPlayers:        ready,
		CurrentTurnPlayerID: turn,
		TotalGuesses:        totalGuesses,
	}, nil
}

// ListRooms returns every room with its current status and member list,
// for the lobby view.
func (s *RoomStore) ListRooms(ctx context.Context) ([]models.Room, error) {
	entries, err := s.store.HGetAll(ctx, keyRooms)
	if err != nil {
		return nil, err
	}

	rooms := make([]models.Room, 0, len(entries))
	for roomID, raw := range entries {
		var meta models.Room
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			continue
		}

		members, err := s.store.SMembers(ctx, roomPlayersKey(roomID))
		if err != nil {
			return nil, err
		}
		meta.PlayerIDs = orderedMembers(meta.PlayerIDs, members)

		status, err := s.roomStatus(ctx, roomID, meta)
		if err != nil {
			return nil, err
		}
		meta.Status = status

		rooms = append(rooms, meta)
	}
	return rooms, nil
}

// ResolvePlayers maps ids to directory records. Ids with no directory
// entry still render, with a placeholder name.
func (s *RoomStore) ResolvePlayers(ctx context.Context, ids []string) ([]models.Player, error) {
	resolved := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		player, err := s.directory.Get(ctx, id)
		if errors.Is(err, persistence.ErrNotFound) {
			player = models.Player{ID: id, Name: "Unknown"}
		} else if err != nil {
			return nil, err
		}
		resolved = append(resolved, player)
	}
	return resolved, nil
}

func (s *RoomStore) readMeta(ctx context.Context, roomID string) (models.Room, error) {
	raw, err := s.store.HGet(ctx, keyRooms, roomID)
	if errors.Is(err, persistence.ErrNotFound) {
		return models.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return models.Room{}, err
	}

	var meta models.Room
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return models.Room{}, err
	}
	return meta, nil
}

func (s *RoomStore) writeMeta(ctx context.Context, meta models.Room) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.store.HSet(ctx, keyRooms, meta.ID, string(raw))
}

// roomStatus reads the live status key, falling back to the metadata copy.
func (s *RoomStore) roomStatus(ctx context.Context, roomID string, meta models.Room) (models.GameStatus, error) {
	raw, err := s.store.Get(ctx, roomStatusKey(roomID))
	if errors.Is(err, persistence.ErrNotFound) {
		return meta.Status, nil
	}
	if err != nil {
		return "", err
	}
	return models.GameStatus(raw), nil
}

// orderedMembers filters the join-ordered id list down to current members.
func orderedMembers(joinOrder, members []string) []string {
	current := make(map[string]struct{}, len(members))
	for _, id := range members {
		current[id] = struct{}{}
	}

	ordered := make([]string, 0, len(members))
	for _, id := range joinOrder {
		if _, ok := current[id]; ok {
			ordered = append(ordered, id)
		}
	}
	return ordered
}
