// players/players.go
package players

import (
	"context"

	"github.com/google/uuid"

	"github.com/denred/multi-player-guess-number/models"
	"github.com/denred/multi-player-guess-number/persistence"
)

const (
	keyPlayers        = "game:players"
	keyPlayerAttempts = "player:attempts"
)

// Directory is the player-identity registry: id -> display name, backed by
// a single hash in the store. Identity is connection-scoped, so entries
// come and go with connections.
type Directory struct {
	store persistence.Store
}

func NewDirectory(store persistence.Store) *Directory {
	return &Directory{store: store}
}

func (d *Directory) Create(ctx context.Context, name string) (models.Player, error) {
	id := uuid.New().String()

	if err := d.store.HSet(ctx, keyPlayers, id, name); err != nil {
		return models.Player{}, err
	}
	return models.Player{ID: id, Name: name}, nil
}

func (d *Directory) Get(ctx context.Context, id string) (models.Player, error) {
	name, err := d.store.HGet(ctx, keyPlayers, id)
	if err != nil {
		return models.Player{}, err
	}
	return models.Player{ID: id, Name: name}, nil
}

func (d *Directory) GetAll(ctx context.Context) ([]models.Player, error) {
	entries, err := d.store.HGetAll(ctx, keyPlayers)
	if err != nil {
		return nil, err
	}

	result := make([]models.Player, 0, len(entries))
	for id, name := range entries {
		result = append(result, models.Player{ID: id, Name: name})
	}
	return result, nil
}

// Delete removes the identity entry and the player's standalone attempt
// list. Returns false if the player did not exist.
func (d *Directory) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := d.store.HDel(ctx, keyPlayers, id)
	if err != nil {
		return false, err
	}

	if err := d.store.Del(ctx, keyPlayerAttempts+":"+id); err != nil {
		return removed, err
	}
	return removed, nil
}
