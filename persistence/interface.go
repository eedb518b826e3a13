// persistence/interface.go
package persistence

import (
	"context"
	"errors"

	"github.com/denred/multi-player-guess-number/models"
)

// ErrNotFound is returned by Get/HGet when the key or field is absent.
var ErrNotFound = errors.New("persistence: not found")

// Store is the key-value contract the coordinator runs on. Keys are
// namespaced by the game package; the store itself knows nothing about
// rooms or players.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
	DelPattern(ctx context.Context, pattern string) error

	SAdd(ctx context.Context, key, member string) error
	SRem(ctx context.Context, key, member string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)

	LPush(ctx context.Context, key, value string) error
	RPush(ctx context.Context, key, value string) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LLen(ctx context.Context, key string) (int64, error)

	HSet(ctx context.Context, key, field, value string) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key, field string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// Recorder archives finished room games. Implementations must be safe for
// concurrent use; a nil Recorder disables archiving.
type Recorder interface {
	SaveGameRecord(ctx context.Context, record *models.GameRecord) error
	Close() error
}
