package history

import "context"

// Store is the key-value persistence collaborator. Get returns ErrNotFound for a missing key;
// Set returns ErrCapacityExceeded when the value does not fit.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Repository loads and saves a user's whole record list, most recent first.
type Repository interface {
	Load(ctx context.Context, user string) ([]Record, error)
	Save(ctx context.Context, user string, records []Record) error
}

// KeyPrefix is the storage key of the default user's list; other users get "emotionHistory:<user>".
const KeyPrefix = "emotionHistory"

func Key(user string) string {
	if user == "" {
		return KeyPrefix
	}
	return KeyPrefix + ":" + user
}
