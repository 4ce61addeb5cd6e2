package contract

import "context"

// IStateRepository persists named state slices as whole JSON values.
// Load reports found=false both for a missing key and for a stored value
// that no longer parses; corruption in one slice must never surface as an
// error or touch the other slices.
type IStateRepository interface {
	Load(ctx context.Context, key string, dest interface{}) (bool, error)
	Save(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}
