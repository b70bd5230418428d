package domain

import "context"

// Uploader stores body under key in the target bucket and returns the
// location of the stored object.
type Uploader interface {
	Upload(ctx context.Context, body []byte, key string, target StorageTarget) (string, error)
}
