package core

import (
	"context"
	"errors"
)

// ErrBlobStoreUnavailable is returned by a BlobStore that is not connected to any storage.
var ErrBlobStoreUnavailable = errors.New("blob store not connected")

// BlobStore holds uploaded files (course files, avatars).
type BlobStore interface {
	DeleteBlob(ctx context.Context, id string) error
}

// BlobScheduler deletes blobs in the background, independently of the request that released them.
type BlobScheduler interface {
	Schedule(ids ...string)
}
