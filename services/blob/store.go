package blobsvc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
)

// gridFSStore keeps the uploads in a GridFS bucket of the app database.
type gridFSStore struct {
	db      *mongo.Database
	bucket  string
	timeout time.Duration
}

var _ core.BlobStore = (*gridFSStore)(nil)

func NewGridFSStore(db *mongo.Database, conf core.BlobConfig) core.BlobStore {
	return &gridFSStore{db: db, bucket: conf.Bucket, timeout: conf.RequestTimeout}
}

// DeleteBlob deletes the file and its chunks. Deleting a missing file succeeds.
func (s *gridFSStore) DeleteBlob(ctx context.Context, id string) error {
	bucket, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucket))
	if err != nil {
		return errors.Wrap(err, "opening bucket")
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(s.timeout)
	}
	if err = bucket.SetWriteDeadline(deadline); err != nil {
		return errors.Wrap(err, "setting deadline")
	}

	var fileID interface{} = id
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		fileID = oid // files uploaded through GridFS streams
	}
	if err = bucket.Delete(fileID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return errors.Wrapf(err, "deleting blob %s", id)
	}
	return nil
}

type unavailableStore struct{}

// NewUnavailableStore is used when no blob storage is configured; every deletion fails
// with core.ErrBlobStoreUnavailable.
func NewUnavailableStore() core.BlobStore {
	return unavailableStore{}
}

func (unavailableStore) DeleteBlob(context.Context, string) error {
	return core.ErrBlobStoreUnavailable
}
