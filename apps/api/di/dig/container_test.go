package dig_container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/Maks0bs/mmLearnJS-backend-sub000/apps/api/echo"
	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
	blobsvc "github.com/Maks0bs/mmLearnJS-backend-sub000/services/blob"
)

func TestNew(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_DATABASE_ENGINE", EngineMemory)

	c := New()
	err := c.Invoke(func(
		conf *core.Config,
		server *echoapi.Server,
		cleaner *blobsvc.Cleaner,
		blobs core.BlobStore,
		closer Closer,
	) {
		assert.True(t, conf.TestMode)
		assert.Equal(t, EngineMemory, conf.Database.Engine)
		assert.NotNil(t, server)
		assert.NotNil(t, cleaner)
		assert.ErrorIs(t, blobs.DeleteBlob(context.Background(), "blob"), core.ErrBlobStoreUnavailable)
		assert.NoError(t, closer(context.Background()))
	})
	require.NoError(t, err)
}

func TestNew_unknownEngine(t *testing.T) {
	t.Setenv("ENV", "TEST")
	t.Setenv("TEST_DATABASE_ENGINE", "sqlite")

	c := New()
	err := c.Invoke(func(Closer) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown database engine "sqlite"`)
}
