package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "notabilis")
	ctx := context.Background()

	var out map[string]string
	err := repo.Get(ctx, "analysis:abc", &out)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "analysis:abc", map[string]string{"a": "b"}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "analysis:*"))
	require.NoError(t, repo.Close())
}

func TestCacheRepositoryKeyPrefix(t *testing.T) {
	assert.Equal(t, "notabilis:analysis:abc", NewCacheRepository(nil, "notabilis").key("analysis:abc"))
	assert.Equal(t, "analysis:abc", NewCacheRepository(nil, "").key("analysis:abc"))
}
