package cache

import (
	"context"
	"testing"
	"time"

	"resume-builder/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshots_BypassWithoutServer(t *testing.T) {
	s := NewSnapshots(context.Background(), "", "", nil)
	assert.False(t, s.Enabled())

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "w1", model.Empty(), time.Minute))
	_, ok, err := s.Get(ctx, "w1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, s.Delete(ctx, "w1"))
	assert.NoError(t, s.Close())
}

func TestSnapshots_UnreachableServerBypasses(t *testing.T) {
	s := NewSnapshots(context.Background(), "127.0.0.1:1", "", nil)
	assert.False(t, s.Enabled())
}
