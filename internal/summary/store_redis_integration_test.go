//go:build integration

package summary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"countryatlas/pkg/platform/sentinel"
	"countryatlas/pkg/testutil/containers"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	store := NewRedisStore(rc.Client)

	_, err := store.Latest(ctx)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, store.Save(ctx, []byte(`<svg>one</svg>`)))
	data, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`<svg>one</svg>`), data)

	// A second save replaces, never appends.
	require.NoError(t, store.Save(ctx, []byte(`<svg>two</svg>`)))
	data, err = store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`<svg>two</svg>`), data)
}
