package memory_test

import (
	"testing"

	"github.com/foomo/zkdump/pkg/store"
	"github.com/foomo/zkdump/pkg/store/memory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateMaterializesParents(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Create("/a/b/c", []byte("v")))

	assert.Equal(t, []string{"/a", "/a/b", "/a/b/c"}, s.Paths())

	value, ok := s.Value("/a")
	require.True(t, ok)
	assert.Nil(t, value)

	value, childCount, err := s.Read("/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
	assert.Equal(t, 0, childCount)

	_, childCount, err = s.Read("/a")
	require.NoError(t, err)
	assert.Equal(t, 1, childCount)
}

func TestStore_CreateExisting(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Create("/a", nil))
	require.Error(t, s.Create("/a", nil))
}

func TestStore_ChildrenOfRoot(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Create("/a", nil))
	require.NoError(t, s.Create("/b", nil))

	for _, root := range []string{"", "/"} {
		children, err := s.Children(root)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, children)
	}
}

func TestStore_NoNode(t *testing.T) {
	s := memory.New()

	_, err := s.Children("/missing")
	assert.True(t, store.IsNoNode(err))

	_, _, err = s.Read("/missing")
	assert.True(t, store.IsNoNode(err))

	assert.True(t, store.IsNoNode(s.Write("/missing", nil)))

	ok, err := s.Exists("/missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_FailOn(t *testing.T) {
	boom := errors.New("boom")
	s := memory.New()
	s.FailOn(memory.OpCreate, "/a", boom)

	err := s.Create("/a", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	var storeErr *store.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, memory.OpCreate, storeErr.Op)
	assert.Equal(t, "/a", storeErr.Path)

	require.NoError(t, s.Create("/b", nil))
	assert.Equal(t, 2, s.Calls(memory.OpCreate))
	s.ResetCalls()
	assert.Equal(t, 0, s.Calls(memory.OpCreate))
}
