package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jsonCodec struct{}

func (jsonCodec) Encode(value any) ([]byte, error) { return json.Marshal(value) }
func (jsonCodec) Decode(data []byte) (any, error) {
	var v int
	err := json.Unmarshal(data, &v)
	return v, err
}

func TestPersistentStoreRoundTripsSpilledValue(t *testing.T) {
	store, err := OpenPersistentStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	store.RegisterCodec("derived", jsonCodec{})

	key := Key{Kind: "derived", Arg: "k"}
	require.NoError(t, store.Spill(key, 3, 42))

	v, rev, ok, err := store.Recover(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, Revision(3), rev)
}

func TestPersistentStoreRecoverMissesUnregisteredKind(t *testing.T) {
	store, err := OpenPersistentStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	_, _, ok, err := store.Recover(Key{Kind: "unregistered", Arg: "k"})
	require.NoError(t, err)
	assert.False(t, ok)
}
