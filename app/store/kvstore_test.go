package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModuleServicesAreIsolated(t *testing.T) {
	svc, err := Open("test", BackendMemory, "")
	require.NoError(t, err)
	defer svc.Close()

	ctx := context.Background()
	pool := svc.ModuleService("pool").OpenKVStore(ctx)
	vault := svc.ModuleService("vault").OpenKVStore(ctx)

	require.NoError(t, pool.Set([]byte("k"), []byte("pool")))
	require.NoError(t, vault.Set([]byte("k"), []byte("vault")))

	v, err := pool.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("pool"), v)

	v, err = vault.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("vault"), v)
}

func TestIteratorStripsPrefix(t *testing.T) {
	svc, err := Open("test", BackendMemory, "")
	require.NoError(t, err)

	ctx := context.Background()
	kv := svc.ModuleService("pool").OpenKVStore(ctx)
	other := svc.ModuleService("poolx").OpenKVStore(ctx)

	require.NoError(t, kv.Set([]byte("a"), []byte("1")))
	require.NoError(t, kv.Set([]byte("b"), []byte("2")))
	require.NoError(t, other.Set([]byte("c"), []byte("3")))

	it, err := kv.Iterator(nil, nil)
	require.NoError(t, err)
	defer it.Close()

	var keys []string
	for ; it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.Equal(t, []string{"a", "b"}, keys)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("test", "rocksdb", t.TempDir())
	require.Error(t, err)
}
