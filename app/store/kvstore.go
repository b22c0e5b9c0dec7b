// Package store adapts cosmos-db databases to the core KVStoreService used by
// the collections-backed keepers.
package store

import (
	"context"
	"fmt"

	dbm "github.com/cosmos/cosmos-db"

	corestore "cosmossdk.io/core/store"
)

// Backend names accepted by Open.
const (
	BackendMemory  = "memdb"
	BackendLevelDB = "goleveldb"
)

// Service hands out prefixed views of a single database so that every module
// gets an isolated key space.
type Service struct {
	db dbm.DB
}

// NewService wraps an open database.
func NewService(db dbm.DB) *Service {
	return &Service{db: db}
}

// Open opens (or creates) the named database under dir using backend.
func Open(name, backend, dir string) (*Service, error) {
	switch backend {
	case "", BackendMemory:
		return NewService(dbm.NewMemDB()), nil
	case BackendLevelDB:
		db, err := dbm.NewDB(name, dbm.GoLevelDBBackend, dir)
		if err != nil {
			return nil, fmt.Errorf("open %s database at %s: %w", backend, dir, err)
		}
		return NewService(db), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", backend)
	}
}

// ModuleService returns a KVStoreService whose keys are namespaced by module.
func (s *Service) ModuleService(module string) corestore.KVStoreService {
	return moduleService{store: &prefixStore{db: s.db, prefix: []byte(module + "/")}}
}

// Close releases the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}

type moduleService struct {
	store *prefixStore
}

func (m moduleService) OpenKVStore(context.Context) corestore.KVStore {
	return m.store
}

type prefixStore struct {
	db     dbm.DB
	prefix []byte
}

var _ corestore.KVStore = (*prefixStore)(nil)

func (p *prefixStore) key(k []byte) []byte {
	out := make([]byte, 0, len(p.prefix)+len(k))
	out = append(out, p.prefix...)
	return append(out, k...)
}

func (p *prefixStore) Get(key []byte) ([]byte, error) {
	return p.db.Get(p.key(key))
}

func (p *prefixStore) Has(key []byte) (bool, error) {
	return p.db.Has(p.key(key))
}

func (p *prefixStore) Set(key, value []byte) error {
	return p.db.Set(p.key(key), value)
}

func (p *prefixStore) Delete(key []byte) error {
	return p.db.Delete(p.key(key))
}

func (p *prefixStore) Iterator(start, end []byte) (corestore.Iterator, error) {
	s, e := p.bounds(start, end)
	it, err := p.db.Iterator(s, e)
	if err != nil {
		return nil, err
	}
	return &prefixIterator{Iterator: it, prefix: p.prefix, start: start, end: end}, nil
}

func (p *prefixStore) ReverseIterator(start, end []byte) (corestore.Iterator, error) {
	s, e := p.bounds(start, end)
	it, err := p.db.ReverseIterator(s, e)
	if err != nil {
		return nil, err
	}
	return &prefixIterator{Iterator: it, prefix: p.prefix, start: start, end: end}, nil
}

// bounds maps a module-relative range onto the absolute key space.
func (p *prefixStore) bounds(start, end []byte) ([]byte, []byte) {
	s := p.key(start)
	if end != nil {
		return s, p.key(end)
	}
	return s, prefixEnd(p.prefix)
}

// prefixEnd returns the smallest key greater than every key carrying prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

type prefixIterator struct {
	dbm.Iterator
	prefix     []byte
	start, end []byte
}

func (it *prefixIterator) Domain() ([]byte, []byte) {
	return it.start, it.end
}

func (it *prefixIterator) Key() []byte {
	return it.Iterator.Key()[len(it.prefix):]
}
