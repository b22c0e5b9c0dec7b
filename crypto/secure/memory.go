// Package secure provides explicit zeroization of key material.
package secure

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// ErrCleared is returned when a cleared Secret is read.
var ErrCleared = errors.New("secret has been cleared")

// Secret holds sensitive bytes until Clear is called.
type Secret struct {
	mu   sync.RWMutex
	data []byte
}

// FromBytes copies data into a new Secret. The caller keeps ownership of data.
func FromBytes(data []byte) *Secret {
	s := &Secret{data: append([]byte(nil), data...)}
	runtime.SetFinalizer(s, (*Secret).Clear)
	return s
}

// Use calls fn with the secret bytes. fn must not retain the slice.
func (s *Secret) Use(fn func([]byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return ErrCleared
	}
	return fn(s.data)
}

// Len returns the size of the secret, zero once cleared.
func (s *Secret) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// IsCleared reports whether Clear has run.
func (s *Secret) IsCleared() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data == nil
}

// Clear zeroes the secret. It is safe to call more than once.
func (s *Secret) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data != nil {
		Zeroize(s.data)
		s.data = nil
		runtime.SetFinalizer(s, nil)
	}
}

// Zeroize explicitly zeros out sensitive data from memory
func Zeroize(data []byte) {
	if len(data) == 0 {
		return
	}
	for i := range data {
		data[i] = 0
	}
	// Keep the writes from being optimized away
	runtime.KeepAlive(data)
}

// ZeroizeMultiple zeros multiple byte slices in a single call
func ZeroizeMultiple(slices ...[]byte) {
	for _, slice := range slices {
		Zeroize(slice)
	}
}
