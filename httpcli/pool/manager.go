/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package pool

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"

	liberr "github.com/nabbar/golib/errors"
)

// ErrorNoSuchPool mirrors httpcli.ErrorNoSuchPool under this package's own
// registered range so pool-level callers do not need to import httpcli.
const ErrorNoSuchPool liberr.CodeError = iota + liberr.MinPkgHttpCliPool

func init() {
	liberr.RegisterIdFctMessage(ErrorNoSuchPool, func(code liberr.CodeError) string {
		if code == ErrorNoSuchPool {
			return "no connection pool registered for this destination"
		}
		return liberr.NullMessage
	})
}

// PoolManager owns one ConnectionPool per destination, creating pools
// lazily on first use.
type PoolManager struct {
	mu      sync.RWMutex
	maxSize int
	pools   map[string]*ConnectionPool
}

// NewPoolManager constructs an empty manager. maxSize bounds every pool it
// creates.
func NewPoolManager(maxSize int) *PoolManager {
	return &PoolManager{
		maxSize: maxSize,
		pools:   make(map[string]*ConnectionPool),
	}
}

// PoolFor returns the pool for destination, creating it if this is the
// first request for it.
func (m *PoolManager) PoolFor(destination string) *ConnectionPool {
	m.mu.RLock()
	p, ok := m.pools[destination]
	m.mu.RUnlock()

	if ok {
		return p
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok = m.pools[destination]; ok {
		return p
	}

	p = NewConnectionPool(destination, m.maxSize)
	m.pools[destination] = p
	return p
}

// Lookup returns the pool for destination without creating one, and
// ErrorNoSuchPool if none has ever been opened.
func (m *PoolManager) Lookup(destination string) (*ConnectionPool, liberr.Error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.pools[destination]
	if !ok {
		return nil, ErrorNoSuchPool.Error(nil)
	}
	return p, nil
}

// Destinations lists every destination with an open pool.
func (m *PoolManager) Destinations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.pools))
	for d := range m.pools {
		out = append(out, d)
	}
	return out
}

// Close drains and closes every pool, aggregating any errors encountered
// rather than stopping at the first one, so a slow or stuck destination
// does not prevent the others from shutting down.
func (m *PoolManager) Close(ctx context.Context) error {
	m.mu.RLock()
	pools := make([]*ConnectionPool, 0, len(m.pools))
	for _, p := range m.pools {
		pools = append(pools, p)
	}
	m.mu.RUnlock()

	var result *multierror.Error
	for _, p := range pools {
		if err := p.Close(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if result != nil {
		return result.ErrorOrNil()
	}
	return nil
}
