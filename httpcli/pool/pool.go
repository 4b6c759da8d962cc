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

// Package pool composes one TrafficPolice[conn.BaseBackend] per destination
// (host:port, scheme) into a two-level structure:
// a per-destination ConnectionPool, and a PoolManager keying pools by
// destination. It is also where conn.ConnHandle is bridged to police.Handle,
// since conn must not import police.
package pool

import (
	"context"
	"sync"

	"github.com/nabbar/golib/httpcli/conn"
	"github.com/nabbar/golib/httpcli/police"
)

// backendItem adapts a conn.BaseBackend to police.Manageable: TrafficState
// is derived from the backend's ConnState and, for multiplexed backends,
// how saturated its concurrent streams are.
type backendItem struct {
	conn.BaseBackend
	maxStreams int
	streams    func() int
}

func (b *backendItem) TrafficState() police.TrafficState {
	switch b.State() {
	case conn.Closed, conn.Closing:
		return police.StateSaturated
	}

	if !b.Version().IsMultiplexed() {
		if b.State() == conn.RequestHeadersOpen || b.State() == conn.RequestBodyOpen ||
			b.State() == conn.AwaitingResponse || b.State() == conn.StreamingResponse {
			return police.StateSaturated
		}
		return police.StateIdle
	}

	if b.streams == nil || b.maxStreams <= 0 {
		return police.StateIdle
	}

	n := b.streams()
	switch {
	case n == 0:
		return police.StateIdle
	case n >= b.maxStreams:
		return police.StateSaturated
	default:
		return police.StateActive
	}
}

func (b *backendItem) Close() error {
	return b.BaseBackend.Close(context.Background())
}

// ConnectionPool is a single destination's set of connections, arbitrated
// by a TrafficPolice[*backendItem].
type ConnectionPool struct {
	destination string

	mu     sync.RWMutex
	byID   map[uint64]*backendItem
	nextID uint64
	gen    uint64

	arbiter *police.TrafficPolice[*backendItem]
}

// NewConnectionPool constructs an empty pool for destination, bounded by
// maxSize (0 = unbounded) connections.
func NewConnectionPool(destination string, maxSize int) *ConnectionPool {
	return &ConnectionPool{
		destination: destination,
		byID:        make(map[uint64]*backendItem),
		arbiter:     police.New[*backendItem](maxSize, true),
		gen:         1,
	}
}

// Destination returns the "host:port" (or scheme-qualified) key this pool
// serves.
func (c *ConnectionPool) Destination() string {
	return c.destination
}

// Adopt registers a newly dialed backend with the pool and returns the
// opaque ConnHandle a ResponsePromise should carry.
func (c *ConnectionPool) Adopt(b conn.BaseBackend, maxStreams int, streams func() int) (conn.ConnHandle, error) {
	item := &backendItem{BaseBackend: b, maxStreams: maxStreams, streams: streams}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.byID[id] = item
	c.mu.Unlock()

	if err := c.arbiter.Put(nil, item, nil, false); err != nil {
		return conn.ConnHandle{}, err
	}

	return conn.ConnHandle{ID: id, Generation: c.gen}, nil
}

// Resolve implements conn.ConnResolver, bridging ConnHandle back to the live
// BaseBackend it names, or ok=false if the connection was evicted.
func (c *ConnectionPool) Resolve(h conn.ConnHandle) (conn.BaseBackend, bool) {
	if h.Generation != c.gen {
		return nil, false
	}

	c.mu.RLock()
	item, ok := c.byID[h.ID]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return item.BaseBackend, true
}

// Borrow checks out a backend (dialing a new one via dial if the pool is
// not yet full and nothing is available) for the duration of fn.
func (c *ConnectionPool) Borrow(ctx context.Context, task *police.Task, dial func(ctx context.Context) (conn.BaseBackend, error), fn func(conn.BaseBackend) error) error {
	item, ok, err := c.arbiter.Get(ctx, task, police.GetOptions{NonSaturatedOnly: true})
	if err != nil {
		return err
	}

	if !ok {
		b, derr := dial(ctx)
		if derr != nil {
			return derr
		}
		if _, aerr := c.Adopt(b, 0, nil); aerr != nil {
			return aerr
		}
		item, ok, err = c.arbiter.Get(ctx, task, police.GetOptions{})
		if err != nil {
			return err
		}
		if !ok {
			return err
		}
	}

	defer c.arbiter.Release(task)
	return fn(item.BaseBackend)
}

// NewTask mints a *police.Task bound to this pool's arbiter, scoping one
// goroutine's borrow/release cursor the way AttachTask does for callers that
// talk to the arbiter directly.
func (c *ConnectionPool) NewTask() *police.Task {
	return c.arbiter.AttachTask()
}

// Release returns the item task holds to the pool without running a
// callback, used once a ResponsePromise has been fully consumed.
func (c *ConnectionPool) Release(task *police.Task) {
	c.arbiter.Release(task)
}

// Close drains and closes every connection in the pool.
func (c *ConnectionPool) Close(ctx context.Context) error {
	return c.arbiter.DrainAndClose(ctx)
}

// Len reports how many connections are currently registered.
func (c *ConnectionPool) Len() int {
	return c.arbiter.Len()
}

// Counts returns this pool's connection count broken down by TrafficState.
func (c *ConnectionPool) Counts() (total, idle, active, saturated int) {
	return c.arbiter.Counts()
}
