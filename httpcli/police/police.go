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

package police

import (
	"context"
	"sync"
	"time"
)

// GetOptions narrows which item Get is willing to hand back.
type GetOptions struct {
	// NonSaturatedOnly skips any item currently StateSaturated.
	NonSaturatedOnly bool
	// NotIdleOnly skips any item currently StateIdle, used when a caller
	// specifically wants to keep piling work onto an already-busy
	// multiplexed item instead of waking up a fresh one.
	NotIdleOnly bool
}

// TrafficPolice is a task-safe, bounded registry of connections or pools
// (T). It is the generic bounded-concurrency arbiter: it tracks
// which items exist (registry), which are currently available for a new
// task to pick up (container), and an indicator->item index used to locate
// the item backing a given ResponsePromise/LowLevelResponse/pool key
// without a linear scan (map/mapTypes).
type TrafficPolice[T Manageable] struct {
	mu   sync.Mutex
	cond *sync.Cond

	maxSize     int // 0 means unbounded
	concurrency bool

	nextHandle    Handle
	registry      map[Handle]T
	registryOrder []Handle // insertion order, scanned by sacrificeFirstIdle

	containerOrder []Handle
	containerSet   map[Handle]bool

	index    map[any]Handle
	shutdown bool
}

// New constructs a TrafficPolice. maxSize <= 0 means unbounded. concurrency
// true allows the same item to remain available for more than one task to
// borrow concurrently (appropriate for H2/H3 multiplexed items); false
// enforces single-task ownership per item (appropriate for H1 connections).
func New[T Manageable](maxSize int, concurrency bool) *TrafficPolice[T] {
	p := &TrafficPolice[T]{
		maxSize:      maxSize,
		concurrency:  concurrency,
		registry:     make(map[Handle]T),
		containerSet: make(map[Handle]bool),
		index:        make(map[any]Handle),
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Len returns the number of items currently registered (regardless of
// availability), mirroring the original source's __len__.
func (p *TrafficPolice[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.registry)
}

// QSize returns the number of items currently available for Get/Borrow.
func (p *TrafficPolice[T]) QSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.containerOrder)
}

// RSize returns the number of items currently registered.
func (p *TrafficPolice[T]) RSize() int {
	return p.Len()
}

// Counts returns the registry size broken down by TrafficState, used by
// httpcli/metrics to expose pool occupancy gauges.
func (p *TrafficPolice[T]) Counts() (total, idle, active, saturated int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	total = len(p.registry)
	for _, item := range p.registry {
		switch item.TrafficState() {
		case StateIdle:
			idle++
		case StateActive:
			active++
		case StateSaturated:
			saturated++
		}
	}
	return
}

// watchCtx broadcasts on the condition variable once ctx is done, so a
// blocked Wait() wakes up to re-check its predicate instead of hanging
// forever past the caller's deadline/cancellation.
func (p *TrafficPolice[T]) watchCtx(ctx context.Context, stop chan struct{}) {
	select {
	case <-ctx.Done():
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	case <-stop:
	}
}

func (p *TrafficPolice[T]) containerPushFront(h Handle) {
	p.containerOrder = append([]Handle{h}, p.containerOrder...)
	p.containerSet[h] = true
}

// containerPopMostRecent pops from the same end Put pushes onto, giving the
// bag its LIFO bias: get() immediately after put(x) returns x.
func (p *TrafficPolice[T]) containerPopMostRecent() (Handle, bool) {
	if len(p.containerOrder) == 0 {
		return 0, false
	}
	h := p.containerOrder[0]
	p.containerOrder = p.containerOrder[1:]
	delete(p.containerSet, h)
	return h, true
}

func (p *TrafficPolice[T]) registryOrderRemove(h Handle) {
	for i, v := range p.registryOrder {
		if v == h {
			p.registryOrder = append(p.registryOrder[:i], p.registryOrder[i+1:]...)
			return
		}
	}
}

func (p *TrafficPolice[T]) containerRemove(h Handle) bool {
	if !p.containerSet[h] {
		return false
	}
	delete(p.containerSet, h)
	for i, v := range p.containerOrder {
		if v == h {
			p.containerOrder = append(p.containerOrder[:i], p.containerOrder[i+1:]...)
			break
		}
	}
	return true
}

func (p *TrafficPolice[T]) indexClear(h Handle) {
	for k, v := range p.index {
		if v == h {
			delete(p.index, k)
		}
	}
}

// sacrificeFirstIdle evicts the first-registered, available, idle item to
// make room in a bounded registry, scanning registration order rather than
// Go's randomized map iteration so the oldest qualifying item is always the
// one chosen. It returns ErrorOverwhelmedTraffic if no item qualifies.
func (p *TrafficPolice[T]) sacrificeFirstIdle() error {
	if len(p.registry) == 0 {
		return nil
	}

	for _, h := range p.registryOrder {
		if p.containerSet[h] && p.registry[h].TrafficState() == StateIdle {
			item := p.registry[h]
			p.indexClear(h)
			delete(p.registry, h)
			p.registryOrderRemove(h)
			p.containerRemove(h)
			_ = item.Close()
			return nil
		}
	}

	return ErrorOverwhelmedTraffic.Error(nil)
}

// Put registers item if new, or returns it to the container if it was
// previously checked out. indicators are optional traffic indicators
// (ResponsePromise, *conn.LowLevelResponse, a pool key, ...) immediately
// memorized against item. immediatelyUnavailable marks the item as checked
// out by task rather than placed in the container (used when a backend
// hands off a freshly dialed connection that the caller is about to use
// right away).
func (p *TrafficPolice[T]) Put(task *Task, item T, indicators []any, immediatelyUnavailable bool) error {
	p.mu.Lock()
	defer func() {
		p.cond.Broadcast()
		p.mu.Unlock()
	}()

	if p.shutdown {
		if task != nil {
			_ = p.killCursorLocked(task)
		}
		if len(p.registry) == 0 {
			p.shutdown = false
		}
		return nil
	}

	var h Handle
	registered := false

	for k, v := range p.registry {
		if any(v) == any(item) {
			h = k
			registered = true
			break
		}
	}

	if !registered {
		if p.maxSize > 0 && len(p.registry) >= p.maxSize {
			if err := p.sacrificeFirstIdle(); err != nil {
				return err
			}
		}

		p.nextHandle++
		h = p.nextHandle
		p.registry[h] = item
		p.registryOrder = append(p.registryOrder, h)
	} else if p.containerSet[h] {
		return nil
	} else if task != nil && task.held && task.handle == h {
		task.held = false
	}

	if !immediatelyUnavailable {
		p.containerPushFront(h)
	} else if task != nil {
		task.held = true
		task.handle = h
		if p.concurrency {
			p.containerPushFront(h)
		}
	}

	for _, ind := range indicators {
		p.index[ind] = h
	}

	return nil
}

// Get blocks (unless opts requests otherwise via a pre-cancelled ctx) until
// an item is available, then checks it out under task. A bounded registry
// that is not yet full returns (zero, false, nil) immediately — the
// original source's "simulate the old empty-bag behavior" case, which lets
// a pool manager decide to dial a brand-new connection instead of waiting.
func (p *TrafficPolice[T]) Get(ctx context.Context, task *Task, opts GetOptions) (T, bool, error) {
	var zero T

	stop := make(chan struct{})
	defer close(stop)
	go p.watchCtx(ctx, stop)

	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if task != nil && task.held {
			return zero, false, ErrorAtomicTraffic.Error(nil)
		}

		if len(p.containerOrder) == 0 && p.maxSize > 0 && p.maxSize > len(p.registry) {
			return zero, false, nil
		}

		if h, item, ok := p.pickFromContainer(opts); ok {
			if task != nil {
				task.held = true
				task.handle = h
			}
			return item, true, nil
		}

		select {
		case <-ctx.Done():
			return zero, false, ErrorUnavailableTraffic.Error(ctx.Err())
		default:
		}

		p.cond.Wait()
	}
}

// pickFromContainer must be called with p.mu held. It selects and removes
// (unless concurrency keeps it available) the most-recently-available
// container entry matching opts: get() pops from the same end put() pushes
// onto (LIFO), scanning head-to-tail so the first match is also the most
// recently returned item.
func (p *TrafficPolice[T]) pickFromContainer(opts GetOptions) (Handle, T, bool) {
	var zero T

	if len(p.containerOrder) == 0 {
		return 0, zero, false
	}

	if !opts.NonSaturatedOnly && !opts.NotIdleOnly {
		h, ok := p.containerPopMostRecent()
		if !ok {
			return 0, zero, false
		}
		item := p.registry[h]
		if p.concurrency {
			p.containerPushFront(h)
		}
		return h, item, true
	}

	for i := 0; i < len(p.containerOrder); i++ {
		h := p.containerOrder[i]
		item := p.registry[h]

		if opts.NonSaturatedOnly && item.TrafficState() == StateSaturated {
			continue
		}
		if opts.NotIdleOnly && item.TrafficState() == StateIdle {
			continue
		}

		p.containerOrder = append(p.containerOrder[:i], p.containerOrder[i+1:]...)
		delete(p.containerSet, h)
		if p.concurrency {
			p.containerPushFront(h)
		}
		return h, item, true
	}

	return 0, zero, false
}

// Release returns task's checked-out item to the container (for
// non-concurrent items; concurrent items were already left available by
// Get/Borrow) and clears the task's cursor.
func (p *TrafficPolice[T]) Release(task *Task) {
	if task == nil || !task.held {
		return
	}

	p.mu.Lock()
	if !p.concurrency {
		p.containerPushFront(task.handle)
	}
	task.held = false
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Borrow is Get/locate-then-release-on-return collapsed into one call: fn
// runs with the checked-out item, and Release is guaranteed to run
// afterward even if fn panics or returns an error.
func (p *TrafficPolice[T]) Borrow(ctx context.Context, task *Task, opts GetOptions, fn func(T) error) error {
	if task.held {
		item := p.registry[task.handle]
		return fn(item)
	}

	item, ok, err := p.Get(ctx, task, opts)
	if err != nil {
		return err
	}
	if !ok {
		return ErrorUnavailableTraffic.Error(nil)
	}

	defer p.Release(task)
	return fn(item)
}

// Memorize associates indicator with the item task currently holds (or
// with item explicitly, if task is nil).
func (p *TrafficPolice[T]) Memorize(task *Task, indicator any, item *T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var h Handle

	if item == nil {
		if task == nil || !task.held {
			return ErrorAtomicTraffic.Error(nil)
		}
		h = task.handle
	} else {
		found := false
		for k, v := range p.registry {
			if any(v) == any(*item) {
				h = k
				found = true
				break
			}
		}
		if !found {
			return ErrorUnavailableTraffic.Error(nil)
		}
	}

	p.index[indicator] = h
	return nil
}

// Forget removes a previously memorized indicator.
func (p *TrafficPolice[T]) Forget(indicator any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.index, indicator)
}

// Beacon reports whether indicator currently resolves to a managed item.
func (p *TrafficPolice[T]) Beacon(indicator any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.index[indicator]
	return ok
}

// Locate resolves indicator to its item and checks it out under task,
// blocking until it becomes available (unless ctx ends first).
func (p *TrafficPolice[T]) Locate(ctx context.Context, task *Task, indicator any) (T, error) {
	var zero T

	p.mu.Lock()
	h, ok := p.index[indicator]
	p.mu.Unlock()

	if !ok {
		return zero, ErrorUnavailableTraffic.Error(nil)
	}

	stop := make(chan struct{})
	defer close(stop)
	go p.watchCtx(ctx, stop)

	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if task != nil && task.held {
			if task.handle == h {
				return p.registry[h], nil
			}
			return zero, ErrorAtomicTraffic.Error(nil)
		}

		if p.containerSet[h] {
			if !p.concurrency {
				p.containerRemove(h)
			}
			if task != nil {
				task.held = true
				task.handle = h
			}
			return p.registry[h], nil
		}

		select {
		case <-ctx.Done():
			return zero, ErrorTimeout.Error(ctx.Err())
		default:
		}

		p.cond.Wait()
	}
}

func (p *TrafficPolice[T]) killCursorLocked(task *Task) error {
	if task == nil || !task.held {
		return nil
	}

	h := task.handle
	item, ok := p.registry[h]
	if !ok {
		task.held = false
		return nil
	}

	p.indexClear(h)
	delete(p.registry, h)
	p.registryOrderRemove(h)
	p.containerRemove(h)
	task.held = false

	_ = item.Close()
	return nil
}

// KillCursor destroys the item task currently holds instead of returning it
// to service, used when a connection is unrecoverable.
func (p *TrafficPolice[T]) KillCursor(task *Task) error {
	p.mu.Lock()
	defer func() {
		p.cond.Broadcast()
		p.mu.Unlock()
	}()
	return p.killCursorLocked(task)
}

// IterIdle runs fn once for each currently-idle, available item, releasing
// it back to the container between calls. task must not already hold an
// item. Iteration stops early if fn returns an error.
func (p *TrafficPolice[T]) IterIdle(task *Task, fn func(T) error) error {
	if task.held {
		return ErrorAtomicTraffic.Error(nil)
	}

	for {
		p.mu.Lock()
		var (
			h    Handle
			item T
			ok   bool
		)
		for i := 0; i < len(p.containerOrder); i++ {
			cand := p.containerOrder[i]
			if p.registry[cand].TrafficState() == StateIdle {
				h, item, ok = cand, p.registry[cand], true
				p.containerOrder = append(p.containerOrder[:i], p.containerOrder[i+1:]...)
				delete(p.containerSet, h)
				break
			}
		}
		p.mu.Unlock()

		if !ok {
			return nil
		}

		task.held = true
		task.handle = h
		err := fn(item)
		p.Release(task)

		if err != nil {
			return err
		}
	}
}

// Clear releases every idle item immediately; any non-idle item is left
// registered but flagged for teardown the next time it is Put back
// (shutdown mode), matching the original source's best-effort graceful
// drain.
func (p *TrafficPolice[T]) Clear() error {
	p.mu.Lock()
	defer func() {
		p.cond.Broadcast()
		p.mu.Unlock()
	}()

	var planned []Handle
	for _, h := range p.containerOrder {
		if p.registry[h].TrafficState() == StateIdle {
			planned = append(planned, h)
		}
	}

	for _, h := range planned {
		p.containerRemove(h)
	}

	if len(p.registry) > len(planned) {
		p.shutdown = true
	}

	for _, h := range planned {
		item := p.registry[h]
		delete(p.registry, h)
		p.registryOrderRemove(h)
		_ = item.Close()
		p.indexClear(h)
	}

	return nil
}

// DrainAndClose blocks until every registered item has become idle and been
// closed, or ctx ends first. It is the resolved counterpart to Clear for
// callers that need a synchronous, total shutdown (e.g. PoolManager.Close)
// rather than Clear's best-effort immediate-idle-only sweep.
func (p *TrafficPolice[T]) DrainAndClose(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go p.watchCtx(ctx, stop)

	for {
		if err := p.Clear(); err != nil {
			return err
		}

		p.mu.Lock()
		empty := len(p.registry) == 0
		p.mu.Unlock()

		if empty {
			return nil
		}

		select {
		case <-ctx.Done():
			return ErrorTimeout.Error(ctx.Err())
		default:
		}

		p.mu.Lock()
		p.cond.Wait()
		p.mu.Unlock()
	}
}

// WaitForSlot blocks until either the registry has room for a new item, or
// at least one registered item satisfies cond (not-saturated or idle,
// depending on the caller), or timeout elapses. This replaces the original
// source's asyncio.sleep(0.001) poll loop with condition-variable
// broadcasts triggered by Put/Release/KillCursor, and fixes a bug in the
// original's timeout check (`combined_wait >= combined_wait`, always false)
// by comparing elapsed time against the caller's timeout directly.
func (p *TrafficPolice[T]) WaitForSlot(ctx context.Context, timeout time.Duration, cond func(TrafficState) bool) error {
	if p.maxSize <= 0 {
		return nil
	}

	start := time.Now()

	stop := make(chan struct{})
	defer close(stop)
	go p.watchCtx(ctx, stop)

	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if len(p.registry) < p.maxSize {
			return nil
		}

		for h, item := range p.registry {
			if p.containerSet[h] && cond(item.TrafficState()) {
				return nil
			}
		}

		if timeout > 0 && time.Since(start) >= timeout {
			return ErrorTimeout.Error(nil)
		}

		select {
		case <-ctx.Done():
			return ErrorTimeout.Error(ctx.Err())
		default:
		}

		p.cond.Wait()
	}
}
