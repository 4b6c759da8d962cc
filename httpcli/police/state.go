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

// Package police implements the bounded, concurrency-aware multiplexer that
// arbitrates access to a generic set of connections or pools: the "Traffic
// Police".
package police

import "fmt"

// TrafficState reports how available an item managed by a TrafficPolice is.
type TrafficState uint8

const (
	// StateIdle means the item has no pending work; it may be sacrificed to
	// make room for a new item when the registry is at capacity.
	StateIdle TrafficState = iota
	// StateActive means the item has some but not all of its concurrent
	// slots in use (meaningful only for multiplexed items).
	StateActive
	// StateSaturated means the item has no spare concurrent slots.
	StateSaturated
)

func (s TrafficState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateActive:
		return "ACTIVE"
	case StateSaturated:
		return "SATURATED"
	default:
		return "UNKNOWN"
	}
}

// Manageable is the contract an item must satisfy to be placed under a
// TrafficPolice: connections and connection pools alike report their own
// saturation and know how to tear themselves down.
type Manageable interface {
	TrafficState() TrafficState
	Close() error
}

// Handle is the registry-local identity assigned to an item when it is
// first put under management. Go has no object-identity primitive
// equivalent to Python's id(), so the registry mints one instead.
type Handle uint64

func (h Handle) String() string {
	return fmt.Sprintf("police#%d", h)
}
