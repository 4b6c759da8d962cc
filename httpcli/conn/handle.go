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

package conn

import "fmt"

// ConnHandle is an opaque, non-owning reference to a connection registered in
// a pool's Traffic Police registry. It never embeds a pointer to the
// connection itself: a ResponsePromise keeps one of these instead of a
// *BaseBackend so that a connection evicted from its pool cannot be
// resurrected by a stale promise. Generation distinguishes a handle from a
// prior occupant of the same slot after reuse.
type ConnHandle struct {
	ID         uint64
	Generation uint64
}

// IsZero reports whether the handle was never assigned a connection.
func (h ConnHandle) IsZero() bool {
	return h.ID == 0 && h.Generation == 0
}

func (h ConnHandle) String() string {
	return fmt.Sprintf("conn#%d/%d", h.ID, h.Generation)
}

// ConnResolver resolves a ConnHandle back to a live BaseBackend. It returns
// ok=false once the connection has been evicted or its slot recycled under a
// new generation, letting a stale ResponsePromise fail cleanly instead of
// touching freed or repurposed state.
type ConnResolver interface {
	Resolve(h ConnHandle) (backend BaseBackend, ok bool)
}
