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

// Task is a caller's ticket into a TrafficPolice: the Go replacement for the
// original source's implicit per-coroutine contextvars cursor. Go has no
// equivalent of a coroutine-local variable, so instead of hiding the cursor
// inside the arbiter, every blocking method takes the Task the caller got
// from AttachTask and threads it through explicitly — a goroutine that never
// calls AttachTask simply cannot hold a cursor, which is the point: the
// arbiter cannot accidentally leak state across unrelated goroutines.
//
// A Task is not safe for concurrent use by more than one goroutine at a
// time; callers that fan work out across goroutines attach one Task per
// goroutine.
type Task struct {
	held   bool
	handle Handle
}

// Busy reports whether this task currently holds an item (between Get/Borrow
// and Release).
func (t *Task) Busy() bool {
	return t.held
}

// AttachTask mints a new Task for a goroutine to use across a sequence of
// Get/Borrow/Release calls against this TrafficPolice.
func (p *TrafficPolice[T]) AttachTask() *Task {
	return &Task{}
}
