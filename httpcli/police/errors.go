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
	"fmt"

	liberr "github.com/nabbar/golib/errors"
)

// Error codes for the Traffic Police arbiter, one per failure variant.
const (
	// ErrorAtomicTraffic is returned when a task tries to Get/Borrow a
	// second item while already holding one (reentrant borrow without an
	// intervening Release).
	ErrorAtomicTraffic liberr.CodeError = iota + liberr.MinPkgHttpCliPolice
	// ErrorUnavailableTraffic is returned by a non-blocking Get/Locate call
	// that finds nothing ready, or a blocking call whose ctx is done first.
	ErrorUnavailableTraffic
	// ErrorOverwhelmedTraffic is returned when the registry is at capacity
	// and no idle item could be sacrificed to make room.
	ErrorOverwhelmedTraffic
	// ErrorTimeout is returned when a blocking call's timeout elapses.
	ErrorTimeout
)

func init() {
	if liberr.ExistInMapMessage(ErrorAtomicTraffic) {
		panic(fmt.Errorf("error code collision with package golib/httpcli/police"))
	}
	liberr.RegisterIdFctMessage(ErrorAtomicTraffic, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorAtomicTraffic:
		return "one connection or pool may be active per task at a given time; call release first"
	case ErrorUnavailableTraffic:
		return "no connection or pool is currently available"
	case ErrorOverwhelmedTraffic:
		return "registry is at capacity and no idle item could be reclaimed"
	case ErrorTimeout:
		return "timed out while waiting for a connection or pool to become available"
	}

	return liberr.NullMessage
}
