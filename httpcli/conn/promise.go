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

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
)

// newUID returns a 16-random-byte, base64url-encoded, unpadded identifier.
// Collisions are astronomically unlikely (128 bits of entropy) and are not
// checked for, matching the original source's uuid4-less token scheme.
func newUID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand.Read on the stdlib reader only fails if the OS source
		// is exhausted or unavailable; there is no sane degraded mode, so a
		// request id collision risk here is worse than a hard stop.
		panic("httpcli/conn: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// ResponsePromise is the handle a caller holds after Send returns: a
// placeholder for a response that may still be streaming in on a shared,
// multiplexed connection. It never embeds a pointer to its connection,
// only a ConnHandle, so that a promise outliving its connection's eviction
// fails Resolve cleanly instead of touching freed state.
type ResponsePromise struct {
	mu sync.Mutex

	uid      string
	conn     ConnHandle
	streamID uint64
	headers  Headers
	params   map[string]any

	response *LowLevelResponse
}

// NewResponsePromise constructs a promise for a request about to be sent on
// the connection identified by h, echoing the request headers that were sent
// (useful for retries/debugging) and an arbitrary
// caller-supplied parameter bag threaded through unopinionated by this package.
func NewResponsePromise(h ConnHandle, streamID uint64, reqHeaders Headers, params map[string]any) *ResponsePromise {
	return &ResponsePromise{
		uid:      newUID(),
		conn:     h,
		streamID: streamID,
		headers:  CloneHeaders(reqHeaders),
		params:   params,
	}
}

// UID returns the promise's unique, opaque identifier.
func (p *ResponsePromise) UID() string {
	return p.uid
}

// ConnHandle returns the opaque handle of the connection this promise was
// issued against.
func (p *ResponsePromise) ConnHandle() ConnHandle {
	return p.conn
}

// StreamID returns the multiplexed stream identifier (0 on non-multiplexed
// H1 connections, where a connection carries exactly one in-flight request).
func (p *ResponsePromise) StreamID() uint64 {
	return p.streamID
}

// RequestHeaders returns the headers that were sent with the originating
// request, as echoed at promise creation time.
func (p *ResponsePromise) RequestHeaders() Headers {
	return p.headers
}

// Param returns a caller-supplied parameter stashed on this promise, and
// whether it was present.
func (p *ResponsePromise) Param(key string) (any, bool) {
	v, ok := p.params[key]
	return v, ok
}

// Response returns the LowLevelResponse once SetResponse has been called, or
// nil if the response has not yet arrived.
func (p *ResponsePromise) Response() *LowLevelResponse {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.response
}

// SetResponse attaches the response to this promise. It is called exactly
// once, by the backend that owns the connection, once headers (and for H1,
// only headers) have been parsed off the wire.
func (p *ResponsePromise) SetResponse(r *LowLevelResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.response = r
}

// IsAnswered reports whether a LowLevelResponse has been attached yet.
func (p *ResponsePromise) IsAnswered() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.response != nil
}
