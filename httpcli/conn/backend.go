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
	"context"
	"net/url"
)

// TunnelTarget describes the CONNECT-tunnel endpoint requested via SetTunnel,
// used when routing a TLS connection through an HTTP proxy.
type TunnelTarget struct {
	Host string
	Port int
}

// StreamHandle identifies one request/response exchange on a BaseBackend.
// H1 backends serve a single request at a time and always hand back the
// zero StreamHandle; H2/H3 backends mint a fresh one per PutRequest so that
// concurrent callers multiplexed onto the same connection never share
// mutable per-request state.
type StreamHandle uint64

// BaseBackend is the state machine every protocol backend (h1, h2, h3)
// implements. Its operations mirror the ConnState transitions one for one:
// a call that is not legal from the backend's current state returns
// ErrorProtocolState instead of being silently accepted.
//
// Implementations are not safe for concurrent use on H1 (one request in
// flight at a time); H2/H3 implementations accept concurrent PutRequest
// calls for distinct streams and serialize internally.
type BaseBackend interface {
	// Version reports the negotiated HTTP version. It is only meaningful
	// once the state has reached at least Connected.
	Version() HttpVersion

	// State returns the backend's current ConnState.
	State() ConnState

	// Info returns the telemetry gathered so far.
	Info() ConnectionInfo

	// NewConn dials and, for TLS-enabled backends, completes the handshake,
	// moving DISCONNECTED -> CONNECTED (or TLS_WRAPPED when TLS is enabled
	// inline rather than via SetTunnel).
	NewConn(ctx context.Context) error

	// PostConn runs any post-handshake bookkeeping (e.g. recording the
	// negotiated ALPN protocol) without changing ConnState.
	PostConn(ctx context.Context) error

	// SetTunnel records a CONNECT-tunnel target, moving CONNECTED ->
	// TUNNEL_REQUESTED. Tunnel then performs the CONNECT handshake.
	SetTunnel(target TunnelTarget) error

	// Tunnel performs the CONNECT handshake against the previously set
	// tunnel target, moving TUNNEL_REQUESTED -> CONNECTED (tunnel
	// established, plaintext) or -> TLS_WRAPPED (tunnel then TLS-wrapped).
	Tunnel(ctx context.Context) error

	// PutRequest opens a new request/stream and returns the StreamHandle
	// that identifies it for the remaining calls below. On H1, which moves
	// CONNECTED -> REQUEST_HEADERS_OPEN on the single shared ConnState, the
	// returned handle is always the zero value. On H2/H3, which multiplex
	// many requests over one connection, each call mints a distinct handle
	// carrying its own header/body/response lifecycle independent of
	// ConnState (reserved there for connection-level phases only). method
	// and target mirror an HTTP request line; target's path/query are sent
	// as-is.
	PutRequest(method string, target *url.URL) (StreamHandle, error)

	// PutHeader appends a header to the request identified by stream.
	// Legal only while that request's header block is still open.
	PutHeader(stream StreamHandle, key, value string) error

	// EndHeaders finalizes the header block for stream, allowing a
	// subsequent Send with a body (or none).
	EndHeaders(stream StreamHandle) error

	// Send writes the request body (nil for none) for stream and flushes
	// the request. It returns a ResponsePromise the caller later resolves
	// via the owning pool.
	Send(ctx context.Context, stream StreamHandle, body []byte) (*ResponsePromise, error)

	// GetResponse blocks until headers for promise have arrived (or ctx is
	// done) and returns the LowLevelResponse now attached to promise. If
	// promise is nil on a multiplexed backend, it returns whichever
	// in-flight promise's response arrives first.
	GetResponse(ctx context.Context, promise *ResponsePromise) (*LowLevelResponse, error)

	// Close tears the connection down, moving any state -> CLOSING -> CLOSED.
	// Close is idempotent.
	Close(ctx context.Context) error
}
