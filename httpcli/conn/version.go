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

// Package conn defines the connection-side abstractions shared by every
// protocol backend: the HTTP version negotiated on a transport, per-connection
// telemetry, the request/response promise model, and the BaseBackend state
// machine contract that h1/h2/h3 implement.
package conn

// HttpVersion is the HTTP protocol major revision negotiated on a connection.
type HttpVersion uint8

const (
	// H1 is HTTP/1.1 over TCP with optional TLS. Can never be disabled.
	H1 HttpVersion = iota
	// H2 is HTTP/2 over TCP+TLS, negotiated via ALPN "h2".
	H2
	// H3 is HTTP/3 over QUIC, negotiated via ALPN "h3".
	H3
)

// String renders the wire-style protocol name, matching the original
// source's "HTTP/1.1"/"HTTP/2.0"/"HTTP/3.0" labels.
func (v HttpVersion) String() string {
	switch v {
	case H1:
		return "HTTP/1.1"
	case H2:
		return "HTTP/2.0"
	case H3:
		return "HTTP/3.0"
	default:
		return "HTTP/unknown"
	}
}

// Number returns the numeric encoding used by LowLevelResponse.Version (11, 20, 30).
func (v HttpVersion) Number() int {
	switch v {
	case H1:
		return 11
	case H2:
		return 20
	case H3:
		return 30
	default:
		return 0
	}
}

// IsMultiplexed reports whether the version allows multiple concurrent
// streams per connection (H2/H3).
func (v HttpVersion) IsMultiplexed() bool {
	return v == H2 || v == H3
}
