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
	"bytes"
	"io"
	"sync"

	"github.com/nabbar/golib/ioutils/bufferReadCloser"
)

// LowLevelResponse is the partially- or fully-received response headers and
// body for a single request. It is filled in by a backend as bytes arrive
// off the wire and exposed to the caller through Read, which never blocks
// past what has already been buffered beyond what the underlying body
// reader provides.
type LowLevelResponse struct {
	mu sync.Mutex

	method  string
	version HttpVersion
	status  int
	reason  string
	headers Headers

	body     io.Reader
	overflow bufferReadCloser.Buffer

	closed bool
}

// NewLowLevelResponse constructs a response once status line and headers
// have been fully parsed. body is the live stream the backend decodes
// incrementally (chunked/length-delimited for H1, DATA frames for H2/H3).
func NewLowLevelResponse(method string, version HttpVersion, status int, reason string, headers Headers, body io.Reader) *LowLevelResponse {
	return &LowLevelResponse{
		method:   method,
		version:  version,
		status:   status,
		reason:   reason,
		headers:  headers,
		body:     body,
		overflow: bufferReadCloser.NewBuffer(bytes.NewBuffer(nil), nil),
	}
}

func (r *LowLevelResponse) Method() string    { return r.method }
func (r *LowLevelResponse) Version() HttpVersion { return r.version }
func (r *LowLevelResponse) Status() int       { return r.status }
func (r *LowLevelResponse) Reason() string    { return r.reason }
func (r *LowLevelResponse) Headers() Headers  { return r.headers }

// ReadN implements the original source's read(amt) contract:
//   - amt < 0 drains the remainder of the body in one call;
//   - amt == 0 returns (0, nil) without touching the underlying stream;
//   - amt > 0 returns up to amt bytes, pulling from any previously
//     over-read overflow buffer before the live body reader.
func (r *LowLevelResponse) ReadN(amt int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if amt == 0 {
		return []byte{}, nil
	}

	if r.closed {
		return nil, ErrorIOClosed.Error(nil)
	}

	if amt < 0 {
		var out bytes.Buffer
		_, _ = r.overflow.WriteTo(&out)
		if r.body != nil {
			if _, err := out.ReadFrom(r.body); err != nil && err != io.EOF {
				return out.Bytes(), err
			}
		}
		return out.Bytes(), nil
	}

	buf := make([]byte, amt)
	n := 0

	if on, _ := r.overflow.Read(buf); on > 0 {
		n += on
	}

	if n < amt && r.body != nil {
		bn, err := io.ReadFull(r.body, buf[n:])
		n += bn
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return buf[:n], err
		}
	}

	return buf[:n], nil
}

// Read implements io.Reader atop ReadN so a LowLevelResponse can be passed
// directly to io.Copy, json.Decoder, and the like. Unlike ReadN it follows
// io.Reader's contract exactly: once the body is exhausted it returns
// io.EOF rather than (0, nil).
func (r *LowLevelResponse) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	b, err := r.ReadN(len(p))
	n := copy(p, b)

	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// PushOverflow stashes bytes the backend read past a stream boundary (e.g.
// an H2 DATA frame that arrived alongside the next frame's header) so a
// later Read call returns them before pulling more from the live body.
func (r *LowLevelResponse) PushOverflow(b []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.overflow.Write(b)
}

// Close releases the body reader and any buffered overflow. Subsequent
// Read calls return ErrorIOClosed.
func (r *LowLevelResponse) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	_ = r.overflow.Close()

	if c, ok := r.body.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
