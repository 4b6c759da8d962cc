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

import "net/http"

// Headers is an ordered, case-insensitive multi-value header map. It is a
// thin alias over net/http.Header so backends can hand values straight to
// net/textproto-based parsers (h1) or x/net/http2's HPACK encoder (h2)
// without a conversion step.
type Headers = http.Header

// NewHeaders returns an empty Headers map ready for Add/Set.
func NewHeaders() Headers {
	return make(Headers)
}

// CloneHeaders returns a deep copy of h, used when echoing request headers
// onto a ResponsePromise so later mutation of the caller's map cannot affect it.
func CloneHeaders(h Headers) Headers {
	if h == nil {
		return nil
	}
	return h.Clone()
}
