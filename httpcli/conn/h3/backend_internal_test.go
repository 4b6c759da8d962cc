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

package h3

import (
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/golib/httpcli/conn"
)

func newEstablishedBackend() *Backend {
	b := &Backend{streams: make(map[uint64]*streamState)}
	if err := b.Transition(conn.Connected); err != nil {
		panic(err)
	}
	if err := b.Transition(conn.TLSWrapped); err != nil {
		panic(err)
	}
	return b
}

var _ = Describe("Backend", func() {
	It("mints a distinct stream handle per PutRequest", func() {
		b := newEstablishedBackend()

		streamA, err := b.PutRequest("GET", &url.URL{Host: "example.com"})
		Expect(err).ToNot(HaveOccurred())

		streamB, err := b.PutRequest("GET", &url.URL{Host: "example.com"})
		Expect(err).ToNot(HaveOccurred())

		Expect(streamB).ToNot(Equal(streamA))
	})

	It("allows a second PutRequest while the first stream is still open (no connection-wide serialization)", func() {
		b := newEstablishedBackend()

		streamA, err := b.PutRequest("GET", &url.URL{Host: "example.com"})
		Expect(err).ToNot(HaveOccurred())
		Expect(b.EndHeaders(streamA)).ToNot(HaveOccurred())

		// streamA has moved past its header phase but neither Send nor
		// GetResponse has run for it yet; PutRequest must still succeed
		// because ConnState only tracks the connection, not this request.
		_, err = b.PutRequest("GET", &url.URL{Host: "example.com"})
		Expect(err).ToNot(HaveOccurred())
		Expect(b.State()).To(Equal(conn.TLSWrapped))
	})

	It("rejects PutHeader once the header phase has closed", func() {
		b := newEstablishedBackend()

		stream, err := b.PutRequest("GET", &url.URL{Host: "example.com"})
		Expect(err).ToNot(HaveOccurred())
		Expect(b.EndHeaders(stream)).ToNot(HaveOccurred())

		Expect(b.PutHeader(stream, "X-Late", "1")).To(HaveOccurred())
	})

	It("rejects PutHeader/EndHeaders against an unknown stream handle", func() {
		b := newEstablishedBackend()

		Expect(b.PutHeader(conn.StreamHandle(99), "X", "1")).To(HaveOccurred())
		Expect(b.EndHeaders(conn.StreamHandle(99))).To(HaveOccurred())
	})

	It("rejects PutRequest before the connection is established", func() {
		b := &Backend{streams: make(map[uint64]*streamState)}
		_, err := b.PutRequest("GET", &url.URL{})
		Expect(err).To(HaveOccurred())
	})
})
