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

package h1_test

import (
	"context"
	"net"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/golib/httpcli/conn"
	"github.com/nabbar/golib/httpcli/conn/h1"
)

var _ = Describe("Backend", func() {
	var ln net.Listener

	BeforeEach(func() {
		var err error
		ln, err = net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		_ = ln.Close()
	})

	It("drives a full plaintext request/response cycle", func() {
		serveOnce(ln, "hello")

		b := h1.New(&net.Dialer{}, ln.Addr().String(), nil, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		Expect(b.NewConn(ctx)).ToNot(HaveOccurred())
		Expect(b.State()).To(Equal(conn.Connected))

		target, _ := url.Parse("http://" + ln.Addr().String() + "/")
		stream, err := b.PutRequest("GET", target)
		Expect(err).ToNot(HaveOccurred())

		Expect(b.PutHeader(stream, "X-Test", "1")).ToNot(HaveOccurred())
		Expect(b.EndHeaders(stream)).ToNot(HaveOccurred())

		promise, err := b.Send(ctx, stream, nil)
		Expect(err).ToNot(HaveOccurred())

		resp, err := b.GetResponse(ctx, promise)
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.Status()).To(Equal(200))

		body, err := resp.ReadN(-1)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(body)).To(Equal("hello"))

		Expect(b.Close(ctx)).ToNot(HaveOccurred())
		Expect(b.State()).To(Equal(conn.Closed))
	})

	It("rejects PutRequest before the connection is established", func() {
		b := h1.New(&net.Dialer{}, ln.Addr().String(), nil, nil)
		_, err := b.PutRequest("GET", &url.URL{})
		Expect(err).To(HaveOccurred())
	})

	It("Close is idempotent", func() {
		b := h1.New(&net.Dialer{}, ln.Addr().String(), nil, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		serveOnce(ln, "")
		Expect(b.NewConn(ctx)).ToNot(HaveOccurred())

		Expect(b.Close(ctx)).ToNot(HaveOccurred())
		Expect(b.Close(ctx)).ToNot(HaveOccurred())
	})
})
