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

package socket_test

import (
	"context"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/golib/httpcli/socket"
)

var _ = Describe("Dialer", func() {
	var ln net.Listener

	BeforeEach(func() {
		var err error
		ln, err = net.Listen("tcp", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())

		go func() {
			for {
				c, aerr := ln.Accept()
				if aerr != nil {
					return
				}
				_ = c.Close()
			}
		}()
	})

	AfterEach(func() {
		_ = ln.Close()
	})

	It("dials a plaintext TCP listener", func() {
		d := socket.New(socket.Config{})
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		c, err := d.Dial(ctx, ln.Addr().String())
		Expect(err).ToNot(HaveOccurred())
		Expect(c).ToNot(BeNil())
		_ = c.Close()
	})

	It("satisfies h1.Dialer via DialContext", func() {
		d := socket.New(socket.Config{})
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		c, err := d.DialContext(ctx, "tcp", ln.Addr().String())
		Expect(err).ToNot(HaveOccurred())
		_ = c.Close()
	})

	It("fails against an address nothing listens on", func() {
		d := socket.New(socket.Config{})
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		_, err := d.Dial(ctx, "127.0.0.1:1")
		Expect(err).To(HaveOccurred())
	})
})
