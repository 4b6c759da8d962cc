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

// Package httpcli is the public entry point: it wires Options, the
// per-destination connection pools (httpcli/pool), and the protocol
// backends (httpcli/conn/h1, h2, h3) into a single client able to
// negotiate HTTP/1.1, HTTP/2 or HTTP/3 per destination and multiplex
// requests across bounded connection pools.
package httpcli

import (
	"context"
	"crypto/tls"
	"net/url"

	liberr "github.com/nabbar/golib/errors"

	"github.com/nabbar/golib/httpcli/conn"
	"github.com/nabbar/golib/httpcli/conn/h1"
	"github.com/nabbar/golib/httpcli/conn/h2"
	"github.com/nabbar/golib/httpcli/pool"
	"github.com/nabbar/golib/httpcli/socket"
)

// Client is a multiplexing HTTP client: one *pool.PoolManager shared across
// every destination it talks to, each destination arbitrated by its own
// bounded Traffic Police registry.
type Client struct {
	opts Options
	mgr  *pool.PoolManager
}

// New validates opts and constructs a Client ready to issue requests.
func New(opts Options) (*Client, liberr.Error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		opts: opts,
		mgr:  pool.NewPoolManager(opts.Pool.MaxSize),
	}, nil
}

// dial opens a fresh backend for destination, preferring H2 (ALPN "h2")
// over H1 unless OptionSVN disables it; H3 selection is driven by the
// preemptive QUIC cache in a full implementation and is left to a future
// dial attempt here once that cache records a prior H3 success for this
// destination.
func (c *Client) dial(ctx context.Context, destination string) (conn.BaseBackend, error) {
	disabled := c.opts.DisabledSVN()

	tlsCfg, err := c.opts.ResolveTLS(nil)
	if err != nil {
		return nil, err
	}

	var nextProtos []string
	if !disabled[conn.H2] {
		nextProtos = append(nextProtos, "h2")
	}
	nextProtos = append(nextProtos, "http/1.1")

	tc := &tls.Config{
		NextProtos: nextProtos,
	}
	if tlsCfg != nil {
		if base := tlsCfg.TlsConfig(""); base != nil {
			tc = base.Clone()
			tc.NextProtos = nextProtos
		}
	}

	if !disabled[conn.H2] {
		b := h2.New(destination, tc)
		if derr := b.NewConn(ctx); derr == nil {
			return b, nil
		}
	}

	dialer := socket.New(socket.Config{TLS: tc})
	b := h1.New(dialer, destination, tc, nil)
	if derr := b.NewConn(ctx); derr != nil {
		return nil, derr
	}
	return b, nil
}

// Do issues a single request against target, blocking until its response
// headers have arrived, and returns the streaming LowLevelResponse.
func (c *Client) Do(ctx context.Context, method string, target *url.URL, headers conn.Headers, body []byte) (*conn.LowLevelResponse, error) {
	destination := target.Host
	p := c.mgr.PoolFor(destination)

	var resp *conn.LowLevelResponse

	err := p.Borrow(ctx, p.NewTask(), func(ctx2 context.Context) (conn.BaseBackend, error) {
		return c.dial(ctx2, destination)
	}, func(b conn.BaseBackend) error {
		stream, err := b.PutRequest(method, target)
		if err != nil {
			return err
		}
		for k, vs := range headers {
			for _, v := range vs {
				if err := b.PutHeader(stream, k, v); err != nil {
					return err
				}
			}
		}
		if err := b.EndHeaders(stream); err != nil {
			return err
		}

		promise, err := b.Send(ctx, stream, body)
		if err != nil {
			return err
		}

		r, err := b.GetResponse(ctx, promise)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})

	return resp, err
}

// Close tears down every pool this client has opened.
func (c *Client) Close(ctx context.Context) error {
	return c.mgr.Close(ctx)
}
