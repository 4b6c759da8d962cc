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

// Package h3 implements conn.BaseBackend over HTTP/3, multiplexing streams
// onto one QUIC connection via github.com/quic-go/quic-go/http3.
package h3

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	"github.com/nabbar/golib/httpcli/conn"
)

// Backend is the HTTP/3 conn.BaseBackend implementation. ConnState (via the
// embedded StateMachine) only ever tracks the connection itself; per-request
// lifecycle lives in each stream's own phase so dispatching request N+1
// never has to wait for request N's response to be read.
type Backend struct {
	conn.StateMachine

	addr   string
	tlsCfg *tls.Config
	quicCf *quic.Config
	rt     *http3.RoundTripper

	mu      sync.Mutex
	streams map[uint64]*streamState
	nextID  uint64
}

// streamPhase is the per-stream analogue of ConnState: it tracks one
// request/response exchange independently of every other stream sharing
// the same connection.
type streamPhase uint8

const (
	streamHeadersOpen streamPhase = iota
	streamBodyOpen
	streamAwaitingResponse
	streamStreamingResponse
)

type streamState struct {
	phase   streamPhase
	req     *http.Request
	promise *conn.ResponsePromise
	ready   chan struct{}
	resp    *conn.LowLevelResponse
	err     error
}

// New constructs an idle H3 backend. tlsCfg's NextProtos must include "h3".
func New(addr string, tlsCfg *tls.Config, quicCf *quic.Config) *Backend {
	return &Backend{
		addr:    addr,
		tlsCfg:  tlsCfg,
		quicCf:  quicCf,
		streams: make(map[uint64]*streamState),
	}
}

func (b *Backend) Version() conn.HttpVersion {
	return conn.H3
}

func (b *Backend) NewConn(ctx context.Context) error {
	b.rt = &http3.RoundTripper{
		TLSClientConfig: b.tlsCfg,
		QUICConfig:      b.quicCf,
	}

	// Dial eagerly so connection failures surface from NewConn rather than
	// from the first Send call, matching the other backends' contract; the
	// RoundTripper reuses this session internally for subsequent RoundTrips.
	sess, err := quic.DialAddrEarly(ctx, b.addr, b.tlsCfg, b.quicCf)
	if err != nil {
		return conn.ErrorConnect.Error(err)
	}
	_ = sess

	b.UpdateInfo(func(i *conn.ConnectionInfo) {
		i.HttpVersion = conn.H3
	})

	return b.Transition(conn.TLSWrapped)
}

func (b *Backend) PostConn(ctx context.Context) error { return nil }

func (b *Backend) SetTunnel(target conn.TunnelTarget) error {
	// HTTP/3 runs over QUIC/UDP: there is no CONNECT-tunnel concept at this
	// layer (a CONNECT-UDP style tunnel would be a distinct backend, out of
	// scope here), so this is never a legal call on an H3 backend.
	return conn.ErrorProtocolState.Error(nil)
}

func (b *Backend) Tunnel(ctx context.Context) error {
	return conn.ErrorProtocolState.Error(nil)
}

func (b *Backend) PutRequest(method string, target *url.URL) (conn.StreamHandle, error) {
	if b.State() != conn.TLSWrapped {
		return 0, conn.ErrorProtocolState.Error(nil)
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.streams[id] = &streamState{
		phase: streamHeadersOpen,
		req: &http.Request{
			Method: method,
			URL:    target,
			Header: make(http.Header),
			Host:   target.Host,
		},
		ready: make(chan struct{}),
	}
	b.mu.Unlock()

	return conn.StreamHandle(id), nil
}

func (b *Backend) PutHeader(stream conn.StreamHandle, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.streams[uint64(stream)]
	if st == nil || st.phase != streamHeadersOpen {
		return conn.ErrorProtocolState.Error(nil)
	}
	st.req.Header.Add(key, value)
	return nil
}

func (b *Backend) EndHeaders(stream conn.StreamHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.streams[uint64(stream)]
	if st == nil || st.phase != streamHeadersOpen {
		return conn.ErrorProtocolState.Error(nil)
	}
	st.phase = streamBodyOpen
	return nil
}

func (b *Backend) Send(ctx context.Context, stream conn.StreamHandle, body []byte) (*conn.ResponsePromise, error) {
	b.mu.Lock()
	id := uint64(stream)
	st := b.streams[id]
	if st == nil || st.phase != streamBodyOpen {
		b.mu.Unlock()
		return nil, conn.ErrorProtocolState.Error(nil)
	}
	st.phase = streamAwaitingResponse
	b.mu.Unlock()

	if len(body) > 0 {
		st.req.Body = io.NopCloser(bytes.NewReader(body))
		st.req.ContentLength = int64(len(body))
	}

	p := conn.NewResponsePromise(conn.ConnHandle{}, id, st.req.Header, nil)
	st.promise = p

	go b.roundTrip(ctx, st)

	return p, nil
}

func (b *Backend) roundTrip(ctx context.Context, st *streamState) {
	resp, err := b.rt.RoundTrip(st.req.WithContext(ctx))
	if err != nil {
		st.err = conn.ErrorProtocol.Error(err)
	} else {
		st.resp = conn.NewLowLevelResponse(st.req.Method, conn.H3, resp.StatusCode, resp.Status, resp.Header, resp.Body)
		st.promise.SetResponse(st.resp)
	}
	close(st.ready)
}

// GetResponse mirrors h2's semantics: a nil promise races all in-flight
// streams and returns whichever answers first.
func (b *Backend) GetResponse(ctx context.Context, promise *conn.ResponsePromise) (*conn.LowLevelResponse, error) {
	if b.State() != conn.TLSWrapped {
		return nil, conn.ErrorProtocolState.Error(nil)
	}

	var st *streamState
	if promise != nil {
		b.mu.Lock()
		st = b.streams[promise.StreamID()]
		b.mu.Unlock()
		if st == nil {
			return nil, conn.ErrorProtocolState.Error(nil)
		}

		select {
		case <-st.ready:
		case <-ctx.Done():
			return nil, conn.ErrorTimeout.Error(ctx.Err())
		}
	} else {
		st = b.firstReady(ctx)
		if st == nil {
			return nil, conn.ErrorTimeout.Error(ctx.Err())
		}
	}

	if st.err != nil {
		return nil, st.err
	}

	b.mu.Lock()
	st.phase = streamStreamingResponse
	b.mu.Unlock()

	return st.resp, nil
}

func (b *Backend) firstReady(ctx context.Context) *streamState {
	b.mu.Lock()
	pending := make([]*streamState, 0, len(b.streams))
	for _, st := range b.streams {
		if st.resp == nil && st.err == nil {
			pending = append(pending, st)
		}
	}
	b.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	done := make(chan *streamState, len(pending))
	for _, st := range pending {
		go func(s *streamState) {
			select {
			case <-s.ready:
				done <- s
			case <-ctx.Done():
			}
		}(st)
	}

	select {
	case s := <-done:
		return s
	case <-ctx.Done():
		return nil
	}
}

func (b *Backend) Close(ctx context.Context) error {
	if err := b.Transition(conn.Closing); err != nil {
		if b.State() == conn.Closed {
			return nil
		}
		return err
	}

	var err error
	if b.rt != nil {
		err = b.rt.Close()
	}

	_ = b.Transition(conn.Closed)

	if err != nil {
		return conn.ErrorIOClosed.Error(err)
	}
	return nil
}
