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

// Package h1 implements conn.BaseBackend over plain HTTP/1.1: one request in
// flight per connection, optionally behind a CONNECT tunnel and/or TLS.
package h1

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	liblog "github.com/nabbar/golib/logger"
	liblvl "github.com/nabbar/golib/logger/level"

	"github.com/nabbar/golib/httpcli/conn"
)

// Dialer abstracts net.Dialer so tests can substitute an in-memory pipe.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Backend is the HTTP/1.1 conn.BaseBackend implementation. A single Backend
// serves exactly one request at a time: PutRequest is only legal once the
// previous cycle's response has been fully read and the state has returned
// to CONNECTED.
type Backend struct {
	conn.StateMachine

	dialer Dialer
	tlsCfg *tls.Config
	addr   string
	log    liblog.Logger

	raw net.Conn
	bw  *bufio.Writer
	br  *bufio.Reader

	tunnel  *conn.TunnelTarget
	pending *http.Request
	promise *conn.ResponsePromise
}

// New constructs an idle H1 backend for the given address ("host:port").
// tlsCfg nil means plaintext; non-nil means the connection is TLS-wrapped
// immediately on NewConn rather than after a later SetTunnel/Tunnel call.
func New(dialer Dialer, addr string, tlsCfg *tls.Config, log liblog.Logger) *Backend {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	return &Backend{
		dialer: dialer,
		tlsCfg: tlsCfg,
		addr:   addr,
		log:    log,
	}
}

func (b *Backend) Version() conn.HttpVersion {
	return conn.H1
}

func (b *Backend) NewConn(ctx context.Context) error {
	start := time.Now()

	raw, err := b.dialer.DialContext(ctx, "tcp", b.addr)
	if err != nil {
		return conn.ErrorConnect.Error(err)
	}

	b.raw = raw
	b.UpdateInfo(func(i *conn.ConnectionInfo) {
		i.EstablishedLatency = time.Since(start)
		i.DestinationAddress = raw.RemoteAddr()
		i.HttpVersion = conn.H1
	})

	target := conn.Connected
	if b.tlsCfg != nil {
		if err = b.wrapTLS(ctx); err != nil {
			_ = raw.Close()
			return err
		}
		target = conn.TLSWrapped
	} else {
		b.bw = bufio.NewWriter(raw)
		b.br = bufio.NewReader(raw)
	}

	return b.Transition(target)
}

func (b *Backend) wrapTLS(ctx context.Context) error {
	start := time.Now()

	tc := tls.Client(b.raw, b.tlsCfg)
	if dl, ok := ctx.Deadline(); ok {
		_ = tc.SetDeadline(dl)
	}

	if err := tc.HandshakeContext(ctx); err != nil {
		return conn.ErrorTLS.Error(err)
	}

	st := tc.ConnectionState()
	b.UpdateInfo(func(i *conn.ConnectionInfo) {
		i.TLSHandshakeLatency = time.Since(start)
		i.Cipher = tls.CipherSuiteName(st.CipherSuite)
		i.TLSVersion = tlsVersionName(st.Version)
		if len(st.PeerCertificates) > 0 {
			i.Certificate = st.PeerCertificates[0]
			i.CertificateDER = st.PeerCertificates[0].Raw
		}
		if len(st.PeerCertificates) > 1 {
			i.IssuerCertificate = st.PeerCertificates[1]
			i.IssuerCertificateDER = st.PeerCertificates[1].Raw
		}
	})

	b.raw = tc
	b.bw = bufio.NewWriter(tc)
	b.br = bufio.NewReader(tc)

	return nil
}

func tlsVersionName(v uint16) string {
	switch v {
	case tls.VersionTLS10:
		return "TLS1.0"
	case tls.VersionTLS11:
		return "TLS1.1"
	case tls.VersionTLS12:
		return "TLS1.2"
	case tls.VersionTLS13:
		return "TLS1.3"
	default:
		return "unknown"
	}
}

func (b *Backend) PostConn(ctx context.Context) error {
	return nil
}

func (b *Backend) SetTunnel(target conn.TunnelTarget) error {
	if err := b.Transition(conn.TunnelRequested); err != nil {
		return err
	}
	b.tunnel = &target
	return nil
}

func (b *Backend) Tunnel(ctx context.Context) error {
	if err := b.RequireState(conn.TunnelRequested); err != nil {
		return err
	}
	if b.tunnel == nil {
		return conn.ErrorProtocolState.Error(nil)
	}

	hostport := net.JoinHostPort(b.tunnel.Host, strconv.Itoa(b.tunnel.Port))
	req := &http.Request{
		Method: http.MethodConnect,
		URL:    &url.URL{Opaque: hostport},
		Host:   hostport,
		Header: make(http.Header),
	}

	if err := req.Write(b.raw); err != nil {
		return conn.ErrorIOClosed.Error(err)
	}
	if err := b.bw.Flush(); err != nil {
		return conn.ErrorIOClosed.Error(err)
	}

	resp, err := http.ReadResponse(b.br, req)
	if err != nil {
		return conn.ErrorProtocol.Error(err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return conn.ErrorProtocol.Error(nil)
	}

	target := conn.Connected
	if b.tlsCfg != nil {
		if err = b.wrapTLS(context.Background()); err != nil {
			return err
		}
		target = conn.TLSWrapped
	}

	return b.Transition(target)
}

// PutRequest always returns the zero StreamHandle: an H1 backend serves one
// request at a time (the shared ConnState already enforces the ordering),
// so there is nothing for a stream identifier to distinguish.
func (b *Backend) PutRequest(method string, target *url.URL) (conn.StreamHandle, error) {
	cur := b.State()
	if cur != conn.Connected && cur != conn.TLSWrapped && cur != conn.StreamingResponse {
		return 0, conn.ErrorProtocolState.Error(nil)
	}

	b.pending = &http.Request{
		Method: method,
		URL:    target,
		Header: make(http.Header),
		Host:   target.Host,
	}

	return 0, b.Transition(conn.RequestHeadersOpen)
}

func (b *Backend) PutHeader(_ conn.StreamHandle, key, value string) error {
	if err := b.RequireState(conn.RequestHeadersOpen); err != nil {
		return err
	}
	b.pending.Header.Add(key, value)
	return nil
}

func (b *Backend) EndHeaders(_ conn.StreamHandle) error {
	return b.Transition(conn.RequestBodyOpen)
}

func (b *Backend) Send(ctx context.Context, _ conn.StreamHandle, body []byte) (*conn.ResponsePromise, error) {
	if err := b.RequireState(conn.RequestBodyOpen); err != nil {
		return nil, err
	}

	if len(body) > 0 {
		b.pending.Body = &readCloserWrapper{Reader: bytes.NewReader(body)}
		b.pending.ContentLength = int64(len(body))
	}

	if dl, ok := ctx.Deadline(); ok {
		_ = b.raw.SetWriteDeadline(dl)
	}

	if err := b.pending.Write(b.bw); err != nil {
		return nil, conn.ErrorIOClosed.Error(err)
	}
	if err := b.bw.Flush(); err != nil {
		return nil, conn.ErrorIOClosed.Error(err)
	}

	p := conn.NewResponsePromise(conn.ConnHandle{}, 0, b.pending.Header, nil)
	b.promise = p

	if err := b.Transition(conn.AwaitingResponse); err != nil {
		return nil, err
	}

	if b.log != nil {
		b.log.Entry(liblvl.DebugLevel, "request sent").FieldAdd("http.method", b.pending.Method).FieldAdd("http.url", b.pending.URL.String()).Log()
	}

	return p, nil
}

func (b *Backend) GetResponse(ctx context.Context, promise *conn.ResponsePromise) (*conn.LowLevelResponse, error) {
	if err := b.RequireState(conn.AwaitingResponse); err != nil {
		return nil, err
	}

	if dl, ok := ctx.Deadline(); ok {
		_ = b.raw.SetReadDeadline(dl)
	}

	resp, err := http.ReadResponse(b.br, b.pending)
	if err != nil {
		return nil, conn.ErrorProtocol.Error(err)
	}

	llr := conn.NewLowLevelResponse(b.pending.Method, conn.H1, resp.StatusCode, resp.Status, resp.Header, resp.Body)
	b.promise.SetResponse(llr)

	if err = b.Transition(conn.StreamingResponse); err != nil {
		return nil, err
	}

	return llr, nil
}

func (b *Backend) Close(ctx context.Context) error {
	if err := b.Transition(conn.Closing); err != nil {
		if b.State() == conn.Closed {
			return nil
		}
		return err
	}

	var err error
	if b.raw != nil {
		err = b.raw.Close()
	}

	_ = b.Transition(conn.Closed)

	if err != nil {
		return conn.ErrorIOClosed.Error(err)
	}
	return nil
}

type readCloserWrapper struct {
	*bytes.Reader
}

func (r *readCloserWrapper) Close() error {
	return nil
}
