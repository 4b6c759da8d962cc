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

// Package socket dials the plain TCP or TLS-wrapped connection a
// conn.BaseBackend is built on top of, honoring OptionForceIP's source-IP
// and network-family overrides.
package socket

import (
	"context"
	"crypto/tls"
	"net"

	libptc "github.com/nabbar/golib/network/protocol"
)

// Config carries the dial-time parameters a backend needs, independent of
// any one protocol version.
type Config struct {
	// Network is the protocol family to dial over (defaults to tcp).
	Network libptc.NetworkProtocol
	// LocalAddr, if set, binds the local side of the connection (OptionForceIP.Local).
	LocalAddr string
	// TLS is non-nil when the connection must be TLS-wrapped immediately on dial.
	TLS *tls.Config
}

// Dialer opens connections according to Config, honoring ctx for both the
// TCP handshake and, when TLS is set, the TLS handshake.
type Dialer struct {
	cfg Config
}

// New constructs a Dialer from cfg.
func New(cfg Config) *Dialer {
	return &Dialer{cfg: cfg}
}

// Dial opens a connection to address ("host:port"). If cfg.TLS is set, the
// returned net.Conn is a *tls.Conn with the handshake already complete.
func (d *Dialer) Dial(ctx context.Context, address string) (net.Conn, error) {
	network := "tcp"
	if d.cfg.Network != libptc.NetworkEmpty {
		network = d.cfg.Network.String()
	}

	nd := &net.Dialer{}
	if d.cfg.LocalAddr != "" {
		if la, err := net.ResolveTCPAddr(network, d.cfg.LocalAddr); err == nil {
			nd.LocalAddr = la
		}
	}

	if d.cfg.TLS == nil {
		return nd.DialContext(ctx, network, address)
	}

	tlsDialer := &tls.Dialer{NetDialer: nd, Config: d.cfg.TLS}
	return tlsDialer.DialContext(ctx, network, address)
}

// DialContext implements h1.Dialer, letting *Dialer be handed directly to
// an h1.Backend.
func (d *Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return d.Dial(ctx, address)
}
