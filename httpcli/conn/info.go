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
	"crypto/x509"
	"net"
	"time"
)

// ConnectionInfo carries telemetry populated opportunistically during a
// connection's lifetime. Missing fields stay at their zero value; a field is
// never populated with a wrong value, only left empty.
type ConnectionInfo struct {
	ResolutionLatency     time.Duration
	EstablishedLatency    time.Duration
	TLSHandshakeLatency   time.Duration
	RequestSentLatency    time.Duration
	HttpVersion           HttpVersion
	Cipher                string
	TLSVersion             string
	CertificateDER         []byte
	Certificate            *x509.Certificate
	IssuerCertificateDER   []byte
	IssuerCertificate      *x509.Certificate
	DestinationAddress     net.Addr
}

// IsEncrypted reports whether the connection negotiated TLS.
func (c ConnectionInfo) IsEncrypted() bool {
	return len(c.TLSVersion) > 0
}
