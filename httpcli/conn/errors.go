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
	"fmt"

	liberr "github.com/nabbar/golib/errors"
)

// Error codes for the connection state machine and its backends. One code
// per failure variant; callers switch on these instead
// of matching error strings.
const (
	ErrorConnect          liberr.CodeError = iota + liberr.MinPkgHttpCliConn // dial/handshake could not establish a connection
	ErrorTimeout                                                            // an operation exceeded its deadline
	ErrorProtocolState                                                      // operation invoked from an illegal ConnState
	ErrorProtocol                                                           // peer violated the wire protocol
	ErrorIOClosed                                                           // read/write attempted on a closed connection
	ErrorResolution                                                         // DNS/address resolution failed
	ErrorTLS                                                                // TLS handshake or certificate validation failed
)

func init() {
	if liberr.ExistInMapMessage(ErrorConnect) {
		panic(fmt.Errorf("error code collision with package golib/httpcli/conn"))
	}
	liberr.RegisterIdFctMessage(ErrorConnect, getMessage)
}

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case ErrorConnect:
		return "unable to establish connection to remote endpoint"
	case ErrorTimeout:
		return "operation exceeded its configured deadline"
	case ErrorProtocolState:
		return "operation is not valid in the connection's current state"
	case ErrorProtocol:
		return "remote peer violated the expected protocol"
	case ErrorIOClosed:
		return "attempted i/o on a closed connection"
	case ErrorResolution:
		return "unable to resolve remote address"
	case ErrorTLS:
		return "tls handshake or certificate validation failed"
	}

	return liberr.NullMessage
}
