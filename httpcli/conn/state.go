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

// ConnState enumerates the lifecycle stages a BaseBackend moves through
// between dial and close.
type ConnState uint8

const (
	Disconnected ConnState = iota
	Connected
	TunnelRequested
	TLSWrapped
	RequestHeadersOpen
	RequestBodyOpen
	AwaitingResponse
	StreamingResponse
	Closing
	Closed
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connected:
		return "CONNECTED"
	case TunnelRequested:
		return "TUNNEL_REQUESTED"
	case TLSWrapped:
		return "TLS_WRAPPED"
	case RequestHeadersOpen:
		return "REQUEST_HEADERS_OPEN"
	case RequestBodyOpen:
		return "REQUEST_BODY_OPEN"
	case AwaitingResponse:
		return "AWAITING_RESPONSE"
	case StreamingResponse:
		return "STREAMING_RESPONSE"
	case Closing:
		return "CLOSING"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// transitions enumerates, per state, the set of states directly reachable by
// a single BaseBackend operation. CLOSED is reachable from every state
// (close is always legal) and is omitted from each entry for brevity; legal()
// special-cases it.
var transitions = map[ConnState]map[ConnState]bool{
	Disconnected:       {Connected: true},
	Connected:          {TunnelRequested: true, TLSWrapped: true, RequestHeadersOpen: true},
	TunnelRequested:    {Connected: true, TLSWrapped: true},
	TLSWrapped:         {RequestHeadersOpen: true},
	RequestHeadersOpen: {RequestHeadersOpen: true, RequestBodyOpen: true, AwaitingResponse: true},
	RequestBodyOpen:    {RequestBodyOpen: true, AwaitingResponse: true},
	AwaitingResponse:   {StreamingResponse: true},
	StreamingResponse:  {Connected: true, RequestHeadersOpen: true},
	Closing:            {},
	Closed:             {},
}

// legal reports whether moving from s to next is a valid single-step
// transition. CLOSING/CLOSED are reachable from any non-terminal state.
func (s ConnState) legal(next ConnState) bool {
	if next == Closing || next == Closed {
		return s != Closed
	}

	if s == Closed {
		return false
	}

	return transitions[s][next]
}
