/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package protocol enumerates the network transports usable by a dialer
// (TCP/UDP/IP families and Unix sockets), independent of the HTTP protocol
// version negotiated on top of the transport.
package protocol

import "strings"

// NetworkProtocol is the transport-level protocol used to dial a connection.
type NetworkProtocol uint8

const (
	NetworkEmpty NetworkProtocol = iota
	NetworkUnix
	NetworkTCP
	NetworkTCP4
	NetworkTCP6
	NetworkUDP
	NetworkUDP4
	NetworkUDP6
	NetworkIP
	NetworkIP4
	NetworkIP6
	NetworkUnixGram
)

var names = map[NetworkProtocol]string{
	NetworkUnix:     "unix",
	NetworkTCP:      "tcp",
	NetworkTCP4:     "tcp4",
	NetworkTCP6:     "tcp6",
	NetworkUDP:      "udp",
	NetworkUDP4:     "udp4",
	NetworkUDP6:     "udp6",
	NetworkIP:       "ip",
	NetworkIP4:      "ip4",
	NetworkIP6:      "ip6",
	NetworkUnixGram: "unixgram",
}

// String returns the net package dial network name, or "" for NetworkEmpty
// and any other unregistered value.
func (n NetworkProtocol) String() string {
	return names[n]
}

// Int returns the ordinal of the protocol (1-based, matching declaration
// order), or 0 for NetworkEmpty and any out-of-range value.
func (n NetworkProtocol) Int() int {
	if n == NetworkEmpty || int(n) > len(names) {
		return 0
	}

	return int(n)
}

// Int64 is Int, widened.
func (n NetworkProtocol) Int64() int64 {
	return int64(n.Int())
}

// IsTCP reports whether the transport is one of the TCP family.
func (n NetworkProtocol) IsTCP() bool {
	switch n {
	case NetworkTCP, NetworkTCP4, NetworkTCP6:
		return true
	default:
		return false
	}
}

// IsUDP reports whether the transport is one of the UDP family.
func (n NetworkProtocol) IsUDP() bool {
	switch n {
	case NetworkUDP, NetworkUDP4, NetworkUDP6:
		return true
	default:
		return false
	}
}

// Parse maps a net-package dial network string (case-insensitive) back to
// its NetworkProtocol, returning NetworkEmpty when unrecognized.
func Parse(s string) NetworkProtocol {
	s = strings.ToLower(strings.TrimSpace(s))

	for p, n := range names {
		if n == s {
			return p
		}
	}

	return NetworkEmpty
}
