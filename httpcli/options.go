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

package httpcli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	libval "github.com/go-playground/validator/v10"
	libtls "github.com/nabbar/golib/certificates"
	"github.com/nabbar/golib/httpcli/conn"
	liberr "github.com/nabbar/golib/errors"
	libptc "github.com/nabbar/golib/network/protocol"
)

// jsonIndent is the default indentation unit used when rendering config
// samples.
const jsonIndent = "  "

type OptionForceIP struct {
	Enable bool                   `json:"enable" yaml:"enable" toml:"enable" mapstructure:"enable"`
	Net    libptc.NetworkProtocol `json:"net,omitempty" yaml:"net,omitempty" toml:"net,omitempty" mapstructure:"net,omitempty"`
	IP     string                 `json:"ip,omitempty" yaml:"ip,omitempty" toml:"ip,omitempty" mapstructure:"ip,omitempty"`
	Local  string                 `json:"local,omitempty" yaml:"local,omitempty" toml:"local,omitempty" mapstructure:"local,omitempty"`
}

type OptionTLS struct {
	Enable bool          `json:"enable" yaml:"enable" toml:"enable" mapstructure:"enable"`
	Config libtls.Config `json:"tls" yaml:"tls" toml:"tls" mapstructure:"tls"`
}

type OptionProxy struct {
	Enable   bool     `json:"enable" yaml:"enable" toml:"enable" mapstructure:"enable"`
	Endpoint *url.URL `json:"endpoint" yaml:"endpoint" toml:"endpoint" mapstructure:"endpoint"`
	Username string   `json:"username" yaml:"username" toml:"username" mapstructure:"username"`
	Password string   `json:"password" yaml:"password" toml:"password" mapstructure:"password"`
}

// OptionSVN controls which HTTP protocol versions a pool is allowed to
// negotiate. H1 can never be disabled (conn.BaseBackend contract).
type OptionSVN struct {
	DisableH2 bool `json:"disable_h2" yaml:"disable_h2" toml:"disable_h2" mapstructure:"disable_h2"`
	DisableH3 bool `json:"disable_h3" yaml:"disable_h3" toml:"disable_h3" mapstructure:"disable_h3"`
}

// OptionPool carries the Traffic Police sizing knobs.
type OptionPool struct {
	// MaxSize bounds the registry size of each per-destination connection
	// pool; zero means unbounded.
	MaxSize int `json:"max_size" yaml:"max_size" toml:"max_size" mapstructure:"max_size" validate:"gte=0"`
	// BlockTimeout bounds how long a caller waits for a slot to free up
	// before receiving UnavailableTraffic/Timeout.
	BlockTimeout time.Duration `json:"block_timeout" yaml:"block_timeout" toml:"block_timeout" mapstructure:"block_timeout"`
	// PreemptiveQUIC enables the (host,port)->(host,port) cache that lets a
	// connection skip the TCP attempt once H3 has already succeeded once.
	PreemptiveQUIC bool `json:"preemptive_quic" yaml:"preemptive_quic" toml:"preemptive_quic" mapstructure:"preemptive_quic"`
}

type Options struct {
	Timeout time.Duration `json:"timeout" yaml:"timeout" toml:"timeout" mapstructure:"timeout"`
	SVN     OptionSVN     `json:"svn" yaml:"svn" toml:"svn" mapstructure:"svn"`
	Pool    OptionPool    `json:"pool" yaml:"pool" toml:"pool" mapstructure:"pool"`
	TLS     OptionTLS     `json:"tls" yaml:"tls" toml:"tls" mapstructure:"tls"`
	ForceIP OptionForceIP `json:"force_ip" yaml:"force_ip" toml:"force_ip" mapstructure:"force_ip"`
	Proxy   OptionProxy   `json:"proxy" yaml:"proxy" toml:"proxy" mapstructure:"proxy"`
}

func DefaultConfig(indent string) []byte {
	var (
		res = bytes.NewBuffer(make([]byte, 0))
		def = []byte(`{
       "timeout":"30s",
       "svn": {
         "disable_h2": false,
         "disable_h3": false
       },
       "pool": {
         "max_size": 8,
         "block_timeout": "5s",
         "preemptive_quic": true
       },
       "tls": {
         "enable": false,
         "tls": {}
       },
       "force_ip": {
         "enable": false,
         "net":"tcp",
         "ip":"127.0.0.1:8080",
         "local":"127.0.0.1"
       },
       "proxy": {
         "enable": false,
         "endpoint":"http://example.com",
         "username":"example",
         "password":"example"
       }
}`)
	)
	if err := json.Indent(res, def, indent, jsonIndent); err != nil {
		return def
	} else {
		return res.Bytes()
	}
}

func (o Options) Validate() liberr.Error {
	var e = ErrorValidatorError.Error(nil)

	if err := libval.New().Struct(o); err != nil {
		if er, ok := err.(*libval.InvalidValidationError); ok {
			e.AddParent(er)
		}

		for _, er := range err.(libval.ValidationErrors) {
			//nolint #goerr113
			e.AddParent(fmt.Errorf("config field '%s' is not validated by constraint '%s'", er.Namespace(), er.ActualTag()))
		}
	}

	if !e.HasParent() {
		e = nil
	}

	return e
}

// ResolveTLS returns the TLS configuration a backend should use, falling
// back to def (the pool-manager-wide default) when this option set does not
// override it.
func (o Options) ResolveTLS(def libtls.TLSConfig) (libtls.TLSConfig, liberr.Error) {
	if o.TLS.Enable {
		t, e := o.TLS.Config.NewFrom(def)
		if e != nil {
			return nil, ErrorClientTransportTLS.Error(e)
		}
		return t, nil
	}

	return libtls.Default.Clone(), nil
}

// DisabledSVN returns the set of HTTP versions this Options forbids negotiating.
func (o Options) DisabledSVN() map[conn.HttpVersion]bool {
	m := make(map[conn.HttpVersion]bool, 2)

	if o.SVN.DisableH2 {
		m[conn.H2] = true
	}

	if o.SVN.DisableH3 {
		m[conn.H3] = true
	}

	return m
}
