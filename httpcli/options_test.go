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

package httpcli_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/golib/httpcli"
	"github.com/nabbar/golib/httpcli/conn"
)

var _ = Describe("Options", func() {
	It("validates a well-formed configuration", func() {
		o := httpcli.Options{
			Timeout: 30 * time.Second,
			Pool:    httpcli.OptionPool{MaxSize: 8, BlockTimeout: 5 * time.Second},
		}
		Expect(o.Validate()).To(BeNil())
	})

	It("rejects a negative pool size", func() {
		o := httpcli.Options{
			Pool: httpcli.OptionPool{MaxSize: -1},
		}
		Expect(o.Validate()).ToNot(BeNil())
	})

	It("reports no disabled versions by default", func() {
		o := httpcli.Options{}
		Expect(o.DisabledSVN()).To(BeEmpty())
	})

	It("disables H2 and H3 independently", func() {
		o := httpcli.Options{SVN: httpcli.OptionSVN{DisableH2: true}}
		d := o.DisabledSVN()
		Expect(d[conn.H2]).To(BeTrue())
		Expect(d[conn.H3]).To(BeFalse())

		o = httpcli.Options{SVN: httpcli.OptionSVN{DisableH3: true}}
		d = o.DisabledSVN()
		Expect(d[conn.H3]).To(BeTrue())
		Expect(d[conn.H2]).To(BeFalse())
	})

	It("resolves a default TLS config when TLS is not enabled", func() {
		o := httpcli.Options{}
		t, err := o.ResolveTLS(nil)
		Expect(err).To(BeNil())
		Expect(t).ToNot(BeNil())
	})
})
