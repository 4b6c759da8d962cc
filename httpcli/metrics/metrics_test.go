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

package metrics_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nabbar/golib/httpcli/metrics"
)

func gather(c prometheus.Collector) []*prometheus.Desc {
	ch := make(chan *prometheus.Desc, 16)
	c.Describe(ch)
	close(ch)

	var out []*prometheus.Desc
	for d := range ch {
		out = append(out, d)
	}
	return out
}

var _ = Describe("Collector", func() {
	It("describes one desc per exported gauge", func() {
		c := metrics.NewCollector(&fakeSource{}, func(string) (metrics.PoolCounter, bool) { return nil, false })
		Expect(gather(c)).To(HaveLen(4))
	})

	It("emits a metric per destination, skipping one whose pool vanished mid-scrape", func() {
		pools := map[string]*fakePool{
			"a.example.com:443": {dest: "a.example.com:443", total: 3, idle: 1, active: 1, saturated: 1},
		}

		c := metrics.NewCollector(
			&fakeSource{dests: []string{"a.example.com:443", "gone.example.com:443"}},
			func(dest string) (metrics.PoolCounter, bool) {
				p, ok := pools[dest]
				return p, ok
			},
		)

		ch := make(chan prometheus.Metric, 16)
		c.Collect(ch)
		close(ch)

		var got []prometheus.Metric
		for m := range ch {
			got = append(got, m)
		}
		Expect(got).To(HaveLen(4))
	})

	It("registers cleanly against a prometheus.Registry", func() {
		c := metrics.NewCollector(&fakeSource{}, func(string) (metrics.PoolCounter, bool) { return nil, false })
		reg := prometheus.NewRegistry()
		Expect(reg.Register(c)).ToNot(HaveOccurred())

		families, err := reg.Gather()
		Expect(err).ToNot(HaveOccurred())
		Expect(families).To(BeEmpty())
	})
})
