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

// Package metrics exposes pool occupancy as Prometheus gauges: for each
// destination pool, how many connections are registered and how they split
// across idle/active/saturated traffic states.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// PoolCounter is satisfied by httpcli/pool.ConnectionPool; kept as a narrow
// interface here so this package does not need to import pool.
type PoolCounter interface {
	Destination() string
	Counts() (total, idle, active, saturated int)
}

// PoolSource is satisfied by httpcli/pool.PoolManager.
type PoolSource interface {
	Destinations() []string
}

// Collector implements prometheus.Collector over a live PoolManager,
// scraping each pool's counts on every collection pass rather than keeping
// its own gauges in sync with every Put/Release (avoids a second source of
// truth for state that TrafficPolice already owns).
type Collector struct {
	lookup func(destination string) (PoolCounter, bool)
	source PoolSource

	total     *prometheus.Desc
	idle      *prometheus.Desc
	active    *prometheus.Desc
	saturated *prometheus.Desc
}

// NewCollector builds a Collector. lookup resolves a destination (as
// reported by source.Destinations()) to its pool; it returns ok=false for a
// destination torn down between the two calls, which Collect simply skips.
func NewCollector(source PoolSource, lookup func(destination string) (PoolCounter, bool)) *Collector {
	const ns = "httpcli_pool"
	labels := []string{"destination"}

	return &Collector{
		source:    source,
		lookup:    lookup,
		total:     prometheus.NewDesc(ns+"_connections", "Registered connections per destination pool.", labels, nil),
		idle:      prometheus.NewDesc(ns+"_connections_idle", "Idle connections per destination pool.", labels, nil),
		active:    prometheus.NewDesc(ns+"_connections_active", "Partially-saturated multiplexed connections per destination pool.", labels, nil),
		saturated: prometheus.NewDesc(ns+"_connections_saturated", "Fully-saturated connections per destination pool.", labels, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.idle
	ch <- c.active
	ch <- c.saturated
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, dest := range c.source.Destinations() {
		pool, ok := c.lookup(dest)
		if !ok {
			continue
		}

		total, idle, active, saturated := pool.Counts()

		ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(total), dest)
		ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(idle), dest)
		ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(active), dest)
		ch <- prometheus.MustNewConstMetric(c.saturated, prometheus.GaugeValue, float64(saturated), dest)
	}
}
