// Package perf holds the process-wide metrics every daemon role
// publishes over expvar, regardless of which Non-goals trim the rest of
// the feature surface.
package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	// DispatchLatency is the per-closure runtime of the main event loop.
	DispatchLatency = metric.NewHistogram("1m1s")

	// BrokerRoundTrip is the latency from submitting an ADD_LOCALSID or
	// DEL_LOCALSID to the matching broker acknowledgement.
	BrokerRoundTrip = metric.NewHistogram("1m1s")

	// FPMEncodeLatency is the wall time spent inside the FPM encoder per
	// message.
	FPMEncodeLatency = metric.NewHistogram("10s1s")

	// SIDsDeclared counts newly declared Static and Adjacency SIDs.
	// SIDsValid and SIDsInstalled count Installation Controller
	// Valid/SentToBroker transitions in either direction, a rate rather
	// than a live population gauge.
	SIDsDeclared  = metric.NewCounter("10s1s")
	SIDsValid     = metric.NewCounter("10s1s")
	SIDsInstalled = metric.NewCounter("10s1s")

	// BrokerSendFailures and EncodeOverflows count the two recoverable
	// error categories that the controller and the FPM pipeline absorb
	// silently otherwise.
	BrokerSendFailures = metric.NewCounter("10s1s")
	EncodeOverflows    = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("srv6d:DispatchLatency (µs)", DispatchLatency)
	expvar.Publish("srv6d:BrokerRoundTrip (µs)", BrokerRoundTrip)
	expvar.Publish("srv6d:FPMEncodeLatency (µs)", FPMEncodeLatency)
	expvar.Publish("srv6d:SIDsDeclared", SIDsDeclared)
	expvar.Publish("srv6d:SIDsValid", SIDsValid)
	expvar.Publish("srv6d:SIDsInstalled", SIDsInstalled)
	expvar.Publish("srv6d:BrokerSendFailures", BrokerSendFailures)
	expvar.Publish("srv6d:EncodeOverflows", EncodeOverflows)
}
