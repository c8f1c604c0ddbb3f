// Copyright 2023 LiveKit, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

var (
	callCurrent atomic.Int32

	promCallCurrent      prometheus.Gauge
	promCallStarted      *prometheus.CounterVec
	promCallTerminated   *prometheus.CounterVec
	promCallDuration     prometheus.Histogram
	promMissedCall       *prometheus.CounterVec
	promSignalReceived   *prometheus.CounterVec
	promTransportStarted *prometheus.CounterVec
	promFallback         *prometheus.CounterVec
	promReconnect        *prometheus.CounterVec
)

func initCallStats(nodeID string) {
	promCallCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   livekitNamespace,
		Subsystem:   "call",
		Name:        "total",
		ConstLabels: prometheus.Labels{"node_id": nodeID},
	})
	promCallStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   livekitNamespace,
		Subsystem:   "call",
		Name:        "started",
		ConstLabels: prometheus.Labels{"node_id": nodeID},
	}, []string{"direction", "room_type"})
	promCallTerminated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   livekitNamespace,
		Subsystem:   "call",
		Name:        "terminated",
		ConstLabels: prometheus.Labels{"node_id": nodeID},
	}, []string{"reason"})
	promCallDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   livekitNamespace,
		Subsystem:   "call",
		Name:        "duration_seconds",
		ConstLabels: prometheus.Labels{"node_id": nodeID},
		Buckets: []float64{
			5, 10, 60, 5 * 60, 10 * 60, 30 * 60, 60 * 60, 2 * 60 * 60,
		},
	})
	promMissedCall = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   livekitNamespace,
		Subsystem:   "call",
		Name:        "missed",
		ConstLabels: prometheus.Labels{"node_id": nodeID},
	}, []string{"cause"})
	promSignalReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   livekitNamespace,
		Subsystem:   "call",
		Name:        "signal_received",
		ConstLabels: prometheus.Labels{"node_id": nodeID},
	}, []string{"method", "disposition"})

	prometheus.MustRegister(promCallCurrent)
	prometheus.MustRegister(promCallStarted)
	prometheus.MustRegister(promCallTerminated)
	prometheus.MustRegister(promCallDuration)
	prometheus.MustRegister(promMissedCall)
	prometheus.MustRegister(promSignalReceived)
}

func initTransportStats(nodeID string) {
	promTransportStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   livekitNamespace,
		Subsystem:   "transport",
		Name:        "started",
		ConstLabels: prometheus.Labels{"node_id": nodeID},
	}, []string{"mode"})
	promFallback = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   livekitNamespace,
		Subsystem:   "transport",
		Name:        "fallback",
		ConstLabels: prometheus.Labels{"node_id": nodeID},
	}, []string{"cause"})
	promReconnect = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   livekitNamespace,
		Subsystem:   "transport",
		Name:        "reconnect",
		ConstLabels: prometheus.Labels{"node_id": nodeID},
	}, []string{"result"})

	prometheus.MustRegister(promTransportStarted)
	prometheus.MustRegister(promFallback)
	prometheus.MustRegister(promReconnect)
}

func CallStarted(direction string, roomType string) {
	callCurrent.Inc()
	if !initialized.Load() {
		return
	}
	promCallCurrent.Add(1)
	promCallStarted.WithLabelValues(direction, roomType).Inc()
}

func CallEnded(reason string, startedAt time.Time) {
	callCurrent.Dec()
	if !initialized.Load() {
		return
	}
	promCallCurrent.Sub(1)
	promCallTerminated.WithLabelValues(reason).Inc()
	if !startedAt.IsZero() {
		promCallDuration.Observe(float64(time.Since(startedAt)) / float64(time.Second))
	}
}

func CurrentCalls() int32 {
	return callCurrent.Load()
}

func RecordMissedCall(cause string) {
	if !initialized.Load() {
		return
	}
	promMissedCall.WithLabelValues(cause).Inc()
}

func RecordSignalReceived(method string, disposition string) {
	if !initialized.Load() {
		return
	}
	promSignalReceived.WithLabelValues(method, disposition).Inc()
}

func RecordTransportStarted(mode string) {
	if !initialized.Load() {
		return
	}
	promTransportStarted.WithLabelValues(mode).Inc()
}

func RecordTransportFallback(cause string) {
	if !initialized.Load() {
		return
	}
	promFallback.WithLabelValues(cause).Inc()
}

func RecordReconnect(result string) {
	if !initialized.Load() {
		return
	}
	promReconnect.WithLabelValues(result).Inc()
}
