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
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

const (
	livekitNamespace string = "livekit"
)

var (
	initialized atomic.Bool

	MessageCounter *prometheus.CounterVec
)

// Init registers all collectors. Recording functions are no-ops until Init has run.
func Init(nodeID string) {
	if initialized.Load() {
		return
	}

	MessageCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   livekitNamespace,
			Subsystem:   "node",
			Name:        "messages",
			ConstLabels: prometheus.Labels{"node_id": nodeID},
		},
		[]string{"type", "status"},
	)
	prometheus.MustRegister(MessageCounter)

	initCallStats(nodeID)
	initTransportStats(nodeID)

	initialized.Store(true)
}

func IncrementMessage(msgType string, status string) {
	if !initialized.Load() {
		return
	}
	MessageCounter.WithLabelValues(msgType, status).Inc()
}
