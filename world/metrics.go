// This file is part of go-mc/server project.
// Copyright (C) 2023.  Tnze
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package world

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "flowy_terrain"

var (
	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "phase_duration_seconds",
		Help:      "Wall time spent in one phase of the update loop.",
		Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 8),
	}, []string{"phase"})

	outstandingRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "outstanding_requests",
		Help:      "Voxel requests sent and not yet answered.",
	})

	voxelRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "voxel_requests_total",
		Help:      "Voxel request batches by outcome.",
	}, []string{"outcome"})

	voxelsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "voxels_received_total",
		Help:      "Voxel samples integrated into the tree.",
	}, []string{"reason"})

	trianglesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "triangles_generated_total",
		Help:      "Triangles produced by the mesh generator.",
	})

	liveTriangles = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "live_triangles",
		Help:      "Triangles currently installed in the mesh cache.",
	})
)
