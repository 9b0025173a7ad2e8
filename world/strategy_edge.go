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
	"cmp"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"FlowyTerrain/world/mesh"
	"FlowyTerrain/world/voxel"
)

type edgeStrategy struct {
	t     *Terrain
	log   *zap.Logger
	edges *LoadedEdges

	mu     sync.Mutex
	blocks map[BlockPosition]LOD
}

func newEdgeStrategy(t *Terrain) *edgeStrategy {
	return &edgeStrategy{
		t:      t,
		log:    t.log.Named("edge"),
		edges:  NewLoadedEdges(),
		blocks: make(map[BlockPosition]LOD),
	}
}

func (s *edgeStrategy) Load(block BlockPosition, lod LOD, sur Surroundings) (request []voxel.Bounds, up ViewUpdate) {
	s.mu.Lock()
	s.blocks[block] = lod
	s.mu.Unlock()

	seen := make(map[voxel.Bounds]struct{})
	for _, e := range block.Edges(lod) {
		for _, ce := range e.CorrectLOD(sur.Desired) {
			if s.edges.Contains(ce) {
				continue
			}
			f, ok := s.generate(ce)
			if ok {
				up = append(up, s.edges.Insert(ce, f, lodOfEdge(ce))...)
				continue
			}
			for _, v := range ce.Voxels() {
				for _, c := range CorrectLOD(v, sur.Desired) {
					if _, dup := seen[c]; dup {
						continue
					}
					seen[c] = struct{}{}
					if !s.t.voxels.Has(c) {
						request = append(request, c)
					}
				}
			}
		}
	}
	return request, up
}

func (s *edgeStrategy) Unload(block BlockPosition) ViewUpdate {
	s.mu.Lock()
	delete(s.blocks, block)
	s.mu.Unlock()
	return s.edges.RemoveUnder(block.Bounds())
}

func (s *edgeStrategy) Integrate(touched []TouchedVoxel, sur Surroundings) []ViewUpdate {
	// true - ребро вже живе, але його воксель змінився
	dirty := make(map[Edge]bool)
	for _, tv := range touched {
		for _, e := range affectedEdges(tv.Bounds) {
			dirty[e] = dirty[e] || !tv.New
		}
	}

	var edges []Edge
	for e, changed := range dirty {
		block := e.Block()
		if _, ok := s.LoadedLOD(block); !ok {
			continue
		}
		if !sur.InRange(block) {
			s.log.Debug("Skip edge out of range", zap.Stringer("edge", e))
			continue
		}
		if LgSampleSize[sur.Desired(block)] != e.LgSize {
			continue
		}
		if !changed && s.edges.Contains(e) {
			continue
		}
		edges = append(edges, e)
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		return cmp.Or(
			cmp.Compare(sur.Distance(a.Block()), sur.Distance(b.Block())),
			slices.Compare(a.LowCorner[:], b.LowCorner[:]),
			cmp.Compare(a.Direction, b.Direction),
		)
	})

	var ups []ViewUpdate
	for _, e := range edges {
		f, ok := s.generate(e)
		if !ok {
			continue
		}
		if up := s.edges.Insert(e, f, lodOfEdge(e)); !up.Empty() {
			ups = append(ups, up)
		}
	}
	return ups
}

func (s *edgeStrategy) LoadedLOD(block BlockPosition) (LOD, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lod, ok := s.blocks[block]
	return lod, ok
}

func (s *edgeStrategy) Touching(box mesh.AABB) []mesh.TriangleID {
	return s.edges.Touching(box)
}

// generate мешує ребро. false - якогось вокселя ще немає.
func (s *edgeStrategy) generate(e Edge) (*mesh.Fragment, bool) {
	f, err := mesh.GenerateEdge(s.t.voxels, &s.t.ids, e.Bounds(), e.Direction)
	if errors.Is(err, mesh.ErrMissingVoxel) {
		return nil, false
	}
	if err != nil {
		s.log.Panic("Mesh generation failed", zap.Stringer("edge", e), zap.Error(err))
	}
	trianglesGenerated.Add(float64(f.Len()))
	return f, true
}

// affectedEdges повертає всі ребра, для яких v є одним з 5 вокселів
func affectedEdges(v voxel.Bounds) []Edge {
	out := make([]Edge, 0, 5*len(mesh.Directions))
	for _, d := range mesh.Directions {
		low := d.Voxels(v)
		// v = low + зсув, тому кут ребра = v - зсув
		for _, n := range low {
			out = append(out, EdgeAt(v.Add(v.X-n.X, v.Y-n.Y, v.Z-n.Z), d))
		}
	}
	return out
}

func lodOfEdge(e Edge) LOD {
	lod, _ := LODOfLgSize(e.LgSize)
	return lod
}
