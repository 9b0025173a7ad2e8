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
	"slices"

	"go.uber.org/zap"

	"FlowyTerrain/world/mesh"
	"FlowyTerrain/world/voxel"
)

type blockStrategy struct {
	t     *Terrain
	log   *zap.Logger
	cache *MeshCache[BlockPosition]
}

func newBlockStrategy(t *Terrain) *blockStrategy {
	return &blockStrategy{
		t:     t,
		log:   t.log.Named("block"),
		cache: NewMeshCache[BlockPosition](),
	}
}

func (s *blockStrategy) Load(block BlockPosition, lod LOD, sur Surroundings) (request []voxel.Bounds, up ViewUpdate) {
	if cur, ok := s.cache.LOD(block); ok && cur == lod {
		return nil, nil
	}

	seen := make(map[voxel.Bounds]struct{})
	for _, v := range block.Voxels(lod) {
		for _, c := range CorrectLOD(v, sur.Desired) {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			if !s.t.voxels.Has(c) {
				request = append(request, c)
			}
		}
	}

	if s.t.completion.IsComplete(block, lod) {
		f := s.t.meshBlocks([]blockLOD{{block, lod}})[0]
		up = s.cache.Install(block, f, lod)
	}
	return request, up
}

func (s *blockStrategy) Unload(block BlockPosition) ViewUpdate {
	return s.cache.Evict(block)
}

func (s *blockStrategy) Integrate(touched []TouchedVoxel, sur Surroundings) []ViewUpdate {
	// true - блок вже показаний, але його воксель змінився
	dirty := make(map[blockLOD]bool)
	for _, tv := range touched {
		lod, ok := LODOfLgSize(tv.Bounds.LgSize)
		if !ok {
			continue
		}
		for _, b := range UpdatedBlockPositions(tv.Bounds) {
			k := blockLOD{b, lod}
			dirty[k] = dirty[k] || !tv.New
		}
	}

	var jobs []blockLOD
	for k, changed := range dirty {
		if !sur.InRange(k.block) {
			s.log.Debug("Skip block out of range",
				zap.Int32("x", k.block[0]),
				zap.Int32("y", k.block[1]),
				zap.Int32("z", k.block[2]),
			)
			continue
		}
		if sur.Desired(k.block) != k.lod || !s.t.completion.IsComplete(k.block, k.lod) {
			continue
		}
		if cur, ok := s.cache.LOD(k.block); ok && cur == k.lod && !changed {
			continue
		}
		jobs = append(jobs, k)
	}
	slices.SortFunc(jobs, func(a, b blockLOD) int {
		return cmp.Or(
			cmp.Compare(sur.Distance(a.block), sur.Distance(b.block)),
			slices.Compare(a.block[:], b.block[:]),
		)
	})

	fragments := s.t.meshBlocks(jobs)
	ups := make([]ViewUpdate, 0, len(jobs))
	for i, j := range jobs {
		if up := s.cache.Install(j.block, fragments[i], j.lod); !up.Empty() {
			ups = append(ups, up)
		}
	}
	return ups
}

func (s *blockStrategy) LoadedLOD(block BlockPosition) (LOD, bool) {
	return s.cache.LOD(block)
}

func (s *blockStrategy) Touching(box mesh.AABB) []mesh.TriangleID {
	return s.cache.Touching(box)
}
