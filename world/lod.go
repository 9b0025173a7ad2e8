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

import "fmt"

// LOD - рівень деталізації. 0 - найдетальніший.
type LOD uint8

// LODCount - кількість рівнів деталізації
const LODCount = 4

var (
	// LgSampleSize[lod] - log2 розміру вокселя на цьому рівні
	LgSampleSize = [LODCount]int16{0, 1, 2, 3}
	// EdgeSamples[lod] - скільки вокселів на ребро блоку
	EdgeSamples = [LODCount]int32{
		BlockWidth >> 0,
		BlockWidth >> 1,
		BlockWidth >> 2,
		BlockWidth >> 3,
	}
)

// LODIndex повертає перший рівень, поріг якого не менший за відстань.
// Далі за останній поріг - останній рівень.
func LODIndex(distance int32, thresholds []int32) LOD {
	if distance < 0 {
		panic(fmt.Sprintf("negative block distance %d", distance))
	}
	lod := 0
	for lod < len(thresholds) && thresholds[lod] < distance {
		lod++
	}
	return LOD(lod)
}

// LODOfLgSize шукає рівень, на якому воксель має розмір 2^lg
func LODOfLgSize(lg int16) (LOD, bool) {
	for lod, s := range LgSampleSize {
		if s == lg {
			return LOD(lod), true
		}
	}
	return 0, false
}

// SamplesFor - скільки вокселів потрібно блоку для мешування на рівні lod
func SamplesFor(lod LOD) uint32 {
	n := uint32(EdgeSamples[lod]) + 2
	return n * n * n
}

// ValidateThresholds перевіряє що пороги зростають і їх не більше ніж рівнів
func ValidateThresholds(thresholds []int32) error {
	if len(thresholds) > LODCount-1 {
		return fmt.Errorf("too many lod thresholds: %d > %d", len(thresholds), LODCount-1)
	}
	for i := range thresholds {
		if thresholds[i] < 0 || i > 0 && thresholds[i] <= thresholds[i-1] {
			return fmt.Errorf("lod thresholds must be non-negative and increasing: %v", thresholds)
		}
	}
	return nil
}
