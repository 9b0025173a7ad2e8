// meshdump генерує меш одного блоку з поля висот і пише його в OBJ файл.
// Зручно, щоб подивитись на результат мешера в будь-якому 3D редакторі.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"FlowyTerrain/world"
	"FlowyTerrain/world/mesh"
	"FlowyTerrain/world/voxel"
)

var (
	seed = flag.Uint64("seed", 0, "Density field seed")
	bx   = flag.Int("x", 0, "Block x")
	by   = flag.Int("y", 0, "Block y")
	bz   = flag.Int("z", 0, "Block z")
	lod  = flag.Uint("lod", 0, "Level of detail")
	out  = flag.String("out", "block.obj", "Output file")
)

// samples - воксели в пам'яті, без дерева і локів
type samples map[voxel.Bounds]voxel.Voxel

func (s samples) Get(b voxel.Bounds) (voxel.Voxel, bool) {
	v, ok := s[b]
	return v, ok
}

func main() {
	flag.Parse()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if *lod >= world.LODCount {
		logger.Fatal("Invalid lod", zap.Uint("lod", *lod))
	}
	l := world.LOD(*lod)
	block := world.BlockPosition{int32(*bx), int32(*by), int32(*bz)}

	field := voxel.NewHeightMap(*seed)
	src := make(samples)
	for _, b := range block.Voxels(l) {
		src[b] = voxel.Generate(field, b)
	}

	var ids mesh.IDAllocator
	low := block.Bounds().At(world.LgSampleSize[l])
	f, err := mesh.GenerateBlock(src, &ids, low, world.EdgeSamples[l])
	if err != nil {
		logger.Fatal("Generate mesh fail", zap.Error(err))
	}

	if err := writeOBJ(*out, f); err != nil {
		logger.Fatal("Write obj fail", zap.String("path", *out), zap.Error(err))
	}
	logger.Info("Mesh written",
		zap.String("path", *out),
		zap.Int("voxels", len(src)),
		zap.Int("triangles", f.Len()),
	)
}

func writeOBJ(path string, f *mesh.Fragment) (errRet error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := file.Close(); errRet == nil && err != nil {
			errRet = fmt.Errorf("close obj fail: %w", err)
		}
	}()

	w := bufio.NewWriter(file)
	for i, tri := range f.Vertices {
		for j, v := range tri {
			n := f.Normals[i][j]
			fmt.Fprintf(w, "v %f %f %f\n", v[0], v[1], v[2])
			fmt.Fprintf(w, "vn %f %f %f\n", n[0], n[1], n[2])
		}
	}
	for i := range f.Vertices {
		a := 3*i + 1
		fmt.Fprintf(w, "f %d//%d %d//%d %d//%d\n", a, a, a+1, a+1, a+2, a+2)
	}
	return w.Flush()
}
