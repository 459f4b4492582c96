package script

import "github.com/aquilax/go-perlin"

// noiseGenerator wraps a single process-wide Perlin generator, seeded with 0
// per spec §4.4, shared by every script host's noise2d/noise3d/noise4d
// bindings.
var noiseGenerator = perlin.NewPerlin(2, 2, 3, 0)

func noise2d(x, y float64) float64 {
	return noiseGenerator.Noise2D(x, y)
}

func noise3d(x, y, z float64) float64 {
	return noiseGenerator.Noise3D(x, y, z)
}

// noise4d has no direct counterpart in go-perlin (3 dimensions max), so a
// fourth (time) dimension is folded in by averaging two offset 3D samples.
// This keeps the binding continuous in t without a second generator.
func noise4d(x, y, z, t float64) float64 {
	a := noiseGenerator.Noise3D(x, y, z+t)
	b := noiseGenerator.Noise3D(x+t, y, z)
	return (a + b) / 2
}
