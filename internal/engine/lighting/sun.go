// Package lighting provides the directional light used to shade strokes.
package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// SunDirection converts azimuth/elevation angles in degrees to a unit vector
// pointing towards the sun. Azimuth rotates around +Y starting at +Z, elevation
// is measured up from the horizon.
func SunDirection(azimuthDeg, elevationDeg float32) mgl32.Vec3 {
	az := mgl32.DegToRad(azimuthDeg)
	el := mgl32.DegToRad(elevationDeg)

	// Spherical to Cartesian
	return mgl32.Vec3{
		math32.Cos(el) * math32.Sin(az),
		math32.Sin(el),
		math32.Cos(el) * math32.Cos(az),
	}
}

// LightDirection is the direction light travels: from the sun into the scene.
func LightDirection(azimuthDeg, elevationDeg float32) mgl32.Vec3 {
	return SunDirection(azimuthDeg, elevationDeg).Mul(-1)
}
