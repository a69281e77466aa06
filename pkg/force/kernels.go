// Package force holds the Fruchterman-Reingold force kernels and the
// per-node displacement accumulator they write into.
//
// Kernels are pure functions of their inputs. Coincident points produce a
// zero force instead of dividing by zero.
package force

import "math"

// Point is a 2D position or displacement
type Point struct {
	X float64
	Y float64
}

// Link is an edge resolved to node indices
type Link struct {
	Source     int
	Target     int
	Weight     float64
	Normalized float64
}

// Norm returns the Euclidean length of (dx, dy)
func Norm(dx, dy float64) float64 {
	return math.Sqrt(dx*dx + dy*dy)
}

// Repulsion returns the force pushing a point away from another point at
// offset (dx, dy), with magnitude weight·k²/dist along (dx, dy).
func Repulsion(k, weight, dx, dy float64) (float64, float64) {
	dist := Norm(dx, dy)
	if dist == 0 {
		return 0, 0
	}
	f := weight * k * k / dist
	return dx / dist * f, dy / dist * f
}

// Attraction returns the spring force between two points at offset
// (dx, dy) = first - second, with magnitude weight·dist²/k along (dx, dy).
// Subtract the result from the first point and add it to the second.
func Attraction(k, weight, dx, dy float64) (float64, float64) {
	dist := Norm(dx, dy)
	if dist == 0 {
		return 0, 0
	}
	f := weight * dist * dist / k
	return dx / dist * f, dy / dist * f
}

// Gravity returns the pull of a point at (x, y) toward the origin, with
// magnitude 0.01·k·coef·dist.
func Gravity(k, coef, x, y float64) (float64, float64) {
	dist := Norm(x, y)
	if dist == 0 {
		return 0, 0
	}
	f := 0.01 * k * coef * dist
	return -f * x / dist, -f * y / dist
}

// CommunityPull is the saturating weight w(r) = -1/(a²r + a) + size with
// a = 1/size. It is 0 at r = 0, increases monotonically and stays below
// size. Evaluated in the equivalent form r·size/(r + size), which needs no
// reciprocal of a and is exactly 0 at r = 0.
func CommunityPull(excessRatio float64, size int) float64 {
	if size <= 0 || excessRatio <= 0 {
		return 0
	}
	s := float64(size)
	return excessRatio * s / (excessRatio + s)
}

// Clamp shortens (dx, dy) to at most limit, keeping its direction.
func Clamp(dx, dy, limit float64) (float64, float64) {
	dist := Norm(dx, dy)
	if dist == 0 {
		return 0, 0
	}
	limited := math.Min(limit, dist)
	return dx / dist * limited, dy / dist * limited
}
