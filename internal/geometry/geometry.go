// Package geometry implements the polygon tests used by the client-side
// fallback: containment, boundary extraction and point-to-boundary distance.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// PointInPolygon reports whether point lies inside geom. Multipolygons are a
// union of their parts; a point inside a hole is outside.
func PointInPolygon(point orb.Point, geom orb.Geometry) bool {
	if geom == nil || !geom.Bound().Contains(point) {
		return false
	}

	switch g := geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, point)
	case orb.MultiPolygon:
		for _, poly := range g {
			if planar.PolygonContains(poly, point) {
				return true
			}
		}
	}
	return false
}

// BoundaryLines converts every outer and inner ring of geom into a line string.
func BoundaryLines(geom orb.Geometry) orb.MultiLineString {
	var polys []orb.Polygon
	switch g := geom.(type) {
	case orb.Polygon:
		polys = []orb.Polygon{g}
	case orb.MultiPolygon:
		polys = g
	default:
		return nil
	}

	var lines orb.MultiLineString
	for _, poly := range polys {
		for _, ring := range poly {
			if len(ring) < 2 {
				continue
			}
			lines = append(lines, orb.LineString(ring.Clone()))
		}
	}
	return lines
}

// MinDistanceToBoundary returns the distance in meters from point to the
// closest boundary segment of geom. Segments are measured in an
// equirectangular projection centred on point. Returns +Inf when geom has
// no boundary.
func MinDistanceToBoundary(point orb.Point, geom orb.Geometry) float64 {
	proj := newLocalProjection(point)
	minDist := math.Inf(1)

	for _, line := range BoundaryLines(geom) {
		for i := 0; i < len(line)-1; i++ {
			d := proj.segmentDistance(line[i], line[i+1])
			if d < minDist {
				minDist = d
			}
		}
	}
	return minDist
}

// DistanceToFeature is zero for a point inside geom and the boundary distance otherwise.
func DistanceToFeature(point orb.Point, geom orb.Geometry) float64 {
	if PointInPolygon(point, geom) {
		return 0
	}
	return MinDistanceToBoundary(point, geom)
}

// localProjection maps lon/lat to meters relative to an origin.
type localProjection struct {
	origin   orb.Point
	mPerDegX float64
	mPerDegY float64
}

func newLocalProjection(origin orb.Point) localProjection {
	mPerDeg := orb.EarthRadius * math.Pi / 180
	return localProjection{
		origin:   origin,
		mPerDegX: mPerDeg * math.Cos(origin.Lat()*math.Pi/180),
		mPerDegY: mPerDeg,
	}
}

func (p localProjection) project(pt orb.Point) orb.Point {
	return orb.Point{
		(pt.Lon() - p.origin.Lon()) * p.mPerDegX,
		(pt.Lat() - p.origin.Lat()) * p.mPerDegY,
	}
}

// segmentDistance is the distance from the origin to segment ab, in meters.
// Endpoints are ordered first so ab and ba give identical results.
func (p localProjection) segmentDistance(a, b orb.Point) float64 {
	if b[0] < a[0] || (b[0] == a[0] && b[1] < a[1]) {
		a, b = b, a
	}
	pa := p.project(a)
	pb := p.project(b)

	dx := pb[0] - pa[0]
	dy := pb[1] - pa[1]
	if dx == 0 && dy == 0 {
		return planar.Distance(orb.Point{}, pa)
	}

	t := (-pa[0]*dx - pa[1]*dy) / (dx*dx + dy*dy)
	switch {
	case t < 0:
		return planar.Distance(orb.Point{}, pa)
	case t > 1:
		return planar.Distance(orb.Point{}, pb)
	}
	return planar.Distance(orb.Point{}, orb.Point{pa[0] + t*dx, pa[1] + t*dy})
}
