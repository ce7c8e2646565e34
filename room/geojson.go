package room

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Outline feature properties
const (
	PropSource      = "source"
	PropAreaSqm     = "area_sqm"
	PropFloorHeight = "floor_height_m"
	PropRoomType    = "room_type"
)

// Ring converts a perimeter to a closed orb ring in (x, z) coordinates.
// Returns nil for fewer than three points.
func Ring(points []PerimeterPoint) orb.Ring {
	if len(points) < 3 {
		return nil
	}
	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, p.Planar())
	}
	if !ring[0].Equal(ring[len(ring)-1]) {
		ring = append(ring, ring[0])
	}
	return ring
}

// OutlineFeature wraps a perimeter as a GeoJSON Polygon feature. Coordinates
// are meters in the (x, z) plane, not geographic positions.
func OutlineFeature(points []PerimeterPoint, props map[string]interface{}) *geojson.Feature {
	ring := Ring(points)
	if ring == nil {
		return nil
	}
	f := geojson.NewFeature(orb.Polygon{ring})
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

// OutlineCollection groups the walked perimeter and the merged floor hull into
// one collection. Either may be absent.
func OutlineCollection(walked []PerimeterPoint, floor FloorOutline) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if f := OutlineFeature(walked, map[string]interface{}{
		PropSource:  string(OutlineWalked),
		PropAreaSqm: PolygonArea(walked),
	}); f != nil {
		fc.Append(f)
	}
	if f := OutlineFeature(floor.Points, map[string]interface{}{
		PropSource:      string(OutlineHull),
		PropAreaSqm:     PolygonArea(floor.Points),
		PropFloorHeight: floor.FloorHeight,
	}); f != nil {
		fc.Append(f)
	}
	return fc
}
