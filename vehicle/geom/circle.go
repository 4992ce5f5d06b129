package geom

// Circle is a disc with a center and a non-negative radius. It represents
// both obstacles and the circles approximating the vehicle footprint.
type Circle struct {
	Center Vec
	Radius float64
}

// Distance returns the signed clearance between the two circle hulls:
// center distance minus both radii. Negative means the discs overlap.
func (c Circle) Distance(o Circle) float64 {
	return c.Center.Sub(o.Center).Length() - c.Radius - o.Radius
}
