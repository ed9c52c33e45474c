package physics

// View is a read-only snapshot over an ordered sequence of bodies. Slot
// indices in a view are the identity used for self-exclusion.
type View struct {
	bodies []Body
}

// NewView wraps bodies without copying. The caller must not mutate the slice
// while the view is in use.
func NewView(bodies []Body) View {
	return View{bodies: bodies}
}

func (v View) Len() int { return len(v.bodies) }

// At returns a copy of the body in slot i.
func (v View) At(i int) Body { return v.bodies[i] }

// Clone returns a deep copy of the bodies in view order.
func (v View) Clone() []Body {
	out := make([]Body, len(v.bodies))
	copy(out, v.bodies)
	return out
}
