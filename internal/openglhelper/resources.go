package openglhelper

// Destroyer is any owned resource with an idempotent release.
type Destroyer interface {
	Destroy()
}

// DestroyFunc adapts a plain function to Destroyer.
type DestroyFunc func()

// Destroy calls f.
func (f DestroyFunc) Destroy() { f() }

// Resources releases tracked resources in reverse acquisition order.
type Resources struct {
	tracked  []Destroyer
	released bool
}

// Track registers d for release. Nil values are ignored.
func (r *Resources) Track(d Destroyer) {
	if d == nil {
		return
	}
	r.tracked = append(r.tracked, d)
}

// Len returns the number of tracked resources.
func (r *Resources) Len() int {
	return len(r.tracked)
}

// Release destroys every tracked resource, newest first. Later calls do nothing.
func (r *Resources) Release() {
	if r.released {
		return
	}
	for i := len(r.tracked) - 1; i >= 0; i-- {
		r.tracked[i].Destroy()
	}
	r.tracked = nil
	r.released = true
}
