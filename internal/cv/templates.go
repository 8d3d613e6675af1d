package cv

import "image"

// Template is a named reference image used to detect a UI element. Templates
// are loaded once at startup by the registry and shared read-only afterwards.
type Template struct {
	Name      string
	Path      string
	Threshold float64
	Region    *Region
	Image     *image.RGBA
}

// Builder methods

// InRegion sets the search region for the template
func (t Template) InRegion(x1, y1, x2, y2 int) Template {
	region := NewRegion(x1, y1, x2, y2)
	t.Region = &region
	return t
}

// WithThreshold sets the matching threshold
func (t Template) WithThreshold(threshold float64) Template {
	t.Threshold = threshold
	return t
}

// WithImage sets the decoded reference image
func (t Template) WithImage(img *image.RGBA) Template {
	t.Image = img
	return t
}
