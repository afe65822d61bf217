package common

// Crumb is one segment of the breadcrumb trail.
type Crumb struct {
	Name string
	Path string
}

// PageData holds what the page shell needs besides its content.
type PageData struct {
	Title string
	IsDev bool
}
