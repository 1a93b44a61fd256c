package model

// Product is a catalog entry. ID is generated once at creation and never changes.
type Product struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DescriptionHTML string `json:"description"`
	ImageURL        string `json:"imageUrl"`
}

// CustomPage is a freeform page served under /pages/{slug}.
type CustomPage struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	ContentHTML string `json:"content"`
}

// PreviewPayload is the snapshot handed from the admin panel to the preview view.
type PreviewPayload struct {
	Content  SiteContent `json:"pageData"`
	Products []Product   `json:"products"`
}

// CloneProducts copies a product slice. A nil input yields an empty, non-nil slice
// so that persisted catalogs always serialise as a JSON array.
func CloneProducts(in []Product) []Product {
	out := make([]Product, len(in))
	copy(out, in)
	return out
}

// ClonePages copies a page slice, see CloneProducts.
func ClonePages(in []CustomPage) []CustomPage {
	out := make([]CustomPage, len(in))
	copy(out, in)
	return out
}

// Clone returns a deep copy of the payload.
func (p PreviewPayload) Clone() PreviewPayload {
	return PreviewPayload{
		Content:  p.Content.Clone(),
		Products: CloneProducts(p.Products),
	}
}
