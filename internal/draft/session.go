// Package draft implements the admin panel's editing session: a private deep copy of
// the site content, product catalog and custom pages that is edited piece by piece and
// written back to the canonical stores only by SaveAll.
package draft

import (
	"errors"
	"fmt"

	"aetheria-site/internal/model"
	"aetheria-site/internal/pages"
	"aetheria-site/internal/slug"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrUnknownID is returned when no draft item carries the requested id.
	ErrUnknownID = errors.New("draft: no item with that id")

	// ErrIncompleteItem is returned when submitting a composed item with required fields left empty.
	ErrIncompleteItem = errors.New("draft: required field is empty")
)

// ContentStore is the canonical home of the site content.
type ContentStore interface {
	Get() model.SiteContent
	Commit(model.SiteContent) error
}

// ProductStore is the canonical home of the product catalog.
type ProductStore interface {
	List() []model.Product
	Commit([]model.Product) error
}

// PageStore is the canonical home of the custom pages.
type PageStore interface {
	List() []model.CustomPage
	Commit([]model.CustomPage) error
}

// IDFunc generates a new item id with the given prefix ("prod" or "page").
type IDFunc func(prefix string) string

func uuidID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithIDFunc overrides id generation, mainly for tests.
func WithIDFunc(fn IDFunc) Option {
	return func(s *Session) {
		s.newID = fn
	}
}

// ProductDraft is the product compose slot.
type ProductDraft struct {
	Product   model.Product `json:"product"`
	EditingID string        `json:"editingId,omitempty"` // Empty when adding a new product
}

// PageDraft is the custom page compose slot.
type PageDraft struct {
	Page       model.CustomPage `json:"page"`
	EditingID  string           `json:"editingId,omitempty"`
	SlugManual bool             `json:"slugManual"`
}

// Session holds one admin's uncommitted edits. It is not safe for concurrent use;
// callers serialise access per admin session.
type Session struct {
	contentStore ContentStore
	productStore ProductStore
	pageStore    PageStore
	logger       zerolog.Logger
	newID        IDFunc

	content  model.SiteContent
	products []model.Product
	pages    []model.CustomPage

	product   model.Product
	productID string // Editing id for the product slot

	page     model.CustomPage
	pageID   string // Editing id for the page slot
	pageSlug slug.Latch
}

// New starts a session from a snapshot of the three canonical stores.
func New(content ContentStore, products ProductStore, pageStore PageStore, opts ...Option) *Session {
	s := &Session{
		contentStore: content,
		productStore: products,
		pageStore:    pageStore,
		logger:       zerolog.Nop(),
		newID:        uuidID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s
}

// Reset discards every edit and re-copies canonical state.
func (s *Session) Reset() {
	s.content = s.contentStore.Get().Clone()
	s.products = model.CloneProducts(s.productStore.List())
	s.pages = model.ClonePages(s.pageStore.List())
	s.CancelProduct()
	s.CancelPage()
}

// Content returns a copy of the content draft.
func (s *Session) Content() model.SiteContent {
	return s.content.Clone()
}

// Products returns a copy of the product draft collection.
func (s *Session) Products() []model.Product {
	return model.CloneProducts(s.products)
}

// Pages returns a copy of the page draft collection.
func (s *Session) Pages() []model.CustomPage {
	return model.ClonePages(s.pages)
}

// ProductDraft returns the product compose slot.
func (s *Session) ProductDraft() ProductDraft {
	return ProductDraft{Product: s.product, EditingID: s.productID}
}

// PageDraft returns the page compose slot.
func (s *Session) PageDraft() PageDraft {
	return PageDraft{Page: s.page, EditingID: s.pageID, SlugManual: s.pageSlug.Manual()}
}

// FieldEdit sets one field of the content draft, leaving sibling fields untouched.
// A failed edit leaves the draft unchanged and returns a *PathError.
func (s *Session) FieldEdit(p Path, value any) error {
	next := s.content.Clone()
	if err := applyEdit(&next, p, value); err != nil {
		return err
	}
	s.content = next
	return nil
}

// EditProduct sets a field of the product being composed: "name", "description" or "imageUrl".
func (s *Session) EditProduct(field, value string) error {
	switch field {
	case "name":
		s.product.Name = value
	case "description":
		s.product.DescriptionHTML = value
	case "imageUrl":
		s.product.ImageURL = value
	default:
		return fmt.Errorf("draft: unknown product field %q", field)
	}
	return nil
}

// StartEditProduct loads an existing product into the compose slot so that the next
// SubmitProduct replaces it.
func (s *Session) StartEditProduct(id string) error {
	idx := indexOfProduct(s.products, id)
	if idx < 0 {
		return fmt.Errorf("product %q: %w", id, ErrUnknownID)
	}
	s.product = s.products[idx]
	s.productID = id
	return nil
}

// SubmitProduct writes the compose slot into the draft collection: replacing the
// product being edited in place, or appending a new one with a fresh id.
func (s *Session) SubmitProduct() (model.Product, error) {
	p := s.product
	if p.Name == "" || p.ImageURL == "" {
		return model.Product{}, fmt.Errorf("product needs a name and an image URL: %w", ErrIncompleteItem)
	}

	if s.productID != "" {
		idx := indexOfProduct(s.products, s.productID)
		if idx < 0 {
			return model.Product{}, fmt.Errorf("product %q: %w", s.productID, ErrUnknownID)
		}
		p.ID = s.productID
		s.products[idx] = p
		s.logger.Debug().Str("productID", p.ID).Msg("Draft product replaced")
	} else {
		p.ID = s.freshID("prod", func(id string) bool { return indexOfProduct(s.products, id) >= 0 })
		s.products = append(s.products, p)
		s.logger.Debug().Str("productID", p.ID).Msg("Draft product added")
	}
	s.CancelProduct()
	return p, nil
}

// CancelProduct clears the product compose slot.
func (s *Session) CancelProduct() {
	s.product = model.Product{}
	s.productID = ""
}

// DeleteProduct removes a product from the draft collection.
func (s *Session) DeleteProduct(id string) error {
	idx := indexOfProduct(s.products, id)
	if idx < 0 {
		return fmt.Errorf("product %q: %w", id, ErrUnknownID)
	}
	s.products = append(s.products[:idx], s.products[idx+1:]...)
	if s.productID == id {
		s.CancelProduct()
	}
	return nil
}

// SetPageTitle updates the composed page title and, unless the slug was set by hand,
// regenerates the slug from it.
func (s *Session) SetPageTitle(title string) {
	s.page.Title = title
	s.page.Slug = s.pageSlug.OnTitle(title, s.page.Slug)
}

// SetPageSlug sets the slug directly. From now on title edits leave it alone.
func (s *Session) SetPageSlug(value string) {
	s.page.Slug = s.pageSlug.OnSlug(value)
}

// SetPageContent sets the composed page body.
func (s *Session) SetPageContent(html string) {
	s.page.ContentHTML = html
}

// StartEditPage loads an existing page into the compose slot. Its slug counts as final.
func (s *Session) StartEditPage(id string) error {
	idx := indexOfPage(s.pages, id)
	if idx < 0 {
		return fmt.Errorf("page %q: %w", id, ErrUnknownID)
	}
	s.page = s.pages[idx]
	s.pageID = id
	s.pageSlug.Lock()
	return nil
}

// SubmitPage writes the compose slot into the draft collection. A slug already used
// by another draft page is rejected with a *pages.SlugCollisionError.
func (s *Session) SubmitPage() (model.CustomPage, error) {
	p := s.page
	if p.Title == "" || p.Slug == "" {
		return model.CustomPage{}, fmt.Errorf("page needs a title and a slug: %w", ErrIncompleteItem)
	}
	for _, other := range s.pages {
		if other.Slug == p.Slug && other.ID != s.pageID {
			return model.CustomPage{}, &pages.SlugCollisionError{Slug: p.Slug, PageID: s.pageID, HolderID: other.ID}
		}
	}

	if s.pageID != "" {
		idx := indexOfPage(s.pages, s.pageID)
		if idx < 0 {
			return model.CustomPage{}, fmt.Errorf("page %q: %w", s.pageID, ErrUnknownID)
		}
		p.ID = s.pageID
		s.pages[idx] = p
		s.logger.Debug().Str("pageID", p.ID).Str("slug", p.Slug).Msg("Draft page replaced")
	} else {
		p.ID = s.freshID("page", func(id string) bool { return indexOfPage(s.pages, id) >= 0 })
		s.pages = append(s.pages, p)
		s.logger.Debug().Str("pageID", p.ID).Str("slug", p.Slug).Msg("Draft page added")
	}
	s.CancelPage()
	return p, nil
}

// CancelPage clears the page compose slot and the slug latch.
func (s *Session) CancelPage() {
	s.page = model.CustomPage{}
	s.pageID = ""
	s.pageSlug.Reset()
}

// DeletePage removes a page from the draft collection.
func (s *Session) DeletePage(id string) error {
	idx := indexOfPage(s.pages, id)
	if idx < 0 {
		return fmt.Errorf("page %q: %w", id, ErrUnknownID)
	}
	s.pages = append(s.pages[:idx], s.pages[idx+1:]...)
	if s.pageID == id {
		s.CancelPage()
	}
	return nil
}

// Snapshot returns a copy of the draft content and products for previewing.
func (s *Session) Snapshot() model.PreviewPayload {
	return model.PreviewPayload{
		Content:  s.content.Clone(),
		Products: model.CloneProducts(s.products),
	}
}

// SaveReport carries the outcome of each independent commit made by SaveAll.
type SaveReport struct {
	ContentErr  error
	ProductsErr error
	PagesErr    error
}

// OK reports whether every commit succeeded.
func (r SaveReport) OK() bool {
	return r.ContentErr == nil && r.ProductsErr == nil && r.PagesErr == nil
}

// FirstErr returns the failure of the earliest commit, in save order, or nil.
func (r SaveReport) FirstErr() error {
	for _, err := range []error{r.ContentErr, r.ProductsErr, r.PagesErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Err joins the individual failures, or returns nil.
func (r SaveReport) Err() error {
	return errors.Join(r.ContentErr, r.ProductsErr, r.PagesErr)
}

// SaveAll commits content, then products, then pages. The commits are independent:
// one failing does not stop the others, and the report lists what failed.
func (s *Session) SaveAll() SaveReport {
	var report SaveReport
	report.ContentErr = s.contentStore.Commit(s.content.Clone())
	report.ProductsErr = s.productStore.Commit(model.CloneProducts(s.products))
	report.PagesErr = s.pageStore.Commit(model.ClonePages(s.pages))

	if report.OK() {
		s.logger.Info().Int("products", len(s.products)).Int("pages", len(s.pages)).Msg("Draft saved")
	} else {
		s.logger.Warn().Err(report.Err()).Msg("Draft saved with errors")
	}
	return report
}

// freshID generates ids until one is not taken in the collection.
func (s *Session) freshID(prefix string, taken func(string) bool) string {
	for {
		id := s.newID(prefix)
		if !taken(id) {
			return id
		}
	}
}

func indexOfProduct(products []model.Product, id string) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func indexOfPage(list []model.CustomPage, id string) int {
	for i, p := range list {
		if p.ID == id {
			return i
		}
	}
	return -1
}
