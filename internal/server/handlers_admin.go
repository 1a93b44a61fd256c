package server

import (
	"fmt"
	"net/http"
	"sort"

	"aetheria-site/internal/draft"
	"aetheria-site/internal/model"
	"aetheria-site/internal/preview"
	"aetheria-site/internal/session"
	"aetheria-site/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/justinas/nosurf"
)

const draftKey = "draft"

// draftView is the full admin panel state returned after every draft operation.
type draftView struct {
	Content      model.SiteContent  `json:"pageData"`
	Products     []model.Product    `json:"products"`
	Pages        []model.CustomPage `json:"customPages"`
	ProductDraft draft.ProductDraft `json:"productDraft"`
	PageDraft    draft.PageDraft    `json:"pageDraft"`
}

// contentEditRequest is one field edit; the path fields sit next to the value.
type contentEditRequest struct {
	draft.Path
	Value any `json:"value"`
}

type valueRequest struct {
	Value string `json:"value"`
}

type saveResponse struct {
	ShowMessage message           `json:"showMessage"`
	Errors      map[string]string `json:"errors,omitempty"`
}

type previewResponse struct {
	PreviewURL string `json:"previewUrl"`
}

type csrfResponse struct {
	Token string `json:"csrfToken"`
}

func newDraftView(d *draft.Session) draftView {
	return draftView{
		Content:      d.Content(),
		Products:     d.Products(),
		Pages:        d.Pages(),
		ProductDraft: d.ProductDraft(),
		PageDraft:    d.PageDraft(),
	}
}

// newDraft starts a draft over the canonical stores.
func (s *Server) newDraft(sess *session.Session) *draft.Session {
	d := draft.New(s.content, s.catalog, s.pages,
		draft.WithLogger(s.logger.With().Str("component", "draft").Str("sessionID", sess.ID()[:8]).Logger()))
	sess.SetValue(draftKey, d)
	return d
}

// withDraft runs fn on the session's draft under the session lock, starting a draft on
// first use. A nil error answers with the draft state and, if set, a success message.
func (s *Server) withDraft(w http.ResponseWriter, r *http.Request, fn func(d *draft.Session) (string, error)) {
	sess := session.FromContext(r.Context())
	sess.Lock()
	defer sess.Unlock()

	d, ok := sess.Value(draftKey)
	current, _ := d.(*draft.Session)
	if !ok || current == nil {
		current = s.newDraft(sess)
	}

	text, err := fn(current)
	if err != nil {
		s.fail(w, err)
		return
	}
	if text != "" {
		triggerMessage(w, messageSuccess, text)
	}
	s.writeJSON(w, http.StatusOK, newDraftView(current))
}

func (s *Server) csrfTokenHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, csrfResponse{Token: nosurf.Token(r)})
}

// draftStartHandler (re)starts the draft from canonical state, dropping unsaved edits.
func (s *Server) draftStartHandler(w http.ResponseWriter, r *http.Request) {
	s.withDraft(w, r, func(d *draft.Session) (string, error) {
		d.Reset()
		return "", nil
	})
}

func (s *Server) draftStateHandler(w http.ResponseWriter, r *http.Request) {
	s.withDraft(w, r, func(*draft.Session) (string, error) { return "", nil })
}

// draftDiscardHandler throws the draft away without saving.
func (s *Server) draftDiscardHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Lock()
	sess.DeleteValue(draftKey)
	sess.Unlock()
	s.showMessage(w, http.StatusOK, messageSuccess, "Unsaved changes discarded.")
}

func (s *Server) contentEditHandler(w http.ResponseWriter, r *http.Request) {
	var req contentEditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.showMessage(w, http.StatusBadRequest, messageError, "Bad Request - Could not parse edit")
		return
	}
	s.withDraft(w, r, func(d *draft.Session) (string, error) {
		return "", d.FieldEdit(req.Path, req.Value)
	})
}

// draftSaveHandler commits every draft collection. The commits are independent, so a
// partial failure still saves what it can and lists what failed.
func (s *Server) draftSaveHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Lock()
	defer sess.Unlock()

	v, _ := sess.Value(draftKey)
	d, _ := v.(*draft.Session)
	if d == nil {
		s.showMessage(w, http.StatusConflict, messageError, "Nothing to save. Open the admin panel first.")
		return
	}

	report := d.SaveAll()
	if report.OK() {
		s.showMessage(w, http.StatusOK, messageSuccess, "All changes saved successfully!")
		return
	}

	errs := map[string]string{}
	for name, err := range map[string]error{"content": report.ContentErr, "products": report.ProductsErr, "pages": report.PagesErr} {
		if err != nil {
			errs[name] = err.Error()
		}
	}
	text := "Some changes could not be saved."
	triggerMessage(w, messageError, text)
	s.writeJSON(w, statusFor(report.FirstErr()), saveResponse{ShowMessage: message{Message: text, Type: messageError}, Errors: errs})
}

// draftPreviewHandler copies the draft into the session store for the preview view.
func (s *Server) draftPreviewHandler(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	sess.Lock()
	defer sess.Unlock()

	v, _ := sess.Value(draftKey)
	d, _ := v.(*draft.Session)
	if d == nil {
		d = s.newDraft(sess)
	}

	snap := d.Snapshot()
	adapter := storage.NewAdapter(sess.Store(), s.logger)
	if err := preview.Snapshot(adapter, snap.Content, snap.Products); err != nil {
		s.fail(w, err)
		return
	}
	triggerMessage(w, messageSuccess, "Preview ready.")
	s.writeJSON(w, http.StatusOK, previewResponse{PreviewURL: "/preview"})
}

// --- Products ---

// productComposeHandler sets fields of the product being composed. The body maps field
// names (name, description, imageUrl) to values.
func (s *Server) productComposeHandler(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := decodeJSON(w, r, &fields); err != nil {
		s.showMessage(w, http.StatusBadRequest, messageError, "Bad Request - Could not parse product fields")
		return
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	s.withDraft(w, r, func(d *draft.Session) (string, error) {
		for _, name := range names {
			if err := d.EditProduct(name, fields[name]); err != nil {
				return "", &draft.PathError{Path: draft.Path{Section: "products", Field: name}, Reason: err.Error()}
			}
		}
		return "", nil
	})
}

func (s *Server) productSubmitHandler(w http.ResponseWriter, r *http.Request) {
	s.withDraft(w, r, func(d *draft.Session) (string, error) {
		editing := d.ProductDraft().EditingID != ""
		p, err := d.SubmitProduct()
		if err != nil {
			return "", err
		}
		if editing {
			return fmt.Sprintf("Product '%s' updated.", p.Name), nil
		}
		return fmt.Sprintf("Product '%s' added.", p.Name), nil
	})
}

func (s *Server) productCancelHandler(w http.ResponseWriter, r *http.Request) {
	s.withDraft(w, r, func(d *draft.Session) (string, error) {
		d.CancelProduct()
		return "", nil
	})
}

func (s *Server) productEditHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.withDraft(w, r, func(d *draft.Session) (string, error) {
		return "", d.StartEditProduct(id)
	})
}

func (s *Server) productDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.withDraft(w, r, func(d *draft.Session) (string, error) {
		if err := d.DeleteProduct(id); err != nil {
			return "", err
		}
		return "Product removed from draft.", nil
	})
}

// --- Custom pages ---

func (s *Server) pageValueHandler(w http.ResponseWriter, r *http.Request, apply func(d *draft.Session, value string)) {
	var req valueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.showMessage(w, http.StatusBadRequest, messageError, "Bad Request - Could not parse value")
		return
	}
	s.withDraft(w, r, func(d *draft.Session) (string, error) {
		apply(d, req.Value)
		return "", nil
	})
}

func (s *Server) pageTitleHandler(w http.ResponseWriter, r *http.Request) {
	s.pageValueHandler(w, r, (*draft.Session).SetPageTitle)
}

func (s *Server) pageSlugHandler(w http.ResponseWriter, r *http.Request) {
	s.pageValueHandler(w, r, (*draft.Session).SetPageSlug)
}

func (s *Server) pageContentHandler(w http.ResponseWriter, r *http.Request) {
	s.pageValueHandler(w, r, (*draft.Session).SetPageContent)
}

func (s *Server) pageSubmitHandler(w http.ResponseWriter, r *http.Request) {
	s.withDraft(w, r, func(d *draft.Session) (string, error) {
		editing := d.PageDraft().EditingID != ""
		p, err := d.SubmitPage()
		if err != nil {
			return "", err
		}
		if editing {
			return fmt.Sprintf("Page '%s' updated.", p.Title), nil
		}
		return fmt.Sprintf("Page '%s' added.", p.Title), nil
	})
}

func (s *Server) pageCancelHandler(w http.ResponseWriter, r *http.Request) {
	s.withDraft(w, r, func(d *draft.Session) (string, error) {
		d.CancelPage()
		return "", nil
	})
}

func (s *Server) pageEditHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.withDraft(w, r, func(d *draft.Session) (string, error) {
		return "", d.StartEditPage(id)
	})
}

func (s *Server) pageDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.withDraft(w, r, func(d *draft.Session) (string, error) {
		if err := d.DeletePage(id); err != nil {
			return "", err
		}
		return "Page removed from draft.", nil
	})
}
