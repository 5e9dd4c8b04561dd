package site

import (
	"errors"
	"net/http"

	"github.com/dukerupert/armstrong/internal/contact"
	"github.com/dukerupert/armstrong/internal/domain"
	"github.com/dukerupert/armstrong/internal/handler"
	"github.com/dukerupert/armstrong/internal/middleware"
)

// SentPath is where a successful form submission redirects.
const SentPath = "/contact/sent/"

// ContactHandler serves the HTML contact forms.
type ContactHandler struct {
	submitter    Submitter
	renderer     *handler.Renderer
	failSilently bool
}

// NewContactHandler creates a new contact handler. With failSilently set a
// transport failure is logged and the visitor still sees the confirmation.
func NewContactHandler(submitter Submitter, renderer *handler.Renderer, failSilently bool) *ContactHandler {
	return &ContactHandler{
		submitter:    submitter,
		renderer:     renderer,
		failSilently: failSilently,
	}
}

// Home handles GET /
func (h *ContactHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderHTTP(w, r, http.StatusOK, "home", h.formData(r, contact.KindCompany))
}

// Sent handles GET /contact/sent/
func (h *ContactHandler) Sent(w http.ResponseWriter, r *http.Request) {
	site := h.submitter.DeliveryContext(r.Context()).Site
	h.renderer.RenderHTTP(w, r, http.StatusOK, "sent", basePageData(site, middleware.GetCSRFToken(r.Context())))
}

// Form handles GET on a variant's form page.
func (h *ContactHandler) Form(kind contact.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.renderer.RenderHTTP(w, r, http.StatusOK, "contact", h.formData(r, kind))
	}
}

// Submit handles POST on a variant's form page.
//
// Invalid input re-renders the form with per-field messages and a 400.
// A delivery failure renders the error page with a 502. Success redirects
// to the confirmation page so a reload does not resend.
func (h *ContactHandler) Submit(kind contact.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseForm(); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				handler.ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, "contact.submit", "Request body too large"))
				return
			}
			handler.ErrorResponse(w, r, domain.Invalid("contact.submit", "Invalid form data"))
			return
		}

		dctx := h.submitter.DeliveryContext(ctx)
		_, err := h.submitter.Submit(ctx, kind, r.PostForm, dctx, h.failSilently)
		switch {
		case err == nil:
			http.Redirect(w, r, SentPath, http.StatusSeeOther)
		case domain.IsValidationError(err):
			data := h.formData(r, kind)
			data.Values = firstValues(r.PostForm)
			data.Errors = domain.GetValidationFields(err)
			middleware.GetLogger(ctx).Info("contact form rejected",
				"variant", kind,
				"fields", len(data.Errors),
			)
			h.renderer.RenderHTTP(w, r, http.StatusBadRequest, "contact", data)
		case domain.IsDeliveryError(err):
			middleware.GetLogger(ctx).Error("contact form not delivered", "variant", kind, "error", err)
			h.renderer.RenderHTTP(w, r, http.StatusBadGateway, "error", ErrorPageData{
				PageData: basePageData(dctx.Site, middleware.GetCSRFToken(ctx)),
				Message:  domain.ErrorMessage(err),
				Back:     formAction[kind],
			})
		default:
			handler.ErrorResponse(w, r, err)
		}
	}
}

func (h *ContactHandler) formData(r *http.Request, kind contact.Kind) FormPageData {
	site := h.submitter.DeliveryContext(r.Context()).Site
	return FormPageData{
		PageData:    basePageData(site, middleware.GetCSRFToken(r.Context())),
		Heading:     formHeading[kind],
		Action:      formAction[kind],
		ShowCompany: kind == contact.KindCompany,
	}
}
