package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/armstrong/internal/contact"
	"github.com/dukerupert/armstrong/internal/handler/site"
)

// RegisterSiteRoutes registers the public website: the home page, the
// company form at /contact/, the general form at /contact/general/ and the
// confirmation page. post wraps the form submissions.
func RegisterSiteRoutes(r chi.Router, deps SiteDeps, post ...Middleware) {
	h := deps.ContactHandler

	r.Get("/", h.Home)

	// Company form (the site's primary contact form)
	r.Get("/contact/", h.Form(contact.KindCompany))
	r.With(post...).Post("/contact/", h.Submit(contact.KindCompany))

	// General enquiries
	r.Get("/contact/general/", h.Form(contact.KindBase))
	r.With(post...).Post("/contact/general/", h.Submit(contact.KindBase))

	r.Get(site.SentPath, h.Sent)
}
