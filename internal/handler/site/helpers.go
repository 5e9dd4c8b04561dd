// Package site holds the public website handlers: the home page, the two
// contact forms, the confirmation page and the JSON contact API.
package site

import (
	"context"
	"net/url"
	"time"

	"github.com/dukerupert/armstrong/internal/contact"
	"github.com/dukerupert/armstrong/internal/domain"
)

// Submitter runs the contact pipeline. *contact.Composer implements it.
type Submitter interface {
	Submit(ctx context.Context, kind contact.Kind, raw url.Values, dctx contact.DeliveryContext, failSilently bool) (*contact.Envelope, error)
	DeliveryContext(ctx context.Context) contact.DeliveryContext
}

// PageData contains the fields every page template reads.
type PageData struct {
	SiteName  string
	CSRFToken string
	Year      int
}

// FormPageData is a page that renders a contact form.
type FormPageData struct {
	PageData
	Heading     string
	Action      string
	ShowCompany bool
	Values      map[string]string
	Errors      map[string]string
}

// ErrorPageData is the friendly error page.
type ErrorPageData struct {
	PageData
	Message string
	Back    string
}

// formAction maps a variant to the path its form posts to.
var formAction = map[contact.Kind]string{
	contact.KindCompany: "/contact/",
	contact.KindBase:    "/contact/general/",
}

var formHeading = map[contact.Kind]string{
	contact.KindCompany: "Contact us",
	contact.KindBase:    "General enquiries",
}

func basePageData(site domain.Site, csrfToken string) PageData {
	return PageData{
		SiteName:  site.Name,
		CSRFToken: csrfToken,
		Year:      time.Now().Year(),
	}
}

// firstValues flattens submitted values so a form can be re-populated.
func firstValues(raw url.Values) map[string]string {
	values := make(map[string]string, len(raw))
	for key := range raw {
		values[key] = raw.Get(key)
	}
	return values
}
