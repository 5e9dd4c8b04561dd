package site

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/armstrong/internal/contact"
	"github.com/dukerupert/armstrong/internal/domain"
	"github.com/dukerupert/armstrong/internal/email"
	"github.com/dukerupert/armstrong/internal/handler"
)

var testSite = domain.Site{Name: "Armstrong", Domain: "armstrongcms.org"}

// newTestComposer returns a composer that records instead of sending.
func newTestComposer(t *testing.T) (*contact.Composer, *email.Recorder) {
	t.Helper()

	rec := email.NewRecorder()
	composer, err := contact.NewComposer(contact.Config{
		DefaultFromEmail: "webmaster@armstrongcms.org",
		Recipients:       []string{"staff@armstrongcms.org"},
		Site:             testSite,
	}, rec, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	require.NoError(t, err)

	return composer, rec
}

func newTestRenderer(t *testing.T) *handler.Renderer {
	t.Helper()

	renderer, err := handler.NewRenderer(handler.DefaultTemplates())
	require.NoError(t, err)
	return renderer
}
