package site

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/armstrong/internal/contact"
)

func postForm(h http.HandlerFunc, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestContactHandler_Pages(t *testing.T) {
	composer, _ := newTestComposer(t)
	h := NewContactHandler(composer, newTestRenderer(t), false)

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		path     string
		contains []string
		absent   []string
	}{
		{
			name:     "home shows the company form",
			handler:  h.Home,
			path:     "/",
			contains: []string{`action="/contact/"`, `name="company"`, "Armstrong"},
		},
		{
			name:     "company form",
			handler:  h.Form(contact.KindCompany),
			path:     "/contact/",
			contains: []string{"Contact us", `action="/contact/"`, `name="company"`},
		},
		{
			name:     "base form has no company field",
			handler:  h.Form(contact.KindBase),
			path:     "/contact/general/",
			contains: []string{"General enquiries", `action="/contact/general/"`},
			absent:   []string{`name="company"`},
		},
		{
			name:     "sent page",
			handler:  h.Sent,
			path:     SentPath,
			contains: []string{"Your message has been sent."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			for _, s := range tt.contains {
				assert.Contains(t, rec.Body.String(), s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, rec.Body.String(), s)
			}
		})
	}
}

func TestContactHandler_SubmitBase(t *testing.T) {
	composer, outbox := newTestComposer(t)
	h := NewContactHandler(composer, newTestRenderer(t), false)

	rec := postForm(h.Submit(contact.KindBase), "/contact/general/", url.Values{
		"name":       {"Ada"},
		"email":      {"ada@example.com"},
		"body":       {"Hello"},
		"csrf_token": {"ignored"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, SentPath, rec.Header().Get("Location"))

	sent := outbox.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"staff@armstrongcms.org"}, sent[0].To)
	assert.Equal(t, "ada@example.com", sent[0].ReplyTo)
	assert.Contains(t, sent[0].Subject, "Armstrong")
}

func TestContactHandler_SubmitCompany(t *testing.T) {
	composer, outbox := newTestComposer(t)
	h := NewContactHandler(composer, newTestRenderer(t), false)

	rec := postForm(h.Submit(contact.KindCompany), "/contact/", url.Values{
		"name":    {"Grace"},
		"email":   {"grace@example.com"},
		"company": {"Navy"},
		"body":    {"We would like a demo."},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)

	sent := outbox.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"grace@example.com"}, sent[0].To)
	assert.Equal(t, []string{contact.DefaultCompanyFromEmail}, sent[0].Cc)
}

func TestContactHandler_SubmitInvalid(t *testing.T) {
	composer, outbox := newTestComposer(t)
	h := NewContactHandler(composer, newTestRenderer(t), false)

	rec := postForm(h.Submit(contact.KindCompany), "/contact/", url.Values{
		"name":  {"<b>Grace</b>"},
		"email": {"not-an-address"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Please correct the errors below.")
	assert.Contains(t, body, "Enter a valid email address.")
	assert.Contains(t, body, "This field is required.")
	assert.Contains(t, body, "&lt;b&gt;Grace&lt;/b&gt;", "submitted values are re-rendered escaped")
	assert.Empty(t, outbox.Sent(), "nothing is sent for invalid input")
}

func TestContactHandler_SubmitDeliveryFailure(t *testing.T) {
	valid := url.Values{
		"name":  {"Ada"},
		"email": {"ada@example.com"},
		"body":  {"Hello"},
	}

	t.Run("renders error page", func(t *testing.T) {
		composer, outbox := newTestComposer(t)
		outbox.Err = errors.New("connection refused")
		h := NewContactHandler(composer, newTestRenderer(t), false)

		rec := postForm(h.Submit(contact.KindBase), "/contact/general/", valid)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "Your message could not be sent right now.")
		assert.Contains(t, rec.Body.String(), `href="/contact/general/"`)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})

	t.Run("fail silently still confirms", func(t *testing.T) {
		composer, outbox := newTestComposer(t)
		outbox.Err = errors.New("connection refused")
		h := NewContactHandler(composer, newTestRenderer(t), true)

		rec := postForm(h.Submit(contact.KindBase), "/contact/general/", valid)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, SentPath, rec.Header().Get("Location"))
	})
}

func TestContactHandler_SubmitBodyTooLarge(t *testing.T) {
	composer, _ := newTestComposer(t)
	h := NewContactHandler(composer, newTestRenderer(t), false)

	form := url.Values{"body": {strings.Repeat("x", 2048)}}
	req := httptest.NewRequest(http.MethodPost, "/contact/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, 512)

	h.Submit(contact.KindCompany).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
