package site

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/armstrong/internal/contact"
	"github.com/dukerupert/armstrong/internal/domain"
	"github.com/dukerupert/armstrong/internal/handler"
	"github.com/dukerupert/armstrong/internal/middleware"
)

// APIHandler serves the JSON contact endpoint used by static front ends.
type APIHandler struct {
	submitter    Submitter
	failSilently bool
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(submitter Submitter, failSilently bool) *APIHandler {
	return &APIHandler{submitter: submitter, failSilently: failSilently}
}

// SubmitResponse is returned once a message has been handed to the transport.
type SubmitResponse struct {
	Status  string `json:"status"`
	Variant string `json:"variant"`
}

// Submit handles POST /api/contact/{variant}
//
// The body is either a JSON object of string fields or a urlencoded form.
//
// Response codes:
// - 202 Accepted: message sent (or dropped with fail-silently enabled)
// - 400 Bad Request: validation failed, fields lists every problem
// - 404 Not Found: unknown variant
// - 502 Bad Gateway: the mail transport refused the message
func (h *APIHandler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "api.contact.submit"
	ctx := r.Context()

	variant := chi.URLParam(r, "variant")
	kind, err := contact.ParseKind(variant)
	if err != nil {
		handler.ErrorResponse(w, r, domain.NotFound(op, "contact form", variant))
		return
	}

	raw, err := decodeFields(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handler.ErrorResponse(w, r, domain.Errorf(domain.ETOOLARGE, op, "Request body too large"))
			return
		}
		handler.ErrorResponse(w, r, domain.WrapError(err, domain.EINVALID, op, "Invalid request body"))
		return
	}

	if _, err := h.submitter.Submit(ctx, kind, raw, h.submitter.DeliveryContext(ctx), h.failSilently); err != nil {
		if domain.IsValidationError(err) {
			handler.ValidationErrorResponse(w, r, err)
			return
		}
		handler.ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(ctx).Debug("contact submitted via api", "variant", kind)
	handler.WriteJSON(w, http.StatusAccepted, SubmitResponse{Status: "sent", Variant: string(kind)})
}

// decodeFields reads the submitted fields from a JSON or form body.
func decodeFields(r *http.Request) (url.Values, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		return r.PostForm, nil
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	raw := make(url.Values, len(payload))
	for key, value := range payload {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			raw.Set(key, v)
		case float64, bool:
			raw.Set(key, fmt.Sprint(v))
		default:
			return nil, fmt.Errorf("field %q must be a string", key)
		}
	}
	return raw, nil
}
