package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"isma/internal/domain"
)

func TestHandleErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", fmt.Errorf("%w: nom invalide", domain.ErrValidation), http.StatusBadRequest},
		{"not found", fmt.Errorf("projet: %w", domain.ErrNotFound), http.StatusNotFound},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"conflict sentinel", fmt.Errorf("tour en cours: %w", domain.ErrConflict), http.StatusConflict},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, tc.err)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("content type = %q", ct)
			}
		})
	}
}

func TestHandleErrorConflictCarriesResource(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, &domain.ConflictError{
		Message:      "une question nommée \"age\" existe déjà",
		ResourceType: "question",
		ResourceID:   "u-age",
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["resource_type"] != "question" || body["resource_id"] != "u-age" {
		t.Errorf("resource fields missing from body: %v", body)
	}
	if body["status"] != float64(http.StatusConflict) {
		t.Errorf("status field = %v", body["status"])
	}
}
