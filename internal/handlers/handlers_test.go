package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"caretrack/internal/models"
	"caretrack/internal/service"
)

func TestJSONEncodeNormalizesNilSlices(t *testing.T) {
	var records []models.ProgressRecordWithDetails

	var sb strings.Builder
	if err := JSONEncode(&sb, records); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if strings.TrimSpace(sb.String()) != "[]" {
		t.Errorf("Expected empty array, got %s", sb.String())
	}
}

func TestJSONEncodeNormalizesNestedSlices(t *testing.T) {
	type payload struct {
		Items []string `json:"items"`
		Name  string   `json:"name"`
	}

	var sb strings.Builder
	if err := JSONEncode(&sb, payload{Name: "x"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(sb.String()), &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if _, ok := decoded["items"].([]interface{}); !ok {
		t.Errorf("Expected items as array, got %v", decoded["items"])
	}
}

func TestRespondWithServiceErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", service.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("wrap: %w", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("wrap: %w", service.ErrNotLinked), http.StatusConflict},
		{fmt.Errorf("wrap: %w", service.ErrAlreadyResolved), http.StatusConflict},
		{fmt.Errorf("wrap: %w", service.ErrConflict), http.StatusConflict},
		{fmt.Errorf("wrap: %w", service.ErrExpired), http.StatusGone},
		{fmt.Errorf("database exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		respondWithServiceError(rec, tt.err)
		if rec.Code != tt.want {
			t.Errorf("Error %v: expected status %d, got %d", tt.err, tt.want, rec.Code)
		}
	}
}

func TestPathID(t *testing.T) {
	mux := http.NewServeMux()
	var gotID uint
	var gotErr error
	mux.HandleFunc("GET /workers/{workerID}", func(w http.ResponseWriter, r *http.Request) {
		gotID, gotErr = pathID(r, "workerID")
	})

	req := httptest.NewRequest("GET", "/workers/42", nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if gotErr != nil || gotID != 42 {
		t.Errorf("Expected 42, got %d (%v)", gotID, gotErr)
	}

	req = httptest.NewRequest("GET", "/workers/zero", nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if gotErr == nil {
		t.Error("Expected error for non-numeric id")
	}

	req = httptest.NewRequest("GET", "/workers/0", nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if gotErr == nil {
		t.Error("Expected error for zero id")
	}
}
