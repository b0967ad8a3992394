package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"salesengine/internal/core"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("std dev: %w", core.ErrDivisionByZero), http.StatusUnprocessableEntity},
		{core.ErrInvalidDate, http.StatusBadRequest},
		{core.ErrInvalidMonth, http.StatusBadRequest},
		{core.ErrUnknownStatus, http.StatusBadRequest},
		{fmt.Errorf("%w: id", errInvalidParam), http.StatusBadRequest},
		{fmt.Errorf("merchant 9: %w", core.ErrNotFound), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.Header().Set("X-Request-ID", "abc")
	writeError(rr, http.StatusBadRequest, "bad input")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
	var body errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "bad input" || body.RequestID != "abc" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	srv := &Server{}
	rr := httptest.NewRecorder()
	srv.writeFailure(rr, httptest.NewRequest(http.MethodGet, "/", nil), "test", errors.New("disk on fire"))

	var body errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rr.Code != http.StatusInternalServerError || body.Error != "internal error" {
		t.Fatalf("got %d %+v", rr.Code, body)
	}
}
