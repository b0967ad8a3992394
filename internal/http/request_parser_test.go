package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPathID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: "7", want: 7},
		{raw: " 12 ", want: 12},
		{raw: "0", wantErr: true},
		{raw: "-3", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.SetPathValue("id", tt.raw)
			got, err := pathID(req)
			if tt.wantErr {
				if !errors.Is(err, errInvalidParam) {
					t.Fatalf("expected errInvalidParam, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("got %d, %v; want %d", got, err, tt.want)
			}
		})
	}
}

func TestQueryLimit(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    int
		wantErr bool
	}{
		{name: "absent uses default", url: "/", want: 20},
		{name: "explicit", url: "/?limit=5", want: 5},
		{name: "zero", url: "/?limit=0", wantErr: true},
		{name: "not a number", url: "/?limit=many", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := queryLimit(httptest.NewRequest(http.MethodGet, tt.url, nil), 20)
			if tt.wantErr {
				if !errors.Is(err, errInvalidParam) {
					t.Fatalf("expected errInvalidParam, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("got %d, %v; want %d", got, err, tt.want)
			}
		})
	}
}
