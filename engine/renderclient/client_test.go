package renderclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finalyze/core/engine/core"
)

func TestRender_ReturnsPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/render" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var req renderRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Document.Title != "State of Apple in 2025" {
			t.Fatalf("unexpected title: %q", req.Document.Title)
		}
		json.NewEncoder(w).Encode(renderResponse{Path: "/data/reports/report1.pdf"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	path, err := c.Render(context.Background(), core.Document{Title: "State of Apple in 2025"})
	if err != nil {
		t.Fatalf("expected ok, got error: %v", err)
	}
	if path != "/data/reports/report1.pdf" {
		t.Errorf("unexpected path: %q", path)
	}
}

func TestPreview_ReturnsPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req previewRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.MaxPages != 5 {
			t.Fatalf("unexpected max pages: %d", req.MaxPages)
		}
		json.NewEncoder(w).Encode(previewResponse{Path: "/tmp/preview.pdf"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	path, err := c.Preview(context.Background(), "/data/reports/report1.pdf", 5)
	if err != nil {
		t.Fatalf("expected ok, got error: %v", err)
	}
	if path != "/tmp/preview.pdf" {
		t.Errorf("unexpected path: %q", path)
	}
}

func TestChart_ReturnsPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chartRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.VisualType != core.VisualBar {
			t.Fatalf("unexpected visual type: %s", req.VisualType)
		}
		json.NewEncoder(w).Encode(chartResponse{Path: "/tmp/chart0.png"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	path, err := c.Chart(context.Background(), core.VisualBar, map[string]any{"labels": []string{"Q1", "Q2"}})
	if err != nil {
		t.Fatalf("expected ok, got error: %v", err)
	}
	if path != "/tmp/chart0.png" {
		t.Errorf("unexpected path: %q", path)
	}
}

func TestRender_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Render(context.Background(), core.Document{}); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
