package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbenson/examdeck/internal/model"
)

func TestReannotate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/annotate_one/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		var req annotateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Examples) != 1 || req.Examples[0] != "some text" {
			t.Errorf("unexpected examples: %v", req.Examples)
		}
		if len(req.UIDs) != 1 || req.UIDs[0] != "u1" {
			t.Errorf("expected original uid forwarded, got %v", req.UIDs)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"uid":"u1","text_to_annotate":"some text","annotation":1,"confidence":91}]`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, 100)
	item, err := c.Reannotate(context.Background(), model.Item{UID: "u1", TextToAnnotate: "some text"}, "guideline", "task1", 2)
	if err != nil {
		t.Fatalf("Reannotate failed: %v", err)
	}

	if item.UID != "u1" {
		t.Errorf("expected uid u1, got %q", item.UID)
	}
	if item.Confidence != 91 {
		t.Errorf("expected confidence 91, got %v", item.Confidence)
	}
	if !item.IsReannotated {
		t.Error("reannotated flag must be set")
	}
}

func TestAddExampleGeneratesUID(t *testing.T) {
	var gotUID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req annotateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.UIDs) == 1 {
			gotUID = req.UIDs[0]
		}
		// Backend echoes items without uid; client backfills.
		w.Write([]byte(`[{"text_to_annotate":"","annotation":0,"confidence":50}]`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, 100)
	item, err := c.AddExample(context.Background(), "new example", "guideline", "task1")
	if err != nil {
		t.Fatalf("AddExample failed: %v", err)
	}

	if gotUID == "" {
		t.Fatal("expected a generated uid in the request")
	}
	if item.UID != gotUID {
		t.Errorf("expected returned item to carry uid %q, got %q", gotUID, item.UID)
	}
	if item.TextToAnnotate != "new example" {
		t.Errorf("expected text backfilled, got %q", item.TextToAnnotate)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"uid":"u1","confidence":70}]`))
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, 100)
	item, err := c.Reannotate(context.Background(), model.Item{UID: "u1", TextToAnnotate: "t"}, "g", "task1", 1)
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if item.Confidence != 70 {
		t.Errorf("expected confidence 70, got %v", item.Confidence)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"detail":"Task ID is required."}`, http.StatusBadRequest)
	}))
	defer server.Close()

	c := New(server.URL, 5*time.Second, 100)
	_, err := c.Reannotate(context.Background(), model.Item{UID: "u1", TextToAnnotate: "t"}, "g", "", 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("4xx must not retry, got %d calls", calls.Load())
	}
}

func TestAnnotateEmptyInput(t *testing.T) {
	c := New("http://unused", time.Second, 1)
	items, err := c.Annotate(context.Background(), nil, "g", "task1", 0)
	if err != nil {
		t.Fatalf("empty input should short-circuit, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}
