package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tphakala/waves-previewer/internal/engine"
	"github.com/tphakala/waves-previewer/internal/jobs"
	"github.com/tphakala/waves-previewer/internal/listmodel"
)

func TestHealthAndEngineState(t *testing.T) {
	eng := engine.NewTestEngine(48000, 2)
	list := listmodel.New()
	coord := jobs.NewCoordinator(16, 4, 2, 50)

	api := New(eng, list, coord)
	ts := httptest.NewServer(api.Echo())
	defer ts.Close()

	healthResp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer healthResp.Body.Close()
	if healthResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /health, got %d", healthResp.StatusCode)
	}

	engResp, err := http.Get(ts.URL + "/api/engine")
	if err != nil {
		t.Fatalf("GET /api/engine: %v", err)
	}
	defer engResp.Body.Close()
	var state engineStateResponse
	if err := json.NewDecoder(engResp.Body).Decode(&state); err != nil {
		t.Fatalf("decode engine state: %v", err)
	}
	if state.OutSR != 48000 {
		t.Fatalf("expected out_sample_rate 48000, got %d", state.OutSR)
	}
}

func TestListStateReflectsAddedItems(t *testing.T) {
	list := listmodel.New()
	if _, err := list.Add("clip.wav", "clip"); err != nil {
		t.Fatal(err)
	}

	api := New(nil, list, nil)
	ts := httptest.NewServer(api.Echo())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/list")
	if err != nil {
		t.Fatalf("GET /api/list: %v", err)
	}
	defer resp.Body.Close()

	var state listStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode list state: %v", err)
	}
	if state.Count != 1 || state.Items[0].DisplayName != "clip" {
		t.Fatalf("unexpected list payload: %#v", state)
	}
}

func TestEngineStateWithoutEngineReturns503(t *testing.T) {
	api := New(nil, listmodel.New(), nil)
	ts := httptest.NewServer(api.Echo())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/engine")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}
