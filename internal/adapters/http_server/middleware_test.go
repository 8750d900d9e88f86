package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"place_enricher/internal/app"
	"place_enricher/internal/domain"
)

func TestInstrument_AccessLog(t *testing.T) {
	var buf bytes.Buffer
	s := New(zerolog.New(&buf))
	repo := &stubRepo{views: map[string]domain.PlaceView{"p1": {PlaceID: "p1"}}}
	s.MountHandlers(&Handlers{Q: app.NewQueryService(repo, nil, time.Minute)})

	req := httptest.NewRequest(http.MethodGet, "/v1/places/p1", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	rr := httptest.NewRecorder()
	s.Mux().ServeHTTP(rr, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["route"] != "/v1/places/{id}" {
		t.Fatalf("route = %v", entry["route"])
	}
	if entry["status"] != float64(200) || entry["level"] != "info" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["remote"] != "10.0.0.7" {
		t.Fatalf("remote = %v", entry["remote"])
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Fatalf("missing request id: %v", entry)
	}
}

func TestInstrument_ServerErrorLogsAtError(t *testing.T) {
	var buf bytes.Buffer
	h := Instrument(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["level"] != "error" || entry["route"] != "/x" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
