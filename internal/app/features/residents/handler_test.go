package residents_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	uierrors "github.com/kesherteam/kesher/internal/app/features/errors"
	"github.com/kesherteam/kesher/internal/app/features/residents"
	"github.com/kesherteam/kesher/internal/app/live"
	"github.com/kesherteam/kesher/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler() (*residents.Handler, *live.MemorySource) {
	logger := zap.NewNop()
	src := live.NewMemorySource("residents")
	coll := live.NewCollection(src, live.ResidentSchema, logger)
	return residents.NewHandler(coll, uierrors.NewErrorLogger(logger), logger), src
}

func createResident(t *testing.T, h *residents.Handler, body string) string {
	t.Helper()
	req := testutil.NewJSONRequest(http.MethodPost, "/api/residents", body)
	rec := testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if resp["id"] == "" {
		t.Fatal("create returned an empty id")
	}
	return resp["id"]
}

func TestHandleCreateAndList(t *testing.T) {
	h, _ := newTestHandler()

	createResident(t, h, `{
		"fullName": "Rivka Cohen",
		"languages": ["hebrew", "yiddish"],
		"availableSlots": {"monday": ["10:00"], "notaday": ["11:00"]},
		"notes": "<b>prefers</b> mornings"
	}`)

	req := testutil.NewRequest(http.MethodGet, "/api/residents")
	rec := testutil.NewRecorder()
	h.HandleList(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	var records []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("listed %d residents, want 1", len(records))
	}
	got := records[0]
	if got["full_name"] != "Rivka Cohen" {
		t.Errorf("full_name = %v", got["full_name"])
	}
	if got["is_active"] != true {
		t.Error("new resident should default to active")
	}
	// HTML is stripped from notes.
	if got["notes"] != "prefers mornings" {
		t.Errorf("notes = %v, want sanitized text", got["notes"])
	}
	// Unknown weekday keys are dropped; all seven real days present.
	slots, ok := got["available_slots"].(map[string]any)
	if !ok {
		t.Fatalf("available_slots = %T", got["available_slots"])
	}
	if len(slots) != 7 {
		t.Errorf("availability has %d keys, want 7", len(slots))
	}
	if _, ok := slots["notaday"]; ok {
		t.Error("unknown weekday survived")
	}
}

func TestHandleCreateTrimsSlots(t *testing.T) {
	h, _ := newTestHandler()

	// Padded slots canonicalize before validation instead of being rejected.
	createResident(t, h, `{
		"fullName": "Miriam Adler",
		"availableSlots": {"monday": [" 10:00 ", "10:00"]}
	}`)

	rec := testutil.NewRecorder()
	h.HandleList(rec.ResponseRecorder, testutil.NewRequest(http.MethodGet, "/api/residents"))
	var records []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatal(err)
	}
	slots, _ := records[0]["available_slots"].(map[string]any)
	monday, _ := slots["monday"].([]any)
	if len(monday) != 1 || monday[0] != "10:00" {
		t.Errorf("monday = %v, want the single trimmed slot", monday)
	}
}

func TestHandleCreateValidation(t *testing.T) {
	h, src := newTestHandler()

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"notes": "x"}`},
		{"bad birth date", `{"fullName": "A B", "birthDate": "31-12-1940"}`},
		{"bad slot", `{"fullName": "A B", "availableSlots": {"monday": ["25:00"]}}`},
		{"bad gender", `{"fullName": "A B", "gender": "unknown"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(http.MethodPost, "/api/residents", tc.body)
			rec := testutil.NewRecorder()
			h.HandleCreate(rec.ResponseRecorder, req)
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
	if src.Len() != 0 {
		t.Errorf("rejected creates wrote %d documents", src.Len())
	}
}

func TestHandlePatchPartial(t *testing.T) {
	h, _ := newTestHandler()
	id := createResident(t, h, `{"fullName": "Dov Stern", "room": "12b", "languages": ["hebrew"]}`)

	req := testutil.NewJSONRequest(http.MethodPatch, "/api/residents/"+id, `{"room": "14a"}`)
	req = testutil.WithChiURLParam(req, "id", id)
	rec := testutil.NewRecorder()
	h.HandlePatch(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNoContent)

	listRec := testutil.NewRecorder()
	h.HandleList(listRec.ResponseRecorder, testutil.NewRequest(http.MethodGet, "/api/residents"))
	var records []map[string]any
	if err := json.Unmarshal(listRec.Body.Bytes(), &records); err != nil {
		t.Fatal(err)
	}
	got := records[0]
	if got["room"] != "14a" {
		t.Errorf("room = %v, want 14a", got["room"])
	}
	// Unsupplied fields stay untouched.
	if got["full_name"] != "Dov Stern" {
		t.Errorf("full_name changed: %v", got["full_name"])
	}
	langs, _ := got["languages"].([]any)
	if len(langs) != 1 || langs[0] != "hebrew" {
		t.Errorf("languages changed: %v", got["languages"])
	}
}

func TestHandlePatchNotFound(t *testing.T) {
	h, _ := newTestHandler()

	req := testutil.NewJSONRequest(http.MethodPatch, "/api/residents/missing", `{"room": "1"}`)
	req = testutil.WithChiURLParam(req, "id", "missing")
	rec := testutil.NewRecorder()
	h.HandlePatch(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleDelete(t *testing.T) {
	h, src := newTestHandler()
	id := createResident(t, h, `{"fullName": "Gone Soon"}`)

	req := testutil.NewRequest(http.MethodDelete, "/api/residents/"+id)
	req = testutil.WithChiURLParam(req, "id", id)
	rec := testutil.NewRecorder()
	h.HandleDelete(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNoContent)
	if src.Len() != 0 {
		t.Errorf("source still holds %d documents", src.Len())
	}

	// Deleting again reports 404, not silent success.
	rec = testutil.NewRecorder()
	h.HandleDelete(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleStreamDeliversSnapshot(t *testing.T) {
	h, _ := newTestHandler()
	createResident(t, h, `{"fullName": "Streamed"}`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	req := testutil.NewRequest(http.MethodGet, "/api/residents/stream").WithContext(ctx)
	rec := testutil.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.HandleStream(rec.ResponseRecorder, req)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("stream handler did not return after context cancellation")
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	rec.AssertContains(t, "event: snapshot")
	rec.AssertContains(t, "Streamed")
}
