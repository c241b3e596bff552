package attendance_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/kesherteam/kesher/internal/app/features/attendance"
	uierrors "github.com/kesherteam/kesher/internal/app/features/errors"
	"github.com/kesherteam/kesher/internal/app/live"
	"github.com/kesherteam/kesher/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler() (*attendance.Handler, *live.MemorySource) {
	logger := zap.NewNop()
	src := live.NewMemorySource("attendance")
	coll := live.NewCollection(src, live.AttendanceSchema, logger)
	return attendance.NewHandler(coll, uierrors.NewErrorLogger(logger), logger), src
}

func confirm(t *testing.T, h *attendance.Handler, body string) string {
	t.Helper()
	req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/attendance", body, testutil.ManagerUser())
	rec := testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp["id"]
}

func list(t *testing.T, h *attendance.Handler, target string) []map[string]any {
	t.Helper()
	rec := testutil.NewRecorder()
	h.HandleList(rec.ResponseRecorder, testutil.NewRequest(http.MethodGet, target))
	rec.AssertStatus(t, http.StatusOK)

	var records []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return records
}

func TestHandleCreateStampsConfirmer(t *testing.T) {
	h, _ := newTestHandler()

	confirm(t, h, `{"appointmentId": "apt-1", "volunteerId": "vol-1", "status": "present"}`)

	records := list(t, h, "/api/attendance")
	if len(records) != 1 {
		t.Fatalf("listed %d records, want 1", len(records))
	}
	got := records[0]
	if got["status"] != "present" {
		t.Errorf("status = %v", got["status"])
	}
	if got["confirmed_by"] != "manager" {
		t.Errorf("confirmed_by = %v, want the signed-in username", got["confirmed_by"])
	}
	stamp, _ := got["confirmed_at"].(string)
	if _, err := time.Parse(time.RFC3339, stamp); err != nil {
		t.Errorf("confirmed_at = %q: %v", stamp, err)
	}
}

func TestHandleCreateNormalizesStatus(t *testing.T) {
	h, _ := newTestHandler()

	// Casing and padding canonicalize before validation, so " Present " is
	// the same confirmation as "present".
	confirm(t, h, `{"appointmentId": "apt-1", "volunteerId": "vol-1", "status": " Present "}`)

	records := list(t, h, "/api/attendance")
	if len(records) != 1 || records[0]["status"] != "present" {
		t.Errorf("records = %v, want one with status present", records)
	}
}

func TestHandleCreateValidation(t *testing.T) {
	h, src := newTestHandler()

	tests := []struct {
		name string
		body string
	}{
		{"missing appointment", `{"volunteerId": "vol-1", "status": "present"}`},
		{"missing volunteer", `{"appointmentId": "apt-1", "status": "present"}`},
		{"bad status", `{"appointmentId": "apt-1", "volunteerId": "vol-1", "status": "maybe"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.NewAuthenticatedJSONRequest(http.MethodPost, "/api/attendance", tc.body, testutil.ManagerUser())
			rec := testutil.NewRecorder()
			h.HandleCreate(rec.ResponseRecorder, req)
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
	if src.Len() != 0 {
		t.Errorf("rejected confirmations wrote %d documents", src.Len())
	}
}

func TestHandleListScoped(t *testing.T) {
	h, _ := newTestHandler()
	confirm(t, h, `{"appointmentId": "apt-1", "volunteerId": "vol-1", "status": "present"}`)
	confirm(t, h, `{"appointmentId": "apt-1", "volunteerId": "vol-2", "status": "late"}`)
	confirm(t, h, `{"appointmentId": "apt-2", "volunteerId": "vol-1", "status": "absent"}`)

	if got := list(t, h, "/api/attendance"); len(got) != 3 {
		t.Errorf("unscoped list returned %d records, want 3", len(got))
	}
	if got := list(t, h, "/api/attendance?appointment_id=apt-1"); len(got) != 2 {
		t.Errorf("appointment scope returned %d records, want 2", len(got))
	}
	byVol := list(t, h, "/api/attendance?volunteer_id=vol-1")
	if len(byVol) != 2 {
		t.Fatalf("volunteer scope returned %d records, want 2", len(byVol))
	}
	for _, rec := range byVol {
		if rec["volunteer_id"] != "vol-1" {
			t.Errorf("scoped list leaked record for %v", rec["volunteer_id"])
		}
	}
}

func TestHandlePatchCorrectsStatus(t *testing.T) {
	h, _ := newTestHandler()
	id := confirm(t, h, `{"appointmentId": "apt-1", "volunteerId": "vol-1", "status": "present"}`)

	req := testutil.NewAuthenticatedJSONRequest(http.MethodPatch, "/api/attendance/"+id,
		`{"status": "late"}`, testutil.ManagerUser())
	req = testutil.WithChiURLParam(req, "id", id)
	rec := testutil.NewRecorder()
	h.HandlePatch(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNoContent)

	records := list(t, h, "/api/attendance")
	if records[0]["status"] != "late" {
		t.Errorf("status = %v, want late", records[0]["status"])
	}
	if records[0]["appointment_id"] != "apt-1" {
		t.Errorf("appointment_id changed: %v", records[0]["appointment_id"])
	}
}

func TestHandleStreamScoped(t *testing.T) {
	h, _ := newTestHandler()
	confirm(t, h, `{"appointmentId": "apt-1", "volunteerId": "vol-1", "status": "present"}`)
	confirm(t, h, `{"appointmentId": "apt-2", "volunteerId": "vol-2", "status": "absent"}`)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	req := testutil.NewRequest(http.MethodGet, "/api/attendance/stream?appointment_id=apt-1").WithContext(ctx)
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

	rec.AssertContains(t, "apt-1")
	if strings.Contains(rec.Body.String(), "apt-2") {
		t.Error("scoped stream leaked a record from another appointment")
	}
}

func TestHandleStreamWithoutScopeShortCircuits(t *testing.T) {
	h, _ := newTestHandler()
	confirm(t, h, `{"appointmentId": "apt-1", "volunteerId": "vol-1", "status": "present"}`)

	req := testutil.NewRequest(http.MethodGet, "/api/attendance/stream")
	rec := testutil.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.HandleStream(rec.ResponseRecorder, req)
		close(done)
	}()
	// The short-circuited subscription closes its channel on its own, so the
	// handler returns without any context cancellation.
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("short-circuited stream did not finish")
	}

	var snap struct {
		Data    []any `json:"data"`
		Loading bool  `json:"loading"`
	}
	payload := extractFirstData(t, rec.Body.String())
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		t.Fatalf("decode snapshot %q: %v", payload, err)
	}
	if len(snap.Data) != 0 || snap.Loading {
		t.Errorf("snapshot = %+v, want empty and non-loading", snap)
	}
}

// extractFirstData pulls the payload of the first "data:" line of an SSE body.
func extractFirstData(t *testing.T, body string) string {
	t.Helper()
	for _, line := range strings.Split(body, "\n") {
		if payload, ok := strings.CutPrefix(line, "data: "); ok {
			return payload
		}
	}
	t.Fatalf("no data line in SSE body %q", body)
	return ""
}
