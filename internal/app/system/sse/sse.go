// Package sse streams live-collection snapshots to browsers as
// server-sent events. Each published snapshot becomes one event whose data
// line is the JSON body {"data": [...], "loading": bool, "error": string}.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kesherteam/kesher/internal/app/live"
	"go.uber.org/zap"
)

type snapshotBody struct {
	Data    []live.Record `json:"data"`
	Loading bool          `json:"loading"`
	Error   string        `json:"error,omitempty"`
}

// ServeSnapshots writes sub's snapshots to w until the client disconnects or
// the subscription closes. The subscription is closed on return, so the
// caller hands over ownership.
func ServeSnapshots(w http.ResponseWriter, r *http.Request, sub *live.Subscription, log *zap.Logger) {
	defer sub.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-sub.Updates():
			if !open {
				return
			}
			if err := writeSnapshot(w, snap); err != nil {
				log.Debug("sse write failed", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeSnapshot(w http.ResponseWriter, snap live.Snapshot) error {
	body := snapshotBody{Data: snap.Data, Loading: snap.Loading}
	if snap.Err != nil {
		body.Error = snap.Err.Error()
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload)
	return err
}
