package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kwv/roomwalk/room"
)

const maxBodyBytes = 1 << 20

// newHTTPServer creates the HTTP router with all endpoints
func newHTTPServer(app *App) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		log.Printf("[HTTP] /health request from %s", req.RemoteAddr)
		status := struct {
			Status        string    `json:"status"`
			Timestamp     time.Time `json:"timestamp"`
			HasSessions   bool      `json:"hasSessions"`
			MQTTConnected bool      `json:"mqttConnected"`
		}{
			Status:        "ok",
			Timestamp:     time.Now(),
			HasSessions:   app.Tracker.HasSessions(),
			MQTTConnected: app.MQTT != nil && app.MQTT.IsConnected(),
		}
		writeJSON(w, http.StatusOK, status)
	}).Methods(http.MethodGet)

	r.HandleFunc("/sessions", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, app.Tracker.Summaries())
	}).Methods(http.MethodGet)

	r.HandleFunc("/sessions/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		summary, err := app.Tracker.Summary(id)
		if err != nil {
			writeError(w, err)
			return
		}
		state, err := app.Tracker.State(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			room.SessionSummary
			State room.BuilderState `json:"state"`
		}{summary, state})
	}).Methods(http.MethodGet)

	r.HandleFunc("/sessions/{id}/measurement", func(w http.ResponseWriter, req *http.Request) {
		m, err := app.Tracker.Measure(mux.Vars(req)["id"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}).Methods(http.MethodGet)

	r.HandleFunc("/sessions/{id}/outline.geojson", func(w http.ResponseWriter, req *http.Request) {
		fc, err := app.Tracker.Outline(mux.Vars(req)["id"])
		if err != nil {
			writeError(w, err)
			return
		}
		data, err := fc.MarshalJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(data)
	}).Methods(http.MethodGet)

	r.HandleFunc("/devices/{device}/surfaces", func(w http.ResponseWriter, req *http.Request) {
		device, ok := deviceVar(app, w, req)
		if !ok {
			return
		}
		body, ok := readBody(w, req)
		if !ok {
			return
		}
		surfaces, err := room.DecodeSurfaces(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, app.Tracker.UpdateSurfaces(device, surfaces))
	}).Methods(http.MethodPut)

	r.HandleFunc("/devices/{device}/samples", func(w http.ResponseWriter, req *http.Request) {
		device, ok := deviceVar(app, w, req)
		if !ok {
			return
		}
		body, ok := readBody(w, req)
		if !ok {
			return
		}
		sample, err := room.DecodeSample(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		snap := app.Tracker.RecordSample(device, sample)
		if snap == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}).Methods(http.MethodPost)

	r.HandleFunc("/devices/{device}/commands", func(w http.ResponseWriter, req *http.Request) {
		device, ok := deviceVar(app, w, req)
		if !ok {
			return
		}
		body, ok := readBody(w, req)
		if !ok {
			return
		}
		cmd, err := room.DecodeCommand(app.Validator, body)
		if err != nil {
			writeError(w, err)
			return
		}
		state, err := app.HandleCommand(device, cmd)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}).Methods(http.MethodPost)

	// last measurement sent over MQTT, which survives a reset of the session
	r.HandleFunc("/devices/{device}/measurement", func(w http.ResponseWriter, req *http.Request) {
		device, ok := deviceVar(app, w, req)
		if !ok {
			return
		}
		if app.Publisher == nil {
			http.Error(w, "MQTT publishing is not enabled", http.StatusNotFound)
			return
		}
		m, ok := app.Publisher.GetMeasurement(device)
		if !ok {
			http.Error(w, "no measurement published for "+device, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}).Methods(http.MethodGet)

	return r
}

// deviceVar returns the {device} path variable, answering 404 for devices
// missing from the configured device list.
func deviceVar(app *App, w http.ResponseWriter, req *http.Request) (string, bool) {
	device := mux.Vars(req)["device"]
	if !app.knownDevice(device) {
		http.Error(w, "unknown device "+device, http.StatusNotFound)
		return "", false
	}
	return device, true
}

func readBody(w http.ResponseWriter, req *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, room.ErrSessionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, room.ErrInvalidCommand):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
