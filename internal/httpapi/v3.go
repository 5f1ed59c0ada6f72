package httpapi

import (
	"encoding/json"
	"net/http"
)

// v3Request is the JSON body accepted by POST /v3/{pbx_name}.
type v3Request struct {
	Termtype string            `json:"termtype"`
	Command  string            `json:"command"`
	Fields   map[string]string `json:"fields,omitempty"`
	Debug    bool              `json:"debug,omitempty"`
}

// handleV3 decodes a JSON command request, runs it against the shared
// Terminal, and writes back the JSON OssiResponse/Vt220Response.
func (s *Server) handleV3(w http.ResponseWriter, r *http.Request) {
	pbxName := r.PathValue("pbx_name")
	if pbxName != s.PBXName {
		http.Error(w, "wrong pbx", http.StatusInternalServerError)
		return
	}

	var req v3Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if req.Termtype == "" || req.Command == "" {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	resp, err := s.Terminal.SendPBXCommand(req.Termtype, req.Command, req.Fields, req.Debug)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors are surfaced as partial writes at the connection level; there
	// is no further action this handler can take once headers are sent.
	_ = json.NewEncoder(w).Encode(v)
}
