// Package httpapi wires the pbxterm Terminal Driver to an HTTP server
// exposing the v2 (XML) and v3 (JSON) command endpoints plus health checks,
// matching spec.md §6's "HTTP API". Routing follows the teacher's
// otelserver.New: a plain net/http.ServeMux and http.Server, no router
// framework — nothing in the retrieved corpus pulls in one.
package httpapi

import (
	"context"
	"net/http"

	"github.com/uw-it-ist/pbxd/internal/pbxterm"
)

// Server holds the shared Terminal and the identity/routing configuration
// needed to answer requests.
type Server struct {
	Terminal        *pbxterm.Terminal
	PBXName         string
	ApplicationRoot string

	httpServer *http.Server
}

// NewServeMux builds the route table. Exported separately from Server so
// callers (tests, or a caller wanting to compose additional middleware) can
// mount it without going through ListenAndServe.
func (s *Server) NewServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	prefix := s.ApplicationRoot

	mux.HandleFunc("GET "+prefix+"/ready", s.handleReady)
	mux.HandleFunc("GET "+prefix+"/healthz", s.handleHealthz)
	mux.HandleFunc("POST "+prefix+"/v3/{pbx_name}", s.handleV3)
	mux.HandleFunc("POST "+prefix+"/v2/{pbx_name}", s.handleV2)
	return mux
}

// ListenAndServe starts the HTTP server on addr and blocks until it stops.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.NewServeMux()}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleReady reports that this worker is ready to handle requests.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// handleHealthz issues a liveness-probe OSSI command against the live
// Terminal: "display time" limited to field 0007ff00.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp, err := s.Terminal.SendPBXCommand("ossi", "display time", map[string]string{"0007ff00": ""}, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
