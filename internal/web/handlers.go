package web

import (
	"io"
	"net/http"

	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/protocol"
)

// maxBodyBytes bounds a JSON request body. JSON string escaping can grow the
// CSV text, so the bound is looser than the CSV limit; the service enforces
// the exact one.
func (s *Server) maxBodyBytes() int64 {
	return 2*int64(s.cfg.Processing.MaxInputBytes) + 64<<10
}

// readBody reads the whole request body within maxBodyBytes.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes())
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, bodyError(err)
	}
	return body, nil
}

// handleClean runs a cleaning request.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		respond(w, r, "", err)
		return
	}

	in, err := protocol.DecodeClean(body)
	if err != nil {
		respond(w, r, "", err)
		return
	}

	out, err := s.service.Clean(r.Context(), in.CSVData, in.Request)
	respond(w, r, out, err)
}

// handleAggregate runs an aggregation request.
func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		respond(w, r, "", err)
		return
	}

	in, err := protocol.DecodeAggregate(body)
	if err != nil {
		respond(w, r, "", err)
		return
	}

	out, err := s.service.Aggregate(r.Context(), in.CSVData, in.Request)
	respond(w, r, out, err)
}

// handleInfo profiles the posted table.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		respond(w, r, "", err)
		return
	}

	csvData, err := protocol.DecodeDescribe(body)
	if err != nil {
		respond(w, r, "", err)
		return
	}

	out, err := s.service.Describe(r.Context(), csvData)
	respond(w, r, out, err)
}

// handleMethods lists what the API accepts.
func (s *Server) handleMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"clean":      core.Methods(),
		"aggregate":  []core.AggregateMethod{core.AggregateSum, core.AggregateMean, core.AggregateBoth},
		"operations": uploadOperations,
	})
}

// handleHealth reports liveness and limiter occupancy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"limiter": s.service.LimiterStatus(),
	})
}
