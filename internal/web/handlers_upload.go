package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/protocol"
)

// Upload operations, named the way the form field spells them.
const (
	opInfo      = "info"
	opClean     = "clean"
	opAggregate = "vis_data"
)

var uploadOperations = []string{opInfo, opClean, opAggregate}

// multipartMemory is how much of a form is held in memory before spilling
// to disk.
const multipartMemory = 32 << 20

// handleUpload runs an operation on an uploaded CSV file.
//
// Form fields:
//   - file: the CSV file, which must have a .csv extension
//   - operation: info, clean or vis_data
//   - options: JSON object with the operation's request fields (optional)
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respond(w, r, "", bodyError(err))
			return
		}
		respond(w, r, "", core.NewErrorDetails(core.ErrInvalidReq, "Invalid multipart form", err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil || header.Size == 0 {
		if file != nil {
			file.Close()
		}
		respond(w, r, "", core.NewErrorDetails(core.ErrInvalidReq,
			"No file provided", "The request must include a file"))
		return
	}
	defer file.Close()

	operation := r.FormValue("operation")
	if operation == "" {
		respond(w, r, "", core.NewErrorDetails(core.ErrInvalidReq,
			"No operation specified", "The request must include an operation type"))
		return
	}

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		respond(w, r, "", core.NewErrorDetails(core.ErrInvalidFile,
			"Invalid file extension", "Supported extensions: .csv"))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		respond(w, r, "", bodyError(err))
		return
	}

	out, err := s.runUpload(r, operation, string(content), r.FormValue("options"))
	respond(w, r, out, err)
}

// runUpload dispatches an upload to the service.
func (s *Server) runUpload(r *http.Request, operation, csvData, options string) (string, error) {
	switch operation {
	case opInfo:
		return s.service.Describe(r.Context(), csvData)

	case opClean:
		body, err := uploadRequest(csvData, options)
		if err != nil {
			return "", err
		}
		in, err := protocol.DecodeClean(body)
		if err != nil {
			return "", optionsError(err)
		}
		return s.service.Clean(r.Context(), in.CSVData, in.Request)

	case opAggregate:
		body, err := uploadRequest(csvData, options)
		if err != nil {
			return "", err
		}
		in, err := protocol.DecodeAggregate(body)
		if err != nil {
			return "", optionsError(err)
		}
		return s.service.Aggregate(r.Context(), in.CSVData, in.Request)

	default:
		return "", core.NewErrorDetails(core.ErrInvalidOperation,
			"Unknown operation", fmt.Sprintf("Operation: %s", operation))
	}
}

// uploadRequest merges the file content into the options object, producing
// the same JSON request the other endpoints accept.
func uploadRequest(csvData, options string) ([]byte, error) {
	if strings.TrimSpace(options) == "" {
		options = "{}"
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(options), &fields); err != nil {
		return nil, core.NewErrorDetails(core.ErrInvalidOption, "Invalid JSON format or options", err.Error())
	}
	if fields == nil {
		return nil, core.NewErrorDetails(core.ErrInvalidOption, "Invalid JSON format or options",
			"options must be a JSON object")
	}

	data, err := json.Marshal(csvData)
	if err != nil {
		return nil, core.NewErrorDetails(core.ErrInvalidOption, "Invalid JSON format or options", err.Error())
	}
	fields["csv_data"] = data

	return json.Marshal(fields)
}

// optionsError reports malformed option fields as INVALID_JSON_OR_OPTIONS.
// Other decoding failures, such as an empty file, keep their type.
func optionsError(err error) error {
	var e *core.Error
	if !errors.As(err, &e) || e.Type != core.ErrJSONParse {
		return err
	}
	details := e.DetailText()
	if details == "" {
		details = e.Message
	}
	return core.NewErrorDetails(core.ErrInvalidOption, "Invalid JSON format or options", details)
}
