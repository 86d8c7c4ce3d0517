package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dvloznov/statement-analyzer/internal/api/middleware"
	"github.com/dvloznov/statement-analyzer/internal/domain"
	"github.com/dvloznov/statement-analyzer/internal/filestore"
	"github.com/dvloznov/statement-analyzer/internal/logger"
	"github.com/dvloznov/statement-analyzer/internal/pipeline"
	"github.com/dvloznov/statement-analyzer/internal/sources"
	"github.com/rs/zerolog"
)

// Banner is the plain-text body of GET /.
const Banner = "Personal Finance Analyzer API is running."

// Analyzer runs the statement pipeline on a stored file.
type Analyzer interface {
	AnalyzeFile(ctx context.Context, path string, kind sources.Kind) (*pipeline.Report, error)
}

// FileStore keeps uploads on disk while they are analyzed.
type FileStore interface {
	Save(filename string, r io.Reader) (string, sources.Kind, error)
	Remove(path string) error
}

// AnalysisResponse is the success payload of an analysis, shared by the
// synchronous endpoint and completed jobs.
type AnalysisResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*pipeline.Report
}

// NewAnalysisResponse wraps a report with the success flag and message.
func NewAnalysisResponse(report *pipeline.Report) AnalysisResponse {
	return AnalysisResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully analyzed %d transactions", report.Count),
		Report:  report,
	}
}

// AnalyzeHandler serves the synchronous upload-and-analyze endpoint.
type AnalyzeHandler struct {
	analyzer Analyzer
	files    FileStore
	log      zerolog.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(analyzer Analyzer, files FileStore, log zerolog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer: analyzer,
		files:    files,
		log:      log,
	}
}

// UploadAndAnalyze handles POST /api/upload-and-analyze
func (h *AnalyzeHandler) UploadAndAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	upload, ok := receiveUpload(w, r, h.files, h.log)
	if !ok {
		return
	}
	defer removeUpload(ctx, h.files, upload.path)

	report, err := h.analyzer.AnalyzeFile(ctx, upload.path, upload.kind)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("filename", upload.filename).Msg("Analysis failed")
		middleware.WriteError(w, errorStatus(err), pipeline.ErrorMessage(err))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, NewAnalysisResponse(report))
}

// Health handles GET /api/health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Index handles GET /
func Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, Banner)
}

type upload struct {
	filename string
	path     string
	kind     sources.Kind
}

// receiveUpload validates the multipart "file" field and stores it. On
// failure it writes the error response itself and returns false.
func receiveUpload(w http.ResponseWriter, r *http.Request, files FileStore, log zerolog.Logger) (upload, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "File too large")
		case errors.Is(err, http.ErrMissingFile) && hasEmptyFileField(r.MultipartForm):
			middleware.WriteError(w, http.StatusBadRequest, "No file selected")
		default:
			middleware.WriteError(w, http.StatusBadRequest, "No file provided")
		}
		return upload{}, false
	}
	defer file.Close()

	if strings.TrimSpace(header.Filename) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "No file selected")
		return upload{}, false
	}
	if !filestore.Allowed(header.Filename) {
		middleware.WriteError(w, http.StatusBadRequest, "File type not allowed. Supported: "+sources.SupportedList())
		return upload{}, false
	}

	path, kind, err := files.Save(header.Filename, file)
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to store upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store uploaded file")
		return upload{}, false
	}

	return upload{filename: header.Filename, path: path, kind: kind}, true
}

// hasEmptyFileField reports whether the form carried a "file" part without
// a filename. The multipart reader files such parts under Value.
func hasEmptyFileField(form *multipart.Form) bool {
	if form == nil {
		return false
	}
	_, ok := form.Value["file"]
	return ok
}

func removeUpload(ctx context.Context, files FileStore, path string) {
	if err := files.Remove(path); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("path", path).Msg("Failed to remove upload")
	}
}

// errorStatus maps analysis failures onto HTTP codes. Only the code differs;
// the body is always a single error message.
func errorStatus(err error) int {
	if domain.KindOf(err) != "" {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
