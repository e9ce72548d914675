package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/document-ai-agent/internal/core/domain"
	"github.com/kirillkom/document-ai-agent/internal/core/ports"
)

const (
	serviceName      = "docai-api"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	multipartMemory  = 8 << 20
	defaultMaxUpload = 20 << 20
	backpressureWait = 250 * time.Millisecond
)

// Recorder receives API level metrics. *metrics.HTTPServerMetrics implements it.
type Recorder interface {
	Middleware(service string, next http.Handler) http.Handler
	Handler() http.Handler
	RecordSessionEvent(service, event string)
	RecordJobSubmitted(service string, err error)
	RecordRejected(service, reason string)
	ObserveUpload(service string, size int)
}

type Options struct {
	APIKey          string
	RateLimitRPS    int
	RateLimitBurst  int
	MaxInFlight     int
	MaxUploadBytes  int64
	ValidateRequest bool
	Logger          *slog.Logger
	Metrics         Recorder
}

type Router struct {
	pipeline ports.SessionPipeline
	jobs     ports.JobSubmitter
	ocr      ports.TextExtractor
	exporter ports.ReportExporter
	opts     Options
	logger   *slog.Logger
}

// NewRouter wires the session API. jobs and exporter may be nil, which
// disables /v1/jobs and XLSX reports.
func NewRouter(
	pipeline ports.SessionPipeline,
	jobs ports.JobSubmitter,
	ocr ports.TextExtractor,
	exporter ports.ReportExporter,
	opts Options,
) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		pipeline: pipeline,
		jobs:     jobs,
		ocr:      ocr,
		exporter: exporter,
		opts:     opts,
		logger:   logger,
	}
}

func (rt *Router) Handler() (http.Handler, error) {
	api := http.NewServeMux()
	api.HandleFunc("GET /v1/ocr/engines", rt.listEngines)
	api.HandleFunc("POST /v1/sessions", rt.startSession)
	api.HandleFunc("GET /v1/sessions/{id}", rt.getSession)
	api.HandleFunc("DELETE /v1/sessions/{id}", rt.resetSession)
	api.HandleFunc("POST /v1/sessions/{id}/classify", rt.proposeFields)
	api.HandleFunc("POST /v1/sessions/{id}/confirm", rt.confirmFields)
	api.HandleFunc("POST /v1/sessions/{id}/review", rt.review)
	api.HandleFunc("GET /v1/sessions/{id}/download", rt.download)
	api.HandleFunc("GET /v1/sessions/{id}/report", rt.report)
	api.HandleFunc("POST /v1/jobs", rt.submitJob)

	var apiHandler http.Handler = api
	if rt.opts.ValidateRequest {
		validator, err := newRequestValidator()
		if err != nil {
			return nil, err
		}
		apiHandler = validator.middleware(apiHandler)
	}
	apiHandler = backpressureWithHook(apiHandler, rt.opts.MaxInFlight, backpressureWait, rt.onReject)
	apiHandler = rateLimitMiddleware(apiHandler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst, rt.onReject)
	apiHandler = authMiddleware(apiHandler, rt.opts.APIKey)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", rt.healthz)
	if rt.opts.Metrics != nil {
		root.Handle("GET /metrics", rt.opts.Metrics.Handler())
	}
	root.Handle("/", apiHandler)

	var handler http.Handler = root
	handler = recoverMiddleware(handler, rt.logger)
	handler = accessLogMiddleware(handler, rt.logger)
	handler = requestIDMiddleware(handler)
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(serviceName, handler)
	}
	return handler, nil
}

func (rt *Router) onReject(reason string) {
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordRejected(serviceName, reason)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listEngines(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"engines": rt.ocr.Engines(),
		"default": rt.ocr.DefaultEngine(),
	})
}

func (rt *Router) startSession(w http.ResponseWriter, r *http.Request) {
	upload, err := rt.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	session, err := rt.pipeline.Start(r.Context(), upload.filename, upload.mimeType, upload.body, r.FormValue("engine"))
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordSessionEvent(serviceName, "started")
	}
	w.Header().Set("Location", "/v1/sessions/"+session.ID)
	writeJSON(w, http.StatusCreated, session)
}

func (rt *Router) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := rt.pipeline.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (rt *Router) resetSession(w http.ResponseWriter, r *http.Request) {
	if err := rt.pipeline.Reset(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordSessionEvent(serviceName, "reset")
	}
	w.WriteHeader(http.StatusNoContent)
}

type fieldsRequest struct {
	Fields []string `json:"fields"`
}

func (rt *Router) proposeFields(w http.ResponseWriter, r *http.Request) {
	var req fieldsRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := rt.pipeline.ProposeFields(r.Context(), r.PathValue("id"), req.Fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) confirmFields(w http.ResponseWriter, r *http.Request) {
	var req fieldsRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := rt.pipeline.ConfirmFields(r.Context(), r.PathValue("id"), req.Fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"extraction": result, "outcome": result.Outcome})
}

func (rt *Router) review(w http.ResponseWriter, r *http.Request) {
	result, err := rt.pipeline.Review(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"review": result, "outcome": result.Outcome, "counts": result.Counts()})
}

func (rt *Router) download(w http.ResponseWriter, r *http.Request) {
	name, body, err := rt.pipeline.Download(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeAttachment(w, "application/json", name, body)
}

func (rt *Router) report(w http.ResponseWriter, r *http.Request) {
	report, err := rt.pipeline.Report(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	switch format := strings.ToLower(r.URL.Query().Get("format")); format {
	case "", "json":
		writeJSON(w, http.StatusOK, report)
	case "xlsx":
		if rt.exporter == nil {
			writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "xlsx export is not configured"})
			return
		}
		body, err := rt.exporter.Export(report)
		if err != nil {
			writeError(w, fmt.Errorf("export report: %w", err))
			return
		}
		writeAttachment(w, xlsxContentType, reportName(report.Filename, ".xlsx"), body)
	default:
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "report", fmt.Errorf("unsupported format %q", format)))
	}
}

func (rt *Router) submitJob(w http.ResponseWriter, r *http.Request) {
	if rt.jobs == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "batch jobs are not configured"})
		return
	}
	upload, err := rt.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	review := true
	if v := strings.TrimSpace(r.FormValue("review")); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, domain.WrapError(domain.ErrInvalidInput, "submit job", fmt.Errorf("review must be a boolean")))
			return
		}
		review = parsed
	}

	job, err := rt.jobs.Submit(r.Context(), upload.filename, upload.body, r.FormValue("engine"), splitFields(r.FormValue("fields")), review)
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.RecordJobSubmitted(serviceName, err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

type uploadedFile struct {
	filename string
	mimeType string
	body     []byte
}

func (rt *Router) readUpload(w http.ResponseWriter, r *http.Request) (uploadedFile, error) {
	const op = "read upload"
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return uploadedFile{}, err
		}
		return uploadedFile{}, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("multipart field 'file' is required"))
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return uploadedFile{}, domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("multipart field 'file' is required"))
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		return uploadedFile{}, fmt.Errorf("%s: %w", op, err)
	}
	if rt.opts.Metrics != nil {
		rt.opts.Metrics.ObserveUpload(serviceName, len(body))
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(body)
	}
	return uploadedFile{filename: header.Filename, mimeType: mimeType, body: body}, nil
}

// decodeOptionalJSON accepts an empty body as the zero value.
func decodeOptionalJSON(r *http.Request, out any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.WrapError(domain.ErrInvalidInput, "decode request", err)
	}
	return nil
}

// splitFields reads a JSON array or a comma-separated list.
func splitFields(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var fields []string
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &fields) == nil {
		return fields
	}
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func reportName(filename, ext string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." {
		return "report" + ext
	}
	return base + "_report" + ext
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
