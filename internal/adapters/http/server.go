package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shivamverma1605/image-processor-service/internal/domain"
	"github.com/shivamverma1605/image-processor-service/internal/ports"
)

type Server struct {
	ingestor ports.Ingestor
}

func New(ingestor ports.Ingestor) *Server {
	return &Server{ingestor: ingestor}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Post("/upload", s.handleUpload)
	r.Get("/status/{jobID}", s.handleStatus)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload accepts the CSV either as a multipart "file" field or as the
// raw request body, and answers 202 with the job id before processing runs.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	csvReader := r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "no file uploaded")
			return
		}
		defer file.Close()
		csvReader = file
	}

	jobID, err := s.ingestor.Submit(r.Context(), csvReader)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("submit", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
}

type productStatus struct {
	ProductName     string   `json:"productName"`
	InputImageURLs  []string `json:"inputImageUrls"`
	OutputImageURLs []string `json:"outputImageUrls"`
	ProcessingError string   `json:"processingError,omitempty"`
}

type statusResponse struct {
	Status   domain.JobStatus `json:"status"`
	Products []productStatus  `json:"products"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, items, err := s.ingestor.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		slog.Error("status", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := statusResponse{Status: job.Status, Products: make([]productStatus, 0, len(items))}
	for _, it := range items {
		outputs := it.OutputImageURLs
		if outputs == nil {
			outputs = []string{}
		}
		resp.Products = append(resp.Products, productStatus{
			ProductName:     it.ProductName,
			InputImageURLs:  it.InputImageURLs,
			OutputImageURLs: outputs,
			ProcessingError: it.ProcessingError,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
