package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/Aashrithhh/Legal-Assistant/internal/api"
	"github.com/Aashrithhh/Legal-Assistant/internal/domain"
	"github.com/Aashrithhh/Legal-Assistant/internal/service"
	"github.com/go-chi/chi/v5"
)

// maxUploadMemory bounds how much of a multipart body is held in memory
// before spilling to temp files.
const maxUploadMemory int64 = 32 << 20

type DocumentService interface {
	IngestBatch(ctx context.Context, caseID string, files []service.IngestFile) (*service.IngestResult, error)
	ListDocuments(ctx context.Context, caseID string) ([]*domain.Document, error)
	DeleteDocument(ctx context.Context, caseID, documentID string) error
	Status(ctx context.Context, caseID string) (*service.CaseIngestStatus, error)
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type IngestedFileResponse struct {
	DocumentID string `json:"document_id"`
	FileName   string `json:"file_name"`
	SourceType string `json:"source_type"`
	ChunkCount int    `json:"chunk_count"`
}

type FailedFileResponse struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

type UploadResponse struct {
	Ingested []IngestedFileResponse `json:"ingested"`
	Failed   []FailedFileResponse   `json:"failed"`
}

type DocumentResponse struct {
	ID         string `json:"id"`
	CaseID     string `json:"case_id"`
	FileName   string `json:"file_name"`
	SourceType string `json:"source_type"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:         d.ID,
		CaseID:     d.CaseID,
		FileName:   d.FileName,
		SourceType: string(d.SourceType),
		Status:     string(d.Status),
		ChunkCount: d.ChunkCount,
		Error:      d.Error,
		CreatedAt:  d.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Upload ingests a multipart batch under the form field "files". One file's
// failure never fails the request; both outcomes come back in the response.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		api.Error(w, http.StatusBadRequest, "caseID is required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		api.Error(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	files := make([]service.IngestFile, 0, len(headers))
	for _, hdr := range headers {
		f, err := hdr.Open()
		if err != nil {
			api.Error(w, http.StatusBadRequest, "unreadable file part: "+hdr.Filename)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			api.Error(w, http.StatusBadRequest, "unreadable file part: "+hdr.Filename)
			return
		}
		files = append(files, service.IngestFile{
			FileName:    hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	result, err := h.svc.IngestBatch(r.Context(), caseID, files)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := UploadResponse{
		Ingested: make([]IngestedFileResponse, len(result.Ingested)),
		Failed:   make([]FailedFileResponse, len(result.Failed)),
	}
	for i, in := range result.Ingested {
		resp.Ingested[i] = IngestedFileResponse{
			DocumentID: in.DocumentID,
			FileName:   in.FileName,
			SourceType: string(in.SourceType),
			ChunkCount: in.ChunkCount,
		}
	}
	for i, fl := range result.Failed {
		resp.Failed[i] = FailedFileResponse{
			FileName: fl.FileName,
			Error:    fl.Error,
		}
	}

	api.Success(w, http.StatusOK, resp)
}

type DocumentListResponse struct {
	Items []*DocumentResponse `json:"items"`
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		api.Error(w, http.StatusBadRequest, "caseID is required")
		return
	}

	docs, err := h.svc.ListDocuments(r.Context(), caseID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*DocumentResponse, len(docs))
	for i, d := range docs {
		responses[i] = documentToResponse(d)
	}

	api.Success(w, http.StatusOK, DocumentListResponse{Items: responses})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	documentID := chi.URLParam(r, "documentID")
	if caseID == "" || documentID == "" {
		api.Error(w, http.StatusBadRequest, "caseID and documentID are required")
		return
	}

	if err := h.svc.DeleteDocument(r.Context(), caseID, documentID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"id": documentID, "status": "deleted"})
}

type CaseStatusResponse struct {
	Documents     []*DocumentResponse `json:"documents"`
	ChunksReady   int                 `json:"chunks_ready"`
	ChunksPending int                 `json:"chunks_pending"`
	ChunksFailed  int                 `json:"chunks_failed"`
}

func (h *DocumentHandler) Status(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "caseID")
	if caseID == "" {
		api.Error(w, http.StatusBadRequest, "caseID is required")
		return
	}

	status, err := h.svc.Status(r.Context(), caseID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*DocumentResponse, len(status.Documents))
	for i, d := range status.Documents {
		responses[i] = documentToResponse(d)
	}

	api.Success(w, http.StatusOK, CaseStatusResponse{
		Documents:     responses,
		ChunksReady:   status.ChunksReady,
		ChunksPending: status.ChunksPending,
		ChunksFailed:  status.ChunksFailed,
	})
}
