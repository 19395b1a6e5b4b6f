package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/jobprep/internal/jobinfo"
	"github.com/hitoshi/jobprep/internal/model"
)

// JobInfoServiceInterface は求人情報ハンドラーが必要とするサービスインターフェース。
type JobInfoServiceInterface interface {
	Get(ctx context.Context, userID, id string) (*model.JobInfo, error)
	List(ctx context.Context, userID string) ([]*model.JobInfo, error)
	Create(ctx context.Context, userID string, in jobinfo.CreateInput) (*model.JobInfo, error)
	Update(ctx context.Context, userID, id string, in jobinfo.UpdateInput) (*model.JobInfo, error)
	Delete(ctx context.Context, userID, id string) error
}

// JobInfoHandler は求人情報のHTTPハンドラー。
type JobInfoHandler struct {
	service JobInfoServiceInterface
}

// NewJobInfoHandler はJobInfoHandlerを生成する。
func NewJobInfoHandler(service JobInfoServiceInterface) *JobInfoHandler {
	return &JobInfoHandler{service: service}
}

// List はログインユーザーの求人情報一覧を返す。
// GET /api/job-infos
func (h *JobInfoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	infos, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]jobInfoResponse, 0, len(infos))
	for _, j := range infos {
		resp = append(resp, toJobInfoResponse(j))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create は求人情報を登録する。
// POST /api/job-infos
func (h *JobInfoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in jobinfo.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	info, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toJobInfoResponse(info))
}

// Get は求人情報の詳細を返す。
// GET /api/job-infos/{id}
func (h *JobInfoHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	info, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobInfoResponse(info))
}

// Update は求人情報を部分更新する。
// PATCH /api/job-infos/{id}
func (h *JobInfoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in jobinfo.UpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	info, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobInfoResponse(info))
}

// Delete は求人情報と配下の面接・質問を削除する。
// DELETE /api/job-infos/{id}
func (h *JobInfoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
