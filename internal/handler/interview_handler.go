package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/jobprep/internal/interview"
	"github.com/hitoshi/jobprep/internal/model"
)

// InterviewServiceInterface は面接ハンドラーが必要とするサービスインターフェース。
type InterviewServiceInterface interface {
	Create(ctx context.Context, userID, jobInfoID string) (*model.Interview, error)
	Get(ctx context.Context, userID, id string) (*model.Interview, error)
	List(ctx context.Context, userID, jobInfoID string) ([]*model.Interview, error)
	Update(ctx context.Context, userID, id string, in interview.UpdateInput) (*model.Interview, error)
}

// InterviewHandler は模擬面接のHTTPハンドラー。
type InterviewHandler struct {
	service InterviewServiceInterface
}

// NewInterviewHandler はInterviewHandlerを生成する。
func NewInterviewHandler(service InterviewServiceInterface) *InterviewHandler {
	return &InterviewHandler{service: service}
}

// List は求人に紐づく面接一覧を返す。
// GET /api/job-infos/{id}/interviews
func (h *InterviewHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	interviews, err := h.service.List(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]interviewResponse, 0, len(interviews))
	for _, i := range interviews {
		resp = append(resp, toInterviewResponse(i))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create は面接を開始する。プランの上限に達している場合は403。
// POST /api/job-infos/{id}/interviews
func (h *InterviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	iv, err := h.service.Create(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toInterviewResponse(iv))
}

// Get は面接の詳細を返す。
// GET /api/interviews/{id}
func (h *InterviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	iv, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toInterviewResponse(iv))
}

// Update は会話IDや所要時間、フィードバックを記録する。
// PATCH /api/interviews/{id}
func (h *InterviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in interview.UpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	iv, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toInterviewResponse(iv))
}
