package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/jobprep/internal/model"
	"github.com/hitoshi/jobprep/internal/question"
)

// QuestionServiceInterface は質問ハンドラーが必要とするサービスインターフェース。
type QuestionServiceInterface interface {
	Create(ctx context.Context, userID, jobInfoID string, in question.CreateInput) (*model.Question, error)
	Get(ctx context.Context, userID, id string) (*model.Question, error)
	List(ctx context.Context, userID, jobInfoID string) ([]*model.Question, error)
}

// QuestionHandler は技術質問のHTTPハンドラー。
type QuestionHandler struct {
	service QuestionServiceInterface
}

// NewQuestionHandler はQuestionHandlerを生成する。
func NewQuestionHandler(service QuestionServiceInterface) *QuestionHandler {
	return &QuestionHandler{service: service}
}

// List は求人に紐づく質問一覧を返す。
// GET /api/job-infos/{id}/questions
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	questions, err := h.service.List(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		resp = append(resp, toQuestionResponse(q))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create は質問を保存する。プランの上限に達している場合は403。
// POST /api/job-infos/{id}/questions
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var in question.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}

	q, err := h.service.Create(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toQuestionResponse(q))
}

// Get は質問の詳細を返す。
// GET /api/questions/{id}
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toQuestionResponse(q))
}
