package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/jobprep/internal/permission"
)

// PermissionSummarizer は機能ゲートの判定一覧を返す。
type PermissionSummarizer interface {
	Summary(ctx context.Context, userID string) ([]permission.Decision, error)
}

// PermissionHandler は機能ゲートの状態を返すハンドラー。
// UIはこれを見てアップグレード導線を出す。
type PermissionHandler struct {
	gate PermissionSummarizer
}

// NewPermissionHandler はPermissionHandlerを生成する。
func NewPermissionHandler(gate PermissionSummarizer) *PermissionHandler {
	return &PermissionHandler{gate: gate}
}

// Summary GET /api/permissions
func (h *PermissionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	decisions, err := h.gate.Summary(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"features": decisions,
	})
}
