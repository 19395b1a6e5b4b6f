package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string            // エラーコード
	Message  string            // エラーメッセージ
	Category string            // カテゴリ: auth, validation, plan, resource, system
	Action   string            // ユーザー向け対処方法
	Fields   map[string]string // 入力検証エラーのフィールド別メッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeAccountExists      = "ACCOUNT_EXISTS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodePlanLimitReached   = "PLAN_LIMIT_REACHED"
	ErrCodeJobInfoNotFound    = "JOB_INFO_NOT_FOUND"
	ErrCodeInterviewNotFound  = "INTERVIEW_NOT_FOUND"
	ErrCodeQuestionNotFound   = "QUESTION_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeInvalidPlan        = "INVALID_PLAN"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeCSRFInvalid        = "CSRF_TOKEN_INVALID"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
// fieldsにはフィールド名ごとのメッセージを渡す。
func NewValidationError(fields map[string]string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  "入力内容に誤りがあります。",
		Category: "validation",
		Action:   "各項目のメッセージを確認して入力し直してください。",
		Fields:   fields,
	}
}

// NewAccountExistsError は同一メールアドレスのアカウントが既に存在する場合のエラーを生成する。
func NewAccountExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountExists,
		Message:  "このメールアドレスのアカウントは既に存在します。",
		Category: "auth",
		Action:   "ログインするか、別のメールアドレスで登録してください。",
	}
}

// NewInvalidCredentialsError はメールアドレスまたはパスワードが一致しない場合のエラーを生成する。
// どちらが誤っているかは明かさない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewPlanLimitError はプランの利用上限に達した場合のエラーを生成する。
func NewPlanLimitError(feature string) *APIError {
	return &APIError{
		Code:     ErrCodePlanLimitReached,
		Message:  fmt.Sprintf("現在のプランでは%sの上限に達しています。", feature),
		Category: "plan",
		Action:   "プランをアップグレードしてください。",
	}
}

// NewJobInfoNotFoundError は求人情報が見つからない場合のエラーを生成する。
// 他ユーザー所有の場合も同じエラーを返す。
func NewJobInfoNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeJobInfoNotFound,
		Message:  fmt.Sprintf("指定された求人情報が見つかりません: %s", id),
		Category: "resource",
		Action:   "求人情報IDを確認してください。",
	}
}

// NewInterviewNotFoundError は面接が見つからない場合のエラーを生成する。
func NewInterviewNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeInterviewNotFound,
		Message:  fmt.Sprintf("指定された面接が見つかりません: %s", id),
		Category: "resource",
		Action:   "面接IDを確認してください。",
	}
}

// NewQuestionNotFoundError は質問が見つからない場合のエラーを生成する。
func NewQuestionNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeQuestionNotFound,
		Message:  fmt.Sprintf("指定された質問が見つかりません: %s", id),
		Category: "resource",
		Action:   "質問IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidPlanError は未定義のプランが指定された場合のエラーを生成する。
func NewInvalidPlanError(plan string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPlan,
		Message:  fmt.Sprintf("無効なプランです: %s", plan),
		Category: "validation",
		Action:   "プランには free または pro を指定してください。",
	}
}

// NewRateLimitedError はリクエスト数の上限を超えた場合のエラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewCSRFError はCSRFトークンの検証に失敗した場合のエラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
