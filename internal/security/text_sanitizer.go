// Package security はユーザー入力の無害化を提供する。
//
// 求人情報やプロフィールの自由記述はAI向けプロンプトと画面表示の両方に使われるため、
// 保存前にHTMLタグを取り除いてプレーンテキストにする。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はHTMLを含み得る入力をプレーンテキストに変換する。
// bluemondayのポリシーはスレッドセーフなので、1つのインスタンスを共有してよい。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer は全てのタグを除去するTextSanitizerを返す。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean はタグを除去し、前後の空白を詰めた文字列を返す。
// StrictPolicyがエスケープした実体参照は元の文字に戻す（JSONで返すため）。
// script/styleの中身はタグごと捨てる。
func (s *TextSanitizer) Clean(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

// CleanPtr はnilを保ったままCleanを適用する。
func (s *TextSanitizer) CleanPtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	v := s.Clean(*raw)
	return &v
}
