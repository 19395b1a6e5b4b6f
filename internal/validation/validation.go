// Package validation は入力構造体の検証とフィールド別メッセージの生成を提供する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/jobprep/internal/model"
)

// Validator はvalidator/v10をラップし、エラーをAPIErrorに変換する。
type Validator struct {
	validate *validator.Validate
}

// New はjsonタグ名でフィールドを報告するValidatorを生成する。
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct は構造体を検証する。
// 検証エラーの場合はフィールド別メッセージ付きのAPIErrorを返す。
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, exists := fields[fe.Field()]; exists {
			continue
		}
		fields[fe.Field()] = message(fe)
	}
	return model.NewValidationError(fields)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必須項目です。"
	case "email":
		return "メールアドレスの形式が正しくありません。"
	case "max":
		return fmt.Sprintf("%s文字以下で入力してください。", fe.Param())
	case "min":
		return fmt.Sprintf("%s文字以上で入力してください。", fe.Param())
	case "oneof":
		return fmt.Sprintf("次のいずれかを指定してください: %s", fe.Param())
	case "url":
		return "URLの形式が正しくありません。"
	default:
		return "入力値が不正です。"
	}
}

// Merge は検証エラーにフィールドメッセージを追加する。
// errがnilの場合は新しい検証エラーを生成する。
func Merge(err error, field, msg string) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeValidationFailed {
		if _, exists := apiErr.Fields[field]; !exists {
			apiErr.Fields[field] = msg
		}
		return apiErr
	}
	if err != nil {
		return err
	}
	return model.NewValidationError(map[string]string{field: msg})
}
