package services

import (
	"errors"
	"fmt"
)

// ValidationError 入力検証エラー。呼び出し側へそのまま返し、副作用は発生させない。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	// ErrModelArtifactCorrupt 保存済みモデルが読めない。再学習はしない。
	ErrModelArtifactCorrupt = errors.New("model artifact is unreadable")
	// ErrFeatureMismatch モデルの列構成がエンコーダーと一致しない
	ErrFeatureMismatch = errors.New("model feature columns do not match encoder")
	// ErrListingNotFound 出品が存在しない
	ErrListingNotFound = errors.New("listing not found")
	// ErrNotOwner 出品者以外による操作
	ErrNotOwner = errors.New("listing belongs to another seller")
)
