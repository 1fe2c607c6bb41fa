// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, event, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmailRegistered    = "EMAIL_ALREADY_REGISTERED"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeEventNotFound      = "EVENT_NOT_FOUND"
	ErrCodePermissionDenied   = "PERMISSION_DENIED"
	ErrCodeStoreUnavailable   = "STORE_UNAVAILABLE"
	ErrCodeInvalidImageURL    = "INVALID_IMAGE_URL"
)

// NewUnauthenticatedError は未認証エラーを生成する。
// アクティブなセッションなしに認証必須の操作が呼ばれた場合に返す。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// 存在しないメールアドレスとパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewEmailRegisteredError はメールアドレス重複エラーを生成する。
func NewEmailRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailRegistered,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
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

// NewValidationError は入力検証エラーを生成する。
// リモート呼び出しの前に拒否され、自動リトライの対象にならない。
func NewValidationError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力が不正です: %s", field),
		Category: "validation",
		Action:   "必須項目をすべて入力してください。",
	}
}

// NewEventNotFoundError はイベント未検出エラーを生成する。
// 削除操作では他クライアントとの競合による良性の結果として扱われる。
func NewEventNotFoundError(eventID string) *APIError {
	return &APIError{
		Code:     ErrCodeEventNotFound,
		Message:  fmt.Sprintf("指定されたイベントが見つかりません: %s", eventID),
		Category: "event",
		Action:   "イベント一覧を再読み込みしてください。",
	}
}

// NewPermissionDeniedError は権限エラーを生成する。
// 認証済みだがリソースの作成者でない場合に返す。
func NewPermissionDeniedError() *APIError {
	return &APIError{
		Code:     ErrCodePermissionDenied,
		Message:  "このイベントをキャンセルする権限がありません。",
		Category: "event",
		Action:   "イベントの作成者のみがキャンセルできます。",
	}
}

// NewStoreUnavailableError はストア接続エラーを生成する。
// 呼び出し元でのユーザー操作による再試行を想定し、自動リトライは行わない。
func NewStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  "データストアに接続できませんでした。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidImageURLError は画像URL検証エラーを生成する。
func NewInvalidImageURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidImageURL,
		Message:  fmt.Sprintf("無効な画像URLです: %s", reason),
		Category: "validation",
		Action:   "公開されている https:// の画像URLを入力してください。",
	}
}
