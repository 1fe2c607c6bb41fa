// Package identity はユーザーIDから表示用メールアドレスを解決する。
package identity

import (
	"context"
	"log/slog"

	"github.com/hitoshi/eventman/internal/repository"
)

// 解決できなかった場合に表示に使うフォールバック文字列。
const (
	// UnknownUser はプロフィールが存在しないユーザーのフォールバック表示。
	UnknownUser = "Unknown user"
	// FetchErrorDisplay は取得自体に失敗した場合のフォールバック表示。
	FetchErrorDisplay = "Error fetching email"
)

// ResolverService はユーザーIDから表示用メールアドレスを解決するインターフェースを定義する。
type ResolverService interface {
	// ResolveDisplayEmail はユーザーIDに対応するメールアドレスを返す。
	// 解決に失敗してもエラーは返さず、フォールバック文字列を返す。
	// イベント詳細画面の作成者表示に使われ、解決失敗が画面全体の
	// エラーにならないようにするため。
	ResolveDisplayEmail(ctx context.Context, userID string) string
}

// resolver はResolverServiceの実装。
type resolver struct {
	userRepo repository.UserRepository
}

// NewResolver はResolverServiceの新しいインスタンスを生成する。
func NewResolver(userRepo repository.UserRepository) *resolver {
	return &resolver{userRepo: userRepo}
}

// インターフェース実装の確認
var _ ResolverService = (*resolver)(nil)

// ResolveDisplayEmail はユーザーIDに対応するメールアドレスを返す。
// プロフィールが見つからない場合は"Unknown user"、
// ストアへのアクセスに失敗した場合は"Error fetching email"を返す。
func (r *resolver) ResolveDisplayEmail(ctx context.Context, userID string) string {
	user, err := r.userRepo.FindByID(ctx, userID)
	if err != nil {
		slog.Warn("failed to resolve creator email",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return FetchErrorDisplay
	}
	if user == nil {
		return UnknownUser
	}
	return user.Email
}
