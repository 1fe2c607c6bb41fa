package security

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ImageProberService は画像URLの到達性確認のインターフェースを定義する。
// イベント作成時、URLの静的検証を通過した画像が実際に取得可能かを
// HEADリクエストで確認する。
type ImageProberService interface {
	ProbeImageURL(ctx context.Context, rawURL string) error
}

// imageProber はImageProberServiceの実装。
// SSRF防止機能付きクライアントでプローブするため、DNS解決後に
// プライベートIPへ向くURLも接続段階でブロックされる。
type imageProber struct {
	client          *http.Client
	maxResponseSize int64
}

// NewImageProber はImageProberServiceの新しいインスタンスを生成する。
func NewImageProber(guard ImageURLGuardService, timeout time.Duration, maxResponseSize int64) *imageProber {
	return &imageProber{
		client:          guard.NewSafeClient(timeout, maxResponseSize),
		maxResponseSize: maxResponseSize,
	}
}

// ProbeImageURL は画像URLにHEADリクエストを送り、到達性を確認する。
// 4xx/5xx応答、接続失敗、サイズ超過はエラーとして返す。
func (p *imageProber) ProbeImageURL(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("invalid image URL: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("image URL unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	if resp.ContentLength > p.maxResponseSize {
		return fmt.Errorf("image too large: %d bytes (max %d)", resp.ContentLength, p.maxResponseSize)
	}

	return nil
}

var _ ImageProberService = (*imageProber)(nil)
