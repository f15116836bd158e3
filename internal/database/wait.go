package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pinger はDB疎通確認のインターフェース。*sql.DBが満たす。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// WaitConfig は起動時の接続待機の設定。
type WaitConfig struct {
	Attempts       int           // 最大試行回数
	InitialBackoff time.Duration // 初回の待機時間
	MaxBackoff     time.Duration // 待機時間の上限
	PingTimeout    time.Duration // 1回のPingのタイムアウト
}

// DefaultWaitConfig はコンテナ起動直後のDBを待つための既定値を返す。
func DefaultWaitConfig() WaitConfig {
	return WaitConfig{
		Attempts:       6,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		PingTimeout:    3 * time.Second,
	}
}

// Backoff は失敗回数に応じた指数バックオフの待機時間を返す。
// 初回InitialBackoff、2倍ずつ増加、最大MaxBackoff。
func (c WaitConfig) Backoff(failures int) time.Duration {
	delay := c.InitialBackoff
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay > c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	return delay
}

// WaitReady はPingが成功するまで指数バックオフで再試行する。
// ctxがキャンセルされた場合、または試行回数を使い切った場合はエラーを返す。
func WaitReady(ctx context.Context, db Pinger, cfg WaitConfig) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.Attempts-1 {
			break
		}

		delay := cfg.Backoff(attempt)
		slog.Warn("database not ready, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("retry_in", delay),
			slog.String("error", lastErr.Error()),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("database wait cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("database not ready after %d attempts: %w", cfg.Attempts, lastErr)
}
