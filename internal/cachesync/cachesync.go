// Package cachesync はプロセス間でキャッシュの無効化イベントを伝える。
//
// 変更を確定させたプロセスはPostgreSQLのNOTIFYでイベントを送り、
// 他のプロセスはLISTENで受け取って自分のTagCacheに反映する。
// 運用コマンドでの変更がサーバーのキャッシュに残り続けないようにするためのもの。
package cachesync

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/jobprep/internal/cache"
)

// Channel は無効化イベントを流すNOTIFYチャネル名。
const Channel = "jobprep_cache_invalidation"

// message はNOTIFYのペイロード。
type message struct {
	// Origin は送信元プロセスの識別子。自分が送ったイベントは無視する。
	Origin   string `json:"origin"`
	Resource string `json:"resource"`
	ID       string `json:"id,omitempty"`
	OwnerID  string `json:"ownerId,omitempty"`
}

// Execer はNOTIFYを発行するDB接続。*sql.DBが満たす。
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Notifier は無効化イベントを他プロセスへ送るcache.Publisher。
type Notifier struct {
	db     Execer
	origin string
}

// NewNotifier はNotifierを生成する。originはプロセスごとに一意な値を渡す。
func NewNotifier(db Execer, origin string) *Notifier {
	return &Notifier{db: db, origin: origin}
}

// Notify はイベントを送る。
func (n *Notifier) Notify(ctx context.Context, ev cache.ResourceChanged) error {
	payload, err := json.Marshal(message{
		Origin:   n.origin,
		Resource: string(ev.Resource),
		ID:       ev.ID,
		OwnerID:  ev.OwnerID,
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache event: %w", err)
	}
	if _, err := n.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, Channel, string(payload)); err != nil {
		return fmt.Errorf("failed to notify cache event: %w", err)
	}
	return nil
}

// Publish はNotifyの失敗をログに残す。変更自体は確定済みなので呼び出し元には返さない。
func (n *Notifier) Publish(ctx context.Context, ev cache.ResourceChanged) {
	if err := n.Notify(ctx, ev); err != nil {
		slog.Error("cache event broadcast failed",
			slog.String("resource", string(ev.Resource)),
			slog.String("id", ev.ID),
			slog.String("error", err.Error()),
		)
	}
}

// Target は受け取ったイベントの反映先。*cache.TagCacheが満たす。
type Target interface {
	Apply(ev cache.ResourceChanged)
	Purge()
}

// Listener は他プロセスからの無効化イベントを受け取ってTargetに反映する。
type Listener struct {
	databaseURL  string
	origin       string
	target       Target
	pingInterval time.Duration
}

// NewListener はListenerを生成する。originはNotifierと同じ値を渡す。
func NewListener(databaseURL, origin string, target Target) *Listener {
	return &Listener{
		databaseURL:  databaseURL,
		origin:       origin,
		target:       target,
		pingInterval: 90 * time.Second,
	}
}

// Run はctxがキャンセルされるまでイベントを受け取り続ける。
// 接続が切れている間のイベントは届かないため、再接続時にはキャッシュ全体を捨てる。
func (l *Listener) Run(ctx context.Context) error {
	pl := pq.NewListener(l.databaseURL, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Warn("cache listener connection event",
				slog.Int("event", int(ev)),
				slog.String("error", err.Error()),
			)
		}
	})
	defer pl.Close()

	if err := pl.Listen(Channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", Channel, err)
	}
	slog.Info("cache listener started", slog.String("channel", Channel))

	ticker := time.NewTicker(l.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-pl.Notify:
			l.handle(n)
		case <-ticker.C:
			if err := pl.Ping(); err != nil {
				slog.Warn("cache listener ping failed", slog.String("error", err.Error()))
			}
		}
	}
}

// handle は1件の通知を反映する。nilは再接続を表す。
func (l *Listener) handle(n *pq.Notification) {
	if n == nil {
		slog.Info("cache listener reconnected, purging cache")
		l.target.Purge()
		return
	}

	var msg message
	if err := json.Unmarshal([]byte(n.Extra), &msg); err != nil || msg.Resource == "" {
		// 読めないイベントは取りこぼしと同じ扱い
		slog.Warn("malformed cache event, purging cache", slog.String("payload", n.Extra))
		l.target.Purge()
		return
	}
	if msg.Origin == l.origin {
		return
	}

	l.target.Apply(cache.ResourceChanged{
		Resource: cache.Resource(msg.Resource),
		ID:       msg.ID,
		OwnerID:  msg.OwnerID,
	})
}

// compile-time interface checks
var (
	_ cache.Publisher = (*Notifier)(nil)
	_ Target          = (*cache.TagCache)(nil)
)
