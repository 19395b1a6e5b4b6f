package cache

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Publisher はリソース変更イベントの発行先。
// 変更を確定させた呼び出しの中で同期的に呼ぶこと。
type Publisher interface {
	Publish(ctx context.Context, ev ResourceChanged)
}

// Observer はキャッシュの利用状況を受け取る。
type Observer interface {
	CacheLookup(hit bool)
	CacheInvalidated(resource string)
}

type entry struct {
	value any
	tags  []Tag
	// stamp は読み込み開始時点のクロック値。
	stamp uint64
}

// TagCache はタグのバージョンで鮮度を判定するLRUキャッシュ。
//
// 無効化はタグのバージョンを進めるだけで、エントリは参照時に検証される。
// エントリは読み込み開始時点のクロック値を持ち、いずれかのタグのバージョンが
// それを上回っていれば古いとみなす。読み込み中に無効化が走った場合も
// 結果は古い扱いになるため、変更前のデータが残ることはない。
type TagCache struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, entry]
	versions *lru.Cache[Tag, uint64]
	clock    uint64
	// floor は追い出されたタグの最大バージョン。未知のタグはこの値とみなす。
	floor    uint64
	size     int
	observer Observer
	// forward は確定した変更を他プロセスへ伝える先。nilなら伝えない。
	forward Publisher
}

// Option はTagCacheの設定を変更する。
type Option func(*TagCache)

// WithObserver はヒット率と無効化回数の通知先を設定する。
func WithObserver(o Observer) Option {
	return func(c *TagCache) {
		c.observer = o
	}
}

// WithForwarder はPublishしたイベントをローカルの無効化後に転送する先を設定する。
// 転送先から戻ってきたイベントはApplyで反映し、再転送しないこと。
func WithForwarder(p Publisher) Option {
	return func(c *TagCache) {
		c.forward = p
	}
}

// New は最大size件のエントリを保持するTagCacheを生成する。
// タグのバージョン表も同じ件数を上限とする。
func New(size int, opts ...Option) (*TagCache, error) {
	entries, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	versions, err := lru.New[Tag, uint64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag table: %w", err)
	}
	c := &TagCache{entries: entries, versions: versions, size: size}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// versionLocked はタグの現在のバージョンを返す。c.muを保持して呼ぶこと。
func (c *TagCache) versionLocked(t Tag) uint64 {
	if v, ok := c.versions.Peek(t); ok {
		return v
	}
	return c.floor
}

func (c *TagCache) freshLocked(e entry) bool {
	for _, t := range e.tags {
		if c.versionLocked(t) > e.stamp {
			return false
		}
	}
	return true
}

// Get はキーに対応する値を返す。古いエントリは削除してミス扱いにする。
func (c *TagCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Get(key)
	if ok && !c.freshLocked(e) {
		c.entries.Remove(key)
		ok = false
	}
	if c.observer != nil {
		c.observer.CacheLookup(ok)
	}
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Stamp は読み込み開始時点のクロック値を返す。Setに渡す。
func (c *TagCache) Stamp() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clock
}

// Set はstamp時点で読み込んだ値をタグ付きで保存する。
// stamp以降にいずれかのタグが無効化されていれば保存しない。
func (c *TagCache) Set(key string, value any, tags []Tag, stamp uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{value: value, tags: tags, stamp: stamp}
	if !c.freshLocked(e) {
		return false
	}
	c.entries.Add(key, e)
	return true
}

// Invalidate は指定タグのバージョンを進め、そのタグを持つエントリを無効にする。
func (c *TagCache) Invalidate(tags ...Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clock++
	for _, t := range tags {
		if _, ok := c.versions.Peek(t); !ok && c.versions.Len() >= c.size {
			if _, v, ok := c.versions.RemoveOldest(); ok && v > c.floor {
				c.floor = v
			}
		}
		c.versions.Add(t, c.clock)
	}
}

// Publish はイベントに対応する3粒度のタグを無効化し、転送先があれば転送する。
func (c *TagCache) Publish(ctx context.Context, ev ResourceChanged) {
	c.Apply(ev)
	if c.forward != nil {
		c.forward.Publish(ctx, ev)
	}
}

// Apply は他プロセスで確定した変更をローカルにだけ反映する。
func (c *TagCache) Apply(ev ResourceChanged) {
	c.Invalidate(ev.Tags()...)
	if c.observer != nil {
		c.observer.CacheInvalidated(string(ev.Resource))
	}
}

// Purge は全エントリを無効にする。
// 変更通知を取りこぼした可能性がある場合（再接続時など）に使う。
func (c *TagCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clock++
	c.floor = c.clock
	c.versions.Purge()
	c.entries.Purge()
}

// Len は保持しているエントリ数を返す。古いエントリも含む。
func (c *TagCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Fetch はキャッシュから値を取得し、なければloadで読み込んで保存する。
// cがnilの場合は常にloadを呼ぶ。
func Fetch[T any](ctx context.Context, c *TagCache, key string, tags []Tag, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	stamp := c.Stamp()
	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, value, tags, stamp)
	return value, nil
}

// compile-time interface check
var _ Publisher = (*TagCache)(nil)
