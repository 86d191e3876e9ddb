package sessiongate

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// DefaultTokenCacheKey is the fixed, well-known key the token is stored
// under. It is the only persisted state owned by this package.
const DefaultTokenCacheKey = "sessiongate:access_token"

// CachedToken is the persisted mirror of the session's access token.
type CachedToken struct {
	bun.BaseModel `bun:"table:session_tokens,alias:stk"`
	Key           string    `bun:"key,pk" json:"key"`
	Token         string    `bun:"token,notnull" json:"token"`
	UpdatedAt     time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

// BunTokenCache stores the token in a single-row Bun table so it survives a
// client restart.
type BunTokenCache struct {
	db     *bun.DB
	key    string
	now    func() time.Time
	logger Logger
}

// BunTokenCacheOption customizes cache construction.
type BunTokenCacheOption func(*BunTokenCache)

// WithCacheKey overrides the fixed storage key.
func WithCacheKey(key string) BunTokenCacheOption {
	return func(c *BunTokenCache) {
		if key != "" {
			c.key = key
		}
	}
}

// WithCacheClock injects a custom clock (useful for tests).
func WithCacheClock(clock func() time.Time) BunTokenCacheOption {
	return func(c *BunTokenCache) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithCacheLogger overrides the logger.
func WithCacheLogger(logger Logger) BunTokenCacheOption {
	return func(c *BunTokenCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewBunTokenCache wraps db as a durable TokenCache.
func NewBunTokenCache(db *bun.DB, opts ...BunTokenCacheOption) *BunTokenCache {
	c := &BunTokenCache{
		db:     db,
		key:    DefaultTokenCacheKey,
		now:    time.Now,
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// OpenTokenDB opens a SQLite-backed bun.DB suitable for the token cache.
// Use ":memory:" for throwaway databases.
func OpenTokenDB(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to open token database")
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// Init creates the backing table if it does not exist.
func (c *BunTokenCache) Init(ctx context.Context) error {
	_, err := c.db.NewCreateTable().
		Model((*CachedToken)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to create token cache table")
	}
	return nil
}

// Set overwrites any previous value.
func (c *BunTokenCache) Set(ctx context.Context, token string) error {
	record := &CachedToken{
		Key:       c.key,
		Token:     token,
		UpdatedAt: c.now(),
	}

	_, err := c.db.NewInsert().
		Model(record).
		On("CONFLICT (key) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to persist token")
	}
	return nil
}

// Get returns the last value set; it does not validate expiry.
func (c *BunTokenCache) Get(ctx context.Context) (string, bool, error) {
	record := &CachedToken{}
	err := c.db.NewSelect().
		Model(record).
		Where("key = ?", c.key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, errors.CategoryOperation, "failed to read cached token")
	}
	return record.Token, true, nil
}

// Clear removes the value; no-op if absent.
func (c *BunTokenCache) Clear(ctx context.Context) error {
	_, err := c.db.NewDelete().
		Model((*CachedToken)(nil)).
		Where("key = ?", c.key).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to clear cached token")
	}
	return nil
}

var _ TokenCache = (*BunTokenCache)(nil)
