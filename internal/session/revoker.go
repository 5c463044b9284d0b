// Package session keeps the denylist of access tokens revoked by logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xby-111/bill/internal/config"
	"github.com/xby-111/bill/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Revoker records revoked token ids until the token would have expired.
type Revoker interface {
	Revoke(ctx context.Context, jti, username string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// DBRevoker stores revoked tokens in the revoked_tokens table.
type DBRevoker struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDBRevoker(db *gorm.DB) *DBRevoker {
	return &DBRevoker{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *DBRevoker) Revoke(ctx context.Context, jti, username string, expiresAt time.Time) error {
	row := models.RevokedToken{JTI: jti, Username: username, ExpiresAt: expiresAt.UTC()}
	// 重复注销同一个 token 不算错误
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *DBRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RevokedToken{}).
		Where("jti = ? AND expires_at > ?", jti, r.now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return count > 0, nil
}

// Purge deletes entries whose token has already expired.
func (r *DBRevoker) Purge(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", r.now()).
		Delete(&models.RevokedToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge revoked tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}

const redisKeyPrefix = "ledger:revoked:"

// RedisRevoker keeps one key per revoked token; Redis expires it together
// with the token.
type RedisRevoker struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisRevoker(rdb *redis.Client) *RedisRevoker {
	return &RedisRevoker{rdb: rdb, now: time.Now}
}

// Close closes the underlying client.
func (r *RedisRevoker) Close() error {
	return r.rdb.Close()
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti, username string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		// 已过期的 token 无需记录
		return nil
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+jti, username, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := r.rdb.Get(ctx, redisKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return true, nil
}

// NewRedisClient connects to cfg.Addr and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}
