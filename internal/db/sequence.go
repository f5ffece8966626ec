package db

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diewo77/backoffice/internal/config"
)

// Sequencer issues the monotonic sequence_number of a document, per entity,
// doc type and year.
type Sequencer interface {
	Next(ctx context.Context, entityID uint, docType string, year int) (int, error)
}

// Reference formats a document reference, e.g. ABC-OFF-2024-0007.
func Reference(entityCode, docType string, year, seq int) string {
	if entityCode == "" {
		entityCode = "XXX"
	}
	return fmt.Sprintf("%s-%s-%d-%04d", entityCode, docType, year, seq)
}

// DBSequencer keeps counters in the sequences table.
type DBSequencer struct {
	db *gorm.DB
}

func NewDBSequencer(db *gorm.DB) *DBSequencer {
	return &DBSequencer{db: db}
}

func (s *DBSequencer) Next(ctx context.Context, entityID uint, docType string, year int) (int, error) {
	var next int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := SequenceRecord{EntityID: entityID, DocType: docType, Year: year, Counter: 1}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity_id"}, {Name: "doc_type"}, {Name: "year"}},
			DoUpdates: clause.Assignments(map[string]any{"counter": gorm.Expr("sequences.counter + 1")}),
		}).Create(&rec).Error
		if err != nil {
			return err
		}
		var cur SequenceRecord
		if err := tx.Where("entity_id = ? AND doc_type = ? AND year = ?", entityID, docType, year).
			First(&cur).Error; err != nil {
			return err
		}
		next = cur.Counter
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("next sequence %d/%s/%d: %w", entityID, docType, year, err)
	}
	return next, nil
}

// RedisSequencer keeps counters in redis with INCR.
type RedisSequencer struct {
	rdb *redis.Client
}

func NewRedisSequencer(rdb *redis.Client) *RedisSequencer {
	return &RedisSequencer{rdb: rdb}
}

func sequenceKey(entityID uint, docType string, year int) string {
	return fmt.Sprintf("backoffice:seq:%d:%s:%d", entityID, docType, year)
}

func (s *RedisSequencer) Next(ctx context.Context, entityID uint, docType string, year int) (int, error) {
	n, err := s.rdb.Incr(ctx, sequenceKey(entityID, docType, year)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	return int(n), nil
}

// NewRedisClient connects to redis and pings it.
func NewRedisClient(ctx context.Context, cfg config.SequencerConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr(), err)
	}
	return rdb, nil
}

// NewSequencer picks the sequencer configured by SEQUENCER.
func NewSequencer(ctx context.Context, db *gorm.DB, cfg config.SequencerConfig) (Sequencer, error) {
	if cfg.Backend != "redis" {
		return NewDBSequencer(db), nil
	}
	rdb, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisSequencer(rdb), nil
}
