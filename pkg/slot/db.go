package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/snaapconnections/storefront/pkg/logger"
)

// Record maps a row of storefront_slots.
type Record struct {
	Key       string     `gorm:"column:slot_key;primaryKey;size:255"`
	Value     string     `gorm:"column:value;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null"`
}

func (Record) TableName() string { return "storefront_slots" }

// DB persists slots in a SQL table through GORM.
type DB struct {
	conn *gorm.DB
	ttl  time.Duration
	now  func() time.Time
}

func NewDB(conn *gorm.DB, ttl time.Duration) (*DB, error) {
	if conn == nil {
		return nil, errors.New("db connection required")
	}
	return &DB{conn: conn, ttl: ttl, now: time.Now}, nil
}

func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var rec Record
	err := d.conn.WithContext(ctx).
		Where("slot_key = ?", key).
		Where("expires_at IS NULL OR expires_at > ?", d.now().UTC()).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read slot %q: %w", key, err)
	}
	return rec.Value, true, nil
}

func (d *DB) Set(ctx context.Context, key, value string) error {
	now := d.now().UTC()
	rec := Record{Key: key, Value: value, UpdatedAt: now}
	if d.ttl > 0 {
		exp := now.Add(d.ttl)
		rec.ExpiresAt = &exp
	}
	err := d.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	return nil
}

func (d *DB) Delete(ctx context.Context, key string) error {
	if err := d.conn.WithContext(ctx).Where("slot_key = ?", key).Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("delete slot %q: %w", key, err)
	}
	return nil
}

// PurgeExpired removes rows whose TTL has lapsed and reports how many were dropped.
func (d *DB) PurgeExpired(ctx context.Context) (int64, error) {
	res := d.conn.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", d.now().UTC()).
		Delete(&Record{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge expired slots: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Run purges expired rows every interval until ctx is done.
func (d *DB) Run(ctx context.Context, every time.Duration, logg *logger.Logger) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := d.PurgeExpired(ctx)
			if logg == nil {
				continue
			}
			if err != nil {
				if ctx.Err() == nil {
					logg.Error(ctx, "slot purge failed", err)
				}
				continue
			}
			if n > 0 {
				logg.Debug(logg.WithField(ctx, "removed", n), "purged expired slots")
			}
		}
	}
}
