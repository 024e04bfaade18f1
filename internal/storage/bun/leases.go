package bunrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-accesslease/pkg/domain"
	"github.com/goliatone/go-accesslease/pkg/interfaces/store"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type leaseRecord struct {
	bun.BaseModel `bun:"table:access_leases"`

	ID                   uuid.UUID `bun:",pk,type:uuid"`
	Nonce                string    `bun:",notnull,unique"`
	ScopePath            string    `bun:",notnull"`
	RequestedAt          time.Time `bun:",notnull"`
	LeaseDurationSeconds int64     `bun:",notnull"`
	CreatedAt            time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// LeaseStore persists pending access confirmations in a bun-backed table,
// for deployments where confirmation links should survive a process restart.
type LeaseStore struct {
	db *bun.DB
}

var _ store.LeaseStore = (*LeaseStore)(nil)

// NewLeaseStore creates a bun-backed lease store.
func NewLeaseStore(db *bun.DB) *LeaseStore {
	return &LeaseStore{db: db}
}

// CreateSchema ensures the lease table exists. Hosts call this at startup;
// tests call it against in-memory sqlite.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*leaseRecord)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *LeaseStore) Put(ctx context.Context, rec domain.LeaseRecord) error {
	model := toLeaseRecord(rec)
	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (nonce) DO UPDATE").
		Set("scope_path = EXCLUDED.scope_path").
		Set("requested_at = EXCLUDED.requested_at").
		Set("lease_duration_seconds = EXCLUDED.lease_duration_seconds").
		Exec(ctx)
	return err
}

func (s *LeaseStore) Get(ctx context.Context, nonce string) (domain.LeaseRecord, error) {
	var rec leaseRecord
	err := s.db.NewSelect().
		Model(&rec).
		Where("nonce = ?", nonce).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.LeaseRecord{}, mapError(err)
	}
	return fromLeaseRecord(rec), nil
}

func (s *LeaseStore) Delete(ctx context.Context, nonce string) error {
	_, err := s.db.NewDelete().
		Model((*leaseRecord)(nil)).
		Where("nonce = ?", nonce).
		Exec(ctx)
	return err
}

func toLeaseRecord(rec domain.LeaseRecord) *leaseRecord {
	return &leaseRecord{
		ID:                   rec.ID,
		Nonce:                rec.Nonce,
		ScopePath:            rec.ScopePath,
		RequestedAt:          rec.RequestedAt,
		LeaseDurationSeconds: rec.LeaseDurationSeconds,
	}
}

func fromLeaseRecord(rec leaseRecord) domain.LeaseRecord {
	return domain.LeaseRecord{
		ID:                   rec.ID,
		Nonce:                rec.Nonce,
		ScopePath:            rec.ScopePath,
		RequestedAt:          rec.RequestedAt,
		LeaseDurationSeconds: rec.LeaseDurationSeconds,
	}
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
