package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	ledgerDomain "github.com/tourhub/service-booking/internal/domain/ledger"
	"github.com/tourhub/service-booking/internal/platform/domain"
)

// LedgerModel is the GORM model for the tour_ledgers table.
type LedgerModel struct {
	TourID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	MaxPeople     int       `gorm:"not null"`
	ReservedCount int       `gorm:"not null;default:0;check:tour_ledgers_capacity,reserved_count >= 0 AND reserved_count <= max_people"`
	IsActive      bool      `gorm:"not null;default:true"`
	Version       int64     `gorm:"not null;default:1"`
	UpdatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (LedgerModel) TableName() string {
	return "tour_ledgers"
}

// GormLedgerRepository is the GORM-based implementation of ledger.Repository.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository.
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// FindByTourID returns the tour's ledger entry without locking it. Inside a
// tour scope it reflects the scope's unwritten changes.
func (r *GormLedgerRepository) FindByTourID(ctx context.Context, tourID uuid.UUID) (*ledgerDomain.Entry, error) {
	if st := stateFromContext(ctx); st != nil {
		if e, ok := st.ledgers[tourID]; ok {
			return copyEntry(e), nil
		}
	}

	var model LedgerModel
	if err := conn(ctx, r.db).Where("tour_id = ?", tourID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Tour", tourID.String())
		}
		return nil, fmt.Errorf("failed to find ledger entry: %w", err)
	}
	return toDomainEntry(&model), nil
}

// FindByTourIDs returns entries for the given tours keyed by tour ID.
func (r *GormLedgerRepository) FindByTourIDs(ctx context.Context, tourIDs []uuid.UUID) (map[uuid.UUID]*ledgerDomain.Entry, error) {
	entries := make(map[uuid.UUID]*ledgerDomain.Entry, len(tourIDs))
	if len(tourIDs) == 0 {
		return entries, nil
	}

	var models []LedgerModel
	if err := conn(ctx, r.db).Where("tour_id IN ?", tourIDs).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find ledger entries: %w", err)
	}
	for i := range models {
		entries[models[i].TourID] = toDomainEntry(&models[i])
	}
	return entries, nil
}

// Save inserts a new ledger entry.
func (r *GormLedgerRepository) Save(ctx context.Context, entry *ledgerDomain.Entry) error {
	if err := conn(ctx, r.db).Create(toLedgerModel(entry)).Error; err != nil {
		return fmt.Errorf("failed to save ledger entry: %w", translateError(err))
	}
	return nil
}

func (r *GormLedgerRepository) update(tx *gorm.DB, entry *ledgerDomain.Entry) error {
	model := toLedgerModel(entry)
	result := tx.Model(&LedgerModel{}).
		Where("tour_id = ?", model.TourID).
		Updates(map[string]interface{}{
			"max_people":     model.MaxPeople,
			"reserved_count": model.ReservedCount,
			"is_active":      model.IsActive,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update ledger entry: %w", translateError(result.Error))
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("Tour", model.TourID.String())
	}
	return nil
}

// GormUnitOfWork implements ledger.UnitOfWork on PostgreSQL transactions. The
// tour scope is a row lock on the tour's ledger entry.
type GormUnitOfWork struct {
	db          *gorm.DB
	ledgers     *GormLedgerRepository
	lockTimeout time.Duration
	logger      *zap.Logger
}

// NewGormUnitOfWork creates a unit of work whose tour locks wait at most lockTimeout.
func NewGormUnitOfWork(db *gorm.DB, lockTimeout time.Duration, logger *zap.Logger) *GormUnitOfWork {
	return &GormUnitOfWork{
		db:          db,
		ledgers:     NewGormLedgerRepository(db),
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

// Within runs fn in a transaction.
func (u *GormUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	err := inTx(ctx, u.db, func(txCtx context.Context, _ *gorm.DB) error {
		if err := fn(txCtx); err != nil {
			return err
		}
		return ctx.Err()
	})
	return translateError(err)
}

// WithinTour locks the tour's ledger row with SELECT ... FOR UPDATE under a
// bounded lock_timeout, runs fn and writes the entry back if fn changed it.
// A nested call for a tour the transaction already holds gets the same entry;
// only the outermost call writes it back.
func (u *GormUnitOfWork) WithinTour(ctx context.Context, tourID uuid.UUID, fn ledgerDomain.TourFunc) error {
	err := inTx(ctx, u.db, func(txCtx context.Context, tx *gorm.DB) error {
		st := stateFromContext(txCtx)
		if entry, ok := st.ledgers[tourID]; ok {
			return fn(txCtx, entry)
		}

		if u.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", u.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to set lock timeout: %w", err)
			}
		}

		var model LedgerModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tour_id = ?", tourID).
			First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Tour", tourID.String())
			}
			return err
		}

		entry := toDomainEntry(&model)
		st.ledgers[tourID] = entry
		defer delete(st.ledgers, tourID)

		if err := fn(txCtx, entry); err != nil {
			return err
		}

		if entry.Version() != model.Version {
			if err := u.ledgers.update(tx, entry); err != nil {
				return err
			}
		}

		// Cancellation after fn still rolls back.
		return ctx.Err()
	})

	err = translateError(err)
	if domain.IsTransient(err) {
		u.logger.Debug("tour lock not acquired",
			zap.String("tour_id", tourID.String()),
			zap.Error(err),
		)
	}
	return err
}

// --- Conversion Helpers ---

func toLedgerModel(e *ledgerDomain.Entry) *LedgerModel {
	return &LedgerModel{
		TourID:        e.TourID(),
		MaxPeople:     e.MaxPeople(),
		ReservedCount: e.ReservedCount(),
		IsActive:      e.IsActive(),
		Version:       e.Version(),
		UpdatedAt:     e.UpdatedAt(),
	}
}

func copyEntry(e *ledgerDomain.Entry) *ledgerDomain.Entry {
	return ledgerDomain.ReconstructEntry(e.TourID(), e.MaxPeople(), e.ReservedCount(), e.IsActive(), e.Version(), e.UpdatedAt())
}

func toDomainEntry(m *LedgerModel) *ledgerDomain.Entry {
	return ledgerDomain.ReconstructEntry(m.TourID, m.MaxPeople, m.ReservedCount, m.IsActive, m.Version, m.UpdatedAt)
}
