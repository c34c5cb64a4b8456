package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mentorship/backend/internal/logger"
	"mentorship/backend/internal/models"
	"mentorship/backend/pkg/mentorship"

	"gorm.io/gorm"
)

var liveStatuses = []string{string(mentorship.StatusPending), string(mentorship.StatusAccepted)}

// GormRelationshipStore implements RelationshipStore using GORM.
type GormRelationshipStore struct {
	db       *gorm.DB
	cooldown time.Duration
	now      func() time.Time
}

// NewGormRelationshipStore creates a GORM-backed relationship store.
// A positive cooldown rejects a new request for an ordered pair whose last
// relationship was terminated within that window.
func NewGormRelationshipStore(db *gorm.DB, cooldown time.Duration) *GormRelationshipStore {
	return &GormRelationshipStore{db: db, cooldown: cooldown, now: time.Now}
}

// ListForUser returns every row where userID is mentor or mentee, oldest first.
func (s *GormRelationshipStore) ListForUser(ctx context.Context, userID uint) ([]mentorship.Relationship, error) {
	var rows []models.Relationship
	err := s.db.WithContext(ctx).
		Preload("Mentor").
		Preload("Mentee").
		Where("mentor_id = ? OR mentee_id = ?", userID, userID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}

	out := make([]mentorship.Relationship, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToDomain())
	}
	return out, nil
}

// Get returns a single row with usernames filled.
func (s *GormRelationshipStore) Get(ctx context.Context, id uint) (mentorship.Relationship, error) {
	var row models.Relationship
	err := s.db.WithContext(ctx).Preload("Mentor").Preload("Mentee").First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return mentorship.Relationship{}, fmt.Errorf("%w: relationship %d", mentorship.ErrNotFound, id)
		}
		return mentorship.Relationship{}, fmt.Errorf("get relationship: %w", err)
	}
	return row.ToDomain(), nil
}

// Create inserts a PENDING row sent by actorID. The live check runs inside
// the transaction and the partial unique index catches concurrent inserts
// that slip past it.
func (s *GormRelationshipStore) Create(ctx context.Context, actorID, mentorID, menteeID uint) (mentorship.Relationship, error) {
	req, err := mentorship.NewRequest(actorID, mentorID, menteeID)
	if err != nil {
		return mentorship.Relationship{}, err
	}

	row := models.NewRelationship(req)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&models.User{}).Where("id IN ?", []uint{mentorID, menteeID}).Count(&users).Error; err != nil {
			return err
		}
		if users != 2 {
			return fmt.Errorf("%w: mentor or mentee does not exist", mentorship.ErrInvalidRequest)
		}

		var live int64
		err := tx.Model(&models.Relationship{}).
			Where("mentor_id = ? AND mentee_id = ? AND status IN ?", mentorID, menteeID, liveStatuses).
			Count(&live).Error
		if err != nil {
			return err
		}
		if live > 0 {
			return fmt.Errorf("%w: a live relationship already exists for mentor %d and mentee %d", mentorship.ErrConflict, mentorID, menteeID)
		}

		if s.cooldown > 0 {
			var recent int64
			err := tx.Model(&models.Relationship{}).
				Where("mentor_id = ? AND mentee_id = ? AND status = ? AND updated_at > ?",
					mentorID, menteeID, string(mentorship.StatusTerminated), s.now().Add(-s.cooldown)).
				Count(&recent).Error
			if err != nil {
				return err
			}
			if recent > 0 {
				return fmt.Errorf("%w: relationship was terminated less than %s ago", mentorship.ErrConflict, s.cooldown)
			}
		}

		return insertRelationship(tx, &row)
	})
	if err != nil {
		return mentorship.Relationship{}, wrapStoreErr("create relationship", err)
	}

	l := logger.Ctx(ctx)
	l.Info().
		Uint(logger.FieldRelationshipID, row.ID).
		Uint("mentor_id", mentorID).
		Uint("mentee_id", menteeID).
		Uint("sender_id", actorID).
		Msg("relationship requested")

	return s.Get(ctx, row.ID)
}

// Transition moves relationship id to status to on behalf of actorID. The
// update only applies if the status is still the one that was authorized,
// so the loser of two racing transitions gets ErrInvalidTransition.
func (s *GormRelationshipStore) Transition(ctx context.Context, actorID, id uint, to mentorship.Status) (mentorship.Relationship, error) {
	var from mentorship.Status
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Relationship
		if err := tx.First(&row, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: relationship %d", mentorship.ErrNotFound, id)
			}
			return err
		}
		from = row.Status

		if err := mentorship.AuthorizeTransition(row.ToDomain(), actorID, to); err != nil {
			return err
		}

		return s.applyTransition(tx, id, from, to)
	})
	if err != nil {
		return mentorship.Relationship{}, wrapStoreErr("transition relationship", err)
	}

	l := logger.Ctx(ctx)
	l.Info().
		Uint(logger.FieldRelationshipID, id).
		Uint("actor_id", actorID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("relationship transitioned")

	return s.Get(ctx, id)
}

// insertRelationship creates row. A hit on the live unique index means a
// concurrent request for the same ordered pair won.
func insertRelationship(tx *gorm.DB, row *models.Relationship) error {
	if err := tx.Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: a live relationship already exists for mentor %d and mentee %d", mentorship.ErrConflict, row.MentorID, row.MenteeID)
		}
		return err
	}
	return nil
}

// applyTransition sets the status of row id to to, only if it is still from.
func (s *GormRelationshipStore) applyTransition(tx *gorm.DB, id uint, from, to mentorship.Status) error {
	res := tx.Model(&models.Relationship{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"updated_at": s.now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: relationship %d changed concurrently", mentorship.ErrInvalidTransition, id)
	}
	return nil
}

// wrapStoreErr leaves taxonomy errors untouched and adds context to the rest.
func wrapStoreErr(op string, err error) error {
	for _, known := range []error{
		mentorship.ErrInvalidRequest,
		mentorship.ErrConflict,
		mentorship.ErrNotFound,
		mentorship.ErrForbidden,
		mentorship.ErrInvalidTransition,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Ensure interface is satisfied at compile time.
var _ RelationshipStore = (*GormRelationshipStore)(nil)
