package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/models"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// CardStore keeps cards in Postgres.
type CardStore struct {
	db *gorm.DB
}

func NewCardStore(db *gorm.DB) *CardStore {
	return &CardStore{db: db}
}

func (s *CardStore) Save(ctx context.Context, c game.Card) error {
	row, err := models.NewCard(c)
	if err != nil {
		return fmt.Errorf("encode card %s: %w", c.ID, err)
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *CardStore) FindByID(ctx context.Context, id string) (game.Card, error) {
	var row models.Card
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return game.Card{}, fmt.Errorf("card %s: %w", id, game.ErrNotFound)
		}
		return game.Card{}, err
	}
	return row.Game()
}

func (s *CardStore) Sample(ctx context.Context, n int, exclude []string) ([]game.Card, error) {
	q := s.db.WithContext(ctx).Where("active = ?", true)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	var rows []models.Card
	if err := q.Order("random()").Limit(n).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) < n {
		return nil, fmt.Errorf("%w: %d cards left, %d wanted", game.ErrCardUnavailable, len(rows), n)
	}
	return decodeCards(rows)
}

func (s *CardStore) List(ctx context.Context, page, limit int) ([]game.Card, int64, error) {
	page, limit = clampPage(page, limit)
	var total int64
	db := s.db.WithContext(ctx).Model(&models.Card{}).Where("active = ?", true).Session(&gorm.Session{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Card
	if err := db.Order("created_at, id").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	cards, err := decodeCards(rows)
	return cards, total, err
}

func decodeCards(rows []models.Card) ([]game.Card, error) {
	out := make([]game.Card, 0, len(rows))
	for _, row := range rows {
		c, err := row.Game()
		if err != nil {
			return nil, fmt.Errorf("decode card %s: %w", row.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// GameStore keeps session documents in Postgres. Save only succeeds
// against the version it was loaded at.
type GameStore struct {
	db *gorm.DB
}

func NewGameStore(db *gorm.DB) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) Save(ctx context.Context, sess *game.Session) error {
	row, err := models.NewGame(sess)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", sess.ID, err)
	}
	row.Version = sess.Version + 1

	db := s.db.WithContext(ctx)
	if sess.Version == 0 {
		if err := db.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("game %s already exists: %w", sess.ID, game.ErrConflict)
			}
			return err
		}
		sess.Version = row.Version
		return nil
	}

	res := db.Model(&models.Game{}).
		Where("id = ? AND version = ?", sess.ID, sess.Version).
		Updates(map[string]any{
			"name":       row.Name,
			"status":     row.Status,
			"start_time": row.StartTime,
			"document":   row.Document,
			"version":    row.Version,
			"updated_at": row.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("game %s changed since version %d: %w", sess.ID, sess.Version, game.ErrConflict)
	}
	sess.Version = row.Version
	return nil
}

func (s *GameStore) FindByID(ctx context.Context, id string) (*game.Session, error) {
	var row models.Game
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("game %s: %w", id, game.ErrNotFound)
		}
		return nil, err
	}
	return row.Session()
}

func (s *GameStore) List(ctx context.Context, statuses ...game.Status) ([]*game.Session, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}
		q = q.Where("status IN ?", names)
	}
	var rows []models.Game
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*game.Session, 0, len(rows))
	for _, row := range rows {
		sess, err := row.Session()
		if err != nil {
			return nil, fmt.Errorf("decode game %s: %w", row.ID, err)
		}
		out = append(out, sess)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
