package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/models"
	"github.com/benbjohnson/clock"
	"gorm.io/gorm"
)

// Ledger keeps balances on the users table and logs every movement in
// transactions. Each movement runs in one database transaction; the unique
// operation id turns concurrent replays into no-ops.
type Ledger struct {
	db       *gorm.DB
	clock    clock.Clock
	starting int64
}

func NewLedger(db *gorm.DB, clk clock.Clock, starting int64) *Ledger {
	if clk == nil {
		clk = clock.New()
	}
	return &Ledger{db: db, clock: clk, starting: starting}
}

func (l *Ledger) Register(ctx context.Context, playerID, name string) (models.User, error) {
	var u models.User
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&u, "player_id = ?", playerID).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		u = models.User{PlayerID: playerID, Name: name}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		if l.starting <= 0 {
			return nil
		}
		return l.apply(tx, &u, game.Entry{
			OperationID: signupOperation(playerID),
			PlayerID:    playerID,
			Amount:      l.starting,
			Kind:        game.KindBonus,
			Description: "Starting coins",
		}, l.starting)
	})
	if isUniqueViolation(err) {
		return l.User(ctx, playerID)
	}
	return u, err
}

func (l *Ledger) User(ctx context.Context, playerID string) (models.User, error) {
	var u models.User
	if err := l.db.WithContext(ctx).First(&u, "player_id = ?", playerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, fmt.Errorf("player %s: %w", playerID, game.ErrNotFound)
		}
		return models.User{}, err
	}
	return u, nil
}

func (l *Ledger) Debit(ctx context.Context, e game.Entry) error {
	return l.move(ctx, e, -e.Amount)
}

func (l *Ledger) Credit(ctx context.Context, e game.Entry) error {
	return l.move(ctx, e, e.Amount)
}

func (l *Ledger) Applied(ctx context.Context, operationID string) (bool, error) {
	var seen int64
	err := l.db.WithContext(ctx).Model(&models.Transaction{}).Where("operation_id = ?", operationID).Count(&seen).Error
	return seen > 0, err
}

func (l *Ledger) move(ctx context.Context, e game.Entry, delta int64) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seen int64
		if err := tx.Model(&models.Transaction{}).Where("operation_id = ?", e.OperationID).Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 {
			return nil
		}
		var u models.User
		if err := tx.First(&u, "player_id = ?", e.PlayerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("player %s: %w", e.PlayerID, game.ErrNotFound)
			}
			return err
		}
		return l.apply(tx, &u, e, delta)
	})
	if isUniqueViolation(err) {
		return nil
	}
	return err
}

// apply changes the balance with a conditional update, so a debit can
// never take it below zero even under concurrent writers.
func (l *Ledger) apply(tx *gorm.DB, u *models.User, e game.Entry, delta int64) error {
	q := tx.Model(&models.User{}).Where("id = ?", u.ID)
	if delta < 0 {
		q = q.Where("coins >= ?", -delta)
	}
	res := q.UpdateColumn("coins", gorm.Expr("coins + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: balance %d, need %d", game.ErrInsufficientFunds, u.Coins, -delta)
	}
	if err := tx.First(u, u.ID).Error; err != nil {
		return err
	}
	row := transaction(e, delta, u.Coins, l.clock.Now().UTC())
	return tx.Create(&row).Error
}

func (l *Ledger) Transactions(ctx context.Context, playerID string, limit int) ([]models.Transaction, error) {
	q := l.db.WithContext(ctx).Where("player_id = ?", playerID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.Transaction
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
