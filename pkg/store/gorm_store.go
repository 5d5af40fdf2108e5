package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"clearbuybot/pkg/domain"
)

const migrateLockID int64 = 52805280

// GormStore implements ChatStore using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory
// lock so concurrent replicas do not race on schema changes.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&ChatTurnModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// AppendTurn inserts one turn. The single-row create is atomic; nothing is
// recorded when it fails.
func (s *GormStore) AppendTurn(userID, question, answer string, productIDs []string) (domain.ChatTurn, error) {
	model := ChatTurnModel{
		UserID:     userID,
		Question:   question,
		Answer:     answer,
		ProductIDs: marshalProductIDs(productIDs),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.ChatTurn{}, err
	}
	return turnFromModel(model), nil
}

// ListTurns returns a user's turns in chronological order. A positive limit
// selects the most recent limit turns (queried newest-first, then reversed).
func (s *GormStore) ListTurns(userID string, limit int) ([]domain.ChatTurn, error) {
	var models []ChatTurnModel
	if limit > 0 {
		if err := s.db.Where("user_id = ?", userID).
			Order("created_at DESC").
			Order("id DESC").
			Limit(limit).
			Find(&models).Error; err != nil {
			return nil, err
		}
		turns := make([]domain.ChatTurn, 0, len(models))
		for i := len(models) - 1; i >= 0; i-- {
			turns = append(turns, turnFromModel(models[i]))
		}
		return turns, nil
	}
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	turns := make([]domain.ChatTurn, 0, len(models))
	for _, model := range models {
		turns = append(turns, turnFromModel(model))
	}
	return turns, nil
}

// DeleteTurns removes all turns for a user in one statement.
func (s *GormStore) DeleteTurns(userID string) (int64, error) {
	res := s.db.Delete(&ChatTurnModel{}, "user_id = ?", userID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// HasTurns reports whether the user has any recorded turn.
func (s *GormStore) HasTurns(userID string) (bool, error) {
	var count int64
	if err := s.db.Model(&ChatTurnModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func marshalProductIDs(ids []string) datatypes.JSON {
	if ids == nil {
		ids = []string{}
	}
	raw, _ := json.Marshal(ids)
	return raw
}

func turnFromModel(m ChatTurnModel) domain.ChatTurn {
	ids := []string{}
	if len(m.ProductIDs) > 0 {
		_ = json.Unmarshal(m.ProductIDs, &ids)
	}
	return domain.ChatTurn{
		ID:         m.ID,
		UserID:     m.UserID,
		Question:   m.Question,
		Answer:     m.Answer,
		ProductIDs: ids,
		CreatedAt:  m.CreatedAt,
	}
}
