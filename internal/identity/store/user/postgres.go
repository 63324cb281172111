package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"cropchain/internal/identity/models"
	id "cropchain/pkg/domain"
	"cropchain/pkg/platform/sentinel"
	txcontext "cropchain/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists users in PostgreSQL. Verification records are
// stored as JSONB next to the account row.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) conn(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	verification, history, err := marshalVerification(u)
	if err != nil {
		return err
	}
	_, err = s.conn(ctx).ExecContext(ctx, `
		INSERT INTO users (id, name, email, role, wallet_address, verification, verification_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(u.ID), u.Name, u.Email, string(u.Role), u.WalletAddress,
		verification, history, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.find(ctx, s.conn(ctx), userID, false)
}

// Execute runs validate and mutate inside a transaction holding a row lock.
func (s *PostgresStore) Execute(ctx context.Context, userID id.UserID, validate func(*models.User) error, mutate func(*models.User)) (*models.User, error) {
	var result *models.User
	err := txcontext.Run(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		u, err := s.find(ctx, tx, userID, true)
		if err != nil {
			return err
		}
		if err := validate(u); err != nil {
			return err
		}
		mutate(u)
		if err := s.update(ctx, tx, u); err != nil {
			return err
		}
		result = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PostgresStore) find(ctx context.Context, q querier, userID id.UserID, forUpdate bool) (*models.User, error) {
	query := `
		SELECT id, name, email, role, wallet_address, verification, verification_history, created_at, updated_at
		FROM users WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var (
		rawID        uuid.UUID
		role         string
		verification []byte
		history      []byte
		u            models.User
	)
	err := q.QueryRowContext(ctx, query, uuid.UUID(userID)).Scan(
		&rawID, &u.Name, &u.Email, &role, &u.WalletAddress,
		&verification, &history, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	u.ID = id.UserID(rawID)
	u.Role = models.Role(role)
	if len(verification) > 0 && string(verification) != "null" {
		var v models.Verification
		if err := json.Unmarshal(verification, &v); err != nil {
			return nil, fmt.Errorf("unmarshal verification: %w", err)
		}
		u.Verification = &v
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &u.VerificationHistory); err != nil {
			return nil, fmt.Errorf("unmarshal verification history: %w", err)
		}
	}
	return &u, nil
}

func (s *PostgresStore) update(ctx context.Context, q querier, u *models.User) error {
	verification, history, err := marshalVerification(u)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		UPDATE users
		SET name = $2, email = $3, role = $4, wallet_address = $5,
		    verification = $6, verification_history = $7, updated_at = $8
		WHERE id = $1`,
		uuid.UUID(u.ID), u.Name, u.Email, string(u.Role), u.WalletAddress,
		verification, history, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func marshalVerification(u *models.User) (verification, history []byte, err error) {
	if u.Verification != nil {
		verification, err = json.Marshal(u.Verification)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal verification: %w", err)
		}
	}
	hist := u.VerificationHistory
	if hist == nil {
		hist = []models.Verification{}
	}
	history, err = json.Marshal(hist)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal verification history: %w", err)
	}
	return verification, history, nil
}
