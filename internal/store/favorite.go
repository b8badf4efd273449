package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDuplicate is returned when a favorite with the same question exists.
var ErrDuplicate = errors.New("duplicate favorite")

type favoriteRepo struct {
	db *sql.DB
}

func (r *favoriteRepo) Insert(ctx context.Context, rec FavoriteRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorites (id, question, payload, favorited_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Question, rec.Payload, rec.FavoritedAt.UnixMilli(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("insert favorite: %w", ErrDuplicate)
		}
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

func (r *favoriteRepo) DeleteByQuestion(ctx context.Context, question string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE question = ?`, question)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *favoriteRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *favoriteRepo) List(ctx context.Context) ([]FavoriteRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, question, payload, favorited_at FROM favorites ORDER BY favorited_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var out []FavoriteRecord
	for rows.Next() {
		var (
			rec FavoriteRecord
			ts  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Payload, &ts); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		rec.FavoritedAt = time.UnixMilli(ts).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
