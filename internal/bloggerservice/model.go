package bloggerservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sushihentaime/nanoblog/internal/common"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateBlogger = errors.New("user already has a blogger profile")
)

func newBloggerModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBlogger(row scanner) (*Blogger, error) {
	var (
		b   Blogger
		bio sql.NullString
		age sql.NullInt32
		url sql.NullString
		key sql.NullString
	)

	err := row.Scan(&b.ID, &b.UserID, &bio, &age, &url, &key)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	if bio.Valid {
		b.Bio = &bio.String
	}
	if age.Valid {
		a := int(age.Int32)
		b.Age = &a
	}
	if url.Valid {
		b.ProfilePictureURL = &url.String
	}
	if key.Valid {
		b.pictureKey = &key.String
	}

	return &b, nil
}

func (m *DBModel) insertBlogger(tx *sql.Tx, ctx context.Context, userID int) error {
	query := `
		INSERT INTO bloggers (user_id)
		VALUES ($1)`

	_, err := tx.ExecContext(ctx, query, userID)
	if err != nil {
		if common.UniqueViolation(err, "bloggers_user_id_key") {
			return ErrDuplicateBlogger
		}
		return err
	}

	return nil
}

func (m *DBModel) getBloggerByUserID(ctx context.Context, userID int) (*Blogger, error) {
	query := `
		SELECT id, user_id, bio, age, profile_picture_url, profile_picture_key
		FROM bloggers
		WHERE user_id = $1`

	return scanBlogger(m.db.QueryRowContext(ctx, query, userID))
}

func (m *DBModel) getBloggerByID(ctx context.Context, id int) (*Blogger, error) {
	query := `
		SELECT id, user_id, bio, age, profile_picture_url, profile_picture_key
		FROM bloggers
		WHERE id = $1`

	return scanBlogger(m.db.QueryRowContext(ctx, query, id))
}

// lockBloggerByUserID loads the blogger row of userID and holds a row lock until tx
// ends, so concurrent mutations of the same follow set run one after the other.
func (m *DBModel) lockBloggerByUserID(tx *sql.Tx, ctx context.Context, userID int) (*Blogger, error) {
	query := `
		SELECT id, user_id, bio, age, profile_picture_url, profile_picture_key
		FROM bloggers
		WHERE user_id = $1
		FOR UPDATE`

	return scanBlogger(tx.QueryRowContext(ctx, query, userID))
}

func (m *DBModel) getUserByUsername(tx *sql.Tx, ctx context.Context, username string) (*Target, error) {
	query := `
		SELECT id, username
		FROM users
		WHERE username = $1`

	var t Target
	err := tx.QueryRowContext(ctx, query, username).Scan(&t.ID, &t.Username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &t, nil
}

// insertFollow adds the edge if it is missing.
func (m *DBModel) insertFollow(tx *sql.Tx, ctx context.Context, bloggerID, userID int) error {
	query := `
		INSERT INTO follows (blogger_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (blogger_id, user_id) DO NOTHING`

	_, err := tx.ExecContext(ctx, query, bloggerID, userID)
	return err
}

// deleteFollow removes the edge if it is present.
func (m *DBModel) deleteFollow(tx *sql.Tx, ctx context.Context, bloggerID, userID int) error {
	query := `
		DELETE FROM follows
		WHERE blogger_id = $1 AND user_id = $2`

	_, err := tx.ExecContext(ctx, query, bloggerID, userID)
	return err
}

func (m *DBModel) isFollowing(ctx context.Context, bloggerID, userID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM follows WHERE blogger_id = $1 AND user_id = $2
		)`

	var following bool
	err := m.db.QueryRowContext(ctx, query, bloggerID, userID).Scan(&following)
	return following, err
}

func (m *DBModel) listFollowing(ctx context.Context, bloggerID int) ([]Target, error) {
	query := `
		SELECT u.id, u.username
		FROM follows f
		INNER JOIN users u ON u.id = f.user_id
		WHERE f.blogger_id = $1
		ORDER BY u.username`

	rows, err := m.db.QueryContext(ctx, query, bloggerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	targets := []Target{}
	for rows.Next() {
		var t Target
		if err := rows.Scan(&t.ID, &t.Username); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return targets, nil
}

// updateProfile writes bio and age, and the picture columns when url is valid.
func (m *DBModel) updateProfile(tx *sql.Tx, ctx context.Context, bloggerID int, bio sql.NullString, age sql.NullInt32, url, key sql.NullString) error {
	query := `
		UPDATE bloggers
		SET bio = $2,
			age = $3,
			profile_picture_url = COALESCE($4, profile_picture_url),
			profile_picture_key = COALESCE($5, profile_picture_key)
		WHERE id = $1`

	res, err := tx.ExecContext(ctx, query, bloggerID, bio, age, url, key)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
