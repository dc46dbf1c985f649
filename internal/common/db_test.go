package common

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithTx(t *testing.T) {
	db := TestDB("file://../../migrations", t)

	countUsers := func() int {
		var n int
		err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n)
		assert.NoError(t, err)
		return n
	}

	insert := func(tx *sql.Tx, username string) error {
		_, err := tx.Exec("INSERT INTO users (username, email, first_name, last_name, password) VALUES ($1, $2, 'Test', 'User', $3)", username, username+"@example.com", []byte("hash"))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("commit", func(t *testing.T) {
		err := WithTx(ctx, db, func(tx *sql.Tx) error {
			return insert(tx, "committed")
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, countUsers())
	})

	t.Run("rollback on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := WithTx(ctx, db, func(tx *sql.Tx) error {
			if err := insert(tx, "rolledback"); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, countUsers())
	})
}
