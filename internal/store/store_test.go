package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vbonduro/mealledger/internal/db"
	"github.com/vbonduro/mealledger/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func seedUser(t *testing.T, d *sql.DB, id string) {
	t.Helper()
	err := NewUserStore(d).Create(context.Background(), &domain.User{
		ID:           id,
		Email:        id + "@example.com",
		Name:         id,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
}
