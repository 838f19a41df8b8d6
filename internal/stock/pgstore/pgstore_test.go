package pgstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"boutique-system/internal/stock"
)

func TestMapLockErrorTranslatesLockNotAvailable(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "55P03", Message: "could not obtain lock on row"}

	err := mapLockError(pgErr)
	require.ErrorIs(t, err, stock.ErrLockNotAvailable)

	// gorm wraps driver errors, the mapping must see through the chain.
	wrapped := fmt.Errorf("lock stock items: %w", pgErr)
	assert.ErrorIs(t, mapLockError(wrapped), stock.ErrLockNotAvailable)
}

func TestMapLockErrorPassesOtherErrorsThrough(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
	assert.Same(t, error(unique), mapLockError(unique))
	assert.NotErrorIs(t, mapLockError(unique), stock.ErrLockNotAvailable)

	assert.ErrorIs(t, mapLockError(gorm.ErrRecordNotFound), gorm.ErrRecordNotFound)

	plain := errors.New("connection reset")
	assert.Same(t, plain, mapLockError(plain))
}
