package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/camillebr/photosite/internal/content"
)

func TestTextStoreUpsertAndGet(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewTextStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO sections_texts").
		WithArgs("hero-title", "home", "Bienvenue").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Upsert(context.Background(), "hero-title", "home", "Bienvenue"))

	mock.ExpectQuery("SELECT id, section, page, content").
		WithArgs("hero-title").
		WillReturnRows(pgxmock.NewRows([]string{"id", "section", "page", "content"}).
			AddRow(int64(3), "hero-title", "home", "Bienvenue"))

	row, err := store.GetBySection(context.Background(), "hero-title")
	require.NoError(t, err)
	require.NotNil(t, row)
	require.Equal(t, "Bienvenue", row.Content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTextStoreGetMissingReturnsNil(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewTextStore(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, section, page, content").
		WithArgs("absent").
		WillReturnRows(pgxmock.NewRows([]string{"id", "section", "page", "content"}))

	row, err := store.GetBySection(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, row)
}

func TestTextStoreListByPage(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewTextStore(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, section, page, content").
		WithArgs("home").
		WillReturnRows(pgxmock.NewRows([]string{"id", "section", "page", "content"}).
			AddRow(int64(1), "hero-title", "home", "Bienvenue").
			AddRow(int64(2), "hero-sub", "home", "Photographe de famille"))

	rows, err := store.ListByPage(context.Background(), "home")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "hero-sub", rows[1].Section)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTextStoreDeleteWrapsError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewTextStore(mock)
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM sections_texts").
		WithArgs("hero-title").
		WillReturnError(context.DeadlineExceeded)

	err = store.DeleteBySection(context.Background(), "hero-title")
	require.ErrorIs(t, err, content.ErrStore)
}
