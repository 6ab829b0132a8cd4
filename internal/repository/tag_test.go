package repository

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greg-hahn/cog-council-meetings/internal/domain"
)

func TestTagGetOrCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TagRepository{db: mock}

	mock.ExpectQuery("INSERT INTO tag").
		WithArgs("budget").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(int64(3), "budget"))

	tag, err := repo.GetOrCreate(context.Background(), "budget")
	require.NoError(t, err)

	assert.Equal(t, int64(3), tag.ID)
	assert.Equal(t, "budget", tag.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagGetByNameNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TagRepository{db: mock}

	mock.ExpectQuery("SELECT id, name FROM tag").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}))

	_, err = repo.GetByName(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTagNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagCountsByMunicipality(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TagRepository{db: mock}

	mock.ExpectQuery("SELECT t.name, COUNT").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"name", "count"}).
			AddRow("budget", int64(4)).
			AddRow("zoning", int64(2)))

	counts, err := repo.CountsByMunicipality(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, counts, 2)
	assert.Equal(t, "budget", counts[0].Name)
	assert.Equal(t, int64(4), counts[0].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}
