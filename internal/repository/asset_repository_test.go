package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paradisefm/facilities-api/internal/models"
)

func TestAssetRepositoryListFiltersAndPaginates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssetRepository(db)

	status := models.AssetAttention
	monument := true
	filter := models.AssetFilter{
		Status:   &status,
		Monument: &monument,
		Search:   "ketel",
		Page:     1,
		PageSize: 5,
	}

	pattern := `SELECT .+ FROM assets WHERE 1=1 AND status = \$1 AND is_monument = \$2` +
		regexp.QuoteMeta(` AND (asset_tag ILIKE $3 OR name ILIKE $3 OR manufacturer ILIKE $3 OR model ILIKE $3) ORDER BY asset_tag ASC LIMIT 5 OFFSET 0`)
	rows := sqlmock.NewRows([]string{"id", "asset_tag", "name", "status", "is_monument"}).
		AddRow("asset-1", "CV-AB12CD", "CV-ketel zolder", "attention", true)
	mock.ExpectQuery(pattern).WithArgs("attention", true, "%ketel%").WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM assets WHERE 1=1`).
		WithArgs("attention", true, "%ketel%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	assets, total, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "CV-AB12CD", assets[0].Tag)
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetRepositoryCreateMapsUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssetRepository(db)

	mock.ExpectExec(`INSERT INTO assets`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Asset{Tag: "CV-AB12CD", Name: "Ketel"})
	require.ErrorIs(t, err, ErrDuplicateTag)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetRepositoryCreateSetsIDAndTimestamps(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssetRepository(db)

	mock.ExpectExec(`INSERT INTO assets`).WillReturnResult(sqlmock.NewResult(0, 1))

	asset := &models.Asset{Tag: "CV-AB12CD", Name: "Ketel"}
	require.NoError(t, repo.Create(context.Background(), asset))
	assert.NotEmpty(t, asset.ID)
	assert.False(t, asset.CreatedAt.IsZero())
	assert.Equal(t, asset.CreatedAt, asset.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetRepositorySearchLimitsResults(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssetRepository(db)

	rows := sqlmock.NewRows([]string{"id", "asset_tag", "name"}).
		AddRow("asset-1", "CV-AB12CD", "CV-ketel")
	mock.ExpectQuery(`FROM assets`).WillReturnRows(rows)

	results, err := repo.Search(context.Background(), "ketel", "", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "CV-ketel", results[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
