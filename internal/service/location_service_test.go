package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
)

type stubLocationRepo struct {
	locations  []models.Location
	dependents models.LocationDependents
	created    *models.Location
	updated    *models.Location
	deleted    []string
}

func (s *stubLocationRepo) List(ctx context.Context) ([]models.Location, error) {
	return s.locations, nil
}

func (s *stubLocationRepo) GetByID(ctx context.Context, id string) (*models.Location, error) {
	for i := range s.locations {
		if s.locations[i].ID == id {
			copy := s.locations[i]
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubLocationRepo) Create(ctx context.Context, location *models.Location) error {
	location.ID = "loc-new"
	s.created = location
	return nil
}

func (s *stubLocationRepo) Update(ctx context.Context, location *models.Location) error {
	s.updated = location
	return nil
}

func (s *stubLocationRepo) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubLocationRepo) Dependents(ctx context.Context, id string) (models.LocationDependents, error) {
	return s.dependents, nil
}

type stubLocationAssets struct{}

func (s *stubLocationAssets) List(ctx context.Context, filter models.AssetFilter) ([]models.Asset, int, error) {
	return []models.Asset{{ID: "asset-1", LocationID: &filter.LocationID}}, 1, nil
}

func strPtr(v string) *string { return &v }

func locationTree() []models.Location {
	return []models.Location{
		{ID: "pand", Name: "Hoofdgebouw"},
		{ID: "verdieping", Name: "2e verdieping", ParentID: strPtr("pand")},
		{ID: "kamer", Name: "Kamer 2.04", ParentID: strPtr("verdieping")},
		{ID: "schuur", Name: "Schuur"},
	}
}

func TestListLocationsBuildsFullPaths(t *testing.T) {
	repo := &stubLocationRepo{locations: locationTree()}
	svc := NewLocationService(repo, &stubLocationAssets{}, nil, nil)

	views, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 4)

	paths := make([]string, 0, len(views))
	for _, v := range views {
		paths = append(paths, v.Path)
	}
	assert.Equal(t, []string{
		"Hoofdgebouw",
		"Hoofdgebouw > 2e verdieping",
		"Hoofdgebouw > 2e verdieping > Kamer 2.04",
		"Schuur",
	}, paths, "ordered by path, parents before children")
}

func TestListLocationsBrokenParentChainFallsBack(t *testing.T) {
	repo := &stubLocationRepo{locations: []models.Location{
		{ID: "wees", Name: "Weeskamer", ParentID: strPtr("verdwenen")},
	}}
	svc := NewLocationService(repo, &stubLocationAssets{}, nil, nil)

	views, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Weeskamer", views[0].Path)
}

func TestGetLocationCollectsChildrenAndAssets(t *testing.T) {
	repo := &stubLocationRepo{locations: locationTree()}
	svc := NewLocationService(repo, &stubLocationAssets{}, nil, nil)

	detail, err := svc.Get(context.Background(), "verdieping")
	require.NoError(t, err)
	assert.Equal(t, "Hoofdgebouw > 2e verdieping", detail.Path)
	require.Len(t, detail.Children, 1)
	assert.Equal(t, "kamer", detail.Children[0].ID)
	require.Len(t, detail.Assets, 1)

	_, err = svc.Get(context.Background(), "bestaat-niet")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateLocationValidatesParent(t *testing.T) {
	repo := &stubLocationRepo{locations: locationTree()}
	svc := NewLocationService(repo, &stubLocationAssets{}, nil, nil)

	location, err := svc.Create(context.Background(), dto.LocationInput{Name: "  Kelder  ", ParentID: strPtr("pand")})
	require.NoError(t, err)
	assert.Equal(t, "Kelder", location.Name)

	_, err = svc.Create(context.Background(), dto.LocationInput{Name: "Zwevend", ParentID: strPtr("ghost")})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "parent location does not exist", appErr.Message)
}

func TestUpdateLocationRefusesCycles(t *testing.T) {
	repo := &stubLocationRepo{locations: locationTree()}
	svc := NewLocationService(repo, &stubLocationAssets{}, nil, nil)

	// Directly under itself.
	_, err := svc.Update(context.Background(), "pand", dto.LocationInput{Name: "Hoofdgebouw", ParentID: strPtr("pand")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	// Under a descendant two levels down.
	_, err = svc.Update(context.Background(), "pand", dto.LocationInput{Name: "Hoofdgebouw", ParentID: strPtr("kamer")})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.updated)

	// Moving sideways is fine.
	updated, err := svc.Update(context.Background(), "kamer", dto.LocationInput{Name: "Kamer 2.04", ParentID: strPtr("schuur")})
	require.NoError(t, err)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, "schuur", *updated.ParentID)
}

func TestDeleteLocationBlockedMessageNamesDependents(t *testing.T) {
	repo := &stubLocationRepo{
		locations:  locationTree(),
		dependents: models.LocationDependents{Children: 1, Assets: 2, Requests: 3},
	}
	svc := NewLocationService(repo, &stubLocationAssets{}, nil, nil)

	err := svc.Delete(context.Background(), "pand")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrLocationInUse.Code, appErr.Code)
	assert.Equal(t, "location is still referenced by 1 child location(s), 2 asset(s), 3 request(s)", appErr.Message)
	assert.Empty(t, repo.deleted)
}

func TestDeleteLocationWithoutDependents(t *testing.T) {
	repo := &stubLocationRepo{locations: locationTree()}
	svc := NewLocationService(repo, &stubLocationAssets{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "schuur"))
	assert.Equal(t, []string{"schuur"}, repo.deleted)
}
