package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/paradisefm/facilities-api/internal/models"
)

type importLocationsStub struct {
	byName  map[string]*models.Location
	created []*models.Location
	updated []*models.Location
}

func (s *importLocationsStub) FindByName(_ context.Context, name string) (*models.Location, error) {
	if loc, ok := s.byName[name]; ok {
		copied := *loc
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *importLocationsStub) Create(_ context.Context, location *models.Location) error {
	location.ID = fmt.Sprintf("loc-%d", len(s.byName)+1)
	s.byName[location.Name] = location
	s.created = append(s.created, location)
	return nil
}

func (s *importLocationsStub) Update(_ context.Context, location *models.Location) error {
	s.byName[location.Name] = location
	s.updated = append(s.updated, location)
	return nil
}

type importCategoriesStub struct {
	byName  map[string]*models.Category
	created []*models.Category
}

func (s *importCategoriesStub) FindByName(_ context.Context, name string) (*models.Category, error) {
	if cat, ok := s.byName[name]; ok {
		return cat, nil
	}
	return nil, sql.ErrNoRows
}

func (s *importCategoriesStub) Create(_ context.Context, category *models.Category) error {
	category.ID = fmt.Sprintf("cat-%d", len(s.byName)+1)
	s.byName[category.Name] = category
	s.created = append(s.created, category)
	return nil
}

type importAssetsStub struct {
	byName  map[string]*models.Asset
	created []*models.Asset
	updated []*models.Asset
}

func (s *importAssetsStub) FindByName(_ context.Context, name string) (*models.Asset, error) {
	if asset, ok := s.byName[name]; ok {
		copied := *asset
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *importAssetsStub) Create(_ context.Context, asset *models.Asset) error {
	asset.ID = fmt.Sprintf("asset-%d", len(s.byName)+1)
	s.byName[asset.Name] = asset
	s.created = append(s.created, asset)
	return nil
}

func (s *importAssetsStub) Update(_ context.Context, asset *models.Asset) error {
	s.byName[asset.Name] = asset
	s.updated = append(s.updated, asset)
	return nil
}

type importRequestsStub struct {
	byTitle     map[string]*models.RepairRequest
	created     []*models.RepairRequest
	createdLogs [][]models.WorkLog
	updated     []*models.RepairRequest
}

func (s *importRequestsStub) FindByTitle(_ context.Context, title string) (*models.RepairRequest, error) {
	if req, ok := s.byTitle[title]; ok {
		copied := *req
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *importRequestsStub) Create(_ context.Context, request *models.RepairRequest, logs []models.WorkLog) error {
	request.ID = fmt.Sprintf("req-%d", len(s.byTitle)+1)
	s.byTitle[request.Title] = request
	s.created = append(s.created, request)
	s.createdLogs = append(s.createdLogs, logs)
	return nil
}

func (s *importRequestsStub) Update(_ context.Context, request *models.RepairRequest, _ []models.WorkLog) error {
	s.byTitle[request.Title] = request
	s.updated = append(s.updated, request)
	return nil
}

type importUsersStub struct {
	byUsername map[string]*models.User
	created    []*models.User
}

func (s *importUsersStub) FindByUsername(_ context.Context, username string) (*models.User, error) {
	if user, ok := s.byUsername[username]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *importUsersStub) Create(_ context.Context, user *models.User) error {
	user.ID = fmt.Sprintf("u-%d", len(s.byUsername)+1)
	s.byUsername[user.Username] = user
	s.created = append(s.created, user)
	return nil
}

type importStubs struct {
	locations  *importLocationsStub
	categories *importCategoriesStub
	assets     *importAssetsStub
	requests   *importRequestsStub
	users      *importUsersStub
}

func newTestImportService(dryRun bool) (*ImportService, *importStubs) {
	stubs := &importStubs{
		locations:  &importLocationsStub{byName: map[string]*models.Location{}},
		categories: &importCategoriesStub{byName: map[string]*models.Category{}},
		assets:     &importAssetsStub{byName: map[string]*models.Asset{}},
		requests:   &importRequestsStub{byTitle: map[string]*models.RepairRequest{}},
		users:      &importUsersStub{byUsername: map[string]*models.User{}},
	}
	svc := NewImportService(stubs.locations, stubs.categories, stubs.assets, stubs.requests, stubs.users, dryRun, nil)
	return svc, stubs
}

func writeImportFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportLocationsResolvesParentListedLater(t *testing.T) {
	svc, stubs := newTestImportService(false)
	path := writeImportFile(t, `
- name: Kamer 2.04
  parent: Hoofdgebouw
- name: Hoofdgebouw
`)

	stats, err := svc.ImportLocations(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 0, stats.Skipped)

	parent := stubs.locations.byName["Hoofdgebouw"]
	child := stubs.locations.byName["Kamer 2.04"]
	require.NotNil(t, parent)
	require.NotNil(t, child)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)
}

func TestImportLocationsUnknownParentKeepsNull(t *testing.T) {
	svc, stubs := newTestImportService(false)
	path := writeImportFile(t, `
- name: Schuur
  parent: Landgoed
`)

	stats, err := svc.ImportLocations(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 0, stats.Updated)
	assert.Nil(t, stubs.locations.byName["Schuur"].ParentID)
	assert.NotContains(t, stubs.locations.byName, "Landgoed")
}

func TestImportLocationsSkipsRecordWithoutName(t *testing.T) {
	svc, stubs := newTestImportService(false)
	path := writeImportFile(t, `
- notes: verdwaalde regel
- name: Kerkzaal
`)

	stats, err := svc.ImportLocations(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Skipped)
	assert.Len(t, stubs.locations.created, 1)
}

func TestImportLocationsIsIdempotent(t *testing.T) {
	svc, stubs := newTestImportService(false)
	path := writeImportFile(t, `
- name: Hoofdgebouw
- name: Kamer 2.04
  parent: Hoofdgebouw
`)

	_, err := svc.ImportLocations(context.Background(), path)
	require.NoError(t, err)
	second, err := svc.ImportLocations(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Updated)
	assert.Len(t, stubs.locations.created, 2)
}

func TestImportAssetsCreatesCategoryAndWarnsOnMissingLocation(t *testing.T) {
	svc, stubs := newTestImportService(false)
	path := writeImportFile(t, `
- name: CV-ketel kelder
  category: Verwarming
  location: Onbekende vleugel
  tag: cv-0099
`)

	stats, err := svc.ImportAssets(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Created)
	require.Len(t, stubs.categories.created, 1)
	assert.Equal(t, "Verwarming", stubs.categories.created[0].Name)

	require.Len(t, stubs.assets.created, 1)
	created := stubs.assets.created[0]
	assert.Equal(t, "CV-0099", created.Tag)
	assert.Equal(t, stubs.categories.created[0].ID, created.CategoryID)
	assert.Nil(t, created.LocationID)
	assert.Equal(t, models.AssetOperational, created.Status)
	assert.Equal(t, models.CriticalityMedium, created.Criticality)
}

func TestImportAssetsGeneratesTagWhenAbsent(t *testing.T) {
	svc, stubs := newTestImportService(false)
	path := writeImportFile(t, `
- name: Orgel
  category: Instrumenten
`)

	_, err := svc.ImportAssets(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, stubs.assets.created, 1)
	pattern := regexp.MustCompile("^" + models.DefaultTagPrefix + "-[0-9A-F]{6}$")
	assert.Regexp(t, pattern, stubs.assets.created[0].Tag)
}

func TestImportAssetsUpdatesExistingByName(t *testing.T) {
	svc, stubs := newTestImportService(false)
	stubs.categories.byName["Verwarming"] = &models.Category{ID: "cat-heat", Name: "Verwarming"}
	stubs.assets.byName["CV-ketel kelder"] = &models.Asset{
		ID:         "asset-1",
		Tag:        "CV-0001",
		Name:       "CV-ketel kelder",
		CategoryID: "cat-heat",
	}
	path := writeImportFile(t, `
- name: CV-ketel kelder
  category: Verwarming
  manufacturer: Remeha
  status: attention
`)

	stats, err := svc.ImportAssets(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 1, stats.Updated)
	require.Len(t, stubs.assets.updated, 1)
	updated := stubs.assets.updated[0]
	assert.Equal(t, "CV-0001", updated.Tag)
	assert.Equal(t, "Remeha", updated.Manufacturer)
	assert.Equal(t, models.AssetAttention, updated.Status)
}

func TestImportAssetsSkipsRecordMissingNameOrCategory(t *testing.T) {
	svc, stubs := newTestImportService(false)
	path := writeImportFile(t, `
- name: Zonder categorie
- category: Zonder naam
`)

	stats, err := svc.ImportAssets(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Skipped)
	assert.Empty(t, stubs.assets.created)
}

func TestImportRequestsCreatesWithIntakeLog(t *testing.T) {
	svc, stubs := newTestImportService(false)
	path := writeImportFile(t, `
- title: Lekkage dak consistorie
  description: Druppels bij de dakgoot
  requester_name: Jan Jansen
  requester_email: jan@example.org
  priority: high
`)

	stats, err := svc.ImportRequests(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Created)
	require.Len(t, stubs.requests.created, 1)
	created := stubs.requests.created[0]
	assert.Equal(t, models.PriorityHigh, created.Priority)
	assert.Equal(t, models.StatusNew, created.Status)
	assert.Equal(t, models.ContactEmail, created.PreferredContact)
	assert.Equal(t, models.QuoteNone, created.QuoteStatus)

	require.Len(t, stubs.requests.createdLogs, 1)
	require.Len(t, stubs.requests.createdLogs[0], 1)
	log := stubs.requests.createdLogs[0][0]
	assert.Equal(t, models.WorkLogCreated, log.EntryType)
	assert.Equal(t, "Verzoek ingediend door Jan Jansen", log.Note)
}

func TestImportRequestsUpsertsByTitle(t *testing.T) {
	svc, stubs := newTestImportService(false)
	stubs.requests.byTitle["Lekkage dak consistorie"] = &models.RepairRequest{
		ID:     "req-1",
		Title:  "Lekkage dak consistorie",
		Status: models.StatusNew,
	}
	path := writeImportFile(t, `
- title: Lekkage dak consistorie
  requester_name: Jan Jansen
  status: in_progress
`)

	stats, err := svc.ImportRequests(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Created)
	assert.Equal(t, 1, stats.Updated)
	require.Len(t, stubs.requests.updated, 1)
	assert.Equal(t, models.StatusInProgress, stubs.requests.updated[0].Status)
}

func TestImportAccountsForcesPasswordChange(t *testing.T) {
	svc, stubs := newTestImportService(false)
	path := writeImportFile(t, `
- username: Koster
  email: koster@example.org
  first_name: Piet
  last_name: Pietersen
  role: staff
  password: wachtwoord123
`)

	stats, err := svc.ImportAccounts(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Created)
	require.Len(t, stubs.users.created, 1)
	user := stubs.users.created[0]
	assert.Equal(t, "koster", user.Username)
	assert.Equal(t, models.RoleStaff, user.Role)
	assert.True(t, user.Active)
	assert.True(t, user.MustChangePassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("wachtwoord123")))
}

func TestImportAccountsGeneratesPasswordWhenAbsent(t *testing.T) {
	svc, stubs := newTestImportService(false)
	path := writeImportFile(t, `
- username: vrijwilliger
`)

	stats, err := svc.ImportAccounts(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Created)
	require.Len(t, stubs.users.created, 1)
	assert.NotEmpty(t, stubs.users.created[0].PasswordHash)
}

func TestImportAccountsSkipsExistingUsername(t *testing.T) {
	svc, stubs := newTestImportService(false)
	stubs.users.byUsername["koster"] = &models.User{ID: "u-1", Username: "koster"}
	path := writeImportFile(t, `
- username: koster
`)

	stats, err := svc.ImportAccounts(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, stubs.users.created)
}

func TestImportDryRunCountsWithoutWriting(t *testing.T) {
	svc, stubs := newTestImportService(true)
	path := writeImportFile(t, `
- name: Orgel
  category: Instrumenten
`)

	stats, err := svc.ImportAssets(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Created)
	assert.Empty(t, stubs.assets.created)
	assert.Empty(t, stubs.categories.created)
}
