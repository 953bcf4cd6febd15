package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/paradisefm/facilities-api/internal/models"
)

// Import file shapes. Natural keys: location name, asset name, request
// title, username. References between files go by name, never by id.

type importLocationRecord struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent"`
	Notes  string `yaml:"notes"`
}

type importAssetRecord struct {
	Tag          string     `yaml:"tag"`
	Name         string     `yaml:"name"`
	Category     string     `yaml:"category"`
	Location     string     `yaml:"location"`
	Manufacturer string     `yaml:"manufacturer"`
	Model        string     `yaml:"model"`
	SerialNumber string     `yaml:"serial_number"`
	InstallDate  *time.Time `yaml:"install_date"`
	Status       string     `yaml:"status"`
	Criticality  string     `yaml:"criticality"`
	IsMonument   bool       `yaml:"is_monument"`
	Description  string     `yaml:"description"`
}

type importRequestRecord struct {
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	Location       string `yaml:"location"`
	Asset          string `yaml:"asset"`
	Priority       string `yaml:"priority"`
	Status         string `yaml:"status"`
	RequesterName  string `yaml:"requester_name"`
	RequesterEmail string `yaml:"requester_email"`
}

type importAccountRecord struct {
	Username  string `yaml:"username"`
	Email     string `yaml:"email"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Role      string `yaml:"role"`
	Password  string `yaml:"password"`
}

type importLocationRepo interface {
	FindByName(ctx context.Context, name string) (*models.Location, error)
	Create(ctx context.Context, location *models.Location) error
	Update(ctx context.Context, location *models.Location) error
}

type importCategoryRepo interface {
	FindByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
}

type importAssetRepo interface {
	FindByName(ctx context.Context, name string) (*models.Asset, error)
	Create(ctx context.Context, asset *models.Asset) error
	Update(ctx context.Context, asset *models.Asset) error
}

type importRequestRepo interface {
	FindByTitle(ctx context.Context, title string) (*models.RepairRequest, error)
	Create(ctx context.Context, request *models.RepairRequest, logs []models.WorkLog) error
	Update(ctx context.Context, request *models.RepairRequest, logs []models.WorkLog) error
}

type importUserRepo interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// ImportStats counts what a run did.
type ImportStats struct {
	Created int
	Updated int
	Skipped int
}

func (s ImportStats) String() string {
	return fmt.Sprintf("created=%d updated=%d skipped=%d", s.Created, s.Updated, s.Skipped)
}

// ImportService loads YAML seed files. Runs are idempotent: records are
// upserted by natural key, so re-running a file is safe. DryRun validates
// and logs without writing.
type ImportService struct {
	locations  importLocationRepo
	categories importCategoryRepo
	assets     importAssetRepo
	requests   importRequestRepo
	users      importUserRepo
	DryRun     bool
	logger     *zap.Logger
}

// NewImportService constructs an ImportService instance.
func NewImportService(locations importLocationRepo, categories importCategoryRepo, assets importAssetRepo, requests importRequestRepo, users importUserRepo, dryRun bool, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		locations:  locations,
		categories: categories,
		assets:     assets,
		requests:   requests,
		users:      users,
		DryRun:     dryRun,
		logger:     logger,
	}
}

// ImportLocations reads a location file. Parents are resolved in a second
// pass so child rows may precede their parent in the file.
func (s *ImportService) ImportLocations(ctx context.Context, path string) (ImportStats, error) {
	var records []importLocationRecord
	if err := readYAML(path, &records); err != nil {
		return ImportStats{}, err
	}

	var stats ImportStats
	// First pass: ensure every named location exists.
	for _, rec := range records {
		if rec.Name == "" {
			s.logger.Warn("location record without name skipped")
			stats.Skipped++
			continue
		}
		existing, err := s.findLocation(ctx, rec.Name)
		if err != nil {
			return stats, err
		}
		if existing != nil {
			continue
		}
		if s.DryRun {
			s.logger.Info("would create location", zap.String("name", rec.Name))
			stats.Created++
			continue
		}
		if err := s.locations.Create(ctx, &models.Location{Name: rec.Name, Notes: rec.Notes}); err != nil {
			return stats, fmt.Errorf("create location %s: %w", rec.Name, err)
		}
		stats.Created++
	}
	if s.DryRun {
		return stats, nil
	}

	// Second pass: wire parents and notes now that all names resolve.
	for _, rec := range records {
		if rec.Name == "" {
			continue
		}
		location, err := s.findLocation(ctx, rec.Name)
		if err != nil || location == nil {
			continue
		}
		changed := false
		if rec.Parent != "" {
			parent, err := s.findLocation(ctx, rec.Parent)
			if err != nil {
				return stats, err
			}
			if parent == nil {
				s.logger.Warn("parent location not found, keeping null parent",
					zap.String("location", rec.Name), zap.String("parent", rec.Parent))
			} else if location.ParentID == nil || *location.ParentID != parent.ID {
				location.ParentID = &parent.ID
				changed = true
			}
		}
		if rec.Notes != "" && location.Notes != rec.Notes {
			location.Notes = rec.Notes
			changed = true
		}
		if changed {
			if err := s.locations.Update(ctx, location); err != nil {
				return stats, fmt.Errorf("update location %s: %w", rec.Name, err)
			}
			stats.Updated++
		}
	}
	return stats, nil
}

// ImportAssets reads an asset file. Missing locations log a warning and the
// asset is stored without one; missing categories are created on the fly.
func (s *ImportService) ImportAssets(ctx context.Context, path string) (ImportStats, error) {
	var records []importAssetRecord
	if err := readYAML(path, &records); err != nil {
		return ImportStats{}, err
	}

	var stats ImportStats
	for _, rec := range records {
		if rec.Name == "" || rec.Category == "" {
			s.logger.Warn("asset record missing name or category skipped", zap.String("name", rec.Name))
			stats.Skipped++
			continue
		}

		categoryID, err := s.resolveCategory(ctx, rec.Category)
		if err != nil {
			return stats, err
		}
		var locationID *string
		if rec.Location != "" {
			location, err := s.findLocation(ctx, rec.Location)
			if err != nil {
				return stats, err
			}
			if location == nil {
				s.logger.Warn("asset location not found, importing without location",
					zap.String("asset", rec.Name), zap.String("location", rec.Location))
			} else {
				locationID = &location.ID
			}
		}

		status := models.AssetOperational
		if rec.Status != "" {
			status = models.AssetStatus(rec.Status)
		}
		criticality := models.CriticalityMedium
		if rec.Criticality != "" {
			criticality = models.AssetCriticality(rec.Criticality)
		}

		existing, err := s.assets.FindByName(ctx, rec.Name)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return stats, fmt.Errorf("find asset %s: %w", rec.Name, err)
		}

		if existing != nil {
			if s.DryRun {
				s.logger.Info("would update asset", zap.String("name", rec.Name))
				stats.Updated++
				continue
			}
			existing.CategoryID = categoryID
			existing.LocationID = locationID
			existing.Manufacturer = rec.Manufacturer
			existing.Model = rec.Model
			existing.SerialNumber = rec.SerialNumber
			existing.InstallDate = rec.InstallDate
			existing.Status = status
			existing.Criticality = criticality
			existing.IsMonument = rec.IsMonument
			existing.Description = rec.Description
			if err := s.assets.Update(ctx, existing); err != nil {
				return stats, fmt.Errorf("update asset %s: %w", rec.Name, err)
			}
			stats.Updated++
			continue
		}

		tag := strings.ToUpper(strings.TrimSpace(rec.Tag))
		if tag == "" {
			tag = generateTag(models.DefaultTagPrefix)
		}
		asset := &models.Asset{
			Tag:          tag,
			Name:         rec.Name,
			CategoryID:   categoryID,
			LocationID:   locationID,
			Manufacturer: rec.Manufacturer,
			Model:        rec.Model,
			SerialNumber: rec.SerialNumber,
			InstallDate:  rec.InstallDate,
			Status:       status,
			Criticality:  criticality,
			IsMonument:   rec.IsMonument,
			Description:  rec.Description,
		}
		if s.DryRun {
			s.logger.Info("would create asset", zap.String("name", rec.Name), zap.String("tag", tag))
			stats.Created++
			continue
		}
		if err := s.assets.Create(ctx, asset); err != nil {
			return stats, fmt.Errorf("create asset %s: %w", rec.Name, err)
		}
		stats.Created++
	}
	return stats, nil
}

// ImportRequests reads a request file, upserting by title.
func (s *ImportService) ImportRequests(ctx context.Context, path string) (ImportStats, error) {
	var records []importRequestRecord
	if err := readYAML(path, &records); err != nil {
		return ImportStats{}, err
	}

	var stats ImportStats
	for _, rec := range records {
		if rec.Title == "" || rec.RequesterName == "" {
			s.logger.Warn("request record missing title or requester skipped", zap.String("title", rec.Title))
			stats.Skipped++
			continue
		}

		var locationID, assetID *string
		if rec.Location != "" {
			location, err := s.findLocation(ctx, rec.Location)
			if err != nil {
				return stats, err
			}
			if location == nil {
				s.logger.Warn("request location not found, importing without location",
					zap.String("request", rec.Title), zap.String("location", rec.Location))
			} else {
				locationID = &location.ID
			}
		}
		if rec.Asset != "" {
			asset, err := s.assets.FindByName(ctx, rec.Asset)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return stats, fmt.Errorf("find asset %s: %w", rec.Asset, err)
			}
			if asset == nil {
				s.logger.Warn("request asset not found, importing without asset",
					zap.String("request", rec.Title), zap.String("asset", rec.Asset))
			} else {
				assetID = &asset.ID
			}
		}

		priority := models.PriorityNormal
		if rec.Priority != "" {
			priority = models.RequestPriority(rec.Priority)
		}
		status := models.StatusNew
		if rec.Status != "" {
			status = models.RequestStatus(rec.Status)
		}

		existing, err := s.requests.FindByTitle(ctx, rec.Title)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return stats, fmt.Errorf("find request %s: %w", rec.Title, err)
		}
		if existing != nil {
			if s.DryRun {
				s.logger.Info("would update request", zap.String("title", rec.Title))
				stats.Updated++
				continue
			}
			existing.Description = rec.Description
			existing.LocationID = locationID
			existing.AssetID = assetID
			existing.Priority = priority
			existing.Status = status
			if err := s.requests.Update(ctx, existing, nil); err != nil {
				return stats, fmt.Errorf("update request %s: %w", rec.Title, err)
			}
			stats.Updated++
			continue
		}

		request := &models.RepairRequest{
			Title:            rec.Title,
			Description:      rec.Description,
			LocationID:       locationID,
			AssetID:          assetID,
			Priority:         priority,
			Status:           status,
			RequesterName:    rec.RequesterName,
			RequesterEmail:   rec.RequesterEmail,
			PreferredContact: models.ContactEmail,
			QuoteStatus:      models.QuoteNone,
		}
		if s.DryRun {
			s.logger.Info("would create request", zap.String("title", rec.Title))
			stats.Created++
			continue
		}
		created := models.WorkLog{
			EntryType: models.WorkLogCreated,
			Note:      fmt.Sprintf("Verzoek ingediend door %s", rec.RequesterName),
		}
		if err := s.requests.Create(ctx, request, []models.WorkLog{created}); err != nil {
			return stats, fmt.Errorf("create request %s: %w", rec.Title, err)
		}
		stats.Created++
	}
	return stats, nil
}

// ImportAccounts reads an account file. New accounts get the given password
// (or a generated one) and must change it on first login.
func (s *ImportService) ImportAccounts(ctx context.Context, path string) (ImportStats, error) {
	var records []importAccountRecord
	if err := readYAML(path, &records); err != nil {
		return ImportStats{}, err
	}

	var stats ImportStats
	for _, rec := range records {
		if rec.Username == "" {
			s.logger.Warn("account record without username skipped")
			stats.Skipped++
			continue
		}
		existing, err := s.users.FindByUsername(ctx, rec.Username)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return stats, fmt.Errorf("find user %s: %w", rec.Username, err)
		}
		if existing != nil {
			stats.Skipped++
			continue
		}

		role := models.RoleUser
		if rec.Role != "" {
			role = models.UserRole(strings.ToUpper(rec.Role))
		}
		password := rec.Password
		if password == "" {
			token, err := generateInvitationToken()
			if err != nil {
				return stats, fmt.Errorf("generate password for %s: %w", rec.Username, err)
			}
			password = token[:16]
			s.logger.Info("generated initial password", zap.String("username", rec.Username), zap.String("password", password))
		}
		if s.DryRun {
			s.logger.Info("would create account", zap.String("username", rec.Username), zap.String("role", string(role)))
			stats.Created++
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return stats, fmt.Errorf("hash password for %s: %w", rec.Username, err)
		}
		user := &models.User{
			Username:           strings.ToLower(rec.Username),
			Email:              rec.Email,
			PasswordHash:       string(hash),
			FirstName:          rec.FirstName,
			LastName:           rec.LastName,
			Role:               role,
			Active:             true,
			MustChangePassword: true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return stats, fmt.Errorf("create user %s: %w", rec.Username, err)
		}
		stats.Created++
	}
	return stats, nil
}

func (s *ImportService) findLocation(ctx context.Context, name string) (*models.Location, error) {
	location, err := s.locations.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find location %s: %w", name, err)
	}
	return location, nil
}

func (s *ImportService) resolveCategory(ctx context.Context, name string) (string, error) {
	category, err := s.categories.FindByName(ctx, name)
	if err == nil {
		return category.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("find category %s: %w", name, err)
	}
	if s.DryRun {
		return "", nil
	}
	category = &models.Category{Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		return "", fmt.Errorf("create category %s: %w", name, err)
	}
	return category.ID, nil
}

func readYAML(path string, dest interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
