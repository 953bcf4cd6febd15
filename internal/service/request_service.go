package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
	"github.com/paradisefm/facilities-api/pkg/config"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
	"github.com/paradisefm/facilities-api/pkg/jobs"
	"github.com/paradisefm/facilities-api/pkg/mailer"
	"github.com/paradisefm/facilities-api/pkg/storage"
)

type requestRepository interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.RepairRequest, int, error)
	GetByID(ctx context.Context, id string, includeDeleted bool) (*models.RepairRequest, error)
	Create(ctx context.Context, request *models.RepairRequest, logs []models.WorkLog) error
	Update(ctx context.Context, request *models.RepairRequest, logs []models.WorkLog) error
	SoftDelete(ctx context.Context, id, deletedByID string) error
	StatusCounts(ctx context.Context, today time.Time) (*models.RequestStatusCounts, error)
	ListOpenForDashboard(ctx context.Context, limit int) ([]models.RepairRequest, error)
	ListWorkLogs(ctx context.Context, requestID string) ([]models.WorkLog, error)
	AddWorkLog(ctx context.Context, log *models.WorkLog) error
}

type requestAttachmentRepository interface {
	ListByRequest(ctx context.Context, requestID string) ([]models.Attachment, error)
	GetByID(ctx context.Context, id string) (*models.Attachment, error)
	Create(ctx context.Context, attachment *models.Attachment) error
}

type requestUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type requestCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type attachmentStore interface {
	SaveAttachment(requestID, originalName string, r io.Reader) (string, error)
	Path(relPath string) string
}

// RequestService is the work-order core: intake, triage, activity trail,
// attachments and the staff dashboard.
type RequestService struct {
	repo          requestRepository
	attachments   requestAttachmentRepository
	users         requestUserReader
	notifications *NotificationService
	store         attachmentStore
	signer        *storage.SignedURLSigner
	cache         requestCache
	queue         *jobs.Queue
	mailCfg       config.MailConfig
	uploadCfg     config.UploadConfig
	dashboardTTL  time.Duration
	validator     *validator.Validate
	logger        *zap.Logger
}

// RequestServiceParams bundles the many collaborators of RequestService.
type RequestServiceParams struct {
	Repo          requestRepository
	Attachments   requestAttachmentRepository
	Users         requestUserReader
	Notifications *NotificationService
	Store         attachmentStore
	Signer        *storage.SignedURLSigner
	Cache         requestCache
	Queue         *jobs.Queue
	MailCfg       config.MailConfig
	UploadCfg     config.UploadConfig
	DashboardTTL  time.Duration
	Validator     *validator.Validate
	Logger        *zap.Logger
}

// NewRequestService constructs a RequestService instance.
func NewRequestService(p RequestServiceParams) *RequestService {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	return &RequestService{
		repo:          p.Repo,
		attachments:   p.Attachments,
		users:         p.Users,
		notifications: p.Notifications,
		store:         p.Store,
		signer:        p.Signer,
		cache:         p.Cache,
		queue:         p.Queue,
		mailCfg:       p.MailCfg,
		uploadCfg:     p.UploadCfg,
		dashboardTTL:  p.DashboardTTL,
		validator:     p.Validator,
		logger:        p.Logger,
	}
}

// Create handles the public intake form. Claims may be nil for anonymous
// submissions; a logged-in requester is linked by account.
func (s *RequestService) Create(ctx context.Context, input dto.CreateRequestInput, claims *models.JWTClaims) (*models.RepairRequest, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}

	priority := models.PriorityNormal
	if input.Priority != "" {
		priority = models.RequestPriority(input.Priority)
	}
	contact := models.ContactEmail
	if input.PreferredContact != "" {
		contact = models.ContactMethod(input.PreferredContact)
	}

	request := &models.RepairRequest{
		Title:            strings.TrimSpace(input.Title),
		Description:      input.Description,
		LocationID:       input.LocationID,
		AssetID:          input.AssetID,
		Priority:         priority,
		Status:           models.StatusNew,
		RequesterName:    strings.TrimSpace(input.RequesterName),
		RequesterEmail:   strings.TrimSpace(input.RequesterEmail),
		RequesterPhone:   strings.TrimSpace(input.RequesterPhone),
		PreferredContact: contact,
		QuoteStatus:      models.QuoteNone,
	}
	if claims != nil {
		request.RequesterUserID = &claims.UserID
		if request.RequesterEmail == "" {
			request.RequesterEmail = claims.Email
		}
	}

	created := models.WorkLog{
		EntryType: models.WorkLogCreated,
		Note:      fmt.Sprintf("Verzoek ingediend door %s", request.RequesterName),
	}
	if claims != nil {
		created.AuthorID = &claims.UserID
	}

	if err := s.repo.Create(ctx, request, []models.WorkLog{created}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}

	s.invalidateCaches(ctx)
	s.sendIntakeMail(request)
	return request, nil
}

// List applies the caller's visibility: staff see everything the filter
// allows, other accounts only their own submissions.
func (s *RequestService) List(ctx context.Context, filter models.RequestFilter, claims *models.JWTClaims) ([]models.RepairRequest, *models.Pagination, error) {
	if !claims.IsStaff() {
		filter.IncludeDeleted = false
		filter.RequesterUserID = claims.UserID
		filter.RequesterEmail = claims.Email
	}
	if filter.Assigned == "me" {
		filter.Assigned = claims.UserID
	}

	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 25
	}
	return requests, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a request with its activity trail and attachments, applying
// the same visibility rule as List.
func (s *RequestService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*dto.RequestDetail, error) {
	request, err := s.load(ctx, id, claims.IsStaff())
	if err != nil {
		return nil, err
	}
	if !s.canView(request, claims) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}

	logs, err := s.repo.ListWorkLogs(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list work logs")
	}
	attachments, err := s.attachments.ListByRequest(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attachments")
	}

	views := make([]dto.AttachmentView, 0, len(attachments))
	for _, a := range attachments {
		view := dto.AttachmentView{
			ID:           a.ID,
			Name:         a.DisplayName(),
			OriginalName: a.OriginalName,
			Kind:         string(storage.Classify(a.OriginalName)),
			UploadedByID: a.UploadedByID,
			UploadedAt:   a.UploadedAt,
		}
		if s.signer != nil {
			token, _, err := s.signer.Generate(a.ID, a.StoredPath)
			if err != nil {
				s.logger.Warn("failed to sign attachment url", zap.String("attachment_id", a.ID), zap.Error(err))
			} else {
				view.URL = "/attachments/download/" + token
			}
		}
		views = append(views, view)
	}

	return &dto.RequestDetail{Request: *request, WorkLogs: logs, Attachments: views}, nil
}

// Update applies the staff triage form. Every status or assignment change
// appends exactly one work-log entry in the same transaction as the update.
func (s *RequestService) Update(ctx context.Context, id string, input dto.UpdateRequestInput, claims *models.JWTClaims) (*models.RepairRequest, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	request, err := s.load(ctx, id, true)
	if err != nil {
		return nil, err
	}

	var logs []models.WorkLog
	var notifyAssignee *models.User
	actor, actorName := s.actor(ctx, claims)

	if input.Status != nil {
		newStatus := models.RequestStatus(*input.Status)
		if newStatus != request.Status {
			logs = append(logs, models.WorkLog{
				AuthorID:  actor,
				EntryType: models.WorkLogStatusChange,
				Note:      fmt.Sprintf("Status gewijzigd van %s naar %s", models.StatusLabels[request.Status], models.StatusLabels[newStatus]),
			})
			if newStatus == models.StatusTriaged && request.TriagedByID == nil {
				request.TriagedByID = actor
			}
			if newStatus == models.StatusClosed && request.ClosedAt == nil {
				now := time.Now().UTC()
				request.ClosedAt = &now
			}
			request.Status = newStatus
		}
	}

	if input.AssignedToID != nil || input.ClearAssignee {
		var newAssignee *string
		if !input.ClearAssignee && input.AssignedToID != nil && *input.AssignedToID != "" {
			newAssignee = input.AssignedToID
		}
		if !equalPtr(request.AssignedToID, newAssignee) {
			if newAssignee == nil {
				logs = append(logs, models.WorkLog{
					AuthorID:  actor,
					EntryType: models.WorkLogAssignment,
					Note:      "Toewijzing verwijderd",
				})
			} else {
				assignee, err := s.users.FindByID(ctx, *newAssignee)
				if err != nil {
					if errors.Is(err, sql.ErrNoRows) {
						return nil, appErrors.Clone(appErrors.ErrValidation, "assignee does not exist")
					}
					return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignee")
				}
				logs = append(logs, models.WorkLog{
					AuthorID:  actor,
					EntryType: models.WorkLogAssignment,
					Note:      fmt.Sprintf("Toegewezen aan %s", assignee.DisplayName()),
				})
				notifyAssignee = assignee
			}
			request.AssignedToID = newAssignee
		}
	}

	if input.Priority != nil {
		request.Priority = models.RequestPriority(*input.Priority)
	}
	if input.LocationID != nil {
		request.LocationID = input.LocationID
	}
	if input.AssetID != nil {
		request.AssetID = input.AssetID
	}
	if input.ClearDueDate {
		request.DueDate = nil
	} else if input.DueDate != nil {
		due := models.Midnight(*input.DueDate)
		request.DueDate = &due
	}
	if input.EstimatedCost != nil {
		request.EstimatedCost = input.EstimatedCost
	}
	if input.ActualCost != nil {
		request.ActualCost = input.ActualCost
	}
	if input.Vendor != nil {
		request.Vendor = *input.Vendor
	}
	if input.QuoteAmount != nil {
		request.QuoteAmount = input.QuoteAmount
	}
	if input.QuoteStatus != nil {
		request.QuoteStatus = models.QuoteStatus(*input.QuoteStatus)
	}
	if input.PONumber != nil {
		request.PONumber = *input.PONumber
	}

	if err := s.repo.Update(ctx, request, logs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}
	s.invalidateCaches(ctx)
	if notifyAssignee != nil && s.notifications != nil {
		s.notifications.NotifyAssignment(ctx, *notifyAssignee, request, actorName)
	}
	return request, nil
}

// UpdateDescription is the focused description edit.
func (s *RequestService) UpdateDescription(ctx context.Context, id string, input dto.UpdateDescriptionInput) (*models.RepairRequest, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid description payload")
	}
	request, err := s.load(ctx, id, true)
	if err != nil {
		return nil, err
	}
	request.Description = input.Description
	if err := s.repo.Update(ctx, request, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update description")
	}
	return request, nil
}

// UpdateResolution is the focused resolution edit.
func (s *RequestService) UpdateResolution(ctx context.Context, id string, input dto.UpdateResolutionInput) (*models.RepairRequest, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolution payload")
	}
	request, err := s.load(ctx, id, true)
	if err != nil {
		return nil, err
	}
	request.ResolutionSummary = input.ResolutionSummary
	if err := s.repo.Update(ctx, request, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update resolution")
	}
	return request, nil
}

// Duplicate copies title, description, location, asset and priority into a
// fresh request in state new, attributed to the acting staff member.
func (s *RequestService) Duplicate(ctx context.Context, id string, claims *models.JWTClaims) (*models.RepairRequest, error) {
	source, err := s.load(ctx, id, true)
	if err != nil {
		return nil, err
	}
	actor, actorName := s.actor(ctx, claims)

	copyReq := &models.RepairRequest{
		Title:            source.Title,
		Description:      source.Description,
		LocationID:       source.LocationID,
		AssetID:          source.AssetID,
		Priority:         source.Priority,
		Status:           models.StatusNew,
		RequesterName:    actorName,
		RequesterEmail:   claims.Email,
		PreferredContact: models.ContactEmail,
		RequesterUserID:  actor,
		QuoteStatus:      models.QuoteNone,
	}
	created := models.WorkLog{
		AuthorID:  actor,
		EntryType: models.WorkLogCreated,
		Note:      fmt.Sprintf("Gedupliceerd van verzoek #%d", source.Number),
	}
	if err := s.repo.Create(ctx, copyReq, []models.WorkLog{created}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to duplicate request")
	}
	s.invalidateCaches(ctx)
	return copyReq, nil
}

// Delete soft-deletes a request. History and work logs stay in place.
func (s *RequestService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	if _, err := s.load(ctx, id, false); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id, claims.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}
	s.invalidateCaches(ctx)
	return nil
}

// AddWorkLog appends a note or time entry. Mentioned users are notified;
// notification problems never fail the write.
func (s *RequestService) AddWorkLog(ctx context.Context, id string, input dto.AddWorkLogInput, claims *models.JWTClaims) (*models.WorkLog, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid work log payload")
	}
	request, err := s.load(ctx, id, claims.IsStaff())
	if err != nil {
		return nil, err
	}
	if !s.canView(request, claims) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}

	entryType := models.WorkLogNote
	if input.MinutesSpent != nil {
		entryType = models.WorkLogTimeSpent
	}
	log := &models.WorkLog{
		RequestID:    id,
		AuthorID:     &claims.UserID,
		EntryType:    entryType,
		Note:         input.Note,
		MinutesSpent: input.MinutesSpent,
	}
	if err := s.repo.AddWorkLog(ctx, log); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add work log")
	}

	if s.notifications != nil && input.Note != "" {
		_, actorName := s.actor(ctx, claims)
		s.notifications.NotifyMentions(ctx, input.Note, request, actorName)
	}
	return log, nil
}

// AddAttachment validates and stores an uploaded file for the request.
func (s *RequestService) AddAttachment(ctx context.Context, id, originalName, title string, size int64, r io.Reader, claims *models.JWTClaims) (*models.Attachment, error) {
	request, err := s.load(ctx, id, claims.IsStaff())
	if err != nil {
		return nil, err
	}
	if !s.canView(request, claims) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
	}
	var uploadedBy *string
	if claims != nil {
		uploadedBy = &claims.UserID
	}
	return s.storeAttachment(ctx, id, originalName, title, size, r, uploadedBy)
}

// AddIntakePhoto stores a photo submitted alongside the public intake form.
// The caller just created the request, so no visibility check applies.
func (s *RequestService) AddIntakePhoto(ctx context.Context, id, originalName string, size int64, r io.Reader) (*models.Attachment, error) {
	return s.storeAttachment(ctx, id, originalName, "", size, r, nil)
}

func (s *RequestService) storeAttachment(ctx context.Context, id, originalName, title string, size int64, r io.Reader, uploadedBy *string) (*models.Attachment, error) {
	if size > s.uploadCfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrFileTooLarge,
			fmt.Sprintf("file exceeds the %d byte upload limit", s.uploadCfg.MaxFileSizeBytes))
	}
	if !s.allowedExtension(originalName) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFile,
			fmt.Sprintf("file type %s is not allowed", filepath.Ext(originalName)))
	}

	storedPath, err := s.store.SaveAttachment(id, originalName, io.LimitReader(r, s.uploadCfg.MaxFileSizeBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachment")
	}

	attachment := &models.Attachment{
		RequestID:    id,
		StoredPath:   storedPath,
		OriginalName: originalName,
		Title:        title,
		UploadedByID: uploadedBy,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attachment metadata")
	}
	return attachment, nil
}

// ResolveDownload validates a signed download token and returns the
// attachment metadata with the absolute path of the stored file. Possession
// of an unexpired token is the only credential.
func (s *RequestService) ResolveDownload(ctx context.Context, token string) (*models.Attachment, string, error) {
	attachmentID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "download link is invalid or expired")
	}
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	if attachment.StoredPath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "download link is invalid or expired")
	}
	return attachment, s.store.Path(relPath), nil
}

// Dashboard assembles the staff landing payload, served from Redis when the
// cached copy is fresh.
func (s *RequestService) Dashboard(ctx context.Context) (*dto.Dashboard, error) {
	const cacheKey = "facilities:dashboard"
	if s.cache != nil {
		var cached dto.Dashboard
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	now := time.Now().UTC()
	counts, err := s.repo.StatusCounts(ctx, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status counts")
	}
	open, err := s.repo.ListOpenForDashboard(ctx, 25)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list open requests")
	}

	dashboard := &dto.Dashboard{Counts: *counts, OpenRequests: open, GeneratedAt: now}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, dashboard, s.dashboardTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return dashboard, nil
}

func (s *RequestService) load(ctx context.Context, id string, includeDeleted bool) (*models.RepairRequest, error) {
	request, err := s.repo.GetByID(ctx, id, includeDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return request, nil
}

// canView implements the visibility rule: staff see everything, others only
// requests they submitted by account or by matching email address.
func (s *RequestService) canView(request *models.RepairRequest, claims *models.JWTClaims) bool {
	if claims.IsStaff() {
		return true
	}
	if claims == nil {
		return false
	}
	if request.RequesterUserID != nil && *request.RequesterUserID == claims.UserID {
		return true
	}
	return claims.Email != "" && strings.EqualFold(request.RequesterEmail, claims.Email)
}

// actor resolves the acting user's id pointer and display name.
func (s *RequestService) actor(ctx context.Context, claims *models.JWTClaims) (*string, string) {
	if claims == nil {
		return nil, "onbekend"
	}
	name := claims.Username
	if user, err := s.users.FindByID(ctx, claims.UserID); err == nil {
		name = user.DisplayName()
	}
	return &claims.UserID, name
}

func (s *RequestService) allowedExtension(filename string) bool {
	if len(s.uploadCfg.AllowedExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range s.uploadCfg.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// sendIntakeMail notifies the facilities inbox about a new request. Failure
// only produces a log line.
func (s *RequestService) sendIntakeMail(request *models.RepairRequest) {
	if s.queue == nil || !s.mailCfg.Notifications || s.mailCfg.FacilitiesTo == "" {
		return
	}
	body := fmt.Sprintf("Nieuw verzoek #%d: %s\n\nIngediend door: %s\n\n%s",
		request.Number, request.Title, request.RequesterName, truncate(request.Description, 500))
	err := s.queue.Enqueue(jobs.Job{
		ID:   request.ID,
		Type: "request-intake-email",
		Payload: mailer.Message{
			To:      []string{s.mailCfg.FacilitiesTo},
			Subject: fmt.Sprintf("Nieuw reparatieverzoek #%d: %s", request.Number, request.Title),
			Body:    body,
		},
	})
	if err != nil {
		s.logger.Warn("failed to enqueue intake email", zap.String("request_id", request.ID), zap.Error(err))
	}
}

// invalidateCaches clears dashboard and cost overview entries after a
// request mutation.
func (s *RequestService) invalidateCaches(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, pattern := range []string{"facilities:dashboard*", "facilities:costs:*"} {
		if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
