package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
	"github.com/paradisefm/facilities-api/pkg/config"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
	"github.com/paradisefm/facilities-api/pkg/jobs"
	"github.com/paradisefm/facilities-api/pkg/mailer"
	"github.com/paradisefm/facilities-api/pkg/storage"
)

type stubRequestRepo struct {
	byID        map[string]*models.RepairRequest
	created     *models.RepairRequest
	createdLogs []models.WorkLog
	updated     *models.RepairRequest
	updatedLogs []models.WorkLog
	updateErr   error
	workLog     *models.WorkLog
	softDeleted []string
}

func (s *stubRequestRepo) List(ctx context.Context, filter models.RequestFilter) ([]models.RepairRequest, int, error) {
	return nil, 0, nil
}

func (s *stubRequestRepo) GetByID(ctx context.Context, id string, includeDeleted bool) (*models.RepairRequest, error) {
	request, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *request
	return &copy, nil
}

func (s *stubRequestRepo) Create(ctx context.Context, request *models.RepairRequest, logs []models.WorkLog) error {
	request.ID = "req-new"
	request.Number = 42
	s.created = request
	s.createdLogs = logs
	return nil
}

func (s *stubRequestRepo) Update(ctx context.Context, request *models.RepairRequest, logs []models.WorkLog) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = request
	s.updatedLogs = logs
	s.byID[request.ID] = request
	return nil
}

func (s *stubRequestRepo) SoftDelete(ctx context.Context, id, deletedByID string) error {
	s.softDeleted = append(s.softDeleted, id)
	return nil
}

func (s *stubRequestRepo) StatusCounts(ctx context.Context, today time.Time) (*models.RequestStatusCounts, error) {
	return &models.RequestStatusCounts{}, nil
}

func (s *stubRequestRepo) ListOpenForDashboard(ctx context.Context, limit int) ([]models.RepairRequest, error) {
	return nil, nil
}

func (s *stubRequestRepo) ListWorkLogs(ctx context.Context, requestID string) ([]models.WorkLog, error) {
	return nil, nil
}

func (s *stubRequestRepo) AddWorkLog(ctx context.Context, log *models.WorkLog) error {
	log.ID = "log-1"
	s.workLog = log
	return nil
}

type stubAttachmentRepo struct {
	byID    map[string]*models.Attachment
	created *models.Attachment
}

func (s *stubAttachmentRepo) ListByRequest(ctx context.Context, requestID string) ([]models.Attachment, error) {
	return nil, nil
}

func (s *stubAttachmentRepo) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	attachment, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return attachment, nil
}

func (s *stubAttachmentRepo) Create(ctx context.Context, attachment *models.Attachment) error {
	attachment.ID = "att-1"
	s.created = attachment
	return nil
}

type stubUserReader struct {
	users map[string]*models.User
}

func (s *stubUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type stubAttachmentStore struct {
	saved []string
}

func (s *stubAttachmentStore) SaveAttachment(requestID, originalName string, r io.Reader) (string, error) {
	rel := requestID + "/" + originalName
	s.saved = append(s.saved, rel)
	return rel, nil
}

func (s *stubAttachmentStore) Path(relPath string) string {
	return "/data/uploads/" + relPath
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "staff-1", Username: "piet", Email: "piet@example.org", Role: models.RoleStaff}
}

func newTestRequestService(repo *stubRequestRepo, attachments *stubAttachmentRepo, users *stubUserReader, store *stubAttachmentStore, signer *storage.SignedURLSigner) *RequestService {
	return NewRequestService(RequestServiceParams{
		Repo:        repo,
		Attachments: attachments,
		Users:       users,
		Store:       store,
		Signer:      signer,
		UploadCfg: config.UploadConfig{
			MaxFileSizeBytes:  1024,
			AllowedExtensions: []string{".jpg", ".png", ".pdf"},
		},
	})
}

func TestCreateRequestAppliesIntakeDefaults(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{}}
	svc := newTestRequestService(repo, &stubAttachmentRepo{}, &stubUserReader{}, &stubAttachmentStore{}, nil)

	request, err := svc.Create(context.Background(), dto.CreateRequestInput{
		Title:         "  Lekkende kraan  ",
		Description:   "Kraan in de keuken lekt",
		RequesterName: "Jan Jansen",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Lekkende kraan", request.Title)
	assert.Equal(t, models.StatusNew, request.Status)
	assert.Equal(t, models.PriorityNormal, request.Priority)
	assert.Equal(t, models.ContactEmail, request.PreferredContact)
	assert.Equal(t, models.QuoteNone, request.QuoteStatus)
	assert.Nil(t, request.RequesterUserID)

	require.Len(t, repo.createdLogs, 1)
	assert.Equal(t, models.WorkLogCreated, repo.createdLogs[0].EntryType)
	assert.Equal(t, "Verzoek ingediend door Jan Jansen", repo.createdLogs[0].Note)
	assert.Nil(t, repo.createdLogs[0].AuthorID)
}

func TestCreateRequestLinksAuthenticatedRequester(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{}}
	svc := newTestRequestService(repo, &stubAttachmentRepo{}, &stubUserReader{}, &stubAttachmentStore{}, nil)
	claims := &models.JWTClaims{UserID: "u-1", Username: "jan", Email: "jan@example.org", Role: models.RoleUser}

	request, err := svc.Create(context.Background(), dto.CreateRequestInput{
		Title:         "Deur klemt",
		Description:   "Voordeur sluit niet goed",
		RequesterName: "Jan",
	}, claims)
	require.NoError(t, err)

	require.NotNil(t, request.RequesterUserID)
	assert.Equal(t, "u-1", *request.RequesterUserID)
	assert.Equal(t, "jan@example.org", request.RequesterEmail, "email falls back to the account")
	require.Len(t, repo.createdLogs, 1)
	require.NotNil(t, repo.createdLogs[0].AuthorID)
	assert.Equal(t, "u-1", *repo.createdLogs[0].AuthorID)
}

func TestCreateRequestRejectsInvalidPayload(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{}}
	svc := newTestRequestService(repo, &stubAttachmentRepo{}, &stubUserReader{}, &stubAttachmentStore{}, nil)

	_, err := svc.Create(context.Background(), dto.CreateRequestInput{Description: "zonder titel"}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestUpdateStatusChangeAppendsOneLogAndStamps(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{
		"req-1": {ID: "req-1", Number: 7, Status: models.StatusNew, Title: "CV-ketel"},
	}}
	users := &stubUserReader{users: map[string]*models.User{
		"staff-1": {ID: "staff-1", Username: "piet", FirstName: "Piet", LastName: "Peters"},
	}}
	svc := newTestRequestService(repo, &stubAttachmentRepo{}, users, &stubAttachmentStore{}, nil)
	claims := staffClaims()

	status := string(models.StatusTriaged)
	request, err := svc.Update(context.Background(), "req-1", dto.UpdateRequestInput{Status: &status}, claims)
	require.NoError(t, err)

	assert.Equal(t, models.StatusTriaged, request.Status)
	require.NotNil(t, request.TriagedByID)
	assert.Equal(t, "staff-1", *request.TriagedByID)
	require.Len(t, repo.updatedLogs, 1)
	assert.Equal(t, models.WorkLogStatusChange, repo.updatedLogs[0].EntryType)
	assert.Equal(t, "Status gewijzigd van Nieuw naar Getriageerd", repo.updatedLogs[0].Note)

	// Same status again is a no-op on the trail.
	_, err = svc.Update(context.Background(), "req-1", dto.UpdateRequestInput{Status: &status}, claims)
	require.NoError(t, err)
	assert.Empty(t, repo.updatedLogs)
}

func TestUpdateCloseStampsOnceAndSurvivesReopen(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{
		"req-1": {ID: "req-1", Status: models.StatusCompleted},
	}}
	users := &stubUserReader{users: map[string]*models.User{"staff-1": {ID: "staff-1", Username: "piet"}}}
	svc := newTestRequestService(repo, &stubAttachmentRepo{}, users, &stubAttachmentStore{}, nil)
	claims := staffClaims()

	closed := string(models.StatusClosed)
	request, err := svc.Update(context.Background(), "req-1", dto.UpdateRequestInput{Status: &closed}, claims)
	require.NoError(t, err)
	require.NotNil(t, request.ClosedAt)
	firstClose := *request.ClosedAt

	reopened := string(models.StatusInProgress)
	request, err = svc.Update(context.Background(), "req-1", dto.UpdateRequestInput{Status: &reopened}, claims)
	require.NoError(t, err)
	require.NotNil(t, request.ClosedAt, "reopening keeps the original close moment")

	request, err = svc.Update(context.Background(), "req-1", dto.UpdateRequestInput{Status: &closed}, claims)
	require.NoError(t, err)
	assert.Equal(t, firstClose, *request.ClosedAt)
}

func TestUpdateAssignmentWritesTrailEntries(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{
		"req-1": {ID: "req-1", Status: models.StatusTriaged},
	}}
	users := &stubUserReader{users: map[string]*models.User{
		"staff-1": {ID: "staff-1", Username: "piet"},
		"staff-2": {ID: "staff-2", Username: "kees", FirstName: "Kees", LastName: "de Boer"},
	}}
	svc := newTestRequestService(repo, &stubAttachmentRepo{}, users, &stubAttachmentStore{}, nil)
	claims := staffClaims()

	assignee := "staff-2"
	request, err := svc.Update(context.Background(), "req-1", dto.UpdateRequestInput{AssignedToID: &assignee}, claims)
	require.NoError(t, err)
	require.NotNil(t, request.AssignedToID)
	require.Len(t, repo.updatedLogs, 1)
	assert.Equal(t, models.WorkLogAssignment, repo.updatedLogs[0].EntryType)
	assert.Equal(t, "Toegewezen aan Kees de Boer", repo.updatedLogs[0].Note)

	// Assigning the same person again changes nothing.
	_, err = svc.Update(context.Background(), "req-1", dto.UpdateRequestInput{AssignedToID: &assignee}, claims)
	require.NoError(t, err)
	assert.Empty(t, repo.updatedLogs)

	request, err = svc.Update(context.Background(), "req-1", dto.UpdateRequestInput{ClearAssignee: true}, claims)
	require.NoError(t, err)
	assert.Nil(t, request.AssignedToID)
	require.Len(t, repo.updatedLogs, 1)
	assert.Equal(t, "Toewijzing verwijderd", repo.updatedLogs[0].Note)

	unknown := "ghost"
	_, err = svc.Update(context.Background(), "req-1", dto.UpdateRequestInput{AssignedToID: &unknown}, claims)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "assignee does not exist", appErr.Message)
}

func TestGetAppliesVisibilityRule(t *testing.T) {
	owner := "u-1"
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{
		"mine":   {ID: "mine", RequesterUserID: &owner, RequesterEmail: "jan@example.org"},
		"theirs": {ID: "theirs", RequesterEmail: "ander@example.org"},
		"mailed": {ID: "mailed", RequesterEmail: "Jan@Example.org"},
	}}
	svc := newTestRequestService(repo, &stubAttachmentRepo{}, &stubUserReader{}, &stubAttachmentStore{}, nil)
	claims := &models.JWTClaims{UserID: "u-1", Email: "jan@example.org", Role: models.RoleUser}

	_, err := svc.Get(context.Background(), "mine", claims)
	require.NoError(t, err)

	// Email matching is case-insensitive.
	_, err = svc.Get(context.Background(), "mailed", claims)
	require.NoError(t, err)

	// Someone else's request reads as absent, not forbidden.
	_, err = svc.Get(context.Background(), "theirs", claims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), "theirs", staffClaims())
	require.NoError(t, err)
}

func TestAddWorkLogMinutesBecomeTimeEntry(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{
		"req-1": {ID: "req-1"},
	}}
	svc := newTestRequestService(repo, &stubAttachmentRepo{}, &stubUserReader{}, &stubAttachmentStore{}, nil)
	claims := staffClaims()

	minutes := 45
	log, err := svc.AddWorkLog(context.Background(), "req-1", dto.AddWorkLogInput{Note: "Filter vervangen", MinutesSpent: &minutes}, claims)
	require.NoError(t, err)
	assert.Equal(t, models.WorkLogTimeSpent, log.EntryType)
	require.NotNil(t, log.MinutesSpent)
	assert.Equal(t, 45, *log.MinutesSpent)

	log, err = svc.AddWorkLog(context.Background(), "req-1", dto.AddWorkLogInput{Note: "Alleen een notitie"}, claims)
	require.NoError(t, err)
	assert.Equal(t, models.WorkLogNote, log.EntryType)
	require.NotNil(t, log.AuthorID)
	assert.Equal(t, claims.UserID, *log.AuthorID)
}

func TestAddAttachmentEnforcesUploadLimits(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{
		"req-1": {ID: "req-1"},
	}}
	attachments := &stubAttachmentRepo{}
	store := &stubAttachmentStore{}
	svc := newTestRequestService(repo, attachments, &stubUserReader{}, store, nil)
	claims := staffClaims()

	_, err := svc.AddAttachment(context.Background(), "req-1", "groot.jpg", "", 2048, strings.NewReader("x"), claims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFileTooLarge.Code, appErrors.FromError(err).Code)

	_, err = svc.AddAttachment(context.Background(), "req-1", "virus.exe", "", 10, strings.NewReader("x"), claims)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedFile.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.saved)

	attachment, err := svc.AddAttachment(context.Background(), "req-1", "Foto.JPG", "Voorzijde", 10, strings.NewReader("x"), claims)
	require.NoError(t, err)
	assert.Equal(t, "req-1/Foto.JPG", attachment.StoredPath)
	assert.Equal(t, "Voorzijde", attachment.Title)
	require.NotNil(t, attachment.UploadedByID)
	assert.Equal(t, "staff-1", *attachment.UploadedByID)
}

func TestAddIntakePhotoSkipsVisibilityAndUploader(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{}}
	attachments := &stubAttachmentRepo{}
	svc := newTestRequestService(repo, attachments, &stubUserReader{}, &stubAttachmentStore{}, nil)

	attachment, err := svc.AddIntakePhoto(context.Background(), "req-new", "schade.png", 10, strings.NewReader("x"))
	require.NoError(t, err)
	assert.Nil(t, attachment.UploadedByID)
	assert.Equal(t, "req-new/schade.png", attachment.StoredPath)
}

func TestResolveDownloadVerifiesTokenAgainstStoredPath(t *testing.T) {
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	attachments := &stubAttachmentRepo{byID: map[string]*models.Attachment{
		"att-1": {ID: "att-1", RequestID: "req-1", StoredPath: "req-1/foto.jpg", OriginalName: "foto.jpg"},
	}}
	store := &stubAttachmentStore{}
	svc := newTestRequestService(&stubRequestRepo{byID: map[string]*models.RepairRequest{}}, attachments, &stubUserReader{}, store, signer)

	token, _, err := signer.Generate("att-1", "req-1/foto.jpg")
	require.NoError(t, err)

	attachment, absPath, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "att-1", attachment.ID)
	assert.Equal(t, "/data/uploads/req-1/foto.jpg", absPath)

	_, _, err = svc.ResolveDownload(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// Valid signature pointing at a file the attachment no longer owns.
	stale, _, err := signer.Generate("att-1", "req-1/oud.jpg")
	require.NoError(t, err)
	_, _, err = svc.ResolveDownload(context.Background(), stale)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDuplicateCopiesCoreFieldsToFreshRequest(t *testing.T) {
	location := "loc-1"
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{
		"req-1": {
			ID: "req-1", Number: 7, Title: "Lamp kapot", Description: "TL-buis flikkert",
			LocationID: &location, Priority: models.PriorityHigh, Status: models.StatusClosed,
		},
	}}
	users := &stubUserReader{users: map[string]*models.User{"staff-1": {ID: "staff-1", Username: "piet", FirstName: "Piet"}}}
	svc := newTestRequestService(repo, &stubAttachmentRepo{}, users, &stubAttachmentStore{}, nil)

	copied, err := svc.Duplicate(context.Background(), "req-1", staffClaims())
	require.NoError(t, err)

	assert.Equal(t, "Lamp kapot", copied.Title)
	assert.Equal(t, models.PriorityHigh, copied.Priority)
	assert.Equal(t, models.StatusNew, copied.Status, "copy always starts over")
	require.NotNil(t, copied.LocationID)
	assert.Equal(t, "loc-1", *copied.LocationID)
	assert.Equal(t, "Piet", copied.RequesterName)
	require.Len(t, repo.createdLogs, 1)
	assert.Equal(t, "Gedupliceerd van verzoek #7", repo.createdLogs[0].Note)
}

func TestDeleteSoftDeletesExistingRequest(t *testing.T) {
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{
		"req-1": {ID: "req-1"},
	}}
	svc := newTestRequestService(repo, &stubAttachmentRepo{}, &stubUserReader{}, &stubAttachmentStore{}, nil)

	require.NoError(t, svc.Delete(context.Background(), "req-1", staffClaims()))
	assert.Equal(t, []string{"req-1"}, repo.softDeleted)

	err := svc.Delete(context.Background(), "gone", staffClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateFailedPersistSendsNoAssignmentNotification(t *testing.T) {
	repo := &stubRequestRepo{
		byID: map[string]*models.RepairRequest{
			"req-1": {ID: "req-1", Number: 7, Title: "Lamp kapot", Status: models.StatusNew},
		},
		updateErr: errors.New("tx aborted"),
	}
	users := &stubUserReader{users: map[string]*models.User{
		"staff-1":    {ID: "staff-1", FirstName: "Piet", LastName: "Pietersen"},
		"assignee-1": {ID: "assignee-1", FirstName: "Kees", LastName: "de Boer"},
	}}
	noteRepo := &stubNotificationRepo{}
	svc := NewRequestService(RequestServiceParams{
		Repo:          repo,
		Users:         users,
		Notifications: NewNotificationService(noteRepo, &stubMentionResolver{}, nil, false, nil),
	})

	assignee := "assignee-1"
	_, err := svc.Update(context.Background(), "req-1", dto.UpdateRequestInput{AssignedToID: &assignee}, staffClaims())
	require.Error(t, err)
	assert.Empty(t, noteRepo.created, "no notification may be stored when the update did not persist")

	repo.updateErr = nil
	_, err = svc.Update(context.Background(), "req-1", dto.UpdateRequestInput{AssignedToID: &assignee}, staffClaims())
	require.NoError(t, err)
	require.Len(t, noteRepo.created, 1)
	assert.Equal(t, "assignee-1", noteRepo.created[0].UserID)
	assert.Equal(t, models.NotificationAssignment, noteRepo.created[0].Type)
	assert.Contains(t, noteRepo.created[0].Title, "#7 Lamp kapot")
}

func newCaptureMailQueue(t *testing.T) (*jobs.Queue, chan mailer.Message) {
	t.Helper()
	delivered := make(chan mailer.Message, 4)
	queue := jobs.NewQueue("mail", func(_ context.Context, job jobs.Job) error {
		if msg, ok := job.Payload.(mailer.Message); ok {
			delivered <- msg
		}
		return nil
	}, jobs.QueueConfig{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	queue.Start(ctx)
	t.Cleanup(func() {
		queue.Stop()
		cancel()
	})
	return queue, delivered
}

func TestCreateRequestMailsFacilitiesInboxOnce(t *testing.T) {
	queue, delivered := newCaptureMailQueue(t)
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{}}
	svc := NewRequestService(RequestServiceParams{
		Repo:    repo,
		Users:   &stubUserReader{},
		Queue:   queue,
		MailCfg: config.MailConfig{Notifications: true, FacilitiesTo: "beheer@example.org"},
	})

	_, err := svc.Create(context.Background(), dto.CreateRequestInput{
		Title:         "Lekkage dak",
		Description:   "Druppels bij de dakgoot",
		RequesterName: "Jan Jansen",
	}, nil)
	require.NoError(t, err)

	select {
	case msg := <-delivered:
		assert.Equal(t, []string{"beheer@example.org"}, msg.To)
		assert.Contains(t, msg.Subject, "#42")
		assert.Contains(t, msg.Subject, "Lekkage dak")
		assert.Contains(t, msg.Body, "Jan Jansen")
	case <-time.After(2 * time.Second):
		t.Fatal("expected an intake email for the facilities inbox")
	}

	select {
	case msg := <-delivered:
		t.Fatalf("expected exactly one intake email, got a second: %q", msg.Subject)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestCreateRequestSkipsIntakeMailWhenDisabled(t *testing.T) {
	queue, delivered := newCaptureMailQueue(t)
	repo := &stubRequestRepo{byID: map[string]*models.RepairRequest{}}
	svc := NewRequestService(RequestServiceParams{
		Repo:    repo,
		Users:   &stubUserReader{},
		Queue:   queue,
		MailCfg: config.MailConfig{Notifications: false, FacilitiesTo: "beheer@example.org"},
	})

	_, err := svc.Create(context.Background(), dto.CreateRequestInput{
		Title:         "Lekkage dak",
		RequesterName: "Jan Jansen",
	}, nil)
	require.NoError(t, err)

	select {
	case msg := <-delivered:
		t.Fatalf("expected no email with notifications disabled, got %q", msg.Subject)
	case <-time.After(150 * time.Millisecond):
	}
}
