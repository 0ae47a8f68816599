package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextgenschool/internal/catalog"
	"nextgenschool/internal/database"
	"nextgenschool/internal/database/dbtest"
	"nextgenschool/internal/identity"
	"nextgenschool/internal/logger"
	"nextgenschool/internal/models"
	"nextgenschool/internal/repository"
	"nextgenschool/internal/validation"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	return dbtest.New(t)
}

func TestAuthServiceRegisterAndAuthenticate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewAuthService(repository.NewParentRepository(db))

	tests := []struct {
		name     string
		email    string
		password string
		parent   string
		wantErr  func(error) bool
	}{
		{name: "bad email", email: "nope", password: "longenough", parent: "Pat", wantErr: validation.IsValidationError},
		{name: "short password", email: "pat@example.com", password: "short", parent: "Pat", wantErr: validation.IsValidationError},
		{name: "missing name", email: "pat@example.com", password: "longenough", parent: " ", wantErr: validation.IsValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password, tt.parent)
			require.Error(t, err)
			assert.True(t, tt.wantErr(err), "unexpected error %v", err)
		})
	}

	parent, err := svc.Register(ctx, "pat@example.com", "correct-horse", "Pat")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", parent.PasswordHash)

	_, err = svc.Register(ctx, "PAT@example.com", "correct-horse", "Pat")
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := svc.AuthenticateParent(ctx, "pat@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, parent.ID, got.ID)

	_, err = svc.AuthenticateParent(ctx, "pat@example.com", "wrong-horse")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, err = svc.AuthenticateParent(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestAuthServiceOAuthLogin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewAuthService(repository.NewParentRepository(db))

	_, err := svc.OAuthLogin(ctx, "", "sub", "a@example.com", "A")
	assert.ErrorIs(t, err, ErrOAuthInfo)

	created, err := svc.OAuthLogin(ctx, "google", "sub-1", "new@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "new", created.Name)

	again, err := svc.OAuthLogin(ctx, "google", "sub-1", "new@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	existing, err := svc.Register(ctx, "pw@example.com", "correct-horse", "Pat")
	require.NoError(t, err)
	linked, err := svc.OAuthLogin(ctx, "google", "sub-2", "pw@example.com", "Pat")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)
	assert.Equal(t, "sub-2", linked.OAuthSubject)
}

func TestLearnerServicePINCollisionRetry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	parents := repository.NewParentRepository(db)
	svc := NewLearnerService(repository.NewLearnerRepository(db))

	parent, err := parents.CreateParent(ctx, "pat@example.com", "hash", "Pat")
	require.NoError(t, err)

	pins := []string{"1111", "1111", "2222"}
	svc.generatePIN = func() (string, error) {
		pin := pins[0]
		pins = pins[1:]
		return pin, nil
	}

	first, err := svc.CreateLearner(ctx, parent.ID, "Ada", 10)
	require.NoError(t, err)
	assert.Equal(t, "1111", first.PIN)

	second, err := svc.CreateLearner(ctx, parent.ID, "Grace", 12)
	require.NoError(t, err)
	assert.Equal(t, "2222", second.PIN)
	assert.Empty(t, pins)
}

func TestLearnerServicePINSpaceBusy(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	parents := repository.NewParentRepository(db)
	svc := NewLearnerService(repository.NewLearnerRepository(db))
	svc.generatePIN = func() (string, error) { return "4242", nil }

	parent, err := parents.CreateParent(ctx, "pat@example.com", "hash", "Pat")
	require.NoError(t, err)
	_, err = svc.CreateLearner(ctx, parent.ID, "Ada", 10)
	require.NoError(t, err)

	_, err = svc.CreateLearner(ctx, parent.ID, "Grace", 11)
	assert.ErrorIs(t, err, ErrPINSpaceBusy)
}

func TestLearnerServiceOwnership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	parents := repository.NewParentRepository(db)
	svc := NewLearnerService(repository.NewLearnerRepository(db))

	owner, err := parents.CreateParent(ctx, "owner@example.com", "hash", "Owner")
	require.NoError(t, err)
	other, err := parents.CreateParent(ctx, "other@example.com", "hash", "Other")
	require.NoError(t, err)

	_, err = svc.CreateLearner(ctx, owner.ID, "Ada", 8)
	assert.True(t, validation.IsValidationError(err))

	learner, err := svc.CreateLearner(ctx, owner.ID, "Ada", 10)
	require.NoError(t, err)

	tests := []struct {
		name     string
		parentID string
		id       string
		wantErr  error
	}{
		{name: "owner", parentID: owner.ID, id: learner.ID},
		{name: "other parent", parentID: other.ID, id: learner.ID, wantErr: ErrNotYourLearner},
		{name: "unknown learner", parentID: owner.ID, id: "missing", wantErr: ErrLearnerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetLearner(ctx, tt.parentID, tt.id)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	oldPIN := learner.PIN
	updated, err := svc.RegeneratePIN(ctx, owner.ID, learner.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldPIN, updated.PIN)

	assert.ErrorIs(t, svc.DeleteLearner(ctx, other.ID, learner.ID), ErrNotYourLearner)
	require.NoError(t, svc.DeleteLearner(ctx, owner.ID, learner.ID))
	_, err = svc.GetLearner(ctx, owner.ID, learner.ID)
	assert.ErrorIs(t, err, ErrLearnerNotFound)
}

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestEmailServiceDisabled(t *testing.T) {
	svc, err := NewEmailService(context.Background(), "us-east-1", "", "", "", logger.Nop())
	require.NoError(t, err)
	assert.False(t, svc.IsEnabled())
	assert.NoError(t, svc.SendWelcomeEmail(context.Background(), "pat@example.com", "Pat"))
}

func TestEmailServiceEscapesNames(t *testing.T) {
	ses := &fakeSES{}
	svc := newEmailService(ses, "noreply@example.com", "NextGen School", "https://example.com", logger.Nop())

	err := svc.SendCourseCompletedEmail(context.Background(), "pat@example.com", "Pat", "<b>Ada</b>", "AI Explorers")
	require.NoError(t, err)
	require.Len(t, ses.inputs, 1)

	in := ses.inputs[0]
	assert.Equal(t, "NextGen School <noreply@example.com>", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"pat@example.com"}, in.Destination.ToAddresses)
	htmlBody := aws.ToString(in.Content.Simple.Body.Html.Data)
	assert.Contains(t, htmlBody, "&lt;b&gt;Ada&lt;/b&gt;")
	assert.NotContains(t, htmlBody, "<b>Ada</b>")

	ses.err = errors.New("throttled")
	assert.Error(t, svc.SendWelcomeEmail(context.Background(), "pat@example.com", "Pat"))
}

func TestNotificationServiceCourseCompleted(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := repository.NewStore(db)
	parent, err := store.Parents.CreateParent(ctx, "pat@example.com", "hash", "Pat")
	require.NoError(t, err)
	learner, err := store.Learners.CreateLearner(ctx, parent.ID, "Ada", 10, "1234")
	require.NoError(t, err)

	ses := &fakeSES{}
	email := newEmailService(ses, "noreply@example.com", "", "https://example.com", logger.Nop())
	cat := catalog.Default()
	svc := NewNotificationService(email, store.Parents, store.Learners, cat)

	course := cat.Courses()[0]
	require.NoError(t, svc.CourseCompleted(ctx, learner.ID, parent.ID, course.ID))
	require.Len(t, ses.inputs, 1)
	assert.Contains(t, aws.ToString(ses.inputs[0].Content.Simple.Subject.Data), course.Title)

	assert.ErrorIs(t, svc.CourseCompleted(ctx, "missing", parent.ID, course.ID), ErrLearnerNotFound)
}

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestDB(t)
	store := repository.NewStore(src)

	parent, err := store.Parents.CreateParent(ctx, "pat@example.com", "hash", "Pat")
	require.NoError(t, err)
	learner, err := store.Learners.CreateLearner(ctx, parent.ID, "Ada", 10, "1234")
	require.NoError(t, err)
	_, err = store.Completions.UpsertCompletion(ctx, learner.ID, "ai", 0)
	require.NoError(t, err)
	require.NoError(t, store.Points.RecordAward(ctx, models.PointAward{ID: "award-1", LearnerID: learner.ID, Amount: 15, Reason: "quiz"}))
	ai := "ai"
	_, err = store.Purchases.CreatePurchase(ctx, parent.ID, models.PlanSingleCourse, &ai, 499, models.PurchaseCompleted)
	require.NoError(t, err)

	var buf bytes.Buffer
	exported, err := NewBackupService(src).Export(ctx, &buf)
	require.NoError(t, err)
	assert.Len(t, exported.Parents, 1)
	assert.Len(t, exported.Learners, 1)
	assert.Equal(t, "sqlite3", exported.DatabaseType)

	dst := dbtest.New(t)
	raw := buf.String()
	for i := 0; i < 2; i++ {
		_, err = NewBackupService(dst).Import(ctx, strings.NewReader(raw))
		require.NoError(t, err)
	}

	restored := repository.NewStore(dst)
	got, err := restored.LookupLearnerByPin(ctx, "1234")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, learner.ID, got.ID)

	completions, err := restored.FetchCompletions(ctx, learner.ID)
	require.NoError(t, err)
	assert.Len(t, completions, 1)
	awards, err := restored.FetchPointAwards(ctx, learner.ID)
	require.NoError(t, err)
	assert.Len(t, awards, 1)
	purchases, err := restored.FetchPurchases(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, purchases, 1)
	assert.True(t, purchases[0].Unlocks("ai"))

	_, err = NewBackupService(dst).Import(ctx, strings.NewReader(`{"version":"0"}`))
	assert.Error(t, err)
}

func TestBackupImportConflicts(t *testing.T) {
	ctx := context.Background()
	src := newTestDB(t)
	store := repository.NewStore(src)
	parent, err := store.Parents.CreateParent(ctx, "pat@example.com", "hash", "Pat")
	require.NoError(t, err)
	_, err = store.Learners.CreateLearner(ctx, parent.ID, "Ada", 10, "1234")
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = NewBackupService(src).Export(ctx, &buf)
	require.NoError(t, err)
	raw := buf.String()

	tests := []struct {
		name string
		seed func(t *testing.T, s *repository.Store)
	}{
		{
			name: "email held by another parent",
			seed: func(t *testing.T, s *repository.Store) {
				_, err := s.Parents.CreateParent(ctx, "pat@example.com", "hash", "Other Pat")
				require.NoError(t, err)
			},
		},
		{
			name: "pin held by another learner",
			seed: func(t *testing.T, s *repository.Store) {
				other, err := s.Parents.CreateParent(ctx, "sam@example.com", "hash", "Sam")
				require.NoError(t, err)
				_, err = s.Learners.CreateLearner(ctx, other.ID, "Grace", 11, "1234")
				require.NoError(t, err)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := dbtest.New(t)
			restored := repository.NewStore(dst)
			tt.seed(t, restored)

			_, err := NewBackupService(dst).Import(ctx, strings.NewReader(raw))
			assert.ErrorIs(t, err, ErrBackupConflict)

			learners, err := restored.FetchLearnersByParent(ctx, parent.ID)
			require.NoError(t, err)
			assert.Empty(t, learners, "a failed import must roll back")
		})
	}
}
