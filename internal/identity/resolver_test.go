package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextgenschool/internal/models"
	"nextgenschool/internal/validation"
)

type stubParents struct {
	parent *models.Parent
	err    error
}

func (s stubParents) AuthenticateParent(ctx context.Context, email, password string) (*models.Parent, error) {
	return s.parent, s.err
}

type stubPINs map[string]*models.Learner

func (s stubPINs) LookupLearnerByPin(ctx context.Context, pin string) (*models.Learner, error) {
	if pin == "9999" {
		return nil, errors.New("store offline")
	}
	return s[pin], nil
}

func newTestResolver() *Resolver {
	return NewResolver(
		stubParents{parent: &models.Parent{ID: "p1"}},
		stubPINs{"1234": {ID: "l1", ParentID: "p1"}},
	)
}

func TestResolverStartsAsGuest(t *testing.T) {
	r := newTestResolver()
	assert.Equal(t, Guest(), r.Current())
	assert.False(t, r.Current().IsAuthenticated())
}

func TestLoginParent(t *testing.T) {
	r := newTestResolver()
	tr, err := r.LoginParent(context.Background(), "a@b.co", "password1")
	require.NoError(t, err)

	assert.Equal(t, Guest(), tr.From)
	assert.Equal(t, Parent("p1"), tr.To)
	assert.Equal(t, Parent("p1"), r.Current())
	assert.EqualValues(t, 1, tr.Generation)
}

func TestLoginParentBadCredentials(t *testing.T) {
	r := NewResolver(stubParents{err: ErrInvalidCredentials}, stubPINs{})
	r.EnterDemo()

	_, err := r.LoginParent(context.Background(), "a@b.co", "wrong")
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, Demo(), r.Current())
}

func TestLoginWithPIN(t *testing.T) {
	r := newTestResolver()
	tr, err := r.LoginWithPIN(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, Child("l1", "p1"), tr.To)
	assert.Equal(t, "child:l1", r.Current().String())
}

func TestLoginWithPINFailuresKeepState(t *testing.T) {
	tests := []struct {
		name  string
		pin   string
		check func(t *testing.T, err error)
	}{
		{
			name: "unknown pin",
			pin:  "4321",
			check: func(t *testing.T, err error) {
				assert.True(t, IsAuthError(err))
				assert.ErrorIs(t, err, ErrPINNotFound)
			},
		},
		{
			name: "malformed pin",
			pin:  "12a4",
			check: func(t *testing.T, err error) {
				assert.True(t, validation.IsValidationError(err))
			},
		},
		{
			name: "store failure",
			pin:  "9999",
			check: func(t *testing.T, err error) {
				assert.False(t, IsAuthError(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver()
			_, err := r.LoginParent(context.Background(), "a@b.co", "password1")
			require.NoError(t, err)
			before := r.Tag()

			_, err = r.LoginWithPIN(context.Background(), tt.pin)
			require.Error(t, err)
			tt.check(t, err)

			assert.Equal(t, Parent("p1"), r.Current())
			assert.True(t, r.IsCurrent(before))
		})
	}
}

func TestDemoAndLogout(t *testing.T) {
	r := newTestResolver()
	_, err := r.LoginWithPIN(context.Background(), "1234")
	require.NoError(t, err)

	tr := r.EnterDemo()
	assert.Equal(t, Child("l1", "p1"), tr.From)
	assert.Equal(t, Demo(), r.Current())
	assert.False(t, r.Current().IsAuthenticated())

	tr = r.Logout()
	assert.Equal(t, Demo(), tr.From)
	assert.Equal(t, Guest(), r.Current())
}

func TestTagGoesStaleOnTransition(t *testing.T) {
	r := newTestResolver()
	tag := r.Tag()
	assert.True(t, r.IsCurrent(tag))

	r.Logout()
	assert.False(t, r.IsCurrent(tag), "re-entering the same identity still invalidates old tags")
}

func TestIdentityStrings(t *testing.T) {
	assert.Equal(t, "guest", Guest().String())
	assert.Equal(t, "demo", Demo().String())
	assert.Equal(t, "parent:p9", Parent("p9").String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
