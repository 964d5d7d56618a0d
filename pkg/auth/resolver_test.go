package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBuilder struct {
	principals map[string]*Principal
	calls      []string
}

func (b *stubBuilder) BuildPrincipal(ctx context.Context, identity string) (*Principal, error) {
	b.calls = append(b.calls, identity)
	if p, ok := b.principals[identity]; ok {
		return p, nil
	}
	return nil, ErrPrincipalNotFound
}

type stubVerifier struct {
	subjects map[string]string
}

func (v *stubVerifier) VerifySubject(ctx context.Context, raw string) (string, error) {
	if sub, ok := v.subjects[raw]; ok {
		return sub, nil
	}
	return "", errors.New("signature mismatch")
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	assert.Empty(t, BearerToken(r))

	r.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", BearerToken(r))

	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, BearerToken(r))

	r = httptest.NewRequest(http.MethodGet, "/api/v1/events?access_token=xyz", nil)
	assert.Equal(t, "xyz", BearerToken(r))
}

func TestTokenResolver(t *testing.T) {
	now := time.Now().UTC()
	userKey := uuid.New()
	principal := &Principal{Key: userKey, Approved: true}
	builder := &stubBuilder{principals: map[string]*Principal{userKey.String(): principal}}

	token, hash, prefix, err := GenerateToken()
	require.NoError(t, err)

	t.Run("resolves token owner", func(t *testing.T) {
		store, mock := newMockStore(t, now)
		mock.ExpectQuery("SELECT (.+) FROM api_tokens").
			WithArgs(hash).
			WillReturnRows(sqlmock.NewRows(tokenColumns).
				AddRow(1, userKey.String(), prefix, "ci", nil, nil, now))

		r := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
		r.Header.Set("Authorization", "Bearer "+token)

		got, err := NewTokenResolver(store, builder).ResolvePrincipal(context.Background(), r)
		require.NoError(t, err)
		assert.Same(t, principal, got)
	})

	t.Run("ignores other credentials", func(t *testing.T) {
		store, mock := newMockStore(t, now)
		r := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
		r.Header.Set("Authorization", "Bearer eyJhbGciOi")

		got, err := NewTokenResolver(store, builder).ResolvePrincipal(context.Background(), r)
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown token is invalid", func(t *testing.T) {
		store, mock := newMockStore(t, now)
		mock.ExpectQuery("SELECT (.+) FROM api_tokens").
			WithArgs(hash).
			WillReturnRows(sqlmock.NewRows(tokenColumns))

		r := httptest.NewRequest(http.MethodGet, "/api/v1/events?access_token="+token, nil)
		got, err := NewTokenResolver(store, builder).ResolvePrincipal(context.Background(), r)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, got)
	})
}

func TestOIDCResolver(t *testing.T) {
	subject := uuid.New().String()
	principal := &Principal{Key: uuid.MustParse(subject), Approved: true}
	builder := &stubBuilder{principals: map[string]*Principal{subject: principal}}
	resolver := NewOIDCResolverWithVerifier(&stubVerifier{subjects: map[string]string{
		"good.jwt":  subject,
		"empty.jwt": "",
	}}, builder)

	request := func(token string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		return r
	}

	got, err := resolver.ResolvePrincipal(context.Background(), request("good.jwt"))
	require.NoError(t, err)
	assert.Same(t, principal, got)

	got, err = resolver.ResolvePrincipal(context.Background(), request(""))
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = resolver.ResolvePrincipal(context.Background(), request(TokenPrefix+"abc"))
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = resolver.ResolvePrincipal(context.Background(), request("forged.jwt"))
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = resolver.ResolvePrincipal(context.Background(), request("empty.jwt"))
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

type fixedResolver struct {
	principal *Principal
	err       error
	called    bool
}

func (f *fixedResolver) ResolvePrincipal(ctx context.Context, r *http.Request) (*Principal, error) {
	f.called = true
	return f.principal, f.err
}

func TestChainResolver(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	alice := &Principal{Username: "alice"}

	t.Run("first principal wins", func(t *testing.T) {
		anonymous := &fixedResolver{}
		first := &fixedResolver{principal: alice}
		second := &fixedResolver{principal: &Principal{Username: "bob"}}

		got, err := NewChainResolver(anonymous, nil, first, second).ResolvePrincipal(context.Background(), r)
		require.NoError(t, err)
		assert.Same(t, alice, got)
		assert.True(t, anonymous.called)
		assert.False(t, second.called)
	})

	t.Run("error stops the chain", func(t *testing.T) {
		failing := &fixedResolver{err: ErrInvalidCredentials}
		next := &fixedResolver{principal: alice}

		got, err := NewChainResolver(failing, next).ResolvePrincipal(context.Background(), r)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Nil(t, got)
		assert.False(t, next.called)
	})

	t.Run("all anonymous", func(t *testing.T) {
		got, err := NewChainResolver(&fixedResolver{}).ResolvePrincipal(context.Background(), r)
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}
