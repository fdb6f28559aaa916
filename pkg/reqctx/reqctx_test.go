package reqctx

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClaims struct {
	uid uuid.UUID
	exp time.Time
}

func (f fakeClaims) GetUserID() uuid.UUID     { return f.uid }
func (f fakeClaims) GetSessionID() *uuid.UUID { return nil }
func (f fakeClaims) GetTokenType() string     { return "access" }
func (f fakeClaims) IsExpired() bool          { return time.Now().After(f.exp) }

func TestClaimsRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ClaimsFromContext(ctx))
	_, ok := UserIDFromContext(ctx)
	assert.False(t, ok)

	uid := uuid.New()
	ctx = WithClaims(ctx, fakeClaims{uid: uid, exp: time.Now().Add(time.Hour)})

	require.NotNil(t, ClaimsFromContext(ctx))
	got, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, uid, got)
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	ctx := WithRequestMeta(context.Background(), &RequestMeta{RequestID: "req-1"})
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}

func TestPrincipal(t *testing.T) {
	assert.Nil(t, PrincipalFromContext(context.Background()))

	p := &Principal{UserID: uuid.New(), Role: "super_admin"}
	ctx := WithPrincipal(context.Background(), p)
	assert.Same(t, p, PrincipalFromContext(ctx))
	assert.True(t, p.IsSuperAdmin())

	var none *Principal
	assert.False(t, none.IsSuperAdmin())
}
