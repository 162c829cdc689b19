package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sideshow/apns2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenUser = "5b0c6f7e-3a57-4d0c-9a1e-1f2d3c4b5a69"

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestTokenServiceValidate(t *testing.T) {
	svc := NewTokenService("secret")

	tok := signToken(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{
		"sub":   tokenUser,
		"email": "a@b.c",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	id, err := svc.ValidateJWT(tok)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: tokenUser, Email: "a@b.c"}, id)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService("secret")
	exp := time.Now().Add(time.Hour).Unix()
	secret := []byte("secret")

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": tokenUser, "exp": exp})},
		{"expired", signToken(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": tokenUser, "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no expiry", signToken(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": tokenUser})},
		{"no subject", signToken(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"exp": exp})},
		{"subject not a uuid", signToken(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "user-1", "exp": exp})},
		{"braced uuid", signToken(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "{" + tokenUser + "}", "exp": exp})},
		{"none alg", signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": tokenUser, "exp": exp})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateJWT(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestTokenServiceUserIDFallback(t *testing.T) {
	svc := NewTokenService("secret")
	tok := signToken(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{
		"user_id": tokenUser,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	id, err := svc.ValidateJWT(tok)
	require.NoError(t, err)
	assert.Equal(t, tokenUser, id.UserID)
}

type fakePusher struct {
	sent []*apns2.Notification
	fail map[string]string
}

func (p *fakePusher) PushWithContext(_ apns2.Context, n *apns2.Notification) (*apns2.Response, error) {
	p.sent = append(p.sent, n)
	if reason, ok := p.fail[n.DeviceToken]; ok {
		if reason == "" {
			return nil, errors.New("connection reset")
		}
		return &apns2.Response{StatusCode: 410, Reason: reason}, nil
	}
	return &apns2.Response{StatusCode: 200}, nil
}

func TestAPNsNotifier(t *testing.T) {
	pusher := &fakePusher{fail: map[string]string{"gone": apns2.ReasonUnregistered, "broken": ""}}
	n := &APNsNotifier{client: pusher, topic: "com.example.readalong"}

	err := n.Notify(context.Background(), []string{"ok", "gone", "broken"}, PushAlert{Title: "Alice", Body: "早安", GroupID: "g1"})
	require.Error(t, err)
	assert.ErrorContains(t, err, apns2.ReasonUnregistered)
	assert.ErrorContains(t, err, "connection reset")

	require.Len(t, pusher.sent, 3)
	assert.Equal(t, "com.example.readalong", pusher.sent[0].Topic)

	data, err := jsonMarshal(pusher.sent[0].Payload)
	require.NoError(t, err)
	assert.Contains(t, data, `"title":"Alice"`)
	assert.Contains(t, data, `"group_id":"g1"`)

	pusher.fail = nil
	assert.NoError(t, n.Notify(context.Background(), []string{"ok"}, PushAlert{Title: "t", Body: "b"}))
}
