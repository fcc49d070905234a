package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
)

// UserInfo is the provider-agnostic identity kept after a sign-in.
// Email doubles as the collaboration identity across trips.
type UserInfo struct {
	Email     string
	Name      string
	AvatarURL string
	ID        string
	Provider  string
}

type Provider interface {
	// AuthURL builds the consent URL the browser is redirected to.
	AuthURL(state string) string
	// Exchange trades the callback code for the signed-in user's profile.
	Exchange(ctx context.Context, code string) (*UserInfo, error)
	Name() string
}

// GenerateState produces an unguessable value for the OAuth state
// parameter. Also reused for one-shot auth codes.
func GenerateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}
