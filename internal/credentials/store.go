package credentials

import (
	"context"
	"errors"

	"github.com/sakashimaa/etech-storefront/internal/domain"
)

const (
	TokenKey    = "etech_token"
	UserKey     = "etech_user"
	ProfilesKey = "etech_profiles"
)

var ErrCorrupted = errors.New("persisted credentials are corrupted")

// Store is the client-local persistence of one UI session.
// Clear removes token and user but keeps profiles, which outlive logins.
type Store interface {
	Token(ctx context.Context) (string, error)
	User(ctx context.Context) (*domain.User, error)
	Save(ctx context.Context, token string, user domain.User) error
	SaveUser(ctx context.Context, user domain.User) error
	Clear(ctx context.Context) error
	Profile(ctx context.Context, email string) (domain.Profile, bool, error)
	SaveProfile(ctx context.Context, email string, profile domain.Profile) error
}
