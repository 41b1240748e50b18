package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sakashimaa/etech-storefront/internal/cart"
	"github.com/sakashimaa/etech-storefront/internal/credentials"
	"github.com/sakashimaa/etech-storefront/internal/domain"
	"github.com/sakashimaa/etech-storefront/internal/events"
	"github.com/sakashimaa/etech-storefront/internal/gateway"
	"github.com/sakashimaa/etech-storefront/internal/orders"
	pkgdomain "github.com/sakashimaa/etech-storefront/pkg/domain"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"github.com/sakashimaa/etech-storefront/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Catalog is the part of the shared catalog a session reloads on identity changes.
type Catalog interface {
	Refresh(ctx context.Context) error
}

type Deps struct {
	Client      *gateway.Client
	Catalog     Catalog
	Credentials credentials.Store
	Navigator   Navigator
	Publisher   events.Publisher
	Logger      *zap.Logger
}

// Store owns the identity of one UI session together with that identity's cart and orders.
// It is also the session's gateway.Auth.
type Store struct {
	api       *gateway.Client
	catalog   Catalog
	creds     credentials.Store
	nav       Navigator
	publisher events.Publisher
	logger    *zap.Logger

	cart   *cart.Store
	orders *orders.Store

	mu       sync.RWMutex
	user     *domain.User
	inflight int
	lastErr  string
}

func New(deps Deps) *Store {
	s := &Store{
		catalog:   deps.Catalog,
		creds:     deps.Credentials,
		nav:       deps.Navigator,
		publisher: deps.Publisher,
		logger:    deps.Logger,
	}

	if s.creds == nil {
		s.creds = credentials.NewMemoryStore()
	}
	if s.nav == nil {
		s.nav = &PendingRedirect{}
	}
	if s.publisher == nil {
		s.publisher = events.NewNop()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	s.api = deps.Client.With(s)
	s.cart = cart.New(s.api, s.logger)
	s.orders = orders.New(s.api, s.publisher, s.logger)

	return s
}

func (s *Store) API() *gateway.Client {
	return s.api
}

func (s *Store) Cart() *cart.Store {
	return s.cart
}

func (s *Store) Orders() *orders.Store {
	return s.orders
}

func (s *Store) Token(ctx context.Context) (string, error) {
	return s.creds.Token(ctx)
}

// HandleUnauthorized drops the identity and sends the UI to the login page unless ctx suppresses it.
func (s *Store) HandleUnauthorized(ctx context.Context) {
	email := s.clearIdentity(ctx)

	mylogger.Info(ctx, s.logger, "session credentials rejected", zap.String("email", email))

	if !gateway.RedirectSuppressed(ctx) {
		s.nav.Navigate(ctx, LoginPath)
	}
}

func (s *Store) Login(ctx context.Context, email, password string) (domain.User, error) {
	creds := domain.Credentials{Email: email, Password: password}
	if err := utils.Validator().Struct(creds); err != nil {
		s.setError(err.Error())
		return domain.User{}, err
	}

	return s.authenticate(ctx, "/auth/login", creds)
}

func (s *Store) Register(ctx context.Context, input domain.RegisterInput) (domain.User, error) {
	if err := utils.Validator().Struct(input); err != nil {
		s.setError(err.Error())
		return domain.User{}, err
	}

	return s.authenticate(ctx, "/auth/register", input)
}

func (s *Store) authenticate(ctx context.Context, path string, body any) (domain.User, error) {
	s.begin()

	var res domain.AuthResult
	err := s.api.Post(gateway.WithoutUnauthorizedHandler(ctx), path, body, &res)
	if err == nil && res.Token == "" {
		err = errors.New("backend returned no token")
	}
	if err != nil {
		s.end(gateway.Message(err))
		mylogger.Warn(ctx, s.logger, "authentication failed", zap.String("path", path), zap.Error(err))
		return domain.User{}, fmt.Errorf("authenticate: %w", err)
	}

	user := s.withSavedProfile(ctx, res.User)

	if err := s.creds.Save(ctx, res.Token, user); err != nil {
		s.end(err.Error())
		return domain.User{}, fmt.Errorf("persist credentials: %w", err)
	}
	s.saveProfile(ctx, user)

	s.setUser(&user)
	s.end("")

	s.switchIdentity(ctx, user.Email)
	s.reloadAll(ctx)

	s.publisher.Publish(ctx, pkgdomain.EventUserLoggedIn, user.Email, pkgdomain.SessionEvent{Email: user.Email, Role: string(user.Role)})
	mylogger.Info(ctx, s.logger, "user signed in", zap.String("email", user.Email), zap.String("role", string(user.Role)))

	return user, nil
}

func (s *Store) Logout(ctx context.Context) error {
	email := s.clearIdentity(ctx)

	if s.catalog != nil {
		if err := s.catalog.Refresh(ctx); err != nil {
			mylogger.Warn(ctx, s.logger, "catalog reload after logout failed", zap.Error(err))
		}
	}

	if email != "" {
		s.publisher.Publish(ctx, pkgdomain.EventUserLoggedOut, email, pkgdomain.SessionEvent{Email: email})
	}

	s.nav.Navigate(ctx, HomePath)
	mylogger.Info(ctx, s.logger, "user signed out", zap.String("email", email))
	return nil
}

// UpdateUser applies patch server-side and merges the result into the current user.
func (s *Store) UpdateUser(ctx context.Context, patch domain.UserPatch) (domain.User, error) {
	current := s.User()
	if current == nil {
		return domain.User{}, domain.ErrNotAuthenticated
	}

	if err := utils.Validator().Struct(patch); err != nil {
		s.setError(err.Error())
		return domain.User{}, err
	}

	s.begin()

	var updated domain.User
	if err := s.api.Put(ctx, "/auth/profile", patch, &updated); err != nil {
		s.end(gateway.Message(err))
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}

	merged := mergeUser(current.Apply(patch), updated)

	if err := s.creds.SaveUser(ctx, merged); err != nil {
		s.end(err.Error())
		return domain.User{}, fmt.Errorf("persist user: %w", err)
	}
	s.saveProfile(ctx, merged)

	s.setUser(&merged)
	s.end("")

	return merged, nil
}

// LoadUser restores the persisted identity. It returns nil when there is none.
func (s *Store) LoadUser(ctx context.Context) (*domain.User, error) {
	token, err := s.creds.Token(ctx)
	if err != nil {
		mylogger.Warn(ctx, s.logger, "persisted token unreadable", zap.Error(err))
		s.clearIdentity(ctx)
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	s.begin()

	var me domain.User
	err = s.api.Get(gateway.WithoutRedirect(ctx), "/auth/me", &me)
	if errors.Is(err, gateway.ErrUnauthorized) {
		s.end("")
		return nil, err
	}
	if err != nil {
		s.end(gateway.Message(err))

		cached, cerr := s.creds.User(ctx)
		if cerr != nil || cached == nil {
			return nil, fmt.Errorf("load user: %w", err)
		}
		s.setUser(cached)
		s.switchIdentity(ctx, cached.Email)
		mylogger.Warn(ctx, s.logger, "using persisted user, backend unavailable", zap.Error(err))
		return s.User(), fmt.Errorf("load user: %w", err)
	}

	user := s.withSavedProfile(ctx, me)
	if err := s.creds.SaveUser(ctx, user); err != nil {
		mylogger.Warn(ctx, s.logger, "failed to persist user", zap.Error(err))
	}

	s.setUser(&user)
	s.end("")

	s.switchIdentity(ctx, user.Email)
	s.reloadAll(ctx)

	return s.User(), nil
}

func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.inflight > 0
}

func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastErr
}

func (s *Store) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight++
	s.lastErr = ""
}

func (s *Store) end(errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inflight--
	s.lastErr = errMsg
}

func (s *Store) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastErr = msg
}

func (s *Store) setUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = u
}

func (s *Store) switchIdentity(_ context.Context, email string) {
	s.cart.ReloadForUser(email)
	s.orders.ReloadForUser(email)
}

// clearIdentity forgets the user and its persisted token, empties cart and orders, and returns the old email.
func (s *Store) clearIdentity(ctx context.Context) string {
	s.mu.Lock()
	var email string
	if s.user != nil {
		email = s.user.Email
	}
	s.user = nil
	s.mu.Unlock()

	if err := s.creds.Clear(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "failed to clear credentials", zap.Error(err))
	}

	s.switchIdentity(ctx, "")
	return email
}

// reloadAll refetches cart and orders for the new identity and reloads the catalog.
// Failures stay in each store's Err.
func (s *Store) reloadAll(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, err := s.cart.Fetch(gctx)
		return ignoreErr(gctx, s.logger, "cart", err)
	})
	g.Go(func() error {
		_, err := s.orders.Fetch(gctx)
		return ignoreErr(gctx, s.logger, "orders", err)
	})
	if s.catalog != nil {
		g.Go(func() error {
			return ignoreErr(gctx, s.logger, "catalog", s.catalog.Refresh(gctx))
		})
	}

	_ = g.Wait()
}

func ignoreErr(ctx context.Context, logger *zap.Logger, what string, err error) error {
	if err != nil {
		mylogger.Warn(ctx, logger, "reload after identity change failed", zap.String("store", what), zap.Error(err))
	}
	return nil
}

func (s *Store) withSavedProfile(ctx context.Context, user domain.User) domain.User {
	saved, ok, err := s.creds.Profile(ctx, user.Email)
	if err != nil {
		mylogger.Warn(ctx, s.logger, "saved profile unreadable", zap.String("email", user.Email), zap.Error(err))
		return user
	}
	if !ok {
		return user
	}
	return user.MergeProfile(saved)
}

func (s *Store) saveProfile(ctx context.Context, user domain.User) {
	if err := s.creds.SaveProfile(ctx, user.Email, user.Profile()); err != nil {
		mylogger.Warn(ctx, s.logger, "failed to save profile", zap.String("email", user.Email), zap.Error(err))
	}
}

// mergeUser overlays the server's answer on the locally patched user.
func mergeUser(local, server domain.User) domain.User {
	if server.ID == "" && server.Email == "" {
		return local
	}
	merged := server.MergeProfile(local.Profile())
	if merged.ID == "" {
		merged.ID = local.ID
	}
	if merged.Email == "" {
		merged.Email = local.Email
	}
	if merged.FirstName == "" {
		merged.FirstName = local.FirstName
	}
	if merged.LastName == "" {
		merged.LastName = local.LastName
	}
	if merged.Role == "" {
		merged.Role = local.Role
	}
	return merged
}
