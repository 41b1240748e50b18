package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sakashimaa/etech-storefront/internal/admin"
	"github.com/sakashimaa/etech-storefront/internal/catalog"
	"github.com/sakashimaa/etech-storefront/internal/credentials"
	"github.com/sakashimaa/etech-storefront/internal/events"
	"github.com/sakashimaa/etech-storefront/internal/gateway"
	"github.com/sakashimaa/etech-storefront/internal/metrics"
	"github.com/sakashimaa/etech-storefront/internal/session"
	"github.com/sakashimaa/etech-storefront/pkg/config"
	"github.com/sakashimaa/etech-storefront/pkg/kafka"
	"github.com/sakashimaa/etech-storefront/pkg/mylogger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Session is everything one UI session holds.
type Session struct {
	ID       string
	Identity *session.Store
	Admin    *admin.Store
	Redirect *session.PendingRedirect

	lastSeen atomic.Int64
	boot     sync.Once
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// App is the process-wide context: one catalog, one backend client, many sessions.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time

	client   *gateway.Client
	catalog  *catalog.Cache
	redis    *redis.Client
	producer kafka.Producer
	consumer *kafka.ConsumerGroup

	storefrontEvents events.Publisher
	productEvents    events.Publisher

	ownsRedis bool

	mu       sync.Mutex
	sessions map[string]*Session
}

type Option func(*App)

func WithRedis(client *redis.Client) Option {
	return func(a *App) {
		a.redis = client
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// WithPublishers replaces the Kafka publishers, mostly for tests.
func WithPublishers(storefront, products events.Publisher) Option {
	return func(a *App) {
		a.storefrontEvents = storefront
		a.productEvents = products
	}
}

func WithGatewayOptions(opts ...gateway.Option) Option {
	return func(a *App) {
		a.client = gateway.New(gateway.Config{BaseURL: a.cfg.Backend.BaseURL, Timeout: a.cfg.Backend.Timeout}, a.logger, opts...)
	}
}

func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	a := &App{
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.client == nil {
		a.client = gateway.New(gateway.Config{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.Timeout}, logger)
	}

	a.catalog = catalog.New(a.client, logger, catalog.WithClock(a.now), catalog.WithTTL(catalog.TTL{
		Products:   cfg.Cache.ProductsTTL,
		Categories: cfg.Cache.CategoriesTTL,
		Brands:     cfg.Cache.BrandsTTL,
	}))

	if a.redis == nil && cfg.Redis.Enabled {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		a.ownsRedis = true
	}

	if err := a.setupKafka(); err != nil {
		_ = a.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) setupKafka() error {
	brokers := a.cfg.Kafka.Brokers

	if a.storefrontEvents == nil {
		if len(brokers) == 0 {
			a.storefrontEvents = events.NewNop()
			a.productEvents = events.NewNop()
		} else {
			producer, err := kafka.NewProducer(brokers, a.logger)
			if err != nil {
				return fmt.Errorf("create kafka producer: %w", err)
			}
			a.producer = producer
			a.storefrontEvents = events.NewKafkaPublisher(producer, a.cfg.Kafka.EventsTopic, a.logger)
			a.productEvents = events.NewKafkaPublisher(producer, a.cfg.Kafka.ProductsTopic, a.logger)
		}
	}
	if a.productEvents == nil {
		a.productEvents = events.NewNop()
	}

	if len(brokers) > 0 {
		a.consumer = kafka.NewConsumerGroup(
			brokers,
			a.cfg.Kafka.GroupID,
			[]string{a.cfg.Kafka.ProductsTopic},
			a.catalog.HandleProductEvent,
			a.logger,
		)
	}
	return nil
}

func (a *App) Catalog() *catalog.Cache {
	return a.catalog
}

func (a *App) Client() *gateway.Client {
	return a.client
}

// ProductEvents publishes catalog changes so other instances drop their cache.
func (a *App) ProductEvents() events.Publisher {
	return a.productEvents
}

// Session returns the session for id, creating and bootstrapping it on first use.
func (a *App) Session(ctx context.Context, id string) *Session {
	now := a.now()

	a.mu.Lock()
	sess, ok := a.sessions[id]
	if !ok {
		sess = a.newSession(id)
		a.sessions[id] = sess
		metrics.ActiveSessions.Inc()
	}
	sess.touch(now)
	a.mu.Unlock()

	sess.boot.Do(func() {
		a.bootstrap(mylogger.WithSessionID(ctx, id), sess)
	})
	return sess
}

func (a *App) newSession(id string) *Session {
	var creds credentials.Store
	if a.redis != nil {
		creds = credentials.NewRedisStore(a.redis, id, a.cfg.Sessions.CredentialTTL)
	} else {
		creds = credentials.NewMemoryStore()
	}

	redirect := &session.PendingRedirect{}
	identity := session.New(session.Deps{
		Client:      a.client,
		Catalog:     a.catalog,
		Credentials: creds,
		Navigator:   redirect,
		Publisher:   a.storefrontEvents,
		Logger:      a.logger,
	})

	return &Session{
		ID:       id,
		Identity: identity,
		Admin:    admin.New(identity.API(), a.catalog, a.logger),
		Redirect: redirect,
	}
}

func (a *App) bootstrap(ctx context.Context, sess *Session) {
	user, err := sess.Identity.LoadUser(ctx)
	switch {
	case errors.Is(err, gateway.ErrUnauthorized):
		mylogger.Info(ctx, a.logger, "persisted session expired")
	case err != nil:
		mylogger.Warn(ctx, a.logger, "session bootstrap failed", zap.Error(err))
	case user != nil:
		mylogger.Info(ctx, a.logger, "session restored", zap.String("email", user.Email))
	}
}

// Sweep drops sessions idle for longer than the configured idle TTL and returns how many went.
// Persisted credentials stay, so a returning session is rebuilt by LoadUser.
func (a *App) Sweep(ctx context.Context) int {
	cutoff := a.now().Add(-a.cfg.Sessions.IdleTTL)

	a.mu.Lock()
	defer a.mu.Unlock()

	evicted := 0
	for id, sess := range a.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(a.sessions, id)
			metrics.ActiveSessions.Dec()
			evicted++
		}
	}

	if evicted > 0 {
		mylogger.Debug(ctx, a.logger, "idle sessions evicted", zap.Int("count", evicted), zap.Int("remaining", len(a.sessions)))
	}
	return evicted
}

func (a *App) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.sessions)
}

// Run blocks until ctx is cancelled, running the session janitor and the product-event consumer.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.janitor(gctx)
		return nil
	})

	if a.consumer != nil {
		g.Go(func() error {
			if err := a.consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("product events consumer: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func (a *App) janitor(ctx context.Context) {
	interval := a.cfg.Sessions.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	mylogger.Info(ctx, a.logger, "Starting session janitor", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mylogger.Info(ctx, a.logger, "Session janitor stopping")
			return
		case <-ticker.C:
			a.Sweep(ctx)
		}
	}
}

// Close releases what New opened, in reverse order.
func (a *App) Close() error {
	var errs []error

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka producer: %w", err))
		}
	}

	if a.redis != nil && a.ownsRedis {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	a.mu.Lock()
	metrics.ActiveSessions.Sub(float64(len(a.sessions)))
	a.sessions = make(map[string]*Session)
	a.mu.Unlock()

	return errors.Join(errs...)
}
