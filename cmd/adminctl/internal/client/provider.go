package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/Pachada/ReactBase/cmd/adminctl/internal/auth"
	"github.com/Pachada/ReactBase/pkg/sdk"
)

// Redis key prefixes for the two credential tiers.
const (
	durablePrefix   = "adminctl:durable"
	ephemeralPrefix = "adminctl:session"
)

// Options configures a Provider.
type Options struct {
	ServerURL string
	// Token is a bearer token that bypasses the stored session (CI, scripts).
	Token string

	Store         string // "file" or "redis"
	StateDir      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Provider lazily builds the storage tiers, the session manager and the SDK
// client that commands share. Everything is created at most once.
type Provider struct {
	opts Options

	storesOnce sync.Once
	durable    sdk.KV
	ephemeral  sdk.KV
	rdb        *redis.Client
	storesErr  error

	managerOnce sync.Once
	manager     *sdk.Manager
	session     *sdk.Client
	managerErr  error

	sdkOnce   sync.Once
	sdkClient *sdk.Client
	sdkErr    error
}

// NewProvider constructs a new Provider.
func NewProvider(opts Options) *Provider {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Provider{opts: opts}
}

// UsesStaticToken reports whether requests authenticate with an explicit
// bearer token instead of the stored session.
func (p *Provider) UsesStaticToken() bool {
	return p.opts.Token != ""
}

// Stores returns the durable and ephemeral storage tiers.
func (p *Provider) Stores(ctx context.Context) (durable, ephemeral sdk.KV, err error) {
	p.storesOnce.Do(func() {
		switch p.opts.Store {
		case "redis":
			rdb := redis.NewClient(&redis.Options{
				Addr:     p.opts.RedisAddr,
				Password: p.opts.RedisPassword,
				DB:       p.opts.RedisDB,
			})
			pingCtx, cancel := ensureTimeout(ctx, 3*time.Second)
			defer cancel()
			if err := rdb.Ping(pingCtx).Err(); err != nil {
				_ = rdb.Close()
				p.storesErr = fmt.Errorf("redis at %s unavailable: %w", p.opts.RedisAddr, err)
				return
			}
			p.rdb = rdb
			p.durable = auth.NewRedisStore(rdb, durablePrefix, 0)
			p.ephemeral = auth.NewRedisStore(rdb, ephemeralPrefix, auth.IdleTimeout)

		default:
			dir := p.opts.StateDir
			if dir == "" {
				if dir, p.storesErr = auth.DefaultStateDir(); p.storesErr != nil {
					return
				}
			}
			durable, err := auth.NewFileStore(dir, auth.DurableFile, 0, auth.WithFileLogger(p.opts.Logger))
			if err != nil {
				p.storesErr = err
				return
			}
			ephemeral, err := auth.NewFileStore(dir, auth.EphemeralFile, auth.IdleTimeout, auth.WithFileLogger(p.opts.Logger))
			if err != nil {
				p.storesErr = err
				return
			}
			p.durable, p.ephemeral = durable, ephemeral
		}
	})
	return p.durable, p.ephemeral, p.storesErr
}

// Manager returns the session manager, restored from storage.
func (p *Provider) Manager(ctx context.Context) (*sdk.Manager, error) {
	p.managerOnce.Do(func() {
		durable, ephemeral, err := p.Stores(ctx)
		if err != nil {
			p.managerErr = err
			return
		}

		store, err := sdk.NewCredentialStore(durable, ephemeral, sdk.WithStoreLogger(p.opts.Logger))
		if err != nil {
			p.managerErr = err
			return
		}

		metrics, err := sdk.NewClientMetrics(nil)
		if err != nil {
			p.managerErr = fmt.Errorf("failed to create client metrics: %w", err)
			return
		}

		p.session = sdk.NewClient(p.opts.ServerURL,
			sdk.WithHTTPClient(p.opts.HTTPClient),
			sdk.WithLogger(p.opts.Logger),
			sdk.WithMetrics(metrics),
		)
		p.manager = sdk.NewManager(p.session, store, sdk.WithManagerLogger(p.opts.Logger))
		p.session.SetTokenSource(p.manager)
		p.manager.Restore(ctx)
	})

	if p.managerErr != nil {
		return nil, p.managerErr
	}
	return p.manager, nil
}

// SDKClient returns the client admin commands use. With a static token it
// carries that token and never refreshes; otherwise it is the session
// manager's client, which heals expired access tokens.
func (p *Provider) SDKClient(ctx context.Context) (*sdk.Client, error) {
	p.sdkOnce.Do(func() {
		if p.opts.Token != "" {
			token := &oauth2.Token{AccessToken: p.opts.Token, TokenType: "Bearer"}
			p.sdkClient = sdk.NewClient(p.opts.ServerURL,
				sdk.WithHTTPClient(p.opts.HTTPClient),
				sdk.WithLogger(p.opts.Logger),
				sdk.WithTokenSource(oauth2.StaticTokenSource(token)),
			)
			return
		}

		manager, err := p.Manager(ctx)
		if err != nil {
			p.sdkErr = err
			return
		}
		if manager.Status() != sdk.StatusAuthenticated {
			p.sdkErr = errors.New("not logged in; please run `adminctl auth login`")
			return
		}
		p.sdkClient = p.session
	})

	if p.sdkErr != nil {
		return nil, p.sdkErr
	}
	return p.sdkClient, nil
}

// RequireRole fails unless the stored session holds one of roles. Static
// tokens carry no local identity, so the server is left to decide.
func (p *Provider) RequireRole(ctx context.Context, roles ...string) error {
	if p.UsesStaticToken() {
		return nil
	}
	manager, err := p.Manager(ctx)
	if err != nil {
		return err
	}
	if manager.HasRole(roles...) {
		return nil
	}
	user := manager.User()
	if user == nil {
		return errors.New("not logged in; please run `adminctl auth login`")
	}
	return fmt.Errorf("permission denied: %s has role %q", user.Username, user.RoleName)
}

// Close waits for background session calls and releases connections.
func (p *Provider) Close(ctx context.Context) error {
	var errs []error
	if p.manager != nil {
		if err := p.manager.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("waiting for session manager: %w", err))
		}
	}
	if p.rdb != nil {
		if err := p.rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

func ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}

	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	return ctxWithTimeout, cancel
}
