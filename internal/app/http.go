package app

import (
	"context"
	"net/http"

	"team-sso/internal/auth/avatar"
	"team-sso/internal/auth/credentials"
	"team-sso/internal/auth/handler"
	"team-sso/internal/auth/provider"
	"team-sso/internal/auth/provider/google"
	"team-sso/internal/auth/provider/office365"
	"team-sso/internal/auth/resolver"
	"team-sso/internal/config"
	"team-sso/internal/events"
	"team-sso/internal/metrics"
	"team-sso/internal/middleware"
	"team-sso/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func setupHTTP(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*gin.Engine, func() error, error) {
	infra, err := setupInfra(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	providers, allowed, err := setupProviders(ctx, cfg, log)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}
	log.Infow("providers ready", "providers", providers.Names())

	// ----------------------------
	// Dependencies
	// ----------------------------

	sessionStore := session.NewRedisStore(infra.Redis.Client)

	avatars := avatar.New(avatar.Options{
		LookupURL:      cfg.Avatar.LookupURL,
		PlaceholderURL: cfg.Avatar.PlaceholderURL,
		Salt:           cfg.Avatar.Salt,
		Timeout:        cfg.HTTP.OutboundTimeout,
		Cache:          avatar.NewRedisCache(infra.Redis.Client, log),
		CacheTTL:       cfg.Avatar.CacheTTL,
	}, log)

	var sink events.Sink = events.Discard{}
	if cfg.Events.Stream != "" {
		sink = events.NewRedisStream(infra.Redis.Client, cfg.Events.Stream)
	}

	linker := resolver.NewLinker(infra.Store, avatars, sink, allowed, log)

	authHandler := handler.NewHandler(
		providers,
		sessionStore,
		linker,
		infra.Store,
		credentials.NewService(infra.Store, sink, log),
		metrics.NewSignin(prometheus.DefaultRegisterer),
		handler.Options{
			BaseURL:           cfg.URL,
			SubdomainsEnabled: cfg.SubdomainsEnabled,
			SessionTTL:        cfg.Session.TTL,
			SignupEnabled:     cfg.Email.SignupEnabled,
		},
		log,
	)

	authMiddleware := middleware.NewAuthMiddleware(sessionStore, log)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))
	authHandler.RegisterAPIRoutes(api)

	return router, infra.Close, nil
}

// setupProviders discovers every configured provider. A provider without
// a client id is skipped; a discovery failure aborts startup.
func setupProviders(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*provider.Registry, map[string][]string, error) {
	var list []provider.Provider
	allowed := map[string][]string{}

	if cfg.Office365.ClientID != "" {
		p, err := office365.New(ctx, office365.Config{
			Issuer:       cfg.Office365.Issuer,
			ClientID:     cfg.Office365.ClientID,
			ClientSecret: cfg.Office365.ClientSecret,
			RedirectURL:  cfg.CallbackURL(office365.Name),
			Timeout:      cfg.HTTP.OutboundTimeout,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		list = append(list, p)
		allowed[office365.Name] = cfg.Office365.Domains()
	}

	if cfg.Google.ClientID != "" {
		p, err := google.New(ctx, google.Config{
			Issuer:       cfg.Google.Issuer,
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.CallbackURL(google.Name),
			Timeout:      cfg.HTTP.OutboundTimeout,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		list = append(list, p)
		allowed[google.Name] = cfg.Google.Domains()
	}

	if len(list) == 0 {
		log.Warnw("no identity providers configured")
	}
	return provider.NewRegistry(list...), allowed, nil
}
