package bootstrap

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/cnpie-acelerador/cnpie-backend/config"
	httpapi "github.com/cnpie-acelerador/cnpie-backend/internal/api/http"
	"github.com/cnpie-acelerador/cnpie-backend/internal/api/http/middleware"
	"github.com/cnpie-acelerador/cnpie-backend/internal/api/http/routes"
	aihttp "github.com/cnpie-acelerador/cnpie-backend/internal/ai/http"
	"github.com/cnpie-acelerador/cnpie-backend/internal/auth"
	authmw "github.com/cnpie-acelerador/cnpie-backend/internal/auth/middleware"
	"github.com/cnpie-acelerador/cnpie-backend/internal/files/objectstore"
)

type RouterDeps struct {
	ServiceName string
	Config      *config.Config
	DB          *Databases
	Redis       *redis.Client
	Firebase    *firebase.App
	Objects     objectstore.Store
	AI          aihttp.Functions
	StopStreams <-chan struct{}
}

func BuildRouter(ctx context.Context, dep RouterDeps) (*gin.Engine, error) {
	cfg := dep.Config

	authenticate, err := authMiddleware(ctx, cfg.App, dep.Firebase)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id", "X-User-Id", "X-User-Email", "X-User-Name"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	checks := map[string]httpapi.Check{"db": dep.DB.Ping, "redis": nil}
	if dep.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return dep.Redis.Ping(ctx).Err() }
	}
	httpapi.NewHealthHandler(dep.ServiceName, cfg.App.Version, checks).RegisterRoutes(r)

	routes.RegisterV1(r, routes.V1Deps{
		Pool:         dep.DB.PG.Pool,
		SQL:          dep.DB.SQL,
		Redis:        dep.Redis,
		RecordTTL:    cfg.Redis.RecordTTL,
		Objects:      dep.Objects,
		AI:           dep.AI,
		Authenticate: authenticate,
		StopStreams:  dep.StopStreams,
	})

	return r, nil
}

// authMiddleware verifies Firebase ID tokens, or trusts X-User-Id headers
// when APP_DEV_AUTH is set.
func authMiddleware(ctx context.Context, app config.AppConfig, fb *firebase.App) (gin.HandlerFunc, error) {
	if app.DevAuth {
		if app.Environment == "production" {
			return nil, fmt.Errorf("APP_DEV_AUTH must not be enabled in production")
		}
		return auth.DevUser(), nil
	}
	if fb == nil {
		return nil, fmt.Errorf("firebase app is required for token verification")
	}
	client, err := fb.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return authmw.FirebaseAuthMiddleware(client), nil
}
