package routes

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	accelcache "github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/cache"
	accelhttp "github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/http"
	accelrepo "github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/repository"
	accelsvc "github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/service"
	aihttp "github.com/cnpie-acelerador/cnpie-backend/internal/ai/http"
	"github.com/cnpie-acelerador/cnpie-backend/internal/auth"
	etapa3http "github.com/cnpie-acelerador/cnpie-backend/internal/etapa3/http"
	etapa3repo "github.com/cnpie-acelerador/cnpie-backend/internal/etapa3/repository"
	etapa3svc "github.com/cnpie-acelerador/cnpie-backend/internal/etapa3/service"
	"github.com/cnpie-acelerador/cnpie-backend/internal/files"
	"github.com/cnpie-acelerador/cnpie-backend/internal/files/objectstore"
	progresshttp "github.com/cnpie-acelerador/cnpie-backend/internal/progress/http"
	progressrepo "github.com/cnpie-acelerador/cnpie-backend/internal/progress/repository"
	progresssvc "github.com/cnpie-acelerador/cnpie-backend/internal/progress/service"
	surveyhttp "github.com/cnpie-acelerador/cnpie-backend/internal/surveys/http"
	surveyrepo "github.com/cnpie-acelerador/cnpie-backend/internal/surveys/repository"
	surveysvc "github.com/cnpie-acelerador/cnpie-backend/internal/surveys/service"
	"github.com/cnpie-acelerador/cnpie-backend/internal/users"
)

type V1Deps struct {
	Pool *pgxpool.Pool
	SQL  *sql.DB

	// Redis enables the record cache and the /events stream; nil disables both.
	Redis     *redis.Client
	RecordTTL time.Duration

	// Objects is nil when no object store could be configured; /files is
	// then not mounted.
	Objects objectstore.Store
	AI      aihttp.Functions

	// StopStreams is closed when the server starts shutting down.
	StopStreams <-chan struct{}

	// Authenticate sets the firebase uid (FirebaseAuthMiddleware or DevUser).
	Authenticate gin.HandlerFunc
}

func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")

	surveys := surveyhttp.New(surveysvc.NewService(surveyrepo.NewSurveyRepository(dep.SQL)))
	surveys.RegisterPublic(api)

	private := api.Group("")
	userRepo := users.NewRepo(dep.Pool)
	private.Use(dep.Authenticate, auth.WithUser(userRepo))

	users.Register(private, userRepo, auth.UserDBID)

	var opts []accelsvc.Option
	if dep.Redis != nil {
		opts = append(opts, accelsvc.WithCache(accelcache.NewRecordCache(dep.Redis, dep.RecordTTL)))
	}
	trackers := accelsvc.NewService(accelrepo.NewProjectRepository(dep.Pool), opts...)

	projects := private.Group("/projects/:project_type")
	accelhttp.New(trackers).StopStreams(dep.StopStreams).Register(projects)
	etapa3http.New(etapa3svc.NewService(etapa3repo.NewEntityRepository(dep.Pool)), trackers).Register(projects)
	if dep.AI != nil {
		aihttp.New(dep.AI, trackers, trackers.Layout()).Register(projects)
	}

	progresshttp.New(progresssvc.NewService(progressrepo.NewSessionRepository(dep.SQL))).Register(private)

	if dep.Objects != nil {
		files.Register(private, files.NewService(files.NewRepo(dep.Pool), dep.Objects), auth.UserDBID)
	}

	surveys.Register(private)
}
