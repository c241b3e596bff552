// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	accountsfeature "github.com/kesherteam/kesher/internal/app/features/accounts"
	attendancefeature "github.com/kesherteam/kesher/internal/app/features/attendance"
	errorsfeature "github.com/kesherteam/kesher/internal/app/features/errors"
	healthfeature "github.com/kesherteam/kesher/internal/app/features/health"
	loginfeature "github.com/kesherteam/kesher/internal/app/features/login"
	matchingrulesfeature "github.com/kesherteam/kesher/internal/app/features/matchingrules"
	residentsfeature "github.com/kesherteam/kesher/internal/app/features/residents"
	volunteersfeature "github.com/kesherteam/kesher/internal/app/features/volunteers"
	"github.com/kesherteam/kesher/internal/app/live"
	tokenstore "github.com/kesherteam/kesher/internal/app/store/tokens"
	userstore "github.com/kesherteam/kesher/internal/app/store/users"
	"github.com/kesherteam/kesher/internal/app/system/auth"
	"github.com/kesherteam/kesher/internal/app/system/metrics"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Kesher's surface is a JSON API: login
// and token refresh, CRUD plus SSE streams for residents, volunteers,
// attendance, and matching rules, and manager-only account management.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	tokens := tokenstore.New(db)
	sessionMgr := auth.NewSessionManager(users, tokens, appCfg.TokenTTL, appCfg.RememberTTL, logger)

	// One live collection per mirrored Mongo collection; feature handlers
	// share these and open per-request subscriptions and mutators.
	residents := live.NewMongoCollection(db, "residents", live.ResidentSchema, logger)
	volunteers := live.NewMongoCollection(db, "volunteers", live.VolunteerSchema, logger)
	attendance := live.NewMongoCollection(db, "attendance", live.AttendanceSchema, logger)
	matchingRules := live.NewMongoCollection(db, "matching_rules", live.MatchingRuleSchema, logger)

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(metrics.Middleware)

	// Loads the bearer-token user into context if present; route guards
	// downstream decide whether one is required.
	r.Use(sessionMgr.LoadUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler())

	api := chi.NewRouter()

	// Authentication: /api/login, /api/refresh, /api/logout
	loginHandler := loginfeature.NewHandler(sessionMgr, errLog, logger)
	api.Mount("/", loginfeature.Routes(loginHandler))

	// Everything else requires a signed-in user; writes additionally
	// require the manager role (enforced per feature).
	api.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Mount("/residents", residentsfeature.Routes(
			residentsfeature.NewHandler(residents, errLog, logger)))
		pr.Mount("/volunteers", volunteersfeature.Routes(
			volunteersfeature.NewHandler(volunteers, errLog, logger)))
		pr.Mount("/attendance", attendancefeature.Routes(
			attendancefeature.NewHandler(attendance, errLog, logger)))
		pr.Mount("/matching-rules", matchingrulesfeature.Routes(
			matchingrulesfeature.NewHandler(matchingRules, errLog, logger)))
		pr.Mount("/accounts", accountsfeature.Routes(
			accountsfeature.NewHandler(users, tokens, errLog, logger)))
	})

	r.Mount("/api", api)

	return r, nil
}
