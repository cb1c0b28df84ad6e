package app

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/abhaytalreja/next-saas-sub007/internal/config"
	"github.com/abhaytalreja/next-saas-sub007/internal/db"
	"github.com/abhaytalreja/next-saas-sub007/internal/metrics"
	"github.com/abhaytalreja/next-saas-sub007/internal/permissions"
	"github.com/abhaytalreja/next-saas-sub007/internal/pipeline"
	"github.com/abhaytalreja/next-saas-sub007/internal/ratelimit"
	"github.com/abhaytalreja/next-saas-sub007/internal/security"
	internalsettings "github.com/abhaytalreja/next-saas-sub007/internal/settings"
	"github.com/abhaytalreja/next-saas-sub007/internal/tenant"
	"github.com/abhaytalreja/next-saas-sub007/internal/usage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Background maintenance intervals.
const (
	memorySweepInterval  = time.Minute
	lockoutSweepInterval = time.Minute
	shutdownTimeout      = 10 * time.Second
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the guarded API server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, defaultPort int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	settingsStore := internalsettings.NewStore(conn)
	if errRefresh := settingsStore.Refresh(ctx); errRefresh != nil {
		log.WithError(errRefresh).Warn("app: initial settings load failed, using defaults")
	}
	settingsStore.Start(ctx)

	sink := security.NewGormEventSink(conn)
	sink.Start(ctx)

	securityCfg := security.LoadConfig(settingsStore)
	monitor := security.NewMonitor(securityCfg, sink, nil)
	monitor.Lockouts().StartSweeper(ctx, lockoutSweepInterval)

	limiter := ratelimit.NewManager(ratelimit.ProviderFromStore(settingsStore), nil, nil)
	limiter.MemoryStore().StartSweeper(ctx, memorySweepInterval)

	tracker := usage.NewTracker(conn, nil)
	tracker.Start(ctx)

	resolver := tenant.NewJWTResolver(config.LoadJWTSecret(configPath))

	pipe := pipeline.New(resolver, monitor, limiter, conn, ratelimit.ProviderFromStore(settingsStore), tracker)

	engine := buildRouter(pipe, conn, tracker)

	if defaultPort <= 0 {
		defaultPort = 8318
	}
	server := &http.Server{
		Addr:    ":" + strconv.Itoa(defaultPort),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("starting guard server on %s with config=%s", server.Addr, cfg.ConfigPath)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// permissionSecurityReadAll grants security reports across organizations.
const permissionSecurityReadAll = "security:read:all"

// reportScope resolves which organization a report request may cover.
// Callers read their own organization by default; reading another
// organization requires the cross-organization grant.
func reportScope(tctx tenant.Context, requested string) (string, bool) {
	if requested == "" || requested == tctx.OrganizationID {
		return tctx.OrganizationID, true
	}
	if permissions.Has(tctx.Permissions, permissionSecurityReadAll) {
		return requested, true
	}
	return "", false
}

// buildRouter assembles the gin engine: unguarded health and metrics
// endpoints, then the admin surface behind the full pipeline.
func buildRouter(pipe *pipeline.Pipeline, conn *gorm.DB, tracker *usage.Tracker) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	reportChain := pipe.Chain("reports", "security:read")
	engine.GET("/v0/admin/security/report", append(reportChain, func(c *gin.Context) {
		tctx, _ := tenant.FromGin(c)
		days, errDays := strconv.Atoi(c.DefaultQuery("days", "7"))
		if errDays != nil || days <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
		orgID, ok := reportScope(tctx, c.Query("organization_id"))
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Cross-organization reports require elevated access.",
			})
			return
		}
		report, errReport := security.GenerateReport(c.Request.Context(), conn, orgID, days)
		if errReport != nil {
			log.WithError(errReport).Warn("app: security report failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "report unavailable"})
			return
		}
		c.JSON(http.StatusOK, report)
	})...)

	usageChain := pipe.Chain("reports", "usage:read")
	engine.GET("/v0/admin/usage", append(usageChain, func(c *gin.Context) {
		tctx, _ := tenant.FromGin(c)
		period := c.DefaultQuery("period", time.Now().UTC().Format("2006-01-02"))
		totals, errTotals := tracker.TotalForPeriod(c.Request.Context(), tctx.OrganizationID, period)
		if errTotals != nil {
			log.WithError(errTotals).Warn("app: usage lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "usage unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"organization_id": tctx.OrganizationID,
			"period":          period,
			"totals":          totals,
		})
	})...)

	api := engine.Group("/v0/api")
	for _, route := range []struct {
		path       string
		permission string
	}{
		{"/data", "api:read"},
		{"/billing/summary", "billing:read"},
		{"/reports/export", "reports:read"},
	} {
		chain := pipe.Chain(pipeline.EndpointForPath(route.path), route.permission)
		api.GET(route.path, append(chain, func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})...)
	}

	return engine
}
