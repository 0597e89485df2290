package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/paulexconde/formdeck/internal/audit"
	"github.com/paulexconde/formdeck/internal/config"
	"github.com/paulexconde/formdeck/internal/handlers"
	"github.com/paulexconde/formdeck/internal/logger"
	"github.com/paulexconde/formdeck/internal/models"
	"github.com/paulexconde/formdeck/internal/pkg/paginator"
	"github.com/paulexconde/formdeck/internal/pkg/store"
	"github.com/paulexconde/formdeck/internal/pkg/workerpool"
	"github.com/paulexconde/formdeck/internal/server"
	"github.com/paulexconde/formdeck/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("connect database", "error", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		log.Fatal("migrate schema", "error", err)
	}

	formsDS := store.NewDataStore[models.Form](db, store.TableForms)
	pagesDS := store.NewDataStore[models.Page](db, store.TablePages)
	conditionsDS := store.NewDataStore[models.RoutingCondition](db, store.TableRoutingConditions)
	madeLiveDS := store.NewDataStore[models.MadeLiveForm](db, store.TableMadeLiveForms)
	revisionsDS := store.NewDataStore[audit.Revision](db, store.TableRevisions)

	pool := workerpool.NewWorkerPool(ctx, log, cfg.Audit.Workers, cfg.Audit.QueueSize)
	recorder := audit.NewRecorder(revisionsDS, pool, log)

	// Form writes go through the datastore, so its after-commit hook is
	// the audit emission point. Page and condition writes run inside
	// hand-rolled transactions and record explicitly in the services.
	formsDS.SetHooks(store.Hooks{
		AfterCommit: []func(ctx context.Context, action store.Action, id string, model any){
			audit.HookFor(recorder, audit.KindForm, func(model any) string {
				if form, ok := model.(*models.Form); ok {
					return form.ID
				}
				return ""
			}),
		},
	})

	formPager := paginator.NewPaginator[models.Form](formsDS)

	formSvc := services.NewFormService(formsDS, pagesDS, conditionsDS, madeLiveDS, formPager, recorder, log)
	pageSvc := services.NewPageService(formsDS, pagesDS, conditionsDS, recorder, log)
	conditionSvc := services.NewConditionService(pagesDS, conditionsDS, recorder, log)
	routingSvc := services.NewRoutingService()

	formH := handlers.NewFormHandler(log, formSvc, recorder)
	pageH := handlers.NewPageHandler(log, pageSvc, formSvc, routingSvc, cfg.LegacyAPIEnabled)
	conditionH := handlers.NewConditionHandler(log, conditionSvc)

	router := server.NewRouter(log, formH, pageH, conditionH)

	srv := &http.Server{
		Addr:    cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("server listening", "addr", cfg.Port, "legacy_api", cfg.LegacyAPIEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}
	pool.Shutdown(shutdownCtx)
}
