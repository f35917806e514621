// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"campusboard/internal/calendar"
	calendarhandler "campusboard/internal/calendar/handler"
	"campusboard/internal/contact"
	contacthandler "campusboard/internal/contact/handler"
	"campusboard/internal/docstore"
	"campusboard/internal/docstore/cache"
	"campusboard/internal/docstore/memory"
	"campusboard/internal/docstore/postgres"
	"campusboard/internal/event"
	eventhandler "campusboard/internal/event/handler"
	eventmetrics "campusboard/internal/event/metrics"
	"campusboard/internal/notice"
	noticehandler "campusboard/internal/notice/handler"
	noticemetrics "campusboard/internal/notice/metrics"
	"campusboard/internal/platform/config"
	"campusboard/internal/platform/email"
	dummymail "campusboard/internal/platform/email/dummy"
	sendgridmail "campusboard/internal/platform/email/sendgrid"
	"campusboard/internal/platform/httpserver"
	"campusboard/internal/platform/logger"
	platformredis "campusboard/internal/platform/redis"
	"campusboard/internal/session"
	httptransport "campusboard/internal/transport/http"
	"campusboard/pkg/platform/audit"
	"campusboard/pkg/platform/audit/publisher"
	auditmemory "campusboard/pkg/platform/audit/store/memory"
	"campusboard/pkg/platform/audit/worker"
	"campusboard/pkg/platform/dedupe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Document store: Postgres when configured, in-memory otherwise.
	var store docstore.Store
	if cfg.PostgresDSN != "" {
		pg, err := postgres.Open(ctx, cfg.PostgresDSN, log)
		if err != nil {
			log.Error("postgres init failed", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
	} else {
		log.Warn("no postgres_dsn configured, using in-memory store")
		store = memory.New()
	}

	// Redis snapshot cache keeps reads serving through store outages.
	rdb, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		store = cache.New(store, rdb.Client, log)
	}

	// Audit pipeline: channel publisher feeding a store worker, optionally
	// teeing to Kafka.
	auditChan := publisher.NewChannel(log)
	auditStore := auditmemory.NewInMemoryStore()
	auditWorker := worker.NewWorker(auditStore, auditChan.Inbox(), log)
	var auditPub audit.Publisher = auditChan
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err := publisher.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("kafka init failed", "error", err)
			os.Exit(1)
		}
		defer kafkaPub.Close()
		auditPub = publisher.Tee(auditChan, kafkaPub)
	}

	verifier := session.NewVerifier(cfg.SessionKey)

	var mailSvc email.Service
	if cfg.SendGridKey != "" {
		mailSvc = sendgridmail.NewService(cfg.SendGridKey, cfg.AppName, cfg.MailFrom)
	} else {
		log.Warn("no sendgrid_key configured, contact messages are recorded only")
		mailSvc = dummymail.NewService()
	}

	em := eventmetrics.New()
	nm := noticemetrics.New()
	eventWatcher := event.NewWatcher(store, log, em, event.WithLimit(cfg.DashboardLimit))
	eventSubmitter := event.NewSubmitter(store, dedupe.NewInMemory(cfg.DedupeSize), auditPub, log, em)
	noticeWatcher := notice.NewWatcher(store, log, nm)
	noticeSubmitter := notice.NewSubmitter(store, cfg.AdminEmails, auditPub, log, nm)
	calendarSvc := calendar.NewService(store, log)
	contactSvc := contact.NewService(mailSvc, mail.Address{Address: cfg.ContactRecipient}, auditPub, log)

	router := httptransport.NewRouter(
		eventhandler.New(eventWatcher, eventSubmitter, verifier, log),
		noticehandler.New(noticeWatcher, noticeSubmitter, verifier, log).WithDefaultLimit(cfg.NoticeLimit),
		calendarhandler.New(calendarSvc, verifier, log),
		contacthandler.New(contactSvc, verifier, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := auditWorker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("starting campusboard", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
