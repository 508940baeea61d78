package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/router"
	"github.com/iliyamo/event-ticketing/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()
	if cfg.Env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and OTP verification disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	venues := repository.NewVenueRepo(db)
	events := repository.NewEventRepo(db)
	tickets := repository.NewTicketRepo(db)

	pub := service.NewPublisher(cfg.AMQPURL, log)
	conflicts := service.NewConflictChecker(events)
	eventSvc := service.NewEventService(events, conflicts, log)
	bookingSvc := service.NewBookingService(events, tickets, pub, log)
	ticketSvc := service.NewTicketService(events, tickets, log)
	reportSvc := service.NewReportService(events, tickets)

	if cfg.AMQPURL != "" {
		go queue.StartReminderConsumer(cfg.AMQPURL, log)
		go service.NewReminderScheduler(tickets, pub, log).Run(context.Background())
	} else {
		log.Warn("AMQP_URL unset; reminders and booking events disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	router.Register(e, router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, users, tokens, rdb, pub, log),
		Venues:  handler.NewVenueHandler(venues),
		Events:  handler.NewEventHandler(eventSvc, reportSvc, events, tickets),
		Tickets: handler.NewTicketHandler(bookingSvc, ticketSvc, tickets),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("server starting")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
