package main

import (
	"net/http"
	"os"

	"apidocs-admin/config"
	"apidocs-admin/controllers"
	"apidocs-admin/database"
	"apidocs-admin/middlewares"
	"apidocs-admin/proxy"
	"apidocs-admin/routes"
	"apidocs-admin/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	// ---- Config (env / .env)
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("could not load configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	// ---- Database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("could not connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("could not migrate database")
	}

	// ---- Proxy
	allow := proxy.NewAllowList(proxy.DefaultAllowedHosts...)
	proxyRoutes, err := proxy.NewRoutes(allow, cfg.DefaultBase,
		proxy.Route{Prefix: "partner/", Base: cfg.PartnerBase},
		proxy.Route{Prefix: "cardgenius/", Base: cfg.CardGeniusBase},
		proxy.Route{Prefix: "v1/", Base: cfg.V1Base},
	)
	if err != nil {
		log.WithError(err).Fatal("invalid proxy routes")
	}
	httpClient := &http.Client{Timeout: cfg.ProxyTimeout}

	endpointCtrl := &controllers.EndpointController{
		Store: store.NewGormEndpointStore(db, log),
		Log:   log,
	}
	proxyCtrl := &controllers.ProxyController{
		Explicit: proxy.NewLenientForwarder(httpClient, allow, log),
		Routed:   proxy.NewStrictForwarder(httpClient, allow, log),
		Routes:   proxyRoutes,
		Log:      log,
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler(log),
		BodyLimit:    cfg.BodyLimitBytes,
	})

	// ---- CORS first so every response, preflight and errors included, carries it
	app.Use(middlewares.CORS(cfg.AllowedOrigins))
	app.Use(recover.New())
	app.Use(middlewares.RequestLogger(log))

	// ---- Global rate limiter (RATE_LIMIT_MAX=0 disables it)
	if cfg.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: cfg.RateLimitWindow,
		}))
	}

	// ---- Routes
	routes.Register(app, endpointCtrl, proxyCtrl)

	// ---- Start
	log.WithField("port", cfg.Port).Info("API server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
