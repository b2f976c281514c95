package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"github.com/DhavalSuthar-24/bookmytickets/config"
	"github.com/DhavalSuthar-24/bookmytickets/handlers"
	_ "github.com/DhavalSuthar-24/bookmytickets/migrations"
	"github.com/DhavalSuthar-24/bookmytickets/monitoring"
	"github.com/DhavalSuthar-24/bookmytickets/services"
	"github.com/DhavalSuthar-24/bookmytickets/utils"
)

func Start() error {
	app := pocketbase.New()

	cfg := config.LoadConfig()

	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey
	pn := pubnub.NewPubNub(pnConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	ticketQueue := services.NewTicketQueue(redisClient)
	credentials := services.NewCredentialService(cfg.QRCodeDir)
	notifier := services.NewNotifierService(redisClient, pn)
	fulfillment := services.NewFulfillmentService(app, ticketQueue, credentials, notifier, cfg.WorkerIdleInterval)
	booking := services.NewBookingService(app, ticketQueue)

	// Initialize handlers
	ticketHandler := handlers.NewTicketHandler(app, booking)
	ticketTypeHandler := handlers.NewTicketTypeHandler(app)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// The fulfillment worker is spawned exactly once for the process
		// lifetime; it is the single consumer of the ticket queue.
		go fulfillment.Run(ctx)

		if cfg.EnableMetrics {
			monitor := monitoring.NewMonitor(ticketQueue.Depth)
			go monitor.Start(ctx)
			e.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		// Booking and ticket endpoints
		e.Router.POST("/api/tickets/book", ticketHandler.BookTickets).Bind(apis.RequireAuth())
		e.Router.POST("/api/tickets/scan", ticketHandler.ScanTicket).Bind(apis.RequireSuperuserAuth())
		e.Router.GET("/api/tickets", ticketHandler.GetUserTickets).Bind(apis.RequireAuth())
		e.Router.GET("/api/tickets/{id}", ticketHandler.GetTicketDetails).Bind(apis.RequireAuth())
		e.Router.DELETE("/api/tickets/{id}", ticketHandler.CancelTicket).Bind(apis.RequireAuth())

		// Ticket type endpoints
		e.Router.POST("/api/ticket-types", ticketTypeHandler.CreateTicketType).Bind(apis.RequireSuperuserAuth())
		e.Router.GET("/api/events/{eventId}/ticket-types", ticketTypeHandler.GetTicketTypesByEvent)
		e.Router.GET("/api/ticket-types/{id}", ticketTypeHandler.GetTicketTypeDetails)
		e.Router.PATCH("/api/ticket-types/{id}", ticketTypeHandler.UpdateTicketType).Bind(apis.RequireSuperuserAuth())
		e.Router.DELETE("/api/ticket-types/{id}", ticketTypeHandler.DeleteTicketType).Bind(apis.RequireSuperuserAuth())

		// Credential artifact retrieval
		e.Router.GET("/qr-codes/{path...}", apis.Static(os.DirFS(cfg.QRCodeDir), false))

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	return app.Start()
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
