package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bento-order/internal/catalog"
	"bento-order/internal/checkout"
	"bento-order/internal/config"
	"bento-order/internal/database"
	"bento-order/internal/logger"
	"bento-order/internal/messaging"
	"bento-order/internal/models"
	"bento-order/internal/services/notification"
	"bento-order/internal/services/order"
	"bento-order/internal/storefront"
)

func main() {
	var (
		mode          = flag.String("mode", "", "Service mode (storefront, order-sink, notification-subscriber)")
		configPath    = flag.String("config", "config.yaml", "Path to the YAML configuration file")
		port          = flag.Int("port", 0, "HTTP port for order-sink (overrides server.port)")
		maxConcurrent = flag.Int("max-concurrent", 0, "Maximum concurrent order writes (overrides server.max_concurrent)")
		prefetch      = flag.Int("prefetch", 1, "RabbitMQ prefetch count")
		items         = flag.String("items", "", "Comma separated id:option:qty entries for storefront mode")
		userID        = flag.String("user-id", "", "Customer user id for storefront mode")
		displayName   = flag.String("display-name", "", "Customer display name for storefront mode")
	)
	flag.Parse()

	if *mode == "" {
		fmt.Fprintf(os.Stderr, "Error: --mode flag is required\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *maxConcurrent > 0 {
		cfg.Server.MaxConcurrent = *maxConcurrent
	}

	log := logger.New(*mode)
	requestID := logger.GenerateRequestID()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "storefront":
		opts := storefrontOptions{items: *items, userID: *userID, displayName: *displayName}
		if err := runStorefront(ctx, cfg, log, opts); err != nil {
			log.Error("service_failed", "Storefront session failed", requestID, err, nil)
			os.Exit(1)
		}
	case "order-sink":
		if err := runOrderSink(ctx, cfg, log); err != nil {
			log.Error("service_failed", "Order sink failed", requestID, err, nil)
			os.Exit(1)
		}
	case "notification-subscriber":
		if err := runNotificationSubscriber(ctx, cfg, log, *prefetch); err != nil {
			log.Error("service_failed", "Notification subscriber failed", requestID, err, nil)
			os.Exit(1)
		}
	default:
		log.Error("validation_failed", fmt.Sprintf("Unknown mode: %s", *mode), requestID, nil, nil)
		os.Exit(1)
	}

	log.Info("service_stopped", "Service stopped gracefully", requestID, nil)
}

type storefrontOptions struct {
	items       string
	userID      string
	displayName string
}

// runStorefront runs one headless session: load the menu, fill the cart, check out once
func runStorefront(ctx context.Context, cfg *config.Config, log *logger.Logger, opts storefrontOptions) error {
	requestID := logger.GenerateRequestID()

	lines, err := storefront.ParseItems(opts.items)
	if err != nil {
		return err
	}

	client := &http.Client{}
	loader, err := catalog.NewLoader(cfg.Catalog.URL, client, log,
		catalog.WithTimeout(cfg.Catalog.Timeout),
		catalog.WithFallback(cfg.Catalog.Fallback))
	if err != nil {
		return err
	}
	sink, err := checkout.NewHTTPSink(cfg.OrderSink.URL, client)
	if err != nil {
		return err
	}

	submitterOpts := []checkout.Option{
		checkout.WithSinkTimeout(cfg.OrderSink.Timeout),
		checkout.WithNotifyTimeout(cfg.Notification.Timeout),
	}
	if cfg.Notification.Enabled {
		// A single dial attempt; the storefront works without confirmations
		conn, err := messaging.New(cfg.RabbitMQURL(), log, 1)
		if err != nil {
			log.Warn("notification_unavailable", "Confirmations disabled for this session", requestID, map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer conn.Close()
			notifier := notification.NewAMQPNotifier(messaging.NewPublisher(conn, log))
			submitterOpts = append(submitterOpts, checkout.WithNotifier(notifier))
		}
	}

	identity := checkout.NewCachedIdentity(checkout.StaticIdentity{
		Identity: models.Identity{UserID: opts.userID, DisplayName: opts.displayName},
	})
	session := storefront.NewSession(loader, identity, sink, log, submitterOpts...)

	degraded, err := session.LoadMenu(ctx)
	if err != nil {
		return fmt.Errorf("load menu: %w", err)
	}
	if degraded {
		fmt.Println("Menu source returned nothing, showing the placeholder menu")
	}

	if err := session.Add(lines); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}

	view := session.View()
	for _, line := range view.Lines {
		fmt.Printf("%s x %d  ¥%d\n", line.Label, line.Quantity, line.LineTotal)
	}
	fmt.Printf("合計: %d点 ¥%d\n", view.TotalItems, view.TotalPrice)

	placed, err := session.Checkout(ctx)
	session.Submitter().Wait()
	if err != nil {
		if checkout.Retryable(err) {
			fmt.Printf("Order failed, cart kept for retry: %v\n", err)
		}
		return err
	}

	fmt.Printf("Order %s accepted\n%s\n", placed.OrderID, models.ConfirmationText(placed.OrderDetails(), placed.TotalPrice))
	return nil
}

// runOrderSink runs the order sink HTTP server
func runOrderSink(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	requestID := logger.GenerateRequestID()

	db, err := database.New(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: int32(cfg.Server.MaxConcurrent),
	}, log)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, os.DirFS(cfg.Server.Migrations)); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	service := order.NewService(order.NewPostgresRepository(db), log, cfg.Server.MaxConcurrent)
	handler := order.NewHandler(service, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("service_started", fmt.Sprintf("Order sink started on port %d", cfg.Server.Port), requestID, map[string]interface{}{
			"port":           cfg.Server.Port,
			"max_concurrent": cfg.Server.MaxConcurrent,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("graceful_shutdown", "Shutting down order sink", requestID, nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runNotificationSubscriber prints confirmations from the confirmations queue
func runNotificationSubscriber(ctx context.Context, cfg *config.Config, log *logger.Logger, prefetch int) error {
	conn, err := messaging.New(cfg.RabbitMQURL(), log, 0)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}

	consumer := messaging.NewConsumer(conn, log, messaging.ConfirmationsQueue, "notification-subscriber", prefetch)
	return notification.NewSubscriber(consumer, log).Start(ctx)
}
