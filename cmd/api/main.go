package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quickbasket/internal/auth"
	"quickbasket/internal/config"
	"quickbasket/internal/db"
	"quickbasket/internal/events"
	internalhttp "quickbasket/internal/http"
	"quickbasket/internal/images"
	"quickbasket/internal/otp"
	"quickbasket/internal/pincode"
	"quickbasket/internal/services"
	"quickbasket/internal/state"
	"quickbasket/internal/store"
	"quickbasket/internal/ws"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	st := store.New(pool)

	clientState, err := state.OpenFileStore(cfg.State.Path)
	if err != nil {
		log.Fatalf("open state store failed: %v", err)
	}
	pincodes := pincode.New(clientState)
	limiter := otp.NewLimiter(clientState, cfg.Auth.DailyOTPLimit)

	var publisher services.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
	}

	orderSvc := &services.OrderService{
		Store:       st,
		Events:      publisher,
		DeliveryFee: cfg.Orders.DeliveryFee,
	}
	catalogSvc := &services.CatalogService{
		Store:    st,
		Pincodes: pincodes,
		FailOpen: cfg.Serviceability.FailOpen,
	}

	var provider auth.Provider = auth.NewHTTPProvider(cfg.Auth.ProviderURL, cfg.Auth.APIKey)
	if cfg.Auth.DevMode {
		log.Printf("auth dev mode enabled: OTP verification is mocked")
		provider = auth.DevProvider{}
	}

	h := &internalhttp.Handler{
		Orders:   orderSvc,
		Catalog:  catalogSvc,
		Vendors:  &auth.VendorAuth{Store: st},
		Phone:    &auth.PhoneAuth{Provider: provider, Limiter: limiter},
		Pincodes: pincodes,
		Uploads:  newUploader(cfg),
		Products: st,
		Hub:      ws.NewHub(),
	}
	srv := internalhttp.NewServer(h)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router,
	}

	go func() {
		log.Printf("api listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}

func newUploader(cfg *config.Config) *images.Uploader {
	cloudinary := images.NewCloudinary(
		cfg.Uploads.Cloudinary.BaseURL,
		cfg.Uploads.Cloudinary.UploadPreset,
		cfg.Uploads.Cloudinary.Folder,
	)
	blob := images.NewBlobStore(cfg.Uploads.Blob.BaseURL, cfg.Uploads.Blob.Token)

	if cfg.Uploads.Primary == "cloudinary" && cloudinary.Configured() {
		return &images.Uploader{Primary: cloudinary, Fallback: blob}
	}
	if cloudinary.Configured() {
		return &images.Uploader{Primary: blob, Fallback: cloudinary}
	}
	return &images.Uploader{Primary: blob}
}
