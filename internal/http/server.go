package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	Router *chi.Mux
}

func NewServer(handler *Handler) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/otp/send", handler.SendOTP)
		r.Post("/otp/verify", handler.VerifyOTP)
	})

	r.Get("/pincode", handler.GetPincode)
	r.Post("/pincode", handler.SetPincode)

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/categories", handler.ListCategories)
		r.Get("/products", handler.ListProducts)
	})

	r.Post("/orders", handler.CreateOrder)

	r.Route("/vendor", func(r chi.Router) {
		r.Post("/register", handler.RegisterVendor)
		r.Post("/login", handler.VendorLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireVendor)
			r.Get("/me", handler.VendorProfile)
			r.Get("/orders", handler.ListVendorOrders)
			r.Get("/orders/ws", handler.OrderFeed)
			r.Get("/orders/{orderId}", handler.GetVendorOrder)
			r.Post("/orders/{orderId}/advance", handler.AdvanceOrder)
			r.Post("/orders/{orderId}/cancel", handler.CancelOrder)
			r.Get("/products", handler.VendorProducts)
			r.Post("/products", handler.CreateProduct)
			r.Post("/products/{productId}/image", handler.UploadProductImage)
		})
	})

	return &Server{Router: r}
}

func requireVendor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if vendorID(r) == "" {
			writeError(w, http.StatusUnauthorized, "missing vendor id")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Vendor-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
