package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"quickbasket/internal/auth"
	"quickbasket/internal/images"
	"quickbasket/internal/models"
	"quickbasket/internal/pincode"
	"quickbasket/internal/services"
	"quickbasket/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	ListVendorProducts(ctx context.Context, vendorID string) ([]*models.Product, error)
	UpdateProductImage(ctx context.Context, productID, imageURL string) error
}

type Handler struct {
	Orders   *services.OrderService
	Catalog  *services.CatalogService
	Vendors  *auth.VendorAuth
	Phone    *auth.PhoneAuth
	Pincodes *pincode.Resolver
	Uploads  *images.Uploader
	Products ProductStore
	Hub      *ws.Hub
}

// --- auth ---

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	verificationID, err := h.Phone.SendOTP(r.Context(), req.Phone)
	if err != nil {
		if errors.Is(err, auth.ErrDailyLimit) {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, auth.UserMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"verification_id": verificationID,
		"remaining":       h.Phone.Limiter.Remaining(),
	})
}

type verifyOTPRequest struct {
	VerificationID string `json:"verification_id"`
	Code           string `json:"code"`
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	user, err := h.Phone.VerifyOTP(r.Context(), req.VerificationID, req.Code)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCode) {
			writeError(w, http.StatusBadRequest, "invalid verification code")
			return
		}
		writeError(w, http.StatusUnauthorized, auth.UserMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type vendorLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) VendorLogin(w http.ResponseWriter, r *http.Request) {
	var req vendorLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	vendor, err := h.Vendors.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, auth.ErrVendorInactive):
			writeError(w, http.StatusForbidden, "vendor account is not active")
		default:
			writeError(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"vendor_id": vendor.VendorID,
		"name":      vendor.Name,
		"pincodes":  vendor.Pincodes,
	})
}

type registerVendorRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Phone    string   `json:"phone"`
	Pincodes []string `json:"pincodes"`
}

func (h *Handler) RegisterVendor(w http.ResponseWriter, r *http.Request) {
	var req registerVendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	vendor, err := h.Vendors.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Pincodes: req.Pincodes,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRegistrationInvalid):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, auth.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email already registered")
		default:
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"vendor_id": vendor.VendorID,
		"status":    vendor.Status,
	})
}

func (h *Handler) VendorProfile(w http.ResponseWriter, r *http.Request) {
	vendor, err := h.Vendors.Profile(r.Context(), vendorID(r))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "vendor not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "get vendor failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"vendor_id": vendor.VendorID,
		"name":      vendor.Name,
		"email":     vendor.Email,
		"phone":     vendor.Phone,
		"status":    vendor.Status,
		"pincodes":  vendor.Pincodes,
	})
}

// --- pincode & catalog ---

func (h *Handler) GetPincode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"pincode": h.Pincodes.Current()})
}

type setPincodeRequest struct {
	Pincode string `json:"pincode"`
}

func (h *Handler) SetPincode(w http.ResponseWriter, r *http.Request) {
	var req setPincodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	res, err := h.Catalog.Resolve(r.Context(), req.Pincode)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPincode) {
			writeError(w, http.StatusBadRequest, "pincode must be six digits")
			return
		}
		writeError(w, http.StatusInternalServerError, "serviceability check failed")
		return
	}

	resp := map[string]any{
		"pincode":     res.Pincode,
		"serviceable": res.Accepted,
	}
	if !res.Accepted {
		resp["redirect"] = "/coming-soon"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Catalog.Categories(r.Context(), r.URL.Query().Get("pincode"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list categories failed")
		return
	}

	type categoryResponse struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Icon string `json:"icon,omitempty"`
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{
			ID:   c.CategoryID,
			Name: services.CategoryName(c.CategoryID, categories),
			Icon: c.Icon,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type productResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"image_url,omitempty"`
	Category string `json:"category"`
	InStock  bool   `json:"in_stock"`
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.Catalog.Products(r.Context(), q.Get("pincode"), q.Get("category"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list products failed")
		return
	}
	categories, err := h.Catalog.Categories(r.Context(), q.Get("pincode"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list products failed")
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse{
			ID:       p.ProductID,
			Name:     p.Name,
			Price:    p.Price,
			ImageURL: p.ImageURL,
			Category: services.CategoryName(p.CategoryID, categories),
			InStock:  p.InStock,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- orders ---

type createOrderRequest struct {
	VendorID        string               `json:"vendor_id"`
	CustomerName    string               `json:"customer_name"`
	CustomerPhone   string               `json:"customer_phone"`
	CustomerAddress string               `json:"customer_address"`
	Pincode         string               `json:"pincode"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	Items           []models.OrderItem   `json:"items"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	order, err := h.Orders.CreateOrder(r.Context(), services.NewOrderInput{
		VendorID:        req.VendorID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerAddress: req.CustomerAddress,
		Pincode:         req.Pincode,
		PaymentMethod:   req.PaymentMethod,
		Items:           req.Items,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingVendorID):
			writeError(w, http.StatusBadRequest, "missing vendor id")
		case errors.Is(err, services.ErrEmptyOrder), errors.Is(err, services.ErrInvalidItem):
			writeError(w, http.StatusBadRequest, "invalid order items")
		default:
			writeError(w, http.StatusInternalServerError, "create order failed")
		}
		return
	}

	h.Hub.Broadcast(order.VendorID, orderResponseFrom(order))
	writeJSON(w, http.StatusCreated, orderResponseFrom(order))
}

type orderResponse struct {
	ID            string               `json:"id"`
	Number        string               `json:"number"`
	Status        models.OrderStatus   `json:"status"`
	NextStatus    models.OrderStatus   `json:"next_status,omitempty"`
	CustomerName  string               `json:"customer_name"`
	CustomerPhone string               `json:"customer_phone"`
	Address       string               `json:"address"`
	Pincode       string               `json:"pincode"`
	Items         []models.OrderItem   `json:"items"`
	Subtotal      int64                `json:"subtotal"`
	DeliveryFee   int64                `json:"delivery_fee"`
	Total         int64                `json:"total"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	CreatedAt     string               `json:"created_at"`
}

func orderResponseFrom(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:            order.OrderID,
		Number:        order.Number(),
		Status:        order.Status,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		Address:       order.CustomerAddress,
		Pincode:       order.Pincode,
		Items:         order.Items,
		Subtotal:      order.Subtotal,
		DeliveryFee:   order.DeliveryFee,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		CreatedAt:     order.CreatedAt.Format(time.RFC3339),
	}
	if next, ok := models.NextStatus(order.Status); ok {
		resp.NextStatus = next
	}
	return resp
}

// --- vendor order actions ---

func (h *Handler) ListVendorOrders(w http.ResponseWriter, r *http.Request) {
	vendorID := vendorID(r)
	status := models.OrderStatus(r.URL.Query().Get("status"))

	orders, err := h.Orders.ListVendorOrders(r.Context(), vendorID, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list orders failed")
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResponseFrom(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetVendorOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.vendorOrder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, orderResponseFrom(order))
}

func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.vendorOrder(w, r)
	if !ok {
		return
	}

	if _, err := h.Orders.Advance(r.Context(), order); err != nil {
		switch {
		case errors.Is(err, services.ErrNoNextStatus):
			writeError(w, http.StatusConflict, "order has no next status")
		case errors.Is(err, services.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		default:
			writeError(w, http.StatusInternalServerError, "update status failed")
		}
		return
	}

	h.Hub.Broadcast(order.VendorID, orderResponseFrom(order))
	writeJSON(w, http.StatusOK, orderResponseFrom(order))
}

type cancelOrderRequest struct {
	Confirm bool `json:"confirm"`
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.vendorOrder(w, r)
	if !ok {
		return
	}

	var req cancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if err := h.Orders.Cancel(r.Context(), order, req.Confirm); err != nil {
		switch {
		case errors.Is(err, services.ErrConfirmationRequired):
			writeError(w, http.StatusBadRequest, "cancellation requires confirmation")
		case errors.Is(err, services.ErrOrderClosed):
			writeError(w, http.StatusConflict, "order already delivered or cancelled")
		case errors.Is(err, services.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		default:
			writeError(w, http.StatusInternalServerError, "cancel order failed")
		}
		return
	}

	h.Hub.Broadcast(order.VendorID, orderResponseFrom(order))
	writeJSON(w, http.StatusOK, orderResponseFrom(order))
}

func (h *Handler) OrderFeed(w http.ResponseWriter, r *http.Request) {
	if err := h.Hub.Serve(w, r, vendorID(r)); err != nil {
		writeError(w, http.StatusBadRequest, "websocket upgrade failed")
	}
}

// vendorOrder loads the order in the URL and enforces vendor ownership.
func (h *Handler) vendorOrder(w http.ResponseWriter, r *http.Request) (*models.Order, bool) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return nil, false
	}

	order, err := h.Orders.VendorOrder(r.Context(), vendorID(r), orderID)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, services.ErrNotOwned):
			writeError(w, http.StatusForbidden, "order does not belong to this vendor")
		default:
			writeError(w, http.StatusInternalServerError, "get order failed")
		}
		return nil, false
	}
	return order, true
}

// --- vendor products ---

type createProductRequest struct {
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Category string   `json:"category"`
	ImageURL string   `json:"image_url"`
	Pincodes []string `json:"pincodes"`
	InStock  *bool    `json:"in_stock"`
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Name == "" || req.Price < 0 {
		writeError(w, http.StatusBadRequest, "product name and a non-negative price are required")
		return
	}

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}
	product := &models.Product{
		ProductID:  uuid.NewString(),
		VendorID:   vendorID(r),
		CategoryID: req.Category,
		Name:       req.Name,
		Price:      req.Price,
		ImageURL:   req.ImageURL,
		Pincodes:   req.Pincodes,
		InStock:    inStock,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.Products.CreateProduct(r.Context(), product); err != nil {
		writeError(w, http.StatusInternalServerError, "create product failed")
		return
	}

	writeJSON(w, http.StatusCreated, productResponse{
		ID:       product.ProductID,
		Name:     product.Name,
		Price:    product.Price,
		ImageURL: product.ImageURL,
		Category: product.CategoryID,
		InStock:  product.InStock,
	})
}

// VendorProducts lists the vendor's own catalog, including out-of-stock
// items the storefront listing hides.
func (h *Handler) VendorProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.ListVendorProducts(r.Context(), vendorID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list products failed")
		return
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse{
			ID:       p.ProductID,
			Name:     p.Name,
			Price:    p.Price,
			ImageURL: p.ImageURL,
			Category: p.CategoryID,
			InStock:  p.InStock,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- product images ---

type uploadImageRequest struct {
	URL string `json:"url"`
}

// UploadProductImage accepts either a multipart file upload or a JSON body
// with a source URL, stores the image, and points the product at it.
func (h *Handler) UploadProductImage(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "missing product id")
		return
	}

	var asset *images.Asset
	var err error

	if file, header, ferr := r.FormFile("file"); ferr == nil {
		defer file.Close()
		asset, err = h.Uploads.Upload(r.Context(), file, header.Filename, vendorID(r))
	} else {
		var req uploadImageRequest
		if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil || req.URL == "" {
			writeError(w, http.StatusBadRequest, "expected a file upload or a source url")
			return
		}
		asset, err = h.Uploads.UploadFromURL(r.Context(), req.URL, vendorID(r))
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "image upload failed")
		return
	}

	if err := h.Products.UpdateProductImage(r.Context(), productID, asset.URL); err != nil {
		writeError(w, http.StatusInternalServerError, "save image url failed")
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

func vendorID(r *http.Request) string {
	return r.Header.Get("X-Vendor-Id")
}
