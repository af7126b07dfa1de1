package store

import (
	"context"
	"encoding/json"
	"time"

	"quickbasket/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO orders (
			order_id, vendor_id, customer_name, customer_phone, customer_address,
			pincode, items, subtotal, delivery_fee, total,
			payment_method, payment_status, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		order.OrderID,
		order.VendorID,
		order.CustomerName,
		order.CustomerPhone,
		order.CustomerAddress,
		order.Pincode,
		items,
		order.Subtotal,
		order.DeliveryFee,
		order.Total,
		order.PaymentMethod,
		order.PaymentStatus,
		order.Status,
	)
	return err
}

const orderColumns = `
	order_id, vendor_id, customer_name, customer_phone, customer_address,
	pincode, items, subtotal, delivery_fee, total,
	payment_method, payment_status, status, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var items []byte
	err := row.Scan(
		&order.OrderID,
		&order.VendorID,
		&order.CustomerName,
		&order.CustomerPhone,
		&order.CustomerAddress,
		&order.Pincode,
		&items,
		&order.Subtotal,
		&order.DeliveryFee,
		&order.Total,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &order.Items); err != nil {
			return nil, err
		}
	}
	return &order, nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id=$1`, orderID)
	return scanOrder(row)
}

// ListVendorOrders returns a vendor's orders newest first, optionally
// filtered to a single status.
func (s *Store) ListVendorOrders(ctx context.Context, vendorID string, status models.OrderStatus) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE vendor_id=$1`
	args := []any{vendorID}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus writes the new status with last-write-wins semantics
// and reports how many rows changed. There is no version check: two vendor
// sessions acting on the same order silently overwrite each other.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (int64, error) {
	res, err := s.Pool.Exec(ctx, `
		UPDATE orders SET status=$2, updated_at=now() WHERE order_id=$1
	`, orderID, status)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO products (product_id, vendor_id, category_id, name, price, image_url, pincodes, in_stock)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, p.ProductID, p.VendorID, p.CategoryID, p.Name, p.Price, p.ImageURL, p.Pincodes, p.InStock)
	return err
}

func (s *Store) UpdateProductImage(ctx context.Context, productID, imageURL string) error {
	_, err := s.Pool.Exec(ctx, `UPDATE products SET image_url=$2 WHERE product_id=$1`, productID, imageURL)
	return err
}

const productColumns = `product_id, vendor_id, category_id, name, price, image_url, pincodes, in_stock, created_at`

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ProductID,
		&p.VendorID,
		&p.CategoryID,
		&p.Name,
		&p.Price,
		&p.ImageURL,
		&p.Pincodes,
		&p.InStock,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns in-stock products serviceable at the given pincode,
// optionally restricted to one category.
func (s *Store) ListProducts(ctx context.Context, pincode, categoryID string) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE in_stock AND $1 = ANY(pincodes)`
	args := []any{pincode}
	if categoryID != "" {
		query += ` AND category_id=$2`
		args = append(args, categoryID)
	}
	query += ` ORDER BY name`

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) ListVendorProducts(ctx context.Context, vendorID string) ([]*models.Product, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+productColumns+` FROM products WHERE vendor_id=$1 ORDER BY created_at DESC
	`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) ListCategories(ctx context.Context, pincode string) ([]*models.Category, error) {
	query := `SELECT category_id, name, icon, pincodes FROM categories`
	var args []any
	if pincode != "" {
		query += ` WHERE $1 = ANY(pincodes)`
		args = append(args, pincode)
	}
	query += ` ORDER BY name`

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.CategoryID, &c.Name, &c.Icon, &c.Pincodes); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// IsPincodeServiceable reports whether any active vendor or any category
// covers the pincode.
func (s *Store) IsPincodeServiceable(ctx context.Context, pin string) (bool, error) {
	var serviceable bool
	row := s.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM vendors WHERE status='active' AND $1 = ANY(pincodes))
		    OR EXISTS (SELECT 1 FROM categories WHERE $1 = ANY(pincodes))
	`, pin)
	if err := row.Scan(&serviceable); err != nil {
		return false, err
	}
	return serviceable, nil
}

func (s *Store) CreateVendor(ctx context.Context, v *models.Vendor) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO vendors (vendor_id, name, email, password_hash, phone, status, pincodes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, v.VendorID, v.Name, v.Email, v.PasswordHash, v.Phone, v.Status, v.Pincodes)
	return err
}

const vendorColumns = `vendor_id, name, email, password_hash, phone, status, pincodes, created_at`

func scanVendor(row rowScanner) (*models.Vendor, error) {
	var v models.Vendor
	err := row.Scan(
		&v.VendorID,
		&v.Name,
		&v.Email,
		&v.PasswordHash,
		&v.Phone,
		&v.Status,
		&v.Pincodes,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) GetVendor(ctx context.Context, vendorID string) (*models.Vendor, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE vendor_id=$1`, vendorID)
	return scanVendor(row)
}

func (s *Store) GetVendorByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE email=$1`, email)
	return scanVendor(row)
}

// Touch records the vendor's last login time. Callers treat failures as
// non-fatal.
func (s *Store) Touch(ctx context.Context, vendorID string, at time.Time) error {
	_, err := s.Pool.Exec(ctx, `UPDATE vendors SET last_seen_at=$2 WHERE vendor_id=$1`, vendorID, at)
	return err
}
