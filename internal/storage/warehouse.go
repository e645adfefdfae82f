package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/azniosman/project-samba-insight/internal/warehouse"
)

// UpsertFacts writes fact rows keyed by order id. Existing rows are
// replaced, rows absent from the batch are untouched.
func (s *Store) UpsertFacts(facts []warehouse.FactOrder) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO fact_orders (
			order_id, customer_id, order_status, customer_city, customer_state,
			purchased_at, approved_at, delivered_at,
			delivery_days, delivery_delay_days,
			is_delivered, is_on_time_delivery, is_late_delivery,
			item_count, items_value, freight_value, total_order_value,
			payment_value, payment_method_count, max_installments,
			review_score, review_sentiment,
			has_payment_mismatch, has_data_quality_issue
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range facts {
		_, err := stmt.Exec(
			f.OrderID, f.CustomerID, f.Status, f.CustomerCity, f.CustomerState,
			f.PurchasedAt, f.ApprovedAt, f.DeliveredAt,
			f.DeliveryDays, f.DeliveryDelayDays,
			f.IsDelivered, f.IsOnTimeDelivery, f.IsLateDelivery,
			f.ItemCount, f.ItemsValue, f.FreightValue, f.TotalOrderValue,
			f.PaymentValue, f.PaymentMethodCount, f.MaxInstallments,
			f.ReviewScore, f.ReviewSentiment,
			f.HasPaymentMismatch, f.HasDataQualityIssue,
		)
		if err != nil {
			return fmt.Errorf("upsert fact %s: %w", f.OrderID, err)
		}
	}
	return tx.Commit()
}

// LoadFacts returns every fact row ordered by purchase timestamp.
func (s *Store) LoadFacts() ([]warehouse.FactOrder, error) {
	rows, err := s.db.Query(`
		SELECT order_id, customer_id, order_status, customer_city, customer_state,
			purchased_at, approved_at, delivered_at,
			delivery_days, delivery_delay_days,
			is_delivered, is_on_time_delivery, is_late_delivery,
			item_count, items_value, freight_value, total_order_value,
			payment_value, payment_method_count, max_installments,
			review_score, review_sentiment,
			has_payment_mismatch, has_data_quality_issue
		FROM fact_orders ORDER BY purchased_at, order_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facts []warehouse.FactOrder
	for rows.Next() {
		var f warehouse.FactOrder
		var approved, delivered sql.NullTime
		var days, delay, score sql.NullInt64
		var sentiment sql.NullString
		err := rows.Scan(
			&f.OrderID, &f.CustomerID, &f.Status, &f.CustomerCity, &f.CustomerState,
			&f.PurchasedAt, &approved, &delivered,
			&days, &delay,
			&f.IsDelivered, &f.IsOnTimeDelivery, &f.IsLateDelivery,
			&f.ItemCount, &f.ItemsValue, &f.FreightValue, &f.TotalOrderValue,
			&f.PaymentValue, &f.PaymentMethodCount, &f.MaxInstallments,
			&score, &sentiment,
			&f.HasPaymentMismatch, &f.HasDataQualityIssue,
		)
		if err != nil {
			return nil, err
		}
		f.ApprovedAt = nullTimePtr(approved)
		f.DeliveredAt = nullTimePtr(delivered)
		f.DeliveryDays = nullIntPtr(days)
		f.DeliveryDelayDays = nullIntPtr(delay)
		if score.Valid {
			v := int(score.Int64)
			f.ReviewScore = &v
		}
		if sentiment.Valid {
			f.ReviewSentiment = &sentiment.String
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// FactWatermark returns the latest purchase timestamp in fact_orders, or
// nil when the table is empty.
func (s *Store) FactWatermark() (*time.Time, error) {
	var wm sql.NullTime
	err := s.db.QueryRow("SELECT MAX(purchased_at) FROM fact_orders").Scan(&wm)
	if err != nil {
		return nil, err
	}
	return nullTimePtr(wm), nil
}

// ReplaceCustomerDims rewrites dim_customer in full.
func (s *Store) ReplaceCustomerDims(dims []warehouse.CustomerDim) error {
	return s.replaceAll("dim_customer", `
		INSERT INTO dim_customer (
			customer_id, customer_unique_id, customer_city, customer_state,
			total_orders, delivered_orders, canceled_orders, total_revenue,
			first_order_at, last_order_at, avg_review_score, customer_segment
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, len(dims), func(i int) []any {
		d := dims[i]
		return []any{
			d.CustomerID, d.UniqueID, d.City, d.State,
			d.TotalOrders, d.DeliveredOrders, d.CanceledOrders, d.TotalRevenue,
			d.FirstOrderAt, d.LastOrderAt, d.AvgReviewScore, d.Segment,
		}
	})
}

// LoadCustomerDims returns every dim_customer row ordered by id.
func (s *Store) LoadCustomerDims() ([]warehouse.CustomerDim, error) {
	rows, err := s.db.Query(`
		SELECT customer_id, customer_unique_id, customer_city, customer_state,
			total_orders, delivered_orders, canceled_orders, total_revenue,
			first_order_at, last_order_at, avg_review_score, customer_segment
		FROM dim_customer ORDER BY customer_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dims []warehouse.CustomerDim
	for rows.Next() {
		var d warehouse.CustomerDim
		var first, last sql.NullTime
		var avg sql.NullFloat64
		err := rows.Scan(
			&d.CustomerID, &d.UniqueID, &d.City, &d.State,
			&d.TotalOrders, &d.DeliveredOrders, &d.CanceledOrders, &d.TotalRevenue,
			&first, &last, &avg, &d.Segment,
		)
		if err != nil {
			return nil, err
		}
		d.FirstOrderAt = nullTimePtr(first)
		d.LastOrderAt = nullTimePtr(last)
		if avg.Valid {
			d.AvgReviewScore = &avg.Float64
		}
		dims = append(dims, d)
	}
	return dims, rows.Err()
}

// ReplaceProductDims rewrites dim_product in full.
func (s *Store) ReplaceProductDims(dims []warehouse.ProductDim) error {
	return s.replaceAll("dim_product", `
		INSERT INTO dim_product (product_id, category, category_english, weight_grams, items_sold, revenue, revenue_tier)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, len(dims), func(i int) []any {
		d := dims[i]
		return []any{d.ProductID, d.Category, d.CategoryEnglish, d.WeightGrams, d.ItemsSold, d.Revenue, d.RevenueTier}
	})
}

// ReplaceSellerDims rewrites dim_seller in full.
func (s *Store) ReplaceSellerDims(dims []warehouse.SellerDim) error {
	return s.replaceAll("dim_seller", `
		INSERT INTO dim_seller (seller_id, seller_city, seller_state, items_sold, orders_served, revenue, performance_tier)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, len(dims), func(i int) []any {
		d := dims[i]
		return []any{d.SellerID, d.City, d.State, d.ItemsSold, d.OrdersServed, d.Revenue, d.Tier}
	})
}

// ReplaceDateDims rewrites dim_date in full.
func (s *Store) ReplaceDateDims(dims []warehouse.DateDim) error {
	return s.replaceAll("dim_date", `
		INSERT INTO dim_date (date, year, quarter, month, day, weekday, is_weekend)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, len(dims), func(i int) []any {
		d := dims[i]
		return []any{d.Date, d.Year, d.Quarter, d.Month, d.Day, d.Weekday, d.IsWeekend}
	})
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
