package staging

import (
	"strconv"
	"strings"
	"time"

	"github.com/op/go-logging"

	"github.com/azniosman/project-samba-insight/internal/source"
)

var log = logging.MustGetLogger("staging")

// timestampLayout is the format used by every source timestamp column.
const timestampLayout = "2006-01-02 15:04:05"

// Normalize cleans a raw dataset into canonical per-entity records.
// Value-range violations flag the record and keep it; only rows that cannot
// be keyed or anchored in time at all are dropped.
func Normalize(ds *source.Dataset) *Snapshot {
	snap := &Snapshot{
		Orders:        normalizeOrders(ds.Orders),
		Items:         normalizeItems(ds.OrderItems),
		Payments:      normalizePayments(ds.Payments),
		Reviews:       normalizeReviews(ds.Reviews),
		Customers:     normalizeCustomers(ds.Customers),
		Products:      normalizeProducts(ds.Products),
		Sellers:       normalizeSellers(ds.Sellers),
		CategoryNames: make(map[string]string, len(ds.Translations)),
	}
	for _, tr := range ds.Translations {
		snap.CategoryNames[strings.TrimSpace(tr.CategoryName)] = strings.TrimSpace(tr.CategoryNameEnglish)
	}
	return snap
}

func normalizeOrders(raws []source.RawOrder) []Order {
	orders := make([]Order, 0, len(raws))
	for _, r := range raws {
		id := strings.TrimSpace(r.OrderID)
		purchased := parseTimestamp(r.PurchaseTimestamp)
		if id == "" || purchased == nil {
			// No natural key or time anchor; the row cannot exist in the
			// fact table at all.
			log.Warningf("dropping order with missing key or purchase timestamp: %q", r.OrderID)
			continue
		}

		o := Order{
			OrderID:     id,
			CustomerID:  strings.TrimSpace(r.CustomerID),
			Status:      strings.ToLower(strings.TrimSpace(r.Status)),
			PurchasedAt: *purchased,
			ApprovedAt:  parseTimestamp(r.ApprovedAt),
			DeliveredAt: parseTimestamp(r.DeliveredCustomerDate),
			EstimatedAt: parseTimestamp(r.EstimatedDeliveryDate),
		}

		if !isValidStatus(o.Status) {
			o.HasStatusViolation = true
		}

		if o.DeliveredAt != nil {
			o.IsDelivered = true
			days := daysBetween(o.PurchasedAt, *o.DeliveredAt)
			o.DeliveryDays = &days
			if o.EstimatedAt != nil {
				delay := daysBetween(*o.EstimatedAt, *o.DeliveredAt)
				o.DeliveryDelayDays = &delay
				o.IsLateDelivery = delay > 0
				o.IsOnTimeDelivery = delay <= 0
			}
		}

		orders = append(orders, o)
	}
	return orders
}

func normalizeItems(raws []source.RawOrderItem) []OrderItem {
	items := make([]OrderItem, 0, len(raws))
	for _, r := range raws {
		it := OrderItem{
			OrderID:      strings.TrimSpace(r.OrderID),
			ItemSequence: parseInt(r.ItemSequence),
			ProductID:    strings.TrimSpace(r.ProductID),
			SellerID:     strings.TrimSpace(r.SellerID),
			Price:        parseFloat(r.Price),
			FreightValue: parseFloat(r.FreightValue),
		}
		if it.OrderID == "" {
			continue
		}
		if it.Price < 0 || it.FreightValue < 0 {
			it.HasValueViolation = true
		}
		items = append(items, it)
	}
	return items
}

func normalizePayments(raws []source.RawPayment) []Payment {
	payments := make([]Payment, 0, len(raws))
	for _, r := range raws {
		p := Payment{
			OrderID:      strings.TrimSpace(r.OrderID),
			Sequential:   parseInt(r.Sequential),
			Type:         strings.ToLower(strings.TrimSpace(r.Type)),
			Installments: parseInt(r.Installments),
			Value:        parseFloat(r.Value),
		}
		if p.OrderID == "" {
			continue
		}
		if p.Value < 0 || p.Installments < 1 {
			p.HasValueViolation = true
		}
		payments = append(payments, p)
	}
	return payments
}

func normalizeReviews(raws []source.RawReview) []Review {
	reviews := make([]Review, 0, len(raws))
	for _, r := range raws {
		rv := Review{
			ReviewID:  strings.TrimSpace(r.ReviewID),
			OrderID:   strings.TrimSpace(r.OrderID),
			Score:     parseInt(r.Score),
			CreatedAt: parseTimestamp(r.CreationDate),
		}
		if rv.OrderID == "" {
			continue
		}
		if rv.Score < 1 || rv.Score > 5 {
			rv.HasScoreViolation = true
		}
		rv.Sentiment = SentimentForScore(rv.Score)
		reviews = append(reviews, rv)
	}
	return reviews
}

func normalizeCustomers(raws []source.RawCustomer) []Customer {
	customers := make([]Customer, 0, len(raws))
	for _, r := range raws {
		c := Customer{
			CustomerID: strings.TrimSpace(r.CustomerID),
			UniqueID:   strings.TrimSpace(r.UniqueID),
			City:       strings.ToLower(strings.TrimSpace(r.City)),
			State:      strings.ToUpper(strings.TrimSpace(r.State)),
		}
		if c.CustomerID == "" {
			continue
		}
		customers = append(customers, c)
	}
	return customers
}

func normalizeProducts(raws []source.RawProduct) []Product {
	products := make([]Product, 0, len(raws))
	for _, r := range raws {
		p := Product{
			ProductID:   strings.TrimSpace(r.ProductID),
			Category:    strings.TrimSpace(r.CategoryName),
			WeightGrams: parseInt(r.WeightGrams),
			LengthCm:    parseInt(r.LengthCm),
			HeightCm:    parseInt(r.HeightCm),
			WidthCm:     parseInt(r.WidthCm),
		}
		if p.ProductID == "" {
			continue
		}
		products = append(products, p)
	}
	return products
}

func normalizeSellers(raws []source.RawSeller) []Seller {
	sellers := make([]Seller, 0, len(raws))
	for _, r := range raws {
		s := Seller{
			SellerID: strings.TrimSpace(r.SellerID),
			City:     strings.ToLower(strings.TrimSpace(r.City)),
			State:    strings.ToUpper(strings.TrimSpace(r.State)),
		}
		if s.SellerID == "" {
			continue
		}
		sellers = append(sellers, s)
	}
	return sellers
}

// SentimentForScore maps a 1-5 review score to a sentiment label.
func SentimentForScore(score int) string {
	switch {
	case score >= 4:
		return SentimentPositive
	case score == 3:
		return SentimentNeutral
	default:
		return SentimentNegative
	}
}

func isValidStatus(status string) bool {
	for _, s := range ValidStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
