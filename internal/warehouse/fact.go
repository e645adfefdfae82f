package warehouse

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/azniosman/project-samba-insight/internal/staging"
)

// paymentTolerance is the largest item+freight vs payment difference that
// does not count as a mismatch.
const paymentTolerance = 0.01

// BuildFacts joins cleaned orders with item, payment and review aggregates
// into one wide fact row per order. When after is non-nil only orders
// purchased strictly after it are built; the caller merges them with the
// unchanged prior rows (upsert by order ID).
func BuildFacts(snap *staging.Snapshot, after *time.Time) []FactOrder {
	itemsByOrder := lo.GroupBy(snap.Items, func(it staging.OrderItem) string { return it.OrderID })
	paymentsByOrder := lo.GroupBy(snap.Payments, func(p staging.Payment) string { return p.OrderID })
	reviewsByOrder := lo.GroupBy(snap.Reviews, func(r staging.Review) string { return r.OrderID })
	customersByID := lo.KeyBy(snap.Customers, func(c staging.Customer) string { return c.CustomerID })

	facts := make([]FactOrder, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		if after != nil && !o.PurchasedAt.After(*after) {
			continue
		}
		facts = append(facts, buildFact(o, itemsByOrder[o.OrderID], paymentsByOrder[o.OrderID], reviewsByOrder[o.OrderID], customersByID))
	}

	sort.Slice(facts, func(i, j int) bool { return facts[i].OrderID < facts[j].OrderID })
	return facts
}

func buildFact(o staging.Order, items []staging.OrderItem, payments []staging.Payment, reviews []staging.Review, customers map[string]staging.Customer) FactOrder {
	f := FactOrder{
		OrderID:           o.OrderID,
		CustomerID:        o.CustomerID,
		Status:            o.Status,
		PurchasedAt:       o.PurchasedAt,
		ApprovedAt:        o.ApprovedAt,
		DeliveredAt:       o.DeliveredAt,
		DeliveryDays:      o.DeliveryDays,
		DeliveryDelayDays: o.DeliveryDelayDays,
		IsDelivered:       o.IsDelivered,
		IsOnTimeDelivery:  o.IsOnTimeDelivery,
		IsLateDelivery:    o.IsLateDelivery,
	}

	if c, ok := customers[o.CustomerID]; ok {
		f.CustomerCity = c.City
		f.CustomerState = c.State
	}

	valueViolation := o.HasStatusViolation
	for _, it := range items {
		f.ItemCount++
		f.ItemsValue += it.Price
		f.FreightValue += it.FreightValue
		valueViolation = valueViolation || it.HasValueViolation
	}
	f.TotalOrderValue = f.ItemsValue + f.FreightValue

	methods := map[string]struct{}{}
	for _, p := range payments {
		f.PaymentValue += p.Value
		methods[p.Type] = struct{}{}
		if p.Installments > f.MaxInstallments {
			f.MaxInstallments = p.Installments
		}
		valueViolation = valueViolation || p.HasValueViolation
	}
	f.PaymentMethodCount = len(methods)

	if rv, ok := latestReview(reviews); ok {
		score := rv.Score
		sentiment := rv.Sentiment
		f.ReviewScore = &score
		f.ReviewSentiment = &sentiment
		valueViolation = valueViolation || rv.HasScoreViolation
	}

	if len(payments) > 0 && math.Abs(f.PaymentValue-f.TotalOrderValue) > paymentTolerance {
		f.HasPaymentMismatch = true
	}
	f.HasDataQualityIssue = valueViolation || f.HasPaymentMismatch

	return f
}

// latestReview picks the most recent review for an order. Reviews without a
// creation date sort first, so any dated review wins over them.
func latestReview(reviews []staging.Review) (staging.Review, bool) {
	if len(reviews) == 0 {
		return staging.Review{}, false
	}
	best := reviews[0]
	for _, rv := range reviews[1:] {
		if reviewAfter(rv, best) {
			best = rv
		}
	}
	return best, true
}

func reviewAfter(a, b staging.Review) bool {
	switch {
	case a.CreatedAt == nil:
		return false
	case b.CreatedAt == nil:
		return true
	case !a.CreatedAt.Equal(*b.CreatedAt):
		return a.CreatedAt.After(*b.CreatedAt)
	default:
		return a.ReviewID > b.ReviewID
	}
}

// MergeFacts upserts fresh rows into prior rows by order ID and returns the
// merged set sorted by order ID. Re-running with no fresh rows returns the
// prior set unchanged.
func MergeFacts(prior, fresh []FactOrder) []FactOrder {
	if len(fresh) == 0 {
		return prior
	}

	merged := make(map[string]FactOrder, len(prior)+len(fresh))
	for _, f := range prior {
		merged[f.OrderID] = f
	}
	for _, f := range fresh {
		merged[f.OrderID] = f
	}

	out := lo.Values(merged)
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// Watermark returns the latest purchase timestamp present in facts, the
// cutoff for the next incremental run.
func Watermark(facts []FactOrder) *time.Time {
	var max *time.Time
	for i := range facts {
		t := facts[i].PurchasedAt
		if max == nil || t.After(*max) {
			max = &t
		}
	}
	return max
}
