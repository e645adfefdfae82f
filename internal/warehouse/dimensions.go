package warehouse

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/azniosman/project-samba-insight/internal/staging"
)

// SegmentForOrderCount maps a lifetime non-canceled order count to a
// customer segment: 1 order one_time, 2-4 repeat, 5+ loyal.
func SegmentForOrderCount(orders int) string {
	switch {
	case orders >= 5:
		return SegmentLoyal
	case orders >= 2:
		return SegmentRepeat
	default:
		return SegmentOneTime
	}
}

// BuildCustomerDim rebuilds dim_customer from the full fact history plus the
// staged customer records. The segment is a pure function of the snapshot,
// never carried-over state.
func BuildCustomerDim(customers []staging.Customer, facts []FactOrder) []CustomerDim {
	byCustomer := lo.GroupBy(facts, func(f FactOrder) string { return f.CustomerID })

	dims := make([]CustomerDim, 0, len(customers))
	for _, c := range customers {
		dim := CustomerDim{
			CustomerID: c.CustomerID,
			UniqueID:   c.UniqueID,
			City:       c.City,
			State:      c.State,
		}

		countable := 0
		reviewSum, reviewCount := 0, 0
		for _, f := range byCustomer[c.CustomerID] {
			dim.TotalOrders++
			if f.Status == staging.StatusDelivered {
				dim.DeliveredOrders++
			}
			if f.Status == staging.StatusCanceled {
				dim.CanceledOrders++
			}
			if f.IsCountable() {
				countable++
				dim.TotalRevenue += f.TotalOrderValue
				dim.FirstOrderAt = earliest(dim.FirstOrderAt, f.PurchasedAt)
				dim.LastOrderAt = latest(dim.LastOrderAt, f.PurchasedAt)
			}
			if f.ReviewScore != nil {
				reviewSum += *f.ReviewScore
				reviewCount++
			}
		}

		if reviewCount > 0 {
			avg := float64(reviewSum) / float64(reviewCount)
			dim.AvgReviewScore = &avg
		}
		dim.Segment = SegmentForOrderCount(countable)
		dims = append(dims, dim)
	}

	sort.Slice(dims, func(i, j int) bool { return dims[i].CustomerID < dims[j].CustomerID })
	return dims
}

// BuildProductDim rebuilds dim_product with lifetime sales metrics and a
// revenue tier.
func BuildProductDim(products []staging.Product, items []staging.OrderItem, names map[string]string) []ProductDim {
	byProduct := lo.GroupBy(items, func(it staging.OrderItem) string { return it.ProductID })

	dims := make([]ProductDim, 0, len(products))
	for _, p := range products {
		dim := ProductDim{
			ProductID:       p.ProductID,
			Category:        p.Category,
			CategoryEnglish: translateCategory(p.Category, names),
			WeightGrams:     p.WeightGrams,
		}
		for _, it := range byProduct[p.ProductID] {
			dim.ItemsSold++
			dim.Revenue += it.Price
		}
		dim.RevenueTier = revenueTier(dim.Revenue)
		dims = append(dims, dim)
	}

	sort.Slice(dims, func(i, j int) bool { return dims[i].ProductID < dims[j].ProductID })
	return dims
}

// BuildSellerDim rebuilds dim_seller with lifetime sales metrics and a
// performance tier.
func BuildSellerDim(sellers []staging.Seller, items []staging.OrderItem) []SellerDim {
	bySeller := lo.GroupBy(items, func(it staging.OrderItem) string { return it.SellerID })

	dims := make([]SellerDim, 0, len(sellers))
	for _, s := range sellers {
		dim := SellerDim{
			SellerID: s.SellerID,
			City:     s.City,
			State:    s.State,
		}
		orders := map[string]struct{}{}
		for _, it := range bySeller[s.SellerID] {
			dim.ItemsSold++
			dim.Revenue += it.Price + it.FreightValue
			orders[it.OrderID] = struct{}{}
		}
		dim.OrdersServed = len(orders)
		dim.Tier = sellerTier(dim.Revenue, dim.OrdersServed)
		dims = append(dims, dim)
	}

	sort.Slice(dims, func(i, j int) bool { return dims[i].SellerID < dims[j].SellerID })
	return dims
}

// BuildDateDim emits one calendar row per day between the earliest and
// latest fact purchase date, inclusive.
func BuildDateDim(facts []FactOrder) []DateDim {
	if len(facts) == 0 {
		return nil
	}

	min, max := facts[0].PurchasedAt, facts[0].PurchasedAt
	for _, f := range facts[1:] {
		if f.PurchasedAt.Before(min) {
			min = f.PurchasedAt
		}
		if f.PurchasedAt.After(max) {
			max = f.PurchasedAt
		}
	}

	start := time.Date(min.Year(), min.Month(), min.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(max.Year(), max.Month(), max.Day(), 0, 0, 0, 0, time.UTC)

	var dims []DateDim
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		wd := int(d.Weekday())
		dims = append(dims, DateDim{
			Date:      d,
			Year:      d.Year(),
			Quarter:   (int(d.Month())-1)/3 + 1,
			Month:     int(d.Month()),
			Day:       d.Day(),
			Weekday:   wd,
			IsWeekend: wd == 0 || wd == 6,
		})
	}
	return dims
}

func translateCategory(name string, names map[string]string) string {
	if name == "" {
		return "unknown"
	}
	if en, ok := names[name]; ok && en != "" {
		return en
	}
	return name
}

func revenueTier(revenue float64) string {
	switch {
	case revenue >= 10000:
		return "top"
	case revenue >= 1000:
		return "mid"
	default:
		return "long_tail"
	}
}

func sellerTier(revenue float64, orders int) string {
	switch {
	case revenue >= 50000 || orders >= 500:
		return "top_performer"
	case revenue >= 5000 || orders >= 50:
		return "established"
	default:
		return "emerging"
	}
}

func earliest(cur *time.Time, t time.Time) *time.Time {
	if cur == nil || t.Before(*cur) {
		return &t
	}
	return cur
}

func latest(cur *time.Time, t time.Time) *time.Time {
	if cur == nil || t.After(*cur) {
		return &t
	}
	return cur
}
