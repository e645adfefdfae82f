package warehouse

import "time"

// Customer segments derived from lifetime non-canceled order count.
const (
	SegmentOneTime = "one_time"
	SegmentRepeat  = "repeat"
	SegmentLoyal   = "loyal"
)

// ValidSegments is the accepted value set for customer segment.
var ValidSegments = []string{SegmentOneTime, SegmentRepeat, SegmentLoyal}

// CustomerDim is one row of dim_customer, rebuilt in full every run.
type CustomerDim struct {
	CustomerID      string     `json:"customer_id"`
	UniqueID        string     `json:"customer_unique_id"`
	City            string     `json:"customer_city"`
	State           string     `json:"customer_state"`
	TotalOrders     int        `json:"total_orders"`
	DeliveredOrders int        `json:"delivered_orders"`
	CanceledOrders  int        `json:"canceled_orders"`
	TotalRevenue    float64    `json:"total_revenue"`
	FirstOrderAt    *time.Time `json:"first_order_at"`
	LastOrderAt     *time.Time `json:"last_order_at"`
	AvgReviewScore  *float64   `json:"avg_review_score"`
	Segment         string     `json:"customer_segment"`
}

// ProductDim is one row of dim_product.
type ProductDim struct {
	ProductID       string  `json:"product_id"`
	Category        string  `json:"category"`
	CategoryEnglish string  `json:"category_english"`
	WeightGrams     int     `json:"weight_grams"`
	ItemsSold       int     `json:"items_sold"`
	Revenue         float64 `json:"revenue"`
	RevenueTier     string  `json:"revenue_tier"`
}

// SellerDim is one row of dim_seller.
type SellerDim struct {
	SellerID     string  `json:"seller_id"`
	City         string  `json:"seller_city"`
	State        string  `json:"seller_state"`
	ItemsSold    int     `json:"items_sold"`
	OrdersServed int     `json:"orders_served"`
	Revenue      float64 `json:"revenue"`
	Tier         string  `json:"performance_tier"`
}

// DateDim is one calendar row between the first and last purchase date.
type DateDim struct {
	Date      time.Time `json:"date"`
	Year      int       `json:"year"`
	Quarter   int       `json:"quarter"`
	Month     int       `json:"month"`
	Day       int       `json:"day"`
	Weekday   int       `json:"weekday"`
	IsWeekend bool      `json:"is_weekend"`
}

// FactOrder is one row of fact_orders: one customer transaction, upserted
// by OrderID, never deleted.
type FactOrder struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_key"`
	Status     string `json:"order_status"`

	CustomerCity  string `json:"customer_city"`
	CustomerState string `json:"customer_state"`

	PurchasedAt time.Time  `json:"purchased_at"`
	ApprovedAt  *time.Time `json:"approved_at"`
	DeliveredAt *time.Time `json:"delivered_at"`

	DeliveryDays      *int `json:"delivery_days"`
	DeliveryDelayDays *int `json:"delivery_delay_days"`
	IsDelivered       bool `json:"is_delivered"`
	IsOnTimeDelivery  bool `json:"is_on_time_delivery"`
	IsLateDelivery    bool `json:"is_late_delivery"`

	ItemCount       int     `json:"item_count"`
	ItemsValue      float64 `json:"items_value"`
	FreightValue    float64 `json:"freight_value"`
	TotalOrderValue float64 `json:"total_order_value"`

	PaymentValue       float64 `json:"payment_value"`
	PaymentMethodCount int     `json:"payment_method_count"`
	MaxInstallments    int     `json:"max_installments"`

	ReviewScore     *int    `json:"review_score"`
	ReviewSentiment *string `json:"review_sentiment"`

	HasPaymentMismatch  bool `json:"has_payment_mismatch"`
	HasDataQualityIssue bool `json:"has_data_quality_issue"`
}

// IsCountable reports whether the order participates in customer activity
// metrics. Canceled and unavailable orders never do.
func (f *FactOrder) IsCountable() bool {
	return f.Status != "canceled" && f.Status != "unavailable"
}
