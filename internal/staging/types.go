package staging

import "time"

// Order statuses carried by the source ledger.
const (
	StatusCreated     = "created"
	StatusApproved    = "approved"
	StatusInvoiced    = "invoiced"
	StatusProcessing  = "processing"
	StatusShipped     = "shipped"
	StatusDelivered   = "delivered"
	StatusCanceled    = "canceled"
	StatusUnavailable = "unavailable"
)

// ValidStatuses is the accepted value set for order status.
var ValidStatuses = []string{
	StatusCreated, StatusApproved, StatusInvoiced, StatusProcessing,
	StatusShipped, StatusDelivered, StatusCanceled, StatusUnavailable,
}

// Review sentiments derived from the 1-5 score.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Order is one cleaned order row. Delivery metrics are set only when the
// relevant timestamps exist; IsOnTimeDelivery and IsLateDelivery are
// mutually exclusive and only meaningful when IsDelivered is true.
type Order struct {
	OrderID     string
	CustomerID  string
	Status      string
	PurchasedAt time.Time
	ApprovedAt  *time.Time
	DeliveredAt *time.Time
	EstimatedAt *time.Time

	DeliveryDays      *int
	DeliveryDelayDays *int
	IsDelivered       bool
	IsOnTimeDelivery  bool
	IsLateDelivery    bool

	HasStatusViolation bool
}

// OrderItem is one cleaned order line.
type OrderItem struct {
	OrderID      string
	ItemSequence int
	ProductID    string
	SellerID     string
	Price        float64
	FreightValue float64

	HasValueViolation bool
}

// Payment is one cleaned payment row.
type Payment struct {
	OrderID      string
	Sequential   int
	Type         string
	Installments int
	Value        float64

	HasValueViolation bool
}

// Review is one cleaned review row with derived sentiment.
type Review struct {
	ReviewID  string
	OrderID   string
	Score     int
	Sentiment string
	CreatedAt *time.Time

	HasScoreViolation bool
}

// Customer is one cleaned customer row.
type Customer struct {
	CustomerID string
	UniqueID   string
	City       string
	State      string
}

// Product is one cleaned product row. Category keeps the source
// (Portuguese) name; translation happens in the dimension layer.
type Product struct {
	ProductID   string
	Category    string
	WeightGrams int
	LengthCm    int
	HeightCm    int
	WidthCm     int
}

// Seller is one cleaned seller row.
type Seller struct {
	SellerID string
	City     string
	State    string
}

// Snapshot is the full staging layer output for one run.
type Snapshot struct {
	Orders    []Order
	Items     []OrderItem
	Payments  []Payment
	Reviews   []Review
	Customers []Customer
	Products  []Product
	Sellers   []Seller

	// CategoryNames maps source category names to English.
	CategoryNames map[string]string
}
