package source

// Raw record types mirror the nine flat source datasets as delivered by the
// ingestion process. Everything is kept as strings; type casting is the
// staging layer's job.

// RawOrder is one row of the orders dataset, keyed by OrderID.
type RawOrder struct {
	OrderID               string
	CustomerID            string
	Status                string
	PurchaseTimestamp     string
	ApprovedAt            string
	DeliveredCarrierDate  string
	DeliveredCustomerDate string
	EstimatedDeliveryDate string
}

// RawCustomer is one row of the customers dataset, keyed by CustomerID.
type RawCustomer struct {
	CustomerID    string
	UniqueID      string
	ZipCodePrefix string
	City          string
	State         string
}

// RawOrderItem is one row of the order items dataset, keyed by
// (OrderID, ItemSequence).
type RawOrderItem struct {
	OrderID           string
	ItemSequence      string
	ProductID         string
	SellerID          string
	ShippingLimitDate string
	Price             string
	FreightValue      string
}

// RawPayment is one row of the payments dataset, keyed by
// (OrderID, Sequential).
type RawPayment struct {
	OrderID      string
	Sequential   string
	Type         string
	Installments string
	Value        string
}

// RawProduct is one row of the products dataset, keyed by ProductID.
type RawProduct struct {
	ProductID    string
	CategoryName string
	NameLength   string
	DescLength   string
	PhotosQty    string
	WeightGrams  string
	LengthCm     string
	HeightCm     string
	WidthCm      string
}

// RawSeller is one row of the sellers dataset, keyed by SellerID.
type RawSeller struct {
	SellerID      string
	ZipCodePrefix string
	City          string
	State         string
}

// RawReview is one row of the reviews dataset, keyed by ReviewID.
type RawReview struct {
	ReviewID        string
	OrderID         string
	Score           string
	CommentTitle    string
	CommentMessage  string
	CreationDate    string
	AnswerTimestamp string
}

// RawCategoryTranslation maps a Portuguese category name to English.
type RawCategoryTranslation struct {
	CategoryName        string
	CategoryNameEnglish string
}

// RawGeolocation is one row of the geolocation dataset, keyed by
// ZipCodePrefix (not unique in the source; first occurrence wins downstream).
type RawGeolocation struct {
	ZipCodePrefix string
	Lat           string
	Lng           string
	City          string
	State         string
}

// Dataset bundles all nine raw record sets for one pipeline run.
type Dataset struct {
	Orders       []RawOrder
	Customers    []RawCustomer
	OrderItems   []RawOrderItem
	Payments     []RawPayment
	Products     []RawProduct
	Sellers      []RawSeller
	Reviews      []RawReview
	Translations []RawCategoryTranslation
	Geolocations []RawGeolocation
}
