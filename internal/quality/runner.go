package quality

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("quality")

// Result is one executed check.
type Result struct {
	Check    Check  `json:"check"`
	Failures int    `json:"failures"`
	Passed   bool   `json:"passed"`
	Err      string `json:"error,omitempty"`
}

// FreshnessResult reports how stale the newest fact row is.
type FreshnessResult struct {
	LatestPurchase *time.Time    `json:"latest_purchase"`
	Age            time.Duration `json:"age"`
	Status         string        `json:"status"` // fresh, warn, error
}

// Report is the outcome of one full quality run.
type Report struct {
	RanAt     time.Time        `json:"ran_at"`
	Results   []Result         `json:"results"`
	Freshness *FreshnessResult `json:"freshness,omitempty"`
	Health    *DataHealth      `json:"health,omitempty"`
}

// Passed reports whether no error-severity check failed. Warn-severity
// failures and stale-but-within-error freshness do not fail the run.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed && res.Check.Severity == SeverityError {
			return false
		}
	}
	if r.Freshness != nil && r.Freshness.Status == "error" {
		return false
	}
	return true
}

// Runner executes checks against the materialized warehouse.
type Runner struct {
	db *sql.DB

	// WarnAfter and ErrorAfter bound acceptable source staleness.
	WarnAfter  time.Duration
	ErrorAfter time.Duration

	// Now is overridable for tests.
	Now func() time.Time
}

// NewRunner returns a runner with the standard staleness thresholds.
func NewRunner(db *sql.DB) *Runner {
	return &Runner{
		db:         db,
		WarnAfter:  24 * time.Hour,
		ErrorAfter: 48 * time.Hour,
		Now:        time.Now,
	}
}

// Run executes every check plus the freshness probe and health summary.
func (r *Runner) Run(checks []Check) *Report {
	report := &Report{RanAt: r.Now()}

	for _, check := range checks {
		res := Result{Check: check}
		if err := r.db.QueryRow(check.Query).Scan(&res.Failures); err != nil {
			res.Err = err.Error()
		} else {
			res.Passed = res.Failures == 0
		}
		if !res.Passed {
			log.Warningf("check %s: %d violations (%s)", check.Name, res.Failures, check.Severity)
		}
		report.Results = append(report.Results, res)
	}

	if fresh, err := r.checkFreshness(); err != nil {
		log.Errorf("freshness probe: %v", err)
	} else {
		report.Freshness = fresh
	}

	if health, err := r.collectHealth(); err != nil {
		log.Errorf("health summary: %v", err)
	} else {
		report.Health = health
	}

	return report
}

func (r *Runner) checkFreshness() (*FreshnessResult, error) {
	var latest sql.NullTime
	if err := r.db.QueryRow("SELECT MAX(purchased_at) FROM fact_orders").Scan(&latest); err != nil {
		return nil, err
	}
	if !latest.Valid {
		return &FreshnessResult{Status: "error"}, nil
	}

	age := r.Now().Sub(latest.Time)
	status := "fresh"
	switch {
	case age > r.ErrorAfter:
		status = "error"
	case age > r.WarnAfter:
		status = "warn"
	}
	t := latest.Time
	return &FreshnessResult{LatestPurchase: &t, Age: age, Status: status}, nil
}

// DataHealth summarizes the fact table for operators: status mix,
// delivery speed distribution, and known anomaly counts.
type DataHealth struct {
	TotalOrders     int                       `json:"total_orders"`
	DeliveredOrders int                       `json:"delivered_orders"`
	AvgDeliveryDays *float64                  `json:"avg_delivery_days,omitempty"`
	StatusBreakdown map[string]int            `json:"status_breakdown"`
	DeliveryBuckets map[string]DeliveryBucket `json:"delivery_buckets"`
	PaymentMismatch int                       `json:"payment_mismatch_orders"`
	QualityIssues   int                       `json:"quality_issue_orders"`
	MissingReviews  int                       `json:"missing_review_orders"`
}

// DeliveryBucket holds the order volume and satisfaction for one
// delivery-speed band.
type DeliveryBucket struct {
	Orders    int      `json:"orders"`
	AvgReview *float64 `json:"avg_review,omitempty"`
}

// Delivery buckets match the reporting cut points used downstream.
var deliveryBuckets = []struct {
	label string
	cond  string
}{
	{"0-7 days", "delivery_days <= 7"},
	{"8-14 days", "delivery_days BETWEEN 8 AND 14"},
	{"15-21 days", "delivery_days BETWEEN 15 AND 21"},
	{"22-30 days", "delivery_days BETWEEN 22 AND 30"},
	{"30+ days", "delivery_days > 30"},
}

func (r *Runner) collectHealth() (*DataHealth, error) {
	h := &DataHealth{
		StatusBreakdown: map[string]int{},
		DeliveryBuckets: map[string]DeliveryBucket{},
	}

	if err := r.db.QueryRow("SELECT COUNT(*) FROM fact_orders").Scan(&h.TotalOrders); err != nil {
		return nil, err
	}
	if err := r.db.QueryRow("SELECT COUNT(*) FROM fact_orders WHERE order_status = 'delivered'").Scan(&h.DeliveredOrders); err != nil {
		return nil, err
	}
	var avgDays sql.NullFloat64
	if err := r.db.QueryRow("SELECT AVG(delivery_days) FROM fact_orders").Scan(&avgDays); err != nil {
		return nil, err
	}
	if avgDays.Valid {
		h.AvgDeliveryDays = &avgDays.Float64
	}

	rows, err := r.db.Query("SELECT order_status, COUNT(*) FROM fact_orders GROUP BY order_status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		h.StatusBreakdown[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range deliveryBuckets {
		var bucket DeliveryBucket
		var review sql.NullFloat64
		q := fmt.Sprintf("SELECT COUNT(*), AVG(review_score) FROM fact_orders WHERE delivery_days IS NOT NULL AND %s", b.cond)
		if err := r.db.QueryRow(q).Scan(&bucket.Orders, &review); err != nil {
			return nil, err
		}
		if review.Valid {
			bucket.AvgReview = &review.Float64
		}
		h.DeliveryBuckets[b.label] = bucket
	}

	if err := r.db.QueryRow("SELECT COUNT(*) FROM fact_orders WHERE has_payment_mismatch").Scan(&h.PaymentMismatch); err != nil {
		return nil, err
	}
	if err := r.db.QueryRow("SELECT COUNT(*) FROM fact_orders WHERE has_data_quality_issue").Scan(&h.QualityIssues); err != nil {
		return nil, err
	}
	if err := r.db.QueryRow("SELECT COUNT(*) FROM fact_orders WHERE order_status = 'delivered' AND review_score IS NULL").Scan(&h.MissingReviews); err != nil {
		return nil, err
	}

	return h, nil
}
