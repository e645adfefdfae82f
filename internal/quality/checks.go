package quality

import (
	"fmt"

	"github.com/azniosman/project-samba-insight/internal/marts"
	"github.com/azniosman/project-samba-insight/internal/staging"
	"github.com/azniosman/project-samba-insight/internal/warehouse"
)

// Severity decides whether a failing check fails the build or only warns.
const (
	SeverityError = "error"
	SeverityWarn  = "warn"
)

// Check is one data test. Query must return a single integer: the number
// of violating rows, zero meaning pass.
type Check struct {
	Name     string
	Table    string
	Severity string
	Query    string
}

// Unique checks that no value of column appears on more than one row.
func Unique(table, column string) Check {
	return Check{
		Name:     fmt.Sprintf("unique_%s_%s", table, column),
		Table:    table,
		Severity: SeverityError,
		Query: fmt.Sprintf(
			"SELECT COUNT(*) FROM (SELECT %s FROM %s GROUP BY %s HAVING COUNT(*) > 1)",
			column, table, column),
	}
}

// NotNull checks that column is never NULL or empty.
func NotNull(table, column string) Check {
	return Check{
		Name:     fmt.Sprintf("not_null_%s_%s", table, column),
		Table:    table,
		Severity: SeverityError,
		Query: fmt.Sprintf(
			"SELECT COUNT(*) FROM %s WHERE %s IS NULL OR %s = ''",
			table, column, column),
	}
}

// AcceptedValues checks that column only holds values from the given set.
func AcceptedValues(table, column string, values []string, severity string) Check {
	list := ""
	for i, v := range values {
		if i > 0 {
			list += ", "
		}
		list += "'" + v + "'"
	}
	return Check{
		Name:     fmt.Sprintf("accepted_values_%s_%s", table, column),
		Table:    table,
		Severity: severity,
		Query: fmt.Sprintf(
			"SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND %s NOT IN (%s)",
			table, column, column, list),
	}
}

// Relationship checks that every child value exists in the parent table.
func Relationship(childTable, childColumn, parentTable, parentColumn string) Check {
	return Check{
		Name:     fmt.Sprintf("relationship_%s_%s", childTable, childColumn),
		Table:    childTable,
		Severity: SeverityError,
		Query: fmt.Sprintf(
			"SELECT COUNT(*) FROM %s c WHERE c.%s IS NOT NULL AND NOT EXISTS (SELECT 1 FROM %s p WHERE p.%s = c.%s)",
			childTable, childColumn, parentTable, parentColumn, childColumn),
	}
}

// NonNegative checks that a numeric column never goes below zero.
func NonNegative(table, column string) Check {
	return Check{
		Name:     fmt.Sprintf("non_negative_%s_%s", table, column),
		Table:    table,
		Severity: SeverityError,
		Query:    fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s < 0", table, column),
	}
}

// Bounded checks that a numeric column stays within [lo, hi] when set.
func Bounded(table, column string, lo, hi float64, severity string) Check {
	return Check{
		Name:     fmt.Sprintf("bounded_%s_%s", table, column),
		Table:    table,
		Severity: severity,
		Query: fmt.Sprintf(
			"SELECT COUNT(*) FROM %s WHERE %s IS NOT NULL AND (%s < %g OR %s > %g)",
			table, column, column, lo, column, hi),
	}
}

// DefaultChecks is the standing test suite run after every build.
func DefaultChecks() []Check {
	sentiments := []string{staging.SentimentPositive, staging.SentimentNeutral, staging.SentimentNegative}
	churnStatuses := []string{marts.StatusActive, marts.StatusDeclining, marts.StatusAtRisk, marts.StatusChurned}
	riskSegments := []string{marts.RiskHealthy, marts.RiskLow, marts.RiskMedium, marts.RiskHigh, marts.RiskCritical}

	return []Check{
		Unique("fact_orders", "order_id"),
		NotNull("fact_orders", "order_id"),
		NotNull("fact_orders", "customer_id"),
		NotNull("fact_orders", "purchased_at"),
		AcceptedValues("fact_orders", "order_status", staging.ValidStatuses, SeverityError),
		AcceptedValues("fact_orders", "review_sentiment", sentiments, SeverityError),
		NonNegative("fact_orders", "total_order_value"),
		NonNegative("fact_orders", "item_count"),
		Bounded("fact_orders", "review_score", 1, 5, SeverityError),
		Relationship("fact_orders", "customer_id", "dim_customer", "customer_id"),

		Unique("dim_customer", "customer_id"),
		NotNull("dim_customer", "customer_id"),
		AcceptedValues("dim_customer", "customer_segment", warehouse.ValidSegments, SeverityError),
		NonNegative("dim_customer", "total_revenue"),

		Unique("dim_product", "product_id"),
		Unique("dim_seller", "seller_id"),

		Bounded("mart_cohort_retention", "retention_pct", 0, 100, SeverityError),
		NonNegative("mart_cohort_retention", "cohort_size"),
		Bounded("mart_churn_risk", "composite_score", 0, 100, SeverityError),
		AcceptedValues("mart_churn_risk", "churn_status", churnStatuses, SeverityError),
		AcceptedValues("mart_churn_risk", "risk_segment", riskSegments, SeverityError),
		Bounded("mart_executive_kpi", "strategic_health_score", 0, 100, SeverityError),
		Bounded("mart_geo_performance", "revenue_share_pct", 0, 100, SeverityWarn),
	}
}
