package storage

import (
	"database/sql"

	"github.com/azniosman/project-samba-insight/internal/marts"
)

func (s *Store) migrateMarts() error {
	schema := `
		CREATE TABLE IF NOT EXISTS mart_cohort_retention (
			granularity TEXT NOT NULL,
			cohort_period DATETIME NOT NULL,
			customer_state TEXT NOT NULL,
			periods_since_cohort INTEGER NOT NULL,
			cohort_size INTEGER NOT NULL,
			active_customers INTEGER NOT NULL,
			retention_pct REAL,
			cumulative_revenue REAL NOT NULL,
			cumulative_orders INTEGER NOT NULL,
			ltv_to_date REAL,
			PRIMARY KEY (granularity, cohort_period, customer_state, periods_since_cohort)
		);

		CREATE TABLE IF NOT EXISTS mart_churn_risk (
			customer_id TEXT PRIMARY KEY,
			customer_state TEXT,
			total_orders INTEGER NOT NULL,
			lifetime_revenue REAL NOT NULL,
			last_order_at DATETIME NOT NULL,
			days_since_last_order INTEGER NOT NULL,
			avg_revenue_per_month REAL,
			recency_score REAL NOT NULL,
			engagement_score REAL NOT NULL,
			spend_score REAL NOT NULL,
			satisfaction_score REAL NOT NULL,
			service_score REAL NOT NULL,
			cancellation_score REAL NOT NULL,
			composite_score REAL NOT NULL,
			churn_status TEXT NOT NULL,
			risk_segment TEXT NOT NULL,
			value_tier TEXT NOT NULL,
			retention_priority TEXT NOT NULL,
			recommended_action TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS mart_executive_kpi (
			year INTEGER NOT NULL,
			quarter INTEGER NOT NULL,
			revenue REAL NOT NULL,
			orders INTEGER NOT NULL,
			customers INTEGER NOT NULL,
			qoq_growth_pct REAL,
			yoy_growth_pct REAL,
			next_quarter_retention_pct REAL,
			churned_customers INTEGER NOT NULL,
			at_risk_customers INTEGER NOT NULL,
			top_state TEXT,
			top_state_share_pct REAL,
			top_category TEXT,
			top_category_share_pct REAL,
			avg_review_score REAL,
			on_time_pct REAL,
			avg_delivery_days REAL,
			revenue_growth_points INTEGER NOT NULL,
			retention_points INTEGER NOT NULL,
			satisfaction_points INTEGER NOT NULL,
			geo_diversity_points INTEGER NOT NULL,
			category_diversity_points INTEGER NOT NULL,
			operational_points INTEGER NOT NULL,
			strategic_health_score INTEGER NOT NULL,
			PRIMARY KEY (year, quarter)
		);

		CREATE TABLE IF NOT EXISTS mart_geo_performance (
			customer_state TEXT PRIMARY KEY,
			revenue REAL NOT NULL,
			orders INTEGER NOT NULL,
			customers INTEGER NOT NULL,
			revenue_share_pct REAL,
			order_share_pct REAL,
			customer_share_pct REAL,
			avg_order_value REAL,
			late_delivery_pct REAL,
			revenue_rank INTEGER NOT NULL,
			market_maturity TEXT NOT NULL,
			expansion_priority TEXT NOT NULL,
			strategic_tier TEXT NOT NULL,
			risk_flag TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS mart_category_performance (
			category TEXT PRIMARY KEY,
			revenue REAL NOT NULL,
			orders INTEGER NOT NULL,
			customers INTEGER NOT NULL,
			revenue_share_pct REAL,
			order_share_pct REAL,
			avg_review_score REAL,
			revenue_rank INTEGER NOT NULL,
			performance_status TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS mart_unit_economics (
			customer_state TEXT PRIMARY KEY,
			customers INTEGER NOT NULL,
			orders INTEGER NOT NULL,
			revenue REAL NOT NULL,
			ltv REAL,
			cac REAL NOT NULL,
			ltv_cac_ratio REAL,
			viability TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ReplaceCohorts rewrites one granularity's cohort rows, leaving the
// other granularity untouched.
func (s *Store) ReplaceCohorts(g marts.Granularity, rows []marts.CohortRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM mart_cohort_retention WHERE granularity = ?", string(g)); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO mart_cohort_retention (
			granularity, cohort_period, customer_state, periods_since_cohort,
			cohort_size, active_customers, retention_pct,
			cumulative_revenue, cumulative_orders, ltv_to_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.Exec(
			string(g), r.CohortPeriod, r.State, r.PeriodsSince,
			r.CohortSize, r.ActiveCustomers, r.RetentionPct,
			r.CumulativeRevenue, r.CumulativeOrders, r.LTVToDate,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadCohorts returns one granularity's rows ordered by cohort, state
// and offset.
func (s *Store) LoadCohorts(g marts.Granularity) ([]marts.CohortRow, error) {
	rows, err := s.db.Query(`
		SELECT cohort_period, customer_state, periods_since_cohort,
			cohort_size, active_customers, retention_pct,
			cumulative_revenue, cumulative_orders, ltv_to_date
		FROM mart_cohort_retention
		WHERE granularity = ?
		ORDER BY cohort_period, customer_state, periods_since_cohort
	`, string(g))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []marts.CohortRow
	for rows.Next() {
		var r marts.CohortRow
		var retention, ltv sql.NullFloat64
		err := rows.Scan(
			&r.CohortPeriod, &r.State, &r.PeriodsSince,
			&r.CohortSize, &r.ActiveCustomers, &retention,
			&r.CumulativeRevenue, &r.CumulativeOrders, &ltv,
		)
		if err != nil {
			return nil, err
		}
		r.RetentionPct = nullFloatPtr(retention)
		r.LTVToDate = nullFloatPtr(ltv)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceChurn rewrites mart_churn_risk in full.
func (s *Store) ReplaceChurn(rows []marts.ChurnRow) error {
	return s.replaceAll("mart_churn_risk", `
		INSERT INTO mart_churn_risk (
			customer_id, customer_state, total_orders, lifetime_revenue,
			last_order_at, days_since_last_order, avg_revenue_per_month,
			recency_score, engagement_score, spend_score,
			satisfaction_score, service_score, cancellation_score, composite_score,
			churn_status, risk_segment, value_tier, retention_priority, recommended_action
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{
			r.CustomerID, r.State, r.TotalOrders, r.LifetimeRevenue,
			r.LastOrderAt, r.DaysSinceLastOrder, r.AvgRevenuePerMonth,
			r.RecencyScore, r.EngagementScore, r.SpendScore,
			r.SatisfactionScore, r.ServiceScore, r.CancellationScore, r.CompositeScore,
			r.ChurnStatus, r.RiskSegment, r.ValueTier, r.RetentionPriority, r.RecommendedAction,
		}
	})
}

// LoadChurn returns mart_churn_risk ordered by composite score descending.
func (s *Store) LoadChurn() ([]marts.ChurnRow, error) {
	rows, err := s.db.Query(`
		SELECT customer_id, customer_state, total_orders, lifetime_revenue,
			last_order_at, days_since_last_order, avg_revenue_per_month,
			recency_score, engagement_score, spend_score,
			satisfaction_score, service_score, cancellation_score, composite_score,
			churn_status, risk_segment, value_tier, retention_priority, recommended_action
		FROM mart_churn_risk ORDER BY composite_score DESC, customer_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []marts.ChurnRow
	for rows.Next() {
		var r marts.ChurnRow
		var avg sql.NullFloat64
		err := rows.Scan(
			&r.CustomerID, &r.State, &r.TotalOrders, &r.LifetimeRevenue,
			&r.LastOrderAt, &r.DaysSinceLastOrder, &avg,
			&r.RecencyScore, &r.EngagementScore, &r.SpendScore,
			&r.SatisfactionScore, &r.ServiceScore, &r.CancellationScore, &r.CompositeScore,
			&r.ChurnStatus, &r.RiskSegment, &r.ValueTier, &r.RetentionPriority, &r.RecommendedAction,
		)
		if err != nil {
			return nil, err
		}
		r.AvgRevenuePerMonth = nullFloatPtr(avg)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceExecutive rewrites mart_executive_kpi in full.
func (s *Store) ReplaceExecutive(rows []marts.ExecutiveRow) error {
	return s.replaceAll("mart_executive_kpi", `
		INSERT INTO mart_executive_kpi (
			year, quarter, revenue, orders, customers,
			qoq_growth_pct, yoy_growth_pct,
			next_quarter_retention_pct, churned_customers, at_risk_customers,
			top_state, top_state_share_pct, top_category, top_category_share_pct,
			avg_review_score, on_time_pct, avg_delivery_days,
			revenue_growth_points, retention_points, satisfaction_points,
			geo_diversity_points, category_diversity_points, operational_points,
			strategic_health_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{
			r.Year, r.Quarter, r.Revenue, r.Orders, r.Customers,
			r.QoQGrowthPct, r.YoYGrowthPct,
			r.NextQuarterRetentionPct, r.ChurnedCustomers, r.AtRiskCustomers,
			r.TopState, r.TopStateSharePct, r.TopCategory, r.TopCategorySharePct,
			r.AvgReviewScore, r.OnTimePct, r.AvgDeliveryDays,
			r.RevenueGrowthPoints, r.RetentionPoints, r.SatisfactionPoints,
			r.GeoDiversityPoints, r.CategoryDiversityPoints, r.OperationalPoints,
			r.StrategicHealthScore,
		}
	})
}

// LoadExecutive returns mart_executive_kpi in chronological order.
func (s *Store) LoadExecutive() ([]marts.ExecutiveRow, error) {
	rows, err := s.db.Query(`
		SELECT year, quarter, revenue, orders, customers,
			qoq_growth_pct, yoy_growth_pct,
			next_quarter_retention_pct, churned_customers, at_risk_customers,
			top_state, top_state_share_pct, top_category, top_category_share_pct,
			avg_review_score, on_time_pct, avg_delivery_days,
			revenue_growth_points, retention_points, satisfaction_points,
			geo_diversity_points, category_diversity_points, operational_points,
			strategic_health_score
		FROM mart_executive_kpi ORDER BY year, quarter
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []marts.ExecutiveRow
	for rows.Next() {
		var r marts.ExecutiveRow
		var qoq, yoy, retention, stateShare, catShare, review, onTime, delivery sql.NullFloat64
		err := rows.Scan(
			&r.Year, &r.Quarter, &r.Revenue, &r.Orders, &r.Customers,
			&qoq, &yoy,
			&retention, &r.ChurnedCustomers, &r.AtRiskCustomers,
			&r.TopState, &stateShare, &r.TopCategory, &catShare,
			&review, &onTime, &delivery,
			&r.RevenueGrowthPoints, &r.RetentionPoints, &r.SatisfactionPoints,
			&r.GeoDiversityPoints, &r.CategoryDiversityPoints, &r.OperationalPoints,
			&r.StrategicHealthScore,
		)
		if err != nil {
			return nil, err
		}
		r.QoQGrowthPct = nullFloatPtr(qoq)
		r.YoYGrowthPct = nullFloatPtr(yoy)
		r.NextQuarterRetentionPct = nullFloatPtr(retention)
		r.TopStateSharePct = nullFloatPtr(stateShare)
		r.TopCategorySharePct = nullFloatPtr(catShare)
		r.AvgReviewScore = nullFloatPtr(review)
		r.OnTimePct = nullFloatPtr(onTime)
		r.AvgDeliveryDays = nullFloatPtr(delivery)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceGeo rewrites mart_geo_performance in full.
func (s *Store) ReplaceGeo(rows []marts.GeoRow) error {
	return s.replaceAll("mart_geo_performance", `
		INSERT INTO mart_geo_performance (
			customer_state, revenue, orders, customers,
			revenue_share_pct, order_share_pct, customer_share_pct,
			avg_order_value, late_delivery_pct,
			revenue_rank, market_maturity, expansion_priority, strategic_tier, risk_flag
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{
			r.State, r.Revenue, r.Orders, r.Customers,
			r.RevenueSharePct, r.OrderSharePct, r.CustomerSharePct,
			r.AvgOrderValue, r.LateDeliveryPct,
			r.RevenueRank, r.MarketMaturity, r.ExpansionPriority, r.StrategicTier, r.RiskFlag,
		}
	})
}

// LoadGeo returns mart_geo_performance ordered by revenue rank.
func (s *Store) LoadGeo() ([]marts.GeoRow, error) {
	rows, err := s.db.Query(`
		SELECT customer_state, revenue, orders, customers,
			revenue_share_pct, order_share_pct, customer_share_pct,
			avg_order_value, late_delivery_pct,
			revenue_rank, market_maturity, expansion_priority, strategic_tier, risk_flag
		FROM mart_geo_performance ORDER BY revenue_rank
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []marts.GeoRow
	for rows.Next() {
		var r marts.GeoRow
		var revShare, ordShare, custShare, aov, late sql.NullFloat64
		err := rows.Scan(
			&r.State, &r.Revenue, &r.Orders, &r.Customers,
			&revShare, &ordShare, &custShare,
			&aov, &late,
			&r.RevenueRank, &r.MarketMaturity, &r.ExpansionPriority, &r.StrategicTier, &r.RiskFlag,
		)
		if err != nil {
			return nil, err
		}
		r.RevenueSharePct = nullFloatPtr(revShare)
		r.OrderSharePct = nullFloatPtr(ordShare)
		r.CustomerSharePct = nullFloatPtr(custShare)
		r.AvgOrderValue = nullFloatPtr(aov)
		r.LateDeliveryPct = nullFloatPtr(late)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceCategories rewrites mart_category_performance in full.
func (s *Store) ReplaceCategories(rows []marts.CategoryRow) error {
	return s.replaceAll("mart_category_performance", `
		INSERT INTO mart_category_performance (
			category, revenue, orders, customers,
			revenue_share_pct, order_share_pct, avg_review_score,
			revenue_rank, performance_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{
			r.Category, r.Revenue, r.Orders, r.Customers,
			r.RevenueSharePct, r.OrderSharePct, r.AvgReviewScore,
			r.RevenueRank, r.PerformanceStatus,
		}
	})
}

// LoadCategories returns mart_category_performance ordered by revenue rank.
func (s *Store) LoadCategories() ([]marts.CategoryRow, error) {
	rows, err := s.db.Query(`
		SELECT category, revenue, orders, customers,
			revenue_share_pct, order_share_pct, avg_review_score,
			revenue_rank, performance_status
		FROM mart_category_performance ORDER BY revenue_rank
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []marts.CategoryRow
	for rows.Next() {
		var r marts.CategoryRow
		var revShare, ordShare, review sql.NullFloat64
		err := rows.Scan(
			&r.Category, &r.Revenue, &r.Orders, &r.Customers,
			&revShare, &ordShare, &review,
			&r.RevenueRank, &r.PerformanceStatus,
		)
		if err != nil {
			return nil, err
		}
		r.RevenueSharePct = nullFloatPtr(revShare)
		r.OrderSharePct = nullFloatPtr(ordShare)
		r.AvgReviewScore = nullFloatPtr(review)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceEconomics rewrites mart_unit_economics in full.
func (s *Store) ReplaceEconomics(rows []marts.EconomicsRow) error {
	return s.replaceAll("mart_unit_economics", `
		INSERT INTO mart_unit_economics (
			customer_state, customers, orders, revenue,
			ltv, cac, ltv_cac_ratio, viability
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, len(rows), func(i int) []any {
		r := rows[i]
		return []any{
			r.State, r.Customers, r.Orders, r.Revenue,
			r.LTV, r.CAC, r.LTVCACRatio, r.Viability,
		}
	})
}

// LoadEconomics returns mart_unit_economics ordered by state.
func (s *Store) LoadEconomics() ([]marts.EconomicsRow, error) {
	rows, err := s.db.Query(`
		SELECT customer_state, customers, orders, revenue,
			ltv, cac, ltv_cac_ratio, viability
		FROM mart_unit_economics ORDER BY customer_state
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []marts.EconomicsRow
	for rows.Next() {
		var r marts.EconomicsRow
		var ltv, ratio sql.NullFloat64
		err := rows.Scan(
			&r.State, &r.Customers, &r.Orders, &r.Revenue,
			&ltv, &r.CAC, &ratio, &r.Viability,
		)
		if err != nil {
			return nil, err
		}
		r.LTV = nullFloatPtr(ltv)
		r.LTVCACRatio = nullFloatPtr(ratio)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
