package repos

// ⭐ SSOT: 출력 테이블 컬럼 정의는 여기서만 (pkg/database/schema.sql 과 일치)

var ScoresTable = Table{
	Name: "output.investment_scores",
	Columns: []string{
		"zip_code", "state_code", "city_name", "county_name", "county_fips",
		"bedroom_class", "fmr_year", "rent_source",
		"monthly_rent", "tax_rate", "annual_rent", "annual_taxes", "property_value",
		"net_yield", "rent_to_price_ratio", "base_score",
		"demand_score", "demand_multiplier", "adjusted_score", "data_sufficient",
		"home_value_vintage", "tax_vintage", "demand_vintage", "computed_at",
	},
	Key: []string{"zip_code", "bedroom_class", "fmr_year"},
}

var RollupsTable = Table{
	Name: "output.investment_score_rollups",
	Columns: []string{
		"geo_level", "geo_key", "state_code", "display_name",
		"bedroom_class", "fmr_year", "zip_count", "total_zip_count",
		"median_score", "mean_score", "score_std_dev",
		"median_net_yield", "mean_net_yield",
		"median_property_value", "mean_property_value",
		"median_annual_rent", "mean_annual_rent",
		"home_value_vintage", "tax_vintage", "computed_at",
	},
	Key: []string{"geo_level", "geo_key", "bedroom_class", "fmr_year"},
}

var YieldMoversTable = Table{
	Name: "output.yield_movers",
	Columns: []string{
		"geo_level", "geo_key", "state_code", "display_name",
		"bedroom_class", "fmr_year",
		"fmr_curr", "fmr_prev", "fmr_yoy_pct",
		"home_value_curr", "home_value_prev", "home_value_yoy_pct",
		"yield_curr", "yield_prior", "yield_delta_pp", "divergence_pp",
		"constituent_zip_count", "home_value_vintage", "computed_at",
	},
	Key: []string{"geo_level", "geo_key", "bedroom_class", "fmr_year"},
}
