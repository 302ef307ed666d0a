package report

// ReportRow is one output row per (dimension key, period): the raw aggregates
// plus every waterfall-derived metric. Currency figures are rounded to cents
// and percents to one decimal at emission; intermediate arithmetic stays in
// decimal form.
type ReportRow struct {
	Key   string `json:"key"`
	Label string `json:"label"`

	OrderCount int `json:"orderCount"`
	ItemCount  int `json:"itemCount"`

	GrossRevenue    float64 `json:"grossRevenue"`
	Discounts       float64 `json:"discounts"`
	Returns         float64 `json:"returns"`
	ShippingRevenue float64 `json:"shippingRevenue"`
	NetRevenue      float64 `json:"netRevenue"`

	COGS            float64 `json:"cogs"`
	GrossProfit     float64 `json:"grossProfit"`
	GrossProfitPct  float64 `json:"grossProfitPct"`
	ShippingCost    float64 `json:"shippingCost"`
	TransactionFees float64 `json:"transactionFees"`
	FulfillmentCost float64 `json:"fulfillmentCost"`
	CM2             float64 `json:"cm2"`
	CM2Pct          float64 `json:"cm2Pct"`
	AdSpend         float64 `json:"adSpend"`
	CM3             float64 `json:"cm3"`
	CM3Pct          float64 `json:"cm3Pct"`
	Opex            float64 `json:"opex"`
	NetProfit       float64 `json:"netProfit"`
	NetProfitPct    float64 `json:"netProfitPct"`

	ShippingCostSource CostSource `json:"shippingCostSource"`
}

// Totals summarizes a report across all of its buckets.
type Totals struct {
	OrderCount      int     `json:"orderCount"`
	ItemCount       int     `json:"itemCount"`
	GrossRevenue    float64 `json:"grossRevenue"`
	Discounts       float64 `json:"discounts"`
	Returns         float64 `json:"returns"`
	NetRevenue      float64 `json:"netRevenue"`
	NetProfit       float64 `json:"netProfit"`
	NetProfitPct    float64 `json:"netProfitPct"`
	AvgOrderValue   float64 `json:"avgOrderValue"`
	FulfillmentCost float64 `json:"fulfillmentCost"`
}
