package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeeDefaultRate(t *testing.T) {
	r := NewFeeResolver(CostConfiguration{})

	// 105 × 2.9% + 0.30 = 3.345
	fee := r.Fee(d("105"), "shopify_payments")
	assert.True(t, fee.Equal(d("3.345")), "got %s", fee)
}

func TestFeeUnknownGatewayFallsBack(t *testing.T) {
	r := NewFeeResolver(CostConfiguration{})

	assert.True(t, r.Fee(d("100"), "mystery pay").Equal(d("3.20")))
	assert.True(t, r.Fee(d("100"), "").Equal(d("3.20")))
}

func TestFeeCaseInsensitiveSubstringMatch(t *testing.T) {
	cfg := CostConfiguration{Fees: &FeeSettings{Gateways: []GatewayFee{
		{Name: "PayPal", RatePct: d("3.49"), FixedFee: d("0.49")},
		{Name: GatewayShopifyPayments, RatePct: d("2.9"), FixedFee: d("0.30")},
	}}}
	r := NewFeeResolver(cfg)

	// "paypal express checkout" contains "paypal"
	fee := r.Fee(d("100"), "PayPal Express Checkout")
	assert.True(t, fee.Equal(d("3.98")), "got %s", fee)
}

func TestFeeSurchargeOnThirdPartyOnly(t *testing.T) {
	cfg := CostConfiguration{Fees: &FeeSettings{
		Gateways: []GatewayFee{
			{Name: "Stripe", RatePct: d("2.9"), FixedFee: d("0.30")},
			{Name: GatewayShopifyPayments, RatePct: d("2.9"), FixedFee: d("0.30")},
		},
		ThirdPartySurchargePct: d("1.0"),
	}}
	r := NewFeeResolver(cfg)

	// third party pays rate + surcharge
	assert.True(t, r.Fee(d("100"), "stripe").Equal(d("4.20")))
	// the platform processor never pays the surcharge
	assert.True(t, r.Fee(d("100"), "shopify payments").Equal(d("3.20")))
}

func TestFeeSurchargeWaivedPlan(t *testing.T) {
	cfg := CostConfiguration{Fees: &FeeSettings{
		Gateways:               []GatewayFee{{Name: "Stripe", RatePct: d("2.9"), FixedFee: d("0.30")}},
		ThirdPartySurchargePct: d("1.0"),
		SurchargeWaived:        true,
	}}
	r := NewFeeResolver(cfg)

	assert.True(t, r.Fee(d("100"), "stripe").Equal(d("3.20")))
}
