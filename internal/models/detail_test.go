package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshdeep1289/marketplace-platform/internal/apperr"
)

func validDealDetail() Detail {
	return Detail{
		Deal: &DealDetail{
			OriginalPrice: 1000,
			DealPrice:     750,
			DiscountType:  DealDiscountPercent,
			DiscountValue: 25,
			ExpiryDate:    time.Now().Add(72 * time.Hour),
		},
	}
}

func validProductDetail() Detail {
	return Detail{
		Product: &ProductDetail{
			Category:  "electronics",
			Condition: ConditionUsed,
			Quantity:  1,
		},
	}
}

func TestDetailVariant(t *testing.T) {
	typ, ok := validDealDetail().Variant()
	require.True(t, ok)
	assert.Equal(t, ListingTypeDeal, typ)

	_, ok = Detail{}.Variant()
	assert.False(t, ok, "empty detail has no variant")

	both := validDealDetail()
	both.Product = validProductDetail().Product
	_, ok = both.Variant()
	assert.False(t, ok, "two populated variants are ambiguous")
}

func TestDetailValidateTypeMismatch(t *testing.T) {
	err := validDealDetail().Validate(ListingTypeProduct)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestDetailValidateDeal(t *testing.T) {
	d := validDealDetail()
	require.NoError(t, d.Validate(ListingTypeDeal))

	missingPrice := validDealDetail()
	missingPrice.Deal.DealPrice = 0
	err := missingPrice.Validate(ListingTypeDeal)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	inverted := validDealDetail()
	inverted.Deal.DealPrice = inverted.Deal.OriginalPrice + 1
	assert.True(t, apperr.IsValidation(inverted.Validate(ListingTypeDeal)))

	badType := validDealDetail()
	badType.Deal.DiscountType = "half-off"
	assert.True(t, apperr.IsValidation(badType.Validate(ListingTypeDeal)))

	noExpiry := validDealDetail()
	noExpiry.Deal.ExpiryDate = time.Time{}
	assert.True(t, apperr.IsValidation(noExpiry.Validate(ListingTypeDeal)))
}

func TestDetailValidateCoupon(t *testing.T) {
	d := Detail{
		Coupon: &CouponDetail{
			BrandName:    "Acme",
			CouponCode:   "SAVE20",
			DiscountType: CouponDiscountFlat,
			ExpiryDate:   time.Now().Add(24 * time.Hour),
		},
	}
	require.NoError(t, d.Validate(ListingTypeCoupon))

	d.Coupon.CouponCode = ""
	assert.True(t, apperr.IsValidation(d.Validate(ListingTypeCoupon)))
}

func TestDetailValidateProduct(t *testing.T) {
	d := validProductDetail()
	require.NoError(t, d.Validate(ListingTypeProduct))

	d.Product.Condition = "mint"
	assert.True(t, apperr.IsValidation(d.Validate(ListingTypeProduct)))

	d = validProductDetail()
	d.Product.Quantity = -1
	assert.True(t, apperr.IsValidation(d.Validate(ListingTypeProduct)))
}

func TestDetailValidateService(t *testing.T) {
	maxPrice := 800.0
	d := Detail{
		Service: &ServiceDetail{
			ServiceType: "plumbing",
			MinPrice:    200,
			MaxPrice:    &maxPrice,
			PriceUnit:   PriceUnitHourly,
		},
	}
	require.NoError(t, d.Validate(ListingTypeService))

	maxPrice = 100
	assert.True(t, apperr.IsValidation(d.Validate(ListingTypeService)),
		"max price below min price must be rejected")
}

func TestListingTypeValid(t *testing.T) {
	for _, typ := range []ListingType{ListingTypeDeal, ListingTypeCoupon, ListingTypeProduct, ListingTypeService} {
		assert.True(t, typ.Valid(), string(typ))
	}
	assert.False(t, ListingType("auction").Valid())
}

func TestListingStatusValid(t *testing.T) {
	for _, st := range []ListingStatus{StatusActive, StatusInactive, StatusBlocked, StatusExpired, StatusSold} {
		assert.True(t, st.Valid(), string(st))
	}
	assert.False(t, ListingStatus("archived").Valid())
}
