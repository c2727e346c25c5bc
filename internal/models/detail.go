package models

import (
	"time"

	"github.com/harshdeep1289/marketplace-platform/internal/apperr"
)

// DealDiscountType enumerates discount modes for deal listings.
type DealDiscountType string

const (
	DealDiscountPercent DealDiscountType = "percent"
	DealDiscountFlat    DealDiscountType = "flat"
	DealDiscountBOGO    DealDiscountType = "bogo"
	DealDiscountBundle  DealDiscountType = "bundle"
)

func (t DealDiscountType) Valid() bool {
	switch t {
	case DealDiscountPercent, DealDiscountFlat, DealDiscountBOGO, DealDiscountBundle:
		return true
	}
	return false
}

// CouponDiscountType enumerates discount modes for coupon listings.
type CouponDiscountType string

const (
	CouponDiscountPercent  CouponDiscountType = "percent"
	CouponDiscountFlat     CouponDiscountType = "flat"
	CouponDiscountCashback CouponDiscountType = "cashback"
	CouponDiscountFreebie  CouponDiscountType = "freebie"
)

func (t CouponDiscountType) Valid() bool {
	switch t {
	case CouponDiscountPercent, CouponDiscountFlat, CouponDiscountCashback, CouponDiscountFreebie:
		return true
	}
	return false
}

// ProductCondition enumerates the physical state of a product.
type ProductCondition string

const (
	ConditionNew         ProductCondition = "new"
	ConditionUsed        ProductCondition = "used"
	ConditionRefurbished ProductCondition = "refurbished"
)

func (c ProductCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionUsed, ConditionRefurbished:
		return true
	}
	return false
}

// PriceUnit enumerates how a service is priced.
type PriceUnit string

const (
	PriceUnitFixed   PriceUnit = "fixed"
	PriceUnitHourly  PriceUnit = "hourly"
	PriceUnitDaily   PriceUnit = "daily"
	PriceUnitProject PriceUnit = "project"
)

func (u PriceUnit) Valid() bool {
	switch u {
	case PriceUnitFixed, PriceUnitHourly, PriceUnitDaily, PriceUnitProject:
		return true
	}
	return false
}

// DealDetail holds the attributes specific to time-limited deals.
type DealDetail struct {
	OriginalPrice     float64          `bson:"original_price" json:"original_price"`
	DealPrice         float64          `bson:"deal_price" json:"deal_price"`
	DiscountType      DealDiscountType `bson:"discount_type" json:"discount_type"`
	DiscountValue     float64          `bson:"discount_value" json:"discount_value"`
	QuantityAvailable *int             `bson:"quantity_available,omitempty" json:"quantity_available,omitempty"`
	QuantitySold      int              `bson:"quantity_sold" json:"quantity_sold"`
	ExpiryDate        time.Time        `bson:"expiry_date" json:"expiry_date"`
	TermsConditions   string           `bson:"terms_conditions,omitempty" json:"terms_conditions,omitempty"`
}

// CouponDetail holds the attributes specific to redeemable coupons.
type CouponDetail struct {
	BrandName       string             `bson:"brand_name" json:"brand_name"`
	StoreURL        string             `bson:"store_url,omitempty" json:"store_url,omitempty"`
	CouponCode      string             `bson:"coupon_code" json:"coupon_code"`
	DiscountType    CouponDiscountType `bson:"discount_type" json:"discount_type"`
	DiscountValue   *float64           `bson:"discount_value,omitempty" json:"discount_value,omitempty"`
	MinOrderValue   *float64           `bson:"min_order_value,omitempty" json:"min_order_value,omitempty"`
	MaxDiscount     *float64           `bson:"max_discount,omitempty" json:"max_discount,omitempty"`
	UsageLimit      *int               `bson:"usage_limit,omitempty" json:"usage_limit,omitempty"`
	UsedCount       int                `bson:"used_count" json:"used_count"`
	ExpiryDate      time.Time          `bson:"expiry_date" json:"expiry_date"`
	TermsConditions string             `bson:"terms_conditions,omitempty" json:"terms_conditions,omitempty"`
}

// ProductDetail holds the attributes specific to physical products.
type ProductDetail struct {
	Category       string           `bson:"category" json:"category"`
	Subcategory    string           `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Brand          string           `bson:"brand,omitempty" json:"brand,omitempty"`
	Condition      ProductCondition `bson:"condition" json:"condition"`
	Quantity       int              `bson:"quantity" json:"quantity"`
	IsNegotiable   bool             `bson:"is_negotiable" json:"is_negotiable"`
	WarrantyMonths *int             `bson:"warranty_months,omitempty" json:"warranty_months,omitempty"`
}

// ServiceDetail holds the attributes specific to offered services.
type ServiceDetail struct {
	ServiceType     string    `bson:"service_type" json:"service_type"`
	Subcategory     string    `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	MinPrice        float64   `bson:"min_price" json:"min_price"`
	MaxPrice        *float64  `bson:"max_price,omitempty" json:"max_price,omitempty"`
	PriceUnit       PriceUnit `bson:"price_unit" json:"price_unit"`
	ServiceArea     string    `bson:"service_area,omitempty" json:"service_area,omitempty"`
	IsRemote        bool      `bson:"is_remote" json:"is_remote"`
	ExperienceYears *int      `bson:"experience_years,omitempty" json:"experience_years,omitempty"`
	Certifications  string    `bson:"certifications,omitempty" json:"certifications,omitempty"`
}

// Detail is the tagged union of the four variant shapes. Exactly one pointer
// may be non-nil, and it must match the owning listing's type. Embedding the
// union in the listing document keeps listing+detail writes atomic.
type Detail struct {
	Deal    *DealDetail    `bson:"deal,omitempty" json:"deal,omitempty"`
	Coupon  *CouponDetail  `bson:"coupon,omitempty" json:"coupon,omitempty"`
	Product *ProductDetail `bson:"product,omitempty" json:"product,omitempty"`
	Service *ServiceDetail `bson:"service,omitempty" json:"service,omitempty"`
}

// Variant returns the type of the single populated variant. ok is false when
// zero or more than one variant is set.
func (d Detail) Variant() (ListingType, bool) {
	var typ ListingType
	count := 0
	if d.Deal != nil {
		typ = ListingTypeDeal
		count++
	}
	if d.Coupon != nil {
		typ = ListingTypeCoupon
		count++
	}
	if d.Product != nil {
		typ = ListingTypeProduct
		count++
	}
	if d.Service != nil {
		typ = ListingTypeService
		count++
	}
	if count != 1 {
		return "", false
	}
	return typ, true
}

// Validate checks that exactly the variant matching typ is populated and that
// its required fields are present and within their enums.
func (d Detail) Validate(typ ListingType) error {
	variant, ok := d.Variant()
	if !ok {
		return apperr.Validation("exactly one detail variant must be supplied")
	}
	if variant != typ {
		return apperr.Validation("detail variant %q does not match listing type %q", variant, typ)
	}
	switch typ {
	case ListingTypeDeal:
		return d.Deal.validate()
	case ListingTypeCoupon:
		return d.Coupon.validate()
	case ListingTypeProduct:
		return d.Product.validate()
	case ListingTypeService:
		return d.Service.validate()
	}
	return apperr.Validation("unknown listing type %q", typ)
}

func (d *DealDetail) validate() error {
	if d.OriginalPrice <= 0 {
		return apperr.Validation("deal: original_price is required")
	}
	if d.DealPrice <= 0 {
		return apperr.Validation("deal: deal_price is required")
	}
	if d.DealPrice > d.OriginalPrice {
		return apperr.Validation("deal: deal_price cannot exceed original_price")
	}
	if !d.DiscountType.Valid() {
		return apperr.Validation("deal: discount_type must be one of percent, flat, bogo, bundle")
	}
	if d.DiscountValue <= 0 {
		return apperr.Validation("deal: discount_value is required")
	}
	if d.ExpiryDate.IsZero() {
		return apperr.Validation("deal: expiry_date is required")
	}
	return nil
}

func (c *CouponDetail) validate() error {
	if c.BrandName == "" {
		return apperr.Validation("coupon: brand_name is required")
	}
	if c.CouponCode == "" {
		return apperr.Validation("coupon: coupon_code is required")
	}
	if !c.DiscountType.Valid() {
		return apperr.Validation("coupon: discount_type must be one of percent, flat, cashback, freebie")
	}
	if c.ExpiryDate.IsZero() {
		return apperr.Validation("coupon: expiry_date is required")
	}
	return nil
}

func (p *ProductDetail) validate() error {
	if p.Category == "" {
		return apperr.Validation("product: category is required")
	}
	if !p.Condition.Valid() {
		return apperr.Validation("product: condition must be one of new, used, refurbished")
	}
	if p.Quantity < 0 {
		return apperr.Validation("product: quantity cannot be negative")
	}
	return nil
}

func (s *ServiceDetail) validate() error {
	if s.ServiceType == "" {
		return apperr.Validation("service: service_type is required")
	}
	if s.MinPrice <= 0 {
		return apperr.Validation("service: min_price is required")
	}
	if s.MaxPrice != nil && *s.MaxPrice < s.MinPrice {
		return apperr.Validation("service: max_price cannot be below min_price")
	}
	if s.PriceUnit != "" && !s.PriceUnit.Valid() {
		return apperr.Validation("service: price_unit must be one of fixed, hourly, daily, project")
	}
	return nil
}
