package catalog

import "fmt"

// Kind discriminates the item variant. Matching code switches on values
// exposed by Item methods, never on Kind directly.
type Kind string

const (
	// KindProduct is a shelf item with a listed price.
	KindProduct Kind = "product"

	// KindCoupon is a discount voucher. Scanning a coupon alone never
	// changes the running total; its value only feeds rule amounts.
	KindCoupon Kind = "coupon"
)

// Item is an immutable catalog entry, either a product or a coupon.
//
// The zero Item is not valid; construct with NewProduct or NewCoupon.
type Item struct {
	id    string
	kind  Kind
	value float64 // listed price (product) or discount fraction (coupon)
}

// NewProduct creates a product item with the given listed price.
func NewProduct(id string, price float64) Item {
	return Item{id: id, kind: KindProduct, value: price}
}

// NewCoupon creates a coupon item with the given discount fraction.
// The fraction is expected to be in [0, 1]; the scheme loader enforces it.
func NewCoupon(id string, fraction float64) Item {
	return Item{id: id, kind: KindCoupon, value: fraction}
}

// ID returns the item's unique identifier within its scheme.
func (i Item) ID() string { return i.id }

// Kind returns the variant discriminator.
func (i Item) Kind() Kind { return i.kind }

// IntrinsicValue is the amount the item contributes to the running total
// purely by being scanned: the listed price for products, 0 for coupons.
func (i Item) IntrinsicValue() float64 {
	if i.kind == KindCoupon {
		return 0
	}
	return i.value
}

// NominalValue is the item's display/substitution value: the listed price
// for products, the discount fraction for coupons. It is never added
// directly to a total.
func (i Item) NominalValue() float64 { return i.value }

// String implements fmt.Stringer for diagnostics.
func (i Item) String() string {
	return fmt.Sprintf("%s %s %g", i.kind, i.id, i.value)
}
