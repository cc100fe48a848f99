// internal/goedgepickt/types.go
package goedgepickt

import (
	"encoding/json"
	"time"
)

// Product is one product line inside an order, or a standalone product record
// from the products endpoint. The same shape covers both; the products
// endpoint additionally fills Supplier and Stock.
type Product struct {
	ProductUUID     string    `json:"productUuid"`
	ProductName     string    `json:"productName"`
	SKU             string    `json:"sku"`
	ProductQuantity int       `json:"productQuantity"`
	PickedQuantity  int       `json:"pickedQuantity"`
	Type            string    `json:"type"` // normal, parent, child
	ImageURL        string    `json:"picture"`
	SupplierSKU     string    `json:"supplierSku"`
	Supplier        *Supplier `json:"supplier"`
	Stock           *Stock    `json:"stock"`
	AllowBackorders bool      `json:"allowBackorders"`
}

// IsParent reports whether the line is a composite/bundle parent.
// Parents are never materialized; only their child lines are.
func (p *Product) IsParent() bool {
	return p.Type == "parent"
}

// ResolvedSupplierSKU returns the supplier SKU wherever the API put it.
// Newer payloads nest it under supplier, older ones keep it flat.
func (p *Product) ResolvedSupplierSKU() string {
	if p.Supplier != nil && p.Supplier.SupplierSKU != "" {
		return p.Supplier.SupplierSKU
	}
	return p.SupplierSKU
}

// Supplier carries the supplier block of a product record.
type Supplier struct {
	SupplierSKU string `json:"supplierSku"`
	Name        string `json:"name"`
}

// Stock carries live stock numbers for a product. FreeStock can go negative
// when more units are ordered than are on hand.
type Stock struct {
	FreeStock      int  `json:"freeStock"`
	TotalStock     int  `json:"totalStock"`
	ReservedStock  int  `json:"reservedStock"`
	UnlimitedStock bool `json:"unlimitedStock"`
}

// Customer is the nested customer block of an order.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Order is a source purchase order. Raw preserves the original payload bytes
// for the audit blob stored on each print job.
type Order struct {
	UUID              string    `json:"uuid"`
	OrderNumber       string    `json:"orderNumber"`
	ExternalDisplayID string    `json:"externalDisplayId"`
	Status            string    `json:"status"`
	Tags              []string  `json:"tags"`
	CustomerName      string    `json:"customerName"`
	Customer          *Customer `json:"customer"`
	Products          []Product `json:"products"`
	Notes             string    `json:"notes"`
	CreateDate        string    `json:"createDate"`

	Raw json.RawMessage `json:"-"`
}

// DisplayNumber returns the human-facing order number, preferring the shop's
// own display id over the internal order number, falling back to the uuid.
func (o *Order) DisplayNumber() string {
	if o.ExternalDisplayID != "" {
		return o.ExternalDisplayID
	}
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.UUID
}

// ResolvedCustomerName prefers the nested customer block over the flat field.
func (o *Order) ResolvedCustomerName() string {
	if o.Customer != nil && o.Customer.Name != "" {
		return o.Customer.Name
	}
	return o.CustomerName
}

// CreatedAt parses the order's creation timestamp. The API has used both
// RFC 3339 and "2006-01-02 15:04:05"; returns zero time when unparseable.
func (o *Order) CreatedAt() time.Time {
	if o.CreateDate == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, o.CreateDate); err == nil {
			return t
		}
	}
	return time.Time{}
}

// OrderFilter narrows a GetOrders listing.
type OrderFilter struct {
	Status      string // open/completed filter understood by the API
	OrderStatus string // the finer-grained orderstatus filter (e.g. backorder)
	Page        int    // 1-based page number
	PerPage     int    // page size; zero leaves the API default
}

// PageInfo is the pagination metadata of a listing response. Zero values mean
// the API did not declare them; callers then stop on the first empty page.
type PageInfo struct {
	CurrentPage int `json:"currentPage"`
	LastPage    int `json:"lastPage"`
	TotalItems  int `json:"totalItems"`
}
