package dto

import (
	"time"

	"github.com/fekuna/omnipos-marketplace-service/internal/model"
)

type ProductSales struct {
	ProductID       string      `db:"product_id" json:"product_id"`
	ProductName     string      `db:"product_name" json:"product_name"`
	TotalQuantity   int64       `db:"total_quantity" json:"total_quantity"`
	TotalSales      model.Fixed `db:"total_sales" json:"total_sales"`
	TotalCommission model.Fixed `db:"total_commission" json:"total_commission"`
	NetEarnings     model.Fixed `db:"-" json:"net_earnings"`
	LastUpdated     time.Time   `db:"last_updated" json:"last_updated"`
}

type VendorStats struct {
	VendorID        string         `json:"vendor_id"`
	Products        []ProductSales `json:"products"`
	TotalQuantity   int64          `json:"total_quantity"`
	TotalSales      model.Fixed    `json:"total_sales"`
	TotalCommission model.Fixed    `json:"total_commission"`
	NetEarnings     model.Fixed    `json:"net_earnings"`
}

func NewVendorStats(vendorID string, rows []ProductSales) *VendorStats {
	s := &VendorStats{VendorID: vendorID, Products: make([]ProductSales, 0, len(rows))}
	for _, r := range rows {
		r.NetEarnings = r.TotalSales.Sub(r.TotalCommission)
		s.Products = append(s.Products, r)
		s.TotalQuantity += r.TotalQuantity
		s.TotalSales = s.TotalSales.Add(r.TotalSales)
		s.TotalCommission = s.TotalCommission.Add(r.TotalCommission)
	}
	s.NetEarnings = s.TotalSales.Sub(s.TotalCommission)
	return s
}

type VendorTotals struct {
	VendorID        string      `db:"vendor_id" json:"vendor_id"`
	TotalQuantity   int64       `db:"total_quantity" json:"total_quantity"`
	TotalSales      model.Fixed `db:"total_sales" json:"total_sales"`
	TotalCommission model.Fixed `db:"total_commission" json:"total_commission"`
}

type PlatformStats struct {
	Vendors         []VendorTotals `json:"vendors"`
	TotalQuantity   int64          `json:"total_quantity"`
	TotalSales      model.Fixed    `json:"total_sales"`
	TotalCommission model.Fixed    `json:"total_commission"`
}

func NewPlatformStats(rows []VendorTotals) *PlatformStats {
	s := &PlatformStats{Vendors: rows}
	if s.Vendors == nil {
		s.Vendors = []VendorTotals{}
	}
	for _, r := range rows {
		s.TotalQuantity += r.TotalQuantity
		s.TotalSales = s.TotalSales.Add(r.TotalSales)
		s.TotalCommission = s.TotalCommission.Add(r.TotalCommission)
	}
	return s
}
