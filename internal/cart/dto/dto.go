package dto

import "github.com/fekuna/omnipos-marketplace-service/internal/model"

type AddItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"` // Defaults to 1
}

type UpdateQuantityInput struct {
	Quantity int `json:"quantity"`
}

type CartView struct {
	Cart      *model.Cart        `json:"cart"`
	Items     []model.PricedLine `json:"items"`
	ItemCount int                `json:"item_count"`
	Subtotal  model.Fixed        `json:"subtotal"`
}

func NewCartView(cart *model.Cart, lines []model.PricedLine) *CartView {
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	if lines == nil {
		lines = []model.PricedLine{}
	}
	return &CartView{
		Cart:      cart,
		Items:     lines,
		ItemCount: count,
		Subtotal:  model.Subtotal(lines),
	}
}
