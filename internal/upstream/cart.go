package upstream

import (
	"context"

	"github.com/shopspring/decimal"

	"servicecart/internal/cartsync"
	"servicecart/internal/domain/cart"
)

var _ cartsync.ServerCart = (*Client)(nil)

// cartItemRecord is the wire shape of a server-side cart entry.
type cartItemRecord struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

type cartResponse struct {
	Items []cartItemRecord `json:"items"`
}

// FetchCart retrieves the authoritative server-side cart for the session
// token. The result feeds a Replace; de-duplication is the caller's concern.
func (c *Client) FetchCart(ctx context.Context, token string) ([]cart.Item, error) {
	var out cartResponse
	if err := c.getJSON(ctx, "fetch cart", "/api/cart", token, &out); err != nil {
		return nil, err
	}

	items := make([]cart.Item, len(out.Items))
	for i, rec := range out.Items {
		items[i] = cart.Item{
			ID:       rec.ID,
			Name:     rec.Name,
			Price:    rec.Price,
			Image:    rec.Image,
			Quantity: rec.Quantity,
		}
	}
	return items, nil
}
