package upstream

import (
	"context"

	"servicecart/internal/cartsync"
	"servicecart/internal/domain/order"
)

var _ cartsync.BookingSubmitter = (*Client)(nil)

// orderDetails mirrors the booking endpoint's expected order payload. The
// total is carried both as a display string and a numeric value.
type orderDetails struct {
	TicketNumber string   `json:"ticketNumber"`
	TicketStatus string   `json:"ticketStatus"`
	Services     []string `json:"services"`
	TotalPrice   string   `json:"totalPrice"`
	Total        float64  `json:"total"`
	Username     string   `json:"username"`
	PhoneNumber  string   `json:"phoneNumber"`
	Address      string   `json:"address"`
}

type bookingRequest struct {
	OrderDetails orderDetails `json:"orderDetails"`
	PhoneNumber  string       `json:"phoneNumber"`
}

type bookingResponse struct {
	BookingID string `json:"bookingId"`
}

// SubmitBooking submits an assembled order. Any non-2xx response or
// transport failure is returned as an error and the caller keeps its cart;
// there is no retry, which keeps booking submission idempotent by
// construction.
func (c *Client) SubmitBooking(ctx context.Context, o order.Order, phone string) (string, error) {
	req := bookingRequest{
		OrderDetails: orderDetails{
			TicketNumber: o.TicketNumber,
			TicketStatus: o.TicketStatus,
			Services:     o.Services,
			TotalPrice:   o.DisplayTotal(),
			Total:        o.TotalPrice.InexactFloat64(),
			Username:     o.Username,
			PhoneNumber:  o.PhoneNumber,
			Address:      o.Address,
		},
		PhoneNumber: phone,
	}

	var out bookingResponse
	if err := c.postJSON(ctx, "submit booking", "/api/book-services", req, &out); err != nil {
		return "", err
	}
	return out.BookingID, nil
}
