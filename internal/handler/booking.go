package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"servicecart/internal/domain/order"
	"servicecart/internal/upstream"
)

func (h *Handler) bookServices(w http.ResponseWriter, r *http.Request) {
	cs, ok := h.session(w, r)
	if !ok {
		return
	}

	var addr order.Address
	err := decodeBody(r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			var v string
			var err error
			switch key {
			case "building":
				v, err = d.Str()
				addr.Building = v
			case "street":
				v, err = d.Str()
				addr.Street = v
			case "city":
				v, err = d.Str()
				addr.City = v
			case "postalCode":
				v, err = d.Str()
				addr.PostalCode = v
			default:
				return d.Skip()
			}
			return err
		})
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	placed, bookingID, err := cs.ctrl.Checkout(r.Context(), addr)
	if err != nil {
		var incomplete *order.IncompleteAddressError
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			writeError(w, http.StatusUnprocessableEntity, "empty_cart", "cannot book an empty cart")
		case errors.As(err, &incomplete):
			writeError(w, http.StatusUnprocessableEntity, "incomplete_address",
				"missing address fields: "+strings.Join(incomplete.Missing, ", "))
		default:
			logRequestError(r, "booking failed", err)
			var se *upstream.StatusError
			if errors.As(err, &se) {
				writeError(w, http.StatusBadGateway, "upstream_error", "booking service rejected the order")
				return
			}
			writeError(w, http.StatusBadGateway, "upstream_error", "could not submit booking")
		}
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("bookingId", func(e *jx.Encoder) { e.Str(bookingID) })
			e.Field("order", func(e *jx.Encoder) { encodeOrder(e, placed) })
		})
	})
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("ticketNumber", func(e *jx.Encoder) { e.Str(o.TicketNumber) })
		e.Field("ticketStatus", func(e *jx.Encoder) { e.Str(o.TicketStatus) })
		e.Field("services", func(e *jx.Encoder) {
			e.ArrStart()
			for _, name := range o.Services {
				e.Str(name)
			}
			e.ArrEnd()
		})
		e.Field("totalPrice", func(e *jx.Encoder) { e.Str(o.DisplayTotal()) })
		e.Field("username", func(e *jx.Encoder) { e.Str(o.Username) })
		e.Field("phoneNumber", func(e *jx.Encoder) { e.Str(o.PhoneNumber) })
		e.Field("address", func(e *jx.Encoder) { e.Str(o.Address) })
	})
}
