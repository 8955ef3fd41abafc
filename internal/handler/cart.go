package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"servicecart/internal/cartsync"
	"servicecart/internal/domain/cart"
	"servicecart/internal/domain/catalog"
	"servicecart/internal/domain/coupon"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	cs, ok := h.session(w, r)
	if !ok {
		return
	}
	writeCart(w, http.StatusOK, cs.ctrl.Cart(), cs.ctrl.Discount())
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	cs, ok := h.session(w, r)
	if !ok {
		return
	}

	var serviceID string
	err := decodeBody(r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key == "serviceId" {
				v, err := d.Str()
				serviceID = v
				return err
			}
			return d.Skip()
		})
	})
	if err != nil || serviceID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "serviceId is required")
		return
	}

	svc, err := h.catalog.GetByID(r.Context(), serviceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "unknown service")
			return
		}
		logRequestError(r, "catalog lookup failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not load service")
		return
	}

	item := cart.Item{
		ID:    svc.ID,
		Name:  svc.Name,
		Price: svc.Price,
		Image: svc.Image,
	}
	if err := cs.ctrl.AddFromCatalog(r.Context(), item); err != nil {
		if errors.Is(err, cartsync.ErrAlreadyInCart) {
			writeError(w, http.StatusConflict, "already_in_cart", "service is already in the cart")
			return
		}
		logRequestError(r, "cart add failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not add service")
		return
	}

	writeCart(w, http.StatusCreated, cs.ctrl.Cart(), cs.ctrl.Discount())
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	cs, ok := h.session(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	var (
		quantity int64
		seen     bool
	)
	err := decodeBody(r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key == "quantity" {
				v, err := d.Int64()
				quantity = v
				seen = true
				return err
			}
			return d.Skip()
		})
	})
	if err != nil || !seen {
		writeError(w, http.StatusBadRequest, "bad_request", "quantity is required")
		return
	}
	if !cs.ctrl.Cart().Contains(id) {
		writeError(w, http.StatusNotFound, "not_found", "service is not in the cart")
		return
	}

	cs.ctrl.SetQuantity(r.Context(), id, int(quantity))
	writeCart(w, http.StatusOK, cs.ctrl.Cart(), cs.ctrl.Discount())
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	cs, ok := h.session(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if !cs.ctrl.Cart().Contains(id) {
		writeError(w, http.StatusNotFound, "not_found", "service is not in the cart")
		return
	}

	cs.ctrl.Remove(r.Context(), id)
	writeCart(w, http.StatusOK, cs.ctrl.Cart(), cs.ctrl.Discount())
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	cs, ok := h.session(w, r)
	if !ok {
		return
	}
	cs.ctrl.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	cs, ok := h.session(w, r)
	if !ok {
		return
	}

	var code string
	err := decodeBody(r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key == "code" {
				v, err := d.Str()
				code = v
				return err
			}
			return d.Skip()
		})
	})
	if err != nil || code == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "code is required")
		return
	}

	disc, err := cs.ctrl.ApplyCoupon(r.Context(), code)
	if err != nil {
		if errors.Is(err, coupon.ErrInvalidCoupon) {
			writeError(w, http.StatusUnprocessableEntity, "invalid_coupon", "coupon code is not valid")
			return
		}
		logRequestError(r, "apply coupon failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not apply coupon")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("discount", func(e *jx.Encoder) { e.Str(disc.Amount.StringFixed(2)) })
			e.Field("description", func(e *jx.Encoder) { e.Str(disc.Description) })
			e.Field("cart", func(e *jx.Encoder) {
				encodeCart(e, cs.ctrl.Cart(), cs.ctrl.Discount())
			})
		})
	})
}

func writeCart(w http.ResponseWriter, status int, c cart.Cart, discount decimal.Decimal) {
	writeJSON(w, status, func(e *jx.Encoder) {
		encodeCart(e, c, discount)
	})
}

func encodeCart(e *jx.Encoder, c cart.Cart, discount decimal.Decimal) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.ArrStart()
			for _, it := range c.Items() {
				encodeCartItem(e, it)
			}
			e.ArrEnd()
		})
		e.Field("totalItems", func(e *jx.Encoder) { e.Int(c.TotalItems()) })
		e.Field("subtotal", func(e *jx.Encoder) { e.Str(c.Subtotal().StringFixed(2)) })
		e.Field("discount", func(e *jx.Encoder) { e.Str(discount.StringFixed(2)) })
		e.Field("total", func(e *jx.Encoder) { e.Str(c.Total(discount).StringFixed(2)) })
	})
}

func encodeCartItem(e *jx.Encoder, it cart.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Str(it.Price.StringFixed(2)) })
		e.Field("image", func(e *jx.Encoder) { e.Str(it.Image) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		lineTotal := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		e.Field("lineTotal", func(e *jx.Encoder) { e.Str(lineTotal.StringFixed(2)) })
	})
}
