package cartstore

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"servicecart/internal/domain/cart"
)

// encodeItems serializes cart items as a JSON array. Prices are encoded as
// decimal strings to survive round-trips without float drift.
func encodeItems(items []cart.Item) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		e.Str(it.Price.String())
		e.FieldStart("image")
		e.Str(it.Image)
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}

// decodeItems parses a serialized item list. Any malformed input yields an
// error; callers treat that as an empty slot.
func decodeItems(data []byte) ([]cart.Item, error) {
	var items []cart.Item

	d := jx.DecodeBytes(data)
	if err := d.Arr(func(d *jx.Decoder) error {
		var it cart.Item
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "id":
				v, err := d.Str()
				if err != nil {
					return err
				}
				it.ID = v
			case "name":
				v, err := d.Str()
				if err != nil {
					return err
				}
				it.Name = v
			case "price":
				v, err := d.Str()
				if err != nil {
					return err
				}
				price, err := decimal.NewFromString(v)
				if err != nil {
					return errors.Wrap(err, "parse price")
				}
				it.Price = price
			case "image":
				v, err := d.Str()
				if err != nil {
					return err
				}
				it.Image = v
			case "quantity":
				v, err := d.Int()
				if err != nil {
					return err
				}
				it.Quantity = v
			default:
				return d.Skip()
			}
			return nil
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart items")
	}

	return items, nil
}
