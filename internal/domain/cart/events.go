package cart

// Event is a tagged cart transition consumed exhaustively by Reduce.
// The closed set of variants replaces the loose action payloads the cart
// would otherwise accept.
type Event interface {
	isEvent()
}

// AddItem inserts the item, or increments the existing entry's quantity when
// the ID is already present. A Quantity below 1 is normalized to 1.
type AddItem struct {
	Item     Item
	Quantity int
}

// RemoveItem deletes the entry with the given ID. Absent IDs are a no-op,
// not an error.
type RemoveItem struct {
	ID string
}

// SetQuantity sets an existing entry's quantity. A quantity below 1 behaves
// as RemoveItem; an absent ID is a no-op.
type SetQuantity struct {
	ID       string
	Quantity int
}

// Clear empties the cart unconditionally.
type Clear struct{}

// Replace swaps the whole collection for the supplied items, used when
// authoritative server state arrives. The caller is responsible for restoring
// the invariants first (New does both): Replace does not re-validate
// uniqueness or quantities.
type Replace struct {
	Items []Item
}

func (AddItem) isEvent()     {}
func (RemoveItem) isEvent()  {}
func (SetQuantity) isEvent() {}
func (Clear) isEvent()       {}
func (Replace) isEvent()     {}

// Reduce applies one event to the cart and returns the next state. It is a
// pure transition function: it never errors and never mutates its input.
// Invalid inputs are normalized rather than rejected, so any sequence of
// events preserves the cart invariants (unique IDs, quantity >= 1).
func Reduce(c Cart, ev Event) Cart {
	switch e := ev.(type) {
	case AddItem:
		qty := e.Quantity
		if qty < 1 {
			qty = 1
		}
		return c.upsert(e.Item, qty)
	case RemoveItem:
		return c.remove(e.ID)
	case SetQuantity:
		if e.Quantity < 1 {
			return c.remove(e.ID)
		}
		return c.setQuantity(e.ID, e.Quantity)
	case Clear:
		return Cart{}
	case Replace:
		return Cart{items: append([]Item(nil), e.Items...)}
	default:
		return c
	}
}
