package enums

// CartOperation names a cart mutation for logs and metrics labels.
type CartOperation string

const (
	CartOperationGet        CartOperation = "get_cart"
	CartOperationAddItem    CartOperation = "add_item"
	CartOperationRemoveItem CartOperation = "remove_item"
	CartOperationUpdateItem CartOperation = "update_item"
	CartOperationClear      CartOperation = "clear_cart"
)

// String implements fmt.Stringer.
func (c CartOperation) String() string {
	return string(c)
}
