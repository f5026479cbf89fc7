package report

import "context"

type itemKey struct{}

// ContextWithItem returns a copy of ctx carrying item as the current test item
func ContextWithItem(ctx context.Context, item Item) context.Context {
	return context.WithValue(ctx, itemKey{}, item)
}

// ItemFromContext returns the current test item, if any
func ItemFromContext(ctx context.Context) (Item, bool) {
	if ctx == nil {
		return Item{}, false
	}
	item, ok := ctx.Value(itemKey{}).(Item)
	return item, ok
}
