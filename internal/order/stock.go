package order

// BookStock is the catalog snapshot PlanStockAdjustment works from.
type BookStock struct {
	Nombre string
	Stock  int
}

// PlanStockAdjustment decides, per line item, whether its stock
// decrement can be applied. Items whose requested quantity exceeds the
// current stock are reported as shortfalls and skipped; the remaining
// items are still decremented. A financial reconciliation is never
// blocked on an inventory disagreement.
func PlanStockAdjustment(items []Item, stocks map[int64]BookStock) (map[int64]int, []Shortfall) {
	decrements := map[int64]int{}
	var shortfalls []Shortfall
	for _, it := range items {
		bs, ok := stocks[it.LibroID]
		if !ok {
			shortfalls = append(shortfalls, Shortfall{
				LibroID:    it.LibroID,
				Nombre:     "libro no encontrado",
				Solicitado: it.Cantidad,
			})
			continue
		}
		remaining := bs.Stock - decrements[it.LibroID]
		if remaining < it.Cantidad {
			shortfalls = append(shortfalls, Shortfall{
				LibroID:    it.LibroID,
				Nombre:     bs.Nombre,
				Stock:      remaining,
				Solicitado: it.Cantidad,
			})
			continue
		}
		decrements[it.LibroID] += it.Cantidad
	}
	return decrements, shortfalls
}
