package usecase

import (
	"sort"

	"github.com/clearpath/warehouse-flow/internal/model"
)

// lotChange is the effect of a depletion on one lot.
type lotChange struct {
	lot       model.InventoryLot
	taken     int
	remaining int
}

func (c lotChange) deleted() bool {
	return c.remaining == 0
}

// planDepletion walks lots oldest first and takes min(lot, remaining) from
// each until amount is covered or lots run out. It does not touch storage.
func planDepletion(lots []model.InventoryLot, amount int) ([]lotChange, int) {
	ordered := make([]model.InventoryLot, 0, len(lots))
	for _, l := range lots {
		if l.Quantity > 0 {
			ordered = append(ordered, l)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].ReceivedDate.Equal(ordered[j].ReceivedDate) {
			return ordered[i].ReceivedDate.Before(ordered[j].ReceivedDate)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	var changes []lotChange
	consumed := 0
	for _, l := range ordered {
		remaining := amount - consumed
		if remaining <= 0 {
			break
		}

		take := min(l.Quantity, remaining)
		changes = append(changes, lotChange{lot: l, taken: take, remaining: l.Quantity - take})
		consumed += take
	}

	return changes, consumed
}
