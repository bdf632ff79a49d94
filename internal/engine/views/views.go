// Package views derives everything the surface shows from a store snapshot.
// All functions are pure.
package views

import (
	"fmt"
	"math"

	"menu-advisor/internal/engine/store"
	"menu-advisor/internal/models"
)

// Stats are the header numbers for the catalog.
type Stats struct {
	Count          int
	AvgPrepMinutes int
}

// View is the full derived view of one state.
type View struct {
	Menu              []models.Dish
	Stats             Stats
	Available         int
	AvailabilityLabel string
	CountLabel        string
	Highlights        []string
	Categories        []string
}

// Compute recomputes the whole view from scratch.
func Compute(state store.State) View {
	stats := ComputeStats(state.Catalog)
	available := BudgetAvailability(state.Catalog, state.Filter.Budget)
	return View{
		Menu:              FilteredMenu(state.Catalog, state.Filter.Category),
		Stats:             stats,
		Available:         available,
		AvailabilityLabel: AvailabilityLabel(available),
		CountLabel:        DishCountLabel(stats.Count),
		Highlights:        Highlights(state.Catalog, state.Recommendations),
		Categories:        state.Catalog.Categories(),
	}
}

// FilteredMenu keeps catalog order. An unknown category yields an empty slice.
func FilteredMenu(catalog models.Catalog, category string) []models.Dish {
	category = models.NormalizeCategory(category)
	out := make([]models.Dish, 0, len(catalog))
	for _, d := range catalog {
		if category == models.CategoryAll || d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// ComputeStats averages preparation time over the whole catalog, counting a
// missing value as 0. An empty catalog averages to 0.
func ComputeStats(catalog models.Catalog) Stats {
	if len(catalog) == 0 {
		return Stats{}
	}
	sum := 0
	for _, d := range catalog {
		sum += d.PrepMinutesOrZero()
	}
	return Stats{
		Count:          len(catalog),
		AvgPrepMinutes: int(math.Round(float64(sum) / float64(len(catalog)))),
	}
}

// BudgetAvailability counts dishes priced at or under budget.
func BudgetAvailability(catalog models.Catalog, budget int) int {
	n := 0
	for _, d := range catalog {
		if d.Price <= float64(budget) {
			n++
		}
	}
	return n
}

// Highlights returns catalog names, in catalog order, that also appear in the
// recommendation set. Matching is exact.
func Highlights(catalog models.Catalog, set models.RecommendationSet) []string {
	if len(set) == 0 {
		return []string{}
	}
	recommended := make(map[string]struct{}, len(set))
	for _, d := range set {
		recommended[d.Name] = struct{}{}
	}
	out := []string{}
	seen := make(map[string]struct{}, len(set))
	for _, d := range catalog {
		if _, ok := recommended[d.Name]; !ok {
			continue
		}
		if _, dup := seen[d.Name]; dup {
			continue
		}
		seen[d.Name] = struct{}{}
		out = append(out, d.Name)
	}
	return out
}

func AvailabilityLabel(n int) string {
	if n == 1 {
		return "1 platillo disponible"
	}
	return fmt.Sprintf("%d platillos disponibles", n)
}

func ResultsCountLabel(n int) string {
	if n == 1 {
		return "1 platillo encontrado"
	}
	return fmt.Sprintf("%d platillos encontrados", n)
}

func DishCountLabel(n int) string {
	if n == 1 {
		return "1 platillo"
	}
	return fmt.Sprintf("%d platillos", n)
}
