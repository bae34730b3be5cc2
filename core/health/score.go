package health

import (
	"strings"

	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/order"
)

// Points
const (
	pointsHigh    = 10
	pointsMedium  = 5
	pointsLow     = 2
	pointsNothing = 0
)

var (
	nutritiousKeywords = []string{
		"fruit", "salad", "vegetable", "grain", "protein", "yogurt", "nuts", "beans", "lentils",
		"spinach", "broccoli", "carrot", "apple", "banana", "orange", "kale", "quinoa", "tofu", "chicken",
	}
	unhealthyKeywords = []string{"fried", "candy", "soda", "donut", "pastry", "burger", "fries"}

	healthyBenefits = []string{"healthy", "nutrition", "vitamin", "fiber", "protein"}
	energyBenefits  = []string{"energy", "refreshing"}
)

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// ItemPoints scores one order line. Quantity does not count.
func ItemPoints(name string, menuItems []menu.Item) int {
	lname := strings.ToLower(strings.TrimSpace(name))
	switch {
	case containsAny(lname, unhealthyKeywords):
		return pointsNothing
	case containsAny(lname, nutritiousKeywords):
		return pointsHigh
	}

	item, ok := menu.Lookup(menuItems, name)
	if !ok {
		return pointsLow
	}
	benefits := strings.ToLower(item.Benefits)
	switch {
	case containsAny(benefits, healthyBenefits):
		return pointsHigh
	case containsAny(benefits, energyBenefits):
		return pointsMedium
	}
	return pointsLow
}

// Score adds up the points of every order line.
func Score(items []order.Item, menuItems []menu.Item) int {
	total := 0
	for _, it := range items {
		total += ItemPoints(it.Name, menuItems)
	}
	return total
}
