package health

import (
	"math"
	"strings"
	"time"

	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/order"
)

const dailyCalories = 2000

var healthyChoiceBenefits = append([]string{"salad", "fruit"}, healthyBenefits...)

// NutritionStats sums up what a user ate today.
type NutritionStats struct {
	UserID           string `json:"userId"`
	Date             string `json:"date"`
	TotalCalories    int    `json:"totalCalories"`
	ItemsOrdered     int    `json:"itemsOrdered"`
	HealthyChoices   int    `json:"healthyChoices"`
	NutritionPercent int    `json:"nutritionPercent"`
	OrderCount       int    `json:"orderCount"`
	NutritionPoints  int    `json:"nutritionPoints"`
}

// Calories estimates the calories of one serving of a menu item.
func Calories(item menu.Item) int {
	name := strings.ToLower(item.Name)
	benefits := strings.ToLower(item.Benefits)
	switch {
	case strings.Contains(benefits, "fruit"), strings.Contains(benefits, "salad"):
		return 150
	case strings.Contains(name, "pizza"):
		return 300
	case strings.Contains(name, "burger"):
		return 250
	case strings.Contains(name, "roll"):
		return 200
	case strings.Contains(benefits, "juice"), strings.Contains(benefits, "drink"):
		return 120
	case strings.Contains(name, "chai"), strings.Contains(name, "coffee"):
		return 80
	}
	return 150
}

// computeNutrition looks at the orders of userID placed on the day of `now`.
// Lines not found on the menu count as ordered but bring no calories.
func computeNutrition(userID string, orders []order.Order, menuItems []menu.Item, now time.Time) NutritionStats {
	ns := NutritionStats{UserID: userID, Date: now.Format("2006-01-02")}
	y, m, d := now.Date()
	for _, o := range orders {
		if o.UserID != userID || o.CreatedAt.IsZero() {
			continue
		}
		if oy, om, od := o.CreatedAt.Date(); oy != y || om != m || od != d {
			continue
		}
		ns.OrderCount++
		for _, it := range o.Items {
			ns.ItemsOrdered++
			item, ok := menu.Lookup(menuItems, it.Name)
			if !ok {
				continue
			}
			ns.TotalCalories += Calories(item)
			if containsAny(strings.ToLower(item.Benefits), healthyChoiceBenefits) {
				ns.HealthyChoices++
			}
		}
	}
	pct := int(math.Round(float64(ns.TotalCalories) / dailyCalories * 100))
	if pct > 100 {
		pct = 100
	}
	ns.NutritionPercent = pct
	return ns
}
