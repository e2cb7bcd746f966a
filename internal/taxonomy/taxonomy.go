// Package taxonomy defines the closed classification for inventory items.
// Subcategories are the only stored classification; the category (and
// everything derived from it, like staleness thresholds) follows from the
// subcategory.
package taxonomy

import "time"

type Subcategory string

const (
	SubcategoryVegetable Subcategory = "vegetable"
	SubcategoryFruit     Subcategory = "fruit"
	SubcategoryDairy     Subcategory = "dairy"
	SubcategoryMeat      Subcategory = "meat"
	SubcategoryDeli      Subcategory = "deli"
	SubcategoryGrain     Subcategory = "grain"
	SubcategoryBaking    Subcategory = "baking"
	SubcategoryCanned    Subcategory = "canned"
	SubcategorySpice     Subcategory = "spice"
	SubcategorySnack     Subcategory = "snack"
	SubcategoryBeverage  Subcategory = "beverage"
	SubcategoryCleaning  Subcategory = "cleaning"
	SubcategoryPaper     Subcategory = "paper"
	SubcategoryLaundry   Subcategory = "laundry"
	SubcategoryToiletry  Subcategory = "toiletry"
	SubcategoryMedicine  Subcategory = "medicine"
	SubcategoryOther     Subcategory = "other"
)

type Category string

const (
	CategoryFridge    Category = "fridge"
	CategoryPantry    Category = "pantry"
	CategoryHousehold Category = "household"
	CategoryPersonal  Category = "personal"
)

var subcategoryCategories = map[Subcategory]Category{
	SubcategoryVegetable: CategoryFridge,
	SubcategoryFruit:     CategoryFridge,
	SubcategoryDairy:     CategoryFridge,
	SubcategoryMeat:      CategoryFridge,
	SubcategoryDeli:      CategoryFridge,
	SubcategoryGrain:     CategoryPantry,
	SubcategoryBaking:    CategoryPantry,
	SubcategoryCanned:    CategoryPantry,
	SubcategorySpice:     CategoryPantry,
	SubcategorySnack:     CategoryPantry,
	SubcategoryBeverage:  CategoryPantry,
	SubcategoryOther:     CategoryPantry,
	SubcategoryCleaning:  CategoryHousehold,
	SubcategoryPaper:     CategoryHousehold,
	SubcategoryLaundry:   CategoryHousehold,
	SubcategoryToiletry:  CategoryPersonal,
	SubcategoryMedicine:  CategoryPersonal,
}

// subcategoryOrder fixes the order Subcategories returns, grouped by
// category the way a store walk-through would encounter them.
var subcategoryOrder = []Subcategory{
	SubcategoryVegetable, SubcategoryFruit, SubcategoryDairy, SubcategoryMeat, SubcategoryDeli,
	SubcategoryGrain, SubcategoryBaking, SubcategoryCanned, SubcategorySpice, SubcategorySnack,
	SubcategoryBeverage, SubcategoryOther,
	SubcategoryCleaning, SubcategoryPaper, SubcategoryLaundry,
	SubcategoryToiletry, SubcategoryMedicine,
}

// Valid reports whether sub is part of the closed taxonomy.
func Valid(sub Subcategory) bool {
	_, ok := subcategoryCategories[sub]
	return ok
}

// CategoryOf derives the category for a subcategory. Unknown subcategories
// map to the pantry so derived analytics stay total.
func CategoryOf(sub Subcategory) Category {
	if cat, ok := subcategoryCategories[sub]; ok {
		return cat
	}
	return CategoryPantry
}

// Subcategories returns all valid subcategories in display order.
func Subcategories() []Subcategory {
	out := make([]Subcategory, len(subcategoryOrder))
	copy(out, subcategoryOrder)
	return out
}

// Staleness thresholds per category. Fridge goods turn over fast; everything
// else gets the slow default.
const (
	fridgeStaleAfter  = 14 * 24 * time.Hour
	defaultStaleAfter = 60 * 24 * time.Hour
)

// StaleThreshold returns the age at which an item of the given category is
// considered expired.
func StaleThreshold(cat Category) time.Duration {
	if cat == CategoryFridge {
		return fridgeStaleAfter
	}
	return defaultStaleAfter
}

// Kitchen reports whether the category holds food. Expired food outranks
// expired household goods in recommendations.
func Kitchen(cat Category) bool {
	return cat == CategoryFridge || cat == CategoryPantry
}
