package taxonomy

import "strings"

// Suggest returns a subcategory guess for a free-text item name.
// Case-insensitive: exact match first, then substring match.
// Falls back to SubcategoryOther when nothing matches.
func Suggest(itemName string) Subcategory {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return SubcategoryOther
	}

	if sub, ok := exactMatch[name]; ok {
		return sub
	}

	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.subcategory
		}
	}

	return SubcategoryOther
}

var exactMatch = map[string]Subcategory{
	// Vegetables
	"tomato":   SubcategoryVegetable,
	"tomatoes": SubcategoryVegetable,
	"potato":   SubcategoryVegetable,
	"potatoes": SubcategoryVegetable,
	"onion":    SubcategoryVegetable,
	"onions":   SubcategoryVegetable,
	"garlic":   SubcategoryVegetable,
	"lettuce":  SubcategoryVegetable,
	"spinach":  SubcategoryVegetable,
	"carrots":  SubcategoryVegetable,
	"celery":   SubcategoryVegetable,
	"broccoli": SubcategoryVegetable,
	"peppers":  SubcategoryVegetable,
	"zucchini": SubcategoryVegetable,

	// Fruit
	"apple":        SubcategoryFruit,
	"apples":       SubcategoryFruit,
	"banana":       SubcategoryFruit,
	"bananas":      SubcategoryFruit,
	"orange":       SubcategoryFruit,
	"oranges":      SubcategoryFruit,
	"lemon":        SubcategoryFruit,
	"lemons":       SubcategoryFruit,
	"grapes":       SubcategoryFruit,
	"strawberries": SubcategoryFruit,
	"blueberries":  SubcategoryFruit,

	// Dairy
	"milk":    SubcategoryDairy,
	"butter":  SubcategoryDairy,
	"cheese":  SubcategoryDairy,
	"yogurt":  SubcategoryDairy,
	"eggs":    SubcategoryDairy,
	"cream":   SubcategoryDairy,

	// Meat
	"chicken": SubcategoryMeat,
	"beef":    SubcategoryMeat,
	"pork":    SubcategoryMeat,
	"bacon":   SubcategoryMeat,
	"salmon":  SubcategoryMeat,
	"shrimp":  SubcategoryMeat,

	// Grains
	"bread":     SubcategoryGrain,
	"rice":      SubcategoryGrain,
	"pasta":     SubcategoryGrain,
	"oats":      SubcategoryGrain,
	"cereal":    SubcategoryGrain,
	"tortillas": SubcategoryGrain,

	// Baking
	"flour": SubcategoryBaking,
	"sugar": SubcategoryBaking,
	"yeast": SubcategoryBaking,

	// Spices
	"salt":     SubcategorySpice,
	"pepper":   SubcategorySpice,
	"cinnamon": SubcategorySpice,
	"cumin":    SubcategorySpice,
	"oregano":  SubcategorySpice,
	"paprika":  SubcategorySpice,

	// Beverages
	"coffee": SubcategoryBeverage,
	"tea":    SubcategoryBeverage,
	"juice":  SubcategoryBeverage,
	"soda":   SubcategoryBeverage,

	// Household
	"bleach":       SubcategoryCleaning,
	"dish soap":    SubcategoryCleaning,
	"sponges":      SubcategoryCleaning,
	"paper towels": SubcategoryPaper,
	"toilet paper": SubcategoryPaper,
	"napkins":      SubcategoryPaper,
	"detergent":    SubcategoryLaundry,

	// Personal care
	"shampoo":    SubcategoryToiletry,
	"toothpaste": SubcategoryToiletry,
	"soap":       SubcategoryToiletry,
	"deodorant":  SubcategoryToiletry,
	"aspirin":    SubcategoryMedicine,
	"ibuprofen":  SubcategoryMedicine,
}

// substringMatches are checked in order; keep longer/more specific keywords
// before shorter ones so "dish soap" never lands on "soap".
var substringMatches = []struct {
	keyword     string
	subcategory Subcategory
}{
	{"paper towel", SubcategoryPaper},
	{"toilet paper", SubcategoryPaper},
	{"dish soap", SubcategoryCleaning},
	{"laundry", SubcategoryLaundry},
	{"cleaner", SubcategoryCleaning},
	{"wipes", SubcategoryCleaning},
	{"canned", SubcategoryCanned},
	{"sauce", SubcategoryCanned},
	{"soup", SubcategoryCanned},
	{"beans", SubcategoryCanned},
	{"chips", SubcategorySnack},
	{"crackers", SubcategorySnack},
	{"cookies", SubcategorySnack},
	{"nuts", SubcategorySnack},
	{"juice", SubcategoryBeverage},
	{"water", SubcategoryBeverage},
	{"milk", SubcategoryDairy},
	{"cheese", SubcategoryDairy},
	{"yogurt", SubcategoryDairy},
	{"chicken", SubcategoryMeat},
	{"beef", SubcategoryMeat},
	{"fish", SubcategoryMeat},
	{"bread", SubcategoryGrain},
	{"rice", SubcategoryGrain},
	{"pasta", SubcategoryGrain},
	{"flour", SubcategoryBaking},
	{"sugar", SubcategoryBaking},
	{"spice", SubcategorySpice},
	{"vitamin", SubcategoryMedicine},
	{"soap", SubcategoryToiletry},
	{"lotion", SubcategoryToiletry},
	{"berr", SubcategoryFruit},
	{"apple", SubcategoryFruit},
}
