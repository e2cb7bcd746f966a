package taxonomy

import (
	"testing"
	"time"
)

func TestEverySubcategoryHasACategory(t *testing.T) {
	for _, sub := range Subcategories() {
		if !Valid(sub) {
			t.Errorf("Subcategories() returned invalid subcategory %q", sub)
		}
		cat := CategoryOf(sub)
		switch cat {
		case CategoryFridge, CategoryPantry, CategoryHousehold, CategoryPersonal:
		default:
			t.Errorf("CategoryOf(%q) = %q, not a known category", sub, cat)
		}
	}
}

func TestCategoryOfUnknownDefaultsToPantry(t *testing.T) {
	if got := CategoryOf("flamingo"); got != CategoryPantry {
		t.Errorf("CategoryOf(unknown) = %q, want %q", got, CategoryPantry)
	}
	if Valid("flamingo") {
		t.Error("Valid(unknown) = true, want false")
	}
}

func TestStaleThreshold(t *testing.T) {
	if got := StaleThreshold(CategoryFridge); got != 14*24*time.Hour {
		t.Errorf("fridge threshold = %v, want 14 days", got)
	}
	for _, cat := range []Category{CategoryPantry, CategoryHousehold, CategoryPersonal} {
		if got := StaleThreshold(cat); got != 60*24*time.Hour {
			t.Errorf("threshold for %q = %v, want 60 days", cat, got)
		}
	}
}

func TestKitchen(t *testing.T) {
	if !Kitchen(CategoryFridge) || !Kitchen(CategoryPantry) {
		t.Error("fridge and pantry should count as kitchen")
	}
	if Kitchen(CategoryHousehold) || Kitchen(CategoryPersonal) {
		t.Error("household and personal should not count as kitchen")
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		name string
		want Subcategory
	}{
		{"Milk", SubcategoryDairy},
		{"  bananas  ", SubcategoryFruit},
		{"whole wheat bread", SubcategoryGrain},
		{"dish soap", SubcategoryCleaning},
		{"bar soap", SubcategoryToiletry},
		{"paper towels", SubcategoryPaper},
		{"black beans", SubcategoryCanned},
		{"mystery gadget", SubcategoryOther},
		{"", SubcategoryOther},
	}
	for _, tt := range tests {
		if got := Suggest(tt.name); got != tt.want {
			t.Errorf("Suggest(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
