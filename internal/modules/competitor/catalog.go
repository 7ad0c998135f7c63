package competitor

// fallbackRates is the static per-class table used when no live data exists.
var fallbackRates = map[Category][]Rate{
	CategoryEconomy: {
		{Provider: "Yelo", DailyRate: 110, Category: CategoryEconomy, VehicleName: "Hyundai Accent"},
		{Provider: "Key", DailyRate: 125, Category: CategoryEconomy, VehicleName: "Nissan Sunny"},
		{Provider: "Budget", DailyRate: 105, Category: CategoryEconomy, VehicleName: "Kia Pegas"},
		{Provider: "Lumi", DailyRate: 118, Category: CategoryEconomy, VehicleName: "Toyota Yaris"},
	},
	CategoryCompact: {
		{Provider: "Yelo", DailyRate: 130, Category: CategoryCompact, VehicleName: "Kia Cerato"},
		{Provider: "Key", DailyRate: 140, Category: CategoryCompact, VehicleName: "Hyundai Elantra"},
		{Provider: "Budget", DailyRate: 125, Category: CategoryCompact, VehicleName: "Toyota Corolla"},
		{Provider: "Lumi", DailyRate: 135, Category: CategoryCompact, VehicleName: "Mazda 3"},
	},
	CategorySedan: {
		{Provider: "Yelo", DailyRate: 165, Category: CategorySedan, VehicleName: "Toyota Camry"},
		{Provider: "Key", DailyRate: 180, Category: CategorySedan, VehicleName: "Hyundai Sonata"},
		{Provider: "Budget", DailyRate: 155, Category: CategorySedan, VehicleName: "Nissan Altima"},
		{Provider: "Lumi", DailyRate: 172, Category: CategorySedan, VehicleName: "Kia K5"},
	},
	CategorySUV: {
		{Provider: "Yelo", DailyRate: 260, Category: CategorySUV, VehicleName: "Toyota RAV4"},
		{Provider: "Key", DailyRate: 285, Category: CategorySUV, VehicleName: "Hyundai Tucson"},
		{Provider: "Budget", DailyRate: 245, Category: CategorySUV, VehicleName: "Nissan X-Trail"},
		{Provider: "Lumi", DailyRate: 270, Category: CategorySUV, VehicleName: "Kia Sportage"},
	},
	CategoryLuxury: {
		{Provider: "Yelo", DailyRate: 340, Category: CategoryLuxury, VehicleName: "Mercedes C200"},
		{Provider: "Key", DailyRate: 380, Category: CategoryLuxury, VehicleName: "BMW 520i"},
		{Provider: "Budget", DailyRate: 320, Category: CategoryLuxury, VehicleName: "Lexus ES 250"},
		{Provider: "Lumi", DailyRate: 360, Category: CategoryLuxury, VehicleName: "Genesis G80"},
	},
	CategoryMinivan: {
		{Provider: "Yelo", DailyRate: 230, Category: CategoryMinivan, VehicleName: "Kia Carnival"},
		{Provider: "Key", DailyRate: 250, Category: CategoryMinivan, VehicleName: "Hyundai Staria"},
		{Provider: "Budget", DailyRate: 215, Category: CategoryMinivan, VehicleName: "Toyota Innova"},
		{Provider: "Lumi", DailyRate: 240, Category: CategoryMinivan, VehicleName: "Chevrolet Express"},
	},
	CategoryTruck: {
		{Provider: "Yelo", DailyRate: 240, Category: CategoryTruck, VehicleName: "Toyota Hilux"},
		{Provider: "Key", DailyRate: 265, Category: CategoryTruck, VehicleName: "Nissan Navara"},
		{Provider: "Budget", DailyRate: 225, Category: CategoryTruck, VehicleName: "Isuzu D-Max"},
		{Provider: "Lumi", DailyRate: 250, Category: CategoryTruck, VehicleName: "Ford Ranger"},
	},
}

// Lookup returns the fallback rates for category, or the sedan bucket for
// anything unrecognized. It never returns an empty slice and never does I/O.
// The result is a fresh copy.
func Lookup(category string) []Rate {
	rates, ok := fallbackRates[NormalizeCategory(category)]
	if !ok {
		rates = fallbackRates[CategorySedan]
	}
	return CloneRates(rates)
}
