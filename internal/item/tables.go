package item

// Default category tables. These mirror the static game data: blocked items
// are tradeables excluded from tracking outright (currency, bonds, clue
// scrolls), flatpacks and armour-set containers are togglable via profile
// config, and poison variants tie poisoned weapons to their reagent tier.

var blockedItems = []ID{
	995,   // Coins
	13190, // Old school bond
	13204, // Platinum token
	2677,  // Clue scroll (easy)
	2801,  // Clue scroll (medium)
	2722,  // Clue scroll (hard)
	12073, // Clue scroll (elite)
	19835, // Clue scroll (master)
	11941, // Looting bag
	12791, // Rune pouch
}

var flatpackItems = []ID{
	8498, // Crude wooden chair
	8500, // Wooden chair
	8502, // Rocking chair
	8504, // Oak chair
	8506, // Oak armchair
	8508, // Teak armchair
	8510, // Mahogany armchair
	8512, // Bookcase
	8514, // Oak bookcase
	8516, // Mahogany bookcase
}

var itemSetItems = []ID{
	12960, // Guthan's armour set
	12964, // Verac's armour set
	12968, // Dharok's armour set
	12972, // Torag's armour set
	12976, // Ahrim's armour set
	12980, // Karil's armour set
	13024, // Dragonstone armour set
	12873, // Ahrim's robes set (broken)
}

// Poison reagent tiers.
const (
	WeaponPoison   ID = 187
	WeaponPoisonP  ID = 5937
	WeaponPoisonPP ID = 5940
)

var poisonVariants = map[ID]PoisonVariant{
	// Iron dagger
	1219: {Base: 1203, Reagent: WeaponPoison},
	5668: {Base: 1203, Reagent: WeaponPoisonP},
	5686: {Base: 1203, Reagent: WeaponPoisonPP},
	// Rune dagger
	1229: {Base: 1213, Reagent: WeaponPoison},
	5678: {Base: 1213, Reagent: WeaponPoisonP},
	5696: {Base: 1213, Reagent: WeaponPoisonPP},
	// Dragon dagger
	1231: {Base: 1215, Reagent: WeaponPoison},
	5680: {Base: 1215, Reagent: WeaponPoisonP},
	5698: {Base: 1215, Reagent: WeaponPoisonPP},
	// Rune spear
	1263: {Base: 1247, Reagent: WeaponPoison},
	5734: {Base: 1247, Reagent: WeaponPoisonP},
	5736: {Base: 1247, Reagent: WeaponPoisonPP},
}
