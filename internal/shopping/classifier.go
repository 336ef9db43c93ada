package shopping

import "strings"

const (
	CategoryVegetables = "Vegetables"
	CategoryMeatFish   = "Meat & Fish"
	CategoryDairy      = "Dairy"
	CategoryPantry     = "Pantry"
	CategoryCondiments = "Condiments & Sauces"
	CategoryOther      = "Other"
)

type category struct {
	label    string
	keywords []string
}

// dictionary is checked in order and the first category with a matching
// keyword wins. A mention that names keywords from two categories therefore
// lands in the earlier one ("huile" is Pantry, never Condiments).
var dictionary = []category{
	{
		label: CategoryVegetables,
		keywords: []string{
			"tomate", "carotte", "oignon", "ail", "poivron", "courgette", "aubergine",
			"salade", "laitue", "épinard", "chou", "brocoli", "champignon", "poireau",
			"céleri", "concombre", "radis", "navet", "betterave", "courge", "potiron",
			"citrouille", "haricot vert", "petit pois", "fève", "artichaut", "asperge",
			"endive", "fenouil", "patate douce", "pomme de terre",
		},
	},
	{
		label: CategoryMeatFish,
		keywords: []string{
			"viande", "poulet", "bœuf", "boeuf", "porc", "agneau", "veau", "canard",
			"dinde", "lapin", "saucisse", "jambon", "bacon", "lard", "poisson", "saumon",
			"thon", "cabillaud", "morue", "sole", "truite", "bar", "daurade", "maquereau",
			"sardine", "hareng", "anchois", "crevette", "crabe", "homard", "langouste",
			"moule", "huître", "coquille", "calmar", "seiche", "poulpe",
		},
	},
	{
		label: CategoryDairy,
		keywords: []string{
			"lait", "crème", "beurre", "fromage", "yaourt", "yogourt", "mozzarella",
			"parmesan", "gruyère", "emmental", "chèvre", "brebis", "camembert",
			"roquefort", "comté", "raclette", "ricotta", "mascarpone", "feta", "cottage",
		},
	},
	{
		label: CategoryPantry,
		keywords: []string{
			"riz", "pâte", "farine", "sucre", "huile", "vinaigre", "nouille", "vermicelle",
			"semoule", "couscous", "quinoa", "boulgour", "lentille", "pois chiche",
			"haricot", "maïs", "avoine", "céréale", "pain", "biscuit", "gâteau",
			"chocolat", "cacao", "café", "thé", "miel", "confiture",
		},
	},
	{
		label: CategoryCondiments,
		keywords: []string{
			"sauce", "ketchup", "mayonnaise", "moutarde", "soja", "nuoc mam", "mirin",
			"saké", "wasabi", "gingembre", "curry", "curcuma", "paprika", "piment",
			"harissa", "tabasco", "sriracha", "bouillon", "fond", "concentré", "purée",
			"coulis",
		},
	},
}

// Classify returns the category label for a raw ingredient mention.
// Matching is a case-insensitive substring test against the fixed dictionary.
func Classify(mention string) string {
	lower := strings.ToLower(mention)
	for _, c := range dictionary {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.label
			}
		}
	}
	return CategoryOther
}

// Categories lists every label Classify can return, in dictionary order.
func Categories() []string {
	labels := make([]string, 0, len(dictionary)+1)
	for _, c := range dictionary {
		labels = append(labels, c.label)
	}
	return append(labels, CategoryOther)
}
