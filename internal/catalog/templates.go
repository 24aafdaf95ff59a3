package catalog

import "fmt"

// FoodTemplate is the descriptive part of a seeded dish.
type FoodTemplate struct {
	Name        string
	CardSummary string
	Description string
	Recipe      string
	Ingredients []string
	Allergens   []string
}

// CategoryTemplate is a category with the dishes seeded under it.
type CategoryTemplate struct {
	Local     string
	Canonical string
	Foods     []FoodTemplate
}

// City is a reference point for profile coordinates.
type City struct {
	Name      string
	Latitude  float64
	Longitude float64
}

var categoryTemplates = []CategoryTemplate{
	{
		Local:     "Çorbalar",
		Canonical: "Soups",
		Foods: []FoodTemplate{
			{
				Name:        "Mercimek Çorbası",
				CardSummary: "Klasik kırmızı mercimek çorbası",
				Description: "Günlük hazırlanan, limonla servis edilen geleneksel mercimek çorbası.",
				Recipe:      "Mercimek, soğan, havuç ve baharatlar ile 45 dakika pişirilir.",
				Ingredients: []string{"kırmızı mercimek", "soğan", "havuç", "tereyağı", "tuz"},
				Allergens:   []string{"süt"},
			},
			{
				Name:        "Ezogelin Çorbası",
				CardSummary: "Bulgur ve mercimekli baharatlı çorba",
				Description: "Nane ve pul biber ile tatlandırılmış yoğun kıvamlı ezogelin çorbası.",
				Recipe:      "Mercimek ve bulgur kavrulur, salça ve baharatla kaynatılır.",
				Ingredients: []string{"mercimek", "ince bulgur", "salça", "nane", "soğan"},
				Allergens:   []string{},
			},
		},
	},
	{
		Local:     "Ana Yemekler",
		Canonical: "Main Dishes",
		Foods: []FoodTemplate{
			{
				Name:        "Karnıyarık",
				CardSummary: "Kıymalı patlıcan yemeği",
				Description: "Fırında pişmiş patlıcan içinde domatesli kıyma harcı ile hazırlanır.",
				Recipe:      "Patlıcan kızartılır, kıymalı içle doldurulup fırınlanır.",
				Ingredients: []string{"patlıcan", "kıyma", "domates", "soğan", "biber"},
				Allergens:   []string{},
			},
			{
				Name:        "Tavuk Sote",
				CardSummary: "Sebzeli tavuk sote",
				Description: "Biber ve mantar ile wok tavada yüksek ateşte hazırlanır.",
				Recipe:      "Jülyen tavuklar sebzelerle sotelenir ve baharatlanır.",
				Ingredients: []string{"tavuk", "biber", "mantar", "soğan", "zeytinyağı"},
				Allergens:   []string{},
			},
		},
	},
	{
		Local:     "Zeytinyağlılar",
		Canonical: "Olive Oil Dishes",
		Foods: []FoodTemplate{
			{
				Name:        "Zeytinyağlı Fasulye",
				CardSummary: "Soğuk servis yeşil fasulye",
				Description: "Domatesli ve zeytinyağlı klasik ev usulü tarif.",
				Recipe:      "Fasulye, domates ve soğan ile kısık ateşte pişirilir.",
				Ingredients: []string{"yeşil fasulye", "domates", "soğan", "zeytinyağı", "sarımsak"},
				Allergens:   []string{},
			},
			{
				Name:        "Enginar Dolması",
				CardSummary: "İç baklalı enginar",
				Description: "Limonlu ve dereotlu hafif zeytinyağlı bir seçenek.",
				Recipe:      "Enginar çanakları iç bakla harcıyla doldurulur ve pişirilir.",
				Ingredients: []string{"enginar", "iç bakla", "dereotu", "limon", "zeytinyağı"},
				Allergens:   []string{},
			},
		},
	},
	{
		Local:     "Tatlılar",
		Canonical: "Desserts",
		Foods: []FoodTemplate{
			{
				Name:        "Sütlaç",
				CardSummary: "Fırın üstü nar gibi sütlaç",
				Description: "Vanilya aromalı pirinçli süt tatlısı.",
				Recipe:      "Pirinç süt ile kaynatılır, kaselerde fırınlanır.",
				Ingredients: []string{"süt", "pirinç", "şeker", "vanilya"},
				Allergens:   []string{"süt"},
			},
			{
				Name:        "Revani",
				CardSummary: "Şerbetli irmik tatlısı",
				Description: "Limon kabuğu aromalı yumuşak revani.",
				Recipe:      "İrmik hamuru pişirilir, şerbet dökülerek dinlendirilir.",
				Ingredients: []string{"irmik", "yoğurt", "yumurta", "şeker", "un"},
				Allergens:   []string{"gluten", "yumurta", "süt"},
			},
		},
	},
	{
		Local:     "İçecekler",
		Canonical: "Beverages",
		Foods: []FoodTemplate{
			{
				Name:        "Ayran",
				CardSummary: "Soğuk ve köpüklü ayran",
				Description: "Günlük yoğurttan hazırlanmış serinletici içecek.",
				Recipe:      "Yoğurt, su ve tuz yüksek devirde çırpılır.",
				Ingredients: []string{"yoğurt", "su", "tuz"},
				Allergens:   []string{"süt"},
			},
			{
				Name:        "Şalgam",
				CardSummary: "Acılı fermente içecek",
				Description: "Geleneksel Adana usulü mor havuç ve şalgam suyu.",
				Recipe:      "Fermente şalgam suyu süzülerek soğuk servis edilir.",
				Ingredients: []string{"mor havuç", "şalgam", "su", "tuz"},
				Allergens:   []string{},
			},
		},
	},
}

var cities = []City{
	{Name: "İstanbul", Latitude: 41.0082, Longitude: 28.9784},
	{Name: "Ankara", Latitude: 39.9334, Longitude: 32.8597},
	{Name: "İzmir", Latitude: 38.4237, Longitude: 27.1428},
	{Name: "Bursa", Latitude: 40.1950, Longitude: 29.0600},
	{Name: "Antalya", Latitude: 36.8969, Longitude: 30.7133},
	{Name: "Adana", Latitude: 37.0000, Longitude: 35.3213},
	{Name: "Konya", Latitude: 37.8746, Longitude: 32.4932},
	{Name: "Gaziantep", Latitude: 37.0662, Longitude: 37.3833},
	{Name: "Kayseri", Latitude: 38.7225, Longitude: 35.4875},
	{Name: "Trabzon", Latitude: 41.0015, Longitude: 39.7178},
}

// DefaultCity is used for addresses of users without a geo profile.
const DefaultCity = "İstanbul"

// CategoryName returns the category names for position idx. Names beyond the
// first template cycle get a numeric suffix starting at 2.
func CategoryName(idx int) (local, canonical string) {
	tmpl := categoryTemplates[idx%len(categoryTemplates)]
	if idx < len(categoryTemplates) {
		return tmpl.Local, tmpl.Canonical
	}
	suffix := idx - len(categoryTemplates) + 2
	return fmt.Sprintf("%s %d", tmpl.Local, suffix), fmt.Sprintf("%s %d", tmpl.Canonical, suffix)
}

// FoodTemplateFor returns the dish for food slot foodSlot of seller
// sellerSlot in a category at sortOrder. Rotating by seller keeps two sellers
// in the same category on different dishes.
func FoodTemplateFor(sortOrder, sellerSlot, foodSlot int) FoodTemplate {
	foods := categoryTemplates[sortOrder%len(categoryTemplates)].Foods
	return foods[(sellerSlot+foodSlot)%len(foods)]
}

// CityFor returns the reference city of a position.
func CityFor(position int) City {
	return cities[position%len(cities)]
}
