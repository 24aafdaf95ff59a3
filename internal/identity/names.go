package identity

import "coziyoo-seed/internal/model"

var buyerNames = []string{
	"Ahmet Yılmaz",
	"Mehmet Demir",
	"Ali Kaya",
	"Can Aydın",
	"Burak Şahin",
	"Murat Çelik",
	"Emre Arslan",
	"Deniz Koç",
	"Ece Yıldız",
	"Selin Öztürk",
}

var sellerNames = []string{
	"Fatma Karaca",
	"Ayşe Güneş",
	"Zeynep Aksoy",
	"Elif Turan",
	"Merve Erdem",
	"Hakan İnce",
	"Yusuf Sarı",
	"Hasan Uçar",
	"Gamze Korkmaz",
	"İrem Kurt",
}

// NamePool returns the full-name pool for a role. Buyer and seller pools are
// disjoint so handles never collide across roles.
func NamePool(role model.Role) []string {
	if role == model.RoleSeller {
		return sellerNames
	}
	return buyerNames
}
