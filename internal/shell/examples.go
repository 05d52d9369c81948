package shell

import "time"

// FoodExample is a suggestion shown on the idle screen.
type FoodExample struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// PreviewInterval is how often the idle preview moves to the next example.
const PreviewInterval = 4 * time.Second

// FoodExamples are the suggestions the idle preview cycles through.
var FoodExamples = []FoodExample{
	{"Maçã Gala", unsplash("photo-1560806887-1e4cd0b6cbd6")},
	{"Pizza Margherita", unsplash("photo-1574071318508-1cdbad80ad38")},
	{"Salada Caesar", unsplash("photo-1550304943-4f24f54ddde9")},
	{"Sushi Combo", unsplash("photo-1579871494447-9811cf80d66c")},
	{"Hambúrguer Gourmet", unsplash("photo-1568901346375-23c9450c58cd")},
	{"Macarrão Carbonara", unsplash("photo-1612874742237-6526221588e3")},
	{"Salmão Grelhado", unsplash("photo-1467003909585-2f8a72700288")},
	{"Abacate com Ovo", unsplash("photo-1525351484163-7529414344d8")},
	{"Omelete de Espinafre", unsplash("photo-1510629954389-c1e0da47d4ec")},
	{"Smoothie de Frutas", unsplash("photo-1502741224143-90386d7f8c82")},
	{"Croissant Recheado", unsplash("photo-1555507036-ab1f4038808a")},
	{"Picanha com Fritas", unsplash("photo-1544025162-d76694265947")},
	{"Tacos Mexicanos", unsplash("photo-1551504734-5ee1c4a1479b")},
	{"Açaí na Tigela", unsplash("photo-1590301157890-4810ed352733")},
	{"Ramen Shoyu", unsplash("photo-1552611052-33e04de081de")},
	{"Curry de Frango", unsplash("photo-1631452180519-c014fe946bc7")},
	{"Iogurte com Granola", unsplash("photo-1488477181946-6428a0291777")},
	{"Quinoa com Legumes", unsplash("photo-1512621776951-a57141f2eefd")},
	{"Panquecas de Mel", unsplash("photo-1528207776546-365bb710ee93")},
	{"Salada de Frutas", unsplash("photo-1519996529931-28324d5a630e")},
}

func unsplash(photo string) string {
	return "https://images.unsplash.com/" + photo + "?w=400&h=400&fit=crop"
}
