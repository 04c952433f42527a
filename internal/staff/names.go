package staff

import "math/rand/v2"

var givenNames = []string{
	"Aled", "Bronwyn", "Carys", "Declan", "Efa", "Fergus", "Gwen", "Huw",
	"Iona", "Jodie", "Kieran", "Lowri", "Morgan", "Niamh", "Owain", "Priya",
	"Rhys", "Siân", "Tegan", "Yusuf", "Zara", "Bilal", "Cerys", "Dafydd",
}

var nicknames = []string{
	"the Pint", "Quickhands", "Two-Trays", "the Calm", "Sharp", "Big",
	"Lefty", "the Grill", "Sparks", "Steady",
}

// RandomName draws a staff name. A few get a nickname.
func RandomName(rng *rand.Rand) string {
	name := givenNames[rng.IntN(len(givenNames))]
	if rng.IntN(100) < 20 {
		name += " " + nicknames[rng.IntN(len(nicknames))]
	}
	return name
}
