package expression

// Palette is the Set2 categorical palette (ColorBrewer), the palette
// the dashboards use for isoform legend colors.
var Palette = []string{
	"#66c2a5",
	"#fc8d62",
	"#8da0cb",
	"#e78ac3",
	"#a6d854",
	"#ffd92f",
	"#e5c494",
	"#b3b3b3",
}
