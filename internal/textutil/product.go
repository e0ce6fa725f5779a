package textutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	upperCaser = cases.Upper(language.Und)
	lowerCaser = cases.Lower(language.Und)
)

// Capitalize upper-cases the first letter and lower-cases the rest, so
// "mainPlate" becomes "Mainplate".
func Capitalize(value string) string {
	if value == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(value)
	return upperCaser.String(string(first)) + lowerCaser.String(value[size:])
}

// UpperFirst upper-cases only the first letter.
func UpperFirst(value string) string {
	if value == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(value)
	return upperCaser.String(string(first)) + value[size:]
}

// ProductName builds "<productType><Variant>", the default product naming
// template.
func ProductName(productType, variant string) string {
	return strings.TrimSpace(productType) + UpperFirst(strings.TrimSpace(variant))
}

// LayerVariant derives the per-layer variant: the layer name with spaces
// replaced by underscores followed by the capitalized variant.
func LayerVariant(layerName, variant string) string {
	return strings.ReplaceAll(strings.TrimSpace(layerName), " ", "_") + Capitalize(variant)
}
