package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	streetAbbreviations = map[string]string{
		"street":    "st",
		"avenue":    "ave",
		"drive":     "dr",
		"road":      "rd",
		"boulevard": "blvd",
		"lane":      "ln",
		"court":     "ct",
		"place":     "pl",
		"circle":    "cir",
		"terrace":   "ter",
		"highway":   "hwy",
		"parkway":   "pkwy",
		"square":    "sq",
		"trail":     "trl",
		"north":     "n",
		"south":     "s",
		"east":      "e",
		"west":      "w",
		"northeast": "ne",
		"northwest": "nw",
		"southeast": "se",
		"southwest": "sw",
		"apartment": "apt",
		"suite":     "ste",
		"floor":     "fl",
		"building":  "bldg",
	}
	nonAlnumRegex = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeAddress lowercases, strips punctuation and abbreviates whole
// street words, so "123 Main Street." and "123 main st" compare equal.
func NormalizeAddress(addr string) string {
	addr = nonAlnumRegex.ReplaceAllString(strings.ToLower(addr), " ")
	words := strings.Fields(addr)
	for i, w := range words {
		if abbrev, ok := streetAbbreviations[w]; ok {
			words[i] = abbrev
		}
	}
	return strings.Join(words, " ")
}

// AddressKey is the dedup key for a property: normalized address, city and
// state hashed together. Stored with a unique index.
func AddressKey(address, city, state string) string {
	input := NormalizeAddress(address) + "|" + NormalizeAddress(city) + "|" + strings.ToUpper(strings.TrimSpace(state))
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}
