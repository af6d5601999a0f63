// Package similarity provides the scoring primitives every matching stage
// builds on: token-Jaccard name similarity, the directed data-type
// compatibility table, and confidence clamping.
package similarity

import (
	"strings"
	"unicode"

	"schemabridge/internal/schema"
)

// Clamp bounds a confidence score to [0,1]. Applied after every confidence
// adjustment anywhere in the engine.
func Clamp(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Tokenize splits a name into lowercase tokens at non-alphanumeric runs,
// camelCase humps and letter/digit boundaries. "AcctOpenDate" and
// "acct_open_date" tokenize identically; "NAME1" yields {name, 1}.
func Tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if i > 0 && cur.Len() > 0 {
			prev := runes[i-1]
			switch {
			case unicode.IsUpper(r) && unicode.IsLower(prev):
				flush()
			case unicode.IsDigit(r) != unicode.IsDigit(prev):
				flush()
			case unicode.IsUpper(prev) && unicode.IsUpper(r) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				// tail of an acronym run: "XMLName" -> xml, name
				flush()
			}
		}
		cur.WriteRune(r)
	}
	flush()
	return tokens
}

// NameSimilarity returns the token-set Jaccard similarity of two field or
// entity names (name plus label concatenated). 0 when either side tokenizes
// to nothing, 1 for identical token sets, 0 for disjoint sets.
func NameSimilarity(a, b string) float64 {
	ta := Tokenize(a)
	tb := Tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(ta))
	for _, t := range ta {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(tb))
	for _, t := range tb {
		setB[t] = struct{}{}
	}
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// incompatibleScore is what a disallowed type pair scores. Low but nonzero:
// a strong name match on incompatible types still surfaces for review (and
// is then rejected by validation).
const incompatibleScore = 0.2

// typeCompat is the directed compatibility table: source type -> allowed
// target types. It is deliberately NOT symmetric. date -> string is a safe
// widening; string -> date is not (free text does not parse reliably), so
// the reverse entry is absent.
var typeCompat = map[schema.DataType][]schema.DataType{
	schema.TypeString:        {schema.TypeString, schema.TypeText, schema.TypeTextArea, schema.TypePicklist, schema.TypeEmail, schema.TypePhone, schema.TypeURL},
	schema.TypeText:          {schema.TypeText, schema.TypeTextArea, schema.TypeString},
	schema.TypeTextArea:      {schema.TypeTextArea, schema.TypeText, schema.TypeString},
	schema.TypeInteger:       {schema.TypeInteger, schema.TypeDecimal, schema.TypeString, schema.TypeCurrency},
	schema.TypeDecimal:       {schema.TypeDecimal, schema.TypeInteger, schema.TypeString, schema.TypePercent, schema.TypeCurrency},
	schema.TypeCurrency:      {schema.TypeCurrency, schema.TypeDecimal, schema.TypeString},
	schema.TypePercent:       {schema.TypePercent, schema.TypeDecimal, schema.TypeString},
	schema.TypeBoolean:       {schema.TypeBoolean, schema.TypeString, schema.TypePicklist},
	schema.TypeDate:          {schema.TypeDate, schema.TypeDateTime, schema.TypeString},
	schema.TypeDateTime:      {schema.TypeDateTime, schema.TypeDate, schema.TypeString},
	schema.TypePicklist:      {schema.TypePicklist, schema.TypeMultiPicklist, schema.TypeString, schema.TypeText},
	schema.TypeMultiPicklist: {schema.TypeMultiPicklist, schema.TypePicklist, schema.TypeString},
	schema.TypeEmail:         {schema.TypeEmail, schema.TypeString},
	schema.TypePhone:         {schema.TypePhone, schema.TypeString},
	schema.TypeURL:           {schema.TypeURL, schema.TypeString},
	schema.TypeID:            {schema.TypeID, schema.TypeString, schema.TypeReference},
	schema.TypeReference:     {schema.TypeReference, schema.TypeID, schema.TypeString},
	schema.TypeUnknown:       {schema.TypeUnknown, schema.TypeString, schema.TypeText},
}

// TypeCompatible reports whether a source type may map onto a target type.
func TypeCompatible(src, tgt schema.DataType) bool {
	allowed, ok := typeCompat[src]
	if !ok {
		return src == tgt
	}
	for _, t := range allowed {
		if t == tgt {
			return true
		}
	}
	return false
}

// TypeCompatibilityScore returns 1.0 for an allowed source->target pair and
// a low fixed score otherwise.
func TypeCompatibilityScore(src, tgt schema.DataType) float64 {
	if TypeCompatible(src, tgt) {
		return 1.0
	}
	return incompatibleScore
}
