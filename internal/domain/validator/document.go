package validator

import (
	"regexp"
	"strings"

	"justice-agent-tools/internal/domain/model"
)

var (
	cpfPattern  = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`)
	cnpjPattern = regexp.MustCompile(`\b\d{2}\.?\d{3}\.?\d{3}/?\d{4}-?\d{2}\b`)
	nonDigit    = regexp.MustCompile(`[^\d]`)
)

// ExtractDocuments returns every distinct valid CPF/CNPJ found in text.
// CNPJ candidates are scanned first so a 14-digit run is never misread as a
// CPF plus noise.
func ExtractDocuments(text string) []model.TaxDocument {
	var out []model.TaxDocument
	seen := make(map[string]struct{})
	add := func(d model.TaxDocument) {
		if _, dup := seen[d.Digits]; dup {
			return
		}
		seen[d.Digits] = struct{}{}
		out = append(out, d)
	}
	for _, m := range cnpjPattern.FindAllString(text, -1) {
		digits := nonDigit.ReplaceAllString(m, "")
		if len(digits) == 14 && ValidateCNPJ(digits) {
			add(model.TaxDocument{Kind: model.IdentifierKindCNPJ, Digits: digits})
		}
	}
	for _, m := range cpfPattern.FindAllString(text, -1) {
		digits := nonDigit.ReplaceAllString(m, "")
		if len(digits) == 11 && ValidateCPF(digits) {
			add(model.TaxDocument{Kind: model.IdentifierKindCPF, Digits: digits})
		}
	}
	return out
}

// ExtractDocument returns the first valid document in text.
func ExtractDocument(text string) (model.TaxDocument, bool) {
	all := ExtractDocuments(text)
	if len(all) == 0 {
		return model.TaxDocument{}, false
	}
	return all[0], true
}

// ValidateCPF checks an 11-digit CPF: weighted sums (weights 10..2, then
// 11..2) mod 11 with the remainder-to-zero rule. Sequences of one repeated
// digit are rejected even though some pass the checksum.
func ValidateCPF(cpf string) bool {
	digits := nonDigit.ReplaceAllString(cpf, "")
	if len(digits) != 11 || allSameDigit(digits) {
		return false
	}
	d := toInts(digits)
	sum1 := 0
	for i := 0; i < 9; i++ {
		sum1 += d[i] * (10 - i)
	}
	if d[9] != (sum1*10%11)%10 {
		return false
	}
	sum2 := 0
	for i := 0; i < 10; i++ {
		sum2 += d[i] * (11 - i)
	}
	return d[10] == (sum2*10%11)%10
}

var cnpjWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

// ValidateCNPJ checks a 14-digit CNPJ: weighted sums with weights
// 5,4,3,2,9,8,7,6,5,4,3,2 (second pass gains a leading 6) mod 11, digit is
// zero when the remainder is below two.
func ValidateCNPJ(cnpj string) bool {
	digits := nonDigit.ReplaceAllString(cnpj, "")
	if len(digits) != 14 || allSameDigit(digits) {
		return false
	}
	d := toInts(digits)
	if d[12] != cnpjDigit(d[:12]) {
		return false
	}
	return d[13] == cnpjDigit(d[:13])
}

func cnpjDigit(d []int) int {
	w := cnpjWeights[len(cnpjWeights)-len(d):]
	sum := 0
	for i, v := range d {
		sum += v * w[i]
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

// DocumentKind classifies a raw string as CPF or CNPJ, validating it fully.
func DocumentKind(document string) (model.IdentifierKind, bool) {
	digits := nonDigit.ReplaceAllString(document, "")
	switch len(digits) {
	case 11:
		if ValidateCPF(digits) {
			return model.IdentifierKindCPF, true
		}
	case 14:
		if ValidateCNPJ(digits) {
			return model.IdentifierKindCNPJ, true
		}
	}
	return "", false
}

func allSameDigit(s string) bool {
	return strings.Count(s, s[:1]) == len(s)
}

func toInts(s string) []int {
	d := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		d[i] = int(s[i] - '0')
	}
	return d
}
