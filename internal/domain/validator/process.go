// Package validator holds the pure identifier-validation layer: extraction
// and check-digit verification for CNJ process numbers and CPF/CNPJ tax
// documents. No I/O, deterministic.
package validator

import (
	"regexp"
	"strconv"

	"justice-agent-tools/internal/domain/model"
)

// CNJ format: NNNNNNN-DD.AAAA.J.TR.OOOO (sequential, verifier pair, year,
// judicial segment, court, origin unit). Separators are optional so both the
// punctuated and the bare 20-digit renderings match.
var cnjPattern = regexp.MustCompile(`(\d{7})-?(\d{2})\.?(\d{4})\.?(\d)\.?(\d{2})\.?(\d{4})`)

const (
	cnjMinYear = 1998 // the unified numbering standard starts here
	cnjMaxYear = 2049
)

// ExtractProcessNumbers returns every distinct, fully valid CNJ number found
// in text, in order of appearance. Numbers whose verifier pair does not match
// the recomputed mod-97 value are treated as absent, not as malformed.
func ExtractProcessNumbers(text string) []model.ProcessNumber {
	var out []model.ProcessNumber
	seen := make(map[string]struct{})
	for _, m := range cnjPattern.FindAllStringSubmatch(text, -1) {
		p, ok := parseProcessParts(m[1:])
		if !ok {
			continue
		}
		key := p.Digits()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// ExtractProcessNumber returns the first valid CNJ number in text.
func ExtractProcessNumber(text string) (model.ProcessNumber, bool) {
	all := ExtractProcessNumbers(text)
	if len(all) == 0 {
		return model.ProcessNumber{}, false
	}
	return all[0], true
}

// ValidateProcessNumber reports whether s contains exactly one valid CNJ
// number and nothing that parses as a second one.
func ValidateProcessNumber(s string) bool {
	return len(ExtractProcessNumbers(s)) == 1
}

func parseProcessParts(parts []string) (model.ProcessNumber, bool) {
	if len(parts) != 6 {
		return model.ProcessNumber{}, false
	}
	seq, _ := strconv.Atoi(parts[0])
	dd, _ := strconv.Atoi(parts[1])
	year, _ := strconv.Atoi(parts[2])
	seg, _ := strconv.Atoi(parts[3])
	court, _ := strconv.Atoi(parts[4])
	origin, _ := strconv.Atoi(parts[5])

	if year < cnjMinYear || year > cnjMaxYear {
		return model.ProcessNumber{}, false
	}
	if seg < 1 || seg > 9 {
		return model.ProcessNumber{}, false
	}
	p := model.ProcessNumber{
		Sequential: seq,
		DigitPair:  dd,
		Year:       year,
		Segment:    seg,
		Court:      court,
		OriginUnit: origin,
	}
	if processCheckDigits(p) != dd {
		return model.ProcessNumber{}, false
	}
	return p, true
}

// processCheckDigits recomputes the CNJ verifier pair: ISO 7064 mod 97-10
// over sequential+year+segment+court+origin with "00" appended, DD = 98 - r.
func processCheckDigits(p model.ProcessNumber) int {
	s := p.Digits()
	// strip the embedded verifier pair (positions 7..8), append "00"
	cat := s[:7] + s[9:] + "00"
	r := 0
	for i := 0; i < len(cat); i++ {
		r = (r*10 + int(cat[i]-'0')) % 97
	}
	return 98 - r
}
