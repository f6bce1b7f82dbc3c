package model

import "fmt"

// IdentifierKind discriminates the variants a search can be keyed on.
type IdentifierKind string

const (
	IdentifierKindProcess IdentifierKind = "process"
	IdentifierKindCPF     IdentifierKind = "cpf"
	IdentifierKindCNPJ    IdentifierKind = "cnpj"
)

// SearchType is the remote service's coarse identifier hint.
type SearchType string

const (
	SearchTypeProcess  SearchType = "process"
	SearchTypeDocument SearchType = "document"
)

// ProcessNumber is a validated CNJ process number, NNNNNNN-DD.AAAA.J.TR.OOOO.
// Immutable once built by the validator.
type ProcessNumber struct {
	Sequential int // NNNNNNN
	DigitPair  int // DD
	Year       int // AAAA
	Segment    int // J
	Court      int // TR
	OriginUnit int // OOOO
}

// String renders the canonical CNJ form.
func (p ProcessNumber) String() string {
	return fmt.Sprintf("%07d-%02d.%04d.%d.%02d.%04d",
		p.Sequential, p.DigitPair, p.Year, p.Segment, p.Court, p.OriginUnit)
}

// Digits renders the 20-digit separator-free form the remote API accepts.
func (p ProcessNumber) Digits() string {
	return fmt.Sprintf("%07d%02d%04d%d%02d%04d",
		p.Sequential, p.DigitPair, p.Year, p.Segment, p.Court, p.OriginUnit)
}

// TaxDocument is a validated CPF (11 digits) or CNPJ (14 digits).
type TaxDocument struct {
	Kind   IdentifierKind // cpf | cnpj
	Digits string         // numerals only, check digits included
}

// String renders the conventional punctuated form.
func (d TaxDocument) String() string {
	switch d.Kind {
	case IdentifierKindCPF:
		return d.Digits[:3] + "." + d.Digits[3:6] + "." + d.Digits[6:9] + "-" + d.Digits[9:]
	case IdentifierKindCNPJ:
		return d.Digits[:2] + "." + d.Digits[2:5] + "." + d.Digits[5:8] + "/" + d.Digits[8:12] + "-" + d.Digits[12:]
	}
	return d.Digits
}

// Identifier is the tagged union the validator produces: exactly one of
// Process or Document is set.
type Identifier struct {
	Kind     IdentifierKind
	Process  *ProcessNumber
	Document *TaxDocument
}

func (i Identifier) String() string {
	if i.Process != nil {
		return i.Process.String()
	}
	if i.Document != nil {
		return i.Document.String()
	}
	return ""
}

// SearchType maps the identifier to the remote service's hint.
func (i Identifier) SearchType() SearchType {
	if i.Kind == IdentifierKindProcess {
		return SearchTypeProcess
	}
	return SearchTypeDocument
}
