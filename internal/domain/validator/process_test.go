package validator_test

import (
	"strings"
	"testing"

	"justice-agent-tools/internal/domain/validator"
)

// 1234567 / 2023 / segment 8 / court 26 / origin 0100 has verifier pair 47
// under the CNJ mod-97 rule.
const validCNJ = "1234567-47.2023.8.26.0100"

func TestExtractProcessNumber(t *testing.T) {
	t.Run("extracts a punctuated CNJ number from free text", func(t *testing.T) {
		p, ok := validator.ExtractProcessNumber("qual o status do processo " + validCNJ + "?")
		if !ok {
			t.Fatal("expected a process number to be extracted")
		}
		if got := p.String(); got != validCNJ {
			t.Errorf("expected %q, got %q", validCNJ, got)
		}
	})

	t.Run("extracts a bare 20-digit number", func(t *testing.T) {
		bare := strings.NewReplacer("-", "", ".", "").Replace(validCNJ)
		p, ok := validator.ExtractProcessNumber("processo " + bare)
		if !ok {
			t.Fatal("expected a process number to be extracted")
		}
		if got := p.String(); got != validCNJ {
			t.Errorf("expected canonical form %q, got %q", validCNJ, got)
		}
	})

	t.Run("treats a wrong verifier pair as absent", func(t *testing.T) {
		// every verifier pair other than 47 must be rejected
		for dd := 0; dd < 100; dd++ {
			if dd == 47 {
				continue
			}
			s := strings.Replace(validCNJ, "-47.", "-"+twoDigits(dd)+".", 1)
			if _, ok := validator.ExtractProcessNumber(s); ok {
				t.Fatalf("verifier %02d unexpectedly accepted", dd)
			}
		}
	})

	t.Run("rejects years outside the CNJ range", func(t *testing.T) {
		for _, s := range []string{
			"1234567-47.1997.8.26.0100",
			"1234567-47.2050.8.26.0100",
		} {
			if _, ok := validator.ExtractProcessNumber(s); ok {
				t.Errorf("year out of range accepted: %s", s)
			}
		}
	})

	t.Run("rejects segment zero", func(t *testing.T) {
		if _, ok := validator.ExtractProcessNumber("1234567-47.2023.0.26.0100"); ok {
			t.Error("segment 0 accepted")
		}
	})

	t.Run("returns not-found on plain text", func(t *testing.T) {
		if _, ok := validator.ExtractProcessNumber("hello there"); ok {
			t.Error("expected no process number in plain text")
		}
	})

	t.Run("dedupes repeated mentions", func(t *testing.T) {
		all := validator.ExtractProcessNumbers(validCNJ + " e tambem " + validCNJ)
		if len(all) != 1 {
			t.Errorf("expected 1 distinct number, got %d", len(all))
		}
	})
}

func TestValidateProcessNumber(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{validCNJ, true},
		{"7654321-41.2019.4.05.0009", true},
		{"0000023-59.2008.8.26.0100", true},
		{"1234567-89.2023.8.26.0100", false}, // wrong verifier pair
		{"not a number", false},
		{"", false},
	}
	for _, c := range cases {
		if got := validator.ValidateProcessNumber(c.in); got != c.want {
			t.Errorf("ValidateProcessNumber(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}
