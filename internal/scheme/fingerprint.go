package scheme

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// fingerprintDomain separates scheme hashes from any other SHA-256 use.
// The version suffix allows the canonical form to evolve.
const fingerprintDomain = "tally/scheme/v1"

// fingerprint computes a content hash over the scheme's canonical form:
// items then rules, each in declaration order, fields joined with unit
// separators so no field content can forge a record boundary. IDs and rule
// names are NFC-normalized so visually identical identifiers hash equally
// regardless of source encoding.
//
// Audit sessions record this hash, tying every trace to the exact pricing
// scheme that produced it.
func fingerprint(s *Scheme) string {
	const fieldSep = "\x1f"
	var b strings.Builder

	for _, id := range s.itemOrder {
		it := s.index[id]
		b.WriteString("item")
		b.WriteString(fieldSep)
		b.WriteString(norm.NFC.String(it.ID()))
		b.WriteString(fieldSep)
		b.WriteString(string(it.Kind()))
		b.WriteString(fieldSep)
		b.WriteString(formatValue(it.NominalValue()))
		b.WriteString("\n")
	}
	for _, rule := range s.rules {
		b.WriteString("rule")
		b.WriteString(fieldSep)
		b.WriteString(norm.NFC.String(rule.Name()))
		b.WriteString(fieldSep)
		ids := make([]string, 0, len(rule.RequiredItems()))
		for _, it := range rule.RequiredItems() {
			ids = append(ids, norm.NFC.String(it.ID()))
		}
		b.WriteString(strings.Join(ids, ","))
		b.WriteString(fieldSep)
		b.WriteString(formatValue(rule.TargetAmount()))
		b.WriteString("\n")
	}

	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00}) // domain/data boundary
	h.Write([]byte(b.String()))
	return hex.EncodeToString(h.Sum(nil))
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
