package view

import "unicode"

// CompareAccessions orders accession numbers numerically where they
// contain digit runs and by collation elsewhere, so "A2" sorts before
// "A10". Both strings are walked segment by segment; digit runs compare
// as integers, the surrounding alphabetic segments compare as text.
//
// Two accessions with no digits at all compare purely as text. That
// case was left undefined by the historical behavior; segment-wise
// comparison degrades to plain collation there, which gives a total
// order for free.
func (s *Sorter) CompareAccessions(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	ia, ib := 0, 0

	for ia < len(ra) && ib < len(rb) {
		da := unicode.IsDigit(ra[ia])
		db := unicode.IsDigit(rb[ib])

		switch {
		case da && db:
			// Compare the two digit runs as integers: shorter run of
			// significant digits is smaller, equal lengths compare
			// digit by digit.
			sa, ea := digitRun(ra, ia)
			sb, eb := digitRun(rb, ib)
			if c := compareDigits(ra[sa:ea], rb[sb:eb]); c != 0 {
				return c
			}
			ia, ib = ea, eb
		case da != db:
			// A digit run sorts before text at the same position.
			if da {
				return -1
			}
			return 1
		default:
			sa, ea := textRun(ra, ia)
			sb, eb := textRun(rb, ib)
			if c := s.coll.CompareString(string(ra[sa:ea]), string(rb[sb:eb])); c != 0 {
				return c
			}
			ia, ib = ea, eb
		}
	}

	switch {
	case ia < len(ra):
		return 1
	case ib < len(rb):
		return -1
	}
	return 0
}

func digitRun(r []rune, i int) (start, end int) {
	start = i
	for i < len(r) && unicode.IsDigit(r[i]) {
		i++
	}
	return start, i
}

func textRun(r []rune, i int) (start, end int) {
	start = i
	for i < len(r) && !unicode.IsDigit(r[i]) {
		i++
	}
	return start, i
}

func compareDigits(a, b []rune) int {
	// Strip leading zeros so "007" == "7".
	for len(a) > 1 && a[0] == '0' {
		a = a[1:]
	}
	for len(b) > 1 && b[0] == '0' {
		b = b[1:]
	}
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
