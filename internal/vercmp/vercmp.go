// Package vercmp compares package version strings the way pacman does.
package vercmp

import "strings"

// Compare returns -1, 0 or 1 as a is older than, equal to, or newer than b.
// Versions have the form [epoch:]version[-release]; the release is only
// compared when both sides carry one.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	e1, v1, r1 := splitEVR(a)
	e2, v2, r2 := splitEVR(b)

	if ret := compareSegments(e1, e2); ret != 0 {
		return ret
	}
	if ret := compareSegments(v1, v2); ret != 0 {
		return ret
	}
	if r1 != "" && r2 != "" {
		return compareSegments(r1, r2)
	}
	return 0
}

// splitEVR splits "1:2.0-3" into ("1", "2.0", "3"). A missing epoch is "0".
func splitEVR(s string) (epoch, version, release string) {
	epoch = "0"
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == ':' {
		if i > 0 {
			epoch = s[:i]
		}
		s = s[i+1:]
	}
	if j := strings.LastIndexByte(s, '-'); j >= 0 {
		return epoch, s[:j], s[j+1:]
	}
	return epoch, s, ""
}

func compareSegments(a, b string) int {
	if a == b {
		return 0
	}

	one, two := 0, 0
	prev1, prev2 := 0, 0
	for one < len(a) && two < len(b) {
		for one < len(a) && !isAlnum(a[one]) {
			one++
		}
		for two < len(b) && !isAlnum(b[two]) {
			two++
		}
		if one >= len(a) || two >= len(b) {
			break
		}
		// a longer run of separators wins
		if sep1, sep2 := one-prev1, two-prev2; sep1 != sep2 {
			if sep1 < sep2 {
				return -1
			}
			return 1
		}

		end1, end2 := one, two
		numeric := isDigit(a[one])
		if numeric {
			for end1 < len(a) && isDigit(a[end1]) {
				end1++
			}
			for end2 < len(b) && isDigit(b[end2]) {
				end2++
			}
		} else {
			for end1 < len(a) && isAlpha(a[end1]) {
				end1++
			}
			for end2 < len(b) && isAlpha(b[end2]) {
				end2++
			}
		}

		// segments of different types: numeric is newer
		if end2 == two {
			if numeric {
				return 1
			}
			return -1
		}

		seg1, seg2 := a[one:end1], b[two:end2]
		if numeric {
			seg1 = strings.TrimLeft(seg1, "0")
			seg2 = strings.TrimLeft(seg2, "0")
			if len(seg1) != len(seg2) {
				if len(seg1) > len(seg2) {
					return 1
				}
				return -1
			}
		}
		if c := strings.Compare(seg1, seg2); c != 0 {
			return c
		}

		one, two = end1, end2
		prev1, prev2 = one, two
	}

	if one >= len(a) && two >= len(b) {
		return 0
	}
	// an alpha remainder marks a pre-release and is older; anything else is newer
	if (one >= len(a) && !isAlpha(b[two])) || (one < len(a) && isAlpha(a[one])) {
		return -1
	}
	return 1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }
