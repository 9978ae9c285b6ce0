package at

import "strings"

// classify inspects one reply line. terminal is false for informational
// lines such as "+ADDR:..." or "+INQ:...".
func classify(line string) (outcome Outcome, code string, terminal bool) {
	s := strings.ToUpper(strings.TrimSpace(line))
	switch {
	case strings.HasPrefix(s, "OK"):
		return AckOK, "", true
	case strings.HasPrefix(s, "ERROR"):
		return AckError, errorCode(s), true
	case strings.HasPrefix(s, "FAIL"):
		return AckError, "", true
	}
	return NotSent, "", false
}

// errorCode extracts n from "ERROR:(n)". HC-05 prints n in hex.
func errorCode(s string) string {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return ""
	}
	end := strings.IndexByte(s[open:], ')')
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(s[open+1 : open+end])
}
