package testutil

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Payload builds a packet buffer from a readable mixed notation:
// plain text with |xx xx| hex runs, the same notation rule content
// patterns use.
//
//	testutil.Payload(`HDR|05 00|rest`)
//
// Panics on malformed hex so fixture mistakes fail loudly.
func Payload(s string) []byte {
	var out []byte
	for {
		open := strings.IndexByte(s, '|')
		if open < 0 {
			return append(out, s...)
		}
		end := strings.IndexByte(s[open+1:], '|')
		if end < 0 {
			panic(fmt.Sprintf("testutil.Payload: unterminated hex run in %q", s))
		}
		out = append(out, s[:open]...)
		raw := strings.ReplaceAll(s[open+1:open+1+end], " ", "")
		b, err := hex.DecodeString(raw)
		if err != nil {
			panic(fmt.Sprintf("testutil.Payload: bad hex run %q: %v", raw, err))
		}
		out = append(out, b...)
		s = s[open+end+2:]
	}
}
