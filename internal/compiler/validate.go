package compiler

import "fmt"

// Rule compilation error codes (E100-E199).
const (
	ErrUnknownKeyword  = "E101" // keyword not in the registry
	ErrUnexpectedArgs  = "E102" // NoOption keyword given argument text
	ErrMissingArgs     = "E103" // required argument text omitted
	ErrQuotesMandatory = "E104" // argument must be a quoted string
	ErrBadArgs         = "E105" // setup callback rejected the argument
	ErrDuplicateSID    = "E106" // sid already used in this ruleset
	ErrNoKeywords      = "E107" // rule declares no keywords
	ErrBadHeader       = "E108" // sid zero or msg empty
)

// ValidationError is one rule-compile diagnostic. It names the keyword
// and the invalid argument so the rule loader can report the offending
// rule precisely.
type ValidationError struct {
	Code    string `json:"code"`
	SID     uint32 `json:"sid"`
	Keyword string `json:"keyword,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Keyword != "" {
		return fmt.Sprintf("[%s] rule %d keyword %s: %s", e.Code, e.SID, e.Keyword, e.Message)
	}
	return fmt.Sprintf("[%s] rule %d: %s", e.Code, e.SID, e.Message)
}
