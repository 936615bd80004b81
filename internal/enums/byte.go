package enums

// ByteEndian selects the byte order used when interpreting extracted
// bytes as an integer.
type ByteEndian uint8

// Wire-stable endian codes. Never renumbered.
const (
	BigEndian    ByteEndian = 1
	LittleEndian ByteEndian = 2
	EndianDCE    ByteEndian = 3
)

// ByteBase selects the numeric radix for string-mode extraction.
// The numeric code doubles as the actual base.
type ByteBase uint8

// Wire-stable base codes. Never renumbered.
const (
	BaseOct ByteBase = 8
	BaseDec ByteBase = 10
	BaseHex ByteBase = 16
)

// MathOperator is the closed operator set for arithmetic keywords.
type MathOperator uint8

const (
	OperAdd MathOperator = iota + 1
	OperSub
	OperMult
	OperDiv
	OperLshift
	OperRshift
)

// Endians maps endian tokens: "big" <-> Big=1, "little" <-> Little=2,
// "dce" <-> DCE=3.
var Endians = NewSet(
	Entry[ByteEndian]{Code: 1, Ident: "Big", Variant: BigEndian},
	Entry[ByteEndian]{Code: 2, Ident: "Little", Variant: LittleEndian},
	Entry[ByteEndian]{Code: 3, Ident: "DCE", Variant: EndianDCE},
)

// Bases maps base tokens: "oct" <-> 8, "dec" <-> 10, "hex" <-> 16.
var Bases = NewSet(
	Entry[ByteBase]{Code: 8, Ident: "Oct", Variant: BaseOct},
	Entry[ByteBase]{Code: 10, Ident: "Dec", Variant: BaseDec},
	Entry[ByteBase]{Code: 16, Ident: "Hex", Variant: BaseHex},
)

// Operators maps canonical operator names used in diagnostics.
var Operators = NewSet(
	Entry[MathOperator]{Code: 1, Ident: "Add", Variant: OperAdd},
	Entry[MathOperator]{Code: 2, Ident: "Sub", Variant: OperSub},
	Entry[MathOperator]{Code: 3, Ident: "Mult", Variant: OperMult},
	Entry[MathOperator]{Code: 4, Ident: "Div", Variant: OperDiv},
	Entry[MathOperator]{Code: 5, Ident: "Lshift", Variant: OperLshift},
	Entry[MathOperator]{Code: 6, Ident: "Rshift", Variant: OperRshift},
)

// operTokens maps the rule-syntax operator tokens onto variants.
// The symbolic forms are what rule authors write; the canonical names
// from Operators are what diagnostics print.
var operTokens = map[string]MathOperator{
	"+":  OperAdd,
	"-":  OperSub,
	"*":  OperMult,
	"/":  OperDiv,
	"<<": OperLshift,
	">>": OperRshift,
}

// OperatorFromToken parses a rule-syntax operator token ("+", "-", "*",
// "/", "<<", ">>"). Canonical names ("add", "sub", ...) are accepted as
// well.
func OperatorFromToken(tok string) (MathOperator, bool) {
	if op, ok := operTokens[tok]; ok {
		return op, true
	}
	return Operators.FromName(tok)
}
