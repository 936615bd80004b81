package engine

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraitsec/krait/internal/compiler"
	"github.com/kraitsec/krait/internal/observability"
	"github.com/kraitsec/krait/internal/testutil"
)

func compileRules(t *testing.T, defs ...compiler.RuleDef) (*Engine, *compiler.Ruleset) {
	t.Helper()
	reg := DefaultRegistry()
	rs, errs := compiler.New(reg).Compile(defs)
	require.Empty(t, errs)
	e := New(reg, rs, WithEvalIDGenerator(testutil.NewSequenceIDGenerator("eval")))
	return e, rs
}

func TestInspect_ChainedExtraction(t *testing.T) {
	e, _ := compileRules(t, compiler.RuleDef{
		SID: 2020,
		Msg: "length-prefixed record over threshold",
		Keywords: []compiler.KeywordUse{
			{Keyword: "content", Args: `"HDR"`},
			{Keyword: "byte_extract", Args: "1, 0, rec_len, relative"},
			{Keyword: "byte_math", Args: "bytes 1, offset 0, relative, oper +, rvalue rec_len, result total"},
		},
	})

	events := e.Inspect(Packet{
		ID:      "pkt-1",
		Buffers: map[string][]byte{"payload": testutil.Payload("HDR|05 02|")},
	})

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, "eval-0001", ev.EvalID)
	assert.Equal(t, "pkt-1", ev.PacketID)
	assert.Equal(t, uint32(2020), ev.SID)
	assert.Equal(t, "length-prefixed record over threshold", ev.Msg)
	assert.Equal(t, map[string]uint64{"rec_len": 5, "total": 7}, ev.Vars)
}

func TestInspect_RuntimeDivideByZeroOnlyStopsItsOwnRule(t *testing.T) {
	e, _ := compileRules(t,
		compiler.RuleDef{
			SID: 1,
			Msg: "divides by extracted value",
			Keywords: []compiler.KeywordUse{
				{Keyword: "content", Args: `"LEN"`},
				{Keyword: "byte_extract", Args: "1, 0, divisor, relative"},
				{Keyword: "byte_math", Args: "bytes 1, offset 0, relative, oper /, rvalue divisor, result quotient"},
			},
		},
		compiler.RuleDef{
			SID: 2,
			Msg: "plain literal",
			Keywords: []compiler.KeywordUse{
				{Keyword: "content", Args: `"LEN"`},
			},
		},
	)

	// divisor extracts as zero, so rule 1 fails at evaluation time.
	events := e.Inspect(Packet{
		ID:      "pkt-1",
		Buffers: map[string][]byte{"payload": testutil.Payload("LEN|00 09|")},
	})

	require.Len(t, events, 1)
	assert.Equal(t, uint32(2), events[0].SID)
	assert.Empty(t, events[0].Vars)
}

func TestInspect_StickyBufferDesignation(t *testing.T) {
	e, _ := compileRules(t, compiler.RuleDef{
		SID: 3,
		Msg: "admin path in request uri",
		Keywords: []compiler.KeywordUse{
			{Keyword: "http.uri", Args: ""},
			{Keyword: "content", Args: `"/admin"`},
		},
	})

	events := e.Inspect(Packet{
		ID: "pkt-uri",
		Buffers: map[string][]byte{
			"payload":  []byte("GET /admin/login HTTP/1.1"),
			"http.uri": []byte("/admin/login"),
		},
	})
	require.Len(t, events, 1)

	// Without the designated buffer the rule cannot match, even though
	// the payload itself contains the pattern.
	events = e.Inspect(Packet{
		ID:      "pkt-nouri",
		Buffers: map[string][]byte{"payload": []byte("GET /admin/login HTTP/1.1")},
	})
	assert.Empty(t, events)
}

func TestInspect_ShortBufferIsNoMatch(t *testing.T) {
	e, _ := compileRules(t, compiler.RuleDef{
		SID: 4,
		Msg: "extracts past end",
		Keywords: []compiler.KeywordUse{
			{Keyword: "byte_extract", Args: "8, 0, wide"},
		},
	})

	events := e.Inspect(Packet{
		ID:      "pkt-short",
		Buffers: map[string][]byte{"payload": []byte{0x01, 0x02}},
	})
	assert.Empty(t, events)
}

func TestPrefilter_Candidates(t *testing.T) {
	_, rs := compileRulesForPrefilter(t)
	p := newPrefilter(rs.Signatures)

	// "alpha" present: literal rule 0 plus the literal-free rule.
	got := p.candidates(map[string][]byte{"payload": []byte("xx alpha yy")})
	assert.Equal(t, []int{0, 2}, got)

	// Neither literal present: only the literal-free rule survives.
	got = p.candidates(map[string][]byte{"payload": []byte("nothing here")})
	assert.Equal(t, []int{2}, got)

	// Literals in a non-default buffer still count.
	got = p.candidates(map[string][]byte{"http.uri": []byte("beta")})
	assert.Equal(t, []int{1, 2}, got)
}

func compileRulesForPrefilter(t *testing.T) (*Engine, *compiler.Ruleset) {
	t.Helper()
	return compileRules(t,
		compiler.RuleDef{
			SID: 10, Msg: "alpha literal",
			Keywords: []compiler.KeywordUse{{Keyword: "content", Args: `"alpha"`}},
		},
		compiler.RuleDef{
			SID: 11, Msg: "beta literal",
			Keywords: []compiler.KeywordUse{{Keyword: "content", Args: `"beta"`}},
		},
		compiler.RuleDef{
			SID: 12, Msg: "no literal",
			Keywords: []compiler.KeywordUse{{Keyword: "byte_extract", Args: "1, 0, first"}},
		},
	)
}

func TestPrefilter_OverlappingLiteralsShareStart(t *testing.T) {
	// "GET /" starts at the same position as "GET /admin"; a leftmost
	// match kind would report only the longer pattern and drop the
	// shorter one's signature from the candidate set.
	_, rs := compileRules(t,
		compiler.RuleDef{
			SID: 30, Msg: "admin request",
			Keywords: []compiler.KeywordUse{{Keyword: "content", Args: `"GET /admin"`}},
		},
		compiler.RuleDef{
			SID: 31, Msg: "any get request",
			Keywords: []compiler.KeywordUse{{Keyword: "content", Args: `"GET /"`}},
		},
	)
	p := newPrefilter(rs.Signatures)

	got := p.candidates(map[string][]byte{"payload": []byte("GET /admin HTTP/1.1")})
	assert.Equal(t, []int{0, 1}, got)

	got = p.candidates(map[string][]byte{"payload": []byte("GET /index HTTP/1.1")})
	assert.Equal(t, []int{1}, got)
}

func TestInspect_PrefixShadowedLiteralStillMatches(t *testing.T) {
	e, _ := compileRules(t,
		compiler.RuleDef{
			SID: 40, Msg: "admin request",
			Keywords: []compiler.KeywordUse{{Keyword: "content", Args: `"GET /admin"`}},
		},
		compiler.RuleDef{
			SID: 41, Msg: "any get request",
			Keywords: []compiler.KeywordUse{{Keyword: "content", Args: `"GET /"`}},
		},
	)

	events := e.Inspect(Packet{
		ID:      "pkt-admin",
		Buffers: map[string][]byte{"payload": []byte("GET /admin HTTP/1.1")},
	})

	require.Len(t, events, 2)
	assert.Equal(t, uint32(40), events[0].SID)
	assert.Equal(t, uint32(41), events[1].SID)
}

func TestInspect_PrefilterSkipsAbsentLiterals(t *testing.T) {
	e, _ := compileRulesForPrefilter(t)

	events := e.Inspect(Packet{
		ID:      "pkt-alpha",
		Buffers: map[string][]byte{"payload": []byte("xx alpha yy")},
	})

	require.Len(t, events, 2)
	assert.Equal(t, uint32(10), events[0].SID)
	assert.Equal(t, uint32(12), events[1].SID)
}

func TestInspect_RecordsMetrics(t *testing.T) {
	promReg := prometheus.NewRegistry()
	reg := DefaultRegistry()
	rs, errs := compiler.New(reg).Compile([]compiler.RuleDef{{
		SID: 20, Msg: "literal",
		Keywords: []compiler.KeywordUse{{Keyword: "content", Args: `"hit"`}},
	}})
	require.Empty(t, errs)

	e := New(reg, rs, WithMetrics(observability.NewMetrics(promReg)))
	e.Inspect(Packet{ID: "p", Buffers: map[string][]byte{"payload": []byte("a hit b")}})

	n, err := promtestutil.GatherAndCount(promReg,
		"krait_packets_inspected_total", "krait_rule_matches_total", "krait_signatures_loaded")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.Len(t, a, 36)
	assert.Len(t, b, 36)
	assert.NotEqual(t, a, b)
}
