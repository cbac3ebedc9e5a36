package xmlstream

import "testing"

type event struct {
	kind string // "text", "open", "close"
	val  string
}

func run(t *testing.T, whitelist []string, chunks []string) []event {
	t.Helper()
	var got []event
	p := New(whitelist)
	p.OnText = func(s string) { got = append(got, event{"text", s}) }
	p.OnOpenTag = func(name string) { got = append(got, event{"open", name}) }
	p.OnCloseTag = func(name string) { got = append(got, event{"close", name}) }
	for _, c := range chunks {
		p.Write(c)
	}
	p.Close()
	return got
}

func concatText(evs []event) string {
	out := ""
	for _, e := range evs {
		if e.kind == "text" {
			out += e.val
		}
	}
	return out
}

func TestPlainTextPassesThrough(t *testing.T) {
	evs := run(t, []string{"think"}, []string{"hello, world"})
	if concatText(evs) != "hello, world" {
		t.Fatalf("got %q", concatText(evs))
	}
	for _, e := range evs {
		if e.kind != "text" {
			t.Fatalf("unexpected event %+v", e)
		}
	}
}

func TestWhitelistedTagSplitsContent(t *testing.T) {
	evs := run(t, []string{"think"}, []string{"before<think>inner</think>after"})
	want := []event{
		{"text", "before"},
		{"open", "think"},
		{"text", "inner"},
		{"close", "think"},
		{"text", "after"},
	}
	// Text is emitted as it is fed, without buffering, so a run of text
	// arrives as several events; join adjacent ones before comparing.
	var merged []event
	for _, e := range evs {
		if n := len(merged); n > 0 && e.kind == "text" && merged[n-1].kind == "text" {
			merged[n-1].val += e.val
			continue
		}
		merged = append(merged, e)
	}
	if len(merged) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(merged), len(want), merged)
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Fatalf("event %d: got %+v, want %+v", i, merged[i], want[i])
		}
	}
}

func TestNonWhitelistedTagIsLiteralText(t *testing.T) {
	evs := run(t, []string{"think"}, []string{"a<b>c</b>d"})
	if got := concatText(evs); got != "a<b>c</b>d" {
		t.Fatalf("got %q", got)
	}
	for _, e := range evs {
		if e.kind != "text" {
			t.Fatalf("unexpected non-text event %+v", e)
		}
	}
}

func TestSelfClosingTagEmitsOpenThenClose(t *testing.T) {
	evs := run(t, []string{"br"}, []string{"x<br/>y"})
	want := []event{
		{"text", "x"},
		{"open", "br"},
		{"close", "br"},
		{"text", "y"},
	}
	if len(evs) != len(want) {
		t.Fatalf("got %+v", evs)
	}
	for i := range want {
		if evs[i] != want[i] {
			t.Fatalf("event %d: got %+v, want %+v", i, evs[i], want[i])
		}
	}
}

func TestArbitraryChunkBoundariesProduceSameResult(t *testing.T) {
	full := "pre<think>reasoning text</think>post"
	whole := run(t, []string{"think"}, []string{full})

	// Split into single-byte chunks.
	var byteChunks []string
	for _, r := range full {
		byteChunks = append(byteChunks, string(r))
	}
	split := run(t, []string{"think"}, byteChunks)

	if len(whole) != len(split) {
		t.Fatalf("event count mismatch: whole=%d split=%d", len(whole), len(split))
	}
	for i := range whole {
		if whole[i].kind != split[i].kind || whole[i].val != split[i].val {
			t.Fatalf("event %d differs: whole=%+v split=%+v", i, whole[i], split[i])
		}
	}

	// Split across the tag boundary itself.
	mid := run(t, []string{"think"}, []string{"pre<thi", "nk>reasoning", " text</th", "ink>post"})
	if len(mid) != len(whole) {
		t.Fatalf("mid-tag split event count mismatch: got %d want %d: %+v", len(mid), len(whole), mid)
	}
	for i := range whole {
		if whole[i] != mid[i] {
			t.Fatalf("mid-tag event %d: got %+v, want %+v", i, mid[i], whole[i])
		}
	}
}

func TestUnclosedAngleBracketAtEndFlushesLiterally(t *testing.T) {
	evs := run(t, []string{"think"}, []string{"trailing <"})
	if got := concatText(evs); got != "trailing <" {
		t.Fatalf("got %q", got)
	}
}

func TestMalformedTagDegradesToLiteralText(t *testing.T) {
	evs := run(t, []string{"think"}, []string{"a < b>c"})
	if got := concatText(evs); got != "a < b>c" {
		t.Fatalf("got %q", got)
	}
}

func TestEmptyWhitelistNeverRecognizesTags(t *testing.T) {
	evs := run(t, nil, []string{"<think>x</think>"})
	if got := concatText(evs); got != "<think>x</think>" {
		t.Fatalf("got %q", got)
	}
}
