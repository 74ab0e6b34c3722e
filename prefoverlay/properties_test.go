package prefoverlay

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zclconf/go-cty/cty"
	"pgregory.net/rapid"
)

// Property tests for the overlay semantics, using generated preference
// documents.

var malformedLines = []string{
	`user_pref("x.y", 1`,
	`user_pref("x.y" true);`,
	`user_pref(x.y, 1);`,
	`user_pref("x.y", 1.5);`,
	`userpref("x.y", 1);`,
	`user_pref("x.y", maybe);`,
	`user_pref("unterminated, 1);`,
	`user_pref("x.y", 99999999999);`,
	`user_pref("x.y", 1) // no semicolon`,
	`user_pref("x.y", "\z");`,
}

func keyGen() *rapid.Generator[string] {
	return rapid.StringMatching(`[a-z][a-zA-Z0-9_-]{0,6}(\.[a-zA-Z0-9_-]{1,6}){0,3}`)
}

func valueGen() *rapid.Generator[cty.Value] {
	return rapid.OneOf(
		rapid.Map(rapid.Bool(), cty.BoolVal),
		rapid.Map(rapid.Int32(), func(n int32) cty.Value {
			return cty.NumberIntVal(int64(n))
		}),
		rapid.Map(rapid.String(), cty.StringVal),
	)
}

func commentLineGen() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.Just(""),
		rapid.StringMatching(`[ \t]{0,3}`),
		rapid.Map(rapid.StringMatching(`[ -~]{0,20}`), func(s string) string { return "// " + s }),
		rapid.Map(rapid.StringMatching(`[ -~]{0,20}`), func(s string) string { return "#" + s }),
		rapid.Map(rapid.StringMatching(`[a-z ]{0,20}`), func(s string) string { return "/* " + s + " */" }),
	)
}

type testEntry struct {
	key string
	val cty.Value
}

func entriesGen(keys []string) *rapid.Generator[[]testEntry] {
	return rapid.SliceOf(rapid.Custom(func(t *rapid.T) testEntry {
		return testEntry{
			key: rapid.SampledFrom(keys).Draw(t, "key"),
			val: valueGen().Draw(t, "val"),
		}
	}))
}

func statementLine(t *rapid.T, entry testEntry) string {
	line, err := FormatEntry(entry.key, entry.val)
	if err != nil {
		t.Fatalf("can't format generated entry: %s", err)
	}
	if rapid.Bool().Draw(t, "trailingComment") {
		line += " // note"
	}
	return line
}

// document builds a preference file from the given entries, interleaved with
// comments, blank lines and malformed lines. It returns the source and the
// number of malformed lines.
func document(t *rapid.T, entries []testEntry) (string, int) {
	var lines []string
	malformed := 0
	for _, entry := range entries {
		switch rapid.IntRange(0, 3).Draw(t, "filler") {
		case 1:
			lines = append(lines, commentLineGen().Draw(t, "comment"))
		case 2:
			lines = append(lines, rapid.SampledFrom(malformedLines).Draw(t, "malformed"))
			malformed++
		}
		lines = append(lines, statementLine(t, entry))
	}
	return strings.Join(lines, "\n"), malformed
}

func expectedPrefs(entries []testEntry) Prefs {
	ret := Prefs{}
	for _, entry := range entries {
		ret[entry.key] = entry.val
	}
	return ret
}

func TestPropertyDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfN(keyGen(), 1, 8).Draw(t, "keys")
		src, _ := document(t, entriesGen(keys).Draw(t, "entries"))

		f1, diags1 := NewParser().ParseSource([]byte(src), "a.js")
		f2, diags2 := NewParser().ParseSource([]byte(src), "a.js")
		if !Merge(f1).Equal(Merge(f2)) {
			t.Fatalf("parsing the same source twice gave different results")
		}
		if f1.Skipped != f2.Skipped || len(diags1) != len(diags2) {
			t.Fatalf("parsing the same source twice gave different diagnostics")
		}
	})
}

func TestPropertyLastWriteWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// A small key pool makes duplicates likely.
		keys := rapid.SliceOfN(keyGen(), 1, 3).Draw(t, "keys")
		entries := entriesGen(keys).Draw(t, "entries")

		// Split the entries over several sources to check that the order
		// carries across files too.
		split := rapid.IntRange(0, len(entries)).Draw(t, "split")
		p := NewParser()
		var overlays []Overlay
		for i, part := range [][]testEntry{entries[:split], entries[split:]} {
			var lines []string
			for _, entry := range part {
				lines = append(lines, statementLine(t, entry))
			}
			f, diags := p.ParseSource([]byte(strings.Join(lines, "\n")), []string{"a.js", "b.js"}[i])
			if len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %s", diags.Error())
			}
			overlays = append(overlays, f)
		}

		want := expectedPrefs(entries)
		if got := Merge(overlays...); !got.Equal(want) {
			t.Fatalf("wrong result\ngot:  %#v\nwant: %#v", got, want)
		}
	})
}

func TestPropertyMalformedLinesSkipped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		keys := rapid.SliceOfN(keyGen(), 1, 8).Draw(t, "keys")
		entries := entriesGen(keys).Draw(t, "entries")
		src, malformed := document(t, entries)

		f, diags := NewParser().ParseSource([]byte(src), "a.js")
		if diags.HasErrors() {
			t.Fatalf("unexpected errors: %s", diags.Error())
		}
		if f.Skipped != malformed || len(diags) != malformed {
			t.Fatalf("wrong skipped count %d (%d diagnostics); want %d", f.Skipped, len(diags), malformed)
		}
		if got, want := len(f.Entries), len(entries); got != want {
			t.Fatalf("wrong number of entries %d; want %d", got, want)
		}
		if got, want := Merge(f), expectedPrefs(entries); !got.Equal(want) {
			t.Fatalf("wrong result\ngot:  %#v\nwant: %#v", got, want)
		}
	})
}

func TestPropertyRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prefs := Prefs(rapid.MapOf(
			rapid.OneOf(keyGen(), rapid.StringN(1, 10, -1)),
			valueGen(),
		).Draw(t, "prefs"))

		var buf bytes.Buffer
		if err := WritePrefs(&buf, prefs); err != nil {
			t.Fatalf("can't write: %s", err)
		}
		f, diags := NewParser().ParseSource(buf.Bytes(), "written.js")
		if len(diags) != 0 {
			t.Fatalf("unexpected diagnostics: %s\n%s", diags.Error(), buf.String())
		}
		if got := Merge(f); !got.Equal(prefs) {
			t.Fatalf("round trip changed the preferences\ngot:  %#v\nwant: %#v", got, prefs)
		}
	})
}

func TestPropertyCommentsContributeNothing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOf(commentLineGen()).Draw(t, "lines")

		f, diags := NewParser().ParseSource([]byte(strings.Join(lines, "\n")), "comments.js")
		if len(diags) != 0 {
			t.Fatalf("unexpected diagnostics: %s", diags.Error())
		}
		if len(f.Entries) != 0 {
			t.Fatalf("comment-only source produced %d entries", len(f.Entries))
		}
	})
}
