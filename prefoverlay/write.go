package prefoverlay

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// WritePrefs writes the given preferences to the given writer as a sequence
// of user_pref statements, one per line, ordered by key.
//
// The result can be read back by Parser to obtain the same preferences.
func WritePrefs(w io.Writer, prefs Prefs) error {
	bw := bufio.NewWriter(w)
	for _, key := range prefs.Keys() {
		line, err := FormatEntry(key, prefs[key])
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FormatEntry returns a user_pref statement that assigns the given value to
// the given key.
func FormatEntry(key string, val cty.Value) (string, error) {
	if key == "" {
		return "", fmt.Errorf("preference key must not be empty")
	}
	lit, err := FormatValue(val)
	if err != nil {
		return "", fmt.Errorf("invalid value for %q: %s", key, err)
	}
	return fmt.Sprintf("%s(%s, %s);", KindUser.FuncName(), quoteString(key), lit), nil
}

// FormatValue returns the literal syntax for the given value, which must be
// a known, non-null boolean, string, or whole number in the signed 32-bit
// range.
func FormatValue(val cty.Value) (string, error) {
	if val.IsNull() {
		return "", fmt.Errorf("value must not be null")
	}
	if !val.IsKnown() {
		return "", fmt.Errorf("value must be known")
	}

	switch ty := val.Type(); ty {
	case cty.Bool:
		if val.True() {
			return "true", nil
		}
		return "false", nil
	case cty.Number:
		n, acc := val.AsBigFloat().Int64()
		if acc != big.Exact || n < math.MinInt32 || n > math.MaxInt32 {
			return "", fmt.Errorf("number must be a whole number in the signed 32-bit range")
		}
		return strconv.FormatInt(n, 10), nil
	case cty.String:
		return quoteString(val.AsString()), nil
	default:
		return "", fmt.Errorf("value must be a bool, number, or string, not %s", ty.FriendlyName())
	}
}

func quoteString(s string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			buf.WriteString(`\\`)
		case '"':
			buf.WriteString(`\"`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&buf, `\x%02x`, r)
				continue
			}
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
	return buf.String()
}
