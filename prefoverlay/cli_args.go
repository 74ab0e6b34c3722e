package prefoverlay

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// ParseCLIArgument expects a string consisting of a preference key, followed
// by an equals sign "=" and then a sequence of arbitrary characters.
//
// The part before the equals sign is the dot-separated key of the preference
// to set or override. The part after the equals sign is the value, written
// in the same literal syntax as in a preference file: true, false, an
// integer, or a quoted string. Anything that is not a valid literal is taken
// literally as a string, so that e.g. "network.proxy.socks=localhost" works
// without shell-unfriendly quoting.
//
// The result is an overlay that assigns the value to the key.
func ParseCLIArgument(raw string) (Overlay, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	eq := strings.IndexByte(raw, '=')
	if eq < 1 { // if the equals is missing or if it's at the start of the string
		diags = diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid argument",
			Detail:   fmt.Sprintf("Invalid argument %q: must be a preference key, followed by an equals sign, and then a value for that preference.", raw),
		})
		return nil, diags
	}
	key, val := raw[:eq], raw[eq+1:]

	for _, step := range strings.Split(key, ".") {
		if !validKeyStep(step) {
			diags = diags.Append(&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid argument",
				Detail:   fmt.Sprintf("Invalid component %q in preference key %q: dot-separated parts must be non-empty and may not contain spaces or quotes.", step, key),
			})
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	return &cliArgOverlay{
		key: key,
		val: parseCLIValue(val),
	}, nil
}

// ExtractCLIOptions interprets the given slice as a sequence of command
// line arguments and identifies any that have the conventional "--" prefix
// for named optional arguments followed by a dotted preference key, such as
// --browser.cache.disk.enable=false, and attempts to produce an overlay for
// each one using the behaviors described for ParseCLIArgument. Options whose
// names contain no dots are left alone.
//
// Additionally, if one of the arguments is literally "--" then
// ExtractCLIOptions will not interpret any subsequent arguments as overlays.
//
// ExtractCLIOptions returns a sequence of overlays and a new slice of strings
// that contains all of the arguments from the given slice that were not
// interpreted as overlays, so that they might be used for further command
// line processing.
func ExtractCLIOptions(args []string) ([]Overlay, []string, hcl.Diagnostics) {
	var remain []string
	var overlays []Overlay
	var diags hcl.Diagnostics

	for i, arg := range args {
		if arg == "--" {
			remain = append(remain, args[i:]...)
			break
		}
		if !strings.HasPrefix(arg, "--") {
			remain = append(remain, arg)
			continue
		}
		raw := arg[2:] // trim "--" prefix
		name := raw
		if eq := strings.IndexByte(name, '='); eq != -1 {
			name = name[:eq]
		}
		if !strings.Contains(name, ".") {
			remain = append(remain, arg)
			continue
		}
		o, moreDiags := ParseCLIArgument(raw)
		diags = append(diags, moreDiags...)
		if o != nil {
			overlays = append(overlays, o)
		}
	}

	return overlays, remain, diags
}

type cliArgOverlay struct {
	key string
	val cty.Value
}

func (o *cliArgOverlay) ApplyOverlay(store Store) {
	store.SetPref(o.key, o.val)
}

func parseCLIValue(raw string) cty.Value {
	var s scanner
	s.reset([]byte(raw))
	val, problem := s.value()
	if problem != "" {
		return cty.StringVal(raw)
	}
	s.skipTrivia()
	if !s.eof() {
		return cty.StringVal(raw)
	}
	return val
}

func validKeyStep(step string) bool {
	if step == "" {
		return false
	}
	return !strings.ContainsAny(step, " \t\r\n\"'=")
}
