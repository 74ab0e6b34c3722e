// Package prefoverlay reads browser preference files (the "user.js" format,
// made of user_pref("some.key", value); statements) and applies them as
// overlays on top of a preference store.
//
// Each statement assigns a boolean, integer or string value to a
// dot-separated preference key. Files are applied in order and a later
// assignment to the same key replaces any earlier one, so the result of
// merging several files is the same as what the host browser would end up
// with after reading them one after another.
//
// Lines that do not match the statement grammar are skipped and reported as
// warning diagnostics, so a single typo never prevents the rest of a file
// from taking effect. See the documentation of Parser for the exact grammar.
package prefoverlay
