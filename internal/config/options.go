package config

import (
	"strconv"
	"unicode/utf8"
)

// Options is a free-form option bag decoded from JSON.
//
// Accessors never fail: a missing key or a value of the wrong shape yields the
// caller's default. JSON numbers arrive as float64 and are converted.
type Options map[string]any

// Any returns the raw value stored under key, or nil.
func (o Options) Any(key string) any {
	if o == nil {
		return nil
	}
	return o[key]
}

// Bool returns a boolean option. "true"/"false" strings are accepted.
func (o Options) Bool(key string, def bool) bool {
	switch v := o.Any(key).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// String returns a string option.
func (o Options) String(key string, def string) string {
	if v, ok := o.Any(key).(string); ok {
		return v
	}
	return def
}

// Rune returns the first rune of a string option. "\t" and "tab" mean a tab.
func (o Options) Rune(key string, def rune) rune {
	s, ok := o.Any(key).(string)
	if !ok || s == "" {
		return def
	}
	if s == `\t` || s == "tab" {
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return def
	}
	return r
}
