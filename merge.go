package relay

import (
	"regexp"
	"strings"
)

var absoluteURLPattern = regexp.MustCompile(`^https?://`)

// Merge combines per-call options (target) with instance defaults (source).
//
// Keys present in target win unless both sides hold plain objects, which are
// merged recursively with the same precedence. Keys missing from target are
// copied from source. A non-empty string baseURL in source is consumed into
// target's url when that url is relative; it is never copied into the result
// on that path. Neither input is modified.
func Merge(target, source Config) Config {
	return merge(target, source, true)
}

func merge(target, source map[string]any, root bool) Config {
	res := make(Config, len(target)+len(source))
	for k, v := range target {
		res[k] = v
	}

	for k, sv := range source {
		if root && k == KeyBaseURL {
			if base, ok := sv.(string); ok && base != "" {
				applyBaseURL(res, base)
				continue
			}
		}

		if tv, exists := res[k]; exists {
			tm, tok := asPlainObject(tv)
			sm, sok := asPlainObject(sv)
			if tok && sok {
				res[k] = merge(tm, sm, false)
			}
			continue
		}

		res[k] = sv
	}

	return res
}

// applyBaseURL resolves res[url] against base. Absolute and missing urls are left alone.
func applyBaseURL(res Config, base string) {
	reqURL, ok := res[KeyURL].(string)
	if !ok || absoluteURLPattern.MatchString(reqURL) {
		return
	}

	path := stripLeadingNonWord(reqURL)
	if strings.HasSuffix(base, "/") {
		res[KeyURL] = base + path
		return
	}
	res[KeyURL] = joinNonEmpty("/", base, path)
}

func stripLeadingNonWord(s string) string {
	for i := 0; i < len(s); i++ {
		if isWordByte(s[i]) {
			return s[i:]
		}
	}
	return ""
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// asPlainObject reports whether v is a string-keyed object (Config or
// map[string]any). Slices, structs, pointers and other maps are not.
func asPlainObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case Config:
		return m, m != nil
	case map[string]any:
		return m, m != nil
	default:
		return nil, false
	}
}

func cloneConfig(cfg Config) Config {
	out := make(Config, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}

func without(cfg Config, keys ...string) Config {
	out := cloneConfig(cfg)
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
