package crates

import (
	"strconv"
	"strings"
)

// version is a parsed semantic version. Build metadata is ignored;
// pre-release tags only participate in ordering.
type version struct {
	major, minor, patch int
	pre                 string
}

func parseVersion(s string) (version, bool) {
	s, _, _ = strings.Cut(s, "+")
	core, pre, _ := strings.Cut(s, "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return version{}, false
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return version{}, false
		}
		nums[i] = n
	}
	return version{major: nums[0], minor: nums[1], patch: nums[2], pre: pre}, true
}

// compare orders versions; a pre-release sorts before its release.
func (v version) compare(o version) int {
	for _, d := range [3]int{v.major - o.major, v.minor - o.minor, v.patch - o.patch} {
		if d != 0 {
			return d
		}
	}
	switch {
	case v.pre == o.pre:
		return 0
	case v.pre == "":
		return 1
	case o.pre == "":
		return -1
	}
	return strings.Compare(v.pre, o.pre)
}

// reqPart is one comparator of a version requirement, with the number of
// components the user actually wrote (so "1.2" and "1.2.0" differ).
type reqPart struct {
	op       string
	major    int
	minor    int
	patch    int
	specced  int // how many of major/minor/patch were written
	pre      string
	wildcard bool // trailing `*` in place of a component
}

func parseReqPart(s string) (reqPart, bool) {
	s = strings.TrimSpace(s)
	part := reqPart{op: "^"}
	for _, op := range []string{">=", "<=", "^", "~", "=", ">", "<"} {
		if rest, ok := strings.CutPrefix(s, op); ok {
			part.op = op
			s = strings.TrimSpace(rest)
			break
		}
	}
	if s == "*" || s == "" {
		part.op = "*"
		return part, true
	}
	s, _, _ = strings.Cut(s, "+")
	core, pre, _ := strings.Cut(s, "-")
	part.pre = pre

	fields := []*int{&part.major, &part.minor, &part.patch}
	for i, comp := range strings.Split(core, ".") {
		if i >= len(fields) {
			return reqPart{}, false
		}
		if comp == "*" || comp == "x" || comp == "X" {
			part.wildcard = true
			break
		}
		n, err := strconv.Atoi(comp)
		if err != nil || n < 0 {
			return reqPart{}, false
		}
		*fields[i] = n
		part.specced = i + 1
	}
	if part.specced == 0 {
		return reqPart{}, false
	}
	return part, true
}

// base returns the comparator's version with unwritten components zeroed.
func (p reqPart) base() version {
	return version{major: p.major, minor: p.minor, patch: p.patch, pre: p.pre}
}

func (p reqPart) matches(v version) bool {
	// A pre-release only matches when the comparator names one for the
	// same version triple.
	if v.pre != "" && (p.pre == "" || p.base().major != v.major || p.base().minor != v.minor || p.base().patch != v.patch) {
		return false
	}

	if p.op == "*" {
		return true
	}
	// A trailing wildcard ("1.*", "1.2.*") pins the written components.
	if p.wildcard {
		return v.major == p.major && (p.specced < 2 || v.minor == p.minor)
	}

	switch p.op {
	case "=":
		if v.major != p.major {
			return false
		}
		if p.specced >= 2 && v.minor != p.minor {
			return false
		}
		if p.specced >= 3 && (v.patch != p.patch || v.pre != p.pre) {
			return false
		}
		return true
	case ">":
		return v.compare(p.base()) > 0
	case ">=":
		return v.compare(p.base()) >= 0
	case "<":
		return v.compare(p.base()) < 0
	case "<=":
		return v.compare(p.base()) <= 0
	case "~":
		if v.compare(p.base()) < 0 {
			return false
		}
		if p.specced >= 2 {
			return v.major == p.major && v.minor == p.minor
		}
		return v.major == p.major
	default: // caret, the cargo default for bare requirements
		if v.compare(p.base()) < 0 {
			return false
		}
		switch {
		case p.major > 0 || p.specced == 1:
			return v.major == p.major
		case p.minor > 0 || p.specced == 2:
			return v.major == 0 && v.minor == p.minor
		default:
			return v.major == 0 && v.minor == 0 && v.patch == p.patch
		}
	}
}

// matchesReq reports whether ver satisfies the comma-separated cargo
// version requirement req. An empty requirement matches everything; a
// malformed requirement matches nothing.
func matchesReq(ver, req string) bool {
	v, ok := parseVersion(ver)
	if !ok {
		return false
	}
	req = strings.TrimSpace(req)
	if req == "" {
		return true
	}
	for _, s := range strings.Split(req, ",") {
		p, ok := parseReqPart(s)
		if !ok || !p.matches(v) {
			return false
		}
	}
	return true
}

// newerVersion reports whether a is a newer version than b. Unparseable
// versions sort last.
func newerVersion(a, b string) bool {
	va, okA := parseVersion(a)
	vb, okB := parseVersion(b)
	if !okA || !okB {
		return okA
	}
	return va.compare(vb) > 0
}
