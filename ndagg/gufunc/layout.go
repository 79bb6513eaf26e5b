// Copyright 2025 go-ndagg Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gufunc

import (
	"fmt"
	"regexp"
	"strings"
)

// Layout is a parsed dimension layout such as "(a,b),()->()": one list of
// core dimension labels per input and per output.
type Layout struct {
	Inputs  [][]string
	Outputs [][]string
}

var (
	layoutPattern = regexp.MustCompile(`^(\(\w*(?:,\w+)*\)(?:,\(\w*(?:,\w+)*\))*)->(\(\w*(?:,\w+)*\))$`)
	groupPattern  = regexp.MustCompile(`\((\w*(?:,\w+)*)\)`)
)

// ParseLayout parses a layout string. Only single-output layouts are
// accepted, which covers every kernel shape ndagg builds.
func ParseLayout(s string) (Layout, error) {
	m := layoutPattern.FindStringSubmatch(strings.ReplaceAll(s, " ", ""))
	if m == nil {
		return Layout{}, fmt.Errorf("gufunc: invalid layout %q", s)
	}
	l := Layout{Inputs: groups(m[1]), Outputs: groups(m[2])}
	bound := map[string]bool{}
	for _, in := range l.Inputs {
		for _, d := range in {
			bound[d] = true
		}
	}
	for _, d := range l.Outputs[0] {
		if !bound[d] {
			return Layout{}, fmt.Errorf("gufunc: layout %q: output dimension %q does not appear in any input", s, d)
		}
	}
	return l, nil
}

func groups(s string) [][]string {
	var out [][]string
	for _, g := range groupPattern.FindAllStringSubmatch(s, -1) {
		if g[1] == "" {
			out = append(out, []string{})
			continue
		}
		out = append(out, strings.Split(g[1], ","))
	}
	return out
}

func (l Layout) String() string {
	render := func(gs [][]string) string {
		parts := make([]string, len(gs))
		for i, g := range gs {
			parts[i] = "(" + strings.Join(g, ",") + ")"
		}
		return strings.Join(parts, ",")
	}
	return render(l.Inputs) + "->" + render(l.Outputs)
}
