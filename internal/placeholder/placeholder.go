/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package placeholder substitutes {{key}} markers in text with values from a
// data context.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Context maps placeholder keys to their values.
type Context map[string]string

// token matches the shortest {{...}} run, so adjacent markers stay separate.
var token = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Resolve replaces every {{key}} in text, left to right in one pass. Keys are
// trimmed of surrounding whitespace. Missing keys become the empty string.
// Text without markers is returned unchanged.
func Resolve(text string, ctx Context) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return token.ReplaceAllStringFunc(text, func(m string) string {
		key := strings.TrimSpace(m[2 : len(m)-2])
		return ctx[key]
	})
}

// Keys lists the distinct keys referenced by text in order of first use.
func Keys(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range token.FindAllStringSubmatch(text, -1) {
		k := strings.TrimSpace(m[1])
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// AppendField appends a {{key}} marker to content.
func AppendField(content, key string) string {
	return content + "{{" + strings.TrimSpace(key) + "}}"
}

// SampleData is the preview context used when no data is supplied.
func SampleData() Context {
	return Context{
		"new_field":  "Иван Иванов",
		"date_field": "10.07.2025",
		"org_field":  "ARta Group",
	}
}

// ParseContext decodes a flat mapping from JSON or YAML. Non-string scalar
// values are formatted with their natural text form.
func ParseContext(data []byte) (Context, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse data context: %w", err)
	}
	ctx := make(Context, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case nil:
			ctx[k] = ""
		case string:
			ctx[k] = tv
		case map[string]any, []any:
			return nil, fmt.Errorf("parse data context: key %q: nested values are not supported", k)
		default:
			ctx[k] = fmt.Sprint(tv)
		}
	}
	return ctx, nil
}
