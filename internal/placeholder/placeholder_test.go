/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package placeholder

import (
	"reflect"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		text string
		ctx  Context
		want string
	}{
		{"no placeholders", Context{"a": "X"}, "no placeholders"},
		{"no placeholders", nil, "no placeholders"},
		{"{{a}}-{{b}}", Context{"a": "X"}, "X-"},
		{"{{name}}", Context{"name": "Ann"}, "Ann"},
		{"Hello {{ name }}!", Context{"name": "Ann"}, "Hello Ann!"},
		{"{{a}}{{a}}", Context{"a": "1"}, "11"},
		{"{{}}x", Context{"": "E"}, "Ex"},
		{"{{ unclosed", Context{"unclosed": "no"}, "{{ unclosed"},
		{"{{a}}}", Context{"a": "1"}, "1}"},
		// values are not re-scanned
		{"{{a}}", Context{"a": "{{b}}", "b": "no"}, "{{b}}"},
	}
	for _, tc := range tests {
		if got := Resolve(tc.text, tc.ctx); got != tc.want {
			t.Errorf("Resolve(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestKeysAndAppendField(t *testing.T) {
	got := Keys("{{b}} and {{ a }} and {{b}}")
	if !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("Keys = %v", got)
	}
	if Keys("plain") != nil {
		t.Fatalf("expected no keys for plain text")
	}
	if s := AppendField("Dear ", " name "); s != "Dear {{name}}" {
		t.Fatalf("AppendField = %q", s)
	}
}

func TestSampleDataCoversDefaultField(t *testing.T) {
	if Resolve("{{new_field}}", SampleData()) == "" {
		t.Fatalf("sample data should resolve the default text field")
	}
}

func TestParseContext(t *testing.T) {
	ctx, err := ParseContext([]byte(`{"name":"Ann","age":42,"vip":true,"none":null}`))
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	want := Context{"name": "Ann", "age": "42", "vip": "true", "none": ""}
	if !reflect.DeepEqual(ctx, want) {
		t.Fatalf("got %v, want %v", ctx, want)
	}
	ctx, err = ParseContext([]byte("name: Bob\norg_field: Acme\n"))
	if err != nil || ctx["name"] != "Bob" || ctx["org_field"] != "Acme" {
		t.Fatalf("yaml: %v %v", ctx, err)
	}
	if _, err := ParseContext([]byte("a:\n  b: c\n")); err == nil {
		t.Fatalf("expected nested value rejection")
	}
}
