/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"strings"
	"testing"
)

func TestManifestConformsToSchema(t *testing.T) {
	root := t.TempDir()
	h, err := InitDataset(root, minimalDataset())
	if err != nil {
		t.Fatalf("InitDataset: %v", err)
	}
	b, err := os.ReadFile(h.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if err := ValidateManifest(b); err != nil {
		t.Fatalf("written manifest must validate: %v", err)
	}
}

func TestValidateManifestViolations(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"missing name", `{"variables":[]}`, "name"},
		{"bad variable name", `{"name":"x","variables":[{"name":"no spaces","kind":0,"measure":0}]}`, "variables"},
		{"kind out of range", `{"name":"x","variables":[{"name":"v","kind":9,"measure":0}]}`, "kind"},
		{"unknown field", `{"name":"x","variables":[],"weird":true}`, "weird"},
	}
	for _, tc := range cases {
		err := ValidateManifest([]byte(tc.doc))
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}
