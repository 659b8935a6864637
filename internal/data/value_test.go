/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package data

import (
	"testing"
	"time"
)

func TestNumericCodecRoundTrip(t *testing.T) {
	c := NumericCodec{Decimals: 2}
	for _, f := range []float64{0, 1.5, -3.25, 12345.67} {
		got, err := c.Parse(c.Format(f))
		if err != nil {
			t.Fatalf("Parse(Format(%v)): %v", f, err)
		}
		if got != f {
			t.Fatalf("round trip %v = %v", f, got)
		}
	}
	if got := c.Format(1.5); got != "1.50" {
		t.Fatalf("Format(1.5) = %q", got)
	}
	if got := c.Format(nil); got != "" {
		t.Fatalf("missing must format blank, got %q", got)
	}
}

func TestNumericCodecParse(t *testing.T) {
	c := NumericCodec{Decimals: 1}
	v, err := c.Parse("  3.5 ")
	if err != nil || v != 3.5 {
		t.Fatalf("Parse(' 3.5 ') = %v, %v", v, err)
	}
	v, err = c.Parse("")
	if err != nil || v != nil {
		t.Fatalf("blank must parse to missing, got %v, %v", v, err)
	}
	if _, err := c.Parse("abc"); err == nil {
		t.Fatalf("expected parse failure")
	}
}

func TestStringCodecTruncatesToWidth(t *testing.T) {
	c := StringCodec{Width: 4}
	v, err := c.Parse("hello")
	if err != nil || v != "hell" {
		t.Fatalf("Parse = %v, %v", v, err)
	}
	// Rune-wise, not byte-wise.
	v, err = c.Parse("äöüßx")
	if err != nil || v != "äöüß" {
		t.Fatalf("Parse umlauts = %v, %v", v, err)
	}
	if got := c.Format("hi"); got != "hi" {
		t.Fatalf("Format = %q", got)
	}
}

func TestDateCodec(t *testing.T) {
	c := DateCodec{}
	d := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)
	if got := c.Format(d); got != "2024-03-17" {
		t.Fatalf("Format = %q", got)
	}
	v, err := c.Parse("2024-03-17")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !v.(time.Time).Equal(d) {
		t.Fatalf("Parse = %v", v)
	}
	// Fallback spelling.
	v, err = c.Parse("17.03.2024")
	if err != nil || !v.(time.Time).Equal(d) {
		t.Fatalf("Parse fallback = %v, %v", v, err)
	}
	if _, err := c.Parse("yesterday"); err == nil {
		t.Fatalf("expected parse failure")
	}
}

func TestKindAndMeasureNames(t *testing.T) {
	for _, k := range []Kind{Numeric, String, Date} {
		back, err := ParseKind(k.String())
		if err != nil || back != k {
			t.Fatalf("ParseKind(%s) = %v, %v", k, back, err)
		}
	}
	for _, m := range []Measure{MeasureNominal, MeasureOrdinal, MeasureScale} {
		back, err := ParseMeasure(m.String())
		if err != nil || back != m {
			t.Fatalf("ParseMeasure(%s) = %v, %v", m, back, err)
		}
	}
	if _, err := ParseKind("blob"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
