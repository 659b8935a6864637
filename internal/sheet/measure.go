/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package sheet

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// TextMeasurer turns display strings into pixel widths for the constraint
// resolver's content-driven minimums (auto-fit, header widths). The face is
// injected by the host; the default basicfont face keeps measurements
// deterministic in headless builds and tests.
type TextMeasurer struct {
	face    font.Face
	padding int // horizontal cell padding applied on both sides
}

// NewTextMeasurer creates a measurer over the given face. A nil face falls
// back to basicfont.Face7x13.
func NewTextMeasurer(face font.Face, padding int) *TextMeasurer {
	if face == nil {
		face = basicfont.Face7x13
	}
	if padding < 0 {
		padding = 0
	}
	return &TextMeasurer{face: face, padding: padding}
}

// Width returns the pixel width needed to display s, padding included.
func (m *TextMeasurer) Width(s string) int {
	if s == "" {
		return 2 * m.padding
	}
	return font.MeasureString(m.face, s).Ceil() + 2*m.padding
}

// LineHeight returns the pixel height of one text line in the face.
func (m *TextMeasurer) LineHeight() int {
	met := m.face.Metrics()
	return (met.Ascent + met.Descent).Ceil()
}
