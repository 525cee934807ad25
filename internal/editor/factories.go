/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"

	"pdfdesigner/internal/element"
	"pdfdesigner/internal/imageload"
)

// Defaults for newly created elements.
const (
	NewFieldContent = "{{new_field}}"
	textFontSize    = 18
	textStepY       = 40
	imageSize       = 150
)

// AddText adds a placeholder text field below the previous ones.
func (e *Editor) AddText() string {
	n := e.store.Len()
	return e.store.Add(element.Spec{
		X:     50,
		Y:     100 + float64(n*textStepY),
		Shape: &element.Text{Content: NewFieldContent, FontSize: textFontSize},
	})
}

func (e *Editor) AddRect() string {
	return e.store.Add(element.Spec{
		X: 100, Y: 100,
		Shape: &element.Rect{Width: 100, Height: 60, Fill: "#87ceeb", Stroke: element.Stroke{Color: "#000000", Width: 1}},
	})
}

func (e *Editor) AddCircle() string {
	return e.store.Add(element.Spec{
		X: 200, Y: 200,
		Shape: &element.Circle{Radius: 40, Fill: "#90ee90", Stroke: element.Stroke{Color: "#000000", Width: 1}},
	})
}

func (e *Editor) AddLine() string {
	return e.store.Add(element.Spec{
		Shape: &element.Line{Points: [4]float64{300, 300, 400, 300}, Stroke: element.Stroke{Color: "black", Width: 2}},
	})
}

// AddImage adds an image element for an already embeddable reference.
func (e *Editor) AddImage(src string) string {
	return e.store.Add(element.Spec{
		X: 100, Y: 100,
		Shape: &element.Image{Width: imageSize, Height: imageSize, Src: src},
	})
}

// ImageResult reports the outcome of AcquireImage. ID is empty on failure.
type ImageResult struct {
	ID  string
	Ref imageload.Ref
	Err error
}

// AcquireImage decodes blob in the background and, once done, adds an image
// element against whatever document is current at that moment. Concurrent
// acquisitions therefore commit in completion order. The returned channel
// receives exactly one result and is then closed.
func (e *Editor) AcquireImage(blob []byte) <-chan ImageResult {
	out := make(chan ImageResult, 1)
	e.acq.Start(blob, func(r imageload.Result) {
		defer close(out)
		if r.Err != nil {
			out <- ImageResult{Err: r.Err}
			return
		}
		id := e.AddImage(r.Ref.URI)
		e.log.Info("image added", slog.String("id", id), slog.String("format", r.Ref.Format))
		out <- ImageResult{ID: id, Ref: r.Ref}
	})
	return out
}

// Wait blocks until all started image acquisitions have committed.
func (e *Editor) Wait() { e.acq.Wait() }
