/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfdesigner/internal/compile"
	"pdfdesigner/internal/element"
	"pdfdesigner/internal/imageload"
	"pdfdesigner/internal/placeholder"
	"pdfdesigner/internal/store"
	"pdfdesigner/internal/transform"
)

func pngBlob(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))))
	return buf.Bytes()
}

func TestFactoriesUseEditorDefaults(t *testing.T) {
	ed := New(Options{})
	rect := ed.AddRect()
	text := ed.AddText()
	circle := ed.AddCircle()
	line := ed.AddLine()
	assert.Equal(t, []string{"rect-1", "text-1", "circle-1", "line-1"}, []string{rect, text, circle, line})

	el, err := ed.Get(text)
	require.NoError(t, err)
	assert.Equal(t, 50.0, el.X)
	assert.Equal(t, 140.0, el.Y, "second element goes one step lower")
	assert.Equal(t, 1, el.Z)
	assert.Equal(t, &element.Text{Content: "{{new_field}}", FontSize: 18}, el.Shape)

	el, _ = ed.Get(rect)
	assert.Equal(t, &element.Rect{Width: 100, Height: 60, Fill: "#87ceeb", Stroke: element.Stroke{Color: "#000000", Width: 1}}, el.Shape)
	el, _ = ed.Get(circle)
	assert.Equal(t, 200.0, el.X)
	assert.Equal(t, 40.0, el.Shape.(*element.Circle).Radius)
	el, _ = ed.Get(line)
	assert.Equal(t, [4]float64{300, 300, 400, 300}, el.Shape.(*element.Line).Points)
	assert.Equal(t, 3, el.Z)
}

func TestCompileResolvesAgainstContextOrSampleData(t *testing.T) {
	ed := New(Options{})
	ed.Add(element.Spec{Shape: &element.Text{Content: "{{name}}"}})
	tree := ed.Compile(placeholder.Context{"name": "Ann"})
	require.Equal(t, 1, tree.Len())
	node, ok := tree.Nodes[0].(*compile.TextNode)
	require.True(t, ok)
	assert.Equal(t, "Ann", node.Text)
	assert.Equal(t, 12.0, node.FontSize)

	id := ed.AddText()
	_, err := ed.Update(id, element.Patch{Content: element.Ptr("{{org_field}}")})
	require.NoError(t, err)
	tree = ed.Compile(nil)
	assert.Equal(t, "ARta Group", tree.Nodes[1].(*compile.TextNode).Text)
}

func TestTransformIsOneHistoryEntry(t *testing.T) {
	ed := New(Options{})
	id := ed.Add(element.Spec{X: 100, Y: 100, Shape: &element.Rect{Width: 100, Height: 60, Fill: "#87ceeb"}})

	updated, ok, err := ed.Transform(transform.Gesture{ID: id, X: 110, Y: 120, ScaleX: 2, ScaleY: 1.5})
	require.NoError(t, err)
	require.True(t, ok)
	r := updated.Shape.(*element.Rect)
	assert.Equal(t, 200.0, r.Width)
	assert.Equal(t, 90.0, r.Height)

	require.True(t, ed.Undo())
	el, _ := ed.Get(id)
	assert.Equal(t, 100.0, el.Shape.(*element.Rect).Width)
	assert.Equal(t, 60.0, el.Shape.(*element.Rect).Height)
	assert.Equal(t, 100.0, el.X)

	_, ok, err = ed.Transform(transform.Gesture{ID: "rect-42", ScaleX: 3})
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestInsertField(t *testing.T) {
	ed := New(Options{})
	id := ed.AddText()
	el, err := ed.InsertField(id, " date_field ")
	require.NoError(t, err)
	assert.Equal(t, "{{new_field}}{{date_field}}", el.Shape.(*element.Text).Content)
	assert.Equal(t, []string{"new_field", "date_field"}, ed.Fields())

	rect := ed.AddRect()
	_, err = ed.InsertField(rect, "x")
	assert.ErrorIs(t, err, element.ErrInvalid)
	_, err = ed.InsertField("text-9", "x")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = ed.InsertField(id, "  ")
	assert.ErrorIs(t, err, element.ErrInvalid)
}

func TestSelectAtAndDeleteSelected(t *testing.T) {
	ed := New(Options{})
	ed.AddRect()
	circle := ed.AddCircle()

	id, ok := ed.SelectAt(200, 200)
	require.True(t, ok)
	assert.Equal(t, circle, id)
	// corner of the circle's bounding box is outside the ellipse
	_, ok = ed.ElementAt(161, 161)
	assert.False(t, ok)

	assert.True(t, ed.DeleteSelected())
	_, err := ed.Get(circle)
	assert.True(t, errors.Is(err, store.ErrNotFound))
	_, selected := ed.Selection().Get()
	assert.False(t, selected)
	assert.False(t, ed.DeleteSelected())

	ed.SelectAt(150, 130)
	_, selected = ed.Selection().Get()
	assert.True(t, selected)
	ed.SelectAt(590, 830)
	_, selected = ed.Selection().Get()
	assert.False(t, selected)
}

func TestAcquireImageAddsOnCompletion(t *testing.T) {
	ed := New(Options{})
	res := <-ed.AcquireImage(pngBlob(t))
	require.NoError(t, res.Err)
	assert.Equal(t, "image-1", res.ID)
	assert.Equal(t, 3, res.Ref.Width)

	el, err := ed.Get(res.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, el.X)
	img := el.Shape.(*element.Image)
	assert.Equal(t, 150.0, img.Width)
	assert.True(t, strings.HasPrefix(img.Src, "data:image/png;base64,"))

	res = <-ed.AcquireImage([]byte("not an image"))
	assert.ErrorIs(t, res.Err, imageload.ErrUnsupportedFormat)
	assert.Empty(t, res.ID)
	assert.Equal(t, 1, ed.Store().Len())
}

func TestConcurrentAcquisitionsEachCommit(t *testing.T) {
	ed := New(Options{})
	blob := pngBlob(t)
	for i := 0; i < 5; i++ {
		ed.AcquireImage(blob)
	}
	ed.Wait()
	assert.Equal(t, 5, ed.Store().Len())
	undo, _ := ed.Store().History().Stats()
	assert.Equal(t, 5, undo)
}

func TestJSONRoundTripKeepsUnknownKinds(t *testing.T) {
	ed := New(Options{})
	ed.AddText()
	ed.AddLine()
	data, err := ed.ExportJSON()
	require.NoError(t, err)
	require.NoError(t, element.ValidateJSON(data))

	withStar := strings.Replace(string(data), "[", `[{"id":"star-1","type":"star","x":1,"y":1,"zIndex":5,"spikes":5},`, 1)
	other := New(Options{})
	require.NoError(t, other.ImportJSON([]byte(withStar)))
	assert.Equal(t, []string{"text-1", "line-1", "star-1"}, other.Elements().IDs())

	tree := other.Compile(nil)
	assert.Equal(t, 2, tree.Len())
	assert.Equal(t, []string{"star-1"}, tree.Skipped)

	assert.Error(t, other.ImportJSON([]byte(`[{"id":"r","type":"rect","x":0,"y":0}]`)))
	assert.Equal(t, 3, other.Store().Len(), "failed import leaves the document alone")
	require.True(t, other.Undo())
	assert.Equal(t, 0, other.Store().Len())
}

func TestExportsAndOffPage(t *testing.T) {
	ed := New(Options{PreviewDPI: 36})
	ed.AddText()
	rect := ed.AddRect()
	assert.Empty(t, ed.OffPage())
	_, err := ed.Update(rect, element.Patch{X: element.Ptr(560.0)})
	require.NoError(t, err)
	assert.Equal(t, []string{rect}, ed.OffPage())

	var pdf, svg, pngOut bytes.Buffer
	require.NoError(t, ed.ExportPDF(&pdf, nil))
	assert.True(t, bytes.HasPrefix(pdf.Bytes(), []byte("%PDF-")))
	require.NoError(t, ed.ExportSVG(&svg, placeholder.Context{"new_field": "Ann"}))
	assert.Contains(t, svg.String(), ">Ann</text>")
	require.NoError(t, ed.ExportPNG(&pngOut, nil))
	cfg, err := png.DecodeConfig(&pngOut)
	require.NoError(t, err)
	assert.Equal(t, 298, cfg.Width)
}

func TestHistoryDepthOption(t *testing.T) {
	ed := New(Options{HistoryMaxDepth: 2})
	for i := 0; i < 4; i++ {
		ed.AddRect()
	}
	assert.True(t, ed.Undo())
	assert.True(t, ed.Undo())
	assert.False(t, ed.Undo())
	assert.Equal(t, 2, ed.Store().Len())
}
