/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package compile

import (
	"encoding/json"
	"fmt"
)

type canvasItem struct {
	Type      string   `json:"type"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	W         *float64 `json:"w,omitempty"`
	H         *float64 `json:"h,omitempty"`
	R1        *float64 `json:"r1,omitempty"`
	R2        *float64 `json:"r2,omitempty"`
	X1        *float64 `json:"x1,omitempty"`
	Y1        *float64 `json:"y1,omitempty"`
	X2        *float64 `json:"x2,omitempty"`
	Y2        *float64 `json:"y2,omitempty"`
	Color     string   `json:"color,omitempty"`
	LineColor string   `json:"lineColor"`
	LineWidth float64  `json:"lineWidth"`
}

type canvasNode struct {
	ID       string       `json:"id"`
	Canvas   []canvasItem `json:"canvas"`
	Rotation float64      `json:"rotation,omitempty"`
	Origin   *Point       `json:"rotationOrigin,omitempty"`
}

type textNodeJSON struct {
	ID               string  `json:"id"`
	Text             string  `json:"text"`
	FontSize         float64 `json:"fontSize"`
	Bold             bool    `json:"bold"`
	AbsolutePosition Point   `json:"absolutePosition"`
	Rotation         float64 `json:"rotation,omitempty"`
}

type imageNodeJSON struct {
	ID               string  `json:"id"`
	Image            string  `json:"image"`
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	AbsolutePosition Point   `json:"absolutePosition"`
	Rotation         float64 `json:"rotation,omitempty"`
}

func f(v float64) *float64 { return &v }

func (n *TextNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(textNodeJSON{ID: n.ID, Text: n.Text, FontSize: n.FontSize, Bold: n.Bold, AbsolutePosition: n.Pos, Rotation: n.Rotation})
}

func (n *RectNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(canvasNode{ID: n.ID, Rotation: n.Rotation, Canvas: []canvasItem{{
		Type: "rect", X: f(n.Pos.X), Y: f(n.Pos.Y), W: f(n.W), H: f(n.H),
		Color: n.Color, LineColor: n.LineColor, LineWidth: n.LineWidth,
	}}})
}

func (n *EllipseNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(canvasNode{ID: n.ID, Rotation: n.Rotation, Canvas: []canvasItem{{
		Type: "ellipse", X: f(n.Center.X), Y: f(n.Center.Y), R1: f(n.R1), R2: f(n.R2),
		Color: n.Color, LineColor: n.LineColor, LineWidth: n.LineWidth,
	}}})
}

func (n *LineNode) MarshalJSON() ([]byte, error) {
	cn := canvasNode{ID: n.ID, Rotation: n.Rotation, Canvas: []canvasItem{{
		Type: "line", X1: f(n.From.X), Y1: f(n.From.Y), X2: f(n.To.X), Y2: f(n.To.Y),
		LineColor: n.LineColor, LineWidth: n.LineWidth,
	}}}
	if n.Rotation != 0 {
		o := n.Origin
		cn.Origin = &o
	}
	return json.Marshal(cn)
}

func (n *ImageNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(imageNodeJSON{ID: n.ID, Image: n.Src, Width: n.W, Height: n.H, AbsolutePosition: n.Pos, Rotation: n.Rotation})
}

// MarshalJSON writes {"content": [...]}.
func (t ContentTree) MarshalJSON() ([]byte, error) {
	content := make([]json.RawMessage, 0, len(t.Nodes))
	for _, n := range t.Nodes {
		b, err := json.Marshal(n)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ElementID(), err)
		}
		content = append(content, b)
	}
	return json.Marshal(struct {
		Content []json.RawMessage `json:"content"`
	}{content})
}
