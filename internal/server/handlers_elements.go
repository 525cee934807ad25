/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"pdfdesigner/internal/element"
	"pdfdesigner/internal/transform"
	"pdfdesigner/internal/version"
)

// MIMEMsgpack is served by GET /api/elements?format=msgpack.
const MIMEMsgpack = "application/msgpack"

// HandleHealth reports liveness and the build version.
func (h *Handlers) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"version":  version.String(),
		"elements": h.ed.Store().Len(),
	})
}

func wantsMsgpack(c echo.Context) bool {
	if c.QueryParam("format") == "msgpack" {
		return true
	}
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, MIMEMsgpack) || strings.Contains(accept, "application/x-msgpack")
}

// HandleListElements returns the document in paint order.
func (h *Handlers) HandleListElements(c echo.Context) error {
	doc := h.ed.Elements()
	if wantsMsgpack(c) {
		b, err := element.EncodeMsgpack(doc)
		if err != nil {
			return NewInternalError("failed to encode elements", err)
		}
		return c.Blob(http.StatusOK, MIMEMsgpack, b)
	}
	return c.JSON(http.StatusOK, doc)
}

// HandleAddElement adds an element from a wire record. Any id in the body is
// ignored; the store assigns one.
func (h *Handlers) HandleAddElement(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewBadRequestError("failed to read body", err)
	}
	var el element.Element
	if err := json.Unmarshal(body, &el); err != nil {
		return err
	}
	if !el.Kind().Known() {
		return NewValidationError("type")
	}
	probe := el
	probe.ID = "new"
	if err := probe.Validate(); err != nil {
		return err
	}
	var z struct {
		ZIndex *int `json:"zIndex"`
	}
	_ = json.Unmarshal(body, &z)

	id := h.ed.Add(element.Spec{X: el.X, Y: el.Y, Z: z.ZIndex, Rotation: el.Rotation, Shape: el.Shape})
	added, err := h.ed.Get(id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, added)
}

// HandleGetElement returns one element.
func (h *Handlers) HandleGetElement(c echo.Context) error {
	el, err := h.ed.Get(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, el)
}

// HandleUpdateElement merges a partial record into an element.
func (h *Handlers) HandleUpdateElement(c echo.Context) error {
	var patch element.Patch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid patch", err)
	}
	el, err := h.ed.Update(c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, el)
}

// HandleDeleteElement removes an element. Unknown ids are not an error.
func (h *Handlers) HandleDeleteElement(c echo.Context) error {
	h.ed.Remove(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

type reorderRequest struct {
	Delta int `json:"delta"`
}

// HandleReorder shifts an element's z-order.
func (h *Handlers) HandleReorder(c echo.Context) error {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid reorder request", err)
	}
	h.ed.Reorder(c.Param("id"), req.Delta)
	return c.NoContent(http.StatusNoContent)
}

// HandleTransform commits the end of a move/resize/rotate gesture. A gesture
// on an element that no longer exists is dropped with 204.
func (h *Handlers) HandleTransform(c echo.Context) error {
	var g transform.Gesture
	if err := c.Bind(&g); err != nil {
		return NewBadRequestError("invalid gesture", err)
	}
	g.ID = c.Param("id")
	el, applied, err := h.ed.Transform(g)
	if err != nil {
		return err
	}
	if !applied {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, el)
}

type fieldRequest struct {
	Key string `json:"key"`
}

// HandleInsertField appends a {{key}} token to a text element.
func (h *Handlers) HandleInsertField(c echo.Context) error {
	var req fieldRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid field request", err)
	}
	if strings.TrimSpace(req.Key) == "" {
		return NewValidationError("key")
	}
	el, err := h.ed.InsertField(c.Param("id"), req.Key)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, el)
}

// HandleReplaceDocument replaces the whole element list from JSON.
func (h *Handlers) HandleReplaceDocument(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewBadRequestError("failed to read body", err)
	}
	if err := h.ed.ImportJSON(body); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"elements": h.ed.Store().Len()})
}

// HandleExportDocument returns the element list in its wire format.
func (h *Handlers) HandleExportDocument(c echo.Context) error {
	b, err := h.ed.ExportJSON()
	if err != nil {
		return NewInternalError("failed to encode document", err)
	}
	return c.JSONBlob(http.StatusOK, b)
}

type historyResponse struct {
	Applied *bool `json:"applied,omitempty"`
	Undo    int   `json:"undo"`
	Redo    int   `json:"redo"`
}

func (h *Handlers) historyState(applied *bool) historyResponse {
	u, r := h.ed.Store().History().Stats()
	return historyResponse{Applied: applied, Undo: u, Redo: r}
}

// HandleHistory reports undo and redo depth.
func (h *Handlers) HandleHistory(c echo.Context) error {
	return c.JSON(http.StatusOK, h.historyState(nil))
}

// HandleUndo steps back once. An empty history is not an error.
func (h *Handlers) HandleUndo(c echo.Context) error {
	ok := h.ed.Undo()
	return c.JSON(http.StatusOK, h.historyState(&ok))
}

// HandleRedo steps forward once.
func (h *Handlers) HandleRedo(c echo.Context) error {
	ok := h.ed.Redo()
	return c.JSON(http.StatusOK, h.historyState(&ok))
}

type selectionBody struct {
	ID       string `json:"id"`
	Selected bool   `json:"selected"`
}

// HandleGetSelection returns the selected element id, if any.
func (h *Handlers) HandleGetSelection(c echo.Context) error {
	id, ok := h.ed.Selection().Get()
	return c.JSON(http.StatusOK, selectionBody{ID: id, Selected: ok})
}

// HandleSetSelection selects an existing element.
func (h *Handlers) HandleSetSelection(c echo.Context) error {
	var req selectionBody
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid selection request", err)
	}
	if req.ID == "" {
		return NewValidationError("id")
	}
	if _, err := h.ed.Get(req.ID); err != nil {
		return err
	}
	h.ed.Selection().Set(req.ID)
	return c.JSON(http.StatusOK, selectionBody{ID: req.ID, Selected: true})
}

// HandleClearSelection deselects.
func (h *Handlers) HandleClearSelection(c echo.Context) error {
	h.ed.Selection().Clear()
	return c.NoContent(http.StatusNoContent)
}

// HandleHit selects the topmost element under ?x=&y=, clearing the
// selection when the point is empty.
func (h *Handlers) HandleHit(c echo.Context) error {
	var x, y float64
	if err := echo.QueryParamsBinder(c).
		MustFloat64("x", &x).
		MustFloat64("y", &y).
		BindError(); err != nil {
		return NewBadRequestError("x and y must be numbers", err)
	}
	id, ok := h.ed.SelectAt(x, y)
	return c.JSON(http.StatusOK, selectionBody{ID: id, Selected: ok})
}

// HandleUploadImage starts decoding an uploaded image. The element is added
// when decoding finishes, so the response only acknowledges the upload.
func (h *Handlers) HandleUploadImage(c echo.Context) error {
	var blob []byte
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		file, err := c.FormFile("file")
		if err != nil {
			return NewBadRequestError("no file provided", err)
		}
		src, err := file.Open()
		if err != nil {
			return NewInternalError("failed to open uploaded file", err)
		}
		defer src.Close()
		if blob, err = io.ReadAll(src); err != nil {
			return NewBadRequestError("failed to read uploaded file", err)
		}
	} else {
		var err error
		if blob, err = io.ReadAll(c.Request().Body); err != nil {
			return NewBadRequestError("failed to read body", err)
		}
	}
	if len(blob) == 0 {
		return NewValidationError("file")
	}
	h.ed.AcquireImage(blob)
	h.log.InfoContext(c.Request().Context(), "image upload accepted", slog.Int("bytes", len(blob)))
	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"status": "accepted",
		"bytes":  len(blob),
	})
}
