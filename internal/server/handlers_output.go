/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"pdfdesigner/internal/placeholder"
)

// compileRequest carries the placeholder values. A missing context compiles
// against the editor's sample data.
type compileRequest struct {
	Context placeholder.Context `json:"context"`
}

func bindContext(c echo.Context) (placeholder.Context, error) {
	var req compileRequest
	if err := c.Bind(&req); err != nil {
		return nil, NewBadRequestError("invalid compile request", err)
	}
	return req.Context, nil
}

// HandleCompile returns the content tree for the current document.
func (h *Handlers) HandleCompile(c echo.Context) error {
	ctx, err := bindContext(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.ed.Compile(ctx))
}

// HandleFields lists the placeholder keys the document uses.
func (h *Handlers) HandleFields(c echo.Context) error {
	keys := h.ed.Fields()
	if keys == nil {
		keys = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"fields": keys})
}

// HandleOffPage lists elements that extend past the page.
func (h *Handlers) HandleOffPage(c echo.Context) error {
	ids := h.ed.OffPage()
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ids": ids})
}

type exportFunc func(w io.Writer, ctx placeholder.Context) error

func (h *Handlers) export(c echo.Context, format, mime string, fn exportFunc) error {
	ctx, err := bindContext(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := fn(&buf, ctx); err != nil {
		return NewInternalError("failed to export "+format, err)
	}
	h.log.InfoContext(c.Request().Context(), "exported",
		slog.String("format", format), slog.Int("bytes", buf.Len()))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="template.`+format+`"`)
	return c.Blob(http.StatusOK, mime, buf.Bytes())
}

// HandleExportPDF renders the document to PDF.
func (h *Handlers) HandleExportPDF(c echo.Context) error {
	return h.export(c, "pdf", "application/pdf", h.ed.ExportPDF)
}

// HandleExportSVG renders the document to SVG.
func (h *Handlers) HandleExportSVG(c echo.Context) error {
	return h.export(c, "svg", "image/svg+xml", h.ed.ExportSVG)
}

// HandleExportPNG renders a raster preview.
func (h *Handlers) HandleExportPNG(c echo.Context) error {
	return h.export(c, "png", "image/png", h.ed.ExportPNG)
}
