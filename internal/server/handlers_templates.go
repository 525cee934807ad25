/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	applog "pdfdesigner/internal/log"
	"pdfdesigner/internal/storage"
)

// HandleSave writes the document to the template file the server was started
// with.
func (h *Handlers) HandleSave(c echo.Context) error {
	ctx := applog.ContextWithTemplate(c.Request().Context(), h.templatePath)
	if err := storage.SaveTemplate(h.templatePath, h.ed.Elements()); err != nil {
		return NewInternalError("failed to save template", err)
	}
	h.log.InfoContext(ctx, "template saved")
	return c.JSON(http.StatusOK, map[string]interface{}{"path": h.templatePath})
}

// HandleListTemplates lists the catalog.
func (h *Handlers) HandleListTemplates(c echo.Context) error {
	entries, err := h.catalog.List(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list templates", err)
	}
	if entries == nil {
		entries = []storage.CatalogEntry{}
	}
	return c.JSON(http.StatusOK, entries)
}

// HandleSaveTemplate stores the current document under :name.
func (h *Handlers) HandleSaveTemplate(c echo.Context) error {
	name := c.Param("name")
	ctx := applog.ContextWithTemplate(c.Request().Context(), name)
	entry, err := h.catalog.Save(ctx, name, h.ed.Elements())
	if err != nil {
		return NewInternalError("failed to save template", err)
	}
	h.log.InfoContext(ctx, "template stored in catalog", slog.Int("elements", entry.Elements))
	return c.JSON(http.StatusOK, entry)
}

// HandleOpenTemplate replaces the document with the catalog entry :name as
// one undoable step.
func (h *Handlers) HandleOpenTemplate(c echo.Context) error {
	name := c.Param("name")
	ctx := applog.ContextWithTemplate(c.Request().Context(), name)
	doc, entry, err := h.catalog.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := h.ed.Store().Replace(doc); err != nil {
		return err
	}
	h.log.InfoContext(ctx, "template opened from catalog", slog.Int("elements", len(doc)))
	return c.JSON(http.StatusOK, entry)
}

// HandleDeleteTemplate removes :name from the catalog.
func (h *Handlers) HandleDeleteTemplate(c echo.Context) error {
	if err := h.catalog.Delete(c.Request().Context(), c.Param("name")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
