/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server exposes the editor over a JSON HTTP API so that a browser
// canvas can drive it.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"pdfdesigner/internal/editor"
	applog "pdfdesigner/internal/log"
	"pdfdesigner/internal/storage"
)

// DefaultBodyLimit caps request bodies; image uploads are the large ones.
const DefaultBodyLimit = "16M"

// Options configures the HTTP surface. Zero values are usable.
type Options struct {
	BodyLimit      string
	RequestLogging bool
	// TemplatePath enables POST /api/save.
	TemplatePath string
	// Catalog enables the /api/templates routes.
	Catalog *storage.Catalog
}

// Handlers holds the dependencies of every route.
type Handlers struct {
	ed           *editor.Editor
	catalog      *storage.Catalog
	templatePath string
	log          *slog.Logger
}

// New builds an echo instance serving ed.
func New(ed *editor.Editor, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	SetupMiddleware(e, opts)
	RegisterRoutes(e, &Handlers{
		ed:           ed,
		catalog:      opts.Catalog,
		templatePath: opts.TemplatePath,
		log:          applog.WithComponent("server"),
	})
	return e
}

// SetupMiddleware installs recovery, request ids, logging and the body limit.
func SetupMiddleware(e *echo.Echo, opts Options) {
	limit := opts.BodyLimit
	if limit == "" {
		limit = DefaultBodyLimit
	}
	l := applog.WithComponent("http")

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			l.ErrorContext(c.Request().Context(), "handler panic",
				slog.String("err", err.Error()), slog.String("stack", string(stack)))
			return err
		},
	}))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			c.SetRequest(c.Request().WithContext(applog.ContextWithRequestID(c.Request().Context(), id)))
		},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return !opts.RequestLogging || c.Path() == "/health"
		},
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("err", v.Error.Error()))
			}
			l.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.BodyLimit(limit))
}

// RegisterRoutes wires every handler.
func RegisterRoutes(e *echo.Echo, h *Handlers) {
	e.GET("/health", h.HandleHealth)

	api := e.Group("/api")

	elements := api.Group("/elements")
	elements.GET("", h.HandleListElements)
	elements.POST("", h.HandleAddElement)
	elements.GET("/:id", h.HandleGetElement)
	elements.PATCH("/:id", h.HandleUpdateElement)
	elements.DELETE("/:id", h.HandleDeleteElement)
	elements.POST("/:id/reorder", h.HandleReorder)
	elements.POST("/:id/transform", h.HandleTransform)
	elements.POST("/:id/fields", h.HandleInsertField)

	api.PUT("/document", h.HandleReplaceDocument)
	api.GET("/document", h.HandleExportDocument)

	api.GET("/history", h.HandleHistory)
	api.POST("/history/undo", h.HandleUndo)
	api.POST("/history/redo", h.HandleRedo)

	api.GET("/selection", h.HandleGetSelection)
	api.PUT("/selection", h.HandleSetSelection)
	api.DELETE("/selection", h.HandleClearSelection)
	api.GET("/hit", h.HandleHit)

	api.POST("/images", h.HandleUploadImage)

	api.GET("/fields", h.HandleFields)
	api.GET("/offpage", h.HandleOffPage)
	api.POST("/compile", h.HandleCompile)
	api.POST("/export/pdf", h.HandleExportPDF)
	api.POST("/export/svg", h.HandleExportSVG)
	api.POST("/export/png", h.HandleExportPNG)

	if h.templatePath != "" {
		api.POST("/save", h.HandleSave)
	}
	if h.catalog != nil {
		templates := api.Group("/templates")
		templates.GET("", h.HandleListTemplates)
		templates.PUT("/:name", h.HandleSaveTemplate)
		templates.POST("/:name/open", h.HandleOpenTemplate)
		templates.DELETE("/:name", h.HandleDeleteTemplate)
	}
}

// Run serves e on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, addr string) error {
	s := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	errc := make(chan error, 1)
	go func() { errc <- e.StartServer(s) }()
	applog.WithComponent("server").Info("listening", slog.String("addr", addr))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
