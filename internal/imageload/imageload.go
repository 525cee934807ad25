/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package imageload decodes user-supplied image blobs into embeddable data
// URIs, synchronously or in the background.
package imageload

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	applog "pdfdesigner/internal/log"
)

// ErrUnsupportedFormat is returned for blobs no registered decoder accepts.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Ref is an embeddable image reference.
type Ref struct {
	URI    string // data URI
	Format string // source format as reported by image.DecodeConfig
	Width  int    // pixels
	Height int
}

// passthrough formats are embedded as-is; everything else is re-encoded to
// PNG so PDF renderers can embed it.
var passthrough = map[string]string{"png": "image/png", "jpeg": "image/jpeg", "gif": "image/gif"}

// Decode validates blob and returns a data URI for it.
func Decode(blob []byte) (Ref, error) {
	if len(blob) == 0 {
		return Ref{}, fmt.Errorf("%w: empty blob", ErrUnsupportedFormat)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(blob))
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	ref := Ref{Format: format, Width: cfg.Width, Height: cfg.Height}
	if mime, ok := passthrough[format]; ok {
		ref.URI = dataURI(mime, blob)
		return ref, nil
	}
	img, _, err := image.Decode(bytes.NewReader(blob))
	if err != nil {
		return Ref{}, fmt.Errorf("decode %s: %w", format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Ref{}, fmt.Errorf("re-encode %s as png: %w", format, err)
	}
	ref.URI = dataURI("image/png", buf.Bytes())
	return ref, nil
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI splits a base64 data URI into its media type and payload.
func ParseDataURI(uri string) (mime string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data URI", ErrUnsupportedFormat)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("%w: data URI is not base64", ErrUnsupportedFormat)
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return strings.TrimSuffix(meta, ";base64"), data, nil
}

// Result is delivered once per started acquisition.
type Result struct {
	Ref Ref
	Err error
}

// Acquirer runs decodes in the background. Completions are delivered in
// completion order, not start order; callbacks run on the decoding goroutine.
// There is no cancellation.
type Acquirer struct {
	wg  sync.WaitGroup
	log *slog.Logger
}

func NewAcquirer() *Acquirer {
	return &Acquirer{log: applog.WithComponent("imageload")}
}

// Start decodes blob asynchronously and calls done with the outcome.
func (a *Acquirer) Start(blob []byte, done func(Result)) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ref, err := Decode(blob)
		if err != nil {
			a.log.Warn("image decode failed", slog.Int("bytes", len(blob)), slog.Any("err", err))
		} else {
			a.log.Debug("image decoded", slog.String("format", ref.Format), slog.Int("w", ref.Width), slog.Int("h", ref.Height))
		}
		done(Result{Ref: ref, Err: err})
	}()
}

// Wait blocks until every started acquisition has delivered its result.
func (a *Acquirer) Wait() { a.wg.Wait() }
