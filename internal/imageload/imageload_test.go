/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package imageload

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"golang.org/x/image/bmp"
)

func encode(t *testing.T, enc func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func pngBlob(t *testing.T) []byte {
	return encode(t, func(b *bytes.Buffer, img image.Image) error { return png.Encode(b, img) })
}

func TestDecodePNGPassthrough(t *testing.T) {
	blob := pngBlob(t)
	ref, err := Decode(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ref.Format != "png" || ref.Width != 3 || ref.Height != 2 || !strings.HasPrefix(ref.URI, "data:image/png;base64,") {
		t.Fatalf("unexpected ref %+v", ref)
	}
	mime, data, err := ParseDataURI(ref.URI)
	if err != nil || mime != "image/png" || !bytes.Equal(data, blob) {
		t.Fatalf("data uri round trip failed: %v %q", err, mime)
	}
}

func TestDecodeBMPReencodedAsPNG(t *testing.T) {
	blob := encode(t, func(b *bytes.Buffer, img image.Image) error { return bmp.Encode(b, img) })
	ref, err := Decode(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ref.Format != "bmp" || !strings.HasPrefix(ref.URI, "data:image/png;base64,") {
		t.Fatalf("expected bmp re-encoded as png, got %+v", ref.Format)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, blob := range [][]byte{nil, []byte("not an image")} {
		if _, err := Decode(blob); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
		}
	}
	if _, _, err := ParseDataURI("http://example.com/a.png"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for non data uri")
	}
}

func TestAcquirerDeliversEveryResult(t *testing.T) {
	a := NewAcquirer()
	var mu sync.Mutex
	var ok, failed int
	for i := 0; i < 4; i++ {
		blob := pngBlob(t)
		if i == 3 {
			blob = []byte("junk")
		}
		a.Start(blob, func(r Result) {
			mu.Lock()
			defer mu.Unlock()
			if r.Err != nil {
				failed++
			} else {
				ok++
			}
		})
	}
	a.Wait()
	if ok != 3 || failed != 1 {
		t.Fatalf("expected 3 ok and 1 failure, got %d/%d", ok, failed)
	}
}
