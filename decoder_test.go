package pngpnm

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// encodeScanlines builds a PNG around already filtered scanlines.
func encodeScanlines(t *testing.T, width, height uint32, colorType uint8, pal []byte, scanlines []byte) []byte {
	t.Helper()
	chunks := [][]byte{rawChunk("IHDR", ihdrData(width, height, 8, colorType, itNone))}
	if pal != nil {
		chunks = append(chunks, rawChunk("PLTE", pal))
	}
	chunks = append(chunks,
		rawChunk("IDAT", zlibCompress(t, scanlines)),
		rawChunk("IEND", nil),
	)
	return buildPNG(chunks...)
}

func TestConvert_TrueColor(t *testing.T) {
	raw := gradientBytes(8, 8, 3)
	png := encodeScanlines(t, 8, 8, ctTrueColor, nil, filterRows(raw, 24, 3, []byte{ftNone}))

	var out bytes.Buffer
	if err := Convert(bytes.NewReader(png), &out, nil); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	want := append([]byte("P6\n8 8\n255\n"), raw...)
	if !bytes.Equal(out.Bytes(), want) {
		t.Errorf("Expected %d bytes of P6, got %q...", len(want), out.Bytes()[:min(out.Len(), 16)])
	}
}

func TestConvert_IndexedGrayPalette(t *testing.T) {
	scanlines := []byte{
		ftNone, 0, 1,
		ftNone, 1, 0,
	}
	png := encodeScanlines(t, 2, 2, ctPaletted, []byte{0, 0, 0, 255, 255, 255}, scanlines)

	var out bytes.Buffer
	if err := Convert(bytes.NewReader(png), &out, nil); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	want := "P5\n2 2\n255\n\x00\xff\xff\x00"
	if out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
}

func TestConvert_IndexedColorPalette(t *testing.T) {
	pal := []byte{255, 0, 0, 0, 255, 0, 0, 0, 255}
	scanlines := filterRows([]byte{0, 1, 2, 2, 1, 0}, 3, 1, []byte{ftSub, ftUp})
	png := encodeScanlines(t, 3, 2, ctPaletted, pal, scanlines)

	var out bytes.Buffer
	if err := Convert(bytes.NewReader(png), &out, nil); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	want := "P6\n3 2\n255\n" +
		"\xff\x00\x00\x00\xff\x00\x00\x00\xff" +
		"\x00\x00\xff\x00\xff\x00\xff\x00\x00"
	if out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
}

func TestConvert_AllFilters(t *testing.T) {
	raw := gradientBytes(31, 20, 1)
	scanlines := filterRows(raw, 31, 1, []byte{ftNone, ftSub, ftUp, ftAverage, ftPaeth})
	png := encodeScanlines(t, 31, 20, ctGrayscale, nil, scanlines)

	for _, dc := range allDecompressors {
		t.Run(dc.name, func(t *testing.T) {
			var out bytes.Buffer
			err := Convert(bytes.NewReader(png), &out, &Options{Decompressor: dc.d, VerifyChecksums: true})
			if err != nil {
				t.Fatalf("Convert failed: %v", err)
			}
			want := append([]byte("P5\n31 20\n255\n"), raw...)
			if !bytes.Equal(out.Bytes(), want) {
				t.Errorf("Output mismatch")
			}
		})
	}
}

func TestDecode(t *testing.T) {
	gray := encodeScanlines(t, 2, 1, ctGrayscale, nil, []byte{ftNone, 10, 20})
	img, err := Decode(bytes.NewReader(gray), nil)
	if err != nil {
		t.Fatalf("Decode gray failed: %v", err)
	}
	g, ok := img.(*image.Gray)
	if !ok {
		t.Fatalf("Expected *image.Gray, got %T", img)
	}
	if g.GrayAt(1, 0).Y != 20 {
		t.Errorf("Expected gray 20 at (1,0), got %d", g.GrayAt(1, 0).Y)
	}

	rgb := encodeScanlines(t, 1, 2, ctTrueColor, nil, []byte{ftNone, 1, 2, 3, ftNone, 4, 5, 6})
	img, err = Decode(bytes.NewReader(rgb), nil)
	if err != nil {
		t.Fatalf("Decode rgb failed: %v", err)
	}
	c, ok := img.(*image.RGBA)
	if !ok {
		t.Fatalf("Expected *image.RGBA, got %T", img)
	}
	if got := c.RGBAAt(0, 1); got != (color.RGBA{4, 5, 6, 255}) {
		t.Errorf("Expected {4 5 6 255} at (0,1), got %v", got)
	}
	if c.Bounds() != image.Rect(0, 0, 1, 2) {
		t.Errorf("Expected bounds 1x2, got %v", c.Bounds())
	}
}

func TestDecodeConfig(t *testing.T) {
	tests := []struct {
		name      string
		colorType uint8
		pal       []byte
		model     color.Model
	}{
		{"grayscale", ctGrayscale, nil, color.GrayModel},
		{"truecolor", ctTrueColor, nil, color.RGBAModel},
		{"gray palette", ctPaletted, []byte{7, 7, 7}, color.GrayModel},
		{"color palette", ctPaletted, []byte{7, 8, 9}, color.RGBAModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := [][]byte{rawChunk("IHDR", ihdrData(300, 200, 8, tt.colorType, itNone))}
			if tt.pal != nil {
				chunks = append(chunks, rawChunk("PLTE", tt.pal))
			}
			// The image data is never inflated, so it may be garbage.
			chunks = append(chunks, rawChunk("IDAT", []byte("not zlib")), rawChunk("IEND", nil))

			png := buildPNG(chunks...)
			cfg, err := DecodeConfig(bytes.NewReader(png), nil)
			if err != nil {
				t.Fatalf("DecodeConfig failed: %v", err)
			}
			if cfg.Width != 300 || cfg.Height != 200 {
				t.Errorf("Expected 300x200, got %dx%d", cfg.Width, cfg.Height)
			}
			if cfg.ColorModel != tt.model {
				t.Errorf("Unexpected color model for %s", tt.name)
			}
		})
	}
}

func TestConvert_Errors(t *testing.T) {
	ihdr := rawChunk("IHDR", ihdrData(2, 2, 8, ctGrayscale, itNone))
	idat := rawChunk("IDAT", zlibCompress(t, []byte{0, 1, 2, 0, 3, 4}))
	iend := rawChunk("IEND", nil)

	badIHDR := append([]byte(nil), ihdr...)
	badIHDR[len(badIHDR)-1] ^= 0xff

	tests := []struct {
		name    string
		data    []byte
		opts    *Options
		wantErr []error
	}{
		{"empty input", nil, nil, []error{ErrInvalidFormat}},
		{"bad signature", append([]byte("GIF89a.."), ihdr...), nil, []error{ErrInvalidFormat}},
		{"signature only", buildPNG(), nil, []error{ErrInvalidFormat}},
		{"IHDR not first", buildPNG(idat, ihdr, iend), nil, []error{ErrInvalidFormat}},
		{"truncated IHDR", buildPNG(ihdr[:15]), nil, []error{ErrInvalidFormat, ErrTruncated}},
		{"IHDR CRC", buildPNG(badIHDR, idat, iend), &Options{VerifyChecksums: true}, []error{ErrInvalidFormat}},
		{"interlaced", buildPNG(rawChunk("IHDR", ihdrData(2, 2, 8, ctGrayscale, itAdam7)), idat, iend), nil, []error{ErrUnsupported}},
		{"16-bit", buildPNG(rawChunk("IHDR", ihdrData(2, 2, 16, ctGrayscale, itNone)), idat, iend), nil, []error{ErrUnsupported}},
		{"RGBA", buildPNG(rawChunk("IHDR", ihdrData(2, 2, 8, ctTrueColorAlpha, itNone)), idat, iend), nil, []error{ErrUnsupported}},
		{"too many pixels", buildPNG(ihdr, idat, iend), &Options{MaxPixels: 3}, []error{ErrResourceExhausted}},
		{"no IDAT", buildPNG(ihdr, iend), nil, []error{ErrInvalidFormat, ErrDecompressFailed}},
		{"missing IEND", buildPNG(ihdr, idat), nil, []error{ErrInvalidFormat}},
		{"corrupt zlib", buildPNG(ihdr, rawChunk("IDAT", []byte{0x78, 0x9c, 0xff, 0xff}), iend), nil, []error{ErrInvalidFormat, ErrDecompressFailed}},
		{"short image data", buildPNG(ihdr, rawChunk("IDAT", zlibCompress(t, []byte{0, 1, 2})), iend), nil, []error{ErrDecompressFailed}},
		{"unknown filter", buildPNG(ihdr, rawChunk("IDAT", zlibCompress(t, []byte{0, 1, 2, 7, 3, 4})), iend), nil, []error{ErrUnsupported}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := Convert(bytes.NewReader(tt.data), &out, tt.opts)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("Expected %v in %v", want, err)
				}
			}
			// Nothing is committed before the image data is validated.
			if tt.name != "unknown filter" && out.Len() != 0 {
				t.Errorf("Expected no output, got %d bytes", out.Len())
			}
		})
	}
}

func TestConvert_Logging(t *testing.T) {
	png := buildPNG(
		rawChunk("IHDR", ihdrData(1, 1, 8, ctGrayscale, itNone)),
		rawChunk("tIME", make([]byte, 7)),
		rawChunk("IDAT", zlibCompress(t, []byte{0, 42})),
		rawChunk("IEND", nil),
	)

	var logs bytes.Buffer
	logger := zerolog.New(&logs).Level(zerolog.DebugLevel)
	var out bytes.Buffer
	if err := Convert(bytes.NewReader(png), &out, &Options{Logger: &logger}); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	for _, msg := range []string{"parsed IHDR", "skipping chunk", "reached IEND", "inflated image data"} {
		if !strings.Contains(logs.String(), msg) {
			t.Errorf("Expected log message %q in %s", msg, logs.String())
		}
	}
	if !strings.Contains(logs.String(), "tIME") {
		t.Errorf("Expected skipped chunk type in logs")
	}
}
