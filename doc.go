// Package pngpnm decodes a restricted subset of PNG into PNM.
//
// Supported input is non-interlaced PNG with a bit depth of 8 and color type
// grayscale (0), truecolor (2) or indexed (3). Grayscale images and indexed
// images whose palette holds only gray entries are written as PGM (P5);
// everything else is written as PPM (P6). Ancillary chunks are skipped.
//
// Converting a file:
//
//	err := pngpnm.Convert(in, out, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Decoding to an image.Image:
//
//	img, err := pngpnm.Decode(in, &pngpnm.Options{VerifyChecksums: true})
//
// Failures wrap one of ErrTruncated, ErrInvalidFormat, ErrUnsupported or
// ErrResourceExhausted, so malformed input can be told apart from input that
// is well formed but uses a feature outside the supported subset.
//
// The package does not register itself with the image package, since it
// would shadow image/png for the same signature.
package pngpnm
