package image

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"

	"github.com/gogpu/mapsynth/raster"
)

// ErrPGM is returned for malformed PGM data.
var ErrPGM = errors.New("image: malformed PGM")

func init() {
	image.RegisterFormat("pgm", "P2", DecodePGM, DecodePGMConfig)
	image.RegisterFormat("pgm", "P5", DecodePGM, DecodePGMConfig)
}

type pgmHeader struct {
	binary        bool
	width, height int
	maxval        int
}

// readPGMHeader parses the magic, dimensions and maxval, skipping comments.
// It leaves br positioned at the first sample.
func readPGMHeader(br *bufio.Reader) (pgmHeader, error) {
	var h pgmHeader
	magic, err := pgmToken(br)
	if err != nil {
		return h, err
	}
	switch magic {
	case "P2":
	case "P5":
		h.binary = true
	default:
		return h, fmt.Errorf("%w: magic %q", ErrPGM, magic)
	}

	fields := [3]*int{&h.width, &h.height, &h.maxval}
	for _, f := range fields {
		tok, err := pgmToken(br)
		if err != nil {
			return h, err
		}
		if *f, err = strconv.Atoi(tok); err != nil || *f <= 0 {
			return h, fmt.Errorf("%w: header field %q", ErrPGM, tok)
		}
	}
	if h.maxval > 0xffff {
		return h, fmt.Errorf("%w: maxval %d", ErrPGM, h.maxval)
	}
	return h, nil
}

// pgmToken reads one whitespace-delimited token. For P5 the single
// whitespace byte after maxval is consumed and nothing more.
func pgmToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && len(tok) > 0 {
				return string(tok), nil
			}
			return "", fmt.Errorf("%w: %w", ErrPGM, io.ErrUnexpectedEOF)
		}
		switch {
		case c == '#' && len(tok) == 0:
			if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
				return "", err
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, c)
		}
	}
}

// DecodePGMConfig returns the PGM dimensions and color model.
func DecodePGMConfig(r io.Reader) (image.Config, error) {
	h, err := readPGMHeader(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, err
	}
	model := color.GrayModel
	if h.maxval > 0xff {
		model = color.Gray16Model
	}
	return image.Config{ColorModel: model, Width: h.width, Height: h.height}, nil
}

// DecodePGM decodes an ASCII (P2) or binary (P5) PGM image. Samples are
// scaled from [0, maxval] to the full range of the returned picture, which is
// *image.Gray for maxval < 256 and *image.Gray16 otherwise.
func DecodePGM(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readPGMHeader(br)
	if err != nil {
		return nil, err
	}

	next := pgmSampleReader(br, h)
	rect := image.Rect(0, 0, h.width, h.height)
	if h.maxval <= 0xff {
		img := image.NewGray(rect)
		for i := range img.Pix {
			v, err := next()
			if err != nil {
				return nil, err
			}
			img.Pix[i] = uint8(v * 0xff / h.maxval)
		}
		return img, nil
	}

	img := image.NewGray16(rect)
	for i := range h.width * h.height {
		v, err := next()
		if err != nil {
			return nil, err
		}
		v = v * 0xffff / h.maxval
		img.Pix[2*i] = uint8(v >> 8)
		img.Pix[2*i+1] = uint8(v)
	}
	return img, nil
}

func pgmSampleReader(br *bufio.Reader, h pgmHeader) func() (int, error) {
	check := func(v int) (int, error) {
		if v < 0 || v > h.maxval {
			return 0, fmt.Errorf("%w: sample %d above maxval %d", ErrPGM, v, h.maxval)
		}
		return v, nil
	}
	if !h.binary {
		return func() (int, error) {
			tok, err := pgmToken(br)
			if err != nil {
				return 0, err
			}
			v, err := strconv.Atoi(tok)
			if err != nil {
				return 0, fmt.Errorf("%w: sample %q", ErrPGM, tok)
			}
			return check(v)
		}
	}
	wide := h.maxval > 0xff
	return func() (int, error) {
		hi, err := br.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrPGM, io.ErrUnexpectedEOF)
		}
		if !wide {
			return check(int(hi))
		}
		lo, err := br.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrPGM, io.ErrUnexpectedEOF)
		}
		return check(int(hi)<<8 | int(lo))
	}
}

// WritePGM writes r as an ASCII (P2) PGM, rescaled to [0, maxval].
func WritePGM(w io.Writer, r *raster.Raster, maxval int) error {
	if maxval <= 0 || maxval > 0xffff {
		return fmt.Errorf("%w: maxval %d", ErrPGM, maxval)
	}
	s := raster.Rescale(r)
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "P2\n%d %d\n%d\n", r.Cols(), r.Rows(), maxval)
	for y := range r.Rows() {
		for x, v := range s.Row(y) {
			if x > 0 {
				_ = bw.WriteByte(' ')
			}
			bw.WriteString(strconv.Itoa(int(v*float64(maxval) + 0.5)))
		}
		_ = bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("image: write PGM: %w", err)
	}
	return nil
}
