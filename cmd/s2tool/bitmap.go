package main

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/bodgit/siedler2"
	"github.com/bodgit/siedler2/bitmap"
	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/palette"
	"github.com/urfave/cli/v2"
	"golang.org/x/image/bmp"
)

var bitmapKinds = map[string]siedler2.Kind{
	"raw":    siedler2.KindBitmap,
	"rle":    siedler2.KindBitmapRLE,
	"shadow": siedler2.KindBitmapShadow,
	"player": siedler2.KindBitmapPlayer,
}

var bitmapEncodings = map[siedler2.Kind]bitmap.Kind{
	siedler2.KindBitmap:       bitmap.Raw,
	siedler2.KindBitmapRLE:    bitmap.RLE,
	siedler2.KindBitmapShadow: bitmap.Shadow,
	siedler2.KindBitmapPlayer: bitmap.Player,
}

func bitmapFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "palette",
			Aliases:  []string{"p"},
			Usage:    "ACT or BBM palette file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "kind",
			Value: "rle",
			Usage: "bitmap encoding (raw, rle, shadow or player)",
		},
		&cli.IntFlag{
			Name:  "player-color",
			Value: bitmap.DefaultPlayerColorStart,
			Usage: "first palette index of the player color",
		},
	}
}

func bitmapKind(c *cli.Context) (siedler2.Kind, error) {
	kind, ok := bitmapKinds[c.String("kind")]
	if !ok {
		return siedler2.KindNone, fmt.Errorf("bitmap kind %q: %w", c.String("kind"), errkind.ErrWrongArchive)
	}
	return kind, nil
}

func playerColor(c *cli.Context) (uint8, error) {
	i := c.Int("player-color")
	if i < 0 || i > palette.Size-bitmap.PlayerColors {
		return 0, fmt.Errorf("player color %d: %w", i, errkind.ErrOutOfRange)
	}
	return uint8(i), nil
}

func encodeImage(w io.Writer, file string, m image.Image) error {
	if hasExt(file, ".bmp") {
		return bmp.Encode(w, m)
	}
	return png.Encode(w, m)
}

func exportAction(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	if !hasExt(c.Args().Get(1), ".png", ".bmp") {
		return cli.NewExitError("expected .png or .bmp output", 1)
	}

	ctx, err := newContext(c)
	if err != nil {
		return exitError(err)
	}
	kind, err := bitmapKind(c)
	if err != nil {
		return exitError(err)
	}
	start, err := playerColor(c)
	if err != nil {
		return exitError(err)
	}
	pal, err := loadPalette(ctx, c.String("palette"))
	if err != nil {
		return exitError(err)
	}

	f, err := os.Open(c.Args().Get(0))
	if err != nil {
		return exitError(err)
	}
	defer f.Close()

	item, err := ctx.LoadBitmap(f, kind, pal)
	if err != nil {
		return exitError(err)
	}
	b := item.Bitmap
	ctx.Logger.Printf("Loaded %s bitmap %dx%d at %d,%d\n", b.Kind, b.Width(), b.Height(), b.NX, b.NY)

	// Draw onto a blank buffer so player colors use the requested range
	dst := bitmap.NewPixelBuffer(b.Width(), b.Height(), b.Format())
	if b.Format() == bitmap.Paletted {
		for i := range dst.Pix() {
			dst.Pix()[i] = pal.TransparentIndex()
		}
	}
	if b.Kind == bitmap.Player {
		err = b.PrintPlayer(dst, image.Point{}, image.Rectangle{}, start, pal)
	} else {
		err = b.Print(dst, image.Point{}, image.Rectangle{})
	}
	if err != nil {
		return exitError(err)
	}

	m, err := dst.Image(pal)
	if err != nil {
		return exitError(err)
	}

	out, err := os.Create(c.Args().Get(1))
	if err != nil {
		return exitError(err)
	}
	defer out.Close()

	if err := encodeImage(out, c.Args().Get(1), m); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func decodeImage(file string) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", file, err, errkind.ErrWrongFormat)
	}
	return m, nil
}

func importAction(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	ctx, err := newContext(c)
	if err != nil {
		return exitError(err)
	}
	kind, err := bitmapKind(c)
	if err != nil {
		return exitError(err)
	}
	start, err := playerColor(c)
	if err != nil {
		return exitError(err)
	}
	pal, err := loadPalette(ctx, c.String("palette"))
	if err != nil {
		return exitError(err)
	}
	m, err := decodeImage(c.Args().Get(0))
	if err != nil {
		return exitError(err)
	}

	b, err := bitmap.New(bitmapEncodings[kind], 0, 0, bitmap.Paletted, pal)
	if err != nil {
		return exitError(err)
	}
	if err := b.CreatePlayer(bitmap.FromImage(m), nil, start); err != nil {
		return exitError(err)
	}
	b.NX, b.NY = int16(c.Int("nx")), int16(c.Int("ny"))

	out, err := os.Create(c.Args().Get(1))
	if err != nil {
		return exitError(err)
	}
	defer out.Close()

	if err := siedler2.WriteBitmap(out, &siedler2.Bitmap{Bitmap: b}, nil); err != nil {
		return exitError(err)
	}
	ctx.Logger.Printf("Wrote %s bitmap %dx%d\n", b.Kind, b.Width(), b.Height())

	return nil
}

func quantizeAction(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	if !hasExt(c.Args().Get(1), ".act", ".bbm") {
		return cli.NewExitError("expected .act or .bbm output", 1)
	}

	ctx, err := newContext(c)
	if err != nil {
		return exitError(err)
	}
	m, err := decodeImage(c.Args().Get(0))
	if err != nil {
		return exitError(err)
	}

	a := siedler2.NewArchive(0)
	a.Push(siedler2.NewPalette(palette.Quantize(m)))
	if err := ctx.Write(c.Args().Get(1), a); err != nil {
		return exitError(err)
	}

	return nil
}
