package main

import (
	"fmt"
	_ "image/gif"
	_ "image/jpeg"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/siedler2"
	"github.com/bodgit/siedler2/bitmap"
	"github.com/bodgit/siedler2/errkind"
	"github.com/bodgit/siedler2/palette"
	"github.com/urfave/cli/v2"
)

const defaultDB = "siedler2.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newContext(c *cli.Context) (*siedler2.Context, error) {
	format, err := bitmap.ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}
	return siedler2.NewContext(nil, format, newLogger(c)), nil
}

// exitError keeps the error chain but leads with the kind of failure.
func exitError(err error) error {
	return cli.NewExitError(fmt.Sprintf("%s: %s", errkind.Describe(err), err), 1)
}

func loadPalette(ctx *siedler2.Context, file string) (*palette.Palette, error) {
	a, err := ctx.Load(file)
	if err != nil {
		return nil, err
	}
	for i := 0; i < a.Len(); i++ {
		if p, ok := a.Get(i).(*siedler2.Palette); ok {
			return p.Palette, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", file, errkind.ErrPaletteMissing)
}

func hasExt(file string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(file))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// convert loads input and writes it back out in the format selected by the
// extension of output.
func convert(c *cli.Context, in, out []string) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
	input, output := c.Args().Get(0), c.Args().Get(1)
	if !hasExt(input, in...) || !hasExt(output, out...) {
		return cli.NewExitError(fmt.Sprintf("expected %s input and %s output", strings.Join(in, "/"), strings.Join(out, "/")), 1)
	}

	ctx, err := newContext(c)
	if err != nil {
		return exitError(err)
	}

	a, err := ctx.Load(input)
	if err != nil {
		return exitError(err)
	}
	if err := ctx.Write(output, a); err != nil {
		return exitError(err)
	}

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "s2tool"
	app.Usage = "The Settlers II asset utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"S2TOOL_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.StringFlag{
			Name:    "format",
			EnvVars: []string{"S2TOOL_FORMAT"},
			Value:   bitmap.Paletted.String(),
			Usage:   "pixel format bitmaps are loaded into (paletted or bgra)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "index",
			Usage:       "Scan game directory and catalog assets",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				ctx, err := newContext(c)
				if err != nil {
					return exitError(err)
				}

				catalog, err := siedler2.NewCatalog(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer catalog.Close()

				if err := siedler2.New(catalog, ctx).Scan(c.Args().First()); err != nil {
					return exitError(err)
				}

				return nil
			},
		},
		{
			Name:        "list",
			Usage:       "List cataloged assets",
			Description: "",
			Action: func(c *cli.Context) error {
				catalog, err := siedler2.NewCatalog(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer catalog.Close()

				entries, err := catalog.Entries()
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for _, e := range entries {
					fingerprint := e.Fingerprint
					if fingerprint == "" {
						fingerprint = "-"
					}
					fmt.Printf("%s\t%s\t%d\t%s\t%s\n", fingerprint, e.File, e.Index, e.Kind, e.Name)
				}

				return nil
			},
		},
		{
			Name:        "extract",
			Usage:       "Extract cataloged asset data",
			Description: "",
			ArgsUsage:   "FINGERPRINT FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				catalog, err := siedler2.NewCatalog(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer catalog.Close()

				b, err := catalog.FindByFingerprint(strings.ToUpper(c.Args().Get(0)))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				if b == nil {
					return exitError(fmt.Errorf("%s: %w", c.Args().Get(0), errkind.ErrNotFound))
				}

				if err := ioutil.WriteFile(c.Args().Get(1), b, 0644); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "midi",
			Usage:       "Convert XMIDI music to Standard MIDI",
			Description: "",
			ArgsUsage:   "INPUT OUTPUT",
			Action: func(c *cli.Context) error {
				return convert(c, []string{".xmi", ".mid"}, []string{".mid"})
			},
		},
		{
			Name:        "palette",
			Usage:       "Convert palettes between ACT and BBM",
			Description: "",
			ArgsUsage:   "INPUT OUTPUT",
			Action: func(c *cli.Context) error {
				return convert(c, []string{".act", ".bbm"}, []string{".act", ".bbm"})
			},
		},
		{
			Name:        "quantize",
			Usage:       "Generate a palette from an image",
			Description: "",
			ArgsUsage:   "IMAGE OUTPUT",
			Action:      quantizeAction,
		},
		{
			Name:  "bitmap",
			Usage: "Convert single bitmaps",
			Subcommands: []*cli.Command{
				{
					Name:        "export",
					Usage:       "Convert a bitmap to PNG or BMP",
					Description: "",
					ArgsUsage:   "INPUT OUTPUT",
					Flags:       bitmapFlags(),
					Action:      exportAction,
				},
				{
					Name:        "import",
					Usage:       "Convert a PNG or BMP image to a bitmap",
					Description: "",
					ArgsUsage:   "INPUT OUTPUT",
					Flags: append(bitmapFlags(),
						&cli.IntFlag{
							Name:  "nx",
							Usage: "horizontal origin offset",
						},
						&cli.IntFlag{
							Name:  "ny",
							Usage: "vertical origin offset",
						},
					),
					Action: importAction,
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
