package siedler2

import (
	"io/ioutil"
	"log"

	"github.com/bodgit/siedler2/bitmap"
)

// Context carries the settings shared by every loader and writer. It is
// built once and must not be changed while loaders are running.
type Context struct {
	// Factory creates the items filled in by the loaders
	Factory Factory
	// Format is the pixel format bitmaps are loaded into
	Format bitmap.Format
	Logger *log.Logger
}

// NewContext returns a Context. A nil factory selects DefaultFactory and a
// nil logger discards all output.
func NewContext(factory Factory, format bitmap.Format, logger *log.Logger) *Context {
	if factory == nil {
		factory = DefaultFactory{}
	}
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Context{
		Factory: factory,
		Format:  format,
		Logger:  logger,
	}
}
