/*
Package siedler2 is a library for reading and writing the asset formats of
The Settlers II.

Every file is loaded into an Archive, an ordered list of Items. Loaders take
a Context that selects the Factory creating the items, the pixel format
bitmaps are decoded into and where to log. The codecs themselves live in the
bitmap, palette, midi and xmidi packages.

A Library scans a game directory and records every item it can load in a
Catalog.
*/
package siedler2

import "log"

// Library indexes a game directory into a Catalog.
type Library struct {
	catalog *Catalog
	loader  *Context
	logger  *log.Logger
}

// New returns a Library that loads files with loader and records their
// items in catalog.
func New(catalog *Catalog, loader *Context) *Library {
	return &Library{
		catalog: catalog,
		loader:  loader,
		logger:  loader.Logger,
	}
}
