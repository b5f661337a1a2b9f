package siedler2

import (
	"fmt"
	"sync"

	"github.com/bodgit/siedler2/bitmap"
	"github.com/bodgit/siedler2/errkind"
)

// Factory creates empty items for the loaders.
type Factory interface {
	Create(kind Kind, sound SoundKind) (Item, error)
}

// DefaultFactory creates every item kind implemented by this package.
type DefaultFactory struct{}

// Create returns a new item of the given kind. sound is only used for
// KindSound.
func (DefaultFactory) Create(kind Kind, sound SoundKind) (Item, error) {
	switch kind {
	case KindSound:
		return NewSound(sound), nil
	case KindBitmap:
		return NewBitmap(bitmap.Raw), nil
	case KindBitmapRLE:
		return NewBitmap(bitmap.RLE), nil
	case KindBitmapShadow:
		return NewBitmap(bitmap.Shadow), nil
	case KindBitmapPlayer:
		return NewBitmap(bitmap.Player), nil
	case KindFont:
		return NewFont(), nil
	case KindPalette:
		return NewPalette(nil), nil
	case KindPaletteAnim:
		return new(PaletteAnim), nil
	case KindRaw:
		return new(Raw), nil
	case KindText:
		return new(Text), nil
	default:
		return nil, fmt.Errorf("siedler2: create %s: %w", kind, errkind.ErrWrongArchive)
	}
}

// Constructor creates an empty item of a registered kind.
type Constructor func(sound SoundKind) (Item, error)

// Registry is a Factory with constructors registered per kind. Kinds without
// a constructor are created by the fallback factory.
type Registry struct {
	mu           sync.RWMutex
	constructors map[Kind]Constructor
	fallback     Factory
}

// NewRegistry returns a Registry that falls back to fallback, or to
// DefaultFactory if fallback is nil.
func NewRegistry(fallback Factory) *Registry {
	if fallback == nil {
		fallback = DefaultFactory{}
	}
	return &Registry{
		constructors: make(map[Kind]Constructor),
		fallback:     fallback,
	}
}

// Register sets the constructor for kind, replacing any previous one. A nil
// constructor removes it.
func (r *Registry) Register(kind Kind, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c == nil {
		delete(r.constructors, kind)
		return
	}
	r.constructors[kind] = c
}

// Create returns a new item of the given kind.
func (r *Registry) Create(kind Kind, sound SoundKind) (Item, error) {
	r.mu.RLock()
	c, ok := r.constructors[kind]
	r.mu.RUnlock()
	if !ok {
		return r.fallback.Create(kind, sound)
	}
	item, err := c(sound)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("siedler2: constructor for %s created nothing: %w", kind, errkind.ErrWrongArchive)
	}
	if item.Kind() != kind {
		return nil, fmt.Errorf("siedler2: constructor for %s created %s: %w", kind, item.Kind(), errkind.ErrWrongArchive)
	}
	return item, nil
}
