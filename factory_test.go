package siedler2

import (
	"errors"
	"testing"

	"github.com/bodgit/siedler2/errkind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testIni struct {
	named
	values map[string]string
}

func (i *testIni) Kind() Kind { return KindIni }

func (i *testIni) Clone() Item {
	dup := &testIni{named: i.named, values: make(map[string]string, len(i.values))}
	for k, v := range i.values {
		dup.values[k] = v
	}
	return dup
}

func TestDefaultFactory(t *testing.T) {
	var f DefaultFactory
	for _, kind := range []Kind{KindSound, KindBitmap, KindBitmapRLE, KindBitmapShadow, KindBitmapPlayer, KindFont, KindPalette, KindPaletteAnim, KindRaw, KindText} {
		item, err := f.Create(kind, SoundWave)
		require.NoError(t, err)
		assert.Equal(t, kind, item.Kind())
	}

	item, err := f.Create(KindSound, SoundOGG)
	require.NoError(t, err)
	assert.Equal(t, SoundOGG, item.(*Sound).SoundKind())

	for _, kind := range []Kind{KindNone, KindBob, KindMap, KindMapHeader, KindIni, KindUnset} {
		_, err := f.Create(kind, SoundNone)
		assert.True(t, errors.Is(err, errkind.ErrWrongArchive))
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Create(KindIni, SoundNone)
	assert.True(t, errors.Is(err, errkind.ErrWrongArchive))

	r.Register(KindIni, func(SoundKind) (Item, error) {
		return &testIni{values: map[string]string{}}, nil
	})
	item, err := r.Create(KindIni, SoundNone)
	require.NoError(t, err)
	assert.Equal(t, KindIni, item.Kind())

	// Custom items take part in archive cloning like any other
	ini := item.(*testIni)
	ini.values["key"] = "value"
	a := new(Archive)
	a.Push(ini)
	dup := a.Clone()
	dup.Get(0).(*testIni).values["key"] = "changed"
	assert.Equal(t, "value", ini.values["key"])

	// Built in kinds still come from the fallback
	item, err = r.Create(KindPalette, SoundNone)
	require.NoError(t, err)
	assert.Equal(t, KindPalette, item.Kind())

	// Constructors must create what they are registered for
	r.Register(KindBob, func(SoundKind) (Item, error) {
		return new(Raw), nil
	})
	_, err = r.Create(KindBob, SoundNone)
	assert.True(t, errors.Is(err, errkind.ErrWrongArchive))

	custom := &errkind.CustomError{Code: 42}
	r.Register(KindMap, func(SoundKind) (Item, error) {
		return nil, custom
	})
	_, err = r.Create(KindMap, SoundNone)
	assert.Equal(t, "Error code 42", errkind.Describe(err))

	r.Register(KindMapHeader, func(SoundKind) (Item, error) {
		return nil, nil
	})
	_, err = r.Create(KindMapHeader, SoundNone)
	assert.True(t, errors.Is(err, errkind.ErrWrongArchive))

	r.Register(KindIni, nil)
	_, err = r.Create(KindIni, SoundNone)
	assert.True(t, errors.Is(err, errkind.ErrWrongArchive))
}
