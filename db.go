package siedler2

import (
	"bytes"
	"database/sql"
	"encoding"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// Catalog is a sqlite index of every item found by Library.Scan. Item data
// is stored once per distinct content, compressed.
type Catalog struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Entry is a single cataloged item. Fingerprint is empty for items that
// have no stored data.
type Entry struct {
	File        string
	Index       int
	Kind        string
	Name        string
	Fingerprint string
}

// NewCatalog opens or creates the catalog in file.
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	// Scan workers write concurrently, let sqlite see them one at a time
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS content (id INTEGER PRIMARY KEY NOT NULL, fingerprint TEXT NOT NULL UNIQUE, size INTEGER NOT NULL, data BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS item (id INTEGER PRIMARY KEY NOT NULL, file TEXT NOT NULL, idx INTEGER NOT NULL, kind TEXT NOT NULL, name TEXT NOT NULL, content_id INTEGER, UNIQUE(file, idx), FOREIGN KEY(content_id) REFERENCES content(id))"); err != nil {
		db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	return &Catalog{
		db:  db,
		enc: enc,
		dec: dec,
	}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	c.dec.Close()
	if err := c.enc.Close(); err != nil {
		c.db.Close()
		return err
	}
	return c.db.Close()
}

// Fingerprint returns the key under which b is stored.
func Fingerprint(b []byte) string {
	return fmt.Sprintf("%016X", xxhash.Sum64(b))
}

// itemData returns the bytes stored for item. XMIDI music is stored
// converted so it can be played directly.
func itemData(item Item) ([]byte, error) {
	if s, ok := item.(*Sound); ok && s.SoundKind() == SoundXMidi {
		m, err := s.MIDI()
		if err != nil {
			return nil, err
		}
		b := new(bytes.Buffer)
		if err := m.Encode(b); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	}
	if m, ok := item.(encoding.BinaryMarshaler); ok {
		return m.MarshalBinary()
	}
	return nil, nil
}

// Add records item as slot index of file, replacing any previous entry.
func (c *Catalog) Add(file string, index int, item Item) error {
	data, err := itemData(item)
	if err != nil {
		return err
	}

	var content sql.NullInt64
	if data != nil {
		if content.Int64, err = c.addContent(data); err != nil {
			return err
		}
		content.Valid = true
	}

	if _, err := c.db.Exec("INSERT OR REPLACE INTO item (file, idx, kind, name, content_id) VALUES (?, ?, ?, ?, ?)", file, index, item.Kind().String(), item.Name(), content); err != nil {
		return err
	}
	return nil
}

func (c *Catalog) addContent(data []byte) (int64, error) {
	fingerprint := Fingerprint(data)
	if _, err := c.db.Exec("INSERT OR IGNORE INTO content (fingerprint, size, data) VALUES (?, ?, ?)", fingerprint, len(data), c.enc.EncodeAll(data, nil)); err != nil {
		return 0, err
	}

	var id int64
	if err := c.db.QueryRow("SELECT id FROM content WHERE fingerprint = ?", fingerprint).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// FindByFingerprint returns the stored data with the given fingerprint, or
// nil if there is none.
func (c *Catalog) FindByFingerprint(fingerprint string) ([]byte, error) {
	var (
		size int
		data []byte
	)
	switch err := c.db.QueryRow("SELECT size, data FROM content WHERE fingerprint = ?", fingerprint).Scan(&size, &data); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return c.dec.DecodeAll(data, make([]byte, 0, size))
	default:
		return nil, err
	}
}

// Entries returns every cataloged item ordered by file and slot.
func (c *Catalog) Entries() ([]Entry, error) {
	rows, err := c.db.Query("SELECT i.file, i.idx, i.kind, i.name, b.fingerprint FROM item AS i LEFT JOIN content AS b ON i.content_id = b.id ORDER BY i.file, i.idx")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			fingerprint sql.NullString
		)
		if err := rows.Scan(&e.File, &e.Index, &e.Kind, &e.Name, &fingerprint); err != nil {
			return nil, err
		}
		e.Fingerprint = fingerprint.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
