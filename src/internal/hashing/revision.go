package hashing

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
	"sort"

	"github.com/maksimkurb/proxycfg/src/internal/store"
)

// RevisionWriter accumulates an MD5 checksum over store records. Field
// order inside a record does not matter; record and value order do.
type RevisionWriter struct {
	checksum hash.Hash
}

func NewRevisionWriter() *RevisionWriter {
	return &RevisionWriter{checksum: md5.New()}
}

// AddRecord feeds one record of collection into the checksum.
func (w *RevisionWriter) AddRecord(collection string, r store.Record) {
	w.write(collection)
	w.write(r.Name)

	fields := make([]string, 0, len(r.Fields))
	for field := range r.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		w.write(field)
		for _, v := range r.Fields[field] {
			w.write(v)
		}
		w.checksum.Write([]byte{1})
	}
	w.checksum.Write([]byte{2})
}

func (w *RevisionWriter) write(s string) {
	w.checksum.Write([]byte(s))
	w.checksum.Write([]byte{0})
}

// GetChecksum returns the calculated MD5 checksum as a hex string.
func (w *RevisionWriter) GetChecksum() string {
	return hex.EncodeToString(w.checksum.Sum(nil))
}

// Revision returns the checksum of the given collections of r.
func Revision(r store.Reader, collections ...string) (string, error) {
	w := NewRevisionWriter()
	for _, collection := range collections {
		records, err := r.ListRecords(collection)
		if err != nil {
			return "", err
		}
		for _, rec := range records {
			w.AddRecord(collection, rec)
		}
	}
	return w.GetChecksum(), nil
}
