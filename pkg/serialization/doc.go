// Package serialization maps Go structs to and from delimited text.
//
// Columns are described with struct tags:
//
//	type Contact struct {
//		ID       int64      `csv:"Id" csvindex:"0"`
//		Name     string     `csv:"Name" csvindex:"1"`
//		Birthday *time.Time `csv:"Birthday" csvformat:"dd-MM-yyyy" csvnull:"NULL"`
//		Balance  float64    `csv:"Balance" csvformat:"N2" csvculture:"nl-NL"`
//	}
//
// A Transformer converts single records, a Serializer reads and writes whole
// documents with encoding/csv.
package serialization
