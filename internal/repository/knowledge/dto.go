package knowledge

import (
	"encoding/binary"
	"math"
	"strconv"

	domknow "github.com/kailas-cloud/supportdesk/internal/domain/knowledge"
)

// buildHashFields flattens a record and its vector into HSET fields.
func buildHashFields(rec domknow.Record, vector []float32) map[string]string {
	m := map[string]string{
		fieldType:     string(rec.Type()),
		fieldPriority: strconv.FormatFloat(rec.Priority(), 'f', -1, 64),
		fieldText:     rec.Text(),
		fieldVector:   vectorToBytes(vector),
	}
	if rec.Type() == domknow.FAQ {
		m[fieldQuestion] = rec.Question()
		m[fieldAnswer] = rec.Answer()
	}
	return m
}

// parseHashFields restores a record from hash fields. Unknown types are kept as-is
// so they render empty rather than failing the whole search.
func parseHashFields(id string, m map[string]string) domknow.Record {
	priority, err := strconv.ParseFloat(m[fieldPriority], 64)
	if err != nil {
		priority = domknow.DefaultPriority
	}
	return domknow.Reconstruct(
		id,
		domknow.Type(m[fieldType]),
		m[fieldQuestion],
		m[fieldAnswer],
		m[fieldText],
		priority,
	)
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
