// Package partition chooses the Kafka message key for a close-approach
// record.
//
// Records with the same key land on the same partition, so consumers see
// every approach of an object in order.
//
// # Available Strategies
//
//   - [DefaultPartitioner]: keys by designation and approach time ("433|2024-Jan-01 00:00").
//     A re-published approach keeps its key, so compacted topics keep one
//     message per approach.
//
//   - [RoundRobinPartitioner]: nil key; franz-go spreads the records.
//
//   - [FieldBasedPartitioner]: SHA-256 over the configured columns, e.g.
//     "body" to co-locate all approaches to one planet.
//
// # Usage
//
//	p := partition.New(queryConfig)
//	key := p.Key(record)
package partition

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/RaikaSurendra/nasa-cad-bridge/internal/config"
	"github.com/RaikaSurendra/nasa-cad-bridge/internal/nasa"
)

// Partitioner determines the Kafka message key for a record.
type Partitioner interface {
	// Key returns the message key, or nil for no key.
	Key(record nasa.Record) []byte
}

// New creates the Partitioner named by cfg.Partitioner. Unknown and empty
// names fall back to the default.
func New(cfg config.QueryConfig) Partitioner {
	switch cfg.Partitioner {
	case "round_robin":
		return &RoundRobinPartitioner{}
	case "field_based":
		return &FieldBasedPartitioner{
			Fields: cfg.PartitionKeyFields,
		}
	default:
		return &DefaultPartitioner{}
	}
}

// ----- Default Partitioner -----

// DefaultPartitioner keys by "des|cd". When the response has no cd column
// the key is the designation alone; without des there is no key.
type DefaultPartitioner struct{}

// Key returns the approach identity.
func (d *DefaultPartitioner) Key(record nasa.Record) []byte {
	des, ok := record[nasa.FieldDes]
	if !ok || des == nil {
		return nil
	}
	key := fmt.Sprint(des)
	if cd, ok := record[nasa.FieldCD]; ok && cd != nil {
		key += "|" + fmt.Sprint(cd)
	}
	return []byte(key)
}

// ----- Round Robin Partitioner -----

// RoundRobinPartitioner returns a nil key.
type RoundRobinPartitioner struct{}

// Key always returns nil.
func (r *RoundRobinPartitioner) Key(_ nasa.Record) []byte {
	return nil
}

// ----- Field-Based Partitioner -----

// FieldBasedPartitioner hashes one or more column values to a 64 character
// hex key.
//
// The values are joined in sorted column order with a null byte separator;
// missing and null columns contribute an empty string. With
// Fields = ["body", "orbit_id"] and body = "Mars", orbit_id = "12":
//
//	SHA-256("Mars\x0012")
type FieldBasedPartitioner struct {
	Fields []string
}

// Key returns the hex SHA-256 of the column values.
func (f *FieldBasedPartitioner) Key(record nasa.Record) []byte {
	if len(f.Fields) == 0 {
		return nil
	}

	sorted := make([]string, len(f.Fields))
	copy(sorted, f.Fields)
	sort.Strings(sorted)

	parts := make([]string, len(sorted))
	for i, field := range sorted {
		if val, ok := record[field]; ok && val != nil {
			parts[i] = fmt.Sprint(val)
		}
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return []byte(hex.EncodeToString(hash[:]))
}
