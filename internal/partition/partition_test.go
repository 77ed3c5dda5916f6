package partition

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RaikaSurendra/nasa-cad-bridge/internal/config"
	"github.com/RaikaSurendra/nasa-cad-bridge/internal/nasa"
)

func TestDefaultPartitioner_DesAndDate(t *testing.T) {
	p := &DefaultPartitioner{}
	record := nasa.Record{"des": "433", "cd": "2024-Jan-01 00:00", "dist": "0.15"}
	assert.Equal(t, "433|2024-Jan-01 00:00", string(p.Key(record)))
}

func TestDefaultPartitioner_NoDate(t *testing.T) {
	p := &DefaultPartitioner{}
	assert.Equal(t, "99942", string(p.Key(nasa.Record{"des": "99942"})))
}

func TestDefaultPartitioner_MissingDes(t *testing.T) {
	p := &DefaultPartitioner{}
	for _, record := range []nasa.Record{
		{"cd": "2024-Jan-01 00:00"},
		{"des": nil, "cd": "2024-Jan-01 00:00"},
	} {
		assert.Nil(t, p.Key(record), "key should be nil without des")
	}
}

func TestDefaultPartitioner_SameApproachSameKey(t *testing.T) {
	p := &DefaultPartitioner{}
	r1 := nasa.Record{"des": "433", "cd": "2024-Jan-01 00:00", "dist": "0.15"}
	r2 := nasa.Record{"des": "433", "cd": "2024-Jan-01 00:00", "dist": "0.16"}
	r3 := nasa.Record{"des": "433", "cd": "2056-Jan-24 12:34"}

	assert.Equal(t, p.Key(r1), p.Key(r2), "same approach should produce same key")
	assert.NotEqual(t, p.Key(r1), p.Key(r3), "different approach dates should produce different keys")
}

func TestRoundRobinPartitioner_ReturnsNil(t *testing.T) {
	p := &RoundRobinPartitioner{}
	assert.Nil(t, p.Key(nasa.Record{"des": "433"}))
}

func TestFieldBasedPartitioner_SingleField(t *testing.T) {
	p := &FieldBasedPartitioner{Fields: []string{"body"}}
	r1 := nasa.Record{"body": "Mars", "des": "433"}
	r2 := nasa.Record{"body": "Mars", "des": "1036"}
	r3 := nasa.Record{"body": "Earth", "des": "433"}

	assert.Equal(t, p.Key(r1), p.Key(r2), "same body should produce same key")
	assert.NotEqual(t, p.Key(r1), p.Key(r3), "different bodies should produce different keys")
}

func TestFieldBasedPartitioner_KnownHash(t *testing.T) {
	p := &FieldBasedPartitioner{Fields: []string{"orbit_id", "body"}}
	sum := sha256.Sum256([]byte("Mars\x0012"))

	key := p.Key(nasa.Record{"body": "Mars", "orbit_id": "12"})
	assert.Equal(t, hex.EncodeToString(sum[:]), string(key))
}

func TestFieldBasedPartitioner_DeterministicOrder(t *testing.T) {
	p1 := &FieldBasedPartitioner{Fields: []string{"body", "orbit_id"}}
	p2 := &FieldBasedPartitioner{Fields: []string{"orbit_id", "body"}}

	record := nasa.Record{"body": "Earth", "orbit_id": "7"}
	assert.Equal(t, p1.Key(record), p2.Key(record), "field order should not affect key")
}

func TestFieldBasedPartitioner_MissingAndNullMatch(t *testing.T) {
	p := &FieldBasedPartitioner{Fields: []string{"body", "h"}}
	k1 := p.Key(nasa.Record{"body": "Earth"})
	k2 := p.Key(nasa.Record{"body": "Earth", "h": nil})

	assert.Len(t, k1, 64)
	assert.Equal(t, k1, k2, "missing and null columns should hash the same")
}

func TestFieldBasedPartitioner_EmptyFields(t *testing.T) {
	p := &FieldBasedPartitioner{}
	assert.Nil(t, p.Key(nasa.Record{"des": "433"}))
}

func TestNew_Factory(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.QueryConfig
		want Partitioner
	}{
		{"default", config.QueryConfig{Partitioner: "default"}, &DefaultPartitioner{}},
		{"round_robin", config.QueryConfig{Partitioner: "round_robin"}, &RoundRobinPartitioner{}},
		{"field_based", config.QueryConfig{Partitioner: "field_based", PartitionKeyFields: []string{"body"}}, &FieldBasedPartitioner{}},
		{"empty defaults to default", config.QueryConfig{}, &DefaultPartitioner{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.IsType(t, tt.want, New(tt.cfg))
		})
	}
}
