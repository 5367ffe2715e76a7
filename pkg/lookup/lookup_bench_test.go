package lookup

import (
	"encoding/json"
	"testing"
)

func BenchmarkFromString(b *testing.B) {
	for _, fx := range loadFixtures(b) {
		b.Run(fx.name, func(b *testing.B) {
			b.SetBytes(int64(len(fx.text)))
			b.ReportAllocs()
			for b.Loop() {
				if _, err := Parse(fx.text); err != nil {
					b.Fatalf("Failed to parse: %v", err)
				}
			}
		})
	}
}

func BenchmarkToString(b *testing.B) {
	for _, fx := range loadFixtures(b) {
		l := MustParse(fx.text)
		b.Run(fx.name, func(b *testing.B) {
			b.SetBytes(int64(len(fx.text)))
			b.ReportAllocs()
			for b.Loop() {
				_ = l.String()
			}
		})
	}
}

func BenchmarkSerialize(b *testing.B) {
	for _, fx := range loadFixtures(b) {
		l := MustParse(fx.text)
		b.Run(fx.name, func(b *testing.B) {
			b.SetBytes(int64(len(fx.text)))
			b.ReportAllocs()
			for b.Loop() {
				if _, err := json.Marshal(l); err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}
			}
		})
	}
}

func BenchmarkDeserialize(b *testing.B) {
	for _, fx := range loadFixtures(b) {
		data, err := json.Marshal(MustParse(fx.text))
		if err != nil {
			b.Fatalf("Failed to serialize: %v", err)
		}
		b.Run(fx.name, func(b *testing.B) {
			b.SetBytes(int64(len(fx.text)))
			b.ReportAllocs()
			for b.Loop() {
				var l Lookup
				if err := json.Unmarshal(data, &l); err != nil {
					b.Fatalf("Failed to deserialize: %v", err)
				}
			}
		})
	}
}
