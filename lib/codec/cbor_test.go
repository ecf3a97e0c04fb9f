// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"io"
	"testing"
)

type sample struct {
	Name  string `cbor:"name"`
	Count uint64 `cbor:"count"`
	Data  []byte `cbor:"data,omitempty"`
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Parallel()
	in := sample{Name: "stdout", Count: 7, Data: []byte{0x00, 0xff}}

	encoded, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out sample
	if err := Unmarshal(encoded, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Name != in.Name || out.Count != in.Count || !bytes.Equal(out.Data, in.Data) {
		t.Errorf("round trip: got %+v, want %+v", out, in)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	t.Parallel()
	in := sample{Name: "stderr", Count: 42}

	first, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("same value produced different encodings: %x vs %x", first, second)
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	t.Parallel()

	encoded, err := Marshal(map[string]any{
		"name":   "stdout",
		"count":  uint64(1),
		"future": "field added by a newer writer",
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out sample
	if err := Unmarshal(encoded, &out); err != nil {
		t.Fatalf("Unmarshal with unknown field: %v", err)
	}
	if out.Name != "stdout" || out.Count != 1 {
		t.Errorf("got %+v, want name=stdout count=1", out)
	}
}

func TestStreamEncodeDecode(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	enc := NewEncoder(&buf)
	want := []sample{{Name: "a", Count: 1}, {Name: "b", Count: 2}}
	for _, s := range want {
		if err := enc.Encode(s); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	dec := NewDecoder(&buf)
	var got []sample
	for {
		var s sample
		if err := dec.Decode(&s); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		got = append(got, s)
	}
	if len(got) != len(want) {
		t.Fatalf("decoded %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Name != want[i].Name || got[i].Count != want[i].Count {
			t.Errorf("item %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}
