package mcproto

import "testing"

func TestVarIntRoundTrip(t *testing.T) {
	vals := []int32{0, 1, 2, 127, 128, 255, 2147483647, -1, -2147483648}
	for _, v := range vals {
		encoded := WriteVarInt(v)
		n, got, err := ReadVarInt(encoded)
		if err != nil {
			t.Fatalf("ReadVarInt(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("roundtrip: want %d got %d", v, got)
		}
		if n != len(encoded) {
			t.Fatalf("consumed=%d want=%d", n, len(encoded))
		}
	}
}

func TestReadVarIntIncomplete(t *testing.T) {
	full := WriteVarInt(300)
	if len(full) < 2 {
		t.Fatalf("expected multi-byte encoding for 300")
	}
	if _, _, err := ReadVarInt(full[:1]); err != ErrIncomplete {
		t.Fatalf("err=%v want=%v", err, ErrIncomplete)
	}
}

func TestReadVarIntOverflow(t *testing.T) {
	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	if _, _, err := ReadVarInt(buf); err != ErrOverflow {
		t.Fatalf("err=%v want=%v", err, ErrOverflow)
	}
}

func TestStringRoundTrip(t *testing.T) {
	s := "play.example.com"
	encoded := WriteString(s)
	n, got, err := ReadString(encoded)
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if got != s {
		t.Fatalf("got=%q want=%q", got, s)
	}
	if n != len(encoded) {
		t.Fatalf("consumed=%d want=%d", n, len(encoded))
	}
}

func TestUShortRoundTrip(t *testing.T) {
	encoded := WriteUShort(25565)
	n, got, err := ReadUShort(encoded)
	if err != nil {
		t.Fatalf("ReadUShort: %v", err)
	}
	if got != 25565 {
		t.Fatalf("got=%d want=25565", got)
	}
	if n != 2 {
		t.Fatalf("consumed=%d want=2", n)
	}
}
