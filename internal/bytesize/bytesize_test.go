package bytesize

import "testing"

func TestParseByteSize(t *testing.T) {
	cases := map[string]ByteSize{
		"1024":  1024,
		"1Ki":   KiB,
		"1KiB":  KiB,
		"10Mi":  10 * MiB,
		"1Gi":   GiB,
		"100MB": 100 * MB,
		"1.5Ki": ByteSize(1.5 * float64(KiB)),
	}

	for input, want := range cases {
		got, err := ParseByteSize(input)
		if err != nil {
			t.Fatalf("ParseByteSize(%q) error: %v", input, err)
		}
		if got != want {
			t.Errorf("ParseByteSize(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestParseByteSizeInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "10Xi", "-5"} {
		if _, err := ParseByteSize(input); err == nil {
			t.Errorf("ParseByteSize(%q) expected error, got nil", input)
		}
	}
}

func TestByteSizeString(t *testing.T) {
	if got := (10 * MiB).String(); got != "10.00MiB" {
		t.Errorf("String() = %q", got)
	}
}
