package strconvx

import "testing"

func TestItoa_Millis(t *testing.T) {
	for v, want := range map[int]string{0: "0", 500: "500", 60000: "60000", -1: "-1"} {
		if got := Itoa(v); got != want {
			t.Fatalf("Itoa(%d) = %q", v, got)
		}
		back, err := Atoi(want)
		if err != nil || back != v {
			t.Fatalf("Atoi(%q) = %d, %v", want, back, err)
		}
	}
}

func TestFormatUint_Bases(t *testing.T) {
	if got := FormatUint(0xFFFFFFFF, 16); got != "ffffffff" {
		t.Fatalf("hex = %q", got)
	}
	if got := FormatUint(5, 2); got != "101" {
		t.Fatalf("bin = %q", got)
	}
	if got := FormatInt(-240, 10); got != "-240" {
		t.Fatalf("FormatInt = %q", got)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, s := range []string{"", "12ms", "-"} {
		if _, err := Atoi(s); err == nil {
			t.Fatalf("Atoi(%q) should fail", s)
		}
	}
	if _, err := ParseUint("-1", 10, 32); err == nil {
		t.Fatal("ParseUint must reject a sign")
	}
	if v, err := ParseInt("0x10", 0, 32); err != nil || v != 16 {
		t.Fatalf("ParseInt auto base = %d, %v", v, err)
	}
}
