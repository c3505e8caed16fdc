package certlink

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     Target
	}{
		{"token", "abc123", OpaqueToken("abc123")},
		{"legacy", "org1/prog2/cert3", LegacyPath{OrganizationID: "org1", ProgramID: "prog2", CertificateID: "cert3"}},
		{"one separator", "a/b", OpaqueToken("a/b")},
		{"three separators", "a/b/c/d", OpaqueToken("a/b/c/d")},
		{"empty middle segment", "a//c", OpaqueToken("a//c")},
		{"empty last segment", "a/b/", OpaqueToken("a/b/")},
		{"leading slash", "/a/b", OpaqueToken("/a/b")},
		{"empty", "", OpaqueToken("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.fragment); got != tt.want {
				t.Errorf("Classify(%q) = %#v, want %#v", tt.fragment, got, tt.want)
			}
		})
	}
}

func TestParseFragment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://certs.example.com/#/certificate/tok", "tok"},
		{"#/certificate/tok", "tok"},
		{"/certificate/tok", "tok"},
		{"certificate/tok", "tok"},
		{"tok", "tok"},
		{"/#/certificate/org1/prog2/cert3", "org1/prog2/cert3"},
		{"#/certificate/org1/prog2/cert3/", "org1/prog2/cert3"},
		{"#/certificate/tok?utm_source=mail", "tok"},
		{"  tok\n", "tok"},
		{"certificate/prog2/CERT-1700000000000-AB12CD34", "certificate/prog2/CERT-1700000000000-AB12CD34"},
		{"certificate/org1/prog2/cert3", "org1/prog2/cert3"},
		{"/certificate/prog2/cert3", "prog2/cert3"},
		{"#/certificate/certificate/prog2/cert3", "certificate/prog2/cert3"},
	}
	for _, tt := range tests {
		if got := ParseFragment(tt.in); got != tt.want {
			t.Errorf("ParseFragment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/certificate/x", "certificate/x"},
		{"certificate/x", "certificate/x"},
		{"", ""},
		{"/", ""},
		{"//x", "x"},
	}
	for _, tt := range tests {
		got := NormalizePath(tt.in)
		if got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if again := NormalizePath(got); again != got {
			t.Errorf("NormalizePath not idempotent on %q: %q then %q", tt.in, got, again)
		}
	}
}

func TestParseFragment_LegacyOrgNamedCertificate(t *testing.T) {
	want := LegacyPath{OrganizationID: "certificate", ProgramID: "prog2", CertificateID: "CERT-1700000000000-AB12CD34"}
	for _, in := range []string{
		"certificate/prog2/CERT-1700000000000-AB12CD34",
		"#/certificate/certificate/prog2/CERT-1700000000000-AB12CD34",
		"https://certs.example.com/#/certificate/certificate/prog2/CERT-1700000000000-AB12CD34",
	} {
		if got := Classify(ParseFragment(in)); got != want {
			t.Errorf("Classify(ParseFragment(%q)) = %#v, want %#v", in, got, want)
		}
	}
}
