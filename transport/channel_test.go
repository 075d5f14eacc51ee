package transport

import (
	"testing"
)

func TestParseEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Endpoint
		wantErr bool
	}{
		{name: "valid", input: "audit.meridianapis.dev:443", want: Endpoint{Host: "audit.meridianapis.dev", Port: 443}},
		{name: "localhost", input: "localhost:8080", want: Endpoint{Host: "localhost", Port: 8080}},
		{name: "missing port", input: "audit.meridianapis.dev", wantErr: true},
		{name: "bad port", input: "audit.meridianapis.dev:notaport", wantErr: true},
		{name: "port out of range", input: "audit.meridianapis.dev:70000", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseEndpoint(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseEndpoint(%q) = %v, expected error", tt.input, got)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseEndpoint(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseEndpoint(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestEndpointAddr(t *testing.T) {
	t.Parallel()

	e := Endpoint{Host: "warehouse.meridianapis.dev", Port: 443}
	if got := e.Addr(); got != "warehouse.meridianapis.dev:443" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestJSONCodecRoundTrip(t *testing.T) {
	t.Parallel()

	type message struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	codec := jsonCodec{}
	if codec.Name() != CodecName {
		t.Fatalf("Name() = %q, want %q", codec.Name(), CodecName)
	}

	data, err := codec.Marshal(&message{Name: "datasets", Count: 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded message
	if err := codec.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Name != "datasets" || decoded.Count != 3 {
		t.Errorf("round trip produced %+v", decoded)
	}
}
