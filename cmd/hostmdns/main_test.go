package main

import (
	"net/netip"
	"testing"
)

func TestRecordFlagSet(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		wantErr  bool
		wantTTL  uint32
		wantIPv6 netip.Addr
	}{
		{name: "ipv4 only", value: "foo.local,120,192.168.1.5", wantTTL: 120},
		{name: "with ipv6", value: "bar.local,60,10.0.0.2,fe80::1", wantTTL: 60, wantIPv6: netip.MustParseAddr("fe80::1")},
		{name: "missing ipv4", value: "foo.local,120", wantErr: true},
		{name: "too many fields", value: "foo.local,120,10.0.0.2,fe80::1,x", wantErr: true},
		{name: "negative ttl", value: "foo.local,-1,10.0.0.2", wantErr: true},
		{name: "bad ipv4", value: "foo.local,120,not-an-ip", wantErr: true},
		{name: "bad ipv6", value: "foo.local,120,10.0.0.2,zz::", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f recordFlag
			err := f.Set(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Set(%q) error = nil, want error", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set(%q) error = %v, want nil", tt.value, err)
			}
			if len(f) != 1 {
				t.Fatalf("len(records) = %d, want 1", len(f))
			}
			if f[0].TTL != tt.wantTTL || f[0].IPv6 != tt.wantIPv6 {
				t.Errorf("record = %+v, want ttl %d ipv6 %v", f[0], tt.wantTTL, tt.wantIPv6)
			}
		})
	}
}

func TestRecordFlagString(t *testing.T) {
	var f recordFlag
	for _, v := range []string{"foo.local,120,192.168.1.5", "bar.local,60,10.0.0.2"} {
		if err := f.Set(v); err != nil {
			t.Fatalf("Set(%q) error = %v, want nil", v, err)
		}
	}
	if got, want := f.String(), "foo.local bar.local"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
