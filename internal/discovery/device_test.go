package discovery

import (
	"testing"
)

func TestDevice_String(t *testing.T) {
	device := &Device{
		Instance: "wifiprov-kitchen",
		Hostname: "kitchen.local.",
		IP:       "192.168.4.1",
		Port:     80,
	}

	expected := "wifiprov-kitchen (kitchen.local.) at 192.168.4.1:80"
	if device.String() != expected {
		t.Errorf("Device.String() = %v, want %v", device.String(), expected)
	}
}

func TestDevice_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		device   *Device
		expected string
	}{
		{
			name:     "standard HTTP port",
			device:   &Device{IP: "192.168.4.1", Port: 80},
			expected: "http://192.168.4.1:80",
		},
		{
			name:     "custom port",
			device:   &Device{IP: "10.0.0.5", Port: 8080},
			expected: "http://10.0.0.5:8080",
		},
		{
			name:     "IPv6 address",
			device:   &Device{IP: "fe80::1", Port: 80},
			expected: "http://[fe80::1]:80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.BaseURL(); got != tt.expected {
				t.Errorf("Device.BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDevice_GetMetadata(t *testing.T) {
	device := &Device{
		Metadata: map[string]string{
			TxtPath:  "/",
			TxtState: "Provisioning",
		},
	}

	if got := device.GetMetadata(TxtPath); got != "/" {
		t.Errorf("GetMetadata(path) = %q, want %q", got, "/")
	}
	if got := device.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}
	if got := device.State(); got != "Provisioning" {
		t.Errorf("State() = %q, want Provisioning", got)
	}

	empty := &Device{}
	if got := empty.GetMetadata(TxtPath); got != "" {
		t.Errorf("GetMetadata on nil metadata = %q, want empty", got)
	}
}
