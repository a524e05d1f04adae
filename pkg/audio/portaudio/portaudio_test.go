package portaudio

import "testing"

func TestReadStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
		ok   bool
	}{
		{"no error", 0, true},
		{"input overflowed", -9981, true},
		{"not initialized", -10000, false},
		{"timed out", -9987, false},
		{"stream stopped", -9983, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := readStatus(tt.code)
			if (err == nil) != tt.ok {
				t.Errorf("readStatus(%d) = %v, want ok=%v", tt.code, err, tt.ok)
			}
		})
	}
}
