package common

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestWebGPUClipCorrection(t *testing.T) {
	tests := []struct {
		name  string
		in    mgl32.Vec4
		wantZ float32
	}{
		{"near plane", mgl32.Vec4{0, 0, -2, 2}, 0},
		{"far plane", mgl32.Vec4{0, 0, 2, 2}, 2},
		{"midpoint", mgl32.Vec4{1, -1, 0, 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WebGPUClipCorrection.Mul4x1(tt.in)
			if got[0] != tt.in[0] || got[1] != tt.in[1] || got[3] != tt.in[3] {
				t.Fatalf("x, y, w changed: %v -> %v", tt.in, got)
			}
			if got[2] != tt.wantZ {
				t.Errorf("z = %v, want %v", got[2], tt.wantZ)
			}
		})
	}
}

func TestPutMat4(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)
	buf := make([]byte, 64)
	PutMat4(buf, m)
	for i := range 16 {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if got != m[i] {
			t.Fatalf("element %d = %v, want %v", i, got, m[i])
		}
	}
	if !bytes.Equal(SliceToBytes(m[:]), buf) {
		t.Error("SliceToBytes and PutMat4 disagree on a little-endian host")
	}
}

func TestPutFloat32s(t *testing.T) {
	buf := make([]byte, 12)
	PutFloat32s(buf, 1.5, -2, 0.25)
	want := []float32{1.5, -2, 0.25}
	for i, w := range want {
		if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:])); got != w {
			t.Errorf("value %d = %v, want %v", i, got, w)
		}
	}
}

func TestSetLogger(t *testing.T) {
	defer SetLogger(nil)

	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Fatal("default logger should be disabled")
	}

	var out bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&out, nil)))
	Logger().Info("hello", "k", 1)
	if !bytes.Contains(out.Bytes(), []byte("hello")) {
		t.Errorf("log output missing message: %q", out.String())
	}

	SetLogger(nil)
	if Logger().Enabled(t.Context(), slog.LevelError) {
		t.Error("SetLogger(nil) should restore the silent logger")
	}
}
