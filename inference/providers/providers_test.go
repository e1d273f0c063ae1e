package providers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nvr-ai/object-detector/inference"
	"github.com/nvr-ai/object-detector/models/postprocess"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		name    string
		want    Provider
		wantErr bool
	}{
		{"", CPUExecutionProvider, false},
		{"cpu", CPUExecutionProvider, false},
		{"cuda", CUDAExecutionProvider, false},
		{"coreml", CoreMLExecutionProvider, false},
		{"tensorrt", "", true},
	}

	for _, tt := range tests {
		got, err := ParseProvider(tt.name)
		if tt.wantErr {
			assert.True(t, errors.Is(err, postprocess.ErrConfiguration))
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestGetSharedLibPath_Override(t *testing.T) {
	assert.Equal(t, "/opt/ort/libonnxruntime.so", GetSharedLibPath("/opt/ort/libonnxruntime.so"))
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := inference.DefaultConfig()

	_, err := NewEngine(config)
	assert.True(t, errors.Is(err, postprocess.ErrConfiguration))
}
