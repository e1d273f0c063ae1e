// Package inference - Inference engine interface and implementations
package inference

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/nvr-ai/object-detector/models/postprocess"
)

// EngineType is the type of the engine
type EngineType string

const (
	// EngineDarknet runs darknet cfg/weights networks through the OpenCV DNN module.
	EngineDarknet EngineType = "darknet"
	// EngineONNX is the ONNX engine that uses the onnxruntime library
	EngineONNX EngineType = "onnx"
)

// Engines is a list of all supported engines
var Engines = []EngineType{EngineDarknet, EngineONNX}

// ParseEngineType validates an engine name.
func ParseEngineType(name string) (EngineType, error) {
	t := EngineType(name)
	if !slices.Contains(Engines, t) {
		return "", errors.Wrapf(postprocess.ErrConfiguration, "unknown model backend %q (want one of %v)", name, Engines)
	}
	return t, nil
}
