// Package providers - Utility functions.
package providers

import "runtime"

// GetSharedLibPath returns the path to the onnxruntime shared library for the current
// platform, or override when it is set.
//
// Returns:
//   - string: The path to the shared library, or "" if the platform has no default.
func GetSharedLibPath(override string) string {
	if override != "" {
		return override
	}
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.1.23.0.dylib"
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
	return ""
}
