package postprocess

import "github.com/pkg/errors"

// Error classes reported by the detection pipeline and its collaborators. Callers
// classify a failure with errors.Is; every returned error wraps exactly one of these.
var (
	// ErrConfiguration reports an invalid threshold, class table or other setting.
	ErrConfiguration = errors.New("configuration error")
	// ErrModelLoad reports that the inference engine could not load its model.
	ErrModelLoad = errors.New("model load error")
	// ErrImageAcquisition reports an unreadable or undecodable image.
	ErrImageAcquisition = errors.New("image acquisition error")
	// ErrClassIndex reports a class id with no entry in the class table.
	ErrClassIndex = errors.New("class index error")
	// ErrMalformedTensor reports a raw output tensor with an unexpected layout.
	ErrMalformedTensor = errors.New("malformed tensor")
)
