// Package detect specifies the detector collaborator contract: it consumes
// a rendered Waterfall Image and returns bounding boxes plus an annotated
// image of identical dimensions. The detection model itself is out of
// scope; this package only fixes the shape a concrete implementation and
// internal/pipeline's polling loop agree on.
package detect

import "context"

// Box is a single detection: an axis-aligned bounding box in image
// coordinates, a confidence score, and a class label.
type Box struct {
	X1, Y1, X2, Y2 float64
	Confidence     float64
	ClassID        int
	ClassName      string
}

// Detector consumes a rendered R×C×3 RGB image and returns an annotated
// copy of identical dimensions plus the boxes found in it. Implementations
// should treat ctx cancellation as a request to abandon the in-flight
// detection and return promptly.
type Detector interface {
	Detect(ctx context.Context, image []byte, width, height int) (annotated []byte, boxes []Box, err error)
}
