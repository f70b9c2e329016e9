// Package imaging provides the contour extraction pipeline used by the
// contours command.
//
// The pipeline converts an image to single-channel intensity, smooths it with
// a Gaussian kernel, runs two-threshold Canny edge detection, traces the
// external contours of the edge map and strokes them onto a blank canvas the
// size of the input. All operations work with standard Go image.Image types
// and use a coordinate system where (0,0) is at the top-left corner, X
// increases rightward, and Y increases downward.
//
// # Pipeline
//
//	input.png -> Grayscale -> GaussianBlur(ksize) -> Canny(t1, t2)
//	          -> FindExternalContours -> DrawContours -> contour_output.png
//
// Each stage is exported so it can be tested and reused on its own.
// ExtractContours runs the middle of the pipeline on an in-memory image,
// GenerateContours runs it end to end on files.
//
// # Backends
//
// The default Tracer is written in pure Go on top of bild. Building with the
// gocv tag swaps in an OpenCV tracer (gocv.io/x/gocv) for the blur, edge
// detection and border following stages; rendering is shared by both:
//
//	go build -tags gocv ./cmd/contours
//
// # Contours
//
// A Contour is a closed polyline. Only external contours are produced, with
// no hierarchy, and runs of collinear points are reduced to their end points.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Missing input files (ErrNotFound)
//   - Even or non-positive blur kernel sizes, malformed stroke colors
//     (ErrInvalidArgument)
//   - File I/O errors during image loading or saving
//
// # Thread Safety
//
// All functions are stateless and can be called concurrently on different
// images.
package imaging
