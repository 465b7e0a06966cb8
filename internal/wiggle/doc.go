// Package wiggle turns one wide photograph and three focal points into the
// frames of a looping "wiggle" video.
//
// The pipeline is pure and synchronous:
//
//	points, err := wiggle.ParseFocalPoints(body)
//	sections, err := wiggle.Extractor{}.Extract(img, points)
//	spec, err := wiggle.NewVideoSpec(5, 0.1)
//	frames := wiggle.SequenceFrames(sections, spec, wiggle.ModeAlphaBlend, false)
//
// Decoding the source and encoding the frames into a video are left to the
// caller.
package wiggle
