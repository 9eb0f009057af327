// Package video provides the frame buffers used by the denoising stage.
//
// Every stage of the filter exchanges frames as YUV420 VideoFrame values:
// the host captures the upstream picture into the instance's input buffer,
// a backend turns that buffer into an output buffer it owns, and the
// instance publishes the output to the next stage of the pipeline.
//
// # Video Frames
//
// Frames use planar YUV420 with 2x2 chroma subsampling. Odd dimensions are
// supported; chroma planes round up:
//
//	frame, err := video.NewVideoFrame(1920, 1080)
//	if err != nil {
//	    return err
//	}
//	frame.Clear() // black
//
// Buffers are reused across frames. Reallocate only grows the backing arrays
// when a larger size is requested:
//
//	if err := frame.Reallocate(width, height); err != nil {
//	    return err
//	}
//
// # Scaling
//
// Scaler resamples frames plane by plane using golang.org/x/image/draw, which
// is how the capture step honours a size restricted by the active backend:
//
//	scaler := video.NewScaler()
//	if err := scaler.ScaleInto(dst, src); err != nil {
//	    return err
//	}
//
// # Fingerprints
//
// Checksum returns a BLAKE2b-256 digest of a frame. Tests and the simulated
// host use it to prove two published frames are bit-identical without
// keeping full copies around.
package video
