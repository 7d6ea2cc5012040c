package pixelmark

import "errors"

var (
	// ErrTooSmallImage indicates the carrier bands cannot hold the payload
	// bit sequence.
	ErrTooSmallImage = errors.New("image is too small for embedding or extracting")

	// ErrQualityFloor indicates embedding at the requested strength would
	// degrade the image below the configured PSNR floor. Recoverable by
	// embedding with a weaker strength.
	ErrQualityFloor = errors.New("embedding would degrade image quality below the floor")

	// ErrAlreadyWatermarked indicates the image already carries a
	// recognizable payload and must not be watermarked again.
	ErrAlreadyWatermarked = errors.New("image already contains a watermark")

	// ErrMalformedImage indicates undecodable or unsupported image bytes.
	ErrMalformedImage = errors.New("malformed or unsupported image data")
)
