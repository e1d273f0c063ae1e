package detector

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/nvr-ai/object-detector/models/postprocess"
)

// Stream control tokens.
const (
	// DoneToken ends a stream.
	DoneToken = "done"
	// StdinToken reads an encoded image from the rest of the stream.
	StdinToken = "-"
	// ManyTarget selects streaming mode in Run.
	ManyTarget = "many"
)

// Run processes a single target: an image path, StdinToken for an encoded image read
// from in, or ManyTarget to stream paths from in. Every processed image writes one
// JSON array to out.
func (d *Detector) Run(ctx context.Context, target string, in io.Reader, out io.Writer) error {
	var (
		detections []postprocess.Detection
		err        error
	)
	switch target {
	case ManyTarget:
		return d.Stream(ctx, in, out)
	case StdinToken:
		detections, err = d.DetectReader(ctx, in)
	default:
		detections, err = d.DetectFile(ctx, target)
	}
	if err != nil {
		if errors.Is(err, postprocess.ErrImageAcquisition) {
			d.metrics.RecordFailure("acquisition")
		}
		return err
	}
	return d.write(out, detections)
}

// Stream reads one image path per line from in and writes one JSON array per image
// to out.
//
// The stream ends at a line reading DoneToken or at EOF. A StdinToken line consumes
// the rest of in as one encoded image, which also ends the stream. Blank lines are
// skipped. Images that cannot be read or decoded are logged and skipped; any other
// error stops the stream.
func (d *Detector) Stream(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return errors.Wrap(readErr, "failed to read image list")
		}

		target := strings.TrimRight(line, "\r\n")
		switch {
		case target == DoneToken:
			return nil
		case strings.TrimSpace(target) == "":
		case target == StdinToken:
			detections, err := d.DetectReader(ctx, reader)
			if err := d.handle(out, StdinToken, detections, err); err != nil {
				return err
			}
			return nil
		default:
			detections, err := d.DetectFile(ctx, target)
			if err := d.handle(out, target, detections, err); err != nil {
				return err
			}
		}

		if readErr == io.EOF {
			return nil
		}
	}
}

// handle writes the detections of one streamed image, or logs and swallows an
// acquisition failure.
func (d *Detector) handle(out io.Writer, source string, detections []postprocess.Detection, err error) error {
	if err == nil {
		return d.write(out, detections)
	}
	if errors.Is(err, postprocess.ErrImageAcquisition) {
		d.metrics.RecordFailure("acquisition")
		log.Error().Err(err).Str("source", source).Msg("skipping unreadable image")
		return nil
	}
	return err
}
