package tricolor

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Stages reported by StageError.
const (
	StageLoad   = "load"
	StageDither = "dither"
	StageSave   = "save"
)

// StageError labels an error with the conversion stage that failed.
type StageError struct {
	Stage string
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Path != "" {
		return e.Stage + ": " + e.Path + ": " + e.Err.Error()
	}
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options control a conversion.
type Options struct {
	// FitWidth and FitHeight, when both set, scale larger sources down to fit
	// before dithering.
	FitWidth  int
	FitHeight int

	// Progress is passed to the Ditherer.
	Progress func(done, total int)
}

// Result is the outcome of a conversion.
type Result struct {
	Planes  *Planes
	Quality Quality
}

// Convert fits, dithers and splits src.
func Convert(ctx context.Context, src *image.NRGBA, opts Options) (*Result, error) {
	if err := checkShape(src); err != nil {
		return nil, err
	}
	src = Fit(src, opts.FitWidth, opts.FitHeight)

	d := &Ditherer{Progress: opts.Progress}
	q, err := d.Dither(ctx, src)
	if err != nil {
		return nil, err
	}

	planes := SplitPlanes(q)
	return &Result{
		Planes:  planes,
		Quality: Measure(src, planes.Combined),
	}, nil
}

// Outputs are the file paths a conversion writes its planes to.
type Outputs struct {
	Red      string
	Black    string
	Combined string
}

// Save writes the red, black and combined planes, in that order. Files
// written before a failure are left in place.
func (p *Planes) Save(out Outputs) error {
	for _, f := range []struct {
		path string
		img  image.Image
	}{
		{out.Red, p.Red},
		{out.Black, p.Black},
		{out.Combined, p.Combined},
	} {
		if err := SavePNG(f.path, f.img); err != nil {
			return &StageError{Stage: StageSave, Path: f.path, Err: err}
		}
	}
	return nil
}

// BatchOptions control ConvertFiles.
type BatchOptions struct {
	Options

	// OutputDir receives the planes. Empty means next to each input.
	OutputDir string

	// Workers is the number of images converted at once. Each image is
	// still dithered by a single goroutine.
	Workers int

	// MaxPixels is passed to Load.
	MaxPixels int

	// Done, if set, is called from the worker goroutine after each
	// successful conversion.
	Done func(path string, res *Result)
}

// BatchOutputs returns the output paths used by ConvertFiles for input.
func BatchOutputs(input, outputDir string) Outputs {
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	return Outputs{
		Red:      prefix + "_red.png",
		Black:    prefix + "_black.png",
		Combined: prefix + "_result.png",
	}
}

type batchJob struct {
	path string
	out  Outputs
}

// ConvertFiles converts every path with a pool of workers and stops at the
// first failure, which is returned as a *StageError.
func ConvertFiles(ctx context.Context, paths []string, opts BatchOptions) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	seen := make(map[Outputs]string, len(paths))
	for _, p := range paths {
		out := BatchOutputs(p, opts.OutputDir)
		if prev, ok := seen[out]; ok {
			return fmt.Errorf("tricolor: ConvertFiles: %s and %s write the same outputs", prev, p)
		}
		seen[out] = p
	}

	g, ctx := errgroup.WithContext(ctx)

	inbox := make(chan batchJob, workers*2)
	g.Go(func() error {
		defer close(inbox)
		for _, p := range paths {
			select {
			case inbox <- batchJob{path: p, out: BatchOutputs(p, opts.OutputDir)}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for job := range inbox {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if err := convertFile(ctx, job, opts); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}

func convertFile(ctx context.Context, job batchJob, opts BatchOptions) error {
	src, _, err := Load(job.path, opts.MaxPixels)
	if err != nil {
		return &StageError{Stage: StageLoad, Path: job.path, Err: err}
	}

	res, err := Convert(ctx, src, opts.Options)
	if err != nil {
		return &StageError{Stage: StageDither, Path: job.path, Err: err}
	}

	if err := res.Planes.Save(job.out); err != nil {
		return err
	}

	if opts.Done != nil {
		opts.Done(job.path, res)
	}
	return nil
}
