// Package pipeline orchestrates batch compilation for the CLI: it
// preloads the inputs, resolves the option strings once, compiles
// each input in turn and writes the artifacts, reporting progress
// events along the way.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"vexc/driver"
	"vexc/internal/dump"
	"vexc/internal/pil"
	"vexc/ir"
)

// Request configures one batch run.
type Request struct {
	// Inputs are the program files to compile.
	Inputs []string
	// Format names the input encoding: auto, pil, ir-text or
	// ir-binary. Empty means auto.
	Format string

	// Options and InternalOptions are the raw option strings handed
	// to the resolver. Strict applies per the resolver's rules.
	Options         string
	InternalOptions string
	Strict          bool

	// CPU applies when the option strings name no hardware generation.
	CPU string

	// SpecIDs and SpecVals override spec constants by ID.
	SpecIDs  []uint32
	SpecVals []uint64

	// External supplies the builtin support modules.
	External driver.ExternalData

	// OutputDir receives artifacts; empty writes next to each input.
	OutputDir string
	// DumpDir enables file dumps under the given directory.
	DumpDir string

	// Jobs bounds preload concurrency; non-positive uses GOMAXPROCS.
	Jobs int

	Progress ProgressSink
}

// Artifact is the outcome for one input.
type Artifact struct {
	Input      string
	OutputPath string
	Output     *driver.CompileOutput
	Elapsed    time.Duration
}

// Result captures batch artifacts and stage timings.
type Result struct {
	Artifacts []Artifact
	Timings   Timings
}

// Run executes the batch. Inputs preload concurrently; compilations
// run one at a time in input order, and the first failure stops the
// batch.
func Run(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing pipeline request")
	}
	if len(req.Inputs) == 0 {
		return result, fmt.Errorf("no inputs")
	}

	emitQueued(req.Progress, req.Inputs)

	readStart := time.Now()
	emitStage(req.Progress, nil, StageRead, StatusWorking, nil, 0)
	payloads, err := preload(ctx, req)
	if err != nil {
		emitStage(req.Progress, nil, StageRead, StatusError, err, 0)
		return result, err
	}
	result.Timings.Set(StageRead, time.Since(readStart))
	emitStage(req.Progress, req.Inputs, StageRead, StatusDone, nil, result.Timings.Duration(StageRead))

	resolveStart := time.Now()
	emitStage(req.Progress, nil, StageResolve, StatusWorking, nil, 0)
	opts, err := driver.ParseOptions(req.Options, req.InternalOptions, req.Strict)
	if err != nil {
		emitStage(req.Progress, nil, StageResolve, StatusError, err, 0)
		return result, err
	}
	if opts.CPU == "" {
		opts.CPU = req.CPU
	}
	result.Timings.Set(StageResolve, time.Since(resolveStart))
	emitStage(req.Progress, nil, StageResolve, StatusDone, nil, result.Timings.Duration(StageResolve))

	var compileTotal, writeTotal time.Duration
	for i, input := range req.Inputs {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		ftype, err := inputType(req.Format, payloads[i])
		if err != nil {
			err = fmt.Errorf("%s: %w", input, err)
			emitFile(req.Progress, input, StageCompile, StatusError, err, 0)
			return result, err
		}

		fileOpts := *opts
		if req.DumpDir != "" {
			fileOpts.Dumper = &dump.FileDumper{
				Dir:    req.DumpDir,
				Prefix: artifactBase(input) + ".",
			}
		}

		compileStart := time.Now()
		emitFile(req.Progress, input, StageCompile, StatusWorking, nil, 0)
		out, err := driver.Compile(payloads[i], ftype, &fileOpts, req.External, req.SpecIDs, req.SpecVals)
		elapsed := time.Since(compileStart)
		if err != nil {
			err = fmt.Errorf("%s: %w", input, err)
			emitFile(req.Progress, input, StageCompile, StatusError, err, elapsed)
			return result, err
		}
		compileTotal += elapsed
		emitFile(req.Progress, input, StageCompile, StatusDone, nil, elapsed)

		writeStart := time.Now()
		emitFile(req.Progress, input, StageWrite, StatusWorking, nil, 0)
		outPath, err := writeArtifact(req.OutputDir, input, out)
		if err != nil {
			emitFile(req.Progress, input, StageWrite, StatusError, err, 0)
			return result, err
		}
		writeDur := time.Since(writeStart)
		writeTotal += writeDur
		emitFile(req.Progress, input, StageWrite, StatusDone, nil, writeDur)

		result.Artifacts = append(result.Artifacts, Artifact{
			Input:      input,
			OutputPath: outPath,
			Output:     out,
			Elapsed:    elapsed,
		})
	}
	result.Timings.Set(StageCompile, compileTotal)
	result.Timings.Set(StageWrite, writeTotal)
	return result, nil
}

// preload reads every input concurrently. Results land in an indexed
// slice, so no locking is needed.
func preload(ctx context.Context, req *Request) ([][]byte, error) {
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	payloads := make([][]byte, len(req.Inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(req.Inputs)))
	for i, path := range req.Inputs {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			payloads[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payloads, nil
}

// inputType maps the requested format to a file type, sniffing the
// container magics when the format is auto.
func inputType(format string, data []byte) (driver.FileType, error) {
	switch format {
	case "", "auto":
		switch {
		case pil.IsContainer(data):
			return driver.FilePIL, nil
		case ir.IsBinaryModule(data):
			return driver.FileIRBinary, nil
		default:
			return driver.FileIRText, nil
		}
	case "pil":
		return driver.FilePIL, nil
	case "ir-text":
		return driver.FileIRText, nil
	case "ir-binary":
		return driver.FileIRBinary, nil
	}
	return 0, fmt.Errorf("unknown input format %q", format)
}

func artifactBase(input string) string {
	return strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
}

// writeArtifact stores the output under its conventional name:
// <base>.isa for native kernel payloads, <base>.vxr for
// runtime-packaged results.
func writeArtifact(outputDir, input string, out *driver.CompileOutput) (string, error) {
	dir := outputDir
	if dir == "" {
		dir = filepath.Dir(input)
	} else if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	base := artifactBase(input)
	var path string
	var blob []byte
	switch out.Kind {
	case driver.OutputISA:
		path = filepath.Join(dir, base+".isa")
		blob = out.ISA
	case driver.OutputRuntime:
		path = filepath.Join(dir, base+".vxr")
		var err error
		blob, err = encodeRuntimeArtifact(out.Runtime)
		if err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unrecognized output kind %d", out.Kind)
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %q: %w", path, err)
	}
	return path, nil
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageRead, Status: StatusQueued})
	}
}

// emitStage reports an overall event, then one per file.
func emitStage(sink ProgressSink, files []string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	}
}

func emitFile(sink ProgressSink, file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
