package continuations

import (
	"fmt"

	"github.com/zkvmtools/continuations-go/pkg/bootloader"
)

// FixedColsArtifact is the opaque, clonable pipeline-stage artifact
// RunContinuations hands to every chunk's pipeline, letting fixed-column
// evaluation happen once instead of once per chunk.
type FixedColsArtifact interface{}

// Pipeline is the injected prover-pipeline capability: advancing to a
// reusable post-fixed-columns stage, renaming per chunk, and attaching the
// chunk's bootloader input as an external witness column.
type Pipeline interface {
	PilWithEvaluatedFixedCols() (FixedColsArtifact, error)
	FromPilWithEvaluatedFixedCols(artifact FixedColsArtifact) Pipeline
	Name() string
	WithName(name string) Pipeline
	AddExternalWitnessValues(name string, values bootloader.Input) Pipeline
}

// PipelineFactory builds a fresh Pipeline instance (same name, output dir,
// etc. every time).
type PipelineFactory func() Pipeline

// PipelineCallback runs the caller's per-chunk proving logic against one
// fully assembled Pipeline.
type PipelineCallback func(Pipeline) error

// RunContinuations is the Continuation Prover Harness: it advances one
// pipeline to the PilWithEvaluatedFixedCols stage exactly once, then for
// every chunk builds a fresh pipeline resuming from that stage (avoiding
// O(chunks) fixed-column re-evaluation), names it "<base>_chunk_<i>",
// attaches the chunk's bootloader input as the main.bootloader_input_value
// external witness column, and invokes callback. The first callback error
// aborts the remaining chunks and is returned unchanged.
func RunContinuations(factory PipelineFactory, callback PipelineCallback, bootloaderInputs []bootloader.Input) error {
	base := factory()
	artifact, err := base.PilWithEvaluatedFixedCols()
	if err != nil {
		return fmt.Errorf("continuations: advance to PilWithEvaluatedFixedCols: %w", err)
	}

	optimizedFactory := func() Pipeline {
		return factory().FromPilWithEvaluatedFixedCols(artifact)
	}

	for i, inputs := range bootloaderInputs {
		pipeline := optimizedFactory()
		pipeline = pipeline.WithName(fmt.Sprintf("%s_chunk_%d", pipeline.Name(), i))
		pipeline = pipeline.AddExternalWitnessValues("main.bootloader_input_value", inputs)

		if err := callback(pipeline); err != nil {
			return err
		}
	}

	return nil
}
