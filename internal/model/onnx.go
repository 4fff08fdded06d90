package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/plant-disease-api/internal/imaging"
)

var errSessionClosed = errors.New("onnx session closed")

const (
	defaultInputName  = "input"
	defaultOutputName = "output"
)

// Options locate the model artifact and the native ONNX runtime.
type Options struct {
	ModelPath         string
	MetadataPath      string
	SharedLibraryPath string
}

// LoadMetadata reads and checks the metadata written alongside the model.
func LoadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var metadata Metadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if metadata.InputName == "" {
		metadata.InputName = defaultInputName
	}
	if metadata.OutputName == "" {
		metadata.OutputName = defaultOutputName
	}

	if !slices.Equal(metadata.InputShape, imaging.Shape()) {
		return Metadata{}, fmt.Errorf("model input shape %v, preprocessing produces %v", metadata.InputShape, imaging.Shape())
	}
	if metadata.ImageSize != 0 && metadata.ImageSize != imaging.Size {
		return Metadata{}, fmt.Errorf("model trained at %dpx, preprocessing resizes to %dpx", metadata.ImageSize, imaging.Size)
	}
	if metadata.OutputSize() <= 0 {
		return Metadata{}, fmt.Errorf("model output shape %v is empty", metadata.OutputShape)
	}
	if len(metadata.Classes) > 0 && len(metadata.Classes) != metadata.OutputSize() {
		return Metadata{}, fmt.Errorf("metadata lists %d classes for %d outputs", len(metadata.Classes), metadata.OutputSize())
	}
	return metadata, nil
}

// ONNXLoader returns a Loader that opens the artifact with onnxruntime.
// Missing files are reported before the native runtime is touched.
func ONNXLoader(opts Options) Loader {
	return func() (Session, error) {
		if _, err := os.Stat(opts.ModelPath); err != nil {
			return nil, fmt.Errorf("model artifact: %w", err)
		}
		metadata, err := LoadMetadata(opts.MetadataPath)
		if err != nil {
			return nil, err
		}
		return newONNXSession(opts, metadata)
	}
}

type onnxSession struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	metadata     Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

func newONNXSession(opts Options, metadata Metadata) (*onnxSession, error) {
	if opts.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(opts.SharedLibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &onnxSession{
		session:      session,
		metadata:     metadata,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (s *onnxSession) Metadata() Metadata {
	return s.metadata
}

// Run copies the input into the bound tensor and returns a copy of the
// output. The tensors are shared, so runs are serialized.
func (s *onnxSession) Run(input []float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, errSessionClosed
	}

	dst := s.inputTensor.GetData()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), len(dst))
	}
	copy(dst, input)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	out := make([]float32, len(s.outputTensor.GetData()))
	copy(out, s.outputTensor.GetData())
	return out, nil
}

func (s *onnxSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	s.session.Destroy()
	s.session = nil
	s.inputTensor.Destroy()
	s.inputTensor = nil
	s.outputTensor.Destroy()
	s.outputTensor = nil
	return ort.DestroyEnvironment()
}
