package model

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Brownie44l1/plant-disease-api/internal/catalog"
	"github.com/Brownie44l1/plant-disease-api/internal/domain"
	"github.com/Brownie44l1/plant-disease-api/internal/imaging"
)

type stubSession struct {
	out      []float32
	err      error
	metadata Metadata
	closed   atomic.Int32
}

func (s *stubSession) Run(input []float32) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.out, nil
}

func (s *stubSession) Metadata() Metadata { return s.metadata }

func (s *stubSession) Close() error {
	s.closed.Add(1)
	return nil
}

func testCatalog() *catalog.Catalog {
	return catalog.MustNew([]catalog.Entry{
		{Label: "Leaf_healthy", Plant: "Leaf", Remedy: "Nothing to do."},
		{Label: "Leaf_blight", Plant: "Leaf", Remedy: "Remove affected leaves."},
		{Label: "Leaf_rust", Plant: "Leaf", Remedy: "Apply sulfur."},
	})
}

func blankTensor() imaging.Tensor {
	return imaging.Tensor{Data: make([]float32, imaging.Len())}
}

func TestPredictReturnsModelScores(t *testing.T) {
	session := &stubSession{
		out:      []float32{0.1, 0.7, 0.2},
		metadata: Metadata{OutputShape: []int64{1, 3}},
	}
	c := NewClassifier(func() (Session, error) { return session, nil }, testCatalog(), nil)

	got, err := c.Predict(blankTensor())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(got) != 3 || got[1] != 0.7 {
		t.Fatalf("unexpected scores %v", got)
	}
	if !c.Ready() {
		t.Fatalf("expected classifier ready")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	_ = c.Close()
	if session.closed.Load() != 1 {
		t.Fatalf("expected session closed once, got %d", session.closed.Load())
	}
}

func TestLoadRunsOnceUnderConcurrentFirstUse(t *testing.T) {
	var loads atomic.Int32
	c := NewClassifier(func() (Session, error) {
		loads.Add(1)
		return &stubSession{out: []float32{1, 0, 0}, metadata: Metadata{OutputShape: []int64{1, 3}}}, nil
	}, testCatalog(), nil)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Predict(blankTensor()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("predict: %v", err)
	}
	if loads.Load() != 1 {
		t.Fatalf("expected exactly one load, got %d", loads.Load())
	}
}

func TestFailedLoadIsPermanent(t *testing.T) {
	var loads atomic.Int32
	c := NewClassifier(func() (Session, error) {
		loads.Add(1)
		return nil, errors.New("file missing")
	}, testCatalog(), nil)

	for i := 0; i < 3; i++ {
		_, err := c.Predict(blankTensor())
		if !domain.IsKind(err, domain.ErrModelUnavailable) {
			t.Fatalf("call %d: expected ErrModelUnavailable, got %v", i, err)
		}
	}
	if loads.Load() != 1 {
		t.Fatalf("expected no reload attempts, got %d loads", loads.Load())
	}
	if c.Ready() {
		t.Fatalf("expected classifier not ready")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close after failed load: %v", err)
	}
}

func TestMissingArtifactFailsEveryPredict(t *testing.T) {
	dir := t.TempDir()
	c := NewClassifier(ONNXLoader(Options{
		ModelPath:    filepath.Join(dir, "missing.onnx"),
		MetadataPath: filepath.Join(dir, "missing.json"),
	}), testCatalog(), nil)

	for i := 0; i < 2; i++ {
		if _, err := c.Predict(blankTensor()); !domain.IsKind(err, domain.ErrModelUnavailable) {
			t.Fatalf("call %d: expected ErrModelUnavailable, got %v", i, err)
		}
	}
}

func TestCatalogMismatchMakesModelUnavailable(t *testing.T) {
	session := &stubSession{
		out:      []float32{0.5, 0.5},
		metadata: Metadata{OutputShape: []int64{1, 2}},
	}
	c := NewClassifier(func() (Session, error) { return session, nil }, testCatalog(), nil)

	if _, err := c.Predict(blankTensor()); !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if session.closed.Load() != 1 {
		t.Fatalf("expected rejected session to be closed")
	}

	reordered := &stubSession{metadata: Metadata{
		OutputShape: []int64{1, 3},
		Classes:     []string{"Leaf_blight", "Leaf_healthy", "Leaf_rust"},
	}}
	c = NewClassifier(func() (Session, error) { return reordered, nil }, testCatalog(), nil)
	if err := c.Load(); !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable for reordered classes, got %v", err)
	}
}

func TestPredictWrapsRuntimeFailures(t *testing.T) {
	meta := Metadata{OutputShape: []int64{1, 3}}
	cases := map[string]*stubSession{
		"run error": {err: errors.New("boom"), metadata: meta},
		"empty":     {out: []float32{}, metadata: meta},
		"nan":       {out: []float32{0.2, float32(math.NaN()), 0.1}, metadata: meta},
	}
	for name, session := range cases {
		c := NewClassifier(func() (Session, error) { return session, nil }, testCatalog(), nil)
		if _, err := c.Predict(blankTensor()); !domain.IsKind(err, domain.ErrInference) {
			t.Fatalf("%s: expected ErrInference, got %v", name, err)
		}
	}

	c := NewClassifier(func() (Session, error) {
		return &stubSession{out: []float32{1, 0, 0}, metadata: meta}, nil
	}, testCatalog(), nil)
	if _, err := c.Predict(imaging.Tensor{Data: make([]float32, 10)}); !domain.IsKind(err, domain.ErrInference) {
		t.Fatalf("expected ErrInference for short tensor, got %v", err)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadMetadata(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "ok.json", `{"input_shape":[1,224,224,3],"output_shape":[1,3],"classes":["a","b","c"],"image_size":224}`)
	meta, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("load metadata: %v", err)
	}
	if meta.InputName != "input" || meta.OutputName != "output" {
		t.Fatalf("expected default tensor names, got %q/%q", meta.InputName, meta.OutputName)
	}
	if meta.OutputSize() != 3 {
		t.Fatalf("expected output size 3, got %d", meta.OutputSize())
	}

	bad := map[string]string{
		"malformed":   `{"input_shape":`,
		"nchw":        `{"input_shape":[1,3,224,224],"output_shape":[1,3]}`,
		"wrong size":  `{"input_shape":[1,224,224,3],"output_shape":[1,3],"image_size":256}`,
		"no output":   `{"input_shape":[1,224,224,3]}`,
		"class count": `{"input_shape":[1,224,224,3],"output_shape":[1,3],"classes":["a"]}`,
	}
	for name, content := range bad {
		if _, err := LoadMetadata(writeFile(t, dir, "bad.json", content)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestCloseBeforeFirstUseDoesNotLoad(t *testing.T) {
	var loads atomic.Int32
	c := NewClassifier(func() (Session, error) {
		loads.Add(1)
		return &stubSession{metadata: Metadata{OutputShape: []int64{1, 3}}}, nil
	}, testCatalog(), nil)

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if loads.Load() != 0 {
		t.Fatalf("close loaded the model %d times", loads.Load())
	}

	_, err := c.Predict(blankTensor())
	if !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable after close, got %v", err)
	}
	if loads.Load() != 0 {
		t.Fatalf("predict after close loaded the model %d times", loads.Load())
	}
}

func TestCloseReleasesLoadedSessionOnce(t *testing.T) {
	session := &stubSession{metadata: Metadata{OutputShape: []int64{1, 3}}}
	c := NewClassifier(func() (Session, error) { return session, nil }, testCatalog(), nil)
	if err := c.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := c.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
	if session.closed.Load() != 1 {
		t.Fatalf("expected session closed once, got %d", session.closed.Load())
	}
}

func TestClosedONNXSessionRejectsRun(t *testing.T) {
	s := &onnxSession{}
	if _, err := s.Run(make([]float32, imaging.Len())); !errors.Is(err, errSessionClosed) {
		t.Fatalf("expected errSessionClosed, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close of closed session: %v", err)
	}
}
