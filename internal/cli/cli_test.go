package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Brownie44l1/plant-disease-api/internal/catalog"
	"github.com/Brownie44l1/plant-disease-api/internal/diagnosis"
	"github.com/Brownie44l1/plant-disease-api/internal/domain"
)

type stubDiagnoser struct{}

func (stubDiagnoser) Diagnose(_ context.Context, raw []byte) (diagnosis.Record, error) {
	if len(raw) == 0 {
		return diagnosis.Record{}, domain.WrapError(domain.ErrInvalidImage, "normalize", os.ErrInvalid)
	}
	return diagnosis.Compose(diagnosis.Prediction{ClassIndex: 2, Confidence: 0.75}, catalog.Default())
}

func TestDiagnoseFilesWritesOneLinePerImage(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "leaf.jpg")
	empty := filepath.Join(dir, "empty.jpg")
	if err := os.WriteFile(good, []byte("bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out bytes.Buffer
	failures := diagnoseFiles(context.Background(), &out, stubDiagnoser{}, []string{good, empty, filepath.Join(dir, "missing.jpg")}, "json")
	if failures != 2 {
		t.Fatalf("expected 2 failures, got %d", failures)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out.String())
	}

	var first diagnoseResult
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Result == nil || first.Result.Disease != "Potato_Early_blight" || first.Result.ConfidencePercent != "75.0%" {
		t.Fatalf("unexpected first result %+v", first)
	}

	var second diagnoseResult
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second.Result != nil || second.Kind != "invalid_image" {
		t.Fatalf("unexpected second result %+v", second)
	}
}

func TestDiagnoseFilesTextFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaf.png")
	if err := os.WriteFile(path, []byte("bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out bytes.Buffer
	if failures := diagnoseFiles(context.Background(), &out, stubDiagnoser{}, []string{path}, "text"); failures != 0 {
		t.Fatalf("expected no failures, got %d", failures)
	}
	for _, want := range []string{"Plant:      Potato", "Diagnosis:  Potato Early blight", "Confidence: 75.0%"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestPrintCatalog(t *testing.T) {
	var out bytes.Buffer
	if err := printCatalog(&out, catalog.Default(), "json"); err != nil {
		t.Fatalf("print catalog: %v", err)
	}
	var entries []catalog.Entry
	if err := json.Unmarshal(out.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 15 || entries[0].Label != "Pepper_bell_Bacterial_spot" {
		t.Fatalf("unexpected catalog output %+v", entries)
	}

	out.Reset()
	if err := printCatalog(&out, catalog.Default(), "text"); err != nil {
		t.Fatalf("print catalog: %v", err)
	}
	if !strings.Contains(out.String(), "Tomato Leaf Mold") {
		t.Fatalf("text catalog missing display names:\n%s", out.String())
	}
}
