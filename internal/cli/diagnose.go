package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Brownie44l1/plant-disease-api/internal/catalog"
	"github.com/Brownie44l1/plant-disease-api/internal/diagnosis"
	"github.com/Brownie44l1/plant-disease-api/internal/domain"
	"github.com/Brownie44l1/plant-disease-api/internal/imaging"
	"github.com/Brownie44l1/plant-disease-api/internal/logging"
	"github.com/Brownie44l1/plant-disease-api/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "diagnose [image...]",
		Short: "Diagnose one or more leaf images",
		Args:  cobra.MinimumNArgs(1),
		Run:   runDiagnose,
	}

	cmd.Flags().StringVarP(&modelPath, "model", "m", envOr("MODEL_PATH", filepath.Join("models", "plant_disease.onnx")), "Path to the ONNX model")
	cmd.Flags().StringVar(&metadataPath, "metadata", envOr("METADATA_PATH", filepath.Join("models", "model_metadata.json")), "Path to the model metadata JSON")
	cmd.Flags().StringVar(&onnxLibPath, "onnx-lib", envOr("ONNX_LIB_PATH", ""), "Path to the onnxruntime shared library")
	cmd.Flags().Int("max-pixels", imaging.DefaultMaxPixels, "Largest accepted image area in pixels")

	RootCmd.AddCommand(cmd)
}

type diagnoseResult struct {
	File   string            `json:"file"`
	Result *diagnosis.Record `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
	Kind   string            `json:"kind,omitempty"`
}

func runDiagnose(cmd *cobra.Command, args []string) {
	maxPixels, _ := cmd.Flags().GetInt("max-pixels")

	logger := logging.NewJSONLogger("leaf-diagnose", logLevel, "production")
	cat := catalog.Default()
	classifier := model.NewClassifier(model.ONNXLoader(model.Options{
		ModelPath:         modelPath,
		MetadataPath:      metadataPath,
		SharedLibraryPath: onnxLibPath,
	}), cat, logger)
	defer classifier.Close()

	if err := classifier.Load(); err != nil {
		exitErr("load model", err)
	}

	pipeline := diagnosis.NewPipeline(imaging.NewNormalizer(maxPixels), classifier, cat, nil, logger)
	failures := diagnoseFiles(cmd.Context(), cmd.OutOrStdout(), pipeline, args, formatFlag)
	if failures > 0 {
		classifier.Close()
		os.Exit(1)
	}
}

type imageDiagnoser interface {
	Diagnose(ctx context.Context, raw []byte) (diagnosis.Record, error)
}

// diagnoseFiles writes one result per path and returns how many failed.
func diagnoseFiles(ctx context.Context, out io.Writer, d imageDiagnoser, paths []string, format string) int {
	if ctx == nil {
		ctx = context.Background()
	}

	failures := 0
	for _, path := range paths {
		res := diagnoseResult{File: path}

		raw, err := os.ReadFile(path)
		if err == nil {
			var rec diagnosis.Record
			rec, err = d.Diagnose(ctx, raw)
			if err == nil {
				res.Result = &rec
			}
		}
		if err != nil {
			failures++
			res.Kind = domain.KindName(err)
			res.Error = err.Error()
		}

		if format == "text" {
			writeText(out, res)
			continue
		}
		b, _ := json.Marshal(res)
		fmt.Fprintln(out, string(b))
	}
	return failures
}

func writeText(out io.Writer, res diagnoseResult) {
	if res.Result == nil {
		fmt.Fprintf(out, "%s: error (%s): %s\n", res.File, res.Kind, res.Error)
		return
	}
	r := res.Result
	fmt.Fprintf(out, "%s\n  Plant:      %s\n  Diagnosis:  %s\n  Confidence: %s\n  Treatment:  %s\n",
		res.File, r.Plant, r.DisplayName, r.ConfidencePercent, r.Remedy)
}
