package model

// Metadata describes the exported model artifact. It is written next to the
// .onnx file by the export script.
type Metadata struct {
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
}

// OutputSize is the number of values the model emits per image.
func (m Metadata) OutputSize() int {
	if len(m.OutputShape) == 0 {
		return 0
	}
	n := int64(1)
	for _, dim := range m.OutputShape {
		n *= dim
	}
	return int(n)
}

// ProbabilityVector holds one non-negative score per catalog class.
type ProbabilityVector []float32
