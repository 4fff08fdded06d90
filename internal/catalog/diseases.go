package catalog

// defaultEntries is in the output order of the PlantVillage model.
var defaultEntries = []Entry{
	{Label: "Pepper_bell_Bacterial_spot", Plant: "Pepper Bell", Remedy: "Use copper-based bactericides and avoid overhead watering."},
	{Label: "Pepper_bell_healthy", Plant: "Pepper Bell", Remedy: "The plant is healthy. Maintain proper watering and nutrient levels."},
	{Label: "Potato_Early_blight", Plant: "Potato", Remedy: "Use fungicides with chlorothalonil and practice crop rotation."},
	{Label: "Potato_healthy", Plant: "Potato", Remedy: "The plant is healthy. Ensure good soil drainage."},
	{Label: "Potato_Late_blight", Plant: "Potato", Remedy: "Use copper-based fungicides and remove affected leaves."},
	{Label: "Tomato_Target_Spot", Plant: "Tomato", Remedy: "Apply fungicides like chlorothalonil and avoid excess moisture."},
	{Label: "Tomato_Tomato_mosaic_virus", Plant: "Tomato", Remedy: "Remove infected plants immediately and control aphids."},
	{Label: "Tomato_Tomato_YellowLeaf_Curl_Virus", Plant: "Tomato", Remedy: "Control whiteflies and use virus-resistant varieties."},
	{Label: "Tomato_Bacterial_spot", Plant: "Tomato", Remedy: "Use copper sprays and avoid overhead irrigation."},
	{Label: "Tomato_Early_blight", Plant: "Tomato", Remedy: "Use chlorothalonil-based fungicides regularly."},
	{Label: "Tomato_healthy", Plant: "Tomato", Remedy: "The plant is healthy. Maintain good cultivation practices."},
	{Label: "Tomato_Late_blight", Plant: "Tomato", Remedy: "Apply fungicides containing mancozeb and remove infected leaves."},
	{Label: "Tomato_Leaf_Mold", Plant: "Tomato", Remedy: "Ensure proper ventilation and use fungicides if needed."},
	{Label: "Tomato_Septoria_leaf_spot", Plant: "Tomato", Remedy: "Remove infected leaves and use copper-based fungicides."},
	{Label: "Tomato_Spider_mites_Two_spotted_spider_mite", Plant: "Tomato", Remedy: "Use neem oil or insecticidal soaps to control mites."},
}

// Default returns the compiled disease table.
func Default() *Catalog {
	return MustNew(defaultEntries)
}
