package models

// ModelType é um dos modelos oferecidos pelo workshop.
type ModelType string

const (
	ModelANN                ModelType = "ANN"
	ModelCNN                ModelType = "CNN"
	ModelLinearRegression   ModelType = "Linear Regression"
	ModelLogisticRegression ModelType = "Logistic Regression"
	ModelLSTM               ModelType = "LSTM"
	ModelTransformers       ModelType = "Transformers"
)

// ModeType é um modo de execução.
type ModeType string

const (
	ModeCPU     ModeType = "CPU"
	ModeGPU     ModeType = "GPU"
	ModePySpark ModeType = "PySpark"
)

// ModelInfo é uma entrada do catálogo de modelos.
type ModelInfo struct {
	Value       ModelType `json:"value"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Restricted  bool      `json:"restricted"`
}

// ModeInfo é uma entrada do catálogo de modos.
type ModeInfo struct {
	Value       ModeType `json:"value"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Restricted  bool     `json:"restricted"`
}

// Models lista o catálogo na ordem de exibição.
var Models = []ModelInfo{
	{ModelANN, "Artificial Neural Network", "Basic neural network for simple pattern recognition", false},
	{ModelCNN, "Convolutional Neural Network", "Specialized for image and visual data processing", false},
	{ModelLinearRegression, "Linear Regression", "Model linear relationships between variables", true},
	{ModelLogisticRegression, "Logistic Regression", "Classification model for binary outcomes", true},
	{ModelLSTM, "Long Short-Term Memory", "RNN optimized for sequential data and time series", false},
	{ModelTransformers, "Transformers", "Advanced model architecture for NLP and more", true},
}

// Modes lista os modos de execução na ordem de exibição.
var Modes = []ModeInfo{
	{ModeCPU, "CPU", "Standard processing on CPU cores", false},
	{ModeGPU, "GPU", "Accelerated processing on graphics cards", true},
	{ModePySpark, "PySpark", "Distributed computing for big data", true},
}

// Valid indica se o modelo existe no catálogo.
func (m ModelType) Valid() bool {
	_, ok := lookupModel(m)
	return ok
}

// Restricted indica se o modelo é marcado como restrito no catálogo.
func (m ModelType) Restricted() bool {
	info, ok := lookupModel(m)
	return !ok || info.Restricted
}

// Valid indica se o modo existe no catálogo.
func (m ModeType) Valid() bool {
	_, ok := lookupMode(m)
	return ok
}

// Restricted indica se o modo é marcado como restrito no catálogo.
func (m ModeType) Restricted() bool {
	info, ok := lookupMode(m)
	return !ok || info.Restricted
}

func lookupModel(m ModelType) (ModelInfo, bool) {
	for _, info := range Models {
		if info.Value == m {
			return info, true
		}
	}
	return ModelInfo{}, false
}

func lookupMode(m ModeType) (ModeInfo, bool) {
	for _, info := range Modes {
		if info.Value == m {
			return info, true
		}
	}
	return ModeInfo{}, false
}
