package types

// InlineImage is an image embedded directly in a model request
type InlineImage struct {
	Data     string `json:"data"` // base64 (standard encoding), no data URL prefix
	MIMEType string `json:"mimeType"`
}

// DataURL returns the payload as a data URL suitable for an <img> src
func (i InlineImage) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + i.Data
}

// Crop is a single crop recommendation for an analysed soil sample
type Crop struct {
	Name   string `json:"name" yaml:"name"`
	Reason string `json:"reason" yaml:"reason"`
}

// SoilAnalysisResult contains the model's assessment of a soil photo
type SoilAnalysisResult struct {
	SoilType       string  `json:"soilType" yaml:"soilType"`
	EstimatedPh    float64 `json:"estimatedPh" yaml:"estimatedPh"`
	Description    string  `json:"description" yaml:"description"`
	SuggestedCrops []Crop  `json:"suggestedCrops" yaml:"suggestedCrops"`
}

// ControlMethod describes one way of dealing with an identified pest
type ControlMethod struct {
	Method      string `json:"method" yaml:"method"`
	Description string `json:"description" yaml:"description"`
}

// PestAnalysisResult contains the model's identification of a pest photo
type PestAnalysisResult struct {
	PestName          string          `json:"pestName" yaml:"pestName"`
	DamageDescription string          `json:"damageDescription" yaml:"damageDescription"`
	IsHarmful         bool            `json:"isHarmful" yaml:"isHarmful"`
	ControlMethods    []ControlMethod `json:"controlMethods" yaml:"controlMethods"`
}

// Clone returns a deep copy so callers cannot mutate a held snapshot
func (r *SoilAnalysisResult) Clone() *SoilAnalysisResult {
	if r == nil {
		return nil
	}
	c := *r
	if r.SuggestedCrops != nil {
		c.SuggestedCrops = make([]Crop, len(r.SuggestedCrops))
		copy(c.SuggestedCrops, r.SuggestedCrops)
	}
	return &c
}

// Clone returns a deep copy so callers cannot mutate a held snapshot
func (r *PestAnalysisResult) Clone() *PestAnalysisResult {
	if r == nil {
		return nil
	}
	c := *r
	if r.ControlMethods != nil {
		c.ControlMethods = make([]ControlMethod, len(r.ControlMethods))
		copy(c.ControlMethods, r.ControlMethods)
	}
	return &c
}

// AnalysisKind selects which analysis is performed on an image
type AnalysisKind string

const (
	KindSoil AnalysisKind = "soil"
	KindPest AnalysisKind = "pest"
)

// Valid reports whether k names a known analysis
func (k AnalysisKind) Valid() bool {
	return k == KindSoil || k == KindPest
}
