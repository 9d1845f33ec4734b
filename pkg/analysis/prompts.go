package analysis

import (
	"fmt"

	"github.com/menta2k/agri-assistant/pkg/client"
	"github.com/menta2k/agri-assistant/pkg/types"
)

// SoilPrompt is the instruction sent with every soil image
const SoilPrompt = "You are an expert agronomist specializing in Namibian agriculture. Analyze the provided soil image. Identify the soil type (e.g., sandy, clay, loamy), estimate its pH level, and provide a short description. Then, list at least three crops suitable for this soil type in Namibia's climate. Provide a brief justification for each crop suggestion. Respond in JSON format."

// PestPrompt is the instruction sent with every pest image
const PestPrompt = "You are an expert entomologist and pest control specialist with knowledge of Namibian agriculture. Analyze the provided image. Identify the pest, state if it is harmful to common crops, describe its potential damage, and suggest at least two effective, preferably organic or sustainable, methods to control or eliminate it. If it's not a pest, identify what it is and state it's not a pest. Respond in JSON format."

func str(desc string) *client.Schema {
	return &client.Schema{Type: client.TypeString, Description: desc}
}

// SoilSchema is the response contract for soil analysis
var SoilSchema = &client.Schema{
	Type: client.TypeObject,
	Properties: map[string]*client.Schema{
		"soilType":    str("The identified type of soil (e.g., Sandy, Loam, Clay)."),
		"estimatedPh": {Type: client.TypeNumber, Description: "The estimated pH level of the soil."},
		"description": str("A brief description of the soil characteristics."),
		"suggestedCrops": {
			Type:        client.TypeArray,
			Description: "A list of crops suitable for this soil and climate.",
			Items: &client.Schema{
				Type: client.TypeObject,
				Properties: map[string]*client.Schema{
					"name":   str("The name of the crop."),
					"reason": str("Why this crop is suitable."),
				},
				PropertyOrder: []string{"name", "reason"},
				Required:      []string{"name", "reason"},
			},
		},
	},
	PropertyOrder: []string{"soilType", "estimatedPh", "description", "suggestedCrops"},
	Required:      []string{"soilType", "estimatedPh", "description", "suggestedCrops"},
}

// PestSchema is the response contract for pest identification
var PestSchema = &client.Schema{
	Type: client.TypeObject,
	Properties: map[string]*client.Schema{
		"pestName":          str("The common name of the identified insect or pest."),
		"damageDescription": str("A description of the damage it causes or a note that it is harmless."),
		"isHarmful":         {Type: client.TypeBoolean, Description: "Whether the identified subject is harmful to crops."},
		"controlMethods": {
			Type:        client.TypeArray,
			Description: "A list of methods to control the pest. Can be empty if not a pest.",
			Items: &client.Schema{
				Type: client.TypeObject,
				Properties: map[string]*client.Schema{
					"method":      str("The name of the control method."),
					"description": str("A detailed explanation of the method."),
				},
				PropertyOrder: []string{"method", "description"},
				Required:      []string{"method", "description"},
			},
		},
	},
	PropertyOrder: []string{"pestName", "damageDescription", "isHarmful", "controlMethods"},
	Required:      []string{"pestName", "damageDescription", "isHarmful", "controlMethods"},
}

// Prompt returns the fixed instruction for an analysis kind. It panics on an
// unknown kind.
func Prompt(kind types.AnalysisKind) string {
	switch kind {
	case types.KindSoil:
		return SoilPrompt
	case types.KindPest:
		return PestPrompt
	default:
		panic(fmt.Sprintf("analysis: unknown kind %q", kind))
	}
}

// Schema returns the response contract for an analysis kind. It panics on an
// unknown kind.
func Schema(kind types.AnalysisKind) *client.Schema {
	switch kind {
	case types.KindSoil:
		return SoilSchema
	case types.KindPest:
		return PestSchema
	default:
		panic(fmt.Sprintf("analysis: unknown kind %q", kind))
	}
}
