package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/agri-assistant/pkg/presenter"
	"github.com/menta2k/agri-assistant/pkg/types"
)

// Formats accepted by Display
const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Display writes an analysis result in the requested format
func Display(w io.Writer, result any, format string) error {
	switch format {
	case FormatJSON:
		return displayJSON(w, result)
	case FormatYAML:
		return displayYAML(w, result)
	case FormatHuman, "":
		return displayHuman(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s (use human, json or yaml)", format)
	}
}

func displayJSON(w io.Writer, result any) error {
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func displayYAML(w io.Writer, result any) error {
	output, err := yaml.Marshal(result)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(output))
	return err
}

func displayHuman(w io.Writer, result any) error {
	switch r := result.(type) {
	case *types.SoilAnalysisResult:
		displaySoil(w, r)
	case *types.PestAnalysisResult:
		displayPest(w, r)
	default:
		return fmt.Errorf("cannot display %T", result)
	}

	fmt.Fprintln(w, strings.Repeat("─", 80))
	fmt.Fprintf(w, "%s\n", color.HiBlackString("Run with -o json or -o yaml for machine-readable output"))
	return nil
}

func displaySoil(w io.Writer, r *types.SoilAnalysisResult) {
	heading := color.New(color.FgGreen, color.Bold)
	label := color.New(color.FgHiBlack)

	fmt.Fprintln(w)
	heading.Fprintln(w, "ANALYSIS RESULTS")
	label.Fprint(w, "Soil type:          ")
	fmt.Fprintln(w, r.SoilType)
	label.Fprint(w, "Estimated pH level: ")
	fmt.Fprintln(w, presenter.FormatPh(r.EstimatedPh))
	label.Fprintln(w, "Description:")
	fmt.Fprintln(w, wrapText(r.Description, 80, "   "))
	fmt.Fprintln(w)

	if len(r.SuggestedCrops) > 0 {
		heading.Fprintln(w, "SUGGESTED CROPS")
		for i, crop := range r.SuggestedCrops {
			fmt.Fprintf(w, "   %d. %s\n", i+1, color.GreenString(crop.Name))
			fmt.Fprintln(w, wrapText(crop.Reason, 80, "      "))
		}
		fmt.Fprintln(w)
	}
}

func displayPest(w io.Writer, r *types.PestAnalysisResult) {
	heading := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgHiBlack)

	fmt.Fprintln(w)
	heading.Fprintln(w, "IDENTIFICATION RESULTS")
	label.Fprint(w, "Identified: ")
	fmt.Fprintln(w, r.PestName)
	if r.IsHarmful {
		color.New(color.FgRed, color.Bold).Fprintln(w, "Harmful to crops")
	} else {
		color.New(color.FgGreen, color.Bold).Fprintln(w, "Not harmful")
	}
	label.Fprintln(w, "Damage:")
	fmt.Fprintln(w, wrapText(r.DamageDescription, 80, "   "))
	fmt.Fprintln(w)

	if len(r.ControlMethods) > 0 {
		heading.Fprintln(w, "CONTROL METHODS")
		for i, m := range r.ControlMethods {
			fmt.Fprintf(w, "   %d. %s\n", i+1, color.CyanString(m.Method))
			fmt.Fprintln(w, wrapText(m.Description, 80, "      "))
		}
		fmt.Fprintln(w)
	}
}

// wrapText wraps text to width characters, prefixing every line with indent
func wrapText(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return indent
	}

	var lines []string
	line := indent + words[0]
	n := utf8.RuneCountInString(line)
	for _, word := range words[1:] {
		w := utf8.RuneCountInString(word)
		if n+1+w > width {
			lines = append(lines, line)
			line = indent + word
			n = utf8.RuneCountInString(indent) + w
			continue
		}
		line += " " + word
		n += 1 + w
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
