package quality

import (
	"fmt"

	"github.com/ironsheep/bgremove-mcp/internal/bgremove"
)

// Scores holds the sub-scores of an evaluation.
type Scores struct {
	Transparency int `json:"transparency"` // 0-40
	Purity       int `json:"purity"`       // 0-30
	Color        int `json:"color"`        // 0-30
	Total        int `json:"total"`
}

// Evaluation is the graded verdict on an Analysis.
type Evaluation struct {
	Scores          Scores   `json:"scores"`
	Grade           string   `json:"grade"`
	Passed          bool     `json:"passed"`
	Issues          []string `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// PassingScore is the lowest total that counts as a usable result.
const PassingScore = 70

// gradeFloors maps the lowest total for each grade, best first.
var gradeFloors = []struct {
	min   int
	grade string
}{
	{90, "A+"},
	{85, "A"},
	{80, "A-"},
	{75, "B+"},
	{70, "B"},
	{65, "B-"},
	{60, "C+"},
	{55, "C"},
	{50, "C-"},
	{45, "D"},
}

// Grade maps a 0-100 total to a letter grade.
func Grade(total int) string {
	for _, g := range gradeFloors {
		if total >= g.min {
			return g.grade
		}
	}
	return "F"
}

// Evaluate scores an analysis.
func Evaluate(a *Analysis) *Evaluation {
	e := &Evaluation{Issues: []string{}, Recommendations: []string{}}

	issue := func(format string, args ...any) {
		e.Issues = append(e.Issues, fmt.Sprintf(format, args...))
	}
	recommend := func(s string) {
		e.Recommendations = append(e.Recommendations, s)
	}

	switch t := a.TransparentPercentage; {
	case t > 70:
		e.Scores.Transparency = 40
	case t > 50:
		e.Scores.Transparency = 30
		issue("low transparent share: %.2f%%", t)
	case t > 30:
		e.Scores.Transparency = 20
		issue("background only partly removed: %.2f%% transparent", t)
		recommend("raise the color tolerance or enable aggressive mode")
	default:
		e.Scores.Transparency = 10
		issue("background removal failed: only %.2f%% transparent", t)
		recommend("check the detected background color and the selected mode")
	}

	switch r := a.ArtifactPercentage(); {
	case r < 5:
		e.Scores.Purity = 30
	case r < 15:
		e.Scores.Purity = 20
		issue("minor background residue: %.2f%%", r)
	case r < 30:
		e.Scores.Purity = 10
		issue("significant background residue: %.2f%%", r)
		recommend("increase edge feathering or use the light variant for white backgrounds")
	default:
		e.Scores.Purity = 5
		issue("severe background residue: %.2f%%", r)
		recommend("the background is not a single flat color; try a different tolerance or metric")
	}

	switch c := a.ColoredPercentage; {
	case c > 15:
		e.Scores.Color = 30
	case c > 8:
		e.Scores.Color = 20
		issue("little colored content: %.2f%%", c)
	case c > 3:
		e.Scores.Color = 10
		issue("insufficient colored content: %.2f%%", c)
		recommend("enable dark content protection or lower the tolerance")
	default:
		e.Scores.Color = 5
		issue("almost no colored content: %.2f%%", c)
		recommend("verify the subject survived removal")
	}

	e.Scores.Total = e.Scores.Transparency + e.Scores.Purity + e.Scores.Color
	e.Grade = Grade(e.Scores.Total)
	e.Passed = e.Scores.Total >= PassingScore
	return e
}

// Report bundles an analysis with its evaluation.
type Report struct {
	Analysis   *Analysis   `json:"analysis"`
	Evaluation *Evaluation `json:"evaluation"`
}

// Assess runs Analyze followed by Evaluate.
func Assess(buf *bgremove.Buffer) (*Report, error) {
	a, err := Analyze(buf)
	if err != nil {
		return nil, err
	}
	return &Report{Analysis: a, Evaluation: Evaluate(a)}, nil
}
