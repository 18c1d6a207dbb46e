package processor

import (
	"fmt"

	goeval "github.com/edisonguo/govaluate"

	"github.com/nci/burnscar/utils"
)

// Landsat 8 TOA band names used by the fixed analytical recipe.
const (
	BandBlue    = "B2"
	BandGreen   = "B3"
	BandRed     = "B4"
	BandNIR     = "B5"
	BandSWIR1   = "B6"
	BandSWIR2   = "B7"
	BandThermal = "B10"
)

// Cloud score rescale thresholds. These are domain constants from the
// reference method, not tunables. The thermal and snow pairs are
// descending: hotter pixels and snowy pixels score lower.
const (
	CloudBlueLow      = 0.1
	CloudBlueHigh     = 0.3
	CloudVisibleLow   = 0.2
	CloudVisibleHigh  = 0.8
	CloudInfraredLow  = 0.3
	CloudInfraredHigh = 0.8
	CloudThermalLow   = 300.0
	CloudThermalHigh  = 290.0
	CloudSnowLow      = 0.8
	CloudSnowHigh     = 0.6
)

type cloudTerm struct {
	expr      *goeval.EvaluableExpression
	varList   []string
	low, high float64
}

// CloudScorer computes the per-pixel cloud likelihood score for an
// image. Expressions are parsed once at construction time and shared
// across images, so one scorer serves a whole collection.
type CloudScorer struct {
	terms []cloudTerm
}

var cloudTermDefs = []struct {
	expr      string
	low, high float64
}{
	// Clouds are reasonably bright in the blue band.
	{BandBlue, CloudBlueLow, CloudBlueHigh},
	// Clouds are reasonably bright in all visible bands.
	{BandRed + " + " + BandGreen + " + " + BandBlue, CloudVisibleLow, CloudVisibleHigh},
	// Clouds are reasonably bright in all infrared bands.
	{BandNIR + " + " + BandSWIR1 + " + " + BandSWIR2, CloudInfraredLow, CloudInfraredHigh},
	// Clouds are reasonably cool in temperature.
	{BandThermal, CloudThermalLow, CloudThermalHigh},
}

var validBandVariables = map[string]struct{}{
	BandBlue:    struct{}{},
	BandGreen:   struct{}{},
	BandRed:     struct{}{},
	BandNIR:     struct{}{},
	BandSWIR1:   struct{}{},
	BandSWIR2:   struct{}{},
	BandThermal: struct{}{},
}

func parseBandExpression(exprStr string) (*goeval.EvaluableExpression, []string, error) {
	expr, err := goeval.NewEvaluableExpression(exprStr)
	if err != nil {
		return nil, nil, err
	}

	var varList []string
	seen := map[string]struct{}{}
	for _, token := range expr.Tokens() {
		if token.Kind == goeval.VARIABLE {
			varName, ok := token.Value.(string)
			if !ok {
				return nil, nil, fmt.Errorf("variable token '%v' failed to cast string", token.Value)
			}
			if _, found := validBandVariables[varName]; !found {
				return nil, nil, fmt.Errorf("band %v is not supported. Valid bands are %v", varName, validBandVariables)
			}
			if _, found := seen[varName]; !found {
				seen[varName] = struct{}{}
				varList = append(varList, varName)
			}
		}
	}
	return expr, varList, nil
}

func NewCloudScorer() (*CloudScorer, error) {
	scorer := &CloudScorer{}
	for _, def := range cloudTermDefs {
		expr, varList, err := parseBandExpression(def.expr)
		if err != nil {
			return nil, fmt.Errorf("Error parsing band expression '%s': %v", def.expr, err)
		}
		scorer.terms = append(scorer.terms, cloudTerm{expr: expr, varList: varList, low: def.low, high: def.high})
	}
	return scorer, nil
}

func evalBandExpression(img *utils.Image, term cloudTerm) (*utils.FloatRaster, error) {
	bands := make([]*utils.FloatRaster, len(term.varList))
	for iv, ns := range term.varList {
		band, err := img.Band(ns)
		if err != nil {
			return nil, err
		}
		bands[iv] = band
	}

	out := utils.NewFloatRaster(img.Width, img.Height, img.BBox)
	params := make(map[string]interface{}, len(term.varList))
	for i := range out.Data {
		valid := true
		for iv, band := range bands {
			if !band.Valid(i) {
				valid = false
				break
			}
			params[term.varList[iv]] = float64(band.Data[i])
		}
		if !valid {
			out.SetInvalid(i)
			continue
		}

		res, err := term.expr.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("Error evaluating band expression '%s': %v", term.expr.String(), err)
		}
		value, ok := res.(float64)
		if !ok {
			return nil, fmt.Errorf("band expression '%s' does not evaluate to a number: %v", term.expr.String(), res)
		}
		out.Data[i] = float32(value)
	}
	return out, nil
}

// Score calculates the cloud score for the supplied image. The score
// is the pixel-wise minimum over the rescaled heuristic terms, so a
// pixel only scores high if it looks like cloud on every test. 1.0
// means definitely cloud, 0.0 definitely not.
func (cs *CloudScorer) Score(img *utils.Image) (*utils.FloatRaster, error) {
	score := utils.ConstRaster(1.0, img.Width, img.Height, img.BBox)

	for _, term := range cs.terms {
		raster, err := evalBandExpression(img, term)
		if err != nil {
			return nil, err
		}
		score = utils.MinRaster(score, utils.Rescale(raster, term.low, term.high))
	}

	// However, clouds are not snow. A low snow index raises no flag
	// here because the snow pair is descending.
	green, err := img.Band(BandGreen)
	if err != nil {
		return nil, err
	}
	swir, err := img.Band(BandSWIR1)
	if err != nil {
		return nil, err
	}
	ndsi, err := NormalizedDifference(green, swir)
	if err != nil {
		return nil, err
	}
	return utils.MinRaster(score, utils.Rescale(ndsi, CloudSnowLow, CloudSnowHigh)), nil
}
