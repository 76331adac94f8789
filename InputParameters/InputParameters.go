package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type InputParameters2D struct {
	Title           string  `yaml:"Title"`
	TimeStep        float64 `yaml:"TimeStep"`
	FinalTime       float64 `yaml:"FinalTime"`
	NewtonTol       float64 `yaml:"NewtonTol"` // on |p|_inf/h
	MaxIterations   int     `yaml:"MaxIterations"`
	Dhat            float64 `yaml:"Dhat"`  // barrier activation distance
	Kappa           float64 `yaml:"Kappa"` // barrier stiffness
	FrictionMu      float64 `yaml:"FrictionMu"`
	FrictionEpsV    float64 `yaml:"FrictionEpsV"`
	YoungsModulus   float64 `yaml:"YoungsModulus"`
	PoissonRatio    float64 `yaml:"PoissonRatio"`
	SpringStiffness float64 `yaml:"SpringStiffness"`
	Density         float64 `yaml:"Density"`
	Gravity         float64 `yaml:"Gravity"` // magnitude, applied along -y
	ReducedModes    int     `yaml:"ReducedModes"`
	BlockResolution int     `yaml:"BlockResolution"`
	BlockSize       float64 `yaml:"BlockSize"`
}

func (ip *InputParameters2D) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return err
	}
	return ip.Validate()
}

func (ip *InputParameters2D) Validate() error {
	switch {
	case ip.TimeStep <= 0:
		return fmt.Errorf("TimeStep must be positive, got %g", ip.TimeStep)
	case ip.NewtonTol <= 0:
		return fmt.Errorf("NewtonTol must be positive, got %g", ip.NewtonTol)
	case ip.MaxIterations <= 0:
		return fmt.Errorf("MaxIterations must be positive, got %d", ip.MaxIterations)
	case ip.Dhat <= 0 || ip.Kappa <= 0:
		return fmt.Errorf("barrier parameters must be positive, got dhat = %g, kappa = %g", ip.Dhat, ip.Kappa)
	case ip.FrictionMu < 0:
		return fmt.Errorf("FrictionMu must be non-negative, got %g", ip.FrictionMu)
	case ip.PoissonRatio < 0 || ip.PoissonRatio >= 0.5:
		// Lambda = E*nu/((1+nu)(1-2nu)) blows up at the incompressible limit
		return fmt.Errorf("PoissonRatio must be in [0, 0.5), got %g", ip.PoissonRatio)
	case ip.Density <= 0:
		return fmt.Errorf("Density must be positive, got %g", ip.Density)
	}
	return nil
}

func (ip *InputParameters2D) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%8.5f\t\t= TimeStep\n", ip.TimeStep)
	fmt.Printf("%8.5f\t\t= FinalTime\n", ip.FinalTime)
	fmt.Printf("%8.2e\t\t= NewtonTol\n", ip.NewtonTol)
	fmt.Printf("[%d]\t\t\t= MaxIterations\n", ip.MaxIterations)
	fmt.Printf("%8.2e\t\t= Dhat\n", ip.Dhat)
	fmt.Printf("%8.2e\t\t= Kappa\n", ip.Kappa)
	fmt.Printf("%8.5f\t\t= FrictionMu\n", ip.FrictionMu)
	fmt.Printf("%8.2e\t\t= YoungsModulus\n", ip.YoungsModulus)
	fmt.Printf("%8.5f\t\t= PoissonRatio\n", ip.PoissonRatio)
	fmt.Printf("%8.2e\t\t= SpringStiffness\n", ip.SpringStiffness)
	fmt.Printf("%8.1f\t\t= Density\n", ip.Density)
	fmt.Printf("%8.4f\t\t= Gravity\n", ip.Gravity)
	if ip.ReducedModes > 0 {
		fmt.Printf("[%d]\t\t\t= ReducedModes\n", ip.ReducedModes)
	}
}

// Defaults are the unit elastic block parameters; the YAML file overrides
// field by field.
func Defaults() (ip *InputParameters2D) {
	ip = &InputParameters2D{
		Title:           "elastic block",
		TimeStep:        0.01,
		FinalTime:       1.0,
		NewtonTol:       1e-2,
		MaxIterations:   100,
		Dhat:            0.01,
		Kappa:           1e5,
		FrictionMu:      0,
		FrictionEpsV:    1e-3,
		YoungsModulus:   1e5,
		PoissonRatio:    0.4,
		SpringStiffness: 2e4,
		Density:         1000,
		Gravity:         9.81,
		BlockResolution: 4,
		BlockSize:       1.0,
	}
	return
}
