/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"math"
	"os"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/notargets/gosolid/InputParameters"
	"github.com/notargets/gosolid/energy"
	"github.com/notargets/gosolid/solid2D"
	"github.com/notargets/gosolid/solver"
	"github.com/notargets/gosolid/utils"
)

type ModelSim struct {
	Scenario  string
	ParamFile string
	Graph     bool
	Profile   bool
	Verbose   bool
}

// SimCmd represents the sim command
var SimCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run a 2D elastodynamics scenario",
	Long: `
Runs one of the built-in scenarios with the projected Newton IP solver:

	drop      mass-spring block dropped on the ground
	neo       Neo-Hookean block dropped on the ground (inversion free)
	slide     Neo-Hookean block sliding down a frictional slope
	compress  block squeezed by a scripted Dirichlet ceiling
	stack     two blocks with point-edge self-contact
	reduced   drop scenario solved in a modal subspace`,
	Run: func(cmd *cobra.Command, args []string) {
		ms := &ModelSim{}
		ms.Scenario, _ = cmd.Flags().GetString("scenario")
		ms.ParamFile, _ = cmd.Flags().GetString("paramFile")
		ms.Graph, _ = cmd.Flags().GetBool("graph")
		ms.Profile, _ = cmd.Flags().GetBool("profile")
		ms.Verbose, _ = cmd.Flags().GetBool("verbose")
		ip := processSimInput(ms)
		RunSim(ms, ip)
	},
}

func init() {
	rootCmd.AddCommand(SimCmd)
	SimCmd.Flags().StringP("scenario", "s", "drop", "scenario to run: drop, neo, slide, compress, stack, reduced")
	SimCmd.Flags().StringP("paramFile", "I", "", "YAML file for input parameters like:\n\t- TimeStep\n\t- Dhat, Kappa\n\t- FrictionMu")
	SimCmd.Flags().BoolP("graph", "g", false, "plot the Newton iteration count per step after the run")
	SimCmd.Flags().BoolP("profile", "p", false, "write a CPU profile for the run")
	SimCmd.Flags().BoolP("verbose", "v", false, "print per-iteration Newton residuals")
}

func processSimInput(ms *ModelSim) (ip *InputParameters.InputParameters2D) {
	ip = InputParameters.Defaults()
	if len(ms.ParamFile) != 0 {
		data, err := ioutil.ReadFile(ms.ParamFile)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		if err = ip.Parse(data); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			exampleFile := `
########################################
Title: "Block Drop"
TimeStep: 0.01
FinalTime: 1.
Dhat: 0.01
Kappa: 1.e5
FrictionMu: 0.3
########################################
`
			fmt.Printf("Example File:%s\n", exampleFile)
			os.Exit(1)
		}
	}
	return
}

func RunSim(ms *ModelSim, ip *InputParameters.InputParameters2D) {
	if ms.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}
	ip.Print()
	integ, err := BuildScenario(ms.Scenario, ip)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	integ.Opts.Verbose = ms.Verbose

	var (
		nSteps = int(math.Ceil(ip.FinalTime / ip.TimeStep))
		iters  []float64
	)
	fmt.Printf("Scenario: %s, %d nodes, %d steps\n\n", ms.Scenario, integ.Mesh.NumNodes(), nSteps)
	for n := 0; n < nSteps; n++ {
		rep, err := integ.Step()
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		iters = append(iters, float64(rep.Iters))
		fmt.Printf("step %4d: newton iters = %3d, residual = %10.4e, E_kin = %10.4e, E_ela = %10.4e, min gap = %10.4e\n",
			rep.Step, rep.Iters, rep.Residual, rep.Kinetic, rep.Elastic, rep.MinGap)
	}
	if ms.Graph {
		fmt.Println()
		fmt.Println(asciigraph.Plot(iters,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("Newton iterations per step")))
	}
}

// BuildScenario assembles the mesh, energy terms and integrator of one of
// the built-in cases.
func BuildScenario(name string, ip *InputParameters.InputParameters2D) (integ *solver.Integrator, err error) {
	var (
		size = ip.BlockSize
		res  = ip.BlockResolution
		grav = [2]float64{0, -ip.Gravity}
	)
	switch name {
	case "drop", "reduced":
		var mesh *solid2D.Mesh
		if mesh, err = solid2D.NewBlock(0, 0.5, size, size, res, res, ip.Density); err != nil {
			return
		}
		integ = solver.NewIntegrator(mesh, ip.TimeStep, grav)
		integ.Elastic = []energy.Term{
			energy.NewMassSpring(mesh.Edges, mesh.X, ip.SpringStiffness),
		}
		integ.Barriers = []*energy.HalfPlaneBarrier{
			energy.NewHalfPlaneBarrier([2]float64{0, 1}, 0, ip.Dhat, ip.Kappa, mesh.ContactArea),
		}
		if name == "reduced" {
			modes := ip.ReducedModes
			if modes == 0 {
				modes = 10
			}
			if integ.Lin, err = reducedDirectionSolver(integ, mesh, modes); err != nil {
				return
			}
		}
	case "neo", "slide":
		var mesh *solid2D.Mesh
		if mesh, err = solid2D.NewBlock(0, 0.5, size, size, res, res, ip.Density); err != nil {
			return
		}
		integ = solver.NewIntegrator(mesh, ip.TimeStep, grav)
		var nh *energy.NeoHookean
		if nh, err = energy.NewNeoHookean(mesh.Tris, mesh.X, ip.YoungsModulus, ip.PoissonRatio); err != nil {
			return
		}
		integ.Elastic = []energy.Term{nh}
		normal := [2]float64{0, 1}
		if name == "slide" {
			// 20 degree incline
			normal = [2]float64{math.Sin(20 * math.Pi / 180), math.Cos(20 * math.Pi / 180)}
			integ.Mu = ip.FrictionMu
			integ.EpsV = ip.FrictionEpsV
		}
		integ.Barriers = []*energy.HalfPlaneBarrier{
			energy.NewHalfPlaneBarrier(normal, 0, ip.Dhat, ip.Kappa, mesh.ContactArea),
		}
	case "compress":
		var mesh *solid2D.Mesh
		if mesh, err = solid2D.NewBlock(0, ip.Dhat, size, size, res, res, ip.Density); err != nil {
			return
		}
		// script the top row downward at a tenth of the block height per second
		for i := 0; i < mesh.NumNodes(); i++ {
			if mesh.X[2*i+1] >= ip.Dhat+size-1e-12 {
				mesh.FixNode(i, [2]float64{0, -0.1 * size})
			}
		}
		integ = solver.NewIntegrator(mesh, ip.TimeStep, grav)
		var nh *energy.NeoHookean
		if nh, err = energy.NewNeoHookean(mesh.Tris, mesh.X, ip.YoungsModulus, ip.PoissonRatio); err != nil {
			return
		}
		integ.Elastic = []energy.Term{nh}
		integ.Barriers = []*energy.HalfPlaneBarrier{
			energy.NewHalfPlaneBarrier([2]float64{0, 1}, 0, ip.Dhat, ip.Kappa, mesh.ContactArea),
		}
	case "stack":
		var mesh, upper *solid2D.Mesh
		if mesh, err = solid2D.NewBlock(0, 0.2, size, size, res, res, ip.Density); err != nil {
			return
		}
		if upper, err = solid2D.NewBlock(0.35*size, 0.2+size+0.3, size, size, res, res, ip.Density); err != nil {
			return
		}
		mesh.Append(upper)
		integ = solver.NewIntegrator(mesh, ip.TimeStep, grav)
		var nh *energy.NeoHookean
		if nh, err = energy.NewNeoHookean(mesh.Tris, mesh.X, ip.YoungsModulus, ip.PoissonRatio); err != nil {
			return
		}
		integ.Elastic = []energy.Term{nh}
		integ.Barriers = []*energy.HalfPlaneBarrier{
			energy.NewHalfPlaneBarrier([2]float64{0, 1}, 0, ip.Dhat, ip.Kappa, mesh.ContactArea),
		}
		integ.Contact = energy.NewPointEdgeBarrier(mesh.BoundaryNodes, mesh.BoundaryEdges,
			ip.Dhat, ip.Kappa, boundaryAreas(mesh))
	default:
		err = fmt.Errorf("unknown scenario %q", name)
	}
	if integ != nil {
		integ.Opts.Tol = ip.NewtonTol
		integ.Opts.MaxIters = ip.MaxIterations
	}
	return
}

// boundaryAreas maps the mesh contact areas onto the boundary node list.
func boundaryAreas(mesh *solid2D.Mesh) (area []float64) {
	area = make([]float64, len(mesh.BoundaryNodes))
	for k, i := range mesh.BoundaryNodes {
		area[k] = mesh.ContactArea[i]
	}
	return
}

// reducedDirectionSolver builds the modal basis from the rest-state spring
// stiffness and wraps it as the Newton direction solver.
func reducedDirectionSolver(integ *solver.Integrator, mesh *solid2D.Mesh, modes int) (lin solver.DirectionSolver, err error) {
	var (
		springs = integ.Elastic[0].(*energy.MassSpring)
		rest    = append([]float64(nil), mesh.X...)
		K       = utils.NewTriplets(mesh.NumDOF())
	)
	if err = springs.AddHessian(rest, K); err != nil {
		return
	}
	B, err := solver.NewModalBasis(K, mesh.Mass, solver.NewDirichletMask(mesh.Fixed), modes)
	if err != nil {
		return
	}
	lin = solver.NewReducedSolver(B)
	return
}
