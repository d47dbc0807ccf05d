package main

import (
	"flag"
	"log"
	"math"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/roller/sim"
	"github.com/milk9111/roller/tuning"
)

const (
	frameDelta   = 1.0 / 60.0
	startRadius  = 0.5
	settleFrames = 30

	// perturbation magnitude in normalized parameter space
	perturbStrength = 0.15
	stepGain        = 0.25
	// standard gain decay exponents
	alphaExp = 0.602
	gammaExp = 0.101
)

// searched parameters: volume contribution factor, difficulty scale
// rate, growth rate reduction.
var (
	paramLo = [3]float64{0.05, 0, 0.05}
	paramHi = [3]float64{1, 0.1, 1}
)

func main() {
	iters := flag.Int("iters", 80, "search iterations")
	collections := flag.Int("collections", 120, "collections in the target curve")
	goal := flag.Float64("goal", 12.0, "target radius after the full curve")
	seed := flag.Uint64("seed", 1, "perturbation seed")
	out := flag.String("out", "", "write the best parameters as a tuning file")
	flag.Parse()

	if *collections < 1 || *goal <= startRadius {
		log.Fatalf("tune: need at least 1 collection and goal > %v", startRadius)
	}

	target := targetCurve(*collections, *goal)
	pile := pileFor(target)
	defaults := tuning.Default()

	theta := normalize([3]float64{
		defaults.Growth.VolumeContributionFactor,
		defaults.Growth.DifficultyScaleRate,
		defaults.Growth.GrowthRateReduction,
	})
	best := theta
	bestLoss := evalLoss(defaults, denormalize(theta), target, pile)
	log.Printf("tune: baseline loss %.4f", bestLoss)

	rng := rand.New(rand.NewPCG(*seed, *seed))
	stability := float64(*iters) / 10

	for k := 0; k < *iters; k++ {
		ck := perturbStrength / math.Pow(float64(k+1), gammaExp)
		ak := stepGain / math.Pow(float64(k+1)+stability, alphaExp)

		var delta [3]float64
		for i := range delta {
			if rng.IntN(2) == 0 {
				delta[i] = 1
			} else {
				delta[i] = -1
			}
		}

		plus, minus := theta, theta
		for i := range theta {
			plus[i] = clamp01(theta[i] + ck*delta[i])
			minus[i] = clamp01(theta[i] - ck*delta[i])
		}
		lossPlus := evalLoss(defaults, denormalize(plus), target, pile)
		lossMinus := evalLoss(defaults, denormalize(minus), target, pile)

		for i := range theta {
			grad := (lossPlus - lossMinus) / (2 * ck * delta[i])
			theta[i] = clamp01(theta[i] - ak*grad)
		}

		if lossPlus < bestLoss {
			bestLoss, best = lossPlus, plus
		}
		if lossMinus < bestLoss {
			bestLoss, best = lossMinus, minus
		}
		log.Printf("tune: iter %d: c %.4f a %.4f loss+ %.4f loss- %.4f best %.4f",
			k, ck, ak, lossPlus, lossMinus, bestLoss)
	}

	loss := evalLoss(defaults, denormalize(theta), target, pile)
	if loss < bestLoss {
		bestLoss, best = loss, theta
	}

	tuned := denormalize(best)
	log.Printf("tune: best loss %.4f", bestLoss)
	log.Printf("tune: volume_contribution_factor %.4f", tuned[0])
	log.Printf("tune: difficulty_scale_rate %.4f", tuned[1])
	log.Printf("tune: growth_rate_reduction %.4f", tuned[2])

	if *out != "" {
		if err := writeTuning(*out, defaults, tuned); err != nil {
			log.Fatal(err)
		}
		log.Printf("tune: wrote %s", *out)
	}
}

// targetCurve is the wanted radius after each collection: exponential
// from the start radius to the goal.
func targetCurve(collections int, goal float64) []float64 {
	target := make([]float64, collections)
	for i := range target {
		frac := float64(i+1) / float64(collections)
		target[i] = startRadius * math.Pow(goal/startRadius, frac)
	}
	return target
}

// pileFor sizes one item per target waypoint so each becomes
// collectible shortly before the ball is due to pass its waypoint.
func pileFor(target []float64) []float64 {
	pile := make([]float64, len(target))
	for i, r := range target {
		pile[i] = r * 0.4
	}
	return pile
}

// evalLoss replays the pickup script headlessly: each step greedily
// collects the largest remaining collectible item, lets the radius
// settle, and accumulates squared error against the target curve.
// Stalling out adds a penalty per missed waypoint.
func evalLoss(base tuning.Params, p [3]float64, target, pile []float64) float64 {
	growth := base.Growth
	growth.VolumeContributionFactor = p[0]
	growth.DifficultyScaleRate = p[1]
	growth.GrowthRateReduction = p[2]

	k := sim.NewKatamari(startRadius, growth, base.Attraction)
	collected := make([]bool, len(pile))
	stallPenalty := target[len(target)-1] * target[len(target)-1]

	loss := 0.0
	for step := range target {
		pick := -1
		for i := len(pile) - 1; i >= 0; i-- {
			if !collected[i] && k.CanCollect(pile[i]) {
				pick = i
				break
			}
		}
		if pick < 0 {
			for j := step; j < len(target); j++ {
				diff := target[j] - k.Radius
				loss += diff*diff + stallPenalty
			}
			return loss
		}
		collected[pick] = true
		k.Collect(pile[pick])
		for f := 0; f < settleFrames; f++ {
			k.Update(frameDelta, 0)
		}
		diff := k.Radius - target[step]
		loss += diff * diff
	}
	return loss
}

func writeTuning(path string, base tuning.Params, p [3]float64) error {
	base.Growth.VolumeContributionFactor = p[0]
	base.Growth.DifficultyScaleRate = p[1]
	base.Growth.GrowthRateReduction = p[2]
	if err := base.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(base)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func normalize(p [3]float64) [3]float64 {
	var n [3]float64
	for i := range p {
		n[i] = clamp01((p[i] - paramLo[i]) / (paramHi[i] - paramLo[i]))
	}
	return n
}

func denormalize(n [3]float64) [3]float64 {
	var p [3]float64
	for i := range n {
		p[i] = paramLo[i] + n[i]*(paramHi[i]-paramLo[i])
	}
	return p
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
