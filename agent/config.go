package agent

import "github.com/gorgonia/fluxzero/fluid"

// Config configures a FluxAgent.
type Config struct {
	// Exploration is passed to SelectLeaf. For the default Softmax policy it is the temperature.
	Exploration  float64 `yaml:"exploration" validate:"gte=0"`
	LearningRate float64 `yaml:"learning_rate" validate:"gt=0,lte=1"`
	Simulations  int     `yaml:"simulations" validate:"gte=1"`
	Workers      int     `yaml:"workers" validate:"gte=1,lte=256"`
	Seed         uint64  `yaml:"seed"`

	// Selection is the flow policy of the tree: softmax (the default) or proportional.
	Selection string `yaml:"selection" validate:"omitempty,oneof=softmax proportional"`
	// conductivities are kept within these bounds when MaxConductivity is set
	MinConductivity float64 `yaml:"min_conductivity" validate:"gte=0,ltefield=MaxConductivity"`
	MaxConductivity float64 `yaml:"max_conductivity" validate:"gte=0,lte=1"`

	// rewards of a rollout, from the point of view of the player to move
	WinReward  float64 `yaml:"win_reward" validate:"gte=0,lte=1"`
	DrawReward float64 `yaml:"draw_reward" validate:"gte=0,lte=1"`
	LossReward float64 `yaml:"loss_reward" validate:"gte=0,lte=1"`

	RandomCount       int     `yaml:"random_count" validate:"gte=0"` // if the move number is less than this, we should randomize
	RandomMinVisits   int32   `yaml:"random_min_visits" validate:"gte=0"`
	RandomTemperature float32 `yaml:"random_temperature" validate:"gt=0"`

	// supervised erosion
	TrainRepeat       int     `yaml:"train_repeat" validate:"gte=1"`
	TrainLearningRate float64 `yaml:"train_learning_rate" validate:"gt=0,lte=1"`
}

func DefaultConfig() Config {
	return Config{
		Exploration:  1.414,
		LearningRate: 0.1,
		Simulations:  500,
		Workers:      4,
		Seed:         1337,

		Selection:       "softmax",
		MinConductivity: 0.01,
		MaxConductivity: 0.99,

		WinReward:  1,
		DrawReward: 0.5,
		LossReward: 0,

		RandomTemperature: 1,

		TrainRepeat:       5,
		TrainLearningRate: 0.2,
	}
}

func (c Config) selectionPolicy() fluid.SelectionPolicy {
	if c.Selection == "proportional" {
		return fluid.Proportional
	}
	return fluid.Softmax
}

func (c Config) updatePolicy() fluid.UpdatePolicy {
	if c.MaxConductivity > 0 {
		return fluid.Clamped(fluid.ExpSmoothing, c.MinConductivity, c.MaxConductivity)
	}
	return fluid.ExpSmoothing
}
