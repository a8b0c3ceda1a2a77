package randutil

import (
	"fmt"
	"math/rand"
)

var nameAdjectives = []string{
	"Feral", "Quantum", "Midnight", "Golden", "Rabid", "Silent",
	"Turbo", "Cosmic", "Iron", "Neon", "Patient", "Reckless",
	"Lucky", "Grim", "Electric", "Shadow", "Prime", "Wild",
}

var nameNouns = []string{
	"Shark", "Falcon", "Badger", "Viper", "Octopus", "Mantis",
	"Wolf", "Raven", "Piranha", "Hornet", "Lynx", "Kraken",
	"Jackal", "Cobra", "Osprey", "Stingray",
}

// StrategyName generates a display name like "Feral Shark #4821".
func StrategyName(r *rand.Rand) string {
	return fmt.Sprintf("%s %s #%04d", Pick(r, nameAdjectives), Pick(r, nameNouns), r.Intn(10000))
}
