//go:build poison

package poison

import (
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/maxogod/distro-lottery/src/common/logger"
)

var probability = loadProbability()

func ExitIfPoisoned(point string) {
	if rand.Float64() >= probability {
		return
	}
	logger.Logger.Warnf("action: poisoned | point: %s | exit_code: %d", point, ExitCode)
	logger.Sync()
	os.Exit(ExitCode)
}

func DuplicateIfPoisoned() int {
	if rand.Float64() >= probability {
		return 1
	}
	return 2
}

func loadProbability() float64 {
	value, err := strconv.ParseFloat(os.Getenv(ProbabilityEnv), 64)
	if err != nil || value < 0 || value > 1 {
		return DefaultProbability
	}
	return value
}
