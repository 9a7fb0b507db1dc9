package smoke

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/highlights/internal/domain/model"
)

var fixtures = []struct {
	sport string
	teams []string
}{
	{"basketball", []string{"Lakers", "Celtics", "Bulls", "Warriors"}},
	{"soccer", []string{"Barcelona", "Arsenal", "Juventus", "Ajax"}},
	{"hockey", []string{"Bruins", "Oilers", "Rangers", "Canucks"}},
}

// GenerateSegments builds n segments with unique IDs. Each segment is its
// own source so its highlights can be counted independently.
func GenerateSegments(n int, seed uint64) []model.Segment {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // non-negative
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1))
	run := uuid.NewString()[:8]

	out := make([]model.Segment, n)
	for i := range out {
		f := fixtures[rng.IntN(len(fixtures))]
		home := rng.IntN(len(f.teams))
		away := (home + 1 + rng.IntN(len(f.teams)-1)) % len(f.teams)
		id := uuid.NewString()
		out[i] = model.Segment{
			ID:       "seg-" + id,
			SourceID: "smoke-" + run + "-" + strconv.Itoa(i),
			VideoRef: "memory://videos/" + id + ".mp4",
			GameType: f.sport,
			Teams:    []string{f.teams[home], f.teams[away]},
		}
	}
	return out
}
