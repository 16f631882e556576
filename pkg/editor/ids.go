package editor

import (
	"strconv"
	"strings"
	"time"
)

const nodeIDPrefix = "node_"

// idGenerator hands out node_<unix millis> identifiers. A clock reading that
// does not move forward is bumped to one millisecond past the last issued id.
type idGenerator struct {
	now  func() time.Time
	last int64
}

func newIDGenerator(now func() time.Time) *idGenerator {
	return &idGenerator{now: now}
}

func (g *idGenerator) Next() string {
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}

	g.last = ms

	return nodeIDPrefix + strconv.FormatInt(ms, 10)
}

// observe records an existing id so later ids never collide with it.
func (g *idGenerator) observe(id string) {
	raw, ok := strings.CutPrefix(id, nodeIDPrefix)
	if !ok {
		return
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}

	if ms > g.last {
		g.last = ms
	}
}
