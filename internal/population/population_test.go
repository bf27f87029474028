package population

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arup-group/batsim/internal/model"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "population.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const oneAgentJSON = `{
  "agents": [
    {
      "id": "a1",
      "attributes": {"income": "low"},
      "trace": {
        "segments": [
          {"kind": "activity", "activity": {"type": "home", "location": "h1", "start": "2024-01-01T18:00:00Z", "end": "2024-01-02T09:00:00Z"}},
          {"kind": "trip", "trip": {"links": [{"link_id": "l1", "distance_m": 10000, "entry_time": "2024-01-02T09:00:00Z", "exit_time": "2024-01-02T09:30:00Z"}]}},
          {"kind": "activity", "activity": {"type": "work", "location": "w1", "start": "2024-01-02T09:30:00Z", "end": "2024-01-02T17:30:00Z"}},
          {"kind": "trip", "trip": {"links": [{"link_id": "l2", "distance_m": 10000, "entry_time": "2024-01-02T17:30:00Z", "exit_time": "2024-01-02T18:00:00Z"}]}}
        ]
      }
    }
  ]
}`

func TestLoadConvertsValidTrace(t *testing.T) {
	path := writeTemp(t, oneAgentJSON)
	agents, err := Load(path)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "a1", agents[0].ID)
	assert.Equal(t, "low", agents[0].Attributes["income"])
	assert.Greater(t, agents[0].Trace.Len(), 0)
}

func TestLoadRejectsNonMonotoneSegments(t *testing.T) {
	bad := `{"agents":[{"id":"a1","attributes":{},"trace":{"segments":[
		{"kind":"activity","activity":{"type":"home","location":"h1","start":"2024-01-01T18:00:00Z","end":"2024-01-01T09:00:00Z"}}
	]}}]}`
	path := writeTemp(t, bad)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsNegativeDistance(t *testing.T) {
	bad := `{"agents":[{"id":"a1","attributes":{},"trace":{"segments":[
		{"kind":"trip","trip":{"links":[{"link_id":"l1","distance_m":-5,"entry_time":"2024-01-01T09:00:00Z","exit_time":"2024-01-01T09:30:00Z"}]}}
	]}}]}`
	path := writeTemp(t, bad)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsEmptyTrace(t *testing.T) {
	bad := `{"agents":[{"id":"a1","attributes":{},"trace":{"segments":[]}}]}`
	path := writeTemp(t, bad)
	_, err := Load(path)
	require.Error(t, err)
}

const splitDayHomeJSON = `{
  "agents": [
    {
      "id": "a1",
      "attributes": {},
      "trace": {
        "segments": [
          {"kind": "activity", "activity": {"type": "home", "location": "h1", "start": "2024-01-01T00:00:00Z", "end": "2024-01-01T06:00:00Z"}},
          {"kind": "trip", "trip": {"links": [{"link_id": "l1", "distance_m": 10000, "entry_time": "2024-01-01T06:00:00Z", "exit_time": "2024-01-01T06:30:00Z"}]}},
          {"kind": "activity", "activity": {"type": "work", "location": "w1", "start": "2024-01-01T06:30:00Z", "end": "2024-01-01T14:30:00Z"}},
          {"kind": "trip", "trip": {"links": [{"link_id": "l2", "distance_m": 10000, "entry_time": "2024-01-01T14:30:00Z", "exit_time": "2024-01-01T15:00:00Z"}]}},
          {"kind": "activity", "activity": {"type": "home", "location": "h1", "start": "2024-01-01T22:00:00Z", "end": "2024-01-02T00:00:00Z"}}
        ]
      }
    }
  ]
}`

// TestLoadMergesOvernightActivityWithPositiveDuration round-trips a
// raw split-day plan (the first and last raw segments are both "home"
// activities) through Load, which wraps via model.WrapActivities. The
// merged overnight activity must end up with a positive duration so it
// survives into a chargeable event rather than being silently dropped.
func TestLoadMergesOvernightActivityWithPositiveDuration(t *testing.T) {
	path := writeTemp(t, splitDayHomeJSON)
	agents, err := Load(path)
	require.NoError(t, err)
	require.Len(t, agents, 1)

	trace := agents[0].Trace
	require.Equal(t, 4, trace.Len(), "the leading and trailing home activities must merge into one segment")

	merged := trace.Segments[0]
	require.Equal(t, model.SegmentActivity, merged.Kind)
	require.Equal(t, "home", merged.Activity.Type)
	assert.True(t, merged.Activity.Duration() > 0, "merged overnight activity must have a positive duration")
	assert.Equal(t, 8*60*60.0, merged.Activity.Duration().Seconds(), "duration must equal the sum of both halves: 2h + 6h")
}

func TestLoadRejectsUnknownSegmentKind(t *testing.T) {
	bad := `{"agents":[{"id":"a1","attributes":{},"trace":{"segments":[
		{"kind":"teleport"}
	]}}]}`
	path := writeTemp(t, bad)
	_, err := Load(path)
	require.Error(t, err)
}
