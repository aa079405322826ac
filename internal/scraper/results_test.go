package scraper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestResultsConcurrentAppend verifies appends from many goroutines all land.
func TestResultsConcurrentAppend(t *testing.T) {
	t.Parallel()

	results := NewResults()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				results.Append(Record{Item: fmt.Sprintf("item-%d-%d", worker, j), Stack: 64})
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 200, results.Len())
}

// TestResultsSaveWritesIndentedJSON checks the on-disk shape of the report.
func TestResultsSaveWritesIndentedJSON(t *testing.T) {
	t.Parallel()

	results := NewResults()
	results.Append(Record{Item: "Stick", Stack: 64})
	results.Append(Record{Item: "Ender Pearl", Stack: 16})

	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, results.Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []Record
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, []Record{{Item: "Stick", Stack: 64}, {Item: "Ender Pearl", Stack: 16}}, got)
	require.Contains(t, string(raw), "  {")
	require.Contains(t, string(raw), `"item": "Stick"`)
	require.Contains(t, string(raw), `"stack": 64`)
}

// TestResultsSaveEmptyWritesEmptyArray ensures a run with no items still
// produces a valid report.
func TestResultsSaveEmptyWritesEmptyArray(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, NewResults().Save(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[]", string(raw))
}

// TestResultsSealedAfterSave verifies late appends are rejected once saved.
func TestResultsSealedAfterSave(t *testing.T) {
	t.Parallel()

	results := NewResults()
	require.True(t, results.Append(Record{Item: "Stick", Stack: 64}))
	require.NoError(t, results.Save(filepath.Join(t.TempDir(), "items.json")))

	require.False(t, results.Append(Record{Item: "Arrow", Stack: 64}))
	require.Equal(t, 1, results.Len())
}

// TestResultsSaveCreatesParentDir checks nested output paths work.
func TestResultsSaveCreatesParentDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "nested", "items.json")
	results := NewResults()
	results.Append(Record{Item: "Stick", Stack: 64})

	require.NoError(t, results.Save(path))
	require.FileExists(t, path)
}

// TestResultsSnapshotIsCopy ensures callers cannot mutate internal state.
func TestResultsSnapshotIsCopy(t *testing.T) {
	t.Parallel()

	results := NewResults()
	results.Append(Record{Item: "Stick", Stack: 64})

	snap := results.Snapshot()
	snap[0].Stack = 1

	require.Equal(t, 64, results.Snapshot()[0].Stack)
}
