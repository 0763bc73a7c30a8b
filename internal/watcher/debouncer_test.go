package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kwsearch/internal/logging"
)

func nextBatch(t *testing.T, d *Debouncer) []FileEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for debounced batch")
		return nil
	}
}

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, logging.Discard())
	defer d.Stop()

	d.Add(FileEvent{Path: "a.txt", Operation: OpCreate, Timestamp: time.Now()})

	batch := nextBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, "a.txt", batch[0].Path)
	assert.Equal(t, OpCreate, batch[0].Operation)
}

func TestDebouncer_RepeatedWrites_OneEvent(t *testing.T) {
	d := NewDebouncer(50*time.Millisecond, logging.Discard())
	defer d.Stop()

	for i := 0; i < 5; i++ {
		d.Add(FileEvent{Path: "a.txt", Operation: OpModify, Timestamp: time.Now()})
		time.Sleep(5 * time.Millisecond)
	}

	batch := nextBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpModify, batch[0].Operation)
}

func TestDebouncer_Merge(t *testing.T) {
	tests := []struct {
		name  string
		first Operation
		next  Operation
		want  Operation
	}{
		{"create then modify", OpCreate, OpModify, OpCreate},
		{"modify then delete", OpModify, OpDelete, OpDelete},
		{"delete then create", OpDelete, OpCreate, OpModify},
		{"modify then rename", OpModify, OpRename, OpRename},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(20*time.Millisecond, logging.Discard())
			defer d.Stop()

			d.Add(FileEvent{Path: "f.txt", Operation: tt.first})
			d.Add(FileEvent{Path: "f.txt", Operation: tt.next})

			batch := nextBatch(t, d)
			require.Len(t, batch, 1)
			assert.Equal(t, tt.want, batch[0].Operation)
		})
	}
}

func TestDebouncer_CreateThenDelete_Cancels(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, logging.Discard())
	defer d.Stop()

	d.Add(FileEvent{Path: "tmp.txt", Operation: OpCreate})
	d.Add(FileEvent{Path: "tmp.txt", Operation: OpDelete})
	assert.Equal(t, 0, d.Pending())

	select {
	case batch := <-d.Output():
		t.Fatalf("unexpected batch %v", batch)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncer_BatchSortedByPath(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, logging.Discard())
	defer d.Stop()

	d.Add(FileEvent{Path: "c.txt", Operation: OpDelete})
	d.Add(FileEvent{Path: "a.txt", Operation: OpCreate})
	d.Add(FileEvent{Path: "b.txt", Operation: OpModify})

	batch := nextBatch(t, d)
	require.Len(t, batch, 3)
	assert.Equal(t, "a.txt", batch[0].Path)
	assert.Equal(t, "b.txt", batch[1].Path)
	assert.Equal(t, "c.txt", batch[2].Path)
}

func TestDebouncer_Stop_ClosesOutputAndIgnoresAdds(t *testing.T) {
	d := NewDebouncer(20*time.Millisecond, logging.Discard())
	d.Stop()
	d.Stop()

	d.Add(FileEvent{Path: "late.txt", Operation: OpCreate})
	assert.Equal(t, 0, d.Pending())

	_, ok := <-d.Output()
	assert.False(t, ok)
}
