package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/kwsearch/internal/logging"
	"github.com/Aman-CERP/kwsearch/internal/search"
)

func serveOnce(t *testing.T, input string) Response {
	t.Helper()

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "a.txt", []byte("Python and error"), 0o644))
	require.NoError(t, util.WriteFile(fs, "b.txt", []byte("process"), 0o644))

	var out bytes.Buffer
	err := Serve(context.Background(), strings.NewReader(input), &out, ServeOptions{
		Logger:     logging.Discard(),
		Filesystem: fs,
	})
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	return resp
}

func TestServe_ScanRequest(t *testing.T) {
	// Given: a scan request over two files and a missing one
	req := NewScanRequest("req-0", ScanParams{
		RunID:    "run-1",
		WorkerID: 0,
		Chunk:    ToBytes([]string{"a.txt", "missing.txt", "b.txt"}),
		Keywords: ToBytes([]string{"Python", "error", "process", "absent"}),
	})
	data, err := json.Marshal(req)
	require.NoError(t, err)

	// When: the child serves it
	resp := serveOnce(t, string(data))

	// Then: the response carries chunk indexes per keyword, in request order
	require.Nil(t, resp.Error)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "req-0", resp.ID)
	assert.Equal(t, ProtocolVersion, resp.JSONRPC)
	assert.Equal(t, [][]int{{0}, {0}, {2}, {}}, resp.Result.Hits)
	assert.Equal(t, 1, resp.Result.FileErrors)
}

func TestServe_RejectsBadRequests(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  int
	}{
		{"malformed json", "{not json", ErrCodeParseError},
		{"wrong version", `{"jsonrpc":"1.0","method":"scan","params":{},"id":"x"}`, ErrCodeInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","method":"index","params":{},"id":"x"}`, ErrCodeMethodNotFound},
		{"empty path", `{"jsonrpc":"2.0","method":"scan","params":{"chunk_paths":[""]},"id":"x"}`, ErrCodeInvalidParams},
		{"negative worker", `{"jsonrpc":"2.0","method":"scan","params":{"worker_id":-1},"id":"x"}`, ErrCodeInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := serveOnce(t, tt.input)

			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Nil(t, resp.Result)
		})
	}
}

func TestScanParams_WireNames(t *testing.T) {
	data, err := json.Marshal(ScanParams{WorkerID: 2, Chunk: ToBytes([]string{"x"}), Keywords: ToBytes([]string{"k"})})
	require.NoError(t, err)

	assert.JSONEq(t, `{"worker_id":2,"chunk_paths":["eA=="],"keywords":["aw=="]}`, string(data))
}

func TestScanParams_NonUTF8SurvivesJSON(t *testing.T) {
	// Given: a path and keyword that are not valid UTF-8
	in := ScanParams{
		Chunk:    ToBytes([]string{"dir/a\xff.txt", "dir/b\xfe\x00.txt"}),
		Keywords: ToBytes([]string{"Py\xc3"}),
	}

	// When: they cross the wire
	data, err := json.Marshal(in)
	require.NoError(t, err)
	var out ScanParams
	require.NoError(t, json.Unmarshal(data, &out))

	// Then: the bytes are unchanged
	assert.Equal(t, FromBytes(in.Chunk), FromBytes(out.Chunk))
	assert.Equal(t, FromBytes(in.Keywords), FromBytes(out.Keywords))
}

func TestHitIndexes(t *testing.T) {
	chunk := []string{"a\xff.txt", "b.txt", "c.txt"}
	kws := search.Keywords{"x", "y", "z"}
	partial := search.PartialResult{
		"x": {"a\xff.txt", "c.txt"},
		"y": {},
		"z": {"b.txt"},
	}

	assert.Equal(t, [][]int{{0, 2}, {}, {1}}, hitIndexes(chunk, kws, partial))
}

func TestResolve(t *testing.T) {
	chunk := []string{"a\xff.txt", "b.txt"}
	kws := search.NewKeywords("x", "y")

	got, err := resolve([][]int{{0}, {}}, chunk, kws)
	require.NoError(t, err)
	assert.Equal(t, search.PartialResult{"x": {"a\xff.txt"}, "y": {}}, got)

	_, err = resolve([][]int{{0}}, chunk, kws)
	assert.Error(t, err, "hit list count must match keywords")

	_, err = resolve([][]int{{5}, {}}, chunk, kws)
	assert.Error(t, err, "index outside chunk")
}
