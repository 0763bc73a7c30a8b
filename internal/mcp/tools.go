package mcp

// KeywordSearchInput is the input schema of the keyword_search tool.
type KeywordSearchInput struct {
	Keywords   []string `json:"keywords" jsonschema:"keywords to look for; each is matched as a case-sensitive substring"`
	Directory  string   `json:"directory,omitempty" jsonschema:"directory to search, default from the kwsearch config"`
	Extensions []string `json:"extensions,omitempty" jsonschema:"file extensions to include, e.g. .txt"`
	Strategy   string   `json:"strategy,omitempty" jsonschema:"shared (goroutines) or isolated (child processes)"`
	MaxWorkers int      `json:"max_workers,omitempty" jsonschema:"upper bound on concurrent workers, default 4"`
}

// KeywordSearchOutput is the output schema of the keyword_search tool.
type KeywordSearchOutput struct {
	// Keywords repeats the deduplicated input in order, since Results is an
	// unordered object.
	Keywords   []string            `json:"keywords" jsonschema:"keywords in search order"`
	Results    map[string][]string `json:"results" jsonschema:"files containing each keyword"`
	Strategy   string              `json:"strategy" jsonschema:"strategy that ran"`
	Workers    int                 `json:"workers" jsonschema:"number of workers used"`
	Files      int                 `json:"files" jsonschema:"number of files searched"`
	Warnings   int                 `json:"warnings" jsonschema:"files that could not be read"`
	DurationMS float64             `json:"duration_ms" jsonschema:"search time in milliseconds"`
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

const (
	toolKeywordSearch = "keyword_search"

	keywordSearchDescription = "Find which files contain each keyword. Splits the file list across " +
		"concurrent workers and returns, per keyword, the files whose text contains it exactly " +
		"(case-sensitive substring)."
)
