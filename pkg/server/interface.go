/*
Package server implements msgpack IPC for the term suggester.

Clients write msgpack maps to stdin and read one msgpack map per request from
stdout. Every message carries an "id" that is echoed back.

Completion requests look like:

	{"id": "req_001", "p": "ame", "l": 24, "m": true}

"l" is the limit (config default when omitted) and "m" selects ranking by
weight (config default when omitted). The response lists suggestions with
their weight and 1-based rank:

	{"id": "req_001", "s": [{"w": "amenity", "v": 912, "r": 1}], "c": 1, "t": 145}

"t" is the lookup time in microseconds. Invalid completion requests get:

	{"id": "req_001", "e": "prefix too long", "c": 400}

Requests with an "action" manage the index:

	{"id": "a1", "action": "add", "w": "tstserve", "v": 12}
	{"id": "a2", "action": "get", "w": "tstserve"}
	{"id": "a3", "action": "rebuild", "chunk_count": 5}
	{"id": "a4", "action": "store"}
	{"id": "a5", "action": "load"}
	{"id": "a6", "action": "stats"}
	{"id": "a7", "action": "options"}
	{"id": "a8", "action": "health"}
	{"id": "a9", "action": "remove", "w": "tstserve"}
	{"id": "a10", "action": "config", "max_limit": 32, "enable_filter": false}

and receive an ActionResponse whose status is "ok", "unavailable" or "error".
The config action saves the given limits to the config file and applies them
to later requests; omitted fields keep their current values.
*/
package server

// Request is the envelope for every inbound message.
type Request struct {
	ID              string  `msgpack:"id"`
	Action          string  `msgpack:"action,omitempty"`
	Prefix          string  `msgpack:"p,omitempty"`
	Limit           int     `msgpack:"l,omitempty"`
	OnlyMorePopular *bool   `msgpack:"m,omitempty"`
	Word            string  `msgpack:"w,omitempty"`
	Weight          float32 `msgpack:"v,omitempty"`
	ChunkCount      *int    `msgpack:"chunk_count,omitempty"`

	MaxLimit     *int  `msgpack:"max_limit,omitempty"`
	MinPrefix    *int  `msgpack:"min_prefix,omitempty"`
	MaxPrefix    *int  `msgpack:"max_prefix,omitempty"`
	EnableFilter *bool `msgpack:"enable_filter,omitempty"`
}

// CompletionSuggestion - minimal suggestion response
type CompletionSuggestion struct {
	Word   string  `msgpack:"w"`
	Weight float32 `msgpack:"v"`
	Rank   int     `msgpack:"r"`
}

// CompletionResponse - completion response
type CompletionResponse struct {
	ID          string                 `msgpack:"id"`
	Suggestions []CompletionSuggestion `msgpack:"s"`
	Count       int                    `msgpack:"c"`
	TimeTaken   int64                  `msgpack:"t"`
}

// CompletionError holds basic error information for completion requests
type CompletionError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

// StatsInfo describes the loaded index.
type StatsInfo struct {
	Terms        int  `msgpack:"terms"`
	Nodes        int  `msgpack:"nodes"`
	MaxDepth     int  `msgpack:"max_depth"`
	UsePrefix    bool `msgpack:"use_prefix"`
	EditDistance int  `msgpack:"edit_distance"`
	ChunkCount   int  `msgpack:"chunk_count"`
}

// SizeOption - dictionary size option
type SizeOption struct {
	ChunkCount int    `msgpack:"chunk_count"`
	WordCount  int    `msgpack:"word_count"`
	SizeLabel  string `msgpack:"size_label"`
}

// ActionResponse answers every request carrying an action.
type ActionResponse struct {
	ID      string       `msgpack:"id"`
	Status  string       `msgpack:"status"`
	Error   string       `msgpack:"error,omitempty"`
	Word    string       `msgpack:"w,omitempty"`
	Weight  float32      `msgpack:"v,omitempty"`
	Found   bool         `msgpack:"found,omitempty"`
	Stats   *StatsInfo   `msgpack:"stats,omitempty"`
	Options []SizeOption `msgpack:"options,omitempty"`
}

// Action statuses.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
	StatusError       = "error"
	StatusReady       = "ready"
)
