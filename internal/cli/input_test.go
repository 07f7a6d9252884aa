package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bastiangx/tstserve/pkg/suggest"
)

func TestInputHandler(t *testing.T) {
	index := suggest.New()
	index.Add("hello", 3)
	index.Add("help", 9)

	input := strings.Join([]string{
		"hel",
		":add helm 5",
		":get helm",
		":get nope",
		":stats",
		"x",
		"zq",
		"1234",
		":bogus",
	}, "\n")

	var out bytes.Buffer
	opts := Options{MinPrefix: 2, MaxPrefix: 10, Limit: 5, OnlyMorePopular: true}
	if err := NewInputHandlerIO(index, opts, strings.NewReader(input), &out).Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Found 2 suggestions for prefix 'hel'",
		"added helm (5)",
		"helm: 5",
		"nope: not found",
		"terms=3",
		"Prefix too short: x",
		"No suggestions found for prefix: 'zq'",
		"unknown command: bogus",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Index(got, "help") > strings.Index(got, "hello") {
		t.Error("heavier suggestion should print first")
	}
	if _, ok := index.Get("helm"); !ok {
		t.Error(":add did not reach the index")
	}
}

var _ suggest.Suggester = (*suggest.Lookup)(nil)
