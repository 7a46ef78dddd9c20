package engine

import (
	"strings"
	"testing"
)

func TestIdentity_Deterministic(t *testing.T) {
	params := map[string]string{"input": "s3://bucket/a.fastq", "threads": "8"}

	id1, err := Identity("align:3", "highmem", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, err := Identity("align:3", "highmem", params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if id1 != id2 {
		t.Errorf("identity not deterministic: %s != %s", id1, id2)
	}
	if len(id1) != 64 {
		t.Errorf("expected 64-char hex digest, got %d chars", len(id1))
	}
}

func TestIdentity_ParameterOrderIndependent(t *testing.T) {
	// Maps built in different insertion order must hash identically.
	a := map[string]string{}
	a["x"] = "1"
	a["y"] = "2"
	a["z"] = "3"

	b := map[string]string{}
	b["z"] = "3"
	b["y"] = "2"
	b["x"] = "1"

	idA, _ := Identity("def:1", "q", a)
	idB, _ := Identity("def:1", "q", b)

	if idA != idB {
		t.Errorf("identity depends on parameter order: %s != %s", idA, idB)
	}
}

func TestIdentity_DistinguishesInputs(t *testing.T) {
	base, _ := Identity("def:1", "q", map[string]string{"k": "v"})

	cases := map[string]string{}
	if id, _ := Identity("def:2", "q", map[string]string{"k": "v"}); id == base {
		cases["definition"] = id
	}
	if id, _ := Identity("def:1", "other", map[string]string{"k": "v"}); id == base {
		cases["queue"] = id
	}
	if id, _ := Identity("def:1", "q", map[string]string{"k": "w"}); id == base {
		cases["parameters"] = id
	}

	for field := range cases {
		t.Errorf("changing %s did not change identity", field)
	}
}

func TestIdentity_NilParameters(t *testing.T) {
	withNil, err := Identity("def:1", "q", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	withEmpty, _ := Identity("def:1", "q", map[string]string{})

	if withNil != withEmpty {
		t.Error("nil and empty parameters should produce the same identity")
	}
}

func TestJobName_StripsDisallowedChars(t *testing.T) {
	name := JobName("wgs_2024", "sample-01.v2", "align:3")

	for _, c := range []string{"-", ".", ":", "/", "\\"} {
		if strings.Contains(name, c) {
			t.Errorf("job name %q contains disallowed char %q", name, c)
		}
	}
	if name != "wgs_2024_sample_01_v2_align_3" {
		t.Errorf("unexpected job name: %s", name)
	}
}
