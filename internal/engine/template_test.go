package engine

import (
	"errors"
	"testing"
)

func testContext() *Context {
	return NewContext("proj1", "wgs_2024", "sampleA", map[string]string{
		"file":  "s3://raw/sampleA.fastq.gz",
		"batch": "b7",
	})
}

func TestRender_SampleFields(t *testing.T) {
	got, err := Render("{{ .Sample.file }}", testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "s3://raw/sampleA.fastq.gz" {
		t.Errorf("unexpected result: %s", got)
	}
}

func TestRender_SampleNameInjected(t *testing.T) {
	// NewContext adds the sample name under "_sample".
	got, err := Render("{{ .Sample._sample }}", testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "sampleA" {
		t.Errorf("expected sampleA, got %s", got)
	}
}

func TestRender_ProjectFields(t *testing.T) {
	got, err := Render("s3://results/{{ .Project.name }}/{{ .Project.workflow }}/out.bam", testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "s3://results/proj1/wgs_2024/out.bam" {
		t.Errorf("unexpected result: %s", got)
	}
}

func TestRender_MissingKeyFails(t *testing.T) {
	// A silently empty placeholder in an output path would corrupt
	// output-truth, so missing keys must be a hard error.
	_, err := Render("{{ .Sample.nonexistent }}", testContext())
	if err == nil {
		t.Fatal("expected error for missing key")
	}
	if !errors.Is(err, ErrTemplateRender) {
		t.Errorf("expected ErrTemplateRender, got %v", err)
	}
}

func TestRender_ParseError(t *testing.T) {
	_, err := Render("{{ .Sample.file", testContext())
	if !errors.Is(err, ErrTemplateParse) {
		t.Errorf("expected ErrTemplateParse, got %v", err)
	}
}

func TestRenderMap(t *testing.T) {
	params, err := RenderMap(map[string]string{
		"input":  "{{ .Sample.file }}",
		"sample": "{{ .Sample._sample }}",
		"static": "42",
	}, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if params["input"] != "s3://raw/sampleA.fastq.gz" {
		t.Errorf("input: %s", params["input"])
	}
	if params["sample"] != "sampleA" {
		t.Errorf("sample: %s", params["sample"])
	}
	if params["static"] != "42" {
		t.Errorf("static: %s", params["static"])
	}
}

func TestRenderList(t *testing.T) {
	outputs, err := RenderList([]string{
		"s3://results/{{ .Sample._sample }}/aligned.bam",
		"s3://results/{{ .Sample._sample }}/aligned.bam.bai",
	}, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(outputs))
	}
	if outputs[0] != "s3://results/sampleA/aligned.bam" {
		t.Errorf("unexpected output: %s", outputs[0])
	}
}

func TestRender_DefaultFunc(t *testing.T) {
	got, err := Render(`{{ default "standard" .Sample.batch }}`, testContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "b7" {
		t.Errorf("expected b7, got %s", got)
	}
}
