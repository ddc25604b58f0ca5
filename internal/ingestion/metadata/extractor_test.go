package metadata

import (
	"reflect"
	"testing"

	"github.com/mfedorov/legalrag/internal/core/domain"
)

func TestGenerateDocIDDeterministic(t *testing.T) {
	a := GenerateDocID("Whoever intentionally causes damage", "/data/statutes/ch943.pdf", 0)
	b := GenerateDocID("Whoever intentionally causes damage", "/data/statutes/ch943.pdf", 0)
	if a != b {
		t.Fatalf("same inputs produced different IDs: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("ID length = %d, want 32", len(a))
	}
	if c := GenerateDocID("Whoever intentionally causes damage", "/data/statutes/ch943.pdf", 1); c == a {
		t.Fatalf("different chunk index produced identical ID")
	}
}

func TestInferSourceType(t *testing.T) {
	cases := map[string]domain.SourceType{
		"statutes": domain.SourceStatute,
		"Statute":  domain.SourceStatute,
		"case_law": domain.SourceCaseLaw,
		"training": domain.SourceTraining,
		"policy":   domain.SourcePolicy,
		"random":   domain.SourceUnknown,
	}
	for folder, want := range cases {
		if got := InferSourceType(folder); got != want {
			t.Fatalf("InferSourceType(%q) = %s, want %s", folder, got, want)
		}
	}
}

func TestInferJurisdiction(t *testing.T) {
	if got := InferJurisdiction("Standard operating procedure.", "mpd_policy_madison.pdf"); got != domain.JurisdictionLocal {
		t.Fatalf("madison filename classified as %s", got)
	}
	if got := InferJurisdiction("The City of Milwaukee requires officers to report.", "sop.pdf"); got != domain.JurisdictionLocal {
		t.Fatalf("milwaukee body text classified as %s", got)
	}
	if got := InferJurisdiction("Whoever causes the death of another.", "ch940.pdf"); got != domain.JurisdictionState {
		t.Fatalf("plain statute text classified as %s", got)
	}
}

func TestExtractStatuteNumbers(t *testing.T) {
	text := "Under § 940.01 and 346.63(1)(a), see also 940.01 again."
	got := ExtractStatuteNumbers(text)
	want := []string{"940.01", "346.63(1)(a)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractCaseCitations(t *testing.T) {
	text := "State v. Smith, 2023 WI App 45; see also 2021 WI 12 and No. 2023AP001664."
	got := ExtractCaseCitations(text)
	if len(got) != 3 {
		t.Fatalf("got %v, want 3 citations", got)
	}
	if got[0] != "2023 WI App 45" {
		t.Fatalf("first citation = %q", got[0])
	}
}

func TestExtractChapterNumbers(t *testing.T) {
	got := ExtractChapterNumbers("See Chapter 943 and chapter 346A for details. Chapter 943 repeats.")
	want := []string{"943", "346A"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractCombinesHeaderAndBody(t *testing.T) {
	chunk := domain.Chunk{
		Text:          "Whoever intentionally causes damage to property of another.",
		ContextHeader: "Chapter 943 > 943.01",
		ChunkIndex:    2,
		StartPage:     3,
		EndPage:       4,
		TokenCount:    11,
	}
	doc := &domain.ParsedDocument{
		FilePath:  "/data/statutes/ch943.pdf",
		FileName:  "ch943.pdf",
		Subfolder: "statutes",
	}

	md := Extract(chunk, doc)

	if md.SourceType != domain.SourceStatute {
		t.Fatalf("source type = %s", md.SourceType)
	}
	if md.Title != "ch943" {
		t.Fatalf("title = %q", md.Title)
	}
	if md.Superseded {
		t.Fatalf("new chunk flagged superseded")
	}
	if len(md.StatuteNumbers) == 0 || md.StatuteNumbers[0] != "943.01" {
		t.Fatalf("header statute reference not extracted: %v", md.StatuteNumbers)
	}
	if len(md.ChapterNumbers) == 0 || md.ChapterNumbers[0] != "943" {
		t.Fatalf("header chapter reference not extracted: %v", md.ChapterNumbers)
	}
	if md.ChunkIndex != 2 || md.StartPage != 3 || md.EndPage != 4 || md.TokenCount != 11 {
		t.Fatalf("positional fields not carried through: %+v", md)
	}
}
