package chunking

import (
	"sort"
	"strings"
	"testing"
)

const statuteFixture = `CHAPTER 943
CRIMES AGAINST PROPERTY

943.01 Damage to property. (1) Whoever intentionally
causes damage to any physical property of another without the
person's consent is guilty of a Class A misdemeanor.
(2) Any person violating sub. (1) under any of the following
circumstances is guilty of a Class I felony:

(a) 1. In this paragraph, "highway" means any public way or
thoroughfare, including bridges thereon, any roadways commonly
used for vehicular traffic, whether public or private, any railroad,
including street and interurban railways, and any navigable water-
way or airport.

2. The property damaged is a vehicle or highway and the
damage is of a kind which is likely to cause injury to a person or
further property damage.

(b) The property damaged belongs to a public utility or com-
mon carrier and the damage is of a kind which is likely to impair
the services of the public utility or common carrier.
`

func titlesAtLevel(nodes []HierarchyNode, level int) []string {
	var out []string
	for _, n := range nodes {
		if n.Level == level {
			out = append(out, n.Title)
		}
	}
	return out
}

func findNode(t *testing.T, nodes []HierarchyNode, title string) HierarchyNode {
	t.Helper()
	for _, n := range nodes {
		if n.Title == title {
			return n
		}
	}
	t.Fatalf("node %q not found", title)
	return HierarchyNode{}
}

func TestDetectHierarchyEmptyText(t *testing.T) {
	if nodes := DetectHierarchy("", DocTypeStatute); len(nodes) != 0 {
		t.Fatalf("expected no nodes for empty text, got %d", len(nodes))
	}
}

func TestDetectHierarchyStatuteLevels(t *testing.T) {
	nodes := DetectHierarchy(statuteFixture, DocTypeStatute)

	if !contains(titlesAtLevel(nodes, 1), "943.01") {
		t.Fatalf("expected level-1 node 943.01, got %v", titlesAtLevel(nodes, 1))
	}
	if !contains(titlesAtLevel(nodes, 2), "(2)") {
		t.Fatalf("expected level-2 node (2), got %v", titlesAtLevel(nodes, 2))
	}
	l3 := titlesAtLevel(nodes, 3)
	if !contains(l3, "(a)") || !contains(l3, "(b)") {
		t.Fatalf("expected level-3 nodes (a) and (b), got %v", l3)
	}
}

func TestDetectHierarchyOrdering(t *testing.T) {
	nodes := DetectHierarchy(statuteFixture, DocTypeStatute)

	positions := make([]int, len(nodes))
	for i, n := range nodes {
		positions[i] = n.StartPos
	}
	if !sort.IntsAreSorted(positions) {
		t.Fatalf("nodes not in document order: %v", positions)
	}

	section := findNode(t, nodes, "943.01")
	sub2 := findNode(t, nodes, "(2)")
	paraA := findNode(t, nodes, "(a)")
	if !(section.StartPos < sub2.StartPos && sub2.StartPos < paraA.StartPos) {
		t.Fatalf("expected section < subsection < paragraph order")
	}
}

func TestEndPosClosesAtSiblingOrAncestor(t *testing.T) {
	nodes := DetectHierarchy(statuteFixture, DocTypeStatute)

	for i, n := range nodes {
		if n.EndPos > len(statuteFixture) {
			t.Fatalf("node %q end_pos past text length", n.Title)
		}
		for j := i + 1; j < len(nodes); j++ {
			if nodes[j].Level <= n.Level {
				if n.EndPos != nodes[j].StartPos {
					t.Fatalf("node %q end_pos=%d, want %d (start of %q)",
						n.Title, n.EndPos, nodes[j].StartPos, nodes[j].Title)
				}
				break
			}
		}
	}
}

func TestContextPathBreadcrumbs(t *testing.T) {
	nodes := DetectHierarchy(statuteFixture, DocTypeStatute)

	sub2 := findNode(t, nodes, "(2)")
	header := BuildContextHeader(contextPath(nodes, sub2.StartPos))
	if !strings.Contains(header, "943.01") || !strings.Contains(header, "(2)") {
		t.Fatalf("breadcrumb at (2) missing ancestors: %q", header)
	}

	paraA := findNode(t, nodes, "(a)")
	header = BuildContextHeader(contextPath(nodes, paraA.StartPos))
	if !strings.Contains(header, "943.01") || !strings.Contains(header, "(a)") {
		t.Fatalf("breadcrumb at (a) missing ancestors: %q", header)
	}
}

func TestDetectHierarchyCaseLaw(t *testing.T) {
	text := "Opinion of the Court\n\nI. FACTUAL AND PROCEDURAL BACKGROUND\n\n¶1 This appeal concerns a search.\n\n¶2 The officer stopped the vehicle.\n"
	nodes := DetectHierarchy(text, DocTypeCaseLaw)

	if !contains(titlesAtLevel(nodes, 0), "Opinion of the Court") {
		t.Fatalf("expected opinion header node, got %v", nodes)
	}
	l3 := titlesAtLevel(nodes, 3)
	if !contains(l3, "¶1") || !contains(l3, "¶2") {
		t.Fatalf("expected pilcrow paragraph nodes, got %v", l3)
	}
}

func TestDetectDocTypeSniffing(t *testing.T) {
	cases := []struct {
		text string
		want DocType
	}{
		{"¶1 text ¶2 text ¶3 text", DocTypeCaseLaw},
		{"No. 2023AP001664 before the court of appeals", DocTypeCaseLaw},
		{"Section 3: Attendance\nEmployee handbook provisions", DocTypeTraining},
		{"POLICY & PROCEDURE\nUse of force guidance", DocTypeTraining},
		{"Chapter 346\n346.63 Operating under influence", DocTypeStatute},
	}
	for _, tc := range cases {
		if got := DetectDocType(tc.text); got != tc.want {
			t.Fatalf("DetectDocType(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestResolveDocTypeSubfolders(t *testing.T) {
	cases := map[string]DocType{
		"statute":  DocTypeStatute,
		"Statutes": DocTypeStatute,
		"case_law": DocTypeCaseLaw,
		"training": DocTypeTraining,
		"policy":   DocTypeTraining,
	}
	for folder, want := range cases {
		if got := ResolveDocType(folder, ""); got != want {
			t.Fatalf("ResolveDocType(%q) = %s, want %s", folder, got, want)
		}
	}
}

func TestDedupKeepsLowerLevel(t *testing.T) {
	// "346.01 Words and phrases" matches both the bare-section rule
	// (level 1) and nothing shallower; add a Chapter line to check the
	// near-position dedup keeps level 0.
	text := "Chapter 346\n346.01 Words and phrases defined.\n"
	nodes := DetectHierarchy(text, DocTypeStatute)
	for i := 1; i < len(nodes); i++ {
		if nodes[i].StartPos-nodes[i-1].StartPos < 3 {
			t.Fatalf("near-duplicate nodes survived dedup: %+v", nodes)
		}
	}
}

func TestTrainingNumberedItemsStartingWithDigits(t *testing.T) {
	text := "TRAINING BULLETIN UPDATES\n\n" +
		"1.  2021 revisions to the pursuit policy.\n" +
		"2.  Updated reporting requirements.\n" +
		"3. 2020 directive is withdrawn.\n"
	nodes := DetectHierarchy(text, DocTypeTraining)

	l2 := titlesAtLevel(nodes, 2)
	// Indented items match even when the item text starts with a year;
	// a single space before a digit still reads as a decimal heading.
	if !contains(l2, "1") || !contains(l2, "2") {
		t.Fatalf("expected numbered items 1 and 2, got %v", l2)
	}
	if contains(l2, "3") {
		t.Fatalf("item 3 with single space before digit should not match, got %v", l2)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
