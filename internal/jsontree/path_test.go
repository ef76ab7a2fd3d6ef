package jsontree_test

import (
	"testing"

	"jokebox/internal/jsontree"
)

const samplePayload = `{
	"data": {
		"items": [
			{"content": "first", "meta": {"lang": "en"}},
			"plain string",
			{"content": "second", "rank": 2}
		]
	},
	"count": 3,
	"single": {"content": "only"}
}`

func decodeSample(t *testing.T) jsontree.Node {
	t.Helper()
	root, err := jsontree.Decode([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return root
}

func TestResolveRootAndNested(t *testing.T) {
	root := decodeSample(t)

	if node, ok := jsontree.Resolve(root, "$"); !ok || node == nil {
		t.Fatal("expected $ to resolve to the root")
	}

	node, ok := jsontree.Resolve(root, "data.items.0.meta.lang")
	if !ok {
		t.Fatal("expected nested path to resolve")
	}
	value, ok := jsontree.Stringify(node)
	if !ok || value != "en" {
		t.Fatalf("expected \"en\", got %q ok=%v", value, ok)
	}
}

func TestResolveFailures(t *testing.T) {
	root := decodeSample(t)

	cases := []struct {
		name string
		path string
	}{
		{"missing key", "data.missing"},
		{"index out of range", "data.items.9"},
		{"negative index", "data.items.-1"},
		{"non-numeric index", "data.items.first"},
		{"walk into scalar", "count.value"},
		{"blank path", "  "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := jsontree.Resolve(root, tc.path); ok {
				t.Fatalf("expected path %q to fail", tc.path)
			}
		})
	}
}

func TestItemsSkipsNonObjects(t *testing.T) {
	root := decodeSample(t)

	items := jsontree.Items(root, "data.items")
	if len(items) != 2 {
		t.Fatalf("expected 2 object items, got %d", len(items))
	}
	if content, _ := jsontree.String(items[0], "content"); content != "first" {
		t.Fatalf("unexpected first item content: %q", content)
	}
}

func TestItemsSingleObjectAndScalar(t *testing.T) {
	root := decodeSample(t)

	items := jsontree.Items(root, "single")
	if len(items) != 1 {
		t.Fatalf("expected single object wrapped in one-element slice, got %d", len(items))
	}
	if items := jsontree.Items(root, "count"); len(items) != 0 {
		t.Fatalf("expected no items for scalar path, got %d", len(items))
	}
}

func TestStringStringifiesScalars(t *testing.T) {
	root := decodeSample(t)

	if value, ok := jsontree.String(root, "count"); !ok || value != "3" {
		t.Fatalf("expected numeric scalar as \"3\", got %q ok=%v", value, ok)
	}
	if _, ok := jsontree.String(root, "data"); ok {
		t.Fatal("expected object node to report absence")
	}
	if _, ok := jsontree.String(root, ""); ok {
		t.Fatal("expected blank path to report absence")
	}
}
