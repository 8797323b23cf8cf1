package bptree_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ssargent/recordkv/pkg/bptree"
)

func TestBPlusTree_InsertAndSearch(t *testing.T) {
	tests := map[string]struct {
		tree     *bptree.BPlusTree[int, string]
		actions  []func(tree *bptree.BPlusTree[int, string])
		searches []struct {
			key      int
			expected string
			found    bool
		}
	}{
		"Insert and search integers": {
			tree: bptree.NewBPlusTree[int, string](4),
			actions: []func(tree *bptree.BPlusTree[int, string]){
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(1, "one") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(2, "two") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(3, "three") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(4, "four") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(5, "five") },
			},
			searches: []struct {
				key      int
				expected string
				found    bool
			}{
				{1, "one", true},
				{2, "two", true},
				{3, "three", true},
				{4, "four", true},
				{5, "five", true},
				{6, "", false},
			},
		},
		"Insert duplicate keys": {
			tree: bptree.NewBPlusTree[int, string](4),
			actions: []func(tree *bptree.BPlusTree[int, string]){
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(1, "one") },
				func(tree *bptree.BPlusTree[int, string]) { tree.Insert(1, "uno") },
			},
			searches: []struct {
				key      int
				expected string
				found    bool
			}{
				{1, "uno", true},
			},
		},
		"Search empty tree": {
			tree:    bptree.NewBPlusTree[int, string](4),
			actions: []func(tree *bptree.BPlusTree[int, string]){},
			searches: []struct {
				key      int
				expected string
				found    bool
			}{
				{1, "", false},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for _, action := range tt.actions {
				action(tt.tree)
			}
			for _, search := range tt.searches {
				value, found := tt.tree.Search(search.key)
				if found != search.found || value != search.expected {
					t.Errorf("Search(%d) = %v, %v; want %v, %v", search.key, value, found, search.expected, search.found)
				}
			}
		})
	}
}

func TestBPlusTree_Concurrency(t *testing.T) {
	tree := bptree.NewBPlusTree[int, string](4)

	// Insert keys concurrently
	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tree.Insert(i, string(rune('a'+i-1)))
		}(i)
	}
	wg.Wait()

	// Search for keys concurrently
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, found := tree.Search(i); !found {
				t.Errorf("Expected to find key %d", i)
			}
		}(i)
	}
	wg.Wait()
}

func collect(tree *bptree.BPlusTree[string, int], from string, limit int) []string {
	var keys []string
	tree.Ascend(from, func(key string, _ int) bool {
		keys = append(keys, key)
		return len(keys) < limit
	})
	return keys
}

func TestBPlusTree_Ascend(t *testing.T) {
	tree := bptree.NewBPlusTree[string, int](3)
	// Insert out of order so leaves split in the middle
	for i, k := range []string{"user5", "user1", "user9", "user3", "user7", "user2", "user8", "user4", "user6", "user0"} {
		tree.Insert(k, i)
	}

	tests := []struct {
		name  string
		from  string
		limit int
		want  []string
	}{
		{"from the start", "", 100, []string{"user0", "user1", "user2", "user3", "user4", "user5", "user6", "user7", "user8", "user9"}},
		{"exact key", "user4", 3, []string{"user4", "user5", "user6"}},
		{"between keys", "user45", 2, []string{"user5", "user6"}},
		{"past the end", "zzz", 10, nil},
		{"limit one", "user8", 1, []string{"user8"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(tree, tt.from, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("Ascend(%q) = %v; want %v", tt.from, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Ascend(%q)[%d] = %q; want %q", tt.from, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBPlusTree_Delete(t *testing.T) {
	tree := bptree.NewBPlusTree[string, int](3)
	for i := 0; i < 20; i++ {
		tree.Insert(fmt.Sprintf("k%02d", i), i)
	}
	if tree.Len() != 20 {
		t.Fatalf("Len() = %d; want 20", tree.Len())
	}

	// Empty a whole leaf and a few scattered keys
	for _, k := range []string{"k00", "k01", "k02", "k03", "k10", "k19"} {
		if !tree.Delete(k) {
			t.Errorf("Delete(%q) = false; want true", k)
		}
	}
	if tree.Delete("k00") {
		t.Error("Delete of a missing key should report false")
	}
	if tree.Len() != 14 {
		t.Errorf("Len() = %d; want 14", tree.Len())
	}
	if _, found := tree.Search("k10"); found {
		t.Error("k10 should be gone")
	}

	got := collect(tree, "", 100)
	want := []string{"k04", "k05", "k06", "k07", "k08", "k09", "k11", "k12", "k13", "k14", "k15", "k16", "k17", "k18"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Ascend after delete = %v; want %v", got, want)
	}

	// Reinsert into a leaf emptied above
	tree.Insert("k01", 1)
	if got := collect(tree, "", 2); fmt.Sprint(got) != "[k01 k04]" {
		t.Errorf("Ascend after reinsert = %v", got)
	}
}
