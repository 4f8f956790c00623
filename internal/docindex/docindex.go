// Package docindex implements DocumentIndex (spec component table, 10%):
// a full-text index over symbol names/signatures/doc comments, plus FAST
// numeric fields (cluster_id, doc_id) for post-filtering search results
// before they reach SymbolStore materialization. Grounded on the
// teacher's trigram posting-list design (internal/core/trigram.go),
// generalized here to stemmed-term postings (github.com/surgebase/porter2)
// the way internal/semantic/stemmer.go normalizes words, since the spec's
// query surface is term/fuzzy/semantic rather than raw substring grep.
package docindex

import (
	"strings"
	"sync"
	"unicode"

	"github.com/surgebase/porter2"

	"github.com/bartolli/codanna-go/internal/ids"
)

// DocId identifies one indexed document (one per Symbol, 1:1 with
// ids.SymbolId — kept as a distinct type since the index's own ordinal
// numbering is a FAST field, not necessarily equal to the SymbolId).
type DocId uint64

// Doc is one document's source fields, tokenized and stored for postings
// plus FAST filtering.
type Doc struct {
	ID        DocId
	SymbolID  ids.SymbolId
	Name      string
	Signature string
	DocText   string
	ClusterID ids.ClusterId
	HasVector bool
}

// segment is one independently-committed unit of postings (spec's
// per-segment commit discipline, shared with the vector store's segment
// concept).
type segment struct {
	docs     map[DocId]*Doc
	postings map[string]map[DocId]struct{} // stemmed term -> doc set
	byName   map[string][]DocId            // exact (lowercased) name -> docs, for name/fuzzy search
}

func newSegment() *segment {
	return &segment{
		docs:     make(map[DocId]*Doc),
		postings: make(map[string]map[DocId]struct{}),
		byName:   make(map[string][]DocId),
	}
}

// Index is the DocumentIndex: a mutable set of segments behind a single
// mutex that every read and write takes.
type Index struct {
	mu       sync.Mutex
	segments []*segment
	nextDoc  DocId
}

func New() *Index {
	return &Index{segments: []*segment{newSegment()}}
}

// tokenize splits on non-alphanumeric boundaries and camelCase/snake_case
// word breaks, then stems each token (porter2), mirroring the teacher's
// Stemmer.Stem convention but applied inline rather than via a
// configurable stemmer object (docindex has no per-project stemming
// toggle in spec).
func tokenize(s string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
				flush()
			}
			cur.WriteRune(unicode.ToLower(r))
		default:
			flush()
		}
	}
	flush()
	out := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) < 2 {
			continue
		}
		out = append(out, porter2.Stem(w))
	}
	return out
}

// Put commits one document into the active (last) segment. Committing a
// batch of documents for one file is the caller's (pipeline's)
// responsibility, matching the per-file atomic publish used by
// symbol.Store.PutAll.
func (ix *Index) Put(d Doc) DocId {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.nextDoc++
	d.ID = ix.nextDoc
	seg := ix.segments[len(ix.segments)-1]
	seg.docs[d.ID] = &d
	seg.byName[strings.ToLower(d.Name)] = append(seg.byName[strings.ToLower(d.Name)], d.ID)
	for _, term := range tokenize(d.Name + " " + d.Signature + " " + d.DocText) {
		set, ok := seg.postings[term]
		if !ok {
			set = make(map[DocId]struct{})
			seg.postings[term] = set
		}
		set[d.ID] = struct{}{}
	}
	return d.ID
}

// Delete removes a document from whichever segment holds it.
func (ix *Index) Delete(id DocId) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, seg := range ix.segments {
		if d, ok := seg.docs[id]; ok {
			delete(seg.docs, id)
			lname := strings.ToLower(d.Name)
			seg.byName[lname] = removeID(seg.byName[lname], id)
			for _, term := range tokenize(d.Name + " " + d.Signature + " " + d.DocText) {
				delete(seg.postings[term], id)
			}
			return
		}
	}
}

func removeID(ids []DocId, target DocId) []DocId {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// NewSegment rolls over to a fresh writable segment, freezing the
// previous one (spec §4.5: "commit into the text index is per-segment").
func (ix *Index) NewSegment() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.segments = append(ix.segments, newSegment())
}

// TermQuery returns every live doc whose tokenized fields contain term
// (after the same stemming normalization used at index time).
func (ix *Index) TermQuery(term string) []*Doc {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	stemmed := porter2.Stem(strings.ToLower(term))
	var out []*Doc
	for _, seg := range ix.segments {
		for id := range seg.postings[stemmed] {
			if d, ok := seg.docs[id]; ok {
				out = append(out, d)
			}
		}
	}
	return out
}

// ExactName returns every live doc whose Name matches exactly
// (case-insensitive), the backing for QueryEngine's name search.
func (ix *Index) ExactName(name string) []*Doc {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	lname := strings.ToLower(name)
	var out []*Doc
	for _, seg := range ix.segments {
		for _, id := range seg.byName[lname] {
			if d, ok := seg.docs[id]; ok {
				out = append(out, d)
			}
		}
	}
	return out
}

// AllNames returns every live doc's Name and DocId, the candidate pool
// fuzzy search scores against (go-edlib operates on this in-memory list
// rather than a posting-list structure — fuzzy distance has no useful
// inverted-index acceleration).
func (ix *Index) AllNames() []*Doc {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	var out []*Doc
	for _, seg := range ix.segments {
		for _, d := range seg.docs {
			out = append(out, d)
		}
	}
	return out
}

// FilterByCluster returns the subset of docs whose ClusterID matches —
// the FAST cluster_id field from spec's component table, used to
// restrict a text-index candidate set to an IVFFlat probe's clusters
// before scoring.
func (ix *Index) FilterByCluster(docs []*Doc, cluster ids.ClusterId) []*Doc {
	out := make([]*Doc, 0, len(docs))
	for _, d := range docs {
		if d.ClusterID == cluster {
			out = append(out, d)
		}
	}
	return out
}
