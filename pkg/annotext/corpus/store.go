package corpus

import (
	"sort"
	"strings"
	"sync"
)

// Store is the in-memory corpus: an ordered list of documents plus two
// derived reverse indices. The label index maps entity label → document ids,
// the entity index maps the lowercased annotated substring → document ids.
// Both are derivable from the document list at any time via the Build*
// methods.
//
// The store is safe for concurrent readers, but an annotation run owns it
// exclusively: Annotate must not race with other writers.
type Store struct {
	mu          sync.RWMutex
	docs        []Document
	byID        map[string]int
	labelIndex  map[string]map[string]struct{}
	entityIndex map[string]map[string]struct{}
}

// NewStore creates an empty corpus store.
func NewStore() *Store {
	return &Store{
		byID:        make(map[string]int),
		labelIndex:  make(map[string]map[string]struct{}),
		entityIndex: make(map[string]map[string]struct{}),
	}
}

// AddDocument appends a document and inserts it into both indices.
// Returns false without modifying anything when a document with the same id
// is already present; the id is content-derived, so this is the content
// dedup guard, not an error.
func (s *Store) AddDocument(doc Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[doc.ID]; ok {
		return false
	}
	doc.Spans = NormalizeSpans(doc.Spans)
	s.byID[doc.ID] = len(s.docs)
	s.docs = append(s.docs, doc)
	s.indexDocument(doc)
	return true
}

// AddText creates a document from raw text and adds it.
func (s *Store) AddText(text string) (Document, bool) {
	doc := NewDocument(text)
	added := s.AddDocument(doc)
	return doc, added
}

// RemoveDocument deletes a document from the ordered list, the id map, and
// both indices. Returns false when the id is unknown.
func (s *Store) RemoveDocument(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.byID[id]
	if !ok {
		return false
	}
	doc := s.docs[pos]
	s.docs = append(s.docs[:pos], s.docs[pos+1:]...)
	delete(s.byID, id)
	for i := pos; i < len(s.docs); i++ {
		s.byID[s.docs[i].ID] = i
	}
	s.unindexDocument(doc)
	return true
}

// Len returns the number of documents in the corpus.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Get returns a copy of the document with the given id.
func (s *Store) Get(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.byID[id]
	if !ok {
		return Document{}, false
	}
	return copyDocument(s.docs[pos]), true
}

// Documents returns a copy of the ordered document list.
func (s *Store) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Document, len(s.docs))
	for i, d := range s.docs {
		out[i] = copyDocument(d)
	}
	return out
}

// ExtendSpans appends spans to a document and restores the span ordering
// invariant. Indices are not touched; callers run the Build* methods after
// bulk mutation.
func (s *Store) ExtendSpans(id string, spans []Span) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.byID[id]
	if !ok {
		return false
	}
	s.docs[pos].Extend(spans)
	return true
}

// ReplaceText swaps a document's stored text. Used by case-insensitive
// annotation, which writes the folded working copy back so that stored
// offsets and stored text always agree. The id is left untouched.
func (s *Store) ReplaceText(id, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.byID[id]
	if !ok {
		return false
	}
	s.docs[pos].Text = text
	return true
}

// FindByLabel returns the documents containing at least one span with the
// given label, deduplicated by id and ordered by id. Absent labels yield an
// empty result, not an error.
func (s *Store) FindByLabel(label string) []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.labelIndex[label])
}

// FindByEntity returns the documents containing the given text as an
// annotated span. Lookup is case-insensitive.
func (s *Store) FindByEntity(text string) []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.entityIndex[strings.ToLower(text)])
}

// Labels returns the label index as plain id sets, for lookup tooling.
func (s *Store) Labels() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return flattenIndex(s.labelIndex)
}

// Entities returns the entity index as plain id sets, for lookup tooling.
func (s *Store) Entities() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return flattenIndex(s.entityIndex)
}

// BuildLabelIndex rebuilds the label index from scratch.
func (s *Store) BuildLabelIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.labelIndex = make(map[string]map[string]struct{})
	for _, doc := range s.docs {
		for _, span := range doc.Spans {
			insertIndex(s.labelIndex, span.Label, doc.ID)
		}
	}
}

// BuildEntityIndex rebuilds the entity index from scratch.
func (s *Store) BuildEntityIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entityIndex = make(map[string]map[string]struct{})
	for _, doc := range s.docs {
		for _, span := range doc.Spans {
			insertIndex(s.entityIndex, strings.ToLower(Substring(doc.Text, span)), doc.ID)
		}
	}
}

func (s *Store) indexDocument(doc Document) {
	for _, span := range doc.Spans {
		insertIndex(s.labelIndex, span.Label, doc.ID)
		insertIndex(s.entityIndex, strings.ToLower(Substring(doc.Text, span)), doc.ID)
	}
}

func (s *Store) unindexDocument(doc Document) {
	for _, span := range doc.Spans {
		removeIndex(s.labelIndex, span.Label, doc.ID)
		removeIndex(s.entityIndex, strings.ToLower(Substring(doc.Text, span)), doc.ID)
	}
}

func (s *Store) collect(ids map[string]struct{}) []Document {
	if len(ids) == 0 {
		return nil
	}
	out := make([]Document, 0, len(ids))
	for id := range ids {
		if pos, ok := s.byID[id]; ok {
			out = append(out, copyDocument(s.docs[pos]))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func insertIndex(index map[string]map[string]struct{}, key, id string) {
	set, ok := index[key]
	if !ok {
		set = make(map[string]struct{})
		index[key] = set
	}
	set[id] = struct{}{}
}

func removeIndex(index map[string]map[string]struct{}, key, id string) {
	set, ok := index[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(index, key)
	}
}

func flattenIndex(index map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string, len(index))
	for key, set := range index {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[key] = ids
	}
	return out
}

func copyDocument(d Document) Document {
	spans := make([]Span, len(d.Spans))
	copy(spans, d.Spans)
	d.Spans = spans
	return d
}
