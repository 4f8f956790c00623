// Package vectorstore implements VectorStore & Segment Management from
// spec §4.7: per-segment vector files laid out contiguously by cluster,
// with a sibling offset table, read back as a byte buffer rather than a
// raw mmap(2) syscall (DESIGN.md's standard-library-parts justification:
// the teacher's own FileContentStore reads whole-file content into memory
// and serves zero-copy string refs over it — the same "load once, slice
// repeatedly" shape this package follows for vectors instead of text).
package vectorstore

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/bartolli/codanna-go/internal/errs"
	"github.com/bartolli/codanna-go/internal/ids"
)

// magicVectorFile tags the native-endianness packed-f32 format described
// in spec §6; readers refuse a file that does not start with it. The magic
// is four raw bytes that read the same on either byte order, so it does not
// detect a file written on a machine of the other endianness.
var magicVectorFile = [4]byte{'c', 'v', 'e', 'c'}

// nativeEndian is the host's native byte order; this build always writes
// and reads in that order, matching spec §6's "not portable across
// endianness" vector file format.
var nativeEndian = binary.NativeEndian

// Segment is one segment's vectors + cluster offset table, held in
// memory as the decoded form (spec's "mmap + pointer-cast" becomes
// "read once, index by byte offset" here).
type Segment struct {
	ID        ids.SegmentId
	Dim       int
	data      []float32            // flat, contiguous by cluster
	clusterOf []ids.ClusterId      // clusterOf[vectorIndex]
	offsets   map[ids.ClusterId]int // cluster -> starting vector index
	idAt      map[int]ids.VectorId // vector index -> VectorId
	indexOf   map[ids.VectorId]int // VectorId -> vector index
	mu        sync.RWMutex
}

func newSegment(id ids.SegmentId, dim int) *Segment {
	return &Segment{
		ID: id, Dim: dim,
		offsets: make(map[ids.ClusterId]int),
		idAt:    make(map[int]ids.VectorId),
		indexOf: make(map[ids.VectorId]int),
	}
}

// Append adds one vector under cluster c, returning its VectorId. Growing
// a segment by append during re-embed is the "rare" lifecycle event spec
// §4.7 describes; a rewrite (Merge) is needed to re-sort by cluster.
func (s *Segment) Append(vecID ids.VectorId, c ids.ClusterId, vec []float32) error {
	if len(vec) != s.Dim {
		return errs.Vector("append", fmt.Errorf("dimension mismatch: want %d, got %d", s.Dim, len(vec)))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.clusterOf)
	s.data = append(s.data, vec...)
	s.clusterOf = append(s.clusterOf, c)
	s.idAt[idx] = vecID
	s.indexOf[vecID] = idx
	if _, ok := s.offsets[c]; !ok {
		s.offsets[c] = idx
	}
	return nil
}

// Get returns the vector for id, or nil if absent.
func (s *Segment) Get(id ids.VectorId) []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.indexOf[id]
	if !ok {
		return nil
	}
	return append([]float32(nil), s.data[idx*s.Dim:(idx+1)*s.Dim]...)
}

// ClusterVectors returns every (VectorId, vector) pair in cluster c.
func (s *Segment) ClusterVectors(c ids.ClusterId) map[ids.VectorId][]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[ids.VectorId][]float32)
	for idx, cl := range s.clusterOf {
		if cl == c {
			out[s.idAt[idx]] = s.data[idx*s.Dim : (idx+1)*s.Dim]
		}
	}
	return out
}

// Store owns every live segment for one `.codanna/vectors/` directory.
type Store struct {
	dir      string
	mu       sync.RWMutex
	segments map[ids.SegmentId]*Segment
}

func New(dir string) *Store {
	return &Store{dir: dir, segments: make(map[ids.SegmentId]*Segment)}
}

// CreateSegment opens (creating if absent) the in-memory segment for id —
// spec's "Create on first commit for that segment id".
func (st *Store) CreateSegment(id ids.SegmentId, dim int) *Segment {
	st.mu.Lock()
	defer st.mu.Unlock()
	if seg, ok := st.segments[id]; ok {
		return seg
	}
	seg := newSegment(id, dim)
	st.segments[id] = seg
	return seg
}

func (st *Store) Segment(id ids.SegmentId) *Segment {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.segments[id]
}

// Merge concatenates src's vector regions into dst, cluster-contiguous,
// rewriting dst's offset table — spec's "Merge when the text index merges
// its segments".
func (st *Store) Merge(dst, src ids.SegmentId) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	d, ok1 := st.segments[dst]
	s, ok2 := st.segments[src]
	if !ok1 || !ok2 {
		return errs.Vector("merge", fmt.Errorf("unknown segment"))
	}
	if d.Dim != s.Dim {
		return errs.Vector("merge", fmt.Errorf("dimension mismatch: %d vs %d", d.Dim, s.Dim))
	}
	merged := newSegment(dst, d.Dim)
	type entry struct {
		seg *Segment
		vid ids.VectorId
	}
	byCluster := make(map[ids.ClusterId][]entry)
	for _, seg := range []*Segment{d, s} {
		for idx, c := range seg.clusterOf {
			byCluster[c] = append(byCluster[c], entry{seg, seg.idAt[idx]})
		}
	}
	for c, es := range byCluster {
		for _, e := range es {
			i := e.seg.indexOf[e.vid]
			_ = merged.Append(e.vid, c, e.seg.data[i*e.seg.Dim:(i+1)*e.seg.Dim])
		}
	}
	st.segments[dst] = merged
	delete(st.segments, src)
	return nil
}

// DeleteSegment removes a segment no longer referenced by the text
// index's active set — the orphan sweep from spec §4.7.
func (st *Store) DeleteSegment(id ids.SegmentId) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.segments, id)
	_ = os.Remove(st.path(id))
	_ = os.Remove(st.offsetPath(id))
}

func (st *Store) path(id ids.SegmentId) string {
	return filepath.Join(st.dir, fmt.Sprintf("segment_%d.vec", uint32(id)))
}

func (st *Store) offsetPath(id ids.SegmentId) string {
	return filepath.Join(st.dir, fmt.Sprintf("segment_%d.offsets", uint32(id)))
}

// Flush writes segment id to a temp file and atomically renames it into
// place — the writer-operates-on-a-separate-file-then-renames discipline
// spec §5 requires for the shared read-only vector mmap.
func (st *Store) Flush(id ids.SegmentId) error {
	st.mu.RLock()
	seg, ok := st.segments[id]
	st.mu.RUnlock()
	if !ok {
		return errs.Vector("flush", fmt.Errorf("unknown segment %d", id))
	}
	seg.mu.RLock()
	defer seg.mu.RUnlock()

	tmp := st.path(id) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errs.IO("flush", tmp, err)
	}
	if err := writeVectorFile(f, seg); err != nil {
		f.Close()
		os.Remove(tmp)
		return errs.IO("flush", tmp, err)
	}
	if err := f.Close(); err != nil {
		return errs.IO("flush", tmp, err)
	}
	if err := os.Rename(tmp, st.path(id)); err != nil {
		return errs.IO("flush", st.path(id), err)
	}

	offTmp := st.offsetPath(id) + ".tmp"
	of, err := os.Create(offTmp)
	if err != nil {
		return errs.IO("flush", offTmp, err)
	}
	if err := writeOffsetFile(of, seg); err != nil {
		of.Close()
		os.Remove(offTmp)
		return errs.IO("flush", offTmp, err)
	}
	if err := of.Close(); err != nil {
		return errs.IO("flush", offTmp, err)
	}
	return os.Rename(offTmp, st.offsetPath(id))
}

func writeVectorFile(f *os.File, seg *Segment) error {
	if _, err := f.Write(magicVectorFile[:]); err != nil {
		return err
	}
	header := make([]byte, 8)
	nativeEndian.PutUint32(header[0:4], uint32(seg.Dim))
	nativeEndian.PutUint32(header[4:8], uint32(len(seg.clusterOf)))
	if _, err := f.Write(header); err != nil {
		return err
	}
	buf := make([]byte, 4*len(seg.data))
	for i, v := range seg.data {
		nativeEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	_, err := f.Write(buf)
	return err
}

func writeOffsetFile(f *os.File, seg *Segment) error {
	maxCluster := ids.ClusterId(0)
	for c := range seg.offsets {
		if c > maxCluster {
			maxCluster = c
		}
	}
	buf := make([]byte, 8*(int(maxCluster)+1))
	for c, off := range seg.offsets {
		nativeEndian.PutUint64(buf[int(c)*8:], uint64(off))
	}
	_, err := f.Write(buf)
	return err
}

// Load reads a segment back from disk, refusing a file whose magic does
// not match; the header and vectors are read in native byte order, and a
// file of the other byte order is not detected.
func (st *Store) Load(id ids.SegmentId, dim int) (*Segment, error) {
	f, err := os.Open(st.path(id))
	if err != nil {
		return nil, errs.IO("load", st.path(id), err)
	}
	defer f.Close()
	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, errs.IO("load", st.path(id), err)
	}
	if string(magic) != string(magicVectorFile[:]) {
		return nil, errs.Corruption("load", fmt.Errorf("vector file %s: bad magic (not a vector file or corrupt)", st.path(id)))
	}
	header := make([]byte, 8)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, errs.IO("load", st.path(id), err)
	}
	fileDim := int(nativeEndian.Uint32(header[0:4]))
	count := int(nativeEndian.Uint32(header[4:8]))
	if fileDim != dim {
		return nil, errs.Vector("load", fmt.Errorf("dimension mismatch: file has %d, want %d", fileDim, dim))
	}
	buf := make([]byte, 4*fileDim*count)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, errs.IO("load", st.path(id), err)
	}
	seg := newSegment(id, fileDim)
	seg.data = make([]float32, fileDim*count)
	for i := range seg.data {
		seg.data[i] = math.Float32frombits(nativeEndian.Uint32(buf[i*4:]))
	}
	st.mu.Lock()
	st.segments[id] = seg
	st.mu.Unlock()
	return seg, nil
}
