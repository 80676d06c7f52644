package object

// Ref is a 40-character hex-encoded SHA-1 digest addressing a record.
type Ref string

// String returns the hex form of the ref.
func (r Ref) String() string { return string(r) }

// Short returns the first 8 characters, for display.
func (r Ref) Short() string {
	if len(r) > 8 {
		return string(r[:8])
	}
	return string(r)
}

// Kind identifies the kind of record stored. It is the first token of the
// serialized header.
type Kind string

const (
	KindSource    Kind = "Source"
	KindVersion   Kind = "Version"
	KindComponent Kind = "Component"
)

// Record is a stored, immutable, hashable unit of the object store. The set
// of record kinds is closed: Source, Version and Component.
type Record interface {
	// Kind returns the header token for this record.
	Kind() Kind
	// ID returns the canonical form the record's Ref is computed from.
	ID() ([]byte, error)
	// Content returns the bytes stored after the header.
	Content() ([]byte, error)
	// Refs returns the refs of records this record points at directly.
	Refs() []Ref

	isRecord()
}

// Source holds the raw content of one file: an implementation, a spec, or a
// dist bundle.
type Source struct {
	Data []byte
}

// NewSource copies data into a new Source.
func NewSource(data []byte) *Source {
	out := make([]byte, len(data))
	copy(out, data)
	return &Source{Data: out}
}

func (s *Source) Kind() Kind               { return KindSource }
func (s *Source) ID() ([]byte, error)      { return s.Data, nil }
func (s *Source) Content() ([]byte, error) { return s.Data, nil }
func (s *Source) Refs() []Ref              { return nil }
func (s *Source) isRecord()                {}
