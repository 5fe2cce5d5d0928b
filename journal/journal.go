package journal

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	structpatch "github.com/structpatch/go-structpatch"
	"github.com/structpatch/go-structpatch/codec"
)

var bucketRevisions = []byte("revisions")

// Record is one persisted history entry. Patch entries are stored as raw
// path to encoded-value maps so a journal can be read back without the
// validators that admitted them.
type Record struct {
	Seq     uint64            `msgpack:"q"`
	At      time.Time         `msgpack:"t"`
	Type    string            `msgpack:"y"`
	Codec   string            `msgpack:"c"`
	Forward map[string][]byte `msgpack:"f"`
	Inverse map[string][]byte `msgpack:"i,omitempty"`
}

// NewRecord builds a record from a history entry's patches.
func NewRecord(forward, inverse *structpatch.Patch, at time.Time) *Record {
	rec := &Record{
		At:      at,
		Type:    forward.Type(),
		Codec:   forward.Codec().Name(),
		Forward: pairsMap(forward),
	}
	if inverse != nil {
		rec.Inverse = pairsMap(inverse)
	}
	return rec
}

// Patches reconstructs the record's patches. They carry accept-all
// validators; validation happened when the patches were first built.
func (r *Record) Patches() (forward, inverse *structpatch.Patch, err error) {
	c := codec.ByName(r.Codec)
	if c == nil {
		c = codec.Default
	}
	forward, err = fromMap(r.Type, r.Forward, c)
	if err != nil {
		return nil, nil, err
	}
	if r.Inverse != nil {
		inverse, err = fromMap(r.Type, r.Inverse, c)
		if err != nil {
			return nil, nil, err
		}
	}
	return forward, inverse, nil
}

// Journal is a bbolt-backed log of applied patches, so a process can
// reconstruct or roll back mutation history across restarts.
type Journal struct {
	db *bbolt.DB
}

// Open opens (or creates) the journal database file.
func Open(path string) (*Journal, error) {
	db, err := bbolt.Open(path, 0666, &bbolt.Options{
		FreelistType: bbolt.FreelistMapType,
	})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRevisions)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create revisions bucket: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append persists rec and returns its assigned sequence number.
func (j *Journal) Append(rec *Record) (uint64, error) {
	var seq uint64
	err := j.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRevisions)
		var err error
		seq, err = b.NextSequence()
		if err != nil {
			return err
		}
		rec.Seq = seq
		d, err := msgpack.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put(seqKey(seq), d)
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// All returns every record in sequence order.
func (j *Journal) All() ([]*Record, error) {
	var recs []*Record
	err := j.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRevisions).ForEach(func(_, v []byte) error {
			rec := &Record{}
			if err := msgpack.Unmarshal(v, rec); err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

func pairsMap(p *structpatch.Patch) map[string][]byte {
	res := make(map[string][]byte, p.Len())
	for _, pair := range p.Pairs() {
		res[pair.Path] = pair.Value
	}
	return res
}

func fromMap(typeName string, m map[string][]byte, c codec.Codec) (*structpatch.Patch, error) {
	pairs := make([]structpatch.Pair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, structpatch.Pair{Path: k, Value: codec.Value(v)})
	}
	return structpatch.FromPairs(typeName, pairs, structpatch.WithCodec(c))
}
